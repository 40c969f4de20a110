package config

import (
	"time"

	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/notify"
	"github.com/jackzampolin/folio/internal/resolve"
)

// Config holds folio configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LogLevel string     `mapstructure:"log_level" yaml:"log_level"` // debug, info, warn, error
	Source   SourceCfg  `mapstructure:"source" yaml:"source"`
	Notify   NotifyCfg  `mapstructure:"notify" yaml:"notify"`
	Resolve  ResolveCfg `mapstructure:"resolve" yaml:"resolve"`
	Server   ServerCfg  `mapstructure:"server" yaml:"server"`
}

// SourceCfg locates saved analysis responses.
type SourceCfg struct {
	// ResponsesDir holds one directory of response pages per job.
	// Empty means {home}/responses. Supports ${ENV_VAR} syntax.
	ResponsesDir string `mapstructure:"responses_dir" yaml:"responses_dir"`
}

// NotifyCfg configures completion waiting.
type NotifyCfg struct {
	// SpoolDir holds queued notification messages.
	// Empty means {home}/spool. Supports ${ENV_VAR} syntax.
	SpoolDir            string `mapstructure:"spool_dir" yaml:"spool_dir"`
	InitialDelaySeconds int    `mapstructure:"initial_delay_seconds" yaml:"initial_delay_seconds"`
	MaxDelaySeconds     int    `mapstructure:"max_delay_seconds" yaml:"max_delay_seconds"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxAttempts         uint   `mapstructure:"max_attempts" yaml:"max_attempts"` // 0 = until timeout
}

// ResolveCfg configures document reconstruction.
type ResolveCfg struct {
	KeyScope    string `mapstructure:"key_scope" yaml:"key_scope"`       // "job" or "page"
	EmptyHeader string `mapstructure:"empty_header" yaml:"empty_header"` // placeholder for blank headers
	MaxPages    int    `mapstructure:"max_pages" yaml:"max_pages"`       // 0 = unlimited
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Notify: NotifyCfg{
			InitialDelaySeconds: 5,
			MaxDelaySeconds:     60,
			TimeoutSeconds:      1800,
		},
		Resolve: ResolveCfg{
			KeyScope:    string(resolve.ScopeJob),
			EmptyHeader: resolve.DefaultEmptyHeader,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := resolve.ParseKeyScope(c.Resolve.KeyScope); err != nil {
		return err
	}
	return nil
}

// DocumentOptions converts the resolve section to aggregator options.
func (c *Config) DocumentOptions() ([]document.Option, error) {
	scope, err := resolve.ParseKeyScope(c.Resolve.KeyScope)
	if err != nil {
		return nil, err
	}
	return []document.Option{
		document.WithKeyScope(scope),
		document.WithEmptyHeader(c.Resolve.EmptyHeader),
		document.WithMaxPages(c.Resolve.MaxPages),
	}, nil
}

// WaiterConfig converts the notify section to a waiter configuration.
func (c *Config) WaiterConfig() notify.Config {
	return notify.Config{
		InitialDelay: time.Duration(c.Notify.InitialDelaySeconds) * time.Second,
		MaxDelay:     time.Duration(c.Notify.MaxDelaySeconds) * time.Second,
		Timeout:      time.Duration(c.Notify.TimeoutSeconds) * time.Second,
		MaxAttempts:  c.Notify.MaxAttempts,
	}
}
