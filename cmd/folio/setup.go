package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/jobs"
	"github.com/jackzampolin/folio/internal/notify"
	"github.com/jackzampolin/folio/internal/source"
)

// env bundles what every local command needs.
type env struct {
	home   *home.Dir
	config *config.Manager
	logger *slog.Logger
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// loadEnv resolves home, config and logger. An explicit --config wins,
// then {home}/config.yaml when present, then the default search path.
func loadEnv() (*env, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}

	file := cfgFile
	if file == "" && homeDir != "" && h.ConfigExists() {
		file = h.ConfigPath()
	}
	mgr, err := config.NewManager(file, nil)
	if err != nil {
		return nil, err
	}

	level := logLevel
	if level == "" {
		level = mgr.Get().LogLevel
	}
	// Logs go to stderr so stdout stays parseable.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)

	if f := mgr.File(); f != "" {
		logger.Debug("loaded config", "file", f)
	}
	return &env{home: h, config: mgr, logger: logger}, nil
}

// newRunner wires the response directory, notification spool and
// resolve options from config into a job runner.
func (e *env) newRunner() (*jobs.Runner, error) {
	cfg := e.config.Get()

	src, err := source.NewDir(home.Or(cfg.Source.ResponsesDir, e.home.ResponsesPath()), e.logger)
	if err != nil {
		return nil, err
	}
	spool, err := notify.NewSpool(home.Or(cfg.Notify.SpoolDir, e.home.SpoolPath()))
	if err != nil {
		return nil, err
	}
	waiterCfg := cfg.WaiterConfig()
	waiterCfg.Logger = e.logger

	opts, err := cfg.DocumentOptions()
	if err != nil {
		return nil, err
	}

	return jobs.NewRunner(jobs.Config{
		Source:  src,
		Waiter:  notify.NewWaiter(spool, waiterCfg),
		Options: opts,
		Logger:  e.logger,
	}), nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
