package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/folio/internal/blocks"
	"github.com/jackzampolin/folio/internal/resolve"
)

// ErrPageFetchFailed is returned when a response page cannot be obtained.
var ErrPageFetchFailed = errors.New("page fetch failed")

// ErrTooManyPages is returned when a job exceeds the configured page limit.
var ErrTooManyPages = errors.New("too many response pages")

// Page is one response page of an analysis job.
// A nil or empty NextCursor marks the last page.
type Page struct {
	Blocks     []blocks.Block
	NextCursor *string
}

// PageSource supplies the response pages of a completed analysis job.
type PageSource interface {
	FetchPage(ctx context.Context, jobID string, cursor *string) (*Page, error)
}

// Options configures an Aggregator.
type Options struct {
	Logger      *slog.Logger
	KeyScope    resolve.KeyScope
	EmptyHeader string
	// MaxPages stops a pass that never reaches a final page. Zero means no limit.
	MaxPages int
}

// Option is a functional option for configuring the aggregator.
type Option func(*Options)

// DefaultOptions returns the default options.
func DefaultOptions() *Options {
	return &Options{
		Logger:      slog.Default(),
		KeyScope:    resolve.ScopeJob,
		EmptyHeader: resolve.DefaultEmptyHeader,
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithKeyScope sets how key text is disambiguated across pages.
func WithKeyScope(s resolve.KeyScope) Option {
	return func(o *Options) { o.KeyScope = s }
}

// WithEmptyHeader sets the placeholder for blank column headers.
func WithEmptyHeader(h string) Option {
	return func(o *Options) { o.EmptyHeader = h }
}

// WithMaxPages limits the number of response pages read in one pass.
func WithMaxPages(n int) Option {
	return func(o *Options) { o.MaxPages = n }
}

// Aggregator reads every response page of a job and merges the results.
// Each Resolve call runs an independent pass with its own block store,
// so one Aggregator may serve concurrent callers.
type Aggregator struct {
	source PageSource
	opts   *Options
}

// NewAggregator creates an aggregator reading from source.
func NewAggregator(source PageSource, opts ...Option) *Aggregator {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Aggregator{source: source, opts: o}
}

// Resolve fetches the pages of jobID in pagination order and returns the
// reconstructed document. On error no partial document is returned.
func (a *Aggregator) Resolve(ctx context.Context, jobID string) (*Document, error) {
	p := newPass(jobID, a.opts)

	var cursor *string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.opts.MaxPages > 0 && p.doc.Pages >= a.opts.MaxPages {
			return nil, fmt.Errorf("%w: job %s exceeded %d pages", ErrTooManyPages, jobID, a.opts.MaxPages)
		}

		page, err := a.source.FetchPage(ctx, jobID, cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: job %s page %d: %w", ErrPageFetchFailed, jobID, p.doc.Pages+1, err)
		}
		if err := p.merge(page); err != nil {
			return nil, fmt.Errorf("job %s page %d: %w", jobID, p.doc.Pages+1, err)
		}

		if page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	a.opts.Logger.Info("document resolved",
		"job_id", jobID,
		"pages", p.doc.Pages,
		"blocks", p.store.Len(),
		"lines", len(p.doc.Lines),
		"key_values", p.doc.KeyValues.Len(),
		"tables", len(p.doc.Tables),
	)
	return p.doc, nil
}

// pass holds the state of one reconstruction. It is never shared.
type pass struct {
	store    *blocks.Store
	resolver *resolve.Resolver
	doc      *Document
	logger   *slog.Logger
}

func newPass(jobID string, o *Options) *pass {
	store := blocks.NewStore()
	return &pass{
		store: store,
		resolver: resolve.New(store, resolve.Config{
			KeyScope:    o.KeyScope,
			EmptyHeader: o.EmptyHeader,
			Logger:      o.Logger,
		}),
		doc:    newDocument(jobID),
		logger: o.Logger,
	}
}

// merge folds one page into the running document. Key-values and tables are
// re-resolved over every block seen so far, since a page may complete
// relationships that earlier pages left dangling.
func (p *pass) merge(page *Page) error {
	if err := p.store.Ingest(page.Blocks); err != nil {
		return err
	}

	for i := range page.Blocks {
		b := &page.Blocks[i]
		switch b.Type {
		case blocks.TypeLine:
			p.doc.Lines = append(p.doc.Lines, b.Text)
		case blocks.TypeWord:
			p.doc.Words = append(p.doc.Words, b.Text)
		}
	}

	for _, pair := range p.resolver.KeyValues() {
		p.doc.KeyValues.Set(pair.Key, pair.Value)
	}

	resolved := p.resolver.Tables()
	tables := make([]Table, 0, len(resolved))
	for _, t := range resolved {
		tables = append(tables, fromResolved(t))
	}
	p.doc.Tables = tables

	p.doc.Pages++
	p.logger.Debug("merged response page",
		"job_id", p.doc.JobID,
		"page", p.doc.Pages,
		"blocks", len(page.Blocks),
	)
	return nil
}
