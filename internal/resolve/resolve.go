// Package resolve turns the block graph into form fields and tables. It pairs
// KEY blocks with their VALUE blocks and orders table cells into columns.
package resolve

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackzampolin/folio/internal/blocks"
)

// ErrMissingValueBlock is returned when a key has no resolvable value block.
var ErrMissingValueBlock = errors.New("missing value block")

// ErrEmptyKey is returned when a key's assembled text is empty.
var ErrEmptyKey = errors.New("empty key text")

// ErrInvalidKeyScope is returned for an unknown key scope name.
var ErrInvalidKeyScope = errors.New("invalid key scope")

// KeyScope controls how key text is disambiguated across pages.
type KeyScope string

const (
	// ScopeJob uses the key text as-is; a key repeated on a later page
	// replaces the earlier value.
	ScopeJob KeyScope = "job"
	// ScopePage prefixes key text with "page{N}-" using the key block's page.
	ScopePage KeyScope = "page"
)

// DefaultEmptyHeader replaces a blank column header.
const DefaultEmptyHeader = "?Empty?"

// ParseKeyScope converts a config string to a KeyScope. Empty means ScopeJob.
func ParseKeyScope(s string) (KeyScope, error) {
	switch KeyScope(s) {
	case "", ScopeJob:
		return ScopeJob, nil
	case ScopePage:
		return ScopePage, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidKeyScope, s, ScopeJob, ScopePage)
	}
}

// Config configures a Resolver.
type Config struct {
	KeyScope    KeyScope
	EmptyHeader string
	Logger      *slog.Logger
}

// Resolver reads relationships out of a block store. Apart from the store it
// only remembers which problems it has already logged, so a store resolved
// again after every page reports each bad block once.
type Resolver struct {
	store       *blocks.Store
	scope       KeyScope
	emptyHeader string
	logger      *slog.Logger

	mu     sync.Mutex
	logged map[string]bool
}

// New creates a resolver over store.
func New(store *blocks.Store, cfg Config) *Resolver {
	if cfg.KeyScope == "" {
		cfg.KeyScope = ScopeJob
	}
	if cfg.EmptyHeader == "" {
		cfg.EmptyHeader = DefaultEmptyHeader
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Resolver{
		store:       store,
		scope:       cfg.KeyScope,
		emptyHeader: cfg.EmptyHeader,
		logger:      cfg.Logger,
		logged:      make(map[string]bool),
	}
}

// once reports whether the problem identified by key is seen for the first time.
func (r *Resolver) once(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.logged[key] {
		return false
	}
	r.logged[key] = true
	return true
}

// logOnce writes a debug line the first time key is seen.
func (r *Resolver) logOnce(key, msg string, args ...any) {
	if r.once(key) {
		r.logger.Debug(msg, args...)
	}
}

// Pair is one resolved form field.
type Pair struct {
	Key     string
	Value   string
	KeyID   string
	ValueID string
	Page    int
}

// KeyValues resolves every key block in the store, in ingestion order.
// Keys that cannot be resolved are logged and left out.
func (r *Resolver) KeyValues() []Pair {
	var pairs []Pair
	for _, b := range r.store.All() {
		if !b.IsKey() {
			continue
		}
		p, err := r.Pair(b)
		if err != nil {
			if errors.Is(err, ErrEmptyKey) {
				r.logOnce("key:"+b.ID, "dropping key with empty text", "key_id", b.ID)
			} else {
				r.logOnce("key:"+b.ID, "dropping unresolved key", "key_id", b.ID, "error", err)
			}
			continue
		}
		pairs = append(pairs, p)
	}
	return pairs
}

// Pair resolves a single key block to its value.
func (r *Resolver) Pair(key *blocks.Block) (Pair, error) {
	value, err := r.valueBlock(key)
	if err != nil {
		return Pair{}, err
	}

	keyText, err := blocks.Text(r.store, key)
	if err != nil {
		return Pair{}, fmt.Errorf("key text: %w", err)
	}
	if keyText == "" {
		return Pair{}, fmt.Errorf("%w: %q", ErrEmptyKey, key.ID)
	}

	valueText, err := blocks.Text(r.store, value)
	if err != nil {
		return Pair{}, fmt.Errorf("value text: %w", err)
	}

	if r.scope == ScopePage {
		keyText = fmt.Sprintf("page%d-%s", key.Page, keyText)
	}

	return Pair{
		Key:     keyText,
		Value:   valueText,
		KeyID:   key.ID,
		ValueID: value.ID,
		Page:    key.Page,
	}, nil
}

// valueBlock follows the key's VALUE edge. A key is expected to carry exactly
// one VALUE edge with one target; extras are reported and ignored.
func (r *Resolver) valueBlock(key *blocks.Block) (*blocks.Block, error) {
	edges := key.Edges(blocks.RelValue)
	if len(edges) == 0 || len(edges[0].IDs) == 0 {
		return nil, fmt.Errorf("%w: key %q has no VALUE edge", ErrMissingValueBlock, key.ID)
	}
	if (len(edges) > 1 || len(edges[0].IDs) > 1) && r.once("values:"+key.ID) {
		r.logger.Warn("key has more than one value target, using the first",
			"key_id", key.ID,
			"value_edges", len(edges),
			"first_edge_ids", len(edges[0].IDs),
		)
	}

	id := edges[0].IDs[0]
	value, err := r.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q: %w", ErrMissingValueBlock, key.ID, err)
	}
	if !value.IsValue() {
		return nil, fmt.Errorf("%w: key %q points at %s block %q", ErrMissingValueBlock, key.ID, value.Type, id)
	}
	return value, nil
}
