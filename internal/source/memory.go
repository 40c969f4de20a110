package source

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/jackzampolin/folio/internal/blocks"
	"github.com/jackzampolin/folio/internal/document"
)

// Memory serves response pages held in memory. It is used by tests and by
// callers that already hold decoded responses.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string][][]blocks.Block

	// FetchErr is returned by FetchPage when non-nil.
	FetchErr error
}

// NewMemory creates an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string][][]blocks.Block)}
}

// Add appends a response page to jobID.
func (m *Memory) Add(jobID string, page []blocks.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[jobID] = append(m.jobs[jobID], page)
}

// FetchPage implements document.PageSource. The cursor is the page index.
func (m *Memory) FetchPage(ctx context.Context, jobID string, cursor *string) (*document.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}

	m.mu.RLock()
	pages, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	idx := 0
	if cursor != nil {
		n, err := strconv.Atoi(*cursor)
		if err != nil || n < 0 || n >= len(pages) {
			return nil, fmt.Errorf("%w: unknown cursor %q for job %s", ErrInvalidResponse, *cursor, jobID)
		}
		idx = n
	}

	page := &document.Page{Blocks: pages[idx]}
	if idx+1 < len(pages) {
		next := strconv.Itoa(idx + 1)
		page.NextCursor = &next
	}
	return page, nil
}
