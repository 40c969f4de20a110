package blocks

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a block id is not present in the store.
var ErrNotFound = errors.New("block not found")

// ErrDuplicateID is returned when a block id is ingested twice within a job.
var ErrDuplicateID = errors.New("duplicate block id")

// Store indexes every block seen during one reconstruction pass.
// It is not safe for concurrent use; construct one per document.
type Store struct {
	byID  map[string]*Block
	order []*Block
}

// NewStore creates an empty block store.
func NewStore() *Store {
	return &Store{byID: make(map[string]*Block)}
}

// Ingest adds blocks to the index. If any id is already stored, or repeats
// within blocks, nothing from this call is stored and ErrDuplicateID is returned.
func (s *Store) Ingest(blocks []Block) error {
	seen := make(map[string]struct{}, len(blocks))
	for i := range blocks {
		id := blocks[i].ID
		if _, ok := s.byID[id]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}

	for i := range blocks {
		b := blocks[i]
		s.byID[b.ID] = &b
		s.order = append(s.order, &b)
	}
	return nil
}

// Get returns the block with the given id.
func (s *Store) Get(id string) (*Block, error) {
	b, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return b, nil
}

// Len returns the number of stored blocks.
func (s *Store) Len() int {
	return len(s.order)
}

// All returns every stored block in ingestion order.
// Callers must not modify the returned blocks.
func (s *Store) All() []*Block {
	return s.order
}

// OfType returns the stored blocks of type t in ingestion order.
func (s *Store) OfType(t Type) []*Block {
	var out []*Block
	for _, b := range s.order {
		if b.Type == t {
			out = append(out, b)
		}
	}
	return out
}
