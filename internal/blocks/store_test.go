package blocks

import (
	"errors"
	"testing"
)

func TestStore_Ingest(t *testing.T) {
	t.Run("indexes blocks by id", func(t *testing.T) {
		s := NewStore()
		err := s.Ingest([]Block{
			{ID: "w1", Type: TypeWord, Text: "Name"},
			{ID: "l1", Type: TypeLine, Text: "Name Alice"},
		})
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
		if s.Len() != 2 {
			t.Errorf("Len() = %d, want 2", s.Len())
		}

		b, err := s.Get("w1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if b.Text != "Name" {
			t.Errorf("Text = %q, want %q", b.Text, "Name")
		}
	})

	t.Run("accumulates across calls in order", func(t *testing.T) {
		s := NewStore()
		if err := s.Ingest([]Block{{ID: "a", Type: TypeWord}}); err != nil {
			t.Fatal(err)
		}
		if err := s.Ingest([]Block{{ID: "b", Type: TypeLine}, {ID: "c", Type: TypeWord}}); err != nil {
			t.Fatal(err)
		}

		all := s.All()
		got := []string{all[0].ID, all[1].ID, all[2].ID}
		want := []string{"a", "b", "c"}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("All()[%d] = %q, want %q", i, got[i], want[i])
			}
		}

		words := s.OfType(TypeWord)
		if len(words) != 2 || words[0].ID != "a" || words[1].ID != "c" {
			t.Errorf("OfType(WORD) = %v, want [a c]", words)
		}
	})

	t.Run("duplicate across pages fails", func(t *testing.T) {
		s := NewStore()
		if err := s.Ingest([]Block{{ID: "a", Type: TypeWord, Text: "first"}}); err != nil {
			t.Fatal(err)
		}
		err := s.Ingest([]Block{{ID: "b", Type: TypeWord}, {ID: "a", Type: TypeWord, Text: "second"}})
		if !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}

		// Rejected batch leaves the store untouched.
		if s.Len() != 1 {
			t.Errorf("Len() = %d, want 1", s.Len())
		}
		if _, err := s.Get("b"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected b to be absent, got %v", err)
		}
		a, _ := s.Get("a")
		if a.Text != "first" {
			t.Errorf("existing block overwritten: %q", a.Text)
		}
	})

	t.Run("duplicate within one page fails", func(t *testing.T) {
		s := NewStore()
		err := s.Ingest([]Block{{ID: "a"}, {ID: "a"}})
		if !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}
		if s.Len() != 0 {
			t.Errorf("Len() = %d, want 0", s.Len())
		}
	})
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore()
	_, err := s.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_IngestCopiesBlocks(t *testing.T) {
	s := NewStore()
	page := []Block{{ID: "w1", Type: TypeWord, Text: "before"}}
	if err := s.Ingest(page); err != nil {
		t.Fatal(err)
	}
	page[0].Text = "after"

	b, _ := s.Get("w1")
	if b.Text != "before" {
		t.Errorf("stored block changed with caller slice: %q", b.Text)
	}
}

func TestBlock_Roles(t *testing.T) {
	tests := []struct {
		name    string
		block   Block
		isKey   bool
		isValue bool
	}{
		{"key", Block{Type: TypeKeyValueSet, EntityTypes: []EntityType{EntityKey}}, true, false},
		{"value", Block{Type: TypeKeyValueSet, EntityTypes: []EntityType{EntityValue}}, false, true},
		{"untagged kvs is a value", Block{Type: TypeKeyValueSet}, false, true},
		{"word", Block{Type: TypeWord, EntityTypes: []EntityType{EntityKey}}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.block.IsKey(); got != tt.isKey {
				t.Errorf("IsKey() = %v, want %v", got, tt.isKey)
			}
			if got := tt.block.IsValue(); got != tt.isValue {
				t.Errorf("IsValue() = %v, want %v", got, tt.isValue)
			}
		})
	}
}
