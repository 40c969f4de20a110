package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/jackzampolin/folio/internal/blocks"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/notify"
	"github.com/jackzampolin/folio/internal/resolve"
	"github.com/jackzampolin/folio/internal/source"
)

type fakeWaiter struct {
	err   error
	calls []string
}

func (w *fakeWaiter) Wait(_ context.Context, jobID string) (string, error) {
	w.calls = append(w.calls, jobID)
	if w.err != nil {
		return "", w.err
	}
	return jobID, nil
}

func formPage(page int, keyText, valueText string) []blocks.Block {
	p := string(rune('0' + page))
	return []blocks.Block{
		{
			ID: "k" + p, Type: blocks.TypeKeyValueSet, Page: page,
			EntityTypes: []blocks.EntityType{blocks.EntityKey},
			Relationships: []blocks.Relationship{
				{Type: blocks.RelChild, IDs: []string{"kw" + p}},
				{Type: blocks.RelValue, IDs: []string{"v" + p}},
			},
		},
		{ID: "kw" + p, Type: blocks.TypeWord, Text: keyText, Page: page},
		{
			ID: "v" + p, Type: blocks.TypeKeyValueSet, Page: page,
			Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{"vw" + p}}},
		},
		{ID: "vw" + p, Type: blocks.TypeWord, Text: valueText, Page: page},
	}
}

func TestRunner_Resolve(t *testing.T) {
	src := source.NewMemory()
	src.Add("job-1", formPage(1, "Name", "Alice"))
	src.Add("job-1", formPage(2, "Name", "Bob"))

	t.Run("without wait", func(t *testing.T) {
		w := &fakeWaiter{}
		r := NewRunner(Config{Source: src, Waiter: w})

		doc, err := r.Resolve(context.Background(), "job-1", false)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if v, _ := doc.KeyValues.Get("Name"); v != "Bob" {
			t.Errorf("Name = %q, want Bob", v)
		}
		if len(w.calls) != 0 {
			t.Errorf("waiter called without wait: %v", w.calls)
		}
	})

	t.Run("with wait", func(t *testing.T) {
		w := &fakeWaiter{}
		r := NewRunner(Config{Source: src, Waiter: w})

		if _, err := r.Resolve(context.Background(), "job-1", true); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(w.calls) != 1 || w.calls[0] != "job-1" {
			t.Errorf("waiter calls = %v", w.calls)
		}
	})

	t.Run("failed job is not resolved", func(t *testing.T) {
		w := &fakeWaiter{err: notify.ErrJobFailed}
		r := NewRunner(Config{Source: src, Waiter: w})

		doc, err := r.Resolve(context.Background(), "job-1", true)
		if !errors.Is(err, notify.ErrJobFailed) {
			t.Fatalf("expected ErrJobFailed, got %v", err)
		}
		if doc != nil {
			t.Error("expected no document")
		}
	})

	t.Run("wait without waiter", func(t *testing.T) {
		r := NewRunner(Config{Source: src})
		if _, err := r.Resolve(context.Background(), "job-1", true); !errors.Is(err, ErrNoWaiter) {
			t.Fatalf("expected ErrNoWaiter, got %v", err)
		}
	})

	t.Run("unknown job", func(t *testing.T) {
		r := NewRunner(Config{Source: src})
		_, err := r.Resolve(context.Background(), "missing", false)
		if !errors.Is(err, document.ErrPageFetchFailed) || !errors.Is(err, source.ErrJobNotFound) {
			t.Fatalf("expected wrapped ErrJobNotFound, got %v", err)
		}
	})
}

func TestRunner_SetOptions(t *testing.T) {
	src := source.NewMemory()
	src.Add("job-1", formPage(1, "Name", "Alice"))
	src.Add("job-1", formPage(2, "Name", "Bob"))

	r := NewRunner(Config{Source: src})
	r.SetOptions(document.WithKeyScope(resolve.ScopePage))

	doc, err := r.Resolve(context.Background(), "job-1", false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if doc.KeyValues.Len() != 2 {
		t.Fatalf("expected page-scoped keys, got %v", doc.KeyValues.Keys())
	}
	if v, _ := doc.KeyValues.Get("page1-Name"); v != "Alice" {
		t.Errorf("page1-Name = %q", v)
	}
}

func TestRunner_WaitsOnQueue(t *testing.T) {
	src := source.NewMemory()
	src.Add("job-1", formPage(1, "Total", "42"))

	q := notify.NewMemoryQueue()
	q.Send([]byte(`{"JobId":"job-1","Status":"SUCCEEDED"}`))
	w := notify.NewWaiter(q, notify.Config{InitialDelay: 1, MaxDelay: 1})

	doc, err := NewRunner(Config{Source: src, Waiter: w}).Resolve(context.Background(), "job-1", true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v, _ := doc.KeyValues.Get("Total"); v != "42" {
		t.Errorf("Total = %q, want 42", v)
	}
}
