package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackzampolin/folio/internal/blocks"
	"github.com/jackzampolin/folio/internal/resolve"
)

// fakeSource serves pages in order; the cursor is the index of the next page.
type fakeSource struct {
	pages   [][]blocks.Block
	failAt  int // 1-based page to fail on; 0 never fails
	fetches []string
}

func (f *fakeSource) FetchPage(_ context.Context, jobID string, cursor *string) (*Page, error) {
	idx := 0
	if cursor != nil {
		if _, err := fmt.Sscanf(*cursor, "%d", &idx); err != nil {
			return nil, err
		}
	}
	f.fetches = append(f.fetches, fmt.Sprintf("%s@%d", jobID, idx))
	if f.failAt == idx+1 {
		return nil, errors.New("connection reset")
	}
	page := &Page{Blocks: f.pages[idx]}
	if idx+1 < len(f.pages) {
		next := fmt.Sprint(idx + 1)
		page.NextCursor = &next
	}
	return page, nil
}

func kv(prefix, page int, keyText, valueText string) []blocks.Block {
	id := func(s string) string { return fmt.Sprintf("p%d-%d-%s", page, prefix, s) }
	return []blocks.Block{
		{
			ID: id("k"), Type: blocks.TypeKeyValueSet, Page: page,
			EntityTypes: []blocks.EntityType{blocks.EntityKey},
			Relationships: []blocks.Relationship{
				{Type: blocks.RelChild, IDs: []string{id("kw")}},
				{Type: blocks.RelValue, IDs: []string{id("v")}},
			},
		},
		{ID: id("kw"), Type: blocks.TypeWord, Text: keyText, Page: page},
		{
			ID: id("v"), Type: blocks.TypeKeyValueSet, Page: page,
			EntityTypes:   []blocks.EntityType{blocks.EntityValue},
			Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{id("vw")}}},
		},
		{ID: id("vw"), Type: blocks.TypeWord, Text: valueText, Page: page},
	}
}

func TestResolve_NameAlice(t *testing.T) {
	src := &fakeSource{pages: [][]blocks.Block{{
		{ID: "k1", Type: blocks.TypeKeyValueSet, EntityTypes: []blocks.EntityType{blocks.EntityKey},
			Relationships: []blocks.Relationship{
				{Type: blocks.RelChild, IDs: []string{"w1"}},
				{Type: blocks.RelValue, IDs: []string{"v1"}},
			}},
		{ID: "w1", Type: blocks.TypeWord, Text: "Name"},
		{ID: "v1", Type: blocks.TypeKeyValueSet, Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{"w2"}}}},
		{ID: "w2", Type: blocks.TypeWord, Text: "Alice"},
	}}}

	doc, err := NewAggregator(src).Resolve(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if doc.KeyValues.Len() != 1 {
		t.Fatalf("expected 1 key-value, got %d", doc.KeyValues.Len())
	}
	if v, _ := doc.KeyValues.Get("Name"); v != "Alice" {
		t.Errorf("Name = %q, want Alice", v)
	}
	if doc.JobID != "job-1" || doc.Pages != 1 {
		t.Errorf("job/pages = %s/%d", doc.JobID, doc.Pages)
	}
}

func TestResolve_LinesAndWordsInPageOrder(t *testing.T) {
	src := &fakeSource{pages: [][]blocks.Block{
		{
			{ID: "l1", Type: blocks.TypeLine, Text: "first line"},
			{ID: "w1", Type: blocks.TypeWord, Text: "first"},
			{ID: "w2", Type: blocks.TypeWord, Text: "line"},
			{ID: "l2", Type: blocks.TypeLine, Text: "second"},
			{ID: "w3", Type: blocks.TypeWord, Text: "second"},
		},
		{
			{ID: "l3", Type: blocks.TypeLine, Text: "page two"},
			{ID: "w4", Type: blocks.TypeWord, Text: "page"},
			{ID: "w5", Type: blocks.TypeWord, Text: "two"},
		},
	}}

	doc, err := NewAggregator(src).Resolve(context.Background(), "job")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	wantLines := []string{"first line", "second", "page two"}
	wantWords := []string{"first", "line", "second", "page", "two"}
	if fmt.Sprint(doc.Lines) != fmt.Sprint(wantLines) {
		t.Errorf("Lines = %v, want %v", doc.Lines, wantLines)
	}
	if fmt.Sprint(doc.Words) != fmt.Sprint(wantWords) {
		t.Errorf("Words = %v, want %v", doc.Words, wantWords)
	}
	if doc.Pages != 2 {
		t.Errorf("Pages = %d, want 2", doc.Pages)
	}
	if len(src.fetches) != 2 || src.fetches[0] != "job@0" || src.fetches[1] != "job@1" {
		t.Errorf("fetches = %v", src.fetches)
	}
}

func TestResolve_KeyCollisionLaterPageWins(t *testing.T) {
	src := &fakeSource{pages: [][]blocks.Block{
		append(kv(1, 1, "Total", "10"), kv(2, 1, "Date", "2024-01-01")...),
		kv(1, 2, "Total", "25"),
	}}

	doc, err := NewAggregator(src).Resolve(context.Background(), "job")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if doc.KeyValues.Len() != 2 {
		t.Fatalf("expected 2 keys, got %v", doc.KeyValues.Keys())
	}
	if v, _ := doc.KeyValues.Get("Total"); v != "25" {
		t.Errorf("Total = %q, want 25", v)
	}
	if keys := doc.KeyValues.Keys(); keys[0] != "Total" || keys[1] != "Date" {
		t.Errorf("keys = %v, want first-insertion order", keys)
	}
}

func TestResolve_PageKeyScope(t *testing.T) {
	src := &fakeSource{pages: [][]blocks.Block{kv(1, 1, "Total", "10"), kv(1, 2, "Total", "25")}}

	doc, err := NewAggregator(src, WithKeyScope(resolve.ScopePage)).Resolve(context.Background(), "job")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v, _ := doc.KeyValues.Get("page1-Total"); v != "10" {
		t.Errorf("page1-Total = %q", v)
	}
	if v, _ := doc.KeyValues.Get("page2-Total"); v != "25" {
		t.Errorf("page2-Total = %q", v)
	}
}

func TestResolve_CrossPageReference(t *testing.T) {
	// The key on page 1 points at a value that only arrives on page 2.
	page1 := []blocks.Block{
		{ID: "k", Type: blocks.TypeKeyValueSet, EntityTypes: []blocks.EntityType{blocks.EntityKey},
			Relationships: []blocks.Relationship{
				{Type: blocks.RelChild, IDs: []string{"kw"}},
				{Type: blocks.RelValue, IDs: []string{"v"}},
			}},
		{ID: "kw", Type: blocks.TypeWord, Text: "Account"},
		{ID: "t", Type: blocks.TypeTable, Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{"c1", "c2"}}}},
		{ID: "c1", Type: blocks.TypeCell, RowIndex: 1, ColumnIndex: 1, Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{"hw"}}}},
		{ID: "hw", Type: blocks.TypeWord, Text: "Item"},
	}
	page2 := []blocks.Block{
		{ID: "v", Type: blocks.TypeKeyValueSet, Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{"vw"}}}},
		{ID: "vw", Type: blocks.TypeWord, Text: "12345"},
		{ID: "c2", Type: blocks.TypeCell, RowIndex: 2, ColumnIndex: 1, Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{"cw"}}}},
		{ID: "cw", Type: blocks.TypeWord, Text: "Widget"},
	}
	src := &fakeSource{pages: [][]blocks.Block{page1, page2}}

	doc, err := NewAggregator(src).Resolve(context.Background(), "job")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v, _ := doc.KeyValues.Get("Account"); v != "12345" {
		t.Errorf("Account = %q, want 12345", v)
	}
	if len(doc.Tables) != 1 {
		t.Fatalf("expected 1 table (rebuilt, not appended), got %d", len(doc.Tables))
	}
	items, _ := doc.Tables[0].Columns.Get("Item")
	if len(items) != 1 || items[0] != "Widget" {
		t.Errorf("Item column = %v, want [Widget]", items)
	}
}

func TestResolve_Failures(t *testing.T) {
	t.Run("fetch failure discards document", func(t *testing.T) {
		src := &fakeSource{pages: [][]blocks.Block{kv(1, 1, "A", "1"), kv(1, 2, "B", "2")}, failAt: 2}
		doc, err := NewAggregator(src).Resolve(context.Background(), "job")
		if !errors.Is(err, ErrPageFetchFailed) {
			t.Fatalf("expected ErrPageFetchFailed, got %v", err)
		}
		if doc != nil {
			t.Error("expected no partial document")
		}
	})

	t.Run("duplicate id across pages is fatal", func(t *testing.T) {
		src := &fakeSource{pages: [][]blocks.Block{kv(1, 1, "A", "1"), kv(1, 1, "A", "1")}}
		doc, err := NewAggregator(src).Resolve(context.Background(), "job")
		if !errors.Is(err, blocks.ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}
		if doc != nil {
			t.Error("expected no partial document")
		}
	})

	t.Run("page limit", func(t *testing.T) {
		src := &fakeSource{pages: [][]blocks.Block{kv(1, 1, "A", "1"), kv(1, 2, "B", "2"), kv(1, 3, "C", "3")}}
		_, err := NewAggregator(src, WithMaxPages(2)).Resolve(context.Background(), "job")
		if !errors.Is(err, ErrTooManyPages) {
			t.Fatalf("expected ErrTooManyPages, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		src := &fakeSource{pages: [][]blocks.Block{kv(1, 1, "A", "1")}}
		_, err := NewAggregator(src).Resolve(ctx, "job")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(src.fetches) != 0 {
			t.Errorf("expected no fetch after cancel, got %v", src.fetches)
		}
	})
}

func TestResolve_Idempotent(t *testing.T) {
	tablePage := []blocks.Block{
		{ID: "t", Type: blocks.TypeTable, Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{"b1", "a1", "a2", "b2"}}}},
		{ID: "a1", Type: blocks.TypeCell, RowIndex: 1, ColumnIndex: 1},
		{ID: "a2", Type: blocks.TypeCell, RowIndex: 2, ColumnIndex: 1, Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{"x"}}}},
		{ID: "b1", Type: blocks.TypeCell, RowIndex: 1, ColumnIndex: 2, Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{"y"}}}},
		{ID: "b2", Type: blocks.TypeCell, RowIndex: 2, ColumnIndex: 2, Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{"z"}}}},
		{ID: "x", Type: blocks.TypeWord, Text: "1"},
		{ID: "y", Type: blocks.TypeWord, Text: "Qty"},
		{ID: "z", Type: blocks.TypeWord, Text: "3"},
	}
	src := &fakeSource{pages: [][]blocks.Block{
		append(kv(1, 1, "Zeta", "z"), kv(2, 1, "Alpha", "a")...),
		append(tablePage, kv(1, 2, "Mid", "m")...),
	}}
	agg := NewAggregator(src)

	first, err := agg.Resolve(context.Background(), "job")
	if err != nil {
		t.Fatal(err)
	}
	second, err := agg.Resolve(context.Background(), "job")
	if err != nil {
		t.Fatal(err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("passes differ:\n%s\n%s", a, b)
	}

	want := `{"Zeta":"z","Alpha":"a","Mid":"m"}`
	kvJSON, _ := json.Marshal(first.KeyValues)
	if string(kvJSON) != want {
		t.Errorf("key_values = %s, want %s", kvJSON, want)
	}
	cols, _ := json.Marshal(first.Tables[0].Columns)
	if string(cols) != `{"?Empty?":["1"],"Qty":["3"]}` {
		t.Errorf("columns = %s", cols)
	}
}

func TestResolve_EmptyDocumentShape(t *testing.T) {
	src := &fakeSource{pages: [][]blocks.Block{{}}}
	doc, err := NewAggregator(src).Resolve(context.Background(), "empty")
	if err != nil {
		t.Fatal(err)
	}
	got, _ := json.Marshal(doc)
	want := `{"job_id":"empty","pages":1,"lines":[],"words":[],"key_values":{},"tables":[]}`
	if string(got) != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}
