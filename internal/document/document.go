// Package document assembles the reconstructed view of an analysis job:
// lines, words, form fields and tables, merged across every response page.
package document

import "github.com/jackzampolin/folio/internal/resolve"

// Document is the reconstructed output of one analysis job.
type Document struct {
	JobID     string          `json:"job_id" yaml:"job_id"`
	Pages     int             `json:"pages" yaml:"pages"` // response pages consumed
	Lines     []string        `json:"lines" yaml:"lines"`
	Words     []string        `json:"words" yaml:"words"`
	KeyValues Ordered[string] `json:"key_values" yaml:"key_values"`
	Tables    []Table         `json:"tables" yaml:"tables"`
}

// Table maps each column header to the column's cell texts in row order.
type Table struct {
	ID      string            `json:"id" yaml:"id"`
	Page    int               `json:"page" yaml:"page"`
	Columns Ordered[[]string] `json:"columns" yaml:"columns"`
}

func newDocument(jobID string) *Document {
	return &Document{
		JobID:  jobID,
		Lines:  []string{},
		Words:  []string{},
		Tables: []Table{},
	}
}

func fromResolved(t resolve.Table) Table {
	out := Table{ID: t.ID, Page: t.Page}
	for _, col := range t.Columns {
		out.Columns.Set(col.Header, col.Values)
	}
	return out
}
