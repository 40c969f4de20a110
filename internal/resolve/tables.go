package resolve

import (
	"fmt"
	"sort"

	"github.com/jackzampolin/folio/internal/blocks"
)

// Column is one table column: its header and the cell texts below it in row order.
type Column struct {
	Header string
	Values []string
}

// Table is a resolved TABLE block.
type Table struct {
	ID      string
	Page    int
	Columns []Column
}

// Tables builds every TABLE block in the store, in ingestion order.
func (r *Resolver) Tables() []Table {
	var tables []Table
	for _, b := range r.store.OfType(blocks.TypeTable) {
		tables = append(tables, r.Table(b))
	}
	return tables
}

// Table orders a table's cells by column then row. The lowest-row cell of
// each column is its header, even when its text cannot be assembled; the
// rest are its values.
func (r *Resolver) Table(table *blocks.Block) Table {
	groups := make(map[int][]*blocks.Block)
	for _, id := range table.ChildIDs() {
		cell, err := r.store.Get(id)
		if err != nil {
			r.logOnce("child:"+table.ID+"/"+id, "skipping unresolved table cell", "table_id", table.ID, "error", err)
			continue
		}
		if cell.Type != blocks.TypeCell {
			continue
		}
		col := cell.ColumnIndex - 1
		groups[col] = append(groups[col], cell)
	}

	cols := make([]int, 0, len(groups))
	for col := range groups {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	out := Table{ID: table.ID, Page: table.Page}
	used := make(map[string]bool, len(cols))
	for _, col := range cols {
		cells := groups[col]
		sort.SliceStable(cells, func(i, j int) bool {
			return cells[i].RowIndex < cells[j].RowIndex
		})

		header, err := blocks.Text(r.store, cells[0])
		if err != nil {
			r.logOnce("header:"+cells[0].ID, "table header cell with unresolved text, using placeholder",
				"table_id", table.ID, "cell_id", cells[0].ID, "error", err)
		}
		if header == "" {
			header = r.emptyHeader
		}

		values := make([]string, 0, len(cells)-1)
		for _, cell := range cells[1:] {
			text, err := blocks.Text(r.store, cell)
			if err != nil {
				r.logOnce("cell:"+cell.ID, "skipping table cell with unresolved text",
					"table_id", table.ID, "cell_id", cell.ID, "error", err)
				continue
			}
			values = append(values, text)
		}

		header = uniqueHeader(used, header, col)
		used[header] = true

		out.Columns = append(out.Columns, Column{
			Header: header,
			Values: values,
		})
	}
	return out
}

// uniqueHeader suffixes a repeated header with its 1-based column number.
func uniqueHeader(used map[string]bool, header string, col int) string {
	if !used[header] {
		return header
	}
	candidate := fmt.Sprintf("%s#%d", header, col+1)
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s#%d.%d", header, col+1, n)
	}
	return candidate
}
