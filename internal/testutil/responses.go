// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/folio/internal/blocks"
)

// WriteResponses saves pages as the response files of jobID under root,
// one file per page named 0001.json, 0002.json, ... Every page but the
// last carries a NextToken so the files read back as one paginated result.
func WriteResponses(t *testing.T, root, jobID string, pages ...[]blocks.Block) string {
	t.Helper()

	dir := filepath.Join(root, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create job dir: %v", err)
	}

	for i, page := range pages {
		resp := map[string]any{
			"JobStatus":        "SUCCEEDED",
			"DocumentMetadata": map[string]int{"Pages": len(pages)},
			"Blocks":           page,
		}
		if i < len(pages)-1 {
			resp["NextToken"] = fmt.Sprintf("token-%d", i+1)
		}
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			t.Fatalf("failed to marshal response: %v", err)
		}
		name := filepath.Join(dir, fmt.Sprintf("%04d.json", i+1))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			t.Fatalf("failed to write response: %v", err)
		}
	}
	return dir
}

// FormField returns the blocks of one key/value pair on page: a KEY block
// with a single word, its VALUE block with a single word. IDs are derived
// from prefix.
func FormField(prefix string, page int, key, value string) []blocks.Block {
	return []blocks.Block{
		{
			ID: prefix + "-key", Type: blocks.TypeKeyValueSet, Page: page,
			EntityTypes: []blocks.EntityType{blocks.EntityKey},
			Relationships: []blocks.Relationship{
				{Type: blocks.RelChild, IDs: []string{prefix + "-kw"}},
				{Type: blocks.RelValue, IDs: []string{prefix + "-val"}},
			},
		},
		{ID: prefix + "-kw", Type: blocks.TypeWord, Text: key, Page: page},
		{
			ID: prefix + "-val", Type: blocks.TypeKeyValueSet, Page: page,
			EntityTypes:   []blocks.EntityType{blocks.EntityValue},
			Relationships: []blocks.Relationship{{Type: blocks.RelChild, IDs: []string{prefix + "-vw"}}},
		},
		{ID: prefix + "-vw", Type: blocks.TypeWord, Text: value, Page: page},
	}
}
