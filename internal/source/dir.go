package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jackzampolin/folio/internal/document"
)

// ErrInvalidJobID is returned for job ids that cannot name a directory.
var ErrInvalidJobID = errors.New("invalid job id")

// Dir reads saved response pages from disk. Each job is a directory under
// the root holding one JSON file per response page; files are read in
// lexical order and the cursor names the next file to read.
//
//	<root>/<job_id>/0001.json
//	<root>/<job_id>/0002.json
type Dir struct {
	root   string
	logger *slog.Logger
}

// NewDir creates a directory-backed page source.
func NewDir(root string, logger *slog.Logger) (*Dir, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := loadSchema(); err != nil {
		return nil, err
	}
	return &Dir{root: root, logger: logger}, nil
}

// Root returns the directory holding job response directories.
func (d *Dir) Root() string {
	return d.root
}

// JobPath returns the directory holding the responses of jobID.
func (d *Dir) JobPath(jobID string) (string, error) {
	if jobID == "" || jobID == "." || jobID == ".." || strings.ContainsAny(jobID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidJobID, jobID)
	}
	return filepath.Join(d.root, jobID), nil
}

// FetchPage implements document.PageSource.
func (d *Dir) FetchPage(ctx context.Context, jobID string, cursor *string) (*document.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := d.files(jobID)
	if err != nil {
		return nil, err
	}

	idx := 0
	if cursor != nil {
		idx = slices.IndexFunc(files, func(f string) bool { return filepath.Base(f) == *cursor })
		if idx < 0 {
			return nil, fmt.Errorf("%w: unknown cursor %q for job %s", ErrInvalidResponse, *cursor, jobID)
		}
	}

	data, err := os.ReadFile(files[idx])
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	resp, err := DecodeResponse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(files[idx]), err)
	}
	if err := resp.checkStatus(); err != nil {
		return nil, err
	}

	page := &document.Page{Blocks: resp.Blocks}
	if resp.HasNext() {
		if idx+1 >= len(files) {
			return nil, fmt.Errorf("%w: %s has a next token but is the last saved response",
				ErrInvalidResponse, filepath.Base(files[idx]))
		}
		next := filepath.Base(files[idx+1])
		page.NextCursor = &next
	}

	d.logger.Debug("read response page",
		"job_id", jobID,
		"file", filepath.Base(files[idx]),
		"blocks", len(resp.Blocks),
	)
	return page, nil
}

// files returns the sorted response files of a job.
func (d *Dir) files(jobID string) ([]string, error) {
	dir, err := d.JobPath(jobID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s has no responses", ErrJobNotFound, jobID)
	}
	// ReadDir returns entries sorted by filename.
	return files, nil
}
