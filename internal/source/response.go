// Package source supplies the response pages of completed analysis jobs to
// the document aggregator.
package source

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/folio/internal/blocks"
)

// ErrJobNotFound is returned when no responses exist for a job.
var ErrJobNotFound = errors.New("job not found")

// ErrInvalidResponse is returned when a response page is malformed or
// reports a job that did not succeed.
var ErrInvalidResponse = errors.New("invalid analysis response")

// Job statuses reported on a response page.
const (
	StatusInProgress     = "IN_PROGRESS"
	StatusSucceeded      = "SUCCEEDED"
	StatusFailed         = "FAILED"
	StatusPartialSuccess = "PARTIAL_SUCCESS"
)

// Response is one page of a GetDocumentAnalysis result.
type Response struct {
	JobStatus        string            `json:"JobStatus,omitempty"`
	StatusMessage    string            `json:"StatusMessage,omitempty"`
	NextToken        *string           `json:"NextToken,omitempty"`
	DocumentMetadata *DocumentMetadata `json:"DocumentMetadata,omitempty"`
	Blocks           []blocks.Block    `json:"Blocks"`
}

// DocumentMetadata describes the analysed document.
type DocumentMetadata struct {
	Pages int `json:"Pages"`
}

// HasNext reports whether another page follows this one.
func (r *Response) HasNext() bool {
	return r.NextToken != nil && *r.NextToken != ""
}

// checkStatus rejects pages of jobs that have not completed usefully.
// An empty status is accepted for responses saved without one.
func (r *Response) checkStatus() error {
	switch r.JobStatus {
	case "", StatusSucceeded, StatusPartialSuccess:
		return nil
	default:
		if r.StatusMessage != "" {
			return fmt.Errorf("%w: job status %s: %s", ErrInvalidResponse, r.JobStatus, r.StatusMessage)
		}
		return fmt.Errorf("%w: job status %s", ErrInvalidResponse, r.JobStatus)
	}
}

//go:embed schema/response.json
var responseSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("response.json", bytes.NewReader(responseSchema)); err != nil {
			schemaErr = fmt.Errorf("failed to load response schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("response.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to compile response schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// DecodeResponse validates data against the response schema and decodes it.
func DecodeResponse(data []byte) (*Response, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return &resp, nil
}
