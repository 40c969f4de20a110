package endpoints

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// GetDocumentEndpoint handles GET /api/documents/{job_id}.
type GetDocumentEndpoint struct{}

func (e *GetDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{job_id}", e.handler
}

func (e *GetDocumentEndpoint) RequiresInit() bool { return true }

// handler resolves the job's document. With ?wait=true it first blocks
// until the job's completion notification arrives.
func (e *GetDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}

	wait := false
	if v := r.URL.Query().Get("wait"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "wait must be a boolean")
			return
		}
		wait = b
	}

	runner := svcctx.RunnerFrom(r.Context())
	if runner == nil {
		writeError(w, http.StatusServiceUnavailable, "job runner not initialized")
		return
	}

	doc, err := runner.Resolve(r.Context(), jobID, wait)
	if err != nil {
		svcctx.LoggerFrom(r.Context()).Warn("document request failed",
			"job_id", jobID, "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (e *GetDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "get <job-id>",
		Short: "Get the reconstructed document of an analysis job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var query url.Values
			if wait {
				query = url.Values{"wait": {"true"}}
			}
			var doc document.Document
			if err := client.Get(cmd.Context(), "/api/documents/"+url.PathEscape(args[0]), query, &doc); err != nil {
				return err
			}
			return api.Output(doc)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the job's completion notification first")
	return cmd
}
