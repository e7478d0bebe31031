// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/peakline/internal/adapters/repository"
	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/pkg/metrics"
)

// ProjectionsHandler handles projection preview requests.
type ProjectionsHandler struct {
	deps         Dependencies
	maxBodyBytes int64
}

// NewProjectionsHandler creates a new projections handler.
func NewProjectionsHandler(deps Dependencies, maxBodyBytes int64) *ProjectionsHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &ProjectionsHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePreview handles POST /projections/preview requests.
func (h *ProjectionsHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.preview_projection"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req model.PreviewRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	chart, err := h.deps.Preview(r.Context(), req)
	if err != nil {
		status, code := previewErrorStatus(err)
		if errors.Is(err, model.ErrContract) {
			metrics.RecordContractViolation()
		}
		writeError(w, status, code, Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, chart)
}

// HandleGet handles GET /projections/{id} requests, replaying a chart
// from the projection cache.
func (h *ProjectionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_projection"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/projections/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	chart, err := h.deps.Projection(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, chart)
}

// previewErrorStatus maps service errors onto transport status codes.
// Contract violations are the caller's fault; anything else is ours.
func previewErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrContract):
		return http.StatusBadRequest, "contract_violation"
	default:
		return http.StatusUnprocessableEntity, "rejected"
	}
}
