// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/peakline/internal/domain/model"
)

// RecoveryHandler handles standalone recovery profile requests.
type RecoveryHandler struct {
	deps         Dependencies
	maxBodyBytes int64
}

// NewRecoveryHandler creates a new recovery handler.
func NewRecoveryHandler(deps Dependencies, maxBodyBytes int64) *RecoveryHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &RecoveryHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandleProfile handles POST /recovery/profile requests.
func (h *RecoveryHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.recovery_profile"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var target model.GoalTarget
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&target); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	profile, err := h.deps.RecoveryProfile(r.Context(), target)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
