// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/internal/domain/recovery"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Preview builds the full projection chart for a plan request.
	Preview(ctx context.Context, req model.PreviewRequest) (model.ProjectionChart, error)

	// Projection returns a previously built chart by projection id.
	Projection(ctx context.Context, id string) (model.ProjectionChart, error)

	// RecoveryProfile computes the recovery profile for one goal target.
	RecoveryProfile(ctx context.Context, target model.GoalTarget) (recovery.Profile, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	projectionsHandler *ProjectionsHandler
	recoveryHandler    *RecoveryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxBodyBytes int64) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		projectionsHandler: NewProjectionsHandler(deps, maxBodyBytes),
		recoveryHandler:    NewRecoveryHandler(deps, maxBodyBytes),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/projections/preview", MetricsMiddleware(s.projectionsHandler.HandlePreview, "projections_preview"))
	mux.HandleFunc("/projections/", MetricsMiddleware(s.projectionsHandler.HandleGet, "projections_get"))
	mux.HandleFunc("/recovery/profile", MetricsMiddleware(s.recoveryHandler.HandleProfile, "recovery_profile"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
