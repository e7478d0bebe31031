// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/peakline/internal/adapters/repository"
	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/internal/domain/projection"
	"github.com/okian/peakline/internal/domain/recovery"
	"github.com/okian/peakline/pkg/logger"
	"github.com/okian/peakline/pkg/metrics"
)

// Sentinel errors returned to transports.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrHorizonExceeded = errors.New("projection horizon exceeds limit")
	ErrTooManyGoals    = errors.New("too many goals in plan")
)

// Service implements the API dependencies for the projection engine.
type Service struct {
	mu sync.RWMutex

	// Configuration
	cal             calibration.Calibration
	calibrationPath string
	maxHorizonDays  int
	maxGoals        int

	// Cache of recently built projections
	cache repository.Cache

	// State
	started       bool
	previewsTotal int64
	cacheHits     int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache sets a custom projection cache.
func WithCache(cache repository.Cache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithCalibration sets an explicit calibration, bypassing file loading.
func WithCalibration(cal calibration.Calibration) Option {
	return func(s *Service) {
		s.cal = cal
	}
}

// WithCalibrationFile sets a calibration overlay file loaded at Start.
func WithCalibrationFile(path string) Option {
	return func(s *Service) {
		s.calibrationPath = path
	}
}

// WithMaxHorizonDays caps how far a projection may extend.
func WithMaxHorizonDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxHorizonDays = days
		}
	}
}

// WithMaxGoals caps the number of goals per plan.
func WithMaxGoals(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxGoals = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cal:            calibration.Default(),
		cache:          repository.NewMemoryCache(),
		maxHorizonDays: 400,
		maxGoals:       8,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service: logger, calibration overlay.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.calibrationPath != "" {
		cal, err := calibration.LoadFile(s.calibrationPath)
		if err != nil {
			return fmt.Errorf("loading calibration: %w", err)
		}
		s.cal = cal
		s.logger.Info(ctx, "calibration overlay loaded",
			logger.String("path", s.calibrationPath),
		)
	}

	s.started = true
	s.logger.Info(ctx, "projection service started",
		logger.String("calibration", s.cal.Version),
		logger.Int("maxHorizonDays", s.maxHorizonDays),
		logger.Int("maxGoals", s.maxGoals),
	)

	return nil
}

// Stop shuts the service down. The engine holds no goroutines or open
// resources, so this only flips state.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "projection service stopped")
}

// Calibration returns the active calibration.
func (s *Service) Calibration() calibration.Calibration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cal
}

// Preview validates a request and builds its full projection chart.
// Contract violations surface as errors wrapping model.ErrContract;
// infeasible plans are not errors and come back as degraded charts
// with rationale codes.
func (s *Service) Preview(ctx context.Context, req model.PreviewRequest) (chart model.ProjectionChart, err error) {
	s.mu.RLock()
	started := s.started
	cal := s.cal
	maxHorizon := s.maxHorizonDays
	maxGoals := s.maxGoals
	s.mu.RUnlock()

	if !started {
		return model.ProjectionChart{}, ErrNotStarted
	}

	req = req.Canonical()
	if err := req.Validate(); err != nil {
		return model.ProjectionChart{}, err
	}
	if len(req.Plan.Goals) > maxGoals {
		return model.ProjectionChart{}, fmt.Errorf("%w: %d > %d", ErrTooManyGoals, len(req.Plan.Goals), maxGoals)
	}
	if h := horizonDays(req); h > maxHorizon {
		return model.ProjectionChart{}, fmt.Errorf("%w: %d > %d days", ErrHorizonExceeded, h, maxHorizon)
	}

	// Identical canonical requests produce identical charts, so a
	// cached result can be replayed wholesale.
	fp := fingerprint(req, cal.Version)
	if cached, ok := s.cache.Get(ctx, fp); ok {
		s.mu.Lock()
		s.cacheHits++
		s.mu.Unlock()
		s.logger.Debug(ctx, "projection served from cache",
			logger.String("projectionID", cached.ProjectionID),
		)
		return cached, nil
	}

	// The engine panics on internal invariant breaks; convert those
	// to contract errors at the service boundary so the transport can
	// report them without taking the process down.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "projection contract violation",
				logger.Any("panic", r),
			)
			err = fmt.Errorf("%w: %v", model.ErrContract, r)
		}
	}()

	begin := time.Now()
	chart = projection.Build(req, cal)
	chart.ProjectionID = uuid.NewString()
	elapsed := time.Since(begin)

	s.cache.Put(ctx, fp, chart)

	s.mu.Lock()
	s.previewsTotal++
	s.mu.Unlock()

	metrics.RecordPreview(elapsed)
	metrics.ObserveHorizonDays(len(chart.Points))
	metrics.ObserveGoalsPerPlan(len(req.Plan.Goals))
	if n := chart.ConstraintSummary.InfeasibleGoals; n > 0 {
		metrics.RecordInfeasibleGoals(n)
	}
	if n := chart.ConstraintSummary.ConflictedGoals; n > 0 {
		metrics.RecordConflictedGoals(n)
	}

	s.logger.Debug(ctx, "projection built",
		logger.String("projectionID", chart.ProjectionID),
		logger.Int("points", len(chart.Points)),
		logger.Int("goals", len(req.Plan.Goals)),
		logger.Duration("elapsed", elapsed),
	)

	return chart, nil
}

// Projection returns a previously built chart by its projection id.
// Returns repository.ErrNotFound when the id is unknown or evicted.
func (s *Service) Projection(ctx context.Context, id string) (model.ProjectionChart, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	if !started {
		return model.ProjectionChart{}, ErrNotStarted
	}
	return s.cache.ByID(ctx, id)
}

// RecoveryProfile computes the standalone event recovery profile for a
// single goal target.
func (s *Service) RecoveryProfile(ctx context.Context, target model.GoalTarget) (recovery.Profile, error) {
	s.mu.RLock()
	started := s.started
	cal := s.cal
	s.mu.RUnlock()

	if !started {
		return recovery.Profile{}, ErrNotStarted
	}
	if err := target.Validate(); err != nil {
		return recovery.Profile{}, err
	}
	return recovery.ComputeProfile(target, 0, 0, cal), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"started":        s.started,
		"calibration":    s.cal.Version,
		"maxHorizonDays": s.maxHorizonDays,
		"maxGoals":       s.maxGoals,
		"previewsTotal":  s.previewsTotal,
		"cacheHits":      s.cacheHits,
		"cacheEntries":   s.cache.Size(),
	}
}

// fingerprint derives a stable cache key from the canonical request
// and the calibration version it would be built with.
func fingerprint(req model.PreviewRequest, calVersion string) string {
	raw, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(append(raw, []byte(calVersion)...))
	return hex.EncodeToString(sum[:])
}

func horizonDays(req model.PreviewRequest) int {
	start := model.Day(req.Plan.PlanStartDate)
	end := start
	for _, g := range req.Plan.Goals {
		if g.TargetDate.After(end) {
			end = g.TargetDate
		}
	}
	return model.DaysBetween(start, end)
}
