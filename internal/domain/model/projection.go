package model

import (
	"time"

	"github.com/okian/peakline/internal/domain/types"
)

// LoadState is one day of simulated fitness/fatigue state.
// Invariant: TSB = CTL - ATL.
type LoadState struct {
	Date time.Time `json:"date"`
	CTL  float64   `json:"ctl"`
	ATL  float64   `json:"atl"`
	TSB  float64   `json:"tsb"`
}

// CapacityEnvelope is the per-point view of the weekly load band.
type CapacityEnvelope struct {
	EnvelopeScore  float64             `json:"envelope_score"`
	EnvelopeState  types.EnvelopeState `json:"envelope_state"`
	LimitingFactor []string            `json:"limiting_factors,omitempty"`
}

// ReadinessComposite is the full scoring breakdown for one day. The
// headline ReadinessScore is the only value exposed upward; the
// sub-scores exist for explainability.
type ReadinessComposite struct {
	TargetAttainmentScore float64 `json:"target_attainment_score"`
	EnvelopeScore         float64 `json:"envelope_score"`
	DurabilityScore       float64 `json:"durability_score"`
	EvidenceScore         float64 `json:"evidence_score"`
	ReadinessScore        float64 `json:"readiness_score"`
	ReadinessConfidence   float64 `json:"readiness_confidence"`
}

// ProjectionPoint is one emitted day. Immutable once emitted; the full
// series for a horizon is the engine's sole output artifact.
type ProjectionPoint struct {
	Date                time.Time             `json:"date"`
	CTL                 float64               `json:"ctl"`
	ATL                 float64               `json:"atl"`
	TSB                 float64               `json:"tsb"`
	WeeklyTSS           float64               `json:"weekly_tss"`
	ReadinessScore      float64               `json:"readiness_score"`
	ReadinessConfidence float64               `json:"readiness_confidence"`
	CapacityEnvelope    CapacityEnvelope      `json:"capacity_envelope"`
	RationaleCodes      []types.RationaleCode `json:"rationale_codes,omitempty"`
}

// GoalMarker annotates a goal date on the chart.
type GoalMarker struct {
	Date           time.Time `json:"date"`
	Label          string    `json:"label,omitempty"`
	Priority       int       `json:"priority"`
	ReadinessScore float64   `json:"readiness_score"`
	Conflicted     bool      `json:"conflicted,omitempty"`
}

// Microcycle summarizes one planned week.
type Microcycle struct {
	WeekStart time.Time   `json:"week_start"`
	WeekEnd   time.Time   `json:"week_end"`
	TSS       float64     `json:"tss"`
	RampPct   float64     `json:"ramp_pct"`
	Phase     types.Phase `json:"phase"`
}

// RecoverySegment marks the post-event recovery window of a goal.
type RecoverySegment struct {
	GoalDate       time.Time `json:"goal_date"`
	Start          time.Time `json:"start"`
	FunctionalEnd  time.Time `json:"functional_end"`
	FullEnd        time.Time `json:"full_end"`
	FatigueDecayed bool      `json:"fatigue_decayed"`
}

// ConstraintSummary reports how hard the safety caps were hit.
type ConstraintSummary struct {
	WeeksRampCapped    int                   `json:"weeks_ramp_capped"`
	WeeksCTLCapped     int                   `json:"weeks_ctl_capped"`
	DeloadWeeks        int                   `json:"deload_weeks"`
	InfeasibleGoals    int                   `json:"infeasible_goals"`
	ConflictedGoals    int                   `json:"conflicted_goals"`
	DominantRationales []types.RationaleCode `json:"dominant_rationales,omitempty"`
}

// ProjectionChart is the engine's complete output for one invocation.
type ProjectionChart struct {
	ProjectionID      string            `json:"projection_id,omitempty"`
	StartDate         time.Time         `json:"start_date"`
	EndDate           time.Time         `json:"end_date"`
	Points            []ProjectionPoint `json:"points"`
	GoalMarkers       []GoalMarker      `json:"goal_markers"`
	Microcycles       []Microcycle      `json:"microcycles"`
	RecoverySegments  []RecoverySegment `json:"recovery_segments"`
	ConstraintSummary ConstraintSummary `json:"constraint_summary"`
	CalibrationName   string            `json:"calibration_version,omitempty"`
}

// PointAt returns the point for a civil day, if present.
func (c ProjectionChart) PointAt(date time.Time) (ProjectionPoint, bool) {
	d := Day(date)
	for _, p := range c.Points {
		if p.Date.Equal(d) {
			return p, true
		}
	}
	return ProjectionPoint{}, false
}
