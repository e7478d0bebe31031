// Package types contains small shared types used across the engine.
package types

// EnvelopeState classifies how a projected week sits against the
// sustainable load band.
type EnvelopeState string

const (
	EnvelopeInside  EnvelopeState = "inside"
	EnvelopeEdge    EnvelopeState = "edge"
	EnvelopeOutside EnvelopeState = "outside"
)

// Phase labels a planned training week.
type Phase string

const (
	PhaseBuild    Phase = "build"
	PhaseDeload   Phase = "deload"
	PhaseTaper    Phase = "taper"
	PhaseRace     Phase = "race"
	PhaseRecovery Phase = "recovery"
)

// OptimizationProfile selects how aggressively the allocator chases the
// goal-derived target load.
type OptimizationProfile string

const (
	ProfileSustainable  OptimizationProfile = "sustainable"
	ProfileBalanced     OptimizationProfile = "balanced"
	ProfileOutcomeFirst OptimizationProfile = "outcome_first"
)

// Valid reports whether p is one of the known profiles.
func (p OptimizationProfile) Valid() bool {
	switch p {
	case ProfileSustainable, ProfileBalanced, ProfileOutcomeFirst:
		return true
	}
	return false
}

// RationaleCode explains a scoring or allocation decision on a point.
// Codes are additive; a point may carry several.
type RationaleCode string

const (
	RationaleInsufficientTime  RationaleCode = "insufficient_time_to_target"
	RationaleRampCapped        RationaleCode = "ramp_capped"
	RationaleCTLRampCapped     RationaleCode = "ctl_ramp_capped"
	RationalePostEventRecovery RationaleCode = "post_event_recovery"
	RationaleGoalConflict      RationaleCode = "goal_conflict"
	RationaleSparseHistory     RationaleCode = "sparse_history"
	RationaleStaleHistory      RationaleCode = "stale_history"
	RationaleTaper             RationaleCode = "taper"
	RationaleDeloadWeek        RationaleCode = "deload_week"
	RationaleCeilingCapped     RationaleCode = "ceiling_capped"
	RationaleAboveSafeRange    RationaleCode = "load_above_safe_range"
	RationaleBelowMaintenance  RationaleCode = "load_below_maintenance"
)
