package model

import (
	"fmt"
	"time"

	"github.com/okian/peakline/internal/domain/types"
)

// Goal is a dated objective with at least one measurable target.
type Goal struct {
	TargetDate time.Time    `json:"target_date"`
	Targets    []GoalTarget `json:"targets"`
	Priority   int          `json:"priority"`
	Label      string       `json:"label,omitempty"`
}

// Canonical returns a copy of the goal with its date truncated to a UTC
// day and its targets in canonical order.
func (g Goal) Canonical() Goal {
	g.TargetDate = Day(g.TargetDate)
	g.Targets = CanonicalizeTargets(g.Targets)
	return g
}

func (g Goal) validate() error {
	if len(g.Targets) == 0 {
		return fmt.Errorf("%w: goal %s has no targets", ErrContract, g.TargetDate.Format(DateLayout))
	}
	for _, t := range g.Targets {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MinimalPlanDefinition is the validated plan shape handed to the engine
// by the plan-creation layer.
type MinimalPlanDefinition struct {
	PlanStartDate time.Time `json:"plan_start_date"`
	Goals         []Goal    `json:"goals"`
}

// Constraints are the hard safety caps the allocator must never relax.
type Constraints struct {
	MaxWeeklyTSSRampPct     float64 `json:"max_weekly_tss_ramp_pct"`
	MaxCTLRampPerWeek       float64 `json:"max_ctl_ramp_per_week"`
	MinRecoveryDaysPerCycle int     `json:"min_recovery_days_per_cycle"`
	PostGoalRecoveryDays    int     `json:"post_goal_recovery_days"`
}

// CreationConfig carries the caller's optimization preferences.
type CreationConfig struct {
	OptimizationProfile types.OptimizationProfile `json:"optimization_profile"`
	Constraints         Constraints               `json:"constraints"`
	StartingCTLOverride *float64                  `json:"starting_ctl_override,omitempty"`
	// ReadinessCeiling optionally caps every emitted readiness score.
	ReadinessCeiling *float64 `json:"readiness_ceiling,omitempty"`
}

// WeeklyLoad is one realized week of training stress from history.
type WeeklyLoad struct {
	WeekStart time.Time `json:"week_start"`
	TSS       float64   `json:"tss"`
}

// AthleteSnapshot is the athlete's physiological state at plan start,
// assembled by the retrieval layer from stored activity data.
type AthleteSnapshot struct {
	StartingCTL      float64      `json:"starting_ctl"`
	StartingATL      float64      `json:"starting_atl"`
	WeeklyHistory    []WeeklyLoad `json:"weekly_history,omitempty"`
	LastActivityDate time.Time    `json:"last_activity_date,omitempty"`
}

func (s AthleteSnapshot) validate() error {
	if s.StartingCTL < 0 || s.StartingATL < 0 {
		return fmt.Errorf("%w: starting CTL/ATL must be non-negative", ErrContract)
	}
	for _, w := range s.WeeklyHistory {
		if w.TSS < 0 {
			return fmt.Errorf("%w: negative weekly TSS in history", ErrContract)
		}
	}
	return nil
}

// PreviewRequest bundles everything one projection invocation consumes.
type PreviewRequest struct {
	Plan     MinimalPlanDefinition `json:"plan"`
	Config   CreationConfig        `json:"config"`
	Athlete  AthleteSnapshot       `json:"athlete"`
	AsOfDate time.Time             `json:"as_of_date,omitempty"`
}

// Canonical normalizes dates and target ordering so identical requests
// are byte-identical engine inputs.
func (r PreviewRequest) Canonical() PreviewRequest {
	r.Plan.PlanStartDate = Day(r.Plan.PlanStartDate)
	goals := make([]Goal, len(r.Plan.Goals))
	for i, g := range r.Plan.Goals {
		goals[i] = g.Canonical()
	}
	r.Plan.Goals = goals
	if !r.AsOfDate.IsZero() {
		r.AsOfDate = Day(r.AsOfDate)
	}
	for i, w := range r.Athlete.WeeklyHistory {
		r.Athlete.WeeklyHistory[i].WeekStart = Day(w.WeekStart)
	}
	if !r.Athlete.LastActivityDate.IsZero() {
		r.Athlete.LastActivityDate = Day(r.Athlete.LastActivityDate)
	}
	return r
}

// Validate enforces the engine's input contract. It is the fail-fast
// boundary for broken caller invariants; expected domain degradation
// (infeasible goals, sparse history) is never an error.
func (r PreviewRequest) Validate() error {
	if r.Plan.PlanStartDate.IsZero() {
		return fmt.Errorf("%w: missing plan_start_date", ErrContract)
	}
	if len(r.Plan.Goals) == 0 {
		return fmt.Errorf("%w: plan has no goals", ErrContract)
	}
	for _, g := range r.Plan.Goals {
		if err := g.validate(); err != nil {
			return err
		}
		if g.TargetDate.Before(r.Plan.PlanStartDate) {
			return fmt.Errorf("%w: goal date %s precedes plan start", ErrContract, g.TargetDate.Format(DateLayout))
		}
	}
	if !r.Config.OptimizationProfile.Valid() {
		return fmt.Errorf("%w: unknown optimization profile %q", ErrContract, r.Config.OptimizationProfile)
	}
	c := r.Config.Constraints
	if c.MaxWeeklyTSSRampPct < 0 || c.MaxCTLRampPerWeek < 0 ||
		c.MinRecoveryDaysPerCycle < 0 || c.PostGoalRecoveryDays < 0 {
		return fmt.Errorf("%w: negative constraint value", ErrContract)
	}
	if c.MinRecoveryDaysPerCycle > 6 {
		return fmt.Errorf("%w: min_recovery_days_per_cycle exceeds a week", ErrContract)
	}
	if r.Config.StartingCTLOverride != nil && *r.Config.StartingCTLOverride < 0 {
		return fmt.Errorf("%w: starting_ctl_override must be non-negative", ErrContract)
	}
	return r.Athlete.validate()
}

// DateLayout is the canonical civil-date format used in rationale text.
const DateLayout = "2006-01-02"

// Day truncates t to a UTC civil day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC civil day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b (negative if
// b precedes a). Both are truncated to civil days first.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}
