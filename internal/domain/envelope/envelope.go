// Package envelope derives per-week sustainable load bounds from the
// athlete's chronic state and scores planned weeks against them.
package envelope

import (
	"math"

	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/types"
)

// Band is one week's sustainable load band. Derived from profile and
// chronic state, never user-settable.
type Band struct {
	SafeLow   float64
	SafeHigh  float64
	RampLimit float64 // max week-over-week growth, percent
}

// WeekAssessment scores one planned week against its band.
type WeekAssessment struct {
	Band            Band
	Penalty         float64
	Score           float64
	State           types.EnvelopeState
	LimitingFactors []string
}

// BandFor derives the sustainable band for a week entered with the
// given chronic load. The chronic weekly equivalent is CTL*7, floored
// at the calibrated maintenance volume so a detrained athlete still
// gets a usable band.
func BandFor(ctl float64, rampLimitPct float64, cal calibration.Calibration) Band {
	chronicWeekly := ctl * 7
	if chronicWeekly < cal.MaintenanceWeekly {
		chronicWeekly = cal.MaintenanceWeekly
	}
	if rampLimitPct <= 0 {
		rampLimitPct = cal.DefaultRampPct
	}
	return Band{
		SafeLow:   chronicWeekly * cal.SafeLowFactor,
		SafeHigh:  chronicWeekly * cal.SafeHighFactor,
		RampLimit: rampLimitPct,
	}
}

// Assess scores a planned weekly load against its band.
//
//	over_high  = max(0, planned - safe_high)
//	under_low  = max(0, safe_low - planned)
//	over_ramp  = max(0, ramp_pct - ramp_limit)
//	penalty    = a*norm(over_high) + b*norm(under_low) + c*norm(over_ramp)
//
// Load terms normalize by safe_high; the ramp term by the ramp limit.
func Assess(plannedTSS, rampPct float64, band Band, cal calibration.Calibration) WeekAssessment {
	overHigh := math.Max(0, plannedTSS-band.SafeHigh)
	underLow := math.Max(0, band.SafeLow-plannedTSS)
	overRamp := math.Max(0, rampPct-band.RampLimit)

	penalty := cal.OverHighWeight*(overHigh/band.SafeHigh) +
		cal.UnderLowWeight*(underLow/band.SafeHigh) +
		cal.OverRampWeight*(overRamp/band.RampLimit)

	a := WeekAssessment{
		Band:    band,
		Penalty: penalty,
		Score:   calibration.ClampScore(100 - 100*penalty),
		State:   stateFor(penalty, cal),
	}
	if overHigh > 0 {
		a.LimitingFactors = append(a.LimitingFactors, string(types.RationaleAboveSafeRange))
	}
	if underLow > 0 {
		a.LimitingFactors = append(a.LimitingFactors, string(types.RationaleBelowMaintenance))
	}
	if overRamp > 0 {
		a.LimitingFactors = append(a.LimitingFactors, string(types.RationaleRampCapped))
	}
	return a
}

func stateFor(penalty float64, cal calibration.Calibration) types.EnvelopeState {
	switch {
	case penalty <= cal.EdgePenaltyFloor:
		return types.EnvelopeInside
	case penalty <= cal.OutsidePenalty:
		return types.EnvelopeEdge
	default:
		return types.EnvelopeOutside
	}
}

// MeanScore is the plan-level envelope score: the clamped complement of
// the mean weekly penalty.
func MeanScore(assessments []WeekAssessment) float64 {
	if len(assessments) == 0 {
		return 100
	}
	var sum float64
	for _, a := range assessments {
		sum += a.Penalty
	}
	return calibration.ClampScore(100 - 100*sum/float64(len(assessments)))
}
