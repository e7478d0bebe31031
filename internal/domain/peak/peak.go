// Package peak handles goal-peak shaping: taper and peak windows,
// goal conflict detection, bounded trajectory smoothing, and the final
// anchor/ceiling adjustments. Every operation here may only merge or
// cap values produced by earlier stages, never replace them.
package peak

import (
	"time"

	"github.com/okian/peakline/internal/domain/allocate"
	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/model"
)

// Conflicts reports, per goal, whether another goal sits inside either
// goal's functional recovery window. Conflicted goals keep their full
// projection but lose peak anchoring.
func Conflicts(goals []allocate.GoalInfo) []bool {
	out := make([]bool, len(goals))
	for i := range goals {
		for j := range goals {
			if i == j {
				continue
			}
			d := model.DaysBetween(goals[i].Goal.TargetDate, goals[j].Goal.TargetDate)
			if d < 0 {
				d = -d
			}
			if d <= goals[i].Profile.RecoveryDaysFunctional || d <= goals[j].Profile.RecoveryDaysFunctional {
				out[i] = true
				break
			}
		}
	}
	return out
}

// InPeakWindow reports whether a date falls in the goal's peak window:
// the taper plus a fraction of the full recovery span centered on
// arriving fresh at the goal date.
func InPeakWindow(date time.Time, gi allocate.GoalInfo) bool {
	lead := model.DaysBetween(date, gi.Goal.TargetDate)
	return lead >= 0 && lead <= gi.PeakWindow
}

// SmoothUpward caps day-over-day readiness rises to the calibrated
// step, repeated for the configured passes. Drops pass through
// untouched so post-event fatigue keeps its sharp edge.
func SmoothUpward(scores []float64, cal calibration.Calibration) {
	for pass := 0; pass < cal.SmoothPasses; pass++ {
		changed := false
		for i := 1; i < len(scores); i++ {
			if scores[i]-scores[i-1] > cal.SmoothMaxStep {
				scores[i] = scores[i-1] + cal.SmoothMaxStep
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// AnchorBoost nudges the readiness score on a goal date upward when
// the goal is unconflicted and carries no residual event fatigue. The
// boost is additive and bounded; it never overrides a fatigue dip.
func AnchorBoost(score float64, conflicted bool, fatiguePenalty float64, cal calibration.Calibration) float64 {
	if conflicted || fatiguePenalty > 0 {
		return score
	}
	return calibration.ClampScore(score + cal.PeakAnchorBoost)
}

// ApplyCeiling caps a score to a plan-level readiness ceiling. Cap,
// never replace: scores already below the ceiling are untouched. The
// bool reports whether the cap bit.
func ApplyCeiling(score float64, ceiling *float64) (float64, bool) {
	if ceiling == nil || score <= *ceiling {
		return score, false
	}
	return *ceiling, true
}
