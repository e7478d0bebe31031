// Package readiness computes the per-day readiness composite: goal
// attainment, envelope compliance, durability, and evidence quality
// blended into a single bounded score with a confidence estimate.
package readiness

import (
	"math"
	"time"

	"github.com/okian/peakline/internal/domain/allocate"
	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/internal/domain/simulate"
	"github.com/okian/peakline/internal/domain/types"
)

// Evidence grades how well the projection is grounded in measured
// athlete state. A supplied chronic/acute seed counts as measured
// state; without one the grade falls back to history depth.
func Evidence(athlete model.AthleteSnapshot, startCTL float64, asOf time.Time, cal calibration.Calibration) (float64, []types.RationaleCode) {
	stale := !athlete.LastActivityDate.IsZero() &&
		model.DaysBetween(model.Day(athlete.LastActivityDate), model.Day(asOf)) > cal.StaleAfterDays

	switch {
	case stale:
		return cal.EvidenceStale, []types.RationaleCode{types.RationaleStaleHistory}
	case startCTL > 0 || athlete.StartingATL > 0:
		return cal.EvidenceGood, nil
	case len(athlete.WeeklyHistory) >= cal.SparseHistoryWeeks:
		return cal.EvidenceGood, nil
	case len(athlete.WeeklyHistory) > 0:
		return cal.EvidenceSparse, []types.RationaleCode{types.RationaleSparseHistory}
	default:
		return cal.EvidenceNone, []types.RationaleCode{types.RationaleSparseHistory}
	}
}

// Confidence shrinks with projection distance and grows with evidence.
// Bounded to [0, 1].
func Confidence(evidence float64, horizonDays int, cal calibration.Calibration) float64 {
	loss := math.Min(cal.ConfidenceHorizonLoss*float64(horizonDays), cal.ConfidenceHorizonCap)
	return calibration.Clamp(cal.ConfidenceBase+cal.ConfidencePerEvidence*evidence-loss, 0, 1)
}

// Attainment scores the chronic-load gap toward the next goal's
// demand on a given day. Days past the final goal score full.
func Attainment(date time.Time, ctl float64, goals []allocate.GoalInfo, cal calibration.Calibration) float64 {
	for _, gi := range goals {
		if gi.Goal.TargetDate.Before(date) {
			continue
		}
		gap := math.Max(0, gi.DemandCTL-ctl)
		return calibration.ClampScore(100 - gap*cal.AttainmentGapSlope)
	}
	return 100
}

// Durability aggregates overtraining-risk proxies for one day:
// monotony and strain over the trailing week, overdue-deload debt,
// and unfinished post-event recovery debt.
func Durability(date time.Time, days []simulate.DayLoad, weeks []allocate.WeekPlan, goals []allocate.GoalInfo, start time.Time, cal calibration.Calibration) float64 {
	penalty := monotonyStrainPenalty(date, days, cal)
	penalty += deloadDebt(date, weeks, start, cal)
	penalty += recoveryDebt(date, goals, cal)
	return calibration.ClampScore(100 - penalty)
}

// monotonyStrainPenalty computes Foster-style monotony (trailing mean
// over standard deviation of daily load) and strain (weekly load times
// monotony) penalties for the trailing seven days.
func monotonyStrainPenalty(date time.Time, days []simulate.DayLoad, cal calibration.Calibration) float64 {
	var window []float64
	for _, d := range days {
		diff := model.DaysBetween(d.Date, date)
		if diff >= 0 && diff < 7 {
			window = append(window, d.TSS)
		}
	}
	if len(window) < 7 {
		return 0
	}

	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))
	var varSum float64
	for _, v := range window {
		varSum += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(varSum / float64(len(window)))
	if sd == 0 {
		sd = 1
	}
	monotony := math.Min(mean/sd, cal.MonotonyCap)

	var penalty float64
	if monotony > cal.MonotonyThreshold {
		penalty += (monotony - cal.MonotonyThreshold) * cal.MonotonyPenalty
	}
	if strain := sum * monotony; strain > cal.StrainThreshold {
		penalty += (strain - cal.StrainThreshold) * cal.StrainPenalty
	}
	return penalty
}

// deloadDebt charges for build streaks that outran the deload cadence.
func deloadDebt(date time.Time, weeks []allocate.WeekPlan, start time.Time, cal calibration.Calibration) float64 {
	wk := model.DaysBetween(start, date) / 7
	if wk >= len(weeks) {
		wk = len(weeks) - 1
	}
	streak := 0
	for i := wk; i >= 0; i-- {
		if weeks[i].Phase != types.PhaseBuild {
			break
		}
		streak++
	}
	if streak > cal.DeloadEveryWeeks {
		return cal.DeloadDebtPenalty
	}
	return 0
}

// recoveryDebt charges for days inside a goal's functional recovery
// window, fading linearly as the window closes. Overlapping windows
// take the worst debt rather than stacking.
func recoveryDebt(date time.Time, goals []allocate.GoalInfo, cal calibration.Calibration) float64 {
	var debt float64
	for _, gi := range goals {
		daysAfter := model.DaysBetween(gi.Goal.TargetDate, date)
		fn := gi.Profile.RecoveryDaysFunctional
		if daysAfter <= 0 || daysAfter > fn {
			continue
		}
		d := cal.RecoveryDebtScale * (1 - float64(daysAfter)/float64(fn+1))
		if d > debt {
			debt = d
		}
	}
	return debt
}

// Composite blends the four sub-scores with the calibrated weights.
func Composite(attainment, envelope, durability, evidence float64, cal calibration.Calibration) float64 {
	return calibration.ClampScore(
		cal.AttainmentWeight*attainment +
			cal.EnvelopeWeight*envelope +
			cal.DurabilityWeight*durability +
			cal.EvidenceWeight*evidence)
}

// Breakdown fills a full composite for one day.
func Breakdown(attainment, envelope, durability, evidence, confidence float64, cal calibration.Calibration) model.ReadinessComposite {
	return model.ReadinessComposite{
		TargetAttainmentScore: attainment,
		EnvelopeScore:         envelope,
		DurabilityScore:       durability,
		EvidenceScore:         evidence,
		ReadinessScore:        Composite(attainment, envelope, durability, evidence, cal),
		ReadinessConfidence:   confidence,
	}
}
