// Package projection is the engine orchestrator. It composes the
// pipeline stages in one place — simulate, envelope, allocate, score,
// adjust, smooth, anchor — so stage ordering and the merge-or-cap rule
// are enforced structurally rather than by convention.
package projection

import (
	"math"
	"sort"
	"time"

	"github.com/okian/peakline/internal/domain/allocate"
	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/internal/domain/peak"
	"github.com/okian/peakline/internal/domain/readiness"
	"github.com/okian/peakline/internal/domain/recovery"
	"github.com/okian/peakline/internal/domain/simulate"
	"github.com/okian/peakline/internal/domain/types"
)

// Build produces the full projection chart for a validated request.
// The request must already be canonicalized; Build is deterministic:
// identical inputs yield an identical chart.
func Build(req model.PreviewRequest, cal calibration.Calibration) model.ProjectionChart {
	alloc := allocate.Plan(req, cal)

	startCTL := req.Athlete.StartingCTL
	if req.Config.StartingCTLOverride != nil {
		startCTL = *req.Config.StartingCTLOverride
	}
	startATL := req.Athlete.StartingATL

	states := simulate.Series(alloc.Days, startCTL, startATL, cal)
	conflicts := peak.Conflicts(alloc.Goals)

	asOf := req.AsOfDate
	if asOf.IsZero() {
		asOf = alloc.StartDate
	}
	evidence, evidenceRationales := readiness.Evidence(req.Athlete, startCTL, asOf, cal)
	horizon := model.DaysBetween(alloc.StartDate, alloc.EndDate)
	confidence := readiness.Confidence(evidence, horizon, cal)

	scores, penalties := scoreDays(alloc, states, startCTL, startATL, evidence, confidence, cal)

	// Bounded smoothing caps optimistic jumps; fatigue drops keep
	// their edge. Anchoring and the plan ceiling run last and only
	// merge or cap.
	peak.SmoothUpward(scores, cal)
	applyGoalAdjustments(scores, penalties, alloc, conflicts, cal)
	ceilingHits := applyCeiling(scores, req.Config.ReadinessCeiling)

	points := emitPoints(alloc, states, scores, confidence, evidenceRationales, ceilingHits, conflicts)

	return model.ProjectionChart{
		StartDate:         alloc.StartDate,
		EndDate:           alloc.EndDate,
		Points:            points,
		GoalMarkers:       goalMarkers(alloc, conflicts, points),
		Microcycles:       microcycles(alloc),
		RecoverySegments:  recoverySegments(alloc),
		ConstraintSummary: constraintSummary(alloc, conflicts),
		CalibrationName:   cal.Version,
	}
}

// scoreDays computes the fatigue-adjusted readiness score per day and
// returns the residual event-fatigue penalty alongside. Each day is
// scored through the full composite breakdown so the sub-scores stay
// inspectable; only the headline leaves the engine. Event fatigue
// evaluates against the morning state: the previous day's end state,
// or the starting seed on day one.
func scoreDays(alloc allocate.Result, states []model.LoadState, startCTL, startATL, evidence, confidence float64, cal calibration.Calibration) (scores, penalties []float64) {
	scores = make([]float64, len(states))
	penalties = make([]float64, len(states))

	morning := model.LoadState{
		Date: alloc.StartDate,
		CTL:  startCTL,
		ATL:  startATL,
		TSB:  startCTL - startATL,
	}

	for i, st := range states {
		wk := weekIndexFor(alloc, st.Date)
		env := alloc.Weeks[wk].Assessment

		att := readiness.Attainment(st.Date, st.CTL, alloc.Goals, cal)
		dur := readiness.Durability(st.Date, alloc.Days, alloc.Weeks, alloc.Goals, alloc.StartDate, cal)
		breakdown := readiness.Breakdown(att, env.Score, dur, evidence, confidence, cal)

		var pen float64
		for _, gi := range alloc.Goals {
			p := recovery.FatiguePenalty(st.Date, morning, gi.Goal.TargetDate, gi.Profile, cal)
			if p > pen {
				pen = p
			}
		}
		penalties[i] = pen
		scores[i] = calibration.ClampScore(breakdown.ReadinessScore - pen)

		morning = st
	}
	return scores, penalties
}

func weekIndexFor(alloc allocate.Result, date time.Time) int {
	wk := model.DaysBetween(alloc.StartDate, date) / 7
	if wk < 0 {
		wk = 0
	}
	if wk >= len(alloc.Weeks) {
		wk = len(alloc.Weeks) - 1
	}
	return wk
}

// applyGoalAdjustments anchors unconflicted, fatigue-free goal dates
// inside their peak window with the calibrated boost.
func applyGoalAdjustments(scores, penalties []float64, alloc allocate.Result, conflicts []bool, cal calibration.Calibration) {
	for gIdx, gi := range alloc.Goals {
		i := model.DaysBetween(alloc.StartDate, gi.Goal.TargetDate)
		if i < 0 || i >= len(scores) {
			continue
		}
		if !peak.InPeakWindow(gi.Goal.TargetDate, gi) {
			continue
		}
		scores[i] = peak.AnchorBoost(scores[i], conflicts[gIdx], penalties[i], cal)
	}
}

func applyCeiling(scores []float64, ceiling *float64) []bool {
	hits := make([]bool, len(scores))
	for i := range scores {
		scores[i], hits[i] = peak.ApplyCeiling(scores[i], ceiling)
	}
	return hits
}

func emitPoints(alloc allocate.Result, states []model.LoadState, scores []float64, confidence float64, evidenceRationales []types.RationaleCode, ceilingHits []bool, conflicts []bool) []model.ProjectionPoint {
	points := make([]model.ProjectionPoint, len(states))
	for i, st := range states {
		wk := weekIndexFor(alloc, st.Date)
		week := alloc.Weeks[wk]

		codes := append([]types.RationaleCode(nil), week.Rationales...)
		if i == 0 {
			codes = append(codes, evidenceRationales...)
		}
		for gIdx, gi := range alloc.Goals {
			if conflicts[gIdx] && gi.Goal.TargetDate.Equal(st.Date) {
				codes = append(codes, types.RationaleGoalConflict)
			}
		}
		if ceilingHits[i] {
			codes = append(codes, types.RationaleCeilingCapped)
		}

		points[i] = model.ProjectionPoint{
			Date:                st.Date,
			CTL:                 round1(st.CTL),
			ATL:                 round1(st.ATL),
			TSB:                 round1(st.TSB),
			WeeklyTSS:           round1(week.TrainingTSS + week.EventTSS),
			ReadinessScore:      math.Round(scores[i]),
			ReadinessConfidence: round2(confidence),
			CapacityEnvelope: model.CapacityEnvelope{
				EnvelopeScore:  round1(week.Assessment.Score),
				EnvelopeState:  week.Assessment.State,
				LimitingFactor: week.Assessment.LimitingFactors,
			},
			RationaleCodes: dedupeCodes(codes),
		}
	}
	return points
}

func goalMarkers(alloc allocate.Result, conflicts []bool, points []model.ProjectionPoint) []model.GoalMarker {
	markers := make([]model.GoalMarker, len(alloc.Goals))
	for i, gi := range alloc.Goals {
		m := model.GoalMarker{
			Date:       gi.Goal.TargetDate,
			Label:      gi.Goal.Label,
			Priority:   gi.Goal.Priority,
			Conflicted: conflicts[i],
		}
		if idx := model.DaysBetween(alloc.StartDate, gi.Goal.TargetDate); idx >= 0 && idx < len(points) {
			m.ReadinessScore = points[idx].ReadinessScore
		}
		markers[i] = m
	}
	return markers
}

func microcycles(alloc allocate.Result) []model.Microcycle {
	out := make([]model.Microcycle, len(alloc.Weeks))
	for i, w := range alloc.Weeks {
		out[i] = model.Microcycle{
			WeekStart: w.Start,
			WeekEnd:   w.Start.AddDate(0, 0, 6),
			TSS:       round1(w.TrainingTSS + w.EventTSS),
			RampPct:   round1(w.RampPct),
			Phase:     w.Phase,
		}
	}
	return out
}

func recoverySegments(alloc allocate.Result) []model.RecoverySegment {
	out := make([]model.RecoverySegment, len(alloc.Goals))
	for i, gi := range alloc.Goals {
		fullEnd := gi.Goal.TargetDate.AddDate(0, 0, gi.Profile.RecoveryDaysFull)
		out[i] = model.RecoverySegment{
			GoalDate:       gi.Goal.TargetDate,
			Start:          gi.Goal.TargetDate.AddDate(0, 0, 1),
			FunctionalEnd:  gi.Goal.TargetDate.AddDate(0, 0, gi.Profile.RecoveryDaysFunctional),
			FullEnd:        fullEnd,
			FatigueDecayed: !fullEnd.After(alloc.EndDate),
		}
	}
	return out
}

func constraintSummary(alloc allocate.Result, conflicts []bool) model.ConstraintSummary {
	s := model.ConstraintSummary{}
	counts := make(map[types.RationaleCode]int)
	for _, w := range alloc.Weeks {
		for _, c := range w.Rationales {
			counts[c]++
			switch c {
			case types.RationaleRampCapped:
				s.WeeksRampCapped++
			case types.RationaleCTLRampCapped:
				s.WeeksCTLCapped++
			}
		}
		if w.Phase == types.PhaseDeload {
			s.DeloadWeeks++
		}
	}
	for _, gi := range alloc.Goals {
		if gi.Infeasible {
			s.InfeasibleGoals++
		}
	}
	for _, c := range conflicts {
		if c {
			s.ConflictedGoals++
		}
	}

	codes := make([]types.RationaleCode, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool {
		if counts[codes[i]] != counts[codes[j]] {
			return counts[codes[i]] > counts[codes[j]]
		}
		return codes[i] < codes[j]
	})
	if len(codes) > 3 {
		codes = codes[:3]
	}
	s.DominantRationales = codes
	return s
}

func dedupeCodes(codes []types.RationaleCode) []types.RationaleCode {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[types.RationaleCode]struct{}, len(codes))
	out := codes[:0]
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
