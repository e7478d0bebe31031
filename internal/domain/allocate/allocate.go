// Package allocate chooses a weekly load sequence that maximizes
// achievable preparedness toward the plan's goals while honoring hard
// safety constraints. The search is a bounded candidate enumeration
// with an explicit scoring function, not a generic solver, so behavior
// stays portable, inspectable, and deterministic.
package allocate

import (
	"math"
	"sort"
	"time"

	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/envelope"
	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/internal/domain/recovery"
	"github.com/okian/peakline/internal/domain/simulate"
	"github.com/okian/peakline/internal/domain/types"
)

// WeekPlan is one allocated week.
type WeekPlan struct {
	Index       int
	Start       time.Time
	TrainingTSS float64 // spread across training days
	EventTSS    float64 // race/test loads landing on goal days
	RampPct     float64 // training load growth vs the previous reference week
	Phase       types.Phase
	Rationales  []types.RationaleCode
	Assessment  envelope.WeekAssessment
}

// GoalInfo carries per-goal allocation facts needed downstream.
type GoalInfo struct {
	Goal        model.Goal
	Profile     recovery.Profile
	DemandCTL   float64
	EventTSS    float64
	Infeasible  bool
	WeekIndex   int
	TaperDays   int
	PeakWindow  int
}

// Result is the complete allocation for a horizon.
type Result struct {
	Weeks     []WeekPlan
	Days      []simulate.DayLoad
	Goals     []GoalInfo
	StartDate time.Time
	EndDate   time.Time
}

// profileWeights are the candidate-scoring weights per optimization
// profile: progress toward the goal-derived target load versus risk,
// volatility, and plan churn.
type profileWeights struct {
	progress, risk, volatility, churn float64
}

func weightsFor(p types.OptimizationProfile) profileWeights {
	switch p {
	case types.ProfileSustainable:
		return profileWeights{progress: 0.8, risk: 1.6, volatility: 0.5, churn: 0.3}
	case types.ProfileOutcomeFirst:
		return profileWeights{progress: 1.4, risk: 0.6, volatility: 0.2, churn: 0.1}
	default:
		return profileWeights{progress: 1.0, risk: 1.0, volatility: 0.3, churn: 0.2}
	}
}

// Plan allocates weekly load for the request horizon. Goals infeasible
// within the hard caps still get the best constraint-respecting
// trajectory; only their attainment degrades, flagged with a rationale
// code. The allocator never fails.
func Plan(req model.PreviewRequest, cal calibration.Calibration) Result {
	start := model.Day(req.Plan.PlanStartDate)
	goals := sortedGoals(req.Plan.Goals)

	infos := goalInfos(goals, start, cal)
	end := horizonEnd(infos, req.Config.Constraints, start)
	weekCount := model.DaysBetween(start, end)/7 + 1

	startCTL := req.Athlete.StartingCTL
	if req.Config.StartingCTLOverride != nil {
		startCTL = *req.Config.StartingCTLOverride
	}

	phases := weekPhases(weekCount, start, infos, cal)
	weeks := chooseWeeklyLoads(weekCount, start, startCTL, phases, infos, req, cal)
	attachEvents(weeks, infos)
	markInfeasible(weeks, infos, startCTL, cal)

	days := dailySpread(weeks, infos, start, end, req.Config.Constraints.MinRecoveryDaysPerCycle, cal)

	return Result{
		Weeks:     weeks,
		Days:      days,
		Goals:     infos,
		StartDate: start,
		EndDate:   end,
	}
}

func sortedGoals(goals []model.Goal) []model.Goal {
	out := make([]model.Goal, len(goals))
	copy(out, goals)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TargetDate.Equal(out[j].TargetDate) {
			return out[i].TargetDate.Before(out[j].TargetDate)
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}

func goalInfos(goals []model.Goal, start time.Time, cal calibration.Calibration) []GoalInfo {
	infos := make([]GoalInfo, len(goals))
	for i, g := range goals {
		prof := recovery.GoalProfile(g, 0, 0, cal)
		taper := int(math.Round(cal.TaperBaseDays + prof.FatigueIntensity/100*cal.TaperIntensityDays))
		infos[i] = GoalInfo{
			Goal:       g,
			Profile:    prof,
			DemandCTL:  demandCTL(g, cal),
			EventTSS:   eventTSS(g, prof, cal),
			WeekIndex:  model.DaysBetween(start, g.TargetDate) / 7,
			TaperDays:  taper,
			PeakWindow: taper + int(math.Round(float64(prof.RecoveryDaysFull)*cal.PeakWindowFraction)),
		}
	}
	return infos
}

// demandCTL maps a goal to the chronic load it requires. The dominant
// target wins; the mapping is a calibrated heuristic, not physiology
// re-derived from first principles.
func demandCTL(g model.Goal, cal calibration.Calibration) float64 {
	var demand float64
	for _, t := range g.Targets {
		var d float64
		if t.Type == model.TargetHRThreshold {
			d = cal.DemandHRTest
		} else {
			d = calibration.Clamp(cal.DemandCTLBase+cal.DemandCTLPerHour*t.DurationHours(), cal.DemandCTLMin, cal.DemandCTLMax)
		}
		if d > demand {
			demand = d
		}
	}
	return demand
}

// eventTSS estimates the stress of executing the goal on its date.
func eventTSS(g model.Goal, prof recovery.Profile, cal calibration.Calibration) float64 {
	var hours float64
	for _, t := range g.Targets {
		if h := t.DurationHours(); h > hours {
			hours = h
		}
	}
	return math.Max(30, hours*cal.RaceTSSPerHour*prof.ATLSpikeFactor)
}

func horizonEnd(infos []GoalInfo, c model.Constraints, start time.Time) time.Time {
	end := start.AddDate(0, 0, 27) // minimum four-week horizon
	for _, gi := range infos {
		tail := gi.Profile.RecoveryDaysFull
		if c.PostGoalRecoveryDays > tail {
			tail = c.PostGoalRecoveryDays
		}
		if e := gi.Goal.TargetDate.AddDate(0, 0, tail); e.After(end) {
			end = e
		}
	}
	return end
}

// weekPhases labels every week. Goal weeks become race weeks; the week
// before becomes a taper week when the taper covers a full week or
// more; weeks inside a functional recovery window become recovery
// weeks; every Nth remaining build week is a deload.
func weekPhases(weekCount int, start time.Time, infos []GoalInfo, cal calibration.Calibration) []types.Phase {
	phases := make([]types.Phase, weekCount)
	for i := range phases {
		phases[i] = types.PhaseBuild
	}
	for _, gi := range infos {
		w := gi.WeekIndex
		if w >= 0 && w < weekCount {
			phases[w] = types.PhaseRace
		}
		if gi.TaperDays >= 7 && w-1 >= 0 && phases[w-1] == types.PhaseBuild {
			phases[w-1] = types.PhaseTaper
		}
		// Weeks fully inside the functional recovery window.
		recEnd := gi.Goal.TargetDate.AddDate(0, 0, gi.Profile.RecoveryDaysFunctional)
		for wk := w + 1; wk < weekCount; wk++ {
			weekStart := start.AddDate(0, 0, wk*7)
			if weekStart.After(recEnd) {
				break
			}
			if phases[wk] == types.PhaseBuild {
				phases[wk] = types.PhaseRecovery
			}
		}
	}
	sinceDeload := 0
	for i := range phases {
		if phases[i] != types.PhaseBuild {
			sinceDeload = 0
			continue
		}
		sinceDeload++
		if sinceDeload >= cal.DeloadEveryWeeks {
			phases[i] = types.PhaseDeload
			sinceDeload = 0
		}
	}
	return phases
}

// chooseWeeklyLoads runs the candidate search week by week. The hard
// caps are never relaxed: every candidate outside them is discarded
// before scoring, and if nothing survives the safest candidate is
// taken and flagged.
func chooseWeeklyLoads(weekCount int, start time.Time, startCTL float64, phases []types.Phase, infos []GoalInfo, req model.PreviewRequest, cal calibration.Calibration) []WeekPlan {
	c := req.Config.Constraints
	w8s := weightsFor(req.Config.OptimizationProfile)

	rampCap := c.MaxWeeklyTSSRampPct
	if rampCap <= 0 {
		rampCap = cal.DefaultRampPct
	}

	weeks := make([]WeekPlan, weekCount)
	approxCTL := startCTL
	refLoad := seedWeek(startCTL, req.Athlete, infos, cal) // previous build-week reference
	peakLoad := refLoad
	prevRamp := 0.0

	for i := 0; i < weekCount; i++ {
		wp := WeekPlan{Index: i, Start: start.AddDate(0, 0, i*7), Phase: phases[i]}

		switch phases[i] {
		case types.PhaseDeload:
			wp.TrainingTSS = refLoad * cal.DeloadFactor
			wp.RampPct = pct(wp.TrainingTSS, refLoad)
			wp.Rationales = append(wp.Rationales, types.RationaleDeloadWeek)
		case types.PhaseTaper:
			wp.TrainingTSS = peakLoad * cal.TaperPreWeekFrac
			wp.RampPct = pct(wp.TrainingTSS, refLoad)
			wp.Rationales = append(wp.Rationales, types.RationaleTaper)
		case types.PhaseRace:
			wp.TrainingTSS = peakLoad * cal.TaperRaceWeekFrac
			wp.RampPct = pct(wp.TrainingTSS, refLoad)
			wp.Rationales = append(wp.Rationales, types.RationaleTaper)
		case types.PhaseRecovery:
			wp.TrainingTSS = peakLoad * cal.RecoveryWeekFrac
			wp.RampPct = pct(wp.TrainingTSS, refLoad)
			wp.Rationales = append(wp.Rationales, types.RationalePostEventRecovery)
		default: // build
			chosen, ramp, capped := pickBuildCandidate(i, refLoad, approxCTL, prevRamp, rampCap, c.MaxCTLRampPerWeek, infos, w8s, cal)
			wp.TrainingTSS = chosen
			wp.RampPct = ramp
			if capped {
				wp.Rationales = append(wp.Rationales, types.RationaleCTLRampCapped)
			}
			if ramp >= rampCap-1e-9 {
				wp.Rationales = append(wp.Rationales, types.RationaleRampCapped)
			}
			refLoad = chosen
			if chosen > peakLoad {
				peakLoad = chosen
			}
			prevRamp = ramp
		}

		// Assess against the chronic state the week builds toward; the
		// morning-of state would flag every normal build edge-of-band.
		ctlNext := advanceCTL(approxCTL, wp.TrainingTSS/7, cal)
		band := envelope.BandFor(ctlNext, rampCap, cal)
		wp.Assessment = envelope.Assess(wp.TrainingTSS, wp.RampPct, band, cal)
		weeks[i] = wp

		approxCTL = ctlNext
	}
	return weeks
}

// seedWeek derives the first week's load. A known chronic state seeds
// at CTL*7; otherwise the seed composes the last realized week, the
// first block's midpoint target, and the maintenance floor — never a
// fixed baseline reused every week.
func seedWeek(startCTL float64, athlete model.AthleteSnapshot, infos []GoalInfo, cal calibration.Calibration) float64 {
	if startCTL > 0 {
		return startCTL * 7
	}
	prior := cal.MaintenanceWeekly
	if n := len(athlete.WeeklyHistory); n > 0 {
		prior = athlete.WeeklyHistory[n-1].TSS
	}
	midpoint := cal.MaintenanceWeekly
	if len(infos) > 0 {
		midpoint = infos[0].DemandCTL * 7 / 2
	}
	seed := (prior + midpoint) / 2
	return math.Max(cal.MaintenanceWeekly, seed)
}

// pickBuildCandidate scores the bounded candidate set for one build
// week and returns the winner. The bool result reports that the CTL
// ramp cap forced the safest candidate.
func pickBuildCandidate(week int, refLoad, ctl, prevRamp, rampCap, ctlRampCap float64, infos []GoalInfo, w profileWeights, cal calibration.Calibration) (load, ramp float64, ctlCapped bool) {
	ideal := idealLoad(week, refLoad, rampCap, infos, cal)

	type scored struct {
		load, ramp, score float64
	}
	var best *scored
	var safest *scored

	for _, rp := range cal.CandidateRampPcts {
		if rp > rampCap {
			continue // hard weekly ramp cap
		}
		cand := refLoad * (1 + rp/100)
		if cand < 0 {
			cand = 0
		}

		// Hard CTL ramp cap: reject candidates whose one-week chronic
		// response exceeds the allowed rise.
		ctlNext := advanceCTL(ctl, cand/7, cal)
		okCTL := ctlRampCap <= 0 || ctlNext-ctl <= ctlRampCap

		band := envelope.BandFor(ctlNext, rampCap, cal)
		assess := envelope.Assess(cand, rp, band, cal)

		gap := math.Abs(cand-ideal) / math.Max(refLoad, 1) * 100
		s := -w.progress*gap - w.risk*assess.Penalty*100 -
			w.volatility*math.Abs(rp-prevRamp) - w.churn*math.Abs(rp)

		sc := scored{load: cand, ramp: rp, score: s}
		if safest == nil || sc.load < safest.load {
			v := sc
			safest = &v
		}
		if okCTL && (best == nil || sc.score > best.score) {
			v := sc
			best = &v
		}
	}

	if best == nil {
		// Everything violated the CTL ramp cap; hold at the safest
		// candidate rather than relaxing the constraint.
		return safest.load, safest.ramp, true
	}
	return best.load, best.ramp, false
}

// idealLoad is the lookahead target for a build week: the weekly
// equivalent of the next upcoming goal's demand, capped at what the
// ramp limit could reach within the lookahead window. Weeks with no
// remaining goal fall back to maintenance.
func idealLoad(week int, refLoad, rampCap float64, infos []GoalInfo, cal calibration.Calibration) float64 {
	for _, gi := range infos {
		taperWeeks := 1
		if gi.TaperDays >= 7 {
			taperWeeks = 2
		}
		peakWeek := gi.WeekIndex - taperWeeks
		if peakWeek < week {
			continue
		}
		weeksOut := peakWeek - week
		if weeksOut > cal.LookaheadWeeks {
			weeksOut = cal.LookaheadWeeks
		}
		reachable := refLoad * math.Pow(1+rampCap/100, float64(weeksOut))
		return math.Min(gi.DemandCTL*7, reachable)
	}
	return cal.MaintenanceWeekly
}

// advanceCTL approximates one week of chronic-load response to a
// steady daily load.
func advanceCTL(ctl, dailyMean float64, cal calibration.Calibration) float64 {
	keep := math.Pow(1-cal.CTLAlpha(), 7)
	return dailyMean + (ctl-dailyMean)*keep
}

func pct(now, prev float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (now - prev) / prev * 100
}

// attachEvents adds goal-day stress to the owning weeks.
func attachEvents(weeks []WeekPlan, infos []GoalInfo) {
	for _, gi := range infos {
		if gi.WeekIndex >= 0 && gi.WeekIndex < len(weeks) {
			weeks[gi.WeekIndex].EventTSS += gi.EventTSS
		}
	}
}

// markInfeasible projects chronic load through the allocated weeks and
// flags goals whose demand cannot be approached inside the caps. Demand
// is compared against the highest chronic load reached up to the goal
// week: the taper and race weeks shed load on purpose and would mask a
// completed build if the end state were read instead. The plan still
// stands; only attainment will degrade.
func markInfeasible(weeks []WeekPlan, infos []GoalInfo, startCTL float64, cal calibration.Calibration) {
	for i := range infos {
		ctl := startCTL
		peakCTL := ctl
		for w := 0; w < len(weeks) && w <= infos[i].WeekIndex; w++ {
			ctl = advanceCTL(ctl, weeks[w].TrainingTSS/7, cal)
			if ctl > peakCTL {
				peakCTL = ctl
			}
		}
		if peakCTL < infos[i].DemandCTL*cal.InfeasibleDemandFrac {
			infos[i].Infeasible = true
			w := infos[i].WeekIndex
			if w >= 0 && w < len(weeks) {
				weeks[w].Rationales = append(weeks[w].Rationales, types.RationaleInsufficientTime)
			}
		}
	}
}

// dailySpread expands weekly allocations into a contiguous daily
// series. Rest days honor the minimum recovery days per cycle; goal
// days carry only their event stress.
func dailySpread(weeks []WeekPlan, infos []GoalInfo, start, end time.Time, minRestDays int, cal calibration.Calibration) []simulate.DayLoad {
	eventByDate := make(map[time.Time]float64, len(infos))
	for _, gi := range infos {
		eventByDate[gi.Goal.TargetDate] += gi.EventTSS
	}

	base := restAdjustedWeights(cal.WeekSpreadWeights, minRestDays)

	total := model.DaysBetween(start, end) + 1
	days := make([]simulate.DayLoad, 0, total)
	for wk := range weeks {
		weekStart := start.AddDate(0, 0, wk*7)

		// Event days inside this week carry only their event stress;
		// the week's training volume redistributes over the rest.
		w := base
		for _, gi := range infos {
			if off := model.DaysBetween(weekStart, gi.Goal.TargetDate); off >= 0 && off < 7 {
				w[off] = 0
			}
		}
		var sum float64
		for _, v := range w {
			sum += v
		}

		for i := 0; i < 7; i++ {
			d := weekStart.AddDate(0, 0, i)
			if d.After(end) {
				break
			}
			tss := eventByDate[d]
			if sum > 0 {
				tss += weeks[wk].TrainingTSS * w[i] / sum
			}
			days = append(days, simulate.DayLoad{Date: d, TSS: tss})
		}
	}
	return days
}

// restAdjustedWeights zeroes the lightest days to satisfy the minimum
// rest-day constraint and renormalizes the remainder.
func restAdjustedWeights(base []float64, minRestDays int) [7]float64 {
	var w [7]float64
	copy(w[:], base)

	for r := 0; r < minRestDays && r < 6; r++ {
		min := -1
		for i, v := range w {
			if v > 0 && (min < 0 || v < w[min]) {
				min = i
			}
		}
		if min < 0 {
			break
		}
		w[min] = 0
	}
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum > 0 {
		for i := range w {
			w[i] /= sum
		}
	}
	return w
}
