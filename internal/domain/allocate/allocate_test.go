package allocate_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/peakline/internal/domain/allocate"
	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/internal/domain/types"
)

func marathonGoal(date time.Time) model.Goal {
	return model.Goal{
		TargetDate: date,
		Priority:   1,
		Targets: []model.GoalTarget{{
			Type:      model.TargetRacePerformance,
			DistanceM: 42195,
			TimeS:     4 * 3600,
			Sport:     model.SportRun,
		}},
	}
}

func buildRequest(start time.Time, goals ...model.Goal) model.PreviewRequest {
	return model.PreviewRequest{
		Plan: model.MinimalPlanDefinition{
			PlanStartDate: start,
			Goals:         goals,
		},
		Config: model.CreationConfig{
			OptimizationProfile: types.ProfileBalanced,
			Constraints: model.Constraints{
				MaxWeeklyTSSRampPct: 10,
				MaxCTLRampPerWeek:   5,
			},
		},
		Athlete: model.AthleteSnapshot{StartingCTL: 40, StartingATL: 38},
	}.Canonical()
}

func TestPlan(t *testing.T) {
	Convey("Given a 12-week marathon build", t, func() {
		cal := calibration.Default()
		start := model.Date(2026, time.January, 5)
		goalDate := start.AddDate(0, 0, 12*7-1)
		req := buildRequest(start, marathonGoal(goalDate))

		result := allocate.Plan(req, cal)

		Convey("Then the horizon should cover the goal plus its recovery", func() {
			So(result.StartDate, ShouldEqual, start)
			So(result.EndDate.After(goalDate), ShouldBeTrue)
		})

		Convey("Then the goal week should be a race week", func() {
			gi := result.Goals[0]
			So(result.Weeks[gi.WeekIndex].Phase, ShouldEqual, types.PhaseRace)
		})

		Convey("Then the week before the race should taper", func() {
			gi := result.Goals[0]
			So(gi.TaperDays, ShouldEqual, 7)
			So(result.Weeks[gi.WeekIndex-1].Phase, ShouldEqual, types.PhaseTaper)
			So(result.Weeks[gi.WeekIndex-1].TrainingTSS, ShouldBeLessThan, result.Weeks[gi.WeekIndex-2].TrainingTSS)
		})

		Convey("Then the weeks after the race should recover", func() {
			gi := result.Goals[0]
			So(result.Weeks[gi.WeekIndex+1].Phase, ShouldEqual, types.PhaseRecovery)
		})

		Convey("Then the first week should seed from the chronic state", func() {
			So(result.Weeks[0].TrainingTSS, ShouldBeBetweenOrEqual, 40*7*0.95, 40*7*1.10)
		})

		Convey("Then no build week should outgrow the ramp cap", func() {
			for _, w := range result.Weeks {
				if w.Phase == types.PhaseBuild || w.Phase == types.PhaseDeload {
					So(w.RampPct, ShouldBeLessThanOrEqualTo, 10+1e-9)
				}
			}
		})

		Convey("Then every fourth consecutive build week should deload", func() {
			streak := 0
			for _, w := range result.Weeks {
				switch w.Phase {
				case types.PhaseBuild:
					streak++
					So(streak, ShouldBeLessThan, cal.DeloadEveryWeeks)
				case types.PhaseDeload:
					streak = 0
					So(w.TrainingTSS, ShouldBeLessThan, result.Weeks[w.Index-1].TrainingTSS)
				default:
					streak = 0
				}
			}
		})

		Convey("Then the race week should carry the event stress", func() {
			gi := result.Goals[0]
			So(result.Weeks[gi.WeekIndex].EventTSS, ShouldAlmostEqual, gi.EventTSS, 1e-9)
			So(gi.EventTSS, ShouldBeGreaterThan, 100)
		})

		Convey("Then a feasible build should not be flagged infeasible", func() {
			// The taper and race weeks shed chronic load below the
			// demand threshold; only the peak reached beforehand counts.
			So(result.Goals[0].Infeasible, ShouldBeFalse)
			gi := result.Goals[0]
			So(result.Weeks[gi.WeekIndex].Rationales, ShouldNotContain, types.RationaleInsufficientTime)
		})

		Convey("Then the daily series should be contiguous", func() {
			for i := 1; i < len(result.Days); i++ {
				So(model.DaysBetween(result.Days[i-1].Date, result.Days[i].Date), ShouldEqual, 1)
			}
		})

		Convey("Then the goal day should carry only its event stress", func() {
			for _, d := range result.Days {
				if d.Date.Equal(goalDate) {
					So(d.TSS, ShouldAlmostEqual, result.Goals[0].EventTSS, 1e-9)
				}
			}
		})

		Convey("Then planning twice should be deterministic", func() {
			again := allocate.Plan(req, cal)
			So(again, ShouldResemble, result)
		})
	})
}

func TestPlanShortHorizon(t *testing.T) {
	Convey("Given a marathon only three weeks out for a novice", t, func() {
		cal := calibration.Default()
		start := model.Date(2026, time.January, 5)
		req := buildRequest(start, marathonGoal(start.AddDate(0, 0, 20)))
		req.Athlete.StartingCTL = 20
		req.Athlete.StartingATL = 18
		req = req.Canonical()

		result := allocate.Plan(req, cal)

		Convey("Then the horizon should still span at least four weeks", func() {
			So(model.DaysBetween(result.StartDate, result.EndDate), ShouldBeGreaterThanOrEqualTo, 27)
		})

		Convey("Then the goal should be flagged infeasible, not rejected", func() {
			So(result.Goals[0].Infeasible, ShouldBeTrue)
			gi := result.Goals[0]
			So(result.Weeks[gi.WeekIndex].Rationales, ShouldContain, types.RationaleInsufficientTime)
		})
	})
}

func TestPlanRestDays(t *testing.T) {
	Convey("Given a plan requiring two rest days per week", t, func() {
		cal := calibration.Default()
		start := model.Date(2026, time.January, 5)
		req := buildRequest(start, marathonGoal(start.AddDate(0, 0, 83)))
		req.Config.Constraints.MinRecoveryDaysPerCycle = 2
		req = req.Canonical()

		result := allocate.Plan(req, cal)

		Convey("Then each full training week should hold two rest days", func() {
			week := result.Days[:7]
			rest := 0
			for _, d := range week {
				if d.TSS == 0 {
					rest++
				}
			}
			So(rest, ShouldEqual, 2)
		})

		Convey("Then the weekly volume should survive redistribution", func() {
			var sum float64
			for _, d := range result.Days[:7] {
				sum += d.TSS
			}
			So(sum, ShouldAlmostEqual, result.Weeks[0].TrainingTSS, 1e-6)
		})
	})
}

func TestPlanGoalOrdering(t *testing.T) {
	Convey("Given goals supplied out of order", t, func() {
		cal := calibration.Default()
		start := model.Date(2026, time.January, 5)
		late := marathonGoal(start.AddDate(0, 0, 120))
		early := marathonGoal(start.AddDate(0, 0, 60))
		req := buildRequest(start, late, early)

		result := allocate.Plan(req, cal)

		Convey("Then allocation should order them by date", func() {
			So(result.Goals[0].Goal.TargetDate.Before(result.Goals[1].Goal.TargetDate), ShouldBeTrue)
		})
	})
}
