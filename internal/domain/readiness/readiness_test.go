package readiness_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/peakline/internal/domain/allocate"
	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/internal/domain/readiness"
	"github.com/okian/peakline/internal/domain/recovery"
	"github.com/okian/peakline/internal/domain/simulate"
	"github.com/okian/peakline/internal/domain/types"
)

func weeklyHistory(start time.Time, weeks int) []model.WeeklyLoad {
	out := make([]model.WeeklyLoad, weeks)
	for i := range out {
		out[i] = model.WeeklyLoad{WeekStart: start.AddDate(0, 0, i*7), TSS: 300}
	}
	return out
}

func TestEvidence(t *testing.T) {
	Convey("Given the default calibration", t, func() {
		cal := calibration.Default()
		asOf := model.Date(2026, time.March, 2)

		Convey("When a chronic seed is supplied", func() {
			ev, codes := readiness.Evidence(model.AthleteSnapshot{StartingCTL: 40}, 40, asOf, cal)

			Convey("Then evidence should grade good with no rationale", func() {
				So(ev, ShouldEqual, cal.EvidenceGood)
				So(codes, ShouldBeEmpty)
			})
		})

		Convey("When only deep weekly history is supplied", func() {
			athlete := model.AthleteSnapshot{WeeklyHistory: weeklyHistory(asOf.AddDate(0, 0, -42), 6)}
			ev, codes := readiness.Evidence(athlete, 0, asOf, cal)

			Convey("Then evidence should still grade good", func() {
				So(ev, ShouldEqual, cal.EvidenceGood)
				So(codes, ShouldBeEmpty)
			})
		})

		Convey("When history is shallow", func() {
			athlete := model.AthleteSnapshot{WeeklyHistory: weeklyHistory(asOf.AddDate(0, 0, -14), 2)}
			ev, codes := readiness.Evidence(athlete, 0, asOf, cal)

			Convey("Then evidence should grade sparse with a rationale", func() {
				So(ev, ShouldEqual, cal.EvidenceSparse)
				So(codes, ShouldContain, types.RationaleSparseHistory)
			})
		})

		Convey("When there is no history at all", func() {
			ev, codes := readiness.Evidence(model.AthleteSnapshot{}, 0, asOf, cal)

			Convey("Then evidence should grade at the floor", func() {
				So(ev, ShouldEqual, cal.EvidenceNone)
				So(codes, ShouldContain, types.RationaleSparseHistory)
			})
		})

		Convey("When the last activity is stale", func() {
			athlete := model.AthleteSnapshot{
				StartingCTL:      45,
				LastActivityDate: asOf.AddDate(0, 0, -30),
			}
			ev, codes := readiness.Evidence(athlete, 45, asOf, cal)

			Convey("Then staleness should override the seed grade", func() {
				So(ev, ShouldEqual, cal.EvidenceStale)
				So(codes, ShouldContain, types.RationaleStaleHistory)
			})
		})
	})
}

func TestConfidence(t *testing.T) {
	Convey("Given the default calibration", t, func() {
		cal := calibration.Default()

		Convey("When the horizon stretches out", func() {
			near := readiness.Confidence(cal.EvidenceGood, 14, cal)
			far := readiness.Confidence(cal.EvidenceGood, 180, cal)

			Convey("Then confidence should shrink with distance", func() {
				So(far, ShouldBeLessThan, near)
			})
		})

		Convey("When evidence improves", func() {
			weak := readiness.Confidence(cal.EvidenceNone, 60, cal)
			strong := readiness.Confidence(cal.EvidenceGood, 60, cal)

			Convey("Then confidence should grow", func() {
				So(strong, ShouldBeGreaterThan, weak)
			})
		})

		Convey("When inputs push past the bounds", func() {
			Convey("Then confidence should stay within [0, 1]", func() {
				So(readiness.Confidence(100, 0, cal), ShouldBeLessThanOrEqualTo, 1)
				So(readiness.Confidence(0, 100000, cal), ShouldBeGreaterThanOrEqualTo, 0)
			})
		})

		Convey("When the horizon loss saturates", func() {
			capped := readiness.Confidence(cal.EvidenceGood, 1000, cal)
			alsoCapped := readiness.Confidence(cal.EvidenceGood, 2000, cal)

			Convey("Then further distance should not shrink it more", func() {
				So(capped, ShouldEqual, alsoCapped)
			})
		})
	})
}

func TestAttainment(t *testing.T) {
	Convey("Given a goal demanding CTL 61", t, func() {
		cal := calibration.Default()
		date := model.Date(2026, time.March, 2)
		goals := []allocate.GoalInfo{{
			Goal:      model.Goal{TargetDate: date.AddDate(0, 0, 60)},
			DemandCTL: 61,
		}}

		Convey("When chronic load meets the demand", func() {
			So(readiness.Attainment(date, 61, goals, cal), ShouldEqual, 100)
		})

		Convey("When chronic load exceeds the demand", func() {
			So(readiness.Attainment(date, 70, goals, cal), ShouldEqual, 100)
		})

		Convey("When a gap remains", func() {
			So(readiness.Attainment(date, 51, goals, cal), ShouldEqual, 85)
		})

		Convey("When the gap is hopeless", func() {
			So(readiness.Attainment(date, 0, goals, cal), ShouldEqual, 8.5)
		})

		Convey("When the date is past the final goal", func() {
			So(readiness.Attainment(date.AddDate(0, 0, 90), 20, goals, cal), ShouldEqual, 100)
		})
	})
}

func TestDurability(t *testing.T) {
	Convey("Given a plan start and default calibration", t, func() {
		cal := calibration.Default()
		start := model.Date(2026, time.March, 2)

		buildWeeks := func(n int, phase types.Phase) []allocate.WeekPlan {
			weeks := make([]allocate.WeekPlan, n)
			for i := range weeks {
				weeks[i] = allocate.WeekPlan{Index: i, Start: start.AddDate(0, 0, i*7), Phase: phase}
			}
			return weeks
		}

		variedDays := func(n int) []simulate.DayLoad {
			pattern := []float64{90, 50, 70, 0, 60, 100, 30}
			days := make([]simulate.DayLoad, n)
			for i := range days {
				days[i] = simulate.DayLoad{Date: start.AddDate(0, 0, i), TSS: pattern[i%7]}
			}
			return days
		}

		Convey("When the load pattern is varied and recovery is clear", func() {
			d := readiness.Durability(start.AddDate(0, 0, 10), variedDays(28), buildWeeks(4, types.PhaseBuild), nil, start, cal)

			Convey("Then durability should stay high", func() {
				So(d, ShouldBeGreaterThan, 80)
			})
		})

		Convey("When every day carries the same load", func() {
			flat := make([]simulate.DayLoad, 28)
			for i := range flat {
				flat[i] = simulate.DayLoad{Date: start.AddDate(0, 0, i), TSS: 70}
			}
			monotonous := readiness.Durability(start.AddDate(0, 0, 10), flat, buildWeeks(4, types.PhaseBuild), nil, start, cal)
			varied := readiness.Durability(start.AddDate(0, 0, 10), variedDays(28), buildWeeks(4, types.PhaseBuild), nil, start, cal)

			Convey("Then monotony should cost durability", func() {
				So(monotonous, ShouldBeLessThan, varied)
			})
		})

		Convey("When a build streak outruns the deload cadence", func() {
			longStreak := readiness.Durability(start.AddDate(0, 0, 41), variedDays(49), buildWeeks(7, types.PhaseBuild), nil, start, cal)
			shortStreak := readiness.Durability(start.AddDate(0, 0, 10), variedDays(49), buildWeeks(7, types.PhaseBuild), nil, start, cal)

			Convey("Then the overdue deload should charge its debt", func() {
				So(longStreak, ShouldBeLessThan, shortStreak)
				So(shortStreak-longStreak, ShouldAlmostEqual, cal.DeloadDebtPenalty, 1e-9)
			})
		})

		Convey("When the day falls inside a goal's functional recovery window", func() {
			goalDate := start.AddDate(0, 0, 8)
			goals := []allocate.GoalInfo{{
				Goal:    model.Goal{TargetDate: goalDate},
				Profile: recovery.Profile{RecoveryDaysFunctional: 6, RecoveryDaysFull: 13},
			}}

			dayAfter := readiness.Durability(goalDate.AddDate(0, 0, 1), variedDays(28), buildWeeks(4, types.PhaseBuild), goals, start, cal)
			clear := readiness.Durability(goalDate.AddDate(0, 0, 7), variedDays(28), buildWeeks(4, types.PhaseBuild), goals, start, cal)

			Convey("Then recovery debt should fade as the window closes", func() {
				So(dayAfter, ShouldBeLessThan, clear)
			})
		})
	})
}

func TestComposite(t *testing.T) {
	Convey("Given the default weights", t, func() {
		cal := calibration.Default()

		Convey("When all sub-scores are full", func() {
			So(readiness.Composite(100, 100, 100, 100, cal), ShouldEqual, 100)
		})

		Convey("When sub-scores differ", func() {
			got := readiness.Composite(80, 60, 40, 88, cal)

			Convey("Then the blend should follow the calibrated weights", func() {
				So(got, ShouldAlmostEqual, 0.45*80+0.30*60+0.15*40+0.10*88, 1e-9)
			})
		})

		Convey("When a breakdown is requested", func() {
			b := readiness.Breakdown(80, 60, 40, 88, 0.75, cal)

			Convey("Then every component should be carried through", func() {
				So(b.TargetAttainmentScore, ShouldEqual, 80)
				So(b.EnvelopeScore, ShouldEqual, 60)
				So(b.DurabilityScore, ShouldEqual, 40)
				So(b.EvidenceScore, ShouldEqual, 88)
				So(b.ReadinessConfidence, ShouldEqual, 0.75)
				So(b.ReadinessScore, ShouldAlmostEqual, readiness.Composite(80, 60, 40, 88, cal), 1e-9)
			})
		})
	})
}
