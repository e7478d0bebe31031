package simulate_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/internal/domain/simulate"
)

func constantDays(start time.Time, n int, tss float64) []simulate.DayLoad {
	out := make([]simulate.DayLoad, n)
	for i := range out {
		out[i] = simulate.DayLoad{Date: start.AddDate(0, 0, i), TSS: tss}
	}
	return out
}

func TestSeries(t *testing.T) {
	Convey("Given the default calibration", t, func() {
		cal := calibration.Default()
		start := model.Date(2026, time.March, 2)

		Convey("When simulating a constant load from a matching seed", func() {
			states := simulate.Series(constantDays(start, 30, 60), 60, 60, cal)

			Convey("Then the state should hold steady", func() {
				So(len(states), ShouldEqual, 30)
				for _, st := range states {
					So(st.CTL, ShouldAlmostEqual, 60, 1e-9)
					So(st.ATL, ShouldAlmostEqual, 60, 1e-9)
					So(st.TSB, ShouldAlmostEqual, 0, 1e-9)
				}
			})
		})

		Convey("When ramping load above the seed", func() {
			states := simulate.Series(constantDays(start, 60, 80), 40, 40, cal)

			Convey("Then CTL should rise monotonically toward the load", func() {
				prev := 40.0
				for _, st := range states {
					So(st.CTL, ShouldBeGreaterThan, prev)
					So(st.CTL, ShouldBeLessThan, 80)
					prev = st.CTL
				}
			})

			Convey("And ATL should respond faster than CTL", func() {
				So(states[6].ATL, ShouldBeGreaterThan, states[6].CTL)
			})

			Convey("And TSB should equal CTL minus ATL on every day", func() {
				for _, st := range states {
					So(st.TSB, ShouldAlmostEqual, st.CTL-st.ATL, 1e-9)
				}
			})
		})

		Convey("When resting after a block", func() {
			days := constantDays(start, 14, 70)
			days = append(days, constantDays(start.AddDate(0, 0, 14), 7, 0)...)
			states := simulate.Series(days, 50, 50, cal)

			Convey("Then freshness should recover during the rest week", func() {
				So(states[len(states)-1].TSB, ShouldBeGreaterThan, states[13].TSB)
			})
		})

		Convey("When the seed state is negative", func() {
			Convey("Then it should panic", func() {
				So(func() {
					simulate.Series(constantDays(start, 1, 10), -1, 0, cal)
				}, ShouldPanic)
			})
		})

		Convey("When a day carries negative TSS", func() {
			days := []simulate.DayLoad{{Date: start, TSS: -5}}

			Convey("Then it should panic", func() {
				So(func() {
					simulate.Series(days, 40, 40, cal)
				}, ShouldPanic)
			})
		})
	})
}

func TestFillDays(t *testing.T) {
	Convey("Given a sparse load map", t, func() {
		start := model.Date(2026, time.March, 2)
		end := start.AddDate(0, 0, 6)
		loads := map[time.Time]float64{
			start:                  50,
			start.AddDate(0, 0, 3): 80,
		}

		Convey("When filling the range", func() {
			days := simulate.FillDays(start, end, loads)

			Convey("Then every day should be present", func() {
				So(len(days), ShouldEqual, 7)
			})

			Convey("And missing days should be rest days", func() {
				So(days[0].TSS, ShouldEqual, 50)
				So(days[1].TSS, ShouldEqual, 0)
				So(days[3].TSS, ShouldEqual, 80)
				So(days[6].TSS, ShouldEqual, 0)
			})
		})

		Convey("When the range is inverted", func() {
			days := simulate.FillDays(end, start, loads)

			Convey("Then it should be empty", func() {
				So(days, ShouldBeNil)
			})
		})
	})
}
