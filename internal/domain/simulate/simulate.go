// Package simulate rolls daily training-stress values into
// exponentially-weighted fitness/fatigue state.
package simulate

import (
	"fmt"
	"time"

	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/model"
)

// DayLoad is one day of planned or realized training stress.
type DayLoad struct {
	Date time.Time
	TSS  float64
}

// Series computes the per-day LoadState sequence for a contiguous daily
// load series. The input must be ordered by date with no gaps; a
// missing day is a rest day and must be supplied as zero TSS by the
// caller. Negative TSS is a contract violation.
//
//	CTL_n = CTL_{n-1} + a_c * (TSS_n - CTL_{n-1})
//	ATL_n = ATL_{n-1} + a_a * (TSS_n - ATL_{n-1})
//	TSB   = CTL - ATL
func Series(days []DayLoad, ctl0, atl0 float64, cal calibration.Calibration) []model.LoadState {
	if ctl0 < 0 || atl0 < 0 {
		panic("simulate: negative seed state")
	}
	ac := cal.CTLAlpha()
	aa := cal.ATLAlpha()

	out := make([]model.LoadState, len(days))
	ctl, atl := ctl0, atl0
	for i, d := range days {
		if d.TSS < 0 {
			panic(fmt.Sprintf("simulate: negative TSS on %s", d.Date.Format(model.DateLayout)))
		}
		ctl += ac * (d.TSS - ctl)
		atl += aa * (d.TSS - atl)
		out[i] = model.LoadState{
			Date: model.Day(d.Date),
			CTL:  ctl,
			ATL:  atl,
			TSB:  ctl - atl,
		}
	}
	return out
}

// FillDays expands a sparse date->TSS map into a contiguous daily
// series from start to end inclusive, with missing days as rest.
func FillDays(start, end time.Time, loads map[time.Time]float64) []DayLoad {
	start, end = model.Day(start), model.Day(end)
	n := model.DaysBetween(start, end) + 1
	if n <= 0 {
		return nil
	}
	out := make([]DayLoad, 0, n)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, DayLoad{Date: d, TSS: loads[d]})
	}
	return out
}
