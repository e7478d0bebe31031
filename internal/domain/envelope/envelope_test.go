package envelope_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/envelope"
	"github.com/okian/peakline/internal/domain/types"
)

func TestBandFor(t *testing.T) {
	Convey("Given the default calibration", t, func() {
		cal := calibration.Default()

		Convey("When deriving a band for a trained athlete", func() {
			band := envelope.BandFor(60, 10, cal)

			Convey("Then the band should scale the chronic weekly load", func() {
				So(band.SafeLow, ShouldAlmostEqual, 60*7*0.75, 1e-9)
				So(band.SafeHigh, ShouldAlmostEqual, 60*7*1.15, 1e-9)
				So(band.RampLimit, ShouldEqual, 10)
			})
		})

		Convey("When deriving a band for a detrained athlete", func() {
			band := envelope.BandFor(5, 10, cal)

			Convey("Then the maintenance floor should hold the band open", func() {
				So(band.SafeLow, ShouldAlmostEqual, cal.MaintenanceWeekly*0.75, 1e-9)
				So(band.SafeHigh, ShouldAlmostEqual, cal.MaintenanceWeekly*1.15, 1e-9)
			})
		})

		Convey("When no ramp limit is given", func() {
			band := envelope.BandFor(60, 0, cal)

			Convey("Then the calibrated default should apply", func() {
				So(band.RampLimit, ShouldEqual, cal.DefaultRampPct)
			})
		})
	})
}

func TestAssess(t *testing.T) {
	Convey("Given a band for CTL 60", t, func() {
		cal := calibration.Default()
		band := envelope.BandFor(60, 10, cal)

		Convey("When the planned load sits inside the band", func() {
			a := envelope.Assess(60*7, 5, band, cal)

			Convey("Then there should be no penalty", func() {
				So(a.Penalty, ShouldAlmostEqual, 0, 1e-9)
				So(a.Score, ShouldAlmostEqual, 100, 1e-9)
				So(a.State, ShouldEqual, types.EnvelopeInside)
				So(a.LimitingFactors, ShouldBeEmpty)
			})
		})

		Convey("When the planned load slightly exceeds safe high", func() {
			a := envelope.Assess(band.SafeHigh*1.05, 5, band, cal)

			Convey("Then the week should sit at the edge", func() {
				So(a.State, ShouldEqual, types.EnvelopeEdge)
				So(a.LimitingFactors, ShouldContain, string(types.RationaleAboveSafeRange))
			})
		})

		Convey("When the planned load far exceeds safe high", func() {
			a := envelope.Assess(band.SafeHigh*1.4, 5, band, cal)

			Convey("Then the week should be outside", func() {
				So(a.State, ShouldEqual, types.EnvelopeOutside)
			})
		})

		Convey("When the planned load falls below safe low", func() {
			a := envelope.Assess(band.SafeLow*0.5, 0, band, cal)

			Convey("Then the undertraining factor should be flagged", func() {
				So(a.Penalty, ShouldBeGreaterThan, 0)
				So(a.LimitingFactors, ShouldContain, string(types.RationaleBelowMaintenance))
			})
		})

		Convey("When the ramp exceeds its limit", func() {
			a := envelope.Assess(60*7, 18, band, cal)

			Convey("Then the ramp factor should be flagged", func() {
				So(a.LimitingFactors, ShouldContain, string(types.RationaleRampCapped))
			})
		})

		Convey("When load moves progressively further above safe high", func() {
			Convey("Then the envelope score should strictly decrease", func() {
				prev := 101.0
				for _, factor := range []float64{1.01, 1.05, 1.10, 1.20, 1.35, 1.50, 1.70} {
					a := envelope.Assess(band.SafeHigh*factor, 5, band, cal)
					So(a.Score, ShouldBeLessThan, prev)
					prev = a.Score
				}
			})
		})
	})
}

func TestMeanScore(t *testing.T) {
	Convey("Given weekly assessments", t, func() {
		cal := calibration.Default()
		band := envelope.BandFor(60, 10, cal)

		Convey("When no weeks are assessed", func() {
			Convey("Then the mean should be a full score", func() {
				So(envelope.MeanScore(nil), ShouldEqual, 100)
			})
		})

		Convey("When mixing clean and violating weeks", func() {
			clean := envelope.Assess(60*7, 5, band, cal)
			bad := envelope.Assess(band.SafeHigh*1.5, 5, band, cal)
			mean := envelope.MeanScore([]envelope.WeekAssessment{clean, bad})

			Convey("Then the mean should fall between the two", func() {
				So(mean, ShouldBeLessThan, clean.Score)
				So(mean, ShouldBeGreaterThan, bad.Score)
			})
		})
	})
}
