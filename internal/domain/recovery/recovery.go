// Package recovery models event-type-specific recovery demands and the
// time-decayed fatigue they leave behind.
package recovery

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/peakline/internal/domain/calibration"
	"github.com/okian/peakline/internal/domain/model"
)

// Profile is the derived recovery shape of one goal target. It is
// recomputed per request from the target; it is never persisted or
// cached across differing inputs.
type Profile struct {
	RecoveryDaysFull       int     `json:"recovery_days_full"`
	RecoveryDaysFunctional int     `json:"recovery_days_functional"`
	FatigueIntensity       float64 `json:"fatigue_intensity"` // 0..100
	ATLSpikeFactor         float64 `json:"atl_spike_factor"`  // <= 2.5
}

// ComputeProfile derives the recovery profile for a target given the
// projected state going into the event. Identical input yields
// identical output, byte for byte.
func ComputeProfile(target model.GoalTarget, projectedCTL, projectedATL float64, cal calibration.Calibration) Profile {
	switch target.Type {
	case model.TargetRacePerformance:
		return raceProfile(target, cal)
	case model.TargetPaceThreshold, model.TargetPowerThreshold:
		return thresholdProfile(target, cal)
	case model.TargetHRThreshold:
		return Profile{
			RecoveryDaysFull:       3,
			RecoveryDaysFunctional: 1,
			FatigueIntensity:       cal.HRTestIntensity,
			ATLSpikeFactor:         cal.ATLSpikeBase,
		}
	default:
		panic(fmt.Sprintf("recovery: unknown target type %q", target.Type))
	}
}

func raceProfile(target model.GoalTarget, cal calibration.Calibration) Profile {
	hours := target.DurationHours()
	baseDays := calibration.Clamp(hours*cal.RecoveryDaysPerHour, cal.RecoveryBaseDaysMin, cal.RecoveryBaseDaysMax)

	intensity := bucketIntensity(hours, cal)
	if target.Sport == model.SportBike {
		intensity *= cal.BikeIntensityFactor
	}

	full := math.Round(baseDays * (cal.FullRecoveryBase + intensity/100*cal.FullRecoverySlope))
	functional := math.Round(baseDays * cal.FunctionalFraction)

	return Profile{
		RecoveryDaysFull:       int(full),
		RecoveryDaysFunctional: int(functional),
		FatigueIntensity:       intensity,
		ATLSpikeFactor:         spikeFactor(hours, cal),
	}
}

func thresholdProfile(target model.GoalTarget, cal calibration.Calibration) Profile {
	full := calibration.Clamp(3+math.Round(target.TestDurationS/1800), 3, 5)
	return Profile{
		RecoveryDaysFull:       int(full),
		RecoveryDaysFunctional: int(math.Round(full * cal.FunctionalFraction)),
		FatigueIntensity:       cal.ThresholdIntensity,
		ATLSpikeFactor:         spikeFactor(target.DurationHours(), cal),
	}
}

// bucketIntensity maps effort duration to a fatigue intensity class.
func bucketIntensity(hours float64, cal calibration.Calibration) float64 {
	switch {
	case hours <= cal.BucketShortRaceHours:
		return cal.IntensityShortRace
	case hours <= cal.BucketHalfClassHours:
		return cal.IntensityHalfClass
	case hours <= cal.BucketMarathonHours:
		return cal.IntensityMarathon
	case hours <= cal.BucketUltraHours:
		return cal.IntensityUltra
	default:
		return cal.IntensityHundredMile
	}
}

// spikeFactor grows monotonically with effort duration, hard-capped.
func spikeFactor(hours float64, cal calibration.Calibration) float64 {
	return math.Min(cal.ATLSpikeCap, cal.ATLSpikeBase+cal.ATLSpikePerHour*hours)
}

// GoalProfile returns the dominant recovery profile of a goal: the
// profile of whichever target demands the longest full recovery.
// Targets are already in canonical order, so ties resolve
// deterministically.
func GoalProfile(goal model.Goal, projectedCTL, projectedATL float64, cal calibration.Calibration) Profile {
	if len(goal.Targets) == 0 {
		panic("recovery: goal has no targets")
	}
	best := ComputeProfile(goal.Targets[0], projectedCTL, projectedATL, cal)
	for _, t := range goal.Targets[1:] {
		p := ComputeProfile(t, projectedCTL, projectedATL, cal)
		if p.RecoveryDaysFull > best.RecoveryDaysFull {
			best = p
		}
	}
	return best
}

// FatiguePenalty computes the readiness deduction an event leaves on a
// later day. It is zero before and on the event date, decays with a
// half-life of a third of the full recovery window, and grows with
// acute overload at a fixed elapsed time.
func FatiguePenalty(date time.Time, point model.LoadState, eventDate time.Time, profile Profile, cal calibration.Calibration) float64 {
	daysAfter := model.DaysBetween(eventDate, date)
	if daysAfter <= 0 {
		return 0
	}

	halfLife := float64(profile.RecoveryDaysFull) / cal.HalfLifeDivisor
	if halfLife <= 0 {
		return 0
	}
	decay := math.Pow(0.5, float64(daysAfter)/halfLife)

	// Division by zero chronic load yields no overload rather than NaN.
	var overload float64
	if point.CTL > 0 {
		overload = math.Max(0, (point.ATL/point.CTL-1)*cal.OverloadScale)
	}

	penalty := (profile.FatigueIntensity*cal.PenaltyIntensityShare + overload) * decay
	return math.Min(cal.PenaltyCap, penalty)
}
