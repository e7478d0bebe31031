// Package model contains domain models passed between engine stages.
package model

import (
	"fmt"
	"sort"
)

// TargetType discriminates the GoalTarget variant.
type TargetType string

const (
	TargetRacePerformance TargetType = "race_performance"
	TargetPaceThreshold   TargetType = "pace_threshold"
	TargetPowerThreshold  TargetType = "power_threshold"
	TargetHRThreshold     TargetType = "hr_threshold"
)

// Valid reports whether t is a known discriminant.
func (t TargetType) Valid() bool {
	switch t {
	case TargetRacePerformance, TargetPaceThreshold, TargetPowerThreshold, TargetHRThreshold:
		return true
	}
	return false
}

// Sport distinguishes run and bike targets for recovery modeling.
type Sport string

const (
	SportRun  Sport = "run"
	SportBike Sport = "bike"
)

// GoalTarget is one measurable objective, a tagged variant over Type.
// Only the fields belonging to the active discriminant are meaningful:
//
//	race_performance: DistanceM, TimeS, Sport
//	pace_threshold:   TargetSpeedMPS, TestDurationS, Sport
//	power_threshold:  Watts, TestDurationS, Sport
//	hr_threshold:     BPM
//
// Units are SI-like as normalized upstream: meters, seconds, m/s, watts, bpm.
type GoalTarget struct {
	Type TargetType `json:"target_type"`

	DistanceM      float64 `json:"distance_m,omitempty"`
	TimeS          float64 `json:"time_s,omitempty"`
	TargetSpeedMPS float64 `json:"target_speed_mps,omitempty"`
	Watts          float64 `json:"watts,omitempty"`
	BPM            float64 `json:"bpm,omitempty"`
	TestDurationS  float64 `json:"test_duration_s,omitempty"`
	Sport          Sport   `json:"sport,omitempty"`
}

// DurationHours returns the expected effort duration for the target.
// Threshold tests use the test duration; HR tests have none and return 0.
func (t GoalTarget) DurationHours() float64 {
	switch t.Type {
	case TargetRacePerformance:
		return t.TimeS / 3600
	case TargetPaceThreshold, TargetPowerThreshold:
		return t.TestDurationS / 3600
	case TargetHRThreshold:
		return 0
	default:
		panic(fmt.Sprintf("model: unknown target type %q", t.Type))
	}
}

// sortKey returns the numeric key used for canonical target ordering
// within a type.
func (t GoalTarget) sortKey() float64 {
	switch t.Type {
	case TargetRacePerformance:
		return t.DistanceM*1e6 + t.TimeS
	case TargetPaceThreshold:
		return t.TargetSpeedMPS*1e6 + t.TestDurationS
	case TargetPowerThreshold:
		return t.Watts*1e6 + t.TestDurationS
	case TargetHRThreshold:
		return t.BPM
	default:
		panic(fmt.Sprintf("model: unknown target type %q", t.Type))
	}
}

// CanonicalizeTargets orders targets by type then key so that identical
// goal definitions always produce identical engine input.
func CanonicalizeTargets(targets []GoalTarget) []GoalTarget {
	out := make([]GoalTarget, len(targets))
	copy(out, targets)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].sortKey() < out[j].sortKey()
	})
	return out
}

func (t GoalTarget) Validate() error {
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown target type %q", ErrContract, t.Type)
	}
	switch t.Type {
	case TargetRacePerformance:
		if t.DistanceM <= 0 || t.TimeS <= 0 {
			return fmt.Errorf("%w: race target requires distance_m and time_s", ErrContract)
		}
	case TargetPaceThreshold:
		if t.TargetSpeedMPS <= 0 || t.TestDurationS <= 0 {
			return fmt.Errorf("%w: pace target requires target_speed_mps and test_duration_s", ErrContract)
		}
	case TargetPowerThreshold:
		if t.Watts <= 0 || t.TestDurationS <= 0 {
			return fmt.Errorf("%w: power target requires watts and test_duration_s", ErrContract)
		}
	case TargetHRThreshold:
		if t.BPM <= 0 {
			return fmt.Errorf("%w: hr target requires bpm", ErrContract)
		}
	}
	return nil
}
