package previewtool

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/internal/domain/types"
	"github.com/okian/peakline/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	targetTypeDivisor  = 5
	goalCountDivisor   = 3
)

// Constants for generated plan ranges.
const (
	minGoalLeadWeeks   = 6
	goalLeadWeekRange  = 18
	minStartingCTL     = 25.0
	startingCTLRange   = 45.0
	atlRatioMin        = 0.8
	atlRatioRange      = 0.4
	marathonTimeMinS   = 3 * 3600.0
	marathonTimeRangeS = 2 * 3600.0
	halfTimeMinS       = 1.4 * 3600.0
	halfTimeRangeS     = 0.8 * 3600.0
	fiveKTimeMinS      = 17 * 60.0
	fiveKTimeRangeS    = 8 * 60.0
	ftpWattsMin        = 200.0
	ftpWattsRange      = 120.0
	hrBPMMin           = 165.0
	hrBPMRange         = 20.0
)

// Constants for target type cases.
const (
	caseMarathon = 0
	caseHalf     = 1
	caseFiveK    = 2
	caseFTPTest  = 3
	caseHRTest   = 4
)

var profiles = []types.OptimizationProfile{
	types.ProfileSustainable,
	types.ProfileBalanced,
	types.ProfileOutcomeFirst,
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, n) using crypto/rand.
func getRandomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generatePlans creates the specified number of randomized preview requests.
func generatePlans(ctx context.Context, config *Config, stats *Stats) ([]model.PreviewRequest, error) {
	logger.Get().Info(ctx, "generating preview requests", logger.Int("numPreviews", config.NumPreviews))

	plans := make([]model.PreviewRequest, config.NumPreviews)

	// Generate plans concurrently
	type planResult struct {
		index int
		plan  model.PreviewRequest
		err   error
	}

	resultChan := make(chan planResult, config.NumPreviews)

	// Use worker pool for plan generation
	workerCount := minInt(config.Workers, config.NumPreviews)
	plansPerWorker := config.NumPreviews / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * plansPerWorker
		end := start + plansPerWorker
		if worker == workerCount-1 {
			end = config.NumPreviews // Last worker gets remaining plans
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- planResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- planResult{index: i, plan: generateSinglePlan(i)}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumPreviews; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during plan generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate plan %d: %w", result.index, result.err)
			}
			plans[result.index] = result.plan
		}
	}

	stats.PreviewsGenerated = len(plans)
	logger.Get().Info(ctx, "generated preview requests successfully", logger.Int("count", len(plans)))

	return plans, nil
}

// generateSinglePlan creates one randomized preview request.
func generateSinglePlan(index int) model.PreviewRequest {
	start := model.Day(time.Now().UTC())

	numGoals := int(getRandomInt(goalCountDivisor)) + 1
	goals := make([]model.Goal, 0, numGoals)
	for g := 0; g < numGoals; g++ {
		leadWeeks := minGoalLeadWeeks + int(getRandomInt(goalLeadWeekRange))
		goals = append(goals, model.Goal{
			TargetDate: start.AddDate(0, 0, leadWeeks*7),
			Targets:    []model.GoalTarget{generateTarget()},
			Priority:   g + 1,
			Label:      fmt.Sprintf("generated goal %d.%d", index, g),
		})
	}

	ctl := minStartingCTL + getRandomFloat()*startingCTLRange
	atl := ctl * (atlRatioMin + getRandomFloat()*atlRatioRange)

	return model.PreviewRequest{
		Plan: model.MinimalPlanDefinition{
			PlanStartDate: start,
			Goals:         goals,
		},
		Config: model.CreationConfig{
			OptimizationProfile: profiles[index%len(profiles)],
			Constraints: model.Constraints{
				MaxWeeklyTSSRampPct:     8 + getRandomFloat()*4,
				MaxCTLRampPerWeek:       4 + getRandomFloat()*2,
				MinRecoveryDaysPerCycle: 1 + int(getRandomInt(2)),
				PostGoalRecoveryDays:    3 + int(getRandomInt(5)),
			},
		},
		Athlete: model.AthleteSnapshot{
			StartingCTL:      ctl,
			StartingATL:      atl,
			LastActivityDate: start.AddDate(0, 0, -1),
		},
		AsOfDate: start,
	}
}

// generateTarget picks one of the supported target variants at random.
func generateTarget() model.GoalTarget {
	switch getRandomInt(targetTypeDivisor) {
	case caseMarathon:
		return model.GoalTarget{
			Type:      model.TargetRacePerformance,
			DistanceM: 42195,
			TimeS:     marathonTimeMinS + getRandomFloat()*marathonTimeRangeS,
			Sport:     model.SportRun,
		}
	case caseHalf:
		return model.GoalTarget{
			Type:      model.TargetRacePerformance,
			DistanceM: 21098,
			TimeS:     halfTimeMinS + getRandomFloat()*halfTimeRangeS,
			Sport:     model.SportRun,
		}
	case caseFiveK:
		return model.GoalTarget{
			Type:      model.TargetRacePerformance,
			DistanceM: 5000,
			TimeS:     fiveKTimeMinS + getRandomFloat()*fiveKTimeRangeS,
			Sport:     model.SportRun,
		}
	case caseFTPTest:
		return model.GoalTarget{
			Type:          model.TargetPowerThreshold,
			Watts:         ftpWattsMin + getRandomFloat()*ftpWattsRange,
			TestDurationS: 1200,
			Sport:         model.SportBike,
		}
	default:
		return model.GoalTarget{
			Type: model.TargetHRThreshold,
			BPM:  hrBPMMin + getRandomFloat()*hrBPMRange,
		}
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
