package previewtool

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/peakline/pkg/logger"
)

// Run executes the complete preview exercise.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting peakline preview exercise",
		logger.String("baseURL", config.BaseURL),
		logger.Int("previews", config.NumPreviews),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate preview requests
	plans, err := generatePlans(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("plan generation failed: %w", err)
	}

	// Step 3: Submit previews concurrently
	if err := submitPreviews(ctx, config, plans, stats); err != nil {
		return fmt.Errorf("preview submission failed: %w", err)
	}

	// Step 4: Pull the service-side counters for comparison
	if err := fetchServiceStats(ctx, config); err != nil {
		logger.Get().Warn(ctx, "failed to fetch service stats", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "preview exercise completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the endpoint returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, previewsPerSecond float64

	if stats.PreviewsSubmitted > 0 {
		successRate = float64(stats.PreviewsSuccessful) / float64(stats.PreviewsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		previewsPerSecond = float64(stats.PreviewsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("previewsGenerated", stats.PreviewsGenerated),
		logger.Int("previewsSubmitted", stats.PreviewsSubmitted),
		logger.Int("previewsSuccessful", stats.PreviewsSuccessful),
		logger.Int("previewsRejected", stats.PreviewsRejected),
		logger.Int("previewsFailed", stats.PreviewsFailed),
		logger.Int("infeasibleGoals", stats.InfeasibleGoals),
		logger.Int("conflictedGoals", stats.ConflictedGoals),
		logger.Float64("meanGoalReadiness", stats.MeanGoalReadiness()),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("previewsPerSecond", previewsPerSecond))
}
