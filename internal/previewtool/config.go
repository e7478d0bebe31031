package previewtool

import (
	"time"
)

// Config holds configuration for the preview exercise run
type Config struct {
	BaseURL     string        // Base URL of the service
	NumPreviews int           // Number of preview requests to generate
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	LogFile     string        // Log file for run output
	Verbose     bool          // Enable verbose logging
}

// Stats holds run statistics
type Stats struct {
	PreviewsGenerated  int
	PreviewsSubmitted  int
	PreviewsSuccessful int
	PreviewsRejected   int
	PreviewsFailed     int
	InfeasibleGoals    int
	ConflictedGoals    int
	GoalReadinessSum   float64
	GoalReadinessCount int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// MeanGoalReadiness returns the mean readiness across all goal markers
// seen in successful previews.
func (s *Stats) MeanGoalReadiness() float64 {
	if s.GoalReadinessCount == 0 {
		return 0
	}
	return s.GoalReadinessSum / float64(s.GoalReadinessCount)
}
