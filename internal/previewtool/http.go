package previewtool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/peakline/internal/domain/model"
	"github.com/okian/peakline/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(url string) (*http.Response, error) {
	return c.client.Get(url)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// previewOutcome is one submission's contribution to the run statistics.
type previewOutcome struct {
	result           string
	infeasibleGoals  int
	conflictedGoals  int
	readinessSum     float64
	readinessSamples int
}

// submitPreviews submits preview requests concurrently using a worker pool
func submitPreviews(ctx context.Context, config *Config, plans []model.PreviewRequest, stats *Stats) error {
	log.Printf("Submitting %d previews with %d workers...", len(plans), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/projections/preview"

	// Counters for statistics
	var (
		successful int64
		rejected   int64
		failed     int64
		submitted  int64
	)

	// Goal-level aggregates are merged under a mutex
	var (
		mu               sync.Mutex
		infeasibleGoals  int
		conflictedGoals  int
		readinessSum     float64
		readinessSamples int
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	planChan := make(chan model.PreviewRequest, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for plan := range planChan {
				select {
				case <-ctx.Done():
					return
				default:
					outcome := submitSinglePreview(client, url, plan)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch outcome.result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "rejected":
						atomic.AddInt64(&rejected, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					mu.Lock()
					infeasibleGoals += outcome.infeasibleGoals
					conflictedGoals += outcome.conflictedGoals
					readinessSum += outcome.readinessSum
					readinessSamples += outcome.readinessSamples
					mu.Unlock()

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						rej := atomic.LoadInt64(&rejected)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("Progress: %d/%d submitted (success: %d, rejected: %d, failed: %d)",
								total, len(plans), succ, rej, fail)
						} else {
							fmt.Printf("\rSubmitted: %d/%d (success: %d, rejected: %d, failed: %d)",
								total, len(plans), succ, rej, fail)
						}
					}
				}
			}
		}()
	}

	// Send plans to workers
	go func() {
		defer close(planChan)
		for _, plan := range plans {
			select {
			case <-ctx.Done():
				return
			case planChan <- plan:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.PreviewsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.PreviewsSuccessful = int(atomic.LoadInt64(&successful))
	stats.PreviewsRejected = int(atomic.LoadInt64(&rejected))
	stats.PreviewsFailed = int(atomic.LoadInt64(&failed))
	stats.InfeasibleGoals = infeasibleGoals
	stats.ConflictedGoals = conflictedGoals
	stats.GoalReadinessSum = readinessSum
	stats.GoalReadinessCount = readinessSamples

	log.Printf(`Preview submission completed:
   Successful: %d
   Rejected: %d
   Failed: %d
`, stats.PreviewsSuccessful, stats.PreviewsRejected, stats.PreviewsFailed)

	return nil
}

// submitSinglePreview submits one preview request and extracts the
// goal-level aggregates from the returned chart.
func submitSinglePreview(client *HTTPClient, url string, plan model.PreviewRequest) previewOutcome {
	resp, err := client.Post(url, plan)
	if err != nil {
		return previewOutcome{result: "failed"}
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return previewOutcome{result: "failed"}
	}

	switch resp.StatusCode {
	case StatusOK:
		var chart model.ProjectionChart
		if err := unmarshalJSON(body, &chart); err != nil {
			return previewOutcome{result: "failed"}
		}
		out := previewOutcome{
			result:          "success",
			infeasibleGoals: chart.ConstraintSummary.InfeasibleGoals,
			conflictedGoals: chart.ConstraintSummary.ConflictedGoals,
		}
		for _, marker := range chart.GoalMarkers {
			out.readinessSum += marker.ReadinessScore
			out.readinessSamples++
		}
		return out
	case StatusBadRequest:
		return previewOutcome{result: "rejected"}
	default:
		return previewOutcome{result: "failed"}
	}
}

// fetchServiceStats retrieves and logs the service's /stats snapshot.
func fetchServiceStats(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(config.BaseURL + "/stats")
	if err != nil {
		return fmt.Errorf("failed to fetch service stats: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read service stats: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service stats request failed with status: %d", resp.StatusCode)
	}

	var snapshot map[string]interface{}
	if err := unmarshalJSON(body, &snapshot); err != nil {
		return fmt.Errorf("failed to parse service stats: %w", err)
	}

	logger.Get().Info(ctx, "service stats", logger.Any("stats", snapshot))
	return nil
}
