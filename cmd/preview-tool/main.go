package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/peakline/internal/previewtool"
)

// Default configuration constants.
const (
	defaultNumPreviews = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numPreviews = flag.Int("previews", defaultNumPreviews, "Number of preview requests to generate and submit")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile     = flag.String("log", "", "Log file for run output (default: preview_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		previewtool.ShowHelp()
		return
	}

	// Setup logging
	if err := previewtool.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create run configuration
	config := &previewtool.Config{
		BaseURL:     *baseURL,
		NumPreviews: *numPreviews,
		Workers:     *workers,
		Timeout:     *timeout,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the exercise
	if err := previewtool.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Preview exercise failed: " + err.Error() + "\n")
		return
	}
}
