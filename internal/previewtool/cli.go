package previewtool

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/peakline/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "preview_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the preview exercise tool.
func ShowHelp() {
	os.Stdout.WriteString(`Peakline Preview Exercise Tool
==============================

A concurrent tool for exercising the Peakline projection preview service
with randomized training plans.

Usage:
  go run cmd/preview-tool/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -previews int
        Number of preview requests to generate and submit (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for run output (default: preview_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Exercise with default settings
  go run cmd/preview-tool/main.go

  # Exercise with custom parameters
  go run cmd/preview-tool/main.go -previews 5000 -workers 16 -url http://localhost:8080

  # Exercise with verbose output
  go run cmd/preview-tool/main.go -verbose -previews 1000
`)
}
