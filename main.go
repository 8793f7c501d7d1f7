package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ice2loki/pkg/logging"
	"ice2loki/pkg/metrics"
	"ice2loki/pkg/pipeline"
	"ice2loki/pkg/profiling"
	"ice2loki/pkg/tracing"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	logging.InitLogging()

	// Command line flags
	var (
		dryRun       = flag.Bool("dry-run", false, "Print data to stdout instead of sending to Loki")
		portalURL    = flag.String("portal-url", getEnv("ICE_PORTAL_URL", ""), "Onboard portal base URL (default: the train's portal)")
		userAgent    = flag.String("user-agent", getEnv("ICE_USER_AGENT", ""), "User-Agent header sent to the portal")
		lokiURL      = flag.String("loki-url", getEnv("ICE_LOKI_URL", "http://localhost:3100"), "Grafana Loki URL")
		lokiUser     = flag.String("loki-user", getEnv("ICE_LOKI_USER", ""), "Loki username (for Grafana Cloud authentication)")
		lokiPassword = flag.String("loki-password", getEnv("ICE_LOKI_PASSWORD", ""), "Loki password/token (for Grafana Cloud authentication)")
		interval     = flag.String("interval", getEnv("ICE_INTERVAL", "30s"), "Polling interval")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "ICE Portal to Loki Train Telemetry Pipeline\n\n")
		fmt.Fprintf(os.Stderr, "Fetches live telemetry from the train's onboard portal API -\n")
		fmt.Fprintf(os.Stderr, "speed, position and trip/itinerary data - and sends it to\n")
		fmt.Fprintf(os.Stderr, "Grafana Loki for log aggregation and analysis.\n\n")
		fmt.Fprintf(os.Stderr, "Only works while on board; the portal is reachable from the train WiFi.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  ICE_PORTAL_URL    - Onboard portal base URL\n")
		fmt.Fprintf(os.Stderr, "  ICE_USER_AGENT    - User-Agent for portal requests\n")
		fmt.Fprintf(os.Stderr, "  ICE_LOKI_URL      - Loki URL (default: http://localhost:3100)\n")
		fmt.Fprintf(os.Stderr, "  ICE_LOKI_USER     - Loki username (for Grafana Cloud)\n")
		fmt.Fprintf(os.Stderr, "  ICE_LOKI_PASSWORD - Loki password/token (for Grafana Cloud)\n")
		fmt.Fprintf(os.Stderr, "  ICE_INTERVAL      - Polling interval (default: 30s)\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Dry run mode (safe for testing)\n")
		fmt.Fprintf(os.Stderr, "  %s --dry-run\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Production mode with OSS Loki\n")
		fmt.Fprintf(os.Stderr, "  %s --loki-url=http://localhost:3100\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Production mode with Grafana Cloud\n")
		fmt.Fprintf(os.Stderr, "  %s --loki-url=https://logs-prod-us-central1.grafana.net \\\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "    --loki-user=123456 --loki-password=your_token\n\n")
	}

	flag.Parse()

	// Parse interval
	intervalDuration, err := time.ParseDuration(*interval)
	if err != nil {
		log.Fatalf("Invalid interval format: %v", err)
	}

	// Initialize tracing
	shutdownTracing, err := tracing.InitTracing()
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer shutdownTracing()

	// Initialize metrics
	shutdownMetrics, err := metrics.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}
	defer shutdownMetrics()

	// Initialize profiling
	shutdownProfiling, err := profiling.InitProfiling()
	if err != nil {
		log.Fatalf("Failed to initialize profiling: %v", err)
	}
	defer shutdownProfiling()

	// Create pipeline configuration
	config := pipeline.Config{
		DryRun:       *dryRun,
		PortalURL:    *portalURL,
		UserAgent:    *userAgent,
		LokiURL:      *lokiURL,
		LokiUser:     *lokiUser,
		LokiPassword: *lokiPassword,
		Interval:     intervalDuration,
	}

	// Create pipeline
	pipelineInstance, err := pipeline.New(config)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	// Print startup information
	if *dryRun {
		log.Printf("Starting ICE portal to Loki pipeline in DRY RUN mode")
		log.Printf("Data will be printed to stdout, not sent to Loki")
	} else {
		log.Printf("Starting ICE portal to Loki pipeline in PRODUCTION mode")
		log.Printf("Data will be sent to Loki at: %s", *lokiURL)
	}
	log.Printf("Polling interval: %v", intervalDuration)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start pipeline in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- pipelineInstance.Run(ctx)
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
		// Wait a bit for graceful shutdown
		select {
		case <-time.After(5 * time.Second):
			log.Println("Shutdown timeout, forcing exit")
		case <-errChan:
			log.Println("Pipeline stopped")
		}
	case err := <-errChan:
		if err != nil && err != context.Canceled {
			log.Fatalf("Pipeline error: %v", err)
		}
		log.Println("Pipeline stopped")
	}

	log.Println("ICE portal to Loki pipeline shutdown complete")
}

// getEnv returns the value of an environment variable or a default value if not set
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
