package metrics

import (
	"go.opentelemetry.io/otel/metric"
)

// Pipeline Metrics
var (
	// PipelineCyclesTotal counts pipeline processing cycles
	PipelineCyclesTotal metric.Int64Counter

	// PipelineCycleDuration measures the duration of pipeline cycles
	PipelineCycleDuration metric.Float64Histogram

	// PipelineStopsProcessed counts stops shipped per cycle
	PipelineStopsProcessed metric.Int64Counter

	// PipelineErrorsTotal counts errors by stage
	PipelineErrorsTotal metric.Int64Counter
)

// Portal API Metrics
var (
	// PortalRequestsTotal counts portal API requests by path and status
	PortalRequestsTotal metric.Int64Counter
)

// Parser Metrics
var (
	// DecodeDuration measures JSON decode duration per document
	DecodeDuration metric.Float64Histogram
)

// Loki Metrics
var (
	// LokiSendDuration measures the duration of Loki push operations
	LokiSendDuration metric.Float64Histogram

	// LokiSendTotal counts total Loki sends by status
	LokiSendTotal metric.Int64Counter
)

// initializeInstruments creates all metric instruments
func initializeInstruments() error {
	var err error

	// Pipeline Metrics
	PipelineCyclesTotal, err = Meter.Int64Counter(
		"pipeline.cycles.total",
		metric.WithDescription("Total number of pipeline processing cycles"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return err
	}

	PipelineCycleDuration, err = Meter.Float64Histogram(
		"pipeline.cycle.duration",
		metric.WithDescription("Duration of pipeline processing cycles"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return err
	}

	PipelineStopsProcessed, err = Meter.Int64Counter(
		"pipeline.stops.processed",
		metric.WithDescription("Number of stops processed"),
		metric.WithUnit("{stop}"),
	)
	if err != nil {
		return err
	}

	PipelineErrorsTotal, err = Meter.Int64Counter(
		"pipeline.errors.total",
		metric.WithDescription("Total errors by stage"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	// Portal API Metrics
	PortalRequestsTotal, err = Meter.Int64Counter(
		"portal.api.requests.total",
		metric.WithDescription("Total onboard portal API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	// Parser Metrics
	DecodeDuration, err = Meter.Float64Histogram(
		"parser.decode.duration",
		metric.WithDescription("Duration of JSON decode operations"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5),
	)
	if err != nil {
		return err
	}

	// Loki Metrics
	LokiSendDuration, err = Meter.Float64Histogram(
		"loki.send.duration",
		metric.WithDescription("Duration of Loki push operations"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return err
	}

	LokiSendTotal, err = Meter.Int64Counter(
		"loki.send.total",
		metric.WithDescription("Total Loki sends by status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	return nil
}
