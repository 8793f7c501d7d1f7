package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ice2loki/pkg/iceportal"
	"ice2loki/pkg/loki"
	"ice2loki/pkg/metrics"
	"ice2loki/pkg/parser"
	"ice2loki/pkg/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Pipeline struct {
	config         Config
	portalClient   *iceportal.Client
	lokiClient     *loki.Client
	parser         *parser.Parser
	imageGenerator *parser.TrainImageGenerator
	tracer         trace.Tracer
}

type Config struct {
	DryRun       bool
	PortalURL    string
	UserAgent    string
	LokiURL      string
	LokiUser     string
	LokiPassword string
	Interval     time.Duration
}

func New(config Config) (*Pipeline, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("polling interval must be positive")
	}

	if !config.DryRun && config.LokiURL == "" {
		return nil, fmt.Errorf("loki URL is required outside dry-run mode")
	}

	pipeline := &Pipeline{
		config:         config,
		portalClient:   iceportal.NewClient(config.PortalURL, config.UserAgent),
		parser:         parser.NewParser(),
		imageGenerator: parser.NewTrainImageGenerator(),
		tracer:         otel.Tracer("pipeline"),
	}

	// Only create Loki client if not in dry run mode
	if !config.DryRun {
		pipeline.lokiClient = loki.NewClient(config.LokiURL, config.LokiUser, config.LokiPassword)
	}

	return pipeline, nil
}

func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	log.Printf("Pipeline started - polling every %v", p.config.Interval)

	// Process immediately on start
	if err := p.processOnce(ctx); err != nil {
		log.Printf("Error in initial processing: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("Pipeline stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := p.processOnce(ctx); err != nil {
				log.Printf("Error processing: %v", err)
			}
		}
	}
}

func (p *Pipeline) processOnce(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.process_once",
		trace.WithAttributes(
			attribute.Bool("dry_run", p.config.DryRun),
		),
	)
	defer span.End()

	start := time.Now()

	if metrics.IsEnabled() {
		metrics.PipelineCyclesTotal.Add(ctx, 1)
	}

	// Fetch both documents concurrently
	type fetchResult struct {
		endpoint string
		doc      *iceportal.Document
		err      error
	}

	results := make(chan fetchResult, 2)

	go func() {
		doc, err := p.portalClient.FetchStatus(ctx)
		results <- fetchResult{endpoint: "status", doc: doc, err: err}
	}()
	go func() {
		doc, err := p.portalClient.FetchTrip(ctx)
		results <- fetchResult{endpoint: "trip", doc: doc, err: err}
	}()

	var statusDoc, tripDoc *iceportal.Document
	var fetchErr error
	for i := 0; i < 2; i++ {
		result := <-results
		if result.err != nil {
			span.RecordError(result.err)
			p.recordError(ctx, "fetch")
			fetchErr = fmt.Errorf("failed to fetch %s document: %w", result.endpoint, result.err)
			continue
		}
		if result.endpoint == "status" {
			statusDoc = result.doc
		} else {
			tripDoc = result.doc
		}
	}
	if fetchErr != nil {
		return fetchErr
	}

	parsedStatus, err := p.parser.ParseStatus(ctx, []byte(statusDoc.JSON), statusDoc.Timestamp)
	if err != nil {
		span.RecordError(err)
		p.recordError(ctx, "decode")
		return fmt.Errorf("failed to decode status document: %w", err)
	}

	parsedTrip, err := p.parser.ParseTrip(ctx, []byte(tripDoc.JSON), tripDoc.Timestamp)
	if err != nil {
		span.RecordError(err)
		p.recordError(ctx, "decode")
		return fmt.Errorf("failed to decode trip document: %w", err)
	}

	snapshot, err := p.buildSnapshot(parsedStatus, parsedTrip)
	if err != nil {
		span.RecordError(err)
		p.recordError(ctx, "assemble")
		return fmt.Errorf("failed to assemble snapshot: %w", err)
	}

	span.SetAttributes(
		attribute.String("train_identifier", snapshot.TrainIdentifier),
		attribute.Int("stops_processed", len(snapshot.Stops)),
		attribute.String("processing_duration", time.Since(start).String()),
	)

	if p.config.DryRun {
		if err := p.handleDryRun(ctx, snapshot); err != nil {
			return err
		}
	} else {
		if err := p.sendToLoki(ctx, snapshot); err != nil {
			return err
		}
	}

	if metrics.IsEnabled() {
		metrics.PipelineCycleDuration.Record(ctx, time.Since(start).Seconds())
		metrics.PipelineStopsProcessed.Add(ctx, int64(len(snapshot.Stops)))
		metrics.RecordLastSuccessTimestamp()
	}

	return nil
}

func (p *Pipeline) recordError(ctx context.Context, stage string) {
	if metrics.IsEnabled() {
		metrics.PipelineErrorsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("stage", stage)))
	}
}

// buildSnapshot joins the status and trip into the record shape the
// downstream consumers take. Delay strings that fail to parse surface as
// errors rather than being shipped as zero.
func (p *Pipeline) buildSnapshot(status *parser.ParsedStatus, trip *parser.ParsedTrip) (*types.TripSnapshot, error) {
	t := trip.Trip
	s := status.Status

	snapshot := &types.TripSnapshot{
		TrainIdentifier:          t.TrainIdentifier(),
		TripDate:                 t.TripDate,
		Timestamp:                status.Timestamp,
		Speed:                    s.Speed,
		Latitude:                 s.Latitude,
		Longitude:                s.Longitude,
		StatusLine:               s.String(),
		TotalDistanceKm:          t.TotalDistanceKm(),
		DistanceToPreviousStopKm: t.DistanceToPreviousStop(),
		FinalStationName:         t.StopInfo.FinalStationName,
	}

	if km, ok := t.DistanceToNextStop(); ok {
		snapshot.DistanceToNextStopKm = &km
	}
	if prev := t.PreviousStop(); prev != nil {
		snapshot.PreviousStopName = prev.Station.Name
	}

	// The marker badge shows the arrival delay at the next stop, when known.
	var nextDelay time.Duration
	if next := t.NextStop(); next != nil {
		snapshot.NextStopName = next.Station.Name
		delay, err := next.Timetable.ArrivalDelayDuration()
		if err != nil {
			return nil, err
		}
		nextDelay = delay
	}
	snapshot.TrainImage = p.imageGenerator.GenerateTrainImage(t.TrainIdentifier(), nextDelay)

	for i := range t.Stops {
		record, err := buildStopRecord(&t.Stops[i])
		if err != nil {
			return nil, fmt.Errorf("stop %s: %w", t.Stops[i].Station.EvaNr, err)
		}
		snapshot.Stops = append(snapshot.Stops, record)
	}

	return snapshot, nil
}

func buildStopRecord(stop *types.Stop) (types.StopRecord, error) {
	arrivalDelay, err := stop.Timetable.ArrivalDelayDuration()
	if err != nil {
		return types.StopRecord{}, err
	}
	departureDelay, err := stop.Timetable.DepartureDelayDuration()
	if err != nil {
		return types.StopRecord{}, err
	}

	record := types.StopRecord{
		EvaNr:                  stop.Station.EvaNr,
		Name:                   stop.Station.Name,
		Latitude:               stop.Station.Geocoordinates.Latitude,
		Longitude:              stop.Station.Geocoordinates.Longitude,
		ArrivalDelayMinutes:    arrivalDelay.Minutes(),
		DepartureDelayMinutes:  departureDelay.Minutes(),
		ScheduledTrack:         stop.Track.Scheduled,
		ActualTrack:            stop.Track.Actual,
		Passed:                 stop.Info.Passed,
		DistanceFromPreviousKm: stop.Info.DistanceToPreviousStop(),
		DistanceFromOriginKm:   stop.Info.DistanceToOrigin(),
	}

	if ts, ok := stop.Timetable.ScheduledArrival(); ok {
		record.ScheduledArrival = ts.Format("2006-01-02 15:04:05")
	}
	if ts, ok := stop.Timetable.ActualArrival(); ok {
		record.ActualArrival = ts.Format("2006-01-02 15:04:05")
	}
	if ts, ok := stop.Timetable.ScheduledDeparture(); ok {
		record.ScheduledDeparture = ts.Format("2006-01-02 15:04:05")
	}
	if ts, ok := stop.Timetable.ActualDeparture(); ok {
		record.ActualDeparture = ts.Format("2006-01-02 15:04:05")
	}

	for _, reason := range stop.DelayReasons {
		record.DelayReasons = append(record.DelayReasons, fmt.Sprintf("%s: %s", reason.Code, reason.Text))
	}

	return record, nil
}

func (p *Pipeline) handleDryRun(ctx context.Context, snapshot *types.TripSnapshot) error {
	_, span := p.tracer.Start(ctx, "pipeline.dry_run")
	defer span.End()

	fmt.Printf("\n=== DRY RUN - %s on %s ===\n", snapshot.TrainIdentifier, snapshot.TripDate)
	fmt.Printf("%s\n", snapshot.StatusLine)
	fmt.Printf("Route: %.1f km total, %.1f km since last stop\n",
		snapshot.TotalDistanceKm, snapshot.DistanceToPreviousStopKm)
	if snapshot.DistanceToNextStopKm != nil {
		fmt.Printf("Next stop: %s in %.1f km\n", snapshot.NextStopName, *snapshot.DistanceToNextStopKm)
	}
	fmt.Printf("Stops: %d\n", len(snapshot.Stops))

	fmt.Println("\nIndividual Log Lines (as sent to Loki):")
	fmt.Println("----------------------------------------")

	for i, stop := range snapshot.Stops {
		line, err := json.Marshal(stop)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to marshal stop record for dry run: %w", err)
		}
		fmt.Printf("Log Line %d: %s\n", i+1, string(line))
	}

	fmt.Print("=== END DRY RUN ===\n\n")

	span.SetAttributes(
		attribute.Int("stops_printed", len(snapshot.Stops)),
	)

	return nil
}

func (p *Pipeline) sendToLoki(ctx context.Context, snapshot *types.TripSnapshot) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.send_to_loki")
	defer span.End()

	if p.lokiClient == nil {
		err := fmt.Errorf("loki client not initialized")
		span.RecordError(err)
		return err
	}

	if err := p.lokiClient.SendTripSnapshot(ctx, snapshot); err != nil {
		span.RecordError(err)
		p.recordError(ctx, "loki")
		return fmt.Errorf("failed to send data to Loki: %w", err)
	}

	log.Printf("Successfully sent %d stop log lines to Loki for %s",
		len(snapshot.Stops), snapshot.TrainIdentifier)

	span.SetAttributes(
		attribute.Int("stops_sent", len(snapshot.Stops)),
	)

	return nil
}
