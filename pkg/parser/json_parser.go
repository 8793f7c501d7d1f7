package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ice2loki/pkg/metrics"
	appotel "ice2loki/pkg/otel"
	"ice2loki/pkg/types"

	"github.com/clbanning/mxj/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Parser decodes the portal's JSON documents into the typed model. Decode and
// shape errors surface to the caller; nothing is silently defaulted.
type Parser struct {
	tracer trace.Tracer
}

// ParsedStatus is a decoded status document with the raw map kept alongside
// for passthrough logging.
type ParsedStatus struct {
	Status    *types.Status
	Timestamp string
	RawData   map[string]interface{} `json:"raw_data,omitempty"`
}

// ParsedTrip is a decoded trip document with the raw map kept alongside for
// passthrough logging.
type ParsedTrip struct {
	Trip      *types.Trip
	Timestamp string
	RawData   map[string]interface{} `json:"raw_data,omitempty"`
}

func NewParser() *Parser {
	return &Parser{
		tracer: otel.Tracer("json-parser"),
	}
}

// statusRequired lists the wire keys a status document must carry.
var statusRequired = []string{"speed", "latitude", "longitude", "serverTime"}

// tripRequired lists the top-level wire keys a trip document must carry.
var tripRequired = []string{"tripDate", "trainType", "vzn", "stopInfo", "stops"}

// ParseStatus decodes a raw status document fetched at fetchedAt.
func (p *Parser) ParseStatus(ctx context.Context, data []byte, fetchedAt time.Time) (*ParsedStatus, error) {
	ctx, span := p.tracer.Start(ctx, "parser.parse_status",
		trace.WithAttributes(
			attribute.Int("json_size_bytes", len(data)),
		),
	)
	defer span.End()
	defer recordDecodeDuration(ctx, "status", time.Now())

	rawMap, err := p.rawMap(data, statusRequired)
	if err != nil {
		appotel.RecordError(span, err, appotel.ErrorTypeValidation, false)
		return nil, err
	}

	var status types.Status
	if err := json.Unmarshal(data, &status); err != nil {
		appotel.RecordError(span, err, appotel.ErrorTypeParse, false)
		return nil, fmt.Errorf("failed to decode status document: %w", err)
	}

	return &ParsedStatus{
		Status:    &status,
		Timestamp: fetchedAt.Format("2006-01-02T15:04:05.000Z"),
		RawData:   rawMap,
	}, nil
}

// ParseTrip decodes a raw trip document fetched at fetchedAt.
func (p *Parser) ParseTrip(ctx context.Context, data []byte, fetchedAt time.Time) (*ParsedTrip, error) {
	ctx, span := p.tracer.Start(ctx, "parser.parse_trip",
		trace.WithAttributes(
			attribute.Int("json_size_bytes", len(data)),
		),
	)
	defer span.End()
	defer recordDecodeDuration(ctx, "trip", time.Now())

	rawMap, err := p.rawMap(data, tripRequired)
	if err != nil {
		appotel.RecordError(span, err, appotel.ErrorTypeValidation, false)
		return nil, err
	}

	var trip types.Trip
	if err := json.Unmarshal(data, &trip); err != nil {
		appotel.RecordError(span, err, appotel.ErrorTypeParse, false)
		return nil, fmt.Errorf("failed to decode trip document: %w", err)
	}

	if err := validateTrip(&trip); err != nil {
		appotel.RecordError(span, err, appotel.ErrorTypeValidation, false)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("stops_count", len(trip.Stops)),
		attribute.String("train_identifier", trip.TrainIdentifier()),
	)

	return &ParsedTrip{
		Trip:      &trip,
		Timestamp: fetchedAt.Format("2006-01-02T15:04:05.000Z"),
		RawData:   rawMap,
	}, nil
}

func recordDecodeDuration(ctx context.Context, document string, start time.Time) {
	if metrics.IsEnabled() {
		metrics.DecodeDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("document", document)))
	}
}

// rawMap converts the document into a generic map and checks the required
// wire keys are present. encoding/json leaves missing fields at their zero
// value, so presence has to be verified on the map.
func (p *Parser) rawMap(data []byte, required []string) (map[string]interface{}, error) {
	m, err := mxj.NewMapJson(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON document: %w", err)
	}

	for _, key := range required {
		if _, ok := m[key]; !ok {
			return nil, fmt.Errorf("document is missing required field %q", key)
		}
	}

	return m, nil
}

// validateTrip checks the per-stop shape that the top-level key check cannot see.
func validateTrip(trip *types.Trip) error {
	for i := range trip.Stops {
		if trip.Stops[i].Station.EvaNr == "" {
			return fmt.Errorf("stop %d is missing its station id", i)
		}
	}
	return nil
}
