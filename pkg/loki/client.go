package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ice2loki/pkg/metrics"
	"ice2loki/pkg/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	tracer     trace.Tracer
}

type PushRequest struct {
	Streams []Stream `json:"streams"`
}

type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

func NewClient(baseURL, username, password string) *Client {
	// HTTP client with OpenTelemetry instrumentation
	client := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   30 * time.Second,
	}

	return &Client{
		httpClient: client,
		baseURL:    baseURL,
		username:   username,
		password:   password,
		tracer:     otel.Tracer("loki-client"),
	}
}

// SendTripSnapshot pushes one trip snapshot as a single stream: a summary log
// line for the train followed by one log line per stop.
func (c *Client) SendTripSnapshot(ctx context.Context, snapshot *types.TripSnapshot) error {
	ctx, span := c.tracer.Start(ctx, "loki.send_trip_snapshot",
		trace.WithAttributes(
			attribute.String("train_identifier", snapshot.TrainIdentifier),
			attribute.Int("stops_count", len(snapshot.Stops)),
		),
	)
	defer span.End()

	var logValues [][]string

	// Summary line first: the status joined with route-level distances
	summaryJSON, err := json.Marshal(snapshot)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal snapshot JSON: %w", err)
	}
	logValues = append(logValues, []string{
		strconv.FormatInt(time.Now().UnixNano(), 10),
		string(summaryJSON),
	})

	// One line per stop
	for i := range snapshot.Stops {
		stopJSON, err := json.Marshal(&snapshot.Stops[i])
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to marshal stop JSON: %w", err)
		}
		logValues = append(logValues, []string{
			strconv.FormatInt(time.Now().UnixNano(), 10),
			string(stopJSON),
		})
	}

	lokiReq := PushRequest{
		Streams: []Stream{
			{
				Stream: map[string]string{
					"job":     "ice2loki",
					"service": "train-telemetry",
					"train":   snapshot.TrainIdentifier,
				},
				Values: logValues,
			},
		},
	}

	reqBody, err := json.Marshal(lokiReq)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal Loki request: %w", err)
	}

	url := fmt.Sprintf("%s/loki/api/v1/push", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ice2loki/1.0.0")

	// Add basic authentication if credentials are provided
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
		span.SetAttributes(
			attribute.Bool("auth.enabled", true),
			attribute.String("auth.username", c.username),
		)
	} else {
		span.SetAttributes(
			attribute.Bool("auth.enabled", false),
		)
	}

	span.SetAttributes(
		attribute.String("http.url", url),
		attribute.String("http.method", "POST"),
		attribute.Int("request.size_bytes", len(reqBody)),
		attribute.Int("log_lines_count", len(logValues)),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		c.recordSend(ctx, start, "network_error")
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("Loki returned status %d", resp.StatusCode)
		span.RecordError(err)
		c.recordSend(ctx, start, "http_error")
		return err
	}

	c.recordSend(ctx, start, "success")
	return nil
}

func (c *Client) recordSend(ctx context.Context, start time.Time, status string) {
	if metrics.IsEnabled() {
		metrics.LokiSendDuration.Record(ctx, time.Since(start).Seconds())
		metrics.LokiSendTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("status", status)))
	}
}
