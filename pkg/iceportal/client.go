package iceportal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"ice2loki/pkg/metrics"
	appotel "ice2loki/pkg/otel"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "https://iceportal.de/api1/rs"

	// The portal rejects non-browser clients with 403 Forbidden, so requests
	// carry a regular browser user-agent.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

	statusPath = "/status"
	tripPath   = "/tripInfo/trip"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	tracer     trace.Tracer
}

// Document is one raw JSON response from the portal together with fetch metadata.
type Document struct {
	JSON      string
	Endpoint  string
	Timestamp time.Time
}

func NewClient(baseURL, userAgent string) *Client {
	// HTTP client with OpenTelemetry instrumentation
	client := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   30 * time.Second,
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		httpClient: client,
		baseURL:    baseURL,
		userAgent:  userAgent,
		tracer:     otel.Tracer("iceportal-client"),
	}
}

// FetchStatus retrieves the raw status document (speed, position, server time).
func (c *Client) FetchStatus(ctx context.Context) (*Document, error) {
	return c.fetch(ctx, statusPath)
}

// FetchTrip retrieves the raw trip document (stops, schedules, delays, distances).
func (c *Client) FetchTrip(ctx context.Context) (*Document, error) {
	return c.fetch(ctx, tripPath)
}

func (c *Client) fetch(ctx context.Context, path string) (*Document, error) {
	ctx, span := c.tracer.Start(ctx, "iceportal.fetch",
		trace.WithAttributes(
			attribute.String("api.endpoint", c.baseURL),
			attribute.String("api.path", path),
		),
	)
	defer span.End()

	url := c.baseURL + path

	span.SetAttributes(
		attribute.String("http.url", url),
		attribute.String("http.method", "GET"),
	)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		appotel.RecordError(span, err, appotel.ErrorTypeNetwork, true)
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.String("http.response.content_type", resp.Header.Get("Content-Type")),
	)

	if metrics.IsEnabled() {
		metrics.PortalRequestsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("path", path),
			attribute.Int("status_code", resp.StatusCode),
		))
	}

	if resp.StatusCode != http.StatusOK {
		// Read the error response body for debugging
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("portal returned status %d for %s: %s", resp.StatusCode, path, string(body))
		appotel.RecordError(span, err, appotel.ErrorTypeHTTP, true)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	span.SetAttributes(
		attribute.Int("response.size_bytes", len(body)),
	)
	appotel.SetSpanOk(span)

	return &Document{
		JSON:      string(body),
		Endpoint:  path,
		Timestamp: time.Now(),
	}, nil
}
