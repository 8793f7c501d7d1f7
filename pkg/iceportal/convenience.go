package iceportal

import (
	"context"

	"ice2loki/pkg/parser"
	"ice2loki/pkg/types"
)

// Convenience accessors that collapse fetch and decode into a single result.
// Callers that need to distinguish transport from decode failures should use
// FetchStatus/FetchTrip with a Parser directly.

// GetStatus fetches and decodes the current train status.
func (c *Client) GetStatus(ctx context.Context) (*types.Status, error) {
	doc, err := c.FetchStatus(ctx)
	if err != nil {
		return nil, err
	}

	parsed, err := parser.NewParser().ParseStatus(ctx, []byte(doc.JSON), doc.Timestamp)
	if err != nil {
		return nil, err
	}
	return parsed.Status, nil
}

// GetTrip fetches and decodes the current trip.
func (c *Client) GetTrip(ctx context.Context) (*types.Trip, error) {
	doc, err := c.FetchTrip(ctx)
	if err != nil {
		return nil, err
	}

	parsed, err := parser.NewParser().ParseTrip(ctx, []byte(doc.JSON), doc.Timestamp)
	if err != nil {
		return nil, err
	}
	return parsed.Trip, nil
}

// GetSpeed fetches the current speed of the train in km/h.
func (c *Client) GetSpeed(ctx context.Context) (float32, error) {
	status, err := c.GetStatus(ctx)
	if err != nil {
		return 0, err
	}
	return status.Speed, nil
}
