package api

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Event represents a calendar event
type Event struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day"`
	Color  string    `json:"color,omitempty"`
}

// ListEvents returns events overlapping the [from, to) window
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	path := fmt.Sprintf("/api/v1/events?from=%s&to=%s",
		url.QueryEscape(from.Format(time.RFC3339)),
		url.QueryEscape(to.Format(time.RFC3339)))

	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var events []Event
	if err := parseResponse(resp, &events); err != nil {
		return nil, err
	}

	return events, nil
}

// CreateEvent creates a calendar event and returns it with its server ID
func (c *Client) CreateEvent(ctx context.Context, event Event) (*Event, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/v1/events", event)
	if err != nil {
		return nil, err
	}

	var created Event
	if err := parseResponse(resp, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// UpdateEvent replaces an event. Rescheduling (the drag-and-drop move in
// the calendar) is an update with shifted start/end.
func (c *Client) UpdateEvent(ctx context.Context, event Event) (*Event, error) {
	resp, err := c.doRequest(ctx, "PUT", "/api/v1/events/"+url.PathEscape(event.ID), event)
	if err != nil {
		return nil, err
	}

	var updated Event
	if err := parseResponse(resp, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteEvent removes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	resp, err := c.doRequest(ctx, "DELETE", "/api/v1/events/"+url.PathEscape(eventID), nil)
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}
