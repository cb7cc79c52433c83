package onesignal

import (
	"context"
	"fmt"
	"net/http"
)

type segmentPayload struct {
	Name    string   `json:"name"`
	Filters []Filter `json:"filters"`
}

// CreateSegment creates a segment matching players whose tag NormalizeSegmentName(name)
// equals value ("true" when empty).
//
// A segment that already exists is returned with Exists set instead of being
// duplicated. A successful creation is memoized per name for the cache TTL, so
// repeating the call inside that window returns the first response without asking
// the provider again. DeleteSegment drops that memo, so a segment deleted through this
// client is created anew by the next call.
func (c *Client) CreateSegment(ctx context.Context, name, value string) (*SegmentCreation, error) {
	if name == "" {
		return nil, validationError("segment name cannot be empty")
	}
	if value == "" {
		value = "true"
	}

	createKey := segmentCreateKey(c.appID, name)
	var memo SegmentCreation
	if c.lookup(ctx, createKey, &memo) {
		return &memo, nil
	}

	segments, err := c.ListSegments(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range segments {
		if s.Name == name {
			return &SegmentCreation{
				Segment: s,
				Exists:  true,
				Message: fmt.Sprintf("Segment '%s' already exists", name),
			}, nil
		}
	}

	payload := segmentPayload{
		Name: name,
		Filters: []Filter{
			{Field: "tag", Key: NormalizeSegmentName(name), Relation: "=", Value: value},
		},
	}
	var created SegmentCreation
	if err := c.doJSON(ctx, "create segment", http.MethodPost, []string{"apps", c.appID, "segments"}, nil, payload, &created); err != nil {
		c.logger.Error("Failed to create segment", "err", err, "payload", payload)
		return nil, err
	}
	created.Exists = false

	c.store(ctx, createKey, created)
	if created.ID != "" {
		c.store(ctx, segmentNameKey(c.appID, created.ID), name)
	}
	c.invalidate(ctx, segmentsKey(c.appID))
	return &created, nil
}

// UpdateSegment replaces the name and filters of a segment and returns the decoded response.
func (c *Client) UpdateSegment(ctx context.Context, segmentID, name string, filters []Filter) (map[string]any, error) {
	if segmentID == "" || name == "" || len(filters) == 0 {
		return nil, validationError("segment ID, name, and filters are required")
	}

	payload := segmentPayload{Name: name, Filters: filters}
	var out map[string]any
	if err := c.doJSON(ctx, "update segment", http.MethodPut, []string{"apps", c.appID, "segments", segmentID}, nil, payload, &out); err != nil {
		c.logger.Error("Failed to update segment", "err", err, "segment_id", segmentID, "payload", payload)
		return nil, err
	}
	c.invalidate(ctx, segmentsKey(c.appID))

	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// DeleteSegment removes a segment. It reports true only for an HTTP 200 answer.
func (c *Client) DeleteSegment(ctx context.Context, segmentID string) (bool, error) {
	if segmentID == "" {
		return false, validationError("segment ID cannot be empty")
	}

	resp, err := c.do(ctx, "delete segment", http.MethodDelete, []string{"apps", c.appID, "segments", segmentID}, nil, nil)
	if err != nil {
		c.logger.Error("Failed to delete segment", "err", err, "segment_id", segmentID)
		return false, err
	}
	c.forgetCreation(ctx, segmentID)
	c.invalidate(ctx, segmentsKey(c.appID))
	return resp.status == http.StatusOK, nil
}

// ListSegments returns the application's segments, served from cache when fresh.
func (c *Client) ListSegments(ctx context.Context) ([]Segment, error) {
	return remember(ctx, c, segmentsKey(c.appID), func(ctx context.Context) ([]Segment, error) {
		var page struct {
			Segments []Segment `json:"segments"`
		}
		if err := c.doJSON(ctx, "list segments", http.MethodGet, []string{"apps", c.appID, "segments"}, nil, nil, &page); err != nil {
			c.logger.Error("Failed to list segments", "err", err)
			return nil, err
		}
		if page.Segments == nil {
			return []Segment{}, nil
		}
		return page.Segments, nil
	})
}

// forgetCreation drops the CreateSegment memo of a deleted segment. The name is found
// from the id recorded at creation, or else from the cached segment list.
func (c *Client) forgetCreation(ctx context.Context, segmentID string) {
	nameKey := segmentNameKey(c.appID, segmentID)
	var name string
	if !c.lookup(ctx, nameKey, &name) {
		var segments []Segment
		if c.lookup(ctx, segmentsKey(c.appID), &segments) {
			for _, s := range segments {
				if s.ID == segmentID {
					name = s.Name
					break
				}
			}
		}
	}
	if name != "" {
		c.invalidate(ctx, segmentCreateKey(c.appID, name))
	}
	c.invalidate(ctx, nameKey)
}
