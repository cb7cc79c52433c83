package onesignal

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const (
	DefaultDeviceLimit = 300
	MaxDeviceLimit     = 2000
)

// SubscribeToSegments tags the player as a member of each segment.
// It reports true only for an HTTP 200 answer.
func (c *Client) SubscribeToSegments(ctx context.Context, playerID string, segments []string) (bool, error) {
	return c.setSegmentTags(ctx, "subscribe to segments", playerID, segments, "true")
}

// UnsubscribeFromSegments clears the player's membership tag for each segment.
func (c *Client) UnsubscribeFromSegments(ctx context.Context, playerID string, segments []string) (bool, error) {
	return c.setSegmentTags(ctx, "unsubscribe from segments", playerID, segments, "")
}

func segmentTags(segments []string, value string) map[string]string {
	tags := make(map[string]string, len(segments))
	for _, s := range segments {
		tags[NormalizeSegmentName(s)] = value
	}
	return tags
}

func (c *Client) setSegmentTags(ctx context.Context, op, playerID string, segments []string, value string) (bool, error) {
	if playerID == "" || len(segments) == 0 {
		return false, validationError("player ID and segments cannot be empty")
	}

	payload := map[string]any{"tags": segmentTags(segments, value)}
	resp, err := c.do(ctx, op, http.MethodPut, []string{"players", playerID}, nil, payload)
	if err != nil {
		c.logger.Error("Failed to "+op, "err", err, "player_id", playerID, "segments", segments)
		return false, err
	}
	return resp.status == http.StatusOK, nil
}

func validatePage(limit, offset int) error {
	if limit < 1 || limit > MaxDeviceLimit {
		return validationError("limit must be between 1 and %d", MaxDeviceLimit)
	}
	if offset < 0 {
		return validationError("offset cannot be negative")
	}
	return nil
}

// GetDevices returns one page of the application's players, served from cache when fresh.
func (c *Client) GetDevices(ctx context.Context, limit, offset int) ([]Player, error) {
	if err := validatePage(limit, offset); err != nil {
		return nil, err
	}
	return remember(ctx, c, devicesKey(c.appID, limit, offset), func(ctx context.Context) ([]Player, error) {
		players, err := c.fetchPlayers(ctx, limit, offset)
		if err != nil {
			c.logger.Error("Failed to get devices", "err", err, "limit", limit, "offset", offset)
			return nil, err
		}
		return players, nil
	})
}

// UsersSegments returns the players tagged as members of the segment.
//
// Only the single page selected by limit and offset is fetched and filtered, so the
// result is bounded by limit rather than by the size of the segment.
func (c *Client) UsersSegments(ctx context.Context, segment string, limit, offset int) ([]Player, error) {
	if segment == "" {
		return nil, validationError("segment name cannot be empty")
	}
	if err := validatePage(limit, offset); err != nil {
		return nil, err
	}

	tagKey := NormalizeSegmentName(segment)
	return remember(ctx, c, usersSegmentKey(c.appID, tagKey, limit, offset), func(ctx context.Context) ([]Player, error) {
		players, err := c.fetchPlayers(ctx, limit, offset)
		if err != nil {
			c.logger.Error("Failed to get users for segment", "err", err, "segment", segment, "limit", limit, "offset", offset)
			return nil, err
		}
		members := make([]Player, 0, len(players))
		for _, p := range players {
			if v, ok := p.Tags.Value(tagKey); ok && v == "true" {
				members = append(members, p)
			}
		}
		return members, nil
	})
}

func (c *Client) fetchPlayers(ctx context.Context, limit, offset int) ([]Player, error) {
	query := url.Values{
		"app_id": {c.appID},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	var page struct {
		Players []Player `json:"players"`
	}
	if err := c.doJSON(ctx, "list players", http.MethodGet, []string{"players"}, query, nil, &page); err != nil {
		return nil, err
	}
	if page.Players == nil {
		return []Player{}, nil
	}
	return page.Players, nil
}
