package onesignal

import (
	"context"
	"net/http"
)

// allSegment is the provider's built-in segment containing every subscribed device.
const allSegment = "All"

// target holds the fields selecting the audience of a notification.
type target map[string]any

// audienceKeys are the request fields that select recipients. Exactly one audience is
// sent per call, so extra data may never set any of them.
var audienceKeys = map[string]struct{}{
	"included_segments":         {},
	"include_external_user_ids": {},
	"include_player_ids":        {},
	"include_subscription_ids":  {},
	"include_aliases":           {},
	"filters":                   {},
}

func allTarget() target {
	return target{"included_segments": []string{allSegment}}
}

func usersTarget(userIDs []string) target {
	return target{"include_external_user_ids": append([]string(nil), userIDs...)}
}

func segmentTarget(segment string) target {
	return target{"included_segments": []string{segment}}
}

// SendToAll notifies every subscribed device. extra is merged into the request and
// scheduledTime, when set, becomes the send_after field.
func (c *Client) SendToAll(ctx context.Context, msg Message, extra map[string]any, scheduledTime string) (map[string]any, error) {
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return c.sendNotification(ctx, c.buildPayload(msg, allTarget(), extra, scheduledTime))
}

// SendToUsers notifies the devices registered under the given external user ids.
func (c *Client) SendToUsers(ctx context.Context, userIDs []string, msg Message, extra map[string]any, scheduledTime string) (map[string]any, error) {
	if len(userIDs) == 0 {
		return nil, validationError("user IDs cannot be empty")
	}
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return c.sendNotification(ctx, c.buildPayload(msg, usersTarget(userIDs), extra, scheduledTime))
}

// SendToSegment notifies the members of one named segment.
func (c *Client) SendToSegment(ctx context.Context, segment string, msg Message, extra map[string]any, scheduledTime string) (map[string]any, error) {
	if segment == "" {
		return nil, validationError("segment name cannot be empty")
	}
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return c.sendNotification(ctx, c.buildPayload(msg, segmentTarget(segment), extra, scheduledTime))
}

// buildPayload merges base fields, target, extra data and schedule, in that order.
// Extra data may replace base fields but never audience fields; nil values are dropped.
func (c *Client) buildPayload(msg Message, tgt target, extra map[string]any, scheduledTime string) map[string]any {
	payload := map[string]any{
		"app_id":   c.appID,
		"headings": map[string]string{c.language: msg.Subject},
		"contents": map[string]string{c.language: msg.Body},
	}

	icon := msg.Icon
	if icon == "" {
		icon = c.defaultIcon
	}
	setIfPresent(payload, "url", msg.URL)
	setIfPresent(payload, "chrome_web_icon", icon)
	setIfPresent(payload, "chrome_web_image", msg.ImageURL)

	for k, v := range tgt {
		payload[k] = v
	}
	for k, v := range extra {
		if _, isAudience := audienceKeys[k]; isAudience {
			c.logger.Warn("Ignoring extra field that would change the audience", "key", k)
			continue
		}
		if v == nil {
			delete(payload, k)
			continue
		}
		payload[k] = v
	}

	if scheduledTime != "" {
		payload["send_after"] = scheduledTime
	}
	return payload
}

func setIfPresent(payload map[string]any, key, value string) {
	if value != "" {
		payload[key] = value
	}
}

func (c *Client) sendNotification(ctx context.Context, payload map[string]any) (map[string]any, error) {
	var out map[string]any
	if err := c.doJSON(ctx, "send notification", http.MethodPost, []string{"notifications"}, nil, payload, &out); err != nil {
		c.logger.Error("OneSignal notification error", "err", err, "payload", payload)
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
