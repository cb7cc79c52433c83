package onesignal

import (
	"bytes"
	"encoding/json"
)

// Message is the user-visible part of a notification. Subject and Body are required;
// empty optional fields are left out of the request.
type Message struct {
	Subject  string
	Body     string
	URL      string
	Icon     string
	ImageURL string
}

// MessageFromParts builds a Message from the positional form
// (subject, body, url, icon, image url). Missing trailing parts are empty; more than
// five parts is a validation error rather than being silently dropped.
func MessageFromParts(parts ...string) (Message, error) {
	if len(parts) < 2 {
		return Message{}, validationError("message must contain at least a subject and body")
	}
	if len(parts) > 5 {
		return Message{}, validationError("message accepts at most 5 parts, got %d", len(parts))
	}
	padded := make([]string, 5)
	copy(padded, parts)
	msg := Message{
		Subject:  padded[0],
		Body:     padded[1],
		URL:      padded[2],
		Icon:     padded[3],
		ImageURL: padded[4],
	}
	return msg, msg.validate()
}

func (m Message) validate() error {
	if m.Subject == "" || m.Body == "" {
		return validationError("message must contain at least a subject and body")
	}
	return nil
}

// Filter is one segment predicate, or an operator entry joining predicates.
type Filter struct {
	Field    string `json:"field,omitempty"`
	Key      string `json:"key,omitempty"`
	Relation string `json:"relation,omitempty"`
	Value    string `json:"value,omitempty"`
	Operator string `json:"operator,omitempty"`
}

// Segment is a named audience. Raw keeps every attribute the provider sent,
// including those without a typed field, and survives a cache round-trip.
type Segment struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Filters   []Filter       `json:"filters,omitempty"`
	AppID     string         `json:"app_id,omitempty"`
	ReadOnly  bool           `json:"read_only,omitempty"`
	IsActive  bool           `json:"is_active,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
	Raw       map[string]any `json:"-"`
}

type segmentFields Segment

func (s *Segment) UnmarshalJSON(b []byte) error {
	var f segmentFields
	raw, err := decodeWithRaw(b, &f)
	if err != nil {
		return err
	}
	*s = Segment(f)
	s.Raw = raw
	return nil
}

func (s Segment) MarshalJSON() ([]byte, error) {
	m, err := mergeOverRaw(s.Raw, segmentFields(s))
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// SegmentCreation is the outcome of CreateSegment. Exists is true when a segment with
// the requested name was already present and nothing was created.
type SegmentCreation struct {
	Segment
	Success bool   `json:"success,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Exists  bool   `json:"exists"`
	Message string `json:"message,omitempty"`
}

type creationFields struct {
	Success bool   `json:"success,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Exists  bool   `json:"exists"`
	Message string `json:"message,omitempty"`
}

func (c *SegmentCreation) UnmarshalJSON(b []byte) error {
	var f creationFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if err := c.Segment.UnmarshalJSON(b); err != nil {
		return err
	}
	c.Success, c.Errors, c.Exists, c.Message = f.Success, f.Errors, f.Exists, f.Message
	return nil
}

func (c SegmentCreation) MarshalJSON() ([]byte, error) {
	m, err := mergeOverRaw(c.Raw, segmentFields(c.Segment))
	if err != nil {
		return nil, err
	}
	extra, err := mergeOverRaw(m, creationFields{Success: c.Success, Errors: c.Errors, Exists: c.Exists, Message: c.Message})
	if err != nil {
		return nil, err
	}
	return json.Marshal(extra)
}

// Tags is the key/value attribute set attached to a player.
type Tags map[string]any

// UnmarshalJSON accepts an empty JSON array, which the API sends for a player without tags.
func (t *Tags) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '[' {
		*t = Tags{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*t = m
	return nil
}

// Value returns the tag value when it is present and a string.
func (t Tags) Value(key string) (string, bool) {
	v, ok := t[key].(string)
	return v, ok
}

// Player is a registered device. Raw holds the full provider record.
type Player struct {
	ID                string         `json:"id"`
	Identifier        string         `json:"identifier,omitempty"`
	DeviceType        int            `json:"device_type"`
	DeviceModel       string         `json:"device_model,omitempty"`
	Language          string         `json:"language,omitempty"`
	ExternalUserID    string         `json:"external_user_id,omitempty"`
	SessionCount      int            `json:"session_count,omitempty"`
	LastActive        int64          `json:"last_active,omitempty"`
	CreatedAt         int64          `json:"created_at,omitempty"`
	InvalidIdentifier bool           `json:"invalid_identifier,omitempty"`
	Tags              Tags           `json:"tags,omitempty"`
	Raw               map[string]any `json:"-"`
}

type playerFields Player

func (p *Player) UnmarshalJSON(b []byte) error {
	var f playerFields
	raw, err := decodeWithRaw(b, &f)
	if err != nil {
		return err
	}
	*p = Player(f)
	p.Raw = raw
	return nil
}

func (p Player) MarshalJSON() ([]byte, error) {
	m, err := mergeOverRaw(p.Raw, playerFields(p))
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// decodeWithRaw decodes b into typed and also returns every field as a generic map.
func decodeWithRaw(b []byte, typed any) (map[string]any, error) {
	if err := json.Unmarshal(b, typed); err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// mergeOverRaw lays the encoded typed fields over a copy of raw. A zero typed value is
// only written when raw already carries the key, so encoding then decoding is stable.
func mergeOverRaw(raw map[string]any, typed any) (map[string]any, error) {
	b, err := json.Marshal(typed)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(raw)+len(fields))
	for k, v := range raw {
		merged[k] = v
	}
	for k, v := range fields {
		if _, inRaw := raw[k]; inRaw || !isZeroJSON(v) {
			merged[k] = v
		}
	}
	return merged, nil
}

func isZeroJSON(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}
