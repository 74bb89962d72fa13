package webhook

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Action classifies what the CRM notification describes.
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	ActionUnknown Action = "unknown"
)

// Notification is the normalized view of an inbound CRM webhook. Pipedrive
// delivers several payload variants (v1 webhooks, v2 webhooks, manual
// replays), so every field is extracted from an ordered list of candidate
// locations, first match wins.
type Notification struct {
	Action     Action
	RawAction  string
	DealID     string
	Title      string
	AddTime    time.Time
	UpdateTime time.Time
	PipelineID string
	StageID    string
	UserID     string
	Status     string
	Lost       bool
}

// Normalize parses a raw webhook body into a Notification. The error is
// non-nil only for bodies that are not JSON objects; a payload missing the
// deal id comes back with DealID empty so the caller decides how to
// acknowledge it.
func Normalize(body []byte, now time.Time) (Notification, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return Notification{}, err
	}
	return normalizeMap(payload, now), nil
}

func normalizeMap(payload map[string]any, now time.Time) Notification {
	// The deal body itself also moves around between variants.
	deal := firstMap(payload,
		path("current"),
		path("data", "current"),
		path("data"),
	)
	if deal == nil {
		deal = payload
	}

	n := Notification{
		RawAction: firstString(payload,
			path("meta", "action"),
			path("event"),
			path("action"),
		),
		DealID: firstScalar(deal, payload,
			path("id"),
			path("deal_id"),
		),
		PipelineID: firstScalar(deal, payload, path("pipeline_id")),
		StageID:    firstScalar(deal, payload, path("stage_id")),
		UserID: firstScalar(deal, payload,
			path("user_id"),
			path("owner_id"),
		),
		Status: firstString(deal,
			path("status"),
		),
	}
	n.Action = ClassifyAction(n.RawAction)

	n.Title = firstString(deal, path("title"), path("name"))
	if n.Title == "" {
		n.Title = firstString(payload, path("title"))
	}
	if n.Title == "" && n.DealID != "" {
		n.Title = "Lead #" + n.DealID
	}

	n.AddTime = firstTime(deal, now, path("add_time"), path("created_at"))
	n.UpdateTime = firstTime(deal, now, path("update_time"), path("updated_at"))

	if n.Status == "" {
		n.Status = firstString(payload, path("status"))
	}
	if n.Status == "" {
		n.Status = "open"
	}

	lost := firstScalar(deal, payload, path("lost_time"))
	if lost != "" {
		n.Lost = true
		n.Status = "lost"
	}
	return n
}

// ClassifyAction maps the CRM's free-form action string onto the known set
// by case-insensitive substring matching. Anything unrecognized is reported
// as unknown; the processing layer routes unknown actions through the create
// path so an unparseable notification is recorded rather than dropped.
func ClassifyAction(raw string) Action {
	action := strings.ToLower(raw)
	switch {
	case action == "":
		return ActionAdded
	case containsAny(action, "add", "create", "new"):
		return ActionAdded
	case containsAny(action, "update", "change", "edit"):
		return ActionUpdated
	case containsAny(action, "delete", "remove"):
		return ActionDeleted
	default:
		return ActionUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type fieldPath []string

func path(parts ...string) fieldPath { return parts }

// firstMap returns the first candidate that resolves to an object.
func firstMap(m map[string]any, candidates ...fieldPath) map[string]any {
	for _, p := range candidates {
		if v, ok := lookup(m, p); ok {
			if obj, ok := v.(map[string]any); ok {
				return obj
			}
		}
	}
	return nil
}

func lookup(m map[string]any, p fieldPath) (any, bool) {
	var current any = m
	for _, part := range p {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// firstString returns the first non-empty string among the candidates.
func firstString(m map[string]any, candidates ...fieldPath) string {
	for _, p := range candidates {
		if v, ok := lookup(m, p); ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// firstScalar looks in the deal body first and falls back to the envelope,
// accepting both string and numeric ids.
func firstScalar(deal, envelope map[string]any, candidates ...fieldPath) string {
	for _, m := range []map[string]any{deal, envelope} {
		if m == nil {
			continue
		}
		for _, p := range candidates {
			v, ok := lookup(m, p)
			if !ok || v == nil {
				continue
			}
			if s := scalarString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstTime(m map[string]any, fallback time.Time, candidates ...fieldPath) time.Time {
	for _, p := range candidates {
		v, ok := lookup(m, p)
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if t, err := parseTimestamp(s); err == nil {
			return t
		}
	}
	return fallback
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatInt(int64(val), 10)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
