package webhook

import (
	"testing"
	"time"
)

func TestClassifyAction(t *testing.T) {
	cases := []struct {
		raw  string
		want Action
	}{
		{"", ActionAdded},
		{"added", ActionAdded},
		{"deal.added", ActionAdded},
		{"create", ActionAdded},
		{"new_deal", ActionAdded},
		{"updated", ActionUpdated},
		{"deal.change", ActionUpdated},
		{"EDIT", ActionUpdated},
		{"deleted", ActionDeleted},
		{"deal.remove", ActionDeleted},
		{"merged", ActionUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyAction(tc.raw); got != tc.want {
			t.Fatalf("ClassifyAction(%q): expected %q, got %q", tc.raw, tc.want, got)
		}
	}
}

func TestNormalize(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("v1 payload with current block", func(t *testing.T) {
		body := []byte(`{
			"meta": {"action": "updated"},
			"current": {
				"id": 123,
				"title": "Big Deal",
				"add_time": "2025-03-10 09:00:00",
				"update_time": "2025-03-10 09:30:00",
				"pipeline_id": 7,
				"stage_id": 42,
				"user_id": 9,
				"status": "open"
			}
		}`)
		n, err := Normalize(body, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.Action != ActionUpdated || n.DealID != "123" || n.Title != "Big Deal" {
			t.Fatalf("unexpected notification: %+v", n)
		}
		if n.PipelineID != "7" || n.StageID != "42" || n.UserID != "9" {
			t.Fatalf("unexpected ids: %+v", n)
		}
		if n.AddTime.Hour() != 9 || n.UpdateTime.Minute() != 30 {
			t.Fatalf("unexpected times: add=%v update=%v", n.AddTime, n.UpdateTime)
		}
	})

	t.Run("v2 payload with data.current", func(t *testing.T) {
		body := []byte(`{
			"event": "change",
			"data": {"current": {"id": "77", "name": "Nested", "pipeline_id": "3", "stage_id": "5"}}
		}`)
		n, err := Normalize(body, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.Action != ActionUpdated || n.DealID != "77" || n.Title != "Nested" || n.PipelineID != "3" {
			t.Fatalf("unexpected notification: %+v", n)
		}
	})

	t.Run("flat payload", func(t *testing.T) {
		body := []byte(`{"action": "added", "deal_id": "55", "pipeline_id": "2", "stage_id": "8"}`)
		n, err := Normalize(body, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.DealID != "55" {
			t.Fatalf("expected deal id 55, got %q", n.DealID)
		}
		if n.Title != "Lead #55" {
			t.Fatalf("expected title fallback, got %q", n.Title)
		}
	})

	t.Run("missing deal id", func(t *testing.T) {
		n, err := Normalize([]byte(`{"action": "added"}`), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.DealID != "" {
			t.Fatalf("expected empty deal id, got %q", n.DealID)
		}
	})

	t.Run("missing times fall back to now", func(t *testing.T) {
		n, err := Normalize([]byte(`{"current": {"id": 1}}`), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !n.AddTime.Equal(now) || !n.UpdateTime.Equal(now) {
			t.Fatalf("expected fallback times, got add=%v update=%v", n.AddTime, n.UpdateTime)
		}
	})

	t.Run("lost time forces lost status", func(t *testing.T) {
		body := []byte(`{"current": {"id": 1, "status": "open", "lost_time": "2025-03-10 10:00:00"}}`)
		n, err := Normalize(body, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !n.Lost || n.Status != "lost" {
			t.Fatalf("expected lost, got %+v", n)
		}
	})

	t.Run("default status open", func(t *testing.T) {
		n, err := Normalize([]byte(`{"current": {"id": 1}}`), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.Status != "open" {
			t.Fatalf("expected open, got %q", n.Status)
		}
	})

	t.Run("non-object body", func(t *testing.T) {
		if _, err := Normalize([]byte(`[1,2,3]`), now); err == nil {
			t.Fatalf("expected error for non-object body")
		}
	})
}
