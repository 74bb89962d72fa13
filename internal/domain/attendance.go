package domain

import "time"

// AttendanceEvent records one lead movement performed by an SDR. Events feed
// the daily journey report and are independent of SLA minutes.
type AttendanceEvent struct {
	ID         string
	UserID     string
	UserName   *string
	OccurredAt time.Time
	DealID     string
	EventType  string
	PipelineID *string
	StageID    *string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// ShiftMetrics summarizes one shift window of a working day. Timestamps are
// nil and ActionCount zero when the SDR had no activity in the window.
type ShiftMetrics struct {
	FirstAction *time.Time `json:"first_action"`
	LastAction  *time.Time `json:"last_action"`
	ActionCount int        `json:"action_count"`
}

// SDRDailyShiftMetrics aggregates one SDR's activity for one calendar day in
// the reference time zone. Both shifts are always present so consumers see a
// uniform shape.
type SDRDailyShiftMetrics struct {
	SDRID        string       `json:"sdr_id"`
	SDRName      string       `json:"sdr_name,omitempty"`
	Date         string       `json:"date"`
	Morning      ShiftMetrics `json:"morning"`
	Afternoon    ShiftMetrics `json:"afternoon"`
	TotalActions int          `json:"total_actions"`
}
