package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLeadCreated     EventType = "lead_created"
	EventLeadAttended    EventType = "lead_attended"
	EventLeadInvalidated EventType = "lead_invalidated"
	EventLeadDeleted     EventType = "lead_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	LeadID    string      `json:"lead_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LeadCreatedPayload payload.
type LeadCreatedPayload struct {
	LeadName   string    `json:"lead_name"`
	Pipeline   string    `json:"pipeline"`
	Source     string    `json:"source"`
	EnteredAt  time.Time `json:"entered_at"`
	PipelineID string    `json:"pipeline_id,omitempty"`
	StageID    string    `json:"stage_id,omitempty"`
}

// LeadAttendedPayload payload. UserID is the CRM user that moved the deal;
// SDRID is the funnel owner credited with the attendance.
type LeadAttendedPayload struct {
	SDRID      *string   `json:"sdr_id,omitempty"`
	SDRName    *string   `json:"sdr_name,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	AttendedAt time.Time `json:"attended_at"`
	SLAMinutes int       `json:"sla_minutes"`
	PipelineID string    `json:"pipeline_id,omitempty"`
	StageID    string    `json:"stage_id,omitempty"`
}

// LeadInvalidatedPayload payload.
type LeadInvalidatedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// LeadDeletedPayload payload.
type LeadDeletedPayload struct {
	RawAction string `json:"raw_action,omitempty"`
}
