package dto

import "time"

// LeadResponse mirrors the persisted lead for the dashboard.
type LeadResponse struct {
	ID            string     `json:"id"`
	LeadID        string     `json:"lead_id"`
	LeadName      string     `json:"lead_name"`
	SDRID         *string    `json:"sdr_id,omitempty"`
	SDRName       *string    `json:"sdr_name,omitempty"`
	EnteredAt     time.Time  `json:"entered_at"`
	AttendedAt    *time.Time `json:"attended_at,omitempty"`
	SLAMinutes    *int       `json:"sla_minutes,omitempty"`
	Source        string     `json:"source"`
	Pipeline      string     `json:"pipeline"`
	StageName     *string    `json:"stage_name,omitempty"`
	StagePriority *int       `json:"stage_priority,omitempty"`
	Status        *string    `json:"status,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
