package domain

import "time"

// LeadState enumerates the lifecycle of a tracked lead.
type LeadState string

const (
	LeadStatePending  LeadState = "PENDING"
	LeadStateAttended LeadState = "ATTENDED"
)

// Deal statuses carried over from the CRM, plus the local invalidation marker.
const (
	DealStatusLost    = "lost"
	DealStatusOpen    = "open"
	StatusInvalidated = "INVALIDO"
)

// Lead is one CRM deal tracked for response-time purposes. LeadID is the
// stable external identifier; AttendedAt is set at most once.
type Lead struct {
	ID            string
	LeadID        string
	LeadName      string
	SDRID         *string
	SDRName       *string
	EnteredAt     time.Time
	AttendedAt    *time.Time
	SLAMinutes    *int
	Source        string
	Pipeline      string
	StageName     *string
	StagePriority *int
	Status        *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SDRRef identifies one SDR seen in the lead history, for filter dropdowns.
type SDRRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// State derives the lifecycle state from AttendedAt.
func (l *Lead) State() LeadState {
	if l.AttendedAt != nil {
		return LeadStateAttended
	}
	return LeadStatePending
}

// Attended reports whether the lead has received its first attendance action.
func (l *Lead) Attended() bool {
	return l.AttendedAt != nil
}

// IsLost reports whether the CRM marked the deal as lost.
func (l *Lead) IsLost() bool {
	return l.Status != nil && *l.Status == DealStatusLost
}
