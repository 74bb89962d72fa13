package dto

// ManualLeadRequest registers a lead outside the CRM flow.
type ManualLeadRequest struct {
	LeadID    string `json:"lead_id"`
	LeadName  string `json:"lead_name"`
	Source    string `json:"source"`
	Pipeline  string `json:"pipeline"`
	SDRName   string `json:"sdr_name"`
	StageName string `json:"stage_name"`
}

// ManualAttendanceRequest records an attendance outside the CRM flow.
type ManualAttendanceRequest struct {
	LeadID  string `json:"lead_id"`
	SDRID   string `json:"sdr_id"`
	SDRName string `json:"sdr_name"`
}
