package models

import "time"

// TimeEntry is a single tracked-time record against a ticket. Durations
// arrive in seconds; everything downstream works in hours.
type TimeEntry struct {
	ID                 int       `json:"id"`
	TicketID           int       `json:"ticket_id"`
	CompanyID          int       `json:"company_id"`
	AgentID            int       `json:"agent_id"`
	Billable           bool      `json:"billable"`
	TimeSpentInSeconds int       `json:"time_spent_in_seconds"`
	Note               string    `json:"note"`
	ExecutedAt         time.Time `json:"executed_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Hours returns the tracked duration in hours.
func (e TimeEntry) Hours() float64 {
	return float64(e.TimeSpentInSeconds) / 3600
}
