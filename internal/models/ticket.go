package models

import "time"

// Ticket is a read-only snapshot of a helpdesk ticket. It may be stale
// relative to the live system; nothing here is ever written back.
type Ticket struct {
	ID           int                `json:"id"`
	Subject      string             `json:"subject"`
	Status       int                `json:"status"`
	Priority     int                `json:"priority"`
	CompanyID    int                `json:"company_id"`
	ProductID    int                `json:"product_id"`
	RequesterID  int                `json:"requester_id"`
	ResponderID  int                `json:"responder_id"`
	GroupID      int                `json:"group_id"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	CustomFields TicketCustomFields `json:"custom_fields"`
}

// TicketCustomFields carries the billing-relevant custom fields configured on
// the helpdesk. EstimateHours arrives as free text and may be non-numeric.
type TicketCustomFields struct {
	ChangeRequest      bool     `json:"change_request"`
	BillingStatus      string   `json:"billing_status"`
	EstimateHours      string   `json:"estimate_hrs"`
	Category           string   `json:"category"`
	TicketType         string   `json:"cf_type"`
	ContractHourlyRate *float64 `json:"contract_hourly_rate"`
	Currency           string   `json:"currency"`
}

// Agent is a helpdesk agent record. The name lives under a nested contact
// object on the wire.
type Agent struct {
	ID      int          `json:"id"`
	Contact AgentContact `json:"contact"`
}

type AgentContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Group is a helpdesk agent group.
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Contact is a requester record.
type Contact struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Product is one entry from the helpdesk product catalog.
type Product struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// statusNames maps helpdesk numeric ticket statuses to readable labels.
// Codes above 5 are instance-specific custom statuses.
var statusNames = map[int]string{
	2:  "Open",
	3:  "Pending",
	4:  "Resolved",
	5:  "Closed",
	6:  "Waiting on Customer",
	7:  "Waiting on Third Party",
	12: "Deferred",
}

// StatusName returns a readable label for a ticket status code, or "Unknown"
// for codes outside the known set.
func StatusName(status int) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return "Unknown"
}
