package models

// UnknownCompanyCode is the sentinel used when a ticket's company cannot be
// resolved to a company code. Rows carrying it never reach the export.
const UnknownCompanyCode = "—"

// TicketAggregate accumulates tracked and billable hours for one ticket over
// the report period, together with descriptive attributes from the ticket's
// metadata. Rebuilt per report request; never persisted.
type TicketAggregate struct {
	TicketID      int      `json:"ticket_id"`
	Title         string   `json:"title"`
	CompanyName   string   `json:"company"`
	CompanyCode   string   `json:"company_code"`
	RequesterName string   `json:"requester_name"`
	AgentName     string   `json:"agent_name"`
	GroupName     string   `json:"group_name"`
	ProductName   string   `json:"product_name"`
	TicketType    string   `json:"ticket_type"`
	Category      string   `json:"category"`
	BillingStatus string   `json:"billing_status"`
	ChangeRequest bool     `json:"change_request"`
	HourlyRate    *float64 `json:"hourly_rate"`
	Currency      string   `json:"currency"`
	InvoiceNumber string   `json:"invoice_number,omitempty"`
	TotalHours    float64  `json:"time_spent_this_month"`
	BillableHours float64  `json:"billable_time_this_month"`
}

// MonthlySummary is the reconciled report for one client and month.
type MonthlySummary struct {
	Month          string             `json:"month"`
	CompanyCode    string             `json:"company_code"`
	CompanyName    string             `json:"company_name"`
	TotalHours     float64            `json:"total_hours"`
	BillableHours  float64            `json:"billable_hours"`
	InclusiveHours float64            `json:"inclusive_hours"`
	CarryoverHours float64            `json:"carryover_hours"`
	OverageHours   float64            `json:"overage_hours"`
	OverageRate    float64            `json:"overage_rate"`
	EstimatedCost  float64            `json:"estimated_cost"`
	Currency       string             `json:"currency"`
	CurrencySymbol string             `json:"currency_symbol"`
	CostApplicable bool               `json:"cost_applicable"`
	ContractSource ContractSourceKind `json:"contract_source"`
	Notes          []string           `json:"notes,omitempty"`
	InvoiceWarning *InvoiceWarning    `json:"invoice_warning,omitempty"`
}

// InvoiceWarning lists tickets marked with the "Invoice" billing status,
// whose tracked time is excluded from the billable totals.
type InvoiceWarning struct {
	TicketIDs []int   `json:"ticket_ids"`
	Hours     float64 `json:"hours"`
}

// OverEstimateTicket is a watchlist row for a ticket whose tracked time
// exceeds its estimate.
type OverEstimateTicket struct {
	TicketID      int     `json:"id"`
	Subject       string  `json:"subject"`
	Status        string  `json:"status"`
	CompanyName   string  `json:"company"`
	AgentName     string  `json:"assigned_to"`
	GroupName     string  `json:"group"`
	EstimateHours float64 `json:"estimate"`
	TotalHours    float64 `json:"total_time"`
	OverBy        float64 `json:"over_by"`
	OverByPercent float64 `json:"over_by_percent"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// AgingTicket is a watchlist row for an unresolved ticket with no recent
// updates.
type AgingTicket struct {
	TicketID        int    `json:"id"`
	Subject         string `json:"subject"`
	Status          string `json:"status"`
	CompanyName     string `json:"company"`
	AgentName       string `json:"assigned_to"`
	GroupName       string `json:"group"`
	TicketType      string `json:"ticket_type"`
	DaysSinceUpdate int    `json:"days_since_update"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}
