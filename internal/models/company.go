package models

// Company is a helpdesk company record. The contract-relevant attributes are
// all custom fields maintained by the operations team.
type Company struct {
	ID           int                 `json:"id"`
	Name         string              `json:"name"`
	CustomFields CompanyCustomFields `json:"custom_fields"`
}

// CompanyCustomFields carries the billing custom fields on a company. The
// hourly rate is a pointer so that an unset rate is distinguishable from a
// zero one; rows without a rate are excluded from invoice exports.
type CompanyCustomFields struct {
	CompanyCode        string   `json:"company_code"`
	ContractHourlyRate *float64 `json:"contract_hourly_rate"`
	Currency           string   `json:"currency"`
	InclusiveHours     float64  `json:"inclusive_hours"`
}
