package models

// ContractSourceKind records where a resolved contract came from.
type ContractSourceKind string

const (
	// ContractFromSheet means the figures were read from the contract
	// workbook's fiscal-year tab.
	ContractFromSheet ContractSourceKind = "sheet"
	// ContractFromFallback means the workbook lookup failed and the figures
	// came from the company record, with carryover treated as zero.
	ContractFromFallback ContractSourceKind = "fallback"
)

// Contract is a client's support contract state for one month: the hours
// included at no extra charge and any unused hours rolled over from the
// previous period.
type Contract struct {
	CompanyCode    string             `json:"company_code"`
	FiscalYear     string             `json:"fiscal_year"`
	Month          string             `json:"month"`
	ClientRowLabel string             `json:"client,omitempty"`
	InclusiveHours float64            `json:"inclusive_hours"`
	CarryoverHours float64            `json:"carryover_hours"`
	Source         ContractSourceKind `json:"source"`
	Note           string             `json:"note,omitempty"`
}
