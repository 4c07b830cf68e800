package billing

import (
	"time"

	"github.com/afowler-mm/support-reports/internal/models"
)

// currencySymbols renders ISO currency codes for the on-screen summary.
// Unmapped codes pass through as-is.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"AUD": "A$",
	"CAD": "C$",
	"NZD": "NZ$",
	"JPY": "¥",
}

// CurrencySymbol returns the display symbol for a currency code.
func CurrencySymbol(code string) string {
	if symbol, ok := currencySymbols[code]; ok {
		return symbol
	}
	return code
}

// Summarize reconciles a client's ticket aggregates against their contract
// for the month. Overage is never negative. The cost estimate is only
// computed when the report month is the current month or adjacent to it;
// contract state for other months is not considered stable enough to price.
func Summarize(aggregates []*models.TicketAggregate, contract *models.Contract, company *models.Company, month, now time.Time) models.MonthlySummary {
	summary := models.MonthlySummary{
		Month: month.Format("January 2006"),
	}

	for _, agg := range aggregates {
		summary.TotalHours += agg.TotalHours
		summary.BillableHours += agg.BillableHours
	}

	if contract != nil {
		summary.InclusiveHours = contract.InclusiveHours
		summary.CarryoverHours = contract.CarryoverHours
		summary.ContractSource = contract.Source
		summary.CompanyCode = contract.CompanyCode
		if contract.Note != "" {
			summary.Notes = append(summary.Notes, contract.Note)
		}
	}

	currency := "USD"
	if company != nil {
		summary.CompanyName = company.Name
		if company.CustomFields.Currency != "" {
			currency = company.CustomFields.Currency
		}
		if company.CustomFields.ContractHourlyRate != nil {
			summary.OverageRate = *company.CustomFields.ContractHourlyRate
		}
	}
	summary.Currency = currency
	summary.CurrencySymbol = CurrencySymbol(currency)

	overage := summary.BillableHours - summary.InclusiveHours - summary.CarryoverHours
	if overage < 0 {
		overage = 0
	}
	summary.OverageHours = overage

	summary.CostApplicable = isCurrentOrAdjacentMonth(month, now)
	if summary.CostApplicable {
		summary.EstimatedCost = summary.OverageHours * summary.OverageRate
	}

	summary.InvoiceWarning = invoiceWarning(aggregates)
	return summary
}

// isCurrentOrAdjacentMonth reports whether month is within one calendar
// month of now, crossing year boundaries.
func isCurrentOrAdjacentMonth(month, now time.Time) bool {
	diff := (now.Year()-month.Year())*12 + int(now.Month()) - int(month.Month())
	return diff >= -1 && diff <= 1
}

// invoiceWarning collects tickets marked "Invoice", whose tracked hours are
// excluded from the billable totals and need separate handling.
func invoiceWarning(aggregates []*models.TicketAggregate) *models.InvoiceWarning {
	var warning models.InvoiceWarning
	for _, agg := range aggregates {
		if agg.BillingStatus == "Invoice" {
			warning.TicketIDs = append(warning.TicketIDs, agg.TicketID)
			warning.Hours += agg.TotalHours
		}
	}
	if len(warning.TicketIDs) == 0 {
		return nil
	}
	return &warning
}
