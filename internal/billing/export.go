package billing

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/afowler-mm/support-reports/internal/models"
)

// Constants required by the accounting system's bulk-invoice-import schema.
const (
	exportAccountCode = "4010"
	exportTaxType     = "Tax Exempt (0%)"
)

// BuildExportRows turns per-ticket export aggregates into the flat Xero row
// set: one row per ticket, plus per client a contract-info row (when the
// contract grants inclusive or rollover hours) and a rollover-credit row
// (when rollover is available). Aggregates without a resolvable company code
// or hourly rate are excluded entirely; retainer and rollover arrangements
// for such clients are handled manually.
func BuildExportRows(aggregates []*models.TicketAggregate, contractsByClient map[string]*models.Contract, month time.Time) []models.ExportLineItem {
	invoiceDate := lastDayOfMonth(month).Format("2006-01-02")
	dueDate := lastDayOfMonth(month.AddDate(0, 1, 0)).Format("2006-01-02")

	type clientTotals struct {
		name          string
		currency      string
		hourlyRate    float64
		invoiceNumber string
		billableHours float64
	}
	clients := make(map[string]*clientTotals)

	var rows []models.ExportLineItem
	for _, agg := range aggregates {
		if agg.CompanyCode == "" || agg.CompanyCode == models.UnknownCompanyCode || agg.HourlyRate == nil {
			continue
		}

		rows = append(rows, models.ExportLineItem{
			ContactName:   agg.CompanyName,
			ContactCode:   agg.CompanyCode,
			InvoiceNumber: agg.InvoiceNumber,
			InvoiceDate:   invoiceDate,
			DueDate:       dueDate,
			Description:   exportDescription(agg),
			Quantity:      agg.BillableHours,
			UnitAmount:    *agg.HourlyRate,
			AccountCode:   exportAccountCode,
			TaxType:       exportTaxType,
			Currency:      agg.Currency,
		})

		totals, ok := clients[agg.CompanyCode]
		if !ok {
			totals = &clientTotals{
				name:          agg.CompanyName,
				currency:      agg.Currency,
				hourlyRate:    *agg.HourlyRate,
				invoiceNumber: agg.InvoiceNumber,
			}
			clients[agg.CompanyCode] = totals
		}
		totals.billableHours += agg.BillableHours
	}

	for code, totals := range clients {
		contract := contractsByClient[code]
		if contract == nil {
			continue
		}

		if contract.InclusiveHours > 0 || contract.CarryoverHours > 0 {
			rows = append(rows, models.ExportLineItem{
				ContactName:   totals.name,
				ContactCode:   code,
				InvoiceNumber: totals.invoiceNumber,
				InvoiceDate:   invoiceDate,
				DueDate:       dueDate,
				Description:   contractDescription(contract),
				Quantity:      0,
				UnitAmount:    0,
				AccountCode:   exportAccountCode,
				TaxType:       exportTaxType,
				Currency:      totals.currency,
			})
		}

		if contract.CarryoverHours > 0 {
			// The credit never exceeds what is being billed, so rollover can
			// not push an invoice total negative.
			applied := contract.CarryoverHours
			if applied > totals.billableHours {
				applied = totals.billableHours
			}
			rows = append(rows, models.ExportLineItem{
				ContactName:   totals.name,
				ContactCode:   code,
				InvoiceNumber: totals.invoiceNumber,
				InvoiceDate:   invoiceDate,
				DueDate:       dueDate,
				Description:   rolloverDescription(applied, contract.CarryoverHours),
				Quantity:      -applied,
				UnitAmount:    totals.hourlyRate,
				AccountCode:   exportAccountCode,
				TaxType:       exportTaxType,
				Currency:      totals.currency,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].InvoiceNumber != rows[j].InvoiceNumber {
			return rows[i].InvoiceNumber < rows[j].InvoiceNumber
		}
		return rows[i].Description < rows[j].Description
	})
	return rows
}

func exportDescription(agg *models.TicketAggregate) string {
	description := fmt.Sprintf("%d – %s [%s]", agg.TicketID, agg.Title, agg.ProductName)
	if agg.ChangeRequest {
		description += " [Change Request]"
	}
	return description
}

func contractDescription(contract *models.Contract) string {
	switch {
	case contract.InclusiveHours > 0 && contract.CarryoverHours > 0:
		return fmt.Sprintf("Support contract: %s inclusive hours per month; %s rollover hours available",
			formatHours(contract.InclusiveHours), formatHours(contract.CarryoverHours))
	case contract.InclusiveHours > 0:
		return fmt.Sprintf("Support contract: %s inclusive hours per month", formatHours(contract.InclusiveHours))
	default:
		return fmt.Sprintf("Support contract: %s rollover hours available", formatHours(contract.CarryoverHours))
	}
}

func rolloverDescription(applied, available float64) string {
	return fmt.Sprintf("Rollover credit: applied %s of %s available rollover hours",
		formatHours(applied), formatHours(available))
}

func formatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}

// WriteCSV serializes export rows in the fixed Xero column order.
func WriteCSV(w io.Writer, rows []models.ExportLineItem) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(models.ExportColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.ContactName,
			row.ContactCode,
			row.EmailAddress,
			row.POAddressLine1,
			row.POAddressLine2,
			row.POAddressLine3,
			row.POAddressLine4,
			row.POCity,
			row.PORegion,
			row.POPostalCode,
			row.POCountry,
			row.InvoiceNumber,
			row.Reference,
			row.InvoiceDate,
			row.DueDate,
			row.InventoryItemCode,
			row.Description,
			strconv.FormatFloat(row.Quantity, 'f', 2, 64),
			strconv.FormatFloat(row.UnitAmount, 'f', 2, 64),
			row.Discount,
			row.AccountCode,
			row.TaxType,
			row.TrackingName1,
			row.TrackingOption1,
			row.TrackingName2,
			row.TrackingOption2,
			row.Currency,
			row.BrandingTheme,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", row.InvoiceNumber, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
