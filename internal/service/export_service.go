package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/afowler-mm/support-reports/internal/billing"
	"github.com/afowler-mm/support-reports/internal/contracts"
	"github.com/afowler-mm/support-reports/internal/models"
)

// ExportService builds the accounting-system bulk-invoice CSV for a month,
// across every client with time tracked in the period.
type ExportService struct {
	helpdesk Helpdesk
	resolver *contracts.Resolver
}

// NewExportService creates an export service.
func NewExportService(helpdesk Helpdesk, resolver *contracts.Resolver) *ExportService {
	return &ExportService{helpdesk: helpdesk, resolver: resolver}
}

// BuildExport aggregates the month's time entries per ticket and client and
// synthesizes the export row set, contract and rollover-credit lines
// included. Clients without a resolvable code or hourly rate drop out of the
// export; their retainer arrangements are invoiced by hand.
func (s *ExportService) BuildExport(ctx context.Context, month time.Time) ([]models.ExportLineItem, error) {
	products, err := s.helpdesk.ProductOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load product catalog: %w", err)
	}

	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := contracts.LastDayOfMonth(start)
	entries, err := s.helpdesk.TimeEntries(ctx, start.Format("2006-01-02"), end.Format("2006-01-02"), 0)
	if err != nil {
		return nil, fmt.Errorf("load time entries: %w", err)
	}

	aggregates := billing.AggregateForExport(ctx, entries, s.helpdesk, products, start)

	contractsByClient := make(map[string]*models.Contract)
	for _, agg := range aggregates {
		code := agg.CompanyCode
		if code == "" || code == models.UnknownCompanyCode {
			continue
		}
		if _, done := contractsByClient[code]; done {
			continue
		}
		company, err := s.helpdesk.CompanyByCode(ctx, code)
		if err != nil {
			company = nil
		}
		contractsByClient[code] = s.resolver.ResolveWithFallback(ctx, code, start, company)
	}

	return billing.BuildExportRows(aggregates, contractsByClient, start), nil
}

// WriteCSV streams an export as CSV in the fixed column order.
func (s *ExportService) WriteCSV(w io.Writer, rows []models.ExportLineItem) error {
	return billing.WriteCSV(w, rows)
}

// ExportFilename names the download for a month.
func ExportFilename(month time.Time) string {
	return fmt.Sprintf("xero-support-invoices-%s.csv", month.Format("2006-01"))
}
