package service

import (
	"context"
	"fmt"
	"time"

	"github.com/afowler-mm/support-reports/internal/billing"
	"github.com/afowler-mm/support-reports/internal/contracts"
	"github.com/afowler-mm/support-reports/internal/models"
)

// MonthlyReport is the on-screen report for one client and month.
type MonthlyReport struct {
	Summary models.MonthlySummary     `json:"summary"`
	Tickets []*models.TicketAggregate `json:"tickets"`
}

// ReportService builds monthly usage reports.
type ReportService struct {
	helpdesk Helpdesk
	resolver *contracts.Resolver
	now      func() time.Time
}

// NewReportService creates a report service.
func NewReportService(helpdesk Helpdesk, resolver *contracts.Resolver) *ReportService {
	return &ReportService{helpdesk: helpdesk, resolver: resolver, now: time.Now}
}

// MonthlyReport assembles the report for clientCode and the month containing
// month: time entries aggregated per ticket, reconciled against the client's
// contract. A missing company is the only hard failure; contract resolution
// problems degrade to the company-record fallback with a note.
func (s *ReportService) MonthlyReport(ctx context.Context, clientCode string, month time.Time) (*MonthlyReport, error) {
	company, err := s.helpdesk.CompanyByCode(ctx, clientCode)
	if err != nil {
		return nil, fmt.Errorf("look up client %q: %w", clientCode, err)
	}

	products, err := s.helpdesk.ProductOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load product catalog: %w", err)
	}

	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := contracts.LastDayOfMonth(start)
	entries, err := s.helpdesk.TimeEntries(ctx, start.Format("2006-01-02"), end.Format("2006-01-02"), company.ID)
	if err != nil {
		return nil, fmt.Errorf("load time entries: %w", err)
	}

	aggregates := billing.AggregateByTicket(ctx, entries, s.helpdesk, products)
	contract := s.resolver.ResolveWithFallback(ctx, clientCode, start, company)
	summary := billing.Summarize(aggregates, contract, company, start, s.now())

	return &MonthlyReport{Summary: summary, Tickets: aggregates}, nil
}
