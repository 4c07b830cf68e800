package billing

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/afowler-mm/support-reports/internal/models"
)

// MetadataSource supplies the ticket, requester, and company lookups the
// aggregator needs. The helpdesk client satisfies it; tests use a fake.
type MetadataSource interface {
	Ticket(ctx context.Context, ticketID int) (*models.Ticket, error)
	Contact(ctx context.Context, contactID int) (*models.Contact, error)
	CompanyByID(ctx context.Context, companyID int) (*models.Company, error)
}

// metadataCache memoizes per-ticket lookups within one aggregation run so a
// ticket with many time entries is fetched once.
type metadataCache struct {
	src     MetadataSource
	tickets map[int]*models.Ticket
}

func newMetadataCache(src MetadataSource) *metadataCache {
	return &metadataCache{src: src, tickets: make(map[int]*models.Ticket)}
}

func (mc *metadataCache) ticket(ctx context.Context, ticketID int) (*models.Ticket, error) {
	if t, ok := mc.tickets[ticketID]; ok {
		return t, nil
	}
	t, err := mc.src.Ticket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	mc.tickets[ticketID] = t
	return t, nil
}

// AggregateByTicket groups time entries by ticket for the monthly report
// view, summing tracked and classified billable hours. Entries without a
// ticket id are skipped; a failed ticket lookup skips that entry but the
// rest of the batch proceeds. Descriptive fields are last-write-wins across
// entries of the same ticket.
func AggregateByTicket(ctx context.Context, entries []models.TimeEntry, src MetadataSource, products map[int]string) []*models.TicketAggregate {
	cache := newMetadataCache(src)
	buckets := make(map[int]*models.TicketAggregate)

	for _, entry := range entries {
		if entry.TicketID == 0 {
			continue
		}

		ticket, err := cache.ticket(ctx, entry.TicketID)
		if err != nil {
			log.Printf("billing: skipping entry %d, ticket %d lookup failed: %v", entry.ID, entry.TicketID, err)
			continue
		}

		agg, ok := buckets[entry.TicketID]
		if !ok {
			agg = &models.TicketAggregate{TicketID: entry.TicketID}
			buckets[entry.TicketID] = agg
		}

		agg.TotalHours += entry.Hours()
		agg.BillableHours += Classify(entry, *ticket, products)

		agg.Title = subjectOrDefault(ticket)
		agg.ProductName = ProductName(products, ticket.ProductID)
		agg.BillingStatus = billingStatusOrDefault(ticket)
		agg.ChangeRequest = ticket.CustomFields.ChangeRequest
		agg.TicketType = ticket.CustomFields.TicketType
		agg.Category = ticket.CustomFields.Category
		agg.RequesterName = requesterName(ctx, cache.src, ticket)
	}

	return sortedAggregates(buckets)
}

// AggregateForExport groups time entries per ticket with the client-level
// attributes the export needs: company code, hourly rate, currency, and the
// period's invoice number. Rows for companies that cannot be resolved keep
// the sentinel code and are filtered out by the export builder.
func AggregateForExport(ctx context.Context, entries []models.TimeEntry, src MetadataSource, products map[int]string, month time.Time) []*models.TicketAggregate {
	cache := newMetadataCache(src)
	buckets := make(map[int]*models.TicketAggregate)

	for _, entry := range entries {
		if entry.TicketID == 0 {
			continue
		}

		ticket, err := cache.ticket(ctx, entry.TicketID)
		if err != nil {
			log.Printf("billing: skipping entry %d, ticket %d lookup failed: %v", entry.ID, entry.TicketID, err)
			continue
		}

		agg, ok := buckets[entry.TicketID]
		if !ok {
			agg = &models.TicketAggregate{TicketID: entry.TicketID}
			buckets[entry.TicketID] = agg
		}

		agg.TotalHours += entry.Hours()
		agg.BillableHours += Classify(entry, *ticket, products)

		agg.Title = subjectOrDefault(ticket)
		agg.ProductName = ProductName(products, ticket.ProductID)
		agg.ChangeRequest = ticket.CustomFields.ChangeRequest
		agg.Currency = currencyOrDefault(ticket)

		company := companyOrNil(ctx, cache.src, ticket)
		if company != nil {
			agg.CompanyName = company.Name
			agg.CompanyCode = company.CustomFields.CompanyCode
			agg.HourlyRate = company.CustomFields.ContractHourlyRate
		} else {
			agg.CompanyName = "Unknown"
		}
		if agg.CompanyCode == "" {
			agg.CompanyCode = models.UnknownCompanyCode
		}
		// Company rate wins; the ticket-level rate is the fallback for
		// clients billed at a one-off rate.
		if agg.HourlyRate == nil {
			agg.HourlyRate = ticket.CustomFields.ContractHourlyRate
		}
		if agg.CompanyCode != models.UnknownCompanyCode {
			agg.InvoiceNumber = InvoiceNumber(agg.CompanyCode, month)
		}
	}

	return sortedAggregates(buckets)
}

// InvoiceNumber builds the per-client invoice reference for a month:
// "S-{code}{YY}{M}" with the year and month taken from the month's last day.
func InvoiceNumber(companyCode string, month time.Time) string {
	lastDay := lastDayOfMonth(month)
	return fmt.Sprintf("S-%s%s%d", companyCode, lastDay.Format("06"), int(lastDay.Month()))
}

func lastDayOfMonth(date time.Time) time.Time {
	firstOfNext := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

func sortedAggregates(buckets map[int]*models.TicketAggregate) []*models.TicketAggregate {
	aggregates := make([]*models.TicketAggregate, 0, len(buckets))
	for _, agg := range buckets {
		aggregates = append(aggregates, agg)
	}
	sort.Slice(aggregates, func(i, j int) bool {
		return aggregates[i].TicketID < aggregates[j].TicketID
	})
	return aggregates
}

func subjectOrDefault(ticket *models.Ticket) string {
	if ticket.Subject == "" {
		return "No subject"
	}
	return ticket.Subject
}

func billingStatusOrDefault(ticket *models.Ticket) string {
	if ticket.CustomFields.BillingStatus == "" {
		return "Unknown"
	}
	return ticket.CustomFields.BillingStatus
}

func currencyOrDefault(ticket *models.Ticket) string {
	if ticket.CustomFields.Currency == "" {
		return "USD"
	}
	return ticket.CustomFields.Currency
}

// requesterName degrades to "Unknown" when the contact lookup fails; one bad
// requester never aborts the batch.
func requesterName(ctx context.Context, src MetadataSource, ticket *models.Ticket) string {
	if ticket.RequesterID == 0 {
		return "Unknown"
	}
	contact, err := src.Contact(ctx, ticket.RequesterID)
	if err != nil || contact.Name == "" {
		return "Unknown"
	}
	return contact.Name
}

// companyOrNil degrades to nil when the company lookup fails.
func companyOrNil(ctx context.Context, src MetadataSource, ticket *models.Ticket) *models.Company {
	if ticket.CompanyID == 0 {
		return nil
	}
	company, err := src.CompanyByID(ctx, ticket.CompanyID)
	if err != nil {
		return nil
	}
	return company
}
