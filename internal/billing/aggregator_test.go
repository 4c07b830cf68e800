package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afowler-mm/support-reports/internal/models"
)

// fakeMetadata is an in-memory MetadataSource. Absent ids return errors,
// mimicking helpdesk lookup misses.
type fakeMetadata struct {
	tickets     map[int]models.Ticket
	contacts    map[int]models.Contact
	companies   map[int]models.Company
	ticketCalls int
}

func (f *fakeMetadata) Ticket(_ context.Context, id int) (*models.Ticket, error) {
	f.ticketCalls++
	t, ok := f.tickets[id]
	if !ok {
		return nil, errors.New("ticket not found")
	}
	return &t, nil
}

func (f *fakeMetadata) Contact(_ context.Context, id int) (*models.Contact, error) {
	c, ok := f.contacts[id]
	if !ok {
		return nil, errors.New("contact not found")
	}
	return &c, nil
}

func (f *fakeMetadata) CompanyByID(_ context.Context, id int) (*models.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return nil, errors.New("company not found")
	}
	return &c, nil
}

func rate(v float64) *float64 { return &v }

func newFakeMetadata() *fakeMetadata {
	return &fakeMetadata{
		tickets: map[int]models.Ticket{
			100: {
				ID: 100, Subject: "Checkout is broken", CompanyID: 1, ProductID: 3, RequesterID: 50,
				CustomFields: models.TicketCustomFields{BillingStatus: "Open"},
			},
			101: {
				ID: 101, Subject: "Add seating chart", CompanyID: 1, ProductID: 3, RequesterID: 51,
				CustomFields: models.TicketCustomFields{BillingStatus: "Open", ChangeRequest: true},
			},
			102: {
				ID: 102, CompanyID: 9, ProductID: 3,
				CustomFields: models.TicketCustomFields{BillingStatus: "Open"},
			},
		},
		contacts: map[int]models.Contact{
			50: {ID: 50, Name: "Dana Ops"},
		},
		companies: map[int]models.Company{
			1: {
				ID: 1, Name: "Acme Theatre Co",
				CustomFields: models.CompanyCustomFields{
					CompanyCode:        "ACM",
					ContractHourlyRate: rate(150),
					Currency:           "USD",
				},
			},
		},
	}
}

func TestAggregateByTicket(t *testing.T) {
	ctx := context.Background()
	src := newFakeMetadata()

	entries := []models.TimeEntry{
		{ID: 1, TicketID: 100, TimeSpentInSeconds: 3600, Billable: true},
		{ID: 2, TicketID: 100, TimeSpentInSeconds: 1800, Billable: false},
		{ID: 3, TicketID: 101, TimeSpentInSeconds: 7200, Billable: false},
		{ID: 4, TicketID: 0, TimeSpentInSeconds: 3600, Billable: true},    // no ticket: skipped
		{ID: 5, TicketID: 999, TimeSpentInSeconds: 3600, Billable: true},  // lookup miss: skipped
	}

	aggregates := AggregateByTicket(ctx, entries, src, testProducts)
	require.Len(t, aggregates, 2)

	checkout := aggregates[0]
	assert.Equal(t, 100, checkout.TicketID)
	assert.InDelta(t, 1.5, checkout.TotalHours, 1e-9)
	assert.InDelta(t, 1.0, checkout.BillableHours, 1e-9) // only the billable entry
	assert.Equal(t, "Checkout is broken", checkout.Title)
	assert.Equal(t, "Dana Ops", checkout.RequesterName)
	assert.Equal(t, "StageDoor", checkout.ProductName)

	cr := aggregates[1]
	assert.Equal(t, 101, cr.TicketID)
	assert.InDelta(t, 2.0, cr.BillableHours, 1e-9) // change request bills in full
	assert.True(t, cr.ChangeRequest)
	// Contact 51 is unknown; enrichment degrades rather than failing.
	assert.Equal(t, "Unknown", cr.RequesterName)
}

func TestAggregateByTicketCachesTicketLookups(t *testing.T) {
	ctx := context.Background()
	src := newFakeMetadata()

	entries := []models.TimeEntry{
		{ID: 1, TicketID: 100, TimeSpentInSeconds: 3600, Billable: true},
		{ID: 2, TicketID: 100, TimeSpentInSeconds: 3600, Billable: true},
		{ID: 3, TicketID: 100, TimeSpentInSeconds: 3600, Billable: true},
	}

	AggregateByTicket(ctx, entries, src, testProducts)
	assert.Equal(t, 1, src.ticketCalls)
}

func TestAggregateByTicketOrderIndependent(t *testing.T) {
	ctx := context.Background()

	entries := []models.TimeEntry{
		{ID: 1, TicketID: 100, TimeSpentInSeconds: 3600, Billable: true},
		{ID: 2, TicketID: 101, TimeSpentInSeconds: 7200, Billable: false},
		{ID: 3, TicketID: 100, TimeSpentInSeconds: 900, Billable: true},
	}
	reversed := []models.TimeEntry{entries[2], entries[1], entries[0]}

	a := AggregateByTicket(ctx, entries, newFakeMetadata(), testProducts)
	b := AggregateByTicket(ctx, reversed, newFakeMetadata(), testProducts)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].TicketID, b[i].TicketID)
		assert.InDelta(t, a[i].TotalHours, b[i].TotalHours, 1e-9)
		assert.InDelta(t, a[i].BillableHours, b[i].BillableHours, 1e-9)
	}
}

func TestAggregateForExport(t *testing.T) {
	ctx := context.Background()
	src := newFakeMetadata()
	month := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	entries := []models.TimeEntry{
		{ID: 1, TicketID: 100, TimeSpentInSeconds: 3600, Billable: true},
		{ID: 2, TicketID: 102, TimeSpentInSeconds: 3600, Billable: true}, // company 9 unknown
	}

	aggregates := AggregateForExport(ctx, entries, src, testProducts, month)
	require.Len(t, aggregates, 2)

	acme := aggregates[0]
	assert.Equal(t, "ACM", acme.CompanyCode)
	assert.Equal(t, "Acme Theatre Co", acme.CompanyName)
	require.NotNil(t, acme.HourlyRate)
	assert.Equal(t, 150.0, *acme.HourlyRate)
	assert.Equal(t, "S-ACM256", acme.InvoiceNumber)

	orphan := aggregates[1]
	assert.Equal(t, models.UnknownCompanyCode, orphan.CompanyCode)
	assert.Equal(t, "Unknown", orphan.CompanyName)
	assert.Empty(t, orphan.InvoiceNumber)
}

func TestInvoiceNumber(t *testing.T) {
	// The month token comes from the last day of the selected month: two
	// digit year, month without leading zero.
	assert.Equal(t, "S-ACM256", InvoiceNumber("ACM", time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "S-ACM2510", InvoiceNumber("ACM", time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "S-NYT2512", InvoiceNumber("NYT", time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "S-NYT261", InvoiceNumber("NYT", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
}
