package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afowler-mm/support-reports/internal/models"
)

func finderFixture() *fakeHelpdesk {
	helpdesk := newFakeHelpdesk()
	helpdesk.companies[1] = models.Company{
		ID: 1, Name: "Acme Corp",
		CustomFields: models.CompanyCustomFields{CompanyCode: "ACM"},
	}
	helpdesk.companies[2] = models.Company{
		ID: 2, Name: "Beta LLC",
		CustomFields: models.CompanyCustomFields{CompanyCode: "BET"},
	}
	helpdesk.tickets[100] = models.Ticket{
		ID: 100, Subject: "Older ticket", Status: 2, CompanyID: 1,
		CreatedAt: time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC),
	}
	helpdesk.tickets[101] = models.Ticket{
		ID: 101, Subject: "Newer ticket", Status: 4, CompanyID: 2,
		CreatedAt: time.Date(2025, time.June, 5, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC),
	}
	helpdesk.tickets[102] = models.Ticket{
		ID: 102, Subject: "Out of range", Status: 2, CompanyID: 1,
		CreatedAt: time.Date(2025, time.June, 5, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, time.July, 20, 9, 0, 0, 0, time.UTC),
	}
	return helpdesk
}

func TestFindSortsNewestFirst(t *testing.T) {
	svc := NewTicketFinderService(finderFixture())

	hits, err := svc.Find(context.Background(),
		time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC),
		nil)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, 101, hits[0].TicketID)
	assert.Equal(t, 100, hits[1].TicketID)
	assert.Equal(t, "Resolved", hits[0].Status)
	assert.Equal(t, "Beta LLC", hits[0].CompanyName)
	assert.Equal(t, "https://support.example.com/a/tickets/101", hits[0].URL)
}

func TestFindFiltersByClientCode(t *testing.T) {
	svc := NewTicketFinderService(finderFixture())

	hits, err := svc.Find(context.Background(),
		time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC),
		[]string{"acm"})
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, 100, hits[0].TicketID)
	assert.Equal(t, "ACM", hits[0].CompanyCode)
}

func TestFindSkipsUnresolvableCompaniesWhenFiltered(t *testing.T) {
	helpdesk := finderFixture()
	helpdesk.tickets[103] = models.Ticket{
		ID: 103, Subject: "No company", Status: 2, CompanyID: 999,
		UpdatedAt: time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC),
	}
	svc := NewTicketFinderService(helpdesk)

	hits, err := svc.Find(context.Background(),
		time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		[]string{"ACM", "BET"})
	require.NoError(t, err)

	for _, hit := range hits {
		assert.NotEqual(t, 103, hit.TicketID)
	}
}
