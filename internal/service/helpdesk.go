// Package service orchestrates the reporting pipeline: it fetches helpdesk
// data, runs the billing aggregation and reconciliation, and shapes results
// for the HTTP layer. Everything here is recomputed per call; the only state
// is the TTL cache inside the helpdesk client.
package service

import (
	"context"

	"github.com/afowler-mm/support-reports/internal/models"
)

// Helpdesk is the surface of the helpdesk API client the services consume.
// *freshdesk.Client satisfies it; tests use a fake.
type Helpdesk interface {
	Companies(ctx context.Context) ([]models.Company, error)
	CompanyByID(ctx context.Context, companyID int) (*models.Company, error)
	CompanyByCode(ctx context.Context, companyCode string) (*models.Company, error)
	ProductOptions(ctx context.Context) (map[int]string, error)
	TimeEntries(ctx context.Context, start, end string, companyID int) ([]models.TimeEntry, error)
	TimeEntriesForTicket(ctx context.Context, ticketID int) ([]models.TimeEntry, error)
	Tickets(ctx context.Context, updatedSince string) ([]models.Ticket, error)
	Ticket(ctx context.Context, ticketID int) (*models.Ticket, error)
	Agent(ctx context.Context, agentID int) (*models.Agent, error)
	Group(ctx context.Context, groupID int) (*models.Group, error)
	Contact(ctx context.Context, contactID int) (*models.Contact, error)
	TicketURL(ticketID int) string
	ClearCache(ctx context.Context) error
}
