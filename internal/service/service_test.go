package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/afowler-mm/support-reports/internal/contracts"
	"github.com/afowler-mm/support-reports/internal/models"
)

// fakeHelpdesk implements Helpdesk from in-memory maps.
type fakeHelpdesk struct {
	companies   map[int]models.Company
	tickets     map[int]models.Ticket
	contacts    map[int]models.Contact
	agents      map[int]models.Agent
	groups      map[int]models.Group
	products    map[int]string
	timeEntries []models.TimeEntry
	ticketTime  map[int][]models.TimeEntry

	ticketsErr     error
	timeEntriesErr error
	cacheCleared   bool
}

func newFakeHelpdesk() *fakeHelpdesk {
	return &fakeHelpdesk{
		companies:  make(map[int]models.Company),
		tickets:    make(map[int]models.Ticket),
		contacts:   make(map[int]models.Contact),
		agents:     make(map[int]models.Agent),
		groups:     make(map[int]models.Group),
		products:   make(map[int]string),
		ticketTime: make(map[int][]models.TimeEntry),
	}
}

func (f *fakeHelpdesk) Companies(_ context.Context) ([]models.Company, error) {
	out := make([]models.Company, 0, len(f.companies))
	for _, c := range f.companies {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeHelpdesk) CompanyByID(_ context.Context, id int) (*models.Company, error) {
	if c, ok := f.companies[id]; ok {
		return &c, nil
	}
	return nil, fmt.Errorf("company %d not found", id)
}

func (f *fakeHelpdesk) CompanyByCode(_ context.Context, code string) (*models.Company, error) {
	for _, c := range f.companies {
		if c.CustomFields.CompanyCode == code {
			company := c
			return &company, nil
		}
	}
	return nil, fmt.Errorf("company not found for client code %q", code)
}

func (f *fakeHelpdesk) ProductOptions(_ context.Context) (map[int]string, error) {
	return f.products, nil
}

func (f *fakeHelpdesk) TimeEntries(_ context.Context, _, _ string, companyID int) ([]models.TimeEntry, error) {
	if f.timeEntriesErr != nil {
		return nil, f.timeEntriesErr
	}
	if companyID == 0 {
		return f.timeEntries, nil
	}
	var out []models.TimeEntry
	for _, e := range f.timeEntries {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeHelpdesk) TimeEntriesForTicket(_ context.Context, ticketID int) ([]models.TimeEntry, error) {
	entries, ok := f.ticketTime[ticketID]
	if !ok {
		return nil, errors.New("time entries unavailable")
	}
	return entries, nil
}

func (f *fakeHelpdesk) Tickets(_ context.Context, _ string) ([]models.Ticket, error) {
	if f.ticketsErr != nil {
		return nil, f.ticketsErr
	}
	out := make([]models.Ticket, 0, len(f.tickets))
	for _, t := range f.tickets {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeHelpdesk) Ticket(_ context.Context, id int) (*models.Ticket, error) {
	if t, ok := f.tickets[id]; ok {
		return &t, nil
	}
	return nil, fmt.Errorf("ticket %d not found", id)
}

func (f *fakeHelpdesk) Agent(_ context.Context, id int) (*models.Agent, error) {
	if a, ok := f.agents[id]; ok {
		return &a, nil
	}
	return nil, fmt.Errorf("agent %d not found", id)
}

func (f *fakeHelpdesk) Group(_ context.Context, id int) (*models.Group, error) {
	if g, ok := f.groups[id]; ok {
		return &g, nil
	}
	return nil, fmt.Errorf("group %d not found", id)
}

func (f *fakeHelpdesk) Contact(_ context.Context, id int) (*models.Contact, error) {
	if c, ok := f.contacts[id]; ok {
		return &c, nil
	}
	return nil, fmt.Errorf("contact %d not found", id)
}

func (f *fakeHelpdesk) TicketURL(ticketID int) string {
	return fmt.Sprintf("https://support.example.com/a/tickets/%d", ticketID)
}

func (f *fakeHelpdesk) ClearCache(_ context.Context) error {
	f.cacheCleared = true
	return nil
}

func ratePtr(v float64) *float64 { return &v }

// contractGrid builds a minimal fiscal-year tab with one client row:
// inclusive hours in column 2, a May column at 7 whose carry-over sub-column
// sits at 9 so a June lookup reads mayCarry.
func contractGrid(clientLabel, inclusive, mayCarry string) contracts.Grid {
	monthRow := make([]string, 20)
	monthRow[7] = "May 2025"
	monthRow[12] = "June 2025"

	subRow := make([]string, 20)
	subRow[9] = "Carry over to next month"
	subRow[14] = "Carry over to next month"

	clientRow := make([]string, 20)
	clientRow[0] = clientLabel
	clientRow[2] = inclusive
	clientRow[9] = mayCarry

	return contracts.Grid{monthRow, subRow, {}, {}, clientRow}
}

func fixedNow() time.Time {
	return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}
