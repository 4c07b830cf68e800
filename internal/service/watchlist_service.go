package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/afowler-mm/support-reports/internal/models"
)

// agingExcludedStatuses are ticket statuses that never appear on the aging
// watchlist: parked, resolved, closed, waiting on customer, and deferred.
var agingExcludedStatuses = map[int]bool{
	3:  true,
	4:  true,
	5:  true,
	6:  true,
	12: true,
}

// WatchlistService builds the operational watchlists over recently updated
// tickets: work running past its estimate, and unresolved tickets going stale.
type WatchlistService struct {
	helpdesk Helpdesk
	now      func() time.Time
}

// NewWatchlistService creates a watchlist service.
func NewWatchlistService(helpdesk Helpdesk) *WatchlistService {
	return &WatchlistService{helpdesk: helpdesk, now: time.Now}
}

// OverEstimate lists tickets whose tracked time exceeds their estimate,
// worst overrun percentage first. updatedSince narrows the scan (empty means
// the helpdesk client's default window); a non-zero companyID restricts the
// list to one client. Tickets with no parseable positive estimate are
// skipped; a failed time lookup skips the ticket rather than failing the
// whole list.
func (s *WatchlistService) OverEstimate(ctx context.Context, updatedSince string, companyID int) ([]models.OverEstimateTicket, error) {
	tickets, err := s.helpdesk.Tickets(ctx, updatedSince)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	rows := make([]models.OverEstimateTicket, 0)
	for _, t := range tickets {
		if companyID != 0 && t.CompanyID != companyID {
			continue
		}
		estimate, ok := parseEstimate(t.CustomFields.EstimateHours)
		if !ok || estimate <= 0 {
			continue
		}

		entries, err := s.helpdesk.TimeEntriesForTicket(ctx, t.ID)
		if err != nil {
			log.Printf("watchlist: time entries for ticket %d: %v", t.ID, err)
			continue
		}
		var total float64
		for _, e := range entries {
			total += e.Hours()
		}
		if total <= estimate {
			continue
		}

		rows = append(rows, models.OverEstimateTicket{
			TicketID:      t.ID,
			Subject:       t.Subject,
			Status:        models.StatusName(t.Status),
			CompanyName:   s.companyName(ctx, t.CompanyID),
			AgentName:     s.agentName(ctx, t.ResponderID),
			GroupName:     s.groupName(ctx, t.GroupID),
			EstimateHours: estimate,
			TotalHours:    total,
			OverBy:        total - estimate,
			OverByPercent: (total - estimate) / estimate * 100,
			CreatedAt:     t.CreatedAt.Format(time.RFC3339),
			UpdatedAt:     t.UpdatedAt.Format(time.RFC3339),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].OverByPercent > rows[j].OverByPercent
	})
	return rows, nil
}

// Aging lists tickets in an active status with no update for at least
// minDays, stalest first. A non-zero companyID restricts the list to one
// client.
func (s *WatchlistService) Aging(ctx context.Context, minDays, companyID int) ([]models.AgingTicket, error) {
	tickets, err := s.helpdesk.Tickets(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	cutoff := s.now().AddDate(0, 0, -minDays)
	rows := make([]models.AgingTicket, 0)
	for _, t := range tickets {
		if companyID != 0 && t.CompanyID != companyID {
			continue
		}
		if agingExcludedStatuses[t.Status] {
			continue
		}
		if t.UpdatedAt.After(cutoff) {
			continue
		}

		rows = append(rows, models.AgingTicket{
			TicketID:        t.ID,
			Subject:         t.Subject,
			Status:          models.StatusName(t.Status),
			CompanyName:     s.companyName(ctx, t.CompanyID),
			AgentName:       s.agentName(ctx, t.ResponderID),
			GroupName:       s.groupName(ctx, t.GroupID),
			TicketType:      t.CustomFields.TicketType,
			DaysSinceUpdate: int(s.now().Sub(t.UpdatedAt).Hours() / 24),
			CreatedAt:       t.CreatedAt.Format(time.RFC3339),
			UpdatedAt:       t.UpdatedAt.Format(time.RFC3339),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DaysSinceUpdate > rows[j].DaysSinceUpdate
	})
	return rows, nil
}

func (s *WatchlistService) companyName(ctx context.Context, companyID int) string {
	if companyID != 0 {
		if company, err := s.helpdesk.CompanyByID(ctx, companyID); err == nil {
			return company.Name
		}
	}
	return "Unknown"
}

func (s *WatchlistService) agentName(ctx context.Context, agentID int) string {
	if agentID != 0 {
		if agent, err := s.helpdesk.Agent(ctx, agentID); err == nil {
			return agent.Contact.Name
		}
	}
	return "Unassigned"
}

func (s *WatchlistService) groupName(ctx context.Context, groupID int) string {
	if groupID != 0 {
		if group, err := s.helpdesk.Group(ctx, groupID); err == nil {
			return group.Name
		}
	}
	return "None"
}

// parseEstimate reads the free-text estimate field. Values like "4", "2.5",
// and "3 hours" all parse; anything without a leading number does not.
func parseEstimate(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	fields := strings.Fields(raw)
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
