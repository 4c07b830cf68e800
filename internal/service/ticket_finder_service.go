package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/afowler-mm/support-reports/internal/models"
)

// TicketHit is one row of a ticket search result.
type TicketHit struct {
	TicketID    int    `json:"id"`
	Subject     string `json:"subject"`
	Status      string `json:"status"`
	CompanyName string `json:"company"`
	CompanyCode string `json:"company_code"`
	TicketType  string `json:"ticket_type"`
	Category    string `json:"category"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	URL         string `json:"url"`
}

// TicketFinderService searches recently updated tickets across clients.
type TicketFinderService struct {
	helpdesk Helpdesk
}

// NewTicketFinderService creates a ticket finder.
func NewTicketFinderService(helpdesk Helpdesk) *TicketFinderService {
	return &TicketFinderService{helpdesk: helpdesk}
}

// Find returns tickets updated in [start, end], newest update first. When
// clientCodes is non-empty only tickets belonging to those clients are kept;
// tickets with no resolvable company are kept only when no filter is set.
func (s *TicketFinderService) Find(ctx context.Context, start, end time.Time, clientCodes []string) ([]TicketHit, error) {
	tickets, err := s.helpdesk.Tickets(ctx, start.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	wanted := make(map[string]bool, len(clientCodes))
	for _, code := range clientCodes {
		code = strings.TrimSpace(code)
		if code != "" {
			wanted[strings.ToUpper(code)] = true
		}
	}

	companyNames := make(map[int]string)
	companyCodes := make(map[int]string)

	hits := make([]TicketHit, 0, len(tickets))
	for _, t := range tickets {
		if t.UpdatedAt.After(end) {
			continue
		}

		code, name := "", ""
		if t.CompanyID != 0 {
			if cached, ok := companyCodes[t.CompanyID]; ok {
				code, name = cached, companyNames[t.CompanyID]
			} else if company, err := s.helpdesk.CompanyByID(ctx, t.CompanyID); err == nil {
				code, name = company.CustomFields.CompanyCode, company.Name
				companyCodes[t.CompanyID] = code
				companyNames[t.CompanyID] = name
			}
		}
		if len(wanted) > 0 && !wanted[strings.ToUpper(code)] {
			continue
		}

		hits = append(hits, TicketHit{
			TicketID:    t.ID,
			Subject:     t.Subject,
			Status:      models.StatusName(t.Status),
			CompanyName: name,
			CompanyCode: code,
			TicketType:  t.CustomFields.TicketType,
			Category:    t.CustomFields.Category,
			CreatedAt:   t.CreatedAt.Format(time.RFC3339),
			UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
			URL:         s.helpdesk.TicketURL(t.ID),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].UpdatedAt > hits[j].UpdatedAt
	})
	return hits, nil
}
