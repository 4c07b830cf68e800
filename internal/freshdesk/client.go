// Package freshdesk wraps the helpdesk REST API: static-token auth,
// Link-header cursor pagination, and a TTL cache keyed by call arguments in
// front of every request.
package freshdesk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/afowler-mm/support-reports/internal/cache"
	"github.com/afowler-mm/support-reports/internal/models"
)

const (
	defaultTimeout = 30 * time.Second

	// TTLs mirror how often the upstream data actually changes: listings
	// hourly, near-static records (agents, groups, contacts) weekly.
	listTTL   = time.Hour
	lookupTTL = 7 * 24 * time.Hour
)

// Client is a read-only helpdesk API client shared across requests.
type Client struct {
	baseURL    string
	portalURL  string
	apiKey     string
	httpClient *http.Client
	store      cache.Store
}

// Config holds the client connection settings.
type Config struct {
	BaseURL   string
	PortalURL string
	APIKey    string
	Timeout   time.Duration
}

// NewClient creates a helpdesk client. The store may not be nil; callers
// that want no caching should pass a MemoryStore with a tiny TTL.
func NewClient(cfg Config, store cache.Store) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		portalURL:  strings.TrimRight(cfg.PortalURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
	}
}

// TicketURL returns the portal link for a ticket, used in report tables.
func (c *Client) TicketURL(ticketID int) string {
	return fmt.Sprintf("%s/support/tickets/%d", c.portalURL, ticketID)
}

// get performs one authenticated GET and returns the body and the Link
// header (for pagination).
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.SetBasicAuth(c.apiKey, "X")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response from %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("helpdesk API returned %d for %s", resp.StatusCode, rawURL)
	}
	return body, resp.Header.Get("Link"), nil
}

// nextPageURL extracts the cursor from a Link header of the form
// <https://...>; rel="next". Returns "" when there is no next page.
func nextPageURL(linkHeader string) string {
	if linkHeader == "" || !strings.Contains(linkHeader, `rel="next"`) {
		return ""
	}
	part := strings.SplitN(linkHeader, ";", 2)[0]
	return strings.Trim(strings.TrimSpace(part), "<>")
}

// getPaginated follows the Link-header cursor and concatenates all pages of
// a JSON array response.
func (c *Client) getPaginated(ctx context.Context, rawURL string) ([]byte, error) {
	var all []json.RawMessage
	for rawURL != "" {
		body, link, err := c.get(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		var page []json.RawMessage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode page from %s: %w", rawURL, err)
		}
		all = append(all, page...)
		rawURL = nextPageURL(link)
	}
	return json.Marshal(all)
}

// cachedList fetches a paginated listing through the cache and decodes it
// into out (a pointer to a slice).
func (c *Client) cachedList(ctx context.Context, key, rawURL string, ttl time.Duration, out interface{}) error {
	data, err := cache.GetOrFetch(ctx, c.store, key, ttl, func() ([]byte, error) {
		return c.getPaginated(ctx, rawURL)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// cachedGet fetches a single resource through the cache.
func (c *Client) cachedGet(ctx context.Context, key, rawURL string, ttl time.Duration, out interface{}) error {
	data, err := cache.GetOrFetch(ctx, c.store, key, ttl, func() ([]byte, error) {
		body, _, err := c.get(ctx, rawURL)
		return body, err
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Companies lists every company.
func (c *Client) Companies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := c.cachedList(ctx, "companies", c.baseURL+"/companies", listTTL, &companies)
	return companies, err
}

// CompanyByID fetches one company.
func (c *Client) CompanyByID(ctx context.Context, companyID int) (*models.Company, error) {
	var company models.Company
	key := fmt.Sprintf("company:%d", companyID)
	u := fmt.Sprintf("%s/companies/%d", c.baseURL, companyID)
	if err := c.cachedGet(ctx, key, u, listTTL, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// CompanyByCode scans the company list for a matching company code.
func (c *Client) CompanyByCode(ctx context.Context, companyCode string) (*models.Company, error) {
	companies, err := c.Companies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range companies {
		if companies[i].CustomFields.CompanyCode == companyCode {
			return &companies[i], nil
		}
	}
	return nil, fmt.Errorf("company not found for client code %q", companyCode)
}

// Products lists the product catalog.
func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := c.cachedList(ctx, "products", c.baseURL+"/products", listTTL, &products)
	return products, err
}

// ProductOptions returns the catalog as an id-to-name map.
func (c *Client) ProductOptions(ctx context.Context) (map[int]string, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	options := make(map[int]string, len(products))
	for _, p := range products {
		options[p.ID] = p.Name
	}
	return options, nil
}

// TimeEntries lists time entries executed within [start, end] (YYYY-MM-DD),
// optionally filtered to one company.
func (c *Client) TimeEntries(ctx context.Context, start, end string, companyID int) ([]models.TimeEntry, error) {
	u := fmt.Sprintf("%s/time_entries?executed_after=%s&executed_before=%s",
		c.baseURL, url.QueryEscape(start), url.QueryEscape(end))
	key := fmt.Sprintf("time_entries:%s:%s", start, end)
	if companyID != 0 {
		u += fmt.Sprintf("&company_id=%d", companyID)
		key += fmt.Sprintf(":%d", companyID)
	}

	var entries []models.TimeEntry
	err := c.cachedList(ctx, key, u, listTTL, &entries)
	return entries, err
}

// TimeEntriesForTicket lists every time entry logged against one ticket.
func (c *Client) TimeEntriesForTicket(ctx context.Context, ticketID int) ([]models.TimeEntry, error) {
	u := fmt.Sprintf("%s/tickets/%d/time_entries", c.baseURL, ticketID)
	key := fmt.Sprintf("ticket_time_entries:%d", ticketID)

	var entries []models.TimeEntry
	err := c.cachedList(ctx, key, u, listTTL, &entries)
	return entries, err
}

// Tickets lists tickets updated since the given timestamp, newest first.
// An empty updatedSince defaults to the last 90 days.
func (c *Client) Tickets(ctx context.Context, updatedSince string) ([]models.Ticket, error) {
	if updatedSince == "" {
		updatedSince = time.Now().UTC().AddDate(0, 0, -90).Format("2006-01-02T15:04:05Z")
	}
	u := fmt.Sprintf("%s/tickets/?per_page=100&order_by=updated_at&order_type=desc&updated_since=%s",
		c.baseURL, url.QueryEscape(updatedSince))
	key := "tickets:" + updatedSince

	var tickets []models.Ticket
	err := c.cachedList(ctx, key, u, listTTL, &tickets)
	return tickets, err
}

// Ticket fetches one ticket snapshot.
func (c *Client) Ticket(ctx context.Context, ticketID int) (*models.Ticket, error) {
	var ticket models.Ticket
	key := fmt.Sprintf("ticket:%d", ticketID)
	u := fmt.Sprintf("%s/tickets/%d", c.baseURL, ticketID)
	if err := c.cachedGet(ctx, key, u, listTTL, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Agent fetches one agent record.
func (c *Client) Agent(ctx context.Context, agentID int) (*models.Agent, error) {
	var agent models.Agent
	key := fmt.Sprintf("agent:%d", agentID)
	u := fmt.Sprintf("%s/agents/%d", c.baseURL, agentID)
	if err := c.cachedGet(ctx, key, u, lookupTTL, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// Group fetches one agent group.
func (c *Client) Group(ctx context.Context, groupID int) (*models.Group, error) {
	var group models.Group
	key := fmt.Sprintf("group:%d", groupID)
	u := fmt.Sprintf("%s/groups/%d", c.baseURL, groupID)
	if err := c.cachedGet(ctx, key, u, lookupTTL, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// Contact fetches one requester record.
func (c *Client) Contact(ctx context.Context, contactID int) (*models.Contact, error) {
	var contact models.Contact
	key := fmt.Sprintf("contact:%d", contactID)
	u := fmt.Sprintf("%s/contacts/%d", c.baseURL, contactID)
	if err := c.cachedGet(ctx, key, u, lookupTTL, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// ClearCache drops every cached helpdesk response.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.store.Clear(ctx)
}
