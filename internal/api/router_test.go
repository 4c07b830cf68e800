package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afowler-mm/support-reports/internal/auth"
	"github.com/afowler-mm/support-reports/internal/contracts"
	"github.com/afowler-mm/support-reports/internal/models"
	"github.com/afowler-mm/support-reports/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubHelpdesk serves canned data for handler tests.
type stubHelpdesk struct {
	companies    map[int]models.Company
	tickets      map[int]models.Ticket
	timeEntries  []models.TimeEntry
	cacheCleared bool
}

func (s *stubHelpdesk) Companies(_ context.Context) ([]models.Company, error) {
	out := make([]models.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubHelpdesk) CompanyByID(_ context.Context, id int) (*models.Company, error) {
	if c, ok := s.companies[id]; ok {
		return &c, nil
	}
	return nil, fmt.Errorf("company %d not found", id)
}

func (s *stubHelpdesk) CompanyByCode(_ context.Context, code string) (*models.Company, error) {
	for _, c := range s.companies {
		if c.CustomFields.CompanyCode == code {
			company := c
			return &company, nil
		}
	}
	return nil, fmt.Errorf("company not found for client code %q", code)
}

func (s *stubHelpdesk) ProductOptions(_ context.Context) (map[int]string, error) {
	return map[int]string{}, nil
}

func (s *stubHelpdesk) TimeEntries(_ context.Context, _, _ string, companyID int) ([]models.TimeEntry, error) {
	if companyID == 0 {
		return s.timeEntries, nil
	}
	var out []models.TimeEntry
	for _, e := range s.timeEntries {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubHelpdesk) TimeEntriesForTicket(_ context.Context, ticketID int) ([]models.TimeEntry, error) {
	var out []models.TimeEntry
	for _, e := range s.timeEntries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubHelpdesk) Tickets(_ context.Context, _ string) ([]models.Ticket, error) {
	out := make([]models.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t)
	}
	return out, nil
}

func (s *stubHelpdesk) Ticket(_ context.Context, id int) (*models.Ticket, error) {
	if t, ok := s.tickets[id]; ok {
		return &t, nil
	}
	return nil, fmt.Errorf("ticket %d not found", id)
}

func (s *stubHelpdesk) Agent(_ context.Context, id int) (*models.Agent, error) {
	return nil, fmt.Errorf("agent %d not found", id)
}

func (s *stubHelpdesk) Group(_ context.Context, id int) (*models.Group, error) {
	return nil, fmt.Errorf("group %d not found", id)
}

func (s *stubHelpdesk) Contact(_ context.Context, id int) (*models.Contact, error) {
	return nil, fmt.Errorf("contact %d not found", id)
}

func (s *stubHelpdesk) TicketURL(ticketID int) string {
	return fmt.Sprintf("https://support.example.com/a/tickets/%d", ticketID)
}

func (s *stubHelpdesk) ClearCache(_ context.Context) error {
	s.cacheCleared = true
	return nil
}

type testEnv struct {
	router   *gin.Engine
	helpdesk *stubHelpdesk
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	rate := 150.0
	helpdesk := &stubHelpdesk{
		companies: map[int]models.Company{
			1: {
				ID:   1,
				Name: "Acme Corp",
				CustomFields: models.CompanyCustomFields{
					CompanyCode:        "ACM",
					ContractHourlyRate: &rate,
					InclusiveHours:     5,
				},
			},
			2: {
				ID:   2,
				Name: "Beta LLC",
				CustomFields: models.CompanyCustomFields{
					CompanyCode:        "BET",
					ContractHourlyRate: &rate,
				},
			},
		},
		tickets: map[int]models.Ticket{
			100: {
				ID: 100, Subject: "Checkout broken", Status: 2, CompanyID: 1,
				UpdatedAt:    time.Now().UTC().Add(-time.Hour),
				CustomFields: models.TicketCustomFields{BillingStatus: "Billable"},
			},
		},
		timeEntries: []models.TimeEntry{
			{ID: 1, TicketID: 100, CompanyID: 1, TimeSpentInSeconds: 7200, Billable: true},
		},
	}

	source := contracts.NewMemorySource().AddTab("Login credentials", contracts.Grid{
		{"Username", "Password", "Client code"},
		{"acme", "hunter2", "ACM"},
		{"ops", "letmein", "admin"},
	})
	resolver := contracts.NewResolver(source)

	jwtManager := auth.NewJWTManager("test-secret", "", time.Hour)
	handlers := NewHandlers(HandlerConfig{
		Reports:     service.NewReportService(helpdesk, resolver),
		Exports:     service.NewExportService(helpdesk, resolver),
		Finder:      service.NewTicketFinderService(helpdesk),
		Watchlists:  service.NewWatchlistService(helpdesk),
		Credentials: auth.NewCredentialStore(source, "Login credentials"),
		JWTManager:  jwtManager,
		Helpdesk:    helpdesk,
		CookieName:  "session",
	})

	router := NewRouter(handlers, NewAuthMiddleware(jwtManager, "session"))
	return &testEnv{router: router, helpdesk: helpdesk}
}

func (env *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "session" {
			return cookie.Value
		}
	}
	t.Fatal("no session cookie set")
	return ""
}

func (env *testEnv) get(token, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	env.router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.get("", "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"acme","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMonthlyReportRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	w := env.get("", "/api/reports/monthly?month=2025-06")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMonthlyReportPinsClientSessions(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "acme", "hunter2")

	// A client session asking for another client still gets its own report.
	w := env.get(token, "/api/reports/monthly?client=BET&month="+time.Now().UTC().Format("2006-01"))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Summary models.MonthlySummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ACM", body.Summary.CompanyCode)
	assert.Equal(t, 2.0, body.Summary.TotalHours)
}

func TestMonthlyReportAdminPicksClient(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "ops", "letmein")

	w := env.get(token, "/api/reports/monthly?client=ACM&month="+time.Now().UTC().Format("2006-01"))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Summary models.MonthlySummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ACM", body.Summary.CompanyCode)
}

func TestMonthlyReportRejectsBadMonth(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "ops", "letmein")

	w := env.get(token, "/api/reports/monthly?client=ACM&month=June-2025")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestXeroExportIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	clientToken := env.login(t, "acme", "hunter2")
	w := env.get(clientToken, "/api/exports/xero?month=2025-06")
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken := env.login(t, "ops", "letmein")
	w = env.get(adminToken, "/api/exports/xero?month=2025-06")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "xero-support-invoices-2025-06.csv")
	assert.Contains(t, w.Body.String(), "ContactName")
}

func TestTicketSearchScopedToOwnClient(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "acme", "hunter2")

	w := env.get(token, "/api/tickets?clients=BET")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Tickets []service.TicketHit `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	for _, hit := range body.Tickets {
		assert.Equal(t, "ACM", hit.CompanyCode)
	}
}

func TestAgingWatchlistValidatesDays(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "ops", "letmein")

	w := env.get(token, "/api/watchlists/aging?days=zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.get(token, "/api/watchlists/aging?days=14")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCacheClear(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "ops", "letmein")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.helpdesk.cacheCleared)
}

func TestAssistantUnconfigured(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "acme", "hunter2")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/assistant/chat",
		strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
