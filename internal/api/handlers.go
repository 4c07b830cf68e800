package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/afowler-mm/support-reports/internal/assistant"
	"github.com/afowler-mm/support-reports/internal/auth"
	"github.com/afowler-mm/support-reports/internal/service"
)

const defaultAgingDays = 14

// Handlers bundles the services behind the HTTP API.
type Handlers struct {
	reports     *service.ReportService
	exports     *service.ExportService
	finder      *service.TicketFinderService
	watchlists  *service.WatchlistService
	assistant   *assistant.Assistant
	credentials *auth.CredentialStore
	jwtManager  *auth.JWTManager
	helpdesk    service.Helpdesk

	cookieName   string
	cookieSecure bool
	cookieTTL    time.Duration
}

// HandlerConfig wires the dependencies for NewHandlers.
type HandlerConfig struct {
	Reports     *service.ReportService
	Exports     *service.ExportService
	Finder      *service.TicketFinderService
	Watchlists  *service.WatchlistService
	Assistant   *assistant.Assistant
	Credentials *auth.CredentialStore
	JWTManager  *auth.JWTManager
	Helpdesk    service.Helpdesk

	CookieName   string
	CookieSecure bool
	CookieTTL    time.Duration
}

func NewHandlers(cfg HandlerConfig) *Handlers {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "session"
	}
	cookieTTL := cfg.CookieTTL
	if cookieTTL == 0 {
		cookieTTL = 12 * time.Hour
	}
	return &Handlers{
		reports:      cfg.Reports,
		exports:      cfg.Exports,
		finder:       cfg.Finder,
		watchlists:   cfg.Watchlists,
		assistant:    cfg.Assistant,
		credentials:  cfg.Credentials,
		jwtManager:   cfg.JWTManager,
		helpdesk:     cfg.Helpdesk,
		cookieName:   cookieName,
		cookieSecure: cfg.CookieSecure,
		cookieTTL:    cookieTTL,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleLogin checks credentials against the workbook and sets the session
// cookie. Failures are uniform 401s.
func (h *Handlers) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.credentials.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		sendError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ClientCode, user.Username, user.Role)
	if err != nil {
		log.Printf("api: issue session token: %v", err)
		sendError(c, http.StatusInternalServerError, "Could not start session")
		return
	}

	c.SetCookie(h.cookieName, token, int(h.cookieTTL.Seconds()), "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{
		"client_code": user.ClientCode,
		"role":        user.Role,
	})
}

func (h *Handlers) handleLogout(c *gin.Context) {
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// handleMonthlyReport serves the per-client monthly report. Non-admin
// sessions are pinned to their own client code regardless of the query.
func (h *Handlers) handleMonthlyReport(c *gin.Context) {
	claims := sessionClaims(c)

	clientCode := c.Query("client")
	if !claims.IsAdmin() {
		clientCode = claims.ClientCode
	}
	if clientCode == "" {
		sendError(c, http.StatusBadRequest, "client query parameter is required")
		return
	}

	month, err := parseMonth(c.DefaultQuery("month", time.Now().UTC().Format("2006-01")))
	if err != nil {
		sendError(c, http.StatusBadRequest, "month must be formatted YYYY-MM")
		return
	}

	report, err := h.reports.MonthlyReport(c.Request.Context(), clientCode, month)
	if err != nil {
		log.Printf("api: monthly report for %s: %v", clientCode, err)
		sendError(c, http.StatusBadGateway, "Could not build the report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleXeroExport streams the month's invoice CSV as a download.
func (h *Handlers) handleXeroExport(c *gin.Context) {
	month, err := parseMonth(c.Query("month"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "month must be formatted YYYY-MM")
		return
	}

	rows, err := h.exports.BuildExport(c.Request.Context(), month)
	if err != nil {
		log.Printf("api: build export for %s: %v", month.Format("2006-01"), err)
		sendError(c, http.StatusBadGateway, "Could not build the export")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.ExportFilename(month)))
	if err := h.exports.WriteCSV(c.Writer, rows); err != nil {
		log.Printf("api: stream export: %v", err)
	}
}

// handleTickets searches tickets updated within a date range. Admins may
// filter by any set of client codes; other sessions see only their own.
func (h *Handlers) handleTickets(c *gin.Context) {
	claims := sessionClaims(c)

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)
	var err error
	if raw := c.Query("start"); raw != "" {
		if start, err = time.Parse("2006-01-02", raw); err != nil {
			sendError(c, http.StatusBadRequest, "start must be formatted YYYY-MM-DD")
			return
		}
	}
	if raw := c.Query("end"); raw != "" {
		if end, err = time.Parse("2006-01-02", raw); err != nil {
			sendError(c, http.StatusBadRequest, "end must be formatted YYYY-MM-DD")
			return
		}
		end = end.AddDate(0, 0, 1).Add(-time.Second)
	}

	var clientCodes []string
	if claims.IsAdmin() {
		if raw := c.Query("clients"); raw != "" {
			clientCodes = strings.Split(raw, ",")
		}
	} else {
		clientCodes = []string{claims.ClientCode}
	}

	hits, err := h.finder.Find(c.Request.Context(), start, end, clientCodes)
	if err != nil {
		log.Printf("api: ticket search: %v", err)
		sendError(c, http.StatusBadGateway, "Could not search tickets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": hits, "count": len(hits)})
}

func (h *Handlers) handleOverEstimateWatchlist(c *gin.Context) {
	companyID, ok := parseCompanyID(c)
	if !ok {
		return
	}

	since := ""
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			sendError(c, http.StatusBadRequest, "since must be formatted YYYY-MM-DD")
			return
		}
		since = parsed.Format(time.RFC3339)
	}

	rows, err := h.watchlists.OverEstimate(c.Request.Context(), since, companyID)
	if err != nil {
		log.Printf("api: over-estimate watchlist: %v", err)
		sendError(c, http.StatusBadGateway, "Could not build the watchlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": rows, "count": len(rows)})
}

func (h *Handlers) handleAgingWatchlist(c *gin.Context) {
	days := defaultAgingDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			sendError(c, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	companyID, ok := parseCompanyID(c)
	if !ok {
		return
	}

	rows, err := h.watchlists.Aging(c.Request.Context(), days, companyID)
	if err != nil {
		log.Printf("api: aging watchlist: %v", err)
		sendError(c, http.StatusBadGateway, "Could not build the watchlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": rows, "count": len(rows)})
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// handleAssistantChat relays one conversational turn. Sessions are keyed by
// client code so a client's conversation survives page reloads.
func (h *Handlers) handleAssistantChat(c *gin.Context) {
	if h.assistant == nil {
		sendError(c, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "message is required")
		return
	}

	claims := sessionClaims(c)
	reply, err := h.assistant.Chat(c.Request.Context(), claims.ClientCode, req.Message)
	if err != nil {
		log.Printf("api: assistant chat: %v", err)
		sendError(c, http.StatusBadGateway, "Assistant is unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *Handlers) handleCacheClear(c *gin.Context) {
	if err := h.helpdesk.ClearCache(c.Request.Context()); err != nil {
		log.Printf("api: clear cache: %v", err)
		sendError(c, http.StatusInternalServerError, "Could not clear the cache")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cache cleared"})
}

func (h *Handlers) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseCompanyID reads the optional company_id query parameter; it aborts
// the request itself on a malformed value.
func parseCompanyID(c *gin.Context) (int, bool) {
	raw := c.Query("company_id")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		sendError(c, http.StatusBadRequest, "company_id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseMonth(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("month is required")
	}
	return time.Parse("2006-01", raw)
}

func sendError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
