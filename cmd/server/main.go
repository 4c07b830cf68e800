package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/afowler-mm/support-reports/internal/api"
	"github.com/afowler-mm/support-reports/internal/assistant"
	"github.com/afowler-mm/support-reports/internal/auth"
	"github.com/afowler-mm/support-reports/internal/cache"
	"github.com/afowler-mm/support-reports/internal/config"
	"github.com/afowler-mm/support-reports/internal/contracts"
	"github.com/afowler-mm/support-reports/internal/freshdesk"
	"github.com/afowler-mm/support-reports/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}
	if err := config.Load(configPath); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.Get()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store := buildCacheStore(cfg)

	helpdesk := freshdesk.NewClient(freshdesk.Config{
		BaseURL:   cfg.Freshdesk.BaseURL,
		PortalURL: cfg.Freshdesk.PortalURL,
		APIKey:    cfg.Freshdesk.APIKey,
		Timeout:   cfg.Freshdesk.Timeout,
	}, store)

	workbook := contracts.NewWorkbookSource(cfg.Contracts.WorkbookPath, store, cfg.Cache.DefaultTTL)
	resolver := contracts.NewResolver(workbook)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.TTL)

	var bot *assistant.Assistant
	if cfg.Assistant.Enabled && cfg.Assistant.APIKey != "" {
		bot = assistant.New(assistant.Config{
			APIKey:    cfg.Assistant.APIKey,
			Model:     cfg.Assistant.Model,
			MaxTokens: cfg.Assistant.MaxTokens,
		})
	}

	handlers := api.NewHandlers(api.HandlerConfig{
		Reports:      service.NewReportService(helpdesk, resolver),
		Exports:      service.NewExportService(helpdesk, resolver),
		Finder:       service.NewTicketFinderService(helpdesk),
		Watchlists:   service.NewWatchlistService(helpdesk),
		Assistant:    bot,
		Credentials:  auth.NewCredentialStore(workbook, cfg.Contracts.CredentialsTab),
		JWTManager:   jwtManager,
		Helpdesk:     helpdesk,
		CookieName:   cfg.Auth.Session.CookieName,
		CookieSecure: cfg.Auth.Session.Secure,
		CookieTTL:    cfg.Auth.JWT.TTL,
	})

	router := api.NewRouter(handlers, api.NewAuthMiddleware(jwtManager, cfg.Auth.Session.CookieName))

	addr := cfg.Server.GetServerAddr()
	log.Printf("Starting %s on %s", cfg.App.Name, addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}

// buildCacheStore selects the cache backend. Redis failures fall back to the
// in-process store so a cache outage never takes the service down.
func buildCacheStore(cfg *config.Config) cache.Store {
	ttl := cfg.Cache.DefaultTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	if cfg.Cache.Backend == "redis" {
		store, err := cache.NewRedisStore(&cache.RedisConfig{
			Addr:       cfg.Cache.GetRedisAddr(),
			Password:   cfg.Cache.Redis.Password,
			DB:         cfg.Cache.Redis.DB,
			KeyPrefix:  cfg.Cache.Redis.Prefix,
			DefaultTTL: ttl,
		})
		if err == nil {
			return store
		}
		log.Printf("Redis cache unavailable, using in-process cache: %v", err)
	}
	return cache.NewMemoryStore(ttl, 10*time.Minute)
}
