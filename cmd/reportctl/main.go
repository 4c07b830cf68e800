// reportctl is the operations CLI: it runs the monthly invoice export and
// report lookups from the command line, against the same configuration the
// server uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/afowler-mm/support-reports/internal/api"
	"github.com/afowler-mm/support-reports/internal/assistant"
	"github.com/afowler-mm/support-reports/internal/auth"
	"github.com/afowler-mm/support-reports/internal/cache"
	"github.com/afowler-mm/support-reports/internal/config"
	"github.com/afowler-mm/support-reports/internal/contracts"
	"github.com/afowler-mm/support-reports/internal/freshdesk"
	"github.com/afowler-mm/support-reports/internal/service"
)

var (
	version = "dev"

	configPathFlag string
	monthFlag      string
	outputFlag     string
	clientFlag     string
)

var rootCmd = &cobra.Command{
	Use:     "reportctl",
	Short:   "Support reporting and invoice export tool",
	Version: version,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Build the month's invoice CSV for the accounting import",
	RunE:  runExport,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a client's monthly report as JSON",
	RunE:  runReport,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reporting HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", ".", "Directory containing config.yaml")
	rootCmd.PersistentFlags().StringVar(&monthFlag, "month", time.Now().UTC().Format("2006-01"), "Report month (YYYY-MM)")

	exportCmd.Flags().StringVar(&outputFlag, "output", "", "Output file (default: xero-support-invoices-<month>.csv)")
	reportCmd.Flags().StringVar(&clientFlag, "client", "", "Client code (required)")
	_ = reportCmd.MarkFlagRequired("client")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	helpdesk, resolver, err := buildPipeline()
	if err != nil {
		return err
	}
	month, err := time.Parse("2006-01", monthFlag)
	if err != nil {
		return fmt.Errorf("month must be formatted YYYY-MM: %w", err)
	}

	svc := service.NewExportService(helpdesk, resolver)
	rows, err := svc.BuildExport(context.Background(), month)
	if err != nil {
		return err
	}

	output := outputFlag
	if output == "" {
		output = service.ExportFilename(month)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer f.Close()

	if err := svc.WriteCSV(f, rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(rows), output)
	return nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	helpdesk, resolver, err := buildPipeline()
	if err != nil {
		return err
	}
	month, err := time.Parse("2006-01", monthFlag)
	if err != nil {
		return fmt.Errorf("month must be formatted YYYY-MM: %w", err)
	}

	svc := service.NewReportService(helpdesk, resolver)
	report, err := svc.MonthlyReport(context.Background(), clientFlag, month)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func runServe(_ *cobra.Command, _ []string) error {
	if err := config.Load(configPathFlag); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg := config.Get()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ttl := cfg.Cache.DefaultTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	store := cache.NewMemoryStore(ttl, 10*time.Minute)

	helpdesk := freshdesk.NewClient(freshdesk.Config{
		BaseURL:   cfg.Freshdesk.BaseURL,
		PortalURL: cfg.Freshdesk.PortalURL,
		APIKey:    cfg.Freshdesk.APIKey,
		Timeout:   cfg.Freshdesk.Timeout,
	}, store)

	workbook := contracts.NewWorkbookSource(cfg.Contracts.WorkbookPath, store, ttl)
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
	return router.Run(cfg.Server.GetServerAddr())
}

func buildPipeline() (*freshdesk.Client, *contracts.Resolver, error) {
	if err := config.Load(configPathFlag); err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	cfg := config.Get()

	ttl := cfg.Cache.DefaultTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	store := cache.NewMemoryStore(ttl, 0)

	helpdesk := freshdesk.NewClient(freshdesk.Config{
		BaseURL:   cfg.Freshdesk.BaseURL,
		PortalURL: cfg.Freshdesk.PortalURL,
		APIKey:    cfg.Freshdesk.APIKey,
		Timeout:   cfg.Freshdesk.Timeout,
	}, store)

	workbook := contracts.NewWorkbookSource(cfg.Contracts.WorkbookPath, store, ttl)
	return helpdesk, contracts.NewResolver(workbook), nil
}
