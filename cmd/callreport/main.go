// callreport — FDIC call-report data retrieval and caching engine.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/finquarry/callreport/api"
	"github.com/finquarry/callreport/internal/config"
	"github.com/finquarry/callreport/internal/fdic"
	"github.com/finquarry/callreport/internal/logging"
	"github.com/finquarry/callreport/internal/report"
	"github.com/finquarry/callreport/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, populated by PersistentPreRunE.
var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "callreport",
	Short: "callreport — FDIC call-report data retrieval and caching engine",
	Long: `callreport retrieves quarterly bank call-report financials from the
FDIC BankFind-style API, normalizes and validates them, derives
standard profitability and capital ratios, and caches responses
locally to keep repeated queries off the provider.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		log = logging.New(level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(ratiosCmd)
	rootCmd.AddCommand(qualityCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(analysisTypesCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// newEngine builds the retrieval engine from the loaded config.
func newEngine() (*fdic.Engine, error) {
	eng, err := fdic.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("engine setup failed: %w", err)
	}
	return eng, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("callreport %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [cert]...",
	Short: "Fetch quarterly financials for one or more institutions",
	Long: `Fetch normalized call-report financials for one or more FDIC cert
numbers. Multiple certs are fetched concurrently.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analysisType, _ := cmd.Flags().GetString("analysis")
		quarters, _ := cmd.Flags().GetInt("quarters")
		reportDate, _ := cmd.Flags().GetString("date")
		asJSON, _ := cmd.Flags().GetBool("json")

		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		var mu sync.Mutex
		results := make(map[string]*models.APIResponse, len(args))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for _, cert := range args {
			cert := cert
			g.Go(func() error {
				resp := eng.GetFinancialData(gctx, fdic.Request{
					CertID:       cert,
					AnalysisType: analysisType,
					Quarters:     quarters,
					ReportDate:   reportDate,
				})
				mu.Lock()
				results[cert] = resp
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(results)
		}

		certs := make([]string, 0, len(results))
		for cert := range results {
			certs = append(certs, cert)
		}
		sort.Strings(certs)

		failed := 0
		for _, cert := range certs {
			resp := results[cert]
			if !resp.Success {
				failed++
				fmt.Printf("cert %s: FAILED — %s\n\n", cert, resp.ErrorMessage)
				continue
			}
			fmt.Print(report.RenderText(report.Build(cert, resp.Records)))
			if resp.SkippedCount > 0 {
				fmt.Printf("(%d malformed records skipped)\n", resp.SkippedCount)
			}
			if resp.Cached {
				fmt.Println("(served from cache)")
			}
			fmt.Println()
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d fetches failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("analysis", "", "analysis type (basic_info, profitability, capital_adequacy, asset_quality, liquidity, key_ratios, comprehensive)")
	fetchCmd.Flags().Int("quarters", 4, "number of quarters to retrieve")
	fetchCmd.Flags().String("date", "", "exact report date filter (YYYYMMDD)")
	fetchCmd.Flags().Bool("json", false, "emit raw JSON instead of a formatted summary")
}

// --- Ratios Command ---

var ratiosCmd = &cobra.Command{
	Use:   "ratios [cert]",
	Short: "Show reported and derived ratios for an institution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		resp := eng.GetFinancialData(cmd.Context(), fdic.Request{
			CertID:       args[0],
			AnalysisType: "key_ratios",
			Quarters:     1,
		})
		if !resp.Success {
			return fmt.Errorf("fetch failed: %s", resp.ErrorMessage)
		}
		if len(resp.Records) == 0 {
			return fmt.Errorf("no financial records for cert %s", args[0])
		}

		rec := &resp.Records[0]
		fmt.Printf("Cert %s — %s\n\n", args[0], rec.ReportDate.Format("2006-01-02"))

		fmt.Println("Reported:")
		printRatio("Return on assets", rec.ROA)
		printRatio("Return on equity", rec.ROE)
		printRatio("Net interest margin", rec.NetInterestMargin)
		printRatio("Leverage ratio", rec.LeverageRatio)
		printRatio("Tier 1 risk-based ratio", rec.Tier1RiskRatio)
		printRatio("Total risk-based ratio", rec.TotalRiskRatio)
		printRatio("Nonperforming assets", rec.NonperformingRatio)

		derived := fdic.DeriveRatios(rec)
		if len(derived) > 0 {
			fmt.Println("\nDerived:")
			keys := make([]string, 0, len(derived))
			for k := range derived {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %-28s %8.2f%%\n", k, derived[k])
			}
		}
		return nil
	},
}

func printRatio(label string, v *float64) {
	if v == nil {
		fmt.Printf("  %-28s %8s\n", label, "—")
		return
	}
	fmt.Printf("  %-28s %8.2f%%\n", label, *v)
}

// --- Quality Command ---

var qualityCmd = &cobra.Command{
	Use:   "quality [cert]",
	Short: "Assess data completeness for an institution's latest filing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		resp := eng.GetFinancialData(cmd.Context(), fdic.Request{
			CertID:   args[0],
			Quarters: 1,
		})
		if !resp.Success {
			return fmt.Errorf("fetch failed: %s", resp.ErrorMessage)
		}
		if len(resp.Records) == 0 {
			return fmt.Errorf("no financial records for cert %s", args[0])
		}

		rec := &resp.Records[0]
		q := fdic.AssessQuality(rec)
		fmt.Printf("Cert %s — %s\n", args[0], rec.ReportDate.Format("2006-01-02"))
		fmt.Printf("  Quality:    %s\n", q.Tier)
		fmt.Printf("  Fields:     %d (%.0f%% of catalog)\n", q.FieldCount, q.CoveragePct)
		if len(q.MissingRequired) > 0 {
			fmt.Printf("  Missing:    %v\n", q.MissingRequired)
		}
		return nil
	},
}

// --- Summary Command ---

var summaryCmd = &cobra.Command{
	Use:   "summary [cert]",
	Short: "Render a multi-quarter call-report summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quarters, _ := cmd.Flags().GetInt("quarters")
		htmlOut, _ := cmd.Flags().GetString("html")

		eng, err := newEngine()
		if err != nil {
			return err
		}

		resp := eng.GetFinancialData(cmd.Context(), fdic.Request{
			CertID:   args[0],
			Quarters: quarters,
		})
		if !resp.Success {
			return fmt.Errorf("fetch failed: %s", resp.ErrorMessage)
		}

		summary := report.Build(args[0], resp.Records)
		if htmlOut != "" {
			html, err := report.RenderHTML(summary)
			if err != nil {
				return fmt.Errorf("rendering summary: %w", err)
			}
			if err := os.WriteFile(htmlOut, html, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", htmlOut, err)
			}
			fmt.Printf("Summary written to %s\n", htmlOut)
			return nil
		}
		fmt.Print(report.RenderText(summary))
		return nil
	},
}

func init() {
	summaryCmd.Flags().Int("quarters", 4, "number of quarters to include")
	summaryCmd.Flags().String("html", "", "write an HTML summary to this file instead of printing text")
}

// --- Analysis Types Command ---

var analysisTypesCmd = &cobra.Command{
	Use:   "analysis-types",
	Short: "List available analysis types and their field sets",
	Run: func(cmd *cobra.Command, args []string) {
		types := fdic.AnalysisTypes()
		names := make([]string, 0, len(types))
		for name := range types {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			marker := ""
			if name == fdic.DefaultAnalysisType {
				marker = " (default)"
			}
			fmt.Printf("%s%s\n", name, marker)

			fields := types[name]
			codes := make([]string, 0, len(fields))
			for code := range fields {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			for _, code := range codes {
				fmt.Printf("  %-10s %s\n", code, fields[code])
			}
			fmt.Println()
		}
	},
}

// --- Health Command ---

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check provider connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		if !eng.HealthCheck(ctx) {
			return fmt.Errorf("provider unreachable at %s", cfg.Provider.BaseURL)
		}
		fmt.Printf("Provider OK (%s)\n", cfg.Provider.BaseURL)
		return nil
	},
}

// --- Cache Command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the response cache configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Response cache:")
		fmt.Printf("  TTL (success): %s\n", cfg.Cache.TTL())
		fmt.Printf("  TTL (error):   %s\n", cfg.Cache.ErrorTTL())
		fmt.Printf("  Max entries:   %d\n", cfg.Cache.MaxEntries)
		fmt.Println("\nThe cache is in-process; live occupancy is visible on a")
		fmt.Println("running server at GET /api/v1/cache/stats.")
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		log.Info().Str("addr", addr).Msg("starting API server")

		srv := api.NewServer(cfg, eng, log)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  callreport — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Provider:     %s%s\n", cfg.Provider.BaseURL, cfg.Provider.FinancialsEndpoint)
		fmt.Printf("    Timeout:      %s\n", cfg.Provider.Timeout())
		fmt.Printf("    Rate limit:   %d req/s\n", cfg.Provider.RateLimit)
		fmt.Printf("    Cache TTL:    %s (errors: %s)\n", cfg.Cache.TTL(), cfg.Cache.ErrorTTL())
		fmt.Printf("    API Server:   %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set (public rate limits apply)"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
