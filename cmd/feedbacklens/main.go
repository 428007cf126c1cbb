package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/TobiSchelling/feedbacklens/internal/collect"
	"github.com/TobiSchelling/feedbacklens/internal/config"
	"github.com/TobiSchelling/feedbacklens/internal/database"
	"github.com/TobiSchelling/feedbacklens/internal/feedback"
	"github.com/TobiSchelling/feedbacklens/internal/fetch"
	"github.com/TobiSchelling/feedbacklens/internal/pipeline"
	"github.com/TobiSchelling/feedbacklens/internal/sentiment"
	"github.com/TobiSchelling/feedbacklens/internal/server"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "feedbacklens",
	Short:   "Batch feedback analysis",
	Long:    "feedbacklens cleans, scores, categorizes and mines feedback documents into insight and recommendation reports.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		switch strings.ToUpper(cfg.Logging.Level) {
		case "WARN", "WARNING", "ERROR":
			if !verbose {
				log.SetOutput(io.Discard)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("feedbacklens", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/feedbacklens/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, thresholds and report formats.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and batch status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Batches:")
		fmt.Printf("  Total: %d\n", stats.TotalBatches)
		fmt.Printf("  Completed: %d\n", stats.CompletedBatches)
		fmt.Printf("  Failed: %d\n", stats.FailedBatches)
		fmt.Println("\nDocuments:")
		fmt.Printf("  Received: %d\n", stats.DocumentsReceived)
		fmt.Printf("  Processed: %d\n", stats.DocumentsProcessed)
		fmt.Printf("  Rejected: %d\n", stats.Rejections)
		fmt.Println("\nOutput:")
		fmt.Printf("  Reports: %d\n", stats.Reports)

		counts := sentiment.DefaultLexicon().Counts()
		tables := make([]string, 0, len(counts))
		for name := range counts {
			tables = append(tables, name)
		}
		sort.Strings(tables)
		fmt.Println("\nSentiment lexicon:")
		for _, name := range tables {
			fmt.Printf("  %s: %d\n", name, counts[name])
		}

		recent, err := db.GetRecentBatches(5)
		if err != nil {
			return fmt.Errorf("getting recent batches: %w", err)
		}
		if len(recent) > 0 {
			fmt.Println("\nRecent batches:")
			for _, b := range recent {
				line := fmt.Sprintf("  %s  %-10s  %d/%d documents", b.ID, b.Status, b.ProcessedCount, b.DocumentCount)
				if b.Error != nil {
					line += "  (" + *b.Error + ")"
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

// --- analyze command ---

var (
	dryRun       bool
	includeFeeds bool
	fetchContent bool
	outputDir    string
	formats      []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Analyze feedback files: validate -> clean -> sentiment -> categorize -> insights -> recommendations -> report",
	Long: `Analyze feedback documents from files and/or configured feeds.

Files may be a JSON array, a single JSON object or newline-delimited JSON.
Any other file is analyzed as one document. Use "-" to read JSON from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !includeFeeds {
			return fmt.Errorf("no input: pass feedback files or --feed")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		docs, err := gatherDocuments(ctx, args)
		if err != nil {
			return err
		}

		if fetchContent {
			fetcher := fetch.NewContentFetcher(time.Duration(cfg.Input.FetchTimeoutSec) * time.Second)
			var fr *fetch.Result
			docs, fr = fetcher.FetchMissingContent(ctx, docs)
			fmt.Printf("Fetched content for %d documents (%d failed)\n", fr.Fetched, fr.Failed())
		}

		var db *database.DB
		if !dryRun {
			db, err = openDB()
			if err != nil {
				return err
			}
			defer db.Close()
		}

		pipe := pipeline.New(cfg, db)
		dir := outputDir
		if dir == "" {
			dir = cfg.GetReportDir()
		}
		outFormats := formats
		if len(outFormats) == 0 {
			outFormats = cfg.Output.Formats
		}
		pipe.SetOutput(dir, outFormats)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(docs)
		} else {
			result = pipe.Run(ctx, docs)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if dryRun {
			return result.Err
		}

		printStats(result)
		if result.Err != nil {
			return fmt.Errorf("batch %s failed: %w", result.BatchID, result.Err)
		}

		fmt.Printf("\nBatch %s complete.\n", result.BatchID)
		for _, p := range result.ReportPaths {
			fmt.Printf("  Wrote %s\n", p)
		}
		fmt.Println("Run 'feedbacklens serve' to browse reports.")
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate input and show the planned steps without analyzing")
	analyzeCmd.Flags().BoolVar(&includeFeeds, "feed", false, "Also collect documents from configured feeds")
	analyzeCmd.Flags().BoolVar(&fetchContent, "fetch", false, "Fetch page content for documents that only carry a URL")
	analyzeCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for report files (default from config)")
	analyzeCmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "Report formats: json, markdown, html (default from config)")
}

func gatherDocuments(ctx context.Context, args []string) ([]feedback.Document, error) {
	var docs []feedback.Document
	var paths []string
	for _, a := range args {
		if a != "-" {
			paths = append(paths, a)
			continue
		}
		stdin, err := collect.Load(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		docs = append(docs, stdin...)
	}

	collector := collect.NewCollector(cfg)
	collected, result := collector.Collect(ctx, paths, includeFeeds)
	docs = append(docs, collected...)

	fmt.Printf("Collected %d documents", len(docs))
	if result.FilesFailed > 0 {
		fmt.Printf(" (%d files failed)", result.FilesFailed)
	}
	fmt.Println()

	if len(result.Sources) > 0 {
		// Sort sources by count descending
		type kv struct {
			key string
			val int
		}
		var sorted []kv
		for k, v := range result.Sources {
			sorted = append(sorted, kv{k, v})
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
		for _, s := range sorted {
			fmt.Printf("  %s: %d\n", s.key, s.val)
		}
	}

	if len(paths) > 0 && result.FilesFailed == len(paths) && len(docs) == 0 {
		return nil, fmt.Errorf("no input files could be read")
	}
	return docs, nil
}

func printStats(r *pipeline.Result) {
	s := r.Stats
	fmt.Println("\nStatistics:")
	fmt.Printf("  Documents: %d received, %d processed, %d rejected\n", s.DocumentsReceived, s.DocumentsProcessed, s.Rejected())
	fmt.Printf("  Insights: %d, recommendations: %d\n", s.InsightCount, s.RecommendationCount)
	fmt.Printf("  Average confidence: %.1f%%, average quality: %.2f\n", s.AverageConfidence*100, s.AverageQuality)
	fmt.Printf("  Elapsed: %.2fs\n", s.ElapsedSeconds)
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server and batch API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if !cmd.Flags().Changed("port") && cfg.Server.Port != 0 {
			port = cfg.Server.Port
		}

		pipe := pipeline.New(cfg, db)
		pipe.SetOutput(cfg.GetReportDir(), cfg.Output.Formats)

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, pipe, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- reports command ---

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List and show stored reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.GetAllReports()
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("No reports yet. Create one with: feedbacklens analyze <files>")
			return nil
		}

		fmt.Println("Reports:")
		fmt.Println()
		for _, r := range items {
			fmt.Printf("  %s  %s\n", r.ReportID, r.GeneratedAt)
			fmt.Printf("        %d documents, %d insights, %d recommendations\n",
				r.DocumentCount, r.InsightCount, r.RecommendationCount)
		}
		return nil
	},
}

var showJSON bool

var reportsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a report (latest if no ID is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var id string
		if len(args) == 1 {
			id = args[0]
		} else {
			items, err := db.GetAllReports()
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("no reports stored")
			}
			id = items[0].ReportID
		}

		rep, err := db.GetReport(id)
		if err != nil {
			return err
		}
		if rep == nil {
			return fmt.Errorf("report %s: %w", id, feedback.ErrNotFound)
		}

		if showJSON {
			fmt.Print(rep.ReportJSON)
		} else {
			fmt.Print(rep.Markdown)
		}
		return nil
	},
}

func init() {
	reportsShowCmd.Flags().BoolVar(&showJSON, "json", false, "Print the report JSON instead of markdown")
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "feedbacklens.db")
	return database.Open(dbPath)
}
