package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/dvloznov/invoice-ingest/internal/archive"
	"github.com/dvloznov/invoice-ingest/internal/config"
	"github.com/dvloznov/invoice-ingest/internal/docintel"
	infra "github.com/dvloznov/invoice-ingest/internal/infra/bigquery"
	"github.com/dvloznov/invoice-ingest/internal/logger"
	"github.com/dvloznov/invoice-ingest/internal/notionsync"
	"github.com/dvloznov/invoice-ingest/internal/pipeline"
	"github.com/dvloznov/invoice-ingest/internal/registry"
	"github.com/dvloznov/invoice-ingest/internal/report"
	"github.com/rs/zerolog"
)

var monthArgRe = regexp.MustCompile(`^\d{2}$`)

func main() {
	log := logger.New()

	args := os.Args[1:]
	command := "process"
	if len(args) > 0 {
		switch args[0] {
		case "process", "check-nip", "migrate", "help", "-h", "--help":
			command = args[0]
			args = args[1:]
		default:
			// A bare month argument means "process that month".
			if !monthArgRe.MatchString(args[0]) {
				fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
				printUsage()
				os.Exit(1)
			}
		}
	}

	switch command {
	case "process":
		runProcess(log, args)
	case "check-nip":
		runCheckNIP(log, args)
	case "migrate":
		runMigrate(log)
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Faktury - invoice batch processing")
	fmt.Println("\nUsage:")
	fmt.Println("  faktury [command] [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  process [month]   Analyze, validate and file invoices for a month")
	fmt.Println("                    (default command; month defaults to the previous month)")
	fmt.Println("  check-nip         Look up a single NIP in the VAT white-list registry")
	fmt.Println("  migrate           Create the BigQuery dataset and invoices table")
	fmt.Println("  help              Show this help message")
}

func runProcess(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	fs.Parse(args)

	year, month := previousMonth(time.Now())
	if fs.Arg(0) != "" {
		if !monthArgRe.MatchString(fs.Arg(0)) {
			log.Fatal().Str("month", fs.Arg(0)).Msg("month must be a two-digit string like 03")
		}
		month = fs.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	batch := pipeline.NewBatch(
		cfg.InvoicesPath,
		newAnalyzer(log, cfg),
		pipeline.NewReconciler(registry.New(cfg.NIPRegistryURL)),
		report.NewXLSXWriter(),
	)
	if cfg.GCSArchiveBucket != "" {
		batch.Archiver = archive.NewGCSArchiver(cfg.GCSArchiveBucket)
	}
	if cfg.BigQueryProject != "" {
		batch.Sinks = append(batch.Sinks, infra.NewSink(cfg.BigQueryProject, cfg.BigQueryDataset))
	}
	if cfg.NotionToken != "" {
		batch.Sinks = append(batch.Sinks, notionsync.NewSyncer(notionsync.NewNotionClient(cfg.NotionToken), cfg.NotionDatabaseID))
	}

	log.Info().Str("year", year).Str("month", month).Msg("processing invoice batch")

	records, err := batch.Run(ctx, pipeline.BillingPeriod{Year: year, Month: month})
	if err != nil {
		log.Fatal().Err(err).Msg("batch failed")
	}

	fmt.Printf("Processed %d invoices for %s-%s.\n", len(records), year, month)
}

func runCheckNIP(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("check-nip", flag.ExitOnError)
	nip := fs.String("nip", "", "tax identifier to check")
	fs.Parse(args)

	if *nip == "" {
		log.Fatal().Msg("Error: --nip is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	status, err := registry.New(cfg.NIPRegistryURL).CheckStatus(ctx, *nip, time.Now().Format("2006-01-02"))
	if err != nil {
		log.Fatal().Err(err).Msg("registry lookup failed")
	}

	fmt.Printf("NIP %s: %s\n", *nip, status)
	if status != pipeline.VATStatusActive {
		os.Exit(1)
	}
}

func runMigrate(log zerolog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.BigQueryProject == "" {
		log.Fatal().Msg("Error: BIGQUERY_PROJECT is required for migrate")
	}

	ctx := logger.WithContext(context.Background(), log)

	sink := infra.NewSink(cfg.BigQueryProject, cfg.BigQueryDataset)
	if err := sink.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	fmt.Printf("Dataset %s is ready.\n", cfg.BigQueryDataset)
}

// previousMonth returns the year and month preceding now's month. The year
// is always taken from that previous month, so a January run files December
// invoices under the old year.
func previousMonth(now time.Time) (year, month string) {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prev := firstOfMonth.AddDate(0, -1, 0)
	return prev.Format("2006"), prev.Format("01")
}

func newAnalyzer(log zerolog.Logger, cfg *config.Config) pipeline.DocumentAnalyzer {
	switch cfg.Analyzer {
	case config.AnalyzerGemini:
		return pipeline.NewGeminiAnalyzer(cfg.GeminiModel)
	default:
		return docintel.New(cfg.DocIntelEndpoint, cfg.DocIntelAPIKey)
	}
}
