package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/invoice-ingest/internal/logger"
	"github.com/google/uuid"
)

// Batch orchestrates one billing period: it discovers input files, feeds
// them through the analyzer and reconciler, renames the sources, writes the
// summary spreadsheet and finally hands the records to any configured sinks.
//
// Processing is strictly sequential; records are appended in input file
// enumeration order, and renames are never rolled back.
type Batch struct {
	BasePath   string
	Analyzer   DocumentAnalyzer
	Reconciler *Reconciler
	Writer     ReportWriter

	// Optional. Archiver uploads each renamed file, Sinks receive the
	// finished records after the spreadsheet is written.
	Archiver Archiver
	Sinks    []RecordSink
}

func NewBatch(basePath string, analyzer DocumentAnalyzer, reconciler *Reconciler, writer ReportWriter) *Batch {
	return &Batch{
		BasePath:   basePath,
		Analyzer:   analyzer,
		Reconciler: reconciler,
		Writer:     writer,
	}
}

// Run processes every invoice file of the period and returns the validated
// records in output-row order. A document that fails reconciliation is
// logged and skipped; an analyzer, rename, registry transport or spreadsheet
// error aborts the whole run.
func (b *Batch) Run(ctx context.Context, period BillingPeriod) ([]*InvoiceRecord, error) {
	log := logger.FromContext(ctx)
	batchID := uuid.NewString()

	dir := filepath.Join(b.BasePath, period.Year, period.Month)
	files, err := listInvoiceFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("batch %s/%s: %w", period.Year, period.Month, err)
	}

	log.Info().
		Str("batch_id", batchID).
		Str("dir", dir).
		Int("files", len(files)).
		Msg("starting invoice batch")

	var records []*InvoiceRecord
	for _, file := range files {
		fileRecords, err := b.processFile(ctx, file, period)
		if err != nil {
			return nil, err
		}
		records = append(records, fileRecords...)
	}

	outPath := filepath.Join(dir, fmt.Sprintf("%s-%s-faktury.xlsx", period.Year, period.Month))
	if err := b.Writer.Write(outPath, records); err != nil {
		return nil, fmt.Errorf("writing summary %s: %w", outPath, err)
	}
	log.Info().Str("path", outPath).Int("rows", len(records)).Msg("wrote summary spreadsheet")

	for _, sink := range b.Sinks {
		if err := sink.InsertRecords(ctx, batchID, period, records); err != nil {
			return nil, fmt.Errorf("record sink: %w", err)
		}
	}

	return records, nil
}

// processFile analyzes a single source file and reconciles every invoice it
// contains. The source is renamed once, after the first invoice of the file
// reconciles; additional invoices from the same file share the generated
// name.
func (b *Batch) processFile(ctx context.Context, path string, period BillingPeriod) ([]*InvoiceRecord, error) {
	log := logger.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	docs, err := b.Analyzer.Analyze(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", path, err)
	}

	var (
		records []*InvoiceRecord
		renamed string
	)
	for _, doc := range docs {
		rec, err := b.Reconciler.Reconcile(ctx, doc, period)
		if err != nil {
			var missing *MissingFieldError
			if errors.As(err, &missing) {
				log.Error().Err(err).Str("file", path).Msg("skipping document with incomplete analysis result")
				continue
			}
			return nil, err
		}

		if renamed == "" {
			newName := GenerateFileName(period.Year, period.Month, rec.VendorName, rec.InvoiceNumber)
			newPath := filepath.Join(filepath.Dir(path), newName)
			if err := os.Rename(path, newPath); err != nil {
				return nil, fmt.Errorf("renaming %s: %w", path, err)
			}
			log.Info().Str("from", path).Str("to", newPath).Msg("renamed invoice file")

			if b.Archiver != nil {
				if err := b.Archiver.Store(ctx, period, newPath); err != nil {
					return nil, fmt.Errorf("archiving %s: %w", newPath, err)
				}
			}
			renamed = newName
		}
		rec.OutputFileName = renamed

		log.Info().
			Str("invoice", rec.InvoiceNumber).
			Str("vendor", rec.VendorName).
			Str("file", path).
			Str("warnings", rec.Warnings).
			Msg("reconciled invoice")

		records = append(records, rec)
	}

	return records, nil
}

// listInvoiceFiles returns the period's input files in deterministic,
// lexically sorted order. Only .jpg and .pdf files are picked up.
func listInvoiceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing input files: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".pdf") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files, nil
}
