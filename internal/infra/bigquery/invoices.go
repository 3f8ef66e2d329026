// Package bigquery streams validated invoice records into a BigQuery table,
// an optional sink next to the xlsx summary.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/invoice-ingest/internal/pipeline"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const invoicesTable = "invoices"

// InvoiceRow is the <dataset>.invoices table schema.
type InvoiceRow struct {
	InvoiceID  string `bigquery:"invoice_id"`   // REQUIRED
	BatchRunID string `bigquery:"batch_run_id"` // REQUIRED

	PeriodYear  string `bigquery:"period_year"`  // REQUIRED
	PeriodMonth string `bigquery:"period_month"` // REQUIRED

	InvoiceNumber string `bigquery:"invoice_number"` // REQUIRED
	VendorName    string `bigquery:"vendor_name"`    // NULLABLE
	VendorAddress string `bigquery:"vendor_address"` // NULLABLE
	TaxID         string `bigquery:"tax_id"`         // NULLABLE

	// The display form, possibly unparsable; invoice_date is the DATE
	// counterpart and NULL when the raw form did not normalize.
	InvoiceDateRaw string            `bigquery:"invoice_date_raw"` // NULLABLE
	InvoiceDate    bigquery.NullDate `bigquery:"invoice_date"`     // DATE, NULLABLE

	NetAmount   float64 `bigquery:"net_amount"`   // NUMERIC, REQUIRED
	TaxAmount   float64 `bigquery:"tax_amount"`   // NUMERIC, REQUIRED
	GrossAmount float64 `bigquery:"gross_amount"` // NUMERIC, REQUIRED

	Warnings       string `bigquery:"warnings"`         // NULLABLE
	OutputFileName string `bigquery:"output_file_name"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// Sink writes invoice records for completed batches. It implements
// pipeline.RecordSink.
type Sink struct {
	projectID string
	datasetID string
}

func NewSink(projectID, datasetID string) *Sink {
	return &Sink{projectID: projectID, datasetID: datasetID}
}

// InsertRecords streams one row per record into the invoices table.
func (s *Sink) InsertRecords(ctx context.Context, batchID string, period pipeline.BillingPeriod, records []*pipeline.InvoiceRecord) error {
	if len(records) == 0 {
		return nil
	}

	client, err := bigquery.NewClient(ctx, s.projectID)
	if err != nil {
		return fmt.Errorf("InsertRecords: bigquery client: %w", err)
	}
	defer client.Close()

	rows := make([]*InvoiceRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rowFromRecord(batchID, period, rec))
	}

	table := client.DatasetInProject(s.projectID, s.datasetID).Table(invoicesTable)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertRecords: inserting rows: %w", err)
	}

	return nil
}

// QueryInvoicesByPeriod reads back all invoices recorded for a billing
// period, ordered as they were appended.
func (s *Sink) QueryInvoicesByPeriod(ctx context.Context, period pipeline.BillingPeriod) ([]*InvoiceRow, error) {
	client, err := bigquery.NewClient(ctx, s.projectID)
	if err != nil {
		return nil, fmt.Errorf("QueryInvoicesByPeriod: bigquery client: %w", err)
	}
	defer client.Close()

	q := client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s.%s
		WHERE period_year = @year AND period_month = @month
		ORDER BY created_ts, invoice_number
	`, s.datasetID, invoicesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "year", Value: period.Year},
		{Name: "month", Value: period.Month},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryInvoicesByPeriod: running query: %w", err)
	}

	var rows []*InvoiceRow
	for {
		var row InvoiceRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryInvoicesByPeriod: reading row: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

// EnsureSchema creates the dataset and invoices table when missing, inferring
// the table schema from InvoiceRow.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	client, err := bigquery.NewClient(ctx, s.projectID)
	if err != nil {
		return fmt.Errorf("EnsureSchema: bigquery client: %w", err)
	}
	defer client.Close()

	dataset := client.Dataset(s.datasetID)
	if _, err := dataset.Metadata(ctx); err != nil {
		if err := dataset.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
			return fmt.Errorf("EnsureSchema: creating dataset %s: %w", s.datasetID, err)
		}
	}

	table := dataset.Table(invoicesTable)
	if _, err := table.Metadata(ctx); err == nil {
		return nil
	}

	schema, err := bigquery.InferSchema(InvoiceRow{})
	if err != nil {
		return fmt.Errorf("EnsureSchema: inferring schema: %w", err)
	}
	if err := table.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return fmt.Errorf("EnsureSchema: creating table %s: %w", invoicesTable, err)
	}

	return nil
}

func rowFromRecord(batchID string, period pipeline.BillingPeriod, rec *pipeline.InvoiceRecord) *InvoiceRow {
	row := &InvoiceRow{
		InvoiceID:      uuid.NewString(),
		BatchRunID:     batchID,
		PeriodYear:     period.Year,
		PeriodMonth:    period.Month,
		InvoiceNumber:  rec.InvoiceNumber,
		VendorName:     rec.VendorName,
		VendorAddress:  rec.VendorAddress,
		TaxID:          rec.TaxID,
		InvoiceDateRaw: rec.InvoiceDate,
		NetAmount:      rec.NetAmount,
		TaxAmount:      rec.TaxAmount,
		GrossAmount:    rec.GrossAmount,
		Warnings:       rec.Warnings,
		OutputFileName: rec.OutputFileName,
		CreatedTS:      time.Now(),
	}

	if date, err := time.Parse("2006-01-02", rec.InvoiceDate); err == nil {
		row.InvoiceDate = bigquery.NullDate{Date: civil.DateOf(date), Valid: true}
	}

	return row
}
