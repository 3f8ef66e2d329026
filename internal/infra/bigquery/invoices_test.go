package bigquery

import (
	"testing"

	"github.com/dvloznov/invoice-ingest/internal/pipeline"
)

func TestRowFromRecord(t *testing.T) {
	period := pipeline.BillingPeriod{Year: "2024", Month: "03"}
	rec := &pipeline.InvoiceRecord{
		InvoiceNumber:  "FV/123/2024",
		VendorName:     "Żabka Sp. z o.o.",
		TaxID:          "5223108097",
		InvoiceDate:    "2024-03-15",
		NetAmount:      100,
		TaxAmount:      23,
		GrossAmount:    123,
		OutputFileName: "2024-03-ZABKASPZOO-FV1232024.pdf",
	}

	row := rowFromRecord("batch-1", period, rec)

	if row.InvoiceID == "" {
		t.Error("expected generated invoice_id")
	}
	if row.BatchRunID != "batch-1" {
		t.Errorf("batch_run_id = %q, want batch-1", row.BatchRunID)
	}
	if row.PeriodYear != "2024" || row.PeriodMonth != "03" {
		t.Errorf("period = %s/%s, want 2024/03", row.PeriodYear, row.PeriodMonth)
	}
	if !row.InvoiceDate.Valid {
		t.Fatal("expected parsed invoice_date to be valid")
	}
	if got := row.InvoiceDate.Date.String(); got != "2024-03-15" {
		t.Errorf("invoice_date = %s, want 2024-03-15", got)
	}
}

func TestRowFromRecord_UnparsableDate(t *testing.T) {
	rec := &pipeline.InvoiceRecord{
		InvoiceNumber: "FV/9/2024",
		InvoiceDate:   "brak daty",
		Warnings:      pipeline.WarnDateUnparsable + "; ",
	}

	row := rowFromRecord("batch-2", pipeline.BillingPeriod{Year: "2024", Month: "07"}, rec)

	if row.InvoiceDate.Valid {
		t.Error("expected NULL invoice_date for unparsable raw date")
	}
	if row.InvoiceDateRaw != "brak daty" {
		t.Errorf("invoice_date_raw = %q, want original string", row.InvoiceDateRaw)
	}
}
