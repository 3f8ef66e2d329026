package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dvloznov/invoice-ingest/internal/pipeline"
	"github.com/dvloznov/invoice-ingest/internal/report"
	"github.com/xuri/excelize/v2"
)

// fakeAnalyzer maps raw file content to canned extraction results.
type fakeAnalyzer struct {
	byContent map[string][]pipeline.RawInvoiceFields
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, document []byte) ([]pipeline.RawInvoiceFields, error) {
	return f.byContent[string(document)], nil
}

type activeChecker struct{}

func (activeChecker) CheckStatus(ctx context.Context, taxID, date string) (string, error) {
	return pipeline.VATStatusActive, nil
}

type capturingSink struct {
	batchID string
	period  pipeline.BillingPeriod
	records []*pipeline.InvoiceRecord
}

func (s *capturingSink) InsertRecords(ctx context.Context, batchID string, period pipeline.BillingPeriod, records []*pipeline.InvoiceRecord) error {
	s.batchID = batchID
	s.period = period
	s.records = records
	return nil
}

func invoiceFields(number, vendor, date, net, tax, gross string) map[string]string {
	fields := map[string]string{
		pipeline.FieldInvoiceID:     number,
		pipeline.FieldVendorName:    vendor,
		pipeline.FieldVendorAddress: "ul. Testowa 1, Warszawa",
		pipeline.FieldVendorTaxID:   "526-10-40-828",
		pipeline.FieldInvoiceDate:   date,
		pipeline.FieldSubTotal:      net,
		pipeline.FieldTotalTax:      tax,
		pipeline.FieldInvoiceTotal:  gross,
	}
	for name, content := range fields {
		if content == "" {
			delete(fields, name)
		}
	}
	return fields
}

func TestBatchRun(t *testing.T) {
	base := t.TempDir()
	period := pipeline.BillingPeriod{Year: "2024", Month: "03"}
	dir := filepath.Join(base, "2024", "03")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	analyzer := &fakeAnalyzer{byContent: map[string][]pipeline.RawInvoiceFields{
		// Net amount missing from the extraction.
		"a.pdf": {pipeline.NewRawInvoiceFields(invoiceFields(
			"FV/1/2024", "Vendor A", "2024-03-05", "", "23,00 PLN", "123,00 PLN"))},
		// Date belongs to the wrong month.
		"b.pdf": {pipeline.NewRawInvoiceFields(invoiceFields(
			"FV/2/2024", "Vendor B", "2024-02-10", "200,00 PLN", "46,00 PLN", "246,00 PLN"))},
		// Fully consistent.
		"c.pdf": {pipeline.NewRawInvoiceFields(invoiceFields(
			"FV/3/2024", "Vendor C", "2024-03-20", "300,00 PLN", "69,00 PLN", "369,00 PLN"))},
	}}

	sink := &capturingSink{}
	batch := pipeline.NewBatch(base, analyzer, pipeline.NewReconciler(activeChecker{}), report.NewXLSXWriter())
	batch.Sinks = []pipeline.RecordSink{sink}

	records, err := batch.Run(context.Background(), period)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	// Records come back in input file order.
	for i, want := range []string{"FV/1/2024", "FV/2/2024", "FV/3/2024"} {
		if records[i].InvoiceNumber != want {
			t.Errorf("record %d invoice = %q, want %q", i, records[i].InvoiceNumber, want)
		}
	}

	// Missing net degrades to warnings and breaks gross consistency.
	if records[0].NetAmount != 0 || records[0].GrossAmount != 123 {
		t.Errorf("record 0 amounts = %v/%v", records[0].NetAmount, records[0].GrossAmount)
	}
	if records[0].Warnings != pipeline.WarnMissingNet+"; "+pipeline.WarnGrossMismatch+"; " {
		t.Errorf("record 0 warnings = %q", records[0].Warnings)
	}
	if records[1].Warnings != pipeline.WarnDateMismatch+"; " {
		t.Errorf("record 1 warnings = %q", records[1].Warnings)
	}
	if records[2].Warnings != "" {
		t.Errorf("record 2 warnings = %q, want none", records[2].Warnings)
	}

	// Sources were renamed to the canonical scheme.
	wantNames := map[int]string{
		0: "2024-03-VENDORA-FV12024.pdf",
		1: "2024-03-VENDORB-FV22024.pdf",
		2: "2024-03-VENDORC-FV32024.pdf",
	}
	for i, name := range wantNames {
		if records[i].OutputFileName != name {
			t.Errorf("record %d file name = %q, want %q", i, records[i].OutputFileName, name)
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("renamed file %s missing: %v", name, err)
		}
	}
	for _, orig := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if _, err := os.Stat(filepath.Join(dir, orig)); !os.IsNotExist(err) {
			t.Errorf("original %s still present", orig)
		}
	}

	// The summary spreadsheet holds one row per record.
	f, err := excelize.OpenFile(filepath.Join(dir, "2024-03-faktury.xlsx"))
	if err != nil {
		t.Fatalf("opening summary: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Faktury")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d spreadsheet rows, want header + 3", len(rows))
	}
	if rows[1][0] != "FV/1/2024" {
		t.Errorf("first data row invoice = %q", rows[1][0])
	}

	if sink.batchID == "" {
		t.Error("sink did not receive a batch id")
	}
	if len(sink.records) != 3 {
		t.Errorf("sink received %d records, want 3", len(sink.records))
	}
}

func TestBatchRun_SkipsIncompleteDocument(t *testing.T) {
	base := t.TempDir()
	period := pipeline.BillingPeriod{Year: "2024", Month: "07"}
	dir := filepath.Join(base, "2024", "07")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scan.jpg"), []byte("scan.jpg"), 0o644); err != nil {
		t.Fatal(err)
	}

	broken := invoiceFields("FV/9/2024", "Vendor X", "2024-07-01", "10,00", "2,30", "12,30")
	delete(broken, pipeline.FieldVendorTaxID)
	analyzer := &fakeAnalyzer{byContent: map[string][]pipeline.RawInvoiceFields{
		"scan.jpg": {
			pipeline.NewRawInvoiceFields(broken),
			pipeline.NewRawInvoiceFields(invoiceFields(
				"FV/10/2024", "Vendor X", "2024-07-02", "10,00", "2,30", "12,30")),
		},
	}}

	batch := pipeline.NewBatch(base, analyzer, pipeline.NewReconciler(activeChecker{}), report.NewXLSXWriter())
	records, err := batch.Run(context.Background(), period)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (incomplete document skipped)", len(records))
	}
	if records[0].InvoiceNumber != "FV/10/2024" {
		t.Errorf("surviving invoice = %q", records[0].InvoiceNumber)
	}
	if _, err := os.Stat(filepath.Join(dir, "2024-07-VENDORX-FV102024.jpg")); err == nil {
		t.Error("rename should use the .pdf canonical name")
	}
	if _, err := os.Stat(filepath.Join(dir, "2024-07-VENDORX-FV102024.pdf")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
}
