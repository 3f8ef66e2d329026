package pipeline

import "context"

// DocumentAnalyzer extracts labeled invoice fields from raw document bytes.
// One document file can yield zero or more invoices. This interface enables
// substituting the live service with fakes in tests.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, data []byte) ([]RawInvoiceFields, error)
}

// TaxStatusChecker looks up the VAT status of a tax identifier as of the
// given date (YYYY-MM-DD). Implementations return the raw status string;
// anything other than VATStatusActive is treated as inactive.
type TaxStatusChecker interface {
	CheckStatus(ctx context.Context, taxID, date string) (string, error)
}

// VATStatusActive is the registry's sentinel for an active VAT payer.
const VATStatusActive = "Czynny"

// ReportWriter persists the batch summary table.
type ReportWriter interface {
	Write(path string, records []*InvoiceRecord) error
}

// Archiver stores a renamed invoice file in long-term storage.
type Archiver interface {
	Store(ctx context.Context, period BillingPeriod, filePath string) error
}

// RecordSink receives the validated records of a completed batch after the
// summary file has been written.
type RecordSink interface {
	InsertRecords(ctx context.Context, batchID string, period BillingPeriod, records []*InvoiceRecord) error
}
