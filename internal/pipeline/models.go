package pipeline

// Field names exposed by the document-analysis collaborator for the
// prebuilt invoice model.
const (
	FieldInvoiceID     = "InvoiceId"
	FieldVendorName    = "VendorName"
	FieldVendorAddress = "VendorAddress"
	FieldVendorTaxID   = "VendorTaxId"
	FieldInvoiceDate   = "InvoiceDate"
	FieldSubTotal      = "SubTotal"
	FieldTotalTax      = "TotalTax"
	FieldInvoiceTotal  = "InvoiceTotal"
)

// RawInvoiceFields holds the labeled fields extracted from one analyzed
// document. A field the analyzer did not return is simply absent; presence
// is always checked through Content, never by indexing a map directly.
type RawInvoiceFields struct {
	fields map[string]string
}

// NewRawInvoiceFields builds an immutable field set from the analyzer output.
// Entries with empty content are treated as absent.
func NewRawInvoiceFields(fields map[string]string) RawInvoiceFields {
	copied := make(map[string]string, len(fields))
	for name, content := range fields {
		if content == "" {
			continue
		}
		copied[name] = content
	}
	return RawInvoiceFields{fields: copied}
}

// Content returns the raw content of a field and whether it was present.
func (r RawInvoiceFields) Content(name string) (string, bool) {
	content, ok := r.fields[name]
	return content, ok
}

// BillingPeriod is the expected year/month of the batch being processed,
// used to sanity-check extracted invoice dates.
type BillingPeriod struct {
	Year  string // "2006"
	Month string // "01"
}

// InvoiceRecord is one validated invoice, ready to become a row of the
// summary table. Never mutated after the orchestrator appends it.
type InvoiceRecord struct {
	InvoiceNumber  string
	VendorName     string
	VendorAddress  string
	TaxID          string
	InvoiceDate    string // canonical YYYY-MM-DD, or the original string when unparsable
	NetAmount      float64
	TaxAmount      float64
	GrossAmount    float64
	Warnings       string // accumulated warnings, each terminated by "; "
	OutputFileName string
}

// appendWarning accumulates a warning in check order. Warnings are kept as a
// single display string with a trailing separator.
func (rec *InvoiceRecord) appendWarning(warning string) {
	if warning != "" {
		rec.Warnings += warning + "; "
	}
}
