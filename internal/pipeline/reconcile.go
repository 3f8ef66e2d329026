package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/invoice-ingest/internal/logger"
)

// MissingFieldError reports a field the analyzer was expected to return but
// did not. It fails the single document loudly; the batch continues.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %s missing from analysis result", e.Field)
}

// Reconciler turns one set of raw extracted fields into a validated invoice
// record. Every per-field problem degrades to a warning; only a missing
// required field or a failed tax-status lookup is an error.
type Reconciler struct {
	checker TaxStatusChecker
	now     func() time.Time
}

func NewReconciler(checker TaxStatusChecker) *Reconciler {
	return &Reconciler{
		checker: checker,
		now:     time.Now,
	}
}

// Reconcile validates and normalizes one extracted invoice against the
// billing period. Warnings accumulate in check order: date, net presence,
// VAT presence, gross consistency, tax-id activity.
func (r *Reconciler) Reconcile(ctx context.Context, raw RawInvoiceFields, period BillingPeriod) (*InvoiceRecord, error) {
	log := logger.FromContext(ctx)

	rec := &InvoiceRecord{}

	var err error
	if rec.InvoiceNumber, err = requireField(raw, FieldInvoiceID); err != nil {
		return nil, err
	}
	if rec.VendorName, err = requireField(raw, FieldVendorName); err != nil {
		return nil, err
	}
	if rec.VendorAddress, err = requireField(raw, FieldVendorAddress); err != nil {
		return nil, err
	}
	if rec.TaxID, err = requireField(raw, FieldVendorTaxID); err != nil {
		return nil, err
	}
	rawDate, err := requireField(raw, FieldInvoiceDate)
	if err != nil {
		return nil, err
	}
	rawTotal, err := requireField(raw, FieldInvoiceTotal)
	if err != nil {
		return nil, err
	}

	date, dateWarning := ParseInvoiceDate(rawDate, period.Month)
	rec.InvoiceDate = date
	rec.appendWarning(dateWarning)

	if rawNet, ok := raw.Content(FieldSubTotal); ok {
		rec.NetAmount = ParseAmount(rawNet)
	} else {
		rec.appendWarning(WarnMissingNet)
	}

	rec.GrossAmount = ParseAmount(rawTotal)

	if rawTax, ok := raw.Content(FieldTotalTax); ok {
		rec.TaxAmount = ParseAmount(rawTax)
	} else {
		rec.TaxAmount = rec.GrossAmount - rec.NetAmount
		rec.appendWarning(WarnMissingVAT)
	}

	if rec.GrossAmount != rec.NetAmount+rec.TaxAmount {
		rec.appendWarning(WarnGrossMismatch)
	}

	nip := normalizeTaxID(rec.TaxID)
	status, err := r.checker.CheckStatus(ctx, nip, r.now().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("reconcile invoice %s: tax status lookup for %s: %w", rec.InvoiceNumber, nip, err)
	}
	log.Info().Str("nip", nip).Str("status_vat", status).Msg("checked tax id against registry")
	if status != VATStatusActive {
		rec.appendWarning(WarnTaxIDInactive)
	}

	return rec, nil
}

func requireField(raw RawInvoiceFields, name string) (string, error) {
	content, ok := raw.Content(name)
	if !ok {
		return "", &MissingFieldError{Field: name}
	}
	return content, nil
}

// normalizeTaxID reduces a NIP to digits only for the registry lookup.
func normalizeTaxID(taxID string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(taxID)
}
