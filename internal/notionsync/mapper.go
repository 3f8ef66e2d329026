package notionsync

import (
	"github.com/dvloznov/invoice-ingest/internal/pipeline"
	"github.com/jomei/notionapi"
)

// InvoiceToNotionProperties maps one validated invoice record to the
// properties of the invoice-register database. The invoice number is the
// page title and the dedup key.
func InvoiceToNotionProperties(rec *pipeline.InvoiceRecord) notionapi.Properties {
	props := notionapi.Properties{
		"Invoice Number": notionapi.TitleProperty{
			Title: richText(rec.InvoiceNumber),
		},
		"Net":   notionapi.NumberProperty{Number: rec.NetAmount},
		"VAT":   notionapi.NumberProperty{Number: rec.TaxAmount},
		"Gross": notionapi.NumberProperty{Number: rec.GrossAmount},
	}

	if rec.VendorName != "" {
		props["Vendor"] = notionapi.RichTextProperty{RichText: richText(rec.VendorName)}
	}
	if rec.TaxID != "" {
		props["Tax Id"] = notionapi.RichTextProperty{RichText: richText(rec.TaxID)}
	}
	// The invoice date may be an unparsable original string, so it is kept
	// as text rather than a Notion date property.
	if rec.InvoiceDate != "" {
		props["Invoice Date"] = notionapi.RichTextProperty{RichText: richText(rec.InvoiceDate)}
	}
	if rec.Warnings != "" {
		props["Warnings"] = notionapi.RichTextProperty{RichText: richText(rec.Warnings)}
	}
	if rec.OutputFileName != "" {
		props["File Name"] = notionapi.RichTextProperty{RichText: richText(rec.OutputFileName)}
	}

	return props
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: content,
			},
		},
	}
}

// extractInvoiceNumber reads the title property back from an existing page.
// Returns empty string if not found.
func extractInvoiceNumber(page notionapi.Page) string {
	if prop, ok := page.Properties["Invoice Number"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
