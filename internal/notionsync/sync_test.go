package notionsync

import (
	"context"
	"testing"

	"github.com/dvloznov/invoice-ingest/internal/pipeline"
	"github.com/jomei/notionapi"
)

type fakeNotion struct {
	pages   []notionapi.Page
	created []notionapi.Properties
	updated map[string]notionapi.Properties
}

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	f.created = append(f.created, properties)
	return &notionapi.Page{}, nil
}

func (f *fakeNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if f.updated == nil {
		f.updated = make(map[string]notionapi.Properties)
	}
	f.updated[pageID] = properties
	return &notionapi.Page{}, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: f.pages, HasMore: false}, nil
}

func existingPage(pageID, invoiceNumber string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			"Invoice Number": &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: invoiceNumber}},
			},
		},
	}
}

func TestInsertRecords_CreatesAndUpdates(t *testing.T) {
	notion := &fakeNotion{pages: []notionapi.Page{existingPage("page-1", "FV/1/2024")}}
	syncer := NewSyncer(notion, "db-1")

	records := []*pipeline.InvoiceRecord{
		{InvoiceNumber: "FV/1/2024", VendorName: "Orlen", GrossAmount: 123},
		{InvoiceNumber: "FV/2/2024", VendorName: "Żabka", GrossAmount: 61.5},
	}

	period := pipeline.BillingPeriod{Year: "2024", Month: "03"}
	if err := syncer.InsertRecords(context.Background(), "batch-1", period, records); err != nil {
		t.Fatalf("InsertRecords failed: %v", err)
	}

	if len(notion.created) != 1 {
		t.Errorf("expected 1 created page, got %d", len(notion.created))
	}
	if _, ok := notion.updated["page-1"]; !ok {
		t.Error("expected existing page page-1 to be updated")
	}
}

func TestInvoiceToNotionProperties(t *testing.T) {
	rec := &pipeline.InvoiceRecord{
		InvoiceNumber: "FV/123/2024",
		VendorName:    "Żabka Sp. z o.o.",
		InvoiceDate:   "2024-03-15",
		NetAmount:     100,
		TaxAmount:     23,
		GrossAmount:   123,
		Warnings:      pipeline.WarnMissingVAT + "; ",
	}

	props := InvoiceToNotionProperties(rec)

	title, ok := props["Invoice Number"].(notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 || title.Title[0].Text.Content != "FV/123/2024" {
		t.Errorf("unexpected title property: %+v", props["Invoice Number"])
	}
	gross, ok := props["Gross"].(notionapi.NumberProperty)
	if !ok || gross.Number != 123 {
		t.Errorf("unexpected gross property: %+v", props["Gross"])
	}
	if _, ok := props["Warnings"]; !ok {
		t.Error("expected warnings property to be set")
	}
	if _, ok := props["Tax Id"]; ok {
		t.Error("expected empty tax id to be omitted")
	}
}
