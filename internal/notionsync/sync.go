// Package notionsync mirrors the invoice register of each processed batch
// into a Notion database, keyed by invoice number.
package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/invoice-ingest/internal/logger"
	"github.com/dvloznov/invoice-ingest/internal/pipeline"
	"github.com/jomei/notionapi"
)

// Syncer pushes validated records to Notion after a batch completes. It
// implements pipeline.RecordSink.
type Syncer struct {
	notion     NotionService
	databaseID string
}

func NewSyncer(notion NotionService, databaseID string) *Syncer {
	return &Syncer{notion: notion, databaseID: databaseID}
}

// InsertRecords creates a page per new invoice and updates pages whose
// invoice number already exists, so re-running a month is idempotent.
func (s *Syncer) InsertRecords(ctx context.Context, batchID string, period pipeline.BillingPeriod, records []*pipeline.InvoiceRecord) error {
	log := logger.FromContext(ctx)

	existing, err := s.pagesByInvoiceNumber(ctx)
	if err != nil {
		return fmt.Errorf("notionsync: query existing pages: %w", err)
	}

	var created, updated int
	for _, rec := range records {
		props := InvoiceToNotionProperties(rec)

		if pageID, ok := existing[rec.InvoiceNumber]; ok {
			if _, err := s.notion.UpdatePage(ctx, pageID, props); err != nil {
				return fmt.Errorf("notionsync: update invoice %s: %w", rec.InvoiceNumber, err)
			}
			updated++
			continue
		}

		if _, err := s.notion.CreatePage(ctx, s.databaseID, props); err != nil {
			return fmt.Errorf("notionsync: create invoice %s: %w", rec.InvoiceNumber, err)
		}
		created++
	}

	log.Info().
		Str("batch_id", batchID).
		Str("period", period.Year+"-"+period.Month).
		Int("created", created).
		Int("updated", updated).
		Msg("synced invoices to Notion")

	return nil
}

// pagesByInvoiceNumber pages through the whole database and indexes page IDs
// by invoice number.
func (s *Syncer) pagesByInvoiceNumber(ctx context.Context) (map[string]string, error) {
	index := make(map[string]string)

	var cursor notionapi.Cursor
	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: 100}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := s.notion.QueryDatabase(ctx, s.databaseID, req)
		if err != nil {
			return nil, err
		}

		for _, page := range resp.Results {
			if number := extractInvoiceNumber(page); number != "" {
				index[number] = string(page.ID)
			}
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return index, nil
}
