// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"encoding/json"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"roofquote/collections"
	"roofquote/services"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestContact creates a contact record with the given name and returns it.
func CreateTestContact(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("contacts")
	if err != nil {
		t.Fatalf("failed to find contacts collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("phone", "555-0142")
	record.Set("address", "88 Cedar Crest Dr, Franklin, TN 37064")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test contact: %v", err)
	}

	return record
}

// CreateTestQuote creates a quote record linked to a contact and returns it.
func CreateTestQuote(t *testing.T, app *pocketbase.PocketBase, contactID, quoteNumber string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("quotes")
	if err != nil {
		t.Fatalf("failed to find quotes collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("contact", contactID)
	record.Set("quote_number", quoteNumber)
	record.Set("status", "draft")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quote: %v", err)
	}

	return record
}

// SetQuoteItems marshals items into the quote record's items field and saves it.
func SetQuoteItems(t *testing.T, app *pocketbase.PocketBase, quote *core.Record, items []services.ItemRecord) {
	t.Helper()

	raw, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("failed to marshal test items: %v", err)
	}
	quote.Set("items", string(raw))

	if err := app.Save(quote); err != nil {
		t.Fatalf("failed to save quote items: %v", err)
	}
}

// TestItem builds a flat-priced item with a derived total, suitable for
// seeding test quotes without going through the catalog defaults.
func TestItem(id, name, category string, qty, unitCost, markup float64) services.ItemRecord {
	item := services.ItemRecord{
		ID:             id,
		Name:           name,
		Category:       category,
		Unit:           "ea",
		Quantity:       qty,
		UnitCost:       unitCost,
		MarkupPct:      markup,
		ShowInApp:      true,
		ShowOnEstimate: true,
		SourceType:     services.SourceManual,
	}
	item.Total = services.DeriveTotal(item)
	return item
}
