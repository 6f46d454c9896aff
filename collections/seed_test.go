package collections_test

import (
	"testing"

	"roofquote/collections"
	"roofquote/services"
	"roofquote/testhelpers"
)

func TestSeed_CreatesData(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	// Verify contacts were created
	contactsCol, _ := app.FindCollectionByNameOrId("contacts")
	contacts, err := app.FindAllRecords(contactsCol)
	if err != nil {
		t.Fatalf("query contacts error: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}

	// Verify quotes were created and linked to contacts
	quotesCol, _ := app.FindCollectionByNameOrId("quotes")
	quotes, _ := app.FindAllRecords(quotesCol)
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	for _, q := range quotes {
		if q.GetString("contact") == "" {
			t.Errorf("quote %q has no contact", q.GetString("quote_number"))
		}
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	quotesCol, _ := app.FindCollectionByNameOrId("quotes")
	quotes, _ := app.FindAllRecords(quotesCol)
	if len(quotes) != 2 {
		t.Errorf("expected 2 quotes after idempotent seed, got %d", len(quotes))
	}

	contactsCol, _ := app.FindCollectionByNameOrId("contacts")
	contacts, _ := app.FindAllRecords(contactsCol)
	if len(contacts) != 2 {
		t.Errorf("expected 2 contacts after idempotent seed, got %d", len(contacts))
	}
}

func TestSeed_BootstrapsCatalog(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	quotesCol, _ := app.FindCollectionByNameOrId("quotes")
	quotes, _ := app.FindRecordsByFilter(
		quotesCol,
		"quote_number = {:qn}",
		"", 1, 0,
		map[string]any{"qn": "RQ-25-002"},
	)
	if len(quotes) == 0 {
		t.Fatal("quote RQ-25-002 not found")
	}

	var items []services.ItemRecord
	if err := quotes[0].UnmarshalJSONField("items", &items); err != nil {
		t.Fatalf("unmarshal items: %v", err)
	}

	// Seeded quotes carry the same catalog a fresh reconcile would produce.
	want, _ := services.Reconcile(nil, services.DefaultCatalog())
	if len(items) != len(want) {
		t.Fatalf("expected %d bootstrapped items, got %d", len(want), len(items))
	}

	// Every default category must be represented
	byCategory := make(map[string]int)
	for _, it := range items {
		byCategory[it.Category]++
	}
	for _, d := range services.DefaultCatalog() {
		if byCategory[d.Category] < d.MinimumCount {
			t.Errorf("category %q: expected at least %d items, got %d",
				d.Category, d.MinimumCount, byCategory[d.Category])
		}
	}
}

func TestSeed_TemplateConfigs(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	quotesCol, _ := app.FindCollectionByNameOrId("quotes")
	quotes, _ := app.FindRecordsByFilter(
		quotesCol,
		"quote_number = {:qn}",
		"", 1, 0,
		map[string]any{"qn": "RQ-25-001"},
	)
	if len(quotes) == 0 {
		t.Fatal("quote RQ-25-001 not found")
	}

	var templates map[string][]services.ItemRecord
	if err := quotes[0].UnmarshalJSONField("template_configs", &templates); err != nil {
		t.Fatalf("unmarshal template_configs: %v", err)
	}

	if len(templates) != 2 {
		t.Fatalf("expected 2 template configurations, got %d", len(templates))
	}
	if _, ok := templates["Architectural Asphalt"]; !ok {
		t.Error("missing template config for Architectural Asphalt")
	}

	metal, ok := templates["Comp to Standing Seam Metal"]
	if !ok {
		t.Fatal("missing template config for Comp to Standing Seam Metal")
	}
	// The panels item is priced on the decomposed model
	var panels *services.ItemRecord
	for i := range metal {
		if metal[i].Name == "Standing Seam Panels 24ga" {
			panels = &metal[i]
		}
	}
	if panels == nil {
		t.Fatal("Standing Seam Panels 24ga not in template subset")
	}
	if panels.Model() != services.ModelDecomposed {
		t.Errorf("panels cost model = %v, want decomposed", panels.Model())
	}
}

func TestSeed_SkipsWhenDataExists(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	// Create a quote first (not via Seed)
	contact := testhelpers.CreateTestContact(t, app, "Existing Contact")
	testhelpers.CreateTestQuote(t, app, contact.Id, "RQ-25-900")

	// Seed should skip because quote data already exists
	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	quotesCol, _ := app.FindCollectionByNameOrId("quotes")
	quotes, _ := app.FindAllRecords(quotesCol)
	if len(quotes) != 1 {
		t.Errorf("expected 1 quote (pre-existing only), got %d", len(quotes))
	}
	if quotes[0].GetString("quote_number") != "RQ-25-900" {
		t.Errorf("expected pre-existing quote, got %q", quotes[0].GetString("quote_number"))
	}
}
