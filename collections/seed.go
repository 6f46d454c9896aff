package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"roofquote/services"
)

// ── Definition structs ───────────────────────────────────────────────────

type contactDef struct {
	name    string
	company string
	phone   string
	email   string
	address string
	notes   string
}

type quoteDef struct {
	quoteNumber  string
	customerName string
	address      string
	status       string
	// bootstrap seeds the full default catalog into the quote's items.
	bootstrap bool
	// templates maps template name -> configured item subset, stored on
	// the quote's template_configs JSON field.
	templates map[string][]services.ItemRecord
}

// Seed populates the contacts and quotes collections with realistic demo
// data. It is safe to call on every startup because it returns early if
// any quote records already exist.
func Seed(app *pocketbase.PocketBase) error {
	// ── idempotency: skip if quotes already exist ────────────────────
	quotesCol, err := app.FindCollectionByNameOrId("quotes")
	if err != nil {
		return fmt.Errorf("seed: could not find quotes collection: %w", err)
	}
	existing, err := app.FindAllRecords(quotesCol)
	if err != nil {
		return fmt.Errorf("seed: could not query quotes: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: quotes collection is empty – inserting seed data …")

	contactsCol, err := app.FindCollectionByNameOrId("contacts")
	if err != nil {
		return fmt.Errorf("seed: could not find contacts collection: %w", err)
	}

	// ── helper: create contact ───────────────────────────────────────
	createContact := func(d contactDef) (*core.Record, error) {
		r := core.NewRecord(contactsCol)
		r.Set("name", d.name)
		r.Set("company", d.company)
		r.Set("phone", d.phone)
		r.Set("email", d.email)
		r.Set("address", d.address)
		r.Set("notes", d.notes)
		if err := app.Save(r); err != nil {
			return nil, fmt.Errorf("seed: save contact %q: %w", d.name, err)
		}
		return r, nil
	}

	// ── helper: create quote ─────────────────────────────────────────
	createQuote := func(contactID string, d quoteDef) (*core.Record, error) {
		r := core.NewRecord(quotesCol)
		r.Set("contact", contactID)
		r.Set("quote_number", d.quoteNumber)
		r.Set("customer_name", d.customerName)
		r.Set("address", d.address)
		r.Set("status", d.status)
		if d.bootstrap {
			items, _ := services.Reconcile(nil, services.DefaultCatalog())
			r.Set("items", items)
		}
		if d.templates != nil {
			r.Set("template_configs", d.templates)
		}
		if err := app.Save(r); err != nil {
			return nil, fmt.Errorf("seed: save quote %q: %w", d.quoteNumber, err)
		}
		return r, nil
	}

	// ── Contact 1: re-roof with configured templates ─────────────────
	c1, err := createContact(contactDef{
		name: "Dale Whitfield", company: "Whitfield Properties LLC",
		phone: "316-555-0184", email: "dale@whitfieldproperties.com",
		address: "2847 E Harry St, Wichita, KS 67211",
		notes:   "Owns four rentals on the east side; prefers text.",
	})
	if err != nil {
		return err
	}

	if _, err := createQuote(c1.Id, quoteDef{
		quoteNumber:  "RQ-25-001",
		customerName: "Dale Whitfield",
		address:      "2847 E Harry St, Wichita, KS 67211",
		status:       "sent",
		bootstrap:    true,
		templates: map[string][]services.ItemRecord{
			"Architectural Asphalt": {
				{Name: "Architectural Shingles", Category: services.CategoryShingles, Unit: "sq", Quantity: 24, UnitCost: 112, MarkupPct: 30, ShowInApp: true, ShowOnEstimate: true, ShowOnContract: true, ShowOnMaterialOrder: true},
				{Name: "Synthetic Underlayment", Category: services.CategoryMaterials, Unit: "roll", Quantity: 5, UnitCost: 55, MarkupPct: 35, ShowInApp: true, ShowOnEstimate: true, ShowOnContract: true, ShowOnMaterialOrder: true},
				{Name: "Tear-Off & Disposal", Category: services.CategoryServices, Unit: "sq", Quantity: 24, UnitCost: 55, MarkupPct: 20, ShowInApp: true, ShowOnEstimate: true, ShowOnContract: true, ShowOnLaborReport: true},
			},
			"Comp to Standing Seam Metal": {
				{Name: "Standing Seam Panels 24ga", Category: services.CategoryMaterials, Unit: "sq", Quantity: 24, Labor: 185, Material: 410, Factor: 1.35, ShowInApp: true, ShowOnEstimate: true, ShowOnContract: true, ShowOnMaterialOrder: true},
				{Name: "Snow Guards", Category: services.CategoryMaterials, Unit: "ea", Quantity: 40, UnitCost: 6.5, MarkupPct: 45, ShowInApp: true, ShowOnEstimate: true, ShowOnContract: true, ShowOnMaterialOrder: true},
			},
		},
	}); err != nil {
		return err
	}

	// ── Contact 2: fresh quote, catalog bootstrap only ───────────────
	c2, err := createContact(contactDef{
		name: "Marta Ellison",
		phone: "316-555-0232", email: "marta.ellison@gmail.com",
		address: "1105 N Ridgewood Dr, Wichita, KS 67208",
		notes:   "Hail claim, adjuster meeting pending.",
	})
	if err != nil {
		return err
	}

	if _, err := createQuote(c2.Id, quoteDef{
		quoteNumber:  "RQ-25-002",
		customerName: "Marta Ellison",
		address:      "1105 N Ridgewood Dr, Wichita, KS 67208",
		status:       "draft",
		bootstrap:    true,
	}); err != nil {
		return err
	}

	log.Println("seed: all seed data inserted successfully (2 contacts, 2 quotes)")
	return nil
}
