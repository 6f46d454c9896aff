// Package services provides the catalog and pricing engine behind the
// quote workspace: the shared line-item model, pricing computations,
// default-catalog reconciliation, display consolidation, template
// materialization and export builders.
package services

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Family groups catalog categories by the view that owns them.
// It is resolved once from the category string via a static table
// instead of re-checking category prefixes per call.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyPins
	FamilyMaterials
	FamilyShingles
	FamilyServices
	FamilyVariables
)

func (f Family) String() string {
	switch f {
	case FamilyPins:
		return "pins"
	case FamilyMaterials:
		return "materials"
	case FamilyShingles:
		return "shingles"
	case FamilyServices:
		return "services"
	case FamilyVariables:
		return "variables"
	default:
		return "unknown"
	}
}

// Canonical category names. The category string is what gets persisted;
// the Family is derived.
const (
	CategoryPins      = "Pins"
	CategoryMaterials = "Materials"
	CategoryShingles  = "Shingles"
	CategoryServices  = "Services"
	CategoryVariables = "Variables"
)

var familyByCategory = map[string]Family{
	CategoryPins:      FamilyPins,
	CategoryMaterials: FamilyMaterials,
	CategoryShingles:  FamilyShingles,
	CategoryServices:  FamilyServices,
	CategoryVariables: FamilyVariables,
}

// FamilyOf returns the item family for a category, or FamilyUnknown for
// categories outside the fixed enumeration (e.g. test fixtures).
func FamilyOf(category string) Family {
	return familyByCategory[category]
}

// ValidCategory reports whether category belongs to the fixed enumeration.
func ValidCategory(category string) bool {
	_, ok := familyByCategory[category]
	return ok
}

// Source tags recorded on items. Informational only -- nothing branches
// on them structurally.
const (
	SourceManual      = "manual"
	SourceDefault     = "default"
	SourceTemplate    = "template"
	SourcePin         = "pin"
	SourceRecommended = "recommended"
)

// CostModel identifies which cost representation drives an item's total.
type CostModel int

const (
	// ModelFlat: total = unit_cost * quantity * (1 + markup_pct/100).
	ModelFlat CostModel = iota
	// ModelDecomposed: total = (labor + material) * factor. Quantity does
	// not multiply the total; coverage semantics are per-unit and
	// item-specific, scaled upstream.
	ModelDecomposed
)

// ItemRecord is one priced line item in a quote's working catalog. The
// whole item list is persisted as a JSON array inside the owning quote
// record; no item is shared across quotes.
type ItemRecord struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`

	// Flat cost model inputs.
	UnitCost  float64 `json:"unit_cost"`
	MarkupPct float64 `json:"markup_pct"`

	// Decomposed cost model inputs.
	Labor    float64 `json:"labor"`
	Material float64 `json:"material"`
	Factor   float64 `json:"factor"`

	// Total is the authoritative, persisted charge. It is always kept
	// consistent with the inputs of the active cost model.
	Total float64 `json:"total"`

	ShowInApp           bool `json:"show_in_app"`
	ShowOnEstimate      bool `json:"show_on_estimate"`
	ShowOnContract      bool `json:"show_on_contract"`
	ShowOnMaterialOrder bool `json:"show_on_material_order"`
	ShowOnLaborReport   bool `json:"show_on_labor_report"`

	Picture    string `json:"picture,omitempty"`
	SourceType string `json:"source_type,omitempty"`

	// NeedsReview marks records whose total could not be reconciled with
	// a multiplier (undefined derivation). Cleared on the next successful
	// derivation.
	NeedsReview bool `json:"needs_review,omitempty"`
}

// Model returns the cost representation driving the item's total.
// Decomposed inputs win when any of them is set; a purely flat item has
// all three at zero.
func (it ItemRecord) Model() CostModel {
	if it.Labor != 0 || it.Material != 0 || it.Factor != 0 {
		return ModelDecomposed
	}
	return ModelFlat
}

// Family returns the item's family discriminant.
func (it ItemRecord) Family() Family {
	return FamilyOf(it.Category)
}

// Validate checks the invariants enforced at the mutation boundary.
func (it ItemRecord) Validate() error {
	return validation.ValidateStruct(&it,
		validation.Field(&it.ID, validation.Required),
		validation.Field(&it.Name, validation.Required),
		validation.Field(&it.Category, validation.Required),
		validation.Field(&it.Quantity, validation.Min(0.0)),
	)
}

// ConsolidatedItem is the transient display aggregate produced by
// GroupByName. It is never persisted: IDs carries the underlying raw item
// ids and must be resolved back into raw records before any write.
type ConsolidatedItem struct {
	ItemRecord

	// IDs lists the raw items summarized by this row, in input order.
	// IDs[0] is the survivor if the row is edited and collapsed.
	IDs []string `json:"ids"`

	// Inconsistent is set when members of the group disagree on unit
	// economics (unit_cost or markup_pct). The first member's values are
	// still shown, but callers should surface the flag instead of
	// trusting the recomputed total.
	Inconsistent bool `json:"inconsistent,omitempty"`
}

// CloneItems returns a shallow copy of the item slice. Mutating operations
// work on copies so no caller ever observes in-place changes.
func CloneItems(items []ItemRecord) []ItemRecord {
	if items == nil {
		return nil
	}
	out := make([]ItemRecord, len(items))
	copy(out, items)
	return out
}

// FindItem returns the index of the item with the given id, or -1.
func FindItem(items []ItemRecord, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// CategorySlug lowercases a category name and replaces spaces, producing
// the stable prefix used for deterministic seed ids ("Materials" -> "materials").
func CategorySlug(category string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(category)), " ", "-")
}

// seedID builds the deterministic id for the index-th canonical item of a
// category (1-based).
func seedID(slug string, index int) string {
	return fmt.Sprintf("%s-%d", slug, index)
}
