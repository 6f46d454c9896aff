package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// PriceTolerance is the floating-point tolerance used when checking that a
// stored total matches its stored inputs.
const PriceTolerance = 1e-6

// ErrUndefinedDerivation is returned when a multiplier cannot be
// back-solved because the denominator is zero. The prior multiplier is
// preserved and the record is flagged for manual reconciliation.
var ErrUndefinedDerivation = errors.New("pricing: multiplier derivation undefined for zero-cost item")

// ComputeTotalFlat computes a flat-model total:
// unit_cost * quantity * (1 + markup_pct/100).
func ComputeTotalFlat(unitCost, quantity, markupPct float64) float64 {
	return unitCost * quantity * (1 + markupPct/100)
}

// ComputeTotalDecomposed computes a decomposed-model total:
// (labor + material) * factor. Quantity does not participate.
func ComputeTotalDecomposed(labor, material, factor float64) float64 {
	return (labor + material) * factor
}

// BackSolveMarkup derives the markup percentage that makes the flat model
// reproduce total. Undefined when unit_cost*quantity is zero.
func BackSolveMarkup(total, unitCost, quantity float64) (float64, error) {
	base := unitCost * quantity
	if base == 0 {
		return 0, ErrUndefinedDerivation
	}
	return ((total / base) - 1) * 100, nil
}

// BackSolveFactor derives the factor that makes the decomposed model
// reproduce total. Undefined when labor+material is zero.
func BackSolveFactor(total, labor, material float64) (float64, error) {
	base := labor + material
	if base == 0 {
		return 0, ErrUndefinedDerivation
	}
	return total / base, nil
}

// DeriveTotal recomputes an item's total from the inputs of its active
// cost model. No rounding here: display rounding happens only at
// presentation time so repeated edits never compound rounding error.
func DeriveTotal(it ItemRecord) float64 {
	if it.Model() == ModelDecomposed {
		return ComputeTotalDecomposed(it.Labor, it.Material, it.Factor)
	}
	return ComputeTotalFlat(it.UnitCost, it.Quantity, it.MarkupPct)
}

// Conflict reports an item whose persisted total does not match its
// stored cost inputs within PriceTolerance. Conflicts are surfaced for
// manual review, never silently corrected.
type Conflict struct {
	ID      string
	Name    string
	Stored  float64
	Derived float64
}

func (c Conflict) Error() string {
	return fmt.Sprintf("pricing: item %s (%s) total %v does not match derived %v", c.ID, c.Name, c.Stored, c.Derived)
}

// CheckConsistency scans raw items for stored totals that disagree with
// their stored inputs.
func CheckConsistency(items []ItemRecord) []Conflict {
	var conflicts []Conflict
	for _, it := range items {
		derived := DeriveTotal(it)
		if math.Abs(derived-it.Total) > PriceTolerance {
			conflicts = append(conflicts, Conflict{
				ID:      it.ID,
				Name:    it.Name,
				Stored:  it.Total,
				Derived: derived,
			})
		}
	}
	return conflicts
}

// Editable item fields, grouped by how a field edit propagates.
var (
	textFields = map[string]bool{
		"name":        true,
		"unit":        true,
		"category":    true,
		"picture":     true,
		"source_type": true,
	}
	flagFields = map[string]bool{
		"show_in_app":            true,
		"show_on_estimate":       true,
		"show_on_contract":       true,
		"show_on_material_order": true,
		"show_on_labor_report":   true,
	}
	flatFields       = map[string]bool{"unit_cost": true, "markup_pct": true}
	decomposedFields = map[string]bool{"labor": true, "material": true, "factor": true}
)

// ApplyFieldEdit applies a single field edit to an item, propagating price
// changes in exactly one direction: editing any cost input forward-computes
// the total; editing the total back-solves the active model's multiplier,
// leaving the other inputs untouched. Never both in one mutation.
//
// On an undefined derivation the total and prior multiplier are left
// unchanged, the record is flagged NeedsReview, and ErrUndefinedDerivation
// is returned -- the caller decides whether to keep the flagged item.
func ApplyFieldEdit(it *ItemRecord, field string, value any) error {
	switch {
	case textFields[field]:
		s, ok := value.(string)
		if !ok {
			return validation.NewError("validation_invalid_value", fmt.Sprintf("field %s expects a string", field))
		}
		if field == "category" && !ValidCategory(s) {
			return validation.NewError("validation_invalid_category", fmt.Sprintf("unknown category %q", s))
		}
		setTextField(it, field, s)
		return nil

	case flagFields[field]:
		b, ok := value.(bool)
		if !ok {
			return validation.NewError("validation_invalid_value", fmt.Sprintf("field %s expects a boolean", field))
		}
		setFlagField(it, field, b)
		return nil
	}

	f, ok := value.(float64)
	if !ok {
		return validation.NewError("validation_invalid_value", fmt.Sprintf("field %s expects a number", field))
	}

	switch {
	case field == "quantity":
		if f < 0 {
			return validation.NewError("validation_negative_quantity", "quantity must be zero or greater")
		}
		it.Quantity = f
		it.Total = DeriveTotal(*it)
		it.NeedsReview = false
		return nil

	case flatFields[field]:
		if field == "unit_cost" {
			it.UnitCost = f
		} else {
			it.MarkupPct = f
		}
		// Editing a flat input makes the flat model the driver. Any
		// decomposed inputs are dropped, otherwise Model would keep
		// resolving decomposed and re-derivation would contradict the
		// stored total.
		it.Labor, it.Material, it.Factor = 0, 0, 0
		it.Total = ComputeTotalFlat(it.UnitCost, it.Quantity, it.MarkupPct)
		it.NeedsReview = false
		return nil

	case decomposedFields[field]:
		switch field {
		case "labor":
			it.Labor = f
		case "material":
			it.Material = f
		case "factor":
			it.Factor = f
		}
		it.Total = ComputeTotalDecomposed(it.Labor, it.Material, it.Factor)
		it.NeedsReview = false
		return nil

	case field == "total":
		if it.Model() == ModelDecomposed {
			factor, err := BackSolveFactor(f, it.Labor, it.Material)
			if err != nil {
				it.NeedsReview = true
				return err
			}
			it.Factor = factor
		} else {
			markup, err := BackSolveMarkup(f, it.UnitCost, it.Quantity)
			if err != nil {
				it.NeedsReview = true
				return err
			}
			it.MarkupPct = markup
		}
		it.Total = f
		it.NeedsReview = false
		return nil
	}

	return validation.NewError("validation_unknown_field", fmt.Sprintf("unknown item field %q", field))
}

func setTextField(it *ItemRecord, field, s string) {
	switch field {
	case "name":
		it.Name = s
	case "unit":
		it.Unit = s
	case "category":
		it.Category = s
	case "picture":
		it.Picture = s
	case "source_type":
		it.SourceType = s
	}
}

func setFlagField(it *ItemRecord, field string, b bool) {
	switch field {
	case "show_in_app":
		it.ShowInApp = b
	case "show_on_estimate":
		it.ShowOnEstimate = b
	case "show_on_contract":
		it.ShowOnContract = b
	case "show_on_material_order":
		it.ShowOnMaterialOrder = b
	case "show_on_labor_report":
		it.ShowOnLaborReport = b
	}
}

// ParseFieldValue converts a raw form value into the typed value expected
// by ApplyFieldEdit for the given field.
func ParseFieldValue(field, raw string) (any, error) {
	switch {
	case textFields[field]:
		return raw, nil
	case flagFields[field]:
		switch raw {
		case "true", "1", "on":
			return true, nil
		case "false", "0", "off", "":
			return false, nil
		}
		return nil, validation.NewError("validation_invalid_value", fmt.Sprintf("field %s expects a boolean, got %q", field, raw))
	default:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, validation.NewError("validation_invalid_value", fmt.Sprintf("field %s expects a number, got %q", field, raw))
		}
		return f, nil
	}
}
