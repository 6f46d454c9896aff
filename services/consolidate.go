package services

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// GroupByName partitions raw items by exact name and returns one display
// aggregate per group, in first-appearance order. Quantities are summed;
// the total is recomputed with the flat model from the first member's unit
// economics. Same-named items are assumed to share unit economics -- when
// they don't, the group is flagged Inconsistent rather than silently
// averaged.
//
// The result is display-only and must never be persisted as-is.
func GroupByName(items []ItemRecord) []ConsolidatedItem {
	var order []string
	groups := make(map[string][]ItemRecord)

	for _, it := range items {
		if _, seen := groups[it.Name]; !seen {
			order = append(order, it.Name)
		}
		groups[it.Name] = append(groups[it.Name], it)
	}

	out := make([]ConsolidatedItem, 0, len(order))
	for _, name := range order {
		members := groups[name]
		rep := members[0]

		var qty float64
		ids := make([]string, 0, len(members))
		inconsistent := false
		for _, m := range members {
			qty += m.Quantity
			ids = append(ids, m.ID)
			if m.UnitCost != rep.UnitCost || m.MarkupPct != rep.MarkupPct {
				inconsistent = true
			}
		}

		row := rep
		row.Quantity = qty
		row.Total = ComputeTotalFlat(rep.UnitCost, qty, rep.MarkupPct)

		out = append(out, ConsolidatedItem{
			ItemRecord:   row,
			IDs:          ids,
			Inconsistent: inconsistent,
		})
	}
	return out
}

// ConsolidatedEdit carries the fields a user changed on a consolidated
// row. Nil pointers mean "unchanged". Setting Total back-solves the
// markup; setting any input forward-computes the total -- never both.
type ConsolidatedEdit struct {
	Name      *string
	Unit      *string
	Category  *string
	Quantity  *float64
	UnitCost  *float64
	MarkupPct *float64
	Total     *float64
}

// EditResolution tells the caller how to turn an edited consolidated row
// back into raw records. When InPlace is set the edit applies directly to
// the single underlying item; otherwise Replace is the collapsed survivor
// (keeping IDs[0]) and RemoveIDs lists every other member to delete.
type EditResolution struct {
	Replace   ItemRecord
	RemoveIDs []string
	InPlace   bool
}

// ResolveEdit commits a user edit on a consolidated row.
//
// Collapsing a multi-member group is lossy and one-directional: the
// per-source boundaries of the merged items (distinct pin-derived vs
// manually-added instances) are gone once committed.
func ResolveEdit(c ConsolidatedItem, edit ConsolidatedEdit) (EditResolution, error) {
	item := c.ItemRecord
	item.ID = c.IDs[0]

	if edit.Name != nil {
		item.Name = *edit.Name
	}
	if edit.Unit != nil {
		item.Unit = *edit.Unit
	}
	if edit.Category != nil {
		if !ValidCategory(*edit.Category) {
			return EditResolution{}, validation.NewError("validation_invalid_category", fmt.Sprintf("unknown category %q", *edit.Category))
		}
		item.Category = *edit.Category
	}
	if edit.Quantity != nil {
		item.Quantity = *edit.Quantity
	}
	if edit.UnitCost != nil {
		item.UnitCost = *edit.UnitCost
	}
	if edit.MarkupPct != nil {
		item.MarkupPct = *edit.MarkupPct
	}

	// Consolidated rows price with the flat model: the row's total was
	// recomputed flat during grouping, so the committed record stays flat.
	// Any decomposed inputs carried by the first member are dropped so the
	// survivor's total stays consistent with the model that produced it.
	item.Labor, item.Material, item.Factor = 0, 0, 0
	if edit.Total != nil {
		markup, err := BackSolveMarkup(*edit.Total, item.UnitCost, item.Quantity)
		if err != nil {
			item.NeedsReview = true
			return EditResolution{}, err
		}
		item.MarkupPct = markup
		item.Total = *edit.Total
	} else {
		item.Total = ComputeTotalFlat(item.UnitCost, item.Quantity, item.MarkupPct)
	}

	if err := item.Validate(); err != nil {
		return EditResolution{}, err
	}

	res := EditResolution{Replace: item}
	if len(c.IDs) > 1 {
		res.RemoveIDs = append([]string(nil), c.IDs[1:]...)
	} else {
		res.InPlace = true
	}
	return res, nil
}
