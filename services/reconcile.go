package services

// CategoryDefaults declares the canonical default item set for one
// category, with the minimum populated count a quote's catalog must meet.
// The literal data is a substitutable fixture (see DefaultCatalog);
// reconciliation only depends on this shape.
type CategoryDefaults struct {
	Category     string
	Slug         string
	MinimumCount int
	Items        []ItemRecord
}

// Reconcile merges a quote's persisted item list with the default catalog:
//
//   - backfills a missing picture on existing items from a default with
//     the same category and name, touching nothing else;
//   - for every category below its declared minimum count, appends the
//     category's canonical items under deterministic "<slug>-<index>"
//     ids, skipping ids already present.
//
// The input slice is never mutated. The returned changed flag tells the
// caller whether the merged list differs and needs persisting; calling
// Reconcile on its own output yields (same list, false).
func Reconcile(existing []ItemRecord, defaults []CategoryDefaults) ([]ItemRecord, bool) {
	merged := make([]ItemRecord, len(existing))
	copy(merged, existing)

	changed := false

	// Picture backfill by category+name. Pure presentation: id, cost
	// fields and total are never touched here.
	for i := range merged {
		if merged[i].Picture != "" {
			continue
		}
		if pic := defaultPicture(defaults, merged[i].Category, merged[i].Name); pic != "" {
			merged[i].Picture = pic
			changed = true
		}
	}

	have := make(map[string]bool, len(merged))
	counts := make(map[string]int)
	for _, it := range merged {
		have[it.ID] = true
		counts[it.Category]++
	}

	for _, cd := range defaults {
		if counts[cd.Category] >= cd.MinimumCount {
			continue
		}
		slug := cd.Slug
		if slug == "" {
			slug = CategorySlug(cd.Category)
		}
		for i, canonical := range cd.Items {
			id := seedID(slug, i+1)
			if have[id] {
				continue
			}
			item := canonical
			item.ID = id
			item.Category = cd.Category
			if item.SourceType == "" {
				item.SourceType = SourceDefault
			}
			// Seeded items enter with total derived from their inputs so
			// the consistency invariant holds from the first write.
			item.Total = DeriveTotal(item)
			merged = append(merged, item)
			have[id] = true
			changed = true
		}
	}

	return merged, changed
}

func defaultPicture(defaults []CategoryDefaults, category, name string) string {
	for _, cd := range defaults {
		if cd.Category != category {
			continue
		}
		for _, it := range cd.Items {
			if it.Name == name {
				return it.Picture
			}
		}
	}
	return ""
}
