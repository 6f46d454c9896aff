package services

import "sort"

// MaterialOrderRow is one line of the material-order export: a raw item
// flagged show_on_material_order, listed per source so the supplier sees
// exact quantities.
type MaterialOrderRow struct {
	Category string
	Name     string
	Unit     string
	Quantity float64
	UnitCost float64
}

// MaterialOrderData holds everything the material-order Excel needs.
type MaterialOrderData struct {
	QuoteNumber  string
	CustomerName string
	CreatedDate  string
	Rows         []MaterialOrderRow
	TotalCost    float64
}

// BuildMaterialOrder selects the raw items destined for the material
// order, grouped by category in catalog display order, names sorted
// within each category. Totals here are supplier cost (unit_cost * qty),
// not customer price -- markup never appears on a material order.
func BuildMaterialOrder(quoteNumber, customerName, createdDate string, items []ItemRecord) MaterialOrderData {
	data := MaterialOrderData{
		QuoteNumber:  quoteNumber,
		CustomerName: customerName,
		CreatedDate:  createdDate,
	}

	categoryRank := make(map[string]int, len(CategoryOptions))
	for i, c := range CategoryOptions {
		categoryRank[c] = i
	}

	for _, it := range items {
		if !it.ShowOnMaterialOrder {
			continue
		}
		data.Rows = append(data.Rows, MaterialOrderRow{
			Category: it.Category,
			Name:     it.Name,
			Unit:     it.Unit,
			Quantity: it.Quantity,
			UnitCost: it.UnitCost,
		})
		data.TotalCost += it.UnitCost * it.Quantity
	}

	sort.SliceStable(data.Rows, func(i, j int) bool {
		ri, rj := data.Rows[i], data.Rows[j]
		if ri.Category != rj.Category {
			return categoryRank[ri.Category] < categoryRank[rj.Category]
		}
		return ri.Name < rj.Name
	})

	return data
}

// EstimateRow is one line of the customer estimate: a consolidated view
// of same-named items, with the aggregate charge.
type EstimateRow struct {
	Name         string
	Unit         string
	Quantity     float64
	Total        float64
	Inconsistent bool
}

// EstimateData holds everything the estimate PDF needs.
type EstimateData struct {
	QuoteNumber  string
	CustomerName string
	CreatedDate  string
	Rows         []EstimateRow
	Total        float64
}

// BuildEstimate consolidates the items flagged show_on_estimate for the
// customer-facing estimate. Duplicate names are grouped the same way the
// estimator view groups them.
func BuildEstimate(quoteNumber, customerName, createdDate string, items []ItemRecord) EstimateData {
	data := EstimateData{
		QuoteNumber:  quoteNumber,
		CustomerName: customerName,
		CreatedDate:  createdDate,
	}

	visible := make([]ItemRecord, 0, len(items))
	for _, it := range items {
		if it.ShowOnEstimate {
			visible = append(visible, it)
		}
	}

	for _, row := range GroupByName(visible) {
		data.Rows = append(data.Rows, EstimateRow{
			Name:         row.Name,
			Unit:         row.Unit,
			Quantity:     row.Quantity,
			Total:        row.Total,
			Inconsistent: row.Inconsistent,
		})
		data.Total += row.Total
	}

	return data
}
