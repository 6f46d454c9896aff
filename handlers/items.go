package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"roofquote/estimator"
	"roofquote/services"
)

// HandleItemList handles GET /api/quotes/{id}/items. With ?view=consolidated
// the display aggregates are returned instead of the raw records.
func HandleItemList(pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		store, err := pool.Get(e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}

		if e.Request.URL.Query().Get("view") == "consolidated" {
			return e.JSON(http.StatusOK, store.Consolidated())
		}
		return e.JSON(http.StatusOK, store.Items())
	}
}

// HandleItemAdd handles POST /api/quotes/{id}/items
func HandleItemAdd(pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		store, err := pool.Get(e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}

		var item services.ItemRecord
		if err := e.BindBody(&item); err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}

		added, err := store.Add(item)
		if err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return e.JSON(http.StatusCreated, added)
	}
}

// HandleItemUpdateField handles PATCH /api/quotes/{id}/items/{itemId}.
// The body carries exactly one field/value pair; pricing propagates in
// one direction only. A 200 with needs_review set means the edit was
// kept but its multiplier could not be derived.
func HandleItemUpdateField(pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		store, err := pool.Get(e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}

		var body struct {
			Field string `json:"field"`
			Value string `json:"value"`
		}
		if err := e.BindBody(&body); err != nil || body.Field == "" {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "field and value are required"})
		}

		value, err := services.ParseFieldValue(body.Field, body.Value)
		if err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		item, err := store.UpdateField(e.Request.PathValue("itemId"), body.Field, value)
		if err != nil {
			if errors.Is(err, services.ErrUndefinedDerivation) {
				// The flagged record was committed; surface it with the flag.
				return e.JSON(http.StatusOK, item)
			}
			return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return e.JSON(http.StatusOK, item)
	}
}

// HandleItemDelete handles DELETE /api/quotes/{id}/items/{itemId}
func HandleItemDelete(pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		store, err := pool.Get(e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}

		if err := store.Remove(e.Request.PathValue("itemId")); err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return e.JSON(http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// HandleItemBulkDelete handles DELETE /api/quotes/{id}/items/bulk.
// All-or-nothing: one unknown id fails the whole request.
func HandleItemBulkDelete(pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		store, err := pool.Get(e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}

		var body struct {
			IDs []string `json:"ids"`
		}
		if err := e.BindBody(&body); err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}

		if err := store.RemoveMany(body.IDs); err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return e.JSON(http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// HandleItemMoveCategory handles POST /api/quotes/{id}/items/move.
// All-or-nothing like bulk delete.
func HandleItemMoveCategory(pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		store, err := pool.Get(e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}

		var body struct {
			IDs      []string `json:"ids"`
			Category string   `json:"category"`
		}
		if err := e.BindBody(&body); err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}

		if err := store.MoveCategory(body.IDs, body.Category); err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return e.JSON(http.StatusOK, store.Items())
	}
}

// HandleConsolidatedEdit handles POST /api/quotes/{id}/items/consolidated.
// The body names the member ids of the consolidated row plus the edited
// fields; a multi-member row collapses into its first member.
func HandleConsolidatedEdit(pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		store, err := pool.Get(e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}

		var body struct {
			IDs       []string `json:"ids"`
			Name      *string  `json:"name"`
			Unit      *string  `json:"unit"`
			Category  *string  `json:"category"`
			Quantity  *float64 `json:"quantity"`
			UnitCost  *float64 `json:"unit_cost"`
			MarkupPct *float64 `json:"markup_pct"`
			Total     *float64 `json:"total"`
		}
		if err := e.BindBody(&body); err != nil || len(body.IDs) == 0 {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "ids are required"})
		}

		// Resolve the named ids back to a live consolidated row; a stale
		// view (ids no longer grouped together) is rejected.
		row, ok := findConsolidatedRow(store.Consolidated(), body.IDs)
		if !ok {
			return e.JSON(http.StatusConflict, map[string]string{"error": "consolidated row is stale, reload the view"})
		}

		item, err := store.ApplyConsolidatedEdit(row, services.ConsolidatedEdit{
			Name:      body.Name,
			Unit:      body.Unit,
			Category:  body.Category,
			Quantity:  body.Quantity,
			UnitCost:  body.UnitCost,
			MarkupPct: body.MarkupPct,
			Total:     body.Total,
		})
		if err != nil {
			log.Printf("items: HandleConsolidatedEdit: %v", err)
			return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return e.JSON(http.StatusOK, item)
	}
}

func findConsolidatedRow(rows []services.ConsolidatedItem, ids []string) (services.ConsolidatedItem, bool) {
	for _, row := range rows {
		if len(row.IDs) != len(ids) {
			continue
		}
		match := true
		for i := range ids {
			if row.IDs[i] != ids[i] {
				match = false
				break
			}
		}
		if match {
			return row, true
		}
	}
	return services.ConsolidatedItem{}, false
}
