package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"roofquote/estimator"
	"roofquote/services"
)

// HandleTemplateList handles GET /api/quotes/{id}/templates
func HandleTemplateList(pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		store, err := pool.Get(e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}
		return e.JSON(http.StatusOK, store.TemplateNames())
	}
}

// HandleTemplateApply handles POST /api/quotes/{id}/templates/apply.
// The materialized items are returned; they are already part of the
// quote's catalog when the response goes out.
func HandleTemplateApply(pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		store, err := pool.Get(e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}

		var body struct {
			Name string `json:"name"`
		}
		if err := e.BindBody(&body); err != nil || body.Name == "" {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "template name is required"})
		}

		materialized, err := store.ApplyTemplate(body.Name)
		if err != nil {
			if errors.Is(err, services.ErrTemplateNotConfigured) {
				return e.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "template has no configured items"})
			}
			return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return e.JSON(http.StatusOK, materialized)
	}
}

// HandleRecommendedApply handles POST /api/quotes/{id}/recommended.
// The request body carries candidate items produced by the measurement
// integration; they enter the quote under template materialization rules.
func HandleRecommendedApply(pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		store, err := pool.Get(e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}

		var body struct {
			Items []services.ItemRecord `json:"items"`
		}
		if err := e.BindBody(&body); err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}

		return e.JSON(http.StatusOK, store.ApplyRecommended(body.Items))
	}
}
