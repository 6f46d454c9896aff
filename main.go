package main

import (
	"log"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"roofquote/collections"
	"roofquote/estimator"
	"roofquote/handlers"
	"roofquote/services"
)

func main() {
	app := pocketbase.New()

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateOrphanQuotesToContacts(app); err != nil {
			log.Printf("Warning: contact migration failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// Serve catalog item pictures from ./img
		se.Router.GET("/img/{path...}", apis.Static(os.DirFS("./img"), false))

		pool := estimator.NewPool(estimator.NewQuoteRecords(app), services.DefaultCatalog())

		// ── Contact CRUD ─────────────────────────────────────────
		se.Router.GET("/api/contacts", handlers.HandleContactList(app))
		se.Router.POST("/api/contacts", handlers.HandleContactCreate(app))
		se.Router.PATCH("/api/contacts/{id}", handlers.HandleContactUpdate(app))
		se.Router.DELETE("/api/contacts/{id}", handlers.HandleContactDelete(app))

		// ── Quote CRUD ───────────────────────────────────────────
		se.Router.GET("/api/quotes", handlers.HandleQuoteList(app))
		se.Router.POST("/api/quotes", handlers.HandleQuoteCreate(app))
		se.Router.GET("/api/quotes/{id}", handlers.HandleQuoteGet(app))
		se.Router.PATCH("/api/quotes/{id}/status", handlers.HandleQuoteUpdateStatus(app))
		se.Router.DELETE("/api/quotes/{id}", handlers.HandleQuoteDelete(app, pool))

		// ── Quote items (bulk must be before {itemId} to avoid matching "bulk" as an ID) ──
		se.Router.GET("/api/quotes/{id}/items", handlers.HandleItemList(pool))
		se.Router.POST("/api/quotes/{id}/items", handlers.HandleItemAdd(pool))
		se.Router.DELETE("/api/quotes/{id}/items/bulk", handlers.HandleItemBulkDelete(pool))
		se.Router.PATCH("/api/quotes/{id}/items/{itemId}", handlers.HandleItemUpdateField(pool))
		se.Router.DELETE("/api/quotes/{id}/items/{itemId}", handlers.HandleItemDelete(pool))
		se.Router.POST("/api/quotes/{id}/items/move", handlers.HandleItemMoveCategory(pool))
		se.Router.POST("/api/quotes/{id}/items/consolidated", handlers.HandleConsolidatedEdit(pool))

		// ── Templates & recommendations ──────────────────────────
		se.Router.GET("/api/quotes/{id}/templates", handlers.HandleTemplateList(pool))
		se.Router.POST("/api/quotes/{id}/templates/apply", handlers.HandleTemplateApply(pool))
		se.Router.POST("/api/quotes/{id}/recommended", handlers.HandleRecommendedApply(pool))

		// ── Exports ──────────────────────────────────────────────
		se.Router.GET("/api/quotes/{id}/export/material-order", handlers.HandleMaterialOrderExcel(app, pool))
		se.Router.GET("/api/quotes/{id}/export/estimate", handlers.HandleEstimatePDF(app, pool))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
