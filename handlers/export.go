package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"roofquote/estimator"
	"roofquote/services"
)

// exportContext resolves the quote header fields and the live item list
// for an export. Items come from the open store so unflushed edits are
// included.
func exportContext(app *pocketbase.PocketBase, pool *estimator.Pool, quoteID string) (quoteNumber, customerName, createdDate string, items []services.ItemRecord, err error) {
	record, err := app.FindRecordById("quotes", quoteID)
	if err != nil {
		return "", "", "", nil, fmt.Errorf("quote not found: %w", err)
	}

	store, err := pool.Get(quoteID)
	if err != nil {
		return "", "", "", nil, err
	}

	createdDate = "—"
	if dt := record.GetDateTime("created"); !dt.IsZero() {
		createdDate = dt.Time().Format("02 Jan 2006")
	}

	return record.GetString("quote_number"), record.GetString("customer_name"), createdDate, store.Items(), nil
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}

// HandleMaterialOrderExcel returns a handler that generates and downloads
// the supplier material order for a quote.
func HandleMaterialOrderExcel(app *pocketbase.PocketBase, pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		number, customer, created, items, err := exportContext(app, pool, quoteID)
		if err != nil {
			log.Printf("export: HandleMaterialOrderExcel: %v", err)
			return e.String(http.StatusNotFound, "Quote not found")
		}

		data := services.BuildMaterialOrder(number, customer, created, items)
		xlsxBytes, err := services.GenerateMaterialOrderExcel(data)
		if err != nil {
			log.Printf("export: HandleMaterialOrderExcel: failed to generate: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to generate Excel file")
		}

		filename := fmt.Sprintf("MaterialOrder_%s.xlsx", sanitizeFilename(number))

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// HandleEstimatePDF returns a handler that generates and downloads the
// customer estimate for a quote.
func HandleEstimatePDF(app *pocketbase.PocketBase, pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		number, customer, created, items, err := exportContext(app, pool, quoteID)
		if err != nil {
			log.Printf("export: HandleEstimatePDF: %v", err)
			return e.String(http.StatusNotFound, "Quote not found")
		}

		data := services.BuildEstimate(number, customer, created, items)
		pdfBytes, err := services.GenerateEstimatePDF(data)
		if err != nil {
			log.Printf("export: HandleEstimatePDF: failed to generate: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to generate PDF file")
		}

		filename := fmt.Sprintf("Estimate_%s.pdf", sanitizeFilename(number))

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(pdfBytes)
		return nil
	}
}
