package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"roofquote/estimator"
	"roofquote/services"
)

// quoteResponse is the JSON shape for one quote. Items are served by the
// item endpoints, not inlined here.
type quoteResponse struct {
	ID           string `json:"id"`
	QuoteNumber  string `json:"quote_number"`
	Contact      string `json:"contact,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Address      string `json:"address,omitempty"`
	Status       string `json:"status"`
	Created      string `json:"created,omitempty"`
}

func quoteToResponse(r *core.Record) quoteResponse {
	resp := quoteResponse{
		ID:           r.Id,
		QuoteNumber:  r.GetString("quote_number"),
		Contact:      r.GetString("contact"),
		CustomerName: r.GetString("customer_name"),
		Address:      r.GetString("address"),
		Status:       r.GetString("status"),
	}
	if dt := r.GetDateTime("created"); !dt.IsZero() {
		resp.Created = dt.Time().Format("2006-01-02")
	}
	return resp
}

// HandleQuoteList handles GET /api/quotes with an optional ?contact=
// filter.
func HandleQuoteList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		query := app.RecordQuery("quotes").OrderBy("created DESC")
		if contactID := e.Request.URL.Query().Get("contact"); contactID != "" {
			query = query.AndWhere(dbx.HashExp{"contact": contactID})
		}

		records := []*core.Record{}
		if err := query.All(&records); err != nil {
			log.Printf("quotes: HandleQuoteList: query failed: %v", err)
			return e.JSON(http.StatusInternalServerError, map[string]string{"error": "could not list quotes"})
		}

		out := make([]quoteResponse, 0, len(records))
		for _, r := range records {
			out = append(out, quoteToResponse(r))
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleQuoteGet handles GET /api/quotes/{id}
func HandleQuoteGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		record, err := app.FindRecordById("quotes", e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}
		return e.JSON(http.StatusOK, quoteToResponse(record))
	}
}

// HandleQuoteCreate handles POST /api/quotes. A contact id is optional;
// the customer snapshot fields are filled from the contact when present.
func HandleQuoteCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Contact      string `json:"contact"`
			CustomerName string `json:"customer_name"`
			Address      string `json:"address"`
		}
		if err := e.BindBody(&body); err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}

		col, err := app.FindCollectionByNameOrId("quotes")
		if err != nil {
			log.Printf("quotes: HandleQuoteCreate: collection lookup failed: %v", err)
			return e.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create quote"})
		}

		if body.Contact != "" {
			contact, err := app.FindRecordById("contacts", body.Contact)
			if err != nil {
				return e.JSON(http.StatusBadRequest, map[string]string{"error": "contact not found"})
			}
			if body.CustomerName == "" {
				body.CustomerName = contact.GetString("name")
			}
			if body.Address == "" {
				body.Address = contact.GetString("address")
			}
		}

		number, err := services.GenerateQuoteNumber(app, time.Now())
		if err != nil {
			log.Printf("quotes: HandleQuoteCreate: quote number generation failed: %v", err)
			return e.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create quote"})
		}

		record := core.NewRecord(col)
		record.Set("contact", body.Contact)
		record.Set("quote_number", number)
		record.Set("customer_name", strings.TrimSpace(body.CustomerName))
		record.Set("address", strings.TrimSpace(body.Address))
		record.Set("status", "draft")

		if err := app.Save(record); err != nil {
			log.Printf("quotes: HandleQuoteCreate: save failed: %v", err)
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "could not save quote"})
		}

		return e.JSON(http.StatusCreated, quoteToResponse(record))
	}
}

// HandleQuoteUpdateStatus handles PATCH /api/quotes/{id}/status
func HandleQuoteUpdateStatus(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		record, err := app.FindRecordById("quotes", e.Request.PathValue("id"))
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}

		var body struct {
			Status string `json:"status"`
		}
		if err := e.BindBody(&body); err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}

		record.Set("status", body.Status)
		if err := app.Save(record); err != nil {
			log.Printf("quotes: HandleQuoteUpdateStatus: save failed: %v", err)
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "invalid status"})
		}

		return e.JSON(http.StatusOK, quoteToResponse(record))
	}
}

// HandleQuoteDelete handles DELETE /api/quotes/{id}. The quote's open
// store, if any, is discarded without a flush -- a write against a
// deleted record could only fail.
func HandleQuoteDelete(app *pocketbase.PocketBase, pool *estimator.Pool) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		record, err := app.FindRecordById("quotes", id)
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "quote not found"})
		}

		if err := app.Delete(record); err != nil {
			log.Printf("quotes: HandleQuoteDelete: delete failed: %v", err)
			return e.JSON(http.StatusInternalServerError, map[string]string{"error": "could not delete quote"})
		}

		pool.Discard(id)
		return e.JSON(http.StatusOK, map[string]string{"status": "deleted"})
	}
}
