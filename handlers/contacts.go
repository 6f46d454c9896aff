// Package handlers wires the quote workspace to HTTP. Handlers are thin:
// they parse the request, call into services/estimator, and reply with
// JSON. All pricing and catalog rules live below this layer.
package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// contactResponse is the JSON shape for one contact.
type contactResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func contactToResponse(r *core.Record) contactResponse {
	return contactResponse{
		ID:      r.Id,
		Name:    r.GetString("name"),
		Company: r.GetString("company"),
		Phone:   r.GetString("phone"),
		Email:   r.GetString("email"),
		Address: r.GetString("address"),
		Notes:   r.GetString("notes"),
	}
}

// HandleContactList handles GET /api/contacts
func HandleContactList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records := []*core.Record{}
		if err := app.RecordQuery("contacts").OrderBy("created DESC").All(&records); err != nil {
			log.Printf("contacts: HandleContactList: query failed: %v", err)
			return e.JSON(http.StatusInternalServerError, map[string]string{"error": "could not list contacts"})
		}

		out := make([]contactResponse, 0, len(records))
		for _, r := range records {
			out = append(out, contactToResponse(r))
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleContactCreate handles POST /api/contacts
func HandleContactCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Name    string `json:"name"`
			Company string `json:"company"`
			Phone   string `json:"phone"`
			Email   string `json:"email"`
			Address string `json:"address"`
			Notes   string `json:"notes"`
		}
		if err := e.BindBody(&body); err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
		}

		col, err := app.FindCollectionByNameOrId("contacts")
		if err != nil {
			log.Printf("contacts: HandleContactCreate: collection lookup failed: %v", err)
			return e.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create contact"})
		}

		record := core.NewRecord(col)
		record.Set("name", body.Name)
		record.Set("company", body.Company)
		record.Set("phone", body.Phone)
		record.Set("email", body.Email)
		record.Set("address", body.Address)
		record.Set("notes", body.Notes)

		if err := app.Save(record); err != nil {
			log.Printf("contacts: HandleContactCreate: save failed: %v", err)
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "could not save contact"})
		}

		return e.JSON(http.StatusCreated, contactToResponse(record))
	}
}

// HandleContactUpdate handles PATCH /api/contacts/{id}
func HandleContactUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		record, err := app.FindRecordById("contacts", id)
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "contact not found"})
		}

		var body map[string]string
		if err := e.BindBody(&body); err != nil {
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}

		for _, field := range []string{"name", "company", "phone", "email", "address", "notes"} {
			if v, ok := body[field]; ok {
				if field == "name" && strings.TrimSpace(v) == "" {
					return e.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
				}
				record.Set(field, v)
			}
		}

		if err := app.Save(record); err != nil {
			log.Printf("contacts: HandleContactUpdate: save failed: %v", err)
			return e.JSON(http.StatusBadRequest, map[string]string{"error": "could not save contact"})
		}

		return e.JSON(http.StatusOK, contactToResponse(record))
	}
}

// HandleContactDelete handles DELETE /api/contacts/{id}
func HandleContactDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		record, err := app.FindRecordById("contacts", id)
		if err != nil {
			return e.JSON(http.StatusNotFound, map[string]string{"error": "contact not found"})
		}

		// Quotes keep their customer_name snapshot; the relation just goes
		// empty, so deleting a contact never deletes its quotes.
		if err := app.Delete(record); err != nil {
			log.Printf("contacts: HandleContactDelete: delete failed: %v", err)
			return e.JSON(http.StatusInternalServerError, map[string]string{"error": "could not delete contact"})
		}

		return e.JSON(http.StatusOK, map[string]string{"status": "deleted"})
	}
}
