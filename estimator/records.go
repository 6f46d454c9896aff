// Package estimator owns the working state of one quote's item list: it
// loads the persisted catalog, reconciles it against the default set,
// applies mutations, and flushes back to the record store on a debounced
// schedule.
package estimator

import (
	"fmt"

	"github.com/pocketbase/pocketbase"

	"roofquote/services"
)

// QuoteData is the engine-relevant slice of a persisted quote record.
type QuoteData struct {
	Items           []services.ItemRecord
	TemplateConfigs map[string][]services.ItemRecord
}

// RecordStore is the persistence collaborator. The engine treats it as an
// opaque JSON document store keyed by quote id with no transactional
// guarantees across fields.
type RecordStore interface {
	Load(quoteID string) (QuoteData, error)
	SaveItems(quoteID string, items []services.ItemRecord) error
}

// QuoteRecords reads and writes quote item lists against the embedded
// PocketBase quotes collection, where items and template configurations
// live in JSON fields on the quote record.
type QuoteRecords struct {
	app *pocketbase.PocketBase
}

func NewQuoteRecords(app *pocketbase.PocketBase) *QuoteRecords {
	return &QuoteRecords{app: app}
}

func (r *QuoteRecords) Load(quoteID string) (QuoteData, error) {
	record, err := r.app.FindRecordById("quotes", quoteID)
	if err != nil {
		return QuoteData{}, fmt.Errorf("records: quote %s not found: %w", quoteID, err)
	}

	// Fresh quotes carry empty JSON fields; treat those as empty state
	// rather than a malformed document.
	var data QuoteData
	if raw := record.GetString("items"); raw != "" && raw != "null" {
		if err := record.UnmarshalJSONField("items", &data.Items); err != nil {
			return QuoteData{}, fmt.Errorf("records: quote %s has malformed items: %w", quoteID, err)
		}
	}
	if raw := record.GetString("template_configs"); raw != "" && raw != "null" {
		if err := record.UnmarshalJSONField("template_configs", &data.TemplateConfigs); err != nil {
			return QuoteData{}, fmt.Errorf("records: quote %s has malformed template configs: %w", quoteID, err)
		}
	}
	return data, nil
}

func (r *QuoteRecords) SaveItems(quoteID string, items []services.ItemRecord) error {
	record, err := r.app.FindRecordById("quotes", quoteID)
	if err != nil {
		return fmt.Errorf("records: quote %s not found: %w", quoteID, err)
	}

	record.Set("items", items)
	if err := r.app.Save(record); err != nil {
		return fmt.Errorf("records: save quote %s items: %w", quoteID, err)
	}
	return nil
}
