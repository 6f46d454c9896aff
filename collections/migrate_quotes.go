package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// MigrateOrphanQuotesToContacts finds all quote records that have no
// contact assigned and creates a contact for each one from the quote's
// customer fields, linking them together.
// Safe to call on every startup -- returns early if nothing to migrate.
func MigrateOrphanQuotesToContacts(app *pocketbase.PocketBase) error {
	quotesCol, err := app.FindCollectionByNameOrId("quotes")
	if err != nil {
		return fmt.Errorf("migrate: could not find quotes collection: %w", err)
	}

	contactsCol, err := app.FindCollectionByNameOrId("contacts")
	if err != nil {
		return fmt.Errorf("migrate: could not find contacts collection: %w", err)
	}

	orphanQuotes, err := app.FindRecordsByFilter(
		quotesCol,
		"contact = ''",
		"",
		0,
		0,
		nil,
	)
	if err != nil {
		return fmt.Errorf("migrate: could not query orphan quotes: %w", err)
	}

	if len(orphanQuotes) == 0 {
		return nil
	}

	log.Printf("migrate: found %d orphan quote(s) without a contact -- creating contacts...\n", len(orphanQuotes))

	for _, quote := range orphanQuotes {
		customerName := quote.GetString("customer_name")
		if customerName == "" {
			customerName = "Unknown Customer (" + quote.GetString("quote_number") + ")"
		}

		contactRecord := core.NewRecord(contactsCol)
		contactRecord.Set("name", customerName)
		contactRecord.Set("address", quote.GetString("address"))

		if err := app.Save(contactRecord); err != nil {
			log.Printf("migrate: failed to create contact for quote %q (%s): %v\n", customerName, quote.Id, err)
			continue
		}

		quote.Set("contact", contactRecord.Id)
		if err := app.Save(quote); err != nil {
			log.Printf("migrate: failed to link quote %s to contact %s: %v\n", quote.Id, contactRecord.Id, err)
			continue
		}

		log.Printf("migrate: quote %q -> contact %q (%s)\n", quote.GetString("quote_number"), customerName, contactRecord.Id)
	}

	log.Println("migrate: orphan quote migration complete.")
	return nil
}
