package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase"
)

// formatQuoteNumber constructs the quote number string from components.
// Uses "-" as separator so the number stays filter-safe in record queries.
func formatQuoteNumber(year int, sequence int) string {
	return fmt.Sprintf("RQ-%02d-%03d", year%100, sequence)
}

// GenerateQuoteNumber creates the next quote number.
// Format: RQ-{YY}-{sequence}, sequence 3-digit zero-padded per calendar year.
func GenerateQuoteNumber(app *pocketbase.PocketBase, now time.Time) (string, error) {
	prefix := fmt.Sprintf("RQ-%02d-", now.Year()%100)

	existing, err := app.FindRecordsByFilter(
		"quotes",
		"quote_number ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{"prefix": prefix + "%"},
	)
	if err != nil {
		// Collection missing or empty -- start the sequence at 1.
		existing = nil
	}

	return formatQuoteNumber(now.Year(), len(existing)+1), nil
}
