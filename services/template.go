package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrTemplateNotConfigured signals a materialization request for a
// template whose configured subset is empty and whose name matches no
// variable-bearing family. An explicit signal, not an empty success: an
// empty-but-valid template is distinguishable from a missing one.
var ErrTemplateNotConfigured = errors.New("template: no configured items for template")

// variableFamilyKeywords is the static lookup of roofing-system keywords
// whose templates carry decision-point variable items. Membership is a
// fixed product rule, never inferred from the configured subset.
var variableFamilyKeywords = []string{
	"standing seam",
}

// variableItems are the fixed placeholder items prepended for
// variable-bearing template families: zero-cost records representing the
// decisions an estimator must make before the quote is complete.
var variableItems = []ItemRecord{
	{Name: "Removal", Category: CategoryVariables, Unit: "ea"},
	{Name: "Deck Type", Category: CategoryVariables, Unit: "ea"},
	{Name: "Insulation", Category: CategoryVariables, Unit: "ea"},
	{Name: "Underlayment", Category: CategoryVariables, Unit: "ea"},
	{Name: "System Type", Category: CategoryVariables, Unit: "ea"},
}

// HasVariableItems reports whether a template name belongs to a
// variable-bearing family.
func HasVariableItems(templateName string) bool {
	lower := strings.ToLower(templateName)
	for _, kw := range variableFamilyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Materialize produces fresh line items for a target quote from a named
// template's configured subset. Variable-bearing families prepend their
// fixed variable items. Every materialized item gets a new collision-free
// id, so applying the same template twice never collides; each is
// enriched with live catalog presentation data when an id or name match
// exists, without touching its cost fields.
func Materialize(templateName string, configuredSubset, catalog []ItemRecord) ([]ItemRecord, error) {
	withVars := HasVariableItems(templateName)
	if len(configuredSubset) == 0 && !withVars {
		return nil, ErrTemplateNotConfigured
	}

	out := make([]ItemRecord, 0, len(configuredSubset)+len(variableItems))

	if withVars {
		for _, v := range variableItems {
			item := v
			item.ID = uuid.NewString()
			item.SourceType = SourceTemplate
			item.ShowInApp = true
			item.ShowOnEstimate = true
			out = append(out, item)
		}
	}

	for _, configured := range configuredSubset {
		item := configured
		enrich(&item, catalog)
		item.ID = uuid.NewString()
		item.SourceType = SourceTemplate
		item.Total = DeriveTotal(item)
		out = append(out, item)
	}

	return out, nil
}

// MaterializeCandidates adapts recommendation output into quote items
// under the same enrichment and id-generation rules as a materialized
// template. The recommendation collaborator is optional; this function
// only shapes whatever it returned.
func MaterializeCandidates(candidates, catalog []ItemRecord) []ItemRecord {
	out := make([]ItemRecord, 0, len(candidates))
	for _, candidate := range candidates {
		item := candidate
		enrich(&item, catalog)
		item.ID = uuid.NewString()
		if item.SourceType == "" {
			item.SourceType = SourceRecommended
		}
		item.Total = DeriveTotal(item)
		out = append(out, item)
	}
	return out
}

// enrich copies presentation fields from a catalog entry matching by id
// or name. Cost fields are never altered.
func enrich(item *ItemRecord, catalog []ItemRecord) {
	for _, entry := range catalog {
		if entry.ID != item.ID && entry.Name != item.Name {
			continue
		}
		if entry.Picture != "" {
			item.Picture = entry.Picture
		}
		return
	}
}
