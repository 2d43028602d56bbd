package normalize

import (
	"github.com/circulab/marketplace-go/internal/model"
)

// statusLabels maps backend suggestion statuses to their French display
// labels. Unknown values pass through unchanged.
var statusLabels = map[string]string{
	"new":       model.SuggestionNew,
	"saved":     model.SuggestionSaved,
	"ignored":   model.SuggestionIgnored,
	"contacted": model.SuggestionContacted,
}

// SuggestionStatus maps a backend status to its display label.
func SuggestionStatus(raw string) string {
	if label, ok := statusLabels[raw]; ok {
		return label
	}
	return raw
}

// Suggestion normalizes one backend interaction record into a Suggestion.
func Suggestion(v any) model.Suggestion {
	o := UnwrapObject(v, "interaction", "suggestion", "data")

	company := o.String("", "company", "company_name", "companyName", "partner")
	if company == "" {
		company = o.Child("company", "partner").String("", "name", "company_name")
	}

	s := model.Suggestion{
		ID:            o.String("", "id", "interaction_id", "interactionId", "uuid"),
		Company:       company,
		Activity:      o.String("", "activity", "sector", "activite"),
		Distance:      o.String("", "distance", "distance_km", "distanceKm"),
		Compatibility: int(CoercePercent(o.Pick("compatibility", "score", "match_score", "matchScore"))),
		Status:        SuggestionStatus(o.String("new", "status", "state")),
		Reasons:       o.Strings("reasons", "match_reasons", "matchReasons"),
		Description:   o.String("", "description", "summary"),
		Tags:          o.Strings("tags", "keywords"),
		WhatTheyOffer: o.String("", "what_they_offer", "whatTheyOffer", "offers"),
		WhatTheyWant:  o.String("", "what_they_want", "whatTheyWant", "wants"),
		CreatedAt:     CoerceDate(o.Pick("created_at", "createdAt", "date")),
	}
	if s.Reasons == nil {
		s.Reasons = []string{}
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return s
}

// Suggestions normalizes a list response into Suggestion records. Entries
// without an ID are dropped.
func Suggestions(v any) []model.Suggestion {
	raw := Unwrap(v, "data", "result", "items", "suggestions", "interactions")
	out := make([]model.Suggestion, 0, len(raw))
	for _, o := range raw {
		s := Suggestion(map[string]any(o))
		if s.ID == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SuggestionStats normalizes the suggestion stats payload.
func SuggestionStats(v any) model.SuggestionStats {
	o := UnwrapObject(v, "data", "result", "stats")
	return model.SuggestionStats{
		Total:     o.Int(0, "total", "count"),
		New:       o.Int(0, "new", "nouveau", "new_count", "newCount"),
		Saved:     o.Int(0, "saved", "sauvegarde", "saved_count", "savedCount"),
		Contacted: o.Int(0, "contacted", "contacte", "contacted_count", "contactedCount"),
	}
}
