// Package model defines the view models served to consumers of the client.
// Everything here is transient: reconstructed from server responses on every
// fetch, never durably owned by the client.
package model

import (
	"time"
)

// SuggestionStatus is the display status of a partnership suggestion.
type SuggestionStatus = string

const (
	SuggestionNew       SuggestionStatus = "nouveau"
	SuggestionSaved     SuggestionStatus = "sauvegardé"
	SuggestionIgnored   SuggestionStatus = "ignoré"
	SuggestionContacted SuggestionStatus = "contacté"
)

// Suggestion represents a partnership suggestion derived from a backend
// interaction record. Status transitions are server-authoritative; the client
// only previews them optimistically.
type Suggestion struct {
	ID            string           `json:"id"`
	Company       string           `json:"company"`
	Activity      string           `json:"activity"`
	Distance      string           `json:"distance"`
	Compatibility int              `json:"compatibility"`
	Status        SuggestionStatus `json:"status"`
	Reasons       []string         `json:"reasons"`
	Description   string           `json:"description"`
	Tags          []string         `json:"tags"`
	WhatTheyOffer string           `json:"what_they_offer,omitempty"`
	WhatTheyWant  string           `json:"what_they_want,omitempty"`
	CreatedAt     *time.Time       `json:"created_at,omitempty"`
}

// SuggestionStats summarizes the suggestion pipeline.
type SuggestionStats struct {
	Total     int `json:"total"`
	New       int `json:"new"`
	Saved     int `json:"saved"`
	Contacted int `json:"contacted"`
}
