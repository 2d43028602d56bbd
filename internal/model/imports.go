package model

import (
	"time"
)

// ImportReport is the normalized result of analyzing an uploaded import file.
type ImportReport struct {
	FileID      string   `json:"file_id"`
	Rows        int      `json:"rows"`
	Imported    int      `json:"imported"`
	Productions int      `json:"productions"`
	Wastes      int      `json:"wastes"`
	Needs       int      `json:"needs"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
}

// ImportHistoryEntry is a past import run.
type ImportHistoryEntry struct {
	ID        string     `json:"id"`
	Filename  string     `json:"filename"`
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Page is normalized pagination metadata. Missing fields are computed from
// whichever subset the backend sent.
type Page struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
