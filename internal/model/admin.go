package model

import (
	"time"
)

// Tone classifies a free-text status string for display.
type Tone string

const (
	ToneSuccess Tone = "success"
	TonePending Tone = "pending"
	ToneDanger  Tone = "danger"
	ToneNeutral Tone = "neutral"
)

// AdminCompanyRow is a normalized row of the admin company table.
type AdminCompanyRow struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Sector         string     `json:"sector"`
	Status         string     `json:"status"`
	StatusTone     Tone       `json:"status_tone"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// AdminMetric is a single normalized dashboard metric.
type AdminMetric struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}
