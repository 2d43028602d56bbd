package normalize

import (
	"strings"

	"github.com/circulab/marketplace-go/internal/model"
)

// StatusTone derives a display tone from a free-text status string by keyword
// matching. The mapping is deliberate and covered by tests: changing it
// changes badge colors across the admin dashboard.
func StatusTone(status string) model.Tone {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "active"), strings.Contains(s, "actif"),
		strings.Contains(s, "validé"), strings.Contains(s, "approved"):
		return model.ToneSuccess
	case strings.Contains(s, "pending"), strings.Contains(s, "attente"),
		strings.Contains(s, "review"):
		return model.TonePending
	case strings.Contains(s, "suspend"), strings.Contains(s, "bloqu"),
		strings.Contains(s, "inactive"), strings.Contains(s, "inactif"),
		strings.Contains(s, "rejected"), strings.Contains(s, "refusé"):
		return model.ToneDanger
	default:
		return model.ToneNeutral
	}
}

// AdminCompany normalizes one admin company record.
func AdminCompany(v any) model.AdminCompanyRow {
	o := UnwrapObject(v, "company", "data")
	status := o.String("", "status", "state", "statut")
	return model.AdminCompanyRow{
		ID:             o.String("", "id", "company_id", "companyId", "uuid"),
		Name:           o.String("", "name", "company_name", "companyName", "raison_sociale"),
		Email:          o.String("", "email", "contact_email", "contactEmail"),
		Sector:         o.String("", "sector", "activity", "secteur"),
		Status:         status,
		StatusTone:     StatusTone(status),
		CreatedAt:      CoerceDate(o.Pick("created_at", "createdAt", "registered_at", "registeredAt")),
		LastActivityAt: CoerceDate(o.Pick("last_activity_at", "lastActivityAt", "last_seen", "lastSeen")),
	}
}

// AdminCompanies normalizes the admin company list response. Entries without
// an ID are dropped.
func AdminCompanies(v any) []model.AdminCompanyRow {
	raw := Unwrap(v, "data", "result", "items", "companies")
	out := make([]model.AdminCompanyRow, 0, len(raw))
	for _, o := range raw {
		row := AdminCompany(map[string]any(o))
		if row.ID == "" {
			continue
		}
		out = append(out, row)
	}
	return out
}

// AdminMetrics normalizes the dashboard metrics payload, which arrives either
// as a list of metric objects or as a flat key/value object.
func AdminMetrics(v any) []model.AdminMetric {
	if raw := Unwrap(v, "data", "result", "items", "metrics", "stats"); raw != nil {
		out := make([]model.AdminMetric, 0, len(raw))
		for _, o := range raw {
			key := o.String("", "key", "id", "name")
			if key == "" {
				continue
			}
			value, _ := CoerceNumber(o.Pick("value", "count", "total"))
			out = append(out, model.AdminMetric{
				Key:     key,
				Label:   o.String(key, "label", "title"),
				Value:   value,
				Percent: CoercePercent(o.Pick("percent", "rate", "ratio", "growth")),
			})
		}
		return out
	}

	o := UnwrapObject(v, "data", "result", "metrics", "stats")
	out := make([]model.AdminMetric, 0, len(o))
	for key := range o {
		value, ok := CoerceNumber(o[key])
		if !ok {
			continue
		}
		out = append(out, model.AdminMetric{Key: key, Label: key, Value: value})
	}
	return out
}
