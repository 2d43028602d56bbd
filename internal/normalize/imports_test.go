package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circulab/marketplace-go/internal/model"
)

func TestImportReportNestedCounts(t *testing.T) {
	report := ImportReport(decode(t, `{"data": {
		"file_id": "f-1",
		"counts": {"rows": 10, "imported": 9, "productions": 4, "wastes": 3, "needs": 2},
		"errors": ["ligne 3: quantité manquante"],
		"warnings": []
	}}`))
	require.Equal(t, "f-1", report.FileID)
	require.Equal(t, 10, report.Rows)
	require.Equal(t, 9, report.Imported)
	require.Equal(t, 4, report.Productions)
	require.Equal(t, 3, report.Wastes)
	require.Equal(t, 2, report.Needs)
	require.Equal(t, []string{"ligne 3: quantité manquante"}, report.Errors)
	require.NotNil(t, report.Warnings)
}

func TestImportReportFlatCounts(t *testing.T) {
	report := ImportReport(decode(t, `{"rows": 5, "imported": 5}`))
	require.Equal(t, 5, report.Rows)
	require.Equal(t, 5, report.Imported)
	require.NotNil(t, report.Errors)
	require.NotNil(t, report.Warnings)
}

func TestImportHistoryDropsMissingID(t *testing.T) {
	out := ImportHistory(decode(t, `{"data": [
		{"id": "imp-1", "filename": "flux.xlsx", "status": "done", "created_at": "2026-02-10T08:00:00Z"},
		{"filename": "orphelin.csv"}
	]}`))
	require.Len(t, out, 1)
	require.Equal(t, "flux.xlsx", out[0].Filename)
	require.NotNil(t, out[0].CreatedAt)
}

func TestPagination(t *testing.T) {
	t.Run("complete meta", func(t *testing.T) {
		page := Pagination(decode(t, `{"meta": {"page": 2, "per_page": 20, "total": 45, "total_pages": 3}}`))
		require.Equal(t, model.Page{Page: 2, PerPage: 20, Total: 45, TotalPages: 3}, page)
	})

	t.Run("total pages derived", func(t *testing.T) {
		page := Pagination(decode(t, `{"meta": {"page": 1, "per_page": 20, "total": 45}}`))
		require.Equal(t, 3, page.TotalPages)
	})

	t.Run("total derived", func(t *testing.T) {
		page := Pagination(decode(t, `{"pagination": {"total_pages": 4, "per_page": 10}}`))
		require.Equal(t, 40, page.Total)
	})

	t.Run("flat fields with defaults", func(t *testing.T) {
		page := Pagination(decode(t, `{"page": 3}`))
		require.Equal(t, 3, page.Page)
		require.Equal(t, 20, page.PerPage)
	})
}

func TestProfileCompletionRatio(t *testing.T) {
	ratio := ProfileCompletion(decode(t, `{"data": {"percent": 0.75, "missing_fields": ["phone"]}}`))
	require.Equal(t, 75, ratio.Percent)
	require.Equal(t, []string{"phone"}, ratio.MissingFields)

	whole := ProfileCompletion(decode(t, `{"completion": 75}`))
	require.Equal(t, 75, whole.Percent)
	require.NotNil(t, whole.MissingFields)
}

func TestCompanyProfile(t *testing.T) {
	profile := CompanyProfile(decode(t, `{"data": {
		"id": "co-1", "name": "Atelier Circulaire", "secteur": "textile",
		"avatarUrl": "/media/co-1.png"
	}}`))
	require.Equal(t, "co-1", profile.ID)
	require.Equal(t, "textile", profile.Sector)
	require.Equal(t, "/media/co-1.png", profile.AvatarURL)
}
