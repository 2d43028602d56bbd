package normalize

import (
	"github.com/circulab/marketplace-go/internal/model"
)

// ImportReport normalizes the result of analyzing an uploaded import file.
func ImportReport(v any) model.ImportReport {
	o := UnwrapObject(v, "data", "result", "report", "analysis")
	counts := o.Child("counts", "totals", "summary")
	if len(counts) == 0 {
		counts = o
	}
	report := model.ImportReport{
		FileID:      o.String("", "file_id", "fileId", "id"),
		Rows:        counts.Int(0, "rows", "total_rows", "totalRows", "lines"),
		Imported:    counts.Int(0, "imported", "imported_rows", "importedRows", "valid"),
		Productions: counts.Int(0, "productions", "production_count", "productionCount"),
		Wastes:      counts.Int(0, "wastes", "waste_count", "wasteCount", "dechets"),
		Needs:       counts.Int(0, "needs", "need_count", "needCount", "besoins"),
		Errors:      o.Strings("errors", "error_messages", "errorMessages"),
		Warnings:    o.Strings("warnings", "warning_messages", "warningMessages"),
	}
	if report.Errors == nil {
		report.Errors = []string{}
	}
	if report.Warnings == nil {
		report.Warnings = []string{}
	}
	return report
}

// ImportHistory normalizes the import history list. Entries without an ID are
// dropped.
func ImportHistory(v any) []model.ImportHistoryEntry {
	raw := Unwrap(v, "data", "result", "items", "history", "imports")
	out := make([]model.ImportHistoryEntry, 0, len(raw))
	for _, o := range raw {
		entry := model.ImportHistoryEntry{
			ID:        o.String("", "id", "import_id", "importId", "uuid"),
			Filename:  o.String("", "filename", "file_name", "fileName", "name"),
			Status:    o.String("", "status", "state"),
			CreatedAt: CoerceDate(o.Pick("created_at", "createdAt", "date")),
		}
		if entry.ID == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Pagination normalizes pagination metadata nested under meta or pagination.
// Missing fields are computed from whichever subset is present.
func Pagination(v any) model.Page {
	o := AsObject(v)
	meta := o.Child("meta", "pagination")
	if len(meta) == 0 {
		meta = o
	}

	page := model.Page{
		Page:       meta.Int(1, "current_page", "currentPage", "page"),
		PerPage:    meta.Int(20, "per_page", "perPage", "page_size", "pageSize"),
		Total:      meta.Int(0, "total", "total_count", "totalCount"),
		TotalPages: meta.Int(0, "total_pages", "totalPages", "pages"),
	}
	if page.TotalPages == 0 && page.Total > 0 && page.PerPage > 0 {
		page.TotalPages = (page.Total + page.PerPage - 1) / page.PerPage
	}
	if page.Total == 0 && page.TotalPages > 0 && page.PerPage > 0 {
		page.Total = page.TotalPages * page.PerPage
	}
	return page
}

// ProfileCompletion normalizes the profile completion payload.
func ProfileCompletion(v any) model.ProfileCompletion {
	o := UnwrapObject(v, "data", "result", "completion")
	completion := model.ProfileCompletion{
		Percent:       int(CoercePercent(o.Pick("percent", "completion", "rate", "score"))),
		MissingFields: o.Strings("missing_fields", "missingFields", "missing"),
	}
	if completion.MissingFields == nil {
		completion.MissingFields = []string{}
	}
	return completion
}

// CompanyProfile normalizes the company's own profile record.
func CompanyProfile(v any) model.CompanyProfile {
	o := UnwrapObject(v, "data", "result", "company", "profile")
	return model.CompanyProfile{
		ID:          o.String("", "id", "company_id", "companyId", "uuid"),
		Name:        o.String("", "name", "company_name", "companyName"),
		Sector:      o.String("", "sector", "activity", "secteur"),
		Description: o.String("", "description", "about"),
		Address:     o.String("", "address", "adresse"),
		Website:     o.String("", "website", "site", "url"),
		Email:       o.String("", "email", "contact_email", "contactEmail"),
		Phone:       o.String("", "phone", "telephone", "tel"),
		AvatarURL:   o.String("", "avatar_url", "avatarUrl", "logo_url", "logoUrl", "avatar"),
	}
}
