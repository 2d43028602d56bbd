package views

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/circulab/marketplace-go/internal/api"
	"github.com/circulab/marketplace-go/internal/model"
	"github.com/circulab/marketplace-go/internal/mutation"
	"github.com/circulab/marketplace-go/internal/normalize"
)

// ImportView composes the data import flow: upload, analyze, sync, history,
// and template download.
type ImportView struct {
	deps *Deps
}

// NewImportView creates the import view.
func NewImportView(deps *Deps) *ImportView {
	return &ImportView{deps: deps}
}

// UploadFile uploads an import file and returns its file ID.
func (v *ImportView) UploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	raw, err := v.deps.API.Upload(ctx, "/import", "file", filename, bytes.NewReader(data), nil)
	if err != nil {
		if msg := mutation.UploadErrorMessage(err); msg != "" {
			v.deps.notifier().Error(msg)
		}
		return "", v.deps.handleAuthError(err)
	}
	fileID := normalize.UnwrapObject(api.DecodeJSON(raw)).String("", "file_id", "fileId", "id")
	return fileID, nil
}

// Analyze runs the server-side analysis of an uploaded file and returns the
// normalized report.
func (v *ImportView) Analyze(ctx context.Context, fileID string) (model.ImportReport, error) {
	raw, err := v.deps.API.GetJSON(ctx, "/import/"+url.PathEscape(fileID)+"/analyze")
	if err != nil {
		return model.ImportReport{}, v.deps.handleAuthError(err)
	}
	report := normalize.ImportReport(raw)
	if report.FileID == "" {
		report.FileID = fileID
	}
	return report, nil
}

// Sync applies an analyzed import. The backend touches productions, wastes
// and needs atomically, so dashboard stats, the company profile, the import
// history, and the import summary are all invalidated together.
func (v *ImportView) Sync(ctx context.Context, fileID string) error {
	_, err := v.deps.API.Do(ctx, http.MethodPost, "/import/"+url.PathEscape(fileID)+"/sync", nil)
	if err != nil {
		v.deps.notifier().Error(mutation.ErrorMessage(err))
		return v.deps.handleAuthError(err)
	}
	v.deps.Cache.Cascade(TriggerImportSync)
	v.deps.notifier().Success("Données synchronisées")
	return nil
}

// History returns past import runs.
func (v *ImportView) History(ctx context.Context) ([]model.ImportHistoryEntry, error) {
	return query(ctx, v.deps, KeyImportHistory, "/import/history", normalize.ImportHistory)
}

// Summary returns the import profile summary (current productions, wastes,
// needs counts).
func (v *ImportView) Summary(ctx context.Context) (model.ImportReport, error) {
	return query(ctx, v.deps, KeyImportSummary, "/import/summary", normalize.ImportReport)
}

// DownloadTemplate fetches the import template file. The filename comes from
// the Content-Disposition header, with a date-stamped default.
func (v *ImportView) DownloadTemplate(ctx context.Context) ([]byte, string, error) {
	data, filename, err := v.deps.API.DownloadBlob(ctx, "/import/template")
	if err != nil {
		return nil, "", v.deps.handleAuthError(err)
	}
	return data, filename, nil
}
