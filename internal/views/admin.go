package views

import (
	"context"
	"strconv"

	"github.com/circulab/marketplace-go/internal/cache"
	"github.com/circulab/marketplace-go/internal/model"
	"github.com/circulab/marketplace-go/internal/normalize"
)

// CompaniesPage is one page of the admin company table with its pagination
// metadata.
type CompaniesPage struct {
	Rows []model.AdminCompanyRow
	Page model.Page
}

// AdminView composes the admin dashboard: company rows and platform metrics.
// Concurrent identical reads share one request through the cache's in-flight
// deduplication.
type AdminView struct {
	deps *Deps
}

// NewAdminView creates the admin view.
func NewAdminView(deps *Deps) *AdminView {
	return &AdminView{deps: deps}
}

// Companies returns one page of the company table.
func (v *AdminView) Companies(ctx context.Context, page int) (CompaniesPage, error) {
	if page < 1 {
		page = 1
	}
	key := append(cache.Key{}, KeyAdminCompanies...)
	key = append(key, strconv.Itoa(page))

	return query(ctx, v.deps, key, "/admin/companies?page="+strconv.Itoa(page),
		func(raw any) CompaniesPage {
			return CompaniesPage{
				Rows: normalize.AdminCompanies(raw),
				Page: normalize.Pagination(raw),
			}
		})
}

// Metrics returns the normalized platform metrics.
func (v *AdminView) Metrics(ctx context.Context) ([]model.AdminMetric, error) {
	return query(ctx, v.deps, KeyAdminMetrics, "/admin/metrics", normalize.AdminMetrics)
}

// DashboardView serves the company dashboard stats. Its key participates in
// the import-sync cascade because a sync changes the figures.
type DashboardView struct {
	deps *Deps
}

// NewDashboardView creates the dashboard view.
func NewDashboardView(deps *Deps) *DashboardView {
	return &DashboardView{deps: deps}
}

// Stats returns the dashboard stats.
func (v *DashboardView) Stats(ctx context.Context) ([]model.AdminMetric, error) {
	return query(ctx, v.deps, KeyDashboardStats, "/dashboard/stats", normalize.AdminMetrics)
}
