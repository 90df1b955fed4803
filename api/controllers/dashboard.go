package controllers

import (
	"net/http"

	"github.com/agrilogix/crateflow-backend/api/responses"
	"github.com/agrilogix/crateflow-backend/internal/dashboard"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
)

// DashboardSummary returns the cross-site operational overview.
func DashboardSummary(svc *dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"dashboard": summary})
	}
}

// DashboardSiteDetail narrows the overview to one site.
func DashboardSiteDetail(svc *dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "siteID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.SiteDetail(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"site": detail})
	}
}
