package controllers

import (
	"net/http"

	"github.com/agrilogix/crateflow-backend/api/responses"
	"github.com/agrilogix/crateflow-backend/internal/inventory"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
)

// ListAlerts pages stock alerts, unacknowledged only unless asked otherwise.
func ListAlerts(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeAcknowledged, err := queryBoolValue(r, "includeAcknowledged")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		alerts, total, err := svc.ListAlerts(r.Context(), includeAcknowledged, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"alerts": alerts, "total": total})
	}
}

// AcknowledgeAlert marks an alert handled.
func AcknowledgeAlert(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "alertID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		alert, err := svc.AcknowledgeAlert(r.Context(), id, actorID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"alert": alert})
	}
}
