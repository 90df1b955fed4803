package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/agrilogix/crateflow-backend/api/responses"
	"github.com/agrilogix/crateflow-backend/api/validators"
	"github.com/agrilogix/crateflow-backend/internal/loads"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
	"github.com/google/uuid"
)

// ListLoads pages loads with the full filter set.
func ListLoads(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := loadFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, total, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"loads": items, "total": total})
	}
}

// GetLoad returns one load with lines and reference data preloaded.
func GetLoad(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		load, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"load": load})
	}
}

// CreateLoad schedules a new load.
func CreateLoad(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input loads.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ActorID = actorID(r)

		load, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"load": load})
	}
}

// UpdateLoad edits a load that has not yet departed.
func UpdateLoad(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input loads.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		load, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"load": load})
	}
}

// DeleteLoad removes a load still in the scheduled state.
func DeleteLoad(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}

// ConfirmDispatch marks a load departed with inventory side effects.
func ConfirmDispatch(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input loads.DispatchInput
		if err := validators.DecodeJSONBodyOptional(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ActorID = actorID(r)

		load, err := svc.ConfirmDispatch(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"load": load})
	}
}

// ConfirmFarmArrival records the farm arrival waypoint.
func ConfirmFarmArrival(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return farmWaypoint(logg, svc.ConfirmFarmArrival)
}

// ConfirmFarmDeparture records the farm departure waypoint.
func ConfirmFarmDeparture(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return farmWaypoint(logg, svc.ConfirmFarmDeparture)
}

// ConfirmReceipt completes the load with per-line reconciliation.
func ConfirmReceipt(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input loads.ReceiptInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ActorID = actorID(r)

		load, err := svc.ConfirmReceipt(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"load": load})
	}
}

// DuplicateLoad clones a load onto a new dispatch date.
func DuplicateLoad(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input struct {
			DispatchDate time.Time `json:"dispatchDate" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		load, err := svc.Duplicate(r.Context(), id, input.DispatchDate, actorID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"load": load})
	}
}

// StartLoading moves a scheduled load into loading.
func StartLoading(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return simpleTransition(svc.StartLoading, logg)
}

// MarkInTransit moves a departed load into in_transit.
func MarkInTransit(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return simpleTransition(svc.MarkInTransit, logg)
}

// MarkArrivedDepot records physical arrival at the depot gate.
func MarkArrivedDepot(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return simpleTransition(svc.MarkArrivedDepot, logg)
}

// CancelLoad aborts a non-terminal load.
func CancelLoad(svc *loads.Service, logg *logger.Logger) http.HandlerFunc {
	return simpleTransition(svc.Cancel, logg)
}

func simpleTransition(fn func(ctx context.Context, id uuid.UUID) (*models.Load, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		load, err := fn(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"load": load})
	}
}

func farmWaypoint(logg *logger.Logger, fn func(ctx context.Context, id uuid.UUID, input loads.WaypointInput) (*models.Load, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "loadID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input loads.WaypointInput
		if err := validators.DecodeJSONBodyOptional(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		load, err := fn(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"load": load})
	}
}

func loadFilters(r *http.Request) (loads.ListFilters, error) {
	var filters loads.ListFilters

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := enums.ParseLoadStatus(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		filters.Status = &status
	}

	var err error
	if filters.OriginSiteID, err = validators.ParseQueryUUID(r, "originSiteId"); err != nil {
		return filters, err
	}
	if filters.DestinationSiteID, err = validators.ParseQueryUUID(r, "destinationSiteId"); err != nil {
		return filters, err
	}
	if filters.SiteID, err = validators.ParseQueryUUID(r, "siteId"); err != nil {
		return filters, err
	}
	if filters.VehicleID, err = validators.ParseQueryUUID(r, "vehicleId"); err != nil {
		return filters, err
	}
	if filters.DriverID, err = validators.ParseQueryUUID(r, "driverId"); err != nil {
		return filters, err
	}
	if filters.ChannelID, err = validators.ParseQueryUUID(r, "channelId"); err != nil {
		return filters, err
	}
	if filters.DateFrom, err = validators.ParseQueryDate(r, "dateFrom"); err != nil {
		return filters, err
	}
	if filters.DateTo, err = validators.ParseQueryDate(r, "dateTo"); err != nil {
		return filters, err
	}
	if filters.HasDiscrepancy, err = validators.ParseQueryBool(r, "hasDiscrepancy"); err != nil {
		return filters, err
	}
	if filters.HasOvertime, err = validators.ParseQueryBool(r, "hasOvertime"); err != nil {
		return filters, err
	}

	filters.Page, err = pageParams(r)
	return filters, err
}
