package controllers

import (
	"net/http"

	"github.com/agrilogix/crateflow-backend/api/responses"
	"github.com/agrilogix/crateflow-backend/api/validators"
	"github.com/agrilogix/crateflow-backend/internal/inventory"
	"github.com/agrilogix/crateflow-backend/internal/refdata"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
)

// Packaging endpoints: type catalogue, balances, and the movement ledger.

func ListPackagingTypes(svc *refdata.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive, err := queryBoolValue(r, "includeInactive")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		types, err := svc.ListPackagingTypes(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"packagingTypes": types})
	}
}

func CreatePackagingType(svc *refdata.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input refdata.PackagingTypeInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pt, err := svc.CreatePackagingType(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"packagingType": pt})
	}
}

func UpdatePackagingType(svc *refdata.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "packagingTypeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input refdata.PackagingTypeUpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pt, err := svc.UpdatePackagingType(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"packagingType": pt})
	}
}

// ListInventory returns current balances, optionally for one site.
func ListInventory(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID, err := validators.ParseQueryUUID(r, "siteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balances, err := svc.ListInventory(r.Context(), siteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"inventory": balances})
	}
}

// AdjustInventory applies a manual stock count.
func AdjustInventory(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input inventory.AdjustInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ActorID = actorID(r)

		balance, err := svc.Adjust(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"inventory": balance})
	}
}

// ListMovements pages the movement ledger.
func ListMovements(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filters inventory.MovementFilters
		var err error

		if filters.SiteID, err = validators.ParseQueryUUID(r, "siteId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.PackagingTypeID, err = validators.ParseQueryUUID(r, "packagingTypeId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.LoadID, err = validators.ParseQueryUUID(r, "loadId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.DateFrom, err = validators.ParseQueryDate(r, "dateFrom"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.DateTo, err = validators.ParseQueryDate(r, "dateTo"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := r.URL.Query().Get("type"); raw != "" {
			parsed, err := enums.ParseMovementType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type filter"))
				return
			}
			filters.Type = &parsed
		}
		if filters.Page, err = pageParams(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, total, err := svc.ListMovements(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"movements": movements, "total": total})
	}
}
