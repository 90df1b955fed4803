package controllers

import (
	"net/http"
	"time"

	"github.com/agrilogix/crateflow-backend/api/responses"
	"github.com/agrilogix/crateflow-backend/api/validators"
	"github.com/agrilogix/crateflow-backend/internal/planner"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
)

// ListSchedules pages dispatch schedules with filters.
func ListSchedules(svc *planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filters planner.ListFilters
		var err error

		if raw := r.URL.Query().Get("status"); raw != "" {
			status, perr := enums.ParseScheduleStatus(raw)
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if filters.OriginSiteID, err = validators.ParseQueryUUID(r, "originSiteId"); err != nil {
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
		if filters.Page, err = pageParams(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		schedules, total, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"schedules": schedules, "total": total})
	}
}

// GetSchedule returns one schedule.
func GetSchedule(svc *planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "scheduleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"schedule": schedule})
	}
}

// CreateSchedule adds a forward plan.
func CreateSchedule(svc *planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input planner.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"schedule": schedule})
	}
}

// UpdateSchedule edits an unpromoted schedule.
func UpdateSchedule(svc *planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "scheduleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input planner.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"schedule": schedule})
	}
}

// DeleteSchedule removes an unpromoted schedule.
func DeleteSchedule(svc *planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "scheduleID")
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

// WeeklySchedules returns the seven day planning board.
func WeeklySchedules(svc *planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := validators.ParseQueryDate(r, "weekStart")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		weekStart := time.Now().UTC()
		if start != nil {
			weekStart = *start
		}

		plans, err := svc.Weekly(r.Context(), weekStart)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"week": plans})
	}
}

// PackagingDemand totals planned counts per dispatch date over a range.
func PackagingDemand(svc *planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := dateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		demand, err := svc.PackagingDemand(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"demand": demand})
	}
}

// PromoteSchedule converts a schedule into a scheduled load.
func PromoteSchedule(svc *planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "scheduleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		schedule, err := svc.Promote(r.Context(), id, actorID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"schedule": schedule})
	}
}

// dateRange parses required from/to YYYY-MM-DD query parameters.
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from == nil || to == nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to dates are required")
	}
	if to.Before(*from) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "to must not precede from")
	}
	return *from, *to, nil
}
