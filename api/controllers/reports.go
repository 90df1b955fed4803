package controllers

import (
	"net/http"
	"time"

	"github.com/agrilogix/crateflow-backend/api/responses"
	"github.com/agrilogix/crateflow-backend/api/validators"
	"github.com/agrilogix/crateflow-backend/internal/reports"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
)

// StatementsReport summarizes per-site movement over a date range, JSON or
// CSV depending on the format query parameter.
func StatementsReport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := dateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		siteID, err := validators.ParseQueryUUID(r, "siteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Statements(r.Context(), from, to, siteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if wantsCSV(r) {
			header, records := reports.StatementCSV(rows)
			writeReportCSV(r, w, logg, "statements.csv", header, records)
			return
		}
		responses.WriteSuccess(w, map[string]any{"statements": rows})
	}
}

// DiscrepanciesReport lists flagged lines on loads in a date range.
func DiscrepanciesReport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := dateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Discrepancies(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if wantsCSV(r) {
			header, records := reports.DiscrepancyCSV(rows)
			writeReportCSV(r, w, logg, "discrepancies.csv", header, records)
			return
		}
		responses.WriteSuccess(w, map[string]any{"discrepancies": rows})
	}
}

// ExceptionsReport lists late and overtime loads in a date range.
func ExceptionsReport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := dateRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Exceptions(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if wantsCSV(r) {
			header, records := reports.ExceptionCSV(rows)
			writeReportCSV(r, w, logg, "exceptions.csv", header, records)
			return
		}
		responses.WriteSuccess(w, map[string]any{"exceptions": rows})
	}
}

// AgingReport lists packaging out past its expected turnaround.
func AgingReport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asOfParam, err := validators.ParseQueryDate(r, "asOf")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		asOf := time.Now().UTC()
		if asOfParam != nil {
			asOf = *asOfParam
		}

		rows, err := svc.Aging(r.Context(), asOf)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if wantsCSV(r) {
			header, records := reports.AgingCSV(rows)
			writeReportCSV(r, w, logg, "aging.csv", header, records)
			return
		}
		responses.WriteSuccess(w, map[string]any{"aging": rows})
	}
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

func writeReportCSV(r *http.Request, w http.ResponseWriter, logg *logger.Logger, filename string, header []string, records [][]string) {
	if err := responses.WriteCSV(w, filename, header, records); err != nil && logg != nil {
		logg.Error(r.Context(), "writing csv report", err)
	}
}
