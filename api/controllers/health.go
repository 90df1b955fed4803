package controllers

import (
	"net/http"

	"github.com/agrilogix/crateflow-backend/api/responses"
	"github.com/agrilogix/crateflow-backend/pkg/db"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
)

// Liveness reports process health.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"status": "ok"})
	}
}

// Readiness reports dependency health by pinging the datasource.
func Readiness(pinger db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pinger.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready"})
	}
}
