package routes

import (
	"net/http"

	"github.com/agrilogix/crateflow-backend/api/controllers"
	apimw "github.com/agrilogix/crateflow-backend/api/middleware"
	"github.com/agrilogix/crateflow-backend/internal/auth"
	"github.com/agrilogix/crateflow-backend/internal/dashboard"
	"github.com/agrilogix/crateflow-backend/internal/inventory"
	"github.com/agrilogix/crateflow-backend/internal/loads"
	"github.com/agrilogix/crateflow-backend/internal/planner"
	"github.com/agrilogix/crateflow-backend/internal/refdata"
	"github.com/agrilogix/crateflow-backend/internal/reports"
	"github.com/agrilogix/crateflow-backend/internal/sites"
	"github.com/agrilogix/crateflow-backend/pkg/config"
	"github.com/agrilogix/crateflow-backend/pkg/db"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	"github.com/agrilogix/crateflow-backend/pkg/logger"
	"github.com/agrilogix/crateflow-backend/pkg/metrics"
	"github.com/agrilogix/crateflow-backend/pkg/redis"
	"github.com/go-chi/chi/v5"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Auth      *auth.Service
	Loads     *loads.Service
	Planner   *planner.Service
	Inventory *inventory.Service
	Sites     *sites.Service
	Refdata   *refdata.Service
	Dashboard *dashboard.Service
	Reports   *reports.Service
}

// Deps carries the infrastructure the middleware stack needs. RateLimiter
// may be nil, which disables login throttling.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *db.Client
	Metrics     *metrics.HTTPMetrics
	RateLimiter *redis.Client
}

// New assembles the full route tree.
func New(deps Deps, svcs Services) http.Handler {
	r := chi.NewRouter()

	r.Use(apimw.Recoverer(deps.Logger))
	r.Use(apimw.RequestID(deps.Logger))
	r.Use(apimw.Logging(deps.Logger))
	r.Use(apimw.Metrics(deps.Metrics))
	r.Use(apimw.CORS())

	r.Get("/health/live", controllers.Liveness())
	r.Get("/health/ready", controllers.Readiness(deps.DB))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	logg := deps.Logger
	cfg := deps.Config

	loginPolicy := apimw.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	loginLimiter := func(next http.Handler) http.Handler { return next }
	if deps.RateLimiter != nil {
		loginLimiter = apimw.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)
	}

	authed := apimw.Auth(cfg.JWT, logg)
	adminOnly := apimw.RequireRole(logg, enums.UserRoleAdmin)
	dispatchWrite := apimw.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleDispatcher)
	farmConfirm := apimw.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleDispatcher, enums.UserRoleFarmUser)
	depotConfirm := apimw.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleDispatcher, enums.UserRoleDepotUser)
	stockWrite := apimw.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleDispatcher, enums.UserRoleFarmUser, enums.UserRoleDepotUser)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.With(loginLimiter).
				Post("/login", controllers.Login(svcs.Auth, logg))

			ar.Group(func(g chi.Router) {
				g.Use(authed)
				g.With(adminOnly).Post("/register", controllers.Register(svcs.Auth, logg))
				g.Get("/me", controllers.Me(svcs.Auth, logg))
				g.Post("/change-password", controllers.ChangePassword(svcs.Auth, logg))
			})
		})

		api.Group(func(g chi.Router) {
			g.Use(authed)

			g.Route("/loads", func(lr chi.Router) {
				lr.Get("/", controllers.ListLoads(svcs.Loads, logg))
				lr.Get("/lookups", controllers.LoadLookups(svcs.Refdata, logg))
				lr.With(dispatchWrite).Post("/", controllers.CreateLoad(svcs.Loads, logg))

				lr.Route("/{loadID}", func(one chi.Router) {
					one.Get("/", controllers.GetLoad(svcs.Loads, logg))
					one.With(dispatchWrite).Patch("/", controllers.UpdateLoad(svcs.Loads, logg))
					one.With(dispatchWrite).Delete("/", controllers.DeleteLoad(svcs.Loads, logg))
					one.With(dispatchWrite).Post("/start-loading", controllers.StartLoading(svcs.Loads, logg))
					one.With(dispatchWrite).Post("/confirm-dispatch", controllers.ConfirmDispatch(svcs.Loads, logg))
					one.With(dispatchWrite).Post("/mark-in-transit", controllers.MarkInTransit(svcs.Loads, logg))
					one.With(depotConfirm).Post("/mark-arrived", controllers.MarkArrivedDepot(svcs.Loads, logg))
					one.With(farmConfirm).Post("/confirm-farm-arrival", controllers.ConfirmFarmArrival(svcs.Loads, logg))
					one.With(farmConfirm).Post("/confirm-farm-departure", controllers.ConfirmFarmDeparture(svcs.Loads, logg))
					one.With(depotConfirm).Post("/confirm-receipt", controllers.ConfirmReceipt(svcs.Loads, logg))
					one.With(dispatchWrite).Post("/duplicate", controllers.DuplicateLoad(svcs.Loads, logg))
					one.With(dispatchWrite).Post("/cancel", controllers.CancelLoad(svcs.Loads, logg))
				})
			})

			g.Route("/sites", func(sr chi.Router) {
				sr.Get("/", controllers.ListSites(svcs.Sites, logg))
				sr.Get("/{siteID}", controllers.GetSite(svcs.Sites, logg))
				sr.With(adminOnly).Post("/", controllers.CreateSite(svcs.Sites, logg))
				sr.With(adminOnly).Patch("/{siteID}", controllers.UpdateSite(svcs.Sites, logg))
				sr.With(adminOnly).Post("/{siteID}/deactivate", controllers.DeactivateSite(svcs.Sites, logg))
			})

			g.Route("/config", func(cr chi.Router) {
				cr.With(adminOnly).Get("/users", controllers.ListUsers(svcs.Auth, logg))
				cr.With(adminOnly).Patch("/users/{userID}", controllers.UpdateUser(svcs.Auth, logg))

				cr.Get("/vehicles", controllers.ListVehicles(svcs.Refdata, logg))
				cr.With(adminOnly).Post("/vehicles", controllers.CreateVehicle(svcs.Refdata, logg))
				cr.With(adminOnly).Patch("/vehicles/{vehicleID}", controllers.UpdateVehicle(svcs.Refdata, logg))

				cr.Get("/drivers", controllers.ListDrivers(svcs.Refdata, logg))
				cr.With(adminOnly).Post("/drivers", controllers.CreateDriver(svcs.Refdata, logg))
				cr.With(adminOnly).Patch("/drivers/{driverID}", controllers.UpdateDriver(svcs.Refdata, logg))

				cr.Get("/channels", controllers.ListChannels(svcs.Refdata, logg))
				cr.With(adminOnly).Post("/channels", controllers.CreateChannel(svcs.Refdata, logg))
				cr.With(adminOnly).Patch("/channels/{channelID}", controllers.UpdateChannel(svcs.Refdata, logg))

				cr.Get("/products", controllers.ListProducts(svcs.Refdata, logg))
				cr.With(adminOnly).Post("/products", controllers.CreateProduct(svcs.Refdata, logg))
				cr.With(adminOnly).Patch("/products/{productID}", controllers.UpdateProduct(svcs.Refdata, logg))

				cr.Get("/thresholds", controllers.ListThresholds(svcs.Refdata, logg))
				cr.With(adminOnly).Put("/thresholds", controllers.UpsertThreshold(svcs.Refdata, logg))
			})

			g.Route("/packaging", func(pr chi.Router) {
				pr.Get("/types", controllers.ListPackagingTypes(svcs.Refdata, logg))
				pr.With(adminOnly).Post("/types", controllers.CreatePackagingType(svcs.Refdata, logg))
				pr.With(adminOnly).Patch("/types/{packagingTypeID}", controllers.UpdatePackagingType(svcs.Refdata, logg))

				pr.Get("/inventory", controllers.ListInventory(svcs.Inventory, logg))
				pr.With(stockWrite).Post("/inventory/adjust", controllers.AdjustInventory(svcs.Inventory, logg))
				pr.Get("/movements", controllers.ListMovements(svcs.Inventory, logg))
			})

			g.Route("/planner", func(pr chi.Router) {
				pr.Get("/", controllers.ListSchedules(svcs.Planner, logg))
				pr.Get("/weekly", controllers.WeeklySchedules(svcs.Planner, logg))
				pr.Get("/packaging-demand", controllers.PackagingDemand(svcs.Planner, logg))
				pr.With(dispatchWrite).Post("/", controllers.CreateSchedule(svcs.Planner, logg))
				pr.Get("/{scheduleID}", controllers.GetSchedule(svcs.Planner, logg))
				pr.With(dispatchWrite).Patch("/{scheduleID}", controllers.UpdateSchedule(svcs.Planner, logg))
				pr.With(dispatchWrite).Delete("/{scheduleID}", controllers.DeleteSchedule(svcs.Planner, logg))
				pr.With(dispatchWrite).Post("/{scheduleID}/promote", controllers.PromoteSchedule(svcs.Planner, logg))
			})

			g.Route("/dashboard", func(dr chi.Router) {
				dr.Get("/summary", controllers.DashboardSummary(svcs.Dashboard, logg))
				dr.Get("/sites/{siteID}", controllers.DashboardSiteDetail(svcs.Dashboard, logg))
			})

			g.Route("/alerts", func(ar chi.Router) {
				ar.Get("/", controllers.ListAlerts(svcs.Inventory, logg))
				ar.With(stockWrite).Post("/{alertID}/acknowledge", controllers.AcknowledgeAlert(svcs.Inventory, logg))
			})

			g.Route("/reports", func(rr chi.Router) {
				rr.Get("/statements", controllers.StatementsReport(svcs.Reports, logg))
				rr.Get("/discrepancies", controllers.DiscrepanciesReport(svcs.Reports, logg))
				rr.Get("/exceptions", controllers.ExceptionsReport(svcs.Reports, logg))
				rr.Get("/aging", controllers.AgingReport(svcs.Reports, logg))
			})
		})
	})

	return r
}
