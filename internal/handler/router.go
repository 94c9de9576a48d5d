package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/lanaapp/lana-api/internal/infra/observability"
	"github.com/lanaapp/lana-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the router needs.
type Deps struct {
	Auth      *service.AuthService
	Bills     *service.BillService
	Ledger    *service.LedgerService
	Goals     *service.GoalService
	Tandas    *service.TandaService
	Calendar  *service.CalendarService
	Dashboard *service.DashboardService
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	DB        Pinger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.DB))
	r.Get("/readyz", readyzHandler(d.DB))
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Authentication (public)
		r.Post("/auth/register", authRegisterHandler(d.Auth, d.Logger))
		r.Post("/auth/login", authLoginHandler(d.Auth, d.Logger))

		// Everything else requires a Bearer token.
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(d.Auth, d.Logger))

			r.Get("/auth/me", authMeHandler(d.Auth, d.Logger))

			// Bills
			r.Get("/bills", billsListHandler(d.Bills, d.Logger))
			r.Post("/bills", billsCreateHandler(d.Bills, d.Logger))
			r.Get("/bills/{billId}", billsGetHandler(d.Bills, d.Logger))
			r.Put("/bills/{billId}", billsUpdateHandler(d.Bills, d.Logger))
			r.Delete("/bills/{billId}", billsDeleteHandler(d.Bills, d.Logger))

			// Expenses and the weekly ledger
			r.Get("/expenses", expensesListHandler(d.Ledger, d.Logger))
			r.Post("/expenses", expensesCreateHandler(d.Ledger, d.Logger))
			r.Delete("/expenses/{expenseId}", expensesDeleteHandler(d.Ledger, d.Logger))
			r.Get("/income/weekly", incomeGetHandler(d.Ledger, d.Logger))
			r.Post("/income/weekly", incomeDeclareHandler(d.Ledger, d.Logger))

			// Saving goals
			r.Get("/goals", goalsListHandler(d.Goals, d.Logger))
			r.Post("/goals", goalsCreateHandler(d.Goals, d.Logger))
			r.Get("/goals/{goalId}", goalsGetHandler(d.Goals, d.Logger))
			r.Put("/goals/{goalId}", goalsUpdateHandler(d.Goals, d.Logger))
			r.Post("/goals/{goalId}/contributions", goalsContributeHandler(d.Goals, d.Logger))
			r.Get("/goals/{goalId}/movements", goalsMovementsHandler(d.Goals, d.Logger))
			r.Post("/goals/{goalId}/members", goalsAddMemberHandler(d.Goals, d.Logger))

			// Tandas
			r.Get("/tandas", tandasListHandler(d.Tandas, d.Logger))
			r.Post("/tandas", tandasCreateHandler(d.Tandas, d.Logger))
			r.Get("/tandas/{tandaId}", tandasGetHandler(d.Tandas, d.Logger))

			// Calendar
			r.Get("/calendar", calendarListHandler(d.Calendar, d.Logger))
			r.Post("/calendar/events", calendarCreateEventHandler(d.Calendar, d.Logger))
			r.Delete("/calendar/events/{eventId}", calendarDeleteEventHandler(d.Calendar, d.Logger))

			// Dashboard and metrics
			r.Get("/dashboard", dashboardHandler(d.Dashboard, d.Logger))
			r.Get("/metrics/summary", metricsSummaryHandler(d.Metrics, d.Logger))
		})
	})

	return r
}

func healthzHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status = "unhealthy"
				code = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, code, map[string]string{
			"status":     status,
			"checked_at": time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
