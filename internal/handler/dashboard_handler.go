package handler

import (
	"net/http"

	"github.com/lanaapp/lana-api/internal/infra/observability"
	"github.com/lanaapp/lana-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard and operational metrics
// ============================================================

func dashboardHandler(dashSvc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		summary, err := dashSvc.Summary(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}

func metricsSummaryHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/summary")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
