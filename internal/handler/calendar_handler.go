package handler

import (
	"encoding/json"
	"net/http"

	"github.com/lanaapp/lana-api/internal/domain"
	"github.com/lanaapp/lana-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Calendar
// ============================================================

func calendarListHandler(calSvc *service.CalendarService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/calendar")
		defer span.End()

		q := r.URL.Query()
		feed, err := calSvc.ListEvents(ctx, UserIDFromContext(ctx), q.Get("start_date"), q.Get("end_date"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, feed)
	}
}

func calendarCreateEventHandler(calSvc *service.CalendarService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/calendar/events")
		defer span.End()

		var req domain.CreateCalendarEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		event, err := calSvc.CreateManualEvent(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, event)
	}
}

func calendarDeleteEventHandler(calSvc *service.CalendarService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/calendar/events/{eventId}")
		defer span.End()

		if err := calSvc.DeleteManualEvent(ctx, UserIDFromContext(ctx), chi.URLParam(r, "eventId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
