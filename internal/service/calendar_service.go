package service

import (
	"context"
	"sort"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
	"github.com/lanaapp/lana-api/internal/infra/observability"
	"github.com/lanaapp/lana-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var calendarTracer = otel.Tracer("service/calendar")

// CalendarService merges bill due dates, tanda payment dates, goal
// deadlines and manual entries into one chronological feed, with daily
// expense totals on the side. It only ever reads; projections are
// written by the entity lifecycles.
type CalendarService struct {
	bills    port.BillStore
	goals    port.GoalStore
	tandas   port.TandaStore
	calendar port.CalendarStore
	ledger   port.LedgerStore
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewCalendarService creates a new calendar aggregator.
func NewCalendarService(bills port.BillStore, goals port.GoalStore, tandas port.TandaStore, calendar port.CalendarStore, ledger port.LedgerStore, metrics *observability.Metrics, logger *zap.Logger) *CalendarService {
	return &CalendarService{
		bills:    bills,
		goals:    goals,
		tandas:   tandas,
		calendar: calendar,
		ledger:   ledger,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used by tests to pin "today".
func (s *CalendarService) WithClock(now func() time.Time) *CalendarService {
	s.now = now
	return s
}

// ListEvents assembles the feed for [startDate, endDate] (defaults to
// the current month; a reversed range is swapped). The four event
// sources are fetched concurrently, concatenated in a fixed source
// order and stable-sorted by date, so same-day ordering across sources
// is insertion order, not semantic.
func (s *CalendarService) ListEvents(ctx context.Context, userID, startDate, endDate string) (*domain.CalendarFeed, error) {
	ctx, span := calendarTracer.Start(ctx, "CalendarService.ListEvents")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	opStart := time.Now()
	defer func() { s.metrics.RecordRequestDuration("calendar_list", time.Since(opStart)) }()

	today := s.now()
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	if startDate != "" {
		parsed, err := time.Parse(domain.DateOnly, startDate)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "start_date", Message: "invalid format, use YYYY-MM-DD"}
		}
		from = parsed
	}
	if endDate != "" {
		parsed, err := time.Parse(domain.DateOnly, endDate)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "end_date", Message: "invalid format, use YYYY-MM-DD"}
		}
		to = parsed
	}
	if from.After(to) {
		from, to = to, from
	}

	var (
		bills  []domain.Bill
		tandas []domain.Tanda
		goals  []domain.SavingGoal
		manual []domain.CalendarEvent
		daily  []domain.DailyExpenseTotal
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bills, err = s.bills.ListBillsDueBetween(gCtx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		tandas, err = s.tandas.ListTandasPayingBetween(gCtx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = s.goals.ListGoalsWithDeadlineBetween(gCtx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		manual, err = s.calendar.ListCalendarEvents(gCtx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = s.ledger.DailyExpenseTotals(gCtx, userID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("calendar aggregation failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	entries := make([]domain.CalendarEntry, 0, len(bills)+len(tandas)+len(goals)+len(manual))

	for i := range bills {
		b := &bills[i]
		entries = append(entries, domain.CalendarEntry{
			Source:   "bill",
			SourceID: b.ID,
			Date:     b.DueDate.Format(domain.DateOnly),
			Title:    b.Name,
			Amount:   b.Amount,
			Status:   b.Status,
			Meta: map[string]any{
				"status_text": b.StatusText(today),
			},
		})
	}
	for i := range tandas {
		t := &tandas[i]
		if t.NextPaymentDate == nil {
			continue
		}
		entries = append(entries, domain.CalendarEntry{
			Source:   "tanda",
			SourceID: t.ID,
			Date:     t.NextPaymentDate.Format(domain.DateOnly),
			Title:    "Tanda: " + t.Name,
			Amount:   t.ContributionAmount,
			Status:   t.Status,
			Meta: map[string]any{
				"frequency":        t.Frequency,
				"rounds_total":     t.RoundsTotal,
				"current_round":    t.CurrentRound,
				"progress_percent": t.ProgressPercent(),
			},
		})
	}
	for i := range goals {
		gl := &goals[i]
		if gl.Deadline == nil {
			continue
		}
		entries = append(entries, domain.CalendarEntry{
			Source:   "saving_goal",
			SourceID: gl.ID,
			Date:     gl.Deadline.Format(domain.DateOnly),
			Title:    "Goal: " + gl.Name,
			Amount:   gl.TargetAmount,
			Status:   gl.Status,
			Meta: map[string]any{
				"current_amount":   gl.CurrentAmount,
				"progress_percent": gl.ProgressPercent(),
				"is_group":         gl.IsGroup,
			},
		})
	}
	for i := range manual {
		m := &manual[i]
		entries = append(entries, domain.CalendarEntry{
			Source:   "manual",
			SourceID: m.ID,
			Date:     m.Date.Format(domain.DateOnly),
			Title:    m.Title,
			Amount:   m.Amount,
			Status:   m.Type,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})

	return &domain.CalendarFeed{
		Start:         from.Format(domain.DateOnly),
		End:           to.Format(domain.DateOnly),
		Events:        entries,
		DailyExpenses: daily,
	}, nil
}

// CreateManualEvent stores a user-created calendar entry verbatim.
func (s *CalendarService) CreateManualEvent(ctx context.Context, userID string, req *domain.CreateCalendarEventRequest) (*domain.CalendarEvent, error) {
	ctx, span := calendarTracer.Start(ctx, "CalendarService.CreateManualEvent")
	defer span.End()

	if req.Title == "" {
		return nil, &domain.ErrValidation{Field: "title", Message: "required"}
	}
	date, err := time.Parse(domain.DateOnly, req.Date)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "date", Message: "invalid format, use YYYY-MM-DD"}
	}

	eventType := req.Type
	if eventType == "" {
		eventType = "reminder"
	}

	event := &domain.CalendarEvent{
		ID:          uuid.New().String(),
		UserID:      userID,
		Date:        date,
		Title:       req.Title,
		Type:        eventType,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	}
	if err := s.calendar.CreateCalendarEvent(ctx, event); err != nil {
		s.logger.Error("failed to create calendar event", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return event, nil
}

// DeleteManualEvent removes a user-created calendar entry.
func (s *CalendarService) DeleteManualEvent(ctx context.Context, userID, eventID string) error {
	ctx, span := calendarTracer.Start(ctx, "CalendarService.DeleteManualEvent")
	defer span.End()

	return s.calendar.DeleteCalendarEvent(ctx, userID, eventID)
}
