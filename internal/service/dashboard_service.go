package service

import (
	"context"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
	"github.com/lanaapp/lana-api/internal/infra/cache"
	"github.com/lanaapp/lana-api/internal/infra/observability"
	"github.com/lanaapp/lana-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashboardTracer = otel.Tracer("service/dashboard")

const (
	dashboardUpcomingDays  = 7
	dashboardUpcomingLimit = 5
	dashboardGoalCards     = 3
	dashboardNextBills     = 3
)

// DashboardService assembles the home-screen summary from every other
// store. Pure read path; results are cached briefly per user so the
// mobile client can poll without hammering SQLite.
type DashboardService struct {
	bills   port.BillStore
	goals   port.GoalStore
	tandas  port.TandaStore
	events  port.EventStore
	ledger  *LedgerService
	store   port.LedgerStore
	cache   *cache.TTL[*domain.DashboardSummary]
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewDashboardService creates a new dashboard aggregator.
func NewDashboardService(
	bills port.BillStore,
	goals port.GoalStore,
	tandas port.TandaStore,
	events port.EventStore,
	ledger *LedgerService,
	store port.LedgerStore,
	c *cache.TTL[*domain.DashboardSummary],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		bills:   bills,
		goals:   goals,
		tandas:  tandas,
		events:  events,
		ledger:  ledger,
		store:   store,
		cache:   c,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Used by tests to pin "today".
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// Summary returns the cached dashboard for the user, building it on a
// cache miss. A stale-by-TTL summary is acceptable here; every number it
// shows has an authoritative endpoint behind it.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*domain.DashboardSummary, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Summary")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	opStart := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard_summary", time.Since(opStart)) }()

	cacheKey := "dashboard:" + userID
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.RecordCacheHit("dashboard")
		return cached, nil
	}
	s.metrics.RecordCacheMiss("dashboard")

	summary, err := s.build(ctx, userID)
	if err != nil {
		s.logger.Error("dashboard build failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	s.cache.Set(cacheKey, summary)
	return summary, nil
}

func (s *DashboardService) build(ctx context.Context, userID string) (*domain.DashboardSummary, error) {
	today := domain.Day(s.now())
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	summary := &domain.DashboardSummary{}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.goals.TotalSavings(gCtx, userID)
		if err != nil {
			return err
		}
		summary.Savings.Total = total
		return nil
	})

	g.Go(func() error {
		pending, err := s.bills.CountBillsByStatus(gCtx, userID, domain.BillStatusPending)
		if err != nil {
			return err
		}
		paid, err := s.bills.SumPaidBillsBetween(gCtx, userID, monthStart, monthEnd)
		if err != nil {
			return err
		}
		next, err := s.bills.ListUpcomingBills(gCtx, userID, today, dashboardNextBills)
		if err != nil {
			return err
		}
		summary.Bills.PendingCount = pending
		summary.Bills.PaidThisMonth = paid
		summary.Bills.Next = make([]domain.BillView, 0, len(next))
		for i := range next {
			summary.Bills.Next = append(summary.Bills.Next, next[i].View(today))
		}
		return nil
	})

	g.Go(func() error {
		goals, err := s.goals.ListGoals(gCtx, userID)
		if err != nil {
			return err
		}
		if len(goals) > dashboardGoalCards {
			goals = goals[:dashboardGoalCards]
		}
		summary.Goals = make([]domain.SavingGoalView, 0, len(goals))
		for i := range goals {
			summary.Goals = append(summary.Goals, goals[i].View())
		}
		return nil
	})

	g.Go(func() error {
		active, err := s.tandas.CountTandasByStatus(gCtx, userID, domain.TandaStatusActive)
		if err != nil {
			return err
		}
		next, err := s.tandas.NextTandaPayment(gCtx, userID, today)
		if err != nil {
			return err
		}
		summary.Tandas.ActiveCount = active
		if next != nil {
			count, err := s.tandas.CountTandaMembers(gCtx, next.ID)
			if err != nil {
				return err
			}
			v := next.View(userID, count)
			summary.Tandas.NextPayment = &v
		}
		return nil
	})

	g.Go(func() error {
		horizon := today.AddDate(0, 0, dashboardUpcomingDays)
		events, err := s.events.ListUpcomingEvents(gCtx, userID, today, horizon, dashboardUpcomingLimit)
		if err != nil {
			return err
		}
		daily, err := s.store.DailyExpenseTotals(gCtx, userID, monthStart, monthEnd)
		if err != nil {
			return err
		}
		summary.Calendar.UpcomingEvents = make([]domain.CalendarEntry, 0, len(events))
		for i := range events {
			ev := &events[i]
			summary.Calendar.UpcomingEvents = append(summary.Calendar.UpcomingEvents, domain.CalendarEntry{
				Source:   string(ev.Kind),
				SourceID: ev.EntityID,
				Date:     ev.Date.Format(domain.DateOnly),
				Title:    ev.Title,
				Amount:   ev.Amount,
				Status:   ev.Status,
			})
		}
		summary.Calendar.DailyExpenses = daily
		return nil
	})

	g.Go(func() error {
		week, err := s.ledger.CurrentWeek(gCtx, userID)
		if err != nil {
			return err
		}
		summary.Income.WeeklyIncome = week.Amount
		summary.Income.SpentThisWeek = week.Spent
		summary.Income.AvailableThisWeek = week.Leftover
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

// Invalidate drops the user's cached summary. The writing services call
// it through the Invalidator hook after every mutation, so the next
// Summary rebuilds instead of serving a stale cache entry.
func (s *DashboardService) Invalidate(userID string) {
	s.cache.Delete("dashboard:" + userID)
}

// Invalidator drops a user's cached derived views after a write. The
// dashboard service satisfies it; the writing services hold one via
// WithInvalidator.
type Invalidator interface {
	Invalidate(userID string)
}

func invalidate(inv Invalidator, userID string) {
	if inv != nil {
		inv.Invalidate(userID)
	}
}
