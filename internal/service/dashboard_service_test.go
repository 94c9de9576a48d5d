package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
	"github.com/lanaapp/lana-api/internal/infra/cache"
	"github.com/lanaapp/lana-api/internal/infra/observability"
	"github.com/lanaapp/lana-api/internal/service"

	"go.uber.org/zap"
)

type dashboardFixture struct {
	store     *memStore
	cache     *cache.TTL[*domain.DashboardSummary]
	dashboard *service.DashboardService
	bills     *service.BillService
	goals     *service.GoalService
	tandas    *service.TandaService
	ledger    *service.LedgerService
}

func newDashboardFixture(t *testing.T) *dashboardFixture {
	t.Helper()
	store := newMemStore()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	clock := fixedClock("2025-03-12")

	c := cache.NewTTL[*domain.DashboardSummary](time.Minute)
	t.Cleanup(c.Close)

	ledger := service.NewLedgerService(store, metrics, logger).WithClock(clock)
	dashboard := service.NewDashboardService(store, store, store, store, ledger, store, c, metrics, logger).WithClock(clock)
	ledger.WithInvalidator(dashboard)
	return &dashboardFixture{
		store:     store,
		cache:     c,
		dashboard: dashboard,
		bills:     service.NewBillService(store, store, ledger, metrics, logger).WithClock(clock).WithInvalidator(dashboard),
		goals:     service.NewGoalService(store, store, store, metrics, logger).WithClock(clock).WithInvalidator(dashboard),
		tandas:    service.NewTandaService(store, store, metrics, logger).WithClock(clock).WithInvalidator(dashboard),
		ledger:    ledger,
	}
}

func TestSummary_AggregatesAllSections(t *testing.T) {
	f := newDashboardFixture(t)
	ctx := context.Background()

	if _, err := f.bills.CreateBill(ctx, "u1", &domain.CreateBillRequest{Name: "Rent", Amount: 800, DueDate: "2025-03-15"}); err != nil {
		t.Fatalf("seed bill: %v", err)
	}
	goal, err := f.goals.CreateGoal(ctx, "u1", &domain.CreateGoalRequest{Name: "Trip", TargetAmount: 1000})
	if err != nil {
		t.Fatalf("seed goal: %v", err)
	}
	if _, err := f.goals.Contribute(ctx, "u1", goal.ID, &domain.ContributeRequest{Amount: 400}); err != nil {
		t.Fatalf("seed contribution: %v", err)
	}
	if _, err := f.tandas.CreateTanda(ctx, "u1", &domain.CreateTandaRequest{
		Name: "Circle", ContributionAmount: 100, RoundsTotal: 5, StartDate: "2025-03-14",
	}); err != nil {
		t.Fatalf("seed tanda: %v", err)
	}
	if _, err := f.ledger.DeclareWeeklyIncome(ctx, "u1", &domain.DeclareIncomeRequest{Amount: 500}); err != nil {
		t.Fatalf("seed income: %v", err)
	}
	if _, _, err := f.ledger.CreateExpense(ctx, "u1", &domain.CreateExpenseRequest{Amount: 120, Type: "purchase"}); err != nil {
		t.Fatalf("seed expense: %v", err)
	}

	summary, err := f.dashboard.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if summary.Savings.Total != 400 {
		t.Errorf("expected savings total 400, got %v", summary.Savings.Total)
	}
	if summary.Bills.PendingCount != 1 {
		t.Errorf("expected 1 pending bill, got %d", summary.Bills.PendingCount)
	}
	if len(summary.Bills.Next) != 1 || summary.Bills.Next[0].Name != "Rent" {
		t.Errorf("unexpected next bills: %+v", summary.Bills.Next)
	}
	if len(summary.Goals) != 1 || summary.Goals[0].ProgressPercent != 40 {
		t.Errorf("unexpected goal cards: %+v", summary.Goals)
	}
	if summary.Tandas.NextPayment == nil {
		t.Fatal("expected a next tanda payment")
	}
	if summary.Tandas.NextPayment.NextPaymentDate != "2025-03-14" {
		t.Errorf("unexpected next payment date %s", summary.Tandas.NextPayment.NextPaymentDate)
	}
	if summary.Income.WeeklyIncome != 500 || summary.Income.SpentThisWeek != 120 || summary.Income.AvailableThisWeek != 380 {
		t.Errorf("unexpected income section: %+v", summary.Income)
	}

	// The bill and tanda projections within the next 7 days land in the
	// upcoming list.
	if len(summary.Calendar.UpcomingEvents) != 2 {
		t.Errorf("expected 2 upcoming events, got %d", len(summary.Calendar.UpcomingEvents))
	}
}

func TestSummary_ServedFromCache(t *testing.T) {
	f := newDashboardFixture(t)
	ctx := context.Background()

	first, err := f.dashboard.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("first summary: %v", err)
	}

	// A write straight to the store, behind the services' backs, stays
	// invisible until the cache entry is dropped.
	goal := &domain.SavingGoal{ID: "g-direct", UserID: "u1", Name: "New", TargetAmount: 100, Status: domain.GoalStatusActive}
	owner := &domain.SavingGoalMember{GoalID: goal.ID, UserID: "u1", Role: domain.GoalRoleOwner}
	if err := f.store.CreateGoal(ctx, goal, owner); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	cached, err := f.dashboard.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("cached summary: %v", err)
	}
	if len(cached.Goals) != len(first.Goals) {
		t.Errorf("expected cached summary, got a rebuild with %d goals", len(cached.Goals))
	}

	f.dashboard.Invalidate("u1")

	fresh, err := f.dashboard.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("fresh summary: %v", err)
	}
	if len(fresh.Goals) != 1 {
		t.Errorf("expected rebuild after invalidation, got %d goals", len(fresh.Goals))
	}
}

func TestSummary_RefreshesAfterWrite(t *testing.T) {
	f := newDashboardFixture(t)
	ctx := context.Background()

	bill, err := f.bills.CreateBill(ctx, "u1", &domain.CreateBillRequest{Name: "Internet", Amount: 600, DueDate: "2025-03-20"})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}

	before, err := f.dashboard.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary before: %v", err)
	}
	if before.Bills.PendingCount != 1 {
		t.Fatalf("expected 1 pending bill before payment, got %d", before.Bills.PendingCount)
	}

	if _, err := f.bills.UpdateBill(ctx, "u1", bill.ID, &domain.UpdateBillRequest{Status: strPtr(domain.BillStatusPaid)}); err != nil {
		t.Fatalf("pay bill: %v", err)
	}

	// The payment invalidates the cached summary, so the next read
	// rebuilds within the TTL instead of serving the stale counts.
	after, err := f.dashboard.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary after: %v", err)
	}
	if after.Bills.PendingCount != 0 {
		t.Errorf("expected no pending bills after payment, got %d", after.Bills.PendingCount)
	}
	if after.Bills.PaidThisMonth != 600 {
		t.Errorf("expected 600 paid this month, got %v", after.Bills.PaidThisMonth)
	}
	if after.Income.SpentThisWeek != 600 {
		t.Errorf("expected the booked payment in this week's spend, got %v", after.Income.SpentThisWeek)
	}
}

func TestSummary_CacheIsPerUser(t *testing.T) {
	f := newDashboardFixture(t)
	ctx := context.Background()

	if _, err := f.goals.CreateGoal(ctx, "u1", &domain.CreateGoalRequest{Name: "Mine", TargetAmount: 100}); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	mine, err := f.dashboard.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary u1: %v", err)
	}
	theirs, err := f.dashboard.Summary(ctx, "u2")
	if err != nil {
		t.Fatalf("summary u2: %v", err)
	}

	if len(mine.Goals) != 1 {
		t.Errorf("expected 1 goal for u1, got %d", len(mine.Goals))
	}
	if len(theirs.Goals) != 0 {
		t.Errorf("expected no goals for u2, got %d", len(theirs.Goals))
	}
}
