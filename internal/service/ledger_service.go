// Package service provides the business logic layer: the reconciliation
// and aggregation engine behind bills, expenses, the weekly ledger,
// saving goals, tandas and the calendar feed.
package service

import (
	"context"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
	"github.com/lanaapp/lana-api/internal/infra/observability"
	"github.com/lanaapp/lana-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerService owns the weekly ledger: expense writes, income
// declarations, and the reconciliation that keeps spent/leftover
// consistent with the live expense set.
type LedgerService struct {
	store   port.LedgerStore
	dash    Invalidator
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store port.LedgerStore, metrics *observability.Metrics, logger *zap.Logger) *LedgerService {
	return &LedgerService{store: store, metrics: metrics, logger: logger, now: time.Now}
}

// WithClock overrides the time source. Used by tests to pin "today".
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// WithInvalidator hooks up cache invalidation for derived views.
func (s *LedgerService) WithInvalidator(inv Invalidator) *LedgerService {
	s.dash = inv
	return s
}

// weekFor returns the ledger row enclosing date, creating it with zeroed
// amounts on first touch.
func (s *LedgerService) weekFor(ctx context.Context, userID string, date time.Time) (*domain.WeeklyIncome, error) {
	start, end := domain.WeekBounds(date)
	return s.store.GetOrCreateWeek(ctx, userID, start, end)
}

// Reconcile recomputes the week's spent total from the full expense set
// and stores spent and leftover. It never applies deltas, so repeated or
// interleaved calls converge on the same stored values.
func (s *LedgerService) Reconcile(ctx context.Context, week *domain.WeeklyIncome) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Reconcile")
	defer span.End()
	span.SetAttributes(attribute.String("week.start", week.WeekStart.Format(domain.DateOnly)))

	spent, err := s.store.SumExpenses(ctx, week.UserID, week.WeekStart, week.WeekEnd)
	if err != nil {
		return err
	}

	week.Recompute(spent)

	if err := s.store.UpdateWeekTotals(ctx, week.ID, week.Spent, week.Leftover); err != nil {
		s.logger.Error("failed to persist week totals",
			zap.String("user_id", week.UserID),
			zap.String("week_start", week.WeekStart.Format(domain.DateOnly)),
			zap.Error(err),
		)
		return err
	}
	s.metrics.RecordReconciliation()
	return nil
}

// ReconcileDate reconciles the week enclosing date.
func (s *LedgerService) ReconcileDate(ctx context.Context, userID string, date time.Time) (*domain.WeeklyIncome, error) {
	week, err := s.weekFor(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if err := s.Reconcile(ctx, week); err != nil {
		return nil, err
	}
	return week, nil
}

// CreateExpense logs an expense, attaching it to its week's ledger row
// and reconciling that week.
func (s *LedgerService) CreateExpense(ctx context.Context, userID string, req *domain.CreateExpenseRequest) (*domain.ExpenseView, *domain.WeeklyIncomeView, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateExpense")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("expense_create", time.Since(start)) }()

	if req.Amount <= 0 {
		return nil, nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if req.Type == "" {
		return nil, nil, &domain.ErrValidation{Field: "type", Message: "required"}
	}

	date := domain.Day(s.now())
	if req.Date != "" {
		parsed, err := time.Parse(domain.DateOnly, req.Date)
		if err != nil {
			return nil, nil, &domain.ErrValidation{Field: "date", Message: "invalid format, use YYYY-MM-DD"}
		}
		date = parsed
	}

	week, err := s.weekFor(ctx, userID, date)
	if err != nil {
		return nil, nil, err
	}

	expense := &domain.Expense{
		ID:             uuid.New().String(),
		UserID:         userID,
		WeeklyIncomeID: week.ID,
		Date:           date,
		Amount:         req.Amount,
		Type:           req.Type,
		SourceID:       req.SourceID,
		Description:    req.Description,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		s.logger.Error("failed to create expense", zap.String("user_id", userID), zap.Error(err))
		return nil, nil, err
	}
	s.metrics.RecordExpense(expense.Type)

	if err := s.Reconcile(ctx, week); err != nil {
		return nil, nil, err
	}

	invalidate(s.dash, userID)
	s.logger.Info("expense recorded",
		zap.String("user_id", userID),
		zap.String("expense_id", expense.ID),
		zap.Float64("amount", expense.Amount),
		zap.String("type", expense.Type),
	)

	ev := expense.View()
	wv := week.View()
	return &ev, &wv, nil
}

// RecordGeneratedExpense books an auto-generated expense (bill payment,
// tanda contribution) idempotently: a second call with the same type and
// source id is a silent no-op. Reports whether a row was written.
func (s *LedgerService) RecordGeneratedExpense(ctx context.Context, expense *domain.Expense) (bool, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.RecordGeneratedExpense")
	defer span.End()

	week, err := s.weekFor(ctx, expense.UserID, expense.Date)
	if err != nil {
		return false, err
	}

	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	expense.WeeklyIncomeID = week.ID
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = s.now()
	}

	created, err := s.store.CreateExpenseIfAbsent(ctx, expense)
	if err != nil {
		return false, err
	}
	if !created {
		// Already applied; leave the ledger untouched.
		s.logger.Debug("generated expense already booked",
			zap.String("user_id", expense.UserID),
			zap.String("type", expense.Type),
			zap.String("source_id", expense.SourceID),
		)
		return false, nil
	}
	s.metrics.RecordExpense(expense.Type)

	if err := s.Reconcile(ctx, week); err != nil {
		return true, err
	}
	invalidate(s.dash, expense.UserID)
	return true, nil
}

// DeleteExpense removes an expense and reconciles its week.
func (s *LedgerService) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteExpense")
	defer span.End()

	expense, err := s.store.GetExpense(ctx, userID, expenseID)
	if err != nil {
		return err
	}
	if expense == nil {
		return &domain.ErrNotFound{Resource: "expense", ID: expenseID}
	}

	if err := s.store.DeleteExpense(ctx, userID, expenseID); err != nil {
		return err
	}

	if _, err := s.ReconcileDate(ctx, userID, expense.Date); err != nil {
		return err
	}

	invalidate(s.dash, userID)
	s.logger.Info("expense deleted",
		zap.String("user_id", userID),
		zap.String("expense_id", expenseID),
	)
	return nil
}

// ExpenseList is the windowed expense listing with its bounds.
type ExpenseList struct {
	Scope    string               `json:"scope"`
	Start    string               `json:"start"`
	End      string               `json:"end"`
	Expenses []domain.ExpenseView `json:"expenses"`
}

// ListExpenses returns expenses in the week or month enclosing the
// anchor date (today when empty).
func (s *LedgerService) ListExpenses(ctx context.Context, userID, scope, anchor string) (*ExpenseList, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListExpenses")
	defer span.End()

	base := s.now()
	if anchor != "" {
		parsed, err := time.Parse(domain.DateOnly, anchor)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "date", Message: "invalid format, use YYYY-MM-DD"}
		}
		base = parsed
	}

	var from, to time.Time
	switch scope {
	case "month":
		from = time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, -1)
	default:
		scope = "week"
		from, to = domain.WeekBounds(base)
	}

	expenses, err := s.store.ListExpenses(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ExpenseView, 0, len(expenses))
	for i := range expenses {
		views = append(views, expenses[i].View())
	}

	return &ExpenseList{
		Scope:    scope,
		Start:    from.Format(domain.DateOnly),
		End:      to.Format(domain.DateOnly),
		Expenses: views,
	}, nil
}

// DeclareWeeklyIncome sets the declared amount of the current week,
// creating the row on first declaration, then reconciles.
func (s *LedgerService) DeclareWeeklyIncome(ctx context.Context, userID string, req *domain.DeclareIncomeRequest) (*domain.WeeklyIncomeView, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeclareWeeklyIncome")
	defer span.End()

	if req.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}

	week, err := s.weekFor(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.SetWeekAmount(ctx, week.ID, req.Amount); err != nil {
		s.logger.Error("failed to set weekly income", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	week.Amount = req.Amount

	if err := s.Reconcile(ctx, week); err != nil {
		return nil, err
	}

	invalidate(s.dash, userID)
	s.logger.Info("weekly income declared",
		zap.String("user_id", userID),
		zap.Float64("amount", req.Amount),
		zap.String("week_start", week.WeekStart.Format(domain.DateOnly)),
	)

	v := week.View()
	return &v, nil
}

// CurrentWeek returns the ledger row for the week enclosing today, or a
// zeroed view when the week has never been touched.
func (s *LedgerService) CurrentWeek(ctx context.Context, userID string) (*domain.WeeklyIncomeView, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CurrentWeek")
	defer span.End()

	start, end := domain.WeekBounds(s.now())
	week, err := s.store.GetWeek(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if week == nil {
		week = &domain.WeeklyIncome{
			UserID:    userID,
			WeekStart: start,
			WeekEnd:   end,
		}
	}
	v := week.View()
	return &v, nil
}
