package port

import (
	"context"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
)

// LedgerStore handles the weekly ledger and its expenses.
type LedgerStore interface {
	// GetOrCreateWeek returns the ledger row for (userID, weekStart,
	// weekEnd), creating it with zeroed amounts on first touch. The
	// uniqueness of the key is enforced by the store; two rows for the
	// same user/week cannot exist.
	GetOrCreateWeek(ctx context.Context, userID string, weekStart, weekEnd time.Time) (*domain.WeeklyIncome, error)
	// GetWeek returns the ledger row, or nil when the week has never
	// been touched.
	GetWeek(ctx context.Context, userID string, weekStart, weekEnd time.Time) (*domain.WeeklyIncome, error)
	SetWeekAmount(ctx context.Context, weekID string, amount float64) error
	UpdateWeekTotals(ctx context.Context, weekID string, spent, leftover float64) error

	CreateExpense(ctx context.Context, e *domain.Expense) error
	// CreateExpenseIfAbsent inserts the expense unless one with the same
	// (user, type, source id) already exists, and reports whether a row
	// was written. Single statement at the store so the check-then-insert
	// window is closed under concurrent requests.
	CreateExpenseIfAbsent(ctx context.Context, e *domain.Expense) (bool, error)
	GetExpense(ctx context.Context, userID, expenseID string) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
	ListExpenses(ctx context.Context, userID string, from, to time.Time) ([]domain.Expense, error)
	// SumExpenses re-sums expense amounts in [from, to]; the reconciler
	// never applies deltas.
	SumExpenses(ctx context.Context, userID string, from, to time.Time) (float64, error)
	DailyExpenseTotals(ctx context.Context, userID string, from, to time.Time) ([]domain.DailyExpenseTotal, error)
}
