package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lanaapp/lana-api/internal/domain"
)

// GetOrCreateWeek returns the ledger row for (userID, weekStart,
// weekEnd), creating it with zeroed amounts on first touch. The UNIQUE
// constraint makes the insert-then-select race-free; a concurrent
// creator just wins the insert.
func (s *Store) GetOrCreateWeek(ctx context.Context, userID string, weekStart, weekEnd time.Time) (*domain.WeeklyIncome, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO weekly_incomes (id, user_id, week_start, week_end, amount, spent, saved, leftover)
		 VALUES (?, ?, ?, ?, 0, 0, 0, 0)
		 ON CONFLICT (user_id, week_start, week_end) DO NOTHING`,
		uuid.New().String(), userID, fmtDate(weekStart), fmtDate(weekEnd),
	)
	if err != nil {
		return nil, fmt.Errorf("insert week: %w", err)
	}

	week, err := s.GetWeek(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	if week == nil {
		return nil, fmt.Errorf("week row missing after insert")
	}
	return week, nil
}

// GetWeek returns the ledger row, or nil when the week has never been touched.
func (s *Store) GetWeek(ctx context.Context, userID string, weekStart, weekEnd time.Time) (*domain.WeeklyIncome, error) {
	var w domain.WeeklyIncome
	var start, end string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, week_start, week_end, amount, spent, saved, leftover
		 FROM weekly_incomes
		 WHERE user_id = ? AND week_start = ? AND week_end = ?`,
		userID, fmtDate(weekStart), fmtDate(weekEnd),
	).Scan(&w.ID, &w.UserID, &start, &end, &w.Amount, &w.Spent, &w.Saved, &w.Leftover)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get week: %w", err)
	}
	w.WeekStart = parseDate(start)
	w.WeekEnd = parseDate(end)
	return &w, nil
}

// SetWeekAmount updates the declared income amount of a week row.
func (s *Store) SetWeekAmount(ctx context.Context, weekID string, amount float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE weekly_incomes SET amount = ? WHERE id = ?`, amount, weekID)
	if err != nil {
		return fmt.Errorf("set week amount: %w", err)
	}
	return nil
}

// UpdateWeekTotals stores the reconciled spent and leftover values.
func (s *Store) UpdateWeekTotals(ctx context.Context, weekID string, spent, leftover float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE weekly_incomes SET spent = ?, leftover = ? WHERE id = ?`,
		spent, leftover, weekID)
	if err != nil {
		return fmt.Errorf("update week totals: %w", err)
	}
	return nil
}

const expenseColumns = "id, user_id, weekly_income_id, date, amount, type, source_id, description, created_at"

// CreateExpense inserts an expense row.
func (s *Store) CreateExpense(ctx context.Context, e *domain.Expense) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, nullStr(e.WeeklyIncomeID), fmtDate(e.Date), e.Amount,
		e.Type, nullStr(e.SourceID), e.Description, fmtTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// CreateExpenseIfAbsent inserts the expense unless one with the same
// (user, type, source id) already exists. The partial unique index on
// bill-type expenses makes this a single atomic statement; it reports
// whether a row was written.
func (s *Store) CreateExpenseIfAbsent(ctx context.Context, e *domain.Expense) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO expenses (`+expenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, nullStr(e.WeeklyIncomeID), fmtDate(e.Date), e.Amount,
		e.Type, nullStr(e.SourceID), e.Description, fmtTime(e.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert expense if absent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// GetExpense retrieves an expense scoped to its owner.
func (s *Store) GetExpense(ctx context.Context, userID, expenseID string) (*domain.Expense, error) {
	e, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`,
		expenseID, userID,
	))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "expense", ID: expenseID}
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// DeleteExpense removes an expense scoped to its owner.
func (s *Store) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, expenseID, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "expense", ID: expenseID}
	}
	return nil
}

// ListExpenses returns expenses dated in [from, to], newest first.
func (s *Store) ListExpenses(ctx context.Context, userID string, from, to time.Time) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date DESC, created_at DESC`,
		userID, fmtDate(from), fmtDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// SumExpenses re-sums expense amounts dated in [from, to].
func (s *Store) SumExpenses(ctx context.Context, userID string, from, to time.Time) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM expenses
		 WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID, fmtDate(from), fmtDate(to),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// DailyExpenseTotals groups expense amounts by day over [from, to].
func (s *Store) DailyExpenseTotals(ctx context.Context, userID string, from, to time.Time) ([]domain.DailyExpenseTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, SUM(amount) FROM expenses
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 GROUP BY date ORDER BY date ASC`,
		userID, fmtDate(from), fmtDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	var totals []domain.DailyExpenseTotal
	for rows.Next() {
		var t domain.DailyExpenseTotal
		if err := rows.Scan(&t.Date, &t.Total); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return totals, nil
}

func scanExpense(row interface{ Scan(...any) error }) (*domain.Expense, error) {
	var e domain.Expense
	var weekID, sourceID sql.NullString
	var date, createdAt string
	err := row.Scan(&e.ID, &e.UserID, &weekID, &date, &e.Amount, &e.Type, &sourceID, &e.Description, &createdAt)
	if err != nil {
		return nil, err
	}
	e.WeeklyIncomeID = weekID.String
	e.SourceID = sourceID.String
	e.Date = parseDate(date)
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}
