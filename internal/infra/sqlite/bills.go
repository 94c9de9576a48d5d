package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
)

const billColumns = "id, user_id, name, provider, description, amount, due_date, paid_at, status, category, auto_debit, created_at, updated_at"

func scanBill(row interface{ Scan(...any) error }) (*domain.Bill, error) {
	var b domain.Bill
	var dueDate, createdAt, updatedAt string
	var paidAt sql.NullString
	err := row.Scan(
		&b.ID, &b.UserID, &b.Name, &b.Provider, &b.Description, &b.Amount,
		&dueDate, &paidAt, &b.Status, &b.Category, &b.AutoDebit,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.DueDate = parseDate(dueDate)
	b.PaidAt = scanTimePtr(paidAt)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

// CreateBill persists a new bill.
func (s *Store) CreateBill(ctx context.Context, bill *domain.Bill) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bills (`+billColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.UserID, bill.Name, bill.Provider, bill.Description, bill.Amount,
		fmtDate(bill.DueDate), nullTime(bill.PaidAt), bill.Status, bill.Category, bill.AutoDebit,
		fmtTime(bill.CreatedAt), fmtTime(bill.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

// GetBill retrieves a bill scoped to its owner. Another user's bill
// surfaces as not found.
func (s *Store) GetBill(ctx context.Context, userID, billID string) (*domain.Bill, error) {
	bill, err := scanBill(s.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = ? AND user_id = ?`,
		billID, userID,
	))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return bill, nil
}

// ListBills returns the user's bills ordered by due date ascending.
func (s *Store) ListBills(ctx context.Context, userID, status string) ([]domain.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY due_date ASC`

	return s.queryBills(ctx, query, args...)
}

// UpdateBill persists the bill's mutable fields.
func (s *Store) UpdateBill(ctx context.Context, bill *domain.Bill) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bills
		 SET name = ?, provider = ?, description = ?, amount = ?, due_date = ?,
		     paid_at = ?, status = ?, category = ?, auto_debit = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		bill.Name, bill.Provider, bill.Description, bill.Amount, fmtDate(bill.DueDate),
		nullTime(bill.PaidAt), bill.Status, bill.Category, bill.AutoDebit, fmtTime(bill.UpdatedAt),
		bill.ID, bill.UserID,
	)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "bill", ID: bill.ID}
	}
	return nil
}

// DeleteBill removes a bill scoped to its owner.
func (s *Store) DeleteBill(ctx context.Context, userID, billID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bills WHERE id = ? AND user_id = ?`, billID, userID)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	return nil
}

// ListBillsDueBetween returns bills whose due date falls in [from, to].
func (s *Store) ListBillsDueBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Bill, error) {
	return s.queryBills(ctx,
		`SELECT `+billColumns+` FROM bills
		 WHERE user_id = ? AND due_date >= ? AND due_date <= ?
		 ORDER BY due_date ASC`,
		userID, fmtDate(from), fmtDate(to),
	)
}

// CountBillsByStatus counts the user's bills in a given status.
func (s *Store) CountBillsByStatus(ctx context.Context, userID, status string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bills WHERE user_id = ? AND status = ?`,
		userID, status,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bills: %w", err)
	}
	return n, nil
}

// SumPaidBillsBetween sums paid bill amounts with paid_at in [from, to].
func (s *Store) SumPaidBillsBetween(ctx context.Context, userID string, from, to time.Time) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM bills
		 WHERE user_id = ? AND status = 'paid'
		   AND paid_at IS NOT NULL AND paid_at >= ? AND paid_at <= ?`,
		userID, fmtTime(from), fmtTime(to.Add(24*time.Hour-time.Nanosecond)),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum paid bills: %w", err)
	}
	return total, nil
}

// ListUpcomingBills returns unpaid bills due on or after from, soonest first.
func (s *Store) ListUpcomingBills(ctx context.Context, userID string, from time.Time, limit int) ([]domain.Bill, error) {
	return s.queryBills(ctx,
		`SELECT `+billColumns+` FROM bills
		 WHERE user_id = ? AND status = 'pending' AND due_date >= ?
		 ORDER BY due_date ASC LIMIT ?`,
		userID, fmtDate(from), limit,
	)
}

func (s *Store) queryBills(ctx context.Context, query string, args ...any) ([]domain.Bill, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var bills []domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}
