package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
)

const tandaColumns = "id, organizer_id, name, description, total_amount, contribution_amount, rounds_total, current_round, start_date, next_payment_date, frequency, status, created_at, updated_at"

func scanTanda(row interface{ Scan(...any) error }) (*domain.Tanda, error) {
	var t domain.Tanda
	var startDate, createdAt, updatedAt string
	var nextPayment sql.NullString
	err := row.Scan(
		&t.ID, &t.OrganizerID, &t.Name, &t.Description, &t.TotalAmount, &t.ContributionAmount,
		&t.RoundsTotal, &t.CurrentRound, &startDate, &nextPayment, &t.Frequency, &t.Status,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.StartDate = parseDate(startDate)
	t.NextPaymentDate = scanDatePtr(nextPayment)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// CreateTanda persists the tanda and its initial members in one transaction.
func (s *Store) CreateTanda(ctx context.Context, t *domain.Tanda, members []domain.TandaMember) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tandas (`+tandaColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OrganizerID, t.Name, t.Description, t.TotalAmount, t.ContributionAmount,
		t.RoundsTotal, t.CurrentRound, fmtDate(t.StartDate), nullDate(t.NextPaymentDate),
		t.Frequency, t.Status, fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert tanda: %w", err)
	}

	for i := range members {
		m := &members[i]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tanda_members (id, tanda_id, user_id, name, email, phone, round_number, has_collected)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.TandaID, nullStr(m.UserID), m.Name, m.Email, m.Phone, m.RoundNumber, m.HasCollected,
		)
		if err != nil {
			return fmt.Errorf("insert tanda member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetTanda retrieves a tanda visible to the user (organizer or member).
// Anything else surfaces as not found.
func (s *Store) GetTanda(ctx context.Context, userID, tandaID string) (*domain.Tanda, error) {
	t, err := scanTanda(s.db.QueryRowContext(ctx,
		`SELECT `+tandaColumns+` FROM tandas
		 WHERE id = ? AND (organizer_id = ? OR id IN (
		    SELECT tanda_id FROM tanda_members WHERE user_id = ?
		 ))`,
		tandaID, userID, userID,
	))
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "tanda", ID: tandaID}
	}
	if err != nil {
		return nil, fmt.Errorf("get tanda: %w", err)
	}
	return t, nil
}

// ListTandas returns tandas the user organizes or participates in.
func (s *Store) ListTandas(ctx context.Context, userID, status string) ([]domain.Tanda, error) {
	query := `SELECT DISTINCT t.` + tandaJoinColumns() + `
		 FROM tandas t
		 LEFT JOIN tanda_members m ON m.tanda_id = t.id
		 WHERE (t.organizer_id = ? OR m.user_id = ?)`
	args := []any{userID, userID}
	if status != "" {
		query += ` AND t.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY t.next_payment_date IS NULL, t.next_payment_date ASC`

	return s.queryTandas(ctx, query, args...)
}

// ListTandaMembers returns a tanda's members ordered by collection turn.
func (s *Store) ListTandaMembers(ctx context.Context, tandaID string) ([]domain.TandaMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tanda_id, user_id, name, email, phone, round_number, has_collected
		 FROM tanda_members
		 WHERE tanda_id = ?
		 ORDER BY round_number ASC, name ASC`,
		tandaID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tanda members: %w", err)
	}
	defer rows.Close()

	var members []domain.TandaMember
	for rows.Next() {
		var m domain.TandaMember
		var userID sql.NullString
		if err := rows.Scan(&m.ID, &m.TandaID, &userID, &m.Name, &m.Email, &m.Phone, &m.RoundNumber, &m.HasCollected); err != nil {
			return nil, fmt.Errorf("scan tanda member: %w", err)
		}
		m.UserID = userID.String
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tanda members: %w", err)
	}
	return members, nil
}

// CountTandaMembers counts a tanda's seats.
func (s *Store) CountTandaMembers(ctx context.Context, tandaID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tanda_members WHERE tanda_id = ?`, tandaID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tanda members: %w", err)
	}
	return n, nil
}

// ListTandasPayingBetween returns owned-or-participated tandas whose
// next payment date falls in [from, to].
func (s *Store) ListTandasPayingBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Tanda, error) {
	return s.queryTandas(ctx,
		`SELECT DISTINCT t.`+tandaJoinColumns()+`
		 FROM tandas t
		 LEFT JOIN tanda_members m ON m.tanda_id = t.id
		 WHERE (t.organizer_id = ? OR m.user_id = ?)
		   AND t.next_payment_date IS NOT NULL
		   AND t.next_payment_date >= ? AND t.next_payment_date <= ?
		 ORDER BY t.next_payment_date ASC`,
		userID, userID, fmtDate(from), fmtDate(to),
	)
}

// NextTandaPayment returns the active tanda with the earliest payment
// date on or after from, or nil when there is none.
func (s *Store) NextTandaPayment(ctx context.Context, userID string, from time.Time) (*domain.Tanda, error) {
	t, err := scanTanda(s.db.QueryRowContext(ctx,
		`SELECT DISTINCT t.`+tandaJoinColumns()+`
		 FROM tandas t
		 LEFT JOIN tanda_members m ON m.tanda_id = t.id
		 WHERE (t.organizer_id = ? OR m.user_id = ?)
		   AND t.status = 'active'
		   AND t.next_payment_date IS NOT NULL AND t.next_payment_date >= ?
		 ORDER BY t.next_payment_date ASC LIMIT 1`,
		userID, userID, fmtDate(from),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next tanda payment: %w", err)
	}
	return t, nil
}

// CountTandasByStatus counts tandas the user organizes or joined, by status.
func (s *Store) CountTandasByStatus(ctx context.Context, userID, status string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT t.id)
		 FROM tandas t
		 LEFT JOIN tanda_members m ON m.tanda_id = t.id
		 WHERE (t.organizer_id = ? OR m.user_id = ?) AND t.status = ?`,
		userID, userID, status,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tandas: %w", err)
	}
	return n, nil
}

func tandaJoinColumns() string {
	return "id, t.organizer_id, t.name, t.description, t.total_amount, t.contribution_amount, t.rounds_total, t.current_round, t.start_date, t.next_payment_date, t.frequency, t.status, t.created_at, t.updated_at"
}

func (s *Store) queryTandas(ctx context.Context, query string, args ...any) ([]domain.Tanda, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tandas: %w", err)
	}
	defer rows.Close()

	var tandas []domain.Tanda
	for rows.Next() {
		t, err := scanTanda(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tanda: %w", err)
		}
		tandas = append(tandas, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tandas: %w", err)
	}
	return tandas, nil
}
