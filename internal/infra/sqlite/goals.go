package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
)

const goalColumns = "id, user_id, name, description, target_amount, current_amount, deadline, category, is_group, status, created_at, updated_at"

func scanGoal(row interface{ Scan(...any) error }) (*domain.SavingGoal, error) {
	var g domain.SavingGoal
	var deadline sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(
		&g.ID, &g.UserID, &g.Name, &g.Description, &g.TargetAmount, &g.CurrentAmount,
		&deadline, &g.Category, &g.IsGroup, &g.Status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Deadline = scanDatePtr(deadline)
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return &g, nil
}

// CreateGoal persists the goal together with its owner membership row.
func (s *Store) CreateGoal(ctx context.Context, goal *domain.SavingGoal, owner *domain.SavingGoalMember) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO saving_goals (`+goalColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.UserID, goal.Name, goal.Description, goal.TargetAmount, goal.CurrentAmount,
		nullDate(goal.Deadline), goal.Category, goal.IsGroup, goal.Status,
		fmtTime(goal.CreatedAt), fmtTime(goal.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO saving_goal_members (goal_id, user_id, role, expected_contribution)
		 VALUES (?, ?, ?, ?)`,
		owner.GoalID, owner.UserID, owner.Role, owner.ExpectedContribution,
	)
	if err != nil {
		return fmt.Errorf("insert owner member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal by id, or nil when absent. Visibility is the
// service's concern.
func (s *Store) GetGoal(ctx context.Context, goalID string) (*domain.SavingGoal, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM saving_goals WHERE id = ?`, goalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// UpdateGoal persists the goal's mutable fields.
func (s *Store) UpdateGoal(ctx context.Context, goal *domain.SavingGoal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE saving_goals
		 SET name = ?, description = ?, target_amount = ?, current_amount = ?,
		     deadline = ?, category = ?, is_group = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		goal.Name, goal.Description, goal.TargetAmount, goal.CurrentAmount,
		nullDate(goal.Deadline), goal.Category, goal.IsGroup, goal.Status, fmtTime(goal.UpdatedAt),
		goal.ID,
	)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "goal", ID: goal.ID}
	}
	return nil
}

// ListGoals returns goals the user owns or participates in, ordered by
// deadline ascending with undated goals last.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]domain.SavingGoal, error) {
	return s.queryGoals(ctx,
		`SELECT DISTINCT g.`+goalJoinColumns()+`
		 FROM saving_goals g
		 LEFT JOIN saving_goal_members m ON m.goal_id = g.id
		 WHERE g.user_id = ? OR m.user_id = ?
		 ORDER BY g.deadline IS NULL, g.deadline ASC`,
		userID, userID,
	)
}

// GetMembership evaluates the owner/participant capability of a user on
// a goal in one query.
func (s *Store) GetMembership(ctx context.Context, goalID, userID string) (domain.Membership, error) {
	var m domain.Membership
	var role sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM saving_goal_members WHERE goal_id = ? AND user_id = ?`,
		goalID, userID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("get membership: %w", err)
	}
	m.IsParticipant = true
	m.IsOwner = role.String == domain.GoalRoleOwner
	return m, nil
}

// UpsertMember adds or updates a membership row.
func (s *Store) UpsertMember(ctx context.Context, m *domain.SavingGoalMember) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saving_goal_members (goal_id, user_id, role, expected_contribution)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (goal_id, user_id) DO UPDATE SET
		    role = excluded.role,
		    expected_contribution = excluded.expected_contribution`,
		m.GoalID, m.UserID, m.Role, m.ExpectedContribution,
	)
	if err != nil {
		return fmt.Errorf("upsert goal member: %w", err)
	}
	return nil
}

// ListMembers returns a goal's members with their account details.
func (s *Store) ListMembers(ctx context.Context, goalID string) ([]domain.SavingGoalMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.goal_id, m.user_id, u.name, u.email, m.role, m.expected_contribution
		 FROM saving_goal_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.goal_id = ?
		 ORDER BY m.role DESC, u.name ASC`,
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("query goal members: %w", err)
	}
	defer rows.Close()

	var members []domain.SavingGoalMember
	for rows.Next() {
		var m domain.SavingGoalMember
		var expected sql.NullFloat64
		if err := rows.Scan(&m.GoalID, &m.UserID, &m.Name, &m.Email, &m.Role, &expected); err != nil {
			return nil, fmt.Errorf("scan goal member: %w", err)
		}
		if expected.Valid {
			m.ExpectedContribution = &expected.Float64
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goal members: %w", err)
	}
	return members, nil
}

// ApplyContribution runs the contribution's four effects in a single
// transaction: balance increment, movement append, completion-status
// re-evaluation and the calendar entry. Either all four commit or none.
func (s *Store) ApplyContribution(ctx context.Context, goalID string, mv *domain.SavingGoalMovement, cal *domain.CalendarEvent) (*domain.SavingGoal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE saving_goals
		 SET current_amount = current_amount + ?, updated_at = ?
		 WHERE id = ?`,
		mv.Amount, fmtTime(mv.CreatedAt), goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("increment goal balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &domain.ErrNotFound{Resource: "goal", ID: goalID}
	}

	goal, err := scanGoal(tx.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM saving_goals WHERE id = ?`, goalID))
	if err != nil {
		return nil, fmt.Errorf("reload goal: %w", err)
	}

	goal.RefreshStatus()
	if _, err := tx.ExecContext(ctx,
		`UPDATE saving_goals SET status = ? WHERE id = ?`, goal.Status, goalID); err != nil {
		return nil, fmt.Errorf("update goal status: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO saving_goal_movements (id, goal_id, user_id, date, amount, type, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		mv.ID, mv.GoalID, mv.UserID, fmtDate(mv.Date), mv.Amount, mv.Type, mv.Description, fmtTime(mv.CreatedAt),
	); err != nil {
		return nil, fmt.Errorf("insert movement: %w", err)
	}

	if cal != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO calendar_events (id, user_id, date, title, type, amount, category, description, source_kind, source_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cal.ID, cal.UserID, fmtDate(cal.Date), cal.Title, cal.Type, cal.Amount,
			cal.Category, cal.Description, string(cal.SourceKind), cal.SourceID,
		); err != nil {
			return nil, fmt.Errorf("insert calendar entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return goal, nil
}

// ListMovements returns a goal's ledger, newest first.
func (s *Store) ListMovements(ctx context.Context, goalID string) ([]domain.SavingGoalMovement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, goal_id, user_id, date, amount, type, description, created_at
		 FROM saving_goal_movements
		 WHERE goal_id = ?
		 ORDER BY created_at DESC`,
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.SavingGoalMovement
	for rows.Next() {
		var m domain.SavingGoalMovement
		var date, createdAt string
		if err := rows.Scan(&m.ID, &m.GoalID, &m.UserID, &date, &m.Amount, &m.Type, &m.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Date = parseDate(date)
		m.CreatedAt = parseTime(createdAt)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	return movements, nil
}

// ListGoalsWithDeadlineBetween returns owned-or-participated goals whose
// deadline falls in [from, to].
func (s *Store) ListGoalsWithDeadlineBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.SavingGoal, error) {
	return s.queryGoals(ctx,
		`SELECT DISTINCT g.`+goalJoinColumns()+`
		 FROM saving_goals g
		 LEFT JOIN saving_goal_members m ON m.goal_id = g.id
		 WHERE (g.user_id = ? OR m.user_id = ?)
		   AND g.deadline IS NOT NULL AND g.deadline >= ? AND g.deadline <= ?
		 ORDER BY g.deadline ASC`,
		userID, userID, fmtDate(from), fmtDate(to),
	)
}

// TotalSavings sums the balances of all goals the user owns or joined.
func (s *Store) TotalSavings(ctx context.Context, userID string) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(current_amount), 0) FROM saving_goals
		 WHERE id IN (
		    SELECT g.id FROM saving_goals g
		    LEFT JOIN saving_goal_members m ON m.goal_id = g.id
		    WHERE g.user_id = ? OR m.user_id = ?
		 )`,
		userID, userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum savings: %w", err)
	}
	return total, nil
}

func goalJoinColumns() string {
	return "id, g.user_id, g.name, g.description, g.target_amount, g.current_amount, g.deadline, g.category, g.is_group, g.status, g.created_at, g.updated_at"
}

func (s *Store) queryGoals(ctx context.Context, query string, args ...any) ([]domain.SavingGoal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []domain.SavingGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}
