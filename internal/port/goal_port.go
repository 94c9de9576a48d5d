package port

import (
	"context"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
)

// GoalStore handles saving goals, their membership and the movement ledger.
type GoalStore interface {
	// CreateGoal persists the goal together with its owner membership row.
	CreateGoal(ctx context.Context, goal *domain.SavingGoal, owner *domain.SavingGoalMember) error
	GetGoal(ctx context.Context, goalID string) (*domain.SavingGoal, error)
	UpdateGoal(ctx context.Context, goal *domain.SavingGoal) error
	// ListGoals returns goals the user owns or participates in, ordered
	// by deadline ascending.
	ListGoals(ctx context.Context, userID string) ([]domain.SavingGoal, error)

	// GetMembership evaluates the owner/participant capability of a user
	// on a goal in one query.
	GetMembership(ctx context.Context, goalID, userID string) (domain.Membership, error)
	UpsertMember(ctx context.Context, m *domain.SavingGoalMember) error
	ListMembers(ctx context.Context, goalID string) ([]domain.SavingGoalMember, error)

	// ApplyContribution runs the four contribution effects in a single
	// transaction: balance increment, movement append, completion-status
	// re-evaluation and the calendar entry. It returns the goal as
	// committed. Partial application is unrepresentable at this boundary.
	ApplyContribution(ctx context.Context, goalID string, mv *domain.SavingGoalMovement, cal *domain.CalendarEvent) (*domain.SavingGoal, error)
	ListMovements(ctx context.Context, goalID string) ([]domain.SavingGoalMovement, error)

	// ListGoalsWithDeadlineBetween returns owned-or-participated goals
	// whose deadline falls in [from, to], for the calendar aggregator.
	ListGoalsWithDeadlineBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.SavingGoal, error)
	TotalSavings(ctx context.Context, userID string) (float64, error)
}
