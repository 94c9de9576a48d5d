package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Saving Goals
// ============================================================

// Saving goal statuses.
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusCancelled = "cancelled"
)

// Saving goal member roles.
const (
	GoalRoleOwner  = "owner"
	GoalRoleMember = "member"
)

// SavingGoal is a savings target. CurrentAmount is backed by the
// append-only movement ledger; Status tracks the completion invariant
// (completed exactly when current >= target > 0), re-evaluated on every
// amount or target change.
type SavingGoal struct {
	ID            string     `json:"id"`
	UserID        string     `json:"-"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	TargetAmount  float64    `json:"target_amount"`
	CurrentAmount float64    `json:"current_amount"`
	Deadline      *time.Time `json:"-"`
	Category      string     `json:"category,omitempty"`
	IsGroup       bool       `json:"is_group"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"-"`
	UpdatedAt     time.Time  `json:"-"`
}

// ProgressPercent returns min(100, current/target*100) rounded half-up
// to one decimal place, or 0 when the target is not positive.
func (g *SavingGoal) ProgressPercent() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	pct := decimal.NewFromFloat(g.CurrentAmount).
		Div(decimal.NewFromFloat(g.TargetAmount)).
		Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	return pct.Round(1).InexactFloat64()
}

// RefreshStatus re-evaluates the completion invariant. Cancelled goals
// stay cancelled; otherwise the status flips between active and completed
// as the balance crosses the target in either direction.
func (g *SavingGoal) RefreshStatus() {
	if g.Status == GoalStatusCancelled {
		return
	}
	if g.TargetAmount > 0 && g.CurrentAmount >= g.TargetAmount {
		g.Status = GoalStatusCompleted
	} else {
		g.Status = GoalStatusActive
	}
}

// CalendarProjection produces the goal's financial-event projection,
// dated at its deadline. Goals without a deadline project a zero date;
// the store skips those.
func (g *SavingGoal) CalendarProjection() FinancialEvent {
	category := g.Category
	if category == "" {
		category = "saving_goal"
	}
	ev := FinancialEvent{
		UserID:   g.UserID,
		Kind:     EventKindSavingGoal,
		EntityID: g.ID,
		Title:    g.Name,
		Amount:   g.TargetAmount,
		Category: category,
		Status:   g.Status,
	}
	if g.Deadline != nil {
		ev.Date = Day(*g.Deadline)
	}
	return ev
}

// SavingGoalView is the presentation record for a goal.
type SavingGoalView struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	TargetAmount    float64 `json:"target_amount"`
	CurrentAmount   float64 `json:"current_amount"`
	ProgressPercent float64 `json:"progress_percent"`
	Deadline        string  `json:"deadline,omitempty"`
	Category        string  `json:"category,omitempty"`
	Status          string  `json:"status"`
	IsGroup         bool    `json:"is_group"`
}

// View builds the presentation record for the goal.
func (g *SavingGoal) View() SavingGoalView {
	v := SavingGoalView{
		ID:              g.ID,
		Name:            g.Name,
		Description:     g.Description,
		TargetAmount:    g.TargetAmount,
		CurrentAmount:   g.CurrentAmount,
		ProgressPercent: g.ProgressPercent(),
		Category:        g.Category,
		Status:          g.Status,
		IsGroup:         g.IsGroup,
	}
	if g.Deadline != nil {
		v.Deadline = g.Deadline.Format(DateOnly)
	}
	return v
}

// SavingGoalMember associates a user with a goal, with a role and an
// optional expected contribution. Membership grants contribution rights;
// the expected amount does not affect balance accounting.
type SavingGoalMember struct {
	GoalID               string   `json:"goal_id"`
	UserID               string   `json:"user_id"`
	Name                 string   `json:"name,omitempty"`
	Email                string   `json:"email,omitempty"`
	Role                 string   `json:"role"`
	ExpectedContribution *float64 `json:"expected_contribution,omitempty"`
}

// Movement types on the goal ledger.
const (
	MovementDeposit    = "deposit"
	MovementWithdrawal = "withdrawal"
)

// SavingGoalMovement is one immutable row of the goal's audit ledger.
// Rows are appended by contributions and never updated or deleted; the
// goal balance must always equal the sum of its movement amounts.
type SavingGoalMovement struct {
	ID          string    `json:"id"`
	GoalID      string    `json:"goal_id"`
	UserID      string    `json:"user_id"`
	Date        time.Time `json:"-"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"-"`
}

// MovementView is the presentation record for a ledger movement.
type MovementView struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
}

// View builds the presentation record for the movement.
func (m *SavingGoalMovement) View() MovementView {
	return MovementView{
		ID:          m.ID,
		UserID:      m.UserID,
		Date:        m.Date.Format(DateOnly),
		Amount:      m.Amount,
		Type:        m.Type,
		Description: m.Description,
	}
}

// Membership is the capability set a user holds on a shared entity,
// evaluated once per request and checked by the services.
type Membership struct {
	IsOwner       bool
	IsParticipant bool
}

// CanContribute reports whether the user may move money on the entity.
func (m Membership) CanContribute() bool {
	return m.IsOwner || m.IsParticipant
}
