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

var goalTracer = otel.Tracer("service/goals")

// GoalService owns saving goals and their contribution ledger. A
// contribution is one atomic unit at the storage boundary: balance
// increment, movement append, completion re-evaluation and the calendar
// entry commit together or not at all.
type GoalService struct {
	store   port.GoalStore
	users   port.AuthStore
	events  port.EventStore
	dash    Invalidator
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewGoalService creates a new goal service.
func NewGoalService(store port.GoalStore, users port.AuthStore, events port.EventStore, metrics *observability.Metrics, logger *zap.Logger) *GoalService {
	return &GoalService{store: store, users: users, events: events, metrics: metrics, logger: logger, now: time.Now}
}

// WithClock overrides the time source. Used by tests to pin "today".
func (s *GoalService) WithClock(now func() time.Time) *GoalService {
	s.now = now
	return s
}

// WithInvalidator hooks up cache invalidation for derived views.
func (s *GoalService) WithInvalidator(inv Invalidator) *GoalService {
	s.dash = inv
	return s
}

// CreateGoal persists a new active goal with its creator enrolled as the
// owner member.
func (s *GoalService) CreateGoal(ctx context.Context, userID string, req *domain.CreateGoalRequest) (*domain.SavingGoalView, error) {
	ctx, span := goalTracer.Start(ctx, "GoalService.CreateGoal")
	defer span.End()

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if req.TargetAmount <= 0 {
		return nil, &domain.ErrValidation{Field: "target_amount", Message: "must be positive"}
	}

	goal := &domain.SavingGoal{
		ID:           uuid.New().String(),
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		Category:     req.Category,
		IsGroup:      req.IsGroup,
		Status:       domain.GoalStatusActive,
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}
	if req.Deadline != "" {
		deadline, err := time.Parse(domain.DateOnly, req.Deadline)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "deadline", Message: "invalid format, use YYYY-MM-DD"}
		}
		goal.Deadline = &deadline
	}

	owner := &domain.SavingGoalMember{
		GoalID: goal.ID,
		UserID: userID,
		Role:   domain.GoalRoleOwner,
	}

	if err := s.store.CreateGoal(ctx, goal, owner); err != nil {
		s.logger.Error("failed to create goal", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	if err := s.events.UpsertEvent(ctx, goal.CalendarProjection()); err != nil {
		s.logger.Error("failed to project goal onto calendar",
			zap.String("goal_id", goal.ID),
			zap.Error(err),
		)
		return nil, err
	}

	invalidate(s.dash, userID)
	s.logger.Info("saving goal created",
		zap.String("user_id", userID),
		zap.String("goal_id", goal.ID),
		zap.Float64("target", goal.TargetAmount),
	)

	v := goal.View()
	return &v, nil
}

// ListGoals returns goals the user owns or participates in.
func (s *GoalService) ListGoals(ctx context.Context, userID string) ([]domain.SavingGoalView, error) {
	ctx, span := goalTracer.Start(ctx, "GoalService.ListGoals")
	defer span.End()

	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.SavingGoalView, 0, len(goals))
	for i := range goals {
		views = append(views, goals[i].View())
	}
	return views, nil
}

// loadVisible fetches a goal the user can see (owner or participant);
// anything else is a unified not-found.
func (s *GoalService) loadVisible(ctx context.Context, userID, goalID string) (*domain.SavingGoal, domain.Membership, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, domain.Membership{}, err
	}
	if goal == nil {
		return nil, domain.Membership{}, &domain.ErrNotFound{Resource: "goal", ID: goalID}
	}
	membership, err := s.store.GetMembership(ctx, goalID, userID)
	if err != nil {
		return nil, domain.Membership{}, err
	}
	if goal.UserID == userID {
		membership.IsOwner = true
	}
	if !membership.CanContribute() {
		return nil, domain.Membership{}, &domain.ErrNotFound{Resource: "goal", ID: goalID}
	}
	return goal, membership, nil
}

// GetGoal returns one goal visible to the user.
func (s *GoalService) GetGoal(ctx context.Context, userID, goalID string) (*domain.SavingGoalView, error) {
	ctx, span := goalTracer.Start(ctx, "GoalService.GetGoal")
	defer span.End()

	goal, _, err := s.loadVisible(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	v := goal.View()
	return &v, nil
}

// Contribute applies a deposit to the goal. Authorization and validation
// run before the transaction; the four effects inside it are atomic.
func (s *GoalService) Contribute(ctx context.Context, userID, goalID string, req *domain.ContributeRequest) (*domain.SavingGoalView, error) {
	ctx, span := goalTracer.Start(ctx, "GoalService.Contribute")
	defer span.End()
	span.SetAttributes(attribute.String("goal.id", goalID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("goal_contribute", time.Since(start)) }()

	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	// loadVisible already rejects anyone who cannot contribute with a
	// unified not-found, so no further authorization check is needed.
	goal, _, err := s.loadVisible(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	date := domain.Day(s.now())
	if req.Date != "" {
		parsed, err := time.Parse(domain.DateOnly, req.Date)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "date", Message: "invalid format, use YYYY-MM-DD"}
		}
		date = parsed
	}

	movement := &domain.SavingGoalMovement{
		ID:          uuid.New().String(),
		GoalID:      goal.ID,
		UserID:      userID,
		Date:        date,
		Amount:      req.Amount,
		Type:        domain.MovementDeposit,
		Description: req.Description,
		CreatedAt:   s.now(),
	}
	calEntry := &domain.CalendarEvent{
		ID:         uuid.New().String(),
		UserID:     userID,
		Date:       date,
		Title:      "Saving: " + goal.Name,
		Type:       "saving_goal",
		Amount:     req.Amount,
		SourceKind: domain.EventKindSavingGoal,
		SourceID:   goal.ID,
	}

	updated, err := s.store.ApplyContribution(ctx, goal.ID, movement, calEntry)
	if err != nil {
		s.logger.Error("failed to apply contribution",
			zap.String("goal_id", goal.ID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.events.UpsertEvent(ctx, updated.CalendarProjection()); err != nil {
		s.logger.Error("failed to refresh goal projection",
			zap.String("goal_id", goal.ID),
			zap.Error(err),
		)
		return nil, err
	}

	invalidate(s.dash, userID)
	s.logger.Info("goal contribution applied",
		zap.String("user_id", userID),
		zap.String("goal_id", goal.ID),
		zap.Float64("amount", req.Amount),
		zap.String("status", updated.Status),
	)

	v := updated.View()
	return &v, nil
}

// UpdateGoal applies a partial update (owner only) and re-evaluates the
// completion invariant, which may flip the status in either direction.
func (s *GoalService) UpdateGoal(ctx context.Context, userID, goalID string, req *domain.UpdateGoalRequest) (*domain.SavingGoalView, error) {
	ctx, span := goalTracer.Start(ctx, "GoalService.UpdateGoal")
	defer span.End()

	goal, membership, err := s.loadVisible(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if !membership.IsOwner {
		return nil, &domain.ErrForbidden{Action: "update goal"}
	}

	if req.Name != nil {
		goal.Name = *req.Name
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.TargetAmount != nil {
		if *req.TargetAmount <= 0 {
			return nil, &domain.ErrValidation{Field: "target_amount", Message: "must be positive"}
		}
		goal.TargetAmount = *req.TargetAmount
	}
	if req.Deadline != nil {
		if *req.Deadline == "" {
			goal.Deadline = nil
		} else {
			deadline, err := time.Parse(domain.DateOnly, *req.Deadline)
			if err != nil {
				return nil, &domain.ErrValidation{Field: "deadline", Message: "invalid format, use YYYY-MM-DD"}
			}
			goal.Deadline = &deadline
		}
	}
	if req.Category != nil {
		goal.Category = *req.Category
	}

	goal.RefreshStatus()
	goal.UpdatedAt = s.now()

	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		s.logger.Error("failed to update goal", zap.String("goal_id", goalID), zap.Error(err))
		return nil, err
	}

	if err := s.events.UpsertEvent(ctx, goal.CalendarProjection()); err != nil {
		return nil, err
	}

	invalidate(s.dash, userID)
	v := goal.View()
	return &v, nil
}

// AddMember adds a registered user to a group goal by email. Only the
// goal owner may add members; the lookup failing is a user not-found.
func (s *GoalService) AddMember(ctx context.Context, userID, goalID string, req *domain.AddGoalMemberRequest) (*domain.SavingGoalMember, error) {
	ctx, span := goalTracer.Start(ctx, "GoalService.AddMember")
	defer span.End()

	if req.Email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "required"}
	}
	if req.ExpectedContribution != nil && *req.ExpectedContribution < 0 {
		return nil, &domain.ErrValidation{Field: "expected_contribution", Message: "must not be negative"}
	}

	goal, membership, err := s.loadVisible(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if !membership.IsOwner {
		return nil, &domain.ErrForbidden{Action: "add members to goal"}
	}
	if !goal.IsGroup {
		return nil, &domain.ErrValidation{Field: "goal", Message: "not a group goal"}
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: req.Email}
	}

	member := &domain.SavingGoalMember{
		GoalID:               goal.ID,
		UserID:               user.ID,
		Name:                 user.Name,
		Email:                user.Email,
		Role:                 domain.GoalRoleMember,
		ExpectedContribution: req.ExpectedContribution,
	}
	if err := s.store.UpsertMember(ctx, member); err != nil {
		s.logger.Error("failed to add goal member",
			zap.String("goal_id", goal.ID),
			zap.String("member_id", user.ID),
			zap.Error(err),
		)
		return nil, err
	}

	// The goal now shows up on the new member's dashboard too.
	invalidate(s.dash, userID)
	invalidate(s.dash, user.ID)
	s.logger.Info("goal member added",
		zap.String("goal_id", goal.ID),
		zap.String("member_id", user.ID),
	)
	return member, nil
}

// ListMovements returns the goal's contribution ledger, newest first.
func (s *GoalService) ListMovements(ctx context.Context, userID, goalID string) ([]domain.MovementView, error) {
	ctx, span := goalTracer.Start(ctx, "GoalService.ListMovements")
	defer span.End()

	if _, _, err := s.loadVisible(ctx, userID, goalID); err != nil {
		return nil, err
	}

	movements, err := s.store.ListMovements(ctx, goalID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.MovementView, 0, len(movements))
	for i := range movements {
		views = append(views, movements[i].View())
	}
	return views, nil
}
