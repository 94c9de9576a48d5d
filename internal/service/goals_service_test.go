package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lanaapp/lana-api/internal/domain"
	"github.com/lanaapp/lana-api/internal/infra/observability"
	"github.com/lanaapp/lana-api/internal/service"

	"go.uber.org/zap"
)

func newGoalService(store *memStore) *service.GoalService {
	return service.NewGoalService(store, store, store, observability.NewMetrics(), zap.NewNop()).
		WithClock(fixedClock("2025-03-12"))
}

func seedUser(t *testing.T, store *memStore, id, email string) {
	t.Helper()
	err := store.CreateUser(context.Background(), &domain.User{ID: id, Name: id, Email: email})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestCreateGoal_OwnerEnrolled(t *testing.T) {
	store := newMemStore()
	svc := newGoalService(store)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, "u1", &domain.CreateGoalRequest{
		Name:         "Vacation",
		TargetAmount: 2000,
		Deadline:     "2025-08-01",
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if goal.Status != domain.GoalStatusActive {
		t.Errorf("expected active status, got %s", goal.Status)
	}

	membership, err := store.GetMembership(ctx, goal.ID, "u1")
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if !membership.IsOwner {
		t.Error("expected creator to be enrolled as owner")
	}
}

func TestContribute_AppliesFourEffects(t *testing.T) {
	store := newMemStore()
	svc := newGoalService(store)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, "u1", &domain.CreateGoalRequest{Name: "Car", TargetAmount: 1000})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	updated, err := svc.Contribute(ctx, "u1", goal.ID, &domain.ContributeRequest{Amount: 250})
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if updated.CurrentAmount != 250 {
		t.Errorf("expected balance 250, got %v", updated.CurrentAmount)
	}
	if updated.ProgressPercent != 25 {
		t.Errorf("expected progress 25, got %v", updated.ProgressPercent)
	}

	movements, err := svc.ListMovements(ctx, "u1", goal.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	if movements[0].Amount != 250 || movements[0].Type != domain.MovementDeposit {
		t.Errorf("unexpected movement: %+v", movements[0])
	}

	// The deposit also lands on the calendar as a manual-style entry.
	entries, err := store.ListCalendarEvents(ctx, "u1", fixedClock("2025-03-01")(), fixedClock("2025-03-31")())
	if err != nil {
		t.Fatalf("list calendar events: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 calendar entry, got %d", len(entries))
	}
	if entries[0].SourceID != goal.ID {
		t.Errorf("calendar entry not linked to goal: %+v", entries[0])
	}
}

func TestContribute_CompletesGoal(t *testing.T) {
	store := newMemStore()
	svc := newGoalService(store)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, "u1", &domain.CreateGoalRequest{Name: "Laptop", TargetAmount: 500})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	updated, err := svc.Contribute(ctx, "u1", goal.ID, &domain.ContributeRequest{Amount: 600})
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if updated.Status != domain.GoalStatusCompleted {
		t.Errorf("expected completed status, got %s", updated.Status)
	}
	if updated.ProgressPercent != 100 {
		t.Errorf("expected progress capped at 100, got %v", updated.ProgressPercent)
	}
}

func TestUpdateGoal_RaisingTargetReopens(t *testing.T) {
	store := newMemStore()
	svc := newGoalService(store)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, "u1", &domain.CreateGoalRequest{Name: "Fund", TargetAmount: 500})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if _, err := svc.Contribute(ctx, "u1", goal.ID, &domain.ContributeRequest{Amount: 500}); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	target := 800.0
	updated, err := svc.UpdateGoal(ctx, "u1", goal.ID, &domain.UpdateGoalRequest{TargetAmount: &target})
	if err != nil {
		t.Fatalf("update goal: %v", err)
	}
	if updated.Status != domain.GoalStatusActive {
		t.Errorf("expected goal reopened as active, got %s", updated.Status)
	}
}

func TestContribute_Validation(t *testing.T) {
	store := newMemStore()
	svc := newGoalService(store)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, "u1", &domain.CreateGoalRequest{Name: "Fund", TargetAmount: 100})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	var verr *domain.ErrValidation
	if _, err := svc.Contribute(ctx, "u1", goal.ID, &domain.ContributeRequest{Amount: 0}); !errors.As(err, &verr) {
		t.Errorf("expected validation error for zero amount, got %v", err)
	}
	if _, err := svc.Contribute(ctx, "u1", goal.ID, &domain.ContributeRequest{Amount: 10, Date: "bad"}); !errors.As(err, &verr) {
		t.Errorf("expected validation error for bad date, got %v", err)
	}
}

func TestGetGoal_NonMemberSeesNotFound(t *testing.T) {
	store := newMemStore()
	svc := newGoalService(store)
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, "u1", &domain.CreateGoalRequest{Name: "Secret", TargetAmount: 100})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	var nf *domain.ErrNotFound
	if _, err := svc.GetGoal(ctx, "u2", goal.ID); !errors.As(err, &nf) {
		t.Errorf("expected not-found for non-member, got %v", err)
	}
	if _, err := svc.Contribute(ctx, "u2", goal.ID, &domain.ContributeRequest{Amount: 10}); !errors.As(err, &nf) {
		t.Errorf("expected not-found for non-member contribution, got %v", err)
	}
}

func TestAddMember_GroupGoalByEmail(t *testing.T) {
	store := newMemStore()
	svc := newGoalService(store)
	ctx := context.Background()

	seedUser(t, store, "u2", "friend@example.com")

	goal, err := svc.CreateGoal(ctx, "u1", &domain.CreateGoalRequest{Name: "Trip", TargetAmount: 3000, IsGroup: true})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	member, err := svc.AddMember(ctx, "u1", goal.ID, &domain.AddGoalMemberRequest{Email: "friend@example.com"})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if member.UserID != "u2" || member.Role != domain.GoalRoleMember {
		t.Errorf("unexpected member: %+v", member)
	}

	// The new member can now contribute.
	if _, err := svc.Contribute(ctx, "u2", goal.ID, &domain.ContributeRequest{Amount: 100}); err != nil {
		t.Errorf("member contribution failed: %v", err)
	}
}

func TestAddMember_Restrictions(t *testing.T) {
	store := newMemStore()
	svc := newGoalService(store)
	ctx := context.Background()

	seedUser(t, store, "u2", "friend@example.com")
	seedUser(t, store, "u3", "third@example.com")

	group, err := svc.CreateGoal(ctx, "u1", &domain.CreateGoalRequest{Name: "Group", TargetAmount: 100, IsGroup: true})
	if err != nil {
		t.Fatalf("create group goal: %v", err)
	}
	solo, err := svc.CreateGoal(ctx, "u1", &domain.CreateGoalRequest{Name: "Solo", TargetAmount: 100})
	if err != nil {
		t.Fatalf("create solo goal: %v", err)
	}

	if _, err := svc.AddMember(ctx, "u1", group.ID, &domain.AddGoalMemberRequest{Email: "friend@example.com"}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	// Non-owner members cannot add further members.
	var forbidden *domain.ErrForbidden
	_, err = svc.AddMember(ctx, "u2", group.ID, &domain.AddGoalMemberRequest{Email: "third@example.com"})
	if !errors.As(err, &forbidden) {
		t.Errorf("expected forbidden for non-owner, got %v", err)
	}

	// Solo goals take no members.
	var verr *domain.ErrValidation
	if _, err := svc.AddMember(ctx, "u1", solo.ID, &domain.AddGoalMemberRequest{Email: "friend@example.com"}); !errors.As(err, &verr) {
		t.Errorf("expected validation error for non-group goal, got %v", err)
	}

	// Unknown addresses surface as user not-found.
	var nf *domain.ErrNotFound
	if _, err := svc.AddMember(ctx, "u1", group.ID, &domain.AddGoalMemberRequest{Email: "ghost@example.com"}); !errors.As(err, &nf) {
		t.Errorf("expected not-found for unknown email, got %v", err)
	}
}
