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

func newTandaService(store *memStore) *service.TandaService {
	return service.NewTandaService(store, store, observability.NewMetrics(), zap.NewNop()).
		WithClock(fixedClock("2025-03-12"))
}

func TestCreateTanda_Defaults(t *testing.T) {
	store := newMemStore()
	svc := newTandaService(store)
	ctx := context.Background()

	tanda, err := svc.CreateTanda(ctx, "u1", &domain.CreateTandaRequest{
		Name:               "Office circle",
		ContributionAmount: 100,
		TotalAmount:        1000,
		RoundsTotal:        10,
		StartDate:          "2025-03-01",
	})
	if err != nil {
		t.Fatalf("create tanda: %v", err)
	}

	if tanda.Frequency != domain.FrequencyMonthly {
		t.Errorf("expected default frequency monthly, got %s", tanda.Frequency)
	}
	if tanda.CurrentRound != 1 {
		t.Errorf("expected round 1, got %d", tanda.CurrentRound)
	}
	if tanda.Status != domain.TandaStatusActive {
		t.Errorf("expected active status for past start date, got %s", tanda.Status)
	}
	if tanda.Role != "organizer" {
		t.Errorf("expected organizer role, got %s", tanda.Role)
	}
	if tanda.ProgressPercent != 10 {
		t.Errorf("expected progress 10, got %v", tanda.ProgressPercent)
	}

	// With no member list the organizer takes the first seat.
	members, err := store.ListTandaMembers(ctx, tanda.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 seeded member, got %d", len(members))
	}
	if members[0].UserID != "u1" || members[0].RoundNumber != 1 {
		t.Errorf("unexpected seeded member: %+v", members[0])
	}
}

func TestCreateTanda_FutureStartIsUpcoming(t *testing.T) {
	svc := newTandaService(newMemStore())

	tanda, err := svc.CreateTanda(context.Background(), "u1", &domain.CreateTandaRequest{
		Name:        "Spring circle",
		RoundsTotal: 5,
		StartDate:   "2025-04-01",
	})
	if err != nil {
		t.Fatalf("create tanda: %v", err)
	}
	if tanda.Status != domain.TandaStatusUpcoming {
		t.Errorf("expected upcoming status, got %s", tanda.Status)
	}
	if tanda.NextPaymentDate != "2025-04-01" {
		t.Errorf("expected next payment on the start date, got %s", tanda.NextPaymentDate)
	}
}

func TestCreateTanda_Validation(t *testing.T) {
	svc := newTandaService(newMemStore())
	ctx := context.Background()

	var verr *domain.ErrValidation
	if _, err := svc.CreateTanda(ctx, "u1", &domain.CreateTandaRequest{RoundsTotal: 3, StartDate: "2025-03-01"}); !errors.As(err, &verr) {
		t.Errorf("expected validation error for missing name, got %v", err)
	}
	if _, err := svc.CreateTanda(ctx, "u1", &domain.CreateTandaRequest{Name: "x", RoundsTotal: 0, StartDate: "2025-03-01"}); !errors.As(err, &verr) {
		t.Errorf("expected validation error for zero rounds, got %v", err)
	}
	if _, err := svc.CreateTanda(ctx, "u1", &domain.CreateTandaRequest{Name: "x", RoundsTotal: 3, StartDate: "03/01/2025"}); !errors.As(err, &verr) {
		t.Errorf("expected validation error for bad date, got %v", err)
	}
	if _, err := svc.CreateTanda(ctx, "u1", &domain.CreateTandaRequest{Name: "x", RoundsTotal: 3, StartDate: "2025-03-01", Frequency: "daily"}); !errors.As(err, &verr) {
		t.Errorf("expected validation error for unknown frequency, got %v", err)
	}
}

func TestGetTanda_MembersAndScope(t *testing.T) {
	store := newMemStore()
	svc := newTandaService(store)
	ctx := context.Background()

	tanda, err := svc.CreateTanda(ctx, "u1", &domain.CreateTandaRequest{
		Name:        "Family circle",
		RoundsTotal: 3,
		StartDate:   "2025-03-01",
		Members: []domain.TandaMemberInput{
			{Name: "Ana", RoundNumber: 1},
			{Name: "Beto", RoundNumber: 2},
			{Name: "Carla", RoundNumber: 3},
		},
	})
	if err != nil {
		t.Fatalf("create tanda: %v", err)
	}

	got, err := svc.GetTanda(ctx, "u1", tanda.ID)
	if err != nil {
		t.Fatalf("get tanda: %v", err)
	}
	if got.MembersCount != 3 || len(got.Members) != 3 {
		t.Fatalf("expected 3 members, got count=%d len=%d", got.MembersCount, len(got.Members))
	}
	if got.Members[0].Name != "Ana" || got.Members[2].Name != "Carla" {
		t.Errorf("members not ordered by round: %+v", got.Members)
	}

	var nf *domain.ErrNotFound
	if _, err := svc.GetTanda(ctx, "stranger", tanda.ID); !errors.As(err, &nf) {
		t.Errorf("expected not-found for outsider, got %v", err)
	}
}

func TestListTandas_StatusFilter(t *testing.T) {
	store := newMemStore()
	svc := newTandaService(store)
	ctx := context.Background()

	if _, err := svc.CreateTanda(ctx, "u1", &domain.CreateTandaRequest{Name: "Running", RoundsTotal: 4, StartDate: "2025-03-01"}); err != nil {
		t.Fatalf("create tanda: %v", err)
	}
	if _, err := svc.CreateTanda(ctx, "u1", &domain.CreateTandaRequest{Name: "Later", RoundsTotal: 4, StartDate: "2025-05-01"}); err != nil {
		t.Fatalf("create tanda: %v", err)
	}

	active, err := svc.ListTandas(ctx, "u1", "")
	if err != nil {
		t.Fatalf("list default: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Running" {
		t.Errorf("expected default filter to return the active circle, got %+v", active)
	}

	all, err := svc.ListTandas(ctx, "u1", "all")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 circles with filter lifted, got %d", len(all))
	}
}
