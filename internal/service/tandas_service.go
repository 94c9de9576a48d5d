package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
	"github.com/lanaapp/lana-api/internal/infra/observability"
	"github.com/lanaapp/lana-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tandaTracer = otel.Tracer("service/tandas")

// TandaService owns rotating-savings circles. Progress is a pure derived
// view over the stored round counters; round advancement and collection
// flags are driven externally.
type TandaService struct {
	store   port.TandaStore
	events  port.EventStore
	dash    Invalidator
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewTandaService creates a new tanda service.
func NewTandaService(store port.TandaStore, events port.EventStore, metrics *observability.Metrics, logger *zap.Logger) *TandaService {
	return &TandaService{store: store, events: events, metrics: metrics, logger: logger, now: time.Now}
}

// WithClock overrides the time source. Used by tests to pin "today".
func (s *TandaService) WithClock(now func() time.Time) *TandaService {
	s.now = now
	return s
}

// WithInvalidator hooks up cache invalidation for derived views.
func (s *TandaService) WithInvalidator(inv Invalidator) *TandaService {
	s.dash = inv
	return s
}

// CreateTanda persists a new circle starting at round 1. Status follows
// the start date: upcoming when it starts after today, otherwise active.
// When no members are given, the organizer takes the first seat.
func (s *TandaService) CreateTanda(ctx context.Context, userID string, req *domain.CreateTandaRequest) (*domain.TandaView, error) {
	ctx, span := tandaTracer.Start(ctx, "TandaService.CreateTanda")
	defer span.End()

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if req.ContributionAmount < 0 || req.TotalAmount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	if req.RoundsTotal < 1 {
		return nil, &domain.ErrValidation{Field: "rounds_total", Message: "must be at least 1"}
	}
	startDate, err := time.Parse(domain.DateOnly, req.StartDate)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "start_date", Message: "invalid format, use YYYY-MM-DD"}
	}

	frequency := req.Frequency
	if frequency == "" {
		frequency = domain.FrequencyMonthly
	}
	switch frequency {
	case domain.FrequencyWeekly, domain.FrequencyBiweekly, domain.FrequencyMonthly:
	default:
		return nil, &domain.ErrValidation{Field: "frequency", Message: fmt.Sprintf("unknown frequency '%s'", frequency)}
	}

	nextPayment := domain.Day(startDate)
	tanda := &domain.Tanda{
		ID:                 uuid.New().String(),
		OrganizerID:        userID,
		Name:               req.Name,
		Description:        req.Description,
		TotalAmount:        req.TotalAmount,
		ContributionAmount: req.ContributionAmount,
		RoundsTotal:        req.RoundsTotal,
		CurrentRound:       1,
		StartDate:          domain.Day(startDate),
		NextPaymentDate:    &nextPayment,
		Frequency:          frequency,
		Status:             domain.StatusOnStart(startDate, s.now()),
		CreatedAt:          s.now(),
		UpdatedAt:          s.now(),
	}

	var members []domain.TandaMember
	if len(req.Members) > 0 {
		for _, m := range req.Members {
			if m.Name == "" {
				return nil, &domain.ErrValidation{Field: "members", Message: "member name required"}
			}
			members = append(members, domain.TandaMember{
				ID:          uuid.New().String(),
				TandaID:     tanda.ID,
				Name:        m.Name,
				Email:       m.Email,
				Phone:       m.Phone,
				RoundNumber: m.RoundNumber,
			})
		}
	} else {
		// The organizer holds the first seat until real members arrive.
		members = append(members, domain.TandaMember{
			ID:          uuid.New().String(),
			TandaID:     tanda.ID,
			UserID:      userID,
			Name:        "Organizer",
			RoundNumber: 1,
		})
	}

	if err := s.store.CreateTanda(ctx, tanda, members); err != nil {
		s.logger.Error("failed to create tanda", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	if err := s.events.UpsertEvent(ctx, tanda.CalendarProjection()); err != nil {
		s.logger.Error("failed to project tanda onto calendar",
			zap.String("tanda_id", tanda.ID),
			zap.Error(err),
		)
		return nil, err
	}

	invalidate(s.dash, userID)
	s.logger.Info("tanda created",
		zap.String("user_id", userID),
		zap.String("tanda_id", tanda.ID),
		zap.Int("rounds_total", tanda.RoundsTotal),
		zap.String("status", tanda.Status),
	)

	v := tanda.View(userID, len(members))
	return &v, nil
}

// GetTanda returns one circle, with members, scoped to users who
// organize or participate.
func (s *TandaService) GetTanda(ctx context.Context, userID, tandaID string) (*domain.TandaView, error) {
	ctx, span := tandaTracer.Start(ctx, "TandaService.GetTanda")
	defer span.End()

	tanda, err := s.store.GetTanda(ctx, userID, tandaID)
	if err != nil {
		return nil, err
	}
	if tanda == nil {
		return nil, &domain.ErrNotFound{Resource: "tanda", ID: tandaID}
	}

	members, err := s.store.ListTandaMembers(ctx, tanda.ID)
	if err != nil {
		return nil, err
	}

	v := tanda.View(userID, len(members))
	v.Members = make([]domain.TandaMemberView, 0, len(members))
	for i := range members {
		v.Members = append(v.Members, members[i].View())
	}
	return &v, nil
}

// ListTandas returns circles the user organizes or participates in.
// Default filter is active; "all" lifts the filter.
func (s *TandaService) ListTandas(ctx context.Context, userID, status string) ([]domain.TandaView, error) {
	ctx, span := tandaTracer.Start(ctx, "TandaService.ListTandas")
	defer span.End()

	switch status {
	case "":
		status = domain.TandaStatusActive
	case "all":
		status = ""
	}

	tandas, err := s.store.ListTandas(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	views := make([]domain.TandaView, 0, len(tandas))
	for i := range tandas {
		count, err := s.store.CountTandaMembers(ctx, tandas[i].ID)
		if err != nil {
			return nil, err
		}
		views = append(views, tandas[i].View(userID, count))
	}
	return views, nil
}
