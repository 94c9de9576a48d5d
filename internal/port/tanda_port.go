package port

import (
	"context"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
)

// TandaStore handles rotating-savings circles and their members.
// All reads are scoped to users who organize or participate.
type TandaStore interface {
	// CreateTanda persists the tanda and its initial members together.
	CreateTanda(ctx context.Context, t *domain.Tanda, members []domain.TandaMember) error
	GetTanda(ctx context.Context, userID, tandaID string) (*domain.Tanda, error)
	// ListTandas returns tandas the user organizes or participates in.
	// status filters on the stored status; empty means all.
	ListTandas(ctx context.Context, userID, status string) ([]domain.Tanda, error)
	ListTandaMembers(ctx context.Context, tandaID string) ([]domain.TandaMember, error)
	CountTandaMembers(ctx context.Context, tandaID string) (int, error)

	// ListTandasPayingBetween returns owned-or-participated tandas whose
	// next payment date falls in [from, to], for the calendar aggregator.
	ListTandasPayingBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Tanda, error)
	// NextTandaPayment returns the active tanda with the earliest
	// payment date on or after from, or nil when there is none.
	NextTandaPayment(ctx context.Context, userID string, from time.Time) (*domain.Tanda, error)
	CountTandasByStatus(ctx context.Context, userID, status string) (int, error)
}
