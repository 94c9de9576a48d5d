package port

import (
	"context"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
)

// BillStore handles bill persistence. All reads are scoped to the owning
// user; a miss on another user's bill surfaces as domain.ErrNotFound.
type BillStore interface {
	CreateBill(ctx context.Context, bill *domain.Bill) error
	GetBill(ctx context.Context, userID, billID string) (*domain.Bill, error)
	// ListBills returns the user's bills ordered by due date ascending.
	// status filters on the stored status; empty means all.
	ListBills(ctx context.Context, userID, status string) ([]domain.Bill, error)
	UpdateBill(ctx context.Context, bill *domain.Bill) error
	DeleteBill(ctx context.Context, userID, billID string) error

	// ListBillsDueBetween returns bills whose due date falls in
	// [from, to], for the calendar aggregator.
	ListBillsDueBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Bill, error)

	CountBillsByStatus(ctx context.Context, userID, status string) (int, error)
	SumPaidBillsBetween(ctx context.Context, userID string, from, to time.Time) (float64, error)
	ListUpcomingBills(ctx context.Context, userID string, from time.Time, limit int) ([]domain.Bill, error)
}

// EventStore maintains the financial-event projections. One row per
// (kind, entity id); UpsertEvent never duplicates, and projections with a
// zero date are skipped.
type EventStore interface {
	UpsertEvent(ctx context.Context, ev domain.FinancialEvent) error
	DeleteEvent(ctx context.Context, kind domain.EventKind, entityID string) error
	ListUpcomingEvents(ctx context.Context, userID string, from, to time.Time, limit int) ([]domain.FinancialEvent, error)
}
