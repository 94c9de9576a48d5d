package port

import (
	"context"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
)

// CalendarStore handles manual calendar entries. The aggregated feed is
// assembled read-only by the calendar service from the entity stores;
// this store never touches projections.
type CalendarStore interface {
	CreateCalendarEvent(ctx context.Context, ev *domain.CalendarEvent) error
	DeleteCalendarEvent(ctx context.Context, userID, eventID string) error
	ListCalendarEvents(ctx context.Context, userID string, from, to time.Time) ([]domain.CalendarEvent, error)
}

// AuthStore handles user accounts for the identity boundary.
type AuthStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	// GetUserByEmail returns nil when no user has the address.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}
