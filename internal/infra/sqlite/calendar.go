package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
)

// CreateCalendarEvent inserts a manual or contribution-generated entry.
func (s *Store) CreateCalendarEvent(ctx context.Context, e *domain.CalendarEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_events (id, user_id, date, title, type, amount, category, description, source_kind, source_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, fmtDate(e.Date), e.Title, e.Type, e.Amount,
		e.Category, e.Description, string(e.SourceKind), e.SourceID,
	)
	if err != nil {
		return fmt.Errorf("insert calendar event: %w", err)
	}
	return nil
}

// DeleteCalendarEvent removes an entry scoped to its owner.
func (s *Store) DeleteCalendarEvent(ctx context.Context, userID, eventID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM calendar_events WHERE id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "calendar event", ID: eventID}
	}
	return nil
}

// ListCalendarEvents returns entries dated in [from, to], oldest first.
func (s *Store) ListCalendarEvents(ctx context.Context, userID string, from, to time.Time) ([]domain.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, date, title, type, amount, category, description, source_kind, source_id
		 FROM calendar_events
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC`,
		userID, fmtDate(from), fmtDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("query calendar events: %w", err)
	}
	defer rows.Close()

	var events []domain.CalendarEvent
	for rows.Next() {
		var e domain.CalendarEvent
		var date, sourceKind string
		if err := rows.Scan(&e.ID, &e.UserID, &date, &e.Title, &e.Type, &e.Amount, &e.Category, &e.Description, &sourceKind, &e.SourceID); err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		e.Date = parseDate(date)
		e.SourceKind = domain.EventKind(sourceKind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendar events: %w", err)
	}
	return events, nil
}
