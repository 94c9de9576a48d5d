package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lanaapp/lana-api/internal/domain"
)

// UpsertEvent writes the projection row for (kind, entity_id), replacing
// any previous one. Projections with a zero date are skipped; the entity
// has nothing to show on the calendar yet.
func (s *Store) UpsertEvent(ctx context.Context, ev domain.FinancialEvent) error {
	if ev.Date.IsZero() {
		return s.DeleteEvent(ctx, ev.Kind, ev.EntityID)
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO financial_events (id, user_id, kind, entity_id, title, date, amount, category, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (kind, entity_id) DO UPDATE SET
		    title = excluded.title,
		    date = excluded.date,
		    amount = excluded.amount,
		    category = excluded.category,
		    status = excluded.status`,
		ev.ID, ev.UserID, string(ev.Kind), ev.EntityID, ev.Title,
		fmtDate(ev.Date), ev.Amount, ev.Category, ev.Status,
	)
	if err != nil {
		return fmt.Errorf("upsert financial event: %w", err)
	}
	return nil
}

// DeleteEvent removes the projection for (kind, entity_id). Deleting a
// missing projection is a no-op.
func (s *Store) DeleteEvent(ctx context.Context, kind domain.EventKind, entityID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM financial_events WHERE kind = ? AND entity_id = ?`,
		string(kind), entityID,
	)
	if err != nil {
		return fmt.Errorf("delete financial event: %w", err)
	}
	return nil
}

// ListUpcomingEvents returns projections dated in [from, to], soonest first.
func (s *Store) ListUpcomingEvents(ctx context.Context, userID string, from, to time.Time, limit int) ([]domain.FinancialEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, kind, entity_id, title, date, amount, category, status
		 FROM financial_events
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC LIMIT ?`,
		userID, fmtDate(from), fmtDate(to), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query financial events: %w", err)
	}
	defer rows.Close()

	var events []domain.FinancialEvent
	for rows.Next() {
		var ev domain.FinancialEvent
		var kind, date string
		if err := rows.Scan(&ev.ID, &ev.UserID, &kind, &ev.EntityID, &ev.Title, &date, &ev.Amount, &ev.Category, &ev.Status); err != nil {
			return nil, fmt.Errorf("scan financial event: %w", err)
		}
		ev.Kind = domain.EventKind(kind)
		ev.Date = parseDate(date)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate financial events: %w", err)
	}
	return events, nil
}
