package domain

import "time"

// ============================================================
// Calendar projections & manual calendar events
// ============================================================

// EventKind tags the entity a financial-event projection points at.
type EventKind string

// Projection target kinds.
const (
	EventKindBill       EventKind = "bill"
	EventKindTanda      EventKind = "tanda"
	EventKindSavingGoal EventKind = "saving_goal"
)

// EventSource is implemented by every entity that projects itself onto
// the unified calendar feed. Each lifecycle engine upserts its own
// projection; nothing else writes them.
type EventSource interface {
	CalendarProjection() FinancialEvent
}

// FinancialEvent is the derived, upserted summary record representing a
// primary entity on the calendar. One row per (Kind, EntityID); never
// duplicated, removed together with its entity.
type FinancialEvent struct {
	ID       string    `json:"id"`
	UserID   string    `json:"-"`
	Kind     EventKind `json:"kind"`
	EntityID string    `json:"entity_id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"-"`
	Amount   float64   `json:"amount"`
	Category string    `json:"category,omitempty"`
	Status   string    `json:"status"`
}

// CalendarEvent is a manual calendar entry created by the user directly
// (reminders, one-off notes with an optional amount). The goal
// contribution flow also writes one per deposit, tagged saving_goal.
type CalendarEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Date        time.Time `json:"-"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	SourceKind  EventKind `json:"source_kind,omitempty"`
	SourceID    string    `json:"source_id,omitempty"`
}

// CalendarEntry is one merged row of the aggregated calendar feed.
// Same-day entries keep source-insertion order; the tie has no semantic
// meaning.
type CalendarEntry struct {
	Source   string         `json:"source"`
	SourceID string         `json:"source_id"`
	Date     string         `json:"date"`
	Title    string         `json:"title"`
	Amount   float64        `json:"amount"`
	Status   string         `json:"status"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// CalendarFeed is the aggregator's full response: the merged event list
// plus the per-day expense totals, which stay out of the merge because
// they are aggregate spend, not discrete occurrences.
type CalendarFeed struct {
	Start         string              `json:"start"`
	End           string              `json:"end"`
	Events        []CalendarEntry     `json:"events"`
	DailyExpenses []DailyExpenseTotal `json:"daily_expenses"`
}
