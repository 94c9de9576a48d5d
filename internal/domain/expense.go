package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Expenses & the weekly ledger
// ============================================================

// Well-known expense type tags. The field is free-form; these are the
// tags written by the lifecycle engines themselves.
const (
	ExpenseTypeBill     = "bill"
	ExpenseTypeTanda    = "tanda"
	ExpenseTypeSaving   = "saving"
	ExpenseTypePurchase = "purchase"
)

// Expense is a single spend on a given date, optionally linked to the
// weekly ledger of its week and to the entity that generated it.
// An expense with Type="bill" is unique per SourceID (idempotency guard
// against duplicate auto-generated expenses).
type Expense struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	WeeklyIncomeID string    `json:"-"`
	Date           time.Time `json:"-"`
	Amount         float64   `json:"amount"`
	Type           string    `json:"type"`
	SourceID       string    `json:"source_id,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"-"`
}

// ExpenseView is the presentation record for an expense.
type ExpenseView struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	SourceID    string  `json:"source_id,omitempty"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// View builds the presentation record for the expense.
func (e *Expense) View() ExpenseView {
	v := ExpenseView{
		ID:          e.ID,
		Date:        e.Date.Format(DateOnly),
		Amount:      e.Amount,
		Type:        e.Type,
		SourceID:    e.SourceID,
		Description: e.Description,
	}
	if !e.CreatedAt.IsZero() {
		v.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return v
}

// WeeklyIncome is the per-user, per-calendar-week ledger of declared
// income versus summed expenses. One row per (user, week_start, week_end);
// Spent and Leftover are always recomputed from the live expense set,
// never incremented in place.
type WeeklyIncome struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	WeekStart time.Time `json:"-"`
	WeekEnd   time.Time `json:"-"`
	Amount    float64   `json:"amount"`
	Spent     float64   `json:"spent"`
	Saved     float64   `json:"saved"`
	Leftover  float64   `json:"leftover"`
}

// Recompute sets Spent to the re-summed total and Leftover to the
// declared amount minus spend, floored at zero. Decimal arithmetic keeps
// the ledger free of float drift across repeated reconciliations.
func (w *WeeklyIncome) Recompute(totalSpent float64) {
	spent := decimal.NewFromFloat(totalSpent)
	leftover := decimal.NewFromFloat(w.Amount).Sub(spent)
	if leftover.IsNegative() {
		leftover = decimal.Zero
	}
	w.Spent = spent.InexactFloat64()
	w.Leftover = leftover.InexactFloat64()
}

// WeeklyIncomeView is the presentation record for a weekly ledger row.
type WeeklyIncomeView struct {
	ID        string  `json:"id"`
	WeekStart string  `json:"week_start"`
	WeekEnd   string  `json:"week_end"`
	Amount    float64 `json:"amount"`
	Spent     float64 `json:"spent"`
	Saved     float64 `json:"saved"`
	Leftover  float64 `json:"leftover"`
}

// View builds the presentation record for the weekly ledger row.
func (w *WeeklyIncome) View() WeeklyIncomeView {
	return WeeklyIncomeView{
		ID:        w.ID,
		WeekStart: w.WeekStart.Format(DateOnly),
		WeekEnd:   w.WeekEnd.Format(DateOnly),
		Amount:    w.Amount,
		Spent:     w.Spent,
		Saved:     w.Saved,
		Leftover:  w.Leftover,
	}
}

// DailyExpenseTotal is the aggregate spend of one calendar day. The
// calendar reports these as a side channel next to the event feed.
type DailyExpenseTotal struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}
