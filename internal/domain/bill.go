package domain

import (
	"fmt"
	"time"
)

// ============================================================
// Bills (payable obligations with a due date)
// ============================================================

// Bill statuses.
const (
	BillStatusPending   = "pending"
	BillStatusPaid      = "paid"
	BillStatusCancelled = "cancelled"
)

// Bill represents a recurring or one-off payable obligation.
// Invariant: Status == paid exactly when PaidAt is set; both directions
// are user-settable and ReconcilePayment restores the invariant after
// every mutation path.
type Bill struct {
	ID          string     `json:"id"`
	UserID      string     `json:"-"`
	Name        string     `json:"name"`
	Provider    string     `json:"provider,omitempty"`
	Description string     `json:"description,omitempty"`
	Amount      float64    `json:"amount"`
	DueDate     time.Time  `json:"-"`
	PaidAt      *time.Time `json:"-"`
	Status      string     `json:"status"`
	Category    string     `json:"category,omitempty"`
	AutoDebit   bool       `json:"auto_debit"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// IsPaid reports whether the bill has been paid.
func (b *Bill) IsPaid() bool {
	return b.Status == BillStatusPaid || b.PaidAt != nil
}

// IsOverdue reports whether the bill is unpaid and past due as of today.
func (b *Bill) IsOverdue(today time.Time) bool {
	if b.IsPaid() || b.DueDate.IsZero() {
		return false
	}
	return Day(b.DueDate).Before(Day(today))
}

// DaysUntilDue returns the signed day count from today to the due date.
// Negative once the bill is past due.
func (b *Bill) DaysUntilDue(today time.Time) int {
	return DaysBetween(today, b.DueDate)
}

// StatusText renders the human-readable payment state shown on cards and
// the calendar: "Paid", "Overdue", "Due today", "Due in 1 day", "Due in N days".
func (b *Bill) StatusText(today time.Time) string {
	if b.IsPaid() {
		return "Paid"
	}
	if b.IsOverdue(today) {
		return "Overdue"
	}
	days := b.DaysUntilDue(today)
	switch {
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due in 1 day"
	case days > 1:
		return fmt.Sprintf("Due in %d days", days)
	default:
		return "Overdue"
	}
}

// ReconcilePayment restores the paid/paid_at invariant after an update:
// marking status=paid without a timestamp stamps now; supplying paid_at
// without setting the status forces status=paid.
func (b *Bill) ReconcilePayment(now time.Time) {
	if b.Status == BillStatusPaid && b.PaidAt == nil {
		t := now
		b.PaidAt = &t
	}
	if b.PaidAt != nil && b.Status != BillStatusPaid {
		b.Status = BillStatusPaid
	}
}

// CalendarProjection produces the bill's financial-event projection.
// Upserted on every create/update so the calendar always reflects the
// latest due date and payment state.
func (b *Bill) CalendarProjection() FinancialEvent {
	category := b.Category
	if category == "" {
		category = "bill"
	}
	return FinancialEvent{
		UserID:   b.UserID,
		Kind:     EventKindBill,
		EntityID: b.ID,
		Title:    b.Name,
		Date:     Day(b.DueDate),
		Amount:   b.Amount,
		Category: category,
		Status:   b.Status,
	}
}

// BillView is the presentation record for a bill, including the derived
// fields the apps render.
type BillView struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Provider     string  `json:"provider,omitempty"`
	Description  string  `json:"description,omitempty"`
	Amount       float64 `json:"amount"`
	DueDate      string  `json:"due_date"`
	Status       string  `json:"status"`
	Category     string  `json:"category,omitempty"`
	AutoDebit    bool    `json:"auto_debit"`
	IsPaid       bool    `json:"is_paid"`
	IsOverdue    bool    `json:"is_overdue"`
	DaysUntilDue int     `json:"days_until_due"`
	StatusText   string  `json:"status_text"`
	PaidAt       string  `json:"paid_at,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

// View builds the presentation record for the bill as of today.
func (b *Bill) View(today time.Time) BillView {
	v := BillView{
		ID:           b.ID,
		Name:         b.Name,
		Provider:     b.Provider,
		Description:  b.Description,
		Amount:       b.Amount,
		DueDate:      b.DueDate.Format(DateOnly),
		Status:       b.Status,
		Category:     b.Category,
		AutoDebit:    b.AutoDebit,
		IsPaid:       b.IsPaid(),
		IsOverdue:    b.IsOverdue(today),
		DaysUntilDue: b.DaysUntilDue(today),
		StatusText:   b.StatusText(today),
	}
	if b.PaidAt != nil {
		v.PaidAt = b.PaidAt.Format(time.RFC3339)
	}
	if !b.CreatedAt.IsZero() {
		v.CreatedAt = b.CreatedAt.Format(time.RFC3339)
	}
	return v
}
