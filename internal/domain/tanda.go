package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Tandas (rotating-savings circles)
// ============================================================

// Tanda statuses. These are read-only facts for the progress tracker;
// round advancement is externally driven.
const (
	TandaStatusActive    = "active"
	TandaStatusUpcoming  = "upcoming"
	TandaStatusFinished  = "finished"
	TandaStatusCancelled = "cancelled"
)

// Tanda payment frequencies.
const (
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// Tanda is a rotating-savings circle: members contribute each round and
// one member collects the pooled amount. CurrentRound is 1-indexed and
// never exceeds RoundsTotal.
type Tanda struct {
	ID                 string     `json:"id"`
	OrganizerID        string     `json:"-"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	TotalAmount        float64    `json:"total_amount"`
	ContributionAmount float64    `json:"contribution_amount"`
	RoundsTotal        int        `json:"rounds_total"`
	CurrentRound       int        `json:"current_round"`
	StartDate          time.Time  `json:"-"`
	NextPaymentDate    *time.Time `json:"-"`
	Frequency          string     `json:"frequency"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"-"`
	UpdatedAt          time.Time  `json:"-"`
}

// ProgressPercent returns min(100, current_round/rounds_total*100)
// rounded half-up to two decimal places, or 0 when rounds_total is not
// positive. Pure derived view over whatever round value is stored.
func (t *Tanda) ProgressPercent() float64 {
	if t.RoundsTotal <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(t.CurrentRound)).
		Div(decimal.NewFromInt(int64(t.RoundsTotal))).
		Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	return pct.Round(2).InexactFloat64()
}

// StatusOnStart returns the status a newly created tanda takes given its
// start date: upcoming when it starts after today, otherwise active.
func StatusOnStart(startDate, today time.Time) string {
	if Day(startDate).After(Day(today)) {
		return TandaStatusUpcoming
	}
	return TandaStatusActive
}

// CalendarProjection produces the tanda's financial-event projection,
// dated at its next payment date.
func (t *Tanda) CalendarProjection() FinancialEvent {
	ev := FinancialEvent{
		UserID:   t.OrganizerID,
		Kind:     EventKindTanda,
		EntityID: t.ID,
		Title:    t.Name,
		Amount:   t.ContributionAmount,
		Category: "tanda",
		Status:   t.Status,
	}
	if t.NextPaymentDate != nil {
		ev.Date = Day(*t.NextPaymentDate)
	}
	return ev
}

// TandaView is the presentation record for a tanda card.
type TandaView struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description,omitempty"`
	Role               string  `json:"role"`
	TotalAmount        float64 `json:"total_amount"`
	ContributionAmount float64 `json:"contribution_amount"`
	RoundsTotal        int     `json:"rounds_total"`
	CurrentRound       int     `json:"current_round"`
	ProgressPercent    float64 `json:"progress_percent"`
	StartDate          string  `json:"start_date"`
	NextPaymentDate    string  `json:"next_payment_date,omitempty"`
	Frequency          string  `json:"frequency"`
	Status             string  `json:"status"`
	MembersCount       int     `json:"members_count"`

	Members []TandaMemberView `json:"members,omitempty"`
}

// View builds the presentation record for the tanda, labelling the
// requesting user's role.
func (t *Tanda) View(currentUserID string, membersCount int) TandaView {
	role := "participant"
	if t.OrganizerID == currentUserID {
		role = "organizer"
	}
	v := TandaView{
		ID:                 t.ID,
		Name:               t.Name,
		Description:        t.Description,
		Role:               role,
		TotalAmount:        t.TotalAmount,
		ContributionAmount: t.ContributionAmount,
		RoundsTotal:        t.RoundsTotal,
		CurrentRound:       t.CurrentRound,
		ProgressPercent:    t.ProgressPercent(),
		StartDate:          t.StartDate.Format(DateOnly),
		Frequency:          t.Frequency,
		Status:             t.Status,
		MembersCount:       membersCount,
	}
	if t.NextPaymentDate != nil {
		v.NextPaymentDate = t.NextPaymentDate.Format(DateOnly)
	}
	return v
}

// TandaMember is one seat in a circle. Members may be off-app contacts
// (name/email/phone only) or linked app users; RoundNumber is the turn in
// which the member collects, HasCollected flips once they have.
type TandaMember struct {
	ID           string `json:"id"`
	TandaID      string `json:"-"`
	UserID       string `json:"user_id,omitempty"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	RoundNumber  int    `json:"round_number,omitempty"`
	HasCollected bool   `json:"has_collected"`
}

// TandaMemberView is the presentation record for a tanda member row.
type TandaMemberView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	RoundNumber  int    `json:"round_number,omitempty"`
	HasCollected bool   `json:"has_collected"`
}

// View builds the presentation record for the member.
func (m *TandaMember) View() TandaMemberView {
	return TandaMemberView{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		RoundNumber:  m.RoundNumber,
		HasCollected: m.HasCollected,
	}
}
