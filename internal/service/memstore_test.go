package service_test

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
	"github.com/lanaapp/lana-api/internal/port"
)

// memStore is an in-memory implementation of every store port, shared by
// the service tests. All methods are safe for concurrent use; the
// calendar aggregator and the dashboard fan out over it with errgroup.
type memStore struct {
	mu sync.Mutex

	users     map[string]*domain.User
	bills     map[string]*domain.Bill
	weeks     map[string]*domain.WeeklyIncome
	expenses  map[string]*domain.Expense
	goals     map[string]*domain.SavingGoal
	members   map[string]map[string]*domain.SavingGoalMember
	movements map[string][]domain.SavingGoalMovement
	tandas    map[string]*domain.Tanda
	seats     map[string][]domain.TandaMember
	events    map[string]domain.FinancialEvent
	calendar  map[string]*domain.CalendarEvent

	seq int
}

var (
	_ port.BillStore     = (*memStore)(nil)
	_ port.EventStore    = (*memStore)(nil)
	_ port.LedgerStore   = (*memStore)(nil)
	_ port.GoalStore     = (*memStore)(nil)
	_ port.TandaStore    = (*memStore)(nil)
	_ port.CalendarStore = (*memStore)(nil)
	_ port.AuthStore     = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]*domain.User),
		bills:     make(map[string]*domain.Bill),
		weeks:     make(map[string]*domain.WeeklyIncome),
		expenses:  make(map[string]*domain.Expense),
		goals:     make(map[string]*domain.SavingGoal),
		members:   make(map[string]map[string]*domain.SavingGoalMember),
		movements: make(map[string][]domain.SavingGoalMovement),
		tandas:    make(map[string]*domain.Tanda),
		seats:     make(map[string][]domain.TandaMember),
		events:    make(map[string]domain.FinancialEvent),
		calendar:  make(map[string]*domain.CalendarEvent),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return prefix + "-" + strconv.Itoa(m.seq)
}

func inRange(d, from, to time.Time) bool {
	day := domain.Day(d)
	return !day.Before(domain.Day(from)) && !day.After(domain.Day(to))
}

// --- Users ---

func (m *memStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// --- Bills ---

func (m *memStore) CreateBill(_ context.Context, b *domain.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.bills[b.ID] = &cp
	return nil
}

func (m *memStore) GetBill(_ context.Context, userID, billID string) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bills[billID]; ok && b.UserID == userID {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) ListBills(_ context.Context, userID, status string) ([]domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Bill
	for _, b := range m.bills {
		if b.UserID != userID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (m *memStore) UpdateBill(_ context.Context, b *domain.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bills[b.ID]; !ok {
		return &domain.ErrNotFound{Resource: "bill", ID: b.ID}
	}
	cp := *b
	m.bills[b.ID] = &cp
	return nil
}

func (m *memStore) DeleteBill(_ context.Context, userID, billID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bills[billID]; ok && b.UserID == userID {
		delete(m.bills, billID)
		return nil
	}
	return &domain.ErrNotFound{Resource: "bill", ID: billID}
}

func (m *memStore) ListBillsDueBetween(_ context.Context, userID string, from, to time.Time) ([]domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Bill
	for _, b := range m.bills {
		if b.UserID == userID && inRange(b.DueDate, from, to) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (m *memStore) CountBillsByStatus(_ context.Context, userID, status string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bills {
		if b.UserID == userID && b.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memStore) SumPaidBillsBetween(_ context.Context, userID string, from, to time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0.0
	for _, b := range m.bills {
		if b.UserID == userID && b.PaidAt != nil && inRange(*b.PaidAt, from, to) {
			total += b.Amount
		}
	}
	return total, nil
}

func (m *memStore) ListUpcomingBills(_ context.Context, userID string, from time.Time, limit int) ([]domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Bill
	for _, b := range m.bills {
		if b.UserID == userID && b.Status == domain.BillStatusPending && !domain.Day(b.DueDate).Before(domain.Day(from)) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Financial-event projections ---

func eventKey(kind domain.EventKind, entityID string) string {
	return string(kind) + "/" + entityID
}

func (m *memStore) UpsertEvent(_ context.Context, ev domain.FinancialEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := eventKey(ev.Kind, ev.EntityID)
	if ev.Date.IsZero() {
		delete(m.events, key)
		return nil
	}
	if ev.ID == "" {
		if prev, ok := m.events[key]; ok {
			ev.ID = prev.ID
		} else {
			ev.ID = m.nextID("ev")
		}
	}
	m.events[key] = ev
	return nil
}

func (m *memStore) DeleteEvent(_ context.Context, kind domain.EventKind, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, eventKey(kind, entityID))
	return nil
}

func (m *memStore) ListUpcomingEvents(_ context.Context, userID string, from, to time.Time, limit int) ([]domain.FinancialEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.FinancialEvent
	for _, ev := range m.events {
		if ev.UserID == userID && inRange(ev.Date, from, to) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Weekly ledger & expenses ---

func (m *memStore) GetOrCreateWeek(_ context.Context, userID string, weekStart, weekEnd time.Time) (*domain.WeeklyIncome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.findWeek(userID, weekStart); w != nil {
		cp := *w
		return &cp, nil
	}
	w := &domain.WeeklyIncome{
		ID:        m.nextID("week"),
		UserID:    userID,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
	}
	m.weeks[w.ID] = w
	cp := *w
	return &cp, nil
}

func (m *memStore) findWeek(userID string, weekStart time.Time) *domain.WeeklyIncome {
	for _, w := range m.weeks {
		if w.UserID == userID && w.WeekStart.Equal(weekStart) {
			return w
		}
	}
	return nil
}

func (m *memStore) GetWeek(_ context.Context, userID string, weekStart, _ time.Time) (*domain.WeeklyIncome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.findWeek(userID, weekStart); w != nil {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) SetWeekAmount(_ context.Context, weekID string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.weeks[weekID]
	if !ok {
		return &domain.ErrNotFound{Resource: "weekly income", ID: weekID}
	}
	w.Amount = amount
	return nil
}

func (m *memStore) UpdateWeekTotals(_ context.Context, weekID string, spent, leftover float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.weeks[weekID]
	if !ok {
		return &domain.ErrNotFound{Resource: "weekly income", ID: weekID}
	}
	w.Spent = spent
	w.Leftover = leftover
	return nil
}

func (m *memStore) CreateExpense(_ context.Context, e *domain.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.expenses[e.ID] = &cp
	return nil
}

func (m *memStore) CreateExpenseIfAbsent(_ context.Context, e *domain.Expense) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.expenses {
		if existing.UserID == e.UserID && existing.Type == e.Type && existing.SourceID == e.SourceID {
			return false, nil
		}
	}
	cp := *e
	m.expenses[e.ID] = &cp
	return true, nil
}

func (m *memStore) GetExpense(_ context.Context, userID, expenseID string) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.expenses[expenseID]; ok && e.UserID == userID {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) DeleteExpense(_ context.Context, userID, expenseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.expenses[expenseID]; ok && e.UserID == userID {
		delete(m.expenses, expenseID)
		return nil
	}
	return &domain.ErrNotFound{Resource: "expense", ID: expenseID}
}

func (m *memStore) ListExpenses(_ context.Context, userID string, from, to time.Time) ([]domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Expense
	for _, e := range m.expenses {
		if e.UserID == userID && inRange(e.Date, from, to) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memStore) SumExpenses(_ context.Context, userID string, from, to time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0.0
	for _, e := range m.expenses {
		if e.UserID == userID && inRange(e.Date, from, to) {
			total += e.Amount
		}
	}
	return total, nil
}

func (m *memStore) DailyExpenseTotals(_ context.Context, userID string, from, to time.Time) ([]domain.DailyExpenseTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDay := make(map[string]float64)
	for _, e := range m.expenses {
		if e.UserID == userID && inRange(e.Date, from, to) {
			byDay[e.Date.Format(domain.DateOnly)] += e.Amount
		}
	}
	out := make([]domain.DailyExpenseTotal, 0, len(byDay))
	for date, total := range byDay {
		out = append(out, domain.DailyExpenseTotal{Date: date, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// --- Saving goals ---

func (m *memStore) CreateGoal(_ context.Context, goal *domain.SavingGoal, owner *domain.SavingGoalMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *goal
	m.goals[goal.ID] = &cp
	oc := *owner
	m.members[goal.ID] = map[string]*domain.SavingGoalMember{owner.UserID: &oc}
	return nil
}

func (m *memStore) GetGoal(_ context.Context, goalID string) (*domain.SavingGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.goals[goalID]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) UpdateGoal(_ context.Context, goal *domain.SavingGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.goals[goal.ID]; !ok {
		return &domain.ErrNotFound{Resource: "goal", ID: goal.ID}
	}
	cp := *goal
	m.goals[goal.ID] = &cp
	return nil
}

func (m *memStore) ListGoals(_ context.Context, userID string) ([]domain.SavingGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SavingGoal
	for _, g := range m.goals {
		if g.UserID == userID || m.members[g.ID][userID] != nil {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Deadline, out[j].Deadline
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})
	return out, nil
}

func (m *memStore) GetMembership(_ context.Context, goalID, userID string) (domain.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[goalID][userID]
	if !ok {
		return domain.Membership{}, nil
	}
	return domain.Membership{
		IsOwner:       member.Role == domain.GoalRoleOwner,
		IsParticipant: true,
	}, nil
}

func (m *memStore) UpsertMember(_ context.Context, member *domain.SavingGoalMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[member.GoalID] == nil {
		m.members[member.GoalID] = make(map[string]*domain.SavingGoalMember)
	}
	cp := *member
	m.members[member.GoalID][member.UserID] = &cp
	return nil
}

func (m *memStore) ListMembers(_ context.Context, goalID string) ([]domain.SavingGoalMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SavingGoalMember
	for _, member := range m.members[goalID] {
		out = append(out, *member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memStore) ApplyContribution(_ context.Context, goalID string, mv *domain.SavingGoalMovement, cal *domain.CalendarEvent) (*domain.SavingGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	goal, ok := m.goals[goalID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "goal", ID: goalID}
	}
	goal.CurrentAmount += mv.Amount
	goal.RefreshStatus()
	m.movements[goalID] = append(m.movements[goalID], *mv)
	if cal != nil {
		cp := *cal
		m.calendar[cal.ID] = &cp
	}
	out := *goal
	return &out, nil
}

func (m *memStore) ListMovements(_ context.Context, goalID string) ([]domain.SavingGoalMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SavingGoalMovement, len(m.movements[goalID]))
	copy(out, m.movements[goalID])
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListGoalsWithDeadlineBetween(_ context.Context, userID string, from, to time.Time) ([]domain.SavingGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SavingGoal
	for _, g := range m.goals {
		if g.Deadline == nil {
			continue
		}
		if (g.UserID == userID || m.members[g.ID][userID] != nil) && inRange(*g.Deadline, from, to) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(*out[j].Deadline) })
	return out, nil
}

func (m *memStore) TotalSavings(_ context.Context, userID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0.0
	for _, g := range m.goals {
		if g.UserID == userID || m.members[g.ID][userID] != nil {
			total += g.CurrentAmount
		}
	}
	return total, nil
}

// --- Tandas ---

func (m *memStore) CreateTanda(_ context.Context, t *domain.Tanda, members []domain.TandaMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tandas[t.ID] = &cp
	m.seats[t.ID] = append([]domain.TandaMember(nil), members...)
	return nil
}

func (m *memStore) tandaVisible(t *domain.Tanda, userID string) bool {
	if t.OrganizerID == userID {
		return true
	}
	for _, seat := range m.seats[t.ID] {
		if seat.UserID == userID {
			return true
		}
	}
	return false
}

func (m *memStore) GetTanda(_ context.Context, userID, tandaID string) (*domain.Tanda, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tandas[tandaID]; ok && m.tandaVisible(t, userID) {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) ListTandas(_ context.Context, userID, status string) ([]domain.Tanda, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Tanda
	for _, t := range m.tandas {
		if !m.tandaVisible(t, userID) {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListTandaMembers(_ context.Context, tandaID string) ([]domain.TandaMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.TandaMember(nil), m.seats[tandaID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].RoundNumber < out[j].RoundNumber })
	return out, nil
}

func (m *memStore) CountTandaMembers(_ context.Context, tandaID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seats[tandaID]), nil
}

func (m *memStore) ListTandasPayingBetween(_ context.Context, userID string, from, to time.Time) ([]domain.Tanda, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Tanda
	for _, t := range m.tandas {
		if t.NextPaymentDate == nil || !m.tandaVisible(t, userID) {
			continue
		}
		if inRange(*t.NextPaymentDate, from, to) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextPaymentDate.Before(*out[j].NextPaymentDate) })
	return out, nil
}

func (m *memStore) NextTandaPayment(_ context.Context, userID string, from time.Time) (*domain.Tanda, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var next *domain.Tanda
	for _, t := range m.tandas {
		if t.Status != domain.TandaStatusActive || t.NextPaymentDate == nil || !m.tandaVisible(t, userID) {
			continue
		}
		if domain.Day(*t.NextPaymentDate).Before(domain.Day(from)) {
			continue
		}
		if next == nil || t.NextPaymentDate.Before(*next.NextPaymentDate) {
			next = t
		}
	}
	if next == nil {
		return nil, nil
	}
	cp := *next
	return &cp, nil
}

func (m *memStore) CountTandasByStatus(_ context.Context, userID, status string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tandas {
		if t.Status == status && m.tandaVisible(t, userID) {
			n++
		}
	}
	return n, nil
}

// --- Manual calendar entries ---

func (m *memStore) CreateCalendarEvent(_ context.Context, ev *domain.CalendarEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ev
	m.calendar[ev.ID] = &cp
	return nil
}

func (m *memStore) DeleteCalendarEvent(_ context.Context, userID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := m.calendar[eventID]; ok && ev.UserID == userID {
		delete(m.calendar, eventID)
		return nil
	}
	return &domain.ErrNotFound{Resource: "calendar event", ID: eventID}
}

func (m *memStore) ListCalendarEvents(_ context.Context, userID string, from, to time.Time) ([]domain.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CalendarEvent
	for _, ev := range m.calendar {
		if ev.UserID == userID && inRange(ev.Date, from, to) {
			out = append(out, *ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// --- Test helpers ---

// fixedClock pins "today" to the given date at noon UTC.
func fixedClock(date string) func() time.Time {
	t, err := time.Parse(domain.DateOnly, date)
	if err != nil {
		panic(err)
	}
	t = t.Add(12 * time.Hour)
	return func() time.Time { return t }
}
