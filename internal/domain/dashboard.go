package domain

// DashboardSummary is the home-screen aggregate: savings totals, bill
// counters, goal cards, tanda status and the current week's ledger, all
// read-only.
type DashboardSummary struct {
	Savings  DashboardSavings  `json:"savings"`
	Bills    DashboardBills    `json:"bills"`
	Goals    []SavingGoalView  `json:"goals"`
	Tandas   DashboardTandas   `json:"tandas"`
	Calendar DashboardCalendar `json:"calendar"`
	Income   DashboardIncome   `json:"income"`
}

// DashboardSavings sums goal balances.
type DashboardSavings struct {
	Total float64 `json:"total"`
}

// DashboardBills summarises bill state.
type DashboardBills struct {
	PendingCount  int        `json:"pending_count"`
	PaidThisMonth float64    `json:"paid_this_month"`
	Next          []BillView `json:"next"`
}

// DashboardTandas summarises circle activity.
type DashboardTandas struct {
	ActiveCount int        `json:"active_count"`
	NextPayment *TandaView `json:"next_payment,omitempty"`
}

// DashboardCalendar lists what is coming up and the month's daily spend.
type DashboardCalendar struct {
	UpcomingEvents []CalendarEntry     `json:"upcoming_events"`
	DailyExpenses  []DailyExpenseTotal `json:"daily_expenses"`
}

// DashboardIncome is the current week's ledger snapshot.
type DashboardIncome struct {
	WeeklyIncome      float64 `json:"weekly_income"`
	SpentThisWeek     float64 `json:"spent_this_week"`
	AvailableThisWeek float64 `json:"available_this_week"`
}
