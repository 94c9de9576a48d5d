package domain

// Request payloads accepted by the services. Dates travel as YYYY-MM-DD
// strings and are parsed at the service boundary; pointer fields on
// update requests distinguish "absent" from zero values.

// CreateBillRequest is the payload to create a bill.
type CreateBillRequest struct {
	Name        string  `json:"name"`
	Provider    string  `json:"provider,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"due_date"`
	Category    string  `json:"category,omitempty"`
	AutoDebit   bool    `json:"auto_debit,omitempty"`
}

// UpdateBillRequest is the partial-update payload for a bill. Marking
// status=paid or supplying paid_at are both valid ways to pay; the
// engine reconciles the two fields either way.
type UpdateBillRequest struct {
	Name        *string  `json:"name,omitempty"`
	Provider    *string  `json:"provider,omitempty"`
	Description *string  `json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	DueDate     *string  `json:"due_date,omitempty"`
	Category    *string  `json:"category,omitempty"`
	AutoDebit   *bool    `json:"auto_debit,omitempty"`
	Status      *string  `json:"status,omitempty"`
	PaidAt      *string  `json:"paid_at,omitempty"`
}

// CreateExpenseRequest is the payload to log an expense.
type CreateExpenseRequest struct {
	Date        string  `json:"date,omitempty"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	SourceID    string  `json:"source_id,omitempty"`
	Description string  `json:"description,omitempty"`
}

// DeclareIncomeRequest sets the declared amount of the current week.
type DeclareIncomeRequest struct {
	Amount float64 `json:"amount"`
}

// CreateGoalRequest is the payload to create a saving goal.
type CreateGoalRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	TargetAmount float64 `json:"target_amount"`
	Deadline     string  `json:"deadline,omitempty"`
	Category     string  `json:"category,omitempty"`
	IsGroup      bool    `json:"is_group,omitempty"`
}

// UpdateGoalRequest is the partial-update payload for a goal.
type UpdateGoalRequest struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	TargetAmount *float64 `json:"target_amount,omitempty"`
	Deadline     *string  `json:"deadline,omitempty"`
	Category     *string  `json:"category,omitempty"`
}

// ContributeRequest is the payload for a goal contribution.
type ContributeRequest struct {
	Amount      float64 `json:"amount"`
	Date        string  `json:"date,omitempty"`
	Description string  `json:"description,omitempty"`
}

// AddGoalMemberRequest adds a registered user to a group goal by email.
type AddGoalMemberRequest struct {
	Email                string   `json:"email"`
	ExpectedContribution *float64 `json:"expected_contribution,omitempty"`
}

// TandaMemberInput is one member row on tanda creation.
type TandaMemberInput struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	RoundNumber int    `json:"round_number,omitempty"`
}

// CreateTandaRequest is the payload to create a tanda.
type CreateTandaRequest struct {
	Name               string             `json:"name"`
	Description        string             `json:"description,omitempty"`
	TotalAmount        float64            `json:"total_amount"`
	ContributionAmount float64            `json:"contribution_amount"`
	RoundsTotal        int                `json:"rounds_total"`
	StartDate          string             `json:"start_date"`
	Frequency          string             `json:"frequency,omitempty"`
	Members            []TandaMemberInput `json:"members,omitempty"`
}

// CreateCalendarEventRequest is the payload for a manual calendar entry.
type CreateCalendarEventRequest struct {
	Date        string  `json:"date"`
	Title       string  `json:"title"`
	Type        string  `json:"type,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
}
