package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
	"github.com/lanaapp/lana-api/internal/infra/observability"
	"github.com/lanaapp/lana-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var billTracer = otel.Tracer("service/bills")

// BillService owns bill state transitions and their side effects: the
// calendar projection upsert on every write, and the once-only expense
// booked when a bill becomes paid.
type BillService struct {
	store   port.BillStore
	events  port.EventStore
	ledger  *LedgerService
	dash    Invalidator
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewBillService creates a new bill service.
func NewBillService(store port.BillStore, events port.EventStore, ledger *LedgerService, metrics *observability.Metrics, logger *zap.Logger) *BillService {
	return &BillService{store: store, events: events, ledger: ledger, metrics: metrics, logger: logger, now: time.Now}
}

// WithClock overrides the time source. Used by tests to pin "today".
func (s *BillService) WithClock(now func() time.Time) *BillService {
	s.now = now
	return s
}

// WithInvalidator hooks up cache invalidation for derived views.
func (s *BillService) WithInvalidator(inv Invalidator) *BillService {
	s.dash = inv
	return s
}

// CreateBill validates and persists a new pending bill and projects it
// onto the calendar.
func (s *BillService) CreateBill(ctx context.Context, userID string, req *domain.CreateBillRequest) (*domain.BillView, error) {
	ctx, span := billTracer.Start(ctx, "BillService.CreateBill")
	defer span.End()

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if req.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	dueDate, err := time.Parse(domain.DateOnly, req.DueDate)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "due_date", Message: "invalid format, use YYYY-MM-DD"}
	}

	bill := &domain.Bill{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		Provider:    req.Provider,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     dueDate,
		Status:      domain.BillStatusPending,
		Category:    req.Category,
		AutoDebit:   req.AutoDebit,
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	}

	if err := s.store.CreateBill(ctx, bill); err != nil {
		s.logger.Error("failed to create bill", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	if err := s.events.UpsertEvent(ctx, bill.CalendarProjection()); err != nil {
		s.logger.Error("failed to project bill onto calendar",
			zap.String("bill_id", bill.ID),
			zap.Error(err),
		)
		return nil, err
	}

	invalidate(s.dash, userID)
	s.logger.Info("bill created",
		zap.String("user_id", userID),
		zap.String("bill_id", bill.ID),
		zap.Float64("amount", bill.Amount),
	)

	v := bill.View(s.now())
	return &v, nil
}

// GetBill returns one bill scoped to its owner.
func (s *BillService) GetBill(ctx context.Context, userID, billID string) (*domain.BillView, error) {
	ctx, span := billTracer.Start(ctx, "BillService.GetBill")
	defer span.End()

	bill, err := s.store.GetBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}
	v := bill.View(s.now())
	return &v, nil
}

// ListBills returns the user's bills, most urgent first. Recognised
// filters: pending (default), paid, cancelled, overdue, all; anything
// else is treated as pending.
func (s *BillService) ListBills(ctx context.Context, userID, status string) ([]domain.BillView, error) {
	ctx, span := billTracer.Start(ctx, "BillService.ListBills")
	defer span.End()
	span.SetAttributes(attribute.String("filter.status", status))

	overdueOnly := false
	switch status {
	case domain.BillStatusPaid, domain.BillStatusCancelled:
	case "all":
		status = ""
	case "overdue":
		status = domain.BillStatusPending
		overdueOnly = true
	default:
		status = domain.BillStatusPending
	}

	bills, err := s.store.ListBills(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	today := s.now()
	views := make([]domain.BillView, 0, len(bills))
	for i := range bills {
		if overdueOnly && !bills[i].IsOverdue(today) {
			continue
		}
		views = append(views, bills[i].View(today))
	}
	return views, nil
}

// UpdateBill applies a partial update, restores the paid/paid_at
// invariant, refreshes the calendar projection, and books the once-only
// auto-expense when the bill transitions into paid.
func (s *BillService) UpdateBill(ctx context.Context, userID, billID string, req *domain.UpdateBillRequest) (*domain.BillView, error) {
	ctx, span := billTracer.Start(ctx, "BillService.UpdateBill")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("bill_update", time.Since(start)) }()

	bill, err := s.store.GetBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}

	wasPaid := bill.IsPaid()

	if req.Name != nil {
		bill.Name = *req.Name
	}
	if req.Provider != nil {
		bill.Provider = *req.Provider
	}
	if req.Description != nil {
		bill.Description = *req.Description
	}
	if req.Amount != nil {
		if *req.Amount < 0 {
			return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
		}
		bill.Amount = *req.Amount
	}
	if req.DueDate != nil {
		due, err := time.Parse(domain.DateOnly, *req.DueDate)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "due_date", Message: "invalid format, use YYYY-MM-DD"}
		}
		bill.DueDate = due
	}
	if req.Category != nil {
		bill.Category = *req.Category
	}
	if req.AutoDebit != nil {
		bill.AutoDebit = *req.AutoDebit
	}
	if req.Status != nil {
		switch *req.Status {
		case domain.BillStatusPending, domain.BillStatusPaid, domain.BillStatusCancelled:
		default:
			return nil, &domain.ErrValidation{Field: "status", Message: fmt.Sprintf("unknown status '%s'", *req.Status)}
		}
		// There is no un-pay transition: once paid_at is stamped the
		// reconciliation below forces status back to paid, and the
		// generated expense is never reversed.
		bill.Status = *req.Status
	}
	if req.PaidAt != nil {
		paidAt, err := parseTimestamp(*req.PaidAt)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "paid_at", Message: "invalid timestamp"}
		}
		bill.PaidAt = &paidAt
	}

	bill.ReconcilePayment(s.now())
	bill.UpdatedAt = s.now()

	if err := s.store.UpdateBill(ctx, bill); err != nil {
		s.logger.Error("failed to update bill", zap.String("bill_id", billID), zap.Error(err))
		return nil, err
	}

	// Projection upsert happens on every update, regardless of status,
	// so the calendar always carries the latest due date and state.
	if err := s.events.UpsertEvent(ctx, bill.CalendarProjection()); err != nil {
		s.logger.Error("failed to refresh bill projection",
			zap.String("bill_id", billID),
			zap.Error(err),
		)
		return nil, err
	}

	if !wasPaid && bill.IsPaid() {
		if err := s.bookPaymentExpense(ctx, bill); err != nil {
			return nil, err
		}
	}

	invalidate(s.dash, userID)
	v := bill.View(s.now())
	return &v, nil
}

// bookPaymentExpense records the expense generated by paying a bill.
// The insert is idempotent per bill, so repeated paid updates book at
// most one expense.
func (s *BillService) bookPaymentExpense(ctx context.Context, bill *domain.Bill) error {
	date := domain.Day(s.now())
	if bill.PaidAt != nil {
		date = domain.Day(*bill.PaidAt)
	}

	created, err := s.ledger.RecordGeneratedExpense(ctx, &domain.Expense{
		UserID:      bill.UserID,
		Date:        date,
		Amount:      bill.Amount,
		Type:        domain.ExpenseTypeBill,
		SourceID:    bill.ID,
		Description: bill.Name,
	})
	if err != nil {
		s.logger.Error("failed to book bill payment expense",
			zap.String("bill_id", bill.ID),
			zap.Error(err),
		)
		return err
	}

	if created {
		s.logger.Info("bill paid",
			zap.String("user_id", bill.UserID),
			zap.String("bill_id", bill.ID),
			zap.Float64("amount", bill.Amount),
		)
	}
	return nil
}

// DeleteBill removes the bill's calendar projection, then the bill, so
// no dangling projection can survive the delete.
func (s *BillService) DeleteBill(ctx context.Context, userID, billID string) error {
	ctx, span := billTracer.Start(ctx, "BillService.DeleteBill")
	defer span.End()

	bill, err := s.store.GetBill(ctx, userID, billID)
	if err != nil {
		return err
	}
	if bill == nil {
		return &domain.ErrNotFound{Resource: "bill", ID: billID}
	}

	if err := s.events.DeleteEvent(ctx, domain.EventKindBill, bill.ID); err != nil {
		s.logger.Error("failed to delete bill projection",
			zap.String("bill_id", billID),
			zap.Error(err),
		)
		return err
	}

	if err := s.store.DeleteBill(ctx, userID, billID); err != nil {
		return err
	}

	invalidate(s.dash, userID)
	s.logger.Info("bill deleted",
		zap.String("user_id", userID),
		zap.String("bill_id", billID),
	)
	return nil
}

// parseTimestamp accepts an RFC3339 timestamp or a bare date.
func parseTimestamp(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(domain.DateOnly, v)
}
