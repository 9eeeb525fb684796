package invoice

import (
	"context"
	"fmt"
	"time"

	"inventra/internal/core/apperror"
	appctx "inventra/internal/core/context"
	"inventra/internal/core/id"
	"inventra/internal/core/tx"
	"inventra/internal/core/types"
	"inventra/internal/domain"
	"inventra/pkg/logger"
)

// Sequencer draws the next number from the global atomic sequences.
// Implementations must honor an open transaction in context so that
// drawing a number is atomic with the surrounding write.
type Sequencer interface {
	NextInvoiceNumber(ctx context.Context) (string, error)
	NextReference(ctx context.Context) (string, error)
}

// Service provides business logic for invoices.
type Service struct {
	repo Repository
	seq  Sequencer
	txm  tx.Manager
	now  func() time.Time
}

// NewService creates a new invoice service.
func NewService(repo Repository, seq Sequencer, txm tx.Manager) *Service {
	return &Service{
		repo: repo,
		seq:  seq,
		txm:  txm,
		now:  time.Now,
	}
}

// WithClock overrides the service clock. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create assigns the invoice number, runs the full derivation and
// persists invoice plus lines in one transaction.
//
// The caller may preset status (e.g. Paid on a cash sale); creation
// counts as an explicit status edit, so Paid without an amount settles
// in full.
func (s *Service) Create(ctx context.Context, inv *Invoice) (*Invoice, error) {
	now := s.now()
	if inv.OwnerID == "" {
		inv.OwnerID = appctx.GetUserID(ctx)
	}
	if inv.InvoiceDate.IsZero() {
		inv.InvoiceDate = now
	}
	if inv.DueDate.IsZero() {
		inv.DueDate = inv.InvoiceDate.Add(DueTerm)
	}
	if inv.Status == "" {
		inv.Status = StatusUnpaid
	}

	if err := inv.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.seq.NextInvoiceNumber(ctx)
		if err != nil {
			return fmt.Errorf("assign invoice number: %w", err)
		}
		inv.Number = number

		if err := s.finalize(ctx, inv, true, now); err != nil {
			return err
		}
		return s.repo.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created",
		"invoice_id", inv.Number, "total", inv.TotalAmount, "status", inv.Status)
	return inv, nil
}

// UpdateInput carries the externally mutable invoice fields: the fixed
// allow-list of the update contract. Everything else, notably the
// invoice number, reference and tax amount, is never merged from the
// outside.
type UpdateInput struct {
	Status         *Status
	CustomerName   *string
	CustomerEmail  *string
	DueDate        *time.Time
	DiscountAmount *types.Money
	PaymentMethod  *string
	Notes          *string
	PaidAmount     *types.Money
}

// Update merges the allow-listed fields and re-runs the derivation.
// An explicit status edit is only a hint: the balance/due-date
// derivation remains authoritative unless the edit is Cancelled.
func (s *Service) Update(ctx context.Context, invoiceID id.ID, in UpdateInput) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	statusEdited := false
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, apperror.NewValidation("invalid status").
				WithDetail("field", "status").
				WithDetail("value", string(*in.Status))
		}
		statusEdited = *in.Status != inv.Status
		inv.Status = *in.Status
	}
	if in.CustomerName != nil {
		inv.CustomerName = *in.CustomerName
	}
	if in.CustomerEmail != nil {
		inv.CustomerEmail = *in.CustomerEmail
	}
	if in.DueDate != nil {
		inv.DueDate = *in.DueDate
	}
	if in.DiscountAmount != nil {
		inv.DiscountAmount = *in.DiscountAmount
	}
	if in.PaymentMethod != nil {
		inv.PaymentMethod = *in.PaymentMethod
	}
	if in.Notes != nil {
		inv.Notes = *in.Notes
	}
	if in.PaidAmount != nil {
		if in.PaidAmount.IsNegative() {
			return nil, apperror.NewValidation("paidAmount cannot be negative").
				WithDetail("field", "paidAmount")
		}
		inv.PaidAmount = *in.PaidAmount
	}

	now := s.now()
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.finalize(ctx, inv, statusEdited, now); err != nil {
			return err
		}
		return s.repo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice updated",
		"invoice_id", inv.Number, "status", inv.Status, "balance", inv.BalanceDue)
	return inv, nil
}

// finalize runs the derivation and draws a payment reference when the
// invoice settles. Must run inside a transaction: the reference draw and
// the row write commit or roll back together.
func (s *Service) finalize(ctx context.Context, inv *Invoice, statusEdited bool, now time.Time) error {
	inv.Recalculate(statusEdited, now)
	if inv.NeedsReference() {
		ref, err := s.seq.NextReference(ctx)
		if err != nil {
			return fmt.Errorf("assign payment reference: %w", err)
		}
		inv.Reference = ref
	}
	return nil
}

// Get returns an owned invoice with its lines.
func (s *Service) Get(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.repo.GetByID(ctx, invoiceID)
}

// List returns owned invoices.
func (s *Service) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, f)
}

// Delete removes the invoice. Stock is deliberately not restored; see
// the reporting semantics, which exclude deleted invoices naturally.
func (s *Service) Delete(ctx context.Context, invoiceID id.ID) error {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, inv.ID); err != nil {
		return err
	}
	logger.Info(ctx, "invoice deleted", "invoice_id", inv.Number)
	return nil
}

// MarkOverdue is the nightly sweep: Unpaid, past due, balance owing.
// Idempotent and monotonic; Paid and Cancelled are never touched.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.repo.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info(ctx, "marked invoices overdue", "count", n)
	}
	return n, nil
}
