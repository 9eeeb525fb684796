// Package numerator adapts the counter-backed number generator to the
// invoice sequencing port. Draws go through the transaction in context,
// so a rolled-back invoice never burns a number out of order with its
// row (the counter row itself rolls back too).
package numerator

import (
	"context"
	"time"

	"inventra/internal/domain/invoice"
	"inventra/internal/infrastructure/storage/postgres"
	"inventra/pkg/numerator"
)

// Invoice numbers (INV-0001) and payment references (REF-001) are
// global per installation: no year component, never reset.
var (
	invoiceConfig = numerator.Config{
		Prefix:      "INV",
		PadWidth:    4,
		ResetPeriod: "never",
	}
	referenceConfig = numerator.Config{
		Prefix:      "REF",
		PadWidth:    3,
		ResetPeriod: "never",
	}
)

// Sequencer implements invoice.Sequencer.
type Sequencer struct {
	svc *numerator.Service
	txm *postgres.TxManager
}

// NewSequencer creates the invoice sequencer.
func NewSequencer(svc *numerator.Service, txm *postgres.TxManager) *Sequencer {
	return &Sequencer{svc: svc, txm: txm}
}

var _ invoice.Sequencer = (*Sequencer)(nil)

// NextInvoiceNumber draws the next INV number.
func (s *Sequencer) NextInvoiceNumber(ctx context.Context) (string, error) {
	return s.next(ctx, invoiceConfig)
}

// NextReference draws the next REF number.
func (s *Sequencer) NextReference(ctx context.Context) (string, error) {
	return s.next(ctx, referenceConfig)
}

func (s *Sequencer) next(ctx context.Context, cfg numerator.Config) (string, error) {
	// GetQuerier returns the open transaction when there is one,
	// otherwise the pool.
	return s.svc.GetNextNumber(ctx, s.txm.GetQuerier(ctx), cfg, nil, time.Now())
}
