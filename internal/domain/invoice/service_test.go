package invoice

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/core/apperror"
	appctx "inventra/internal/core/context"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain"
)

// fakeTxManager satisfies tx.Manager without a database.
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeSequencer hands out deterministic numbers.
type fakeSequencer struct {
	invoices   int
	references int
}

func (s *fakeSequencer) NextInvoiceNumber(ctx context.Context) (string, error) {
	s.invoices++
	return fmt.Sprintf("INV-%04d", s.invoices), nil
}

func (s *fakeSequencer) NextReference(ctx context.Context) (string, error) {
	s.references++
	return fmt.Sprintf("REF-%03d", s.references), nil
}

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	byID map[id.ID]*Invoice
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[id.ID]*Invoice)}
}

func (r *memRepo) Create(ctx context.Context, inv *Invoice) error {
	cp := *inv
	r.byID[inv.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, ok := r.byID[invoiceID]
	if !ok || inv.OwnerID != appctx.GetUserID(ctx) {
		return nil, apperror.NewNotFound("invoice", invoiceID.String())
	}
	cp := *inv
	return &cp, nil
}

func (r *memRepo) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	for _, inv := range r.byID {
		if inv.Number == number && inv.OwnerID == appctx.GetUserID(ctx) {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", number)
}

func (r *memRepo) Update(ctx context.Context, inv *Invoice) error {
	if _, ok := r.byID[inv.ID]; !ok {
		return apperror.NewNotFound("invoice", inv.ID.String())
	}
	cp := *inv
	cp.Version++
	r.byID[inv.ID] = &cp
	inv.Version = cp.Version
	return nil
}

func (r *memRepo) Delete(ctx context.Context, invoiceID id.ID) error {
	if _, ok := r.byID[invoiceID]; !ok {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	delete(r.byID, invoiceID)
	return nil
}

func (r *memRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Invoice], error) {
	items := make([]*Invoice, 0, len(r.byID))
	for _, inv := range r.byID {
		if inv.OwnerID == appctx.GetUserID(ctx) {
			cp := *inv
			items = append(items, &cp)
		}
	}
	return domain.ListResult[*Invoice]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, inv := range r.byID {
		if inv.Status == StatusUnpaid && inv.DueDate.Before(asOf) && inv.BalanceDue.GreaterThan(types.Zero()) {
			inv.Status = StatusOverdue
			n++
		}
	}
	return n, nil
}

func testCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "user-1"})
}

func newTestSetup() (*Service, *memRepo, *fakeSequencer) {
	repo := newMemRepo()
	seq := &fakeSequencer{}
	svc := NewService(repo, seq, fakeTxManager{}).
		WithClock(func() time.Time { return testNow })
	return svc, repo, seq
}

func TestService_Create_AssignsSequentialNumbers(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := testCtx()

	first := newTestInvoice()
	created, err := svc.Create(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", created.Number)

	second := newTestInvoice()
	created, err = svc.Create(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "INV-0002", created.Number)
}

func TestService_Create_DerivesFinancials(t *testing.T) {
	svc, _, _ := newTestSetup()

	created, err := svc.Create(testCtx(), newTestInvoice())
	require.NoError(t, err)

	assert.True(t, created.SubTotal.Equal(types.MustMoney("600")))
	assert.True(t, created.TaxAmount.Equal(types.MustMoney("60")))
	assert.True(t, created.TotalAmount.Equal(types.MustMoney("660")))
	assert.True(t, created.BalanceDue.Equal(types.MustMoney("660")))
	assert.Equal(t, StatusUnpaid, created.Status)
	assert.Empty(t, created.Reference)
}

func TestService_Create_PaidCashSaleDrawsReference(t *testing.T) {
	svc, _, seq := newTestSetup()

	inv := newTestInvoice()
	inv.Status = StatusPaid

	created, err := svc.Create(testCtx(), inv)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, created.Status)
	assert.Equal(t, "REF-001", created.Reference)
	assert.True(t, created.PaidAmount.Equal(types.MustMoney("660")))
	assert.True(t, created.BalanceDue.IsZero())
	assert.Equal(t, 1, seq.references)
}

func TestService_Create_RejectsEmptyInvoice(t *testing.T) {
	svc, _, seq := newTestSetup()

	_, err := svc.Create(testCtx(), New("user-1", testNow))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	// Validation failures must not consume a number.
	assert.Equal(t, 0, seq.invoices)
}

func TestService_Update_SettlementDrawsReference(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := testCtx()

	created, err := svc.Create(ctx, newTestInvoice())
	require.NoError(t, err)

	paid := types.MustMoney("660")
	updated, err := svc.Update(ctx, created.ID, UpdateInput{PaidAmount: &paid})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, updated.Status)
	assert.Equal(t, "REF-001", updated.Reference)
}

func TestService_Update_UnpayDropsReference(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := testCtx()

	inv := newTestInvoice()
	inv.Status = StatusPaid
	created, err := svc.Create(ctx, inv)
	require.NoError(t, err)
	require.Equal(t, "REF-001", created.Reference)

	status := StatusUnpaid
	zero := types.Zero()
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Status: &status, PaidAmount: &zero})
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, updated.Status)
	assert.Empty(t, updated.Reference)
}

func TestService_Update_RepayDrawsFreshReference(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := testCtx()

	inv := newTestInvoice()
	inv.Status = StatusPaid
	created, err := svc.Create(ctx, inv)
	require.NoError(t, err)

	status := StatusUnpaid
	zero := types.Zero()
	_, err = svc.Update(ctx, created.ID, UpdateInput{Status: &status, PaidAmount: &zero})
	require.NoError(t, err)

	paid := StatusPaid
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Status: &paid})
	require.NoError(t, err)
	assert.Equal(t, "REF-002", updated.Reference, "references are never reused")
}

func TestService_Update_CancelIsTerminal(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := testCtx()

	created, err := svc.Create(ctx, newTestInvoice())
	require.NoError(t, err)

	cancelled := StatusCancelled
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)

	// A later payment does not resurrect the invoice.
	paid := types.MustMoney("660")
	updated, err = svc.Update(ctx, created.ID, UpdateInput{PaidAmount: &paid})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
}

func TestService_Update_RejectsInvalidStatus(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := testCtx()

	created, err := svc.Create(ctx, newTestInvoice())
	require.NoError(t, err)

	bad := Status("Draft")
	_, err = svc.Update(ctx, created.ID, UpdateInput{Status: &bad})
	require.Error(t, err)
}

func TestService_Update_RejectsNegativePaidAmount(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := testCtx()

	created, err := svc.Create(ctx, newTestInvoice())
	require.NoError(t, err)

	neg := types.MustMoney("-1")
	_, err = svc.Update(ctx, created.ID, UpdateInput{PaidAmount: &neg})
	require.Error(t, err)
}

func TestService_MarkOverdue(t *testing.T) {
	svc, repo, _ := newTestSetup()
	ctx := testCtx()

	pastDue := newTestInvoice()
	pastDue.DueDate = testNow.AddDate(0, 0, -1)
	_, err := svc.Create(ctx, pastDue)
	require.NoError(t, err)

	// Created past due derives Overdue immediately, so reset it to
	// simulate a row that went stale between saves.
	repo.byID[pastDue.ID].Status = StatusUnpaid

	current := newTestInvoice()
	_, err = svc.Create(ctx, current)
	require.NoError(t, err)

	n, err := svc.MarkOverdue(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, StatusOverdue, repo.byID[pastDue.ID].Status)
	assert.Equal(t, StatusUnpaid, repo.byID[current.ID].Status)
}

func TestService_Delete_DoesNotExistForOtherOwner(t *testing.T) {
	svc, _, _ := newTestSetup()

	created, err := svc.Create(testCtx(), newTestInvoice())
	require.NoError(t, err)

	otherCtx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "user-2"})
	err = svc.Delete(otherCtx, created.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
