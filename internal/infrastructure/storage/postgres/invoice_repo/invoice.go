// Package invoice_repo provides the PostgreSQL implementation of the
// invoice repository. An invoice spans two tables: the header row in
// invoices and its positions in invoice_lines. Lines are written once at
// creation and never updated.
package invoice_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"inventra/internal/core/apperror"
	appctx "inventra/internal/core/context"
	"inventra/internal/core/id"
	"inventra/internal/domain"
	"inventra/internal/domain/invoice"
	"inventra/internal/infrastructure/storage/postgres"
)

const (
	tableName      = "invoices"
	linesTableName = "invoice_lines"
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	cols    []string
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cols:    postgres.ExtractDBColumns[invoice.Invoice](),
	}
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

func (r *InvoiceRepo) owner(ctx context.Context) string {
	return appctx.GetUserID(ctx)
}

func (r *InvoiceRepo) baseSelect(ctx context.Context) squirrel.SelectBuilder {
	return r.builder.
		Select(r.cols...).
		From(tableName).
		Where(squirrel.Eq{"user_id": r.owner(ctx)})
}

// Create inserts the header and all lines. Callers run it inside a
// transaction; a partial write is rolled back with everything else.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	querier := r.txm.GetQuerier(ctx)

	data := postgres.StructToMap(inv)
	sql, args, err := r.builder.
		Insert(tableName).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("invoice", "invoiceId", inv.Number).WithCause(err)
		}
		return apperror.NewStorage("insert invoice", err)
	}

	return r.insertLines(ctx, inv)
}

func (r *InvoiceRepo) insertLines(ctx context.Context, inv *invoice.Invoice) error {
	if len(inv.Lines) == 0 {
		return nil
	}

	q := r.builder.
		Insert(linesTableName).
		Columns("line_id", "invoice_id", "line_no", "sku", "name", "quantity", "price", "total")
	for _, line := range inv.Lines {
		q = q.Values(line.LineID, inv.ID, line.LineNo, line.SKU, line.Name,
			line.Quantity, line.Price, line.Total)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewStorage("insert invoice lines", err)
	}
	return nil
}

// GetByID retrieves an owned invoice with lines by internal ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"id": invoiceID}).
		Limit(1)
	return r.getOne(ctx, q, invoiceID.String())
}

// GetByNumber retrieves an owned invoice with lines by its INV number.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"number": number}).
		Limit(1)
	return r.getOne(ctx, q, number)
}

func (r *InvoiceRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*invoice.Invoice, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var inv invoice.Invoice
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", key)
		}
		return nil, apperror.NewStorage("get invoice", err)
	}

	if err := r.loadLines(ctx, []*invoice.Invoice{&inv}); err != nil {
		return nil, err
	}
	return &inv, nil
}

// lineRow carries the invoice FK next to the line columns for batched
// loading.
type lineRow struct {
	InvoiceID id.ID `db:"invoice_id"`
	invoice.Line
}

func (r *InvoiceRepo) loadLines(ctx context.Context, invs []*invoice.Invoice) error {
	if len(invs) == 0 {
		return nil
	}

	ids := make([]id.ID, 0, len(invs))
	byID := make(map[id.ID]*invoice.Invoice, len(invs))
	for _, inv := range invs {
		ids = append(ids, inv.ID)
		byID[inv.ID] = inv
		inv.Lines = make([]invoice.Line, 0)
	}

	sql, args, err := r.builder.
		Select("invoice_id", "line_id", "line_no", "sku", "name", "quantity", "price", "total").
		From(linesTableName).
		Where(squirrel.Eq{"invoice_id": ids}).
		OrderBy("invoice_id", "line_no").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}

	var rows []lineRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return apperror.NewStorage("load invoice lines", err)
	}

	for _, row := range rows {
		inv := byID[row.InvoiceID]
		if inv == nil {
			continue
		}
		inv.Lines = append(inv.Lines, row.Line)
	}
	return nil
}

// Update rewrites the header with optimistic locking. Lines stay as
// written at creation.
func (r *InvoiceRepo) Update(ctx context.Context, inv *invoice.Invoice) error {
	data := postgres.StructToMap(inv)
	version := inv.Version

	// id, owner and version are managed by the repo, number is immutable
	delete(data, "id")
	delete(data, "user_id")
	delete(data, "version")
	delete(data, "number")
	delete(data, "created_at")
	data["updated_at"] = time.Now().UTC()

	q := r.builder.
		Update(tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": inv.ID}).
		Where(squirrel.Eq{"user_id": r.owner(ctx)}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewStorage("update invoice", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("invoice", inv.Number)
	}

	inv.Version = version + 1
	return nil
}

// Delete removes the invoice; lines go with it via ON DELETE CASCADE.
// Stock is not restored.
func (r *InvoiceRepo) Delete(ctx context.Context, invoiceID id.ID) error {
	sql, args, err := r.builder.
		Delete(tableName).
		Where(squirrel.Eq{"id": invoiceID}).
		Where(squirrel.Eq{"user_id": r.owner(ctx)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewStorage("delete invoice", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	return nil
}

// List retrieves owned invoices with filtering and pagination, lines
// loaded in one extra batched query.
func (r *InvoiceRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	result := domain.ListResult[*invoice.Invoice]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect(ctx)

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"reference": pattern},
			squirrel.ILike{"customer_name": pattern},
			squirrel.ILike{"customer_email": pattern},
		})
	}

	var err error
	q, err = postgres.ApplyFilters(q, f.Filters, r.cols)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := r.builder.
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, apperror.NewStorage("count invoices", err)
	}

	orderBy, err := postgres.ParseOrderBy(f.OrderBy, r.cols, "-created_at")
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, apperror.NewStorage("list invoices", err)
	}

	if err := r.loadLines(ctx, result.Items); err != nil {
		return result, err
	}
	return result, nil
}

// MarkOverdue is the global nightly sweep: Unpaid invoices past their
// due date with an outstanding balance become Overdue. Paid and
// Cancelled are never touched.
func (r *InvoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	result, err := r.txm.GetQuerier(ctx).Exec(ctx, `
		UPDATE invoices SET
			status = $1,
			version = version + 1,
			updated_at = NOW()
		WHERE status = $2
		  AND due_date < $3
		  AND balance_due > 0
	`, string(invoice.StatusOverdue), string(invoice.StatusUnpaid), asOf)
	if err != nil {
		return 0, apperror.NewStorage("mark overdue", err)
	}
	return result.RowsAffected(), nil
}
