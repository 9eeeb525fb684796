// Package product_repo provides the PostgreSQL implementation of the
// product repository. Every query is scoped to the owner from context.
package product_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"inventra/internal/core/apperror"
	appctx "inventra/internal/core/context"
	"inventra/internal/core/id"
	"inventra/internal/domain"
	"inventra/internal/domain/product"
	"inventra/internal/infrastructure/storage/postgres"
)

const tableName = "products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	cols    []string
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cols:    postgres.ExtractDBColumns[product.Product](),
	}
}

var _ product.Repository = (*ProductRepo)(nil)

func (r *ProductRepo) owner(ctx context.Context) string {
	return appctx.GetUserID(ctx)
}

func (r *ProductRepo) baseSelect(ctx context.Context) squirrel.SelectBuilder {
	return r.builder.
		Select(r.cols...).
		From(tableName).
		Where(squirrel.Eq{"user_id": r.owner(ctx)})
}

// Create inserts a new product row.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	data := postgres.StructToMap(p)

	q := r.builder.
		Insert(tableName).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		// Unique violation on (user_id, sku)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("product", "productId", p.SKU).WithCause(err)
		}
		return apperror.NewStorage("insert product", err)
	}

	return nil
}

// GetByID retrieves an owned product by internal ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	return r.getOne(ctx, q, productID.String())
}

// GetBySKU retrieves an owned product by caller-supplied identifier.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"sku": sku}).
		Limit(1)

	return r.getOne(ctx, q, sku)
}

func (r *ProductRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*product.Product, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", key)
		}
		return nil, apperror.NewStorage("get product", err)
	}
	return &p, nil
}

// Update rewrites the row with optimistic locking.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	data := postgres.StructToMap(p)
	version := p.Version

	// id, owner and version are managed by the repo, sku is immutable
	delete(data, "id")
	delete(data, "user_id")
	delete(data, "version")
	delete(data, "sku")
	delete(data, "created_at")
	data["updated_at"] = time.Now().UTC()

	q := r.builder.
		Update(tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"user_id": r.owner(ctx)}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewStorage("update product", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("product", p.SKU)
	}

	p.Version = version + 1
	return nil
}

// Delete removes the row. Hard delete.
func (r *ProductRepo) Delete(ctx context.Context, productID id.ID) error {
	q := r.builder.
		Delete(tableName).
		Where(squirrel.Eq{"id": productID}).
		Where(squirrel.Eq{"user_id": r.owner(ctx)})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewStorage("delete product", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

// List retrieves owned products with filtering and pagination.
func (r *ProductRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect(ctx)

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"category": pattern},
		})
	}

	var err error
	q, err = postgres.ApplyFilters(q, f.Filters, r.cols)
	if err != nil {
		return result, err
	}

	countQ := r.builder.
		Select("COUNT(*)").
		FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, apperror.NewStorage("count products", err)
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
		return result, apperror.NewStorage("list products", err)
	}
	return result, nil
}

// ExistsBySKU checks whether the owner already has a product with sku.
func (r *ProductRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	q := r.builder.
		Select("1").
		From(tableName).
		Where(squirrel.Eq{"user_id": r.owner(ctx)}).
		Where(squirrel.Eq{"sku": sku}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperror.NewStorage("exists by sku", err)
	}
	return true, nil
}

// DecrementStock subtracts qty behind a `quantity >= qty` guard and
// refreshes the availability hint in the same statement, so the
// write-time hint never disagrees with the new quantity.
func (r *ProductRepo) DecrementStock(ctx context.Context, productID id.ID, qty int64) (*product.Product, error) {
	sql := fmt.Sprintf(`
		UPDATE products SET
			quantity = quantity - $3,
			availability_status = CASE
				WHEN expiry_date IS NOT NULL AND expiry_date < CURRENT_DATE THEN $4
				WHEN quantity - $3 = 0 THEN $5
				WHEN quantity - $3 <= threshold_value THEN $6
				ELSE $7
			END,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND quantity >= $3
		RETURNING %s
	`, strings.Join(r.cols, ", "))

	var p product.Product
	err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql,
		productID, r.owner(ctx), qty,
		string(product.StatusExpired),
		string(product.StatusOutOfStock),
		string(product.StatusLowStock),
		string(product.StatusInStock),
	)
	if err != nil {
		if pgxscan.NotFound(err) {
			exists, exErr := r.existsByID(ctx, productID)
			if exErr != nil {
				return nil, exErr
			}
			if !exists {
				return nil, apperror.NewNotFound("product", productID.String())
			}
			return nil, product.ErrNotDecremented
		}
		return nil, apperror.NewStorage("decrement stock", err)
	}
	return &p, nil
}

// MarkExpired is the global nightly sweep: flip the hint for every row
// whose expiry date has passed. Idempotent; never un-expires.
func (r *ProductRepo) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	result, err := r.txm.GetQuerier(ctx).Exec(ctx, `
		UPDATE products SET
			availability_status = $1,
			version = version + 1,
			updated_at = NOW()
		WHERE expiry_date IS NOT NULL
		  AND expiry_date < $2::date
		  AND availability_status <> $1
	`, string(product.StatusExpired), asOf)
	if err != nil {
		return 0, apperror.NewStorage("mark expired", err)
	}
	return result.RowsAffected(), nil
}

func (r *ProductRepo) existsByID(ctx context.Context, productID id.ID) (bool, error) {
	var exists int
	err := r.txm.GetQuerier(ctx).QueryRow(ctx,
		`SELECT 1 FROM products WHERE id = $1 AND user_id = $2`,
		productID, r.owner(ctx)).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperror.NewStorage("exists", err)
	}
	return true, nil
}
