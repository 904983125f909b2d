package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const productColumns = `id, category_id, name, sku, price::text, stock_quantity, active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p        Product
		priceStr string
	)
	if err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.SKU, &priceStr, &p.StockQuantity, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	price, err := scanDecimal(priceStr)
	if err != nil {
		return Product{}, fmt.Errorf("parse price: %w", err)
	}
	p.Price = price
	return p, nil
}

// ListCategories returns all categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListProductsParams filters and paginates the product listing.
type ListProductsParams struct {
	Query  string
	Limit  int32
	Offset int32
}

// ListProducts returns active products matching the optional name filter.
func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE active AND ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3`, arg.Query, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountProducts counts active products matching the optional name filter.
func (q *Queries) CountProducts(ctx context.Context, query string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM products
		WHERE active AND ($1 = '' OR name ILIKE '%' || $1 || '%')`, query).Scan(&n)
	return n, err
}

// GetProduct loads a single product by id.
func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// GetProductsByIDs loads the current price, name, and stock for the given
// products. Used at commit time so client-supplied values are never trusted.
func (q *Queries) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	rows, err := q.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateProductParams carries fields for product creation.
type CreateProductParams struct {
	CategoryID    uuid.NullUUID
	Name          string
	SKU           string
	Price         decimal.Decimal
	StockQuantity int32
}

// CreateProduct inserts a product and returns the stored row.
func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, `
		INSERT INTO products (category_id, name, sku, price, stock_quantity)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING `+productColumns,
		arg.CategoryID, arg.Name, arg.SKU, arg.Price.String(), arg.StockQuantity))
}

// UpdateProductParams carries fields for product updates.
type UpdateProductParams struct {
	ID         uuid.UUID
	CategoryID uuid.NullUUID
	Name       string
	SKU        string
	Price      decimal.Decimal
	Active     bool
}

// UpdateProduct updates mutable product fields. Stock moves through
// AdjustStock and the checkout decrement instead.
func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, `
		UPDATE products
		SET category_id = $2, name = $3, sku = $4, price = $5::numeric, active = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		arg.ID, arg.CategoryID, arg.Name, arg.SKU, arg.Price.String(), arg.Active))
}

// AdjustStock applies a signed delta to a product's stock and returns the
// updated row. Negative results are rejected by the stock check constraint.
func (q *Queries) AdjustStock(ctx context.Context, id uuid.UUID, delta int32) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1 AND stock_quantity + $2 >= 0
		RETURNING `+productColumns, id, delta))
}

// DecrementStock atomically takes qty units from a product's stock. It
// returns the remaining stock, or pgx.ErrNoRows when the product does not
// have qty units left; the conditional UPDATE is what prevents overselling
// under concurrent checkouts.
func (q *Queries) DecrementStock(ctx context.Context, id uuid.UUID, qty int32) (int32, error) {
	var remaining int32
	err := q.db.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2
		RETURNING stock_quantity`, id, qty).Scan(&remaining)
	return remaining, err
}

// RestoreStock returns qty units to a product's stock, used by sale
// cancellation.
func (q *Queries) RestoreStock(ctx context.Context, id uuid.UUID, qty int32) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1`, id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
