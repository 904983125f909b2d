package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const saleColumns = `id, invoice_number, cashier_id, customer_name,
	subtotal::text, tax_amount::text, discount_amount::text, total_amount::text,
	payment_method, notes, status, created_at`

func scanSale(row pgx.Row) (Sale, error) {
	var (
		s                          Sale
		sub, tax, disc, total string
	)
	if err := row.Scan(&s.ID, &s.InvoiceNumber, &s.CashierID, &s.CustomerName,
		&sub, &tax, &disc, &total,
		&s.PaymentMethod, &s.Notes, &s.Status, &s.CreatedAt); err != nil {
		return Sale{}, err
	}
	var err error
	if s.Subtotal, err = scanDecimal(sub); err != nil {
		return Sale{}, fmt.Errorf("parse subtotal: %w", err)
	}
	if s.TaxAmount, err = scanDecimal(tax); err != nil {
		return Sale{}, fmt.Errorf("parse tax: %w", err)
	}
	if s.DiscountAmount, err = scanDecimal(disc); err != nil {
		return Sale{}, fmt.Errorf("parse discount: %w", err)
	}
	if s.TotalAmount, err = scanDecimal(total); err != nil {
		return Sale{}, fmt.Errorf("parse total: %w", err)
	}
	return s, nil
}

// CreateSaleParams carries the finalized checkout values.
type CreateSaleParams struct {
	InvoiceNumber  string
	CashierID      uuid.UUID
	CustomerName   *string
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	PaymentMethod  string
	Notes          *string
}

// CreateSale inserts the sale header and returns the stored row.
func (q *Queries) CreateSale(ctx context.Context, arg CreateSaleParams) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, `
		INSERT INTO sales (invoice_number, cashier_id, customer_name,
			subtotal, tax_amount, discount_amount, total_amount,
			payment_method, notes, status)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8, $9, 'completed')
		RETURNING `+saleColumns,
		arg.InvoiceNumber, arg.CashierID, arg.CustomerName,
		arg.Subtotal.StringFixed(2), arg.TaxAmount.StringFixed(2),
		arg.DiscountAmount.StringFixed(2), arg.TotalAmount.StringFixed(2),
		arg.PaymentMethod, arg.Notes))
}

// CreateSaleItemParams carries one denormalised sale line.
type CreateSaleItemParams struct {
	SaleID      uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int32
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// CreateSaleItem inserts one sale line.
func (q *Queries) CreateSaleItem(ctx context.Context, arg CreateSaleItemParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO sale_items (sale_id, product_id, product_name, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric)`,
		arg.SaleID, arg.ProductID, arg.ProductName, arg.Quantity,
		arg.UnitPrice.String(), arg.Subtotal.StringFixed(2))
	return err
}

// GetSale loads a sale by id.
func (q *Queries) GetSale(ctx context.Context, id uuid.UUID) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
}

// ListSaleItems returns the lines of a sale in insertion order.
func (q *Queries) ListSaleItems(ctx context.Context, saleID uuid.UUID) ([]SaleItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, sale_id, product_id, product_name, quantity, unit_price::text, subtotal::text
		FROM sale_items WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SaleItem
	for rows.Next() {
		var (
			it              SaleItem
			price, subtotal string
		)
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.Quantity, &price, &subtotal); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = scanDecimal(price); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		if it.Subtotal, err = scanDecimal(subtotal); err != nil {
			return nil, fmt.Errorf("parse subtotal: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListSalesParams paginates sale history.
type ListSalesParams struct {
	Limit  int32
	Offset int32
}

// ListSales returns sales newest first.
func (q *Queries) ListSales(ctx context.Context, arg ListSalesParams) ([]Sale, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+saleColumns+` FROM sales
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountSales counts all sales.
func (q *Queries) CountSales(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM sales`).Scan(&n)
	return n, err
}

// MarkSaleCancelled flips a completed sale to cancelled. Returns
// pgx.ErrNoRows when the sale does not exist or was already cancelled so the
// paired stock restore never runs twice.
func (q *Queries) MarkSaleCancelled(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE sales SET status = 'cancelled'
		WHERE id = $1 AND status = 'completed'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
