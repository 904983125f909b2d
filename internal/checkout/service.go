package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ovenline/backend-bakery/internal/events"
	"github.com/ovenline/backend-bakery/internal/obs"
	"github.com/ovenline/backend-bakery/internal/pricing"
	"github.com/ovenline/backend-bakery/internal/repo"
)

// ItemInput is one submitted cart line. Only the product id and quantity are
// trusted; price and name come from the catalog at commit time.
type ItemInput struct {
	ProductID string          `json:"id" validate:"required,uuid"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
}

// Input is the checkout submission payload.
type Input struct {
	Items          []ItemInput     `json:"cart_items" validate:"required,min=1,dive"`
	DiscountType   string          `json:"discount_type" validate:"omitempty,oneof=none percent amount"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method" validate:"required,oneof=cash card other"`
	CustomerName   *string         `json:"customer_name"`
	Notes          *string         `json:"notes"`
}

// Output reports the committed sale.
type Output struct {
	SaleID        string `json:"saleId"`
	InvoiceNumber string `json:"invoiceNumber"`
	Subtotal      string `json:"subtotal"`
	TaxAmount     string `json:"taxAmount"`
	Discount      string `json:"discountAmount"`
	Total         string `json:"totalAmount"`
}

// Store is the slice of repo.Queries the coordinator needs inside a
// transaction.
type Store interface {
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]repo.Product, error)
	NextInvoiceSeq(ctx context.Context, day time.Time) (int64, error)
	CreateSale(ctx context.Context, arg repo.CreateSaleParams) (repo.Sale, error)
	CreateSaleItem(ctx context.Context, arg repo.CreateSaleItemParams) error
	DecrementStock(ctx context.Context, id uuid.UUID, qty int32) (int32, error)
}

// Service coordinates the atomic checkout commit: one sale row, one row per
// line item, and one conditional stock decrement per product, all in a
// single transaction.
type Service struct {
	Q                 *repo.Queries
	Pool              *pgxpool.Pool
	TaxRatePercent    decimal.Decimal
	LowStockThreshold int32
	Events            *events.Bus
	Now               func() time.Time

	// RunTx overrides transaction execution. Tests inject an in-memory
	// store here; production leaves it nil and runs on Pool.
	RunTx func(ctx context.Context, fn func(Store) error) error
}

type committed struct {
	sale     repo.Sale
	lowStock []lowStockAlert
}

type lowStockAlert struct {
	productID uuid.UUID
	name      string
	remaining int32
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Commit validates the submitted cart against the catalog, recomputes the
// totals, and persists the sale atomically. On any failure nothing is
// written and the caller's cart is untouched.
func (s *Service) Commit(ctx context.Context, cashierID string, in Input) (Output, error) {
	if s == nil || (s.Pool == nil && s.RunTx == nil) {
		return Output{}, errors.New("checkout service not configured")
	}
	cID, err := uuid.Parse(cashierID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid cashier id: %w", err)
	}
	items := mergeItems(in.Items)
	if len(items) == 0 {
		return Output{}, ErrEmptyCart
	}
	discount, err := parseDiscount(in.DiscountType, in.DiscountValue)
	if err != nil {
		return Output{}, err
	}

	start := time.Now()
	var result committed
	err = s.runTx(ctx, func(q Store) error {
		res, err := s.commitTx(ctx, q, cID, items, discount, in)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if obs.CheckoutDuration != nil {
		obs.CheckoutDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	if err != nil {
		s.observeOutcome(err)
		return Output{}, err
	}
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues("committed").Inc()
	}
	s.afterCommit(ctx, result)

	sale := result.sale
	return Output{
		SaleID:        sale.ID.String(),
		InvoiceNumber: sale.InvoiceNumber,
		Subtotal:      sale.Subtotal.StringFixed(2),
		TaxAmount:     sale.TaxAmount.StringFixed(2),
		Discount:      sale.DiscountAmount.StringFixed(2),
		Total:         sale.TotalAmount.StringFixed(2),
	}, nil
}

func (s *Service) runTx(ctx context.Context, fn func(Store) error) error {
	if s.RunTx != nil {
		return s.RunTx(ctx, fn)
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(s.Q.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (s *Service) commitTx(ctx context.Context, q Store, cashierID uuid.UUID, items []ItemInput, discount pricing.Discount, in Input) (committed, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		id, err := uuid.Parse(it.ProductID)
		if err != nil {
			return committed{}, fmt.Errorf("%w: invalid product id %q", pricing.ErrInvalidInput, it.ProductID)
		}
		ids = append(ids, id)
	}

	products, err := q.GetProductsByIDs(ctx, ids)
	if err != nil {
		return committed{}, wrapPersistence(err)
	}
	byID := make(map[uuid.UUID]repo.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]pricing.LineItem, 0, len(items))
	for i, it := range items {
		product, ok := byID[ids[i]]
		if !ok {
			return committed{}, fmt.Errorf("%w: unknown product %s", pricing.ErrInvalidInput, it.ProductID)
		}
		lines = append(lines, pricing.LineItem{
			ProductID: product.ID.String(),
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  it.Quantity,
		})
	}

	totals, err := pricing.Compute(lines, s.TaxRatePercent, discount)
	if err != nil {
		return committed{}, err
	}
	rounded := totals.Rounded()
	if !rounded.Subtotal.IsPositive() {
		return committed{}, ErrInvalidTotal
	}
	if err := verifyClientTotals(in, rounded); err != nil {
		return committed{}, err
	}

	// Spec order: invoice number, sale header, then per line one item row
	// and one conditional stock decrement.
	day := s.now()
	seq, err := q.NextInvoiceSeq(ctx, day)
	if err != nil {
		return committed{}, wrapPersistence(err)
	}
	invoiceNumber := fmt.Sprintf("INV-%s-%04d", day.Format("20060102"), seq)

	sale, err := q.CreateSale(ctx, repo.CreateSaleParams{
		InvoiceNumber:  invoiceNumber,
		CashierID:      cashierID,
		CustomerName:   in.CustomerName,
		Subtotal:       rounded.Subtotal,
		TaxAmount:      rounded.Tax,
		DiscountAmount: rounded.Discount,
		TotalAmount:    rounded.Total,
		PaymentMethod:  in.PaymentMethod,
		Notes:          in.Notes,
	})
	if err != nil {
		return committed{}, wrapPersistence(err)
	}

	var alerts []lowStockAlert
	for i, line := range lines {
		qty := int32(line.Quantity)
		lineSubtotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		if err := q.CreateSaleItem(ctx, repo.CreateSaleItemParams{
			SaleID:      sale.ID,
			ProductID:   ids[i],
			ProductName: line.Name,
			Quantity:    qty,
			UnitPrice:   line.UnitPrice,
			Subtotal:    lineSubtotal.Round(2),
		}); err != nil {
			return committed{}, wrapPersistence(err)
		}
		remaining, err := q.DecrementStock(ctx, ids[i], qty)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				product := byID[ids[i]]
				return committed{}, &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   qty,
					Available:   product.StockQuantity,
				}
			}
			return committed{}, wrapPersistence(err)
		}
		if s.LowStockThreshold > 0 && remaining <= s.LowStockThreshold {
			alerts = append(alerts, lowStockAlert{productID: ids[i], name: line.Name, remaining: remaining})
		}
	}

	return committed{sale: sale, lowStock: alerts}, nil
}

func (s *Service) afterCommit(ctx context.Context, result committed) {
	if s.Events == nil {
		return
	}
	sale := result.sale
	_, _ = s.Events.Emit(ctx, events.TopicSaleCompleted, sale.ID, map[string]any{
		"saleId":        sale.ID.String(),
		"invoiceNumber": sale.InvoiceNumber,
		"total":         sale.TotalAmount.StringFixed(2),
	})
	for _, alert := range result.lowStock {
		if obs.LowStockAlertTotal != nil {
			obs.LowStockAlertTotal.Inc()
		}
		_, _ = s.Events.Emit(ctx, events.TopicStockLow, alert.productID, map[string]any{
			"productId": alert.productID.String(),
			"name":      alert.name,
			"remaining": alert.remaining,
		})
	}
}

func (s *Service) observeOutcome(err error) {
	if obs.CheckoutTotal == nil {
		return
	}
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		obs.CheckoutTotal.WithLabelValues("insufficient_stock").Inc()
		if obs.StockConflictTotal != nil {
			obs.StockConflictTotal.Inc()
		}
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInvalidTotal), errors.Is(err, pricing.ErrInvalidInput):
		obs.CheckoutTotal.WithLabelValues("rejected").Inc()
	default:
		obs.CheckoutTotal.WithLabelValues("failed").Inc()
	}
}

// mergeItems folds duplicate product ids into one line, matching the cart
// rule that re-adding a product increments its quantity.
func mergeItems(items []ItemInput) []ItemInput {
	merged := make([]ItemInput, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if pos, ok := index[it.ProductID]; ok {
			merged[pos].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged
}

func parseDiscount(kind string, value decimal.Decimal) (pricing.Discount, error) {
	switch pricing.DiscountKind(kind) {
	case pricing.DiscountNone, "":
		return pricing.None(), nil
	case pricing.DiscountPercent:
		return pricing.Percent(value), nil
	case pricing.DiscountAmount:
		return pricing.Amount(value), nil
	default:
		return pricing.Discount{}, fmt.Errorf("%w: unknown discount type %q", pricing.ErrInvalidInput, kind)
	}
}

// verifyClientTotals rejects a submission whose client-computed totals
// disagree with the server recomputation. Zero-valued client totals are
// treated as "not supplied".
func verifyClientTotals(in Input, rounded pricing.Totals) error {
	if in.TotalAmount.IsZero() && in.Subtotal.IsZero() {
		return nil
	}
	if !in.Subtotal.Round(2).Equal(rounded.Subtotal) ||
		!in.TaxAmount.Round(2).Equal(rounded.Tax) ||
		!in.DiscountAmount.Round(2).Equal(rounded.Discount) ||
		!in.TotalAmount.Round(2).Equal(rounded.Total) {
		return fmt.Errorf("%w: client totals do not match server computation", ErrInvalidTotal)
	}
	return nil
}

func wrapPersistence(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: duplicate invoice number", ErrPersistence)
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
