package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ovenline/backend-bakery/internal/pricing"
	"github.com/ovenline/backend-bakery/internal/repo"
)

// ErrNotFound indicates the cashier has no active cart.
var ErrNotFound = errors.New("cart: not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("cart: invalid input")

// StockCeilingError is returned when a mutation would push a line item's
// quantity past the product's available stock.
type StockCeilingError struct {
	ProductID string
	Name      string
	Requested int
	Available int32
}

func (e *StockCeilingError) Error() string {
	return fmt.Sprintf("cart: quantity %d for %q exceeds available stock %d", e.Requested, e.Name, e.Available)
}

// Item is one cart line. The stock ceiling is captured at selection time and
// re-checked on every quantity change.
type Item struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
	StockCeiling int32           `json:"stockCeiling"`
}

// Cart is the ordered list of items for one cashier session.
type Cart struct {
	Items []Item `json:"items"`
}

// Catalog is the slice of the product store the cart needs.
type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (repo.Product, error)
}

// Service keeps one ephemeral cart per cashier in Redis. The cart only ever
// has a single writer (the owning session) so no locking is needed here.
type Service struct {
	R              *redis.Client
	Catalog        Catalog
	TTL            time.Duration
	TaxRatePercent decimal.Decimal
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func cartKey(cashierID string) string {
	return "cart:" + cashierID
}

// Get loads the cashier's cart, returning an empty cart when none exists.
func (s *Service) Get(ctx context.Context, cashierID string) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	raw, err := s.R.Get(ctx, cartKey(cashierID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, nil
		}
		return Cart{}, err
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, cashierID string, c Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, cartKey(cashierID), raw, s.ttl()).Err()
}

// AddItem adds qty units of a product to the cart. Re-adding an existing
// product increments its quantity instead of duplicating the line.
func (s *Service) AddItem(ctx context.Context, cashierID, productID string, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	pID, err := uuid.Parse(productID)
	if err != nil {
		return Cart{}, fmt.Errorf("%w: bad product id", ErrInvalidInput)
	}
	if s.Catalog == nil {
		return Cart{}, errors.New("cart catalog not configured")
	}
	product, err := s.Catalog.GetProduct(ctx, pID)
	if err != nil {
		return Cart{}, err
	}
	c, err := s.Get(ctx, cashierID)
	if err != nil {
		return Cart{}, err
	}

	found := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			newQty := c.Items[i].Quantity + qty
			if int32(newQty) > product.StockQuantity {
				return Cart{}, &StockCeilingError{ProductID: productID, Name: product.Name, Requested: newQty, Available: product.StockQuantity}
			}
			c.Items[i].Quantity = newQty
			c.Items[i].UnitPrice = product.Price
			c.Items[i].StockCeiling = product.StockQuantity
			found = true
			break
		}
	}
	if !found {
		if int32(qty) > product.StockQuantity {
			return Cart{}, &StockCeilingError{ProductID: productID, Name: product.Name, Requested: qty, Available: product.StockQuantity}
		}
		c.Items = append(c.Items, Item{
			ProductID:    productID,
			Name:         product.Name,
			UnitPrice:    product.Price,
			Quantity:     qty,
			StockCeiling: product.StockQuantity,
		})
	}
	if err := s.save(ctx, cashierID, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// UpdateQuantity sets a line item's quantity, re-checking the stock ceiling.
func (s *Service) UpdateQuantity(ctx context.Context, cashierID, productID string, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	c, err := s.Get(ctx, cashierID)
	if err != nil {
		return Cart{}, err
	}
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		ceiling := c.Items[i].StockCeiling
		if s.Catalog != nil {
			if pID, err := uuid.Parse(productID); err == nil {
				if product, err := s.Catalog.GetProduct(ctx, pID); err == nil {
					ceiling = product.StockQuantity
					c.Items[i].UnitPrice = product.Price
					c.Items[i].StockCeiling = ceiling
				}
			}
		}
		if int32(qty) > ceiling {
			return Cart{}, &StockCeilingError{ProductID: productID, Name: c.Items[i].Name, Requested: qty, Available: ceiling}
		}
		c.Items[i].Quantity = qty
		if err := s.save(ctx, cashierID, c); err != nil {
			return Cart{}, err
		}
		return c, nil
	}
	return Cart{}, ErrNotFound
}

// RemoveItem deletes a line item from the cart.
func (s *Service) RemoveItem(ctx context.Context, cashierID, productID string) (Cart, error) {
	c, err := s.Get(ctx, cashierID)
	if err != nil {
		return Cart{}, err
	}
	kept := c.Items[:0]
	removed := false
	for _, it := range c.Items {
		if it.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	if !removed {
		return Cart{}, ErrNotFound
	}
	c.Items = kept
	if err := s.save(ctx, cashierID, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Clear drops the cashier's cart entirely.
func (s *Service) Clear(ctx context.Context, cashierID string) error {
	if s == nil || s.R == nil {
		return nil
	}
	return s.R.Del(ctx, cartKey(cashierID)).Err()
}

// Totals recomputes the pricing preview for the cart from scratch. There is
// no cached total; every mutation goes back through the calculator.
func (s *Service) Totals(c Cart, discount pricing.Discount) (pricing.Totals, error) {
	lines := make([]pricing.LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, pricing.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return pricing.Compute(lines, s.TaxRatePercent, discount)
}
