package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when a line item carries a non-positive
// quantity or a negative unit price.
var ErrInvalidInput = errors.New("pricing: invalid input")

// LineItem describes one cart entry used for total calculation.
type LineItem struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// DiscountKind selects how a discount value is interpreted.
type DiscountKind string

const (
	DiscountNone    DiscountKind = "none"
	DiscountPercent DiscountKind = "percent"
	DiscountAmount  DiscountKind = "amount"
)

// Discount expresses either a percentage of the subtotal or a fixed amount.
type Discount struct {
	Kind  DiscountKind
	Value decimal.Decimal
}

// None returns the zero discount.
func None() Discount {
	return Discount{Kind: DiscountNone}
}

// Percent builds a percentage discount.
func Percent(v decimal.Decimal) Discount {
	return Discount{Kind: DiscountPercent, Value: v}
}

// Amount builds a fixed-amount discount.
func Amount(v decimal.Decimal) Discount {
	return Discount{Kind: DiscountAmount, Value: v}
}

// Totals aggregates the computed pricing components at full precision.
// Rounding happens only at display and persistence boundaries via Rounded.
type Totals struct {
	Subtotal decimal.Decimal
	TaxRate  decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal

	// PolicyViolation is set when the raw total came out negative and was
	// clamped to zero.
	PolicyViolation bool
}

var oneHundred = decimal.NewFromInt(100)

// Compute derives order totals from the provided line items and policy
// inputs. Tax is applied to the undiscounted subtotal and the discount is
// subtracted afterwards; this ordering matches the billing behaviour the
// rest of the system depends on and must not be reordered.
func Compute(items []LineItem, taxRatePercent decimal.Decimal, discount Discount) (Totals, error) {
	if taxRatePercent.IsNegative() {
		return Totals{}, fmt.Errorf("%w: negative tax rate", ErrInvalidInput)
	}
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: quantity must be positive for product %s", ErrInvalidInput, it.ProductID)
		}
		if it.UnitPrice.IsNegative() {
			return Totals{}, fmt.Errorf("%w: negative unit price for product %s", ErrInvalidInput, it.ProductID)
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	tax := subtotal.Mul(taxRatePercent).Div(oneHundred)

	var disc decimal.Decimal
	switch discount.Kind {
	case DiscountPercent:
		if discount.Value.IsNegative() {
			return Totals{}, fmt.Errorf("%w: negative discount percent", ErrInvalidInput)
		}
		disc = subtotal.Mul(discount.Value).Div(oneHundred)
	case DiscountAmount:
		if discount.Value.IsNegative() {
			return Totals{}, fmt.Errorf("%w: negative discount amount", ErrInvalidInput)
		}
		// A fixed discount never exceeds the subtotal.
		disc = decimal.Min(discount.Value, subtotal)
	case DiscountNone, "":
		disc = decimal.Zero
	default:
		return Totals{}, fmt.Errorf("%w: unknown discount kind %q", ErrInvalidInput, discount.Kind)
	}

	t := Totals{
		Subtotal: subtotal,
		TaxRate:  taxRatePercent,
		Tax:      tax,
		Discount: disc,
	}
	total := subtotal.Add(tax).Sub(disc)
	if total.IsNegative() {
		total = decimal.Zero
		t.PolicyViolation = true
	}
	t.Total = total
	return t, nil
}

// Rounded returns the totals rounded half-up to two decimal places. This is
// the only place rounding is applied; intermediate values keep full
// precision so repeated recomputes cannot drift.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:        t.Subtotal.Round(2),
		TaxRate:         t.TaxRate,
		Tax:             t.Tax.Round(2),
		Discount:        t.Discount.Round(2),
		Total:           t.Total.Round(2),
		PolicyViolation: t.PolicyViolation,
	}
}
