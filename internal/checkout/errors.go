package checkout

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Tagged checkout failures. Handlers translate these into user-facing
// responses; the cart is never mutated on any of them so a retry is safe.
var (
	// ErrEmptyCart is returned when the submitted cart has no line items.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrInvalidTotal is returned when the recomputed subtotal is not
	// positive or the client-supplied totals disagree with the server.
	ErrInvalidTotal = errors.New("checkout: invalid total")
	// ErrPersistence is returned when the transaction could not be
	// committed; nothing was persisted.
	ErrPersistence = errors.New("checkout: sale not persisted")
)

// InsufficientStockError names the product whose current stock cannot cover
// the requested quantity. The whole transaction is rolled back.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int32
	Available   int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("checkout: insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}
