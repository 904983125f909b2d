package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/ovenline/backend-bakery/internal/audit"
	"github.com/ovenline/backend-bakery/internal/cart"
	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/lock"
	"github.com/ovenline/backend-bakery/internal/pricing"
)

// Handler wires the checkout coordinator to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
	Cart     *cart.Service
	Audit    *audit.Service
	Locker   *lock.Locker
	LockTTL  time.Duration
}

// Checkout commits the submitted cart as one atomic sale. On failure the
// cashier's cart is untouched so the submission can be corrected and
// retried; on success the cart is cleared.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	cashierID, ok := common.CashierID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", err.Error())
			return
		}
	}

	var out Output
	commit := func() error {
		var err error
		out, err = h.Svc.Commit(r.Context(), cashierID, payload)
		return err
	}
	var err error
	if h.Locker != nil {
		ttl := h.LockTTL
		if ttl <= 0 {
			ttl = 10 * time.Second
		}
		err = h.Locker.WithLock(r.Context(), "checkout:"+cashierID, ttl, func(context.Context) error {
			return commit()
		})
	} else {
		err = commit()
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.Cart != nil {
		_ = h.Cart.Clear(r.Context(), cashierID)
	}
	h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    cashierID,
		Action:     "sale.commit",
		EntityType: "sale",
		EntityID:   out.SaleID,
		Metadata:   map[string]string{"invoiceNumber": out.InvoiceNumber, "total": out.Total},
		IP:         common.ClientIP(r),
	})
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var stockErr *InsufficientStockError
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusBadRequest, "EMPTY_CART", "cart is empty", nil)
	case errors.Is(err, ErrInvalidTotal):
		common.JSONError(w, http.StatusBadRequest, "INVALID_TOTAL", "order totals are invalid", nil)
	case errors.As(err, &stockErr):
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", stockErr.Error(), map[string]any{
			"productId": stockErr.ProductID.String(),
			"available": stockErr.Available,
		})
	case errors.Is(err, pricing.ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
	case errors.Is(err, ErrPersistence):
		common.JSONError(w, http.StatusServiceUnavailable, "PERSISTENCE_FAILURE", "order not saved, please retry", nil)
	default:
		common.WriteError(w, err)
	}
}
