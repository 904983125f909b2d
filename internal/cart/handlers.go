package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/pricing"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type addItemPayload struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type updateQtyPayload struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type itemView struct {
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	UnitPrice    string `json:"unitPrice"`
	Quantity     int    `json:"quantity"`
	StockCeiling int32  `json:"stockCeiling"`
	Subtotal     string `json:"subtotal"`
}

type totalsView struct {
	Subtotal       string `json:"subtotal"`
	TaxRatePercent string `json:"taxRatePercent"`
	TaxAmount      string `json:"taxAmount"`
	DiscountAmount string `json:"discountAmount"`
	Total          string `json:"totalAmount"`
}

func (h *Handler) view(c Cart, discount pricing.Discount) (map[string]any, error) {
	totals, err := h.Svc.Totals(c, discount)
	if err != nil {
		return nil, err
	}
	rounded := totals.Rounded()
	items := make([]itemView, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, itemView{
			ProductID:    it.ProductID,
			Name:         it.Name,
			UnitPrice:    it.UnitPrice.String(),
			Quantity:     it.Quantity,
			StockCeiling: it.StockCeiling,
			Subtotal:     it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2).StringFixed(2),
		})
	}
	return map[string]any{
		"items": items,
		"totals": totalsView{
			Subtotal:       rounded.Subtotal.StringFixed(2),
			TaxRatePercent: totals.TaxRate.String(),
			TaxAmount:      rounded.Tax.StringFixed(2),
			DiscountAmount: rounded.Discount.StringFixed(2),
			Total:          rounded.Total.StringFixed(2),
		},
	}, nil
}

func discountFromQuery(r *http.Request) (pricing.Discount, error) {
	kind := r.URL.Query().Get("discount_type")
	if kind == "" || kind == "none" {
		return pricing.None(), nil
	}
	value, err := decimal.NewFromString(r.URL.Query().Get("discount_value"))
	if err != nil {
		return pricing.Discount{}, err
	}
	switch pricing.DiscountKind(kind) {
	case pricing.DiscountPercent:
		return pricing.Percent(value), nil
	case pricing.DiscountAmount:
		return pricing.Amount(value), nil
	default:
		return pricing.Discount{}, errors.New("unknown discount type")
	}
}

// Get returns the cart with a freshly computed totals preview.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cashierID, ok := common.CashierID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	discount, err := discountFromQuery(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid discount", nil)
		return
	}
	c, err := h.Svc.Get(r.Context(), cashierID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	body, err := h.view(c, discount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": body})
}

// AddItem adds a product to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	cashierID, ok := common.CashierID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload addItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", err.Error())
		return
	}
	c, err := h.Svc.AddItem(r.Context(), cashierID, payload.ProductID, payload.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	body, err := h.view(c, pricing.None())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": body})
}

// UpdateItem sets a line item's quantity.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cashierID, ok := common.CashierID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload updateQtyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", err.Error())
		return
	}
	c, err := h.Svc.UpdateQuantity(r.Context(), cashierID, chi.URLParam(r, "productId"), payload.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	body, err := h.view(c, pricing.None())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": body})
}

// RemoveItem deletes a line item.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cashierID, ok := common.CashierID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	c, err := h.Svc.RemoveItem(r.Context(), cashierID, chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	body, err := h.view(c, pricing.None())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": body})
}

// Clear drops the whole cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	cashierID, ok := common.CashierID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	if err := h.Svc.Clear(r.Context(), cashierID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var ceiling *StockCeilingError
	switch {
	case errors.As(err, &ceiling):
		common.JSONError(w, http.StatusConflict, "STOCK_CEILING", ceiling.Error(), map[string]any{
			"productId": ceiling.ProductID,
			"available": ceiling.Available,
		})
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "item not in cart", nil)
	case errors.Is(err, pgx.ErrNoRows):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.WriteError(w, err)
	}
}
