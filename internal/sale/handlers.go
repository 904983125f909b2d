package sale

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ovenline/backend-bakery/internal/audit"
	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/repo"
)

// Handler exposes sale history and cancellation over HTTP.
type Handler struct {
	Svc   *Service
	Audit *audit.Service
}

type saleView struct {
	ID             string  `json:"id"`
	InvoiceNumber  string  `json:"invoiceNumber"`
	CashierID      string  `json:"cashierId"`
	CustomerName   *string `json:"customerName"`
	Subtotal       string  `json:"subtotal"`
	TaxAmount      string  `json:"taxAmount"`
	DiscountAmount string  `json:"discountAmount"`
	TotalAmount    string  `json:"totalAmount"`
	PaymentMethod  string  `json:"paymentMethod"`
	Notes          *string `json:"notes"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"createdAt"`
}

type saleItemView struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Subtotal    string `json:"subtotal"`
}

func toSaleView(s repo.Sale) saleView {
	return saleView{
		ID:             s.ID.String(),
		InvoiceNumber:  s.InvoiceNumber,
		CashierID:      s.CashierID.String(),
		CustomerName:   s.CustomerName,
		Subtotal:       s.Subtotal.StringFixed(2),
		TaxAmount:      s.TaxAmount.StringFixed(2),
		DiscountAmount: s.DiscountAmount.StringFixed(2),
		TotalAmount:    s.TotalAmount.StringFixed(2),
		PaymentMethod:  s.PaymentMethod,
		Notes:          s.Notes,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toItemViews(items []repo.SaleItem) []saleItemView {
	out := make([]saleItemView, 0, len(items))
	for _, it := range items {
		out = append(out, saleItemView{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			Subtotal:    it.Subtotal.StringFixed(2),
		})
	}
	return out
}

// List handles GET /sales.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	sales, total, err := h.Svc.List(r.Context(), int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load sales", nil)
		return
	}
	views := make([]saleView, 0, len(sales))
	for _, s := range sales {
		views = append(views, toSaleView(s))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"sales":      views,
		"pagination": common.NewPagination(page, perPage, int(total)),
	})
}

// Get handles GET /sales/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid sale id", nil)
		return
	}
	detail, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "sale not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load sale", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"sale":  toSaleView(detail.Sale),
		"items": toItemViews(detail.Items),
	})
}

// Cancel handles POST /sales/{id}/cancel. Admin only.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid sale id", nil)
		return
	}
	if err := h.Svc.Cancel(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "sale not found", nil)
		case errors.Is(err, ErrAlreadyCancelled):
			common.JSONError(w, http.StatusConflict, "ALREADY_CANCELLED", "sale is already cancelled", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to cancel sale", nil)
		}
		return
	}
	actorID, _ := common.CashierID(r.Context())
	h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    actorID,
		Action:     "sale.cancel",
		EntityType: "sale",
		EntityID:   id.String(),
		IP:         common.ClientIP(r),
	})
	common.JSON(w, http.StatusOK, map[string]any{"cancelled": true})
}
