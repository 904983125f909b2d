package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ovenline/backend-bakery/internal/audit"
	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/repo"
)

// Handler exposes the catalog over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
	Audit    *audit.Service
}

type categoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type productView struct {
	ID            string  `json:"id"`
	CategoryID    *string `json:"categoryId"`
	Name          string  `json:"name"`
	SKU           string  `json:"sku"`
	Price         string  `json:"price"`
	StockQuantity int32   `json:"stockQuantity"`
	Active        bool    `json:"active"`
}

func toProductView(p repo.Product) productView {
	v := productView{
		ID:            p.ID.String(),
		Name:          p.Name,
		SKU:           p.SKU,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
		Active:        p.Active,
	}
	if p.CategoryID.Valid {
		id := p.CategoryID.UUID.String()
		v.CategoryID = &id
	}
	return v
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Svc.ListCategories(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load categories", nil)
		return
	}
	views := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		views = append(views, categoryView{ID: c.ID.String(), Name: c.Name})
	}
	common.JSON(w, http.StatusOK, map[string]any{"categories": views})
}

// ListProducts handles GET /products with optional ?q= search and
// pagination.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, int(h.Svc.DefaultLimit))
	res, err := h.Svc.ListProducts(r.Context(), ListParams{
		Query: r.URL.Query().Get("q"),
		Page:  int32(page),
		Limit: int32(perPage),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load products", nil)
		return
	}
	views := make([]productView, 0, len(res.Products))
	for _, p := range res.Products {
		views = append(views, toProductView(p))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"products": views,
		"pagination": common.NewPagination(int(res.Page), int(res.Limit), int(res.Total)),
	})
}

// GetProduct handles GET /products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid product id", nil)
		return
	}
	p, err := h.Svc.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load product", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"product": toProductView(p)})
}

type productRequest struct {
	CategoryID *string `json:"categoryId" validate:"omitempty,uuid"`
	Name       string  `json:"name" validate:"required,min=1,max=120"`
	SKU        string  `json:"sku" validate:"required,min=1,max=64"`
	Price      string  `json:"price" validate:"required"`
	Stock      int32   `json:"stockQuantity" validate:"gte=0"`
	Active     *bool   `json:"active"`
}

func (h *Handler) decodeProduct(r *http.Request) (productRequest, decimal.Decimal, uuid.NullUUID, error) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, decimal.Zero, uuid.NullUUID{}, errors.New("malformed request body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return req, decimal.Zero, uuid.NullUUID{}, err
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return req, decimal.Zero, uuid.NullUUID{}, errors.New("price must be a non-negative decimal")
	}
	var cat uuid.NullUUID
	if req.CategoryID != nil {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return req, decimal.Zero, uuid.NullUUID{}, errors.New("invalid category id")
		}
		cat = uuid.NullUUID{UUID: id, Valid: true}
	}
	return req, price, cat, nil
}

// CreateProduct handles POST /admin/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, price, cat, err := h.decodeProduct(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
		return
	}
	p, err := h.Svc.CreateProduct(r.Context(), repo.CreateProductParams{
		CategoryID:    cat,
		Name:          req.Name,
		SKU:           req.SKU,
		Price:         price,
		StockQuantity: req.Stock,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create product", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"product": toProductView(p)})
}

// UpdateProduct handles PUT /admin/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid product id", nil)
		return
	}
	req, price, cat, err := h.decodeProduct(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p, err := h.Svc.UpdateProduct(r.Context(), repo.UpdateProductParams{
		ID:         id,
		CategoryID: cat,
		Name:       req.Name,
		SKU:        req.SKU,
		Price:      price,
		Active:     active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update product", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"product": toProductView(p)})
}

type adjustStockRequest struct {
	Delta int32 `json:"delta" validate:"required"`
}

// AdjustStock handles POST /admin/products/{id}/stock.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid product id", nil)
		return
	}
	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed request body", nil)
		return
	}
	if req.Delta == 0 {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "delta must be non-zero", nil)
		return
	}
	p, err := h.Svc.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the product is unknown or the delta would push stock
			// below zero; the row guard rejects both the same way.
			common.JSONError(w, http.StatusConflict, "STOCK_CONFLICT", "adjustment rejected, stock cannot go negative", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to adjust stock", nil)
		return
	}
	actorID, _ := common.CashierID(r.Context())
	h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    actorID,
		Action:     "product.stock_adjust",
		EntityType: "product",
		EntityID:   id.String(),
		Metadata:   map[string]int32{"delta": req.Delta, "stockQuantity": p.StockQuantity},
		IP:         common.ClientIP(r),
	})
	common.JSON(w, http.StatusOK, map[string]any{"product": toProductView(p)})
}
