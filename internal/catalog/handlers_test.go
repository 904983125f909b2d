package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/audit"
	"github.com/ovenline/backend-bakery/internal/catalog"
	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/repo"
)

type auditRecorder struct {
	inserted []repo.InsertAuditLogParams
}

func (a *auditRecorder) InsertAuditLog(_ context.Context, arg repo.InsertAuditLogParams) error {
	a.inserted = append(a.inserted, arg)
	return nil
}

func (a *auditRecorder) ListAuditLogs(context.Context, repo.ListAuditLogsParams) ([]repo.AuditLog, error) {
	return nil, nil
}

func TestAdjustStockWritesAuditRow(t *testing.T) {
	store := &fakeStore{products: map[uuid.UUID]repo.Product{}}
	svc := &catalog.Service{Store: store}
	p, err := svc.CreateProduct(context.Background(), repo.CreateProductParams{Name: "Sourdough", SKU: "BRD-SRD", Price: decimal.RequireFromString("4.00"), StockQuantity: 10})
	require.NoError(t, err)

	recorder := &auditRecorder{}
	h := &catalog.Handler{
		Svc:      svc,
		Validate: validator.New(),
		Audit:    &audit.Service{Store: recorder, Enabled: true},
	}

	r := chi.NewRouter()
	r.Post("/admin/products/{id}/stock", h.AdjustStock)

	actor := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/admin/products/"+p.ID.String()+"/stock", strings.NewReader(`{"delta":-3}`))
	req = req.WithContext(common.WithCashier(req.Context(), actor.String(), "admin"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, recorder.inserted, 1)
	got := recorder.inserted[0]
	require.Equal(t, "product.stock_adjust", got.Action)
	require.Equal(t, "product", got.EntityType)
	require.NotNil(t, got.EntityID)
	require.Equal(t, p.ID.String(), *got.EntityID)
	require.True(t, got.ActorID.Valid)
	require.Equal(t, actor, got.ActorID.UUID)
}
