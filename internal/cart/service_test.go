package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/cart"
	"github.com/ovenline/backend-bakery/internal/pricing"
	"github.com/ovenline/backend-bakery/internal/repo"
)

type fakeCatalog struct {
	products map[uuid.UUID]repo.Product
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (repo.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return repo.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func newTestService(t *testing.T) (*cart.Service, *fakeCatalog) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	catalog := &fakeCatalog{products: map[uuid.UUID]repo.Product{}}
	svc := &cart.Service{
		R:              client,
		Catalog:        catalog,
		TaxRatePercent: decimal.NewFromInt(10),
	}
	return svc, catalog
}

func addProduct(c *fakeCatalog, price string, stock int32) uuid.UUID {
	id := uuid.New()
	p, _ := decimal.NewFromString(price)
	c.products[id] = repo.Product{ID: id, Name: "croissant", Price: p, StockQuantity: stock, Active: true}
	return id
}

func TestAddItemMergesDuplicates(t *testing.T) {
	svc, catalog := newTestService(t)
	id := addProduct(catalog, "2.50", 10)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cashier-1", id.String(), 2)
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, "cashier-1", id.String(), 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	require.Equal(t, 5, c.Items[0].Quantity)
}

func TestAddItemEnforcesStockCeiling(t *testing.T) {
	svc, catalog := newTestService(t)
	id := addProduct(catalog, "2.50", 3)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cashier-1", id.String(), 2)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "cashier-1", id.String(), 2)
	var ceiling *cart.StockCeilingError
	require.True(t, errors.As(err, &ceiling))
	require.Equal(t, int32(3), ceiling.Available)
	require.Equal(t, 4, ceiling.Requested)

	// The failed mutation must not have changed the cart.
	c, err := svc.Get(ctx, "cashier-1")
	require.NoError(t, err)
	require.Equal(t, 2, c.Items[0].Quantity)
}

func TestUpdateQuantityRechecksCeiling(t *testing.T) {
	svc, catalog := newTestService(t)
	id := addProduct(catalog, "2.50", 5)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cashier-1", id.String(), 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, "cashier-1", id.String(), 6)
	var ceiling *cart.StockCeilingError
	require.True(t, errors.As(err, &ceiling))

	c, err := svc.UpdateQuantity(ctx, "cashier-1", id.String(), 5)
	require.NoError(t, err)
	require.Equal(t, 5, c.Items[0].Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	svc, catalog := newTestService(t)
	id := addProduct(catalog, "2.50", 5)
	other := addProduct(catalog, "4.00", 5)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cashier-1", id.String(), 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "cashier-1", other.String(), 1)
	require.NoError(t, err)

	c, err := svc.RemoveItem(ctx, "cashier-1", id.String())
	require.NoError(t, err)
	require.Len(t, c.Items, 1)

	_, err = svc.RemoveItem(ctx, "cashier-1", id.String())
	require.ErrorIs(t, err, cart.ErrNotFound)

	require.NoError(t, svc.Clear(ctx, "cashier-1"))
	c, err = svc.Get(ctx, "cashier-1")
	require.NoError(t, err)
	require.Empty(t, c.Items)
}

func TestTotalsRecomputedFromScratch(t *testing.T) {
	svc, catalog := newTestService(t)
	id := addProduct(catalog, "34.00", 10)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "cashier-1", id.String(), 2)
	require.NoError(t, err)

	totals, err := svc.Totals(c, pricing.None())
	require.NoError(t, err)
	rounded := totals.Rounded()
	require.Equal(t, "68.00", rounded.Subtotal.StringFixed(2))
	require.Equal(t, "6.80", rounded.Tax.StringFixed(2))
	require.Equal(t, "74.80", rounded.Total.StringFixed(2))

	// Same cart, same result; nothing is cached between computations.
	again, err := svc.Totals(c, pricing.None())
	require.NoError(t, err)
	require.True(t, totals.Total.Equal(again.Total))
}

func TestCartsAreIsolatedPerCashier(t *testing.T) {
	svc, catalog := newTestService(t)
	id := addProduct(catalog, "2.50", 5)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cashier-1", id.String(), 1)
	require.NoError(t, err)

	c, err := svc.Get(ctx, "cashier-2")
	require.NoError(t, err)
	require.Empty(t, c.Items)
}
