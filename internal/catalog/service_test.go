package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/catalog"
	"github.com/ovenline/backend-bakery/internal/repo"
)

type fakeStore struct {
	categories    []repo.Category
	categoryCalls int
	products      map[uuid.UUID]repo.Product
}

func (f *fakeStore) ListCategories(context.Context) ([]repo.Category, error) {
	f.categoryCalls++
	return f.categories, nil
}

func (f *fakeStore) ListProducts(_ context.Context, arg repo.ListProductsParams) ([]repo.Product, error) {
	var out []repo.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	if int(arg.Offset) >= len(out) {
		return nil, nil
	}
	out = out[arg.Offset:]
	if int(arg.Limit) < len(out) {
		out = out[:arg.Limit]
	}
	return out, nil
}

func (f *fakeStore) CountProducts(context.Context, string) (int64, error) {
	return int64(len(f.products)), nil
}

func (f *fakeStore) GetProduct(_ context.Context, id uuid.UUID) (repo.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return repo.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, arg repo.CreateProductParams) (repo.Product, error) {
	p := repo.Product{ID: uuid.New(), CategoryID: arg.CategoryID, Name: arg.Name, SKU: arg.SKU, Price: arg.Price, StockQuantity: arg.StockQuantity, Active: true}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, arg repo.UpdateProductParams) (repo.Product, error) {
	p, ok := f.products[arg.ID]
	if !ok {
		return repo.Product{}, pgx.ErrNoRows
	}
	p.Name, p.SKU, p.Price, p.Active = arg.Name, arg.SKU, arg.Price, arg.Active
	f.products[arg.ID] = p
	return p, nil
}

func (f *fakeStore) AdjustStock(_ context.Context, id uuid.UUID, delta int32) (repo.Product, error) {
	p, ok := f.products[id]
	if !ok || p.StockQuantity+delta < 0 {
		return repo.Product{}, pgx.ErrNoRows
	}
	p.StockQuantity += delta
	f.products[id] = p
	return p, nil
}

func newTestService(t *testing.T) (*catalog.Service, *fakeStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := &fakeStore{
		categories: []repo.Category{{ID: uuid.New(), Name: "Breads"}, {ID: uuid.New(), Name: "Pastries"}},
		products:   map[uuid.UUID]repo.Product{},
	}
	svc := &catalog.Service{
		Store:        store,
		Cache:        catalog.NewCache(client, time.Minute),
		DefaultLimit: 20,
		MaxLimit:     100,
	}
	return svc, store
}

func TestListCategoriesCaches(t *testing.T) {
	svc, store := newTestService(t)

	first, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, store.categoryCalls)
}

func TestListProductsClampsLimit(t *testing.T) {
	svc, store := newTestService(t)
	for i := 0; i < 3; i++ {
		_, err := store.CreateProduct(context.Background(), repo.CreateProductParams{
			Name: "Sourdough", SKU: uuid.NewString(), Price: decimal.RequireFromString("6.50"), StockQuantity: 10,
		})
		require.NoError(t, err)
	}

	res, err := svc.ListProducts(context.Background(), catalog.ListParams{Page: 0, Limit: 10_000})
	require.NoError(t, err)
	require.Equal(t, int32(1), res.Page)
	require.Equal(t, int32(100), res.Limit)
	require.Equal(t, int64(3), res.Total)
	require.Len(t, res.Products, 3)
}

func TestAdjustStockRejectsNegative(t *testing.T) {
	svc, store := newTestService(t)
	p, err := store.CreateProduct(context.Background(), repo.CreateProductParams{
		Name: "Croissant", SKU: "CRS-1", Price: decimal.RequireFromString("3.20"), StockQuantity: 2,
	})
	require.NoError(t, err)

	_, err = svc.AdjustStock(context.Background(), p.ID, -5)
	require.ErrorIs(t, err, pgx.ErrNoRows)

	got, err := svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, int32(2), got.StockQuantity)
}
