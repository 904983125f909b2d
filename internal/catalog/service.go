package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ovenline/backend-bakery/internal/repo"
)

const categoriesCacheKey = "catalog:categories"

// Store is the slice of repo.Queries the catalog needs.
type Store interface {
	ListCategories(ctx context.Context) ([]repo.Category, error)
	ListProducts(ctx context.Context, arg repo.ListProductsParams) ([]repo.Product, error)
	CountProducts(ctx context.Context, query string) (int64, error)
	GetProduct(ctx context.Context, id uuid.UUID) (repo.Product, error)
	CreateProduct(ctx context.Context, arg repo.CreateProductParams) (repo.Product, error)
	UpdateProduct(ctx context.Context, arg repo.UpdateProductParams) (repo.Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int32) (repo.Product, error)
}

// Service serves the product catalog the register browses and admins
// maintain. Reads go through a short-lived Redis cache for categories;
// products are always read fresh because stock moves with every sale.
type Service struct {
	Store        Store
	Cache        *Cache
	DefaultLimit int32
	MaxLimit     int32
}

// ListCategories returns all categories, cached.
func (s *Service) ListCategories(ctx context.Context) ([]repo.Category, error) {
	var cached []repo.Category
	if hit, err := s.Cache.GetJSON(ctx, categoriesCacheKey, &cached); err == nil && hit {
		return cached, nil
	}
	cats, err := s.Store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	_ = s.Cache.SetJSON(ctx, categoriesCacheKey, cats)
	return cats, nil
}

// ListParams captures the product listing filters.
type ListParams struct {
	Query string
	Page  int32
	Limit int32
}

// ListResult is one page of products plus pagination totals.
type ListResult struct {
	Products []repo.Product
	Total    int64
	Page     int32
	Limit    int32
}

func (s *Service) clampPage(p ListParams) (int32, int32) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := p.Limit
	if limit < 1 {
		limit = s.DefaultLimit
	}
	if s.MaxLimit > 0 && limit > s.MaxLimit {
		limit = s.MaxLimit
	}
	return page, limit
}

// ListProducts returns active products matching the optional name search.
func (s *Service) ListProducts(ctx context.Context, p ListParams) (ListResult, error) {
	page, limit := s.clampPage(p)
	products, err := s.Store.ListProducts(ctx, repo.ListProductsParams{
		Query:  p.Query,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("catalog: list products: %w", err)
	}
	total, err := s.Store.CountProducts(ctx, p.Query)
	if err != nil {
		return ListResult{}, fmt.Errorf("catalog: count products: %w", err)
	}
	return ListResult{Products: products, Total: total, Page: page, Limit: limit}, nil
}

// GetProduct loads one product by id.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (repo.Product, error) {
	return s.Store.GetProduct(ctx, id)
}

// CreateProduct adds a product to the catalog.
func (s *Service) CreateProduct(ctx context.Context, arg repo.CreateProductParams) (repo.Product, error) {
	p, err := s.Store.CreateProduct(ctx, arg)
	if err != nil {
		return repo.Product{}, fmt.Errorf("catalog: create product: %w", err)
	}
	return p, nil
}

// UpdateProduct changes mutable product fields.
func (s *Service) UpdateProduct(ctx context.Context, arg repo.UpdateProductParams) (repo.Product, error) {
	p, err := s.Store.UpdateProduct(ctx, arg)
	if err != nil {
		return repo.Product{}, err
	}
	return p, nil
}

// AdjustStock applies a signed stock correction, e.g. a morning bake count
// or a spoilage writedown. It never lets stock go negative.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, delta int32) (repo.Product, error) {
	return s.Store.AdjustStock(ctx, id, delta)
}
