package sale

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ovenline/backend-bakery/internal/events"
	"github.com/ovenline/backend-bakery/internal/obs"
	"github.com/ovenline/backend-bakery/internal/repo"
)

// ErrNotFound is returned when a sale id does not exist.
var ErrNotFound = errors.New("sale: not found")

// ErrAlreadyCancelled is returned when cancelling a sale twice.
var ErrAlreadyCancelled = errors.New("sale: already cancelled")

// Store is the slice of repo.Queries the sale module needs inside a
// transaction.
type Store interface {
	GetSale(ctx context.Context, id uuid.UUID) (repo.Sale, error)
	ListSaleItems(ctx context.Context, saleID uuid.UUID) ([]repo.SaleItem, error)
	ListSales(ctx context.Context, arg repo.ListSalesParams) ([]repo.Sale, error)
	CountSales(ctx context.Context) (int64, error)
	MarkSaleCancelled(ctx context.Context, id uuid.UUID) error
	RestoreStock(ctx context.Context, id uuid.UUID, qty int32) error
}

// Service serves sale history and handles cancellation. Cancellation flips
// the status and restores the sold stock in one transaction so the shelf
// count never drifts from the books.
type Service struct {
	Q      *repo.Queries
	Pool   *pgxpool.Pool
	Events *events.Bus

	// RunTx overrides transaction execution for tests.
	RunTx func(ctx context.Context, fn func(Store) error) error
}

// Detail is a sale with its line items.
type Detail struct {
	Sale  repo.Sale
	Items []repo.SaleItem
}

// List returns one page of sales, newest first, with the total count.
func (s *Service) List(ctx context.Context, limit, offset int32) ([]repo.Sale, int64, error) {
	sales, err := s.Q.ListSales(ctx, repo.ListSalesParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, fmt.Errorf("sale: list: %w", err)
	}
	total, err := s.Q.CountSales(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("sale: count: %w", err)
	}
	return sales, total, nil
}

// Get loads a sale with its items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Detail, error) {
	sl, err := s.Q.GetSale(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, fmt.Errorf("sale: load: %w", err)
	}
	items, err := s.Q.ListSaleItems(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("sale: load items: %w", err)
	}
	return Detail{Sale: sl, Items: items}, nil
}

// Cancel voids a completed sale and puts its stock back on the shelf.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	var cancelled repo.Sale
	err := s.runTx(ctx, func(q Store) error {
		sl, err := q.GetSale(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("sale: load: %w", err)
		}
		if sl.Status != "completed" {
			return ErrAlreadyCancelled
		}
		if err := q.MarkSaleCancelled(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAlreadyCancelled
			}
			return fmt.Errorf("sale: mark cancelled: %w", err)
		}
		items, err := q.ListSaleItems(ctx, id)
		if err != nil {
			return fmt.Errorf("sale: load items: %w", err)
		}
		for _, it := range items {
			if err := q.RestoreStock(ctx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("sale: restore stock for %s: %w", it.ProductID, err)
			}
		}
		cancelled = sl
		return nil
	})
	if err != nil {
		return err
	}
	if obs.SaleCancelledTotal != nil {
		obs.SaleCancelledTotal.Inc()
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicSaleCancelled, id, map[string]any{
			"saleId":        id.String(),
			"invoiceNumber": cancelled.InvoiceNumber,
			"totalAmount":   cancelled.TotalAmount.StringFixed(2),
		})
	}
	return nil
}

func (s *Service) runTx(ctx context.Context, fn func(Store) error) error {
	if s.RunTx != nil {
		return s.RunTx(ctx, fn)
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("sale: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(s.Q.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("sale: commit tx: %w", err)
	}
	return nil
}
