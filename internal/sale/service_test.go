package sale_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/repo"
	"github.com/ovenline/backend-bakery/internal/sale"
)

type memState struct {
	sales map[uuid.UUID]repo.Sale
	items map[uuid.UUID][]repo.SaleItem
	stock map[uuid.UUID]int32
}

func (s *memState) clone() *memState {
	out := &memState{
		sales: make(map[uuid.UUID]repo.Sale, len(s.sales)),
		items: make(map[uuid.UUID][]repo.SaleItem, len(s.items)),
		stock: make(map[uuid.UUID]int32, len(s.stock)),
	}
	for k, v := range s.sales {
		out.sales[k] = v
	}
	for k, v := range s.items {
		out.items[k] = append([]repo.SaleItem(nil), v...)
	}
	for k, v := range s.stock {
		out.stock[k] = v
	}
	return out
}

type memDB struct {
	state *memState
}

func newMemDB() *memDB {
	return &memDB{state: &memState{
		sales: map[uuid.UUID]repo.Sale{},
		items: map[uuid.UUID][]repo.SaleItem{},
		stock: map[uuid.UUID]int32{},
	}}
}

func (db *memDB) runTx(_ context.Context, fn func(sale.Store) error) error {
	staged := db.state.clone()
	if err := fn(&memStore{state: staged}); err != nil {
		return err
	}
	db.state = staged
	return nil
}

func (db *memDB) addSale(status string) (uuid.UUID, uuid.UUID) {
	saleID, productID := uuid.New(), uuid.New()
	db.state.sales[saleID] = repo.Sale{
		ID:            saleID,
		InvoiceNumber: "INV-20260831-0001",
		CashierID:     uuid.New(),
		TotalAmount:   decimal.RequireFromString("12.00"),
		PaymentMethod: "cash",
		Status:        status,
		CreatedAt:     time.Now(),
	}
	db.state.items[saleID] = []repo.SaleItem{{
		ID: uuid.New(), SaleID: saleID, ProductID: productID,
		ProductName: "Baguette", Quantity: 3,
		UnitPrice: decimal.RequireFromString("4.00"),
		Subtotal:  decimal.RequireFromString("12.00"),
	}}
	db.state.stock[productID] = 2
	return saleID, productID
}

type memStore struct {
	state       *memState
	restoreFail bool
}

func (m *memStore) GetSale(_ context.Context, id uuid.UUID) (repo.Sale, error) {
	s, ok := m.state.sales[id]
	if !ok {
		return repo.Sale{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *memStore) ListSaleItems(_ context.Context, saleID uuid.UUID) ([]repo.SaleItem, error) {
	return m.state.items[saleID], nil
}

func (m *memStore) ListSales(_ context.Context, _ repo.ListSalesParams) ([]repo.Sale, error) {
	var out []repo.Sale
	for _, s := range m.state.sales {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) CountSales(context.Context) (int64, error) {
	return int64(len(m.state.sales)), nil
}

func (m *memStore) MarkSaleCancelled(_ context.Context, id uuid.UUID) error {
	s, ok := m.state.sales[id]
	if !ok || s.Status != "completed" {
		return pgx.ErrNoRows
	}
	s.Status = "cancelled"
	m.state.sales[id] = s
	return nil
}

func (m *memStore) RestoreStock(_ context.Context, id uuid.UUID, qty int32) error {
	if m.restoreFail {
		return errors.New("connection reset")
	}
	m.state.stock[id] += qty
	return nil
}

func TestCancelRestoresStock(t *testing.T) {
	db := newMemDB()
	saleID, productID := db.addSale("completed")
	svc := &sale.Service{RunTx: db.runTx}

	require.NoError(t, svc.Cancel(context.Background(), saleID))
	require.Equal(t, "cancelled", db.state.sales[saleID].Status)
	require.Equal(t, int32(5), db.state.stock[productID])
}

func TestCancelTwiceFails(t *testing.T) {
	db := newMemDB()
	saleID, productID := db.addSale("completed")
	svc := &sale.Service{RunTx: db.runTx}

	require.NoError(t, svc.Cancel(context.Background(), saleID))
	err := svc.Cancel(context.Background(), saleID)
	require.ErrorIs(t, err, sale.ErrAlreadyCancelled)
	// Stock was restored exactly once.
	require.Equal(t, int32(5), db.state.stock[productID])
}

func TestCancelUnknownSale(t *testing.T) {
	svc := &sale.Service{RunTx: newMemDB().runTx}
	err := svc.Cancel(context.Background(), uuid.New())
	require.ErrorIs(t, err, sale.ErrNotFound)
}

func TestCancelRollsBackOnRestoreFailure(t *testing.T) {
	db := newMemDB()
	saleID, productID := db.addSale("completed")
	svc := &sale.Service{RunTx: func(_ context.Context, fn func(sale.Store) error) error {
		staged := db.state.clone()
		if err := fn(&memStore{state: staged, restoreFail: true}); err != nil {
			return err
		}
		db.state = staged
		return nil
	}}

	err := svc.Cancel(context.Background(), saleID)
	require.Error(t, err)
	// The status flip must not survive the failed restore.
	require.Equal(t, "completed", db.state.sales[saleID].Status)
	require.Equal(t, int32(2), db.state.stock[productID])
}
