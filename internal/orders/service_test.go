package orders

import (
	"context"
	"maps"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/garagehub/garagehub/internal/shared"
)

type memStore struct {
	nextOrderID int64
	nextItemID  int64
	orders      map[int64]ServiceOrder
	items       map[int64][]Item
	stock       map[int64]decimal.Decimal
	incomes     []IncomeEntry
}

func newMemStore() *memStore {
	return &memStore{
		nextOrderID: 1,
		nextItemID:  1,
		orders:      map[int64]ServiceOrder{},
		items:       map[int64][]Item{},
		stock:       map[int64]decimal.Decimal{},
	}
}

// WithinTx snapshots state up front and restores it when fn fails, matching
// the rollback behavior of the real repository.
func (m *memStore) WithinTx(_ context.Context, fn func(Store) error) error {
	orders := maps.Clone(m.orders)
	items := map[int64][]Item{}
	for k, v := range m.items {
		items[k] = slices.Clone(v)
	}
	stock := maps.Clone(m.stock)
	incomes := slices.Clone(m.incomes)

	if err := fn(m); err != nil {
		m.orders, m.items, m.stock, m.incomes = orders, items, stock, incomes
		return err
	}
	return nil
}

func (m *memStore) GetOrder(_ context.Context, companyID, id int64) (ServiceOrder, error) {
	o, ok := m.orders[id]
	if !ok || o.CompanyID != companyID {
		return ServiceOrder{}, ErrNotFound
	}
	return o, nil
}

func (m *memStore) GetOrderForUpdate(ctx context.Context, companyID, id int64) (ServiceOrder, error) {
	return m.GetOrder(ctx, companyID, id)
}

func (m *memStore) ListOrders(_ context.Context, req ListRequest) ([]ServiceOrder, int, error) {
	var out []ServiceOrder
	for _, o := range m.orders {
		if o.CompanyID != req.CompanyID {
			continue
		}
		if req.Status != "" && o.Status != req.Status {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (m *memStore) InsertOrder(_ context.Context, o ServiceOrder) (int64, error) {
	o.ID = m.nextOrderID
	m.nextOrderID++
	m.orders[o.ID] = o
	return o.ID, nil
}

func (m *memStore) UpdateOrder(_ context.Context, o ServiceOrder) error {
	cur, ok := m.orders[o.ID]
	if !ok || cur.CompanyID != o.CompanyID {
		return ErrNotFound
	}
	m.orders[o.ID] = o
	return nil
}

func (m *memStore) Items(_ context.Context, orderID int64) ([]Item, error) {
	return slices.Clone(m.items[orderID]), nil
}

func (m *memStore) ReplaceItems(_ context.Context, orderID int64, items []Item) error {
	stored := make([]Item, 0, len(items))
	for _, it := range items {
		it.ID = m.nextItemID
		m.nextItemID++
		it.OrderID = orderID
		stored = append(stored, it)
	}
	m.items[orderID] = stored
	return nil
}

func (m *memStore) MarkCompleted(_ context.Context, companyID, id int64, total decimal.Decimal) error {
	o, ok := m.orders[id]
	if !ok || o.CompanyID != companyID {
		return ErrNotFound
	}
	o.Status = StatusCompleted
	o.Total = total
	m.orders[id] = o
	return nil
}

func (m *memStore) DecrementStock(_ context.Context, _, productID int64, qty decimal.Decimal) error {
	cur, ok := m.stock[productID]
	if !ok {
		return ErrNotFound
	}
	if cur.LessThan(qty) {
		return ErrInsufficientStock
	}
	m.stock[productID] = cur.Sub(qty)
	return nil
}

func (m *memStore) InsertIncome(_ context.Context, entry IncomeEntry) error {
	m.incomes = append(m.incomes, entry)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(v int64) *int64 { return &v }

var testScope = shared.Scope{UserID: 1, CompanyID: 10, Role: shared.RoleAdmin}

func newTestService(store *memStore) *Service {
	return NewService(store, CatalogLookup{}, nil, nil, nil)
}

func TestComputeTotal(t *testing.T) {
	require.True(t, ComputeTotal(nil).IsZero())

	items := []Item{
		{Quantity: dec("2"), UnitPrice: dec("50.00")},
		{Quantity: dec("1"), UnitPrice: dec("30.00")},
	}
	require.True(t, ComputeTotal(items).Equal(dec("130.00")))

	// decimal math stays exact where float accumulation would drift
	var cents []Item
	for range 10 {
		cents = append(cents, Item{Quantity: dec("1"), UnitPrice: dec("0.10")})
	}
	require.True(t, ComputeTotal(cents).Equal(dec("1.00")))
}

func saveOrder(t *testing.T, svc *Service, input SaveInput) int64 {
	t.Helper()
	id, err := svc.Save(context.Background(), testScope, input)
	require.NoError(t, err)
	return id
}

func TestSaveReplacesItems(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	id := saveOrder(t, svc, SaveInput{
		VehiclePlate: "ABC1D23",
		Items: []ItemInput{
			{Type: ItemProduct, ProductID: ptr(7), Description: "Oil filter", Quantity: dec("1"), UnitPrice: dec("25.00")},
			{Type: ItemService, ServiceID: ptr(3), Description: "Oil change", Quantity: dec("1"), UnitPrice: dec("60.00")},
		},
	})

	saveOrder(t, svc, SaveInput{
		ID:           id,
		VehiclePlate: "ABC1D23",
		Items: []ItemInput{
			{Type: ItemService, ServiceID: ptr(4), Description: "Alignment", Quantity: dec("1"), UnitPrice: dec("80.00")},
		},
	})

	got, err := svc.Get(context.Background(), testScope, id)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, "Alignment", got.Items[0].Description)
	require.True(t, got.Total.Equal(dec("80.00")))
}

func TestSaveSnapshotsCatalogPrice(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, CatalogLookup{
		Product: func(_ context.Context, _ shared.Scope, id int64) (string, decimal.Decimal, error) {
			require.EqualValues(t, 7, id)
			return "Oil filter", dec("25.00"), nil
		},
	}, nil, nil, nil)

	id := saveOrder(t, svc, SaveInput{
		VehiclePlate: "ABC1D23",
		Items:        []ItemInput{{Type: ItemProduct, ProductID: ptr(7), Quantity: dec("2")}},
	})

	got, err := svc.Get(context.Background(), testScope, id)
	require.NoError(t, err)
	require.Equal(t, "Oil filter", got.Items[0].Description)
	require.True(t, got.Items[0].UnitPrice.Equal(dec("25.00")))
	require.True(t, got.Total.Equal(dec("50.00")))
}

func TestSaveRejectsCompletedStatus(t *testing.T) {
	svc := newTestService(newMemStore())
	_, err := svc.Save(context.Background(), testScope, SaveInput{
		VehiclePlate: "ABC1D23",
		Status:       StatusCompleted,
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestFinalizeDeductsStockAndBooksIncome(t *testing.T) {
	store := newMemStore()
	store.stock[7] = dec("5")
	svc := newTestService(store)

	id := saveOrder(t, svc, SaveInput{
		VehiclePlate: "XYZ9A88",
		Items: []ItemInput{
			{Type: ItemProduct, ProductID: ptr(7), Description: "Brake pads", Quantity: dec("2"), UnitPrice: dec("50.00")},
			{Type: ItemService, ServiceID: ptr(3), Description: "Brake service", Quantity: dec("1"), UnitPrice: dec("30.00")},
		},
	})

	got, err := svc.Finalize(context.Background(), testScope, id)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)
	require.True(t, got.Total.Equal(dec("130.00")))

	require.True(t, store.stock[7].Equal(dec("3")))
	require.Len(t, store.incomes, 1)
	require.True(t, store.incomes[0].Amount.Equal(dec("130.00")))
	require.Equal(t, id, store.incomes[0].OrderID)
	require.Contains(t, store.incomes[0].Description, "XYZ9A88")
}

func TestFinalizeTwiceFails(t *testing.T) {
	store := newMemStore()
	store.stock[7] = dec("5")
	svc := newTestService(store)

	id := saveOrder(t, svc, SaveInput{
		VehiclePlate: "XYZ9A88",
		Items:        []ItemInput{{Type: ItemProduct, ProductID: ptr(7), Description: "Brake pads", Quantity: dec("2"), UnitPrice: dec("50.00")}},
	})

	_, err := svc.Finalize(context.Background(), testScope, id)
	require.NoError(t, err)

	_, err = svc.Finalize(context.Background(), testScope, id)
	require.ErrorIs(t, err, ErrAlreadyFinalized)

	// side effects happened exactly once
	require.True(t, store.stock[7].Equal(dec("3")))
	require.Len(t, store.incomes, 1)
}

func TestFinalizeInsufficientStockRollsBack(t *testing.T) {
	store := newMemStore()
	store.stock[7] = dec("1")
	svc := newTestService(store)

	id := saveOrder(t, svc, SaveInput{
		VehiclePlate: "XYZ9A88",
		Items:        []ItemInput{{Type: ItemProduct, ProductID: ptr(7), Description: "Brake pads", Quantity: dec("2"), UnitPrice: dec("50.00")}},
	})

	_, err := svc.Finalize(context.Background(), testScope, id)
	require.ErrorIs(t, err, ErrInsufficientStock)

	got, err := svc.Get(context.Background(), testScope, id)
	require.NoError(t, err)
	require.Equal(t, StatusOpen, got.Status)
	require.True(t, store.stock[7].Equal(dec("1")))
	require.Empty(t, store.incomes)
}

func TestFinalizeVanishedProductIsNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	id := saveOrder(t, svc, SaveInput{
		VehiclePlate: "XYZ9A88",
		Items:        []ItemInput{{Type: ItemProduct, ProductID: ptr(99), Description: "Brake pads", Quantity: dec("1"), UnitPrice: dec("50.00")}},
	})

	_, err := svc.Finalize(context.Background(), testScope, id)
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrInsufficientStock)

	got, err := svc.Get(context.Background(), testScope, id)
	require.NoError(t, err)
	require.Equal(t, StatusOpen, got.Status)
	require.Empty(t, store.incomes)
}

func TestEditingFinalizedOrderFails(t *testing.T) {
	store := newMemStore()
	store.stock[7] = dec("5")
	svc := newTestService(store)

	id := saveOrder(t, svc, SaveInput{
		VehiclePlate: "XYZ9A88",
		Items:        []ItemInput{{Type: ItemProduct, ProductID: ptr(7), Description: "Brake pads", Quantity: dec("1"), UnitPrice: dec("50.00")}},
	})
	_, err := svc.Finalize(context.Background(), testScope, id)
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), testScope, SaveInput{ID: id, VehiclePlate: "XYZ9A88"})
	require.ErrorIs(t, err, ErrAlreadyFinalized)

	err = svc.SetStatus(context.Background(), testScope, id, StatusCancelled)
	require.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestOrdersAreScopedToCompany(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	id := saveOrder(t, svc, SaveInput{VehiclePlate: "ABC1D23"})

	stranger := shared.Scope{UserID: 9, CompanyID: 99}
	_, err := svc.Get(context.Background(), stranger, id)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Finalize(context.Background(), stranger, id)
	require.ErrorIs(t, err, ErrNotFound)
}
