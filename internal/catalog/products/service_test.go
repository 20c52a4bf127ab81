package products

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/garagehub/garagehub/internal/shared"
)

type memoryRepo struct {
	nextID int64
	items  map[int64]Product
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, items: map[int64]Product{}}
}

func (m *memoryRepo) List(_ context.Context, req ListRequest) ([]ProductWithSupplier, int, error) {
	var out []ProductWithSupplier
	for _, p := range m.items {
		if p.CompanyID != req.CompanyID {
			continue
		}
		if req.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(req.Search)) {
			continue
		}
		out = append(out, ProductWithSupplier{Product: p})
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, companyID, id int64) (Product, error) {
	p, ok := m.items[id]
	if !ok || p.CompanyID != companyID {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(_ context.Context, p Product) (int64, error) {
	p.ID = m.nextID
	m.nextID++
	m.items[p.ID] = p
	return p.ID, nil
}

func (m *memoryRepo) Update(_ context.Context, p Product) error {
	cur, ok := m.items[p.ID]
	if !ok || cur.CompanyID != p.CompanyID {
		return ErrNotFound
	}
	m.items[p.ID] = p
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, companyID, id int64) error {
	p, ok := m.items[id]
	if !ok || p.CompanyID != companyID {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memoryRepo) AdjustQuantity(_ context.Context, companyID, id int64, delta decimal.Decimal) error {
	p, ok := m.items[id]
	if !ok || p.CompanyID != companyID {
		return ErrNotFound
	}
	next := p.Quantity.Add(delta)
	if next.IsNegative() {
		return ErrInsufficientStock
	}
	p.Quantity = next
	m.items[id] = p
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateDerivesSellingPriceFromMargin(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	scope := shared.Scope{UserID: 1, CompanyID: 10, Role: shared.RoleAdmin}

	id, err := svc.Create(context.Background(), scope, Input{
		Name:         "Oil filter",
		CostPrice:    dec("10.00"),
		ProfitMargin: dec("30"),
		Quantity:     dec("5"),
	})
	require.NoError(t, err)

	p, err := svc.Get(context.Background(), scope, id)
	require.NoError(t, err)
	require.True(t, p.SellingPrice.Equal(dec("13.00")), "got %s", p.SellingPrice)
	require.Equal(t, scope.CompanyID, p.CompanyID)
}

func TestCreateKeepsExplicitSellingPrice(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	scope := shared.Scope{UserID: 1, CompanyID: 10}

	id, err := svc.Create(context.Background(), scope, Input{
		Name:         "Brake pad",
		CostPrice:    dec("40.00"),
		SellingPrice: dec("99.90"),
		ProfitMargin: dec("30"),
	})
	require.NoError(t, err)

	p, err := svc.Get(context.Background(), scope, id)
	require.NoError(t, err)
	require.True(t, p.SellingPrice.Equal(dec("99.90")))
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := NewService(newMemoryRepo())
	scope := shared.Scope{UserID: 1, CompanyID: 10}

	cases := map[string]Input{
		"missing name":   {CostPrice: dec("1")},
		"negative cost":  {Name: "x", CostPrice: dec("-1")},
		"negative stock": {Name: "x", Quantity: dec("-2")},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), scope, input)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestGetIsScopedToCompany(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	owner := shared.Scope{UserID: 1, CompanyID: 10}
	stranger := shared.Scope{UserID: 2, CompanyID: 20}

	id, err := svc.Create(context.Background(), owner, Input{Name: "Spark plug", CostPrice: dec("8")})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), stranger, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdjustStockRejectsNegativeResult(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	scope := shared.Scope{UserID: 1, CompanyID: 10}

	id, err := svc.Create(context.Background(), scope, Input{Name: "Coolant", CostPrice: dec("15"), Quantity: dec("2")})
	require.NoError(t, err)

	err = svc.AdjustStock(context.Background(), scope, id, dec("-3"))
	require.ErrorIs(t, err, ErrInsufficientStock)

	require.NoError(t, svc.AdjustStock(context.Background(), scope, id, dec("-2")))
	p, err := svc.Get(context.Background(), scope, id)
	require.NoError(t, err)
	require.True(t, p.Quantity.IsZero())
}

func TestSellingFromMarginRounds(t *testing.T) {
	got := SellingFromMargin(dec("9.99"), dec("33"))
	require.True(t, got.Equal(dec("13.29")), "got %s", got)
}
