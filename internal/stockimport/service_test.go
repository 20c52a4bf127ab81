package stockimport

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/garagehub/garagehub/internal/shared"
)

type supplierKey struct {
	companyID int64
	cnpj      string
}

type productKey struct {
	companyID  int64
	supplierID int64
	sku        string
}

type entryKey struct {
	companyID int64
	xmlKey    string
}

type memStore struct {
	nextSupplierID int64
	nextEntryID    int64
	suppliers      map[supplierKey]int64
	products       map[productKey]ProductUpsert
	entries        map[entryKey]StockEntry
	expenses       []ExpenseEntry
}

func newMemStore() *memStore {
	return &memStore{
		nextSupplierID: 1,
		nextEntryID:    1,
		suppliers:      map[supplierKey]int64{},
		products:       map[productKey]ProductUpsert{},
		entries:        map[entryKey]StockEntry{},
	}
}

func (m *memStore) WithinTx(_ context.Context, fn func(Store) error) error {
	return fn(m)
}

func (m *memStore) UpsertSupplier(_ context.Context, companyID int64, name, cnpj string) (int64, error) {
	key := supplierKey{companyID, cnpj}
	if id, ok := m.suppliers[key]; ok {
		return id, nil
	}
	id := m.nextSupplierID
	m.nextSupplierID++
	m.suppliers[key] = id
	return id, nil
}

func (m *memStore) UpsertProduct(_ context.Context, p ProductUpsert) error {
	key := productKey{p.CompanyID, p.SupplierID, p.SKU}
	if cur, ok := m.products[key]; ok {
		p.Quantity = cur.Quantity.Add(p.Quantity)
	}
	m.products[key] = p
	return nil
}

func (m *memStore) InsertEntry(_ context.Context, e StockEntry) (int64, error) {
	key := entryKey{e.CompanyID, e.XMLKey}
	if _, ok := m.entries[key]; ok {
		return 0, ErrDuplicateImport
	}
	e.ID = m.nextEntryID
	m.nextEntryID++
	m.entries[key] = e
	return e.ID, nil
}

func (m *memStore) InsertExpense(_ context.Context, e ExpenseEntry) error {
	m.expenses = append(m.expenses, e)
	return nil
}

func (m *memStore) ListEntries(_ context.Context, companyID int64, _, _ int) ([]StockEntry, int, error) {
	var out []StockEntry
	for _, e := range m.entries {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

var testScope = shared.Scope{UserID: 1, CompanyID: 10}

func samplePreview() Preview {
	return Preview{
		Meta: InvoiceMeta{
			SupplierName:  "Auto Pecas Silva LTDA",
			SupplierCNPJ:  "12345678000190",
			XMLKey:        "35260812345678000190550010000001231000001234",
			DeclaredTotal: dec("151.00"),
		},
		Items: []PreviewItem{
			{SKU: "FLT-001", Name: "Filtro de oleo", Unit: "UN", Quantity: dec("4"), UnitCost: dec("10.00"), SellingPrice: dec("13.00")},
			{SKU: "PAS-010", Name: "Pastilha de freio", Unit: "JG", Quantity: dec("2"), UnitCost: dec("55.50"), SellingPrice: dec("72.15")},
		},
	}
}

func TestCommitFreshInvoice(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, dec("30"), nil, nil, nil)

	result, err := svc.Commit(context.Background(), testScope, samplePreview())
	require.NoError(t, err)

	require.Len(t, store.suppliers, 1)
	require.Len(t, store.products, 2)
	require.Len(t, store.entries, 1)
	require.Len(t, store.expenses, 1)

	require.Equal(t, 2, result.ItemCount)
	require.True(t, result.TotalValue.Equal(dec("151.00")))
	require.True(t, result.ItemsValue.Equal(dec("151.00")))

	p := store.products[productKey{10, result.SupplierID, "FLT-001"}]
	require.True(t, p.Quantity.Equal(dec("4")))
	require.True(t, p.CostPrice.Equal(dec("10.00")))
	require.True(t, p.SellingPrice.Equal(dec("13.00")))

	expense := store.expenses[0]
	require.True(t, expense.Amount.Equal(dec("151.00")), "expense books the declared invoice total")
	require.Equal(t, result.StockEntryID, expense.StockEntryID)
	require.NotNil(t, expense.DueDate)
}

func TestRepeatCommitMergesProducts(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, dec("30"), nil, nil, nil)

	first, err := svc.Commit(context.Background(), testScope, samplePreview())
	require.NoError(t, err)

	second := samplePreview()
	second.Meta.XMLKey = "35260812345678000190550010000009999000009999"
	second.Items = []PreviewItem{
		{SKU: "FLT-001", Name: "Filtro de oleo premium", Unit: "UN", Quantity: dec("6"), UnitCost: dec("11.00"), SellingPrice: dec("14.30")},
	}
	second.Meta.DeclaredTotal = dec("66.00")

	result, err := svc.Commit(context.Background(), testScope, second)
	require.NoError(t, err)
	require.Equal(t, first.SupplierID, result.SupplierID, "same CNPJ reuses the supplier")

	// still two product rows; the repeated sku accumulated quantity and
	// took the latest prices and name
	require.Len(t, store.products, 2)
	p := store.products[productKey{10, result.SupplierID, "FLT-001"}]
	require.True(t, p.Quantity.Equal(dec("10")))
	require.True(t, p.CostPrice.Equal(dec("11.00")))
	require.True(t, p.SellingPrice.Equal(dec("14.30")))
	require.Equal(t, "Filtro de oleo premium", p.Name)
}

func TestCommitSameKeyRejected(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, dec("30"), nil, nil, nil)

	_, err := svc.Commit(context.Background(), testScope, samplePreview())
	require.NoError(t, err)

	_, err = svc.Commit(context.Background(), testScope, samplePreview())
	require.ErrorIs(t, err, ErrDuplicateImport)
	require.Len(t, store.expenses, 1)
}

func TestCommitRecordsBothTotals(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, dec("30"), nil, nil, nil)

	// operator edited a line after parsing, so items value diverges from
	// the declared document total
	preview := samplePreview()
	preview.Items[0].UnitCost = dec("9.00")

	result, err := svc.Commit(context.Background(), testScope, preview)
	require.NoError(t, err)
	require.True(t, result.TotalValue.Equal(dec("151.00")))
	require.True(t, result.ItemsValue.Equal(dec("147.00")))

	entry := store.entries[entryKey{10, preview.Meta.XMLKey}]
	require.True(t, entry.TotalValue.Equal(dec("151.00")))
	require.True(t, entry.ItemsValue.Equal(dec("147.00")))
	require.True(t, store.expenses[0].Amount.Equal(dec("151.00")))
}

func TestCommitValidatesPreview(t *testing.T) {
	svc := NewService(newMemStore(), dec("30"), nil, nil, nil)

	broken := samplePreview()
	broken.Meta.XMLKey = ""
	_, err := svc.Commit(context.Background(), testScope, broken)
	require.ErrorIs(t, err, ErrInvalidInput)

	broken = samplePreview()
	broken.Items[0].Quantity = dec("0")
	_, err = svc.Commit(context.Background(), testScope, broken)
	require.ErrorIs(t, err, ErrInvalidInput)

	broken = samplePreview()
	broken.Items = nil
	_, err = svc.Commit(context.Background(), testScope, broken)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseUsesDefaultMargin(t *testing.T) {
	svc := NewService(newMemStore(), dec("30"), nil, nil, nil)

	preview, err := svc.Parse([]byte(sampleInvoice), decimal.Zero)
	require.NoError(t, err)
	require.True(t, preview.Items[0].SellingPrice.Equal(dec("13.00")))

	preview, err = svc.Parse([]byte(sampleInvoice), dec("50"))
	require.NoError(t, err)
	require.True(t, preview.Items[0].SellingPrice.Equal(dec("15.00")))
}
