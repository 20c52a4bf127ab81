package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a stocked part. Prices and quantities are exact decimals;
// quantity may be fractional (fluids, wiring sold by the meter).
type Product struct {
	ID           int64           `json:"id"`
	CompanyID    int64           `json:"company_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`
	Quantity     decimal.Decimal `json:"quantity"`
	SupplierID   *int64          `json:"supplier_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductWithSupplier decorates a product with its supplier name for listings.
type ProductWithSupplier struct {
	Product
	SupplierName *string `json:"supplier_name,omitempty"`
}

// SellingFromMargin derives a selling price: cost plus margin percent,
// rounded to two decimals.
func SellingFromMargin(cost, marginPercent decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	return cost.Mul(one.Add(marginPercent.Div(hundred))).Round(2)
}
