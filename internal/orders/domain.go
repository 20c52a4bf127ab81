package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a service order.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ItemType discriminates product and labor lines.
type ItemType string

const (
	ItemProduct ItemType = "product"
	ItemService ItemType = "service"
)

var (
	// ErrNotFound indicates the order does not exist in this company.
	ErrNotFound = errors.New("orders: not found")
	// ErrAlreadyFinalized is returned when a completed order is finalized or edited again.
	ErrAlreadyFinalized = errors.New("orders: already finalized")
	// ErrInsufficientStock is returned when finalization would drive product stock negative.
	ErrInsufficientStock = errors.New("orders: insufficient stock")
)

// ServiceOrder is a work order for one vehicle.
type ServiceOrder struct {
	ID           int64           `json:"id"`
	CompanyID    int64           `json:"company_id"`
	ClientID     *int64          `json:"client_id"`
	VehiclePlate string          `json:"vehicle_plate"`
	VehicleBrand string          `json:"vehicle_brand"`
	VehicleModel string          `json:"vehicle_model"`
	Status       Status          `json:"status"`
	Observation  string          `json:"observation"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Item is one line of a service order. Description and UnitPrice are
// snapshots taken when the line was added; later catalog changes do not
// touch existing orders.
type Item struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	Type        ItemType        `json:"type"`
	ProductID   *int64          `json:"product_id"`
	ServiceID   *int64          `json:"service_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal is quantity times unit price.
func (i Item) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// ComputeTotal sums quantity times unit price over all items. An empty
// list totals zero.
func ComputeTotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
