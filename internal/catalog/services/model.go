package services

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a labor item offered by the shop, priced per execution.
type Service struct {
	ID          int64           `json:"id"`
	CompanyID   int64           `json:"company_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
