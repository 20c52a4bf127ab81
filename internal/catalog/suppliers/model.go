package suppliers

import "time"

// Supplier represents a parts supplier, keyed per company by CNPJ.
type Supplier struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	CNPJ      string    `json:"cnpj"`
	CreatedAt time.Time `json:"created_at"`
}
