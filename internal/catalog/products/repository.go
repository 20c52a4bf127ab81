package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the product does not exist in this company.
	ErrNotFound = errors.New("products: not found")
	// ErrInsufficientStock is returned when a decrement would drive quantity negative.
	ErrInsufficientStock = errors.New("products: insufficient stock")
)

// ListRequest filters product listings.
type ListRequest struct {
	CompanyID int64
	Search    string
	Limit     int
	Offset    int
}

// Repository defines product persistence.
type Repository interface {
	List(ctx context.Context, req ListRequest) ([]ProductWithSupplier, int, error)
	Get(ctx context.Context, companyID, id int64) (Product, error)
	Create(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, companyID, id int64) error
	AdjustQuantity(ctx context.Context, companyID, id int64, delta decimal.Decimal) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const productColumns = `p.id, p.company_id, p.sku, p.name, p.description, p.cost_price, p.selling_price, p.profit_margin, p.quantity, p.supplier_id, p.created_at, p.updated_at`

func (r *PGRepository) List(ctx context.Context, req ListRequest) ([]ProductWithSupplier, int, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	search := "%" + req.Search + "%"

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p WHERE p.company_id = $1 AND ($2 = '%%' OR p.name ILIKE $2 OR p.sku ILIKE $2)`, req.CompanyID, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+`, s.name AS supplier_name
FROM products p LEFT JOIN suppliers s ON s.id = p.supplier_id
WHERE p.company_id = $1 AND ($2 = '%%' OR p.name ILIKE $2 OR p.sku ILIKE $2)
ORDER BY p.name LIMIT $3 OFFSET $4`, req.CompanyID, search, limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ProductWithSupplier
	for rows.Next() {
		var p ProductWithSupplier
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.Description, &p.CostPrice, &p.SellingPrice, &p.ProfitMargin, &p.Quantity, &p.SupplierID, &p.CreatedAt, &p.UpdatedAt, &p.SupplierName); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, companyID, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.company_id = $1 AND p.id = $2`, companyID, id).
		Scan(&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.Description, &p.CostPrice, &p.SellingPrice, &p.ProfitMargin, &p.Quantity, &p.SupplierID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PGRepository) Create(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO products (company_id, sku, name, description, cost_price, selling_price, profit_margin, quantity, supplier_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()) RETURNING id`,
		p.CompanyID, p.SKU, p.Name, p.Description, p.CostPrice, p.SellingPrice, p.ProfitMargin, p.Quantity, p.SupplierID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PGRepository) Update(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET sku = $1, name = $2, description = $3, cost_price = $4, selling_price = $5, profit_margin = $6, quantity = $7, supplier_id = $8, updated_at = NOW()
WHERE company_id = $9 AND id = $10`,
		p.SKU, p.Name, p.Description, p.CostPrice, p.SellingPrice, p.ProfitMargin, p.Quantity, p.SupplierID, p.CompanyID, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustQuantity applies a stock delta as a single conditional update.
// A negative delta only succeeds while enough stock remains, which keeps
// concurrent decrements from losing updates or going below zero.
func (r *PGRepository) AdjustQuantity(ctx context.Context, companyID, id int64, delta decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET quantity = quantity + $1, updated_at = NOW()
WHERE company_id = $2 AND id = $3 AND quantity + $1 >= 0`, delta, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, companyID, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}
