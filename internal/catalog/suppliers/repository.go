package suppliers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the supplier does not exist in this company.
var ErrNotFound = errors.New("suppliers: not found")

// Repository defines supplier persistence.
type Repository interface {
	List(ctx context.Context, companyID int64) ([]Supplier, error)
	Get(ctx context.Context, companyID, id int64) (Supplier, error)
	FindByCNPJ(ctx context.Context, companyID int64, cnpj string) (Supplier, error)
	Upsert(ctx context.Context, supplier Supplier) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) List(ctx context.Context, companyID int64) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, name, cnpj, created_at FROM suppliers WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.Name, &s.CNPJ, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, companyID, id int64) (Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, name, cnpj, created_at FROM suppliers WHERE company_id = $1 AND id = $2`, companyID, id).
		Scan(&s.ID, &s.CompanyID, &s.Name, &s.CNPJ, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, ErrNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

func (r *PGRepository) FindByCNPJ(ctx context.Context, companyID int64, cnpj string) (Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, name, cnpj, created_at FROM suppliers WHERE company_id = $1 AND cnpj = $2`, companyID, cnpj).
		Scan(&s.ID, &s.CompanyID, &s.Name, &s.CNPJ, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, ErrNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

// Upsert inserts the supplier or refreshes its name when the CNPJ already
// exists for the company. The unique constraint makes concurrent imports of
// the same supplier converge on a single row.
func (r *PGRepository) Upsert(ctx context.Context, supplier Supplier) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO suppliers (company_id, name, cnpj, created_at) VALUES ($1, $2, $3, NOW())
ON CONFLICT (company_id, cnpj) DO UPDATE SET name = EXCLUDED.name RETURNING id`, supplier.CompanyID, supplier.Name, supplier.CNPJ).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
