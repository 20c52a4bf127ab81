package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the service does not exist in this company.
var ErrNotFound = errors.New("services: not found")

// ListRequest filters service listings.
type ListRequest struct {
	CompanyID int64
	Search    string
	Limit     int
	Offset    int
}

// Repository defines labor service persistence.
type Repository interface {
	List(ctx context.Context, req ListRequest) ([]Service, int, error)
	Get(ctx context.Context, companyID, id int64) (Service, error)
	Create(ctx context.Context, s Service) (int64, error)
	Update(ctx context.Context, s Service) error
	Delete(ctx context.Context, companyID, id int64) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const serviceColumns = `id, company_id, name, description, price, created_at, updated_at`

func (r *PGRepository) List(ctx context.Context, req ListRequest) ([]Service, int, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	search := "%" + req.Search + "%"

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM services WHERE company_id = $1 AND ($2 = '%%' OR name ILIKE $2)`, req.CompanyID, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+serviceColumns+` FROM services WHERE company_id = $1 AND ($2 = '%%' OR name ILIKE $2) ORDER BY name LIMIT $3 OFFSET $4`,
		req.CompanyID, search, limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.Name, &s.Description, &s.Price, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, companyID, id int64) (Service, error) {
	var s Service
	err := r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE company_id = $1 AND id = $2`, companyID, id).
		Scan(&s.ID, &s.CompanyID, &s.Name, &s.Description, &s.Price, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, ErrNotFound
		}
		return Service{}, err
	}
	return s, nil
}

func (r *PGRepository) Create(ctx context.Context, s Service) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO services (company_id, name, description, price) VALUES ($1, $2, $3, $4) RETURNING id`,
		s.CompanyID, s.Name, s.Description, s.Price).Scan(&id)
	return id, err
}

func (r *PGRepository) Update(ctx context.Context, s Service) error {
	tag, err := r.pool.Exec(ctx, `UPDATE services SET name = $1, description = $2, price = $3, updated_at = NOW() WHERE company_id = $4 AND id = $5`,
		s.Name, s.Description, s.Price, s.CompanyID, s.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
