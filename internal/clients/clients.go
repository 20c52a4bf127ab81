package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garagehub/garagehub/internal/shared"
)

var (
	// ErrNotFound indicates the client does not exist in this company.
	ErrNotFound = errors.New("clients: not found")
	// ErrInvalidInput wraps user facing validation failures.
	ErrInvalidInput = fmt.Errorf("clients: invalid input")
)

// Client is a vehicle owner served by the shop.
type Client struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Document  string    `json:"document"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines client persistence.
type Repository interface {
	List(ctx context.Context, companyID int64, search string) ([]Client, error)
	Get(ctx context.Context, companyID, id int64) (Client, error)
	Create(ctx context.Context, c Client) (int64, error)
	Update(ctx context.Context, c Client) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) List(ctx context.Context, companyID int64, search string) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, name, phone, email, document, created_at FROM clients WHERE company_id = $1 AND ($2 = '%%' OR name ILIKE $2) ORDER BY name LIMIT 200`,
		companyID, "%"+search+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Phone, &c.Email, &c.Document, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, companyID, id int64) (Client, error) {
	var c Client
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, name, phone, email, document, created_at FROM clients WHERE company_id = $1 AND id = $2`, companyID, id).
		Scan(&c.ID, &c.CompanyID, &c.Name, &c.Phone, &c.Email, &c.Document, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	return c, nil
}

func (r *PGRepository) Create(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO clients (company_id, name, phone, email, document) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		c.CompanyID, c.Name, c.Phone, c.Email, c.Document).Scan(&id)
	return id, err
}

func (r *PGRepository) Update(ctx context.Context, c Client) error {
	tag, err := r.pool.Exec(ctx, `UPDATE clients SET name = $1, phone = $2, email = $3, document = $4 WHERE company_id = $5 AND id = $6`,
		c.Name, c.Phone, c.Email, c.Document, c.CompanyID, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Service coordinates client registry operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, scope shared.Scope, search string) ([]Client, error) {
	return s.repo.List(ctx, scope.CompanyID, search)
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (Client, error) {
	if id <= 0 {
		return Client{}, fmt.Errorf("%w: invalid client reference", ErrInvalidInput)
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

func (s *Service) Create(ctx context.Context, scope shared.Scope, c Client) (int64, error) {
	if c.Name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	c.CompanyID = scope.CompanyID
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, c Client) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid client reference", ErrInvalidInput)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	c.ID = id
	c.CompanyID = scope.CompanyID
	return s.repo.Update(ctx, c)
}
