package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/garagehub/garagehub/internal/platform/db"
)

// ListRequest filters order listings.
type ListRequest struct {
	CompanyID int64
	Status    Status
	Plate     string
	Limit     int
	Offset    int
}

// IncomeEntry is the revenue booking written when an order is finalized.
type IncomeEntry struct {
	CompanyID   int64
	Description string
	Amount      decimal.Decimal
	OrderID     int64
}

// Store is the persistence surface the order workflows run against. Within
// WithinTx every Store call shares one database transaction.
type Store interface {
	GetOrder(ctx context.Context, companyID, id int64) (ServiceOrder, error)
	GetOrderForUpdate(ctx context.Context, companyID, id int64) (ServiceOrder, error)
	ListOrders(ctx context.Context, req ListRequest) ([]ServiceOrder, int, error)
	InsertOrder(ctx context.Context, o ServiceOrder) (int64, error)
	UpdateOrder(ctx context.Context, o ServiceOrder) error
	Items(ctx context.Context, orderID int64) ([]Item, error)
	ReplaceItems(ctx context.Context, orderID int64, items []Item) error
	MarkCompleted(ctx context.Context, companyID, id int64, total decimal.Decimal) error
	DecrementStock(ctx context.Context, companyID, productID int64, qty decimal.Decimal) error
	InsertIncome(ctx context.Context, entry IncomeEntry) error
}

// Repository is a Store that can also open transactional scopes.
type Repository interface {
	Store
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
	q    querier
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool, q: pool}
}

// WithinTx runs fn with a Store bound to a single transaction.
func (r *PGRepository) WithinTx(ctx context.Context, fn func(Store) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&PGRepository{pool: r.pool, q: tx})
	})
}

const orderColumns = `id, company_id, client_id, vehicle_plate, vehicle_brand, vehicle_model, status, observation, total, created_at, updated_at`

func scanOrder(row pgx.Row) (ServiceOrder, error) {
	var o ServiceOrder
	err := row.Scan(&o.ID, &o.CompanyID, &o.ClientID, &o.VehiclePlate, &o.VehicleBrand, &o.VehicleModel, &o.Status, &o.Observation, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ServiceOrder{}, ErrNotFound
	}
	return o, err
}

func (r *PGRepository) GetOrder(ctx context.Context, companyID, id int64) (ServiceOrder, error) {
	return scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM service_orders WHERE company_id = $1 AND id = $2`, companyID, id))
}

func (r *PGRepository) GetOrderForUpdate(ctx context.Context, companyID, id int64) (ServiceOrder, error) {
	return scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM service_orders WHERE company_id = $1 AND id = $2 FOR UPDATE`, companyID, id))
}

func (r *PGRepository) ListOrders(ctx context.Context, req ListRequest) ([]ServiceOrder, int, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	plate := "%" + req.Plate + "%"

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM service_orders WHERE company_id = $1 AND ($2 = '' OR status = $2) AND ($3 = '%%' OR vehicle_plate ILIKE $3)`,
		req.CompanyID, string(req.Status), plate).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.Query(ctx, `SELECT `+orderColumns+` FROM service_orders WHERE company_id = $1 AND ($2 = '' OR status = $2) AND ($3 = '%%' OR vehicle_plate ILIKE $3) ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		req.CompanyID, string(req.Status), plate, limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ServiceOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) InsertOrder(ctx context.Context, o ServiceOrder) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `INSERT INTO service_orders (company_id, client_id, vehicle_plate, vehicle_brand, vehicle_model, status, observation, total) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		o.CompanyID, o.ClientID, o.VehiclePlate, o.VehicleBrand, o.VehicleModel, o.Status, o.Observation, o.Total).Scan(&id)
	return id, err
}

func (r *PGRepository) UpdateOrder(ctx context.Context, o ServiceOrder) error {
	tag, err := r.q.Exec(ctx, `UPDATE service_orders SET client_id = $1, vehicle_plate = $2, vehicle_brand = $3, vehicle_model = $4, status = $5, observation = $6, total = $7, updated_at = NOW() WHERE company_id = $8 AND id = $9`,
		o.ClientID, o.VehiclePlate, o.VehicleBrand, o.VehicleModel, o.Status, o.Observation, o.Total, o.CompanyID, o.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Items(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.q.Query(ctx, `SELECT id, service_order_id, item_type, product_id, service_id, description, quantity, unit_price FROM service_order_items WHERE service_order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Type, &it.ProductID, &it.ServiceID, &it.Description, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *PGRepository) ReplaceItems(ctx context.Context, orderID int64, items []Item) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM service_order_items WHERE service_order_id = $1`, orderID); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := r.q.Exec(ctx, `INSERT INTO service_order_items (service_order_id, item_type, product_id, service_id, description, quantity, unit_price) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			orderID, it.Type, it.ProductID, it.ServiceID, it.Description, it.Quantity, it.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepository) MarkCompleted(ctx context.Context, companyID, id int64, total decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE service_orders SET status = $1, total = $2, updated_at = NOW() WHERE company_id = $3 AND id = $4`,
		StatusCompleted, total, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) DecrementStock(ctx context.Context, companyID, productID int64, qty decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE products SET quantity = quantity - $1, updated_at = NOW() WHERE company_id = $2 AND id = $3 AND quantity >= $1`,
		qty, companyID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE company_id = $1 AND id = $2)`, companyID, productID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *PGRepository) InsertIncome(ctx context.Context, entry IncomeEntry) error {
	_, err := r.q.Exec(ctx, `INSERT INTO transactions (company_id, type, status, category, description, amount, date, related_os_id) VALUES ($1, 'income', 'paid', 'service_order', $2, $3, NOW(), $4)`,
		entry.CompanyID, entry.Description, entry.Amount, entry.OrderID)
	return err
}
