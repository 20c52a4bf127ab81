package stockimport

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/garagehub/garagehub/internal/platform/db"
)

// ErrDuplicateImport is returned when an invoice key was already committed
// for the company.
var ErrDuplicateImport = errors.New("stockimport: invoice already imported")

// StockEntry is the audit row written for each committed invoice. It keeps
// the declared invoice total next to the recomputed items value so the two
// can be reconciled later.
type StockEntry struct {
	ID           int64           `json:"id"`
	CompanyID    int64           `json:"company_id"`
	SupplierID   int64           `json:"supplier_id"`
	XMLKey       string          `json:"xml_key"`
	SupplierName string          `json:"supplier_name"`
	TotalValue   decimal.Decimal `json:"total_value"`
	ItemsValue   decimal.Decimal `json:"items_value"`
	ItemCount    int             `json:"item_count"`
	CreatedBy    int64           `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ProductUpsert is one catalog write derived from an invoice line.
type ProductUpsert struct {
	CompanyID    int64
	SupplierID   int64
	SKU          string
	Name         string
	Quantity     decimal.Decimal
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
}

// ExpenseEntry is the payable booked against a committed invoice.
type ExpenseEntry struct {
	CompanyID    int64
	StockEntryID int64
	Description  string
	Amount       decimal.Decimal
	DueDate      *time.Time
}

// Store is the persistence surface the import commit runs against. Within
// WithinTx every Store call shares one database transaction.
type Store interface {
	UpsertSupplier(ctx context.Context, companyID int64, name, cnpj string) (int64, error)
	UpsertProduct(ctx context.Context, p ProductUpsert) error
	InsertEntry(ctx context.Context, e StockEntry) (int64, error)
	InsertExpense(ctx context.Context, e ExpenseEntry) error
}

// Repository is a Store that can also open transactional scopes and read
// back committed entries.
type Repository interface {
	Store
	WithinTx(ctx context.Context, fn func(Store) error) error
	ListEntries(ctx context.Context, companyID int64, limit, offset int) ([]StockEntry, int, error)
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

func (r *PGRepository) UpsertSupplier(ctx context.Context, companyID int64, name, cnpj string) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `INSERT INTO suppliers (company_id, name, cnpj) VALUES ($1, $2, $3) ON CONFLICT (company_id, cnpj) DO UPDATE SET name = EXCLUDED.name RETURNING id`,
		companyID, name, cnpj).Scan(&id)
	return id, err
}

// The unique index backing this upsert is partial (supplier_id IS NOT NULL),
// so the conflict target must repeat the predicate for Postgres to infer it
// as the arbiter.
const upsertProductSQL = `INSERT INTO products (company_id, supplier_id, sku, name, quantity, cost_price, selling_price)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (company_id, supplier_id, sku) WHERE supplier_id IS NOT NULL DO UPDATE SET
		name = EXCLUDED.name,
		quantity = products.quantity + EXCLUDED.quantity,
		cost_price = EXCLUDED.cost_price,
		selling_price = EXCLUDED.selling_price,
		updated_at = NOW()`

func (r *PGRepository) UpsertProduct(ctx context.Context, p ProductUpsert) error {
	_, err := r.q.Exec(ctx, upsertProductSQL,
		p.CompanyID, p.SupplierID, p.SKU, p.Name, p.Quantity, p.CostPrice, p.SellingPrice)
	return err
}

func (r *PGRepository) InsertEntry(ctx context.Context, e StockEntry) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `INSERT INTO stock_entries (company_id, supplier_id, xml_key, total_value, items_value, item_count, created_by) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		e.CompanyID, e.SupplierID, e.XMLKey, e.TotalValue, e.ItemsValue, e.ItemCount, e.CreatedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateImport
		}
		return 0, err
	}
	return id, nil
}

func (r *PGRepository) InsertExpense(ctx context.Context, e ExpenseEntry) error {
	_, err := r.q.Exec(ctx, `INSERT INTO transactions (company_id, type, status, category, description, amount, due_date, related_stock_entry_id) VALUES ($1, 'expense', 'pending', 'stock_purchase', $2, $3, $4, $5)`,
		e.CompanyID, e.Description, e.Amount, e.DueDate, e.StockEntryID)
	return err
}

func (r *PGRepository) ListEntries(ctx context.Context, companyID int64, limit, offset int) ([]StockEntry, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_entries WHERE company_id = $1`, companyID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.Query(ctx, `SELECT e.id, e.company_id, e.supplier_id, e.xml_key, s.name, e.total_value, e.items_value, e.item_count, e.created_by, e.created_at
		FROM stock_entries e JOIN suppliers s ON s.id = e.supplier_id
		WHERE e.company_id = $1 ORDER BY e.created_at DESC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []StockEntry
	for rows.Next() {
		var e StockEntry
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.SupplierID, &e.XMLKey, &e.SupplierName, &e.TotalValue, &e.ItemsValue, &e.ItemCount, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}
