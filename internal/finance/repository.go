package finance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ListRequest filters ledger listings.
type ListRequest struct {
	CompanyID int64
	Tab       Tab
	Limit     int
	Offset    int
}

// Totals is the raw aggregate backing Summary.
type Totals struct {
	Income            decimal.Decimal
	Expense           decimal.Decimal
	PendingPayable    decimal.Decimal
	PendingReceivable decimal.Decimal
}

// Repository defines ledger persistence.
type Repository interface {
	List(ctx context.Context, req ListRequest) ([]Transaction, int, error)
	Get(ctx context.Context, companyID, id int64) (Transaction, error)
	Create(ctx context.Context, t Transaction) (int64, error)
	MarkPaid(ctx context.Context, companyID, id int64, paidAt time.Time) error
	Totals(ctx context.Context, companyID int64) (Totals, error)
	CountOverdue(ctx context.Context, asOf time.Time) (map[Type]int, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const txColumns = `id, company_id, type, status, category, description, amount, date, due_date, related_os_id, related_stock_entry_id, created_at`

// tabFilter returns the WHERE fragment for a ledger tab.
func tabFilter(tab Tab) string {
	switch tab {
	case TabPayable:
		return `AND type = 'expense' AND status = 'pending'`
	case TabReceivable:
		return `AND type = 'income' AND status = 'pending'`
	default:
		return `AND status = 'paid'`
	}
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.CompanyID, &t.Type, &t.Status, &t.Category, &t.Description, &t.Amount, &t.Date, &t.DueDate, &t.RelatedOrderID, &t.RelatedStockEntryID, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return t, err
}

func (r *PGRepository) List(ctx context.Context, req ListRequest) ([]Transaction, int, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	filter := tabFilter(req.Tab)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE company_id = $1 `+filter, req.CompanyID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+txColumns+` FROM transactions WHERE company_id = $1 `+filter+` ORDER BY COALESCE(date, due_date, created_at) DESC, id DESC LIMIT $2 OFFSET $3`,
		req.CompanyID, limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, companyID, id int64) (Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE company_id = $1 AND id = $2`, companyID, id))
}

func (r *PGRepository) Create(ctx context.Context, t Transaction) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO transactions (company_id, type, status, category, description, amount, date, due_date, related_os_id, related_stock_entry_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		t.CompanyID, t.Type, t.Status, t.Category, t.Description, t.Amount, t.Date, t.DueDate, t.RelatedOrderID, t.RelatedStockEntryID).Scan(&id)
	return id, err
}

func (r *PGRepository) MarkPaid(ctx context.Context, companyID, id int64, paidAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE transactions SET status = 'paid', date = $1 WHERE company_id = $2 AND id = $3 AND status = 'pending'`,
		paidAt, companyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, companyID, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrAlreadyPaid
	}
	return nil
}

func (r *PGRepository) Totals(ctx context.Context, companyID int64) (Totals, error) {
	var t Totals
	err := r.pool.QueryRow(ctx, `SELECT
		COALESCE(SUM(amount) FILTER (WHERE type = 'income' AND status = 'paid'), 0),
		COALESCE(SUM(amount) FILTER (WHERE type = 'expense' AND status = 'paid'), 0),
		COALESCE(SUM(amount) FILTER (WHERE type = 'expense' AND status = 'pending'), 0),
		COALESCE(SUM(amount) FILTER (WHERE type = 'income' AND status = 'pending'), 0)
	FROM transactions WHERE company_id = $1`, companyID).
		Scan(&t.Income, &t.Expense, &t.PendingPayable, &t.PendingReceivable)
	return t, err
}

// CountOverdue counts pending transactions past their due date across all
// companies. Feeds the operational overdue gauge, not tenant views.
func (r *PGRepository) CountOverdue(ctx context.Context, asOf time.Time) (map[Type]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT type, COUNT(*) FROM transactions WHERE status = 'pending' AND due_date IS NOT NULL AND due_date < $1 GROUP BY type`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[Type]int{}
	for rows.Next() {
		var typ Type
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		out[typ] = n
	}
	return out, rows.Err()
}
