package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garagehub/garagehub/internal/shared"
)

// Service coordinates ledger operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, scope shared.Scope, tab Tab, page, perPage int) ([]Transaction, shared.Pagination, error) {
	switch tab {
	case "", TabOverview, TabPayable, TabReceivable:
	default:
		return nil, shared.Pagination{}, fmt.Errorf("%w: unknown tab %q", ErrInvalidInput, tab)
	}
	if perPage <= 0 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	list, total, err := s.repo.List(ctx, ListRequest{
		CompanyID: scope.CompanyID,
		Tab:       tab,
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
	})
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page, perPage, total), nil
}

// Summary aggregates the company ledger and attaches pt-BR display strings.
func (s *Service) Summary(ctx context.Context, scope shared.Scope) (Summary, error) {
	t, err := s.repo.Totals(ctx, scope.CompanyID)
	if err != nil {
		return Summary{}, err
	}
	balance := t.Income.Sub(t.Expense)
	return Summary{
		Income:            t.Income,
		Expense:           t.Expense,
		Balance:           balance,
		PendingPayable:    t.PendingPayable,
		PendingReceivable: t.PendingReceivable,

		IncomeDisplay:            shared.FormatBRL(t.Income),
		ExpenseDisplay:           shared.FormatBRL(t.Expense),
		BalanceDisplay:           shared.FormatBRL(balance),
		PendingPayableDisplay:    shared.FormatBRL(t.PendingPayable),
		PendingReceivableDisplay: shared.FormatBRL(t.PendingReceivable),
	}, nil
}

// CreateInput is a manual pending ledger entry.
type CreateInput struct {
	Type        Type            `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     *time.Time      `json:"due_date"`
}

// CreatePending books a manual payable or receivable.
func (s *Service) CreatePending(ctx context.Context, scope shared.Scope, input CreateInput) (int64, error) {
	switch {
	case input.Type != TypeIncome && input.Type != TypeExpense:
		return 0, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, input.Type)
	case !input.Amount.IsPositive():
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	case input.Description == "":
		return 0, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	return s.repo.Create(ctx, Transaction{
		CompanyID:   scope.CompanyID,
		Type:        input.Type,
		Status:      StatusPending,
		Category:    input.Category,
		Description: input.Description,
		Amount:      input.Amount,
		DueDate:     input.DueDate,
	})
}

// MarkPaid settles a pending transaction, stamping the payment date.
func (s *Service) MarkPaid(ctx context.Context, scope shared.Scope, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid transaction reference", ErrInvalidInput)
	}
	return s.repo.MarkPaid(ctx, scope.CompanyID, id, s.now())
}
