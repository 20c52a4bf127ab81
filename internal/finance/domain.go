package finance

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Type discriminates money in from money out.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// PaymentStatus tracks whether a transaction has been settled.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
)

// Tab selects a ledger view.
type Tab string

const (
	TabOverview   Tab = "overview"
	TabPayable    Tab = "payable"
	TabReceivable Tab = "receivable"
)

var (
	// ErrNotFound indicates the transaction does not exist in this company.
	ErrNotFound = errors.New("finance: not found")
	// ErrAlreadyPaid is returned when a settled transaction is marked paid again.
	ErrAlreadyPaid = errors.New("finance: already paid")
	// ErrInvalidInput wraps user facing validation failures.
	ErrInvalidInput = fmt.Errorf("finance: invalid input")
)

// Transaction is one ledger row. Income rows booked by order finalization
// carry RelatedOrderID; expense rows booked by invoice import carry
// RelatedStockEntryID.
type Transaction struct {
	ID                  int64           `json:"id"`
	CompanyID           int64           `json:"company_id"`
	Type                Type            `json:"type"`
	Status              PaymentStatus   `json:"status"`
	Category            string          `json:"category"`
	Description         string          `json:"description"`
	Amount              decimal.Decimal `json:"amount"`
	Date                *time.Time      `json:"date"`
	DueDate             *time.Time      `json:"due_date"`
	RelatedOrderID      *int64          `json:"related_os_id"`
	RelatedStockEntryID *int64          `json:"related_stock_entry_id"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Summary aggregates the ledger for the dashboard header. The formatted
// fields carry pt-BR currency strings for display.
type Summary struct {
	Income            decimal.Decimal `json:"income"`
	Expense           decimal.Decimal `json:"expense"`
	Balance           decimal.Decimal `json:"balance"`
	PendingPayable    decimal.Decimal `json:"pending_payable"`
	PendingReceivable decimal.Decimal `json:"pending_receivable"`

	IncomeDisplay            string `json:"income_display"`
	ExpenseDisplay           string `json:"expense_display"`
	BalanceDisplay           string `json:"balance_display"`
	PendingPayableDisplay    string `json:"pending_payable_display"`
	PendingReceivableDisplay string `json:"pending_receivable_display"`
}
