package products

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garagehub/garagehub/internal/shared"
)

// ErrInvalidInput wraps user facing validation failures.
var ErrInvalidInput = fmt.Errorf("products: invalid input")

// Service coordinates product catalog operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, scope shared.Scope, search string, page, perPage int) ([]ProductWithSupplier, shared.Pagination, error) {
	if perPage <= 0 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	items, total, err := s.repo.List(ctx, ListRequest{
		CompanyID: scope.CompanyID,
		Search:    search,
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
	})
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product reference", ErrInvalidInput)
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

// Input carries user supplied product fields.
type Input struct {
	SKU          string
	Name         string
	Description  string
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	ProfitMargin decimal.Decimal
	Quantity     decimal.Decimal
	SupplierID   *int64
}

func (s *Service) Create(ctx context.Context, scope shared.Scope, input Input) (int64, error) {
	p, err := s.fromInput(scope, input)
	if err != nil {
		return 0, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, scope shared.Scope, id int64, input Input) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product reference", ErrInvalidInput)
	}
	p, err := s.fromInput(scope, input)
	if err != nil {
		return err
	}
	p.ID = id
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product reference", ErrInvalidInput)
	}
	return s.repo.Delete(ctx, scope.CompanyID, id)
}

// AdjustStock applies a manual stock correction.
func (s *Service) AdjustStock(ctx context.Context, scope shared.Scope, id int64, delta decimal.Decimal) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product reference", ErrInvalidInput)
	}
	if delta.IsZero() {
		return fmt.Errorf("%w: adjustment must be non zero", ErrInvalidInput)
	}
	return s.repo.AdjustQuantity(ctx, scope.CompanyID, id, delta)
}

func validate(input Input) error {
	switch {
	case input.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case input.CostPrice.IsNegative():
		return fmt.Errorf("%w: cost price must not be negative", ErrInvalidInput)
	case input.SellingPrice.IsNegative():
		return fmt.Errorf("%w: selling price must not be negative", ErrInvalidInput)
	case input.ProfitMargin.IsNegative():
		return fmt.Errorf("%w: profit margin must not be negative", ErrInvalidInput)
	case input.Quantity.IsNegative():
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	case input.SupplierID != nil && *input.SupplierID <= 0:
		return fmt.Errorf("%w: invalid supplier reference", ErrInvalidInput)
	}
	return nil
}

func (s *Service) fromInput(scope shared.Scope, input Input) (Product, error) {
	if err := validate(input); err != nil {
		return Product{}, err
	}
	selling := input.SellingPrice
	// A blank selling price falls back to the margin-derived default.
	if selling.IsZero() && input.ProfitMargin.IsPositive() {
		selling = SellingFromMargin(input.CostPrice, input.ProfitMargin)
	}
	return Product{
		CompanyID:    scope.CompanyID,
		SKU:          input.SKU,
		Name:         input.Name,
		Description:  input.Description,
		CostPrice:    input.CostPrice,
		SellingPrice: selling,
		ProfitMargin: input.ProfitMargin,
		Quantity:     input.Quantity,
		SupplierID:   input.SupplierID,
	}, nil
}
