package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garagehub/garagehub/internal/shared"
)

// ErrInvalidInput wraps user facing validation failures.
var ErrInvalidInput = fmt.Errorf("services: invalid input")

// Catalog coordinates the labor service catalog.
type Catalog struct {
	repo Repository
}

// NewCatalog constructs a Catalog.
func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) List(ctx context.Context, scope shared.Scope, search string, page, perPage int) ([]Service, shared.Pagination, error) {
	if perPage <= 0 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	items, total, err := c.repo.List(ctx, ListRequest{
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

func (c *Catalog) Get(ctx context.Context, scope shared.Scope, id int64) (Service, error) {
	if id <= 0 {
		return Service{}, fmt.Errorf("%w: invalid service reference", ErrInvalidInput)
	}
	return c.repo.Get(ctx, scope.CompanyID, id)
}

// Input carries user supplied service fields.
type Input struct {
	Name        string
	Description string
	Price       decimal.Decimal
}

func (c *Catalog) Create(ctx context.Context, scope shared.Scope, input Input) (int64, error) {
	if err := validate(input); err != nil {
		return 0, err
	}
	return c.repo.Create(ctx, Service{
		CompanyID:   scope.CompanyID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
	})
}

func (c *Catalog) Update(ctx context.Context, scope shared.Scope, id int64, input Input) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid service reference", ErrInvalidInput)
	}
	if err := validate(input); err != nil {
		return err
	}
	return c.repo.Update(ctx, Service{
		ID:          id,
		CompanyID:   scope.CompanyID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
	})
}

func (c *Catalog) Delete(ctx context.Context, scope shared.Scope, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid service reference", ErrInvalidInput)
	}
	return c.repo.Delete(ctx, scope.CompanyID, id)
}

func validate(input Input) error {
	switch {
	case input.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case input.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}
