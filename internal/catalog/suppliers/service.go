package suppliers

import (
	"context"
	"errors"
	"strings"

	"github.com/garagehub/garagehub/internal/shared"
)

// Service coordinates supplier operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, scope shared.Scope) ([]Supplier, error) {
	return s.repo.List(ctx, scope.CompanyID)
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, errors.New("suppliers: invalid supplier ID")
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

// LookupOrCreate resolves a supplier by CNPJ, creating it when absent.
func (s *Service) LookupOrCreate(ctx context.Context, scope shared.Scope, name, cnpj string) (int64, error) {
	name = strings.TrimSpace(name)
	cnpj = strings.TrimSpace(cnpj)
	if name == "" {
		return 0, errors.New("suppliers: name is required")
	}
	if cnpj == "" {
		return 0, errors.New("suppliers: cnpj is required")
	}
	return s.repo.Upsert(ctx, Supplier{CompanyID: scope.CompanyID, Name: name, CNPJ: cnpj})
}
