package stockimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garagehub/garagehub/internal/shared"
)

// ErrInvalidInput wraps user facing validation failures.
var ErrInvalidInput = fmt.Errorf("stockimport: invalid input")

type auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

type meter interface {
	ImportCommitted()
}

// Service coordinates invoice parsing and the import commit.
type Service struct {
	repo          Repository
	defaultMargin decimal.Decimal
	idempotency   *shared.IdempotencyStore
	audit         auditor
	metrics       meter
	logger        *slog.Logger
}

// NewService constructs a Service. audit and metrics may be nil.
func NewService(repo Repository, defaultMargin decimal.Decimal, audit auditor, metrics meter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, defaultMargin: defaultMargin, audit: audit, metrics: metrics, logger: logger}
}

// WithIdempotencyStore installs a cross-request duplicate guard: the invoice
// key is reserved before the transaction opens, so two concurrent commits of
// the same document cannot both proceed to the catalog writes.
func (s *Service) WithIdempotencyStore(store *shared.IdempotencyStore) *Service {
	s.idempotency = store
	return s
}

// Parse stages an invoice for review. A zero margin falls back to the
// configured default markup.
func (s *Service) Parse(rawXML []byte, marginPercent decimal.Decimal) (Preview, error) {
	if len(rawXML) == 0 {
		return Preview{}, parseErrorf("empty document")
	}
	if marginPercent.IsZero() {
		marginPercent = s.defaultMargin
	}
	if marginPercent.IsNegative() {
		return Preview{}, fmt.Errorf("%w: margin must not be negative", ErrInvalidInput)
	}
	return ParseInvoice(rawXML, marginPercent)
}

// CommitResult reports what a committed import produced.
type CommitResult struct {
	StockEntryID int64           `json:"stock_entry_id"`
	SupplierID   int64           `json:"supplier_id"`
	ItemCount    int             `json:"item_count"`
	TotalValue   decimal.Decimal `json:"total_value"`
	ItemsValue   decimal.Decimal `json:"items_value"`
}

// Commit applies a reviewed preview in one transaction: the supplier is
// upserted by CNPJ, every line is merged into the product catalog with
// additive stock, one stock entry records the import, and one pending
// expense is booked for the declared invoice total. A document key that was
// already committed for the company is rejected.
func (s *Service) Commit(ctx context.Context, scope shared.Scope, preview Preview) (CommitResult, error) {
	if err := validatePreview(preview); err != nil {
		return CommitResult{}, err
	}

	idemKey := fmt.Sprintf("stockimport:%d:%s", scope.CompanyID, preview.Meta.XMLKey)
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idemKey, "stockimport"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return CommitResult{}, ErrDuplicateImport
			}
			return CommitResult{}, err
		}
	}

	itemsValue := preview.ItemsValue()
	var result CommitResult
	err := s.repo.WithinTx(ctx, func(st Store) error {
		supplierID, err := st.UpsertSupplier(ctx, scope.CompanyID, preview.Meta.SupplierName, preview.Meta.SupplierCNPJ)
		if err != nil {
			return err
		}
		for i, item := range preview.Items {
			if err := st.UpsertProduct(ctx, ProductUpsert{
				CompanyID:    scope.CompanyID,
				SupplierID:   supplierID,
				SKU:          item.SKU,
				Name:         item.Name,
				Quantity:     item.Quantity,
				CostPrice:    item.UnitCost,
				SellingPrice: item.SellingPrice,
			}); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		entryID, err := st.InsertEntry(ctx, StockEntry{
			CompanyID:  scope.CompanyID,
			SupplierID: supplierID,
			XMLKey:     preview.Meta.XMLKey,
			TotalValue: preview.Meta.DeclaredTotal,
			ItemsValue: itemsValue,
			ItemCount:  len(preview.Items),
			CreatedBy:  scope.UserID,
		})
		if err != nil {
			return err
		}
		// 30 day terms by default; the payable stays editable in the ledger
		due := time.Now().AddDate(0, 0, 30)
		if err := st.InsertExpense(ctx, ExpenseEntry{
			CompanyID:    scope.CompanyID,
			StockEntryID: entryID,
			Description:  fmt.Sprintf("Compra NF - %s", preview.Meta.SupplierName),
			Amount:       preview.Meta.DeclaredTotal,
			DueDate:      &due,
		}); err != nil {
			return err
		}
		result = CommitResult{
			StockEntryID: entryID,
			SupplierID:   supplierID,
			ItemCount:    len(preview.Items),
			TotalValue:   preview.Meta.DeclaredTotal,
			ItemsValue:   itemsValue,
		}
		return nil
	})
	if err != nil {
		// free the key so a corrected preview can be resubmitted
		if s.idempotency != nil && !errors.Is(err, ErrDuplicateImport) {
			if relErr := s.idempotency.Delete(ctx, idemKey); relErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", relErr))
			}
		}
		return CommitResult{}, err
	}

	if s.metrics != nil {
		s.metrics.ImportCommitted()
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			CompanyID: scope.CompanyID,
			ActorID:   scope.UserID,
			Action:    "stock.import",
			Entity:    "stock_entry",
			EntityID:  strconv.FormatInt(result.StockEntryID, 10),
			Meta: map[string]any{
				"xml_key":     preview.Meta.XMLKey,
				"supplier":    preview.Meta.SupplierName,
				"total_value": preview.Meta.DeclaredTotal.String(),
				"items_value": itemsValue.String(),
			},
		}); err != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err))
		}
	}
	return result, nil
}

// ListEntries pages through committed imports.
func (s *Service) ListEntries(ctx context.Context, scope shared.Scope, page, perPage int) ([]StockEntry, shared.Pagination, error) {
	if perPage <= 0 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	entries, total, err := s.repo.ListEntries(ctx, scope.CompanyID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(page, perPage, total), nil
}

func validatePreview(p Preview) error {
	switch {
	case p.Meta.SupplierName == "" || p.Meta.SupplierCNPJ == "":
		return fmt.Errorf("%w: supplier name and CNPJ are required", ErrInvalidInput)
	case p.Meta.XMLKey == "":
		return fmt.Errorf("%w: document key is required", ErrInvalidInput)
	case len(p.Items) == 0:
		return fmt.Errorf("%w: no items to import", ErrInvalidInput)
	case p.Meta.DeclaredTotal.IsNegative():
		return fmt.Errorf("%w: declared total must not be negative", ErrInvalidInput)
	}
	for i, item := range p.Items {
		switch {
		case item.SKU == "" || item.Name == "":
			return fmt.Errorf("%w: item %d is missing sku or name", ErrInvalidInput, i)
		case !item.Quantity.IsPositive():
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidInput, i)
		case item.UnitCost.IsNegative():
			return fmt.Errorf("%w: item %d unit cost must not be negative", ErrInvalidInput, i)
		case item.SellingPrice.IsNegative():
			return fmt.Errorf("%w: item %d selling price must not be negative", ErrInvalidInput, i)
		}
	}
	return nil
}
