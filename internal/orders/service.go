package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/garagehub/garagehub/internal/shared"
)

// ErrInvalidInput wraps user facing validation failures.
var ErrInvalidInput = fmt.Errorf("orders: invalid input")

type auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

type meter interface {
	OrderFinalized()
}

// CatalogLookup resolves catalog snapshots when a line is added without an
// explicit description or price.
type CatalogLookup struct {
	Product func(ctx context.Context, scope shared.Scope, id int64) (string, decimal.Decimal, error)
	Service func(ctx context.Context, scope shared.Scope, id int64) (string, decimal.Decimal, error)
}

// Service coordinates the service order lifecycle.
type Service struct {
	repo    Repository
	lookup  CatalogLookup
	audit   auditor
	metrics meter
	logger  *slog.Logger
}

// NewService constructs a Service. audit and metrics may be nil.
func NewService(repo Repository, lookup CatalogLookup, audit auditor, metrics meter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, lookup: lookup, audit: audit, metrics: metrics, logger: logger}
}

// ItemInput is one submitted order line.
type ItemInput struct {
	Type        ItemType        `json:"type"`
	ProductID   *int64          `json:"product_id"`
	ServiceID   *int64          `json:"service_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// SaveInput is a full order submission. ID zero creates a new order.
type SaveInput struct {
	ID           int64           `json:"id"`
	ClientID     *int64          `json:"client_id"`
	VehiclePlate string          `json:"vehicle_plate"`
	VehicleBrand string          `json:"vehicle_brand"`
	VehicleModel string          `json:"vehicle_model"`
	Status       Status          `json:"status"`
	Observation  string          `json:"observation"`
	Items        []ItemInput     `json:"items"`
}

// OrderWithItems bundles an order and its lines for reads.
type OrderWithItems struct {
	ServiceOrder
	Items []Item `json:"items"`
}

func (s *Service) List(ctx context.Context, scope shared.Scope, status Status, plate string, page, perPage int) ([]ServiceOrder, shared.Pagination, error) {
	if perPage <= 0 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	if status != "" && !status.Valid() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	list, total, err := s.repo.ListOrders(ctx, ListRequest{
		CompanyID: scope.CompanyID,
		Status:    status,
		Plate:     plate,
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
	})
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page, perPage, total), nil
}

func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (OrderWithItems, error) {
	order, err := s.repo.GetOrder(ctx, scope.CompanyID, id)
	if err != nil {
		return OrderWithItems{}, err
	}
	items, err := s.repo.Items(ctx, id)
	if err != nil {
		return OrderWithItems{}, err
	}
	return OrderWithItems{ServiceOrder: order, Items: items}, nil
}

// Save upserts an order together with its full item list. The submitted
// items replace whatever was stored before; order row and item rows move in
// one transaction so a failure leaves the previous state intact.
func (s *Service) Save(ctx context.Context, scope shared.Scope, input SaveInput) (int64, error) {
	if err := s.validateSave(input); err != nil {
		return 0, err
	}
	items, err := s.snapshotItems(ctx, scope, input.Items)
	if err != nil {
		return 0, err
	}
	total := ComputeTotal(items)

	orderID := input.ID
	err = s.repo.WithinTx(ctx, func(st Store) error {
		order := ServiceOrder{
			ID:           input.ID,
			CompanyID:    scope.CompanyID,
			ClientID:     input.ClientID,
			VehiclePlate: input.VehiclePlate,
			VehicleBrand: input.VehicleBrand,
			VehicleModel: input.VehicleModel,
			Status:       input.Status,
			Observation:  input.Observation,
			Total:        total,
		}
		if input.ID > 0 {
			current, err := st.GetOrderForUpdate(ctx, scope.CompanyID, input.ID)
			if err != nil {
				return err
			}
			if current.Status == StatusCompleted {
				return ErrAlreadyFinalized
			}
			if err := st.UpdateOrder(ctx, order); err != nil {
				return err
			}
		} else {
			id, err := st.InsertOrder(ctx, order)
			if err != nil {
				return err
			}
			orderID = id
		}
		return st.ReplaceItems(ctx, orderID, items)
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// Finalize moves an order to Completed in one transaction: the order row is
// locked, product stock is conditionally deducted line by line, and one paid
// income transaction for the full total is booked against the order. A
// completed order cannot be finalized again.
func (s *Service) Finalize(ctx context.Context, scope shared.Scope, orderID int64) (OrderWithItems, error) {
	if orderID <= 0 {
		return OrderWithItems{}, fmt.Errorf("%w: invalid order reference", ErrInvalidInput)
	}

	var out OrderWithItems
	err := s.repo.WithinTx(ctx, func(st Store) error {
		order, err := st.GetOrderForUpdate(ctx, scope.CompanyID, orderID)
		if err != nil {
			return err
		}
		if order.Status == StatusCompleted {
			return ErrAlreadyFinalized
		}
		items, err := st.Items(ctx, orderID)
		if err != nil {
			return err
		}
		total := ComputeTotal(items)

		for _, it := range items {
			if it.Type != ItemProduct || it.ProductID == nil {
				continue
			}
			if err := st.DecrementStock(ctx, scope.CompanyID, *it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("product %d: %w", *it.ProductID, err)
			}
		}
		if err := st.MarkCompleted(ctx, scope.CompanyID, orderID, total); err != nil {
			return err
		}
		if err := st.InsertIncome(ctx, IncomeEntry{
			CompanyID:   scope.CompanyID,
			Description: fmt.Sprintf("Receita OS #%d - Placa %s", orderID, order.VehiclePlate),
			Amount:      total,
			OrderID:     orderID,
		}); err != nil {
			return err
		}

		order.Status = StatusCompleted
		order.Total = total
		out = OrderWithItems{ServiceOrder: order, Items: items}
		return nil
	})
	if err != nil {
		return OrderWithItems{}, err
	}

	if s.metrics != nil {
		s.metrics.OrderFinalized()
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			CompanyID: scope.CompanyID,
			ActorID:   scope.UserID,
			Action:    "order.finalize",
			Entity:    "service_order",
			EntityID:  strconv.FormatInt(orderID, 10),
			Meta:      map[string]any{"total": out.Total.String(), "plate": out.VehiclePlate},
		}); err != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err))
		}
	}
	return out, nil
}

func (s *Service) validateSave(input SaveInput) error {
	status := input.Status
	if status == "" {
		status = StatusOpen
	}
	switch {
	case !status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	case status == StatusCompleted:
		return fmt.Errorf("%w: completed is set by finalization only", ErrInvalidInput)
	case input.VehiclePlate == "":
		return fmt.Errorf("%w: vehicle plate is required", ErrInvalidInput)
	}
	for i, it := range input.Items {
		switch {
		case it.Type != ItemProduct && it.Type != ItemService:
			return fmt.Errorf("%w: item %d has unknown type %q", ErrInvalidInput, i, it.Type)
		case it.Type == ItemProduct && it.ProductID == nil:
			return fmt.Errorf("%w: item %d is missing a product reference", ErrInvalidInput, i)
		case it.Type == ItemService && it.ServiceID == nil:
			return fmt.Errorf("%w: item %d is missing a service reference", ErrInvalidInput, i)
		case !it.Quantity.IsPositive():
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidInput, i)
		case it.UnitPrice.IsNegative():
			return fmt.Errorf("%w: item %d unit price must not be negative", ErrInvalidInput, i)
		}
	}
	return nil
}

// snapshotItems turns submitted lines into stored items. Lines without a
// description or price are completed from the current catalog; submitted
// values win, so an operator can still override either field.
func (s *Service) snapshotItems(ctx context.Context, scope shared.Scope, inputs []ItemInput) ([]Item, error) {
	items := make([]Item, 0, len(inputs))
	for i, in := range inputs {
		item := Item{
			Type:        in.Type,
			ProductID:   in.ProductID,
			ServiceID:   in.ServiceID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
		}
		if item.Description == "" || item.UnitPrice.IsZero() {
			name, price, err := s.catalogSnapshot(ctx, scope, in)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			if item.Description == "" {
				item.Description = name
			}
			if item.UnitPrice.IsZero() {
				item.UnitPrice = price
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) catalogSnapshot(ctx context.Context, scope shared.Scope, in ItemInput) (string, decimal.Decimal, error) {
	switch {
	case in.Type == ItemProduct && s.lookup.Product != nil:
		return s.lookup.Product(ctx, scope, *in.ProductID)
	case in.Type == ItemService && s.lookup.Service != nil:
		return s.lookup.Service(ctx, scope, *in.ServiceID)
	}
	return in.Description, in.UnitPrice, nil
}

// SetStatus applies a plain status edit outside the finalize path.
func (s *Service) SetStatus(ctx context.Context, scope shared.Scope, orderID int64, status Status) error {
	if !status.Valid() || status == StatusCompleted {
		return fmt.Errorf("%w: unknown or reserved status %q", ErrInvalidInput, status)
	}
	return s.repo.WithinTx(ctx, func(st Store) error {
		order, err := st.GetOrderForUpdate(ctx, scope.CompanyID, orderID)
		if err != nil {
			return err
		}
		if order.Status == StatusCompleted {
			return ErrAlreadyFinalized
		}
		order.Status = status
		return st.UpdateOrder(ctx, order)
	})
}
