package serviceorder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/event"
	"github.com/Additional-Code/oficina/internal/normalize"
	"github.com/Additional-Code/oficina/internal/observability"
	clientrepo "github.com/Additional-Code/oficina/internal/repository/client"
	repo "github.com/Additional-Code/oficina/internal/repository/serviceorder"
	vehiclerepo "github.com/Additional-Code/oficina/internal/repository/vehicle"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/serviceorder")

type orderStore interface {
	Insert(ctx context.Context, db bun.IDB, order *entity.ServiceOrder) error
	List(ctx context.Context, filter dto.OrderFilter) ([]dto.OrderRow, error)
	GetByID(ctx context.Context, id int64) (*dto.OrderRow, error)
	History(ctx context.Context, vehicleID int64) ([]dto.OrderRow, error)
	UpdateDetails(ctx context.Context, id int64, d repo.Details) error
	LockStatus(ctx context.Context, db bun.IDB, id int64) (repo.StatusRow, error)
	SetStatus(ctx context.Context, db bun.IDB, id int64, status entity.OrderStatus) error
}

type clientResolver interface {
	Resolve(ctx context.Context, db bun.IDB, c *entity.Client) (int64, error)
}

type vehicleUpserter interface {
	UpsertByPlate(ctx context.Context, db bun.IDB, v *entity.Vehicle) (int64, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, fn database.TxFunc) error
}

// Service runs service order intake and lifecycle.
type Service struct {
	orders    orderStore
	clients   clientResolver
	vehicles  vehicleUpserter
	tx        txRunner
	cache     cache.Store
	publisher *event.Publisher
	metrics   *observability.Metrics
	validate  *validation.Validator
	logger    *zap.Logger
	shop      config.Shop
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders    *repo.Repository
	Clients   *clientrepo.Repository
	Vehicles  *vehiclerepo.Repository
	DB        *database.Connections
	Cache     cache.Store
	Publisher *event.Publisher
	Metrics   *observability.Metrics
	Validator *validation.Validator
	Config    config.Config
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Orders, p.Clients, p.Vehicles, p.DB, p.Cache, p.Publisher, p.Metrics, p.Validator, p.Config.Shop, p.Logger)
}

func newService(
	orders orderStore,
	clients clientResolver,
	vehicles vehicleUpserter,
	tx txRunner,
	store cache.Store,
	publisher *event.Publisher,
	metrics *observability.Metrics,
	validate *validation.Validator,
	shop config.Shop,
	logger *zap.Logger,
) *Service {
	if store == nil {
		store = cache.NewNoopStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if shop.OrderListLimit <= 0 {
		shop.OrderListLimit = 100
	}
	if shop.OrderMaxLimit < shop.OrderListLimit {
		shop.OrderMaxLimit = shop.OrderListLimit
	}
	return &Service{
		orders:    orders,
		clients:   clients,
		vehicles:  vehicles,
		tx:        tx,
		cache:     store,
		publisher: publisher,
		metrics:   metrics,
		validate:  validate,
		logger:    logger,
		shop:      shop,
	}
}

// Open registers a vehicle on the yard: it resolves the client by phone or
// document, upserts the vehicle by plate and inserts an OPEN order, all in one
// transaction. Conflicts with concurrent intakes retry the whole transaction.
func (s *Service) Open(ctx context.Context, req dto.IntakeRequest) (dto.IntakeResult, error) {
	ctx, span := serviceTracer.Start(ctx, "ServiceOrderService.Open")
	defer span.End()

	if err := s.validate.Validate(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.IntakeResult{}, err
	}

	client, vehicle, order, err := s.intakeRows(req)
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.IntakeResult{}, err
	}
	span.SetAttributes(attribute.String("vehicle.plate", vehicle.Plate))

	var result dto.IntakeResult
	err = database.Retry(ctx, s.shop.IntakeMaxAttempts, func(int) error {
		return s.tx.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
			c := client
			clientID, err := s.clients.Resolve(ctx, tx, &c)
			if err != nil {
				return fmt.Errorf("resolve client: %w", err)
			}

			v := vehicle
			v.ClientID = clientID
			vehicleID, err := s.vehicles.UpsertByPlate(ctx, tx, &v)
			if err != nil {
				return fmt.Errorf("upsert vehicle: %w", err)
			}

			o := order
			o.ClientID = clientID
			o.VehicleID = vehicleID
			if err := s.orders.Insert(ctx, tx, &o); err != nil {
				return fmt.Errorf("insert service order: %w", err)
			}

			result = dto.IntakeResult{
				OrderID:     o.ID,
				OrderNumber: o.Number,
				ClientID:    clientID,
				VehicleID:   vehicleID,
			}
			return nil
		})
	}, func(attempt int, err error) {
		s.logger.Warn("service order intake conflict, retrying",
			zap.Int("attempt", attempt),
			zap.String("plate", vehicle.Plate),
			zap.String("constraint", database.Constraint(err)),
			zap.Error(err),
		)
	})
	if database.IsUniqueViolation(err) && !database.IsRetryable(err) {
		span.SetStatus(codes.Error, "conflict")
		return dto.IntakeResult{}, errorbank.Conflict("intake conflicts with an existing record",
			errorbank.WithCause(err), errorbank.WithDetail("constraint", database.Constraint(err)))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "intake failed")
		s.logger.Error("service order intake failed", zap.String("plate", vehicle.Plate), zap.Error(err))
		return dto.IntakeResult{}, errorbank.Internal("failed to open service order", errorbank.WithCause(err))
	}

	span.SetAttributes(attribute.Int64("order.id", result.OrderID), attribute.Int64("order.number", result.OrderNumber))

	s.publisher.Publish(ctx, event.ServiceOrderOpened, event.OrderKey(result.OrderID), event.OrderOpened{
		OrderID:   result.OrderID,
		Number:    result.OrderNumber,
		ClientID:  result.ClientID,
		VehicleID: result.VehicleID,
	})
	s.invalidateBoard(ctx)
	s.metrics.OrderOpened(ctx)

	return result, nil
}

// intakeRows normalises an intake request into the rows it will write.
func (s *Service) intakeRows(req dto.IntakeRequest) (entity.Client, entity.Vehicle, entity.ServiceOrder, error) {
	fields := map[string]string{}

	client := entity.Client{
		Name:     strings.TrimSpace(req.ClientName),
		Email:    normalize.Email(req.ClientEmail),
		Phone:    normalize.Phone(req.ClientPhone, s.shop.PhoneRegion),
		Document: normalize.Document(req.ClientDocument),
	}
	if client.Name == "" {
		fields["clientName"] = "is required"
	}
	if client.Phone == "" {
		fields["clientPhone"] = "must contain digits"
	}

	vehicle := entity.Vehicle{
		Plate: normalize.Plate(req.VehiclePlate),
		VIN:   normalize.Optional(normalize.Upper(req.VehicleVIN)),
		Model: strings.TrimSpace(req.VehicleModel),
		Brand: strings.TrimSpace(req.VehicleBrand),
		Year:  req.VehicleYear.Ptr(),
	}
	if vehicle.Plate == "" {
		fields["vehiclePlate"] = "must contain letters or digits"
	}
	if vehicle.Model == "" {
		fields["vehicleModel"] = "is required"
	}
	if vehicle.Brand == "" {
		fields["vehicleBrand"] = "is required"
	}

	if req.KM.Value < 0 {
		fields["km"] = "must be zero or greater"
	}
	order := entity.ServiceOrder{
		Status:       entity.StatusOpen,
		KM:           req.KM.Value,
		FuelLevel:    normalize.Optional(req.FuelLevel),
		Mechanic:     normalize.Optional(req.Mechanic),
		ClientReport: strings.TrimSpace(req.ClientReport),
		Observations: normalize.Optional(req.Observations),
	}
	if order.ClientReport == "" {
		fields["clientReport"] = "is required"
	}

	if len(fields) > 0 {
		return entity.Client{}, entity.Vehicle{}, entity.ServiceOrder{}, errorbank.Validation(fields)
	}
	return client, vehicle, order, nil
}

// List returns joined order rows, newest entry first. Limit defaults to the
// configured list size and is capped at the configured maximum.
func (s *Service) List(ctx context.Context, filter dto.OrderFilter) ([]dto.OrderRow, error) {
	ctx, span := serviceTracer.Start(ctx, "ServiceOrderService.List")
	defer span.End()

	switch {
	case filter.Limit <= 0:
		filter.Limit = s.shop.OrderListLimit
	case filter.Limit > s.shop.OrderMaxLimit:
		filter.Limit = s.shop.OrderMaxLimit
	}

	statuses := make([]string, 0, len(filter.Statuses))
	for _, raw := range filter.Statuses {
		raw = strings.ToUpper(strings.TrimSpace(raw))
		if raw == "" {
			continue
		}
		status, err := entity.ParseOrderStatus(raw)
		if err != nil {
			return nil, errorbank.BadRequest("invalid status filter", errorbank.WithDetail("status", raw))
		}
		statuses = append(statuses, string(status))
	}
	filter.Statuses = statuses

	rows, err := s.orders.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("list service orders", zap.Error(err))
		return nil, errorbank.Internal("failed to list service orders", errorbank.WithCause(err))
	}
	return rows, nil
}

// Get returns one order with its client and vehicle.
func (s *Service) Get(ctx context.Context, id int64) (*dto.OrderRow, error) {
	ctx, span := serviceTracer.Start(ctx, "ServiceOrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	row, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load service order")
	}
	return row, nil
}

// History returns every order of one vehicle.
func (s *Service) History(ctx context.Context, vehicleID int64) ([]dto.OrderRow, error) {
	ctx, span := serviceTracer.Start(ctx, "ServiceOrderService.History", trace.WithAttributes(attribute.Int64("vehicle.id", vehicleID)))
	defer span.End()

	rows, err := s.orders.History(ctx, vehicleID)
	if err != nil {
		return nil, s.translate(span, err, "failed to load vehicle history")
	}
	return rows, nil
}

// Update edits the descriptive fields of an order.
func (s *Service) Update(ctx context.Context, id int64, req dto.UpdateOrderRequest) (*dto.OrderRow, error) {
	ctx, span := serviceTracer.Start(ctx, "ServiceOrderService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	details := repo.Details{
		FuelLevel:    req.FuelLevel,
		Mechanic:     req.Mechanic,
		Observations: req.Observations,
	}
	if req.KM != nil {
		if !req.KM.Valid || req.KM.Value < 0 {
			return nil, errorbank.Validation(map[string]string{"km": "must be zero or greater"})
		}
		km := req.KM.Value
		details.KM = &km
	}
	if req.ClientReport != nil {
		report := strings.TrimSpace(*req.ClientReport)
		if report == "" {
			return nil, errorbank.Validation(map[string]string{"clientReport": "is required"})
		}
		details.ClientReport = &report
	}
	if details.Empty() {
		return nil, errorbank.BadRequest("nothing to update")
	}

	if err := s.orders.UpdateDetails(ctx, id, details); err != nil {
		return nil, s.translate(span, err, "failed to update service order")
	}
	s.invalidateBoard(ctx)

	return s.Get(ctx, id)
}

// ChangeStatus moves an order along the lifecycle. Moving to the current
// status is a no-op; any other move must be a legal transition.
func (s *Service) ChangeStatus(ctx context.Context, id int64, req dto.ChangeStatusRequest) (*dto.OrderRow, error) {
	ctx, span := serviceTracer.Start(ctx, "ServiceOrderService.ChangeStatus", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	next, err := entity.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if err != nil {
		return nil, errorbank.Validation(map[string]string{"status": "is not a known service order status"})
	}
	span.SetAttributes(attribute.String("order.status", string(next)))

	var (
		current repo.StatusRow
		changed bool
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		row, err := s.orders.LockStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		current = row
		if row.Status == next {
			return nil
		}
		if !row.Status.CanTransitionTo(next) {
			return errorbank.Unprocessable(
				fmt.Sprintf("cannot move service order from %s to %s", row.Status, next),
				errorbank.WithDetail("from", string(row.Status)),
				errorbank.WithDetail("to", string(next)),
			)
		}
		if err := s.orders.SetStatus(ctx, tx, id, next); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, s.translate(span, err, "failed to change service order status")
	}

	if changed {
		s.publisher.Publish(ctx, event.ServiceOrderStatusChanged, event.OrderKey(id), event.OrderStatusChanged{
			OrderID: id,
			Number:  current.Number,
			From:    string(current.Status),
			To:      string(next),
		})
		s.invalidateBoard(ctx)
		s.metrics.StatusChanged(ctx, string(current.Status), string(next))
	}

	return s.Get(ctx, id)
}

func (s *Service) invalidateBoard(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.PatioBoardKey); err != nil {
		s.logger.Warn("patio cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) translate(span trace.Span, err error, message string) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
		span.SetStatus(codes.Error, string(appErr.Kind()))
		return appErr
	case errors.Is(err, repo.ErrNotFound):
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("service order not found")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error(message, zap.Error(err))
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
