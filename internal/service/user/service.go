package user

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/normalize"
	repo "github.com/Additional-Code/oficina/internal/repository/user"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/user")

type userStore interface {
	Create(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	List(ctx context.Context, role entity.Role, activeOnly bool) ([]entity.User, error)
}

// Service manages staff accounts.
type Service struct {
	users    userStore
	validate *validation.Validator
	logger   *zap.Logger
	cost     int
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Users     *repo.Repository
	Validator *validation.Validator
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Users, p.Validator, p.Logger)
}

func newService(users userStore, v *validation.Validator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, validate: v, logger: logger, cost: bcrypt.DefaultCost}
}

// List returns users, optionally restricted to one role.
func (s *Service) List(ctx context.Context, role string, activeOnly bool) ([]entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.List")
	defer span.End()

	r := entity.Role(normalize.Upper(role))
	if r != "" && !r.Valid() {
		return nil, errorbank.Validation(map[string]string{"role": "must be one of ADMIN MECHANIC ATTENDANT"})
	}
	users, err := s.users.List(ctx, r, activeOnly)
	if err != nil {
		return nil, s.translate(span, err, "failed to list users")
	}
	return users, nil
}

// Mechanics returns the active mechanics, for order assignment.
func (s *Service) Mechanics(ctx context.Context) ([]entity.User, error) {
	return s.List(ctx, string(entity.RoleMechanic), true)
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Get", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load user")
	}
	return u, nil
}

// Create registers an active user with a hashed password.
func (s *Service) Create(ctx context.Context, req dto.UserRequest) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Create")
	defer span.End()

	req.Role = normalize.Upper(req.Role)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, s.translate(span, err, "failed to hash password")
	}

	u := &entity.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Role:         entity.Role(req.Role),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, s.translate(span, err, "failed to create user")
	}
	return u, nil
}

// Update applies the non-nil fields of req.
func (s *Service) Update(ctx context.Context, id int64, req dto.UserUpdateRequest) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Update", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if req.Role != nil {
		r := normalize.Upper(*req.Role)
		req.Role = &r
	}
	if req.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &e
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load user")
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Role != nil {
		u.Role = entity.Role(*req.Role)
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := s.hash(*req.Password)
		if err != nil {
			return nil, s.translate(span, err, "failed to hash password")
		}
		u.PasswordHash = hash
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, s.translate(span, err, "failed to update user")
	}
	return u, nil
}

func (s *Service) hash(password string) (string, error) {
	raw, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *Service) translate(span trace.Span, err error, message string) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
		span.SetStatus(codes.Error, string(appErr.Kind()))
		return appErr
	case errors.Is(err, repo.ErrNotFound):
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("user not found")
	case database.IsUniqueViolation(err):
		span.SetStatus(codes.Error, "conflict")
		return errorbank.Conflict("a user with this email already exists",
			errorbank.WithField("email", "already registered"), errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error(message, zap.Error(err))
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
