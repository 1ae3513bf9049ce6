package seeder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/entity"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups. Every step is
// idempotent.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// All runs every seed step in dependency order.
func (s *Seeder) All(ctx context.Context, adminPassword string) error {
	if err := s.Users(ctx, adminPassword); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := s.CostCenters(ctx); err != nil {
		return fmt.Errorf("seed cost centers: %w", err)
	}
	if err := s.Catalog(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

// Users seeds one admin and one mechanic if they are missing.
func (s *Seeder) Users(ctx context.Context, adminPassword string) error {
	if len(adminPassword) < 8 {
		return errors.New("admin password must have at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	samples := []entity.User{
		{Name: "Administrador", Email: "admin@oficina.local", Role: entity.RoleAdmin, PasswordHash: string(hash), IsActive: true},
		{Name: "Mecânico Padrão", Email: "mecanico@oficina.local", Role: entity.RoleMechanic, PasswordHash: string(hash), IsActive: true},
	}
	for _, sample := range samples {
		user := sample
		if _, err := s.db.NewInsert().Model(&user).
			On("CONFLICT (email) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("seeded users", zap.Int("count", len(samples)))
	return nil
}

// CostCenters seeds the default cost centers.
func (s *Seeder) CostCenters(ctx context.Context) error {
	names := []string{"Oficina", "Balcão", "Administrativo"}
	for _, name := range names {
		cc := entity.CostCenter{Name: name, IsActive: true}
		if _, err := s.db.NewInsert().Model(&cc).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("seeded cost centers", zap.Int("count", len(names)))
	return nil
}

// Catalog seeds a parts supplier and a handful of common parts.
func (s *Seeder) Catalog(ctx context.Context) error {
	supplierID, err := s.supplier(ctx, "Distribuidora Auto Peças", entity.SupplierParts)
	if err != nil {
		return err
	}

	filters, oils := "Filtros", "Lubrificantes"
	samples := []entity.Part{
		{SKU: "FLT-OLEO-01", Name: "Filtro de óleo", Price: decimal.RequireFromString("45.00"), Cost: decimal.RequireFromString("22.50"), Stock: 20, MinStock: 5, Unit: "UN", Category: &filters},
		{SKU: "FLT-AR-01", Name: "Filtro de ar", Price: decimal.RequireFromString("60.00"), Cost: decimal.RequireFromString("31.00"), Stock: 12, MinStock: 4, Unit: "UN", Category: &filters},
		{SKU: "OLEO-5W30", Name: "Óleo 5W30 sintético", Price: decimal.RequireFromString("52.90"), Cost: decimal.RequireFromString("29.90"), Stock: 40, MinStock: 10, Unit: "L", Category: &oils},
		{SKU: "PAST-FREIO-D", Name: "Pastilha de freio dianteira", Price: decimal.RequireFromString("139.90"), Cost: decimal.RequireFromString("70.00"), Stock: 3, MinStock: 4, Unit: "JG"},
	}
	for _, sample := range samples {
		part := sample
		part.SupplierID = &supplierID
		if _, err := s.db.NewInsert().Model(&part).
			On("CONFLICT (sku) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("seeded catalog", zap.Int("parts", len(samples)))
	return nil
}

func (s *Seeder) supplier(ctx context.Context, name string, typ entity.SupplierType) (int64, error) {
	var existing entity.Supplier
	err := s.db.NewSelect().Model(&existing).Column("id").Where("name = ?", name).Limit(1).Scan(ctx)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	sup := entity.Supplier{Name: name, Type: typ, IsActive: true}
	if _, err := s.db.NewInsert().Model(&sup).Returning("id").Exec(ctx); err != nil {
		return 0, err
	}
	return sup.ID, nil
}
