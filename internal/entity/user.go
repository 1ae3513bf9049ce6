package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Role is a staff role.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleMechanic  Role = "MECHANIC"
	RoleAttendant Role = "ATTENDANT"
)

// Valid reports whether r is known.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMechanic || r == RoleAttendant
}

// User is a staff member. PasswordHash never leaves the service.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:",pk,autoincrement" json:"id"`
	Name         string    `bun:",notnull" json:"name"`
	Email        string    `bun:",notnull" json:"email"`
	Role         Role      `bun:",notnull" json:"role"`
	PasswordHash string    `bun:",notnull" json:"-"`
	IsActive     bool      `bun:",notnull" json:"isActive"`
	CreatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// LegacyOrder is a historical work order migrated from the paper system.
type LegacyOrder struct {
	bun.BaseModel `bun:"table:legacy_orders,alias:lo"`

	ID                 int64           `bun:",pk,autoincrement" json:"id"`
	LegacyNumber       string          `bun:",notnull" json:"legacyNumber"`
	ClientName         string          `bun:",notnull" json:"clientName"`
	VehiclePlate       *string         `bun:"vehicle_plate" json:"vehiclePlate"`
	VehicleDescription *string         `bun:"vehicle_description" json:"vehicleDescription"`
	ServiceDate        *time.Time      `bun:"service_date,type:date" json:"serviceDate"`
	Description        *string         `bun:"description" json:"description"`
	Total              decimal.Decimal `bun:"total,type:numeric,notnull" json:"total"`
	Notes              *string         `bun:"notes" json:"notes"`
	CreatedAt          time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}
