package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Client is a workshop customer, unique by phone and by document when present.
type Client struct {
	bun.BaseModel `bun:"table:clients,alias:c"`

	ID        int64     `bun:",pk,autoincrement" json:"id"`
	Name      string    `bun:",notnull" json:"name"`
	Email     *string   `bun:"email" json:"email"`
	Phone     string    `bun:",notnull" json:"phone"`
	Document  *string   `bun:"document" json:"document"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// Vehicle is unique by plate; ClientID is the current owner and may change.
type Vehicle struct {
	bun.BaseModel `bun:"table:vehicles,alias:v"`

	ID        int64     `bun:",pk,autoincrement" json:"id"`
	Plate     string    `bun:",notnull" json:"plate"`
	VIN       *string   `bun:"vin" json:"vin"`
	Model     string    `bun:",notnull" json:"model"`
	Brand     string    `bun:",notnull" json:"brand"`
	Year      *int      `bun:"year" json:"year"`
	ClientID  int64     `bun:",notnull" json:"clientId"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
