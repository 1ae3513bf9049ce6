package dto

// ClientRequest creates or replaces a client.
type ClientRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"required"`
	Document string `json:"document"`
}

// ClientFilter narrows the client list.
type ClientFilter struct {
	Search string
	Limit  int
}

// VehicleRequest creates or replaces a vehicle. ClientID transfers ownership on update.
type VehicleRequest struct {
	Plate    string      `json:"plate" validate:"required"`
	VIN      string      `json:"vin"`
	Model    string      `json:"model" validate:"required"`
	Brand    string      `json:"brand" validate:"required"`
	Year     NullableInt `json:"year"`
	ClientID int64       `json:"clientId" validate:"required,gt=0"`
}

// VehicleFilter narrows the vehicle list.
type VehicleFilter struct {
	ClientID int64
	Search   string
	Limit    int
}

// SupplierRequest creates or replaces a supplier.
type SupplierRequest struct {
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=PARTS WORKSHOP RECTIFICATION OTHER"`
	Document    string `json:"document"`
	ContactName string `json:"contactName"`
	Phone       string `json:"phone"`
	Email       string `json:"email" validate:"omitempty,email"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

// SupplierActiveRequest toggles a supplier.
type SupplierActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// SupplierFilter narrows the supplier list.
type SupplierFilter struct {
	Type   string
	Active *bool
	Search string
}

// UserRequest creates a staff user.
type UserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=ADMIN MECHANIC ATTENDANT"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserUpdateRequest edits a staff user. Nil fields are left untouched.
type UserUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN MECHANIC ATTENDANT"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	IsActive *bool   `json:"isActive"`
}

// LegacyOrderRequest registers a historical order by hand.
type LegacyOrderRequest struct {
	LegacyNumber       string `json:"legacyNumber" validate:"required"`
	ClientName         string `json:"clientName" validate:"required"`
	VehiclePlate       string `json:"vehiclePlate"`
	VehicleDescription string `json:"vehicleDescription"`
	ServiceDate        Date   `json:"serviceDate"`
	Description        string `json:"description"`
	Total              string `json:"total"`
	Notes              string `json:"notes"`
}
