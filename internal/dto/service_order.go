package dto

import "time"

// IntakeRequest opens a service order, creating or updating the client and vehicle.
type IntakeRequest struct {
	ClientName     string      `json:"clientName" validate:"required"`
	ClientEmail    string      `json:"clientEmail" validate:"omitempty,email"`
	ClientPhone    string      `json:"clientPhone" validate:"required"`
	ClientDocument string      `json:"clientDocument"`
	VehiclePlate   string      `json:"vehiclePlate" validate:"required"`
	VehicleModel   string      `json:"vehicleModel" validate:"required"`
	VehicleBrand   string      `json:"vehicleBrand" validate:"required"`
	VehicleYear    NullableInt `json:"vehicleYear"`
	VehicleVIN     string      `json:"vehicleVin"`
	KM             NullableInt `json:"km" validate:"required"`
	FuelLevel      string      `json:"fuelLevel"`
	Mechanic       string      `json:"mechanic"`
	ClientReport   string      `json:"clientReport" validate:"required"`
	Observations   string      `json:"observations"`
}

// IntakeResult identifies the rows touched by an intake.
type IntakeResult struct {
	OrderID     int64 `json:"orderId"`
	OrderNumber int64 `json:"orderNumber"`
	ClientID    int64 `json:"clientId"`
	VehicleID   int64 `json:"vehicleId"`
}

// OrderFilter narrows the service order list.
type OrderFilter struct {
	Limit     int
	Statuses  []string
	ClientID  int64
	VehicleID int64
	Search    string
}

// UpdateOrderRequest edits the descriptive fields of a service order.
// Nil fields are left untouched.
type UpdateOrderRequest struct {
	KM           *NullableInt `json:"km"`
	FuelLevel    *string      `json:"fuelLevel"`
	Mechanic     *string      `json:"mechanic"`
	ClientReport *string      `json:"clientReport"`
	Observations *string      `json:"observations"`
}

// ChangeStatusRequest moves a service order through its lifecycle.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderRow is a service order joined with its client and vehicle.
type OrderRow struct {
	ID           int64      `bun:"id" json:"id"`
	Number       int64      `bun:"number" json:"number"`
	Status       string     `bun:"status" json:"status"`
	EntryDate    time.Time  `bun:"entry_date" json:"entryDate"`
	ExitDate     *time.Time `bun:"exit_date" json:"exitDate"`
	KM           int        `bun:"km" json:"km"`
	FuelLevel    *string    `bun:"fuel_level" json:"fuelLevel"`
	Mechanic     *string    `bun:"mechanic" json:"mechanic"`
	ClientReport string     `bun:"client_report" json:"clientReport"`
	Observations *string    `bun:"observations" json:"observations"`
	ClientID     int64      `bun:"client_id" json:"clientId"`
	ClientName   string     `bun:"client_name" json:"clientName"`
	ClientPhone  string     `bun:"client_phone" json:"clientPhone"`
	ClientEmail  *string    `bun:"client_email" json:"clientEmail"`
	VehicleID    int64      `bun:"vehicle_id" json:"vehicleId"`
	VehiclePlate string     `bun:"vehicle_plate" json:"vehiclePlate"`
	VehicleModel string     `bun:"vehicle_model" json:"vehicleModel"`
	VehicleBrand string     `bun:"vehicle_brand" json:"vehicleBrand"`
	VehicleYear  *int       `bun:"vehicle_year" json:"vehicleYear"`
	CreatedAt    time.Time  `bun:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `bun:"updated_at" json:"updatedAt"`
}

// BoardVehicle is one vehicle on the yard board.
type BoardVehicle struct {
	OrderID      int64     `bun:"order_id" json:"orderId"`
	OrderNumber  int64     `bun:"order_number" json:"orderNumber"`
	Status       string    `bun:"status" json:"status"`
	EntryDate    time.Time `bun:"entry_date" json:"entryDate"`
	DaysInShop   int       `bun:"days_in_shop" json:"daysInShop"`
	Mechanic     *string   `bun:"mechanic" json:"mechanic"`
	ClientReport string    `bun:"client_report" json:"clientReport"`
	ClientName   string    `bun:"client_name" json:"clientName"`
	ClientPhone  string    `bun:"client_phone" json:"clientPhone"`
	Plate        string    `bun:"plate" json:"plate"`
	Model        string    `bun:"model" json:"model"`
	Brand        string    `bun:"brand" json:"brand"`
	Year         *int      `bun:"year" json:"year"`
	Progress     int       `bun:"progress" json:"progress"`
	PartsStatus  string    `bun:"parts_status" json:"partsStatus"`
}

// BoardStats aggregates the yard.
type BoardStats struct {
	Open               int64    `bun:"open" json:"open"`
	Quotation          int64    `bun:"quotation" json:"quotation"`
	Approved           int64    `bun:"approved" json:"approved"`
	InProgress         int64    `bun:"in_progress" json:"inProgress"`
	WaitingParts       int64    `bun:"waiting_parts" json:"waitingParts"`
	TotalActive        int64    `bun:"total_active" json:"totalActive"`
	FinishedInWindow   int64    `bun:"finished_in_window" json:"finishedInWindow"`
	AvgTurnaroundHours *float64 `bun:"avg_turnaround_hours" json:"avgTurnaroundHours"`
}

// Board is the full yard view.
type Board struct {
	Vehicles []BoardVehicle `json:"vehicles"`
	Stats    BoardStats     `json:"stats"`
}
