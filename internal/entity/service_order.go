package entity

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// OrderStatus is the lifecycle state of a service order.
type OrderStatus string

const (
	StatusOpen         OrderStatus = "OPEN"
	StatusQuotation    OrderStatus = "QUOTATION"
	StatusApproved     OrderStatus = "APPROVED"
	StatusInProgress   OrderStatus = "IN_PROGRESS"
	StatusWaitingParts OrderStatus = "WAITING_PARTS"
	StatusFinished     OrderStatus = "FINISHED"
	StatusCancelled    OrderStatus = "CANCELLED"

	// statusCompleted is accepted on input and stored as FINISHED.
	statusCompleted = "COMPLETED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusOpen:         {StatusQuotation, StatusApproved, StatusInProgress, StatusCancelled},
	StatusQuotation:    {StatusOpen, StatusApproved, StatusCancelled},
	StatusApproved:     {StatusInProgress, StatusWaitingParts, StatusCancelled},
	StatusInProgress:   {StatusWaitingParts, StatusFinished, StatusCancelled},
	StatusWaitingParts: {StatusInProgress, StatusCancelled},
	StatusFinished:     nil,
	StatusCancelled:    nil,
}

// ActiveStatuses lists the states of vehicles still on the yard, in board order.
var ActiveStatuses = []OrderStatus{
	StatusOpen, StatusQuotation, StatusApproved, StatusInProgress, StatusWaitingParts,
}

// ParseOrderStatus validates raw and resolves the COMPLETED alias.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	if raw == statusCompleted {
		return StatusFinished, nil
	}
	s := OrderStatus(raw)
	if _, ok := orderTransitions[s]; !ok {
		return "", fmt.Errorf("unknown service order status %q", raw)
	}
	return s, nil
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

// Active reports whether an order in s is still on the yard.
func (s OrderStatus) Active() bool {
	for _, a := range ActiveStatuses {
		if a == s {
			return true
		}
	}
	return false
}

// ServiceOrder is a work order tracking one vehicle's repair.
type ServiceOrder struct {
	bun.BaseModel `bun:"table:service_orders,alias:so"`

	ID           int64       `bun:",pk,autoincrement" json:"id"`
	Number       int64       `bun:",nullzero,notnull" json:"number"`
	Status       OrderStatus `bun:",notnull" json:"status"`
	EntryDate    time.Time   `bun:",nullzero,notnull,default:current_timestamp" json:"entryDate"`
	ExitDate     *time.Time  `bun:"exit_date" json:"exitDate"`
	KM           int         `bun:"km,notnull" json:"km"`
	FuelLevel    *string     `bun:"fuel_level" json:"fuelLevel"`
	Mechanic     *string     `bun:"mechanic" json:"mechanic"`
	ClientReport string      `bun:",notnull" json:"clientReport"`
	Observations *string     `bun:"observations" json:"observations"`
	ClientID     int64       `bun:",notnull" json:"clientId"`
	VehicleID    int64       `bun:",notnull" json:"vehicleId"`
	CreatedAt    time.Time   `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time   `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
