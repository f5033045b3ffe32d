package models

import "time"

// ItemState is the lifecycle state of a serialized inventory unit.
// State is derived: it must agree with the active assignment/repair rows
// and is only ever written by the registry.
type ItemState string

const (
	StateAvailable      ItemState = "available"
	StateAssigned       ItemState = "assigned"
	StateInRepair       ItemState = "in_repair"
	StateDecommissioned ItemState = "decommissioned"
)

// IsValid reports whether the state is one of the known values.
func (s ItemState) IsValid() bool {
	switch s {
	case StateAvailable, StateAssigned, StateInRepair, StateDecommissioned:
		return true
	}
	return false
}

// InventoryItem represents one physical, serial-numbered unit.
type InventoryItem struct {
	ID                 int64      `json:"id"`
	ProductID          int64      `json:"product_id"`
	Serial             string     `json:"serial"`
	State              ItemState  `json:"state"`
	IngestedAt         time.Time  `json:"ingested_at"`
	DecommissionedAt   *time.Time `json:"decommissioned_at,omitempty"`
	DecommissionReason *string    `json:"decommission_reason,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CreateItemRequest represents the request body for ingesting a unit
type CreateItemRequest struct {
	ProductID int64   `json:"product_id"`
	Serial    string  `json:"serial"`
	Notes     *string `json:"notes,omitempty"`
}

// UpdateItemRequest represents the request body for updating a unit.
// State is deliberately absent: it only changes through assignment,
// repair and decommission operations.
type UpdateItemRequest struct {
	Serial *string `json:"serial,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// DecommissionRequest represents the request body for retiring a unit
type DecommissionRequest struct {
	Reason string `json:"reason"`
}

// StateLogEntry is one append-only row of the item state-change log.
type StateLogEntry struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	FromState ItemState `json:"from_state"`
	ToState   ItemState `json:"to_state"`
	Cause     string    `json:"cause"`
	ActorID   int64     `json:"actor_id"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
