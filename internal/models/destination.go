package models

import "time"

// Employee is a person a unit can be assigned to.
type Employee struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	SectorID  *int64    `json:"sector_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sector is an organizational unit a unit can be assigned to.
type Sector struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	BranchID  *int64    `json:"branch_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Branch is a physical location a unit can be assigned to.
type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
