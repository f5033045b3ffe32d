package models

import "time"

// Destination identifies who or what an assignment hands the unit to.
// Exactly one field must be set.
type Destination struct {
	EmployeeID *int64 `json:"employee_id,omitempty"`
	SectorID   *int64 `json:"sector_id,omitempty"`
	BranchID   *int64 `json:"branch_id,omitempty"`
}

// Count returns how many destination fields are set.
func (d Destination) Count() int {
	n := 0
	if d.EmployeeID != nil {
		n++
	}
	if d.SectorID != nil {
		n++
	}
	if d.BranchID != nil {
		n++
	}
	return n
}

// AssignmentPayload carries the category-conditional sensitive fields.
// Which fields are required (or forbidden) depends on the category class
// of the item being assigned; see lifecycle.ValidatePayload.
type AssignmentPayload struct {
	EncryptionPassword *string `json:"encryption_password,omitempty"`
	PhoneNumber        *string `json:"phone_number,omitempty"`
	IMEI1              *string `json:"imei1,omitempty"`
	IMEI2              *string `json:"imei2,omitempty"`
	EmailAccount       *string `json:"email_account,omitempty"`
	EmailPassword      *string `json:"email_password,omitempty"`
	MessagingOTP       *string `json:"messaging_otp,omitempty"`
}

// Assignment represents one hand-out of a unit to a destination. Rows are
// created once, mutated exactly once on return and never deleted; they are
// the permanent audit substrate of the timeline.
type Assignment struct {
	ID         int64      `json:"id"`
	ItemID     int64      `json:"item_id"`
	EmployeeID *int64     `json:"employee_id,omitempty"`
	SectorID   *int64     `json:"sector_id,omitempty"`
	BranchID   *int64     `json:"branch_id,omitempty"`
	AssignedBy int64      `json:"assigned_by"`
	ReceivedBy *int64     `json:"received_by,omitempty"`
	AssignedAt time.Time  `json:"assigned_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Active     bool       `json:"active"`
	Notes      *string    `json:"notes,omitempty"`

	Payload AssignmentPayload `json:"payload"`
}

// CreateAssignmentRequest represents the request body for creating an assignment
type CreateAssignmentRequest struct {
	ItemID      int64             `json:"item_id"`
	Destination Destination       `json:"destination"`
	Payload     AssignmentPayload `json:"payload"`
	Notes       *string           `json:"notes,omitempty"`
}

// ReturnAssignmentRequest represents the request body for closing an assignment
type ReturnAssignmentRequest struct {
	Notes *string `json:"notes,omitempty"`
}
