package models

import "time"

// CategoryClass groups categories by which sensitive assignment fields they require.
type CategoryClass string

const (
	ClassNotebook CategoryClass = "notebook"
	ClassPhone    CategoryClass = "phone"
	ClassOther    CategoryClass = "other"
)

// IsValid reports whether the class is one of the known values.
func (c CategoryClass) IsValid() bool {
	switch c {
	case ClassNotebook, ClassPhone, ClassOther:
		return true
	}
	return false
}

// Category represents an equipment category. One level of nesting is
// supported via ParentID.
type Category struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	ParentID         *int64        `json:"parent_id,omitempty"`
	Class            CategoryClass `json:"class"`
	RequiresSerial   bool          `json:"requires_serial"`
	AllowsAssignment bool          `json:"allows_assignment"`
	AllowsRepair     bool          `json:"allows_repair"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// CreateCategoryRequest represents the request body for creating a category
type CreateCategoryRequest struct {
	Name             string        `json:"name"`
	ParentID         *int64        `json:"parent_id,omitempty"`
	Class            CategoryClass `json:"class"`
	RequiresSerial   bool          `json:"requires_serial"`
	AllowsAssignment bool          `json:"allows_assignment"`
	AllowsRepair     bool          `json:"allows_repair"`
}

// UpdateCategoryRequest represents the request body for updating a category
type UpdateCategoryRequest struct {
	Name             *string        `json:"name,omitempty"`
	ParentID         *int64         `json:"parent_id,omitempty"`
	Class            *CategoryClass `json:"class,omitempty"`
	RequiresSerial   *bool          `json:"requires_serial,omitempty"`
	AllowsAssignment *bool          `json:"allows_assignment,omitempty"`
	AllowsRepair     *bool          `json:"allows_repair,omitempty"`
}
