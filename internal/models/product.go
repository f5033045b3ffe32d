package models

import "time"

// Product represents a brand/model entry in the catalog. Serialized
// products are tracked per unit in inventory_items; bulk products are
// tracked as quantities in stock_levels.
type Product struct {
	ID               int64     `json:"id"`
	CategoryID       int64     `json:"category_id"`
	Brand            string    `json:"brand"`
	Model            string    `json:"model"`
	UsesSerialNumber bool      `json:"uses_serial_number"`
	MinimumStock     int       `json:"minimum_stock"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	CategoryID       int64  `json:"category_id"`
	Brand            string `json:"brand"`
	Model            string `json:"model"`
	UsesSerialNumber bool   `json:"uses_serial_number"`
	MinimumStock     int    `json:"minimum_stock"`
}

// UpdateProductRequest represents the request body for updating a product
type UpdateProductRequest struct {
	CategoryID   *int64  `json:"category_id,omitempty"`
	Brand        *string `json:"brand,omitempty"`
	Model        *string `json:"model,omitempty"`
	MinimumStock *int    `json:"minimum_stock,omitempty"`
}
