package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertTier classifies a bulk product's supply adequacy.
type AlertTier string

const (
	TierOutOfStock AlertTier = "out_of_stock"
	TierLowStock   AlertTier = "low_stock"
	TierNormal     AlertTier = "normal"
)

// StockLevel is the current quantity on hand for a bulk product.
type StockLevel struct {
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockMovement is one quantity change for a bulk product. Negative delta
// is consumption; positive delta is replenishment.
type StockMovement struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Delta     int       `json:"delta"`
	Reason    *string   `json:"reason,omitempty"`
	ActorID   int64     `json:"actor_id"`
	MovedAt   time.Time `json:"moved_at"`
}

// CreateStockMovementRequest represents the request body for recording a movement
type CreateStockMovementRequest struct {
	Delta  int     `json:"delta"`
	Reason *string `json:"reason,omitempty"`
}

// StockAlert is the derived (never persisted) supply status of a bulk
// product. DaysToDepletion is null when consumption is zero.
type StockAlert struct {
	ProductID        int64            `json:"product_id"`
	Brand            string           `json:"brand"`
	Model            string           `json:"model"`
	Quantity         int              `json:"quantity"`
	MinimumStock     int              `json:"minimum_stock"`
	DailyConsumption decimal.Decimal  `json:"daily_consumption"`
	DaysToDepletion  *decimal.Decimal `json:"days_to_depletion,omitempty"`
	Tier             AlertTier        `json:"tier"`
}
