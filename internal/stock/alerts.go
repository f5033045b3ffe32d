// Package stock computes supply alerts for bulk (non-serialized)
// products. Alerts are a pure projection over current quantity, minimum
// threshold and consumption rate; nothing here is persisted.
package stock

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"asset-lifecycle-api/internal/models"
)

// ConsumptionWindowDays is the trailing window over which average daily
// consumption is derived from the movements ledger.
const ConsumptionWindowDays = 30

// depletionPrecision keeps days-to-depletion readable.
const depletionPrecision = 2

// Compute classifies one bulk product. DaysToDepletion stays nil when
// consumption is zero or negative (restock-heavy window): supply is then
// unbounded as far as the projection can tell.
func Compute(quantity, minimum int, dailyConsumption decimal.Decimal) (models.AlertTier, *decimal.Decimal) {
	var tier models.AlertTier
	switch {
	case quantity <= 0:
		tier = models.TierOutOfStock
	case quantity <= minimum:
		tier = models.TierLowStock
	default:
		tier = models.TierNormal
	}

	if !dailyConsumption.IsPositive() {
		return tier, nil
	}
	days := decimal.NewFromInt(int64(quantity)).DivRound(dailyConsumption, depletionPrecision)
	return tier, &days
}

// Querier is the read-only database access the loader needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadAlerts projects alerts for every bulk product. Average daily
// consumption is the total outflow (negative movement deltas) over the
// trailing window divided by the window length. Products with no stock
// row count as zero on hand.
func LoadAlerts(ctx context.Context, db Querier) ([]models.StockAlert, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT p.id, p.brand, p.model, p.minimum_stock,
		       COALESCE(sl.quantity, 0),
		       COALESCE((
		           SELECT SUM(-sm.delta) FROM stock_movements sm
		           WHERE sm.product_id = p.id
		             AND sm.delta < 0
		             AND sm.moved_at >= now() - interval '%d days'
		       ), 0)
		FROM products p
		LEFT JOIN stock_levels sl ON sl.product_id = p.id
		WHERE p.uses_serial_number = false
		ORDER BY p.id`, ConsumptionWindowDays))
	if err != nil {
		return nil, fmt.Errorf("query stock levels: %w", err)
	}
	defer rows.Close()

	window := decimal.NewFromInt(ConsumptionWindowDays)
	alerts := []models.StockAlert{}
	for rows.Next() {
		var (
			a       models.StockAlert
			outflow int64
		)
		if err := rows.Scan(&a.ProductID, &a.Brand, &a.Model, &a.MinimumStock, &a.Quantity, &outflow); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		a.DailyConsumption = decimal.NewFromInt(outflow).DivRound(window, depletionPrecision)
		a.Tier, a.DaysToDepletion = Compute(a.Quantity, a.MinimumStock, a.DailyConsumption)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
