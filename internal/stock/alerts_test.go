package stock

import (
	"testing"

	"asset-lifecycle-api/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTiers(t *testing.T) {
	cases := []struct {
		name     string
		quantity int
		minimum  int
		want     models.AlertTier
	}{
		{"zero on hand", 0, 5, models.TierOutOfStock},
		{"at threshold", 5, 5, models.TierLowStock},
		{"below threshold", 3, 5, models.TierLowStock},
		{"above threshold", 6, 5, models.TierNormal},
		{"zero threshold", 1, 0, models.TierNormal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tier, _ := Compute(c.quantity, c.minimum, decimal.Zero)
			assert.Equal(t, c.want, tier)
		})
	}
}

func TestComputeDepletionProjection(t *testing.T) {
	t.Run("linear projection", func(t *testing.T) {
		// quantity=3, threshold=5, consumption=1/day -> low stock, 3 days left
		tier, days := Compute(3, 5, decimal.NewFromInt(1))
		assert.Equal(t, models.TierLowStock, tier)
		require.NotNil(t, days)
		assert.True(t, days.Equal(decimal.NewFromInt(3)), "got %s", days)
	})

	t.Run("fractional consumption", func(t *testing.T) {
		_, days := Compute(10, 2, decimal.RequireFromString("2.5"))
		require.NotNil(t, days)
		assert.True(t, days.Equal(decimal.NewFromInt(4)), "got %s", days)
	})

	t.Run("zero consumption is unbounded", func(t *testing.T) {
		_, days := Compute(10, 2, decimal.Zero)
		assert.Nil(t, days)
	})

	t.Run("restock-heavy window is unbounded", func(t *testing.T) {
		_, days := Compute(10, 2, decimal.NewFromInt(-3))
		assert.Nil(t, days)
	})

	t.Run("rounds to two places", func(t *testing.T) {
		_, days := Compute(10, 2, decimal.NewFromInt(3))
		require.NotNil(t, days)
		assert.True(t, days.Equal(decimal.RequireFromString("3.33")), "got %s", days)
	})
}
