package lifecycle

import (
	"testing"

	"asset-lifecycle-api/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	type tc struct {
		from, to models.ItemState
		ok       bool
	}
	cases := []tc{
		{models.StateAvailable, models.StateAssigned, true},
		{models.StateAvailable, models.StateInRepair, true},
		{models.StateAvailable, models.StateDecommissioned, true},
		{models.StateAssigned, models.StateAvailable, true},
		{models.StateInRepair, models.StateAvailable, true},

		{models.StateAvailable, models.StateAvailable, false},
		{models.StateAssigned, models.StateInRepair, false},
		{models.StateAssigned, models.StateDecommissioned, false},
		{models.StateAssigned, models.StateAssigned, false},
		{models.StateInRepair, models.StateAssigned, false},
		{models.StateInRepair, models.StateDecommissioned, false},
		{models.StateDecommissioned, models.StateAvailable, false},
		{models.StateDecommissioned, models.StateAssigned, false},
		{models.StateDecommissioned, models.StateInRepair, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestDecommissionedIsTerminal(t *testing.T) {
	for _, to := range []models.ItemState{
		models.StateAvailable, models.StateAssigned,
		models.StateInRepair, models.StateDecommissioned,
	} {
		assert.Falsef(t, CanTransition(models.StateDecommissioned, to), "decommissioned -> %s must be refused", to)
	}
}

func TestItemStateIsValid(t *testing.T) {
	for _, s := range []models.ItemState{
		models.StateAvailable, models.StateAssigned,
		models.StateInRepair, models.StateDecommissioned,
	} {
		assert.True(t, s.IsValid())
	}
	assert.False(t, models.ItemState("lost").IsValid())
	assert.False(t, models.ItemState("").IsValid())
}
