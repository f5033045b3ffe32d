package tests

import (
	"fmt"
	"net/http"
	"testing"

	"asset-lifecycle-api/internal/testutil"
	"asset-lifecycle-api/internal/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full notebook hand-out cycle: ingest, reject an assignment without the
// encryption password, assign with it, refuse a second assignment, return,
// and read back the merged history.
func TestNotebookAssignmentCycle(t *testing.T) {
	testutil.RequireIntegration(t)

	admin := token(t, "admin")
	notebook := productID(t, "Latitude 5440")
	alice := employeeID(t, "Alice Martin")

	itemID := createItem(t, admin, notebook, "NB-CYCLE-001")
	assert.Equal(t, "available", itemState(t, itemID))

	t.Run("Rejects assignment without encryption password", func(t *testing.T) {
		w := doJSON(t, "POST", "/assignments", admin, map[string]interface{}{
			"item_id":     itemID,
			"destination": map[string]interface{}{"employee_id": alice},
			"payload":     map[string]interface{}{},
		})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

		var resp struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		decode(t, w, &resp)
		assert.Equal(t, "validation_failed", resp.Error)
		assert.Contains(t, resp.Fields, "encryption_password")
		assert.Equal(t, "available", itemState(t, itemID))
	})

	t.Run("Rejects phone-only fields on a notebook", func(t *testing.T) {
		w := doJSON(t, "POST", "/assignments", admin, map[string]interface{}{
			"item_id":     itemID,
			"destination": map[string]interface{}{"employee_id": alice},
			"payload": map[string]interface{}{
				"encryption_password": "hunter2",
				"imei1":               "490154203237518",
			},
		})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

		var resp struct {
			Fields map[string]string `json:"fields"`
		}
		decode(t, w, &resp)
		assert.Contains(t, resp.Fields, "imei1")
	})

	t.Run("Rejects multiple destinations", func(t *testing.T) {
		w := doJSON(t, "POST", "/assignments", admin, map[string]interface{}{
			"item_id": itemID,
			"destination": map[string]interface{}{
				"employee_id": alice,
				"branch_id":   1,
			},
			"payload": map[string]interface{}{"encryption_password": "hunter2"},
		})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})

	var assignmentID int64
	t.Run("Assigns with complete payload", func(t *testing.T) {
		w := doJSON(t, "POST", "/assignments", admin, map[string]interface{}{
			"item_id":     itemID,
			"destination": map[string]interface{}{"employee_id": alice},
			"payload":     map[string]interface{}{"encryption_password": "hunter2"},
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			ID     int64 `json:"id"`
			Active bool  `json:"active"`
		}
		decode(t, w, &resp)
		assignmentID = resp.ID
		assert.True(t, resp.Active)
		assert.Equal(t, "assigned", itemState(t, itemID))
	})

	t.Run("Refuses a second assignment while assigned", func(t *testing.T) {
		w := doJSON(t, "POST", "/assignments", admin, map[string]interface{}{
			"item_id":     itemID,
			"destination": map[string]interface{}{"employee_id": alice},
			"payload":     map[string]interface{}{"encryption_password": "hunter2"},
		})

		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

		var resp struct {
			Error string `json:"error"`
		}
		decode(t, w, &resp)
		assert.Equal(t, "state_conflict", resp.Error)
	})

	t.Run("Refuses repair while assigned", func(t *testing.T) {
		w := doJSON(t, "POST", "/repairs", admin, map[string]interface{}{
			"item_id": itemID,
			"vendor":  "FixIt Ltd",
			"problem": "keyboard",
		})

		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	t.Run("Returns the assignment", func(t *testing.T) {
		w := doJSON(t, "POST", fmt.Sprintf("/assignments/%d/return", assignmentID), admin,
			map[string]interface{}{})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "available", itemState(t, itemID))
	})

	t.Run("Refuses a double return", func(t *testing.T) {
		w := doJSON(t, "POST", fmt.Sprintf("/assignments/%d/return", assignmentID), admin,
			map[string]interface{}{})

		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	t.Run("History shows return before assignment", func(t *testing.T) {
		w := doJSON(t, "GET", itemPath(itemID, "/history"), admin, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			ItemID int64            `json:"item_id"`
			Events []timeline.Event `json:"events"`
		}
		decode(t, w, &resp)
		assert.Equal(t, itemID, resp.ItemID)

		actions := make([]string, 0, len(resp.Events))
		for _, e := range resp.Events {
			actions = append(actions, e.Action)
		}
		// most recent first; ingestion is the oldest entry
		require.Len(t, actions, 3)
		assert.Equal(t, timeline.ActionReturned, actions[0])
		assert.Equal(t, timeline.ActionAssigned, actions[1])
		assert.Equal(t, "ingested", actions[2])
	})
}

func TestRepairCycle(t *testing.T) {
	testutil.RequireIntegration(t)

	admin := token(t, "admin")
	notebook := productID(t, "Latitude 5440")

	itemID := createItem(t, admin, notebook, "NB-REPAIR-001")

	var repairID int64
	t.Run("Sends to repair", func(t *testing.T) {
		w := doJSON(t, "POST", "/repairs", admin, map[string]interface{}{
			"item_id": itemID,
			"vendor":  "FixIt Ltd",
			"problem": "screen flicker",
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			ID      int64  `json:"id"`
			Outcome string `json:"outcome"`
		}
		decode(t, w, &resp)
		repairID = resp.ID
		assert.Equal(t, "in_repair", resp.Outcome)
		assert.Equal(t, "in_repair", itemState(t, itemID))
	})

	t.Run("Rejects a non-terminal outcome on return", func(t *testing.T) {
		w := doJSON(t, "POST", fmt.Sprintf("/repairs/%d/return", repairID), admin,
			map[string]interface{}{"outcome": "in_repair"})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})

	t.Run("Closes the repair", func(t *testing.T) {
		w := doJSON(t, "POST", fmt.Sprintf("/repairs/%d/return", repairID), admin,
			map[string]interface{}{
				"outcome":  "repaired",
				"solution": "replaced panel",
			})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "available", itemState(t, itemID))
	})
}

func TestDecommission(t *testing.T) {
	testutil.RequireIntegration(t)

	admin := token(t, "admin")
	notebook := productID(t, "Latitude 5440")

	itemID := createItem(t, admin, notebook, "NB-DECOM-001")

	t.Run("Requires a reason", func(t *testing.T) {
		w := doJSON(t, "POST", itemPath(itemID, "/decommission"), admin,
			map[string]interface{}{"reason": "  "})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})

	t.Run("Retires the unit", func(t *testing.T) {
		w := doJSON(t, "POST", itemPath(itemID, "/decommission"), admin,
			map[string]interface{}{"reason": "beyond economical repair"})

		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
		assert.Equal(t, "decommissioned", itemState(t, itemID))
	})

	t.Run("Decommissioned is terminal", func(t *testing.T) {
		w := doJSON(t, "POST", "/repairs", admin, map[string]interface{}{
			"item_id": itemID,
			"vendor":  "FixIt Ltd",
			"problem": "anything",
		})

		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})
}

func TestStockAlerts(t *testing.T) {
	testutil.RequireIntegration(t)

	admin := token(t, "admin")
	toner := productID(t, "414A Toner")

	t.Run("Records a consumption movement", func(t *testing.T) {
		w := doJSON(t, "POST", fmt.Sprintf("/products/%d/stock-movements", toner), admin,
			map[string]interface{}{"delta": -1, "reason": "printer refill"})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("Refuses going below zero", func(t *testing.T) {
		w := doJSON(t, "POST", fmt.Sprintf("/products/%d/stock-movements", toner), admin,
			map[string]interface{}{"delta": -1000})

		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	t.Run("Projects an alert for the bulk product", func(t *testing.T) {
		w := doJSON(t, "GET", "/stock/alerts", admin, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Data []struct {
				ProductID int64  `json:"product_id"`
				Tier      string `json:"tier"`
			} `json:"data"`
		}
		decode(t, w, &resp)

		found := false
		for _, a := range resp.Data {
			if a.ProductID == toner {
				found = true
				// seeded at 3 with minimum 5, one consumed above
				assert.Equal(t, "low_stock", a.Tier)
			}
		}
		assert.True(t, found, "expected an alert row for the toner product")
	})
}
