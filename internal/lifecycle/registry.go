package lifecycle

import (
	"context"
	"database/sql"
	"fmt"

	"asset-lifecycle-api/internal/models"
)

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn. Mutating
// lifecycle operations must be given a *sql.Tx so the state check and the
// row writes commit or roll back together.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transition causes, recorded in the state log and surfaced on the timeline.
const (
	CauseIngested           = "ingested"
	CauseAssignmentCreated  = "assignment_created"
	CauseAssignmentReturned = "assignment_returned"
	CauseRepairSent         = "repair_sent"
	CauseRepairReturned     = "repair_returned"
	CauseDecommissioned     = "decommissioned"
)

// legalTransitions is the registry's authority table. Absence means the
// transition is refused. Decommissioned is terminal.
var legalTransitions = map[models.ItemState]map[models.ItemState]bool{
	models.StateAvailable: {
		models.StateAssigned:       true,
		models.StateInRepair:       true,
		models.StateDecommissioned: true,
	},
	models.StateAssigned: {
		models.StateAvailable: true,
	},
	models.StateInRepair: {
		models.StateAvailable: true,
	},
	models.StateDecommissioned: {},
}

// CanTransition reports whether the registry would grant from -> to.
func CanTransition(from, to models.ItemState) bool {
	return legalTransitions[from][to]
}

// Transition atomically moves an item to target and appends a state-log
// entry. The item row is locked for the duration of the surrounding
// transaction, so two concurrent callers cannot both succeed: the loser
// observes the winner's state and gets a StateConflictError.
//
// Callers never write item state themselves; this is the only place the
// state column is updated outside ingestion.
func Transition(ctx context.Context, q Querier, itemID int64, target models.ItemState, cause string, actorID int64, note *string) (models.ItemState, error) {
	var current models.ItemState
	err := q.QueryRowContext(ctx,
		`SELECT state FROM inventory_items WHERE id = $1 FOR UPDATE`,
		itemID).Scan(&current)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("lock item %d: %w", itemID, err)
	}

	if !CanTransition(current, target) {
		return current, &StateConflictError{ItemID: itemID, Current: current, Requested: target}
	}

	if target == models.StateDecommissioned {
		_, err = q.ExecContext(ctx,
			`UPDATE inventory_items
			 SET state = $1, decommissioned_at = now(), decommission_reason = $2, updated_at = now()
			 WHERE id = $3`,
			target, note, itemID)
	} else {
		_, err = q.ExecContext(ctx,
			`UPDATE inventory_items SET state = $1, updated_at = now() WHERE id = $2`,
			target, itemID)
	}
	if err != nil {
		return current, fmt.Errorf("update item %d state: %w", itemID, err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO item_state_log (item_id, from_state, to_state, cause, actor_id, note)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		itemID, current, target, cause, actorID, note)
	if err != nil {
		return current, fmt.Errorf("log item %d transition: %w", itemID, err)
	}

	return target, nil
}

// Decommission retires an item permanently. Only available items can be
// retired; an assigned or in-repair unit has to come back first.
func Decommission(ctx context.Context, q Querier, itemID int64, reason string, actorID int64) error {
	_, err := Transition(ctx, q, itemID, models.StateDecommissioned, CauseDecommissioned, actorID, &reason)
	return err
}
