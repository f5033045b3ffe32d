package lifecycle

import (
	"context"
	"database/sql"
	"fmt"

	"asset-lifecycle-api/internal/models"
)

// SendToRepair opens a repair cycle for an available item and requests
// the available -> in_repair transition. Must run inside a transaction.
func SendToRepair(ctx context.Context, q Querier, req models.CreateRepairRequest, actorID int64) (*models.Repair, error) {
	info, err := lockItem(ctx, q, req.ItemID)
	if err != nil {
		return nil, err
	}
	if info.State != models.StateAvailable {
		return nil, &StateConflictError{ItemID: info.ID, Current: info.State, Requested: models.StateInRepair}
	}

	violations := map[string]string{}
	if req.Vendor == "" {
		violations["vendor"] = "required"
	}
	if req.Problem == "" {
		violations["problem"] = "required"
	}
	if !info.AllowsRepair {
		violations["category"] = "category does not allow repair"
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Fields: violations}
	}

	rep := models.Repair{
		ItemID:  req.ItemID,
		Vendor:  req.Vendor,
		Problem: req.Problem,
		Outcome: models.OutcomeInRepair,
		SentBy:  actorID,
	}
	err = q.QueryRowContext(ctx, `
		INSERT INTO repairs (item_id, vendor, problem, outcome, sent_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, sent_at`,
		rep.ItemID, rep.Vendor, rep.Problem, rep.Outcome, rep.SentBy).
		Scan(&rep.ID, &rep.SentAt)
	if err != nil {
		return nil, fmt.Errorf("insert repair: %w", err)
	}

	if _, err := Transition(ctx, q, rep.ItemID, models.StateInRepair, CauseRepairSent, actorID, nil); err != nil {
		return nil, err
	}
	return &rep, nil
}

// ReturnFromRepair closes an open repair with a terminal outcome and
// requests the in_repair -> available transition.
func ReturnFromRepair(ctx context.Context, q Querier, repairID int64, outcome models.RepairOutcome, solution *string, receiverID int64) (*models.Repair, error) {
	if !outcome.IsClosed() {
		return nil, newValidationError("outcome", "must be repaired or not_repaired")
	}

	var (
		rep  models.Repair
		open bool
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, item_id, returned_at IS NULL FROM repairs WHERE id = $1 FOR UPDATE`,
		repairID).Scan(&rep.ID, &rep.ItemID, &open)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("repair %d: %w", repairID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock repair %d: %w", repairID, err)
	}
	if !open {
		return nil, &StateConflictError{ItemID: rep.ItemID, Msg: fmt.Sprintf("repair %d is already closed", rep.ID)}
	}

	err = q.QueryRowContext(ctx, `
		UPDATE repairs
		SET returned_at = now(), outcome = $1, solution = $2, received_by = $3
		WHERE id = $4
		RETURNING item_id, vendor, problem, solution, sent_at, returned_at, outcome, sent_by, received_by`,
		outcome, solution, receiverID, repairID).
		Scan(&rep.ItemID, &rep.Vendor, &rep.Problem, &rep.Solution, &rep.SentAt,
			&rep.ReturnedAt, &rep.Outcome, &rep.SentBy, &rep.ReceivedBy)
	if err != nil {
		return nil, fmt.Errorf("close repair %d: %w", repairID, err)
	}

	if _, err := Transition(ctx, q, rep.ItemID, models.StateAvailable, CauseRepairReturned, receiverID, nil); err != nil {
		return nil, err
	}
	return &rep, nil
}
