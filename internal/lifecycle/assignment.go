package lifecycle

import (
	"context"
	"database/sql"
	"fmt"

	"asset-lifecycle-api/internal/models"
)

// itemInfo is the slice of an item plus its category capabilities that
// mutating operations need. The row is locked by lockItem for the rest of
// the transaction.
type itemInfo struct {
	ID               int64
	State            models.ItemState
	Class            models.CategoryClass
	AllowsAssignment bool
	AllowsRepair     bool
}

// lockItem loads an item with its category flags and takes a row lock so
// the subsequent check-and-set cannot race another writer.
func lockItem(ctx context.Context, q Querier, itemID int64) (*itemInfo, error) {
	var info itemInfo
	err := q.QueryRowContext(ctx, `
		SELECT i.id, i.state, c.class, c.allows_assignment, c.allows_repair
		FROM inventory_items i
		JOIN products p ON p.id = i.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE i.id = $1
		FOR UPDATE OF i`, itemID).
		Scan(&info.ID, &info.State, &info.Class, &info.AllowsAssignment, &info.AllowsRepair)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock item %d: %w", itemID, err)
	}
	return &info, nil
}

// validateDestination enforces the exactly-one rule and checks the chosen
// referent exists.
func validateDestination(ctx context.Context, q Querier, d models.Destination) error {
	switch d.Count() {
	case 0:
		return newValidationError("destination", "exactly one of employee_id, sector_id or branch_id is required")
	case 1:
		// ok
	default:
		return newValidationError("destination", "employee_id, sector_id and branch_id are mutually exclusive")
	}

	var (
		field string
		query string
		id    int64
	)
	switch {
	case d.EmployeeID != nil:
		field, query, id = "employee_id", `SELECT EXISTS(SELECT 1 FROM employees WHERE id = $1)`, *d.EmployeeID
	case d.SectorID != nil:
		field, query, id = "sector_id", `SELECT EXISTS(SELECT 1 FROM sectors WHERE id = $1)`, *d.SectorID
	default:
		field, query, id = "branch_id", `SELECT EXISTS(SELECT 1 FROM branches WHERE id = $1)`, *d.BranchID
	}

	var exists bool
	if err := q.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("check destination: %w", err)
	}
	if !exists {
		return newValidationError(field, "does not exist")
	}
	return nil
}

// CreateAssignment hands an available item to exactly one destination,
// storing the category-conditional sensitive payload, and requests the
// available -> assigned transition from the registry. Must run inside a
// transaction; validation completes before the first write.
func CreateAssignment(ctx context.Context, q Querier, req models.CreateAssignmentRequest, actorID int64) (*models.Assignment, error) {
	info, err := lockItem(ctx, q, req.ItemID)
	if err != nil {
		return nil, err
	}
	if info.State != models.StateAvailable {
		return nil, &StateConflictError{ItemID: info.ID, Current: info.State, Requested: models.StateAssigned}
	}
	if err := validateDestination(ctx, q, req.Destination); err != nil {
		return nil, err
	}
	if !info.AllowsAssignment {
		return nil, newValidationError("category", "category does not allow assignment")
	}
	if err := ValidatePayload(info.Class, req.Payload); err != nil {
		return nil, err
	}

	a := models.Assignment{
		ItemID:     req.ItemID,
		EmployeeID: req.Destination.EmployeeID,
		SectorID:   req.Destination.SectorID,
		BranchID:   req.Destination.BranchID,
		AssignedBy: actorID,
		Active:     true,
		Notes:      req.Notes,
		Payload:    req.Payload,
	}
	err = q.QueryRowContext(ctx, `
		INSERT INTO assignments (
			item_id, employee_id, sector_id, branch_id, assigned_by, notes,
			encryption_password, phone_number, imei1, imei2,
			email_account, email_password, messaging_otp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, assigned_at`,
		a.ItemID, a.EmployeeID, a.SectorID, a.BranchID, a.AssignedBy, a.Notes,
		a.Payload.EncryptionPassword, a.Payload.PhoneNumber, a.Payload.IMEI1, a.Payload.IMEI2,
		a.Payload.EmailAccount, a.Payload.EmailPassword, a.Payload.MessagingOTP).
		Scan(&a.ID, &a.AssignedAt)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}

	if _, err := Transition(ctx, q, a.ItemID, models.StateAssigned, CauseAssignmentCreated, actorID, nil); err != nil {
		return nil, err
	}
	return &a, nil
}

// ReturnAssignment closes an active assignment and requests the
// assigned -> available transition. The state reconciles directly: the
// registry invariant guarantees no repair can be active at the same time.
func ReturnAssignment(ctx context.Context, q Querier, assignmentID, receiverID int64, notes *string) (*models.Assignment, error) {
	var (
		a      models.Assignment
		active bool
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, item_id, active FROM assignments WHERE id = $1 FOR UPDATE`,
		assignmentID).Scan(&a.ID, &a.ItemID, &active)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assignment %d: %w", assignmentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock assignment %d: %w", assignmentID, err)
	}
	if !active {
		return nil, &StateConflictError{ItemID: a.ItemID, Msg: fmt.Sprintf("assignment %d is already returned", a.ID)}
	}

	err = q.QueryRowContext(ctx, `
		UPDATE assignments
		SET active = false, returned_at = now(), received_by = $1,
		    notes = COALESCE($2, notes)
		WHERE id = $3
		RETURNING item_id, employee_id, sector_id, branch_id, assigned_by, received_by,
		          assigned_at, returned_at, active, notes`,
		receiverID, notes, assignmentID).
		Scan(&a.ItemID, &a.EmployeeID, &a.SectorID, &a.BranchID, &a.AssignedBy, &a.ReceivedBy,
			&a.AssignedAt, &a.ReturnedAt, &a.Active, &a.Notes)
	if err != nil {
		return nil, fmt.Errorf("close assignment %d: %w", assignmentID, err)
	}

	if _, err := Transition(ctx, q, a.ItemID, models.StateAvailable, CauseAssignmentReturned, receiverID, nil); err != nil {
		return nil, err
	}
	return &a, nil
}
