package timeline

import (
	"context"
	"fmt"
	"time"
)

// StateLogSource maps state-log rows 1:1 onto events. Rows caused by
// assignments and repairs are skipped here because those streams already
// produce richer events of their own; double-reporting the same physical
// action would corrupt the history.
type StateLogSource struct {
	DB Querier
}

func (s *StateLogSource) Events(ctx context.Context, itemID int64) ([]Event, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT created_at, cause, actor_id, note
		FROM item_state_log
		WHERE item_id = $1
		  AND cause NOT IN ('assignment_created', 'assignment_returned', 'repair_sent', 'repair_returned')
		ORDER BY id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query state log: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			ev    Event
			actor int64
		)
		if err := rows.Scan(&ev.Timestamp, &ev.Action, &actor, &ev.Note); err != nil {
			return nil, fmt.Errorf("scan state log: %w", err)
		}
		ev.ActorID = &actor
		events = append(events, ev)
	}
	return events, rows.Err()
}

// AssignmentSource produces one "assigned" event per assignment and, once
// closed, a second "returned" event.
type AssignmentSource struct {
	DB Querier
}

func (s *AssignmentSource) Events(ctx context.Context, itemID int64) ([]Event, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT assigned_at, assigned_by, returned_at, received_by, notes
		FROM assignments
		WHERE item_id = $1
		ORDER BY id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var a assignmentRow
		if err := rows.Scan(&a.assignedAt, &a.assignedBy, &a.returnedAt, &a.receivedBy, &a.notes); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		events = append(events, a.events()...)
	}
	return events, rows.Err()
}

type assignmentRow struct {
	assignedAt time.Time
	assignedBy int64
	returnedAt *time.Time
	receivedBy *int64
	notes      *string
}

func (a assignmentRow) events() []Event {
	evs := []Event{{
		Timestamp: a.assignedAt,
		Action:    ActionAssigned,
		ActorID:   &a.assignedBy,
		Note:      a.notes,
	}}
	if a.returnedAt != nil {
		evs = append(evs, Event{
			Timestamp: *a.returnedAt,
			Action:    ActionReturned,
			ActorID:   a.receivedBy,
			Note:      a.notes,
		})
	}
	return evs
}

// RepairSource produces one "sent_to_repair" event per repair and, once
// closed, a "repair_closed" event carrying the outcome in its note.
type RepairSource struct {
	DB Querier
}

func (s *RepairSource) Events(ctx context.Context, itemID int64) ([]Event, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT sent_at, sent_by, vendor, problem, returned_at, received_by, outcome, solution
		FROM repairs
		WHERE item_id = $1
		ORDER BY id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query repairs: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var r repairRow
		if err := rows.Scan(&r.sentAt, &r.sentBy, &r.vendor, &r.problem, &r.returnedAt, &r.receivedBy, &r.outcome, &r.solution); err != nil {
			return nil, fmt.Errorf("scan repair: %w", err)
		}
		events = append(events, r.events()...)
	}
	return events, rows.Err()
}

type repairRow struct {
	sentAt     time.Time
	sentBy     int64
	vendor     string
	problem    string
	returnedAt *time.Time
	receivedBy *int64
	outcome    string
	solution   *string
}

func (r repairRow) events() []Event {
	sentNote := fmt.Sprintf("%s: %s", r.vendor, r.problem)
	evs := []Event{{
		Timestamp: r.sentAt,
		Action:    ActionSentToRepair,
		ActorID:   &r.sentBy,
		Note:      &sentNote,
	}}
	if r.returnedAt != nil {
		closedNote := r.outcome
		if r.solution != nil && *r.solution != "" {
			closedNote += ": " + *r.solution
		}
		evs = append(evs, Event{
			Timestamp: *r.returnedAt,
			Action:    ActionRepairClosed,
			ActorID:   r.receivedBy,
			Note:      &closedNote,
		})
	}
	return evs
}
