package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	events []Event
	err    error
}

func (s stubSource) Events(ctx context.Context, itemID int64) ([]Event, error) {
	return s.events, s.err
}

func at(secs int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, secs, 0, time.UTC)
}

func TestBuildOrdersDescending(t *testing.T) {
	b := NewBuilder(
		stubSource{events: []Event{
			{Timestamp: at(10), Action: "ingested"},
			{Timestamp: at(40), Action: "decommissioned"},
		}},
		stubSource{events: []Event{
			{Timestamp: at(20), Action: ActionAssigned},
			{Timestamp: at(30), Action: ActionReturned},
		}},
	)

	events, err := b.Build(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 4)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.After(events[i-1].Timestamp),
			"timestamps must be non-increasing")
	}
	assert.Equal(t, "decommissioned", events[0].Action)
	assert.Equal(t, "ingested", events[3].Action)
}

func TestBuildTieBreakKeepsSourceOrder(t *testing.T) {
	ts := at(5)
	b := NewBuilder(
		stubSource{events: []Event{{Timestamp: ts, Action: "log"}}},
		stubSource{events: []Event{{Timestamp: ts, Action: ActionAssigned}}},
		stubSource{events: []Event{{Timestamp: ts, Action: ActionSentToRepair}}},
	)

	events, err := b.Build(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"log", ActionAssigned, ActionSentToRepair},
		[]string{events[0].Action, events[1].Action, events[2].Action})
}

func TestBuildIsIdempotent(t *testing.T) {
	b := NewBuilder(
		stubSource{events: []Event{
			{Timestamp: at(3), Action: ActionAssigned},
			{Timestamp: at(3), Action: ActionReturned},
			{Timestamp: at(1), Action: "ingested"},
		}},
	)

	first, err := b.Build(context.Background(), 9)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildToleratesEmptySources(t *testing.T) {
	b := NewBuilder(stubSource{}, stubSource{}, stubSource{})
	events, err := b.Build(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestBuildPropagatesSourceError(t *testing.T) {
	boom := errors.New("storage down")
	b := NewBuilder(
		stubSource{events: []Event{{Timestamp: at(1), Action: "ingested"}}},
		stubSource{err: boom},
	)
	_, err := b.Build(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}

func TestAssignmentRowEvents(t *testing.T) {
	actor := int64(7)
	receiver := int64(9)
	note := "handed over with charger"

	open := assignmentRow{assignedAt: at(1), assignedBy: actor, notes: &note}
	evs := open.events()
	require.Len(t, evs, 1)
	assert.Equal(t, ActionAssigned, evs[0].Action)
	assert.Equal(t, &actor, evs[0].ActorID)

	returned := at(10)
	closed := assignmentRow{
		assignedAt: at(1), assignedBy: actor,
		returnedAt: &returned, receivedBy: &receiver, notes: &note,
	}
	evs = closed.events()
	require.Len(t, evs, 2)
	assert.Equal(t, ActionReturned, evs[1].Action)
	assert.Equal(t, &receiver, evs[1].ActorID)
	assert.Equal(t, returned, evs[1].Timestamp)
}

func TestRepairRowEvents(t *testing.T) {
	solution := "replaced keyboard"
	returned := at(20)

	open := repairRow{sentAt: at(2), sentBy: 3, vendor: "TechFix", problem: "broken keys", outcome: "in_repair"}
	evs := open.events()
	require.Len(t, evs, 1)
	assert.Equal(t, ActionSentToRepair, evs[0].Action)
	require.NotNil(t, evs[0].Note)
	assert.Equal(t, "TechFix: broken keys", *evs[0].Note)

	closed := open
	closed.returnedAt = &returned
	closed.outcome = "repaired"
	closed.solution = &solution
	evs = closed.events()
	require.Len(t, evs, 2)
	assert.Equal(t, ActionRepairClosed, evs[1].Action)
	require.NotNil(t, evs[1].Note)
	assert.Equal(t, "repaired: replaced keyboard", *evs[1].Note)
}
