package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryOrder(t *testing.T) {
	want := []State{
		StateDeparturePoint, StateStoreName, StateViaPoint, StateArrivalTime,
		StateDestination, StateDistance, StateAmount, StateVehicleNumber,
		StateNote, StateConfirm,
	}
	assert.Equal(t, want, Entry.States())
	assert.Equal(t, StateDeparturePoint, Entry.First())
	assert.Equal(t, StateConfirm, Entry.Last())
}

func TestNextPreviousInverse(t *testing.T) {
	for _, g := range []*Graph{Entry, Report, Delete} {
		states := g.States()
		for i, s := range states {
			if i > 0 {
				assert.Equal(t, s, g.Next(g.Previous(s)), "next(previous(%s))", s)
			}
			if i < len(states)-1 {
				assert.Equal(t, s, g.Previous(g.Next(s)), "previous(next(%s))", s)
			}
		}
		assert.Equal(t, StateIdle, g.Previous(g.First()))
		assert.Equal(t, StateIdle, g.Next(g.Last()))
	}
}

func TestUnknownStateBoundaries(t *testing.T) {
	assert.Equal(t, StateIdle, Entry.Next("bogus"))
	assert.Equal(t, StateIdle, Entry.Previous("bogus"))
	assert.Equal(t, StateIdle, Entry.Next(StateIdle))
	_, ok := Entry.Node("bogus")
	assert.False(t, ok)
}

func TestSkippableNodes(t *testing.T) {
	var skippable []State
	for _, s := range Entry.States() {
		n, ok := Entry.Node(s)
		require.True(t, ok)
		if n.Skippable {
			skippable = append(skippable, s)
		}
	}
	assert.Equal(t, []State{StateViaPoint, StateNote}, skippable)
}

func TestLocationNodes(t *testing.T) {
	var geo []State
	for _, s := range Entry.States() {
		n, _ := Entry.Node(s)
		if n.Input.AcceptsLocation() {
			geo = append(geo, s)
		}
	}
	assert.Equal(t, []State{StateDeparturePoint, StateViaPoint, StateDestination}, geo)
}

func TestRequiredFieldsAreNotSkippable(t *testing.T) {
	required := make(map[string]bool)
	for _, f := range RequiredFields {
		required[f] = true
	}
	for _, s := range Entry.States() {
		n, _ := Entry.Node(s)
		if required[n.Field] {
			assert.False(t, n.Skippable, "%s is required and must not be skippable", n.Field)
		}
	}
}

func TestWorkflowOf(t *testing.T) {
	assert.Equal(t, WorkflowEntry, WorkflowOf(StateAmount))
	assert.Equal(t, WorkflowReport, WorkflowOf(StateReportVehicle))
	assert.Equal(t, WorkflowDelete, WorkflowOf(StateDeleteConfirm))
	assert.Equal(t, WorkflowNone, WorkflowOf(StateIdle))
	assert.Same(t, Delete, GraphOf(StateDeleteFilter))
	assert.Nil(t, GraphOf("bogus"))
	assert.True(t, Known(StateIdle))
	assert.False(t, Known("bogus"))
}

func TestNewGraphRejectsDuplicates(t *testing.T) {
	assert.Panics(t, func() {
		NewGraph(Node{State: "a"}, Node{State: "a"})
	})
}
