package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/triplog/trip/flow"
	"github.com/m3rciful/triplog/trip/session"
)

type recordingHandler struct{ calls int }

func (h *recordingHandler) Handle(_ context.Context, s *session.Session, _ Input) (Result, error) {
	h.calls++
	return Result{Session: s, Outcome: Outcome{Kind: OutcomePrompt}}, nil
}

func TestTimeoutGuard(t *testing.T) {
	inner := &recordingHandler{}
	now := func() time.Time { return testNow }
	h := WithTimeout(inner, 30*time.Minute, now)

	stale := at(flow.StateDistance, map[string]string{flow.FieldStoreName: "Ginza"})
	stale.UpdatedAt = testNow.Add(-30 * time.Minute)

	res := step(t, h, stale, Text("12"))
	assert.Equal(t, OutcomeTimeout, res.Outcome.Kind)
	assert.Equal(t, flow.StateDistance, res.Outcome.State)
	assert.False(t, res.Save)
	assert.Equal(t, stale.Draft, res.Session.Draft)
	assert.Equal(t, 0, inner.calls, "stale text must not reach the workflow")

	step(t, h, stale, Act(ActionTimeoutContinue))
	assert.Equal(t, 1, inner.calls, "actions pass through")

	fresh := at(flow.StateDistance, nil)
	fresh.UpdatedAt = testNow.Add(-29 * time.Minute)
	step(t, h, fresh, Text("12"))
	assert.Equal(t, 2, inner.calls)

	report := at(flow.StateReportDate, nil)
	report.UpdatedAt = testNow.Add(-2 * time.Hour)
	step(t, h, report, Text("2025/01/02"))
	assert.Equal(t, 3, inner.calls, "report states are exempt")
}

func TestTimeoutResolution(t *testing.T) {
	h := WithTimeout(newTestEngine(), 30*time.Minute, func() time.Time { return testNow })
	stale := at(flow.StateVehicleNumber, map[string]string{flow.FieldStoreName: "Ginza"})
	stale.UpdatedAt = testNow.Add(-time.Hour)

	res := step(t, h, stale, Act(ActionTimeoutContinue))
	assert.Equal(t, OutcomePrompt, res.Outcome.Kind)
	assert.Equal(t, flow.StateVehicleNumber, res.Session.State)
	assert.Equal(t, stale.Draft, res.Session.Draft)
	assert.True(t, res.Save, "continuing refreshes the session timestamp")
	assert.Len(t, res.Outcome.Choices, 2)

	res = step(t, h, stale, Act(ActionTimeoutReset))
	assert.Equal(t, OutcomeReset, res.Outcome.Kind)
	assert.Equal(t, flow.StateIdle, res.Session.State)
	assert.Empty(t, res.Session.Draft)
}

func TestStale(t *testing.T) {
	s := at(flow.StateNote, nil)
	s.UpdatedAt = testNow.Add(-time.Hour)
	assert.True(t, Stale(s, 30*time.Minute, testNow))
	assert.False(t, Stale(s, 0, testNow))

	s.UpdatedAt = time.Time{}
	assert.False(t, Stale(s, 30*time.Minute, testNow))

	idle := session.New("1")
	idle.UpdatedAt = testNow.Add(-time.Hour)
	require.False(t, Stale(idle, 30*time.Minute, testNow))
}
