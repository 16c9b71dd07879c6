package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"salaatflow/internal/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAcquireCreatesSession(t *testing.T) {
	m := NewManager(20)

	st, release, err := m.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", st.SessionID)
	assert.Zero(t, st.TurnIndex)
	release()

	assert.Equal(t, 1, m.Len())
}

func TestAcquireSerializesTurns(t *testing.T) {
	m := NewManager(20)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, release, err := m.Acquire(ctx, "shared")
			require.NoError(t, err)
			// Unsynchronized increment; the session lock must make it safe.
			st.TurnIndex++
			release()
		}()
	}
	wg.Wait()

	st, release, err := m.Acquire(ctx, "shared")
	require.NoError(t, err)
	defer release()
	assert.Equal(t, 25, st.TurnIndex)
}

func TestAcquireHonorsContext(t *testing.T) {
	m := NewManager(20)

	_, release, err := m.Acquire(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = m.Acquire(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	// The session must not be wedged after the aborted acquire.
	st, release2, err := m.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotNil(t, st)
	release2()
}

func TestRecordTrimsWindow(t *testing.T) {
	st := &State{SessionID: "s", window: 3}
	at := time.Date(2025, 12, 27, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		st.TurnIndex++
		st.Record("hello", "reply", at)
	}
	require.Len(t, st.Turns, 3)
	assert.Equal(t, 3, st.Turns[0].Index)
	assert.Equal(t, 5, st.Turns[2].Index)
}

func TestConfirmationExpiry(t *testing.T) {
	st := &State{SessionID: "s"}
	st.TurnIndex = 1
	st.ArmConfirmation(core.Action{Kind: core.ActDeleteTask}, 7, "pray fajr", 2)
	require.NotNil(t, st.Pending)
	assert.Equal(t, 3, st.Pending.ExpiresAt)

	st.TurnIndex = 3
	assert.False(t, st.ExpireStale(), "still inside the window")
	require.NotNil(t, st.Pending)

	st.TurnIndex = 4
	assert.True(t, st.ExpireStale())
	assert.Nil(t, st.Pending)
}

func TestArmingIsExclusive(t *testing.T) {
	st := &State{SessionID: "s"}
	st.ArmClarification(core.Action{Kind: core.ActCreateTask}, core.SlotTitle)
	require.NotNil(t, st.Clarify)

	st.ArmConfirmation(core.Action{Kind: core.ActDeleteTask}, 1, "t", 2)
	assert.Nil(t, st.Clarify, "confirmation replaces clarification")
	require.NotNil(t, st.Pending)

	st.ArmClarification(core.Action{Kind: core.ActCreateTask}, core.SlotTitle)
	assert.Nil(t, st.Pending, "clarification replaces confirmation")
}

func TestDrop(t *testing.T) {
	m := NewManager(20)
	_, release, err := m.Acquire(context.Background(), "gone")
	require.NoError(t, err)
	release()
	m.Drop("gone")
	assert.Zero(t, m.Len())
}
