package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaatflow/internal/core"
	"salaatflow/internal/store"
)

// testAgent runs the full pipeline over a real store with a fixed
// clock; each say() advances the clock one minute.
type testAgent struct {
	t     *testing.T
	agent *Agent
	store *store.SQLiteStore
	now   time.Time
}

func newTestAgent(t *testing.T) *testAgent {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "salaatflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ta := &testAgent{
		t:     t,
		store: s,
		now:   time.Date(2025, 12, 27, 10, 0, 0, 0, time.UTC),
	}
	ta.agent = New(s, Options{})
	ta.agent.Now = func() time.Time { return ta.now }
	return ta
}

func (ta *testAgent) say(text string) string {
	ta.t.Helper()
	reply, err := ta.agent.HandleTurn(context.Background(), "s1", text, "")
	require.NoError(ta.t, err)
	ta.now = ta.now.Add(time.Minute)
	return reply
}

func (ta *testAgent) tasks(filter core.ListFilter) []core.Task {
	ta.t.Helper()
	out, err := ta.store.ListTasks(context.Background(), filter)
	require.NoError(ta.t, err)
	return out
}

func TestCreateFlowWithClarification(t *testing.T) {
	ta := newTestAgent(t)

	reply := ta.say("add a task")
	assert.Contains(t, reply, "What should the task be called?")

	reply = ta.say("pray fajr at masjid al-huda tomorrow at 5:30 am")
	assert.Contains(t, reply, "created task")

	all := ta.tasks(core.FilterAll)
	require.Len(t, all, 1)
	task := all[0]
	assert.Contains(t, task.Title, "pray fajr")
	assert.Equal(t, core.CategoryFarz, task.Category)
	require.NotNil(t, task.DueAt)
	assert.Equal(t, time.Date(2025, 12, 28, 5, 30, 0, 0, time.UTC), task.DueAt.UTC())
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ta := newTestAgent(t)
	ta.say("add a task to call ammi")
	require.Len(t, ta.tasks(core.FilterAll), 1)

	reply := ta.say("delete the call ammi task")
	assert.Contains(t, reply, "Are you sure")
	assert.Len(t, ta.tasks(core.FilterAll), 1, "nothing deleted before confirmation")

	reply = ta.say("haan")
	assert.Contains(t, reply, "Deleted")
	assert.Empty(t, ta.tasks(core.FilterAll))

	// A stray second yes finds nothing pending.
	reply = ta.say("yes")
	assert.Contains(t, reply, "nothing waiting")
}

func TestDeleteCancelled(t *testing.T) {
	ta := newTestAgent(t)
	ta.say("add a task to call ammi")

	ta.say("delete the call ammi task")
	reply := ta.say("nahi")
	assert.Contains(t, reply, "cancelled")
	assert.Len(t, ta.tasks(core.FilterAll), 1, "task survives a declined delete")
}

func TestConfirmationExpiresAfterTwoTurns(t *testing.T) {
	ta := newTestAgent(t)
	ta.say("add a task to call ammi")

	ta.say("delete the call ammi task")
	ta.say("hmm")      // turn inside the window, re-prompts
	ta.say("uh hold on") // window closes after this turn

	reply := ta.say("yes")
	assert.Contains(t, reply, "nothing waiting", "expired confirmation must not delete")
	assert.Len(t, ta.tasks(core.FilterAll), 1)
}

func TestConfirmationDisplacedByNewIntent(t *testing.T) {
	ta := newTestAgent(t)
	ta.say("add a task to call ammi")

	ta.say("delete the call ammi task")
	reply := ta.say("show my tasks")
	assert.Contains(t, reply, "call ammi", "new intent answered instead")

	// The displaced confirmation is gone.
	reply = ta.say("yes")
	assert.Contains(t, reply, "nothing waiting")
	assert.Len(t, ta.tasks(core.FilterAll), 1)
}

func TestAnaphoraResolution(t *testing.T) {
	ta := newTestAgent(t)
	ta.say("add a task to read quran")

	reply := ta.say("mark it as done")
	assert.Contains(t, reply, "complete")

	completed := ta.tasks(core.FilterCompleted)
	require.Len(t, completed, 1)
	assert.Contains(t, completed[0].Title, "read quran")
}

func TestRecurringReminderLifecycle(t *testing.T) {
	ta := newTestAgent(t)

	reply := ta.say("remind me daily 20 minutes before fajr to wake for tahajjud at masjid al-huda")
	assert.Contains(t, reply, "created task")

	all := ta.tasks(core.FilterAll)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].DueAt)
	// Seeded Al-Huda Fajr is 05:30; next 05:10 after 10:00 is tomorrow.
	assert.Equal(t, time.Date(2025, 12, 28, 5, 10, 0, 0, time.UTC), all[0].DueAt.UTC())

	reply = ta.say("mark the wake for tahajjud task as done")
	assert.Contains(t, reply, "Next occurrence")

	pending := ta.tasks(core.FilterPending)
	require.Len(t, pending, 1, "successor created")
	require.NotNil(t, pending[0].DueAt)
	assert.True(t, pending[0].DueAt.After(*all[0].DueAt))
}

func TestUnschedulableReminderRejected(t *testing.T) {
	ta := newTestAgent(t)

	// Seeded Masjid Bilal has no jummah time to anchor against.
	reply := ta.say("remind me to read surah kahf at masjid bilal daily 20 minutes before jummah")
	assert.Contains(t, reply, "prayer schedule")
	assert.Empty(t, ta.tasks(core.FilterAll), "unschedulable reminder must not be persisted")
}

func TestPrayerTimeQuery(t *testing.T) {
	ta := newTestAgent(t)

	reply := ta.say("what time is fajr at masjid al-huda")
	assert.Contains(t, reply, "05:30")

	reply = ta.say("next prayer")
	assert.Contains(t, reply, "Dhuhr")
}

func TestMasjidAndHadithQueries(t *testing.T) {
	ta := newTestAgent(t)

	reply := ta.say("which masjids are in dha phase 5")
	assert.Contains(t, reply, "Masjid Al-Huda")

	reply = ta.say("tell me a hadith")
	assert.Contains(t, reply, "Sahih")
}

func TestUrduSessionRepliesInUrdu(t *testing.T) {
	ta := newTestAgent(t)

	// Two Roman-Urdu keywords flip the session language.
	reply := ta.say("mujhe namaz ka task banao")
	assert.Contains(t, reply, "Task ka naam", "clarifying question comes back in Urdu")

	reply = ta.say("fajr parhna")
	assert.Contains(t, reply, "ban gaya")

	reply = ta.say("mere tasks dikhao")
	assert.Contains(t, reply, "Aap ke")
}

func TestGreeting(t *testing.T) {
	ta := newTestAgent(t)
	reply := ta.say("assalamualaikum")
	assert.Contains(t, reply, "Assalamualaikum")
}

func TestUnknownUtterance(t *testing.T) {
	ta := newTestAgent(t)
	reply := ta.say("flibber jabber wocky")
	assert.Contains(t, reply, "didn't catch that")
	assert.Empty(t, ta.tasks(core.FilterAll))
}

func TestIdempotentRedelivery(t *testing.T) {
	ta := newTestAgent(t)
	ctx := context.Background()

	first, err := ta.agent.HandleTurn(ctx, "s1", "add a task to read quran", "req-1")
	require.NoError(t, err)

	second, err := ta.agent.HandleTurn(ctx, "s1", "add a task to read quran", "req-1")
	require.NoError(t, err)
	assert.Equal(t, first, second, "redelivered request returns the original reply")
	assert.Len(t, ta.tasks(core.FilterAll), 1, "no duplicate task")
}

func TestAmbiguousReference(t *testing.T) {
	ta := newTestAgent(t)
	ta.say("add a task to read quran")
	ta.say("add a task to read quran with tafsir")

	reply := ta.say("complete the read task")
	assert.Contains(t, reply, "which number")
	assert.Empty(t, ta.tasks(core.FilterCompleted))

	reply = ta.say("complete task 1")
	assert.Contains(t, reply, "complete")
	require.Len(t, ta.tasks(core.FilterCompleted), 1)
}
