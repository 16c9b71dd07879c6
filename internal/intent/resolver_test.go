package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaatflow/internal/conversation"
	"salaatflow/internal/core"
	"salaatflow/internal/normalize"
)

func utter(s string) normalize.Utterance {
	return normalize.Normalize(s)
}

func TestClassifyCorpus(t *testing.T) {
	cases := []struct {
		input string
		want  core.ActionKind
	}{
		{"add a task to pray fajr tomorrow", core.ActCreateTask},
		{"create a new task called grocery run", core.ActCreateTask},
		{"remind me to call ammi", core.ActCreateTask},
		{"show my pending tasks", core.ActListTasks},
		{"list all tasks", core.ActListTasks},
		{"what are my tasks today", core.ActListTasks},
		{"mark task 3 as done", core.ActCompleteTask},
		{"i finished the quran task", core.ActCompleteTask},
		{"reopen task 3", core.ActUncompleteTask},
		{"task 3 is not done", core.ActUncompleteTask},
		{"delete the grocery task", core.ActDeleteTask},
		{"remove task 7", core.ActDeleteTask},
		{"change the fajr task to 6am", core.ActUpdateTask},
		{"reschedule my quran task", core.ActUpdateTask},
		{"which masjids are in dha phase 5", core.ActQueryMasjid},
		{"tell me about masjid al-huda", core.ActQueryMasjid},
		{"what time is fajr at masjid al-huda", core.ActQueryPrayerTime},
		{"when is maghrib", core.ActQueryPrayerTime},
		{"next prayer", core.ActQueryPrayerTime},
		{"tell me a hadith", core.ActQueryHadith},
		{"blorp fizzle", core.ActUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, _ := classify(utter(tc.input).Canonical)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassifyTransliterated(t *testing.T) {
	// Roman-Urdu verbs fold to English before classification.
	cases := []struct {
		input string
		want  core.ActionKind
	}{
		{"namaz ka task banao", core.ActCreateTask},
		{"mere tasks dikhao", core.ActListTasks},
		{"task 2 hatao", core.ActDeleteTask},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, _ := classify(utter(tc.input).Canonical)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStrayKeywordSubstringIsUnknown(t *testing.T) {
	// "sometimes" must not satisfy the "time" keyword.
	kind, score := classify(utter("sometimes i feel grateful").Canonical)
	assert.Equal(t, core.ActUnknown, kind)
	assert.Zero(t, score)
}

func TestGreeting(t *testing.T) {
	r := NewResolver()
	st := &conversation.State{}
	act := r.Resolve(st, utter("assalamualaikum"), core.SlotSet{})
	assert.True(t, act.Greeting)
	assert.Equal(t, core.ActUnknown, act.Kind)

	act = r.Resolve(st, utter("hello there can you add a task"), core.SlotSet{})
	assert.False(t, act.Greeting, "greeting only when the whole utterance is one")
}

func TestMissingSlotClarifies(t *testing.T) {
	r := NewResolver()
	st := &conversation.State{}

	act := r.Resolve(st, utter("add a task"), core.SlotSet{})
	require.Equal(t, core.ActClarify, act.Kind)
	assert.Equal(t, core.SlotTitle, act.Missing)
	require.NotNil(t, act.Held)
	assert.Equal(t, core.ActCreateTask, act.Held.Kind)
}

func TestClarificationFillBareTitle(t *testing.T) {
	r := NewResolver()
	st := &conversation.State{}
	st.ArmClarification(core.Action{Kind: core.ActCreateTask, Slots: core.SlotSet{}}, core.SlotTitle)

	act := r.Resolve(st, utter("pray fajr at the masjid"), core.SlotSet{})
	require.Equal(t, core.ActCreateTask, act.Kind)
	got, ok := act.Slots.Get(core.SlotTitle)
	require.True(t, ok)
	assert.Equal(t, "pray fajr at the masjid", got.Value)
}

func TestClarificationStructuredSlot(t *testing.T) {
	r := NewResolver()
	st := &conversation.State{}
	held := core.Action{Kind: core.ActCreateTask, Slots: core.SlotSet{}}
	held.Slots.Put(core.Slot{Kind: core.SlotTitle, Value: "read quran", Confidence: 1})
	st.ArmClarification(held, core.SlotDueDatetime)

	// The extractor parsed a time from the answer.
	at := time.Date(2025, 12, 28, 6, 0, 0, 0, time.UTC)
	slots := core.SlotSet{}
	slots.Put(core.Slot{Kind: core.SlotDueDatetime, Value: "tomorrow at 6:00", Time: &at, Confidence: 1})

	act := r.Resolve(st, utter("tomorrow at 6:00"), slots)
	require.Equal(t, core.ActCreateTask, act.Kind)
	due, ok := act.Slots.Get(core.SlotDueDatetime)
	require.True(t, ok)
	assert.Equal(t, at, *due.Time)
	_, ok = act.Slots.Get(core.SlotTitle)
	assert.True(t, ok, "held slots survive the fill")
}

func TestClarificationRepromptOnNoAnswer(t *testing.T) {
	r := NewResolver()
	st := &conversation.State{}
	held := core.Action{Kind: core.ActCreateTask, Slots: core.SlotSet{}}
	held.Slots.Put(core.Slot{Kind: core.SlotTitle, Value: "read quran", Confidence: 1})
	st.ArmClarification(held, core.SlotCategory)

	act := r.Resolve(st, utter("hmm not sure"), core.SlotSet{})
	assert.Equal(t, core.ActClarify, act.Kind)
	assert.Equal(t, core.SlotCategory, act.Missing)
}

func TestClarificationRepromptKeepsParsedSlots(t *testing.T) {
	r := NewResolver()
	st := &conversation.State{}
	st.ArmClarification(core.Action{Kind: core.ActCreateTask, Slots: core.SlotSet{}}, core.SlotTitle)

	// The answer carried a time but still no title; the re-ask must
	// not throw the time away.
	at := time.Date(2025, 12, 28, 6, 0, 0, 0, time.UTC)
	slots := core.SlotSet{}
	slots.Put(core.Slot{Kind: core.SlotDueDatetime, Value: "tomorrow at 6:00", Time: &at, Confidence: 1})

	act := r.Resolve(st, utter("tomorrow at 6:00"), slots)
	require.Equal(t, core.ActClarify, act.Kind)
	assert.Equal(t, core.SlotTitle, act.Missing)
	require.NotNil(t, act.Held)
	due, ok := act.Held.Slots.Get(core.SlotDueDatetime)
	require.True(t, ok, "parsed slot lost on re-ask")
	assert.Equal(t, at, *due.Time)
}

func TestClarificationDisplacedByNewIntent(t *testing.T) {
	r := NewResolver()
	st := &conversation.State{}
	st.ArmClarification(core.Action{Kind: core.ActCreateTask, Slots: core.SlotSet{}}, core.SlotTitle)

	act := r.Resolve(st, utter("show my tasks"), core.SlotSet{})
	assert.Equal(t, core.ActListTasks, act.Kind)
}

func TestPendingConfirmationAnswers(t *testing.T) {
	r := NewResolver()

	arm := func() *conversation.State {
		st := &conversation.State{TurnIndex: 1}
		st.ArmConfirmation(core.Action{Kind: core.ActDeleteTask}, 3, "grocery run", 2)
		return st
	}

	cases := []struct {
		input string
		want  core.ActionKind
	}{
		{"yes", core.ActConfirmPending},
		{"haan", core.ActConfirmPending},
		{"ji haan", core.ActConfirmPending},
		{"no", core.ActCancelPending},
		{"nahi", core.ActCancelPending},
		{"mat karo", core.ActCancelPending},
		{"umm what", core.ActUnknown}, // re-prompt
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			act := r.Resolve(arm(), utter(tc.input), core.SlotSet{})
			assert.Equal(t, tc.want, act.Kind)
		})
	}

	// A clearly new intent displaces the pending delete.
	act := r.Resolve(arm(), utter("show my tasks"), core.SlotSet{})
	assert.Equal(t, core.ActListTasks, act.Kind)
}

func TestCreateWithRecurrenceBecomesReminder(t *testing.T) {
	r := NewResolver()
	st := &conversation.State{}
	slots := core.SlotSet{}
	slots.Put(core.Slot{Kind: core.SlotTitle, Value: "read quran", Confidence: 1})
	slots.Put(core.Slot{
		Kind:       core.SlotRecurrence,
		Value:      "daily",
		Rule:       &core.RecurrenceRule{Freq: core.FreqDaily, AnchorHour: 6},
		Confidence: 1,
	})

	act := r.Resolve(st, utter("remind me daily to read quran at 6:00"), slots)
	assert.Equal(t, core.ActCreateReminder, act.Kind)
}

func TestPrayerNameSlot(t *testing.T) {
	r := NewResolver()
	st := &conversation.State{}
	act := r.Resolve(st, utter("when is zuhr"), core.SlotSet{})
	require.Equal(t, core.ActQueryPrayerTime, act.Kind)
	got, ok := act.Slots.Get(core.SlotPrayer)
	require.True(t, ok)
	assert.Equal(t, "dhuhr", got.Value, "zuhr folds to the canonical name")
}

func TestUpdateWithoutMutationClarifies(t *testing.T) {
	r := NewResolver()
	st := &conversation.State{}
	slots := core.SlotSet{}
	slots.Put(core.Slot{Kind: core.SlotTaskRef, Value: "3", TaskID: 3, Confidence: 1})

	act := r.Resolve(st, utter("update task 3"), slots)
	assert.Equal(t, core.ActClarify, act.Kind)
}
