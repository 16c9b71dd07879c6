package core

import "time"

// SlotKind identifies the type of an extracted slot.
type SlotKind string

const (
	SlotTitle       SlotKind = "title"
	SlotDescription SlotKind = "description"
	SlotCategory    SlotKind = "category"
	SlotMasjidRef   SlotKind = "masjid_ref"
	SlotArea        SlotKind = "area"
	SlotDueDatetime SlotKind = "due_datetime"
	SlotRecurrence  SlotKind = "recurrence_rule"
	SlotTaskRef     SlotKind = "task_ref"
	SlotPriority    SlotKind = "priority"
	SlotListFilter  SlotKind = "list_filter"
	SlotPrayer      SlotKind = "prayer"
)

// Slot is one typed value pulled out of an utterance.
type Slot struct {
	Kind       SlotKind
	Value      string          // canonical string form
	Time       *time.Time      // set for due_datetime
	Rule       *RecurrenceRule // set for recurrence_rule
	TaskID     int64           // set for resolved task_ref
	Confidence float64
}

// SlotSet is the extractor output, keyed by kind. At most one slot per
// kind survives extraction; conflicts are resolved before insertion.
type SlotSet map[SlotKind]Slot

// Get returns the slot of the given kind and whether it is present.
func (s SlotSet) Get(k SlotKind) (Slot, bool) {
	sl, ok := s[k]
	return sl, ok
}

// Has reports whether a slot of the given kind is present.
func (s SlotSet) Has(k SlotKind) bool {
	_, ok := s[k]
	return ok
}

// Put inserts a slot, keeping the higher-confidence value on conflict.
func (s SlotSet) Put(sl Slot) {
	if cur, ok := s[sl.Kind]; ok && cur.Confidence >= sl.Confidence {
		return
	}
	s[sl.Kind] = sl
}

// ActionKind tags the resolved domain operation.
type ActionKind string

const (
	ActCreateTask        ActionKind = "create_task"
	ActUpdateTask        ActionKind = "update_task"
	ActCompleteTask      ActionKind = "complete_task"
	ActUncompleteTask    ActionKind = "uncomplete_task"
	ActDeleteTask        ActionKind = "delete_task"
	ActListTasks         ActionKind = "list_tasks"
	ActQueryMasjid       ActionKind = "query_masjid"
	ActQueryPrayerTime   ActionKind = "query_prayer_time"
	ActQueryHadith       ActionKind = "query_hadith"
	ActCreateReminder    ActionKind = "create_recurring_reminder"
	ActClarify           ActionKind = "clarify"
	ActConfirmPending    ActionKind = "confirm_pending"
	ActCancelPending     ActionKind = "cancel_pending"
	ActUnknown           ActionKind = "unknown"
)

// Action is a fully tagged interpreter result. Slots carries only what
// the variant needs; Missing names the single slot a Clarify asks for.
type Action struct {
	Kind    ActionKind
	Slots   SlotSet
	Missing SlotKind // clarify only
	// Held is the partial action a Clarify is trying to complete; it is
	// re-promoted once the missing slot arrives.
	Held *Action
	// Greeting marks an Unknown that should answer with a salaam and a
	// capability summary instead of the generic help nudge.
	Greeting bool
}

// Destructive reports whether the action must pass the confirmation
// gate before dispatch. DeleteTask is the only irreversible operation
// in scope.
func (a Action) Destructive() bool {
	return a.Kind == ActDeleteTask
}
