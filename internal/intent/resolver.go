// Package intent turns a normalized utterance plus extracted slots
// into exactly one action. Resolution is stateful: a pending
// confirmation or clarification on the session is consulted before the
// verb corpus, so "haan" after a delete prompt confirms instead of
// re-classifying.
package intent

import (
	"regexp"
	"strings"

	"salaatflow/internal/conversation"
	"salaatflow/internal/core"
	"salaatflow/internal/extract"
	"salaatflow/internal/logging"
	"salaatflow/internal/normalize"
)

// Resolver maps utterances to actions.
type Resolver struct{}

func NewResolver() *Resolver { return &Resolver{} }

var rePrayerName = regexp.MustCompile(`\b(fajr|dhuhr|zuhr|asr|maghrib|isha|jummah?)\b`)

// Resolve produces the single action for this turn. st is read but not
// mutated; the agent applies state transitions after dispatch.
func (r *Resolver) Resolve(st *conversation.State, utt normalize.Utterance, slots core.SlotSet) core.Action {
	text := utt.Canonical

	// A pending confirmation owns the turn until answered, expired, or
	// displaced by a clearly recognizable new intent.
	if st.Pending != nil {
		switch answer(text) {
		case 1:
			logging.Intent("confirmation accepted: %q", text)
			return core.Action{Kind: core.ActConfirmPending, Slots: slots}
		case -1:
			logging.Intent("confirmation declined: %q", text)
			return core.Action{Kind: core.ActCancelPending, Slots: slots}
		}
		// Displacing a confirmation takes a pattern-grade match, not a
		// stray keyword.
		if kind, score := classify(text); kind != core.ActUnknown && score >= patternScore {
			logging.Intent("pending displaced by %s (score %d)", kind, score)
			return r.finish(st, kind, text, slots)
		}
		// Neither yes, no, nor a new intent: re-prompt.
		return core.Action{Kind: core.ActUnknown, Slots: slots}
	}

	// A pending clarification tries the utterance as the missing slot
	// first; a recognizable new intent abandons the held action.
	if st.Clarify != nil {
		if kind, score := classify(text); kind != core.ActUnknown && score >= patternScore {
			logging.Intent("clarification displaced by %s (score %d)", kind, score)
			return r.finish(st, kind, text, slots)
		}
		held := st.Clarify.Held
		merged := core.SlotSet{}
		for k, v := range held.Slots {
			merged[k] = v
		}
		// The answer often carries more than the asked-for slot ("pray
		// fajr tomorrow at 5:30"); keep everything the held action lacks.
		for k, v := range slots {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
		if filled := fillSlot(st.Clarify.Missing, text, slots); filled != nil {
			merged.Put(*filled)
			logging.Intent("clarification filled %s", st.Clarify.Missing)
			held.Slots = merged
			return r.checkRequired(held)
		}
		// Could not read an answer; ask again for the same slot, but
		// keep whatever slots the reply did carry.
		held.Slots = merged
		return core.Action{Kind: core.ActClarify, Missing: st.Clarify.Missing, Held: &held, Slots: merged}
	}

	if isGreeting(text) {
		return core.Action{Kind: core.ActUnknown, Greeting: true, Slots: slots}
	}

	// A bare yes or no with nothing armed still reads as an answer; the
	// agent tells the user nothing is pending.
	switch answer(text) {
	case 1:
		return core.Action{Kind: core.ActConfirmPending, Slots: slots}
	case -1:
		return core.Action{Kind: core.ActCancelPending, Slots: slots}
	}

	kind, score := classify(text)
	if kind == core.ActUnknown {
		logging.Intent("no intent for %q", text)
		return core.Action{Kind: core.ActUnknown, Slots: slots}
	}
	logging.Intent("classified %s (score %d) for %q", kind, score, text)
	return r.finish(st, kind, text, slots)
}

// finish applies slot-driven refinements and the required-slot check.
func (r *Resolver) finish(st *conversation.State, kind core.ActionKind, text string, slots core.SlotSet) core.Action {
	// A create with a recurrence rule is a recurring reminder.
	if kind == core.ActCreateTask && slots.Has(core.SlotRecurrence) {
		kind = core.ActCreateReminder
	}
	// Prayer-time queries carry the prayer name when one was spoken.
	if kind == core.ActQueryPrayerTime && !slots.Has(core.SlotPrayer) {
		if m := rePrayerName.FindStringSubmatch(text); m != nil {
			name := m[1]
			if name == "zuhr" {
				name = "dhuhr"
			}
			if name == "jumma" {
				name = "jummah"
			}
			slots.Put(core.Slot{Kind: core.SlotPrayer, Value: name, Confidence: 1})
		}
	}
	return r.checkRequired(core.Action{Kind: kind, Slots: slots})
}

// requiredSlots lists what each action cannot run without, in the
// order the user should be asked.
var requiredSlots = map[core.ActionKind][]core.SlotKind{
	core.ActCreateTask:     {core.SlotTitle},
	core.ActCreateReminder: {core.SlotTitle, core.SlotRecurrence},
	core.ActCompleteTask:   {core.SlotTaskRef},
	core.ActUncompleteTask: {core.SlotTaskRef},
	core.ActDeleteTask:     {core.SlotTaskRef},
	core.ActUpdateTask:     {core.SlotTaskRef},
}

// checkRequired converts an action with a hole into a clarify action
// naming the first missing slot.
func (r *Resolver) checkRequired(act core.Action) core.Action {
	for _, k := range requiredSlots[act.Kind] {
		if !act.Slots.Has(k) {
			held := act
			logging.Intent("%s missing %s, asking", act.Kind, k)
			return core.Action{Kind: core.ActClarify, Missing: k, Held: &held, Slots: act.Slots}
		}
	}
	// An update with a target but nothing to change still needs input.
	if act.Kind == core.ActUpdateTask && !hasMutation(act.Slots) {
		held := act
		return core.Action{Kind: core.ActClarify, Missing: core.SlotTitle, Held: &held, Slots: act.Slots}
	}
	return act
}

func hasMutation(slots core.SlotSet) bool {
	for _, k := range []core.SlotKind{
		core.SlotTitle, core.SlotDescription, core.SlotCategory,
		core.SlotDueDatetime, core.SlotPriority, core.SlotRecurrence,
		core.SlotMasjidRef,
	} {
		if slots.Has(k) {
			return true
		}
	}
	return false
}

// fillSlot interprets an utterance as the answer to a clarifying
// question. Free-text slots accept the bare utterance; structured
// slots require the extractor to have parsed a value.
func fillSlot(missing core.SlotKind, text string, slots core.SlotSet) *core.Slot {
	if s, ok := slots.Get(missing); ok {
		return &s
	}
	switch missing {
	case core.SlotTitle:
		if cleaned := extract.CleanTitle(text); cleaned != "" {
			return &core.Slot{Kind: missing, Value: cleaned, Confidence: 0.6}
		}
	case core.SlotDescription, core.SlotMasjidRef, core.SlotArea, core.SlotTaskRef:
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return &core.Slot{Kind: missing, Value: trimmed, Confidence: 0.6}
	case core.SlotCategory:
		trimmed := strings.TrimSpace(text)
		if core.ValidCategory(trimmed) {
			return &core.Slot{Kind: missing, Value: trimmed, Confidence: 1}
		}
	}
	return nil
}
