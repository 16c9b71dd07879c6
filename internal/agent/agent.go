// Package agent wires the interpreter pipeline end to end: normalize,
// extract, resolve, gate, dispatch. One call handles one conversational
// turn. Domain failures never escape as errors; they become replies in
// the user's language, so a session survives anything the user types.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salaatflow/internal/conversation"
	"salaatflow/internal/core"
	"salaatflow/internal/dispatch"
	"salaatflow/internal/extract"
	"salaatflow/internal/intent"
	"salaatflow/internal/logging"
	"salaatflow/internal/normalize"
)

// Agent is the conversational command interpreter.
type Agent struct {
	sessions   *conversation.Manager
	extractor  *extract.Extractor
	resolver   *intent.Resolver
	dispatcher *dispatch.Dispatcher
	confirmTTL int

	// Now is the turn clock, swappable in tests.
	Now func() time.Time
}

// Options tune agent construction.
type Options struct {
	HistoryWindow   int
	ConfirmTTLTurns int
	Oracle          extract.Oracle // nil disables the advisory extractor
}

// New builds an agent over the given store.
func New(store dispatch.Store, opts Options) *Agent {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 20
	}
	if opts.ConfirmTTLTurns <= 0 {
		opts.ConfirmTTLTurns = 2
	}
	return &Agent{
		sessions:   conversation.NewManager(opts.HistoryWindow),
		extractor:  extract.New(opts.Oracle),
		resolver:   intent.NewResolver(),
		dispatcher: dispatch.New(store),
		confirmTTL: opts.ConfirmTTLTurns,
		Now:        time.Now,
	}
}

// HandleTurn processes one utterance for a session and returns the
// reply. token, when non-empty, deduplicates redelivered requests. The
// only errors returned are context cancellations while waiting for the
// session; everything else is folded into the reply.
func (a *Agent) HandleTurn(ctx context.Context, sessionID, text, token string) (string, error) {
	st, release, err := a.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return "", err
	}
	defer release()

	now := a.Now()
	st.TurnIndex++

	if st.ExpireStale() {
		logging.Session("session %s: pending confirmation expired", sessionID)
	}

	utt := normalize.Normalize(text)
	if utt.Lang != normalize.LangEnglish || st.Lang == "" {
		st.Lang = utt.Lang
	}
	logging.Session("session %s turn %d lang=%s: %q -> %q",
		sessionID, st.TurnIndex, utt.Lang, utt.Raw, utt.Canonical)

	slots := a.extractor.Extract(ctx, utt, st.LastTaskID, now)
	act := a.resolver.Resolve(st, utt, slots)

	reply := a.perform(ctx, st, act, now, token)
	st.Record(text, reply, now)
	return reply, nil
}

func (a *Agent) perform(ctx context.Context, st *conversation.State, act core.Action, now time.Time, token string) string {
	switch act.Kind {
	case core.ActClarify:
		st.ArmClarification(*act.Held, act.Missing)
		return clarifyQuestion(st.Lang, act.Missing)

	case core.ActConfirmPending:
		if st.Pending == nil {
			return nothingPending(st.Lang)
		}
		held := st.Pending.Action
		st.ClearPending()
		reply, err := a.dispatcher.Execute(ctx, held, st, now, token)
		if err != nil {
			if errors.Is(err, core.ErrAlreadyProcessed) {
				return reply
			}
			return errorReply(st.Lang, err)
		}
		return reply

	case core.ActCancelPending:
		if st.Pending == nil {
			return nothingPending(st.Lang)
		}
		st.ClearPending()
		if st.Lang.Urdu() {
			return "Theek hai, kuch delete nahi kiya."
		}
		return "Okay, cancelled. Nothing was deleted."

	case core.ActUnknown:
		if act.Greeting {
			return greeting(st.Lang)
		}
		if st.Pending != nil {
			return confirmQuestion(st.Lang, st.Pending)
		}
		return dontUnderstand(st.Lang)
	}

	// Destructive actions are gated behind an explicit confirmation.
	if act.Destructive() {
		target, err := a.dispatcher.ResolveTaskRef(ctx, act.Slots)
		if err != nil {
			return errorReply(st.Lang, err)
		}
		// Pin the resolved ID so the eventual confirm deletes exactly
		// the task that was named in the question.
		gated := act
		gated.Slots = core.SlotSet{}
		for k, v := range act.Slots {
			gated.Slots[k] = v
		}
		gated.Slots[core.SlotTaskRef] = core.Slot{
			Kind: core.SlotTaskRef, Value: target.Title, TaskID: target.ID, Confidence: 1,
		}
		st.ArmConfirmation(gated, target.ID, target.Title, a.confirmTTL)
		return confirmQuestion(st.Lang, st.Pending)
	}

	st.ClearPending()
	reply, err := a.dispatcher.Execute(ctx, act, st, now, token)
	if err != nil {
		if errors.Is(err, core.ErrAlreadyProcessed) {
			return reply
		}
		return errorReply(st.Lang, err)
	}
	return reply
}

func clarifyQuestion(lang normalize.Lang, missing core.SlotKind) string {
	urdu := lang.Urdu()
	switch missing {
	case core.SlotTitle:
		if urdu {
			return "Task ka naam kya rakhein?"
		}
		return "What should the task be called?"
	case core.SlotTaskRef:
		if urdu {
			return "Kaunsa task? Task ka number ya naam batayein."
		}
		return "Which task do you mean? Give me its number or name."
	case core.SlotDueDatetime:
		if urdu {
			return "Kab ke liye? Jaise \"kal subah 6 baje\"."
		}
		return "When is it due? For example \"tomorrow at 6 am\"."
	case core.SlotCategory:
		if urdu {
			return "Kis category mein? Farz, Sunnah, Nafl, Deed ya Other."
		}
		return "Which category? Farz, Sunnah, Nafl, Deed, or Other."
	case core.SlotMasjidRef:
		if urdu {
			return "Kaunsi masjid?"
		}
		return "Which masjid?"
	case core.SlotArea:
		if urdu {
			return "Kaunsa area?"
		}
		return "Which area?"
	case core.SlotRecurrence:
		if urdu {
			return "Kitni dafa dohrana hai? Jaise \"rozana\" ya \"har jumma\"."
		}
		return "How often should it repeat? For example \"daily\" or \"every friday\"."
	}
	if urdu {
		return "Thori aur tafseel dein?"
	}
	return "Could you give me a bit more detail?"
}

func confirmQuestion(lang normalize.Lang, p *conversation.PendingConfirmation) string {
	if lang.Urdu() {
		return fmt.Sprintf("Kya aap waqai task %d (%q) delete karna chahte hain? (haan/nahi)",
			p.TargetID, p.TargetTitle)
	}
	return fmt.Sprintf("Are you sure you want to delete task %d (%q)? (yes/no)",
		p.TargetID, p.TargetTitle)
}

func nothingPending(lang normalize.Lang) string {
	if lang.Urdu() {
		return "Is waqt koi cheez confirm karne ke liye nahi hai."
	}
	return "There's nothing waiting for a confirmation right now."
}

func greeting(lang normalize.Lang) string {
	if lang.Urdu() {
		return "Walaikum assalam! Main aap ke spiritual tasks mein madad kar sakta hoon. Task banayein, dekhein, ya namaz ke auqat poochein."
	}
	return "Assalamualaikum! I can help with your spiritual tasks. Try \"add a task to pray fajr tomorrow\" or \"show my tasks\"."
}

func dontUnderstand(lang normalize.Lang) string {
	if lang.Urdu() {
		return "Maazrat, main samajh nahi saka. Aap task bana sakte hain, dekh sakte hain, ya namaz ke auqat pooch sakte hain."
	}
	return "Sorry, I didn't catch that. You can add, list, complete, or delete tasks, or ask about masjids, prayer times, and hadith."
}

func errorReply(lang normalize.Lang, err error) string {
	urdu := lang.Urdu()

	var ambiguous *dispatch.AmbiguousError
	if errors.As(err, &ambiguous) {
		var b strings.Builder
		if urdu {
			fmt.Fprintf(&b, "%q se %d tasks milte hain, number batayein:\n",
				ambiguous.Ref, len(ambiguous.Candidates))
		} else {
			fmt.Fprintf(&b, "%q matches %d tasks, tell me which number:\n",
				ambiguous.Ref, len(ambiguous.Candidates))
		}
		for _, t := range ambiguous.Candidates {
			fmt.Fprintf(&b, "  %d. %s\n", t.ID, t.Title)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		if urdu {
			return "Maazrat, mujhe woh nahi mila."
		}
		return "Sorry, I couldn't find that."
	case errors.Is(err, core.ErrInvalidFilter):
		if urdu {
			return "Filter samajh nahi aaya. All, pending, ya completed kahein."
		}
		return "I can filter by all, pending, or completed."
	case errors.Is(err, core.ErrUnresolvedAnchor):
		if urdu {
			return "Is masjid ke namaz ke auqat mere paas nahi hain."
		}
		return "I don't have the prayer schedule needed for that."
	case errors.Is(err, core.ErrStoreUnavailable):
		if urdu {
			return "Maazrat, abhi data save nahi ho raha. Thori dair baad koshish karein."
		}
		return "Sorry, I'm having trouble reaching storage. Please try again shortly."
	}
	logging.Session("unmapped dispatch error: %v", err)
	if urdu {
		return "Maazrat, kuch ghalat ho gaya."
	}
	return "Sorry, something went wrong handling that."
}
