// Package dispatch executes resolved actions against the store and
// renders the reply. Every action performs at most one logical store
// mutation; reads are unrestricted. The dispatcher never panics on
// domain failures, it answers with text and a typed error.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"salaatflow/internal/conversation"
	"salaatflow/internal/core"
	"salaatflow/internal/logging"
	"salaatflow/internal/recurrence"
)

// Store is what the dispatcher needs from persistence.
type Store interface {
	CreateTask(ctx context.Context, t *core.Task, now time.Time) error
	GetTask(ctx context.Context, id int64) (core.Task, error)
	UpdateTask(ctx context.Context, t core.Task, now time.Time) (core.Task, error)
	SetTaskCompleted(ctx context.Context, id int64, completed bool, now time.Time) (core.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ListTasks(ctx context.Context, filter core.ListFilter) ([]core.Task, error)
	FindTasksByTitle(ctx context.Context, q string) ([]core.Task, error)
	GetMasjid(ctx context.Context, id int64) (core.Masjid, error)
	FindMasjidByName(ctx context.Context, name string) (core.Masjid, error)
	ListMasjidsByArea(ctx context.Context, area string) ([]core.Masjid, error)
	HadithForDate(ctx context.Context, date time.Time) (core.Hadith, error)
}

// AmbiguousError reports a task reference matching several tasks.
type AmbiguousError struct {
	Ref        string
	Candidates []core.Task
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("task reference %q matches %d tasks", e.Ref, len(e.Candidates))
}

func (e *AmbiguousError) Unwrap() error { return core.ErrAmbiguousReference }

// Dispatcher executes actions. Safe for concurrent use.
type Dispatcher struct {
	store Store

	mu   sync.Mutex
	seen map[string]string // idempotency token -> reply already given
}

func New(store Store) *Dispatcher {
	return &Dispatcher{store: store, seen: make(map[string]string)}
}

// Execute runs act for the session state st at instant now. The token,
// when non-empty, makes redelivered requests return the original reply
// instead of mutating twice. st is mutated (LastTaskID) but pending
// structures are the agent's to manage.
func (d *Dispatcher) Execute(ctx context.Context, act core.Action, st *conversation.State, now time.Time, token string) (string, error) {
	if token != "" {
		d.mu.Lock()
		if prev, ok := d.seen[token]; ok {
			d.mu.Unlock()
			logging.Dispatch("token %s already processed", token)
			return prev, fmt.Errorf("%w: token %s", core.ErrAlreadyProcessed, token)
		}
		d.mu.Unlock()
	}

	reply, err := d.execute(ctx, act, st, now)
	if err == nil && token != "" {
		d.mu.Lock()
		d.seen[token] = reply
		d.mu.Unlock()
	}
	return reply, err
}

func (d *Dispatcher) execute(ctx context.Context, act core.Action, st *conversation.State, now time.Time) (string, error) {
	logging.Dispatch("executing %s", act.Kind)
	switch act.Kind {
	case core.ActCreateTask, core.ActCreateReminder:
		return d.createTask(ctx, act, st, now)
	case core.ActCompleteTask:
		return d.setCompleted(ctx, act, st, now, true)
	case core.ActUncompleteTask:
		return d.setCompleted(ctx, act, st, now, false)
	case core.ActDeleteTask:
		return d.deleteTask(ctx, act, st)
	case core.ActUpdateTask:
		return d.updateTask(ctx, act, st, now)
	case core.ActListTasks:
		return d.listTasks(ctx, act, st)
	case core.ActQueryMasjid:
		return d.queryMasjid(ctx, act, st)
	case core.ActQueryPrayerTime:
		return d.queryPrayerTime(ctx, act, st, now)
	case core.ActQueryHadith:
		return d.queryHadith(ctx, st, now)
	}
	return "", fmt.Errorf("dispatcher cannot execute %s", act.Kind)
}

// ResolveTaskRef turns a task_ref slot into a concrete task: numeric
// ID first, then title search, with ambiguity surfaced rather than
// guessed away.
func (d *Dispatcher) ResolveTaskRef(ctx context.Context, slots core.SlotSet) (core.Task, error) {
	ref, ok := slots.Get(core.SlotTaskRef)
	if !ok {
		return core.Task{}, fmt.Errorf("%w: no task reference", core.ErrNotFound)
	}
	if ref.TaskID > 0 {
		return d.store.GetTask(ctx, ref.TaskID)
	}
	matches, err := d.store.FindTasksByTitle(ctx, ref.Value)
	if err != nil {
		return core.Task{}, err
	}
	switch len(matches) {
	case 0:
		return core.Task{}, fmt.Errorf("%w: no task matching %q", core.ErrNotFound, ref.Value)
	case 1:
		return matches[0], nil
	}
	// Several substring hits still resolve when exactly one title
	// matches the reference word for word.
	var exact []core.Task
	for _, t := range matches {
		if strings.EqualFold(strings.TrimSpace(t.Title), strings.TrimSpace(ref.Value)) {
			exact = append(exact, t)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	return core.Task{}, &AmbiguousError{Ref: ref.Value, Candidates: matches}
}

func (d *Dispatcher) createTask(ctx context.Context, act core.Action, st *conversation.State, now time.Time) (string, error) {
	title, _ := act.Slots.Get(core.SlotTitle)
	task := core.Task{Title: title.Value}
	if s, ok := act.Slots.Get(core.SlotDescription); ok {
		task.Description = s.Value
	}
	if s, ok := act.Slots.Get(core.SlotCategory); ok && core.ValidCategory(s.Value) {
		task.Category = core.TaskCategory(s.Value)
	}
	if s, ok := act.Slots.Get(core.SlotPriority); ok {
		task.Priority = core.Priority(s.Value)
	}
	if s, ok := act.Slots.Get(core.SlotArea); ok {
		task.Area = s.Value
	}
	if s, ok := act.Slots.Get(core.SlotDueDatetime); ok && s.Time != nil {
		task.DueAt = s.Time
	}
	if s, ok := act.Slots.Get(core.SlotRecurrence); ok && s.Rule != nil {
		task.Recurrence = *s.Rule
	}

	if s, ok := act.Slots.Get(core.SlotMasjidRef); ok {
		m, err := d.store.FindMasjidByName(ctx, s.Value)
		if err == nil {
			task.MasjidID = m.ID
		} else if !errors.Is(err, core.ErrNotFound) {
			return "", err
		}
		// An unknown masjid name stays in the title context; the task
		// is still worth creating.
	}

	// A prayer-anchored reminder with no due date gets its first
	// occurrence computed now. If the anchor cannot be resolved the
	// task is not created; the caller turns the error into a reply.
	if !task.Recurrence.IsZero() && task.DueAt == nil {
		var sched recurrence.PrayerSchedule
		if task.Recurrence.OffsetEvent != "" {
			var err error
			if sched, err = d.scheduleFor(ctx, task.MasjidID); err != nil {
				return "", err
			}
		}
		next, err := recurrence.Next(task.Recurrence, now, sched)
		if err != nil {
			return "", err
		}
		task.DueAt = &next
	}

	if err := d.store.CreateTask(ctx, &task, now); err != nil {
		return "", err
	}
	st.LastTaskID = task.ID
	return replyCreated(st.Lang, task), nil
}

// scheduleFor loads the prayer schedule for a masjid, falling back to
// the first stored masjid when none was named.
func (d *Dispatcher) scheduleFor(ctx context.Context, masjidID int64) (recurrence.PrayerSchedule, error) {
	if masjidID > 0 {
		m, err := d.store.GetMasjid(ctx, masjidID)
		if err != nil {
			return nil, err
		}
		return recurrence.ScheduleFromMasjid(m), nil
	}
	all, err := d.store.ListMasjidsByArea(ctx, "")
	if err != nil || len(all) == 0 {
		return nil, fmt.Errorf("%w: no masjid available", core.ErrUnresolvedAnchor)
	}
	return recurrence.ScheduleFromMasjid(all[0]), nil
}

func (d *Dispatcher) setCompleted(ctx context.Context, act core.Action, st *conversation.State, now time.Time, completed bool) (string, error) {
	task, err := d.ResolveTaskRef(ctx, act.Slots)
	if err != nil {
		return "", err
	}
	updated, err := d.store.SetTaskCompleted(ctx, task.ID, completed, now)
	if err != nil {
		return "", err
	}
	st.LastTaskID = updated.ID

	if !completed {
		return replyUncompleted(st.Lang, updated), nil
	}

	// Completing a recurring task rolls its next occurrence into a
	// fresh pending task.
	if !updated.Recurrence.IsZero() {
		if next, err := d.nextOccurrence(ctx, updated, now); err == nil {
			successor := updated
			successor.ID = 0
			successor.DueAt = &next
			successor.Completed = false
			successor.CompletedAt = nil
			if cerr := d.store.CreateTask(ctx, &successor, now); cerr == nil {
				st.LastTaskID = successor.ID
				return replyCompletedRecurring(st.Lang, updated, next), nil
			}
		} else {
			logging.Dispatch("recurring successor skipped: %v", err)
		}
	}
	return replyCompleted(st.Lang, updated), nil
}

func (d *Dispatcher) nextOccurrence(ctx context.Context, task core.Task, now time.Time) (time.Time, error) {
	var sched recurrence.PrayerSchedule
	if task.Recurrence.OffsetEvent != "" {
		var err error
		if sched, err = d.scheduleFor(ctx, task.MasjidID); err != nil {
			return time.Time{}, err
		}
	}
	ref := now
	if task.DueAt != nil && task.DueAt.After(now) {
		ref = *task.DueAt
	}
	return recurrence.Next(task.Recurrence, ref, sched)
}

func (d *Dispatcher) deleteTask(ctx context.Context, act core.Action, st *conversation.State) (string, error) {
	task, err := d.ResolveTaskRef(ctx, act.Slots)
	if err != nil {
		return "", err
	}
	if err := d.store.DeleteTask(ctx, task.ID); err != nil {
		return "", err
	}
	if st.LastTaskID == task.ID {
		st.LastTaskID = 0
	}
	return replyDeleted(st.Lang, task), nil
}

func (d *Dispatcher) updateTask(ctx context.Context, act core.Action, st *conversation.State, now time.Time) (string, error) {
	task, err := d.ResolveTaskRef(ctx, act.Slots)
	if err != nil {
		return "", err
	}
	if s, ok := act.Slots.Get(core.SlotTitle); ok && s.Value != "" {
		task.Title = s.Value
	}
	if s, ok := act.Slots.Get(core.SlotDescription); ok {
		task.Description = s.Value
	}
	if s, ok := act.Slots.Get(core.SlotCategory); ok && core.ValidCategory(s.Value) {
		task.Category = core.TaskCategory(s.Value)
	}
	if s, ok := act.Slots.Get(core.SlotPriority); ok {
		task.Priority = core.Priority(s.Value)
	}
	if s, ok := act.Slots.Get(core.SlotArea); ok {
		task.Area = s.Value
	}
	if s, ok := act.Slots.Get(core.SlotDueDatetime); ok && s.Time != nil {
		task.DueAt = s.Time
	}
	if s, ok := act.Slots.Get(core.SlotRecurrence); ok && s.Rule != nil {
		task.Recurrence = *s.Rule
	}
	if s, ok := act.Slots.Get(core.SlotMasjidRef); ok {
		if m, merr := d.store.FindMasjidByName(ctx, s.Value); merr == nil {
			task.MasjidID = m.ID
		}
	}
	updated, err := d.store.UpdateTask(ctx, task, now)
	if err != nil {
		return "", err
	}
	st.LastTaskID = updated.ID
	return replyUpdated(st.Lang, updated), nil
}

func (d *Dispatcher) listTasks(ctx context.Context, act core.Action, st *conversation.State) (string, error) {
	filter := core.FilterAll
	if s, ok := act.Slots.Get(core.SlotListFilter); ok {
		filter = core.ListFilter(s.Value)
	}
	tasks, err := d.store.ListTasks(ctx, filter)
	if err != nil {
		return "", err
	}
	if len(tasks) == 1 {
		st.LastTaskID = tasks[0].ID
	}
	return replyTaskList(st.Lang, filter, tasks), nil
}

func (d *Dispatcher) queryMasjid(ctx context.Context, act core.Action, st *conversation.State) (string, error) {
	if s, ok := act.Slots.Get(core.SlotMasjidRef); ok {
		m, err := d.store.FindMasjidByName(ctx, s.Value)
		if err != nil {
			return "", err
		}
		return replyMasjidDetail(st.Lang, m), nil
	}
	area := ""
	if s, ok := act.Slots.Get(core.SlotArea); ok {
		area = s.Value
	}
	masjids, err := d.store.ListMasjidsByArea(ctx, area)
	if err != nil {
		return "", err
	}
	if len(masjids) == 0 {
		return "", fmt.Errorf("%w: no masjid in %q", core.ErrNotFound, area)
	}
	return replyMasjidList(st.Lang, area, masjids), nil
}

func (d *Dispatcher) queryPrayerTime(ctx context.Context, act core.Action, st *conversation.State, now time.Time) (string, error) {
	var m core.Masjid
	if s, ok := act.Slots.Get(core.SlotMasjidRef); ok {
		var err error
		if m, err = d.store.FindMasjidByName(ctx, s.Value); err != nil {
			return "", err
		}
	} else {
		all, err := d.store.ListMasjidsByArea(ctx, "")
		if err != nil {
			return "", err
		}
		if len(all) == 0 {
			return "", fmt.Errorf("%w: no masjid stored", core.ErrNotFound)
		}
		m = all[0]
	}

	if s, ok := act.Slots.Get(core.SlotPrayer); ok {
		t := m.PrayerTime(s.Value)
		if t == "" {
			return "", fmt.Errorf("%w: %s has no %s time", core.ErrUnresolvedAnchor, m.Name, s.Value)
		}
		return replyPrayerTime(st.Lang, m, s.Value, t), nil
	}

	name, at, err := recurrence.NextPrayer(recurrence.ScheduleFromMasjid(m), now)
	if err != nil {
		return "", err
	}
	return replyNextPrayer(st.Lang, m, name, at), nil
}

func (d *Dispatcher) queryHadith(ctx context.Context, st *conversation.State, now time.Time) (string, error) {
	h, err := d.store.HadithForDate(ctx, now)
	if err != nil {
		return "", err
	}
	return replyHadith(st.Lang, h), nil
}
