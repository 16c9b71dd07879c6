package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salaatflow/internal/core"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "salaatflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var testNow = time.Date(2025, 12, 27, 10, 0, 0, 0, time.UTC)

func TestCreateAndGetTask(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	due := time.Date(2025, 12, 28, 5, 30, 0, 0, time.UTC)
	task := &core.Task{
		Title:    "pray fajr",
		Category: core.CategoryFarz,
		MasjidID: 1,
		DueAt:    &due,
	}
	require.NoError(t, s.CreateTask(ctx, task, testNow))
	require.NotZero(t, task.ID)
	assert.Equal(t, testNow, task.CreatedAt)

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "pray fajr", got.Title)
	assert.Equal(t, core.CategoryFarz, got.Category)
	assert.Equal(t, core.PriorityMedium, got.Priority, "default priority")
	require.NotNil(t, got.DueAt)
	assert.True(t, got.DueAt.Equal(due))
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
}

func TestGetTaskNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetTask(context.Background(), 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRecurrenceRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	task := &core.Task{
		Title: "wake for tahajjud",
		Recurrence: core.RecurrenceRule{
			Freq:          core.FreqDaily,
			OffsetEvent:   "fajr",
			OffsetMinutes: 20,
		},
	}
	require.NoError(t, s.CreateTask(ctx, task, testNow))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, core.FreqDaily, got.Recurrence.Freq)
	assert.Equal(t, "fajr", got.Recurrence.OffsetEvent)
	assert.Equal(t, 20, got.Recurrence.OffsetMinutes)
}

func TestCompletionInvariant(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	task := &core.Task{Title: "read quran"}
	require.NoError(t, s.CreateTask(ctx, task, testNow))

	later := testNow.Add(time.Hour)
	got, err := s.SetTaskCompleted(ctx, task.ID, true, later)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(later))

	got, err = s.SetTaskCompleted(ctx, task.ID, false, later.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt, "completed_at cleared on uncomplete")
}

func TestUpdatedAtNeverMovesBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	task := &core.Task{Title: "give charity"}
	require.NoError(t, s.CreateTask(ctx, task, testNow))

	later := testNow.Add(2 * time.Hour)
	got, err := s.SetTaskCompleted(ctx, task.ID, true, later)
	require.NoError(t, err)
	require.True(t, got.UpdatedAt.Equal(later))

	// A clock that jumped backwards must not rewind updated_at.
	got.Title = "give sadaqah"
	got, err = s.UpdateTask(ctx, got, testNow)
	require.NoError(t, err)
	assert.Equal(t, "give sadaqah", got.Title)
	assert.False(t, got.UpdatedAt.Before(later))
}

func TestDeleteTask(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	task := &core.Task{Title: "call ammi"}
	require.NoError(t, s.CreateTask(ctx, task, testNow))
	require.NoError(t, s.DeleteTask(ctx, task.ID))

	_, err := s.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, task.ID), core.ErrNotFound)
}

func TestListTasksFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := &core.Task{Title: "pray fajr"}
	b := &core.Task{Title: "read quran"}
	require.NoError(t, s.CreateTask(ctx, a, testNow))
	require.NoError(t, s.CreateTask(ctx, b, testNow.Add(time.Minute)))
	_, err := s.SetTaskCompleted(ctx, a.ID, true, testNow.Add(time.Hour))
	require.NoError(t, err)

	all, err := s.ListTasks(ctx, core.FilterAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "read quran", all[0].Title, "newest first")

	pending, err := s.ListTasks(ctx, core.FilterPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	completed, err := s.ListTasks(ctx, core.FilterCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, a.ID, completed[0].ID)

	_, err = s.ListTasks(ctx, core.ListFilter("overdue"))
	assert.ErrorIs(t, err, core.ErrInvalidFilter)
}

func TestFindTasksByTitle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTask(ctx, &core.Task{Title: "Pray Fajr at the masjid"}, testNow))
	require.NoError(t, s.CreateTask(ctx, &core.Task{Title: "read quran"}, testNow))

	found, err := s.FindTasksByTitle(ctx, "fajr")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Pray Fajr at the masjid", found[0].Title)

	found, err = s.FindTasksByTitle(ctx, "nothing like this")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSeededMasjids(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m, err := s.FindMasjidByName(ctx, "al-huda")
	require.NoError(t, err)
	assert.Equal(t, "Masjid Al-Huda", m.Name)
	assert.Equal(t, "DHA Phase 5", m.Area)
	assert.Equal(t, "05:30", m.FajrTime)
	assert.Equal(t, "13:30", m.JummahTime)

	_, err = s.FindMasjidByName(ctx, "no such masjid anywhere")
	assert.ErrorIs(t, err, core.ErrNotFound)

	inDHA, err := s.ListMasjidsByArea(ctx, "dha")
	require.NoError(t, err)
	require.Len(t, inDHA, 1)

	all, err := s.ListMasjidsByArea(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestSeedIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salaatflow.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	all, err := s.ListMasjidsByArea(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 5, "reopening must not duplicate seed rows")
}

func TestHadithForDate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	day := time.Date(2025, 12, 27, 0, 0, 0, 0, time.UTC)
	h1, err := s.HadithForDate(ctx, day)
	require.NoError(t, err)
	assert.NotEmpty(t, h1.English)

	h2, err := s.HadithForDate(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, h1.ID, h2.ID, "same date yields the same hadith")

	h3, err := s.HadithForDate(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.NotEqual(t, h1.ID, h3.ID)
}
