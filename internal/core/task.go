// Package core defines the domain types shared by the interpreter pipeline:
// tasks, masjids, hadith, extracted slots, resolved actions, recurrence
// rules, and the error taxonomy. It has no dependencies on the rest of the
// module so every layer can import it.
package core

import "time"

// TaskCategory classifies a spiritual task.
type TaskCategory string

const (
	CategoryFarz   TaskCategory = "Farz"   // obligatory
	CategorySunnah TaskCategory = "Sunnah" // prophetic tradition
	CategoryNafl   TaskCategory = "Nafl"   // voluntary
	CategoryDeed   TaskCategory = "Deed"   // good deeds
	CategoryOther  TaskCategory = "Other"
)

// ValidCategory reports whether s is one of the known categories.
func ValidCategory(s string) bool {
	switch TaskCategory(s) {
	case CategoryFarz, CategorySunnah, CategoryNafl, CategoryDeed, CategoryOther:
		return true
	}
	return false
}

// Priority is the task priority level.
type Priority string

const (
	PriorityUrgent Priority = "Urgent"
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Frequency is a recurrence frequency.
type Frequency string

const (
	FreqNone   Frequency = "none"
	FreqDaily  Frequency = "daily"
	FreqWeekly Frequency = "weekly"
)

// RecurrenceRule describes how a task repeats.
//
// Anchor is the wall-clock time-of-day the task recurs at. When
// OffsetEvent is non-empty the rule is bound to a masjid prayer time
// instead of a fixed clock time: the due instant is the prayer time
// minus OffsetMinutes. Weekdays restricts weekly rules to a subset of
// days; empty means every day qualifies.
type RecurrenceRule struct {
	Freq          Frequency      `json:"freq"`
	AnchorHour    int            `json:"anchor_hour"`
	AnchorMinute  int            `json:"anchor_minute"`
	OffsetEvent   string         `json:"offset_event,omitempty"` // prayer name, e.g. "fajr"
	OffsetMinutes int            `json:"offset_minutes,omitempty"`
	Weekdays      []time.Weekday `json:"weekdays,omitempty"`
}

// IsZero reports whether the rule carries no recurrence.
func (r RecurrenceRule) IsZero() bool {
	return r.Freq == "" || r.Freq == FreqNone
}

// Task is a spiritual task row. Invariants enforced by the store:
// CompletedAt is non-nil iff Completed, and UpdatedAt never moves
// backwards or precedes CreatedAt.
type Task struct {
	ID          int64
	Title       string
	Description string
	Category    TaskCategory
	Priority    Priority
	Tags        string // comma-separated
	MasjidID    int64  // 0 = no masjid
	Area        string
	DueAt       *time.Time
	Recurrence  RecurrenceRule
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Masjid is a mosque with its daily prayer schedule. Prayer times are
// "HH:MM" strings as stored; see PrayerSchedule for the parsed form.
type Masjid struct {
	ID        int64
	Name      string
	Area      string
	City      string
	Address   string
	ImamName  string
	Phone     string
	Latitude  float64
	Longitude float64

	FajrTime    string
	DhuhrTime   string
	AsrTime     string
	MaghribTime string
	IshaTime    string
	JummahTime  string // optional, Friday only
}

// PrayerNames lists the five daily prayers in schedule order.
var PrayerNames = []string{"fajr", "dhuhr", "asr", "maghrib", "isha"}

// PrayerTime returns the stored "HH:MM" time for the named prayer,
// or "" when unknown.
func (m Masjid) PrayerTime(prayer string) string {
	switch prayer {
	case "fajr":
		return m.FajrTime
	case "dhuhr":
		return m.DhuhrTime
	case "asr":
		return m.AsrTime
	case "maghrib":
		return m.MaghribTime
	case "isha":
		return m.IshaTime
	case "jummah":
		return m.JummahTime
	}
	return ""
}

// Hadith is a daily hadith row.
type Hadith struct {
	ID         int64
	ArabicText string
	English    string
	Urdu       string
	Narrator   string
	Source     string
	Theme      string
}

// ListFilter selects which tasks a list operation returns.
type ListFilter string

const (
	FilterAll       ListFilter = "all"
	FilterPending   ListFilter = "pending"
	FilterCompleted ListFilter = "completed"
)

// ValidFilter reports whether f is a recognized list filter.
func ValidFilter(f ListFilter) bool {
	return f == FilterAll || f == FilterPending || f == FilterCompleted
}
