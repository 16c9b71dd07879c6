// Package recurrence expands recurrence rules into concrete due
// instants. The engine is pure: it performs no persistence and never
// reads the wall clock. Prayer-anchored rules need the masjid's
// schedule supplied by the caller; when it is missing the engine fails
// with ErrUnresolvedAnchor instead of fabricating a time.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"salaatflow/internal/core"
	"salaatflow/internal/logging"
)

// PrayerSchedule maps prayer name to "HH:MM" time-of-day, as stored on
// a masjid row. A nil schedule means no masjid data is available.
type PrayerSchedule map[string]string

// ScheduleFromMasjid builds a PrayerSchedule from a masjid row.
func ScheduleFromMasjid(m core.Masjid) PrayerSchedule {
	s := PrayerSchedule{}
	for _, p := range core.PrayerNames {
		if t := m.PrayerTime(p); t != "" {
			s[p] = t
		}
	}
	if m.JummahTime != "" {
		s["jummah"] = m.JummahTime
	}
	return s
}

// Next returns the first occurrence of rule strictly after ref.
// Strict advancement guarantees that feeding an occurrence back in as
// the new reference always moves forward, so a completed recurring
// task's successor never lands on the completed instant.
func Next(rule core.RecurrenceRule, ref time.Time, schedule PrayerSchedule) (time.Time, error) {
	if rule.IsZero() {
		return time.Time{}, fmt.Errorf("rule has no recurrence")
	}

	var anchorH, anchorM int
	if rule.OffsetEvent != "" {
		h, m, err := resolveAnchorOffset(rule, schedule)
		if err != nil {
			return time.Time{}, err
		}
		anchorH, anchorM = h, m
	} else {
		anchorH, anchorM = rule.AnchorHour, rule.AnchorMinute
	}

	// Walk forward day by day from ref's date. Eight days covers every
	// weekly weekday set; daily resolves within two.
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	for i := 0; i < 8; i++ {
		candidate := day.Add(time.Duration(anchorH)*time.Hour + time.Duration(anchorM)*time.Minute)
		if candidate.After(ref) && dayMatches(rule, candidate) {
			logging.Recur("next occurrence of %s rule: %s", rule.Freq, candidate.Format(time.RFC3339))
			return candidate, nil
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, fmt.Errorf("no occurrence within 8 days for %s rule", rule.Freq)
}

// dayMatches applies the weekly weekday restriction. An empty weekday
// set on a weekly rule pins the rule to the reference weekday via the
// first match, which the 8-day walk handles naturally for daily rules.
func dayMatches(rule core.RecurrenceRule, candidate time.Time) bool {
	if rule.Freq != core.FreqWeekly || len(rule.Weekdays) == 0 {
		return true
	}
	for _, wd := range rule.Weekdays {
		if candidate.Weekday() == wd {
			return true
		}
	}
	return false
}

// resolveAnchorOffset computes the time-of-day for a prayer-anchored
// rule: the prayer time minus the offset.
func resolveAnchorOffset(rule core.RecurrenceRule, schedule PrayerSchedule) (int, int, error) {
	if schedule == nil {
		return 0, 0, fmt.Errorf("%w: no prayer schedule for %q", core.ErrUnresolvedAnchor, rule.OffsetEvent)
	}
	raw, ok := schedule[rule.OffsetEvent]
	if !ok || raw == "" {
		return 0, 0, fmt.Errorf("%w: schedule has no %q time", core.ErrUnresolvedAnchor, rule.OffsetEvent)
	}
	h, m, err := parseHHMM(raw)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed %q time %q", core.ErrUnresolvedAnchor, rule.OffsetEvent, raw)
	}
	total := h*60 + m - rule.OffsetMinutes
	for total < 0 {
		total += 24 * 60
	}
	total %= 24 * 60
	return total / 60, total % 60, nil
}

// parseHHMM parses a stored "HH:MM" prayer time.
func parseHHMM(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("not HH:MM: %q", s)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("not HH:MM: %q", s)
	}
	return h, m, nil
}

// NextPrayer returns the name and instant of the first prayer at or
// after ref according to the schedule, rolling to the next day's Fajr
// when the day's prayers are over.
func NextPrayer(schedule PrayerSchedule, ref time.Time) (string, time.Time, error) {
	if len(schedule) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: empty prayer schedule", core.ErrUnresolvedAnchor)
	}
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	for dayOffset := 0; dayOffset < 2; dayOffset++ {
		for _, name := range core.PrayerNames {
			raw, ok := schedule[name]
			if !ok {
				continue
			}
			h, m, err := parseHHMM(raw)
			if err != nil {
				continue
			}
			candidate := day.AddDate(0, 0, dayOffset).
				Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
			if !candidate.Before(ref) {
				return name, candidate, nil
			}
		}
	}
	return "", time.Time{}, fmt.Errorf("%w: no parsable prayer times", core.ErrUnresolvedAnchor)
}
