package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Datetime grammar. All parsing resolves against an injected reference
// instant; the extractor never reads the wall clock. Malformed or
// ambiguous expressions return ok=false so the caller omits the slot
// instead of guessing.

var (
	reAbsDate = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	reClock   = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?:\s*(am|pm))?\b`)
	reInRel   = regexp.MustCompile(`\bin (\d+) (hour|hours|minute|minutes)\b`)
)

// parseDatetime extracts a due instant from canonical text. It combines
// a date part (absolute YYYY-MM-DD, or relative today/tomorrow/tonight)
// with an optional clock time. A bare clock time means today, rolling
// to tomorrow when the time already passed.
func parseDatetime(text string, now time.Time) (time.Time, bool) {
	if m := reInRel.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return time.Time{}, false
		}
		if strings.HasPrefix(m[2], "hour") {
			return now.Add(time.Duration(n) * time.Hour), true
		}
		return now.Add(time.Duration(n) * time.Minute), true
	}

	base := now
	haveDate := false

	if m := reAbsDate.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if mo < 1 || mo > 12 || d < 1 || d > 31 {
			return time.Time{}, false
		}
		base = time.Date(y, time.Month(mo), d, 0, 0, 0, 0, now.Location())
		haveDate = true
	} else if strings.Contains(text, "tomorrow") {
		base = now.AddDate(0, 0, 1)
		haveDate = true
	} else if strings.Contains(text, "tonight") {
		// evening of today; default hour applies when no clock given
		t := time.Date(now.Year(), now.Month(), now.Day(), 20, 0, 0, 0, now.Location())
		if hour, min, ok := parseClock(text); ok {
			t = time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
		}
		return t, true
	} else if strings.Contains(text, "today") {
		base = now
		haveDate = true
	}

	hour, min, haveClock := parseClock(text)
	if !haveDate && !haveClock {
		return time.Time{}, false
	}

	if haveClock {
		t := time.Date(base.Year(), base.Month(), base.Day(), hour, min, 0, 0, now.Location())
		if !haveDate && t.Before(now) {
			// bare time already passed: next occurrence is tomorrow
			t = t.AddDate(0, 0, 1)
		}
		return t, true
	}
	// date word with no clock: due at start of that day
	return time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, now.Location()), true
}

// parseClock pulls an HH:MM (optionally am/pm qualified) time of day.
func parseClock(text string) (hour, min int, ok bool) {
	m := reClock.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(m[1])
	mi, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || mi > 59 {
		return 0, 0, false
	}
	switch m[3] {
	case "pm":
		if h < 1 || h > 12 {
			return 0, 0, false
		}
		if h != 12 {
			h += 12
		}
	case "am":
		if h < 1 || h > 12 {
			return 0, 0, false
		}
		if h == 12 {
			h = 0
		}
	default:
		if h > 23 {
			return 0, 0, false
		}
	}
	return h, mi, true
}

// stripDatetime removes the datetime phrases from a title span so
// "pray fajr tomorrow at 5:30 am" titles as "pray fajr".
func stripDatetime(text string) string {
	text = reInRel.ReplaceAllString(text, " ")
	text = reAbsDate.ReplaceAllString(text, " ")
	text = regexp.MustCompile(`\b(?:at\s+)?\d{1,2}:\d{2}(?:\s*(?:am|pm))?\b`).ReplaceAllString(text, " ")
	for _, w := range []string{"tomorrow", "tonight", "today", "morning", "evening"} {
		text = strings.ReplaceAll(text, w, " ")
	}
	text = strings.TrimSpace(strings.Join(strings.Fields(text), " "))
	for _, suf := range []string{" at", " on", " by"} {
		text = strings.TrimSpace(strings.TrimSuffix(text, suf))
	}
	return text
}
