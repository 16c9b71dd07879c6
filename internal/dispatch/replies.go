package dispatch

import (
	"fmt"
	"strings"
	"time"

	"salaatflow/internal/core"
	"salaatflow/internal/normalize"
)

// Reply templates come in English and Roman Urdu pairs; the session's
// detected language picks the pair.

const replyTimeLayout = "Mon 2 Jan, 3:04 PM"

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatDue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(replyTimeLayout)
}

func replyCreated(lang normalize.Lang, t core.Task) string {
	var b strings.Builder
	if lang.Urdu() {
		fmt.Fprintf(&b, "Theek hai, task %d ban gaya: %q", t.ID, t.Title)
	} else {
		fmt.Fprintf(&b, "Done, created task %d: %q", t.ID, t.Title)
	}
	if t.DueAt != nil {
		fmt.Fprintf(&b, ", due %s", formatDue(t.DueAt))
	}
	if !t.Recurrence.IsZero() {
		if lang.Urdu() {
			b.WriteString(" (har dafa dohraya jayega)")
		} else {
			fmt.Fprintf(&b, " (repeats %s)", t.Recurrence.Freq)
		}
	}
	b.WriteString(".")
	return b.String()
}

func replyCompleted(lang normalize.Lang, t core.Task) string {
	if lang.Urdu() {
		return fmt.Sprintf("MashaAllah! Task %d (%q) mukammal ho gaya.", t.ID, t.Title)
	}
	return fmt.Sprintf("Well done! Marked task %d (%q) as complete.", t.ID, t.Title)
}

func replyCompletedRecurring(lang normalize.Lang, t core.Task, next time.Time) string {
	if lang.Urdu() {
		return fmt.Sprintf("MashaAllah! Task %d (%q) mukammal. Agli dafa: %s.",
			t.ID, t.Title, next.Format(replyTimeLayout))
	}
	return fmt.Sprintf("Well done! Completed task %d (%q). Next occurrence scheduled for %s.",
		t.ID, t.Title, next.Format(replyTimeLayout))
}

func replyUncompleted(lang normalize.Lang, t core.Task) string {
	if lang.Urdu() {
		return fmt.Sprintf("Theek hai, task %d (%q) dobara pending hai.", t.ID, t.Title)
	}
	return fmt.Sprintf("Okay, task %d (%q) is pending again.", t.ID, t.Title)
}

func replyDeleted(lang normalize.Lang, t core.Task) string {
	if lang.Urdu() {
		return fmt.Sprintf("Task %d (%q) delete ho gaya.", t.ID, t.Title)
	}
	return fmt.Sprintf("Deleted task %d (%q).", t.ID, t.Title)
}

func replyUpdated(lang normalize.Lang, t core.Task) string {
	if lang.Urdu() {
		return fmt.Sprintf("Task %d update ho gaya: %q.", t.ID, t.Title)
	}
	return fmt.Sprintf("Updated task %d: %q.", t.ID, t.Title)
}

func replyTaskList(lang normalize.Lang, filter core.ListFilter, tasks []core.Task) string {
	if len(tasks) == 0 {
		switch {
		case lang.Urdu():
			return "Koi task nahi mila."
		case filter == core.FilterCompleted:
			return "No completed tasks yet."
		case filter == core.FilterPending:
			return "No pending tasks. Alhamdulillah, all caught up!"
		default:
			return "You have no tasks yet."
		}
	}
	var b strings.Builder
	if lang.Urdu() {
		fmt.Fprintf(&b, "Aap ke %d tasks:\n", len(tasks))
	} else {
		label := "tasks"
		if filter == core.FilterPending {
			label = "pending tasks"
		} else if filter == core.FilterCompleted {
			label = "completed tasks"
		}
		fmt.Fprintf(&b, "You have %d %s:\n", len(tasks), label)
	}
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "  [%s] %d. %s", mark, t.ID, t.Title)
		if t.Category != "" && t.Category != core.CategoryOther {
			fmt.Fprintf(&b, " (%s)", t.Category)
		}
		if t.DueAt != nil {
			fmt.Fprintf(&b, ", due %s", formatDue(t.DueAt))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func replyMasjidDetail(lang normalize.Lang, m core.Masjid) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", m.Name)
	if m.Area != "" {
		fmt.Fprintf(&b, ", %s", m.Area)
	}
	if m.City != "" {
		fmt.Fprintf(&b, ", %s", m.City)
	}
	b.WriteString("\n")
	if m.ImamName != "" {
		fmt.Fprintf(&b, "Imam: %s\n", m.ImamName)
	}
	if lang.Urdu() {
		b.WriteString("Namaz ke auqat:\n")
	} else {
		b.WriteString("Prayer times:\n")
	}
	for _, p := range core.PrayerNames {
		if t := m.PrayerTime(p); t != "" {
			fmt.Fprintf(&b, "  %s: %s\n", titleCase(p), t)
		}
	}
	if m.JummahTime != "" {
		fmt.Fprintf(&b, "  Jummah: %s\n", m.JummahTime)
	}
	return strings.TrimRight(b.String(), "\n")
}

func replyMasjidList(lang normalize.Lang, area string, masjids []core.Masjid) string {
	var b strings.Builder
	switch {
	case lang.Urdu() && area != "":
		fmt.Fprintf(&b, "%s mein %d masjid mili:\n", area, len(masjids))
	case lang.Urdu():
		fmt.Fprintf(&b, "%d masjid mili:\n", len(masjids))
	case area != "":
		fmt.Fprintf(&b, "Found %d masjids in %s:\n", len(masjids), area)
	default:
		fmt.Fprintf(&b, "Found %d masjids:\n", len(masjids))
	}
	for _, m := range masjids {
		fmt.Fprintf(&b, "  - %s (%s)", m.Name, m.Area)
		if m.FajrTime != "" {
			fmt.Fprintf(&b, ", Fajr %s", m.FajrTime)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func replyPrayerTime(lang normalize.Lang, m core.Masjid, prayer, t string) string {
	name := titleCase(prayer)
	if lang.Urdu() {
		return fmt.Sprintf("%s mein %s ki namaz %s baje hai.", m.Name, name, t)
	}
	return fmt.Sprintf("%s at %s is at %s.", name, m.Name, t)
}

func replyNextPrayer(lang normalize.Lang, m core.Masjid, prayer string, at time.Time) string {
	name := titleCase(prayer)
	if lang.Urdu() {
		return fmt.Sprintf("Agli namaz %s hai, %s mein %s baje.", name, m.Name, at.Format("3:04 PM"))
	}
	return fmt.Sprintf("The next prayer is %s at %s, %s.", name, m.Name, at.Format("3:04 PM"))
}

func replyHadith(lang normalize.Lang, h core.Hadith) string {
	var b strings.Builder
	if h.ArabicText != "" {
		b.WriteString(h.ArabicText)
		b.WriteString("\n\n")
	}
	if lang.Urdu() && h.Urdu != "" {
		b.WriteString(h.Urdu)
	} else {
		b.WriteString(h.English)
	}
	if h.Narrator != "" || h.Source != "" {
		b.WriteString("\n- ")
		if h.Narrator != "" {
			fmt.Fprintf(&b, "narrated by %s", h.Narrator)
		}
		if h.Source != "" {
			if h.Narrator != "" {
				b.WriteString(", ")
			}
			b.WriteString(h.Source)
		}
	}
	return b.String()
}
