// Package extract implements the entity extractor: it pulls typed slots
// (title, category, masjid, area, datetime, recurrence, task reference,
// priority, list filter) out of canonical utterance text. The fixed
// grammar rules here are deterministic and always win; an optional
// free-text oracle may contribute advisory slots for phrasing the
// grammar does not cover.
package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"salaatflow/internal/core"
	"salaatflow/internal/logging"
	"salaatflow/internal/normalize"
)

// Oracle is the advisory free-text-understanding collaborator. It is
// best effort: errors and timeouts are swallowed, and its slots never
// override a grammar-extracted slot of the same kind.
type Oracle interface {
	ExtractSlots(ctx context.Context, text string, expected []core.SlotKind) ([]core.Slot, error)
}

// Extractor turns canonical text into a SlotSet.
type Extractor struct {
	oracle        Oracle
	oracleTimeout time.Duration
}

// New returns an Extractor. oracle may be nil.
func New(oracle Oracle) *Extractor {
	return &Extractor{oracle: oracle, oracleTimeout: 10 * time.Second}
}

// oracleConfidenceCap keeps advisory slots below every grammar slot.
const oracleConfidenceCap = 0.8

// Extract runs the grammar rules (and the oracle, when configured) over
// the utterance. lastTaskID feeds anaphora resolution; now anchors all
// relative datetime expressions.
func (e *Extractor) Extract(ctx context.Context, utt normalize.Utterance, lastTaskID int64, now time.Time) core.SlotSet {
	var grammar, advisory core.SlotSet

	if e.oracle == nil {
		grammar = extractGrammar(utt.Canonical, lastTaskID, now)
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			grammar = extractGrammar(utt.Canonical, lastTaskID, now)
			return nil
		})
		g.Go(func() error {
			octx, cancel := context.WithTimeout(gctx, e.oracleTimeout)
			defer cancel()
			slots, err := e.oracle.ExtractSlots(octx, utt.Canonical, allSlotKinds)
			if err != nil {
				logging.APIDebug("oracle extraction failed (advisory, ignored): %v", err)
				return nil
			}
			advisory = make(core.SlotSet, len(slots))
			for _, s := range slots {
				if s.Confidence > oracleConfidenceCap {
					s.Confidence = oracleConfidenceCap
				}
				advisory.Put(s)
			}
			return nil
		})
		_ = g.Wait()
	}

	// Grammar precedence: advisory slots only fill kinds the grammar
	// left empty.
	for k, s := range advisory {
		if !grammar.Has(k) {
			grammar[k] = s
		}
	}

	logging.PerceptionDebug("extracted %d slots from %q", len(grammar), utt.Canonical)
	return grammar
}

var allSlotKinds = []core.SlotKind{
	core.SlotTitle, core.SlotDescription, core.SlotCategory,
	core.SlotMasjidRef, core.SlotArea, core.SlotDueDatetime,
	core.SlotRecurrence, core.SlotTaskRef, core.SlotPriority,
}

var (
	reTaskID    = regexp.MustCompile(`\btask\s+(?:number\s+|id\s+)?(\d+)\b`)
	reTitleTail = regexp.MustCompile(`\b(?:task|reminder)\s+(?:to|for|called|named)\s+(.+)$`)
	reVerbTail  = regexp.MustCompile(`^(?:please\s+)?(?:add|create|make)\s+(?:(?:a|an|new)\s+)*(?:task|reminder)?\s*(?:to|for|called|named)?\s*(.+)$`)
	reRemind    = regexp.MustCompile(`\bremind me\b.*?\bto\s+(.+)$`)
	reRefPhrase = regexp.MustCompile(`\b(?:delete|remove|complete|finish|update|change|edit|uncomplete|reopen)\s+(?:my\s+|the\s+|this\s+)?(.+?)\s+task\b`)
	reMarkDone  = regexp.MustCompile(`\bmark\s+(?:my\s+|the\s+)?(.+?)\s+(?:as\s+)?(?:done|complete|completed|not done|incomplete)\b`)
	reOffset    = regexp.MustCompile(`\b(\d+)\s+min(?:ute)?s?\s+before\s+(fajr|dhuhr|asr|maghrib|isha|jummah)\b`)
	reOffsetUr  = regexp.MustCompile(`\b(fajr|dhuhr|asr|maghrib|isha|jummah)\s+se\s+(\d+)\s+min(?:ute)?s?\s+before\b`)
	reWeekday   = regexp.MustCompile(`\bevery\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)s?\b`)
)

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// categoryKeywords maps keywords (post-normalization, so Urdu
// equivalents arrive already transliterated) to task categories. The
// five daily prayers classify as Farz.
var categoryKeywords = []struct {
	kw  string
	cat core.TaskCategory
}{
	{"farz", core.CategoryFarz},
	{"fajr", core.CategoryFarz},
	{"dhuhr", core.CategoryFarz},
	{"asr", core.CategoryFarz},
	{"maghrib", core.CategoryFarz},
	{"isha", core.CategoryFarz},
	{"jummah", core.CategoryFarz},
	{"sunnah", core.CategorySunnah},
	{"tahajjud", core.CategorySunnah},
	{"duha", core.CategorySunnah},
	{"nafl", core.CategoryNafl},
	{"quran", core.CategoryNafl},
	{"tilawat", core.CategoryNafl},
	{"recitation", core.CategoryNafl},
	{"deed", core.CategoryDeed},
	{"charity", core.CategoryDeed},
	{"donate", core.CategoryDeed},
	{"donation", core.CategoryDeed},
	{"helping", core.CategoryDeed},
}

// masjidMarkers start a masjid name span.
var masjidMarkers = []string{"masjid", "jamia", "baitul"}

// spanStopwords terminate a masjid-name or area span.
var spanStopwords = map[string]bool{
	"tomorrow": true, "today": true, "tonight": true, "at": true,
	"in": true, "on": true, "every": true, "daily": true, "weekly": true,
	"am": true, "pm": true, "and": true, "for": true, "task": true,
	"before": true, "after": true, "se": true, "time": true, "what": true,
	"to": true,
	"when": true, "is": true, "the": true, "prayer": true, "next": true,
	"area": true, "ka": true, "ki": true, "ke": true, "show": true,
	"tell": true, "add": true, "my": true,
}

func extractGrammar(text string, lastTaskID int64, now time.Time) core.SlotSet {
	slots := make(core.SlotSet)

	// Work on a copy we can carve spans out of for title extraction.
	remainder := text

	// Masjid reference: a marker word plus following name tokens.
	if name, span := findMasjidSpan(text); name != "" {
		slots.Put(core.Slot{Kind: core.SlotMasjidRef, Value: name, Confidence: 0.9})
		remainder = strings.Replace(remainder, span, " ", 1)
	}

	// Area: "in <area tokens>" (skipping time-like continuations).
	if area := findAreaSpan(text); area != "" {
		slots.Put(core.Slot{Kind: core.SlotArea, Value: area, Confidence: 0.85})
	}

	// Datetime.
	if due, ok := parseDatetime(text, now); ok {
		d := due
		slots.Put(core.Slot{Kind: core.SlotDueDatetime, Time: &d,
			Value: d.Format("2006-01-02 15:04"), Confidence: 0.9})
	}

	// Recurrence.
	if rule, ok := parseRecurrence(text, slots); ok {
		r := rule
		slots.Put(core.Slot{Kind: core.SlotRecurrence, Rule: &r,
			Value: string(rule.Freq), Confidence: 0.9})
	}

	// Category.
	for _, ck := range categoryKeywords {
		if containsWord(text, ck.kw) {
			slots.Put(core.Slot{Kind: core.SlotCategory, Value: string(ck.cat), Confidence: 0.9})
			break
		}
	}

	// Priority.
	switch {
	case containsWord(text, "urgent"):
		slots.Put(core.Slot{Kind: core.SlotPriority, Value: string(core.PriorityUrgent), Confidence: 0.9})
	case containsWord(text, "important") || containsWord(text, "high priority"):
		slots.Put(core.Slot{Kind: core.SlotPriority, Value: string(core.PriorityHigh), Confidence: 0.9})
	case containsWord(text, "low priority"):
		slots.Put(core.Slot{Kind: core.SlotPriority, Value: string(core.PriorityLow), Confidence: 0.9})
	}

	// List filter.
	switch {
	case containsWord(text, "completed") || containsWord(text, "finished"):
		slots.Put(core.Slot{Kind: core.SlotListFilter, Value: string(core.FilterCompleted), Confidence: 0.9})
	case containsWord(text, "pending") || containsWord(text, "remaining") || containsWord(text, "incomplete"):
		slots.Put(core.Slot{Kind: core.SlotListFilter, Value: string(core.FilterPending), Confidence: 0.9})
	case containsWord(text, "all"):
		slots.Put(core.Slot{Kind: core.SlotListFilter, Value: string(core.FilterAll), Confidence: 0.7})
	}

	// Task reference ladder: explicit id > title phrase > anaphora.
	extractTaskRef(text, lastTaskID, slots)

	// Title: the tail after a create verb, minus carved-out spans.
	extractTitle(remainder, slots)

	return slots
}

func extractTaskRef(text string, lastTaskID int64, slots core.SlotSet) {
	if m := reTaskID.FindStringSubmatch(text); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			slots.Put(core.Slot{Kind: core.SlotTaskRef, Value: m[1], TaskID: id, Confidence: 1.0})
			return
		}
	}
	if m := reRefPhrase.FindStringSubmatch(text); m != nil {
		ref := strings.TrimSpace(m[1])
		if ref != "" && ref != "a" && ref != "this" && ref != "that" {
			slots.Put(core.Slot{Kind: core.SlotTaskRef, Value: ref, Confidence: 0.85})
			return
		}
	}
	if m := reMarkDone.FindStringSubmatch(text); m != nil {
		ref := strings.TrimSuffix(strings.TrimSpace(m[1]), " task")
		if ref != "" && ref != "it" && ref != "that" && ref != "this" {
			slots.Put(core.Slot{Kind: core.SlotTaskRef, Value: ref, Confidence: 0.85})
			return
		}
	}
	// Anaphora: "delete it", "mark that done".
	if lastTaskID > 0 && (containsWord(text, "it") || containsWord(text, "that") || containsWord(text, "this")) {
		slots.Put(core.Slot{Kind: core.SlotTaskRef, Value: "it",
			TaskID: lastTaskID, Confidence: 0.75})
	}
}

func extractTitle(remainder string, slots core.SlotSet) {
	var title string
	if m := reTitleTail.FindStringSubmatch(remainder); m != nil {
		title = m[1]
	} else if m := reRemind.FindStringSubmatch(remainder); m != nil {
		title = m[1]
	} else if m := reVerbTail.FindStringSubmatch(remainder); m != nil {
		title = m[1]
	}
	if title == "" {
		return
	}
	title = stripDatetime(title)
	title = stripRecurrencePhrases(title)
	title = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(title), " task"))
	// "add a task" leaves the bare noun in the tail; that is not a title.
	if title == "" || title == "task" || title == "reminder" {
		return
	}
	slots.Put(core.Slot{Kind: core.SlotTitle, Value: title, Confidence: 0.85})
}

// CleanTitle turns a bare clarification answer into a task title by
// carving out masjid, datetime, and recurrence phrasing.
func CleanTitle(text string) string {
	if name, span := findMasjidSpan(text); name != "" {
		text = strings.Replace(text, span, " ", 1)
	}
	t := stripDatetime(text)
	t = stripRecurrencePhrases(t)
	t = strings.Join(strings.Fields(t), " ")
	return strings.TrimSpace(strings.TrimSuffix(t, " task"))
}

// findMasjidSpan locates a masjid name starting at a marker word and
// extending over following non-stopword tokens. Returns the name and
// the exact span matched in the text.
func findMasjidSpan(text string) (name, span string) {
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		marker := false
		for _, m := range masjidMarkers {
			if tok == m {
				marker = true
				break
			}
		}
		if !marker {
			continue
		}
		// "which masjid", "masjid kahan" style queries carry no name
		j := i + 1
		var parts []string
		parts = append(parts, tok)
		for j < len(tokens) && len(parts) < 4 {
			next := tokens[j]
			if spanStopwords[next] || isNumeric(next) || strings.Contains(next, ":") {
				break
			}
			// a second marker extends the span ("jamia masjid clifton")
			parts = append(parts, next)
			j++
		}
		if len(parts) == 1 && tok != "masjid" {
			continue
		}
		if len(parts) == 1 {
			// bare "masjid" with no name is a query word, not a reference
			return "", ""
		}
		span = strings.Join(parts, " ")
		return span, span
	}
	return "", ""
}

// findAreaSpan extracts "in <area>" spans like "masjids in clifton".
func findAreaSpan(text string) string {
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		if tok != "in" || i+1 >= len(tokens) {
			continue
		}
		first := tokens[i+1]
		if isNumeric(first) || spanStopwords[first] || first == "a" || first == "an" {
			continue // "in 2 hours", "in the ..."
		}
		// skip masjid-name spans; those belong to the masjid slot
		if first == "masjid" || first == "jamia" || first == "baitul" {
			continue
		}
		var parts []string
		for j := i + 1; j < len(tokens) && len(parts) < 4; j++ {
			next := tokens[j]
			if spanStopwords[next] && next != "ka" {
				break
			}
			if strings.Contains(next, ":") {
				break
			}
			parts = append(parts, next)
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return ""
}

// parseRecurrence builds a recurrence rule from daily/weekly phrases
// and prayer-offset expressions. The anchor time-of-day comes from the
// extracted due time when present.
func parseRecurrence(text string, slots core.SlotSet) (core.RecurrenceRule, bool) {
	rule := core.RecurrenceRule{Freq: core.FreqNone}

	switch {
	case containsWord(text, "daily") || strings.Contains(text, "every day") || containsWord(text, "everyday"):
		rule.Freq = core.FreqDaily
	case containsWord(text, "weekly") || strings.Contains(text, "every week"):
		rule.Freq = core.FreqWeekly
	}

	if m := reWeekday.FindStringSubmatch(text); m != nil {
		rule.Freq = core.FreqWeekly
		rule.Weekdays = []time.Weekday{weekdayNames[m[1]]}
	}

	if m := reOffset.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		rule.OffsetEvent = m[2]
		rule.OffsetMinutes = n
		if rule.Freq == core.FreqNone {
			rule.Freq = core.FreqDaily
		}
	} else if m := reOffsetUr.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[2])
		rule.OffsetEvent = m[1]
		rule.OffsetMinutes = n
		if rule.Freq == core.FreqNone {
			rule.Freq = core.FreqDaily
		}
	}

	if rule.IsZero() {
		return rule, false
	}

	if due, ok := slots.Get(core.SlotDueDatetime); ok && due.Time != nil && rule.OffsetEvent == "" {
		rule.AnchorHour = due.Time.Hour()
		rule.AnchorMinute = due.Time.Minute()
	}
	return rule, true
}

func stripRecurrencePhrases(s string) string {
	s = reWeekday.ReplaceAllString(s, " ")
	s = reOffset.ReplaceAllString(s, " ")
	s = reOffsetUr.ReplaceAllString(s, " ")
	for _, w := range []string{"every day", "everyday", "every week", "daily", "weekly"} {
		s = strings.ReplaceAll(s, w, " ")
	}
	s = strings.Join(strings.Fields(s), " ")
	for _, suf := range []string{" at", " on", " by"} {
		s = strings.TrimSpace(strings.TrimSuffix(s, suf))
	}
	return s
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// containsWord reports whether text contains w as a whole word (w may
// itself contain spaces).
func containsWord(text, w string) bool {
	idx := 0
	for {
		j := strings.Index(text[idx:], w)
		if j < 0 {
			return false
		}
		j += idx
		before := j == 0 || text[j-1] == ' '
		afterIdx := j + len(w)
		after := afterIdx >= len(text) || text[afterIdx] == ' '
		if before && after {
			return true
		}
		idx = j + 1
	}
}
