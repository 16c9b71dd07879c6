package intent

import (
	"regexp"
	"strings"

	"salaatflow/internal/core"
)

// VerbPattern is one recognizable intent shape. Patterns are matched
// against canonical text (lowercase English after transliteration), so
// the corpus never needs Urdu-script entries.
type VerbPattern struct {
	Name     string
	Kind     core.ActionKind
	Patterns []*regexp.Regexp
	Keywords []string
	Priority int // higher wins ties
}

const (
	patternScore = 10
	keywordScore = 2
	minScore     = 2
)

// verbCorpus covers every supported intent. Order does not matter;
// scoring does.
var verbCorpus = []VerbPattern{
	{
		Name: "create_task",
		Kind: core.ActCreateTask,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:please\s+)?(?:add|create|make|set up|new)\b`),
			regexp.MustCompile(`\b(?:add|create|make)\s+(?:a\s+|the\s+)?(?:new\s+)?task\b`),
			regexp.MustCompile(`\bremind me\b`),
			regexp.MustCompile(`\bi (?:need|have|want) to\b`),
		},
		Keywords: []string{"add", "create", "make", "new task", "remind"},
		Priority: 1,
	},
	{
		Name: "list_tasks",
		Kind: core.ActListTasks,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:show|list|display|view)\b.*\btasks?\b`),
			regexp.MustCompile(`\bwhat(?: all)? (?:are|is)\b.*\b(?:tasks?|to ?do)\b`),
			regexp.MustCompile(`\bmy (?:pending |completed |)tasks?\b`),
			regexp.MustCompile(`^tasks?$`),
		},
		Keywords: []string{"show", "list", "tasks", "pending", "todo"},
		Priority: 2,
	},
	{
		Name: "complete_task",
		Kind: core.ActCompleteTask,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:complete|finish|finished|completed)\b`),
			regexp.MustCompile(`\bmark\b.*\b(?:done|complete|completed)\b`),
			regexp.MustCompile(`\b(?:is|i'?m|i am)?\s*done\b`),
		},
		Keywords: []string{"done", "complete", "finish", "finished"},
		Priority: 3,
	},
	{
		Name: "uncomplete_task",
		Kind: core.ActUncompleteTask,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:uncomplete|reopen|re-open|undo)\b`),
			regexp.MustCompile(`\b(?:not|isn'?t|was not|wasn'?t)\s+(?:actually\s+)?done\b`),
			regexp.MustCompile(`\bmark\b.*\b(?:not done|incomplete|pending)\b`),
		},
		Keywords: []string{"uncomplete", "reopen", "undo", "not done"},
		Priority: 5,
	},
	{
		Name: "delete_task",
		Kind: core.ActDeleteTask,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:delete|remove|drop|get rid of)\b`),
		},
		Keywords: []string{"delete", "remove"},
		Priority: 4,
	},
	{
		Name: "update_task",
		Kind: core.ActUpdateTask,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:update|change|edit|rename|modify|move|reschedule|postpone)\b`),
		},
		Keywords: []string{"update", "change", "edit", "rename", "reschedule"},
		Priority: 4,
	},
	{
		Name: "query_masjid",
		Kind: core.ActQueryMasjid,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:which|what|where|find|any|nearest|nearby)\b.*\bmasjids?\b`),
			regexp.MustCompile(`\bmasjids?\s+(?:in|near|around)\b`),
			regexp.MustCompile(`\b(?:tell|show)\b.*\b(?:about\s+)?masjid\b`),
		},
		Keywords: []string{"masjid", "mosque", "jamia"},
		Priority: 5,
	},
	{
		Name: "query_prayer_time",
		Kind: core.ActQueryPrayerTime,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:prayer|fajr|dhuhr|zuhr|asr|maghrib|isha|jummah?)\b.*\btimes?\b`),
			regexp.MustCompile(`\bwhen is\b.*\b(?:prayer|fajr|dhuhr|zuhr|asr|maghrib|isha|jummah?)\b`),
			regexp.MustCompile(`\b(?:what|which)\b.*\bnext prayer\b`),
			regexp.MustCompile(`\bnext prayer\b`),
			regexp.MustCompile(`\btimes?\s+(?:of|for)\s+(?:fajr|dhuhr|zuhr|asr|maghrib|isha|jummah?|prayer)\b`),
			regexp.MustCompile(`\bwhat time\b.*\b(?:fajr|dhuhr|zuhr|asr|maghrib|isha|jummah?|prayer)\b`),
		},
		Keywords: []string{"prayer time", "when is", "next prayer", "fajr", "maghrib", "isha", "time"},
		Priority: 6,
	},
	{
		Name: "query_hadith",
		Kind: core.ActQueryHadith,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bhadith|hadees\b`),
			regexp.MustCompile(`\b(?:tell|share|give)\b.*\bhadith\b`),
		},
		Keywords: []string{"hadith", "hadees"},
		Priority: 6,
	},
}

var reGreeting = regexp.MustCompile(`^(?:hi|hello|hey|salaam?|salam|assalam\s*o?\s*alaikum|assalamualaikum|as-?salamu\s+alaikum)\b[\s!.]*$`)

// affirmatives and negatives answer a pending confirmation. The
// canonical form already folded "ji haan" to yes and "mat karo" to
// cancel, so English forms suffice.
var affirmatives = map[string]bool{
	"yes": true, "yes please": true, "yep": true, "yeah": true,
	"sure": true, "confirm": true, "confirmed": true, "ok": true,
	"okay": true, "go ahead": true, "do it": true,
}

var negatives = map[string]bool{
	"no": true, "nope": true, "cancel": true, "stop": true,
	"never mind": true, "nevermind": true, "don't": true, "dont": true,
	"no cancel": true, "no don't": true,
}

// classify scores the canonical text against the corpus and returns
// the best action kind, or ActUnknown when nothing clears the floor.
func classify(canonical string) (core.ActionKind, int) {
	bestKind := core.ActUnknown
	bestScore := 0
	bestPriority := -1
	for _, vp := range verbCorpus {
		score := 0
		for _, re := range vp.Patterns {
			if re.MatchString(canonical) {
				score += patternScore
				break
			}
		}
		for _, kw := range vp.Keywords {
			if keywordMatch(canonical, kw) {
				score += keywordScore
			}
		}
		if score > bestScore || (score == bestScore && score > 0 && vp.Priority > bestPriority) {
			bestKind = vp.Kind
			bestScore = score
			bestPriority = vp.Priority
		}
	}
	if bestScore < minScore {
		return core.ActUnknown, 0
	}
	return bestKind, bestScore
}

// keywordMatch reports whether kw occurs in canonical on token
// boundaries, so "sometimes" never matches the keyword "time".
// Multi-word keywords must appear as consecutive tokens.
func keywordMatch(canonical, kw string) bool {
	tokens := strings.Fields(canonical)
	want := strings.Fields(kw)
	if len(want) == 0 {
		return false
	}
next:
	for i := 0; i+len(want) <= len(tokens); i++ {
		for j, w := range want {
			if tokens[i+j] != w {
				continue next
			}
		}
		return true
	}
	return false
}

// isGreeting reports whether the whole utterance is a bare greeting.
func isGreeting(canonical string) bool {
	return reGreeting.MatchString(canonical)
}

// answer classifies a reply to a pending confirmation: +1 yes, -1 no,
// 0 neither.
func answer(canonical string) int {
	trimmed := strings.TrimRight(strings.TrimSpace(canonical), "!. ")
	if affirmatives[trimmed] {
		return 1
	}
	if negatives[trimmed] {
		return -1
	}
	// A sentence that leads with a negative still reads as one.
	for neg := range negatives {
		if strings.HasPrefix(trimmed, neg+" ") {
			return -1
		}
	}
	return 0
}
