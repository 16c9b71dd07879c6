// Package normalize implements the utterance normalizer: script and
// language detection plus transliteration of common Romanized-Urdu
// vocabulary into canonical English tokens. Normalization is a pure
// function and never fails; unrecognized segments pass through
// unchanged. The raw text is carried alongside the canonical form so
// downstream layers can echo the user's language.
package normalize

import (
	"strings"
	"unicode"
)

// Lang is the detected language tag of an utterance.
type Lang string

const (
	LangEnglish   Lang = "en"
	LangUrdu      Lang = "ur"      // Arabic-script Urdu
	LangRomanUrdu Lang = "ur-Latn" // Romanized Urdu
	LangMixed     Lang = "mixed"
)

// Urdu reports whether the tag calls for an Urdu-flavoured reply.
func (l Lang) Urdu() bool {
	return l == LangUrdu || l == LangRomanUrdu || l == LangMixed
}

// Utterance is the normalizer output: the original text, the canonical
// lowercase English-token form the grammar operates on, and the
// detected language.
type Utterance struct {
	Raw       string
	Canonical string
	Lang      Lang
}

// romanUrduKeywords signal Romanized Urdu when two or more occur.
var romanUrduKeywords = []string{
	"aaj", "kal", "kya", "hai", "mujhe", "sunao", "bana", "banao",
	"pehle", "baad", "mein", "namaz", "sadaqah", "karna", "karo",
	"chahiye", "dikhao", "dikhaao", "batao", "chahte", "hain", "liye",
	"wale", "nahi", "koi", "kitni", "kitne", "kahan", "kis", "haan",
	"zaruri", "hatao", "mukammal", "gaya",
}

// phraseTable maps multi-word Roman-Urdu phrases first, so "ji haan"
// does not turn into "ji yes". Longest-match wins by ordering.
var phraseTable = []struct{ from, to string }{
	{"ji haan", "yes"},
	{"ji nahi", "no"},
	{"mat karo", "cancel"},
	{"ho gaya", "done"},
	{"ho gayi", "done"},
	{"kar diya", "done"},
	{"bana do", "add"},
	{"add karo", "add"},
	{"delete karo", "delete"},
	{"kya hai", "what is"},
	{"aaj ka", "today"},
	{"kal ka", "tomorrow"},
}

// tokenTable maps single Roman-Urdu tokens to canonical English tokens
// used by the extractor grammar.
var tokenTable = map[string]string{
	"aaj":      "today",
	"kal":      "tomorrow",
	"subah":    "morning",
	"shaam":    "evening",
	"raat":     "tonight",
	"namaz":    "prayer",
	"sadaqah":  "charity",
	"banao":    "add",
	"bana":     "add",
	"dikhao":   "show",
	"dikhaao":  "show",
	"batao":    "show",
	"sunao":    "tell",
	"hatao":    "delete",
	"mukammal": "complete",
	"haan":     "yes",
	"nahi":     "no",
	"zaruri":   "urgent",
	"pehle":    "before",
	"baad":     "after",
	"kahan":    "where",
	"mery":     "my",
	"mere":     "my",
	"konse":    "which",
	"konsi":    "which",
}

// Normalize canonicalizes raw text and tags its language.
func Normalize(raw string) Utterance {
	lang := detectLang(raw)
	canonical := canonicalize(raw)

	// Phrase-level transliteration before token-level.
	for _, p := range phraseTable {
		canonical = replaceWholePhrase(canonical, p.from, p.to)
	}

	tokens := strings.Fields(canonical)
	for i, tok := range tokens {
		if mapped, ok := tokenTable[tok]; ok {
			tokens[i] = mapped
		}
	}

	return Utterance{
		Raw:       raw,
		Canonical: strings.Join(tokens, " "),
		Lang:      lang,
	}
}

// detectLang tags the utterance. Arabic-script runes mean Urdu; two or
// more Roman-Urdu keywords mean Romanized Urdu; both scripts present
// mean mixed.
func detectLang(raw string) Lang {
	hasArabic := false
	hasLatin := false
	for _, r := range raw {
		if unicode.Is(unicode.Arabic, r) {
			hasArabic = true
		} else if unicode.IsLetter(r) && r < 0x0250 {
			hasLatin = true
		}
	}
	if hasArabic && hasLatin {
		return LangMixed
	}
	if hasArabic {
		return LangUrdu
	}

	lower := strings.ToLower(raw)
	count := 0
	for _, kw := range romanUrduKeywords {
		if containsWord(lower, kw) {
			count++
			if count >= 2 {
				return LangRomanUrdu
			}
		}
	}
	return LangEnglish
}

// canonicalize lower-cases Latin script and strips punctuation that is
// not semantically load-bearing. Colons survive inside time expressions
// (5:30) and hyphens survive inside words and dates (al-huda,
// 2025-12-28); everything else collapses to a space.
func canonicalize(raw string) string {
	lower := strings.ToLower(raw)
	runes := []rune(lower)
	var b strings.Builder
	b.Grow(len(lower))

	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case r == ':' && neighborsDigit(runes, i):
			b.WriteRune(r)
		case r == '-' && neighborsWord(runes, i):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func neighborsDigit(runes []rune, i int) bool {
	return i > 0 && i+1 < len(runes) &&
		unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1])
}

func neighborsWord(runes []rune, i int) bool {
	return i > 0 && i+1 < len(runes) &&
		(unicode.IsLetter(runes[i-1]) || unicode.IsDigit(runes[i-1])) &&
		(unicode.IsLetter(runes[i+1]) || unicode.IsDigit(runes[i+1]))
}

// containsWord reports whether lower contains kw as a whole word.
func containsWord(lower, kw string) bool {
	idx := 0
	for {
		j := strings.Index(lower[idx:], kw)
		if j < 0 {
			return false
		}
		j += idx
		before := j == 0 || !isWordRune(rune(lower[j-1]))
		afterIdx := j + len(kw)
		after := afterIdx >= len(lower) || !isWordRune(rune(lower[afterIdx]))
		if before && after {
			return true
		}
		idx = j + len(kw)
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// replaceWholePhrase replaces whole-word occurrences of from with to.
func replaceWholePhrase(s, from, to string) string {
	for {
		j := strings.Index(s, from)
		if j < 0 {
			return s
		}
		before := j == 0 || s[j-1] == ' '
		afterIdx := j + len(from)
		after := afterIdx >= len(s) || s[afterIdx] == ' '
		if before && after {
			s = s[:j] + to + s[afterIdx:]
			continue
		}
		// partial-word hit; skip past it
		rest := replaceWholePhrase(s[j+1:], from, to)
		return s[:j+1] + rest
	}
}
