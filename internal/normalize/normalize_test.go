package normalize

import "testing"

func TestCanonicalEnglishIsIdentity(t *testing.T) {
	// Already-canonical English text must pass through untouched.
	inputs := []string{
		"add a task to pray fajr tomorrow at 5:30",
		"show my pending tasks",
		"delete my charity task",
		"what time is fajr at masjid al-huda",
	}
	for _, in := range inputs {
		got := Normalize(in)
		if got.Canonical != in {
			t.Errorf("Normalize(%q).Canonical = %q, want identity", in, got.Canonical)
		}
		if got.Lang != LangEnglish {
			t.Errorf("Normalize(%q).Lang = %q, want en", in, got.Lang)
		}
	}
}

func TestPunctuationStripping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add a task, please!", "add a task please"},
		{"Pray Fajr at 5:30 AM.", "pray fajr at 5:30 am"},
		{"What's next?", "what s next"},
		{"due 2025-12-28 at 17:30", "due 2025-12-28 at 17:30"},
		{"Masjid Al-Huda", "masjid al-huda"},
		{"time: now", "time now"}, // colon not between digits is dropped
	}
	for _, tt := range tests {
		if got := Normalize(tt.in).Canonical; got != tt.want {
			t.Errorf("Normalize(%q).Canonical = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLanguageDetection(t *testing.T) {
	tests := []struct {
		in   string
		want Lang
	}{
		{"Show me today's hadith", LangEnglish},
		{"Aaj ka hadith sunao", LangRomanUrdu},
		{"Fajr ka time kya hai?", LangRomanUrdu},
		{"Add a task to pray", LangEnglish},
		{"kal namaz ke liye task banao", LangRomanUrdu},
		// single keyword is not enough
		{"my deadline is kal week", LangEnglish},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in).Lang; got != tt.want {
			t.Errorf("Normalize(%q).Lang = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTransliteration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"kal subah namaz task banao", "tomorrow morning prayer task add"},
		{"mery tasks dikhao", "my tasks show"},
		{"haan", "yes"},
		{"ji haan", "yes"},
		{"mat karo", "cancel"},
		{"task mukammal ho gaya", "task complete done"},
		{"fajr se 20 minute pehle", "fajr se 20 minute before"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in).Canonical; got != tt.want {
			t.Errorf("Normalize(%q).Canonical = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRawTextPreserved(t *testing.T) {
	in := "Kal Fajr ke liye task banao!"
	if got := Normalize(in).Raw; got != in {
		t.Errorf("Raw = %q, want %q", got, in)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Kal subah namaz task banao",
		"Delete my charity task!",
		"Aaj ka hadith sunao",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once.Canonical)
		if once.Canonical != twice.Canonical {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once.Canonical, twice.Canonical)
		}
	}
}
