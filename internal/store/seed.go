package store

import (
	"fmt"

	"salaatflow/internal/core"
	"salaatflow/internal/logging"
)

// seedMasjids is the Karachi starter set. Seeding only runs against an
// empty table, so user edits survive restarts.
var seedMasjids = []core.Masjid{
	{
		Name:     "Masjid Al-Huda",
		Area:     "DHA Phase 5",
		City:     "Karachi",
		Address:  "123 Main Street, DHA Phase 5",
		ImamName: "Maulana Abdul Rahman",
		Phone:    "+92-300-1234567",
		Latitude: 24.8607, Longitude: 67.0011,
		FajrTime: "05:30", DhuhrTime: "13:00", AsrTime: "16:30",
		MaghribTime: "18:15", IshaTime: "19:45", JummahTime: "13:30",
	},
	{
		Name:    "Masjid Al-Noor",
		Area:    "Gulshan-e-Iqbal Block 13",
		City:    "Karachi",
		Address: "456 Block 13, Gulshan-e-Iqbal",
		FajrTime: "05:25", DhuhrTime: "12:55", AsrTime: "16:25",
		MaghribTime: "18:10", IshaTime: "19:40", JummahTime: "13:15",
	},
	{
		Name:     "Jamia Masjid Clifton",
		Area:     "Clifton Block 2",
		City:     "Karachi",
		Address:  "Sea View Road, Clifton",
		ImamName: "Maulana Ahmad Shah",
		Phone:    "+92-333-5555555",
		Latitude: 24.8167, Longitude: 67.0299,
		FajrTime: "05:35", DhuhrTime: "13:05", AsrTime: "16:35",
		MaghribTime: "18:20", IshaTime: "19:50", JummahTime: "13:15",
	},
	{
		Name:    "Masjid Bilal",
		Area:    "Malir Cantt",
		City:    "Karachi",
		Address: "Malir Cantonment Area",
		FajrTime: "05:20", DhuhrTime: "12:50", AsrTime: "16:20",
		MaghribTime: "18:05", IshaTime: "19:35",
	},
	{
		Name:     "Baitul Mukarram",
		Area:     "Bahadurabad",
		City:     "Karachi",
		ImamName: "Maulana Ishaq Ali",
		Phone:    "+92-321-8888888",
		FajrTime: "05:29", DhuhrTime: "12:59", AsrTime: "16:29",
		MaghribTime: "18:14", IshaTime: "19:44", JummahTime: "13:00",
	},
}

var seedHadiths = []core.Hadith{
	{
		ArabicText: "مَنْ كَانَ يُؤْمِنُ بِاللَّهِ وَالْيَوْمِ الآخِرِ فَلْيَقُلْ خَيْرًا أَوْ لِيَصْمُتْ",
		English:    "Whoever believes in Allah and the Last Day should speak good or remain silent.",
		Narrator:   "Abu Hurairah",
		Source:     "Sahih Bukhari 6018",
		Theme:      "Speech",
	},
	{
		ArabicText: "إِنَّمَا الأَعْمَالُ بِالنِّيَّاتِ",
		English:    "Verily, actions are judged by intentions.",
		Narrator:   "Umar ibn Al-Khattab",
		Source:     "Sahih Bukhari 1",
		Theme:      "Intention",
	},
	{
		ArabicText: "الْمُسْلِمُ مَنْ سَلِمَ الْمُسْلِمُونَ مِنْ لِسَانِهِ وَيَدِهِ",
		English:    "The Muslim is the one from whose tongue and hand the Muslims are safe.",
		Narrator:   "Abdullah ibn Amr",
		Source:     "Sahih Bukhari 10",
		Theme:      "Character",
	},
	{
		ArabicText: "الدِّينُ النَّصِيحَةُ",
		English:    "Religion is sincerity (nasihah).",
		Narrator:   "Tamim Ad-Dari",
		Source:     "Sahih Muslim 55",
		Theme:      "Sincerity",
	},
	{
		ArabicText: "مَنْ صَلَّى الْفَجْرَ فَهُوَ فِي ذِمَّةِ اللَّهِ",
		English:    "Whoever prays Fajr is under the protection of Allah.",
		Narrator:   "Jundub ibn Abdullah",
		Source:     "Sahih Muslim 657",
		Theme:      "Prayer",
	},
}

// seed inserts the starter masjids and hadith when their tables are
// empty.
func (s *SQLiteStore) seed() error {
	var masjidCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM masjids`).Scan(&masjidCount); err != nil {
		return fmt.Errorf("count masjids: %w", err)
	}
	if masjidCount == 0 {
		for _, m := range seedMasjids {
			_, err := s.db.Exec(`
				INSERT INTO masjids
					(name, area, city, address, imam_name, phone, latitude,
					 longitude, fajr_time, dhuhr_time, asr_time, maghrib_time,
					 isha_time, jummah_time)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				m.Name, m.Area, m.City, m.Address, m.ImamName, m.Phone,
				m.Latitude, m.Longitude, m.FajrTime, m.DhuhrTime, m.AsrTime,
				m.MaghribTime, m.IshaTime, m.JummahTime)
			if err != nil {
				return fmt.Errorf("seed masjid %q: %w", m.Name, err)
			}
		}
		logging.Store("seeded %d masjids", len(seedMasjids))
	}

	var hadithCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM hadiths`).Scan(&hadithCount); err != nil {
		return fmt.Errorf("count hadiths: %w", err)
	}
	if hadithCount == 0 {
		for _, h := range seedHadiths {
			_, err := s.db.Exec(`
				INSERT INTO hadiths
					(arabic_text, english, urdu, narrator, source, theme)
				VALUES (?, ?, ?, ?, ?, ?)`,
				h.ArabicText, h.English, h.Urdu, h.Narrator, h.Source, h.Theme)
			if err != nil {
				return fmt.Errorf("seed hadith %q: %w", h.Source, err)
			}
		}
		logging.Store("seeded %d hadiths", len(seedHadiths))
	}
	return nil
}
