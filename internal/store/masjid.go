package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"salaatflow/internal/core"
)

const masjidColumns = `id, name, area, city, address, imam_name, phone,
	latitude, longitude, fajr_time, dhuhr_time, asr_time, maghrib_time,
	isha_time, jummah_time`

func scanMasjid(row interface{ Scan(...any) error }) (core.Masjid, error) {
	var m core.Masjid
	err := row.Scan(&m.ID, &m.Name, &m.Area, &m.City, &m.Address, &m.ImamName,
		&m.Phone, &m.Latitude, &m.Longitude, &m.FajrTime, &m.DhuhrTime,
		&m.AsrTime, &m.MaghribTime, &m.IshaTime, &m.JummahTime)
	return m, err
}

// GetMasjid fetches one masjid by ID.
func (s *SQLiteStore) GetMasjid(ctx context.Context, id int64) (core.Masjid, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+masjidColumns+` FROM masjids WHERE id = ?`, id)
	m, err := scanMasjid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Masjid{}, fmt.Errorf("%w: masjid %d", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Masjid{}, fmt.Errorf("%w: get masjid: %v", core.ErrStoreUnavailable, err)
	}
	return m, nil
}

// FindMasjidByName matches a spoken masjid reference against stored
// names, case-insensitively, preferring an exact name over a substring
// hit.
func (s *SQLiteStore) FindMasjidByName(ctx context.Context, name string) (core.Masjid, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return core.Masjid{}, fmt.Errorf("%w: empty masjid name", core.ErrNotFound)
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+masjidColumns+` FROM masjids
		WHERE lower(name) LIKE ?
		ORDER BY (lower(name) = ?) DESC, length(name) ASC
		LIMIT 1`, "%"+needle+"%", needle)
	m, err := scanMasjid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Masjid{}, fmt.Errorf("%w: masjid %q", core.ErrNotFound, name)
	}
	if err != nil {
		return core.Masjid{}, fmt.Errorf("%w: find masjid: %v", core.ErrStoreUnavailable, err)
	}
	return m, nil
}

// ListMasjidsByArea returns masjids in an area; an empty area lists
// all of them.
func (s *SQLiteStore) ListMasjidsByArea(ctx context.Context, area string) ([]core.Masjid, error) {
	query := `SELECT ` + masjidColumns + ` FROM masjids`
	var args []any
	if strings.TrimSpace(area) != "" {
		query += ` WHERE lower(area) LIKE ?`
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(area))+"%")
	}
	query += ` ORDER BY name ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list masjids: %v", core.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var out []core.Masjid
	for rows.Next() {
		m, err := scanMasjid(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan masjid: %v", core.ErrStoreUnavailable, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// HadithForDate picks the day's hadith by rotating through the table
// on day-of-year, so the same date always yields the same hadith.
func (s *SQLiteStore) HadithForDate(ctx context.Context, date time.Time) (core.Hadith, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hadiths`).Scan(&count); err != nil {
		return core.Hadith{}, fmt.Errorf("%w: count hadiths: %v", core.ErrStoreUnavailable, err)
	}
	if count == 0 {
		return core.Hadith{}, fmt.Errorf("%w: no hadith stored", core.ErrNotFound)
	}
	offset := date.YearDay() % count
	row := s.db.QueryRowContext(ctx, `
		SELECT id, arabic_text, english, urdu, narrator, source, theme
		FROM hadiths ORDER BY id ASC LIMIT 1 OFFSET ?`, offset)
	var h core.Hadith
	err := row.Scan(&h.ID, &h.ArabicText, &h.English, &h.Urdu, &h.Narrator,
		&h.Source, &h.Theme)
	if err != nil {
		return core.Hadith{}, fmt.Errorf("%w: get hadith: %v", core.ErrStoreUnavailable, err)
	}
	return h, nil
}
