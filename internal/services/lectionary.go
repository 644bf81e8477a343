package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
)

const DefaultLectionaryURL = "https://lectionary.library.vanderbilt.edu"

var calendarDateLayouts = []string{"Jan 2, 2006", "January 2, 2006", "2006-01-02"}

// readingColumns maps each reading slot to its CSV column header.
var readingColumns = []struct {
	label  models.ReadingLabel
	header string
}{
	{models.FirstReading, "first reading"},
	{models.Psalm, "psalm"},
	{models.SecondReading, "second reading"},
	{models.Gospel, "gospel"},
}

// LectionaryService implements [Lectionary] over the Vanderbilt Revised Common Lectionary calendar export.
//
// Each liturgical year's CSV is downloaded once and kept for the life of the service.
type LectionaryService struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	years      map[string][]lectionaryRow
}

type lectionaryRow struct {
	date     time.Time
	occasion string
	readings []models.ScriptureReading
}

// NewLectionaryService creates a lectionary client. Empty arguments select the defaults.
func NewLectionaryService(baseURL, userAgent string, client *http.Client) *LectionaryService {
	if baseURL == "" {
		baseURL = DefaultLectionaryURL
	}
	if userAgent == "" {
		userAgent = "hymnal/0.1"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &LectionaryService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: client,
		years:      map[string][]lectionaryRow{},
	}
}

// Lookup returns the occasion and readings for the Sunday on or before date.
//
// An exact row for that Sunday wins; otherwise the nearest earlier row of the same liturgical year is used.
// Every failure, including a download failure, is reported as [shared.ErrLookup] so callers can fall back
// to manual entry.
func (l *LectionaryService) Lookup(ctx context.Context, date time.Time) (*models.LectionaryDay, error) {
	sunday := SundayOnOrBefore(date)
	year := LiturgicalYear(sunday)

	rows, err := l.rows(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrLookup, err)
	}

	var best *lectionaryRow
	for i := range rows {
		row := &rows[i]
		if row.date.Equal(sunday) {
			best = row
			break
		}
		if row.date.Before(sunday) && (best == nil || row.date.After(best.date)) {
			best = row
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: no reading published for %s in %s", shared.ErrLookup, shared.FormatDate(sunday), year)
	}

	return &models.LectionaryDay{
		Occasion: best.occasion,
		Date:     best.date,
		Readings: append([]models.ScriptureReading(nil), best.readings...),
	}, nil
}

func (l *LectionaryService) rows(ctx context.Context, year string) ([]lectionaryRow, error) {
	if rows, ok := l.years[year]; ok {
		return rows, nil
	}

	url := fmt.Sprintf("%s/calendar/%s/?season=all&download=csv", l.baseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/csv,*/*")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: calendar %s returned status %d", shared.ErrAPIRequest, year, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	rows, err := parseLectionaryCSV(string(body))
	if err != nil {
		return nil, err
	}

	l.years[year] = rows
	return rows, nil
}

// parseLectionaryCSV reads the calendar export. Lines before the header row are page chrome and skipped.
func parseLectionaryCSV(text string) ([]lectionaryRow, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	start := -1
	for i, line := range lines {
		if strings.Contains(line, "Calendar Date") && strings.Contains(line, "Liturgical Date") {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("calendar export has no header row")
	}

	r := csv.NewReader(strings.NewReader(strings.Join(lines[start:], "\n")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar export: %w", err)
	}

	columns := map[string]int{}
	for i, h := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cell := func(rec []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []lectionaryRow
	for _, rec := range records[1:] {
		date, ok := parseCalendarDate(cell(rec, "calendar date"))
		if !ok {
			continue
		}

		row := lectionaryRow{date: date, occasion: cell(rec, "liturgical date")}
		for _, col := range readingColumns {
			ref := cell(rec, col.header)
			if ref == "" || strings.HasPrefix(strings.ToLower(ref), "http") {
				continue
			}
			row.readings = append(row.readings, models.ScriptureReading{Label: col.label, Reference: ref})
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseCalendarDate(s string) (time.Time, bool) {
	for _, layout := range calendarDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SundayOnOrBefore returns the calendar date of the last Sunday not after d.
func SundayOnOrBefore(d time.Time) time.Time {
	d = shared.DateOf(d)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// AdventSunday returns the first Sunday of Advent in year: the fourth Sunday before Christmas.
func AdventSunday(year int) time.Time {
	christmas := time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)
	back := int(christmas.Weekday())
	if back == 0 {
		back = 7
	}
	return christmas.AddDate(0, 0, -back-21)
}

// LiturgicalYear names the lectionary year containing d, e.g. "2025-26" for Lent 2026.
func LiturgicalYear(d time.Time) string {
	d = shared.DateOf(d)
	start := d.Year()
	if d.Before(AdventSunday(start)) {
		start--
	}
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}
