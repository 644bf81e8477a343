package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
)

const (
	ArchiveFileName = "saved_services.json"
	UsageFileName   = "hymn_usage.json"
)

// savedService is one element of saved_services.json.
//
// The flat fields keep files written by earlier versions readable; readings and selected_hymns
// carry the full service.
type savedService struct {
	ID               string                    `json:"id"`
	ServiceDate      string                    `json:"service_date"`
	ServiceDateISO   string                    `json:"service_date_iso"`
	Occasion         string                    `json:"occasion"`
	Scriptures       []string                  `json:"scriptures"`
	Hymns            []hymnRef                 `json:"hymns"`
	Readings         []models.ScriptureReading `json:"readings,omitempty"`
	SelectedHymns    *models.SelectedHymns     `json:"selected_hymns,omitempty"`
	Liturgy          map[string]string         `json:"liturgy"`
	SermonTitle      string                    `json:"sermon_title"`
	SelectedOT       string                    `json:"selected_ot_ref"`
	SelectedNT       string                    `json:"selected_nt_ref"`
	IncludeCommunion bool                      `json:"include_communion"`
	SavedAt          string                    `json:"saved_at"`
}

// usageEntry is one service in hymn_usage.json.
type usageEntry struct {
	Date  string    `json:"date"`
	Hymns []hymnRef `json:"hymns"`
}

// ArchiveFile implements [models.ArchiveStore] as a JSON array on disk.
type ArchiveFile struct {
	path string
}

// NewArchiveFile stores the archive at dir/saved_services.json.
func NewArchiveFile(dir string) *ArchiveFile {
	return &ArchiveFile{path: filepath.Join(dir, ArchiveFileName)}
}

func (a *ArchiveFile) Save(ctx context.Context, record models.ArchiveRecord) (string, error) {
	var services []savedService
	if err := readJSON(a.path, &services); err != nil {
		return "", err
	}

	record.ID = shared.GenerateID()
	services = append(services, toSaved(record))

	if err := writeJSON(a.path, services); err != nil {
		return "", err
	}
	return record.ID, nil
}

func (a *ArchiveFile) List(ctx context.Context) ([]models.ArchiveEntry, error) {
	var services []savedService
	if err := readJSON(a.path, &services); err != nil {
		return nil, err
	}

	entries := make([]models.ArchiveEntry, 0, len(services))
	for _, s := range services {
		rec, err := fromSaved(s)
		if err != nil {
			return nil, err
		}
		entries = append(entries, rec.Entry())
	}
	return entries, nil
}

func (a *ArchiveFile) Get(ctx context.Context, id string) (*models.ArchiveRecord, error) {
	var services []savedService
	if err := readJSON(a.path, &services); err != nil {
		return nil, err
	}

	for _, s := range services {
		if s.ID == id {
			return fromSaved(s)
		}
	}
	return nil, fmt.Errorf("%w: archived service %s", shared.ErrNotFound, id)
}

func toSaved(rec models.ArchiveRecord) savedService {
	svc := rec.Service
	hymns := svc.Hymns
	return savedService{
		ID:               rec.ID,
		ServiceDate:      shared.DisplayDate(svc.Date),
		ServiceDateISO:   shared.FormatDate(svc.Date),
		Occasion:         svc.Occasion,
		Scriptures:       referenceLines(svc.Readings),
		Hymns:            refsFromHymns(svc.Hymns),
		Readings:         svc.Readings,
		SelectedHymns:    &hymns,
		Liturgy:          svc.Liturgy,
		SermonTitle:      svc.SermonTitle,
		SelectedOT:       svc.SelectedOT,
		SelectedNT:       svc.SelectedNT,
		IncludeCommunion: svc.IncludeCommunion,
		SavedAt:          rec.SavedAt.UTC().Format(time.RFC3339),
	}
}

func fromSaved(s savedService) (*models.ArchiveRecord, error) {
	date, err := shared.ParseDate(s.ServiceDateISO)
	if err != nil {
		return nil, wrap("parse service date of "+s.ID, err)
	}

	var savedAt time.Time
	if s.SavedAt != "" {
		if savedAt, err = time.Parse(time.RFC3339, s.SavedAt); err != nil {
			return nil, wrap("parse saved_at of "+s.ID, err)
		}
	}

	svc := models.Service{
		Occasion:         s.Occasion,
		Date:             date,
		Readings:         s.Readings,
		Liturgy:          s.Liturgy,
		IncludeCommunion: s.IncludeCommunion,
		SermonTitle:      s.SermonTitle,
		SelectedOT:       s.SelectedOT,
		SelectedNT:       s.SelectedNT,
	}
	if svc.Readings == nil {
		svc.Readings = readingsFromLines(s.Scriptures)
	}
	if s.SelectedHymns != nil {
		svc.Hymns = *s.SelectedHymns
	} else {
		svc.Hymns = hymnsFromRefs(s.Hymns)
	}

	return &models.ArchiveRecord{ID: s.ID, Service: svc, SavedAt: savedAt}, nil
}

// UsageFile implements [models.UsageStore] as hymn_usage.json, grouped by service date.
type UsageFile struct {
	path string
}

// NewUsageFile stores the log at dir/hymn_usage.json.
func NewUsageFile(dir string) *UsageFile {
	return &UsageFile{path: filepath.Join(dir, UsageFileName)}
}

// Append adds one entry per distinct date among records, in first-seen order.
func (u *UsageFile) Append(ctx context.Context, records ...models.UsageRecord) error {
	if len(records) == 0 {
		return nil
	}

	var log []usageEntry
	if err := readJSON(u.path, &log); err != nil {
		return err
	}

	index := map[string]int{}
	var added []usageEntry
	for _, r := range records {
		date := shared.FormatDate(r.DateUsed)
		i, ok := index[date]
		if !ok {
			i = len(added)
			index[date] = i
			added = append(added, usageEntry{Date: date})
		}
		number := r.HymnNumber
		added[i].Hymns = append(added[i].Hymns, hymnRef{Number: &number, Title: r.HymnTitle})
	}

	return writeJSON(u.path, append(log, added...))
}

// Records flattens the log. Hymns logged without a number and unparseable dates are skipped.
func (u *UsageFile) Records(ctx context.Context, since time.Time) ([]models.UsageRecord, error) {
	var log []usageEntry
	if err := readJSON(u.path, &log); err != nil {
		return nil, err
	}

	var out []models.UsageRecord
	for _, entry := range log {
		date, err := shared.ParseDate(entry.Date)
		if err != nil {
			continue
		}
		if !since.IsZero() && date.Before(shared.DateOf(since)) {
			continue
		}
		for _, h := range entry.Hymns {
			if h.Number == nil {
				continue
			}
			out = append(out, models.UsageRecord{HymnNumber: *h.Number, HymnTitle: h.Title, DateUsed: date})
		}
	}
	return out, nil
}

// readJSON decodes path into v. A missing file leaves v untouched.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return wrap("read "+filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return wrap("decode "+filepath.Base(path), err)
	}
	return nil
}

// writeJSON replaces path with the indented encoding of v through a temporary file in the same directory.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return wrap("encode "+filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return wrap("create data directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return wrap("create temporary file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return wrap("write "+filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return wrap("close "+filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return wrap("replace "+filepath.Base(path), err)
	}
	return nil
}
