package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/notion"
	"github.com/desertthunder/hymnal/internal/shared"
	tu "github.com/desertthunder/hymnal/internal/testing"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jomei/notionapi"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func newTestNotion(t *testing.T) (*notionapi.Client, *tu.FakeNotion) {
	t.Helper()
	fake := tu.NewFakeNotion(t)
	client, err := notion.NewClient(notion.Options{APIKey: "secret_test", RequestsPerSecond: 1000, Transport: fake.Transport(t)})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client, fake
}

type archiveBackend struct {
	name string
	open func(t *testing.T) models.ArchiveStore
}

type usageBackend struct {
	name string
	open func(t *testing.T) models.UsageStore
}

func archiveBackends() []archiveBackend {
	return []archiveBackend{
		{"sqlite", func(t *testing.T) models.ArchiveStore { return NewArchiveRepository(setupTestDB(t)) }},
		{"json", func(t *testing.T) models.ArchiveStore { return NewArchiveFile(t.TempDir()) }},
		{"notion", func(t *testing.T) models.ArchiveStore {
			client, _ := newTestNotion(t)
			store, err := NewNotionArchive(client, "archive")
			if err != nil {
				t.Fatalf("failed to create archive: %v", err)
			}
			return store
		}},
	}
}

func usageBackends() []usageBackend {
	return []usageBackend{
		{"sqlite", func(t *testing.T) models.UsageStore { return NewUsageRepository(setupTestDB(t)) }},
		{"json", func(t *testing.T) models.UsageStore { return NewUsageFile(t.TempDir()) }},
		{"notion", func(t *testing.T) models.UsageStore {
			client, _ := newTestNotion(t)
			store, err := NewNotionUsage(client, "usage")
			if err != nil {
				t.Fatalf("failed to create usage log: %v", err)
			}
			return store
		}},
	}
}

func testRecord(t *testing.T) models.ArchiveRecord {
	t.Helper()
	opening := models.Hymn{Number: models.IntPtr(450), Title: "Be Thou My Vision", ScriptureTags: []string{"Psalm 27"}}
	closing := models.Hymn{Title: "Taizé: Ubi Caritas"}
	return models.ArchiveRecord{
		Service: models.Service{
			Occasion: "Second Sunday in Lent",
			Date:     tu.MustDate(t, "2026-03-01"),
			Readings: []models.ScriptureReading{
				{Label: models.FirstReading, Reference: "Genesis 12:1-4a"},
				{Label: models.Psalm, Reference: "Psalm 121", Text: "I lift up my eyes to the hills"},
				{Label: models.SecondReading, Reference: "Romans 4:1-5, 13-17"},
				{Label: models.Gospel, Reference: "John 3:1-17"},
			},
			Hymns: models.SelectedHymns{Opening: &opening, Closing: &closing},
			Liturgy: map[string]string{
				"call_to_worship": "Leader: I lift up my eyes to the hills.\nPeople: Our help comes from the Lord.",
				"benediction":     "Go in peace. Amen.",
			},
			IncludeCommunion: true,
			SermonTitle:      "Born from Above",
			SelectedOT:       "Genesis 12:1-4a",
			SelectedNT:       "John 3:1-17",
		},
		SavedAt: time.Date(2026, 2, 26, 15, 4, 5, 0, time.UTC),
	}
}

func TestArchiveStores(t *testing.T) {
	ctx := context.Background()

	for _, b := range archiveBackends() {
		t.Run(b.name, func(t *testing.T) {
			t.Run("round trip", func(t *testing.T) {
				store := b.open(t)
				rec := testRecord(t)

				id, err := store.Save(ctx, rec)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if id == "" {
					t.Fatal("expected a generated id")
				}

				got, err := store.Get(ctx, id)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				rec.ID = id
				if diff := cmp.Diff(rec, *got, cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("record mismatch (-want +got):\n%s", diff)
				}
			})

			t.Run("list", func(t *testing.T) {
				store := b.open(t)
				first, second := testRecord(t), testRecord(t)
				second.Service.Occasion = "Third Sunday in Lent"
				second.Service.Date = tu.MustDate(t, "2026-03-08")
				second.SavedAt = second.SavedAt.Add(24 * time.Hour)

				ids := map[string]models.ArchiveRecord{}
				for _, r := range []models.ArchiveRecord{first, second} {
					id, err := store.Save(ctx, r)
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					r.ID = id
					ids[id] = r
				}

				entries, err := store.List(ctx)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(entries) != 2 {
					t.Fatalf("expected 2 entries, got %d", len(entries))
				}
				for _, e := range entries {
					if diff := cmp.Diff(ids[e.ID].Entry(), e); diff != "" {
						t.Errorf("entry mismatch (-want +got):\n%s", diff)
					}
				}
			})

			t.Run("empty", func(t *testing.T) {
				entries, err := b.open(t).List(ctx)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(entries) != 0 {
					t.Errorf("expected no entries, got %v", entries)
				}
			})

			t.Run("unknown id", func(t *testing.T) {
				_, err := b.open(t).Get(ctx, "00000000-0000-0000-0000-000000009999")
				if !errors.Is(err, shared.ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
			})
		})
	}
}

func TestUsageStores(t *testing.T) {
	ctx := context.Background()

	for _, b := range usageBackends() {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t)
			first := []models.UsageRecord{
				{HymnNumber: 450, HymnTitle: "Be Thou My Vision", DateUsed: tu.MustDate(t, "2026-02-22")},
				{HymnNumber: 611, HymnTitle: "Joyful, Joyful, We Adore Thee", DateUsed: tu.MustDate(t, "2026-02-22")},
			}
			second := []models.UsageRecord{
				{HymnNumber: 7, HymnTitle: "O Come, All Ye Faithful", DateUsed: tu.MustDate(t, "2026-03-01")},
			}
			if err := store.Append(ctx, first...); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := store.Append(ctx, second...); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := store.Append(ctx); err != nil {
				t.Fatalf("empty append should be a no-op, got %v", err)
			}

			sortRecords := cmpopts.SortSlices(func(a, b models.UsageRecord) bool {
				if !a.DateUsed.Equal(b.DateUsed) {
					return a.DateUsed.Before(b.DateUsed)
				}
				return a.HymnNumber < b.HymnNumber
			})

			t.Run("all", func(t *testing.T) {
				got, err := store.Records(ctx, time.Time{})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				want := append(append([]models.UsageRecord{}, first...), second...)
				if diff := cmp.Diff(want, got, sortRecords); diff != "" {
					t.Errorf("records mismatch (-want +got):\n%s", diff)
				}
			})

			t.Run("since is inclusive", func(t *testing.T) {
				got, err := store.Records(ctx, tu.MustDate(t, "2026-03-01"))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if diff := cmp.Diff(second, got, sortRecords); diff != "" {
					t.Errorf("records mismatch (-want +got):\n%s", diff)
				}
			})
		})
	}
}

func TestArchiveFileLegacy(t *testing.T) {
	dir := t.TempDir()
	legacy := `[
  {
    "id": "a1",
    "service_date": "March 1, 2026",
    "service_date_iso": "2026-03-01",
    "occasion": "Second Sunday in Lent",
    "scriptures": ["Genesis 12:1-4a", "Psalm 121", "Romans 4:1-5", "John 3:1-17"],
    "hymns": [{"title": "Be Thou My Vision", "number": 450}, {"title": "", "number": null}, {"title": "Ubi Caritas", "number": null}],
    "liturgy": {"benediction": "Go in peace. Amen."},
    "sermon_title": "Born from Above",
    "selected_ot_ref": "Genesis 12:1-4a",
    "selected_nt_ref": "John 3:1-17",
    "include_communion": false,
    "saved_at": "2026-02-26T15:04:05Z"
  }
]`
	if err := os.WriteFile(filepath.Join(dir, ArchiveFileName), []byte(legacy), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	rec, err := NewArchiveFile(dir).Get(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantReadings := []models.ScriptureReading{
		{Label: models.FirstReading, Reference: "Genesis 12:1-4a"},
		{Label: models.Psalm, Reference: "Psalm 121"},
		{Label: models.SecondReading, Reference: "Romans 4:1-5"},
		{Label: models.Gospel, Reference: "John 3:1-17"},
	}
	if diff := cmp.Diff(wantReadings, rec.Service.Readings); diff != "" {
		t.Errorf("readings mismatch (-want +got):\n%s", diff)
	}
	wantHymns := models.SelectedHymns{
		Opening: &models.Hymn{Title: "Be Thou My Vision", Number: models.IntPtr(450)},
		Closing: &models.Hymn{Title: "Ubi Caritas"},
	}
	if diff := cmp.Diff(wantHymns, rec.Service.Hymns); diff != "" {
		t.Errorf("hymns mismatch (-want +got):\n%s", diff)
	}
	if !rec.SavedAt.Equal(time.Date(2026, 2, 26, 15, 4, 5, 0, time.UTC)) {
		t.Errorf("unexpected saved_at %v", rec.SavedAt)
	}
}

func TestArchiveFileWritesReadableFormat(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewArchiveFile(dir).Save(context.Background(), testRecord(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content := tu.MustReadFile(t, filepath.Join(dir, ArchiveFileName))
	for _, want := range []string{`"service_date": "March 1, 2026"`, `"service_date_iso": "2026-03-01"`, `"saved_at": "2026-02-26T15:04:05Z"`} {
		if !strings.Contains(content, want) {
			t.Errorf("expected %s in\n%s", want, content)
		}
	}

	matches, _ := filepath.Glob(filepath.Join(dir, ".*"))
	if len(matches) != 0 {
		t.Errorf("expected temporary files removed, found %v", matches)
	}
}

func TestUsageFileGroupsByDate(t *testing.T) {
	dir := t.TempDir()
	u := NewUsageFile(dir)
	err := u.Append(context.Background(),
		models.UsageRecord{HymnNumber: 1, HymnTitle: "A", DateUsed: tu.MustDate(t, "2026-03-01")},
		models.UsageRecord{HymnNumber: 2, HymnTitle: "B", DateUsed: tu.MustDate(t, "2026-03-01")},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content := tu.MustReadFile(t, filepath.Join(dir, UsageFileName))
	if n := strings.Count(content, `"date"`); n != 1 {
		t.Errorf("expected one entry for the service, got %d in\n%s", n, content)
	}
}

func TestUsageFileSkipsUnnumbered(t *testing.T) {
	dir := t.TempDir()
	legacy := `[{"date": "2026-03-01", "hymns": [{"number": 450, "title": "Be Thou My Vision"}, {"number": null, "title": "Ubi Caritas"}]}]`
	if err := os.WriteFile(filepath.Join(dir, UsageFileName), []byte(legacy), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	got, err := NewUsageFile(dir).Records(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.UsageRecord{{HymnNumber: 450, HymnTitle: "Be Thou My Vision", DateUsed: tu.MustDate(t, "2026-03-01")}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ArchiveFileName), []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := NewArchiveFile(dir).List(context.Background()); !errors.Is(err, shared.ErrRepository) {
		t.Errorf("expected ErrRepository, got %v", err)
	}
}

func TestNotionArchiveLegacyPage(t *testing.T) {
	client, fake := newTestNotion(t)
	store, err := NewNotionArchive(client, "archive")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id := fake.AddPage(t, "archive", notionapi.Properties{
		PropTitle:       notion.Title("2026-03-01 Second Sunday in Lent"),
		PropServiceDate: notion.Date(tu.MustDate(t, "2026-03-01")),
		PropOccasion:    notion.Text("Second Sunday in Lent"),
		PropScriptures:  notion.Text("Genesis 12:1-4a\nPsalm 121"),
		PropHymns:       notion.Text(`[{"title": "Be Thou My Vision", "number": 450}]`),
	})

	rec, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Service.Readings) != 2 || rec.Service.Readings[1].Label != models.Psalm {
		t.Errorf("unexpected readings %+v", rec.Service.Readings)
	}
	if rec.Service.Hymns.Opening == nil || rec.Service.Hymns.Opening.NumberOr(0) != 450 {
		t.Errorf("unexpected hymns %+v", rec.Service.Hymns)
	}
}

func TestNotionUsageQuery(t *testing.T) {
	client, fake := newTestNotion(t)
	store, err := NewNotionUsage(client, "usage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.Records(context.Background(), tu.MustDate(t, "2025-12-07")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	queries := fake.Queries()
	if len(queries) != 1 {
		t.Fatalf("expected one query, got %d", len(queries))
	}
	if q := string(queries[0]); !strings.Contains(q, `"on_or_after":"2025-12-07`) {
		t.Errorf("expected date filter in query, got %s", q)
	}
}

func TestNewNotionStores(t *testing.T) {
	if _, err := NewNotionArchive(nil, ""); !errors.Is(err, shared.ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig, got %v", err)
	}
	if _, err := NewNotionUsage(nil, ""); !errors.Is(err, shared.ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig, got %v", err)
	}
}

func TestDecodeHymns(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.SelectedHymns
	}{
		{"empty", "", models.SelectedHymns{}},
		{"null", "null", models.SelectedHymns{}},
		{"slots", `{"opening": null, "response": {"title": "Amazing Grace", "number": 378}, "closing": null}`,
			models.SelectedHymns{Response: &models.Hymn{Title: "Amazing Grace", Number: models.IntPtr(378)}}},
		{"positional with extra", `[{"title": "A"}, {"title": "B"}, {"title": "C"}, {"title": "D"}]`,
			models.SelectedHymns{Opening: &models.Hymn{Title: "A"}, Response: &models.Hymn{Title: "B"}, Closing: &models.Hymn{Title: "C"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeHymns(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("hymns mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := decodeHymns("{broken"); err == nil {
		t.Error("expected decode error")
	}
}

func TestReadingsFromLines(t *testing.T) {
	got := readingsFromLines([]string{"Isaiah 9:2-7", "", "Psalm 96", "Titus 2:11-14", "Luke 2:1-14", "Luke 2:15-20"})
	want := []models.ScriptureReading{
		{Label: models.FirstReading, Reference: "Isaiah 9:2-7"},
		{Label: models.Psalm, Reference: "Psalm 96"},
		{Label: models.SecondReading, Reference: "Titus 2:11-14"},
		{Label: models.Gospel, Reference: "Luke 2:1-14"},
		{Label: models.Gospel, Reference: "Luke 2:15-20"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("readings mismatch (-want +got):\n%s", diff)
	}
}
