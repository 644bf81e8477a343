package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/services"
	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/desertthunder/hymnal/internal/tasks"
	tu "github.com/desertthunder/hymnal/internal/testing"
	"github.com/jomei/notionapi"
)

// stubHymns is an in-memory [services.HymnRepository].
type stubHymns struct {
	hymns   []models.Hymn
	created []notionapi.Properties
	updates map[string]notionapi.Properties
}

func (s *stubHymns) ListHymns(ctx context.Context) ([]models.Hymn, error) {
	return s.hymns, nil
}

func (s *stubHymns) SearchHymns(ctx context.Context, title, tag string) ([]models.Hymn, error) {
	var out []models.Hymn
	for _, h := range s.hymns {
		if services.MatchesSearch(h, title, tag) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *stubHymns) GetHymn(ctx context.Context, id string) (*models.Hymn, error) {
	for _, h := range s.hymns {
		if h.ID == id {
			return &h, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubHymns) CreateHymn(ctx context.Context, props notionapi.Properties) (*models.Hymn, error) {
	s.created = append(s.created, props)
	return &models.Hymn{ID: "page-new", Title: "New Hymn"}, nil
}

func (s *stubHymns) UpdateHymn(ctx context.Context, id string, props notionapi.Properties) (*models.Hymn, error) {
	if s.updates == nil {
		s.updates = map[string]notionapi.Properties{}
	}
	s.updates[id] = props
	return s.GetHymn(ctx, id)
}

type stubLectionary map[string]*models.LectionaryDay

func (l stubLectionary) Lookup(ctx context.Context, date time.Time) (*models.LectionaryDay, error) {
	if day, ok := l[shared.FormatDate(date)]; ok {
		return day, nil
	}
	return nil, shared.ErrLookup
}

type stubPassages struct{}

func (stubPassages) Passage(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "Psalm") {
		return "", shared.ErrLookup
	}
	return "Text of " + ref, nil
}

// fixture wires a Runner with in-memory dependencies.
type fixture struct {
	runner  *Runner
	output  *bytes.Buffer
	hymns   *stubHymns
	archive *tu.MemoryArchive
	usage   *tu.MemoryUsage
	drafter *tu.ScriptedDrafter
	config  *shared.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		output: &bytes.Buffer{},
		hymns: &stubHymns{hymns: []models.Hymn{
			{ID: "h1", Number: models.IntPtr(100), Title: "The God of Abraham Praise", ScriptureTags: []string{"Genesis 12"}},
			{ID: "h2", Number: models.IntPtr(200), Title: "Spirit of God, Descend", ScriptureTags: []string{"John 3"}},
			{ID: "h3", Number: models.IntPtr(300), Title: "I to the Hills", ScriptureTags: []string{"Psalm 23"}, Link: "https://example.org/300"},
			{ID: "h4", Title: "Born of Water", ScriptureTags: []string{"John 3:16"}},
		}},
		archive: tu.NewMemoryArchive(),
		usage:   &tu.MemoryUsage{},
		drafter: &tu.ScriptedDrafter{},
		config:  shared.DefaultConfig(),
	}
	f.config.Storage.DataDir = t.TempDir()

	f.runner = NewRunner(RunnerOpts{
		Config: f.config,
		Hymns:  f.hymns,
		Lectionary: stubLectionary{
			"2026-03-01": {
				Occasion: "Second Sunday in Lent",
				Date:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
				Readings: []models.ScriptureReading{
					{Label: models.FirstReading, Reference: "Genesis 12:1-4a"},
					{Label: models.Psalm, Reference: "Psalm 121"},
					{Label: models.SecondReading, Reference: "Romans 4:1-5, 13-17"},
					{Label: models.Gospel, Reference: "John 3:1-17"},
				},
			},
		},
		Passages: stubPassages{},
		Drafter:  f.drafter,
		Archive:  f.archive,
		Usage:    f.usage,
		Logger:   log.New(io.Discard),
		Output:   f.output,
		Now:      func() time.Time { return time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC) },
	})
	return f
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	f.output.Reset()
	return newApp(f.runner).Run(context.Background(), append([]string{"hymnal"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			archive := tu.NewMemoryArchive()
			usage := &tu.MemoryUsage{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Archive:    archive,
				Usage:      usage,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.archives != archive {
				t.Error("expected archive to be set")
			}
			if runner.usage != usage {
				t.Error("expected usage to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with nil clock uses wall time", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.now == nil {
				t.Fatal("expected clock to be set")
			}
			if got := runner.today(); got.Hour() != 0 || got.Location() != time.UTC {
				t.Errorf("today should be a UTC date, got %v", got)
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln pads with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("done")
			if result := output.String(); result != "\ndone\n" {
				t.Errorf("expected padded line, got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "hymns", "lectionary", "suggest", "usage", "archive", "plan"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if cmd.Name != want[i] {
				t.Errorf("command %d: expected %s, got %s", i, want[i], cmd.Name)
			}
		}
	})

	t.Run("watchProgress", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		progress, stop := runner.watchProgress()
		progress <- tasks.ProgressUpdate{Phase: tasks.LookupReadings, Message: "Looking up 2026-03-01"}
		progress <- tasks.ProgressUpdate{Phase: tasks.DraftSection, Message: "[1/1] Drafting Benediction"}
		stop()
		stop()

		result := output.String()
		if !strings.Contains(result, "Looking up 2026-03-01") || !strings.Contains(result, "Drafting Benediction") {
			t.Errorf("expected progress messages, got %q", result)
		}
	})

	t.Run("Configure", func(t *testing.T) {
		t.Run("missing config file falls back to defaults", func(t *testing.T) {
			dir := t.TempDir()
			runner := NewRunner(RunnerOpts{
				ConfigPath: dir + "/missing.toml",
				Archive:    tu.NewMemoryArchive(),
				Usage:      &tu.MemoryUsage{},
				Logger:     log.New(io.Discard),
			})

			config, err := runner.loadConfig()
			if err != nil {
				t.Fatalf("expected defaults, got %v", err)
			}
			if config.Planning.ExclusionWeeks != tasks.DefaultExclusionWeeks {
				t.Errorf("expected default exclusion window, got %d", config.Planning.ExclusionWeeks)
			}
		})

		t.Run("invalid config is an error", func(t *testing.T) {
			path := t.TempDir() + "/config.toml"
			if err := os.WriteFile(path, []byte("[storage]\nbackend = \"postgres\"\n"), 0644); err != nil {
				t.Fatal(err)
			}
			runner := NewRunner(RunnerOpts{ConfigPath: path, Logger: log.New(io.Discard)})

			if _, err := runner.loadConfig(); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("local sqlite stores", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Storage.Backend = shared.BackendSQLite
			config.Storage.DatabasePath = ":memory:"
			runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard), Drafter: &tu.ScriptedDrafter{}})

			if err := runner.wire(context.Background()); err != nil {
				t.Fatalf("wire failed: %v", err)
			}
			defer runner.Close(context.Background(), nil)

			if runner.db == nil {
				t.Fatal("expected database to be opened")
			}
			if runner.hymns != nil {
				t.Error("hymn catalog should stay unset without Notion credentials")
			}
			if _, err := runner.archive().Save(context.Background(), &models.Service{Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}); err != nil {
				t.Errorf("expected sqlite archive to accept a service, got %v", err)
			}
		})
	})
}

func TestFlags(t *testing.T) {
	t.Run("parseOverrides", func(t *testing.T) {
		got, err := parseOverrides([]string{"benediction=Go in peace.", "call_to_worship=Leader: Come=see"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got[models.Benediction] != "Go in peace." || got[models.CallToWorship] != "Leader: Come=see" {
			t.Errorf("unexpected overrides %v", got)
		}

		for _, bad := range []string{"benediction", "sermon=text"} {
			if _, err := parseOverrides([]string{bad}); !errors.Is(err, shared.ErrInvalidFlag) {
				t.Errorf("parseOverrides(%q): expected ErrInvalidFlag, got %v", bad, err)
			}
		}
	})

	t.Run("negative limit is rejected", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "suggest", "--reading", "John 3", "--limit=-1"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("bad date is rejected", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "suggest", "--date", "03/01/2026"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}
