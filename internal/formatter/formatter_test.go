package formatter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
	tu "github.com/desertthunder/hymnal/internal/testing"
)

func testService() *models.Service {
	return &models.Service{
		Occasion: "Second Sunday in Lent",
		Date:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Readings: []models.ScriptureReading{
			{Label: models.FirstReading, Reference: "Genesis 12:1-4a"},
			{Label: models.Psalm, Reference: "Psalm 121"},
			{Label: models.SecondReading, Reference: "Romans 4:1-5, 13-17"},
			{Label: models.Gospel, Reference: "John 3:1-17"},
		},
		Hymns: models.SelectedHymns{
			Opening:  &models.Hymn{Title: "Be Thou My Vision", Number: models.IntPtr(450)},
			Response: &models.Hymn{Title: "Amazing Grace", Number: models.IntPtr(649)},
			Closing:  &models.Hymn{Title: "Ubi Caritas"},
		},
		Liturgy: map[string]string{
			"call_to_worship":         "Leader: I lift up my eyes to the hills.\nPeople: Our help comes from the Lord.",
			"opening_prayer":          "Faithful God, you call us out. Amen.",
			"prayer_of_confession":    "Merciful God, we confess that we have wandered.",
			"assurance":               "Leader: Hear the good news! In Jesus Christ we are forgiven.",
			"prayer_for_illumination": "Spirit of truth, open our hearts. Amen.",
			"prayers_of_the_people":   "We pray for the church and the world.",
			"offertory_prayer":        "Receive these gifts. Amen.",
			"benediction":             "Go in peace. Amen.",
		},
		SermonTitle: "Born from Above",
	}
}

func TestExportToMarkdown(t *testing.T) {
	t.Run("follows the order of service", func(t *testing.T) {
		data, err := ExportToMarkdown(testService(), Options{})
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		output := string(data)

		order := []string{
			"# Worship Service",
			"**Second Sunday in Lent**",
			"March 1, 2026",
			"## Call to Worship",
			"## Opening Prayer",
			"## First Hymn",
			"## Prayer of Confession",
			"## Assurance of Pardon",
			"## Prayer for Illumination",
			"## Old Testament Reading",
			"## New Testament Reading",
			"## Sermon Title",
			"## Affirmation of Faith",
			"## Second Hymn",
			"## Prayers of the People",
			"## Offertory Prayer",
			"## Third Hymn",
			"## Benediction",
		}
		last := -1
		for _, heading := range order {
			i := strings.Index(output, heading)
			if i < 0 {
				t.Fatalf("Markdown missing %q:\n%s", heading, output)
			}
			if i < last {
				t.Errorf("%q is out of order", heading)
			}
			last = i
		}
	})

	t.Run("responsive text", func(t *testing.T) {
		data, _ := ExportToMarkdown(testService(), Options{})
		output := string(data)

		if !strings.Contains(output, "Leader: I lift up my eyes to the hills.\n\nPeople: **Our help comes from the Lord.**") {
			t.Errorf("call to worship not split into leader and people lines:\n%s", output)
		}
		if !strings.Contains(output, "Leader: Hear the good news! In Jesus Christ we are forgiven.\n\n**People: Thanks be to God! Amen.**") {
			t.Errorf("assurance missing fixed response:\n%s", output)
		}
		if strings.Contains(output, "Leader: Leader:") {
			t.Error("assurance leader prefix doubled")
		}
		if !strings.Contains(output, "**Merciful God, we confess that we have wandered.**") {
			t.Error("confession should be bold")
		}
	})

	t.Run("hymns and readings", func(t *testing.T) {
		data, _ := ExportToMarkdown(testService(), Options{})
		output := string(data)

		for _, want := range []string{"Be Thou My Vision (#450)", "Amazing Grace (#649)", "Ubi Caritas\n", "Genesis 12:1-4a", "John 3:1-17"} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q", want)
			}
		}
	})

	t.Run("communion after the second hymn", func(t *testing.T) {
		svc := testService()
		svc.IncludeCommunion = true
		data, _ := ExportToMarkdown(svc, Options{})
		output := string(data)

		sacrament := strings.Index(output, "## "+CommunionHeading)
		if sacrament < 0 {
			t.Fatal("Markdown missing communion liturgy")
		}
		if sacrament < strings.Index(output, "## Second Hymn") || sacrament > strings.Index(output, "## Prayers of the People") {
			t.Error("communion liturgy out of place")
		}
		if !strings.Contains(output, "### Great Thanksgiving") || !strings.Contains(output, "**And also with you.**") {
			t.Error("communion liturgy incomplete")
		}

		data, _ = ExportToMarkdown(testService(), Options{})
		if strings.Contains(string(data), CommunionHeading) {
			t.Error("communion liturgy printed without communion")
		}
	})

	t.Run("secretary copy", func(t *testing.T) {
		data, _ := ExportToMarkdown(testService(), SecretaryCopy)
		output := string(data)
		if strings.Contains(output, "Sermon Title") || strings.Contains(output, "Prayers of the People") {
			t.Errorf("secretary copy should omit sermon and prayers:\n%s", output)
		}
	})

	t.Run("sparse service", func(t *testing.T) {
		svc := &models.Service{Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
		data, err := ExportToMarkdown(svc, Options{})
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, SermonPlaceholder) || !strings.Contains(output, AffirmationText) {
			t.Error("sermon placeholder and affirmation always print")
		}
		for _, heading := range []string{"Call to Worship", "First Hymn", "Old Testament Reading", "Assurance of Pardon"} {
			if strings.Contains(output, heading) {
				t.Errorf("empty %s should be skipped", heading)
			}
		}
	})

	t.Run("nil service", func(t *testing.T) {
		if _, err := ExportToMarkdown(nil, Options{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestExportToText(t *testing.T) {
	svc := testService()
	svc.IncludeCommunion = true
	data, err := ExportToText(svc, Options{})
	if err != nil {
		t.Fatalf("ExportToText failed: %v", err)
	}
	output := string(data)

	if !strings.HasPrefix(output, "Worship Service\nSecond Sunday in Lent\nMarch 1, 2026\n") {
		t.Errorf("Text missing title block:\n%s", output)
	}
	if !strings.Contains(output, "Benediction\n===========\nGo in peace. Amen.") {
		t.Error("Text headings should be underlined")
	}
	if !strings.Contains(output, "Great Thanksgiving\n------------------\n") {
		t.Error("Text subheadings should use a dashed rule")
	}
	if strings.Contains(output, "**") {
		t.Error("Text should not contain Markdown emphasis")
	}
	if !strings.Contains(output, AssuranceResponse) {
		t.Error("Text missing assurance response")
	}
}

func TestLeaderPeople(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []paragraph
	}{
		{"no markers", "Come, let us worship.", []paragraph{{text: "Come, let us worship."}}},
		{"preamble and pairs", "Please stand.\nleader: The Lord be with you. PEOPLE: And also with you.", []paragraph{
			{text: "Please stand."},
			{text: "Leader: The Lord be with you."},
			{prefix: "People: ", text: "And also with you.", bold: true},
		}},
		{"empty marker dropped", "Leader:\nPeople: Amen.", []paragraph{{prefix: "People: ", text: "Amen.", bold: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := leaderPeople(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d paragraphs, got %+v", len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("paragraph %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestReadingFallbacks(t *testing.T) {
	svc := &models.Service{Readings: []models.ScriptureReading{
		{Label: models.FirstReading, Reference: "Isaiah 9:2-7"},
		{Label: models.SecondReading, Reference: "Titus 2:11-14"},
	}}
	if got := oldTestamentRef(svc); got != "Isaiah 9:2-7" {
		t.Errorf("expected first reading, got %q", got)
	}
	if got := newTestamentRef(svc); got != "Titus 2:11-14" {
		t.Errorf("expected second reading without a gospel, got %q", got)
	}

	svc.SelectedNT = "Luke 2:1-20"
	if got := newTestamentRef(svc); got != "Luke 2:1-20" {
		t.Errorf("expected selected reading, got %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{"txt", FormatText, false},
		{"text", FormatText, false},
		{"docx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("into a directory", func(t *testing.T) {
		dir := t.TempDir()
		path, err := WriteExport(testService(), dir, FormatText, Options{})
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if want := filepath.Join(dir, "order_of_service_2026-03-01.txt"); path != want {
			t.Errorf("expected %s, got %s", want, path)
		}
		tu.AssertFileExists(t, path)
	})

	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "lent2.md")
		got, err := WriteExport(testService(), path, FormatMarkdown, Options{})
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if !strings.HasPrefix(string(data), "# Worship Service") {
			t.Error("expected Markdown export")
		}
	})

	t.Run("undated default name", func(t *testing.T) {
		if got := DefaultFilename(&models.Service{}, FormatMarkdown); got != "order_of_service_undated.md" {
			t.Errorf("unexpected default filename %s", got)
		}
	})
}
