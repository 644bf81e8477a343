package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/notion"
	"github.com/desertthunder/hymnal/internal/shared"
	tu "github.com/desertthunder/hymnal/internal/testing"
	"github.com/google/go-cmp/cmp"
	"github.com/jomei/notionapi"
)

var testSchema = HymnSchema{
	Title:     "Hymn Title",
	Number:    "Hymn Number",
	Scripture: "Scripture",
	Tags:      "Tags",
	Link:      "Link",
}

func newTestHymns(t *testing.T) (*NotionHymns, *tu.FakeNotion) {
	t.Helper()
	fake := tu.NewFakeNotion(t)
	client, err := notion.NewClient(notion.Options{APIKey: "secret_test", RequestsPerSecond: 1000, Transport: fake.Transport(t)})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	repo, err := NewNotionHymns(client, "hymns", testSchema, nil)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	return repo, fake
}

func seedHymn(t *testing.T, fake *tu.FakeNotion, title string, number int, scripture string, tags ...string) string {
	t.Helper()
	props := notionapi.Properties{"Hymn Title": notion.Title(title)}
	if number > 0 {
		props["Hymn Number"] = notion.Number(float64(number))
	}
	if scripture != "" {
		props["Scripture"] = notion.Text(scripture)
	}
	if len(tags) > 0 {
		props["Tags"] = notion.MultiSelect(tags...)
	}
	return fake.AddPage(t, "hymns", props)
}

func TestNewNotionHymns(t *testing.T) {
	t.Run("missing database", func(t *testing.T) {
		_, err := NewNotionHymns(nil, "", testSchema, nil)
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("missing title property", func(t *testing.T) {
		_, err := NewNotionHymns(nil, "hymns", HymnSchema{}, nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestNotionHymns(t *testing.T) {
	ctx := context.Background()

	t.Run("ListHymns", func(t *testing.T) {
		t.Run("maps properties across pages", func(t *testing.T) {
			repo, fake := newTestHymns(t)
			fake.PageSize = 1
			seedHymn(t, fake, "Joyful, Joyful, We Adore Thee", 611, "Psalm 148; Luke 2:14", "Praise")
			seedHymn(t, fake, "Be Thou My Vision", 450, "", "Psalm 27")
			seedHymn(t, fake, "Untitled Chant", 0, "")

			hymns, err := repo.ListHymns(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(hymns) != 3 {
				t.Fatalf("expected 3 hymns, got %d", len(hymns))
			}

			first := hymns[0]
			if first.Title != "Joyful, Joyful, We Adore Thee" || first.NumberOr(0) != 611 {
				t.Errorf("unexpected first hymn %+v", first)
			}
			want := []string{"Praise", "Psalm 148", "Luke 2:14"}
			if diff := cmp.Diff(want, first.ScriptureTags); diff != "" {
				t.Errorf("scripture tags mismatch (-want +got):\n%s", diff)
			}

			if hymns[2].HasNumber() {
				t.Errorf("expected unnumbered hymn, got %d", *hymns[2].Number)
			}
			if hymns[0].Properties["Hymn Title"] != first.Title {
				t.Errorf("expected flattened title property, got %v", hymns[0].Properties)
			}
		})

		t.Run("page failure aborts", func(t *testing.T) {
			repo, fake := newTestHymns(t)
			fake.PageSize = 1
			fake.FailPage = 2
			seedHymn(t, fake, "A", 1, "")
			seedHymn(t, fake, "B", 2, "")

			hymns, err := repo.ListHymns(ctx)
			if !errors.Is(err, shared.ErrRepository) {
				t.Fatalf("expected ErrRepository, got %v", err)
			}
			if hymns != nil {
				t.Errorf("expected no hymns, got %d", len(hymns))
			}
		})
	})

	t.Run("SearchHymns", func(t *testing.T) {
		repo, fake := newTestHymns(t)
		seedHymn(t, fake, "Joyful, Joyful, We Adore Thee", 611, "Psalm 148", "Praise")
		seedHymn(t, fake, "Be Thou My Vision", 450, "", "Psalm 27")
		seedHymn(t, fake, "Joy to the World", 134, "Psalm 98")

		tests := []struct {
			name  string
			title string
			tag   string
			want  []string
		}{
			{"title is case-insensitive", "JOY", "", []string{"Joyful, Joyful, We Adore Thee", "Joy to the World"}},
			{"tag only", "", "psalm 27", []string{"Be Thou My Vision"}},
			{"title and tag", "joy", "98", []string{"Joy to the World"}},
			{"no criteria lists all", "", "", []string{"Joyful, Joyful, We Adore Thee", "Be Thou My Vision", "Joy to the World"}},
			{"no match", "Amazing", "", []string{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				hymns, err := repo.SearchHymns(ctx, tt.title, tt.tag)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got := make([]string, 0, len(hymns))
				for _, h := range hymns {
					got = append(got, h.Title)
				}
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("titles mismatch (-want +got):\n%s", diff)
				}
			})
		}
	})

	t.Run("GetHymn", func(t *testing.T) {
		repo, fake := newTestHymns(t)
		id := seedHymn(t, fake, "Be Thou My Vision", 450, "")

		hymn, err := repo.GetHymn(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hymn.ID != id || hymn.Title != "Be Thou My Vision" {
			t.Errorf("unexpected hymn %+v", hymn)
		}

		_, err = repo.GetHymn(ctx, "00000000-0000-0000-0000-999999999999")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreateHymn", func(t *testing.T) {
		repo, fake := newTestHymns(t)

		props := repo.Properties(HymnFields{Title: "Amazing Grace", Number: models.IntPtr(649), Tags: []string{"Grace"}})
		hymn, err := repo.CreateHymn(ctx, props)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hymn.Title != "Amazing Grace" || hymn.NumberOr(0) != 649 {
			t.Errorf("unexpected hymn %+v", hymn)
		}
		if n := fake.PageCount("hymns"); n != 1 {
			t.Errorf("expected 1 page, got %d", n)
		}

		_, err = repo.CreateHymn(ctx, repo.Properties(HymnFields{Number: models.IntPtr(1)}))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput without a title, got %v", err)
		}
		if n := fake.PageCount("hymns"); n != 1 {
			t.Errorf("expected rejected create to leave 1 page, got %d", n)
		}
	})

	t.Run("UpdateHymn", func(t *testing.T) {
		repo, fake := newTestHymns(t)
		id := seedHymn(t, fake, "Be Thou My Vision", 450, "")

		hymn, err := repo.UpdateHymn(ctx, id, repo.Properties(HymnFields{Link: "https://hymnary.org/hymn/GG2013/450"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hymn.Link != "https://hymnary.org/hymn/GG2013/450" || hymn.Title != "Be Thou My Vision" {
			t.Errorf("unexpected hymn %+v", hymn)
		}

		_, err = repo.UpdateHymn(ctx, id, notionapi.Properties{})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty update, got %v", err)
		}
	})
}

func TestMatchesSearch(t *testing.T) {
	hymn := models.Hymn{Title: "Be Thou My Vision", ScriptureTags: []string{"Psalm 27", "Ephesians 1:18"}}

	tests := []struct {
		title, tag string
		want       bool
	}{
		{"", "", true},
		{"vision", "", true},
		{"VISION", "ephesians", true},
		{"vision", "John", false},
		{"Grace", "", false},
	}

	for _, tt := range tests {
		if got := MatchesSearch(hymn, tt.title, tt.tag); got != tt.want {
			t.Errorf("MatchesSearch(%q, %q) = %v, want %v", tt.title, tt.tag, got, tt.want)
		}
	}
}
