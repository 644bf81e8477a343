package services

import (
	"context"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/jomei/notionapi"
)

// HymnRepository reads and writes hymn records in the catalog database.
type HymnRepository interface {
	// ListHymns fetches every hymn, following pagination until the catalog is exhausted.
	// Any page failure aborts the list.
	ListHymns(ctx context.Context) ([]models.Hymn, error)

	// SearchHymns matches title (case-insensitive substring) and scripture tag when given.
	SearchHymns(ctx context.Context, title, tag string) ([]models.Hymn, error)

	// GetHymn retrieves a hymn by page id.
	GetHymn(ctx context.Context, id string) (*models.Hymn, error)

	// CreateHymn adds a hymn page. The payload must include a title.
	CreateHymn(ctx context.Context, props notionapi.Properties) (*models.Hymn, error)

	// UpdateHymn patches the properties of an existing hymn page.
	UpdateHymn(ctx context.Context, id string, props notionapi.Properties) (*models.Hymn, error)
}

// Lectionary looks up the appointed readings for a date.
type Lectionary interface {
	Lookup(ctx context.Context, date time.Time) (*models.LectionaryDay, error)
}

// PassageFetcher returns the text of a scripture reference.
type PassageFetcher interface {
	Passage(ctx context.Context, reference string) (string, error)
}

// Drafter writes the text of one liturgy section.
type Drafter interface {
	Draft(ctx context.Context, section models.Section, dc models.DraftContext) (string, error)
}
