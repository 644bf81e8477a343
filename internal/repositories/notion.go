package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/notion"
	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/jomei/notionapi"
)

// Archive database properties.
const (
	PropTitle            = "Title"
	PropServiceDate      = "Service date"
	PropOccasion         = "Occasion"
	PropScriptures       = "Scriptures"
	PropReadings         = "Readings"
	PropHymns            = "Hymns"
	PropLiturgy          = "Liturgy"
	PropSelectedOT       = "Selected OT"
	PropSelectedNT       = "Selected NT"
	PropSermonTitle      = "Sermon title"
	PropIncludeCommunion = "Include communion"
	PropSavedAt          = "Saved at"
)

// Usage database properties. The title is "#N Title".
const (
	PropDate       = "Date"
	PropHymnNumber = "Hymn number"
	PropHymnTitle  = "Hymn title"
)

// NotionArchive implements [models.ArchiveStore] with one Notion page per saved service.
type NotionArchive struct {
	client   *notionapi.Client
	database string
}

// NewNotionArchive stores archived services in database.
func NewNotionArchive(client *notionapi.Client, database string) (*NotionArchive, error) {
	if database == "" {
		return nil, fmt.Errorf("%w: archive database id", shared.ErrMissingConfig)
	}
	return &NotionArchive{client: client, database: database}, nil
}

func (n *NotionArchive) Save(ctx context.Context, record models.ArchiveRecord) (string, error) {
	props, err := archiveProperties(record)
	if err != nil {
		return "", err
	}

	page, err := n.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: notionapi.DatabaseID(n.database)},
		Properties: props,
	})
	if err != nil {
		return "", notion.WrapError("save archived service", err)
	}
	return page.ID.String(), nil
}

func (n *NotionArchive) List(ctx context.Context) ([]models.ArchiveEntry, error) {
	pages, err := notion.QueryAll(ctx, n.client, n.database, &notionapi.DatabaseQueryRequest{
		Sorts: []notionapi.SortObject{{Property: PropSavedAt, Direction: notionapi.SortOrderDESC}},
	})
	if err != nil {
		return nil, err
	}

	entries := make([]models.ArchiveEntry, 0, len(pages))
	for _, p := range pages {
		date, _ := notion.GetDate(p.Properties, PropServiceDate)
		savedAt, _ := notion.GetDate(p.Properties, PropSavedAt)
		entries = append(entries, models.ArchiveEntry{
			ID:       p.ID.String(),
			Occasion: notion.GetString(p.Properties, PropOccasion),
			Date:     shared.DateOf(date),
			SavedAt:  savedAt.UTC(),
		})
	}
	return entries, nil
}

func (n *NotionArchive) Get(ctx context.Context, id string) (*models.ArchiveRecord, error) {
	page, err := n.client.Page.Get(ctx, notionapi.PageID(id))
	if err != nil {
		return nil, notion.WrapError("get archived service "+id, err)
	}
	return archiveRecord(page)
}

func archiveProperties(rec models.ArchiveRecord) (notionapi.Properties, error) {
	svc := rec.Service

	hymns, err := encodeHymns(svc.Hymns)
	if err != nil {
		return nil, wrap("encode hymns", err)
	}
	readings, err := json.Marshal(svc.Readings)
	if err != nil {
		return nil, wrap("encode readings", err)
	}
	liturgy, err := json.Marshal(svc.Liturgy)
	if err != nil {
		return nil, wrap("encode liturgy", err)
	}

	return notionapi.Properties{
		PropTitle:            notion.Title(svc.Title()),
		PropServiceDate:      notion.Date(svc.Date),
		PropOccasion:         notion.Text(svc.Occasion),
		PropScriptures:       notion.Text(strings.Join(referenceLines(svc.Readings), "\n")),
		PropReadings:         notion.Text(string(readings)),
		PropHymns:            notion.Text(hymns),
		PropLiturgy:          notion.Text(string(liturgy)),
		PropSelectedOT:       notion.Text(svc.SelectedOT),
		PropSelectedNT:       notion.Text(svc.SelectedNT),
		PropSermonTitle:      notion.Text(svc.SermonTitle),
		PropIncludeCommunion: notion.Checkbox(svc.IncludeCommunion),
		PropSavedAt:          notion.Timestamp(rec.SavedAt),
	}, nil
}

// archiveRecord reads a page written by [archiveProperties]. Pages created before the Readings
// column existed fall back to the newline-separated Scriptures references.
func archiveRecord(page *notionapi.Page) (*models.ArchiveRecord, error) {
	props := page.Properties
	id := page.ID.String()

	date, ok := notion.GetDate(props, PropServiceDate)
	if !ok {
		return nil, fmt.Errorf("%w: archived service %s has no %q", shared.ErrRepository, id, PropServiceDate)
	}
	savedAt, _ := notion.GetDate(props, PropSavedAt)

	svc := models.Service{
		Occasion:         notion.GetString(props, PropOccasion),
		Date:             shared.DateOf(date),
		IncludeCommunion: notion.GetCheckbox(props, PropIncludeCommunion),
		SermonTitle:      notion.GetString(props, PropSermonTitle),
		SelectedOT:       notion.GetString(props, PropSelectedOT),
		SelectedNT:       notion.GetString(props, PropSelectedNT),
	}

	if raw := strings.TrimSpace(notion.GetString(props, PropReadings)); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &svc.Readings); err != nil {
			return nil, wrap("decode readings of "+id, err)
		}
	} else {
		svc.Readings = readingsFromLines(strings.Split(notion.GetString(props, PropScriptures), "\n"))
	}

	hymns, err := decodeHymns(notion.GetString(props, PropHymns))
	if err != nil {
		return nil, wrap("decode hymns of "+id, err)
	}
	svc.Hymns = hymns

	if raw := strings.TrimSpace(notion.GetString(props, PropLiturgy)); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &svc.Liturgy); err != nil {
			return nil, wrap("decode liturgy of "+id, err)
		}
	}

	return &models.ArchiveRecord{ID: id, Service: svc, SavedAt: savedAt.UTC()}, nil
}

// NotionUsage implements [models.UsageStore] with one Notion page per hymn sung.
type NotionUsage struct {
	client   *notionapi.Client
	database string
}

// NewNotionUsage stores the usage log in database.
func NewNotionUsage(client *notionapi.Client, database string) (*NotionUsage, error) {
	if database == "" {
		return nil, fmt.Errorf("%w: usage database id", shared.ErrMissingConfig)
	}
	return &NotionUsage{client: client, database: database}, nil
}

// Append creates a page per record and stops at the first failure.
func (n *NotionUsage) Append(ctx context.Context, records ...models.UsageRecord) error {
	for _, r := range records {
		_, err := n.client.Page.Create(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: notionapi.DatabaseID(n.database)},
			Properties: notionapi.Properties{
				PropTitle:      notion.Title(fmt.Sprintf("#%d %s", r.HymnNumber, r.HymnTitle)),
				PropDate:       notion.Date(r.DateUsed),
				PropHymnNumber: notion.Number(float64(r.HymnNumber)),
				PropHymnTitle:  notion.Text(r.HymnTitle),
			},
		})
		if err != nil {
			return notion.WrapError(fmt.Sprintf("record usage of hymn %d", r.HymnNumber), err)
		}
	}
	return nil
}

// Records filters on the Date property upstream and again locally.
func (n *NotionUsage) Records(ctx context.Context, since time.Time) ([]models.UsageRecord, error) {
	query := &notionapi.DatabaseQueryRequest{
		Sorts: []notionapi.SortObject{{Property: PropDate, Direction: notionapi.SortOrderASC}},
	}
	if !since.IsZero() {
		from := notionapi.Date(shared.DateOf(since))
		query.Filter = notionapi.PropertyFilter{
			Property: PropDate,
			Date:     &notionapi.DateFilterCondition{OnOrAfter: &from},
		}
	}

	pages, err := notion.QueryAll(ctx, n.client, n.database, query)
	if err != nil {
		return nil, err
	}

	var out []models.UsageRecord
	for _, p := range pages {
		number, ok := notion.GetNumber(p.Properties, PropHymnNumber)
		if !ok {
			continue
		}
		date, ok := notion.GetDate(p.Properties, PropDate)
		if !ok {
			continue
		}
		date = shared.DateOf(date)
		if !since.IsZero() && date.Before(shared.DateOf(since)) {
			continue
		}
		out = append(out, models.UsageRecord{
			HymnNumber: number,
			HymnTitle:  notion.GetString(p.Properties, PropHymnTitle),
			DateUsed:   date,
		})
	}
	return out, nil
}
