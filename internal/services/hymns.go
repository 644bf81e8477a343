package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/notion"
	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/jomei/notionapi"
)

// HymnSchema names the catalog properties read into [models.Hymn].
type HymnSchema struct {
	Title     string
	Number    string
	Scripture string
	Tags      string
	Link      string
}

// SchemaFromConfig copies the configured property names.
func SchemaFromConfig(p shared.HymnProperties) HymnSchema {
	return HymnSchema{Title: p.Title, Number: p.Number, Scripture: p.Scripture, Tags: p.Tags, Link: p.Link}
}

// NotionHymns implements [HymnRepository] over a Notion database.
type NotionHymns struct {
	client   *notionapi.Client
	database string
	schema   HymnSchema
	logger   *log.Logger
}

// NewNotionHymns creates a hymn repository for the catalog database.
func NewNotionHymns(client *notionapi.Client, database string, schema HymnSchema, logger *log.Logger) (*NotionHymns, error) {
	if database == "" {
		return nil, fmt.Errorf("%w: hymns database id", shared.ErrMissingConfig)
	}
	if schema.Title == "" {
		return nil, fmt.Errorf("%w: hymn title property name", shared.ErrInvalidConfig)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &NotionHymns{client: client, database: database, schema: schema, logger: logger}, nil
}

func (n *NotionHymns) ListHymns(ctx context.Context) ([]models.Hymn, error) {
	return n.query(ctx, nil)
}

// SearchHymns asks Notion for title and scripture matches, then re-checks each result locally
// so matching is case-insensitive whatever the upstream filter does.
func (n *NotionHymns) SearchHymns(ctx context.Context, title, tag string) ([]models.Hymn, error) {
	title, tag = strings.TrimSpace(title), strings.TrimSpace(tag)
	if title == "" && tag == "" {
		return n.ListHymns(ctx)
	}

	var filters notionapi.AndCompoundFilter
	if title != "" {
		filters = append(filters, notionapi.PropertyFilter{
			Property: n.schema.Title,
			RichText: &notionapi.TextFilterCondition{Contains: title},
		})
	}
	if tag != "" {
		var either notionapi.OrCompoundFilter
		if n.schema.Scripture != "" {
			either = append(either, notionapi.PropertyFilter{
				Property: n.schema.Scripture,
				RichText: &notionapi.TextFilterCondition{Contains: tag},
			})
		}
		if n.schema.Tags != "" {
			either = append(either, notionapi.PropertyFilter{
				Property:    n.schema.Tags,
				MultiSelect: &notionapi.MultiSelectFilterCondition{Contains: tag},
			})
		}
		switch len(either) {
		case 0:
		case 1:
			filters = append(filters, either[0])
		default:
			filters = append(filters, either)
		}
	}

	var filter notionapi.Filter
	switch len(filters) {
	case 0:
	case 1:
		filter = filters[0]
	default:
		filter = filters
	}

	hymns, err := n.query(ctx, filter)
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(hymns, func(h models.Hymn) bool {
		return !MatchesSearch(h, title, tag)
	}), nil
}

func (n *NotionHymns) GetHymn(ctx context.Context, id string) (*models.Hymn, error) {
	page, err := n.client.Page.Get(ctx, notionapi.PageID(id))
	if err != nil {
		return nil, notion.WrapError("get hymn "+id, err)
	}
	hymn := n.toHymn(page)
	return &hymn, nil
}

func (n *NotionHymns) CreateHymn(ctx context.Context, props notionapi.Properties) (*models.Hymn, error) {
	if strings.TrimSpace(notion.GetString(props, n.schema.Title)) == "" {
		return nil, fmt.Errorf("%w: hymn %q is required", shared.ErrInvalidInput, n.schema.Title)
	}

	page, err := n.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: notionapi.DatabaseID(n.database)},
		Properties: props,
	})
	if err != nil {
		return nil, notion.WrapError("create hymn", err)
	}

	hymn := n.toHymn(page)
	n.logger.Info("created hymn", "id", hymn.ID, "title", hymn.Title)
	return &hymn, nil
}

func (n *NotionHymns) UpdateHymn(ctx context.Context, id string, props notionapi.Properties) (*models.Hymn, error) {
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: no properties to update", shared.ErrInvalidInput)
	}

	page, err := n.client.Page.Update(ctx, notionapi.PageID(id), &notionapi.PageUpdateRequest{Properties: props})
	if err != nil {
		return nil, notion.WrapError("update hymn "+id, err)
	}

	hymn := n.toHymn(page)
	return &hymn, nil
}

// Properties builds a write payload from typed fields using the repository schema.
func (n *NotionHymns) Properties(f HymnFields) notionapi.Properties {
	return n.schema.Properties(f)
}

// Properties builds a write payload from typed fields, skipping zero values and unmapped fields.
func (s HymnSchema) Properties(f HymnFields) notionapi.Properties {
	props := notionapi.Properties{}
	if f.Title != "" {
		props[s.Title] = notion.Title(f.Title)
	}
	if f.Number != nil && s.Number != "" {
		props[s.Number] = notion.Number(float64(*f.Number))
	}
	if f.Scripture != "" && s.Scripture != "" {
		props[s.Scripture] = notion.Text(f.Scripture)
	}
	if len(f.Tags) > 0 && s.Tags != "" {
		props[s.Tags] = notion.MultiSelect(f.Tags...)
	}
	if f.Link != "" && s.Link != "" {
		props[s.Link] = notion.URL(f.Link)
	}
	return props
}

// HymnFields are the typed inputs accepted by [NotionHymns.Properties].
type HymnFields struct {
	Title     string
	Number    *int
	Scripture string
	Tags      []string
	Link      string
}

func (n *NotionHymns) query(ctx context.Context, filter notionapi.Filter) ([]models.Hymn, error) {
	pages, err := notion.QueryAll(ctx, n.client, n.database, &notionapi.DatabaseQueryRequest{Filter: filter})
	if err != nil {
		return nil, err
	}
	n.logger.Debug("fetched hymn pages", "database", n.database, "count", len(pages))

	hymns := make([]models.Hymn, 0, len(pages))
	for i := range pages {
		hymns = append(hymns, n.toHymn(&pages[i]))
	}
	return hymns, nil
}

// toHymn is the only place catalog properties are read; nothing past this returns notionapi types.
func (n *NotionHymns) toHymn(page *notionapi.Page) models.Hymn {
	props := page.Properties
	hymn := models.Hymn{
		ID:         page.ID.String(),
		Title:      strings.TrimSpace(notion.GetString(props, n.schema.Title)),
		Link:       notion.GetString(props, n.schema.Link),
		Properties: notion.Flatten(props),
	}

	if num, ok := notion.GetNumber(props, n.schema.Number); ok {
		hymn.Number = models.IntPtr(num)
	}

	var tags []string
	if n.schema.Tags != "" {
		tags = append(tags, notion.GetList(props, n.schema.Tags)...)
	}
	if n.schema.Scripture != "" {
		tags = append(tags, notion.GetList(props, n.schema.Scripture)...)
	}
	hymn.ScriptureTags = dedupeFold(tags)

	return hymn
}

// MatchesSearch reports whether h has title as a case-insensitive substring of its title and
// tag as a case-insensitive substring of one of its scripture tags. Empty criteria match everything.
func MatchesSearch(h models.Hymn, title, tag string) bool {
	if title != "" && !strings.Contains(strings.ToLower(h.Title), strings.ToLower(title)) {
		return false
	}
	if tag == "" {
		return true
	}
	tag = strings.ToLower(tag)
	for _, t := range h.ScriptureTags {
		if strings.Contains(strings.ToLower(t), tag) {
			return true
		}
	}
	return false
}

func dedupeFold(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
