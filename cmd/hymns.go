package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/services"
	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/desertthunder/hymnal/internal/ui"
	"github.com/urfave/cli/v3"
)

// HymnsList lists every hymn in the catalog.
func (r *Runner) HymnsList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.requireHymns()
	if err != nil {
		return err
	}

	hymns, err := repo.ListHymns(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(hymns, cmd.Bool("pretty"))
	}
	r.printHymns(hymns)
	return nil
}

// HymnsSearch filters the catalog by title and scripture tag.
func (r *Runner) HymnsSearch(ctx context.Context, cmd *cli.Command) error {
	title, tag := cmd.String("title"), cmd.String("tag")
	if strings.TrimSpace(title) == "" && strings.TrimSpace(tag) == "" {
		return fmt.Errorf("%w: --title or --tag", shared.ErrMissingArgument)
	}

	repo, err := r.requireHymns()
	if err != nil {
		return err
	}

	r.logger.Info("searching hymns", "title", title, "tag", tag)
	hymns, err := repo.SearchHymns(ctx, title, tag)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(hymns, cmd.Bool("pretty"))
	}
	r.printHymns(hymns)
	return nil
}

// HymnsShow prints one hymn with every catalog property.
func (r *Runner) HymnsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: hymn id", shared.ErrMissingArgument)
	}

	repo, err := r.requireHymns()
	if err != nil {
		return err
	}

	hymn, err := repo.GetHymn(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(hymn, true)
	}

	r.writePlainHeader(hymn.Label())
	r.writePlain("ID: %s\n", hymn.ID)
	if len(hymn.ScriptureTags) > 0 {
		r.writePlain("Scripture: %s\n", strings.Join(hymn.ScriptureTags, "; "))
	}
	link := hymn.Link
	if link == "" && hymn.HasNumber() {
		link = r.hymnary.LinkFor(*hymn.Number)
	}
	if link != "" {
		r.writePlain("Link: %s\n", link)
	}
	if cmd.Bool("audio") && hymn.HasNumber() {
		r.writePlain("Audio: %s\n", r.hymnary.ResolveAudio(ctx, *hymn.Number, hymn.Title))
	}

	if len(hymn.Properties) > 0 {
		r.writePlainln("Properties:")
		for _, name := range slices.Sorted(maps.Keys(hymn.Properties)) {
			if v := hymn.Properties[name]; v != "" {
				r.writePlain("  %s: %s\n", name, v)
			}
		}
	}
	return nil
}

// HymnsCreate adds a hymn page to the catalog.
func (r *Runner) HymnsCreate(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.requireHymns()
	if err != nil {
		return err
	}

	fields, err := hymnFields(cmd)
	if err != nil {
		return err
	}
	if fields.Title == "" {
		return fmt.Errorf("%w: --title", shared.ErrMissingArgument)
	}

	hymn, err := repo.CreateHymn(ctx, r.schema().Properties(fields))
	if err != nil {
		return err
	}

	r.writePlain("%s Created %s\n", ui.OK("✓"), hymn.Label())
	r.writePlain("%s\n", ui.Help("ID: "+hymn.ID))
	return nil
}

// HymnsUpdate patches the given fields of a hymn page.
func (r *Runner) HymnsUpdate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: hymn id", shared.ErrMissingArgument)
	}

	repo, err := r.requireHymns()
	if err != nil {
		return err
	}

	fields, err := hymnFields(cmd)
	if err != nil {
		return err
	}

	hymn, err := repo.UpdateHymn(ctx, id, r.schema().Properties(fields))
	if err != nil {
		return err
	}

	r.writePlain("%s Updated %s\n", ui.OK("✓"), hymn.Label())
	return nil
}

// HymnsLinks fills the link property of numbered hymns that have none. Without --apply it only reports.
func (r *Runner) HymnsLinks(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.requireHymns()
	if err != nil {
		return err
	}
	schema := r.schema()
	if schema.Link == "" {
		return fmt.Errorf("%w: notion.hymn_properties.link is not set", shared.ErrInvalidConfig)
	}

	limit, err := intFlag(cmd, "limit", 0)
	if err != nil {
		return err
	}
	apply := cmd.Bool("apply")

	hymns, err := repo.ListHymns(ctx)
	if err != nil {
		return err
	}

	var missing []models.Hymn
	for _, h := range hymns {
		if h.HasNumber() && strings.TrimSpace(h.Link) == "" {
			missing = append(missing, h)
		}
	}
	if limit > 0 && limit < len(missing) {
		missing = missing[:limit]
	}

	if len(missing) == 0 {
		r.writePlain("Every numbered hymn already has a link\n")
		return nil
	}

	updated, failed := 0, 0
	for i, h := range missing {
		link := r.hymnary.LinkFor(*h.Number)
		if !apply {
			r.writePlain("[%d/%d] would link %s → %s\n", i+1, len(missing), h.Label(), link)
			continue
		}

		if _, err := repo.UpdateHymn(ctx, h.ID, schema.Properties(services.HymnFields{Link: link})); err != nil {
			r.logger.Warn("failed to update hymn link", "id", h.ID, "error", err)
			r.writePlain("[%d/%d] %s %s: %v\n", i+1, len(missing), ui.Fail("✗"), h.Label(), err)
			failed++
			continue
		}
		r.writePlain("[%d/%d] %s %s → %s\n", i+1, len(missing), ui.OK("✓"), h.Label(), link)
		updated++
	}

	if !apply {
		r.writePlainln("Dry run: %d hymns would be linked. Re-run with --apply to write them.", len(missing))
		return nil
	}
	r.writePlainln("Linked %d hymns (%d failed)", updated, failed)
	return nil
}

func (r *Runner) schema() services.HymnSchema {
	return services.SchemaFromConfig(r.config.Notion.HymnProperties)
}

func (r *Runner) printHymns(hymns []models.Hymn) {
	r.writePlain("Found %d hymns:\n\n", len(hymns))
	for i, h := range hymns {
		r.writePlain("%d. %s\n", i+1, h.Label())
		if len(h.ScriptureTags) > 0 {
			r.writePlain("   Scripture: %s\n", strings.Join(h.ScriptureTags, "; "))
		}
		if h.Link != "" {
			r.writePlain("   Link: %s\n", h.Link)
		}
		r.writePlain("   ID: %s\n", h.ID)
	}
}

func hymnFields(cmd *cli.Command) (services.HymnFields, error) {
	fields := services.HymnFields{
		Title:     strings.TrimSpace(cmd.String("title")),
		Scripture: strings.TrimSpace(cmd.String("scripture")),
		Tags:      cmd.StringSlice("tag"),
		Link:      strings.TrimSpace(cmd.String("link")),
	}
	if cmd.IsSet("number") {
		n := cmd.Int("number")
		if n <= 0 {
			return fields, fmt.Errorf("%w: --number must be positive", shared.ErrInvalidFlag)
		}
		fields.Number = models.IntPtr(n)
	}
	return fields, nil
}

func hymnFieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "title",
			Usage: "Hymn title",
		},
		&cli.IntFlag{
			Name:  "number",
			Usage: "Hymnal number",
		},
		&cli.StringFlag{
			Name:  "scripture",
			Usage: "Scripture references, separated by semicolons",
		},
		&cli.StringSliceFlag{
			Name:  "tag",
			Usage: "Tag (repeatable)",
		},
		&cli.StringFlag{
			Name:  "link",
			Usage: "Hymnary.org page",
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

// hymnsCommand handles hymn catalog operations
func hymnsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "hymns",
		Usage: "Browse and edit the Notion hymn catalog",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List every hymn",
				Flags:  outputFlags(),
				Action: r.HymnsList,
			},
			{
				Name:  "search",
				Usage: "Search hymns by title and scripture tag",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Case-insensitive title substring",
					},
					&cli.StringFlag{
						Name:  "tag",
						Usage: "Scripture reference or tag substring",
					},
				}, outputFlags()...),
				Action: r.HymnsSearch,
			},
			{
				Name:  "show",
				Usage: "Show one hymn",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "audio",
						Usage: "Resolve the accompaniment recording on hymnary.org",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HymnsShow,
			},
			{
				Name:   "create",
				Usage:  "Add a hymn to the catalog",
				Flags:  hymnFieldFlags(),
				Action: r.HymnsCreate,
			},
			{
				Name:  "update",
				Usage: "Update fields of a hymn",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  hymnFieldFlags(),
				Action: r.HymnsUpdate,
			},
			{
				Name:  "links",
				Usage: "Fill missing hymnary.org links (dry run unless --apply)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "apply",
						Usage: "Write the links to Notion",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Process at most this many hymns",
					},
				},
				Action: r.HymnsLinks,
			},
		},
	}
}
