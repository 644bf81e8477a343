package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/hymnal/internal/formatter"
	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/desertthunder/hymnal/internal/ui"
	"github.com/urfave/cli/v3"
)

// Plan assembles a service for --date: readings from the lectionary, the chosen hymns,
// and drafted liturgy. The result is printed and optionally saved, recorded and exported.
func (r *Runner) Plan(ctx context.Context, cmd *cli.Command) error {
	if !cmd.IsSet("date") {
		return fmt.Errorf("%w: --date", shared.ErrMissingArgument)
	}
	date, err := dateFlag(cmd, "date", r.today())
	if err != nil {
		return err
	}

	names := cmd.StringSlice("section")
	if len(names) == 0 {
		names = r.config.Planning.Sections
	}
	sections, err := models.ParseSections(names)
	if err != nil {
		return fmt.Errorf("%w: --section: %v", shared.ErrInvalidFlag, err)
	}
	overrides, err := parseOverrides(cmd.StringSlice("override"))
	if err != nil {
		return err
	}

	var format formatter.Format
	if cmd.IsSet("export") {
		if format, err = formatter.ParseFormat(cmd.String("format")); err != nil {
			return err
		}
	}

	planner := r.planner()
	progress, stop := r.watchProgress()
	defer stop()

	svc, err := planner.Prepare(ctx, date, cmd.String("occasion"), progress)
	if err != nil {
		return err
	}
	svc.SermonTitle = strings.TrimSpace(cmd.String("sermon"))
	svc.IncludeCommunion = cmd.Bool("communion")

	if cmd.Bool("text") {
		if err := planner.FetchPassages(ctx, svc, progress); err != nil {
			r.logger.Warn("some passages could not be fetched", "error", err)
		}
	}

	if svc.Hymns, err = r.selectHymns(ctx, cmd); err != nil {
		return err
	}

	result, err := planner.Draft(ctx, svc, sections, overrides, progress)
	if err != nil {
		return err
	}
	stop()

	if cmd.Bool("json") {
		if err := r.writeJSON(svc, true); err != nil {
			return err
		}
	} else {
		data, err := formatter.ExportToText(svc, formatter.Options{})
		if err != nil {
			return err
		}
		r.writePlain("\n%s", data)
	}

	for _, f := range result.Failures {
		r.writePlain("%s %s left blank: %s\n", ui.Fail("✗"), f.Section.Title(), shared.Describe(f.Err))
	}

	if cmd.Bool("save") {
		id, err := r.archive().Save(ctx, svc)
		if err != nil {
			return err
		}
		r.writePlain("%s Saved %s as %s\n", ui.OK("✓"), svc.Title(), id)
	}

	if cmd.Bool("record") {
		hymns := svc.Hymns.Hymns()
		if err := r.usageTracker().RecordUsage(ctx, hymns, svc.Date); err != nil {
			return err
		}
		numbered := 0
		for _, h := range hymns {
			if h.HasNumber() {
				numbered++
			}
		}
		r.writePlain("%s Recorded %d hymns for %s\n", ui.OK("✓"), numbered, shared.FormatDate(svc.Date))
	}

	if cmd.IsSet("export") {
		path, err := formatter.WriteExport(svc, cmd.String("export"), format, exportOptions(cmd))
		if err != nil {
			return err
		}
		r.writePlain("%s Exported to %s\n", ui.OK("✓"), path)
	}
	return nil
}

// selectHymns fetches the hymns named by --opening, --response and --closing.
func (r *Runner) selectHymns(ctx context.Context, cmd *cli.Command) (models.SelectedHymns, error) {
	var selected models.SelectedHymns
	slots := []struct {
		flag string
		dst  **models.Hymn
	}{
		{"opening", &selected.Opening},
		{"response", &selected.Response},
		{"closing", &selected.Closing},
	}

	for _, slot := range slots {
		id := strings.TrimSpace(cmd.String(slot.flag))
		if id == "" {
			continue
		}
		repo, err := r.requireHymns()
		if err != nil {
			return selected, err
		}
		h, err := repo.GetHymn(ctx, id)
		if err != nil {
			return selected, fmt.Errorf("--%s: %w", slot.flag, err)
		}
		*slot.dst = h
	}
	return selected, nil
}

// parseOverrides reads section=text pairs.
func parseOverrides(pairs []string) (map[models.Section]string, error) {
	out := make(map[models.Section]string, len(pairs))
	for _, pair := range pairs {
		name, text, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: --override %q is not section=text", shared.ErrInvalidFlag, pair)
		}
		section, err := models.ParseSection(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("%w: --override: %v", shared.ErrInvalidFlag, err)
		}
		out[section] = text
	}
	return out, nil
}

func planCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Assemble a service: readings, hymns and drafted liturgy",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "date",
				Usage: "Service date (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "occasion",
				Usage: "Occasion name (default from the lectionary)",
			},
			&cli.StringFlag{
				Name:  "sermon",
				Usage: "Sermon title",
			},
			&cli.StringFlag{
				Name:  "opening",
				Usage: "Catalog id of the opening hymn",
			},
			&cli.StringFlag{
				Name:  "response",
				Usage: "Catalog id of the hymn of response",
			},
			&cli.StringFlag{
				Name:  "closing",
				Usage: "Catalog id of the closing hymn",
			},
			&cli.BoolFlag{
				Name:  "communion",
				Usage: "Include the Lord's Supper",
			},
			&cli.StringSliceFlag{
				Name:  "section",
				Usage: "Liturgy section to draft (repeatable, default all)",
			},
			&cli.StringSliceFlag{
				Name:  "override",
				Usage: "Use section=text verbatim instead of drafting (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "text",
				Usage: "Fetch passage text for the readings before drafting",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the service to the archive",
			},
			&cli.BoolFlag{
				Name:  "record",
				Usage: "Record the selected hymns as sung on --date",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Write the order of service to this file or directory",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the service as JSON",
			},
		}, exportFlags()...),
		Action: r.Plan,
	}
}
