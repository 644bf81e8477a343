package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/hymnal/internal/formatter"
	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/desertthunder/hymnal/internal/ui"
	"github.com/urfave/cli/v3"
)

// ArchiveList lists archived services, newest first.
func (r *Runner) ArchiveList(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.archive().ListEntries(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d archived services:\n\n", len(entries))
	for i, e := range entries {
		occasion := e.Occasion
		if occasion == "" {
			occasion = "(no occasion)"
		}
		r.writePlain("%d. %s  %s\n", i+1, shared.FormatDate(e.Date), occasion)
		r.writePlain("   ID: %s  saved %s\n", e.ID, e.SavedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// ArchiveShow prints an archived service as an order of service, or as JSON.
func (r *Runner) ArchiveShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: archive id", shared.ErrMissingArgument)
	}

	rec, err := r.archive().Get(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(rec, true)
	}

	data, err := formatter.ExportToText(&rec.Service, formatter.Options{})
	if err != nil {
		return err
	}
	r.writePlain("%s\n", ui.Help(fmt.Sprintf("Archived %s (%s)", rec.SavedAt.Local().Format("2006-01-02 15:04"), rec.ID)))
	r.writePlain("\n%s", data)
	return nil
}

// ArchiveExport writes an archived service to a Markdown or text file.
func (r *Runner) ArchiveExport(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: archive id", shared.ErrMissingArgument)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	rec, err := r.archive().Get(ctx, id)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(&rec.Service, cmd.String("output"), format, exportOptions(cmd))
	if err != nil {
		return err
	}

	r.logger.Info("exported service", "id", id, "path", path)
	r.writePlain("%s Exported %s to %s\n", ui.OK("✓"), rec.Service.Title(), path)
	return nil
}

func exportOptions(cmd *cli.Command) formatter.Options {
	if cmd.Bool("secretary") {
		return formatter.SecretaryCopy
	}
	return formatter.Options{}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "format",
			Usage: "Export format: md or txt",
			Value: "md",
		},
		&cli.BoolFlag{
			Name:  "secretary",
			Usage: "Omit the sermon title and prayers of the people",
		},
	}
}

func archiveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Browse and export saved services",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List archived services",
				Flags:  outputFlags(),
				Action: r.ArchiveList,
			},
			{
				Name:  "show",
				Usage: "Show an archived service",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ArchiveShow,
			},
			{
				Name:  "export",
				Usage: "Export an archived service as an order of service",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: append(exportFlags(), &cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "Output file or directory (default current directory)",
				}),
				Action: r.ArchiveExport,
			},
		},
	}
}
