package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/desertthunder/hymnal/internal/ui"
	"github.com/urfave/cli/v3"
)

// Lectionary prints the occasion and readings for the Sunday on or before the given date.
func (r *Runner) Lectionary(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("date")
	date := r.today()
	if raw != "" {
		d, err := shared.ParseDate(raw)
		if err != nil {
			return fmt.Errorf("%w: date: %v", shared.ErrInvalidArgument, err)
		}
		date = d
	}

	r.logger.Info("looking up lectionary", "date", shared.FormatDate(date))
	day, err := r.lectionary.Lookup(ctx, date)
	if err != nil {
		return err
	}

	if cmd.Bool("text") {
		svc := &models.Service{Date: day.Date, Readings: slices.Clone(day.Readings)}
		progress, stop := r.watchProgress()
		err := r.planner().FetchPassages(ctx, svc, progress)
		stop()
		if err != nil {
			r.writePlain("%s some passages could not be fetched: %v\n", ui.Warn("!"), err)
		}
		day.Readings = svc.Readings
	}

	if cmd.Bool("json") {
		return r.writeJSON(day, true)
	}

	r.writePlainHeader(day.Occasion)
	r.writePlain("%s\n\n", shared.DisplayDate(day.Date))
	for _, reading := range day.Readings {
		r.writePlain("%-15s %s\n", reading.Label.Title()+":", reading.Reference)
		if reading.Text != "" {
			r.writePlain("\n%s\n\n", reading.Text)
		}
	}
	return nil
}

func lectionaryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lectionary",
		Usage: "Show the Revised Common Lectionary readings for a date (default today)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "date"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "text",
				Usage: "Fetch the passage text of each reading",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Lectionary,
	}
}
