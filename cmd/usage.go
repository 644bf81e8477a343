package main

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/desertthunder/hymnal/internal/ui"
	"github.com/urfave/cli/v3"
)

// UsageRecord logs the given catalog hymns as sung on --date.
func (r *Runner) UsageRecord(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("hymn")
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one --hymn id", shared.ErrMissingArgument)
	}
	date, err := dateFlag(cmd, "date", r.today())
	if err != nil {
		return err
	}

	repo, err := r.requireHymns()
	if err != nil {
		return err
	}

	hymns := make([]models.Hymn, 0, len(ids))
	for _, id := range ids {
		h, err := repo.GetHymn(ctx, id)
		if err != nil {
			return err
		}
		if !h.HasNumber() {
			r.writePlain("%s %s has no hymnal number and is not tracked\n", ui.Warn("!"), h.Title)
		}
		hymns = append(hymns, *h)
	}

	if err := r.usageTracker().RecordUsage(ctx, hymns, date); err != nil {
		return err
	}

	for _, h := range hymns {
		if h.HasNumber() {
			r.writePlain("%s %s sung %s\n", ui.OK("✓"), h.Label(), shared.FormatDate(date))
		}
	}
	return nil
}

// UsageCheck reports whether a hymn number falls inside the exclusion window.
func (r *Runner) UsageCheck(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("number")
	if raw == "" {
		return fmt.Errorf("%w: hymn number", shared.ErrMissingArgument)
	}
	number, err := strconv.Atoi(raw)
	if err != nil || number <= 0 {
		return fmt.Errorf("%w: hymn number %q", shared.ErrInvalidArgument, raw)
	}

	asOf, weeks, err := r.windowFlags(cmd)
	if err != nil {
		return err
	}

	used, err := r.usageTracker().UsedWithin(ctx, number, asOf, weeks)
	if err != nil {
		return err
	}

	if used {
		r.writePlain("%s #%d was sung in the %d weeks before %s\n", ui.Fail("✗"), number, weeks, shared.FormatDate(asOf))
	} else {
		r.writePlain("%s #%d is available for %s\n", ui.OK("✓"), number, shared.FormatDate(asOf))
	}
	return nil
}

// UsageExcluded lists the hymns held back from suggestions.
func (r *Runner) UsageExcluded(ctx context.Context, cmd *cli.Command) error {
	asOf, weeks, err := r.windowFlags(cmd)
	if err != nil {
		return err
	}

	records, err := r.usageTracker().Window(ctx, asOf, weeks)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	r.writePlainHeader(fmt.Sprintf("Sung in the %d weeks before %s", weeks, shared.FormatDate(asOf)))
	if len(records) == 0 {
		r.writePlainln("Nothing recorded.")
		return nil
	}

	slices.SortStableFunc(records, func(a, b models.UsageRecord) int {
		if c := b.DateUsed.Compare(a.DateUsed); c != 0 {
			return c
		}
		return cmp.Compare(a.HymnNumber, b.HymnNumber)
	})
	for _, rec := range records {
		r.writePlain("%s  #%-4d %s\n", shared.FormatDate(rec.DateUsed), rec.HymnNumber, rec.HymnTitle)
	}
	return nil
}

func (r *Runner) windowFlags(cmd *cli.Command) (time.Time, int, error) {
	asOf, err := dateFlag(cmd, "as-of", r.today())
	if err != nil {
		return time.Time{}, 0, err
	}
	weeks, err := intFlag(cmd, "weeks", r.config.Planning.ExclusionWeeks)
	if err != nil {
		return time.Time{}, 0, err
	}
	return asOf, weeks, nil
}

func windowFlagSet() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "as-of",
			Usage: "End of the window, exclusive (default today)",
		},
		&cli.IntFlag{
			Name:  "weeks",
			Usage: "Window length in weeks (default from config)",
		},
	}
}

func usageCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Record sung hymns and inspect the exclusion window",
		Commands: []*cli.Command{
			{
				Name:  "record",
				Usage: "Record hymns sung on a date",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "date",
						Usage: "Service date (default today)",
					},
					&cli.StringSliceFlag{
						Name:  "hymn",
						Usage: "Catalog id of a sung hymn (repeatable)",
					},
				},
				Action: r.UsageRecord,
			},
			{
				Name:  "check",
				Usage: "Check whether a hymn number was sung recently",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "number"},
				},
				Flags:  windowFlagSet(),
				Action: r.UsageCheck,
			},
			{
				Name:  "excluded",
				Usage: "List hymns inside the exclusion window",
				Flags: append(windowFlagSet(), &cli.BoolFlag{
					Name:  "json",
					Usage: "Output raw JSON",
				}),
				Action: r.UsageExcluded,
			},
		},
	}
}
