package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/desertthunder/hymnal/internal/tasks"
	"github.com/desertthunder/hymnal/internal/ui"
	"github.com/urfave/cli/v3"
)

type suggestion struct {
	Hymn  models.Hymn `json:"hymn"`
	Score int         `json:"score"`
	Link  string      `json:"link,omitempty"`
}

// Suggest ranks catalog hymns against the readings for --date and any --reading text,
// holding back hymns sung within the exclusion window.
func (r *Runner) Suggest(ctx context.Context, cmd *cli.Command) error {
	extra := cmd.String("reading")
	if !cmd.IsSet("date") && strings.TrimSpace(extra) == "" {
		return fmt.Errorf("%w: --date or --reading", shared.ErrMissingArgument)
	}

	date, err := dateFlag(cmd, "date", r.today())
	if err != nil {
		return err
	}
	asOf, err := dateFlag(cmd, "as-of", date)
	if err != nil {
		return err
	}
	limit, err := intFlag(cmd, "limit", r.config.Planning.SuggestionLimit)
	if err != nil {
		return err
	}
	weeks, err := intFlag(cmd, "weeks", r.config.Planning.ExclusionWeeks)
	if err != nil {
		return err
	}

	repo, err := r.requireHymns()
	if err != nil {
		return err
	}

	var text string
	if cmd.IsSet("date") {
		svc, err := r.planner().Prepare(ctx, date, "", nil)
		if err != nil {
			return err
		}
		if len(svc.Readings) == 0 {
			r.writePlain("%s no lectionary readings found for %s\n", ui.Warn("!"), shared.FormatDate(date))
		}
		text = tasks.SuggestionText(svc.Readings, extra)
	} else {
		text = strings.TrimSpace(extra)
	}

	hymns, err := repo.ListHymns(ctx)
	if err != nil {
		return err
	}

	excluded := map[int]struct{}{}
	if !cmd.Bool("no-exclude") {
		if excluded, err = r.usageTracker().ExcludedSet(ctx, asOf, weeks); err != nil {
			return err
		}
	}

	picked := tasks.Suggest(text, hymns, excluded, limit)
	scores := make(map[string]int, len(picked))
	for _, s := range tasks.ScoreHymns(tasks.Keywords(text), picked, nil) {
		scores[s.Hymn.ID] = s.Score
	}

	results := make([]suggestion, 0, len(picked))
	for _, h := range picked {
		link := h.Link
		if link == "" && h.HasNumber() {
			link = r.hymnary.LinkFor(*h.Number)
		}
		results = append(results, suggestion{Hymn: h, Score: scores[h.ID], Link: link})
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}

	r.writePlainHeader("Hymn suggestions")
	if len(excluded) > 0 {
		r.writePlain("%s\n", ui.Help(fmt.Sprintf("%d hymns sung in the %d weeks before %s were held back", len(excluded), weeks, shared.FormatDate(asOf))))
	}
	if len(results) == 0 {
		r.writePlainln("No hymns matched.")
		return nil
	}
	for i, s := range results {
		r.writePlain("%d. %s  [score %d]\n", i+1, s.Hymn.Label(), s.Score)
		if len(s.Hymn.ScriptureTags) > 0 {
			r.writePlain("   Scripture: %s\n", strings.Join(s.Hymn.ScriptureTags, "; "))
		}
		if s.Link != "" {
			r.writePlain("   %s\n", s.Link)
		}
		r.writePlain("   ID: %s\n", s.Hymn.ID)
	}
	return nil
}

func suggestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Suggest hymns that match the readings for a Sunday",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "date",
				Usage: "Service date (YYYY-MM-DD) whose readings to match",
			},
			&cli.StringFlag{
				Name:  "reading",
				Usage: "Additional scripture or theme text to match",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of suggestions (default from config)",
			},
			&cli.IntFlag{
				Name:  "weeks",
				Usage: "Exclusion window in weeks (default from config)",
			},
			&cli.StringFlag{
				Name:  "as-of",
				Usage: "End of the exclusion window (default --date or today)",
			},
			&cli.BoolFlag{
				Name:  "no-exclude",
				Usage: "Include recently sung hymns",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Suggest,
	}
}
