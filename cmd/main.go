package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatal("application error", "kind", shared.Describe(err), "error", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "hymnal",
		Usage: "Plan Sunday worship: lectionary readings, hymn suggestions and liturgy drafts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Abort the command after this long (e.g. 2m)",
			},
		},
		Version:  "0.1.0",
		Before:   r.Configure,
		After:    r.Close,
		Commands: r.register(),
	}
}
