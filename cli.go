package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/bigspawn/alter/internal/anilist"
)

// NewCLI creates the root command.
func NewCLI() *cli.Command {
	return &cli.Command{
		Name:        "alter",
		Usage:       "Bulk-edit your AniList lists",
		Version:     "1.0.0",
		Description: "Change scores, drop stale entries, fix inconsistent entries and rewrite notes in bulk.",

		// Notes given with --set may contain commas.
		DisableSliceFlagSeparator: true,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "list to edit (anime, manga)",
				Value:   "anime",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "show the changes without saving them",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "save without asking for confirmation",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable verbose logging",
			},
		},
		Commands: []*cli.Command{
			newLoginCommand(),
			newLogoutCommand(),
			newStatusCommand(),
			newScorerCommand(),
			newDropperCommand(),
			newFixerCommand(),
			newNoterCommand(),
		},
	}
}

// RunCLI executes the CLI application.
func RunCLI() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := NewCLI().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		if kind, ok := anilist.KindOf(err); ok && kind == anilist.KindRateLimited {
			fmt.Fprintln(os.Stderr, "AniList is rate limiting requests, wait a minute and try again.")
		}
		return fmt.Errorf("command failed")
	}

	return nil
}
