package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/session"
	"github.com/bigspawn/alter/internal/tools/noter"
)

func newNoterCommand() *cli.Command {
	return &cli.Command{
		Name:  "noter",
		Usage: "Edit notes by hand or with find and replace",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "find", Usage: "regular expression to search notes for"},
			&cli.StringFlag{Name: "flags", Usage: "regular expression flags (g, i, m, s)", Value: noter.DefaultFlags},
			&cli.StringFlag{Name: "replace", Usage: "replacement template ($1, $<name>, $&, $$)"},
			&cli.BoolFlag{Name: "script", Usage: "treat --replace as an expression evaluated per match"},
			&cli.StringSliceFlag{Name: "only", Usage: "only replace in these entry ids"},
			&cli.StringSliceFlag{Name: "set", Usage: "set a note, as entry-id=text (repeatable)"},
		},
		Action: runNoter,
	}
}

func runNoter(ctx context.Context, cmd *cli.Command) error {
	actions, replacer, err := noterActions(cmd)
	if err != nil {
		return err
	}

	app, ctx, mediaType, err := connectTool(ctx, cmd)
	if err != nil {
		return err
	}

	tool := noter.Tool{Replacer: replacer}
	return runTool(ctx, app, toolRun[noter.Entry, noter.Action]{
		opts: noter.ListOptions(app.viewer.ID, mediaType),
		tool: session.Tool[noter.Entry, noter.Action]{
			Reduce:  tool.Reduce,
			Count:   noter.Count,
			Changes: noter.Changes,
		},
		actions: func(*anilist.List) ([]noter.Action, error) { return actions, nil },
	})
}

func noterActions(cmd *cli.Command) ([]noter.Action, *noter.Replacer, error) {
	var (
		actions  []noter.Action
		replacer *noter.Replacer
	)

	sets, err := parseAssignments(cmd.StringSlice("set"))
	if err != nil {
		return nil, nil, err
	}
	for _, s := range sets {
		notes := strings.ReplaceAll(s.Value, `\n`, "\n")
		actions = append(actions, noter.Update{ID: s.ID, Notes: &notes})
	}

	if find := cmd.String("find"); find != "" {
		replacer, err = noter.NewReplacer(noter.Settings{
			Find:    find,
			Flags:   cmd.String("flags"),
			Replace: cmd.String("replace"),
			Script:  cmd.Bool("script"),
		})
		if err != nil {
			return nil, nil, err
		}

		only, err := parseIDs(cmd.StringSlice("only"))
		if err != nil {
			return nil, nil, err
		}
		if len(only) == 0 {
			actions = append(actions, noter.ReplaceAll{})
		}
		for _, id := range only {
			actions = append(actions, noter.Replace{ID: id})
		}
	}

	if len(actions) == 0 {
		return nil, nil, fmt.Errorf("nothing to do: pass --find or --set")
	}
	return actions, replacer, nil
}
