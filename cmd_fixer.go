package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/fuzzydate"
	"github.com/bigspawn/alter/internal/session"
	"github.com/bigspawn/alter/internal/tools/fixer"
)

// fixNames maps --skip values to the fix they turn off.
var fixNames = map[string]func(*fixer.Fixes){
	"status":        func(f *fixer.Fixes) { f.InvalidStatus = false },
	"progress":      func(f *fixer.Fixes) { f.InvalidProgress = false },
	"start":         func(f *fixer.Fixes) { f.InvalidStartDate = false },
	"end":           func(f *fixer.Fixes) { f.InvalidEndDate = false },
	"missing-start": func(f *fixer.Fixes) { f.MissingStartDate = false },
	"missing-end":   func(f *fixer.Fixes) { f.MissingEndDate = false },
}

func newFixerCommand() *cli.Command {
	return &cli.Command{
		Name:  "fixer",
		Usage: "Fix inconsistent statuses, progress and dates",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "skip",
				Usage: "fixes to turn off: status, progress, start, end, missing-start, missing-end",
			},
			&cli.StringSliceFlag{Name: "only", Usage: "only check these entry ids"},
			&cli.StringSliceFlag{Name: "exclude", Usage: "leave these entry ids alone"},
			&cli.StringSliceFlag{Name: "started", Usage: "set a start date, as entry-id=YYYY-MM-DD or entry-id=none"},
			&cli.StringSliceFlag{Name: "completed", Usage: "set a completion date, as entry-id=YYYY-MM-DD or entry-id=none"},
		},
		Action: runFixer,
	}
}

func runFixer(ctx context.Context, cmd *cli.Command) error {
	fixes, err := parseFixes(cmd.StringSlice("skip"))
	if err != nil {
		return err
	}
	actions, err := fixerActions(cmd)
	if err != nil {
		return err
	}

	app, ctx, mediaType, err := connectTool(ctx, cmd)
	if err != nil {
		return err
	}

	tool := fixer.Tool{Fixes: fixes}
	return runTool(ctx, app, toolRun[fixer.Entry, fixer.Action]{
		opts: fixer.ListOptions(app.viewer.ID, mediaType),
		tool: session.Tool[fixer.Entry, fixer.Action]{
			Reduce:  tool.Reduce,
			Count:   fixer.Count,
			Changes: fixer.Changes,
		},
		actions: func(*anilist.List) ([]fixer.Action, error) { return actions, nil },
	})
}

func parseFixes(skip []string) (fixer.Fixes, error) {
	fixes := fixer.AllFixes()
	for _, v := range skip {
		for _, name := range strings.Split(v, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			off, ok := fixNames[name]
			if !ok {
				return fixes, fmt.Errorf("unknown fix %q", name)
			}
			off(&fixes)
		}
	}
	return fixes, nil
}

// fixerActions orders recommendations before exclusions and manual dates so
// the latter win.
func fixerActions(cmd *cli.Command) ([]fixer.Action, error) {
	var actions []fixer.Action

	only, err := parseIDs(cmd.StringSlice("only"))
	if err != nil {
		return nil, err
	}
	if len(only) == 0 {
		actions = append(actions, fixer.UpdateRecommendedAll{})
	}
	for _, id := range only {
		actions = append(actions, fixer.UpdateRecommended{ID: id})
	}

	excluded, err := parseIDs(cmd.StringSlice("exclude"))
	if err != nil {
		return nil, err
	}
	exclude := true
	for _, id := range excluded {
		actions = append(actions, fixer.Exclude{ID: id, Exclude: &exclude})
	}

	for _, field := range []struct {
		flag  string
		field fixer.DateField
	}{{"started", fixer.StartedAt}, {"completed", fixer.CompletedAt}} {
		dates, err := parseAssignments(cmd.StringSlice(field.flag))
		if err != nil {
			return nil, err
		}
		for _, d := range dates {
			value, err := parseDateValue(d.Value)
			if err != nil {
				return nil, err
			}
			actions = append(actions, fixer.Update{ID: d.ID, Field: field.field, Value: &value})
		}
	}

	return actions, nil
}

func parseDateValue(s string) (fuzzydate.Value, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "none") || s == "" {
		return fuzzydate.Cleared(), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return fuzzydate.Value{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or none", s)
	}
	return fuzzydate.Day(t), nil
}
