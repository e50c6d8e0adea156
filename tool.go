package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/score"
	"github.com/bigspawn/alter/internal/session"
)

// toolRun describes one non-interactive tool invocation.
type toolRun[E, A any] struct {
	opts    anilist.ListOptions
	tool    session.Tool[E, A]
	actions func(list *anilist.List) ([]A, error)
	// system renders score changes; nil prints raw values.
	system score.System
	// hideChanges skips the per-entry listing.
	hideChanges bool
}

// connectTool builds the app for a tool command and resolves the media type.
func connectTool(ctx context.Context, cmd *cli.Command) (*App, context.Context, anilist.MediaType, error) {
	mediaType, err := anilist.ParseMediaType(cmd.String("type"))
	if err != nil {
		return nil, ctx, "", err
	}

	app, ctx, err := NewApp(ctx, cmd)
	if err != nil {
		return nil, ctx, "", err
	}
	if err := app.Connect(ctx); err != nil {
		return nil, ctx, "", err
	}
	return app, ctx, mediaType, nil
}

func runTool[E, A any](ctx context.Context, app *App, run toolRun[E, A]) error {
	s := session.New(app.client, app.cache, app.saver, run.opts, run.tool)

	app.log.Stage("Fetching %s list...", strings.ToLower(string(run.opts.Type)))
	list, err := s.Load(ctx, false)
	if err != nil {
		return err
	}
	app.log.Debug("%d entries loaded", list.Len())

	actions, err := run.actions(list)
	if err != nil {
		return err
	}
	if err := s.Dispatch(actions...); err != nil {
		return err
	}

	n, err := s.Count()
	if err != nil {
		return err
	}
	if n == 0 {
		app.log.InfoSuccess("Nothing to change")
		return nil
	}

	changes, err := s.Changes()
	if err != nil {
		return err
	}
	if !run.hideChanges {
		printChanges(app.log, list, changes, run.system, app.viewer.TitleLanguage)
	}
	app.log.Info("%d %s to update", n, plural(n, "entry", "entries"))

	if app.dryRun {
		app.log.Info("Dry run, nothing saved")
		return nil
	}
	if !app.yes && !confirm(app.in, app.out, fmt.Sprintf("Save %d %s?", n, plural(n, "change", "changes"))) {
		app.log.Warn("Aborted, nothing saved")
		return nil
	}

	app.log.Stage("Saving...")
	report, err := s.Save(ctx)
	if err != nil {
		var saveErr *anilist.SaveError
		if errors.As(err, &saveErr) && saveErr.Applied > 0 {
			app.log.Warn("%d of %d requests were applied before the failure", saveErr.Applied, saveErr.Total)
		}
		return err
	}

	printReport(app.log, report)
	return nil
}

// parseIDs reads entry ids given as repeated flags or comma separated lists.
func parseIDs(values []string) ([]int, error) {
	var ids []int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid entry id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseAssignments reads id=value pairs.
func parseAssignments(values []string) ([]assignment, error) {
	out := make([]assignment, 0, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("expected id=value, got %q", v)
		}
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("invalid entry id %q", key)
		}
		out = append(out, assignment{ID: id, Value: value})
	}
	return out, nil
}

type assignment struct {
	ID    int
	Value string
}
