package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/bigspawn/alter/internal/auth"
	"github.com/bigspawn/alter/internal/score"
)

func newStatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Check authentication status",
		Action: runStatus,
	}
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	app, ctx, err := NewApp(ctx, cmd)
	if err != nil {
		return err
	}

	app.log.Stage("Authentication Status")

	token, err := app.token()
	if err != nil {
		app.log.Info("AniList:      Not authenticated")
		app.log.Info("Token file:   %s", app.store.Path())
		return nil
	}

	exp, hasExpiry, err := auth.Expiry(token)
	switch {
	case err != nil:
		app.log.Warn("AniList:      Unreadable token (%v)", err)
	case !hasExpiry:
		app.log.Info("AniList:      Authenticated (no expiry)")
	case !app.now().Before(exp):
		app.log.Warn("AniList:      Token expired on %s", exp.Format(time.DateOnly))
	default:
		app.log.Info("AniList:      Authenticated (expires %s)", exp.Format(time.DateOnly))
	}
	if id, err := auth.UserID(token); err == nil {
		app.log.Debug("Token user id: %d", id)
	}

	if err == nil && (!hasExpiry || app.now().Before(exp)) {
		if err := app.Connect(ctx); err != nil {
			app.log.Warn("Viewer:       %v", err)
		} else {
			app.log.Info("Viewer:       %s (%d)", app.viewer.Name, app.viewer.ID)
			app.log.Info("Score format: %s", score.Name(app.viewer.ScoreFormat))
		}
	}

	app.log.Info("Token file:   %s", app.store.Path())
	return nil
}
