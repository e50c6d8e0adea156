package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/bigspawn/alter/internal/auth"
)

func newLogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Remove the stored access token",
		Action: runLogout,
	}
}

func runLogout(ctx context.Context, cmd *cli.Command) error {
	app, _, err := NewApp(ctx, cmd)
	if err != nil {
		return err
	}

	if _, err := app.store.Load(); errors.Is(err, auth.ErrNoToken) {
		app.log.Info("Not logged in")
		return nil
	}

	if err := app.store.Delete(); err != nil {
		return err
	}
	app.log.InfoSuccess("Logged out")
	return nil
}
