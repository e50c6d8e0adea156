package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/bigspawn/alter/internal/auth"
	"github.com/bigspawn/alter/internal/config"
	"github.com/bigspawn/alter/internal/logger"
)

func newLoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate with AniList",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "token",
				Usage: "access token or the URL AniList redirected to (prompted for when missing)",
			},
		},
		Action: runLogin,
	}
}

func runLogin(ctx context.Context, cmd *cli.Command) error {
	app, ctx, err := NewApp(ctx, cmd)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(app.out, "\n%s\n", app.log.Colorize(logger.ColorBold+logger.ColorCyan, "=== AniList Authentication ==="))

	if existing, err := app.store.Load(); err == nil && auth.Valid(existing, app.now()) == nil && cmd.String("token") == "" {
		app.log.InfoSuccess("Already authenticated")
		printNextSteps(app)
		return nil
	}

	raw := cmd.String("token")
	if raw == "" {
		if app.config.Anilist.ClientID == "" {
			return fmt.Errorf("anilist.client_id is not configured (set it in the config file or %s)", config.EnvClientID)
		}
		app.log.Info("Open this URL, authorize the app and paste the address you are redirected to:")
		_, _ = fmt.Fprintf(app.out, "\n  %s\n\n> ", auth.AuthorizeURL(app.config.Anilist.ClientID, app.config.Anilist.AuthURL))

		line, err := bufio.NewReader(app.in).ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return errors.New("no token entered")
		}
		raw = line
	}

	token, err := auth.ParseRedirect(raw)
	if err != nil {
		return err
	}
	if err := auth.Valid(token, app.now()); err != nil {
		return err
	}

	app.config.Token = token
	if err := app.Connect(ctx); err != nil {
		return fmt.Errorf("anilist rejected the token: %w", err)
	}
	if err := app.store.Save(token); err != nil {
		return err
	}

	app.log.InfoSuccess("Logged in as %s", app.viewer.Name)
	printNextSteps(app)
	return nil
}

func printNextSteps(app *App) {
	_, _ = fmt.Fprintf(app.out, "\n%s\n", app.log.Colorize(logger.ColorBold+logger.ColorYellow, "Next steps:"))
	_, _ = fmt.Fprintf(app.out, "  Run %s to check authentication status\n", app.log.Colorize(logger.ColorCyan, "alter status"))
	_, _ = fmt.Fprintf(app.out, "  Run %s to preview score changes\n\n", app.log.Colorize(logger.ColorCyan, "alter --dry-run scorer --set <id>=<score>"))
}
