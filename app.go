package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/auth"
	"github.com/bigspawn/alter/internal/cache"
	"github.com/bigspawn/alter/internal/config"
	"github.com/bigspawn/alter/internal/logger"
)

// App is the application context shared by every command.
type App struct {
	config config.Config
	log    *logger.Logger
	store  *auth.Store
	cache  cache.Store[*anilist.List]

	client anilist.Requester
	saver  *anilist.Saver
	viewer *anilist.Viewer

	dryRun bool
	yes    bool

	in  io.Reader
	out io.Writer
	now func() time.Time
}

// NewApp loads the configuration and logger. It does not touch the network.
func NewApp(ctx context.Context, cmd *cli.Command) (*App, context.Context, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, ctx, fmt.Errorf("error loading config: %w", err)
	}

	log := logger.New(cmd.Bool("verbose"))

	app := &App{
		config: cfg,
		log:    log,
		store:  auth.NewStore(cfg.TokenFilePath),
		cache:  cache.NewMemory[*anilist.List](0),
		dryRun: cmd.Bool("dry-run"),
		yes:    cmd.Bool("yes"),
		in:     os.Stdin,
		out:    os.Stdout,
		now:    time.Now,
	}
	return app, log.WithContext(ctx), nil
}

// token returns the access token from the environment or the token file.
func (a *App) token() (string, error) {
	if a.config.Token != "" {
		return a.config.Token, nil
	}
	return a.store.Load()
}

// Connect authenticates and fetches the viewer.
func (a *App) Connect(ctx context.Context) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	if err := auth.Valid(token, a.now()); err != nil {
		return err
	}

	if a.client == nil {
		a.client = anilist.NewClient(a.httpClient(token), a.config.Anilist.APIURL)
	}
	a.saver = anilist.NewSaver(a.client,
		anilist.WithChunkSize(a.config.Batch.ChunkSize),
		anilist.WithDelay(a.config.Batch.DelayThreshold, a.config.Batch.Delay),
	)

	viewer, err := anilist.GetViewer(ctx, a.client)
	if err != nil {
		var apiErr *anilist.APIError
		if errors.As(err, &apiErr) && apiErr.Kind() == anilist.KindUnauthorized {
			return fmt.Errorf("%w (run `alter login` again)", err)
		}
		return err
	}
	a.viewer = viewer
	a.log.Debug("Logged in as %s (%d), score format %s", viewer.Name, viewer.ID, viewer.ScoreFormat)

	return nil
}

func (a *App) httpClient(token string) *http.Client {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &http.Client{
		Timeout: a.config.HTTP.Timeout,
		Transport: &oauth2.Transport{
			Source: source,
			Base:   newLoggingRoundTripper(http.DefaultTransport),
		},
	}
}
