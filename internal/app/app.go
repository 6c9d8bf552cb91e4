// Package app wires the job board client together: configuration, logging,
// the local store, the API client and the state stores built on it.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/aussiebroadwan/jobboard/internal/guard"
	"github.com/aussiebroadwan/jobboard/internal/jobs"
	"github.com/aussiebroadwan/jobboard/internal/localstore"
	"github.com/aussiebroadwan/jobboard/internal/session"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/cryptox"
	"github.com/aussiebroadwan/jobboard/pkg/httpx"
	"github.com/aussiebroadwan/jobboard/pkg/slogx"
)

// BuildVersion is overridden at build time with
// -ldflags "-X github.com/aussiebroadwan/jobboard/internal/app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application holds everything a command needs.
type Application struct {
	Config Config
	Logger *slog.Logger

	Local   *localstore.Store
	Jar     *localstore.CookieJar
	Client  *boardsdk.Client
	Session *session.Store
	Jobs    *jobs.Store
	Guard   *guard.Guard
}

// Option customises New.
type Option func(*options)

type options struct {
	logOutput io.Writer
}

// WithLogOutput sends logs somewhere other than stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// New opens the local store, restores the persisted session cookies and
// builds the API client and stores. Call Close when done.
func New(ctx context.Context, cfg Config, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{
		Config: cfg,
		Logger: slogx.New(slogx.Config{
			Service: "jobboard",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  o.logOutput,
		}),
	}

	if err := app.initLocalStore(ctx); err != nil {
		return nil, err
	}

	if err := app.initClient(ctx); err != nil {
		_ = app.Local.Close()
		return nil, err
	}

	app.Session = session.NewStore(app.Client, app.Logger.With("store", "session"))
	app.Jobs = jobs.NewStore(app.Client, app.Logger.With("store", "jobs"))
	app.Guard = guard.New(app.Session, guard.WithLogger(app.Logger))

	return app, nil
}

// initLocalStore opens the database with a sealer derived from the master key.
func (app *Application) initLocalStore(ctx context.Context) error {
	key, err := cryptox.LoadOrCreateMasterKey(app.Config.MasterKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}

	sealer, err := cryptox.NewSealer(key)
	if err != nil {
		return fmt.Errorf("failed to create sealer: %w", err)
	}

	local, err := localstore.Open(ctx, app.Config.DataFile, sealer)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	app.Local = local

	app.Logger.Debug("local store ready", "path", app.Config.DataFile)
	return nil
}

// initClient builds the API client over a persistent cookie jar and a
// logging, rate limited transport.
func (app *Application) initClient(ctx context.Context) error {
	base, err := url.Parse(app.Config.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}

	jar, err := localstore.NewCookieJar(ctx, app.Local, base, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to restore cookies: %w", err)
	}
	app.Jar = jar

	transport := slogx.NewTransport(
		httpx.NewLimitedTransport(nil, app.Config.RateLimit),
		app.Logger,
	)

	app.Client = boardsdk.NewClient(app.Config.APIURL,
		boardsdk.WithTimeout(app.Config.Timeout),
		boardsdk.WithTransport(transport),
		boardsdk.WithJar(jar),
	)
	return nil
}

// AccessToken returns the raw access cookie, if the jar holds one.
func (app *Application) AccessToken() (string, bool) {
	return app.Jar.Value(app.Config.AccessCookie)
}

// Close releases the stores and the database.
func (app *Application) Close() error {
	if app.Session != nil {
		app.Session.Close()
	}
	if app.Jobs != nil {
		app.Jobs.Close()
	}
	return app.Local.Close()
}
