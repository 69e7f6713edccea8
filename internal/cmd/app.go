package cmd

import (
	"context"

	"github.com/intraworks/workbench/internal/api"
	"github.com/intraworks/workbench/internal/config"
	"github.com/intraworks/workbench/internal/errors"
	"github.com/intraworks/workbench/internal/log"
	"github.com/intraworks/workbench/internal/session"
)

// app bundles the wired subsystems every command needs: configuration,
// logger, API client, and the session store backed by the token cache.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	client *api.Client
	store  *session.Store
}

// newApp loads config, applies flag overrides, and wires the client and
// store. Interactive runs log to a file so the TUI owns the terminal.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}

	logger := log.NewFileLogger(config.Dir(),
		log.ParseLevel(cfg.LogLevel), log.ParseFormat(cfg.LogFormat))
	log.SetDefaultLogger(logger)

	client := api.NewClient(cfg.ServerURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger),
	)

	cache := session.NewFileTokenCache(config.Dir(), logger)
	store := session.NewStore(cache, session.WithStoreLogger(logger))

	return &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		store:  store,
	}, nil
}

// Close releases app resources. Present for symmetry; the log file is
// closed by process exit.
func (a *app) Close() {}

// requireSession runs the startup auth sequence and fails the command
// when no valid session can be established. One-shot commands call this
// before touching the API so token metadata stays honest.
func (a *app) requireSession(ctx context.Context) error {
	if session.Bootstrap(ctx, a.store, a.client, a.logger) {
		return nil
	}
	return errors.NewUnauthorizedError().
		WithSuggestion("Run 'workbench auth login' to sign in")
}
