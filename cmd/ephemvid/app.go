package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ephemvid/ephemvid-client/internal/backend"
	"github.com/ephemvid/ephemvid-client/internal/composer"
	"github.com/ephemvid/ephemvid-client/internal/config"
	"github.com/ephemvid/ephemvid-client/internal/db"
	"github.com/ephemvid/ephemvid-client/internal/download"
	"github.com/ephemvid/ephemvid-client/internal/identity"
	"github.com/ephemvid/ephemvid-client/internal/ingest"
	"github.com/ephemvid/ephemvid-client/internal/media"
	"github.com/ephemvid/ephemvid-client/internal/notify"
	"github.com/ephemvid/ephemvid-client/internal/roster"
)

// app wires the components shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	database *db.DB
	store    *identity.SQLiteStore
	client   *backend.HTTPClient
	gate     *identity.FingerprintGate
	reporter *notify.Multi
	memory   *notify.Memory
	roster   *roster.Coordinator
	remover  *roster.Remover
	pipeline *ingest.Pipeline
	dropZone *ingest.DropZone
	saver    *download.Saver
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store := identity.NewStore(database.Conn())

	client, err := backend.NewHTTPClient(cfg.BaseURL(), logger)
	if err != nil {
		database.Close()
		return nil, err
	}

	gate, err := identity.NewFingerprintGate(store, client.Jar(), cfg.BaseURL(), cfg.IdentityTTL(), logger)
	if err != nil {
		database.Close()
		return nil, err
	}

	memory := notify.NewMemory(100)
	reporter := &notify.Multi{notify.NewConsole(os.Stdout), notify.NewLog(logger), memory}

	coordinator := roster.NewCoordinator(client, gate, reporter, logger)
	refresh := coordinator.Signal()

	pipeline := ingest.NewPipeline(ingest.Config{
		Uploader: client,
		Gate:     gate,
		Policy:   media.NewPolicy(cfg.MaxBatchFiles(), cfg.MaxFileBytes(), cfg.AllowedTypes()),
		Reporter: reporter,
		Refresh:  refresh,
		Logger:   logger,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		database: database,
		store:    store,
		client:   client,
		gate:     gate,
		reporter: reporter,
		memory:   memory,
		roster:   coordinator,
		remover:  roster.NewRemover(client, reporter, refresh, logger),
		pipeline: pipeline,
		dropZone: ingest.NewDropZone(pipeline, reporter),
		saver:    download.NewSaver(client, gate, reporter, logger),
	}, nil
}

// compose opens a composer for video with this app's collaborators.
func (a *app) compose(video media.VideoRecord, bounds composer.Bounds, loading composer.LoadingObserver) *composer.Composer {
	return composer.Open(video, bounds, nil, composer.Deps{
		Editor:   a.client,
		Reporter: a.reporter,
		Loading:  loading,
		Refresh:  a.roster.Signal(),
		Logger:   a.logger,
	})
}

// addReporter fans notifications out to r as well. It must be called before
// any component starts reporting.
func (a *app) addReporter(r notify.Reporter) {
	*a.reporter = append(*a.reporter, r)
}

func (a *app) requireTerms(ctx context.Context) error {
	return identity.RequireTerms(ctx, a.store)
}

// Close waits for outstanding roster refreshes, then releases the database.
func (a *app) Close() error {
	a.roster.Wait()
	return a.database.Close()
}
