package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/pflag"

	"github.com/ephemvid/ephemvid-client/internal/api"
	"github.com/ephemvid/ephemvid-client/internal/composer"
	"github.com/ephemvid/ephemvid-client/internal/config"
	"github.com/ephemvid/ephemvid-client/internal/identity"
	"github.com/ephemvid/ephemvid-client/internal/logging"
	"github.com/ephemvid/ephemvid-client/internal/media"
	"github.com/ephemvid/ephemvid-client/internal/roster"
	"github.com/ephemvid/ephemvid-client/internal/ui"
	"github.com/ephemvid/ephemvid-client/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func runAgent(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	startTime := time.Now()
	logger := a.logger

	token, err := identity.EnsureAPIToken(ctx, a.store)
	if err != nil {
		return fmt.Errorf("failed to ensure API token: %w", err)
	}

	logger.Info("starting ephemvid agent",
		"version", config.Version,
		"data_dir", logging.SanitizePath(a.cfg.DataDir()),
		"token", logging.SanitizeToken(token),
	)

	fmt.Println()
	fmt.Println("EPHEMVID AGENT v" + config.Version)
	fmt.Printf("  API URL:   http://127.0.0.1:%d\n", a.cfg.Port())
	fmt.Printf("  API token: %s\n", token)
	fmt.Println()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	poller := roster.NewPoller(a.roster, a.cfg.PollInterval(), logger)

	var quitOnce sync.Once
	quit := func() { quitOnce.Do(cancel) }

	var tray *ui.Tray
	if a.cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray = ui.NewTray(ui.TrayConfig{
			Poller:    poller,
			Logger:    logging.WithComponent(logger, "tray"),
			OnRefresh: a.roster.Signal(),
			OnCopyToken: func() error {
				return clipboard.WriteAll(token)
			},
			OnQuit: quit,
		})
		a.addReporter(tray.Reporter())
		unsubscribe := a.roster.Subscribe(func(videos []media.VideoRecord) {
			tray.UpdateVideoCount(len(videos))
		})
		defer unsubscribe()
	}

	if err := a.roster.Refresh(ctx); err != nil {
		logger.Warn("initial roster refresh failed", "error", err)
	}
	go poller.Start(ctx)

	if dir := a.cfg.DropDir(); dir != "" {
		w := watcher.NewFSWatcher(watcher.DefaultSettle, logging.WithComponent(logger, "watcher"))
		w.OnChange(func(path string, event watcher.EventType) {
			if event != watcher.EventCreate {
				return
			}
			logger.Info("file dropped", "path", logging.SanitizePath(path))
			a.dropZone.Drop(ctx, []string{path})
		})
		if err := w.Watch(ctx, dir); err != nil {
			return fmt.Errorf("failed to watch drop folder: %w", err)
		}
		defer w.Stop()
	}

	server := api.NewServer(api.ServerConfig{
		Port:    a.cfg.Port(),
		Token:   token,
		Version: config.Version,
		Roster:  a.roster,
		Uploads: a.dropZone,
		Remover: a.remover,
		Compose: func(video media.VideoRecord) *composer.Composer {
			return a.compose(video, composer.Bounds{}, nil)
		},
		FileURL:       a.client.FileURL,
		Notifications: a.memory,
		Logger:        logging.WithComponent(logger, "api"),
		StartTime:     startTime,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	if tray != nil {
		go tray.Run()
	}

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server error", "error", err)
			return err
		}
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	if tray != nil {
		tray.Quit()
	}

	logger.Info("shutdown complete")
	return nil
}
