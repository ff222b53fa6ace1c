package ui

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ephemvid/ephemvid-client/internal/notify"
)

//go:embed icon.png
var iconBytes []byte

// Poller is the pausable roster poller.
type Poller interface {
	Pause()
	Resume()
	IsPaused() bool
}

type Tray struct {
	poller Poller
	logger *slog.Logger

	statusItem *systray.MenuItem
	videosItem *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu     sync.Mutex
	ready  bool
	status string
	videos int

	onRefresh   func()
	onCopyToken func() error
	onQuit      func()
}

type TrayConfig struct {
	Poller      Poller
	Logger      *slog.Logger
	OnRefresh   func()
	OnCopyToken func() error
	OnQuit      func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		poller:      cfg.Poller,
		logger:      cfg.Logger,
		status:      "Idle",
		onRefresh:   cfg.OnRefresh,
		onCopyToken: cfg.OnCopyToken,
		onQuit:      cfg.OnQuit,
	}
}

// Run blocks until the tray exits. It must be called from the main
// goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("EphemVid")
	systray.SetTooltip("EphemVid agent")

	t.mu.Lock()
	t.statusItem = systray.AddMenuItem("Status: "+t.status, "Last notification")
	t.statusItem.Disable()
	t.videosItem = systray.AddMenuItem(fmt.Sprintf("Videos: %d", t.videos), "Videos on the server")
	t.videosItem.Disable()
	t.ready = true
	t.mu.Unlock()

	systray.AddSeparator()

	refreshItem := systray.AddMenuItem("Refresh", "Reload the video list")
	t.pauseItem = systray.AddMenuItem("Pause polling", "Stop refreshing the video list")
	tokenItem := systray.AddMenuItem("Copy API token", "Copy the local API token to the clipboard")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit EphemVid agent")

	go func() {
		for {
			select {
			case <-refreshItem.ClickedCh:
				if t.onRefresh != nil {
					t.onRefresh()
				}
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-tokenItem.ClickedCh:
				t.handleCopyToken()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.poller == nil {
		return
	}

	if t.poller.IsPaused() {
		t.poller.Resume()
		t.pauseItem.SetTitle("Pause polling")
	} else {
		t.poller.Pause()
		t.pauseItem.SetTitle("Resume polling")
	}
}

func (t *Tray) handleCopyToken() {
	if t.onCopyToken == nil {
		return
	}
	if err := t.onCopyToken(); err != nil {
		t.logger.Error("failed to copy API token", "error", err)
		t.UpdateStatus("Couldn't copy to clipboard")
		return
	}
	t.UpdateStatus("Copied to clipboard")
}

// UpdateStatus shows message in the status line. Calls before the tray is
// ready are remembered and shown once it is.
func (t *Tray) UpdateStatus(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = message
	if t.ready {
		t.statusItem.SetTitle("Status: " + message)
	}
}

func (t *Tray) UpdateVideoCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.videos = count
	if t.ready {
		t.videosItem.SetTitle(fmt.Sprintf("Videos: %d", count))
	}
}

// Reporter mirrors notifications into the status line.
func (t *Tray) Reporter() notify.Reporter {
	return trayReporter{t: t}
}

type trayReporter struct{ t *Tray }

func (r trayReporter) Report(message string, _ notify.Severity) {
	r.t.UpdateStatus(message)
}

func (r trayReporter) Begin(message string) notify.Notification {
	r.t.UpdateStatus(message)
	return trayNotification{t: r.t}
}

type trayNotification struct{ t *Tray }

func (n trayNotification) Resolve(message string, _ notify.Severity) {
	n.t.UpdateStatus(message)
}

func (t *Tray) Quit() {
	systray.Quit()
}
