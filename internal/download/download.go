// Package download saves server-side renditions of a video (another
// container format or an animated GIF) to a local directory.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/ephemvid/ephemvid-client/internal/backend"
	"github.com/ephemvid/ephemvid-client/internal/identity"
	"github.com/ephemvid/ephemvid-client/internal/logging"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

// FailureMessage is reported when the backend refuses a download.
const FailureMessage = "Something went wrong"

type Fetcher interface {
	Download(ctx context.Context, format, filename string) (io.ReadCloser, error)
	DownloadGIF(ctx context.Context, filename string) (io.ReadCloser, error)
}

type Saver struct {
	fetcher  Fetcher
	gate     identity.Gate
	reporter notify.Reporter
	logger   *slog.Logger
}

func NewSaver(fetcher Fetcher, gate identity.Gate, reporter notify.Reporter, logger *slog.Logger) *Saver {
	return &Saver{
		fetcher:  fetcher,
		gate:     gate,
		reporter: reporter,
		logger:   logging.WithComponent(logger, "download"),
	}
}

// GIF saves the animated GIF rendition of filename into dir and returns the
// written path.
func (s *Saver) GIF(ctx context.Context, filename, dir string) (string, error) {
	return s.save(ctx, "gif", filename, dir, func(ctx context.Context) (io.ReadCloser, error) {
		return s.fetcher.DownloadGIF(ctx, filename)
	})
}

// Rendition saves filename converted to format into dir.
func (s *Saver) Rendition(ctx context.Context, format, filename, dir string) (string, error) {
	return s.save(ctx, format, filename, dir, func(ctx context.Context) (io.ReadCloser, error) {
		return s.fetcher.Download(ctx, format, filename)
	})
}

func (s *Saver) save(ctx context.Context, format, filename, dir string, fetch func(context.Context) (io.ReadCloser, error)) (string, error) {
	if err := ValidateOutputDir(dir); err != nil {
		s.reporter.Report(err.Error(), notify.Error)
		return "", err
	}

	if err := s.gate.Ensure(ctx); err != nil {
		err = fmt.Errorf("identity: %w", err)
		s.reporter.Report(err.Error(), notify.Error)
		return "", err
	}

	body, err := fetch(ctx)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			s.reporter.Report(FailureMessage, notify.Error)
		} else {
			s.reporter.Report(err.Error(), notify.Error)
		}
		s.logger.Warn("download failed", "format", format, "filename", filename, "error", err)
		return "", err
	}
	defer body.Close()

	target := filepath.Join(dir, TargetName(filename, format))
	n, err := writeAtomic(dir, target, body)
	if err != nil {
		s.reporter.Report(err.Error(), notify.Error)
		return "", err
	}

	s.logger.Info("rendition saved",
		"format", format,
		"path", logging.SanitizePath(target),
		"size", humanize.Bytes(uint64(n)),
	)
	s.reporter.Report(format+" downloaded successfully", notify.Success)
	return target, nil
}

// writeAtomic streams r into a temporary file in dir and renames it to
// target once complete, so a failed transfer leaves nothing behind.
func writeAtomic(dir, target string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(dir, ".ephemvid-download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("write %s: %w", filepath.Base(target), err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("save %s: %w", filepath.Base(target), err)
	}
	return n, nil
}
