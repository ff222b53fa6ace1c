package roster

import (
	"context"
	"log/slog"

	"github.com/ephemvid/ephemvid-client/internal/logging"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

const DeletedMessage = "Video deleted"

type Deleter interface {
	Delete(ctx context.Context, id int64) (string, error)
}

// Remover deletes videos on the server and refreshes the roster after a
// successful delete.
type Remover struct {
	deleter  Deleter
	reporter notify.Reporter
	refresh  func()
	logger   *slog.Logger
}

func NewRemover(deleter Deleter, reporter notify.Reporter, refresh func(), logger *slog.Logger) *Remover {
	if refresh == nil {
		refresh = func() {}
	}
	return &Remover{
		deleter:  deleter,
		reporter: reporter,
		refresh:  refresh,
		logger:   logging.WithComponent(logger, "roster"),
	}
}

func (r *Remover) Remove(ctx context.Context, id int64) error {
	if _, err := r.deleter.Delete(ctx, id); err != nil {
		logging.WithVideoID(r.logger, id).Warn("delete failed", "error", err)
		r.reporter.Report(err.Error(), notify.Error)
		return err
	}
	logging.WithVideoID(r.logger, id).Info("video deleted")
	r.reporter.Report(DeletedMessage, notify.Success)
	r.refresh()
	return nil
}
