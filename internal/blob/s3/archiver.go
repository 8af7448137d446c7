package s3blob

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// Archiver periodically uploads the ledger file so the equity history
// survives loss of the host. Uploads are full-file snapshots keyed by
// timestamp; the ledger file itself is never touched.
type Archiver struct {
	writer   domain.BlobWriter
	path     string
	instance int
	asset    string
	interval time.Duration
	logger   *slog.Logger
}

// NewArchiver creates an Archiver for the ledger file at path.
func NewArchiver(writer domain.BlobWriter, path string, instance int, asset string, interval time.Duration, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer:   writer,
		path:     path,
		instance: instance,
		asset:    asset,
		interval: interval,
		logger:   logger.With(slog.String("component", "archiver")),
	}
}

// RunLoop uploads the ledger on every interval until the context is
// cancelled. Upload failures are logged and retried on the next interval.
func (a *Archiver) RunLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.ArchiveOnce(ctx); err != nil {
				a.logger.ErrorContext(ctx, "ledger archive failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// ArchiveOnce uploads the current ledger file as one timestamped object. A
// missing ledger file (no samples recorded yet) is not an error.
func (a *Archiver) ArchiveOnce(ctx context.Context) error {
	f, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("s3blob: open ledger %s: %w", a.path, err)
	}
	defer f.Close()

	key := fmt.Sprintf("equity/%d/%s/%s.jsonl",
		a.instance, a.asset, time.Now().UTC().Format("20060102T150405Z"))

	if err := a.writer.Put(ctx, key, f, "application/x-ndjson"); err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "ledger archived", slog.String("key", key))
	return nil
}
