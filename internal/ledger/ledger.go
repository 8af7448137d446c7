// Package ledger persists the equity history of one instrument as an
// append-only JSONL file. Every hedge adjustment appends one sample; the file
// is replayed on open so per-trade and overall PnL survive restarts.
package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// Ledger is an append-only equity journal for a single instance and asset.
type Ledger struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	file  *os.File
	enc   *json.Encoder
	first *domain.EquitySample
	prev  *domain.EquitySample
	count int
}

// Open creates or reopens the ledger file for the given instance and asset
// under dir, replaying any existing samples to recover the PnL baselines.
func Open(dir string, instance int, asset string, logger *slog.Logger) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ledger: create dir: %w", err)
	}

	name := fmt.Sprintf("equity_%d_%s.jsonl", instance, strings.ToLower(asset))
	path := filepath.Join(dir, name)

	l := &Ledger{
		path:   path,
		logger: logger.With(slog.String("component", "ledger"), slog.String("path", path)),
	}
	if err := l.replay(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	l.file = f
	l.enc = json.NewEncoder(f)

	l.logger.Info("ledger opened", slog.Int("samples", l.count))
	return l, nil
}

// replay reads the existing file, if any, and keeps the first and most recent
// samples as PnL baselines. Malformed lines are skipped with a warning.
func (l *Ledger) replay() error {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("ledger: replay %s: %w", l.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var s domain.EquitySample
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			l.logger.Warn("skipping malformed ledger line", slog.String("error", err.Error()))
			continue
		}
		if l.first == nil {
			first := s
			l.first = &first
		}
		cur := s
		l.prev = &cur
		l.count++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("ledger: replay %s: %w", l.path, err)
	}
	return nil
}

// Append records a new equity sample. The first sample ever recorded carries
// nil PnL fields; afterwards pnl_this_trade compares against the previous
// sample and pnl_overall against the first.
func (l *Ledger) Append(ctx context.Context, equity, liquidity float64, spotLast, hedgeLast domain.LastTrade) (domain.EquitySample, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sample := domain.EquitySample{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC().Unix(),
		TotalEquity:    equity,
		Liquidity:      liquidity,
		SpotLastTrade:  spotLast,
		HedgeLastTrade: hedgeLast,
	}
	if l.prev != nil && l.prev.TotalEquity != 0 {
		v := equity/l.prev.TotalEquity - 1
		sample.PnlThisTrade = &v
	}
	if l.first != nil && l.first.TotalEquity != 0 {
		v := equity/l.first.TotalEquity - 1
		sample.PnlOverall = &v
	}

	if err := l.enc.Encode(sample); err != nil {
		return domain.EquitySample{}, fmt.Errorf("ledger: append: %w", err)
	}

	if l.first == nil {
		first := sample
		l.first = &first
	}
	cur := sample
	l.prev = &cur
	l.count++

	return sample, nil
}

// Len returns the number of samples recorded, including replayed ones.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Path returns the location of the journal file.
func (l *Ledger) Path() string { return l.path }

// Close flushes and closes the journal file.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("ledger: close: %w", err)
	}
	return nil
}
