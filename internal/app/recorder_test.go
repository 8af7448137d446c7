package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
	"github.com/alanyoungcy/hedgebot/internal/ledger"
)

type failingStore struct {
	inserts int
}

func (f *failingStore) Insert(ctx context.Context, instance int, asset string, sample domain.EquitySample) error {
	f.inserts++
	return errors.New("db down")
}

func (f *failingStore) ListRecent(ctx context.Context, instance int, asset string, limit int) ([]domain.EquitySample, error) {
	return nil, errors.New("db down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorderAppendSurvivesMirrorFailure(t *testing.T) {
	led, err := ledger.Open(t.TempDir(), 1, "XLM", discardLogger())
	require.NoError(t, err)
	defer led.Close()

	store := &failingStore{}
	rec := NewRecorder(led, 1, "XLM", discardLogger()).WithStore(store)

	sample, err := rec.Append(context.Background(), 1000, 50, domain.LastTrade{}, domain.LastTrade{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, 1000.0, sample.TotalEquity)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, sample.ID, last.ID)
}

func TestRecorderLastEmptyBeforeFirstAppend(t *testing.T) {
	led, err := ledger.Open(t.TempDir(), 2, "XLM", discardLogger())
	require.NoError(t, err)
	defer led.Close()

	rec := NewRecorder(led, 2, "XLM", discardLogger())
	_, ok := rec.Last()
	assert.False(t, ok)
}
