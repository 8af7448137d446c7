package ledger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestLedger(t *testing.T, dir string) *Ledger {
	t.Helper()
	l, err := Open(dir, 1, "XLM", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAppendComputesPnlAgainstPrevAndFirst(t *testing.T) {
	l := openTestLedger(t, t.TempDir())
	ctx := context.Background()

	s1, err := l.Append(ctx, 1000, 12, domain.LastTrade{}, domain.LastTrade{})
	require.NoError(t, err)
	assert.Nil(t, s1.PnlThisTrade)
	assert.Nil(t, s1.PnlOverall)
	assert.NotEmpty(t, s1.ID)

	s2, err := l.Append(ctx, 1050, 12, domain.LastTrade{}, domain.LastTrade{})
	require.NoError(t, err)
	require.NotNil(t, s2.PnlThisTrade)
	require.NotNil(t, s2.PnlOverall)
	assert.InDelta(t, 0.05, *s2.PnlThisTrade, 1e-9)
	assert.InDelta(t, 0.05, *s2.PnlOverall, 1e-9)

	s3, err := l.Append(ctx, 1029, 12, domain.LastTrade{}, domain.LastTrade{})
	require.NoError(t, err)
	assert.InDelta(t, -0.02, *s3.PnlThisTrade, 1e-9)
	assert.InDelta(t, 0.029, *s3.PnlOverall, 1e-9)

	assert.Equal(t, 3, l.Len())
}

func TestReopenReplaysBaselines(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	l := openTestLedger(t, dir)
	_, err := l.Append(ctx, 1000, 0, domain.LastTrade{}, domain.LastTrade{})
	require.NoError(t, err)
	_, err = l.Append(ctx, 1050, 0, domain.LastTrade{}, domain.LastTrade{})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	reopened := openTestLedger(t, dir)
	assert.Equal(t, 2, reopened.Len())

	// prev baseline is 1050, first baseline is still 1000
	s, err := reopened.Append(ctx, 1029, 0, domain.LastTrade{}, domain.LastTrade{})
	require.NoError(t, err)
	require.NotNil(t, s.PnlThisTrade)
	require.NotNil(t, s.PnlOverall)
	assert.InDelta(t, -0.02, *s.PnlThisTrade, 1e-9)
	assert.InDelta(t, 0.029, *s.PnlOverall, 1e-9)
	assert.Equal(t, 3, reopened.Len())
}

func TestReplaySkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "equity_1_xlm.jsonl")
	content := `{"id":"a","timestamp":1,"total_equity":1000,"liquidity":0}
not json at all
{"id":"b","timestamp":2,"total_equity":1100,"liquidity":0}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l := openTestLedger(t, dir)
	assert.Equal(t, 2, l.Len())

	s, err := l.Append(context.Background(), 1210, 0, domain.LastTrade{}, domain.LastTrade{})
	require.NoError(t, err)
	assert.InDelta(t, 0.10, *s.PnlThisTrade, 1e-9)
	assert.InDelta(t, 0.21, *s.PnlOverall, 1e-9)
}

func TestPathAndFileNaming(t *testing.T) {
	dir := t.TempDir()
	l := openTestLedger(t, dir)
	assert.True(t, strings.HasSuffix(l.Path(), "equity_1_xlm.jsonl"))

	// the file exists after the first append
	_, err := l.Append(context.Background(), 500, 0, domain.LastTrade{}, domain.LastTrade{})
	require.NoError(t, err)
	_, statErr := os.Stat(l.Path())
	assert.NoError(t, statErr)
}

func TestAppendWithZeroFirstEquityLeavesPnlNil(t *testing.T) {
	l := openTestLedger(t, t.TempDir())
	ctx := context.Background()

	_, err := l.Append(ctx, 0, 0, domain.LastTrade{}, domain.LastTrade{})
	require.NoError(t, err)
	s, err := l.Append(ctx, 100, 0, domain.LastTrade{}, domain.LastTrade{})
	require.NoError(t, err)
	assert.Nil(t, s.PnlThisTrade)
	assert.Nil(t, s.PnlOverall)
}
