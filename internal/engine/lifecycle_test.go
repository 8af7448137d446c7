package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLifecyclePlaceReusesOpenOrderID(t *testing.T) {
	spot := &fakeSpot{ackID: 8}
	l := NewLifecycle(spot, false, discardLogger())

	open := []domain.RestingOrder{{ID: 7, Side: domain.SideBuy, Price: 99, Size: 1}}
	require.NoError(t, l.Place(context.Background(), domain.SideBuy, 99.5, 2, open))

	require.Len(t, spot.posts, 1)
	assert.Equal(t, postCall{Side: domain.SideBuy, Price: 99.5, Size: 2, ID: 7}, spot.posts[0])

	// A replace assigns a new id; the venue's acknowledgement wins.
	st, id := l.State(domain.SideBuy)
	assert.Equal(t, SideResting, st)
	assert.Equal(t, int64(8), id)
}

func TestLifecyclePlaceWithoutOpenOrderCreatesNew(t *testing.T) {
	spot := &fakeSpot{ackID: 33}
	l := NewLifecycle(spot, false, discardLogger())

	require.NoError(t, l.Place(context.Background(), domain.SideSell, 101, 3, nil))

	require.Len(t, spot.posts, 1)
	assert.Zero(t, spot.posts[0].ID)

	// The fresh order's id is known immediately, not 0 until the next tick.
	assert.Equal(t, map[string]int64{"sell": 33}, l.OpenOrderIDs())
}

func TestLifecyclePlaceEmitsOrderAlert(t *testing.T) {
	spot := &fakeSpot{ackID: 5}
	alerts := &fakeAlerts{}
	l := NewLifecycle(spot, false, discardLogger())
	l.asset = "XLM"
	l.alerts = alerts

	require.NoError(t, l.Place(context.Background(), domain.SideBuy, 0.12, 40, nil))

	require.Len(t, alerts.calls, 1)
	assert.Equal(t, alertCall{Event: "order_placed", Asset: "XLM", Side: "buy", Size: 40, Price: 0.12}, alerts.calls[0])
}

func TestLifecycleCancelIssuesOneZeroSizeResubmitPerOrder(t *testing.T) {
	spot := &fakeSpot{}
	l := NewLifecycle(spot, false, discardLogger())

	open := []domain.RestingOrder{
		{ID: 11, Side: domain.SideBuy},
		{ID: 12, Side: domain.SideBuy},
	}
	require.NoError(t, l.Cancel(context.Background(), domain.SideBuy, open))

	require.Len(t, spot.posts, 2)
	for i, id := range []int64{11, 12} {
		assert.Equal(t, id, spot.posts[i].ID)
		assert.Zero(t, spot.posts[i].Size)
	}

	st, _ := l.State(domain.SideBuy)
	assert.Equal(t, SideIdle, st)
}

func TestLifecycleCancelNoOpenOrders(t *testing.T) {
	spot := &fakeSpot{}
	l := NewLifecycle(spot, false, discardLogger())

	require.NoError(t, l.Cancel(context.Background(), domain.SideBuy, nil))
	assert.Empty(t, spot.posts)
}

func TestLifecycleDryRunSubmitsNothing(t *testing.T) {
	spot := &fakeSpot{}
	l := NewLifecycle(spot, true, discardLogger())

	require.NoError(t, l.Place(context.Background(), domain.SideBuy, 99, 1, nil))
	require.NoError(t, l.Cancel(context.Background(), domain.SideBuy, []domain.RestingOrder{{ID: 5}}))
	assert.Empty(t, spot.posts)
}
