package dydx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

const marketsJSON = `{"markets":{"XLM-USD":{
	"market":"XLM-USD","tickSize":"0.0001","stepSize":"10","minOrderSize":"20"
}}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v3/markets" {
			w.Write([]byte(marketsJSON))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		BaseURL:    srv.URL,
		APIKey:     "key",
		APISecret:  "c2VjcmV0",
		Passphrase: "pass",
		Market:     "XLM-USD",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func TestNewFetchesMarketLimits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	limits := c.Limits()
	assert.Equal(t, 0.0001, limits.TickSize)
	assert.Equal(t, 10.0, limits.StepSize)
	assert.Equal(t, 20.0, limits.MinOrderSize)
}

func TestPositionSignsShorts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/accounts", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("DYDX-API-KEY"))
		assert.NotEmpty(t, r.Header.Get("DYDX-SIGNATURE"))
		w.Write([]byte(`{"account":{"equity":"1500.5","openPositions":{
			"XLM-USD":{"market":"XLM-USD","side":"SHORT","size":"120"}
		}}}`))
	})

	pos, err := c.Position(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -120.0, pos.Size)

	equity, err := c.AccountEquity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1500.5, equity)
}

func TestPositionMissingMarketIsFlat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"account":{"equity":"100","openPositions":{}}}`))
	})
	pos, err := c.Position(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, pos.Size)
}

func TestMarketSellQuantizesPriceAndSize(t *testing.T) {
	var got orderRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"order":{}}`))
	})

	// price floored to tick 0.0001, size floored to step 10
	require.NoError(t, c.MarketSell(context.Background(), 0.123456, 37))
	assert.Equal(t, "SELL", got.Side)
	assert.Equal(t, "MARKET", got.Type)
	assert.Equal(t, "IOC", got.TimeInForce)
	assert.Equal(t, "0.1234", got.Price)
	assert.Equal(t, "30", got.Size)
}

func TestMarketBuyBelowStepRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no order expected")
	})
	err := c.MarketBuy(context.Background(), 0.12, 7)
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestTrailingVolumeSumsMakerAndTaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/users", r.URL.Path)
		w.Write([]byte(`{"user":{"makerVolume30D":"60000","takerVolume30D":"45000"}}`))
	})
	v, err := c.TrailingVolume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 105000.0, v)
}

func TestLastTradeParsesFill(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"fills":[{"market":"XLM-USD","side":"BUY","price":"0.13","size":"50","createdAt":"2024-03-01T12:00:00.000Z"}]}`))
	})
	lt, err := c.LastTrade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "buy", lt.Side)
	assert.Equal(t, 0.13, lt.Price)
	assert.Equal(t, 50.0, lt.Amount)
}

func TestOrderbookParsesLevels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bids":[{"price":"0.125","size":"1000"}],"asks":[{"price":"0.126","size":"900"}]}`))
	})
	book, err := c.Orderbook(context.Background())
	require.NoError(t, err)
	require.Len(t, book.Bids, 1)
	assert.Equal(t, 0.125, book.Bids[0].Price)
	assert.Equal(t, 900.0, book.Asks[0].Size)
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"msg":"bad signature"}]}`))
	})
	_, err := c.AccountEquity(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
