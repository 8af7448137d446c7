package binance

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:         srv.URL,
		APIKey:          "key",
		APISecret:       "secret",
		Symbol:          "XLMUSDT",
		BaseAsset:       "XLM",
		QuoteAsset:      "USDT",
		ReserveBase:     1.5,
		ReservePerEntry: 0.5,
		ReservePerOrder: 0.5,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestOrderbookParsesLevels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/depth", r.URL.Path)
		assert.Equal(t, "XLMUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"lastUpdateId":1,"bids":[["0.1234","100"],["0.1233","50"]],"asks":[["0.1236","80"]]}`))
	})

	book, err := c.Orderbook(context.Background())
	require.NoError(t, err)
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, 0.1234, book.Bids[0].Price)
	assert.Equal(t, 100.0, book.Bids[0].Size)
	assert.Equal(t, 0.1236, book.Asks[0].Price)
}

func TestFreeBalancesAppliesReserveHaircut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/account", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("signature"))
		assert.Equal(t, "key", r.Header.Get("X-MBX-APIKEY"))
		w.Write([]byte(`{"balances":[
			{"asset":"XLM","free":"100","locked":"10"},
			{"asset":"USDT","free":"500","locked":"0"},
			{"asset":"BTC","free":"0.5","locked":"0"}
		]}`))
	})

	free, err := c.FreeBalances(context.Background())
	require.NoError(t, err)
	// three funded entries: reserve = 1.5 + 0.5*2 + 0.5 = 3
	assert.InDelta(t, 97.0, free.Base, 1e-9)
	assert.Equal(t, 500.0, free.Quote)

	total, err := c.TotalBalances(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 107.0, total.Base, 1e-9)
}

func TestFreeBalancesReserveNeverGoesNegative(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balances":[{"asset":"XLM","free":"1","locked":"0"}]}`))
	})

	free, err := c.FreeBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, free.Base)
}

func TestOpenOrdersFiltersBySide(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"orderId":11,"symbol":"XLMUSDT","side":"BUY","price":"0.12","origQty":"100"},
			{"orderId":12,"symbol":"XLMUSDT","side":"SELL","price":"0.13","origQty":"90"}
		]`))
	})

	buys, err := c.OpenOrders(context.Background(), domain.SideBuy)
	require.NoError(t, err)
	require.Len(t, buys, 1)
	assert.Equal(t, int64(11), buys[0].ID)
	assert.Equal(t, 0.12, buys[0].Price)
}

func TestPostOrderNewReplacesAndCancels(t *testing.T) {
	type call struct {
		method string
		path   string
		query  map[string]string
	}
	var calls []call
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		calls = append(calls, call{r.Method, r.URL.Path, q})
		switch r.URL.Path {
		case "/api/v3/order/cancelReplace":
			w.Write([]byte(`{"newOrderResponse":{"orderId":43}}`))
		default:
			w.Write([]byte(`{"orderId":42}`))
		}
	})
	ctx := context.Background()

	id, err := c.PostOrder(ctx, domain.SideBuy, 0.12345678, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = c.PostOrder(ctx, domain.SideBuy, 0.124, 90, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(43), id)

	id, err = c.PostOrder(ctx, domain.SideBuy, 1, 0, 42)
	require.NoError(t, err)
	assert.Zero(t, id)

	require.Len(t, calls, 3)

	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.Equal(t, "/api/v3/order", calls[0].path)
	assert.Equal(t, "BUY", calls[0].query["side"])
	// rounded to 7 decimal places
	assert.Equal(t, "0.1234568", calls[0].query["price"])
	assert.Equal(t, "100", calls[0].query["quantity"])

	assert.Equal(t, "/api/v3/order/cancelReplace", calls[1].path)
	assert.Equal(t, "42", calls[1].query["cancelOrderId"])

	assert.Equal(t, http.MethodDelete, calls[2].method)
	assert.Equal(t, "/api/v3/order", calls[2].path)
	assert.Equal(t, "42", calls[2].query["orderId"])
}

func TestPostOrderCancelWithoutIDFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.PostOrder(context.Background(), domain.SideBuy, 1, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestMinNotionalReadsFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbols":[{"symbol":"XLMUSDT","filters":[
			{"filterType":"PRICE_FILTER"},
			{"filterType":"NOTIONAL","minNotional":"5.0"}
		]}]}`))
	})

	v, err := c.MinNotional(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)
}

func TestLastTradeMapsSide(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"XLMUSDT","price":"0.125","qty":"40","time":1700000000000,"isBuyer":false}]`))
	})

	lt, err := c.LastTrade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sell", lt.Side)
	assert.Equal(t, 0.125, lt.Price)
	assert.Equal(t, 40.0, lt.Amount)
	assert.False(t, lt.IsZero())
}

func TestLastTradeEmptyIsZeroValue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	lt, err := c.LastTrade(context.Background())
	require.NoError(t, err)
	assert.True(t, lt.IsZero())
}

func TestRateLimitMapsToSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"code":-1003,"msg":"Too many requests"}`))
	})
	_, err := c.Orderbook(context.Background())
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
