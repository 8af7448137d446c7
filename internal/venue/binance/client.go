// Package binance adapts the Binance spot REST API to the engine's spot venue
// capability. The adapter is a thin synchronous wrapper: every snapshot is
// fetched fresh, numeric strings are parsed at the boundary, and a fixed
// post-call delay keeps the request rate inside the venue's limits.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/hedgebot/internal/crypto"
	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// Config carries the adapter settings for one spot market.
type Config struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Symbol     string // e.g. "XLMUSDT"
	BaseAsset  string // e.g. "XLM"
	QuoteAsset string // e.g. "USDT"

	// Precision is the number of decimal places prices and sizes are
	// rounded to before submission.
	Precision int

	// PostCallDelay is slept after every request for rate-limit compliance.
	PostCallDelay time.Duration

	// Reserve is subtracted from the reported base balance so the engine
	// never tries to spend funds the venue will not release. The total is
	// ReserveBase + ReservePerEntry*(entries-1) + ReservePerOrder, floored
	// at zero.
	ReserveBase     float64
	ReservePerEntry float64
	ReservePerOrder float64
}

// Client is the spot venue adapter.
type Client struct {
	cfg        Config
	signer     *crypto.QuerySigner
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.SpotVenue = (*Client)(nil)

// New creates the adapter. It performs no I/O.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Precision <= 0 {
		cfg.Precision = 7
	}
	return &Client{
		cfg:    cfg,
		signer: &crypto.QuerySigner{Key: cfg.APIKey, Secret: cfg.APISecret},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "binance")),
	}
}

// Name identifies the venue in logs.
func (c *Client) Name() string { return "binance" }

// Orderbook returns a fresh depth snapshot for the configured symbol.
func (c *Client) Orderbook(ctx context.Context) (domain.OrderbookSnapshot, error) {
	params := url.Values{}
	params.Set("symbol", c.cfg.Symbol)
	params.Set("limit", "100")

	body, err := c.doPublic(ctx, http.MethodGet, "/api/v3/depth", params)
	if err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("binance: get depth: %w", err)
	}

	var resp depthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("binance: decode depth: %w", err)
	}

	book := domain.OrderbookSnapshot{Timestamp: time.Now().UTC()}
	if book.Bids, err = parseLevels(resp.Bids); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("binance: parse bids: %w", err)
	}
	if book.Asks, err = parseLevels(resp.Asks); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("binance: parse asks: %w", err)
	}
	return book, nil
}

// FreeBalances returns the available base/quote balances with the reserve
// haircut applied to the base side.
func (c *Client) FreeBalances(ctx context.Context) (domain.Balances, error) {
	return c.balances(ctx, false)
}

// TotalBalances returns free+locked balances with the reserve haircut applied
// to the base side.
func (c *Client) TotalBalances(ctx context.Context) (domain.Balances, error) {
	return c.balances(ctx, true)
}

func (c *Client) balances(ctx context.Context, includeLocked bool) (domain.Balances, error) {
	body, err := c.doSigned(ctx, http.MethodGet, "/api/v3/account", url.Values{}, nil)
	if err != nil {
		return domain.Balances{}, fmt.Errorf("binance: get account: %w", err)
	}

	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Balances{}, fmt.Errorf("binance: decode account: %w", err)
	}

	var out domain.Balances
	entries := 0
	for _, b := range resp.Balances {
		free, err := parseF(b.Free)
		if err != nil {
			return domain.Balances{}, fmt.Errorf("binance: parse balance %s: %w", b.Asset, err)
		}
		locked, err := parseF(b.Locked)
		if err != nil {
			return domain.Balances{}, fmt.Errorf("binance: parse balance %s: %w", b.Asset, err)
		}
		if free+locked > 0 {
			entries++
		}

		amount := free
		if includeLocked {
			amount += locked
		}
		switch b.Asset {
		case c.cfg.BaseAsset:
			out.Base = amount
		case c.cfg.QuoteAsset:
			out.Quote = amount
		}
	}

	out.Base = math.Max(0, out.Base-c.reserve(entries))
	return out, nil
}

// reserve computes the held-back base amount for an account with the given
// number of funded balance entries.
func (c *Client) reserve(entries int) float64 {
	if c.cfg.ReserveBase == 0 && c.cfg.ReservePerEntry == 0 && c.cfg.ReservePerOrder == 0 {
		return 0
	}
	if entries < 1 {
		entries = 1
	}
	return c.cfg.ReserveBase + c.cfg.ReservePerEntry*float64(entries-1) + c.cfg.ReservePerOrder
}

// OpenOrders lists resting orders on one side of the configured symbol.
func (c *Client) OpenOrders(ctx context.Context, side domain.Side) ([]domain.RestingOrder, error) {
	params := url.Values{}
	params.Set("symbol", c.cfg.Symbol)

	body, err := c.doSigned(ctx, http.MethodGet, "/api/v3/openOrders", params, nil)
	if err != nil {
		return nil, fmt.Errorf("binance: get open orders: %w", err)
	}

	var orders []openOrder
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("binance: decode open orders: %w", err)
	}

	want := strings.ToUpper(string(side))
	out := make([]domain.RestingOrder, 0, len(orders))
	for _, o := range orders {
		if o.Side != want {
			continue
		}
		price, err := parseF(o.Price)
		if err != nil {
			return nil, fmt.Errorf("binance: parse order price: %w", err)
		}
		size, err := parseF(o.OrigQty)
		if err != nil {
			return nil, fmt.Errorf("binance: parse order size: %w", err)
		}
		out = append(out, domain.RestingOrder{
			ID:    o.OrderID,
			Side:  side,
			Price: price,
			Size:  size,
		})
	}
	return out, nil
}

// PostOrder submits a limit order. A zero existingID creates a new order, a
// non-zero existingID replaces the identified order atomically, and size 0
// cancels it. The returned id comes from the venue's acknowledgement; a
// replace assigns a fresh id to the new order.
func (c *Client) PostOrder(ctx context.Context, side domain.Side, price, size float64, existingID int64) (int64, error) {
	if size == 0 {
		return 0, c.cancelOrder(ctx, existingID)
	}

	params := url.Values{}
	params.Set("symbol", c.cfg.Symbol)
	params.Set("side", strings.ToUpper(string(side)))
	params.Set("type", "LIMIT")
	params.Set("timeInForce", "GTC")
	params.Set("price", formatF(roundTo(price, c.cfg.Precision)))
	params.Set("quantity", formatF(roundTo(size, c.cfg.Precision)))

	path := "/api/v3/order"
	if existingID != 0 {
		path = "/api/v3/order/cancelReplace"
		params.Set("cancelReplaceMode", "STOP_ON_FAILURE")
		params.Set("cancelOrderId", strconv.FormatInt(existingID, 10))
	}

	body, err := c.doSigned(ctx, http.MethodPost, path, params, nil)
	if err != nil {
		return 0, fmt.Errorf("binance: post order: %w", err)
	}

	if existingID != 0 {
		var resp cancelReplaceResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return 0, fmt.Errorf("binance: decode replace ack: %w", err)
		}
		return resp.NewOrderResponse.OrderID, nil
	}
	var resp orderAck
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("binance: decode order ack: %w", err)
	}
	return resp.OrderID, nil
}

// cancelOrder removes a resting order by id.
func (c *Client) cancelOrder(ctx context.Context, orderID int64) error {
	if orderID == 0 {
		return fmt.Errorf("binance: cancel order: %w", domain.ErrInvalidOrder)
	}
	params := url.Values{}
	params.Set("symbol", c.cfg.Symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	if _, err := c.doSigned(ctx, http.MethodDelete, "/api/v3/order", params, nil); err != nil {
		return fmt.Errorf("binance: cancel order %d: %w", orderID, err)
	}
	return nil
}

// MinNotional returns the symbol's minimum order value in quote units.
func (c *Client) MinNotional(ctx context.Context) (float64, error) {
	params := url.Values{}
	params.Set("symbol", c.cfg.Symbol)

	body, err := c.doPublic(ctx, http.MethodGet, "/api/v3/exchangeInfo", params)
	if err != nil {
		return 0, fmt.Errorf("binance: get exchange info: %w", err)
	}

	var resp exchangeInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("binance: decode exchange info: %w", err)
	}

	for _, s := range resp.Symbols {
		if s.Symbol != c.cfg.Symbol {
			continue
		}
		for _, f := range s.Filters {
			if f.FilterType != "NOTIONAL" && f.FilterType != "MIN_NOTIONAL" {
				continue
			}
			v, err := parseF(f.MinNotional)
			if err != nil {
				return 0, fmt.Errorf("binance: parse min notional: %w", err)
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("binance: min notional for %s: %w", c.cfg.Symbol, domain.ErrNotFound)
}

// LastTrade returns the most recent own fill, or a zero value when the venue
// reports no trades.
func (c *Client) LastTrade(ctx context.Context) (domain.LastTrade, error) {
	params := url.Values{}
	params.Set("symbol", c.cfg.Symbol)
	params.Set("limit", "1")

	body, err := c.doSigned(ctx, http.MethodGet, "/api/v3/myTrades", params, nil)
	if err != nil {
		return domain.LastTrade{}, fmt.Errorf("binance: get my trades: %w", err)
	}

	var trades []myTrade
	if err := json.Unmarshal(body, &trades); err != nil {
		return domain.LastTrade{}, fmt.Errorf("binance: decode my trades: %w", err)
	}
	if len(trades) == 0 {
		return domain.LastTrade{}, nil
	}

	t := trades[len(trades)-1]
	price, err := parseF(t.Price)
	if err != nil {
		return domain.LastTrade{}, fmt.Errorf("binance: parse trade price: %w", err)
	}
	qty, err := parseF(t.Qty)
	if err != nil {
		return domain.LastTrade{}, fmt.Errorf("binance: parse trade qty: %w", err)
	}

	side := string(domain.SideSell)
	if t.IsBuyer {
		side = string(domain.SideBuy)
	}
	return domain.LastTrade{
		Time:   time.UnixMilli(t.Time).UTC(),
		Side:   side,
		Price:  price,
		Amount: qty,
	}, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doPublic sends an unauthenticated request.
func (c *Client) doPublic(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	fullURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	return c.do(ctx, method, fullURL, nil)
}

// doSigned appends the timestamp, signs the query string, and sends the
// request with the API key header.
func (c *Client) doSigned(ctx context.Context, method, path string, params url.Values, headers map[string]string) ([]byte, error) {
	params.Set("timestamp", crypto.Timestamp())
	query := params.Encode()
	query += "&signature=" + c.signer.Sign(query)

	fullURL := c.cfg.BaseURL + path + "?" + query

	withKey := map[string]string{"X-MBX-APIKEY": c.cfg.APIKey}
	for k, v := range headers {
		withKey[k] = v
	}
	return c.do(ctx, method, fullURL, withKey)
}

func (c *Client) do(ctx context.Context, method, fullURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	c.afterCall(ctx)
	return respBody, nil
}

// afterCall enforces the fixed post-call delay.
func (c *Client) afterCall(ctx context.Context) {
	if c.cfg.PostCallDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.cfg.PostCallDelay):
	}
}

// checkStatus maps non-2xx HTTP status codes to domain errors.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusTeapot:
		return fmt.Errorf("HTTP %d code=%d %s: %w", statusCode, apiErr.Code, apiErr.Message, domain.ErrRateLimited)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("HTTP %d code=%d %s: %w", statusCode, apiErr.Code, apiErr.Message, domain.ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("HTTP %d code=%d %s: %w", statusCode, apiErr.Code, apiErr.Message, domain.ErrNotFound)
	default:
		return fmt.Errorf("HTTP %d code=%d: %s", statusCode, apiErr.Code, apiErr.Message)
	}
}

func parseLevels(raw [][2]string) ([]domain.PriceLevel, error) {
	out := make([]domain.PriceLevel, 0, len(raw))
	for _, lvl := range raw {
		price, err := parseF(lvl[0])
		if err != nil {
			return nil, err
		}
		size, err := parseF(lvl[1])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.PriceLevel{Price: price, Size: size})
	}
	return out, nil
}

func parseF(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatF(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
