// Package dydx adapts the dYdX perpetuals REST API to the engine's hedge
// venue capability. Market orders are submitted as immediate-or-cancel orders
// with a protective limit price; prices and sizes are quantized to the
// market's tick and step before submission.
package dydx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/hedgebot/internal/crypto"
	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// Config carries the adapter settings for one perpetual market.
type Config struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Passphrase string
	Market     string // e.g. "XLM-USD"

	// LimitFee is the maximum fee rate accepted on order submission.
	LimitFee float64

	// OrderExpiry bounds how long a protective limit order may rest before
	// the venue expires it.
	OrderExpiry time.Duration

	// PostCallDelay is slept after every request for rate-limit compliance.
	PostCallDelay time.Duration
}

// Client is the hedge venue adapter.
type Client struct {
	cfg        Config
	signer     *crypto.HeaderSigner
	httpClient *http.Client
	logger     *slog.Logger
	limits     domain.MarketLimits
}

var _ domain.HedgeVenue = (*Client)(nil)

// New creates the adapter and fetches the market's order-size limits once.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.LimitFee == 0 {
		cfg.LimitFee = 0.0015
	}
	if cfg.OrderExpiry == 0 {
		cfg.OrderExpiry = 5 * time.Minute
	}
	c := &Client{
		cfg: cfg,
		signer: &crypto.HeaderSigner{
			Key:        cfg.APIKey,
			Secret:     cfg.APISecret,
			Passphrase: cfg.Passphrase,
		},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "dydx")),
	}

	limits, err := c.fetchLimits(ctx)
	if err != nil {
		return nil, err
	}
	c.limits = limits
	return c, nil
}

// Name identifies the venue in logs.
func (c *Client) Name() string { return "dydx" }

// Limits returns the market's order-size constraints fetched at startup.
func (c *Client) Limits() domain.MarketLimits { return c.limits }

// Orderbook returns a fresh snapshot of the configured market.
func (c *Client) Orderbook(ctx context.Context) (domain.OrderbookSnapshot, error) {
	path := fmt.Sprintf("/v3/orderbook/%s", c.cfg.Market)
	body, err := c.doPublic(ctx, http.MethodGet, path)
	if err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("dydx: get orderbook: %w", err)
	}

	var resp orderbookResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("dydx: decode orderbook: %w", err)
	}

	book := domain.OrderbookSnapshot{Timestamp: time.Now().UTC()}
	if book.Bids, err = parseLevels(resp.Bids); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("dydx: parse bids: %w", err)
	}
	if book.Asks, err = parseLevels(resp.Asks); err != nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("dydx: parse asks: %w", err)
	}
	return book, nil
}

// Position returns the signed open position for the configured market. Short
// positions come back negative; no open position is size zero.
func (c *Client) Position(ctx context.Context) (domain.Position, error) {
	account, err := c.account(ctx)
	if err != nil {
		return domain.Position{}, err
	}

	pos, ok := account.OpenPositions[c.cfg.Market]
	if !ok {
		return domain.Position{}, nil
	}
	size, err := parseF(pos.Size)
	if err != nil {
		return domain.Position{}, fmt.Errorf("dydx: parse position size: %w", err)
	}
	// the API reports SHORT sizes as negative already, but normalize in
	// case only the side field carries the sign
	if strings.EqualFold(pos.Side, "SHORT") && size > 0 {
		size = -size
	}
	return domain.Position{Size: size}, nil
}

// AccountEquity returns the venue's own mark-to-market account value.
func (c *Client) AccountEquity(ctx context.Context) (float64, error) {
	account, err := c.account(ctx)
	if err != nil {
		return 0, err
	}
	equity, err := parseF(account.Equity)
	if err != nil {
		return 0, fmt.Errorf("dydx: parse equity: %w", err)
	}
	return equity, nil
}

// MarketBuy submits an immediate-or-cancel buy with price as the protective
// limit.
func (c *Client) MarketBuy(ctx context.Context, price, size float64) error {
	return c.marketOrder(ctx, "BUY", price, size)
}

// MarketSell submits an immediate-or-cancel sell with price as the protective
// limit.
func (c *Client) MarketSell(ctx context.Context, price, size float64) error {
	return c.marketOrder(ctx, "SELL", price, size)
}

func (c *Client) marketOrder(ctx context.Context, side string, price, size float64) error {
	qPrice := floorTo(price, c.limits.TickSize)
	qSize := floorTo(size, c.limits.StepSize)
	if qSize <= 0 {
		return fmt.Errorf("dydx: market %s size %v below step: %w", side, size, domain.ErrInvalidOrder)
	}

	req := orderRequest{
		Market:      c.cfg.Market,
		Side:        side,
		Type:        "MARKET",
		Size:        formatF(qSize),
		Price:       formatF(qPrice),
		TimeInForce: "IOC",
		LimitFee:    formatF(c.cfg.LimitFee),
		Expiration:  time.Now().UTC().Add(c.cfg.OrderExpiry).Format(time.RFC3339),
	}
	if _, err := c.doSigned(ctx, http.MethodPost, "/v3/orders", req); err != nil {
		return fmt.Errorf("dydx: market %s: %w", strings.ToLower(side), err)
	}

	c.logger.InfoContext(ctx, "market order submitted",
		slog.String("side", side),
		slog.Float64("price", qPrice),
		slog.Float64("size", qSize),
	)
	return nil
}

// TrailingVolume returns the 30-day maker+taker volume in quote units.
func (c *Client) TrailingVolume(ctx context.Context) (float64, error) {
	body, err := c.doSigned(ctx, http.MethodGet, "/v3/users", nil)
	if err != nil {
		return 0, fmt.Errorf("dydx: get user: %w", err)
	}

	var resp userResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("dydx: decode user: %w", err)
	}
	maker, err := parseF(resp.User.MakerVolume30D)
	if err != nil {
		return 0, fmt.Errorf("dydx: parse maker volume: %w", err)
	}
	taker, err := parseF(resp.User.TakerVolume30D)
	if err != nil {
		return 0, fmt.Errorf("dydx: parse taker volume: %w", err)
	}
	return maker + taker, nil
}

// LastTrade returns the most recent own fill, or a zero value.
func (c *Client) LastTrade(ctx context.Context) (domain.LastTrade, error) {
	path := fmt.Sprintf("/v3/fills?market=%s&limit=1", c.cfg.Market)
	body, err := c.doSigned(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.LastTrade{}, fmt.Errorf("dydx: get fills: %w", err)
	}

	var resp fillsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.LastTrade{}, fmt.Errorf("dydx: decode fills: %w", err)
	}
	if len(resp.Fills) == 0 {
		return domain.LastTrade{}, nil
	}

	f := resp.Fills[0]
	price, err := parseF(f.Price)
	if err != nil {
		return domain.LastTrade{}, fmt.Errorf("dydx: parse fill price: %w", err)
	}
	size, err := parseF(f.Size)
	if err != nil {
		return domain.LastTrade{}, fmt.Errorf("dydx: parse fill size: %w", err)
	}
	at, _ := time.Parse(time.RFC3339, f.CreatedAt)

	return domain.LastTrade{
		Time:   at.UTC(),
		Side:   strings.ToLower(f.Side),
		Price:  price,
		Amount: size,
	}, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func (c *Client) account(ctx context.Context) (accountInfo, error) {
	body, err := c.doSigned(ctx, http.MethodGet, "/v3/accounts", nil)
	if err != nil {
		return accountInfo{}, fmt.Errorf("dydx: get account: %w", err)
	}

	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return accountInfo{}, fmt.Errorf("dydx: decode account: %w", err)
	}
	return resp.Account, nil
}

func (c *Client) fetchLimits(ctx context.Context) (domain.MarketLimits, error) {
	path := fmt.Sprintf("/v3/markets?market=%s", c.cfg.Market)
	body, err := c.doPublic(ctx, http.MethodGet, path)
	if err != nil {
		return domain.MarketLimits{}, fmt.Errorf("dydx: get markets: %w", err)
	}

	var resp marketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.MarketLimits{}, fmt.Errorf("dydx: decode markets: %w", err)
	}

	info, ok := resp.Markets[c.cfg.Market]
	if !ok {
		return domain.MarketLimits{}, fmt.Errorf("dydx: market %s: %w", c.cfg.Market, domain.ErrNotFound)
	}

	var limits domain.MarketLimits
	if limits.TickSize, err = parseF(info.TickSize); err != nil {
		return domain.MarketLimits{}, fmt.Errorf("dydx: parse tick size: %w", err)
	}
	if limits.StepSize, err = parseF(info.StepSize); err != nil {
		return domain.MarketLimits{}, fmt.Errorf("dydx: parse step size: %w", err)
	}
	if limits.MinOrderSize, err = parseF(info.MinOrderSize); err != nil {
		return domain.MarketLimits{}, fmt.Errorf("dydx: parse min order size: %w", err)
	}
	return limits, nil
}

func (c *Client) doPublic(ctx context.Context, method, path string) ([]byte, error) {
	return c.do(ctx, method, path, nil, nil)
}

func (c *Client) doSigned(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}
	headers := c.signer.Headers(method, path, string(bodyBytes))
	return c.do(ctx, method, path, bodyBytes, headers)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, headers map[string]string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
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

func (c *Client) afterCall(ctx context.Context) {
	if c.cfg.PostCallDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.cfg.PostCallDelay):
	}
}

func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)
	msg := ""
	if len(apiErr.Errors) > 0 {
		msg = apiErr.Errors[0].Msg
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return fmt.Errorf("HTTP %d %s: %w", statusCode, msg, domain.ErrRateLimited)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("HTTP %d %s: %w", statusCode, msg, domain.ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("HTTP %d %s: %w", statusCode, msg, domain.ErrNotFound)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, msg)
	}
}

func parseLevels(raw []bookLevel) ([]domain.PriceLevel, error) {
	out := make([]domain.PriceLevel, 0, len(raw))
	for _, lvl := range raw {
		price, err := parseF(lvl.Price)
		if err != nil {
			return nil, err
		}
		size, err := parseF(lvl.Size)
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

// floorTo quantizes v down to a multiple of quantum. A zero quantum leaves v
// unchanged. The result is re-rounded to absorb binary representation error
// in fractional quanta like 0.0001.
func floorTo(v, quantum float64) float64 {
	if quantum <= 0 {
		return v
	}
	steps := math.Floor(v/quantum + 1e-9)
	scale := math.Pow10(10)
	return math.Round(steps*quantum*scale) / scale
}
