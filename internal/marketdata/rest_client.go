package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"portfolio-dashboard-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const barDateFormat = "2006-01-02"

// ErrNoPriceData indicates the provider returned an empty series for a
// symbol, e.g. a newly-listed or delisted instrument. Callers recover from
// it per instrument rather than failing the whole pipeline.
var ErrNoPriceData = errors.New("no historical price data for symbol")

// Bar is one daily closing-price observation. Only Date and Close of the
// provider's OHLC payload are consumed.
type Bar struct {
	Date  time.Time `json:"Date"`
	Close float64   `json:"Close"`
}

// ClientInterface defines the interface for the historical price provider.
type ClientInterface interface {
	Symbol(ticker string) string
	History(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)
}

// Client queries an EODHD-style end-of-day endpoint for daily bars.
// It implements ClientInterface.
type Client struct {
	client  *resty.Client
	apiKey  string
	suffix  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new market data client. Historical queries are issued
// once per traded instrument in a loop, so the client carries its own rate
// limiter.
func NewClient(cfg *config.MarketData, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.BaseURL)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		apiKey:  cfg.ApiKey,
		suffix:  cfg.MarketSuffix,
		logger:  logger,
		limiter: limiter,
	}
}

// Symbol returns the provider symbol for a ticker: the ticker with the
// configured market suffix appended (e.g. "BHP" -> "BHP.AX").
func (c *Client) Symbol(ticker string) string {
	return ticker + c.suffix
}

// barRow is the provider's wire format for one daily bar.
type barRow struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// History fetches the daily closing-price series for a symbol between from
// and to, ordered by date ascending. An empty series yields ErrNoPriceData.
func (c *Client) History(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var rows []barRow
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"from":      from.Format(barDateFormat),
			"to":        to.Format(barDateFormat),
			"period":    "d",
			"fmt":       "json",
			"api_token": c.apiKey,
		}).
		SetResult(&rows).
		Get("/eod/" + url.PathEscape(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("history request for %s failed with status %s: %s", symbol, resp.Status(), resp.String())
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPriceData, symbol)
	}

	bars := make([]Bar, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(barDateFormat, row.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse bar date %q for %s: %w", row.Date, symbol, err)
		}
		bars = append(bars, Bar{Date: date, Close: row.Close})
	}

	// Providers return bars oldest-first, but downstream aggregation relies
	// on the ordering, so enforce it here.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	c.logger.Debug("Fetched price history",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
	)
	return bars, nil
}

// LatestClose returns the most recent close of an already-fetched series.
// The series is reused rather than queried again; ok is false for an empty
// series.
func LatestClose(bars []Bar) (price float64, ok bool) {
	if len(bars) == 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close, true
}
