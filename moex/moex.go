// Package moex reads share prices from the Moscow Exchange ISS API.
//
// The marketdata block of the securities endpoint lists one row per trading
// board. The price is the last trade of the first row on one of the main
// boards (TQBR for shares, TQTF for ETFs).
package moex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/lotplan"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public ISS endpoint.
const DefaultBaseURL = "https://iss.moex.com/iss"

// DefaultBoards are the boards a price is read from, in preference order.
var DefaultBoards = []string{"TQBR", "TQTF"}

// column positions of the marketdata rows when the columns header is missing.
const (
	boardColumn = 1
	lastColumn  = 12
)

// Client is a lotplan.PriceSource backed by the ISS API. It is safe for
// concurrent use.
type Client struct {
	baseURL  string
	boards   []string
	currency string
	client   *http.Client
}

var _ lotplan.PriceSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the http client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithBaseURL replaces DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithBoards replaces DefaultBoards.
func WithBoards(boards ...string) Option {
	return func(c *Client) { c.boards = boards }
}

// WithCache keeps the responses on disk in dir for ttl. An empty dir is the
// system temporary directory, a non positive ttl is a day.
func WithCache(dir string, ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		base := c.client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc := *c.client
		hc.Transport = &diskCache{base: base, dir: dir, ttl: ttl}
		c.client = &hc
	}
}

// New returns a client pricing shares in currency.
//
// Options are applied in order, so WithCache must come after WithHTTPClient
// to wrap its transport.
func New(currency string, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		boards:   DefaultBoards,
		currency: currency,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Price returns the last trade price for ticker. It returns an error wrapping
// lotplan.ErrUnavailable when the security does not trade on the boards or
// has no trade yet.
func (c *Client) Price(ctx context.Context, ticker string) (lotplan.Money, error) {
	addr := fmt.Sprintf("%s/engines/stock/markets/shares/securities/%s.json?iss.meta=off", c.baseURL, url.PathEscape(ticker))
	var jobj any
	if err := jwget(ctx, c.client, addr, &jobj); err != nil {
		return lotplan.Money{}, fmt.Errorf("error retrieving %q: %w", ticker, err)
	}
	price, err := lastPrice(jobj, c.boards)
	if err != nil {
		return lotplan.Money{}, fmt.Errorf("%s: %w", ticker, err)
	}
	return lotplan.M(price, c.currency), nil
}

// lastPrice extracts the price from a decoded securities response.
func lastPrice(jobj any, boards []string) (decimal.Decimal, error) {
	jdata, err := jsonpath.Get("$.marketdata.data", jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("no marketdata: %w", lotplan.ErrUnavailable)
	}
	rows, ok := jdata.([]any)
	if !ok {
		return decimal.Zero, fmt.Errorf("marketdata is not a list: %w", lotplan.ErrUnavailable)
	}

	board, last := boardColumn, lastColumn
	if jcols, err := jsonpath.Get("$.marketdata.columns", jobj); err == nil {
		if cols, ok := jcols.([]any); ok {
			for i, col := range cols {
				switch col {
				case "BOARDID":
					board = i
				case "LAST":
					last = i
				}
			}
		}
	}

	for _, jrow := range rows {
		row, ok := jrow.([]any)
		if !ok || len(row) <= max(board, last) {
			continue
		}
		id, _ := row[board].(string)
		if !slices.Contains(boards, id) {
			continue
		}
		// the first row on a board wins, even without a trade.
		price, err := toDecimal(row[last])
		if err != nil {
			return decimal.Zero, fmt.Errorf("board %s: %w", id, err)
		}
		if !price.IsPositive() {
			return decimal.Zero, fmt.Errorf("board %s: no trade: %w", id, lotplan.ErrUnavailable)
		}
		return price, nil
	}
	return decimal.Zero, fmt.Errorf("not traded on %s: %w", strings.Join(boards, ","), lotplan.ErrUnavailable)
}

func toDecimal(jval any) (decimal.Decimal, error) {
	switch v := jval.(type) {
	case nil:
		return decimal.Zero, nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("unexpected price %v: %w", jval, lotplan.ErrUnavailable)
	}
}
