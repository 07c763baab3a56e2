// Package alpaca reads US equity prices from the Alpaca market data API.
package alpaca

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/etnz/lotplan"
	"github.com/shopspring/decimal"
)

// Client is a lotplan.PriceSource returning the latest trade price, or the
// quote midpoint when no trade is reported.
type Client struct {
	md       *marketdata.Client
	feed     marketdata.Feed
	currency string
}

var _ lotplan.PriceSource = (*Client)(nil)

// Currency of the Alpaca prices.
const Currency = "USD"

// New returns a client using the given keys. Empty keys are read by the
// Alpaca SDK from APCA_API_KEY_ID and APCA_API_SECRET_KEY.
func New(apiKey, apiSecret string) *Client {
	return &Client{
		md:       marketdata.NewClient(marketdata.ClientOpts{APIKey: apiKey, APISecret: apiSecret}),
		feed:     marketdata.IEX, // free plan
		currency: Currency,
	}
}

// Price implements lotplan.PriceSource. The SDK calls are not cancellable so
// ctx is only checked before the request.
func (c *Client) Price(ctx context.Context, ticker string) (lotplan.Money, error) {
	if err := ctx.Err(); err != nil {
		return lotplan.Money{}, err
	}
	trade, err := c.md.GetLatestTrade(ticker, marketdata.GetLatestTradeRequest{Feed: c.feed})
	if err != nil {
		return lotplan.Money{}, fmt.Errorf("error retrieving %q: %w", ticker, err)
	}
	if trade != nil && trade.Price > 0 {
		return lotplan.M(decimal.NewFromFloat(trade.Price), c.currency), nil
	}

	q, err := c.md.GetLatestQuote(ticker, marketdata.GetLatestQuoteRequest{Feed: c.feed})
	if err != nil {
		return lotplan.Money{}, fmt.Errorf("error retrieving %q quote: %w", ticker, err)
	}
	if q == nil || q.BidPrice <= 0 || q.AskPrice <= 0 {
		return lotplan.Money{}, fmt.Errorf("%s: no trade nor quote: %w", ticker, lotplan.ErrUnavailable)
	}
	mid := decimal.NewFromFloat(q.BidPrice).Add(decimal.NewFromFloat(q.AskPrice)).Div(decimal.NewFromInt(2))
	return lotplan.M(mid, c.currency), nil
}
