package lotplan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrUnavailable is returned by a PriceSource that has no price for a ticker.
var ErrUnavailable = errors.New("price unavailable")

// PriceSource retrieves the latest price of one share.
//
// Implementations must be safe for concurrent use, a snapshot asks for all
// tickers in parallel.
type PriceSource interface {
	Price(ctx context.Context, ticker string) (Money, error)
}

// PriceSourceFunc adapts a function to a PriceSource.
type PriceSourceFunc func(ctx context.Context, ticker string) (Money, error)

func (f PriceSourceFunc) Price(ctx context.Context, ticker string) (Money, error) {
	return f(ctx, ticker)
}

// StaticPrices is a PriceSource backed by a fixed map.
type StaticPrices map[string]Money

func (s StaticPrices) Price(_ context.Context, ticker string) (Money, error) {
	p, ok := s[ticker]
	if !ok {
		return Money{}, fmt.Errorf("%s: %w", ticker, ErrUnavailable)
	}
	return p, nil
}

// Layered asks each source in turn and returns the first positive price.
type Layered []PriceSource

func (l Layered) Price(ctx context.Context, ticker string) (Money, error) {
	err := fmt.Errorf("%s: %w", ticker, ErrUnavailable)
	for _, src := range l {
		p, e := src.Price(ctx, ticker)
		if e == nil && p.IsPositive() {
			return p, nil
		}
		if e != nil {
			err = e
		}
	}
	return Money{}, err
}

// DefaultConcurrency is the number of simultaneous lookups used by FetchSnapshot
// when none is given.
const DefaultConcurrency = 4

// FetchSnapshot asks src for the price of every catalog instrument and returns
// the resulting snapshot.
//
// Lookups run in parallel, at most concurrency at a time, and fail
// independently: a failed or non positive price, or one in another currency
// than the catalog's, is logged and left unavailable.
// The only error returned is the context's, in which case no snapshot is built.
func FetchSnapshot(ctx context.Context, src PriceSource, c *Catalog, concurrency int) (*PriceSnapshot, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	tickers := c.Tickers()
	prices := make([]Money, len(tickers))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, ticker := range tickers {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			p, err := src.Price(ctx, ticker)
			if err != nil {
				log.Printf("price for %s: %v", ticker, err)
				return nil
			}
			if !p.IsPositive() {
				log.Printf("price for %s: ignoring non positive price %v", ticker, p.value)
				return nil
			}
			if p.cur != "" && p.cur != c.Currency() {
				log.Printf("price for %s: ignoring price in %s, the catalog is in %s", ticker, p.cur, c.Currency())
				return nil
			}
			prices[i] = p
			return nil
		})
	}
	_ = g.Wait() // lookups never fail the group

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	m := make(map[string]Money, len(tickers))
	for i, ticker := range tickers {
		if prices[i].IsPositive() {
			m[ticker] = prices[i]
		}
	}
	return NewPriceSnapshot(time.Now(), m), nil
}
