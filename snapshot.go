package lotplan

import (
	"maps"
	"slices"
	"time"
)

// PriceSnapshot is the set of share prices captured once before an allocation.
//
// Only positive prices are kept, any other ticker is unavailable. A snapshot
// is never modified after creation, so it is safe to share between calls.
type PriceSnapshot struct {
	takenAt time.Time
	prices  map[string]Money
}

// NewPriceSnapshot returns a snapshot of the positive prices in prices.
func NewPriceSnapshot(takenAt time.Time, prices map[string]Money) *PriceSnapshot {
	s := &PriceSnapshot{
		takenAt: takenAt,
		prices:  make(map[string]Money, len(prices)),
	}
	for ticker, p := range prices {
		if p.IsPositive() {
			s.prices[ticker] = p
		}
	}
	return s
}

// TakenAt returns the time the prices were captured.
func (s *PriceSnapshot) TakenAt() time.Time { return s.takenAt }

// Price returns the price of one share, ok is false if the price is unavailable.
// A nil snapshot has no prices.
func (s *PriceSnapshot) Price(ticker string) (price Money, ok bool) {
	if s == nil {
		return Money{}, false
	}
	price, ok = s.prices[ticker]
	return
}

// Len returns the number of available prices.
func (s *PriceSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.prices)
}

// Tickers returns the sorted list of tickers with an available price.
func (s *PriceSnapshot) Tickers() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.prices))
}

// Missing returns the catalog tickers whose price is unavailable, in catalog order.
func (s *PriceSnapshot) Missing(c *Catalog) []string {
	var missing []string
	for _, in := range c.All() {
		if _, ok := s.Price(in.Ticker); !ok {
			missing = append(missing, in.Ticker)
		}
	}
	return missing
}
