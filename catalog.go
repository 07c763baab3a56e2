package lotplan

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/shopspring/decimal"
)

// WeightTolerance is the accepted distance between the sum of the target
// weights and 1.
var WeightTolerance = decimal.New(1, -6)

// ErrInvalidCatalog is the root of every catalog configuration error.
var ErrInvalidCatalog = errors.New("invalid catalog")

// CatalogError describes why a catalog has been rejected.
type CatalogError struct {
	Ticker string // empty when the error is about the whole catalog
	Reason string
}

func (e *CatalogError) Error() string {
	if e.Ticker == "" {
		return fmt.Sprintf("%v: %s", ErrInvalidCatalog, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", ErrInvalidCatalog, e.Ticker, e.Reason)
}

func (e *CatalogError) Unwrap() error { return ErrInvalidCatalog }

// Instrument is a security that can be bought by whole lots.
type Instrument struct {
	Ticker  string          `json:"ticker"`
	Name    string          `json:"name,omitempty"` // optional display name
	LotSize int64           `json:"lotSize"`        // shares per lot
	Weight  decimal.Decimal `json:"weight"`         // target fraction of the portfolio, in (0,1]
}

// LotCost returns the price of one lot at the given share price.
func (in Instrument) LotCost(price Money) Money {
	return price.Mul(Q(in.LotSize))
}

// Label returns the name if any, the ticker otherwise.
func (in Instrument) Label() string {
	if in.Name != "" {
		return in.Name
	}
	return in.Ticker
}

// Catalog is an ordered and validated set of instruments sharing a currency.
//
// The order is the configuration order, it is used to break ties
// deterministically. A Catalog is immutable once created.
type Catalog struct {
	currency    string
	instruments []Instrument
	index       map[string]int
}

// NewCatalog validates the instruments and returns a catalog.
//
// It returns a *CatalogError if a ticker is empty or duplicated, a lot size is
// not positive, a weight is outside (0,1], or if the weights do not sum to 1.
func NewCatalog(currency string, instruments ...Instrument) (*Catalog, error) {
	if len(instruments) == 0 {
		return nil, &CatalogError{Reason: "no instruments"}
	}
	c := &Catalog{
		currency:    strings.ToUpper(strings.TrimSpace(currency)),
		instruments: make([]Instrument, 0, len(instruments)),
		index:       make(map[string]int, len(instruments)),
	}
	sum := decimal.Zero
	one := decimal.NewFromInt(1)
	for _, in := range instruments {
		in.Ticker = strings.TrimSpace(in.Ticker)
		switch {
		case in.Ticker == "":
			return nil, &CatalogError{Reason: "empty ticker"}
		case in.LotSize <= 0:
			return nil, &CatalogError{Ticker: in.Ticker, Reason: fmt.Sprintf("lot size must be positive, got %d", in.LotSize)}
		case !in.Weight.IsPositive() || in.Weight.GreaterThan(one):
			return nil, &CatalogError{Ticker: in.Ticker, Reason: fmt.Sprintf("weight must be in (0,1], got %s", in.Weight)}
		}
		if _, exists := c.index[in.Ticker]; exists {
			return nil, &CatalogError{Ticker: in.Ticker, Reason: "duplicated ticker"}
		}
		c.index[in.Ticker] = len(c.instruments)
		c.instruments = append(c.instruments, in)
		sum = sum.Add(in.Weight)
	}
	if sum.Sub(one).Abs().GreaterThan(WeightTolerance) {
		return nil, &CatalogError{Reason: fmt.Sprintf("weights sum to %s, want 1", sum)}
	}
	return c, nil
}

// DefaultCatalog returns the built-in catalog of four MOEX blue chips in equal weights.
//
// The order breaks the remainder ties, PHOR comes first.
func DefaultCatalog() *Catalog {
	quarter := decimal.New(25, -2)
	c, err := NewCatalog("RUB",
		Instrument{Ticker: "PHOR", Name: "Фосагро", LotSize: 1, Weight: quarter},
		Instrument{Ticker: "LKOH", Name: "Лукойл", LotSize: 1, Weight: quarter},
		Instrument{Ticker: "LSNGP", Name: "ЛенЭнерго", LotSize: 10, Weight: quarter},
		Instrument{Ticker: "SBER", Name: "Сбербанк", LotSize: 1, Weight: quarter},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Currency returns the currency all prices and amounts are expressed in.
func (c *Catalog) Currency() string { return c.currency }

// Len returns the number of instruments.
func (c *Catalog) Len() int { return len(c.instruments) }

// Get returns the instrument for a ticker.
func (c *Catalog) Get(ticker string) (Instrument, bool) {
	i, ok := c.index[ticker]
	if !ok {
		return Instrument{}, false
	}
	return c.instruments[i], true
}

// Has reports whether ticker is part of the catalog.
func (c *Catalog) Has(ticker string) bool {
	_, ok := c.index[ticker]
	return ok
}

// All iterates over the instruments in catalog order.
func (c *Catalog) All() iter.Seq2[int, Instrument] {
	return func(yield func(int, Instrument) bool) {
		for i, in := range c.instruments {
			if !yield(i, in) {
				return
			}
		}
	}
}

// Tickers returns the tickers in catalog order.
func (c *Catalog) Tickers() []string {
	tickers := make([]string, len(c.instruments))
	for i, in := range c.instruments {
		tickers[i] = in.Ticker
	}
	return tickers
}
