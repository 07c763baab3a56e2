package lotplan

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Holdings maps a ticker to the current market value already held.
// Missing tickers hold nothing.
type Holdings map[string]Money

// value returns the held amount for ticker, negative amounts count as zero.
func (h Holdings) value(ticker string) decimal.Decimal {
	m, ok := h[ticker]
	if !ok || m.IsNegative() {
		return decimal.Zero
	}
	return m.value
}

// Total returns the sum of the held amounts for the catalog instruments.
func (h Holdings) Total(c *Catalog) Money {
	total := decimal.Zero
	for _, in := range c.All() {
		total = total.Add(h.value(in.Ticker))
	}
	return Money{value: total, cur: c.Currency()}
}

// HoldingsFromShares values a number of shares held per ticker at the snapshot
// prices. A ticker without price is valued zero.
func HoldingsFromShares(shares map[string]Quantity, prices *PriceSnapshot) Holdings {
	h := make(Holdings, len(shares))
	for ticker, q := range shares {
		if !q.IsPositive() {
			continue
		}
		p, ok := prices.Price(ticker)
		if !ok {
			continue
		}
		h[ticker] = p.Mul(q)
	}
	return h
}

// Merge returns a new Holdings with the amounts of both h and other, summed
// when a ticker appears in both.
func (h Holdings) Merge(other Holdings) Holdings {
	res := make(Holdings, len(h)+len(other))
	for t, m := range h {
		res[t] = m
	}
	for t, m := range other {
		if prev, ok := res[t]; ok {
			res[t] = prev.Add(m)
			continue
		}
		res[t] = m
	}
	return res
}

// ParseAmount reads a user typed amount. Empty, non numeric and negative inputs
// are read as zero, commas are accepted as decimal separators and spaces are
// ignored.
func ParseAmount(s, currency string) Money {
	return M(parseNonNegative(s), currency)
}

// ParseQuantity reads a user typed number of shares with the same rules as ParseAmount.
func ParseQuantity(s string) Quantity {
	return Q(parseNonNegative(s))
}

func parseNonNegative(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "") // non-breaking space of formatted amounts
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
