package cmd

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/etnz/lotplan"
)

// kvFlag is a repeatable TICKER=value flag.
type kvFlag map[string]string

func (kv *kvFlag) String() string {
	if kv == nil || *kv == nil {
		return ""
	}
	pairs := make([]string, 0, len(*kv))
	for k, v := range *kv {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (kv *kvFlag) Set(s string) error {
	ticker, value, ok := strings.Cut(s, "=")
	ticker = strings.TrimSpace(ticker)
	if !ok || ticker == "" {
		return fmt.Errorf("invalid %q, want TICKER=value", s)
	}
	if *kv == nil {
		*kv = make(kvFlag)
	}
	(*kv)[ticker] = strings.TrimSpace(value)
	return nil
}

// planFlags are the flags describing the user's situation.
type planFlags struct {
	values       kvFlag
	shares       kvFlag
	prices       kvFlag
	holdingsFile string
}

func (p *planFlags) SetFlags(f *flag.FlagSet) {
	f.Var(&p.values, "h", "Value held for a ticker, as TICKER=amount. Can be repeated.")
	f.Var(&p.shares, "s", "Shares held for a ticker, as TICKER=shares. Can be repeated.")
	f.Var(&p.prices, "p", "Manual price for a ticker, as TICKER=price, it overrides the provider. Can be repeated.")
	f.StringVar(&p.holdingsFile, "holdings", "", "Path to a holdings file (YAML).")
}

// manualPrices returns the -p prices in currency.
func (p *planFlags) manualPrices(currency string) lotplan.StaticPrices {
	prices := make(lotplan.StaticPrices, len(p.prices))
	for t, v := range p.prices {
		prices[t] = lotplan.ParseAmount(v, currency)
	}
	return prices
}

// holdings returns the value held per ticker, shares are counted at the
// snapshot prices.
func (p *planFlags) holdings(c *lotplan.Catalog, prices *lotplan.PriceSnapshot) (lotplan.Holdings, error) {
	file := lotplan.HoldingsFile{}
	if p.holdingsFile != "" {
		f, err := os.Open(p.holdingsFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		file, err = lotplan.DecodeHoldings(f, c.Currency())
		if err != nil {
			return nil, fmt.Errorf("holdings %q: %w", p.holdingsFile, err)
		}
	}
	values := make(lotplan.Holdings, len(p.values))
	for t, v := range p.values {
		values[t] = lotplan.ParseAmount(v, c.Currency())
	}
	shares := make(map[string]lotplan.Quantity, len(p.shares))
	for t, v := range p.shares {
		shares[t] = lotplan.ParseQuantity(v)
	}
	h := file.Holdings(prices).
		Merge(values).
		Merge(lotplan.HoldingsFromShares(shares, prices))
	return h, nil
}
