package lotplan

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// This file contains code to persist the catalog and the holdings in small
// human editable YAML files.
//
// A catalog file looks like:
//
//	currency: RUB
//	instruments:
//	  - ticker: LKOH
//	    name: Лукойл
//	    lot: 1
//	    weight: 0.25
//
// A holdings file maps tickers to either a value or a number of shares:
//
//	LKOH: {value: 120000}
//	SBER: {shares: 300}

// ycatalog is the object read from the catalog file.
type ycatalog struct {
	Currency    string        `yaml:"currency"`
	Instruments []yinstrument `yaml:"instruments"`
}

type yinstrument struct {
	Ticker string  `yaml:"ticker"`
	Name   string  `yaml:"name,omitempty"`
	Lot    int64   `yaml:"lot"`
	Weight float64 `yaml:"weight"`
}

// DecodeCatalog reads and validates a YAML catalog.
//
// Validation errors wrap ErrInvalidCatalog.
func DecodeCatalog(r io.Reader) (*Catalog, error) {
	var yc ycatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&yc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CatalogError{Reason: "empty file"}
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	instruments := make([]Instrument, 0, len(yc.Instruments))
	for _, yi := range yc.Instruments {
		instruments = append(instruments, Instrument{
			Ticker:  yi.Ticker,
			Name:    yi.Name,
			LotSize: yi.Lot,
			Weight:  decimal.NewFromFloat(yi.Weight),
		})
	}
	return NewCatalog(yc.Currency, instruments...)
}

// EncodeCatalog writes the catalog in the format read by DecodeCatalog.
func EncodeCatalog(w io.Writer, c *Catalog) error {
	yc := ycatalog{Currency: c.Currency()}
	for _, in := range c.All() {
		yc.Instruments = append(yc.Instruments, yinstrument{
			Ticker: in.Ticker,
			Name:   in.Name,
			Lot:    in.LotSize,
			Weight: in.Weight.InexactFloat64(),
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yc); err != nil {
		return err
	}
	return enc.Close()
}

// LoadCatalog decodes the catalog file at path.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := DecodeCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %q: %w", path, err)
	}
	return c, nil
}

// yposition is a line of the holdings file.
type yposition struct {
	Value  *float64 `yaml:"value"`
	Shares *float64 `yaml:"shares"`
}

// HoldingsFile is a decoded holdings file. Values are amounts in the catalog
// currency, Shares are converted using a price snapshot.
type HoldingsFile struct {
	Values map[string]Money
	Shares map[string]Quantity
}

// Holdings returns the value held per ticker, counting shares at the snapshot prices.
func (f HoldingsFile) Holdings(prices *PriceSnapshot) Holdings {
	return Holdings(f.Values).Merge(HoldingsFromShares(f.Shares, prices))
}

// DecodeHoldings reads a YAML holdings file. Negative entries are read as zero.
func DecodeHoldings(r io.Reader, currency string) (HoldingsFile, error) {
	hf := HoldingsFile{Values: make(map[string]Money), Shares: make(map[string]Quantity)}
	var content map[string]yposition
	if err := yaml.NewDecoder(r).Decode(&content); err != nil && !errors.Is(err, io.EOF) {
		return hf, fmt.Errorf("cannot decode holdings: %w", err)
	}
	for ticker, p := range content {
		switch {
		case p.Value != nil && p.Shares != nil:
			return hf, fmt.Errorf("holding %s: value and shares are exclusive", ticker)
		case p.Value != nil:
			hf.Values[ticker] = M(max(*p.Value, 0), currency)
		case p.Shares != nil:
			hf.Shares[ticker] = Q(max(*p.Shares, 0))
		}
	}
	return hf, nil
}
