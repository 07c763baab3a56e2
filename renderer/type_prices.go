package renderer

import (
	"time"

	"github.com/etnz/lotplan"
)

// Prices is a struct to represent a price snapshot for rendering.
type Prices struct {
	AsOf     string      `json:"asOf"`
	Currency string      `json:"currency"`
	Lines    []PriceLine `json:"lines"`
}

// PriceLine is the price of one catalog instrument.
type PriceLine struct {
	Ticker    string        `json:"ticker"`
	Name      string        `json:"name"`
	LotSize   int64         `json:"lotSize"`
	Available bool          `json:"available"`
	Price     lotplan.Money `json:"price"`
	LotCost   lotplan.Money `json:"lotCost"`
}

// NewPrices lists the snapshot prices of every catalog instrument.
func NewPrices(c *lotplan.Catalog, s *lotplan.PriceSnapshot) *Prices {
	var takenAt time.Time
	if s != nil {
		takenAt = s.TakenAt()
	}
	p := &Prices{
		AsOf:     takenAt.Format("2006-01-02 15:04:05"),
		Currency: c.Currency(),
		Lines:    make([]PriceLine, 0, c.Len()),
	}
	for _, in := range c.All() {
		price, ok := s.Price(in.Ticker)
		line := PriceLine{
			Ticker:    in.Ticker,
			Name:      in.Label(),
			LotSize:   in.LotSize,
			Available: ok,
		}
		if ok {
			line.Price = price
			line.LotCost = in.LotCost(price)
		}
		p.Lines = append(p.Lines, line)
	}
	return p
}
