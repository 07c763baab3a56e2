package renderer

import "github.com/etnz/lotplan"

// Catalog is a struct to represent a catalog for rendering.
type Catalog struct {
	Currency string        `json:"currency"`
	Lines    []CatalogLine `json:"lines"`
}

// CatalogLine is one instrument of the catalog.
type CatalogLine struct {
	Ticker  string          `json:"ticker"`
	Name    string          `json:"name"`
	LotSize int64           `json:"lotSize"`
	Weight  lotplan.Percent `json:"weight"`
}

// NewCatalog prepares c for rendering.
func NewCatalog(c *lotplan.Catalog) *Catalog {
	r := &Catalog{Currency: c.Currency(), Lines: make([]CatalogLine, 0, c.Len())}
	for _, in := range c.All() {
		r.Lines = append(r.Lines, CatalogLine{
			Ticker:  in.Ticker,
			Name:    in.Label(),
			LotSize: in.LotSize,
			Weight:  lotplan.Percent(in.Weight.InexactFloat64() * 100),
		})
	}
	return r
}
