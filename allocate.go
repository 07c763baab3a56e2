package lotplan

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Request holds everything an allocation needs. The core only reads it.
type Request struct {
	Cash     Money          // amount to spend, negative is read as zero
	Holdings Holdings       // current value held per ticker
	Catalog  *Catalog       // instruments and target weights
	Prices   *PriceSnapshot // share prices, missing tickers are skipped
}

// Options tunes the remainder distribution.
type Options struct {
	// Rerank buys the remainder one lot at a time, ranking the instruments
	// again after each lot. The default is a single pass over a ranking fixed
	// beforehand where each affordable instrument buys as many lots as it can,
	// so the first one may absorb cash that a more underweight one would need
	// after that purchase.
	Rerank bool
}

// Result is the recommended purchase.
type Result struct {
	Currency            string           `json:"currency"`
	Lots                map[string]int64 `json:"lots"`      // lots to buy, tickers without purchase are absent
	Allocated           map[string]Money `json:"allocated"` // cost of the lots to buy
	TotalAllocated      Money            `json:"totalAllocated"`
	TotalPortfolioAfter Money            `json:"totalPortfolioAfter"`
	TotalCurrentValue   Money            `json:"totalCurrentValue"`
	Remaining           Money            `json:"remaining"` // cash left unspent
	Lines               []Line           `json:"lines"`     // one line per catalog instrument, in catalog order
}

// Line describes the outcome for one instrument.
type Line struct {
	Instrument   Instrument `json:"instrument"`
	Price        Money      `json:"price"` // zero when unavailable
	Priced       bool       `json:"priced"`
	Current      Money      `json:"current"` // value held before the purchase
	Target       Money      `json:"target"`  // target value after the purchase
	Lots         int64      `json:"lots"`
	Amount       Money      `json:"amount"` // cost of the purchased lots
	TargetWeight Percent    `json:"targetWeight"`
	ActualWeight Percent    `json:"actualWeight"` // weight after the purchase
}

// Deviation returns the distance between the actual and the target weight.
func (l Line) Deviation() Percent { return (l.ActualWeight - l.TargetWeight).Abs() }

// Allocate computes the lots to buy with req.Cash so that the portfolio gets as
// close as possible to the catalog target weights.
//
// The cash is first split in proportion to each instrument deficit against its
// target, buying whole lots only. What is left because of the lot rounding is
// then spent in a single pass over the instruments ranked from the most
// underweight, buying as many lots as possible for each.
//
// Allocate is a pure function of req, it never spends more than req.Cash.
func Allocate(req Request) Result { return AllocateWith(req, Options{}) }

// AllocateWith is Allocate with options.
func AllocateWith(req Request, opts Options) Result {
	if req.Catalog == nil {
		return Result{Lots: map[string]int64{}, Allocated: map[string]Money{}}
	}
	a := newAllocation(req)
	a.computeDeficits()
	a.allocateProportionally()
	if opts.Rerank {
		for a.buyMostUnderweightLot() {
		}
	} else {
		a.distributeRemainder()
	}
	return a.result()
}

// allocation holds the running totals of a single Allocate call.
// Slices are indexed in catalog order.
type allocation struct {
	catalog *Catalog
	cash    decimal.Decimal

	price   []decimal.Decimal // zero when unavailable
	lotCost []decimal.Decimal // zero when unavailable
	current []decimal.Decimal
	target  []decimal.Decimal
	deficit []decimal.Decimal
	lots    []int64
	spent   []decimal.Decimal

	totalCurrent   decimal.Decimal
	totalDeficit   decimal.Decimal
	totalAllocated decimal.Decimal
	remaining      decimal.Decimal
}

func newAllocation(req Request) *allocation {
	n := req.Catalog.Len()
	cash := req.Cash.value
	if cash.IsNegative() {
		cash = decimal.Zero
	}
	a := &allocation{
		catalog:   req.Catalog,
		cash:      cash,
		price:     make([]decimal.Decimal, n),
		lotCost:   make([]decimal.Decimal, n),
		current:   make([]decimal.Decimal, n),
		target:    make([]decimal.Decimal, n),
		deficit:   make([]decimal.Decimal, n),
		lots:      make([]int64, n),
		spent:     make([]decimal.Decimal, n),
		remaining: cash,
	}
	for i, in := range req.Catalog.All() {
		a.current[i] = req.Holdings.value(in.Ticker)
		if p, ok := req.Prices.Price(in.Ticker); ok {
			a.price[i] = p.value
			a.lotCost[i] = p.value.Mul(decimal.NewFromInt(in.LotSize))
		}
	}
	return a
}

func (a *allocation) priced(i int) bool { return a.lotCost[i].IsPositive() }

// computeDeficits computes each instrument shortfall against its share of the
// portfolio after the purchase.
func (a *allocation) computeDeficits() {
	for i := range a.current {
		a.totalCurrent = a.totalCurrent.Add(a.current[i])
	}
	after := a.totalCurrent.Add(a.cash)
	for i, in := range a.catalog.All() {
		a.target[i] = after.Mul(in.Weight)
		d := a.target[i].Sub(a.current[i])
		if d.IsNegative() {
			d = decimal.Zero
		}
		a.deficit[i] = d
		a.totalDeficit = a.totalDeficit.Add(d)
	}
}

// allocateProportionally gives each instrument a budget proportional to its
// deficit and buys the whole lots that fit in it. Each budget only depends on
// the instrument own deficit, so the order does not matter.
func (a *allocation) allocateProportionally() {
	if !a.totalDeficit.IsPositive() {
		return
	}
	for i := range a.deficit {
		if !a.priced(i) || !a.deficit[i].IsPositive() {
			continue
		}
		budget := a.cash.Mul(a.deficit[i]).Div(a.totalDeficit)
		lots := affordableLots(decimal.Min(budget, a.remaining), a.lotCost[i])
		if lots > 0 {
			a.buy(i, lots)
		}
	}
}

// ranking returns the instrument indexes sorted by decreasing relative
// deviation from their target, ties keep the catalog order.
func (a *allocation) ranking() []int {
	deviation := make([]decimal.Decimal, len(a.target))
	order := make([]int, len(a.target))
	for i := range a.target {
		order[i] = i
		if a.target[i].IsZero() {
			continue // no target, not eligible for a better rank
		}
		held := a.current[i].Add(a.spent[i])
		deviation[i] = a.target[i].Sub(held).Div(a.target[i])
	}
	sort.SliceStable(order, func(x, y int) bool {
		return deviation[order[x]].GreaterThan(deviation[order[y]])
	})
	return order
}

// distributeRemainder spends the remaining cash in one pass over the
// instruments ranked by deviation. The ranking is computed once, before the
// first purchase, and each affordable instrument buys as many lots as it can.
func (a *allocation) distributeRemainder() {
	if !a.remaining.IsPositive() {
		return
	}
	for _, i := range a.ranking() {
		if !a.priced(i) || a.remaining.LessThan(a.lotCost[i]) {
			continue
		}
		if lots := affordableLots(a.remaining, a.lotCost[i]); lots > 0 {
			a.buy(i, lots)
		}
	}
}

// buyMostUnderweightLot buys a single lot of the best ranked affordable
// instrument. It reports whether a lot was bought.
func (a *allocation) buyMostUnderweightLot() bool {
	if !a.remaining.IsPositive() {
		return false
	}
	for _, i := range a.ranking() {
		if a.priced(i) && a.remaining.GreaterThanOrEqual(a.lotCost[i]) {
			a.buy(i, 1)
			return true
		}
	}
	return false
}

// buy records the purchase of lots for instrument i.
func (a *allocation) buy(i int, lots int64) {
	amount := a.lotCost[i].Mul(decimal.NewFromInt(lots))
	a.lots[i] += lots
	a.spent[i] = a.spent[i].Add(amount)
	a.totalAllocated = a.totalAllocated.Add(amount)
	a.remaining = a.remaining.Sub(amount)
}

// affordableLots returns floor(amount/lotCost). The division is rounded at
// decimal.DivisionPrecision so the result is checked back with an exact product.
func affordableLots(amount, lotCost decimal.Decimal) int64 {
	if !amount.IsPositive() || !lotCost.IsPositive() {
		return 0
	}
	lots := amount.Div(lotCost).Floor().IntPart()
	for lots > 0 && lotCost.Mul(decimal.NewFromInt(lots)).GreaterThan(amount) {
		lots--
	}
	return lots
}

func (a *allocation) result() Result {
	cur := a.catalog.Currency()
	m := func(d decimal.Decimal) Money { return Money{value: d, cur: cur} }

	after := a.totalCurrent.Add(a.totalAllocated)
	res := Result{
		Currency:            cur,
		Lots:                make(map[string]int64),
		Allocated:           make(map[string]Money),
		TotalAllocated:      m(a.totalAllocated),
		TotalPortfolioAfter: m(after),
		TotalCurrentValue:   m(a.totalCurrent),
		Remaining:           m(a.remaining),
		Lines:               make([]Line, 0, a.catalog.Len()),
	}
	for i, in := range a.catalog.All() {
		if a.lots[i] > 0 {
			res.Lots[in.Ticker] = a.lots[i]
			res.Allocated[in.Ticker] = m(a.spent[i])
		}
		res.Lines = append(res.Lines, Line{
			Instrument:   in,
			Price:        m(a.price[i]),
			Priced:       a.priced(i),
			Current:      m(a.current[i]),
			Target:       m(a.target[i]),
			Lots:         a.lots[i],
			Amount:       m(a.spent[i]),
			TargetWeight: Percent(in.Weight.InexactFloat64() * 100),
			ActualWeight: percentOf(a.current[i].Add(a.spent[i]), after),
		})
	}
	return res
}
