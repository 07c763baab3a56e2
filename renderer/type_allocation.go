package renderer

import (
	"time"

	"github.com/etnz/lotplan"
)

// OnTargetDeviation is the largest deviation, in percentage points, still
// reported as on target.
const OnTargetDeviation lotplan.Percent = 1

// Allocation is a struct to represent a purchase recommendation for rendering.
type Allocation struct {
	// AsOf is the time the prices were captured.
	AsOf string `json:"asOf"`
	// Cash is the amount that was available for purchases.
	Cash lotplan.Money `json:"cash"`
	// Lines has one entry per catalog instrument, in catalog order.
	Lines []AllocationLine `json:"lines"`
	// TotalNew is the cost of the recommended purchases.
	TotalNew lotplan.Money `json:"totalNew"`
	// TotalAfter is the portfolio value once the purchases are made.
	TotalAfter lotplan.Money `json:"totalAfter"`
	// TotalCurrent is the portfolio value before the purchases.
	TotalCurrent lotplan.Money `json:"totalCurrent"`
	// Remaining is the cash left unspent.
	Remaining lotplan.Money `json:"remaining"`
	// Unavailable lists the tickers that could not be priced.
	Unavailable []string `json:"unavailable,omitempty"`
}

// AllocationLine is the recommendation for a single instrument.
type AllocationLine struct {
	Ticker    string          `json:"ticker"`
	Name      string          `json:"name"`
	Lots      int64           `json:"lots"`
	LotSize   int64           `json:"lotSize"`
	Price     lotplan.Money   `json:"price"`
	Priced    bool            `json:"priced"`
	Ideal     lotplan.Percent `json:"ideal"`
	Actual    lotplan.Percent `json:"actual"`
	Deviation lotplan.Percent `json:"deviation"`
	Current   lotplan.Money   `json:"current"`
	Amount    lotplan.Money   `json:"amount"`
}

// OnTarget reports whether the weight after purchase is within OnTargetDeviation of the target.
func (l AllocationLine) OnTarget() bool { return l.Deviation <= OnTargetDeviation }

// NewAllocation prepares res for rendering, takenAt is the price snapshot time.
func NewAllocation(res lotplan.Result, takenAt time.Time) *Allocation {
	a := &Allocation{
		AsOf:         takenAt.Format("2006-01-02 15:04:05"),
		Cash:         res.TotalAllocated.Add(res.Remaining),
		Lines:        make([]AllocationLine, 0, len(res.Lines)),
		TotalNew:     res.TotalAllocated,
		TotalAfter:   res.TotalPortfolioAfter,
		TotalCurrent: res.TotalCurrentValue,
		Remaining:    res.Remaining,
	}
	for _, l := range res.Lines {
		if !l.Priced {
			a.Unavailable = append(a.Unavailable, l.Instrument.Ticker)
		}
		a.Lines = append(a.Lines, AllocationLine{
			Ticker:    l.Instrument.Ticker,
			Name:      l.Instrument.Label(),
			Lots:      l.Lots,
			LotSize:   l.Instrument.LotSize,
			Price:     l.Price,
			Priced:    l.Priced,
			Ideal:     l.TargetWeight,
			Actual:    l.ActualWeight,
			Deviation: l.Deviation(),
			Current:   l.Current,
			Amount:    l.Amount,
		})
	}
	return a
}
