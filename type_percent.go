package lotplan

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a display ratio, 25 means 25%.
type Percent float64

// percentOf returns the ratio a/b as a Percent, 0 when b is not positive.
func percentOf(a, b decimal.Decimal) Percent {
	if !b.IsPositive() {
		return 0
	}
	return Percent(a.Div(b).InexactFloat64() * 100)
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

// Abs returns the absolute value of p.
func (p Percent) Abs() Percent {
	if p < 0 {
		return -p
	}
	return p
}

func (p Percent) String() string {
	return fmt.Sprintf("%.1f%%", float64(p))
}
