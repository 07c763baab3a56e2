package lotplan

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

// RUB is a helper for test to create rouble money from const
func RUB(v float64) Money { return M(v, "RUB") }

// NO is a helper for test to create money from const with no currency set
func NO(v float64) Money { return M(v, "") }

// W is a helper for test to create a weight from const
func W(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// must panics if err is not nil.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// ab returns the two instruments catalog used by most tests.
func ab(t *testing.T, lotA, lotB int64) *Catalog {
	t.Helper()
	c, err := NewCatalog("RUB",
		Instrument{Ticker: "A", LotSize: lotA, Weight: W(0.5)},
		Instrument{Ticker: "B", LotSize: lotB, Weight: W(0.5)},
	)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	return c
}

// prices returns a snapshot taken at a fixed time.
func prices(p map[string]Money) *PriceSnapshot {
	return NewPriceSnapshot(time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC), p)
}

// moneyExact compares money values digit by digit.
var moneyExact = cmp.Comparer(func(a, b Money) bool {
	return a.cur == b.cur && a.value.String() == b.value.String()
})

// decimalExact compares decimal values digit by digit.
var decimalExact = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.String() == b.String()
})
