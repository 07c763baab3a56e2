package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/etnz/lotplan"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var snapshotTime = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

func rub(v float64) lotplan.Money { return lotplan.M(v, "RUB") }

// testAllocation is the recommendation for 1000 RUB on A (lot 1 @ 90) and
// B (lot 10 @ 55) and an unpriced C.
func testAllocation(t *testing.T) (lotplan.Result, *lotplan.PriceSnapshot) {
	t.Helper()
	c, err := lotplan.NewCatalog("RUB",
		lotplan.Instrument{Ticker: "A", Name: "Alpha", LotSize: 1, Weight: decimal.New(4, -1)},
		lotplan.Instrument{Ticker: "B", LotSize: 10, Weight: decimal.New(4, -1)},
		lotplan.Instrument{Ticker: "C", LotSize: 1, Weight: decimal.New(2, -1)},
	)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	snap := lotplan.NewPriceSnapshot(snapshotTime, map[string]lotplan.Money{"A": rub(90), "B": rub(55)})
	res := lotplan.Allocate(lotplan.Request{
		Cash:     rub(1000),
		Holdings: lotplan.Holdings{"A": rub(100)},
		Catalog:  c,
		Prices:   snap,
	})
	return res, snap
}

// tables parses md as GitHub flavored markdown and returns the number of body
// rows of each table.
func tables(t *testing.T, md string) []int {
	t.Helper()
	src := []byte(md)
	doc := goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser().Parse(text.NewReader(src))
	var rows []int
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case east.KindTable:
			rows = append(rows, 0)
		case east.KindTableRow:
			rows[len(rows)-1]++
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("ast.Walk() error = %v", err)
	}
	return rows
}

func assertContains(t *testing.T, got string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output does not contain %q:\n%s", w, got)
		}
	}
}

func TestTemplatePartials(t *testing.T) {
	res, snap := testAllocation(t)
	alloc := NewAllocation(res, snap.TakenAt())
	prices := NewPrices(lotplan.DefaultCatalog(), lotplan.NewPriceSnapshot(snapshotTime, map[string]lotplan.Money{"SBER": rub(306.51)}))
	catalog := NewCatalog(lotplan.DefaultCatalog())

	testCases := []struct {
		name string
		data any
		want []string
	}{
		{
			name: "allocation_title",
			data: alloc,
			want: []string{"# Purchase Recommendation", "2025-03-03 10:00:00", rub(1000).String()},
		},
		{
			name: "allocation_lines",
			data: alloc,
			want: []string{"| Alpha (A) |", "| B (B) |", "N/A", rub(55).String() + " x 10"},
		},
		{
			name: "allocation_totals",
			data: alloc,
			want: []string{"New purchases", "Current investments", rub(100).String(), "price unavailable: C"},
		},
		{
			name: "prices_table",
			data: prices,
			want: []string{"| SBER | Сбербанк | " + rub(306.51).String(), "| LSNGP | ЛенЭнерго | N/A | 10 | N/A |"},
		},
		{
			name: "catalog_table",
			data: catalog,
			want: []string{"| LKOH | Лукойл | 1 | 25.0% |", "| LSNGP | ЛенЭнерго | 10 | 25.0% |"},
		},
	}

	// --- Coverage Check ---
	tested := make(map[string]struct{})
	for _, tc := range testCases {
		tested[tc.name+".md"] = struct{}{}
	}
	for _, partial := range partialTemplates(t) {
		if _, ok := tested[partial]; !ok {
			t.Errorf("untested template partial found: %s. Please add a test case to TestTemplatePartials.", partial)
		}
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := renderTemplate(tc.name, tc.name+".md", nil, tc.data)
			if strings.HasPrefix(got, "error ") {
				t.Fatalf("renderTemplate() failed: %s", got)
			}
			assertContains(t, got, tc.want...)
		})
	}
}

func TestRenderAllocation(t *testing.T) {
	res, snap := testAllocation(t)
	md := RenderAllocation(NewAllocation(res, snap.TakenAt()))

	if got := tables(t, md); len(got) != 2 || got[0] != 3 {
		t.Errorf("tables() = %v, want 2 tables, the first with 3 rows:\n%s", got, md)
	}
	for _, l := range res.Lines {
		if l.Lots > 0 {
			assertContains(t, md, l.Amount.String())
		}
	}
	assertContains(t, md, res.TotalAllocated.String(), res.TotalPortfolioAfter.String())
}

func TestRenderAllocation_NoHoldings(t *testing.T) {
	c, err := lotplan.NewCatalog("RUB",
		lotplan.Instrument{Ticker: "A", LotSize: 1, Weight: decimal.New(5, -1)},
		lotplan.Instrument{Ticker: "B", LotSize: 10, Weight: decimal.New(5, -1)},
	)
	if err != nil {
		t.Fatal(err)
	}
	snap := lotplan.NewPriceSnapshot(snapshotTime, map[string]lotplan.Money{"A": rub(100), "B": rub(50)})
	res := lotplan.Allocate(lotplan.Request{Cash: rub(1000), Catalog: c, Prices: snap})
	md := RenderAllocation(NewAllocation(res, snap.TakenAt()))

	for _, absent := range []string{"Current investments", "Left unspent", "price unavailable"} {
		if strings.Contains(md, absent) {
			t.Errorf("RenderAllocation() contains %q:\n%s", absent, md)
		}
	}
	// both lines are exactly on target
	if got := strings.Count(md, " ok |"); got != 2 {
		t.Errorf("RenderAllocation() has %d lines on target, want 2:\n%s", got, md)
	}
}

func TestNewAllocation(t *testing.T) {
	res, snap := testAllocation(t)
	a := NewAllocation(res, snap.TakenAt())
	if len(a.Lines) != 3 {
		t.Fatalf("len(Lines) = %d, want 3", len(a.Lines))
	}
	if a.Lines[0].Name != "Alpha" || a.Lines[1].Name != "B" {
		t.Errorf("names = %q,%q, want Alpha,B", a.Lines[0].Name, a.Lines[1].Name)
	}
	if len(a.Unavailable) != 1 || a.Unavailable[0] != "C" {
		t.Errorf("Unavailable = %v, want [C]", a.Unavailable)
	}
	if !a.Cash.Equal(rub(1000)) {
		t.Errorf("Cash = %v, want 1000", a.Cash)
	}
}

func TestRenderPrices(t *testing.T) {
	snap := lotplan.NewPriceSnapshot(snapshotTime, map[string]lotplan.Money{"LKOH": rub(7000), "LSNGP": rub(171.4)})
	md := RenderPrices(NewPrices(lotplan.DefaultCatalog(), snap))
	if got := tables(t, md); len(got) != 1 || got[0] != 4 {
		t.Errorf("tables() = %v, want 1 table with 4 rows:\n%s", got, md)
	}
	assertContains(t, md, "# Prices", "in RUB", rub(1714).String(), "| SBER | Сбербанк | N/A |")
}

func TestRenderCatalog(t *testing.T) {
	md := RenderCatalog(NewCatalog(lotplan.DefaultCatalog()))
	if got := tables(t, md); len(got) != 1 || got[0] != 4 {
		t.Errorf("tables() = %v, want 1 table with 4 rows:\n%s", got, md)
	}
	assertContains(t, md, "# Catalog", "*Amounts in RUB*", "| PHOR | Фосагро | 1 | 25.0% |")
}

// partialTemplates returns the embedded templates named after another
// template followed by an underscore.
func partialTemplates(t *testing.T) []string {
	t.Helper()
	files, err := templates.ReadDir(".")
	if err != nil {
		t.Fatalf("failed to read embedded templates: %v", err)
	}
	var names []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".md") {
			names = append(names, f.Name())
		}
	}
	var partials []string
	for _, name := range names {
		base := strings.TrimSuffix(name, ".md")
		for _, other := range names {
			if other != name && strings.HasPrefix(base, strings.TrimSuffix(other, ".md")+"_") {
				partials = append(partials, name)
				break
			}
		}
	}
	return partials
}
