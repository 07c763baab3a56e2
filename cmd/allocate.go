package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/lotplan"
	"github.com/etnz/lotplan/renderer"
	"github.com/google/subcommands"
)

type allocateCmd struct {
	planFlags
	cash   string
	rerank bool
	json   bool
}

func (*allocateCmd) Name() string     { return "allocate" }
func (*allocateCmd) Synopsis() string { return "recommend the lots to buy with some cash" }
func (*allocateCmd) Usage() string {
	return `lotplan allocate [-cash <amount> | <amount>] [-h T=value]... [-s T=shares]... [-p T=price]... [-holdings <file>] [-rerank] [-json]

  Recommends how many lots to buy for each instrument of the catalog so that the
  portfolio gets closer to the target weights, without spending more than the cash.
`
}

func (c *allocateCmd) SetFlags(f *flag.FlagSet) {
	c.planFlags.SetFlags(f)
	f.StringVar(&c.cash, "cash", "", "Amount to invest, in the catalog currency.")
	f.BoolVar(&c.rerank, "rerank", false, "Buy the remainder one lot at a time, ranking the instruments again after each lot.")
	f.BoolVar(&c.json, "json", false, "Print the result as JSON.")
}

func (c *allocateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cashArg := c.cash
	if cashArg == "" && f.NArg() > 0 {
		cashArg = f.Arg(0)
	}

	catalog, err := loadCatalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		return subcommands.ExitFailure
	}
	prices, err := snapshot(ctx, catalog, c.manualPrices(catalog.Currency()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", err)
		return subcommands.ExitFailure
	}
	holdings, err := c.holdings(catalog, prices)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading holdings: %v\n", err)
		return subcommands.ExitFailure
	}

	res := lotplan.AllocateWith(lotplan.Request{
		Cash:     lotplan.ParseAmount(cashArg, catalog.Currency()),
		Holdings: holdings,
		Catalog:  catalog,
		Prices:   prices,
	}, lotplan.Options{Rerank: c.rerank})

	if c.json {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(string(out))
		return subcommands.ExitSuccess
	}

	printMarkdown(renderer.RenderAllocation(renderer.NewAllocation(res, prices.TakenAt())))
	return subcommands.ExitSuccess
}
