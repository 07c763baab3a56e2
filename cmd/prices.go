package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/lotplan/renderer"
	"github.com/google/subcommands"
)

type pricesCmd struct {
	prices kvFlag
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "show the latest price of every instrument" }
func (*pricesCmd) Usage() string {
	return `lotplan prices [-p T=price]...

  Fetches the latest price of every instrument of the catalog and the cost of one lot.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.prices, "p", "Manual price for a ticker, as TICKER=price, it overrides the provider. Can be repeated.")
}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	catalog, err := loadCatalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		return subcommands.ExitFailure
	}
	manual := (&planFlags{prices: c.prices}).manualPrices(catalog.Currency())
	prices, err := snapshot(ctx, catalog, manual)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderPrices(renderer.NewPrices(catalog, prices)))
	return subcommands.ExitSuccess
}
