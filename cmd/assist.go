package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/lotplan"
	"github.com/etnz/lotplan/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// assistCmd is the subcommand for the AI assistant.
type assistCmd struct {
	planFlags
	cash   string
	rerank bool
}

// Name returns the name of the command.
func (*assistCmd) Name() string { return "assist" }

// Synopsis returns a short-one line synopsis of the command.
func (*assistCmd) Synopsis() string { return "discuss the recommendation with the AI assistant" }

// Usage returns a long-form usage string.
func (*assistCmd) Usage() string {
	return `lotplan assist [-cash <amount>] [-h T=value]... [-s T=shares]... [-p T=price]... [-holdings <file>] [<prompt>...]

  Starts an interactive session with the AI assistant, it knows the catalog, the
  holdings and the prices, and computes recommendations on demand.
  Requires GEMINI_API_KEY, or the Vertex AI environment.
`
}

// SetFlags sets the flags for the command.
func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	c.planFlags.SetFlags(f)
	f.StringVar(&c.cash, "cash", "", "Amount to invest, in the catalog currency.")
	f.BoolVar(&c.rerank, "rerank", false, "Buy the remainder one lot at a time, ranking the instruments again after each lot.")
}

// Execute executes the command.
func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	initialPrompt := ""
	if f.NArg() > 0 {
		initialPrompt = strings.Join(f.Args(), " ")
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

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	planner := agent.NewPlanner(&agent.Plan{
		Catalog:  catalog,
		Prices:   prices,
		Holdings: holdings,
		Cash:     lotplan.ParseAmount(c.cash, catalog.Currency()),
		Options:  lotplan.Options{Rerank: c.rerank},
	})
	a := agent.New(os.Stdout, os.Stdin, agent.NewTrader(), planner)
	if !*raw {
		a.Format = func(md string) string {
			out, err := glamour.Render(md, "auto")
			if err != nil {
				return md
			}
			return out
		}
	}

	if err := a.Run(ctx, client, initialPrompt); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
