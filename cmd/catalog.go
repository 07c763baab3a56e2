package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/lotplan"
	"github.com/etnz/lotplan/renderer"
	"github.com/google/subcommands"
)

type catalogCmd struct {
	check     string
	printInit bool
}

func (*catalogCmd) Name() string     { return "catalog" }
func (*catalogCmd) Synopsis() string { return "show, check or initialize a catalog" }
func (*catalogCmd) Usage() string {
	return `lotplan catalog [-check <file> | -init]

  Shows the instruments of the catalog with their lot size and target weight.
  With -check, validates a catalog file. With -init, prints the built-in catalog as YAML.
`
}

func (c *catalogCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.check, "check", "", "Validate the catalog file and report the number of instruments.")
	f.BoolVar(&c.printInit, "init", false, "Print the built-in catalog as YAML, to start a new catalog file.")
}

func (c *catalogCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch {
	case c.check != "" && c.printInit:
		fmt.Fprintln(os.Stderr, "Error: -check and -init flags cannot be used together.")
		return subcommands.ExitUsageError

	case c.check != "":
		catalog, err := lotplan.LoadCatalog(c.check)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking catalog: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("%s: ok, %d instruments\n", c.check, catalog.Len())
		return subcommands.ExitSuccess

	case c.printInit:
		if err := lotplan.EncodeCatalog(os.Stdout, lotplan.DefaultCatalog()); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding catalog: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	catalog, err := loadCatalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderCatalog(renderer.NewCatalog(catalog)))
	return subcommands.ExitSuccess
}
