// Package cmd implements the CLI application to plan lot purchases.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/lotplan"
	"github.com/etnz/lotplan/alpaca"
	"github.com/etnz/lotplan/moex"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&allocateCmd{}, "planning")
	c.Register(&pricesCmd{}, "planning")
	c.Register(&catalogCmd{}, "planning")
	c.Register(&assistCmd{}, "planning")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	catalogFile = flag.String("catalog", "", "Path to the catalog file (YAML), the built-in catalog by default")
	provider    = flag.String("provider", "moex", "Price provider: moex, alpaca or static")
	concurrency = flag.Int("concurrency", lotplan.DefaultConcurrency, "Number of prices fetched at the same time")
	cacheTTL    = flag.Duration("cache", 0, "Keep the provider answers on disk for this duration, 0 disables the cache")
	raw         = flag.Bool("raw", false, "Print markdown as is, without terminal rendering")
	verbose     = flag.Bool("v", false, "Log the price lookups")
)

// Env holds the flag defaults read from the environment, LOTPLAN_CATALOG etc.
type Env struct {
	Catalog     string        `envconfig:"CATALOG"`
	Provider    string        `envconfig:"PROVIDER"`
	Concurrency int           `envconfig:"CONCURRENCY"`
	Cache       time.Duration `envconfig:"CACHE"`
	Raw         bool          `envconfig:"RAW"`
	Verbose     bool          `envconfig:"VERBOSE"`
}

// LoadEnv loads the .env files if any and applies the LOTPLAN_* variables as
// defaults of the global flags. It must be called before flag.Parse.
func LoadEnv(fs *flag.FlagSet, dotenv ...string) error {
	if err := godotenv.Load(dotenv...); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot load .env: %w", err)
	}
	var env Env
	if err := envconfig.Process("lotplan", &env); err != nil {
		return err
	}
	defaults := map[string]string{}
	if env.Catalog != "" {
		defaults["catalog"] = env.Catalog
	}
	if env.Provider != "" {
		defaults["provider"] = env.Provider
	}
	if env.Concurrency > 0 {
		defaults["concurrency"] = strconv.Itoa(env.Concurrency)
	}
	if env.Cache > 0 {
		defaults["cache"] = env.Cache.String()
	}
	if env.Raw {
		defaults["raw"] = "true"
	}
	if env.Verbose {
		defaults["v"] = "true"
	}
	for name, value := range defaults {
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("invalid environment default for -%s: %w", name, err)
		}
	}
	return nil
}

// SetupLog silences the log unless -v is set.
func SetupLog() {
	if !*verbose {
		log.SetOutput(io.Discard)
	}
}

// loadCatalog returns the catalog from the -catalog file or the built-in one.
func loadCatalog() (*lotplan.Catalog, error) {
	if *catalogFile == "" {
		return lotplan.DefaultCatalog(), nil
	}
	return lotplan.LoadCatalog(*catalogFile)
}

// newPriceSource returns the -provider source, manual prices take precedence.
func newPriceSource(name, currency string, manual lotplan.StaticPrices) (lotplan.PriceSource, error) {
	var src lotplan.PriceSource
	switch name {
	case "moex":
		var opts []moex.Option
		if *cacheTTL > 0 {
			opts = append(opts, moex.WithCache("", *cacheTTL))
		}
		src = moex.New(currency, opts...)
	case "alpaca":
		if currency != alpaca.Currency {
			return nil, fmt.Errorf("the alpaca provider prices in %s, the catalog is in %s", alpaca.Currency, currency)
		}
		src = alpaca.New(os.Getenv("APCA_API_KEY_ID"), os.Getenv("APCA_API_SECRET_KEY"))
	case "static":
		return manual, nil
	default:
		return nil, fmt.Errorf("unknown price provider %q, want moex, alpaca or static", name)
	}
	if len(manual) == 0 {
		return src, nil
	}
	return lotplan.Layered{manual, src}, nil
}

// snapshot fetches the catalog prices with the global flags.
func snapshot(ctx context.Context, c *lotplan.Catalog, manual lotplan.StaticPrices) (*lotplan.PriceSnapshot, error) {
	src, err := newPriceSource(*provider, c.Currency(), manual)
	if err != nil {
		return nil, err
	}
	return lotplan.FetchSnapshot(ctx, src, c, *concurrency)
}

// printMarkdown renders md for the terminal, or prints it as is with -raw.
func printMarkdown(md string) {
	if *raw {
		fmt.Print(md)
		return
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
