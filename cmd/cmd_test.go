package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/lotplan"
	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"
)

const testCatalog = `currency: RUB
instruments:
  - ticker: A
    lot: 1
    weight: 0.5
  - ticker: B
    lot: 10
    weight: 0.5
`

// writeFile writes content to name in a temporary directory and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// setGlobal sets a global flag for the duration of the test.
func setGlobal(t *testing.T, name, value string) {
	t.Helper()
	prev := flag.Lookup(name).Value.String()
	if err := flag.Set(name, value); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { flag.Set(name, prev) })
}

// execute runs c with args and returns its status and standard output.
func execute(t *testing.T, c subcommands.Command, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("cannot parse %v: %v", args, err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w
	done := make(chan string)
	go func() {
		out, _ := io.ReadAll(r)
		done <- string(out)
	}()
	status := c.Execute(context.Background(), f)
	os.Stdout = stdout
	w.Close()
	return status, <-done
}

func TestKVFlag(t *testing.T) {
	var kv kvFlag
	for _, s := range []string{"A=1", " B = 2,5 ", "A=3"} {
		if err := kv.Set(s); err != nil {
			t.Fatalf("Set(%q) = %v", s, err)
		}
	}
	if diff := cmp.Diff(kvFlag{"A": "3", "B": "2,5"}, kv); diff != "" {
		t.Errorf("kvFlag mismatch (-want +got):\n%s", diff)
	}
	if got := kv.String(); got != "A=3,B=2,5" {
		t.Errorf("String() = %q", got)
	}
	for _, s := range []string{"A", "=1", ""} {
		if err := kv.Set(s); err == nil {
			t.Errorf("Set(%q) = nil, want an error", s)
		}
	}
}

func TestCatalogCmd_Check(t *testing.T) {
	ok := writeFile(t, "catalog.yaml", testCatalog)
	status, out := execute(t, &catalogCmd{}, "-check", ok)
	if status != subcommands.ExitSuccess {
		t.Fatalf("catalog -check = %v", status)
	}
	if want := ok + ": ok, 2 instruments\n"; out != want {
		t.Errorf("catalog -check printed %q, want %q", out, want)
	}

	bad := writeFile(t, "bad.yaml", strings.Replace(testCatalog, "0.5\n", "0.4\n", 1))
	if status, _ := execute(t, &catalogCmd{}, "-check", bad); status != subcommands.ExitFailure {
		t.Errorf("catalog -check on weights not summing to 1 = %v, want failure", status)
	}
	if status, _ := execute(t, &catalogCmd{}, "-check", ok, "-init"); status != subcommands.ExitUsageError {
		t.Errorf("catalog -check -init = %v, want usage error", status)
	}
}

func TestCatalogCmd_Init(t *testing.T) {
	status, out := execute(t, &catalogCmd{}, "-init")
	if status != subcommands.ExitSuccess {
		t.Fatalf("catalog -init = %v", status)
	}
	path := writeFile(t, "catalog.yaml", out)
	if status, _ := execute(t, &catalogCmd{}, "-check", path); status != subcommands.ExitSuccess {
		t.Errorf("the catalog printed by -init does not pass -check:\n%s", out)
	}
}

func TestAllocateCmd_JSON(t *testing.T) {
	setGlobal(t, "catalog", writeFile(t, "catalog.yaml", testCatalog))
	setGlobal(t, "provider", "static")
	holdings := writeFile(t, "holdings.yaml", "A: {shares: 2}\n")

	status, out := execute(t, &allocateCmd{}, "-json", "-p", "A=100", "-p", "B=5", "-holdings", holdings, "-h", "B=200", "1 000")
	if status != subcommands.ExitSuccess {
		t.Fatalf("allocate = %v", status)
	}
	var res struct {
		Lots map[string]int64 `json:"lots"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("allocate -json printed invalid JSON: %v\n%s", err, out)
	}
	// after = 200 + 200 + 1000, target 700 each: A needs 500, B needs 500.
	if diff := cmp.Diff(map[string]int64{"A": 5, "B": 10}, res.Lots); diff != "" {
		t.Errorf("lots mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocateCmd_UnknownProvider(t *testing.T) {
	setGlobal(t, "catalog", writeFile(t, "catalog.yaml", testCatalog))
	setGlobal(t, "provider", "nope")
	if status, _ := execute(t, &allocateCmd{}, "-cash", "100"); status != subcommands.ExitFailure {
		t.Errorf("allocate with an unknown provider = %v, want failure", status)
	}
}

func TestPricesCmd(t *testing.T) {
	setGlobal(t, "catalog", writeFile(t, "catalog.yaml", testCatalog))
	setGlobal(t, "provider", "static")
	setGlobal(t, "raw", "true")
	status, out := execute(t, &pricesCmd{}, "-p", "A=100")
	if status != subcommands.ExitSuccess {
		t.Fatalf("prices = %v", status)
	}
	if !strings.Contains(out, "| A |") || !strings.Contains(out, "N/A") {
		t.Errorf("prices printed:\n%s\nwant a price for A and N/A for B", out)
	}
}

func TestLoadEnv(t *testing.T) {
	fs := flag.NewFlagSet("lotplan", flag.ContinueOnError)
	provider := fs.String("provider", "moex", "")
	concurrency := fs.Int("concurrency", 4, "")
	fs.String("catalog", "", "")
	fs.Duration("cache", 0, "")
	fs.Bool("raw", false, "")
	fs.Bool("v", false, "")

	t.Setenv("LOTPLAN_PROVIDER", "static")
	t.Setenv("LOTPLAN_CONCURRENCY", "8")
	if err := LoadEnv(fs, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnv() = %v", err)
	}
	if *provider != "static" || *concurrency != 8 {
		t.Errorf("LoadEnv() set provider=%q concurrency=%d, want static and 8", *provider, *concurrency)
	}
	if err := fs.Parse([]string{"-provider", "moex"}); err != nil {
		t.Fatal(err)
	}
	if *provider != "moex" {
		t.Errorf("the command line must override the environment, got %q", *provider)
	}
}

func TestLoadEnv_DotEnv(t *testing.T) {
	fs := flag.NewFlagSet("lotplan", flag.ContinueOnError)
	catalog := fs.String("catalog", "", "")
	env := writeFile(t, ".env", "LOTPLAN_CATALOG=my.yaml\n")
	t.Setenv("LOTPLAN_CATALOG", "")
	os.Unsetenv("LOTPLAN_CATALOG")
	if err := LoadEnv(fs, env); err != nil {
		t.Fatalf("LoadEnv() = %v", err)
	}
	if *catalog != "my.yaml" {
		t.Errorf("catalog = %q, want my.yaml from the .env file", *catalog)
	}
}

const usdCatalog = `currency: USD
instruments:
  - ticker: AAPL
    lot: 1
    weight: 0.5
  - ticker: MSFT
    lot: 1
    weight: 0.5
`

func TestPlanFlags_HoldingsByValueAndShares(t *testing.T) {
	catalog, err := lotplan.LoadCatalog(writeFile(t, "catalog.yaml", usdCatalog))
	if err != nil {
		t.Fatal(err)
	}
	var p planFlags
	p.values.Set("AAPL=100")
	p.shares.Set("AAPL=2")
	p.prices.Set("AAPL=50")
	prices, err := lotplan.FetchSnapshot(context.Background(), p.manualPrices(catalog.Currency()), catalog, 1)
	if err != nil {
		t.Fatal(err)
	}
	h, err := p.holdings(catalog, prices)
	if err != nil {
		t.Fatalf("holdings() = %v", err)
	}
	if got := h["AAPL"]; !got.Equal(lotplan.M(200, "USD")) {
		t.Errorf("holdings()[AAPL] = %v, want 200 USD", got)
	}
}

func TestAllocateCmd_ForeignCurrencyProvider(t *testing.T) {
	setGlobal(t, "catalog", writeFile(t, "catalog.yaml", testCatalog))
	setGlobal(t, "provider", "alpaca")
	status, _ := execute(t, &allocateCmd{}, "-cash", "100", "-h", "A=100", "-s", "A=2")
	if status != subcommands.ExitFailure {
		t.Errorf("allocate with alpaca prices on a RUB catalog = %v, want failure", status)
	}
}

func TestNewPriceSource_Currency(t *testing.T) {
	if _, err := newPriceSource("alpaca", "EUR", nil); err == nil {
		t.Error("newPriceSource(alpaca, EUR) = nil error, want a currency error")
	}
	if _, err := newPriceSource("alpaca", "USD", nil); err != nil {
		t.Errorf("newPriceSource(alpaca, USD) = %v", err)
	}
}
