// Command lotplan recommends the whole lots to buy with some cash to get a
// portfolio closer to its target weights.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/etnz/lotplan/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the command line for shell completion, run
// COMP_INSTALL=1 lotplan to install it.
func completion() *complete.Command {
	plan := map[string]complete.Predictor{
		"h":        predict.Something,
		"s":        predict.Something,
		"p":        predict.Something,
		"holdings": predict.Files("*.yaml"),
		"cash":     predict.Something,
		"rerank":   predict.Nothing,
	}
	allocate := map[string]complete.Predictor{"json": predict.Nothing}
	for k, v := range plan {
		allocate[k] = v
	}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"allocate": {Flags: allocate},
			"assist":   {Flags: plan},
			"prices":   {Flags: map[string]complete.Predictor{"p": predict.Something}},
			"catalog": {Flags: map[string]complete.Predictor{
				"check": predict.Files("*.yaml"),
				"init":  predict.Nothing,
			}},
			"topic": {Args: predict.Set{"readme", "allocation", "catalog", "holdings", "prices", "configuration", "assist"}},
		},
		Flags: map[string]complete.Predictor{
			"catalog":     predict.Files("*.yaml"),
			"provider":    predict.Set{"moex", "alpaca", "static"},
			"concurrency": predict.Something,
			"cache":       predict.Something,
			"raw":         predict.Nothing,
			"v":           predict.Nothing,
		},
	}
}

func main() {
	completion().Complete("lotplan")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	if err := cmd.LoadEnv(flag.CommandLine); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading environment: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}
	flag.Parse()
	cmd.SetupLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
