// Command pdash runs dashboard actions from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/google/subcommands"

	"portfolio-dashboard/internal/cli"
	"portfolio-dashboard/internal/client"
	"portfolio-dashboard/internal/config"
	"portfolio-dashboard/internal/logger"
	"portfolio-dashboard/internal/service"
)

var (
	raw  = flag.Bool("raw", false, "Print plain markdown instead of styled output")
	wrap = flag.Int("wrap", 100, "Word wrap width for styled output")
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(subcommands.ExitUsageError))
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})

	analytics := client.NewAnalyticsClient(client.Options{
		BaseURL: cfg.AnalyticsURL,
		Timeout: cfg.AnalyticsTimeout,
		Logger:  log,
	})
	app := &cli.App{
		Dashboard: service.NewDashboard("cli", analytics, service.Options{
			ForecastModel:  cfg.ForecastModel,
			ForecastPeriod: cfg.ForecastPeriod,
			Logger:         log,
		}),
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cli.Register(commander, app)

	flag.Parse()
	app.Raw = *raw
	app.WordWrap = *wrap

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
