// Package cli implements the pdash terminal client: one subcommand per
// dashboard capability, printing the rendered dashboard as markdown.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"portfolio-dashboard/internal/service"
	"portfolio-dashboard/internal/view"
)

// App state shared by the subcommands.
type App struct {
	Dashboard *service.Dashboard
	Out       io.Writer
	Err       io.Writer

	// Raw prints plain markdown instead of styled terminal output.
	Raw      bool
	WordWrap int
}

// Register the subcommands.
func Register(c *subcommands.Commander, app *App) {
	for _, capability := range service.Capabilities {
		c.Register(&actionCmd{app: app, capability: capability}, "analytics")
	}
}

var synopses = map[service.Capability]string{
	service.CapabilityOptimize: "optimize portfolio weights for a list of tickers",
	service.CapabilityForecast: "forecast prices for a list of tickers",
	service.CapabilityRisk:     "show VaR, CVaR and volatility per ticker",
	service.CapabilityFrontier: "show the efficient frontier of a list of tickers",
}

// actionCmd runs one capability and prints the dashboard.
type actionCmd struct {
	app        *App
	capability service.Capability

	tickers string
	model   string
	days    int
}

func (c *actionCmd) Name() string     { return string(c.capability) }
func (c *actionCmd) Synopsis() string { return synopses[c.capability] }
func (c *actionCmd) Usage() string {
	extra := ""
	if c.capability == service.CapabilityForecast {
		extra = " [-model <arima|lstm|...>] [-days <n>]"
	}
	return fmt.Sprintf(`pdash %s -tickers <TSLA,AAPL,...>%s
pdash %s TSLA AAPL ...

  Runs %q against the analytics service and prints the dashboard.
`, c.capability, extra, c.capability, c.capability.Action())
}

func (c *actionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tickers, "tickers", "", "Comma separated ticker list, e.g. TSLA,AAPL,SPY. Positional arguments are appended.")
	if c.capability == service.CapabilityForecast {
		f.StringVar(&c.model, "model", "", "Forecast model. Defaults to FORECAST_MODEL.")
		f.IntVar(&c.days, "days", 0, "Forecast horizon in days. Defaults to FORECAST_PERIOD.")
	}
}

func (c *actionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	input := c.tickers
	if f.NArg() > 0 {
		input = strings.Join(append([]string{input}, f.Args()...), ",")
	}

	_, runErr := c.app.Dashboard.Run(ctx, c.capability, input, c.model, c.days)

	md, err := view.Markdown(view.Build(c.app.Dashboard.Snapshot()))
	if err != nil {
		fmt.Fprintf(c.app.errOut(), "Error rendering dashboard: %v\n", err)
		return subcommands.ExitFailure
	}
	c.app.printMarkdown(md)

	if runErr != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (a *App) out() io.Writer {
	if a.Out != nil {
		return a.Out
	}
	return os.Stdout
}

func (a *App) errOut() io.Writer {
	if a.Err != nil {
		return a.Err
	}
	return os.Stderr
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func (a *App) printMarkdown(md string) {
	if a.Raw {
		fmt.Fprint(a.out(), md)
		return
	}
	wrap := a.WordWrap
	if wrap <= 0 {
		wrap = 100
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap))
	if err != nil {
		fmt.Fprint(a.out(), md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(a.out(), md)
		return
	}
	fmt.Fprint(a.out(), out)
}
