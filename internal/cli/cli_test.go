package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"testing"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-dashboard/internal/apperr"
	"portfolio-dashboard/internal/model"
	"portfolio-dashboard/internal/service"
)

type stubAnalytics struct {
	gotTickers []string
	gotModel   string
	gotDays    int
}

func (s *stubAnalytics) Optimize(_ context.Context, tickers []string) (*model.OptimizationResult, error) {
	s.gotTickers = tickers
	var res model.OptimizationResult
	for _, t := range tickers {
		if err := res.Set(t, 1/float64(len(tickers))); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

func (s *stubAnalytics) Forecast(_ context.Context, tickers []string, modelType string, days int) (*model.ForecastResult, error) {
	s.gotTickers, s.gotModel, s.gotDays = tickers, modelType, days
	return &model.ForecastResult{Forecast: []float64{10, 11, 12}}, nil
}

func (s *stubAnalytics) MarketTrend(context.Context, []string) (*model.RiskMetrics, error) {
	return nil, apperr.Service(500, "Internal Server Error")
}

func (s *stubAnalytics) EfficientFrontier(context.Context, []string) (*model.EfficientFrontierResult, error) {
	return nil, errors.New("unexpected")
}

func run(t *testing.T, stub *stubAnalytics, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	var out bytes.Buffer
	app := &App{
		Dashboard: service.NewDashboard("cli", stub, service.Options{Logger: zerolog.Nop()}),
		Out:       &out,
		Err:       &out,
		Raw:       true,
	}
	fs := flag.NewFlagSet("pdash", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "pdash")
	Register(commander, app)
	require.NoError(t, fs.Parse(args))
	return commander.Execute(context.Background()), out.String()
}

func TestOptimizeCommand(t *testing.T) {
	stub := &stubAnalytics{}
	status, out := run(t, stub, "optimize", "-tickers", "aapl, msft")
	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, []string{"AAPL", "MSFT"}, stub.gotTickers)
	assert.Contains(t, out, "## Optimized Portfolio Allocation")
	assert.Contains(t, out, "| AAPL | 50.00% |")
}

func TestPositionalTickers(t *testing.T) {
	stub := &stubAnalytics{}
	status, _ := run(t, stub, "optimize", "tsla", "spy")
	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, []string{"TSLA", "SPY"}, stub.gotTickers)
}

func TestForecastCommand_Flags(t *testing.T) {
	stub := &stubAnalytics{}
	status, out := run(t, stub, "forecast", "-tickers", "AAPL", "-model", "lstm", "-days", "3")
	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, "lstm", stub.gotModel)
	assert.Equal(t, 3, stub.gotDays)
	assert.Contains(t, out, "| Day 3 | $12.00 |")
}

func TestFailingCommands(t *testing.T) {
	status, out := run(t, &stubAnalytics{}, "risk", "-tickers", "AAPL")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, out, "Failed to analyze risk: Internal Server Error")

	status, out = run(t, &stubAnalytics{}, "frontier", "-tickers", "AAPL")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, out, "Failed to load efficient frontier. Please try again.")

	status, out = run(t, &stubAnalytics{}, "optimize")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Contains(t, out, service.EmptyTickersMessage)
}

func TestPrintMarkdown_Styled(t *testing.T) {
	var out bytes.Buffer
	app := &App{Out: &out, WordWrap: 80}
	app.printMarkdown("# Title\n\nbody text\n")
	assert.Contains(t, out.String(), "Title")
	assert.Contains(t, out.String(), "body text")
}
