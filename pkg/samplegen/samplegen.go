// Package samplegen generates synthetic analytics API payloads and can serve
// them as a stand-in for the analytics service.
package samplegen

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"portfolio-dashboard/internal/model"
)

type Options struct {
	Seed       uint64
	Shape      Shape
	Portfolios int

	Serve bool
	Addr  string

	Capability string
	Tickers    []string
	ModelType  string
	Days       int
}

// Execute parses args, then either prints one payload to out or, with
// -serve, runs the mock API until ctx is done.
func Execute(ctx context.Context, args []string, out io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("sample-gen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		opts    Options
		seed    string
		shape   string
		tickers string
	)
	fs.StringVar(&seed, "seed", "", "")
	fs.StringVar(&shape, "shape", "", "")
	fs.IntVar(&opts.Portfolios, "portfolios", 0, "")
	fs.BoolVar(&opts.Serve, "serve", false, "")
	fs.StringVar(&opts.Addr, "addr", "", "")
	fs.StringVar(&opts.Capability, "capability", "optimize", "")
	fs.StringVar(&tickers, "tickers", "TSLA,AAPL,SPY", "")
	fs.StringVar(&opts.ModelType, "model", "", "")
	fs.IntVar(&opts.Days, "days", 0, "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if seed == "" {
		seed = os.Getenv("SAMPLE_GEN_SEED")
	}
	if seed != "" {
		s, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed %q: %w", seed, err)
		}
		opts.Seed = s
	} else {
		opts.Seed = 42
	}
	if shape == "" {
		shape = os.Getenv("SAMPLE_GEN_SHAPE")
	}
	var err error
	if opts.Shape, err = ParseShape(shape); err != nil {
		return err
	}
	if opts.Portfolios == 0 {
		opts.Portfolios = getEnvInt("SAMPLE_GEN_PORTFOLIOS", 200)
	}
	if !opts.Serve {
		opts.Serve = getEnvBool("SAMPLE_GEN_SERVE", false)
	}
	if strings.TrimSpace(opts.Addr) == "" {
		opts.Addr = os.Getenv("SAMPLE_GEN_ADDR")
	}
	if strings.TrimSpace(opts.Addr) == "" {
		opts.Addr = ":5000"
	}
	opts.Tickers = model.ParseTickers(tickers)

	g := &Generator{Seed: opts.Seed, Shape: opts.Shape, Portfolios: opts.Portfolios}

	if opts.Serve {
		return Serve(ctx, g, opts.Addr, log)
	}

	payload, err := Generate(g, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// Generate builds one payload for opts.Capability.
func Generate(g *Generator, opts Options) (any, error) {
	if len(opts.Tickers) == 0 {
		return nil, errors.New("no tickers given")
	}
	switch opts.Capability {
	case "optimize":
		return g.Optimize(opts.Tickers)
	case "forecast":
		return g.Forecast(opts.Tickers, opts.ModelType, opts.Days), nil
	case "risk", "market-trend":
		return g.MarketTrend(opts.Tickers), nil
	case "frontier", "efficient-frontier":
		return g.EfficientFrontier(opts.Tickers)
	}
	return nil, fmt.Errorf("unknown capability %q", opts.Capability)
}

// Serve runs the mock analytics API on addr until ctx is done.
func Serve(ctx context.Context, g *Generator, addr string, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewServer(g, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("shape", string(g.Shape)).Uint64("seed", g.Seed).Msg("mock analytics API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
