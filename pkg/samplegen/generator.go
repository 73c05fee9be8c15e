package samplegen

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"

	"portfolio-dashboard/internal/model"
)

// Shape selects which release of the analytics API payloads imitate.
type Shape string

const (
	// ShapeLegacy flat weights, forecast/lower_bound/upper_bound, scatter frontier.
	ShapeLegacy Shape = "legacy"
	// ShapeCurrent nested weights, predictions/confidence_interval_*, image frontier.
	ShapeCurrent Shape = "current"
)

func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case ShapeLegacy, "":
		return ShapeLegacy, nil
	case ShapeCurrent:
		return ShapeCurrent, nil
	}
	return "", fmt.Errorf("unknown shape %q (want legacy or current)", s)
}

const riskFreeRate = 0.02

// Generator produces synthetic analytics payloads. Output depends only on
// the seed, the shape and the request, so repeated calls agree.
type Generator struct {
	Seed       uint64
	Shape      Shape
	Portfolios int
}

func (g *Generator) rng(capability string, tickers []string, extra ...any) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(capability))
	for _, t := range tickers {
		h.Write([]byte{0})
		h.Write([]byte(t))
	}
	for _, e := range extra {
		fmt.Fprintf(h, "|%v", e)
	}
	return rand.New(rand.NewPCG(g.Seed, h.Sum64()))
}

func between(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func round(x float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(x).Round(places).Float64()
	return f
}

func randomWeights(r *rand.Rand, n int) []float64 {
	w := make([]float64, n)
	var sum float64
	for i := range w {
		w[i] = r.Float64() + 0.05
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// Optimize mirrors POST /api/optimize.
func (g *Generator) Optimize(tickers []string) (*model.OptimizationResult, error) {
	r := g.rng("optimize", tickers)
	weights := randomWeights(r, len(tickers))
	ret := between(r, 0.05, 0.25)
	vol := between(r, 0.10, 0.40)
	perf := model.Performance{
		ExpectedReturn: round(ret, 4),
		Volatility:     round(vol, 4),
		SharpeRatio:    round((ret-riskFreeRate)/vol, 4),
	}

	var out model.OptimizationResult
	if g.Shape == ShapeLegacy {
		for i, t := range tickers {
			if err := out.Set(t, round(weights[i], 4)); err != nil {
				return nil, err
			}
		}
		return &out, nil
	}

	nested := model.SharpePortfolio{
		Weights:     model.NewTickerValues(tickers, weights),
		Performance: &perf,
	}
	if err := out.Set("max_sharpe_portfolio", nested); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast mirrors POST /api/forecast for the first ticker.
func (g *Generator) Forecast(tickers []string, modelType string, days int) *model.ForecastResult {
	if days <= 0 {
		days = 30
	}
	if modelType == "" {
		modelType = "arima"
	}
	first := tickers
	if len(first) > 1 {
		first = first[:1]
	}
	r := g.rng("forecast", first, modelType, days)
	price := between(r, 50, 500)
	drift := between(r, -0.002, 0.004)
	sigma := between(r, 0.01, 0.03)

	values := make([]float64, days)
	lower := make([]float64, days)
	upper := make([]float64, days)
	for i := range values {
		price *= 1 + drift + sigma*r.NormFloat64()/4
		band := 1.96 * sigma * price * math.Sqrt(float64(i+1))
		values[i] = round(price, 4)
		lower[i] = round(price-band, 4)
		upper[i] = round(price+band, 4)
	}

	if g.Shape == ShapeLegacy {
		return &model.ForecastResult{Forecast: values, LowerBound: lower, UpperBound: upper}
	}
	withCI := true
	return &model.ForecastResult{
		Predictions:             values,
		ConfidenceInterval:      &withCI,
		ConfidenceIntervalLower: lower,
		ConfidenceIntervalUpper: upper,
		ModelType:               modelType,
		ForecastPeriod:          days,
	}
}

// MarketTrend mirrors POST /api/market-trend. Only the current shape
// reports CVaR.
func (g *Generator) MarketTrend(tickers []string) *model.RiskMetrics {
	r := g.rng("market-trend", tickers)
	vars := make([]float64, len(tickers))
	cvars := make([]float64, len(tickers))
	vols := make([]float64, len(tickers))
	for i := range tickers {
		v := -between(r, 0.01, 0.06)
		vars[i] = round(v, 6)
		cvars[i] = round(v*between(r, 1.2, 1.5), 6)
		vols[i] = round(between(r, 0.005, 0.04), 6)
	}

	out := &model.RiskMetrics{
		VaR95:             model.NewTickerValues(tickers, vars),
		RollingVolatility: model.NewTickerValues(tickers, vols),
	}
	if g.Shape == ShapeCurrent {
		out.CVaR95 = model.NewTickerValues(tickers, cvars)
	}
	return out
}

// EfficientFrontier mirrors POST /api/efficient-frontier: sampled portfolios
// in the legacy shape, a rendered PNG in the current one.
func (g *Generator) EfficientFrontier(tickers []string) (*model.EfficientFrontierResult, error) {
	r := g.rng("efficient-frontier", tickers)
	n := g.Portfolios
	if n <= 0 {
		n = 200
	}

	points := make([]model.PortfolioPoint, n)
	best := 0
	for i := range points {
		vol := between(r, 0.08, 0.45)
		ret := riskFreeRate + vol*between(r, -0.2, 0.8)
		sharpe := round((ret-riskFreeRate)/vol, 4)
		points[i] = model.PortfolioPoint{Volatility: round(vol, 4), Return: round(ret, 4), Sharpe: &sharpe}
		if *points[i].Sharpe > *points[best].Sharpe {
			best = i
		}
	}
	optimized := model.PortfolioPoint{Volatility: points[best].Volatility, Return: points[best].Return}

	if g.Shape == ShapeLegacy {
		return &model.EfficientFrontierResult{RandomPortfolios: points, OptimizedPortfolio: &optimized}, nil
	}
	img, err := renderScatterPNG(points, optimized)
	if err != nil {
		return nil, err
	}
	return &model.EfficientFrontierResult{EfficientFrontierImage: img, OptimizedPortfolio: &optimized}, nil
}

// renderScatterPNG draws the portfolios on a small canvas and returns it
// base64 encoded.
func renderScatterPNG(points []model.PortfolioPoint, highlight model.PortfolioPoint) (string, error) {
	const w, h = 240, 160
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}

	minX, maxX, minY, maxY := math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.Volatility), math.Max(maxX, p.Volatility)
		minY, maxY = math.Min(minY, p.Return), math.Max(maxY, p.Return)
	}
	project := func(vol, ret float64) (int, int) {
		px := 5 + int((vol-minX)/math.Max(maxX-minX, 1e-9)*float64(w-10))
		py := h - 5 - int((ret-minY)/math.Max(maxY-minY, 1e-9)*float64(h-10))
		return px, py
	}
	dot := func(cx, cy, radius int, c color.Color) {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				img.Set(cx+dx, cy+dy, c)
			}
		}
	}

	blue := color.RGBA{R: 52, G: 152, B: 219, A: 255}
	for _, p := range points {
		x, y := project(p.Volatility, p.Return)
		dot(x, y, 1, blue)
	}
	x, y := project(highlight.Volatility, highlight.Return)
	dot(x, y, 3, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
