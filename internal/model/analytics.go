package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AnalyticsRequest request body shared by the four analytics endpoints.
type AnalyticsRequest struct {
	Stocks         []string `json:"stocks"`
	ModelType      string   `json:"model_type,omitempty"`      // forecast only
	ForecastPeriod int      `json:"forecast_period,omitempty"` // forecast only, in days
}

// ParseTickers splits free-text input such as "tsla, AAPL ,spy" into upper-case
// symbols. Blank entries are dropped; duplicates are kept.
func ParseTickers(input string) []string {
	parts := strings.Split(input, ",")
	tickers := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.ToUpper(strings.TrimSpace(p))
		if t == "" {
			continue
		}
		tickers = append(tickers, t)
	}
	return tickers
}

// Performance expected return, volatility and Sharpe ratio of a portfolio.
type Performance struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
}

// UnmarshalJSON accepts an object or a [return, volatility, sharpe] triple.
func (p *Performance) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var triple []float64
		if err := json.Unmarshal(data, &triple); err != nil {
			return err
		}
		if len(triple) != 3 {
			return fmt.Errorf("performance triple has %d elements", len(triple))
		}
		p.ExpectedReturn, p.Volatility, p.SharpeRatio = triple[0], triple[1], triple[2]
		return nil
	}

	var obj struct {
		ExpectedReturn *float64 `json:"expected_return"`
		Return         *float64 `json:"return"`
		Volatility     float64  `json:"volatility"`
		SharpeRatio    *float64 `json:"sharpe_ratio"`
		Sharpe         *float64 `json:"sharpe"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Volatility = obj.Volatility
	switch {
	case obj.ExpectedReturn != nil:
		p.ExpectedReturn = *obj.ExpectedReturn
	case obj.Return != nil:
		p.ExpectedReturn = *obj.Return
	}
	switch {
	case obj.SharpeRatio != nil:
		p.SharpeRatio = *obj.SharpeRatio
	case obj.Sharpe != nil:
		p.SharpeRatio = *obj.Sharpe
	}
	return nil
}

// OptimizationResult /api/optimize payload. Its shape varies between releases
// of the analytics service, so it is kept as an ordered raw object:
//
//	{"AAPL": 0.6, "MSFT": 0.4}                                   flat
//	{"max_sharpe_portfolio": {"weights": {...}, "performance": {...}}} nested
//	{"weights": {...}, "performance": {...}}                       weights
type OptimizationResult struct {
	Object
}

// SharpePortfolio body of the nested optimize shape.
type SharpePortfolio struct {
	Weights     *TickerValues `json:"weights"`
	Performance *Performance  `json:"performance,omitempty"`
}

// ForecastResult /api/forecast payload. Older releases fill Forecast and the
// *Bound fields; newer ones fill Predictions and the ConfidenceInterval* fields.
type ForecastResult struct {
	Forecast   []float64 `json:"forecast,omitempty"`
	LowerBound []float64 `json:"lower_bound,omitempty"`
	UpperBound []float64 `json:"upper_bound,omitempty"`

	Predictions             []float64 `json:"predictions,omitempty"`
	ConfidenceInterval      *bool     `json:"confidence_interval,omitempty"`
	ConfidenceIntervalLower []float64 `json:"confidence_interval_lower,omitempty"`
	ConfidenceIntervalUpper []float64 `json:"confidence_interval_upper,omitempty"`

	ModelType      string `json:"model_type,omitempty"`
	ForecastPeriod int    `json:"forecast_period,omitempty"`
}

// RiskMetrics /api/market-trend payload, keyed by ticker.
type RiskMetrics struct {
	VaR95             *TickerValues `json:"var_95"`
	CVaR95            *TickerValues `json:"cvar_95,omitempty"`
	RollingVolatility *TickerValues `json:"rolling_volatility"`
}

// PortfolioPoint one portfolio on the risk/return plane.
type PortfolioPoint struct {
	Volatility float64  `json:"volatility"`
	Return     float64  `json:"return"`
	Sharpe     *float64 `json:"sharpe,omitempty"`
}

// EfficientFrontierResult /api/efficient-frontier payload. Either the sampled
// portfolios or a pre-rendered image is populated.
type EfficientFrontierResult struct {
	RandomPortfolios       []PortfolioPoint `json:"random_portfolios,omitempty"`
	OptimizedPortfolio     *PortfolioPoint  `json:"optimized_portfolio,omitempty"`
	EfficientFrontierImage string           `json:"efficient_frontier_image,omitempty"`
}
