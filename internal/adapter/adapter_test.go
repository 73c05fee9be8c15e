package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-dashboard/internal/apperr"
	"portfolio-dashboard/internal/model"
)

func decode[T any](t *testing.T, payload string) *T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(payload), &v))
	return &v
}

func weightSum(s model.AllocationSeries) float64 {
	var sum float64
	for _, v := range s.Values {
		sum += v
	}
	return sum
}

func TestDetectOptimizationShape(t *testing.T) {
	tests := []struct {
		payload string
		want    OptimizationShape
	}{
		{`{"AAPL":0.6,"MSFT":0.4}`, ShapeFlat},
		{`{"max_sharpe_portfolio":{"weights":{"AAPL":1}}}`, ShapeNested},
		{`{"weights":{"AAPL":1},"performance":[0.1,0.2,0.5]}`, ShapeWeights},
		{`{}`, ShapeUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.want.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, DetectOptimizationShape(decode[model.OptimizationResult](t, tc.payload)))
		})
	}
	assert.Equal(t, ShapeUnknown, DetectOptimizationShape(nil))
}

func TestToAllocationSeries_Flat(t *testing.T) {
	res := decode[model.OptimizationResult](t, `{"TSLA":0.1234,"AAPL":0.5766,"SPY":0.3}`)

	series, err := ToAllocationSeries(res)
	require.NoError(t, err)
	assert.Equal(t, []string{"TSLA", "AAPL", "SPY"}, series.Labels)
	assert.Equal(t, []float64{0.1234, 0.5766, 0.3}, series.Values)
	assert.Nil(t, series.Performance)
}

func TestToAllocationSeries_FlatWithPerformance(t *testing.T) {
	res := decode[model.OptimizationResult](t, `{"AAPL":0.7,"MSFT":0.3,"performance":{"expected_return":0.2,"volatility":0.25,"sharpe_ratio":0.8}}`)

	series, err := ToAllocationSeries(res)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, series.Labels)
	require.NotNil(t, series.Performance)
	assert.Equal(t, 0.8, series.Performance.SharpeRatio)
}

func TestToAllocationSeries_NestedMatchesFlat(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tickers := []string{"AAPL", "MSFT", "TSLA", "SPY", "NVDA", "AMZN"}

	for i := 0; i < 50; i++ {
		n := 1 + rng.Intn(len(tickers))
		perm := rng.Perm(len(tickers))[:n]
		var flat model.Object
		var total float64
		for _, idx := range perm {
			w := rng.Float64()
			total += w
			require.NoError(t, flat.Set(tickers[idx], w))
		}

		flatJSON, err := json.Marshal(flat)
		require.NoError(t, err)
		nestedJSON := fmt.Sprintf(`{"max_sharpe_portfolio":{"weights":%s}}`, flatJSON)

		fromFlat, err := ToAllocationSeries(decode[model.OptimizationResult](t, string(flatJSON)))
		require.NoError(t, err)
		fromNested, err := ToAllocationSeries(decode[model.OptimizationResult](t, nestedJSON))
		require.NoError(t, err)

		assert.Equal(t, len(fromFlat.Labels), len(fromFlat.Values))
		assert.InDelta(t, total, weightSum(fromFlat), 1e-6)
		assert.Equal(t, fromFlat, fromNested)
	}
}

func TestToAllocationSeries_NestedPerformance(t *testing.T) {
	res := decode[model.OptimizationResult](t, `{"max_sharpe_portfolio":{"weights":{"AAPL":0.5,"MSFT":0.5},"performance":[0.18,0.22,0.72]}}`)

	series, err := ToAllocationSeries(res)
	require.NoError(t, err)
	require.NotNil(t, series.Performance)
	assert.Equal(t, model.Performance{ExpectedReturn: 0.18, Volatility: 0.22, SharpeRatio: 0.72}, *series.Performance)
}

func TestToAllocationSeries_Malformed(t *testing.T) {
	payloads := []string{
		`{}`,
		`{"AAPL":"heavy"}`,
		`{"AAPL":null}`,
		`{"performance":{"volatility":0.2}}`,
		`{"max_sharpe_portfolio":{}}`,
		`{"max_sharpe_portfolio":null}`,
		`{"weights":{}}`,
	}
	for _, p := range payloads {
		t.Run(p, func(t *testing.T) {
			_, err := ToAllocationSeries(decode[model.OptimizationResult](t, p))
			assert.True(t, errors.Is(err, apperr.ErrMalformedResponse), "got %v", err)
		})
	}

	_, err := ToAllocationSeries(nil)
	assert.True(t, errors.Is(err, apperr.ErrMalformedResponse))
}

func TestToForecastSeries_Legacy(t *testing.T) {
	res := decode[model.ForecastResult](t, `{"forecast":[101.5,102,103.25],"lower_bound":[99,99.5,100],"upper_bound":[104,104.5,106]}`)

	assert.Equal(t, ForecastLegacy, DetectForecastShape(res))
	series, err := ToForecastSeries(res)
	require.NoError(t, err)
	assert.Equal(t, []string{"Day 1", "Day 2", "Day 3"}, series.Labels)
	assert.Equal(t, []float64{101.5, 102, 103.25}, series.Forecast)
	assert.Len(t, series.LowerBound, 3)
	assert.Len(t, series.UpperBound, 3)
	assert.Equal(t, 3, series.Horizon)
	assert.True(t, series.HasBounds())
}

func TestToForecastSeries_Current(t *testing.T) {
	res := decode[model.ForecastResult](t, `{
		"predictions":[10,11],
		"confidence_interval":true,
		"confidence_interval_lower":[9,10],
		"confidence_interval_upper":[11,12],
		"model_type":"sarima",
		"forecast_period":2
	}`)

	assert.Equal(t, ForecastCurrent, DetectForecastShape(res))
	series, err := ToForecastSeries(res)
	require.NoError(t, err)
	assert.Equal(t, "sarima", series.Model)
	assert.Equal(t, 2, series.Horizon)
	assert.Equal(t, []float64{9, 10}, series.LowerBound)
	assert.Equal(t, []float64{11, 12}, series.UpperBound)
}

func TestToForecastSeries_BoundsGatedByFlag(t *testing.T) {
	res := decode[model.ForecastResult](t, `{"predictions":[10,11],"confidence_interval":false,"confidence_interval_lower":[9],"confidence_interval_upper":[11]}`)

	series, err := ToForecastSeries(res)
	require.NoError(t, err)
	assert.Nil(t, series.LowerBound)
	assert.Nil(t, series.UpperBound)
	assert.False(t, series.HasBounds())
}

func TestToForecastSeries_AbsentBounds(t *testing.T) {
	series, err := ToForecastSeries(decode[model.ForecastResult](t, `{"forecast":[1,2,3,4]}`))
	require.NoError(t, err)
	assert.Nil(t, series.LowerBound)
	assert.Nil(t, series.UpperBound)
	assert.Len(t, series.Labels, 4)
	assert.Equal(t, "Day 4", series.Labels[3])
}

func TestToForecastSeries_BoundsLengthProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 30; i++ {
		n := 1 + rng.Intn(40)
		res := &model.ForecastResult{
			Predictions:             make([]float64, n),
			ConfidenceIntervalLower: make([]float64, n),
			ConfidenceIntervalUpper: make([]float64, n),
		}
		series, err := ToForecastSeries(res)
		require.NoError(t, err)
		assert.Len(t, series.LowerBound, len(series.Forecast))
		assert.Len(t, series.UpperBound, len(series.Forecast))
		assert.Len(t, series.Labels, n)
	}
}

func TestToForecastSeries_Violations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"short lower", `{"forecast":[1,2,3],"lower_bound":[1,2],"upper_bound":[1,2,3]}`, apperr.ErrInvariantViolation},
		{"long upper", `{"predictions":[1],"confidence_interval_lower":[1],"confidence_interval_upper":[1,2]}`, apperr.ErrInvariantViolation},
		{"single bound", `{"forecast":[1,2],"lower_bound":[1,2]}`, apperr.ErrInvariantViolation},
		{"no predictions", `{"model_type":"arima"}`, apperr.ErrMalformedResponse},
		{"empty predictions", `{"predictions":[]}`, apperr.ErrMalformedResponse},
		{"empty forecast", `{"forecast":[],"lower_bound":[],"upper_bound":[]}`, apperr.ErrMalformedResponse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ToForecastSeries(decode[model.ForecastResult](t, tc.payload))
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestToRiskTable(t *testing.T) {
	res := decode[model.RiskMetrics](t, `{
		"var_95":{"TSLA":-0.0561,"AAPL":-0.0274},
		"cvar_95":{"TSLA":-0.0812},
		"rolling_volatility":{"AAPL":0.0151,"TSLA":0.0342}
	}`)

	rows, err := ToRiskTable(res)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "TSLA", rows[0].Ticker)
	assert.Equal(t, -0.0561, rows[0].VaR95)
	require.NotNil(t, rows[0].CVaR95)
	assert.Equal(t, -0.0812, *rows[0].CVaR95)
	assert.Equal(t, 0.0342, rows[0].Volatility)

	assert.Equal(t, "AAPL", rows[1].Ticker)
	assert.Nil(t, rows[1].CVaR95)
	assert.Equal(t, 0.0151, rows[1].Volatility)
}

func TestToRiskTable_MissingVolatility(t *testing.T) {
	res := decode[model.RiskMetrics](t, `{"var_95":{"MSFT":-0.02,"AAPL":-0.03},"rolling_volatility":{"MSFT":0.01}}`)

	_, err := ToRiskTable(res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrMissingMetric))
	assert.Contains(t, err.Error(), "AAPL")
}

func TestToRiskTable_NoVaR(t *testing.T) {
	_, err := ToRiskTable(decode[model.RiskMetrics](t, `{"rolling_volatility":{"AAPL":0.01}}`))
	assert.True(t, errors.Is(err, apperr.ErrMalformedResponse))

	_, err = ToRiskTable(nil)
	assert.True(t, errors.Is(err, apperr.ErrMalformedResponse))
}

func TestToFrontierSeries_Scatter(t *testing.T) {
	res := decode[model.EfficientFrontierResult](t, `{
		"random_portfolios":[{"volatility":0.1,"return":0.05},{"volatility":0.2,"return":0.09}],
		"optimized_portfolio":{"volatility":0.15,"return":0.08}
	}`)

	series := ToFrontierSeries(res)
	assert.Equal(t, model.FrontierScatter, series.Kind)
	assert.Equal(t, []model.Point{{X: 0.1, Y: 0.05}, {X: 0.2, Y: 0.09}}, series.Points)
	require.NotNil(t, series.Highlight)
	assert.Equal(t, model.Point{X: 0.15, Y: 0.08}, *series.Highlight)
	assert.Empty(t, series.Image)
}

func TestToFrontierSeries_Image(t *testing.T) {
	img := "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="
	res := decode[model.EfficientFrontierResult](t, fmt.Sprintf(`{"efficient_frontier_image":%q}`, img))

	series := ToFrontierSeries(res)
	assert.Equal(t, model.FrontierImage, series.Kind)
	assert.Equal(t, img, series.Image)
	assert.Nil(t, series.Points)
}

func TestToFrontierSeries_Empty(t *testing.T) {
	for _, p := range []string{`{}`, `{"random_portfolios":[]}`, `{"efficient_frontier_image":"  "}`} {
		assert.Equal(t, model.FrontierEmpty, ToFrontierSeries(decode[model.EfficientFrontierResult](t, p)).Kind, p)
	}
	assert.Equal(t, model.FrontierEmpty, ToFrontierSeries(nil).Kind)
}

func TestDayLabels(t *testing.T) {
	assert.Empty(t, DayLabels(0))
	assert.Equal(t, "Day 1,Day 2", strings.Join(DayLabels(2), ","))
}
