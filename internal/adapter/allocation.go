// Package adapter turns analytics payloads into chart-ready series and tables.
//
// Adapters are pure: they never perform I/O and never panic on shape
// variation. Each payload family has a Detect* function that resolves the
// historical response shape once, at the boundary, and the To* function
// switches on that shape.
package adapter

import (
	"bytes"
	"encoding/json"

	"portfolio-dashboard/internal/apperr"
	"portfolio-dashboard/internal/model"
)

// OptimizationShape known layouts of the optimize payload.
type OptimizationShape int

const (
	ShapeUnknown OptimizationShape = iota
	ShapeFlat                      // {"AAPL": 0.6, "MSFT": 0.4}
	ShapeNested                    // {"max_sharpe_portfolio": {"weights": ..., "performance": ...}}
	ShapeWeights                   // {"weights": ..., "performance": ...}
)

const (
	keyMaxSharpe   = "max_sharpe_portfolio"
	keyWeights     = "weights"
	keyPerformance = "performance"
)

func (s OptimizationShape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeNested:
		return "nested"
	case ShapeWeights:
		return "weights"
	}
	return "unknown"
}

// DetectOptimizationShape resolves which layout result follows.
func DetectOptimizationShape(result *model.OptimizationResult) OptimizationShape {
	if result == nil || result.Len() == 0 {
		return ShapeUnknown
	}
	if result.Has(keyMaxSharpe) {
		return ShapeNested
	}
	if result.Has(keyWeights) {
		return ShapeWeights
	}
	return ShapeFlat
}

// ToAllocationSeries extracts the weight mapping in payload order. Values stay
// raw fractions. It fails with MalformedResponse when no weight mapping can be
// located.
func ToAllocationSeries(result *model.OptimizationResult) (model.AllocationSeries, error) {
	var (
		weights *model.TickerValues
		perf    *model.Performance
		err     error
	)
	switch DetectOptimizationShape(result) {
	case ShapeNested:
		var nested model.SharpePortfolio
		raw, _ := result.Field(keyMaxSharpe)
		if err := json.Unmarshal(raw, &nested); err != nil {
			return model.AllocationSeries{}, apperr.Wrap(err, apperr.CodeMalformedResponse, "decode %s", keyMaxSharpe)
		}
		weights, perf = nested.Weights, nested.Performance
		if perf == nil {
			if perf, err = optionalPerformance(result.Object); err != nil {
				return model.AllocationSeries{}, err
			}
		}
	case ShapeWeights:
		raw, _ := result.Field(keyWeights)
		if err := json.Unmarshal(raw, &weights); err != nil {
			return model.AllocationSeries{}, apperr.Wrap(err, apperr.CodeMalformedResponse, "decode %s", keyWeights)
		}
		perf, err = optionalPerformance(result.Object)
		if err != nil {
			return model.AllocationSeries{}, err
		}
	case ShapeFlat:
		weights, err = flatWeights(result.Object)
		if err != nil {
			return model.AllocationSeries{}, err
		}
		perf, err = optionalPerformance(result.Object)
		if err != nil {
			return model.AllocationSeries{}, err
		}
	default:
		return model.AllocationSeries{}, apperr.New(apperr.CodeMalformedResponse, "optimize response is empty")
	}

	if weights.Len() == 0 {
		return model.AllocationSeries{}, apperr.New(apperr.CodeMalformedResponse, "optimize response carries no weight mapping")
	}

	series := model.AllocationSeries{
		Labels:      make([]string, 0, weights.Len()),
		Values:      make([]float64, 0, weights.Len()),
		Performance: perf,
	}
	for _, ticker := range weights.Keys() {
		v, _ := weights.Lookup(ticker)
		series.Labels = append(series.Labels, ticker)
		series.Values = append(series.Values, v)
	}
	return series, nil
}

// flatWeights reads every top-level numeric field except "performance".
func flatWeights(obj model.Object) (*model.TickerValues, error) {
	var keys []string
	var values []float64
	for _, k := range obj.Keys() {
		if k == keyPerformance {
			continue
		}
		field, _ := obj.Field(k)
		raw := bytes.TrimSpace(field)
		if bytes.Equal(raw, []byte("null")) {
			return nil, apperr.New(apperr.CodeMalformedResponse, "weight for %q is null", k)
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Wrap(err, apperr.CodeMalformedResponse, "weight for %q is not a number", k)
		}
		keys = append(keys, k)
		values = append(values, v)
	}
	return model.NewTickerValues(keys, values), nil
}

func optionalPerformance(obj model.Object) (*model.Performance, error) {
	raw, ok := obj.Field(keyPerformance)
	if !ok {
		return nil, nil
	}
	var perf *model.Performance
	if err := json.Unmarshal(raw, &perf); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeMalformedResponse, "decode %s", keyPerformance)
	}
	return perf, nil
}
