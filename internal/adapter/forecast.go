package adapter

import (
	"strconv"

	"portfolio-dashboard/internal/apperr"
	"portfolio-dashboard/internal/model"
)

// ForecastShape field-name convention of a forecast payload.
type ForecastShape int

const (
	ForecastUnknown ForecastShape = iota
	ForecastLegacy                // forecast / lower_bound / upper_bound
	ForecastCurrent               // predictions / confidence_interval_lower / confidence_interval_upper
)

func (s ForecastShape) String() string {
	switch s {
	case ForecastLegacy:
		return "legacy"
	case ForecastCurrent:
		return "current"
	}
	return "unknown"
}

// DetectForecastShape resolves which field-name set is populated. The current
// convention wins when both are present.
func DetectForecastShape(result *model.ForecastResult) ForecastShape {
	switch {
	case result == nil:
		return ForecastUnknown
	case result.Predictions != nil:
		return ForecastCurrent
	case result.Forecast != nil:
		return ForecastLegacy
	}
	return ForecastUnknown
}

// ToForecastSeries labels each prediction "Day N" and carries the confidence
// bounds when present. Bounds must come as a pair of the same length as the
// prediction sequence, otherwise it fails with InvariantViolation.
func ToForecastSeries(result *model.ForecastResult) (model.ForecastSeries, error) {
	var values, lower, upper []float64
	switch DetectForecastShape(result) {
	case ForecastLegacy:
		values, lower, upper = result.Forecast, result.LowerBound, result.UpperBound
	case ForecastCurrent:
		values = result.Predictions
		if result.ConfidenceInterval == nil || *result.ConfidenceInterval {
			lower, upper = result.ConfidenceIntervalLower, result.ConfidenceIntervalUpper
		}
	default:
		return model.ForecastSeries{}, apperr.New(apperr.CodeMalformedResponse, "forecast response carries no prediction sequence")
	}
	if len(values) == 0 {
		return model.ForecastSeries{}, apperr.New(apperr.CodeMalformedResponse, "forecast response carries an empty prediction sequence")
	}

	if (lower == nil) != (upper == nil) {
		return model.ForecastSeries{}, apperr.New(apperr.CodeInvariantViolation,
			"forecast response carries only one confidence bound")
	}
	if lower != nil && (len(lower) != len(values) || len(upper) != len(values)) {
		return model.ForecastSeries{}, apperr.New(apperr.CodeInvariantViolation,
			"confidence bounds length (lower %d, upper %d) differs from forecast length %d", len(lower), len(upper), len(values))
	}

	series := model.ForecastSeries{
		Labels:     DayLabels(len(values)),
		Forecast:   values,
		LowerBound: lower,
		UpperBound: upper,
		Model:      result.ModelType,
		Horizon:    result.ForecastPeriod,
	}
	if series.Horizon <= 0 {
		series.Horizon = len(values)
	}
	return series, nil
}

// DayLabels returns "Day 1".."Day n".
func DayLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = "Day " + strconv.Itoa(i+1)
	}
	return labels
}
