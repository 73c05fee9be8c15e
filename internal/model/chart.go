package model

// AllocationSeries optimized weights ready for a bar or pie chart.
// Values are fractions in [0, 1]; scaling is a rendering concern.
type AllocationSeries struct {
	Labels      []string     `json:"labels"`
	Values      []float64    `json:"values"`
	Performance *Performance `json:"performance,omitempty"`
}

// ForecastSeries predicted values labelled "Day 1".."Day N", with optional
// confidence bounds of the same length.
type ForecastSeries struct {
	Labels     []string  `json:"labels"`
	Forecast   []float64 `json:"forecast"`
	LowerBound []float64 `json:"lower_bound,omitempty"`
	UpperBound []float64 `json:"upper_bound,omitempty"`
	Model      string    `json:"model,omitempty"`
	Horizon    int       `json:"horizon"`
}

// HasBounds reports whether confidence bounds are present.
func (s ForecastSeries) HasBounds() bool {
	return s.LowerBound != nil && s.UpperBound != nil
}

// RiskRow one ticker of the risk table. CVaR95 is nil when not reported.
type RiskRow struct {
	Ticker     string   `json:"ticker"`
	VaR95      float64  `json:"var_95"`
	CVaR95     *float64 `json:"cvar_95,omitempty"`
	Volatility float64  `json:"volatility"`
}

// FrontierKind variant of a FrontierSeries.
type FrontierKind string

const (
	FrontierScatter FrontierKind = "scatter"
	FrontierImage   FrontierKind = "image"
	FrontierEmpty   FrontierKind = "empty"
)

// Point a scatter point, X is volatility and Y is return.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FrontierSeries efficient frontier in one of three variants:
// scatter (Points, optional Highlight), image (Image) or empty.
type FrontierSeries struct {
	Kind      FrontierKind `json:"kind"`
	Points    []Point      `json:"points,omitempty"`
	Highlight *Point       `json:"highlight,omitempty"`
	Image     string       `json:"image,omitempty"`
}
