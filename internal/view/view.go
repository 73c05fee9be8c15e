// Package view turns a dashboard snapshot into display-ready text. It is the
// only place where chart numbers get formatted.
package view

import (
	"strings"
	"time"

	"portfolio-dashboard/internal/format"
	"portfolio-dashboard/internal/model"
	"portfolio-dashboard/internal/service"
)

const (
	TitleAllocation = "Optimized Portfolio Allocation"
	TitleForecast   = "Stock Price Forecast"
	TitleRisk       = "Market Risk Metrics"
	TitleFrontier   = "Efficient Frontier"

	FrontierPlaceholder = "No portfolio data available."
)

var loadingText = map[service.Capability]string{
	service.CapabilityOptimize: "Optimizing Portfolio...",
	service.CapabilityForecast: "Fetching Forecast...",
	service.CapabilityRisk:     "Analyzing Risk...",
	service.CapabilityFrontier: "Loading Efficient Frontier...",
}

// Header common part of every section.
type Header struct {
	Title     string `json:"title"`
	Loading   string `json:"loading,omitempty"`
	Error     string `json:"error,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	HasData   bool   `json:"has_data"`
}

// Visible reports whether the section has anything to show.
func (h Header) Visible() bool {
	return h.HasData || h.Loading != "" || h.Error != ""
}

type AllocationRow struct {
	Ticker string `json:"ticker"`
	Weight string `json:"weight"`
}

type AllocationView struct {
	Header
	Rows           []AllocationRow `json:"rows,omitempty"`
	HasPerformance bool            `json:"has_performance"`
	ExpectedReturn string          `json:"expected_return,omitempty"`
	Volatility     string          `json:"volatility,omitempty"`
	SharpeRatio    string          `json:"sharpe_ratio,omitempty"`
}

type ForecastRow struct {
	Label    string `json:"label"`
	Forecast string `json:"forecast"`
	Lower    string `json:"lower,omitempty"`
	Upper    string `json:"upper,omitempty"`
}

type ForecastView struct {
	Header
	Model     string        `json:"model,omitempty"`
	Horizon   int           `json:"horizon"`
	HasBounds bool          `json:"has_bounds"`
	Rows      []ForecastRow `json:"rows,omitempty"`
}

type RiskRow struct {
	Ticker     string `json:"ticker"`
	VaR95      string `json:"var_95"`
	CVaR95     string `json:"cvar_95"`
	Volatility string `json:"volatility"`
}

type RiskView struct {
	Header
	Rows []RiskRow `json:"rows,omitempty"`
}

type PointView struct {
	Volatility string `json:"volatility"`
	Return     string `json:"return"`
}

type FrontierView struct {
	Header
	Kind        model.FrontierKind `json:"kind,omitempty"`
	Points      []PointView        `json:"points,omitempty"`
	Highlight   *PointView         `json:"highlight,omitempty"`
	ImageURI    string             `json:"image_uri,omitempty"`
	Placeholder string             `json:"placeholder,omitempty"`
}

// DashboardView fully formatted dashboard.
type DashboardView struct {
	SessionID  string         `json:"session_id"`
	Tickers    string         `json:"tickers"`
	Allocation AllocationView `json:"allocation"`
	Forecast   ForecastView   `json:"forecast"`
	Risk       RiskView       `json:"risk"`
	Frontier   FrontierView   `json:"frontier"`
}

// Build formats state for display.
func Build(state service.State) DashboardView {
	return DashboardView{
		SessionID:  state.SessionID,
		Tickers:    strings.Join(state.Tickers, ", "),
		Allocation: buildAllocation(state.Optimize),
		Forecast:   buildForecast(state.Forecast),
		Risk:       buildRisk(state.Risk),
		Frontier:   buildFrontier(state.Frontier),
	}
}

func header(title string, c service.Capability, s service.SlotState, hasData bool) Header {
	h := Header{Title: title, HasData: hasData}
	if s.Status == service.StatusInFlight {
		h.Loading = loadingText[c]
	}
	if s.Error != nil {
		h.Error = s.Error.Message
	}
	if !s.UpdatedAt.IsZero() {
		h.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return h
}

func buildAllocation(slot service.Slot[model.AllocationSeries]) AllocationView {
	v := AllocationView{Header: header(TitleAllocation, service.CapabilityOptimize, slot.SlotState, slot.Data != nil)}
	if slot.Data == nil {
		return v
	}
	s := slot.Data
	v.Rows = make([]AllocationRow, len(s.Labels))
	for i, label := range s.Labels {
		v.Rows[i] = AllocationRow{Ticker: label, Weight: format.AsPercentage(s.Values[i])}
	}
	if p := s.Performance; p != nil {
		v.HasPerformance = true
		v.ExpectedReturn = format.AsPercentage(p.ExpectedReturn)
		v.Volatility = format.AsPercentage(p.Volatility)
		v.SharpeRatio = format.AsFixedN(p.SharpeRatio, 2)
	}
	return v
}

func buildForecast(slot service.Slot[model.ForecastSeries]) ForecastView {
	v := ForecastView{Header: header(TitleForecast, service.CapabilityForecast, slot.SlotState, slot.Data != nil)}
	if slot.Data == nil {
		return v
	}
	s := slot.Data
	v.Model = s.Model
	v.Horizon = s.Horizon
	v.HasBounds = s.HasBounds()
	v.Rows = make([]ForecastRow, len(s.Forecast))
	for i, x := range s.Forecast {
		row := ForecastRow{Label: s.Labels[i], Forecast: format.AsCurrency(x)}
		if v.HasBounds {
			row.Lower = format.AsCurrency(s.LowerBound[i])
			row.Upper = format.AsCurrency(s.UpperBound[i])
		}
		v.Rows[i] = row
	}
	return v
}

func buildRisk(slot service.Slot[[]model.RiskRow]) RiskView {
	v := RiskView{Header: header(TitleRisk, service.CapabilityRisk, slot.SlotState, slot.Data != nil)}
	if slot.Data == nil {
		return v
	}
	for _, r := range *slot.Data {
		v.Rows = append(v.Rows, RiskRow{
			Ticker:     r.Ticker,
			VaR95:      format.AsFixed(r.VaR95),
			CVaR95:     format.OptionalFixed(r.CVaR95),
			Volatility: format.AsFixed(r.Volatility),
		})
	}
	return v
}

func buildFrontier(slot service.Slot[model.FrontierSeries]) FrontierView {
	v := FrontierView{Header: header(TitleFrontier, service.CapabilityFrontier, slot.SlotState, slot.Data != nil)}
	if slot.Data == nil {
		return v
	}
	s := slot.Data
	v.Kind = s.Kind
	switch s.Kind {
	case model.FrontierScatter:
		v.Points = make([]PointView, len(s.Points))
		for i, p := range s.Points {
			v.Points[i] = pointView(p)
		}
		if s.Highlight != nil {
			h := pointView(*s.Highlight)
			v.Highlight = &h
		}
	case model.FrontierImage:
		v.ImageURI = ImageURI(s.Image)
	default:
		v.Placeholder = FrontierPlaceholder
	}
	return v
}

func pointView(p model.Point) PointView {
	return PointView{Volatility: format.AsPercentage(p.X), Return: format.AsPercentage(p.Y)}
}

// ImageURI wraps a base64 PNG in a data URI; values that already are URIs
// pass through.
func ImageURI(image string) string {
	image = strings.TrimSpace(image)
	if strings.HasPrefix(image, "data:") {
		return image
	}
	return "data:image/png;base64," + image
}
