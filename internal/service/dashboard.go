package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"portfolio-dashboard/internal/adapter"
	"portfolio-dashboard/internal/apperr"
	"portfolio-dashboard/internal/history"
	"portfolio-dashboard/internal/model"
)

// Capability one analytics action of the dashboard.
type Capability string

const (
	CapabilityOptimize Capability = "optimize"
	CapabilityForecast Capability = "forecast"
	CapabilityRisk     Capability = "risk"
	CapabilityFrontier Capability = "frontier"
)

// Capabilities in display order.
var Capabilities = []Capability{CapabilityOptimize, CapabilityForecast, CapabilityRisk, CapabilityFrontier}

// ParseCapability maps a route or flag name to a Capability.
func ParseCapability(s string) (Capability, bool) {
	for _, c := range Capabilities {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Action is the phrase used in user-visible failure messages.
func (c Capability) Action() string {
	switch c {
	case CapabilityOptimize:
		return "optimize portfolio"
	case CapabilityForecast:
		return "fetch forecast"
	case CapabilityRisk:
		return "analyze risk"
	case CapabilityFrontier:
		return "load efficient frontier"
	}
	return string(c)
}

// EmptyTickersMessage is stored on a slot when no ticker was entered.
const EmptyTickersMessage = "Please enter at least one stock ticker (e.g. TSLA, AAPL, SPY)."

// SlotStatus request state of a slot.
type SlotStatus string

const (
	StatusIdle     SlotStatus = "idle"
	StatusInFlight SlotStatus = "in_flight"
)

// SlotError user-visible failure of the last completed action.
type SlotError struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

// SlotState bookkeeping shared by every slot.
type SlotState struct {
	Status    SlotStatus `json:"status"`
	Tickers   []string   `json:"tickers"`
	Error     *SlotError `json:"error,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitzero"`

	// Seq numbers dispatches; a completion for an older Seq is stale.
	Seq uint64 `json:"seq"`
}

// Slot holds one capability's latest adapted data. Data survives a failed
// refresh so the last good chart stays visible next to the error.
type Slot[T any] struct {
	SlotState
	Data *T `json:"data,omitempty"`
}

// State snapshot of a dashboard.
type State struct {
	SessionID string                       `json:"session_id"`
	Tickers   []string                     `json:"tickers"`
	Optimize  Slot[model.AllocationSeries] `json:"optimize"`
	Forecast  Slot[model.ForecastSeries]   `json:"forecast"`
	Risk      Slot[[]model.RiskRow]        `json:"risk"`
	Frontier  Slot[model.FrontierSeries]   `json:"frontier"`
}

// Analytics is the subset of the analytics client the dashboard needs.
type Analytics interface {
	Optimize(ctx context.Context, tickers []string) (*model.OptimizationResult, error)
	Forecast(ctx context.Context, tickers []string, modelType string, periodDays int) (*model.ForecastResult, error)
	MarketTrend(ctx context.Context, tickers []string) (*model.RiskMetrics, error)
	EfficientFrontier(ctx context.Context, tickers []string) (*model.EfficientFrontierResult, error)
}

// Recorder receives one entry per completed action.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Options configure a Dashboard.
type Options struct {
	ForecastModel  string
	ForecastPeriod int
	Recorder       Recorder
	Logger         zerolog.Logger
	Now            func() time.Time
}

// Dashboard one session's view state. Safe for concurrent use; the lock is
// never held across an analytics call.
type Dashboard struct {
	id       string
	client   Analytics
	recorder Recorder
	log      zerolog.Logger
	now      func() time.Time

	forecastModel  string
	forecastPeriod int

	mu    sync.Mutex
	state State
}

func NewDashboard(id string, client Analytics, opts Options) *Dashboard {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.ForecastModel == "" {
		opts.ForecastModel = "arima"
	}
	if opts.ForecastPeriod <= 0 {
		opts.ForecastPeriod = 30
	}
	d := &Dashboard{
		id:             id,
		client:         client,
		recorder:       opts.Recorder,
		log:            opts.Logger.With().Str("component", "dashboard").Str("session_id", id).Logger(),
		now:            now,
		forecastModel:  opts.ForecastModel,
		forecastPeriod: opts.ForecastPeriod,
	}
	d.state.SessionID = id
	d.state.Tickers = []string{}
	d.state.Optimize.Status = StatusIdle
	d.state.Forecast.Status = StatusIdle
	d.state.Risk.Status = StatusIdle
	d.state.Frontier.Status = StatusIdle
	return d
}

func (d *Dashboard) ID() string { return d.id }

// Snapshot returns a copy of the current state.
func (d *Dashboard) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Optimize fetches and adapts an optimized allocation for input.
func (d *Dashboard) Optimize(ctx context.Context, input string) (Slot[model.AllocationSeries], error) {
	return run(ctx, d, CapabilityOptimize, input,
		func(s *State) *Slot[model.AllocationSeries] { return &s.Optimize },
		func(ctx context.Context, tickers []string) (model.AllocationSeries, error) {
			res, err := d.client.Optimize(ctx, tickers)
			if err != nil {
				return model.AllocationSeries{}, err
			}
			return adapter.ToAllocationSeries(res)
		})
}

// Forecast fetches a price forecast. Empty modelType and non-positive
// periodDays fall back to the configured defaults.
func (d *Dashboard) Forecast(ctx context.Context, input, modelType string, periodDays int) (Slot[model.ForecastSeries], error) {
	if modelType == "" {
		modelType = d.forecastModel
	}
	if periodDays <= 0 {
		periodDays = d.forecastPeriod
	}
	return run(ctx, d, CapabilityForecast, input,
		func(s *State) *Slot[model.ForecastSeries] { return &s.Forecast },
		func(ctx context.Context, tickers []string) (model.ForecastSeries, error) {
			res, err := d.client.Forecast(ctx, tickers, modelType, periodDays)
			if err != nil {
				return model.ForecastSeries{}, err
			}
			return adapter.ToForecastSeries(res)
		})
}

// Risk fetches the per-ticker risk table.
func (d *Dashboard) Risk(ctx context.Context, input string) (Slot[[]model.RiskRow], error) {
	return run(ctx, d, CapabilityRisk, input,
		func(s *State) *Slot[[]model.RiskRow] { return &s.Risk },
		func(ctx context.Context, tickers []string) ([]model.RiskRow, error) {
			res, err := d.client.MarketTrend(ctx, tickers)
			if err != nil {
				return nil, err
			}
			return adapter.ToRiskTable(res)
		})
}

// Frontier fetches the efficient frontier.
func (d *Dashboard) Frontier(ctx context.Context, input string) (Slot[model.FrontierSeries], error) {
	return run(ctx, d, CapabilityFrontier, input,
		func(s *State) *Slot[model.FrontierSeries] { return &s.Frontier },
		func(ctx context.Context, tickers []string) (model.FrontierSeries, error) {
			res, err := d.client.EfficientFrontier(ctx, tickers)
			if err != nil {
				return model.FrontierSeries{}, err
			}
			return adapter.ToFrontierSeries(res), nil
		})
}

// Run dispatches capability c; modelType and periodDays apply to forecasts only.
func (d *Dashboard) Run(ctx context.Context, c Capability, input, modelType string, periodDays int) (SlotState, error) {
	switch c {
	case CapabilityOptimize:
		s, err := d.Optimize(ctx, input)
		return s.SlotState, err
	case CapabilityForecast:
		s, err := d.Forecast(ctx, input, modelType, periodDays)
		return s.SlotState, err
	case CapabilityRisk:
		s, err := d.Risk(ctx, input)
		return s.SlotState, err
	case CapabilityFrontier:
		s, err := d.Frontier(ctx, input)
		return s.SlotState, err
	}
	return SlotState{}, apperr.New(apperr.CodeValidation, "unknown capability %q", c)
}

func run[T any](
	ctx context.Context,
	d *Dashboard,
	c Capability,
	input string,
	slotOf func(*State) *Slot[T],
	fetch func(context.Context, []string) (T, error),
) (Slot[T], error) {
	start := d.now()
	tickers := model.ParseTickers(input)

	if len(tickers) == 0 {
		err := apperr.New(apperr.CodeValidation, EmptyTickersMessage)
		d.mu.Lock()
		slot := slotOf(&d.state)
		slot.Error = &SlotError{Code: apperr.CodeValidation, Message: EmptyTickersMessage}
		slot.UpdatedAt = start
		out := *slot
		d.mu.Unlock()

		d.record(ctx, c, tickers, history.OutcomeInvalid, err, start)
		return out, err
	}

	d.mu.Lock()
	d.state.Tickers = tickers
	slot := slotOf(&d.state)
	slot.Seq++
	seq := slot.Seq
	slot.Status = StatusInFlight
	slot.Tickers = tickers
	slot.Error = nil
	d.mu.Unlock()

	d.log.Debug().Str("capability", string(c)).Strs("tickers", tickers).Uint64("seq", seq).Msg("dispatch")

	data, err := fetch(ctx, tickers)

	d.mu.Lock()
	slot = slotOf(&d.state)
	if slot.Seq != seq {
		out := *slot
		d.mu.Unlock()

		d.log.Info().Str("capability", string(c)).Uint64("seq", seq).Uint64("latest", out.Seq).Msg("discarding stale completion")
		stale := apperr.Wrap(err, apperr.CodeStale, "%s request %d superseded by %d", c, seq, out.Seq)
		d.record(ctx, c, tickers, history.OutcomeStale, stale, start)
		return out, stale
	}
	slot.Status = StatusIdle
	slot.UpdatedAt = d.now()
	if err != nil {
		code := apperr.CodeOf(err)
		if code == "" {
			code = apperr.CodeService
		}
		slot.Error = &SlotError{Code: code, Message: apperr.UserMessage(c.Action(), err)}
	} else {
		slot.Data = &data
		slot.Error = nil
	}
	out := *slot
	d.mu.Unlock()

	if err != nil {
		d.log.Warn().Err(err).Str("capability", string(c)).Strs("tickers", tickers).Msg("action failed")
		d.record(ctx, c, tickers, history.OutcomeError, err, start)
		return out, err
	}
	d.record(ctx, c, tickers, history.OutcomeOK, nil, start)
	return out, nil
}

func (d *Dashboard) record(ctx context.Context, c Capability, tickers []string, outcome history.Outcome, err error, start time.Time) {
	if d.recorder == nil {
		return
	}
	e := history.Entry{
		SessionID:  d.id,
		Capability: string(c),
		Tickers:    tickers,
		Outcome:    outcome,
		ErrorCode:  string(apperr.CodeOf(err)),
		DurationMS: d.now().Sub(start).Milliseconds(),
	}
	if rerr := d.recorder.Record(context.WithoutCancel(ctx), e); rerr != nil {
		d.log.Warn().Err(rerr).Str("capability", string(c)).Msg("record history failed")
	}
}
