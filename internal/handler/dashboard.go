package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"portfolio-dashboard/internal/apperr"
	"portfolio-dashboard/internal/history"
	"portfolio-dashboard/internal/service"
	"portfolio-dashboard/internal/view"
)

// SessionHeader carries the dashboard session ID in both directions.
const SessionHeader = "X-Session-ID"

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
	maxForecastPeriod   = 365
)

// HistoryReader lists recorded actions.
type HistoryReader interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]history.Entry, error)
}

// TickerInput accepts "TSLA, AAPL" or ["TSLA", "AAPL"].
type TickerInput string

func (t *TickerInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TickerInput(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.New("tickers must be a string or an array of strings")
	}
	*t = TickerInput(strings.Join(list, ","))
	return nil
}

// ActionRequest body of the POST /api/dashboard/* endpoints.
type ActionRequest struct {
	Tickers        TickerInput `json:"tickers"`
	ModelType      string      `json:"model_type"`
	ForecastPeriod int         `json:"forecast_period"`
}

// DashboardHandler serves the session-scoped dashboard API.
type DashboardHandler struct {
	sessions *service.SessionStore
	history  HistoryReader
	log      zerolog.Logger
}

// NewDashboardHandler builds the handler; hist may be nil.
func NewDashboardHandler(sessions *service.SessionStore, hist HistoryReader, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		sessions: sessions,
		history:  hist,
		log:      log.With().Str("component", "handler").Logger(),
	}
}

// session resolves the caller's dashboard, starting a new one when the header
// is missing or unknown, and echoes its ID.
func (h *DashboardHandler) session(c *gin.Context) *service.Dashboard {
	d, created := h.sessions.GetOrCreate(c.GetHeader(SessionHeader))
	if created {
		h.log.Debug().Str("session_id", d.ID()).Msg("session created")
	}
	c.Header(SessionHeader, d.ID())
	return d
}

// CreateSession POST /api/sessions
func (h *DashboardHandler) CreateSession(c *gin.Context) {
	d, info := h.sessions.Create()
	c.Header(SessionHeader, d.ID())
	c.JSON(http.StatusCreated, info)
}

// GetDashboard GET /api/dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	state := h.session(c).Snapshot()

	if c.Query("format") == "markdown" {
		md, err := view.Markdown(view.Build(state))
		if err != nil {
			h.log.Error().Err(err).Msg("render markdown")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render dashboard"})
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
		return
	}

	if v, _ := strconv.ParseBool(c.DefaultQuery("view", "false")); v {
		c.JSON(http.StatusOK, view.Build(state))
		return
	}

	c.JSON(http.StatusOK, state)
}

// Action POST /api/dashboard/:capability
func (h *DashboardHandler) Action(c *gin.Context) {
	capability, ok := service.ParseCapability(c.Param("capability"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown capability " + strconv.Quote(c.Param("capability"))})
		return
	}
	d := h.session(c)

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.ForecastPeriod < 0 || req.ForecastPeriod > maxForecastPeriod {
		c.JSON(http.StatusBadRequest, gin.H{"error": "forecast_period must be between 0 and 365 days, 0 uses the default"})
		return
	}

	ctx := c.Request.Context()
	input := string(req.Tickers)
	switch capability {
	case service.CapabilityOptimize:
		slot, err := d.Optimize(ctx, input)
		respond(c, capability, slot.SlotState, slot, err)
	case service.CapabilityForecast:
		slot, err := d.Forecast(ctx, input, req.ModelType, req.ForecastPeriod)
		respond(c, capability, slot.SlotState, slot, err)
	case service.CapabilityRisk:
		slot, err := d.Risk(ctx, input)
		respond(c, capability, slot.SlotState, slot, err)
	case service.CapabilityFrontier:
		slot, err := d.Frontier(ctx, input)
		respond(c, capability, slot.SlotState, slot, err)
	}
}

func respond(c *gin.Context, capability service.Capability, state service.SlotState, slot any, err error) {
	if err == nil {
		c.JSON(http.StatusOK, slot)
		return
	}

	msg := apperr.UserMessage(capability.Action(), err)
	if state.Error != nil && apperr.CodeOf(err) != apperr.CodeStale {
		msg = state.Error.Message
	}
	c.JSON(StatusFor(err), gin.H{
		"error": msg,
		"code":  apperr.CodeOf(err),
		"slot":  slot,
	})
}

// StatusFor maps an action error to its HTTP status.
func StatusFor(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNetwork:
		return http.StatusGatewayTimeout
	case apperr.CodeService, apperr.CodeMalformedResponse, apperr.CodeInvariantViolation, apperr.CodeMissingMetric:
		return http.StatusBadGateway
	case apperr.CodeStale:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// History GET /api/history?limit=N[&scope=all]
func (h *DashboardHandler) History(c *gin.Context) {
	d := h.session(c)

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false, "entries": []history.Entry{}})
		return
	}

	sessionID := d.ID()
	if c.Query("scope") == "all" {
		sessionID = ""
	}
	entries, err := h.history.Recent(c.Request.Context(), sessionID, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("read history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true, "entries": entries})
}
