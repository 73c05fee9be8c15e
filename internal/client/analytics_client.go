// Package client talks to the external analytics service.
package client

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"portfolio-dashboard/internal/apperr"
	"portfolio-dashboard/internal/cache"
	"portfolio-dashboard/internal/model"
)

const maxResponseBytes = 32 << 20

// Capability names, also used as cache key prefixes.
const (
	CapabilityOptimize = "optimize"
	CapabilityForecast = "forecast"
	CapabilityRisk     = "risk"
	CapabilityFrontier = "frontier"
)

var endpoints = map[string]string{
	CapabilityOptimize: "/api/optimize",
	CapabilityForecast: "/api/forecast",
	CapabilityRisk:     "/api/market-trend",
	CapabilityFrontier: "/api/efficient-frontier",
}

// Options configure an AnalyticsClient.
type Options struct {
	BaseURL string
	Timeout time.Duration

	// Cache is optional; responses are cached only when CacheTTL > 0.
	Cache    cache.Provider
	CacheTTL time.Duration

	Logger     zerolog.Logger
	HTTPClient *http.Client
}

// AnalyticsClient HTTP client for the analytics API. One attempt per call,
// no retries.
type AnalyticsClient struct {
	baseURL  string
	http     *http.Client
	cache    cache.Provider
	cacheTTL time.Duration
	log      zerolog.Logger
}

func NewAnalyticsClient(opts Options) *AnalyticsClient {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &AnalyticsClient{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     hc,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		log:      opts.Logger.With().Str("component", "analytics_client").Logger(),
	}
}

// Optimize POST /api/optimize
func (c *AnalyticsClient) Optimize(ctx context.Context, tickers []string) (*model.OptimizationResult, error) {
	var out model.OptimizationResult
	if err := c.post(ctx, CapabilityOptimize, model.AnalyticsRequest{Stocks: tickers}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast POST /api/forecast
func (c *AnalyticsClient) Forecast(ctx context.Context, tickers []string, modelType string, periodDays int) (*model.ForecastResult, error) {
	req := model.AnalyticsRequest{Stocks: tickers, ModelType: modelType, ForecastPeriod: periodDays}
	var out model.ForecastResult
	if err := c.post(ctx, CapabilityForecast, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarketTrend POST /api/market-trend
func (c *AnalyticsClient) MarketTrend(ctx context.Context, tickers []string) (*model.RiskMetrics, error) {
	var out model.RiskMetrics
	if err := c.post(ctx, CapabilityRisk, model.AnalyticsRequest{Stocks: tickers}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EfficientFrontier POST /api/efficient-frontier
func (c *AnalyticsClient) EfficientFrontier(ctx context.Context, tickers []string) (*model.EfficientFrontierResult, error) {
	var out model.EfficientFrontierResult
	if err := c.post(ctx, CapabilityFrontier, model.AnalyticsRequest{Stocks: tickers}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AnalyticsClient) post(ctx context.Context, capability string, req model.AnalyticsRequest, out any) error {
	path := endpoints[capability]
	payload, err := json.Marshal(req)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeValidation, "encode %s request", capability)
	}

	key := cacheKey(capability, payload)
	if c.cachedInto(ctx, key, out) {
		return nil
	}

	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeNetwork, "build URL for %s", path)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return apperr.Wrap(err, apperr.CodeNetwork, "build request for %s", path)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Dur("elapsed", time.Since(start)).Msg("analytics request failed")
		return apperr.Wrap(err, apperr.CodeNetwork, "POST %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperr.Wrap(err, apperr.CodeNetwork, "read %s response", path)
	}

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("analytics response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.Service(resp.StatusCode, serviceMessage(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Wrap(err, apperr.CodeMalformedResponse, "decode %s response", path)
	}

	c.store(ctx, key, body)
	return nil
}

func (c *AnalyticsClient) cachedInto(ctx context.Context, key string, out any) bool {
	if c.cache == nil || c.cacheTTL <= 0 {
		return false
	}
	var raw json.RawMessage
	if err := c.cache.Get(ctx, key, &raw); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cached response undecodable")
		return false
	}
	c.log.Debug().Str("key", key).Msg("cache hit")
	return true
}

func (c *AnalyticsClient) store(ctx context.Context, key string, body []byte) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, json.RawMessage(body), c.cacheTTL); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func cacheKey(capability string, payload []byte) string {
	sum := sha1.Sum(payload)
	return capability + ":" + hex.EncodeToString(sum[:])
}

// serviceMessage extracts {"error": "..."} from an error body.
func serviceMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}
