package samplegen

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"portfolio-dashboard/internal/handler"
	"portfolio-dashboard/internal/model"
)

// NewServer serves generated payloads on the analytics API routes.
func NewServer(g *Generator, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handler.RequestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "shape": g.Shape})
	})

	api := r.Group("/api")
	{
		api.POST("/optimize", func(c *gin.Context) {
			req, ok := bindStocks(c, "No stocks provided")
			if !ok {
				return
			}
			out, err := g.Optimize(req.Stocks)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})
		api.POST("/forecast", func(c *gin.Context) {
			req, ok := bindStocks(c, "No valid stock tickers provided.")
			if !ok {
				return
			}
			c.JSON(http.StatusOK, g.Forecast(req.Stocks, req.ModelType, req.ForecastPeriod))
		})
		api.POST("/market-trend", func(c *gin.Context) {
			req, ok := bindStocks(c, "No stocks provided")
			if !ok {
				return
			}
			c.JSON(http.StatusOK, g.MarketTrend(req.Stocks))
		})
		api.POST("/efficient-frontier", func(c *gin.Context) {
			req, ok := bindStocks(c, "No stocks provided")
			if !ok {
				return
			}
			out, err := g.EfficientFrontier(req.Stocks)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
	return r
}

// bindStocks decodes the request and drops blank tickers; an empty list is
// answered with 400 and emptyMsg.
func bindStocks(c *gin.Context, emptyMsg string) (model.AnalyticsRequest, bool) {
	var req model.AnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return req, false
	}
	stocks := req.Stocks[:0]
	for _, s := range req.Stocks {
		if s = strings.TrimSpace(s); s != "" {
			stocks = append(stocks, s)
		}
	}
	req.Stocks = stocks
	if len(req.Stocks) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": emptyMsg})
		return req, false
	}
	return req, true
}
