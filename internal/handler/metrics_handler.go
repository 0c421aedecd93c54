package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-club-api/internal/service"
)

// MetricsHandler exposes the Prometheus scrape endpoint.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler constructs MetricsHandler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Scrape godoc
// @Summary Prometheus metrics
// @Tags Metrics
// @Produce plain
// @Success 200 {string} string "metrics"
// @Router /metrics [get]
func (h *MetricsHandler) Scrape(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
