package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"vetdesk/backend/internal/metrics"
	"vetdesk/backend/internal/mw"
)

// RouterConfig tunes the outer HTTP surface.
type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int

	// RequestTimeout caps a single API request; zero disables the cap.
	RequestTimeout time.Duration
}

// NewRouter wires the scheduling endpoints, health check and metrics.
func NewRouter(svc availabilityService, log *slog.Logger, cfg RouterConfig) *gin.Engine {
	metrics.Register()

	r := gin.New()
	r.Use(gin.Recovery())

	server := NewSchedulingServer(svc, log)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	if cfg.RequestTimeout > 0 {
		api.Use(requestTimeout(cfg.RequestTimeout))
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		api.Use(mw.RateLimiter(rate.Limit(cfg.RateLimitRPS), burst))
	}
	{
		api.GET("/entities/:entity_id/slots", server.ListSlots)
		api.POST("/entities/:entity_id/bookings", server.CreateBooking)
	}

	return r
}

func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); ok {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
