package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"parkingfee/middleware"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

func NewRouter(h *Handler, log *zap.Logger, checks map[string]HealthCheck) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies(nil)
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.RequestLogger(log),
		middleware.Metrics(),
	)

	router.GET("/healthz", healthz(checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.POST("/fee", h.Fee)
	api.POST("/fee/split", h.SplitFee)
	api.GET("/rates", h.ListRates)
	api.GET("/rates/:category", h.GetRate)
	api.PUT("/rates/:category", h.PutRate)

	return router
}

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = "unhealthy: " + err.Error()
				status = http.StatusServiceUnavailable
			} else {
				results[name] = "healthy"
			}
		}

		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": results})
	}
}
