package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/service/device"
)

type ctxKey string

const (
	deviceCtxKey  ctxKey = "device"
	sessionCtxKey ctxKey = "session"
)

// deviceMiddleware makes sure every API request carries a device id, issuing the
// cookie on first visit.
func deviceMiddleware(devices *device.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, issued, err := devices.Identify(c.Request)
		if err != nil {
			logger.FromGin(c).Error("issue device id", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if issued {
			http.SetCookie(c.Writer, devices.Cookie(id))
		}
		ctx := context.WithValue(c.Request.Context(), deviceCtxKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func deviceID(c *gin.Context) string {
	id, _ := c.Request.Context().Value(deviceCtxKey).(string)
	return id
}

func cachedSession(c *gin.Context) (domain.Session, bool) {
	s, ok := c.Request.Context().Value(sessionCtxKey).(domain.Session)
	return s, ok
}

func cacheSession(c *gin.Context, s domain.Session) {
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), sessionCtxKey, s))
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
