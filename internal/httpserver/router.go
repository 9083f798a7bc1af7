package httpserver

import (
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"storefront/internal/backend"
	"storefront/internal/devicestore"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/service/device"
)

// Deps are the collaborators shared by all requests. Per-visitor services are built
// from them on each request.
type Deps struct {
	Backend          *backend.Client
	DeviceStore      devicestore.Store
	Devices          *device.Service
	Metrics          *metrics.Metrics // optional; /metrics is not served without it
	Logger           *zap.Logger
	CORSAllowOrigins []string
	ServiceName      string
}

// buildRouter wires routes for the API.
func buildRouter(deps Deps) (*gin.Engine, error) {
	if deps.Backend == nil {
		return nil, errors.New("backend client required")
	}
	if deps.DeviceStore == nil {
		return nil, errors.New("device store required")
	}
	if deps.Devices == nil {
		deps.Devices = device.New(device.Config{})
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "storefront"
	}

	router := gin.New()
	router.Use(
		logger.Recovery(deps.Logger),
		otelgin.Middleware(deps.ServiceName),
		logger.GinMiddleware(deps.Logger),
	)
	if len(deps.CORSAllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSAllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if deps.Metrics != nil {
		router.Use(metricsMiddleware(deps.Metrics))
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DeviceStore))

	h := &handlers{deps: deps}
	api := router.Group("/api", deviceMiddleware(deps.Devices))
	{
		api.GET("/session", h.getSession)
		api.POST("/session/login", h.login)
		api.POST("/session/logout", h.logout)
		api.GET("/access", h.checkAccess)

		api.GET("/cart", h.getCart)
		api.POST("/cart/items", h.addCartItem)
		api.PATCH("/cart/items/:id", h.setCartItemQuantity)
		api.DELETE("/cart/items/:id", h.removeCartItem)

		api.POST("/checkout", h.checkout)
		api.GET("/orders/:id", h.getOrder)
	}

	return router, nil
}
