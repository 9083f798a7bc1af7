package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/backend"
	"storefront/internal/devicestore"
	"storefront/internal/domain"
	"storefront/internal/logger"
	"storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	"storefront/internal/service/session"
)

type handlers struct {
	deps Deps
}

// api returns a backend client carrying the visitor's cookies, minus the device cookie.
func (h *handlers) api(c *gin.Context) *backend.Client {
	deviceCookie := h.deps.Devices.CookieName()
	var forwarded []*http.Cookie
	for _, ck := range c.Request.Cookies() {
		if ck.Name != deviceCookie {
			forwarded = append(forwarded, ck)
		}
	}
	return h.deps.Backend.WithCookies(forwarded)
}

func (h *handlers) resolver(c *gin.Context) *session.Resolver {
	var rec session.Recorder
	if h.deps.Metrics != nil {
		rec = h.deps.Metrics
	}
	return session.New(h.api(c), logger.FromGin(c), rec)
}

// session resolves the visitor once per request.
func (h *handlers) session(c *gin.Context) domain.Session {
	if s, ok := cachedSession(c); ok {
		return s
	}
	s := h.resolver(c).Resolve(c.Request.Context())
	cacheSession(c, s)
	return s
}

func (h *handlers) cartStore(c *gin.Context) *cart.Store {
	var rec cart.Recorder
	if h.deps.Metrics != nil {
		rec = h.deps.Metrics
	}
	device := devicestore.Scoped(h.deps.DeviceStore, deviceID(c))
	return cart.New(h.api(c), device, h.session(c), logger.FromGin(c), rec)
}

func (h *handlers) orchestrator(c *gin.Context) *checkout.Orchestrator {
	var rec checkout.Recorder
	if h.deps.Metrics != nil {
		rec = h.deps.Metrics
	}
	return checkout.New(h.api(c), logger.FromGin(c), rec)
}

// relayCookies passes backend-issued cookies to the browser under this host.
func relayCookies(c *gin.Context, cookies []*http.Cookie) {
	for _, ck := range cookies {
		ck.Domain = ""
		http.SetCookie(c.Writer, ck)
	}
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
