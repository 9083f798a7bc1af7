package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/checkout"
	"storefront/internal/service/order"
)

// checkoutRequest accepts JSON or a form post. Card fields a form may carry are never
// read; the charge happens on the provider's page.
type checkoutRequest struct {
	Provider string `json:"provider" form:"provider"`
}

type redirectNavigator struct {
	c *gin.Context
}

// Redirect answers with 303 so the browser follows with a GET to the gateway.
func (n redirectNavigator) Redirect(url string) {
	n.c.Redirect(http.StatusSeeOther, url)
}

var checkoutStatus = map[checkout.Kind]int{
	checkout.KindNotAuthenticated:    http.StatusUnauthorized,
	checkout.KindEmptyCart:           http.StatusUnprocessableEntity,
	checkout.KindUnsupportedProvider: http.StatusBadRequest,
	checkout.KindOrderCreationFailed: http.StatusBadGateway,
	checkout.KindPaymentInitFailed:   http.StatusBadGateway,
	checkout.KindNoRedirectTarget:    http.StatusBadGateway,
}

func (h *handlers) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	provider := domain.Provider(strings.ToUpper(strings.TrimSpace(req.Provider)))

	s := h.session(c)
	cartValue := domain.Cart{}
	if s.Authenticated {
		cartValue = h.cartStore(c).Load(c.Request.Context())
	}

	attempt, err := h.orchestrator(c).InitiatePayment(c.Request.Context(), redirectNavigator{c: c}, s, cartValue, provider)
	if err != nil {
		status, ok := checkoutStatus[checkout.KindOf(err)]
		if !ok {
			status = http.StatusInternalServerError
		}
		c.AbortWithStatusJSON(status, gin.H{
			"error":   err.Error(),
			"kind":    checkout.KindOf(err),
			"state":   attempt.State,
			"orderId": attempt.OrderID,
		})
	}
}

type orderResponse struct {
	*domain.OrderDetail
	Settled   bool `json:"settled"`
	Cancelled bool `json:"cancelled"`
}

func (h *handlers) getOrder(c *gin.Context) {
	decision := domain.Authorize(h.session(c), domain.PageOrders)
	if !decision.Allowed() {
		status := http.StatusForbidden
		if decision.Status == domain.AccessUnauthenticated {
			status = http.StatusUnauthorized
		}
		abortWithError(c, status, decision.Message)
		return
	}

	o, err := order.New(h.api(c)).Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		abortWithError(c, status, err.Error())
		return
	}
	c.JSON(http.StatusOK, orderResponse{OrderDetail: o, Settled: o.Status.Settled(), Cancelled: o.Status.Cancelled()})
}
