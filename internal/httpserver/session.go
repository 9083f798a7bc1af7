package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logger"
	"storefront/internal/service/session"
)

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *domain.User  `json:"user,omitempty"`
	Dashboard     domain.Page   `json:"dashboard,omitempty"`
	Pages         []domain.Page `json:"pages"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	resp := sessionResponse{
		Authenticated: s.Authenticated,
		User:          s.User,
		Pages:         domain.AccessiblePages(s),
	}
	if s.Authenticated {
		resp.Dashboard = domain.DashboardPath(s.Role())
	}
	return resp
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, toSessionResponse(h.session(c)))
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.resolver(c).Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var ie *session.InputError
		switch {
		case errors.As(err, &ie):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ie.Message, "field": ie.Field})
		case errors.Is(err, session.ErrInvalidCredentials):
			abortWithError(c, http.StatusUnauthorized, "Invalid email or password")
		default:
			logger.FromGin(c).Warn("login failed", zap.Error(err))
			abortWithError(c, http.StatusBadGateway, "Login failed")
		}
		return
	}

	relayCookies(c, res.Cookies)
	cacheSession(c, res.Session)
	c.JSON(http.StatusOK, toSessionResponse(res.Session))
}

func (h *handlers) logout(c *gin.Context) {
	cookies, err := h.resolver(c).Logout(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Warn("logout failed", zap.Error(err))
		abortWithError(c, http.StatusBadGateway, "Logout failed")
		return
	}
	relayCookies(c, cookies)
	c.JSON(http.StatusOK, toSessionResponse(domain.Guest()))
}

type accessResponse struct {
	Page     domain.Page         `json:"page"`
	Allowed  bool                `json:"allowed"`
	Status   domain.AccessStatus `json:"status"`
	Message  string              `json:"message,omitempty"`
	Redirect domain.Page         `json:"redirect,omitempty"`
}

func (h *handlers) checkAccess(c *gin.Context) {
	page := domain.Page(strings.TrimSpace(c.Query("page")))
	if page == "" {
		abortWithError(c, http.StatusBadRequest, "page is required")
		return
	}
	if len(page) > 1 {
		page = domain.Page(strings.TrimRight(string(page), "/"))
	}

	s := h.session(c)
	decision := domain.Authorize(s, page)
	resp := accessResponse{
		Page:    page,
		Allowed: decision.Allowed(),
		Status:  decision.Status,
		Message: decision.Message,
	}
	switch decision.Status {
	case domain.AccessUnauthenticated:
		resp.Redirect = domain.PageHome
	case domain.AccessForbidden:
		resp.Redirect = domain.DashboardPath(s.Role())
	}
	c.JSON(http.StatusOK, resp)
}
