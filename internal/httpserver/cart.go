package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logger"
	"storefront/internal/service/cart"
)

type cartResponse struct {
	Items     []domain.CartLine `json:"items"`
	Total     json.Number       `json:"total"`
	ItemCount int               `json:"itemCount"`
	Warnings  []cart.Warning    `json:"warnings,omitempty"`
}

func toCartResponse(store *cart.Store) cartResponse {
	snapshot := store.Lines()
	items := snapshot.Lines
	if items == nil {
		items = []domain.CartLine{}
	}
	return cartResponse{
		Items:     items,
		Total:     json.Number(store.Total().StringFixed(2)),
		ItemCount: snapshot.ItemCount(),
		Warnings:  store.Warnings(),
	}
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *handlers) getCart(c *gin.Context) {
	store := h.cartStore(c)
	store.Load(c.Request.Context())
	c.JSON(http.StatusOK, toCartResponse(store))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var line domain.CartLine
	if err := c.ShouldBindJSON(&line); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid cart item")
		return
	}
	line.ID = strings.TrimSpace(line.ID)

	store := h.cartStore(c)
	store.Load(c.Request.Context())
	if err := store.Add(c.Request.Context(), line); err != nil {
		h.cartWriteFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(store))
}

func (h *handlers) setCartItemQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		abortWithError(c, http.StatusBadRequest, "quantity is required")
		return
	}

	store := h.cartStore(c)
	store.Load(c.Request.Context())
	if err := store.SetQuantity(c.Request.Context(), c.Param("id"), *req.Quantity); err != nil {
		h.cartWriteFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(store))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	store := h.cartStore(c)
	store.Load(c.Request.Context())
	if err := store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.cartWriteFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(store))
}

func (h *handlers) cartWriteFailed(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidLine) {
		abortWithError(c, http.StatusBadRequest, "invalid cart item")
		return
	}
	logger.FromGin(c).Error("save cart", zap.Error(err))
	abortWithError(c, http.StatusInternalServerError, "Could not save your cart")
}
