package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"storefront/internal/domain"
)

// Me calls GET /auth/me. A 2xx answer means the visitor is signed in; the user record
// is nil when the body does not decode.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	resp, err := c.api(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp.body), nil
}

// decodeUser accepts either a bare user object or one wrapped in {"user": ...}.
func decodeUser(body []byte) *domain.User {
	var wrapped struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User
	}
	var u domain.User
	if err := json.Unmarshal(body, &u); err != nil || u.ID == "" {
		return nil
	}
	return &u
}

// LoginResult carries the signed-in user and the session cookies the API issued.
type LoginResult struct {
	User    *domain.User
	Cookies []*http.Cookie
}

// Login calls POST /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.api(ctx, http.MethodPost, "/auth/login", body, nil)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: decodeUser(resp.body), Cookies: resp.cookies}, nil
}

// Logout calls POST /auth/logout and returns the cookies the API cleared.
func (c *Client) Logout(ctx context.Context) ([]*http.Cookie, error) {
	resp, err := c.api(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.cookies, nil
}

// GetCart calls GET /cart.
func (c *Client) GetCart(ctx context.Context) ([]domain.CartLine, error) {
	var out struct {
		Items []domain.CartLine `json:"items"`
	}
	if _, err := c.api(ctx, http.MethodGet, "/cart", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// SetCartLineQuantity calls PATCH /cart/{id}.
func (c *Client) SetCartLineQuantity(ctx context.Context, id string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	_, err := c.api(ctx, http.MethodPatch, "/cart/"+url.PathEscape(id), body, nil)
	return err
}

// DeleteCartLine calls DELETE /cart/{id}.
func (c *Client) DeleteCartLine(ctx context.Context, id string) error {
	_, err := c.api(ctx, http.MethodDelete, "/cart/"+url.PathEscape(id), nil, nil)
	return err
}

// CreatedOrder is the success body of POST /orders.
type CreatedOrder struct {
	OrderID string `json:"orderId"`
}

// CreateOrder calls POST /orders.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*CreatedOrder, error) {
	var out CreatedOrder
	if _, err := c.api(ctx, http.MethodPost, "/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PaymentSession is the success body of the payment-init call. Paystack answers with
// AuthorizationURL, PayPal with ApprovalURL.
type PaymentSession struct {
	AuthorizationURL string `json:"authorization_url"`
	ApprovalURL      string `json:"approval_url"`
}

// InitPayment calls POST /payments/{orderId}/init/ under the payments prefix.
func (c *Client) InitPayment(ctx context.Context, orderID string, provider domain.Provider) (*PaymentSession, error) {
	target := c.endpoint(c.paymentsPrefix, "/payments/"+url.PathEscape(orderID)+"/init/")
	resp, err := c.send(ctx, http.MethodPost, target, map[string]domain.Provider{"provider": provider})
	if err != nil {
		return nil, err
	}
	var out PaymentSession
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("decode payment init response: %w", err)
	}
	return &out, nil
}

// GetOrder calls GET /orders/{id}/.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
	var out domain.OrderDetail
	if _, err := c.api(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
