package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Provider is an external payment gateway.
type Provider string

const (
	ProviderPaystack Provider = "PAYSTACK"
	ProviderPayPal   Provider = "PAYPAL"
)

// Valid reports whether p is a supported gateway.
func (p Provider) Valid() bool {
	return p == ProviderPaystack || p == ProviderPayPal
}

// PaymentStatusInitiated is the payment status sent with every new order.
const PaymentStatusInitiated = "INITIATED"

// OrderItem is one line of an order request.
type OrderItem struct {
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	Price     json.Number `json:"price"`
}

// OrderPayment is the payment block of an order request.
type OrderPayment struct {
	Provider Provider `json:"provider"`
	Status   string   `json:"status"`
}

// OrderRequest is the body sent to create an order.
type OrderRequest struct {
	UserID  string       `json:"userId"`
	Items   []OrderItem  `json:"items"`
	Payment OrderPayment `json:"payment"`
}

// NewOrderRequest derives an order request 1:1 from the cart lines.
func NewOrderRequest(userID string, cart Cart, provider Provider) OrderRequest {
	items := make([]OrderItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		qty := l.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, OrderItem{
			ProductID: l.ID,
			Quantity:  qty,
			Price:     json.Number(l.Price.String()),
		})
	}
	return OrderRequest{
		UserID:  userID,
		Items:   items,
		Payment: OrderPayment{Provider: provider, Status: PaymentStatusInitiated},
	}
}

// OrderStatus is the backend-owned order lifecycle state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Settled reports whether the order has been paid for.
func (s OrderStatus) Settled() bool {
	return s == OrderPaid || s == OrderShipped || s == OrderDelivered
}

// Cancelled reports whether the order was cancelled.
func (s OrderStatus) Cancelled() bool {
	return s == OrderCancelled
}

// OrderDetailItem is a line of an order as reported by the backend.
type OrderDetailItem struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderDetail is the read-only order view used for status display.
type OrderDetail struct {
	ID          string            `json:"id"`
	Status      OrderStatus       `json:"status"`
	Items       []OrderDetailItem `json:"items"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	CreatedAt   time.Time         `json:"created_at"`
}
