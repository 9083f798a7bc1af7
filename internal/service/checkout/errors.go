package checkout

import "errors"

// Kind classifies a checkout failure.
type Kind string

const (
	KindNotAuthenticated    Kind = "NotAuthenticated"
	KindEmptyCart           Kind = "EmptyCart"
	KindUnsupportedProvider Kind = "UnsupportedProvider"
	KindOrderCreationFailed Kind = "OrderCreationFailed"
	KindPaymentInitFailed   Kind = "PaymentInitFailed"
	KindNoRedirectTarget    Kind = "NoRedirectTarget"
)

// Messages shown when the backend gives none.
const (
	MsgNotAuthenticated    = "Please sign in before proceeding to payment."
	MsgEmptyCart           = "Your cart is empty."
	MsgUnsupportedProvider = "Unsupported payment provider."
	MsgOrderCreationFailed = "Failed to create order"
	MsgMissingOrderID      = "Order response missing orderId"
	MsgPaymentInitFailed   = "Payment init failed"
	MsgNoRedirectTarget    = "No redirect URL from payment init"
)

// Error is a checkout failure. Error returns the message meant for the visitor.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a checkout error, or "" for other errors.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

func fail(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}
