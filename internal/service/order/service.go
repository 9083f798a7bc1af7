package order

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

// MsgFetchFailed is shown when the backend gives no reason.
const MsgFetchFailed = "Failed to fetch order"

type orderAPI interface {
	GetOrder(ctx context.Context, orderID string) (*domain.OrderDetail, error)
}

// FetchError carries the message shown to the visitor.
type FetchError struct {
	Message string
	Err     error
}

func (e *FetchError) Error() string { return e.Message }

func (e *FetchError) Unwrap() error { return e.Err }

type Service struct {
	api orderAPI
}

func New(api orderAPI) *Service {
	return &Service{api: api}
}

// Get returns the backend's view of an order. A 404 wraps domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, &FetchError{Message: MsgFetchFailed, Err: domain.ErrNotFound}
	}
	o, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		msg := backend.MessageOf(err)
		if msg == "" {
			msg = MsgFetchFailed
		}
		var se *backend.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			err = errors.Join(domain.ErrNotFound, err)
		}
		return nil, &FetchError{Message: msg, Err: err}
	}
	return o, nil
}
