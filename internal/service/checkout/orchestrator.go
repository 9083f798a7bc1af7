// Package checkout turns a cart into an order and hands the visitor to the payment
// gateway.
package checkout

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"storefront/internal/backend"
	"storefront/internal/domain"
	"storefront/internal/telemetry"
)

type orderAPI interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*backend.CreatedOrder, error)
	InitPayment(ctx context.Context, orderID string, provider domain.Provider) (*backend.PaymentSession, error)
}

// Navigator sends the visitor to an external page.
type Navigator interface {
	Redirect(url string)
}

// Recorder counts finished attempts.
type Recorder interface {
	CheckoutFinished(provider, state, kind string)
}

type nopRecorder struct{}

func (nopRecorder) CheckoutFinished(string, string, string) {}

type Orchestrator struct {
	api      orderAPI
	logger   *zap.Logger
	recorder Recorder
}

func New(api orderAPI, logger *zap.Logger, recorder Recorder) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Orchestrator{api: api, logger: logger, recorder: recorder}
}

// InitiatePayment creates an order from cart and redirects through nav to the
// provider's hosted payment page. Preconditions are checked before any network call.
// Nothing is retried or rolled back; a failure after the order exists leaves the
// attempt in StateOrphanedOrder.
func (o *Orchestrator) InitiatePayment(ctx context.Context, nav Navigator, session domain.Session, cart domain.Cart, provider domain.Provider) (Attempt, error) {
	attempt := Attempt{State: StatePending, Provider: provider}

	if err := precheck(session, cart, provider); err != nil {
		attempt.failed()
		o.finish(attempt, err)
		return attempt, err
	}

	ctx, span := telemetry.StartSpan(ctx, "checkout.initiate_payment")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.provider", string(provider)),
		attribute.Int("checkout.lines", len(cart.Lines)),
	)

	err := o.run(ctx, nav, &attempt, domain.NewOrderRequest(session.UserID(), cart, provider))
	if err != nil {
		attempt.failed()
		telemetry.RecordError(span, err)
	}
	span.SetAttributes(
		attribute.String("checkout.state", string(attempt.State)),
		attribute.String("checkout.order_id", attempt.OrderID),
	)
	o.finish(attempt, err)
	return attempt, err
}

func precheck(session domain.Session, cart domain.Cart, provider domain.Provider) error {
	if !session.Authenticated {
		return fail(KindNotAuthenticated, MsgNotAuthenticated, nil)
	}
	if cart.Empty() {
		return fail(KindEmptyCart, MsgEmptyCart, nil)
	}
	if !provider.Valid() {
		return fail(KindUnsupportedProvider, MsgUnsupportedProvider, nil)
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, nav Navigator, attempt *Attempt, req domain.OrderRequest) error {
	created, err := o.api.CreateOrder(ctx, req)
	if err != nil {
		return fail(KindOrderCreationFailed, messageOr(err, MsgOrderCreationFailed), err)
	}
	orderID := strings.TrimSpace(created.OrderID)
	if orderID == "" {
		return fail(KindOrderCreationFailed, MsgMissingOrderID, nil)
	}
	attempt.OrderID = orderID
	attempt.moveTo(StateOrderCreated)

	payment, err := o.api.InitPayment(ctx, orderID, attempt.Provider)
	if err != nil {
		return fail(KindPaymentInitFailed, messageOr(err, MsgPaymentInitFailed), err)
	}
	attempt.moveTo(StatePaymentInitialized)

	target := payment.AuthorizationURL
	if target == "" {
		target = payment.ApprovalURL
	}
	if target == "" {
		return fail(KindNoRedirectTarget, MsgNoRedirectTarget, nil)
	}
	attempt.RedirectURL = target
	attempt.moveTo(StateRedirected)
	nav.Redirect(target)
	return nil
}

func messageOr(err error, fallback string) string {
	if msg := backend.MessageOf(err); msg != "" {
		return msg
	}
	return fallback
}

// providerLabel keeps client-supplied provider strings out of metric labels.
func providerLabel(p domain.Provider) string {
	if !p.Valid() {
		return "invalid"
	}
	return string(p)
}

func (o *Orchestrator) finish(attempt Attempt, err error) {
	kind := KindOf(err)
	o.recorder.CheckoutFinished(providerLabel(attempt.Provider), string(attempt.State), string(kind))
	fields := []zap.Field{
		zap.String("provider", string(attempt.Provider)),
		zap.String("state", string(attempt.State)),
		zap.String("order_id", attempt.OrderID),
	}
	switch {
	case err == nil:
		o.logger.Info("checkout redirected", fields...)
	case attempt.State == StateOrphanedOrder:
		o.logger.Warn("checkout left orphaned order", append(fields, zap.String("kind", string(kind)), zap.Error(err))...)
	default:
		o.logger.Info("checkout failed", append(fields, zap.String("kind", string(kind)), zap.Error(err))...)
	}
}
