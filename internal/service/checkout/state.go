package checkout

import (
	"fmt"

	"storefront/internal/domain"
)

// State is the progress of one checkout attempt.
type State string

const (
	StatePending            State = "pending"
	StateOrderCreated       State = "order_created"
	StatePaymentInitialized State = "payment_initialized"
	StateRedirected         State = "redirected"
	// StateFailed means no order was created.
	StateFailed State = "failed"
	// StateOrphanedOrder means an order exists without a payment session. The backend
	// expires such orders; nothing here cancels them.
	StateOrphanedOrder State = "orphaned_order"
)

var transitions = map[State][]State{
	StatePending:            {StateOrderCreated, StateFailed},
	StateOrderCreated:       {StatePaymentInitialized, StateOrphanedOrder},
	StatePaymentInitialized: {StateRedirected, StateOrphanedOrder},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether s may move to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Attempt records one run of InitiatePayment.
type Attempt struct {
	State       State           `json:"state"`
	Provider    domain.Provider `json:"provider"`
	OrderID     string          `json:"orderId,omitempty"`
	RedirectURL string          `json:"redirectUrl,omitempty"`
}

func (a *Attempt) moveTo(next State) {
	if !a.State.CanTransition(next) {
		panic(fmt.Sprintf("checkout: illegal transition %s -> %s", a.State, next))
	}
	a.State = next
}

// failed moves the attempt to the terminal state matching how far it got.
func (a *Attempt) failed() {
	if a.OrderID != "" {
		a.moveTo(StateOrphanedOrder)
		return
	}
	a.moveTo(StateFailed)
}
