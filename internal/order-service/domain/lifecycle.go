package domain

// OrderState is the lifecycle state of an online order as seen by payment
// reconciliation.
type OrderState string

const (
	StatePending OrderState = "PENDING"
	StatePaid    OrderState = "PAID"
	StateRemoved OrderState = "REMOVED"
)

// StateOf maps a stored order (or its absence) to a lifecycle state. Cash on
// delivery orders are paid from creation.
func StateOf(o *Order) OrderState {
	switch {
	case o == nil:
		return StateRemoved
	case o.IsPaid:
		return StatePaid
	default:
		return StatePending
	}
}

// Metadata keys attached to a checkout session and echoed back in events.
const (
	MetadataOrderID = "orderId"
	MetadataUserID  = "userId"
)

type EventKind string

const (
	EventSessionCompleted EventKind = "checkout.session.completed"
	EventSessionExpired   EventKind = "checkout.session.expired"
	EventPaymentSucceeded EventKind = "payment_intent.succeeded"
	EventPaymentFailed    EventKind = "payment_intent.payment_failed"
)

// PaymentEvent is a verified notification from the payment processor.
// Session events carry the metadata directly; intent events only carry
// PaymentIntentID until the originating session is resolved.
type PaymentEvent struct {
	ID              string
	Kind            EventKind
	SessionID       string
	PaymentIntentID string
	OrderID         string
	UserID          string
}

// Resolved reports whether the event identifies an order.
func (e PaymentEvent) Resolved() bool {
	return e.OrderID != ""
}

// NeedsSessionLookup reports whether the order identity has to be recovered
// from the session that created the payment intent.
func (e PaymentEvent) NeedsSessionLookup() bool {
	return !e.Resolved() && e.PaymentIntentID != "" &&
		(e.Kind == EventPaymentSucceeded || e.Kind == EventPaymentFailed)
}

type EffectKind string

const (
	EffectMarkPaid    EffectKind = "MARK_PAID"
	EffectClearCart   EffectKind = "CLEAR_CART"
	EffectDeleteOrder EffectKind = "DELETE_ORDER"
)

type Effect struct {
	Kind    EffectKind
	OrderID string
	UserID  string
}

// Transition is the reconciliation state machine. It never moves a paid
// order backwards and never resurrects a removed one, so replaying or
// reordering events converges to the same state.
func Transition(state OrderState, ev PaymentEvent) (OrderState, []Effect) {
	if !ev.Resolved() {
		return state, nil
	}

	switch ev.Kind {
	case EventSessionCompleted, EventPaymentSucceeded:
		if state != StatePending {
			return state, nil
		}
		effects := []Effect{{Kind: EffectMarkPaid, OrderID: ev.OrderID}}
		if ev.UserID != "" {
			effects = append(effects, Effect{Kind: EffectClearCart, OrderID: ev.OrderID, UserID: ev.UserID})
		}
		return StatePaid, effects

	case EventPaymentFailed, EventSessionExpired:
		if state != StatePending {
			return state, nil
		}
		return StateRemoved, []Effect{{Kind: EffectDeleteOrder, OrderID: ev.OrderID}}
	}

	return state, nil
}

// Handled reports whether the kind takes part in reconciliation at all.
func (k EventKind) Handled() bool {
	switch k {
	case EventSessionCompleted, EventSessionExpired, EventPaymentSucceeded, EventPaymentFailed:
		return true
	}
	return false
}
