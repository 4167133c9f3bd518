package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	"github.com/jcmexdev/storefront-orders/internal/order-service/ports"
	"github.com/jcmexdev/storefront-orders/internal/pkg/cache"
)

// Skip reasons reported in Outcome.Skipped.
const (
	SkipUnhandled  = "unhandled_event_type"
	SkipDuplicate  = "duplicate_event"
	SkipUnresolved = "no_order_metadata"
)

// Outcome describes what applying one event did.
type Outcome struct {
	EventID string
	Kind    domain.EventKind
	OrderID string
	From    domain.OrderState
	To      domain.OrderState
	Effects []domain.Effect
	Skipped string
}

type delivery struct {
	ctx   context.Context
	event domain.PaymentEvent
	done  chan result
}

type result struct {
	outcome Outcome
	err     error
}

// WebhookProcessor verifies processor notifications and drives orders
// through domain.Transition. Verified events are handed to a pool of workers
// over a channel; Apply is the synchronous core and needs no transport.
type WebhookProcessor struct {
	gateway ports.PaymentGateway
	orders  ports.OrderStore
	carts   ports.CartStore

	dedup    cache.Cache // nil-safe
	dedupTTL time.Duration
	workers  int

	mu      sync.RWMutex // guards running and the close of events
	running bool
	events  chan delivery
}

type ProcessorOption func(*WebhookProcessor)

// WithDedup short-circuits redelivered event ids for ttl.
func WithDedup(c cache.Cache, ttl time.Duration) ProcessorOption {
	return func(p *WebhookProcessor) {
		p.dedup = c
		p.dedupTTL = ttl
	}
}

func WithWorkers(n int) ProcessorOption {
	return func(p *WebhookProcessor) {
		if n > 0 {
			p.workers = n
		}
	}
}

func NewWebhookProcessor(gateway ports.PaymentGateway, orders ports.OrderStore, carts ports.CartStore, opts ...ProcessorOption) *WebhookProcessor {
	p := &WebhookProcessor{
		gateway:  gateway,
		orders:   orders,
		carts:    carts,
		dedupTTL: 72 * time.Hour,
		workers:  1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.events = make(chan delivery, p.workers*2)
	return p
}

// Submit authenticates a raw notification and dispatches it. A signature
// failure returns an error wrapping domain.ErrInvalidSignature and nothing
// else runs.
func (p *WebhookProcessor) Submit(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	ev, err := p.gateway.ParseEvent(payload, signature)
	if err != nil {
		slog.WarnContext(ctx, "webhook rejected", "error", err)
		return Outcome{}, err
	}
	slog.InfoContext(ctx, "webhook received", "event_id", ev.ID, "event_type", ev.Kind)
	return p.Dispatch(ctx, *ev)
}

// Dispatch hands a verified event to the workers and waits for the result.
// Without running workers the event is applied on the caller's goroutine.
func (p *WebhookProcessor) Dispatch(ctx context.Context, ev domain.PaymentEvent) (Outcome, error) {
	p.mu.RLock()
	if !p.running {
		p.mu.RUnlock()
		return p.Apply(ctx, ev)
	}
	d := delivery{ctx: ctx, event: ev, done: make(chan result, 1)}
	p.events <- d
	p.mu.RUnlock()

	r := <-d.done
	return r.outcome, r.err
}

// Run starts the worker pool and blocks until ctx is cancelled. Events
// already handed over are drained before Run returns. Run must be called at
// most once.
func (p *WebhookProcessor) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "starting webhook workers", "workers", p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(i, &wg)
	}

	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	<-ctx.Done()

	p.mu.Lock()
	p.running = false
	close(p.events)
	p.mu.Unlock()

	wg.Wait()
	slog.Info("webhook workers stopped")
	return nil
}

// Ready reports whether the worker pool is accepting events.
func (p *WebhookProcessor) Ready(context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running {
		return errors.New("webhook workers not running")
	}
	return nil
}

func (p *WebhookProcessor) worker(id int, wg *sync.WaitGroup) {
	defer wg.Done()
	for d := range p.events {
		out, err := p.Apply(d.ctx, d.event)
		if err != nil {
			err = fmt.Errorf("worker %d: %w", id, err)
		}
		d.done <- result{outcome: out, err: err}
	}
}

// Apply runs one verified event through the state machine and executes the
// resulting effects. Unhandled kinds, redeliveries and events whose order
// cannot be resolved, including a failed session lookup, are skipped without
// error.
func (p *WebhookProcessor) Apply(ctx context.Context, ev domain.PaymentEvent) (Outcome, error) {
	out := Outcome{EventID: ev.ID, Kind: ev.Kind}

	if !ev.Kind.Handled() {
		slog.InfoContext(ctx, "unhandled event type", "event_id", ev.ID, "event_type", ev.Kind)
		out.Skipped = SkipUnhandled
		return out, nil
	}

	if p.seen(ctx, ev.ID) {
		slog.InfoContext(ctx, "duplicate event skipped", "event_id", ev.ID, "event_type", ev.Kind)
		out.Skipped = SkipDuplicate
		return out, nil
	}

	ev, err := p.resolve(ctx, ev)
	if err != nil {
		slog.ErrorContext(ctx, "session lookup failed, event skipped",
			"event_id", ev.ID, "event_type", ev.Kind, "payment_intent", ev.PaymentIntentID, "error", err)
		out.Skipped = SkipUnresolved
		return out, nil
	}
	if !ev.Resolved() {
		slog.WarnContext(ctx, "no order metadata found for event",
			"event_id", ev.ID, "event_type", ev.Kind, "payment_intent", ev.PaymentIntentID)
		out.Skipped = SkipUnresolved
		return out, nil
	}
	out.OrderID = ev.OrderID

	order, err := p.orders.FindByID(ctx, ev.OrderID)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		order = nil
	case err != nil:
		return out, fmt.Errorf("load order %s: %w", ev.OrderID, err)
	}
	if order != nil {
		if ev.UserID != "" && ev.UserID != order.UserID {
			slog.WarnContext(ctx, "event user does not own order, using order owner",
				"order_id", order.ID, "event_user_id", ev.UserID, "user_id", order.UserID)
		}
		ev.UserID = order.UserID
	}

	out.From = domain.StateOf(order)
	out.To, out.Effects = domain.Transition(out.From, ev)

	if out.From == domain.StateRemoved && (ev.Kind == domain.EventSessionCompleted || ev.Kind == domain.EventPaymentSucceeded) {
		slog.ErrorContext(ctx, "payment succeeded for an order that no longer exists",
			"order_id", ev.OrderID, "event_id", ev.ID, "event_type", ev.Kind)
	}

	for _, eff := range out.Effects {
		if err := p.execute(ctx, eff); err != nil {
			return out, fmt.Errorf("apply %s to order %s: %w", eff.Kind, ev.OrderID, err)
		}
	}

	p.markSeen(ctx, ev.ID)
	slog.InfoContext(ctx, "payment event applied",
		"event_id", ev.ID, "event_type", ev.Kind, "order_id", ev.OrderID,
		"from", out.From, "to", out.To, "effects", len(out.Effects))
	return out, nil
}

// resolve recovers order metadata for intent-level events from the checkout
// session that created the intent.
func (p *WebhookProcessor) resolve(ctx context.Context, ev domain.PaymentEvent) (domain.PaymentEvent, error) {
	if !ev.NeedsSessionLookup() {
		return ev, nil
	}

	session, err := p.gateway.SessionForPaymentIntent(ctx, ev.PaymentIntentID)
	if err != nil {
		return ev, fmt.Errorf("lookup session for payment intent %s: %w", ev.PaymentIntentID, err)
	}
	if session == nil {
		return ev, nil
	}
	ev.SessionID = session.ID
	ev.OrderID = session.Metadata[domain.MetadataOrderID]
	ev.UserID = session.Metadata[domain.MetadataUserID]
	return ev, nil
}

func (p *WebhookProcessor) execute(ctx context.Context, eff domain.Effect) error {
	switch eff.Kind {
	case domain.EffectMarkPaid:
		paid := true
		err := p.orders.UpdateFields(ctx, eff.OrderID, domain.OrderUpdate{IsPaid: &paid})
		if errors.Is(err, domain.ErrOrderNotFound) {
			slog.WarnContext(ctx, "order removed before it could be marked paid", "order_id", eff.OrderID)
			return nil
		}
		return err

	case domain.EffectClearCart:
		return p.carts.ClearCart(ctx, eff.UserID)

	case domain.EffectDeleteOrder:
		removed, err := p.orders.DeleteUnpaid(ctx, eff.OrderID)
		if err != nil {
			return err
		}
		if !removed {
			slog.InfoContext(ctx, "order already removed or paid", "order_id", eff.OrderID)
		}
		return nil
	}
	return fmt.Errorf("unknown effect %q", eff.Kind)
}

func (p *WebhookProcessor) seen(ctx context.Context, eventID string) bool {
	if p.dedup == nil || eventID == "" {
		return false
	}
	v, err := p.dedup.Get(ctx, p.dedup.GenerateKey("webhook", eventID))
	if err != nil {
		slog.WarnContext(ctx, "dedup lookup failed, processing anyway", "event_id", eventID, "error", err)
		return false
	}
	return v != ""
}

func (p *WebhookProcessor) markSeen(ctx context.Context, eventID string) {
	if p.dedup == nil || eventID == "" {
		return
	}
	if err := p.dedup.Set(ctx, p.dedup.GenerateKey("webhook", eventID), "processed", p.dedupTTL); err != nil {
		slog.WarnContext(ctx, "dedup mark failed", "event_id", eventID, "error", err)
	}
}
