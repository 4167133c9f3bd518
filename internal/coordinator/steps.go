package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	"github.com/jcmexdev/storefront-orders/internal/order-service/ports"
)

// --- PersistOrderStep ---

type PersistOrderStep struct {
	store ports.OrderStore
	order *domain.Order
}

func NewPersistOrderStep(store ports.OrderStore, order *domain.Order) *PersistOrderStep {
	return &PersistOrderStep{store: store, order: order}
}

func (s *PersistOrderStep) Name() string { return "Persist_Order_Step" }

func (s *PersistOrderStep) Execute(ctx context.Context) error {
	if _, err := s.store.Create(ctx, s.order); err != nil {
		return fmt.Errorf("failed to persist order: %w", err)
	}
	return nil
}

// Compensate removes the pending order. A payment can no longer arrive for
// it because no checkout session was opened.
func (s *PersistOrderStep) Compensate(ctx context.Context) error {
	removed, err := s.store.DeleteByID(ctx, s.order.ID)
	if err != nil {
		return fmt.Errorf("failed to remove pending order %s: %w", s.order.ID, err)
	}
	if !removed {
		slog.WarnContext(ctx, "pending order already gone during compensation", "order_id", s.order.ID)
	}
	return nil
}

// --- CheckoutSessionStep ---

type CheckoutSessionStep struct {
	gateway ports.PaymentGateway
	request ports.CheckoutSessionRequest
	session *ports.CheckoutSession
}

func NewCheckoutSessionStep(gateway ports.PaymentGateway, request ports.CheckoutSessionRequest) *CheckoutSessionStep {
	return &CheckoutSessionStep{gateway: gateway, request: request}
}

func (s *CheckoutSessionStep) Name() string { return "Open_Checkout_Session_Step" }

func (s *CheckoutSessionStep) Execute(ctx context.Context) error {
	session, err := s.gateway.CreateCheckoutSession(ctx, s.request)
	if err != nil {
		return fmt.Errorf("payment processor error: %w", err)
	}
	if session == nil || session.URL == "" {
		return fmt.Errorf("payment processor returned no redirect url for order %s", s.request.OrderID)
	}
	s.session = session
	return nil
}

// Compensate is a no-op: it is the last step, and an unused hosted session
// expires on the processor side.
func (s *CheckoutSessionStep) Compensate(ctx context.Context) error {
	return nil
}

// Session returns the session opened by Execute, or nil.
func (s *CheckoutSessionStep) Session() *ports.CheckoutSession {
	return s.session
}
