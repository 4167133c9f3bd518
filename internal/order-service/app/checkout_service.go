package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront-orders/internal/coordinator"
	"github.com/jcmexdev/storefront-orders/internal/coordinator/sagalog"
	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	"github.com/jcmexdev/storefront-orders/internal/order-service/ports"
)

// PlaceOrderInput is what a buyer submits at checkout.
type PlaceOrderInput struct {
	UserID    string
	AddressID string
	Items     []domain.OrderItem
}

// CheckoutService creates orders, either settled on delivery or pending an
// online payment.
type CheckoutService struct {
	orders    ports.OrderStore
	catalog   ports.ProductCatalog
	addresses ports.AddressBook // nil skips the ownership check
	gateway   ports.PaymentGateway
	sagaLog   sagalog.Repository // nil-safe
}

func NewCheckoutService(
	orders ports.OrderStore,
	catalog ports.ProductCatalog,
	addresses ports.AddressBook,
	gateway ports.PaymentGateway,
	sagaLog sagalog.Repository,
) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		catalog:   catalog,
		addresses: addresses,
		gateway:   gateway,
		sagaLog:   sagaLog,
	}
}

// PlaceCashOnDelivery persists a paid COD order. There is no pending phase.
func (s *CheckoutService) PlaceCashOnDelivery(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	order, _, err := s.priceOrder(ctx, in)
	if err != nil {
		return nil, err
	}
	order.PaymentType = domain.PaymentCOD
	order.IsPaid = true

	if _, err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("place cod order: %w", err)
	}

	slog.InfoContext(ctx, "cod order placed", "order_id", order.ID, "user_id", order.UserID, "amount", order.Amount)
	return order, nil
}

// PlaceOnline persists a pending order and opens a hosted checkout session
// for it, returning the session redirect URL. If the session cannot be
// opened the pending order is removed again before the error is returned.
func (s *CheckoutService) PlaceOnline(ctx context.Context, in PlaceOrderInput, origin string) (string, error) {
	order, products, err := s.priceOrder(ctx, in)
	if err != nil {
		return "", err
	}
	order.PaymentType = domain.PaymentOnline
	order.IsPaid = false

	origin = strings.TrimRight(origin, "/")
	sessionStep := coordinator.NewCheckoutSessionStep(s.gateway, ports.CheckoutSessionRequest{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Lines:      domain.DisplayLines(products, in.Items),
		SuccessURL: origin + "/loader?next=my-orders",
		CancelURL:  origin + "/cart",
	})

	saga := coordinator.NewOrchestrator(order.ID, []coordinator.Step{
		coordinator.NewPersistOrderStep(s.orders, order),
		sessionStep,
	}, s.sagaLog)

	if err := saga.Start(ctx, checkoutPayload(order)); err != nil {
		return "", fmt.Errorf("place online order: %w", err)
	}

	session := sessionStep.Session()
	slog.InfoContext(ctx, "online order pending payment",
		"order_id", order.ID, "user_id", order.UserID, "amount", order.Amount, "session_id", session.ID)
	return session.URL, nil
}

// priceOrder validates the input and builds an unsaved order priced from
// the live catalog.
func (s *CheckoutService) priceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, []*domain.Product, error) {
	if err := validate(in); err != nil {
		return nil, nil, err
	}

	if s.addresses != nil {
		addr, err := s.addresses.FindAddress(ctx, in.AddressID)
		if err != nil {
			return nil, nil, err
		}
		if addr.UserID != in.UserID {
			return nil, nil, fmt.Errorf("address %s of another user: %w", in.AddressID, domain.ErrAddressNotFound)
		}
	}

	products, err := domain.ResolveProducts(ctx, s.catalog, in.Items)
	if err != nil {
		return nil, nil, err
	}

	items := make([]domain.OrderItem, len(in.Items))
	copy(items, in.Items)

	return &domain.Order{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Items:     items,
		Amount:    domain.CalculateAmount(products, items),
		AddressID: in.AddressID,
	}, products, nil
}

func validate(in PlaceOrderInput) error {
	if in.AddressID == "" || len(in.Items) == 0 {
		return domain.ErrInvalidData
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity < 1 {
			return domain.ErrInvalidData
		}
	}
	return nil
}

func checkoutPayload(o *domain.Order) string {
	b, err := json.Marshal(struct {
		UserID    string             `json:"user_id"`
		AddressID string             `json:"address_id"`
		Amount    int64              `json:"amount"`
		Items     []domain.OrderItem `json:"items"`
	}{o.UserID, o.AddressID, o.Amount, o.Items})
	if err != nil {
		return ""
	}
	return string(b)
}
