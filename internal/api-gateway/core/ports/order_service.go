package ports

import (
	"context"

	"github.com/jcmexdev/storefront-orders/internal/order-service/app"
	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
)

type CheckoutService interface {
	PlaceCashOnDelivery(ctx context.Context, in app.PlaceOrderInput) (*domain.Order, error)
	PlaceOnline(ctx context.Context, in app.PlaceOrderInput, origin string) (string, error)
}

type WebhookService interface {
	Submit(ctx context.Context, payload []byte, signature string) (app.Outcome, error)
}

type OrderQueries interface {
	UserOrders(ctx context.Context, userID string) ([]domain.ExpandedOrder, error)
	SellerOrders(ctx context.Context) ([]domain.ExpandedOrder, error)
}
