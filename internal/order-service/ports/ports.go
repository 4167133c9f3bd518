package ports

import (
	"context"
	"time"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
)

type SortOrder int

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

// OrderFilter selects orders for listings and sweeps. Zero-valued fields do
// not constrain the query.
type OrderFilter struct {
	UserID        string
	PaymentType   domain.PaymentType
	IsPaid        *bool
	VisibleToSell bool // COD or paid
	CreatedBefore time.Time
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateFields(ctx context.Context, id string, upd domain.OrderUpdate) error
	// DeleteByID reports whether a row was removed. A missing id is not an error.
	DeleteByID(ctx context.Context, id string) (bool, error)
	// DeleteUnpaid removes the order only while it is still unpaid, so a
	// payment recorded concurrently always wins.
	DeleteUnpaid(ctx context.Context, id string) (bool, error)
	FindMany(ctx context.Context, filter OrderFilter, sort SortOrder) ([]domain.Order, error)
}

type ProductCatalog interface {
	domain.ProductFinder
}

type AddressBook interface {
	FindAddress(ctx context.Context, id string) (*domain.Address, error)
}

type CartStore interface {
	ClearCart(ctx context.Context, userID string) error
}

type CheckoutSessionRequest struct {
	OrderID    string
	UserID     string
	Lines      []domain.DisplayLine
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID       string
	URL      string
	Metadata map[string]string
}

// PaymentGateway is the process-wide payment processor capability.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	// SessionForPaymentIntent returns nil without error when no session
	// created the given intent.
	SessionForPaymentIntent(ctx context.Context, paymentIntentID string) (*CheckoutSession, error)
	// ParseEvent verifies the signature over the exact payload bytes and
	// returns an error wrapping domain.ErrInvalidSignature on mismatch.
	ParseEvent(payload []byte, signature string) (*domain.PaymentEvent, error)
}
