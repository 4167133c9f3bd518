package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/coordinator/sagalog"
	"github.com/jcmexdev/storefront-orders/internal/order-service/app"
	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
)

type memSagaLog struct {
	mu      sync.Mutex
	entries []sagalog.SagaLog
}

func (l *memSagaLog) Save(_ context.Context, e *sagalog.SagaLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *e)
	return nil
}

func (l *memSagaLog) History(_ context.Context, sagaID string) ([]sagalog.SagaLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []sagalog.SagaLog
	for _, e := range l.entries {
		if e.SagaID == sagaID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *memSagaLog) statuses() []sagalog.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]sagalog.Status, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Status
	}
	return out
}

type checkoutFixture struct {
	store   *memStore
	gateway *fakeGateway
	log     *memSagaLog
	svc     *app.CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	store := newMemStore()
	store.addProduct("p1", "Apple", "100")
	store.addProduct("p2", "Pear", "25")
	store.addAddress("a1", "u1")

	gw := newFakeGateway()
	log := &memSagaLog{}
	return &checkoutFixture{
		store:   store,
		gateway: gw,
		log:     log,
		svc:     app.NewCheckoutService(store, store, store, gw, log),
	}
}

func basketInput() app.PlaceOrderInput {
	return app.PlaceOrderInput{
		UserID:    "u1",
		AddressID: "a1",
		Items:     []domain.OrderItem{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 2}},
	}
}

func TestPlaceCashOnDelivery(t *testing.T) {
	f := newCheckoutFixture()

	order, err := f.svc.PlaceCashOnDelivery(context.Background(), basketInput())
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentCOD, order.PaymentType)
	assert.True(t, order.IsPaid)
	assert.Equal(t, int64(255), order.Amount)

	stored, err := f.store.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)
	assert.Empty(t, f.gateway.created, "cash on delivery never opens a session")
}

func TestPlaceOnline_PendingWithSessionMetadata(t *testing.T) {
	f := newCheckoutFixture()

	url, err := f.svc.PlaceOnline(context.Background(), basketInput(), "https://shop.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/pay/cs_test_1", url)

	req := f.gateway.lastRequest()
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, "https://shop.example.com/loader?next=my-orders", req.SuccessURL)
	assert.Equal(t, "https://shop.example.com/cart", req.CancelURL)
	assert.Equal(t, []domain.DisplayLine{
		{Name: "Apple", UnitAmount: 10200, Quantity: 2},
		{Name: "Pear", UnitAmount: 2500, Quantity: 2},
	}, req.Lines)

	order, err := f.store.FindByID(context.Background(), req.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentOnline, order.PaymentType)
	assert.False(t, order.IsPaid)
	assert.Equal(t, int64(255), order.Amount)

	assert.Equal(t, []sagalog.Status{
		sagalog.StatusStarted, sagalog.StatusStepDone, sagalog.StatusStepDone, sagalog.StatusCompleted,
	}, f.log.statuses())
}

func TestPlaceOrder_InvalidData(t *testing.T) {
	cases := map[string]app.PlaceOrderInput{
		"no items":      {UserID: "u1", AddressID: "a1"},
		"no address":    {UserID: "u1", Items: []domain.OrderItem{{ProductID: "p1", Quantity: 1}}},
		"zero quantity": {UserID: "u1", AddressID: "a1", Items: []domain.OrderItem{{ProductID: "p1", Quantity: 0}}},
		"no product id": {UserID: "u1", AddressID: "a1", Items: []domain.OrderItem{{Quantity: 1}}},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			f := newCheckoutFixture()

			_, err := f.svc.PlaceCashOnDelivery(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidData)

			_, err = f.svc.PlaceOnline(context.Background(), in, "https://shop.example.com")
			assert.ErrorIs(t, err, domain.ErrInvalidData)

			assert.Zero(t, f.store.count())
			assert.Empty(t, f.gateway.created)
		})
	}
}

func TestPlaceOrder_UnknownProductCreatesNothing(t *testing.T) {
	f := newCheckoutFixture()
	in := basketInput()
	in.Items = append(in.Items, domain.OrderItem{ProductID: "ghost", Quantity: 1})

	_, err := f.svc.PlaceOnline(context.Background(), in, "https://shop.example.com")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Zero(t, f.store.count())
	assert.Empty(t, f.gateway.created)
}

func TestPlaceOrder_AddressOfAnotherUser(t *testing.T) {
	f := newCheckoutFixture()
	f.store.addAddress("a2", "someone-else")
	in := basketInput()
	in.AddressID = "a2"

	_, err := f.svc.PlaceCashOnDelivery(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrAddressNotFound)
	assert.Zero(t, f.store.count())
}

func TestPlaceOnline_SessionFailureRemovesPendingOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.createErr = errors.New("processor unavailable")

	url, err := f.svc.PlaceOnline(context.Background(), basketInput(), "https://shop.example.com")
	require.Error(t, err)
	assert.Empty(t, url)
	assert.Zero(t, f.store.count(), "pending order is compensated")

	assert.Equal(t, []sagalog.Status{
		sagalog.StatusStarted, sagalog.StatusStepDone, sagalog.StatusCompensating, sagalog.StatusFailed,
	}, f.log.statuses())
}

func TestPlaceOnline_StoreFailureOpensNoSession(t *testing.T) {
	f := newCheckoutFixture()
	f.store.createErr = errors.New("disk full")

	_, err := f.svc.PlaceOnline(context.Background(), basketInput(), "https://shop.example.com")
	require.Error(t, err)
	assert.Empty(t, f.gateway.created)
}
