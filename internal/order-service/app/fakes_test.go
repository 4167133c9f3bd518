package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	"github.com/jcmexdev/storefront-orders/internal/order-service/ports"
)

// memStore is an in-memory OrderStore, ProductCatalog, AddressBook and
// CartStore for service tests.
type memStore struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	products  map[string]domain.Product
	addresses map[string]domain.Address
	carts     map[string]map[string]int

	createErr    error
	clearCartErr error
	clock        time.Time
}

var (
	_ ports.OrderStore     = (*memStore)(nil)
	_ ports.ProductCatalog = (*memStore)(nil)
	_ ports.AddressBook    = (*memStore)(nil)
	_ ports.CartStore      = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		orders:    map[string]domain.Order{},
		products:  map[string]domain.Product{},
		addresses: map[string]domain.Address{},
		carts:     map[string]map[string]int{},
		clock:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) addProduct(id, name, offerPrice string) {
	m.products[id] = domain.Product{ID: id, Name: name, OfferPrice: decimal.RequireFromString(offerPrice), InStock: true}
}

func (m *memStore) addAddress(id, userID string) {
	m.addresses[id] = domain.Address{ID: id, UserID: userID}
}

func (m *memStore) Create(_ context.Context, o *domain.Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		m.clock = m.clock.Add(time.Second)
		o.CreatedAt = m.clock
	}
	m.orders[o.ID] = *o
	return o.ID, nil
}

func (m *memStore) FindByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("mem: %w", domain.ErrOrderNotFound)
	}
	return &o, nil
}

func (m *memStore) UpdateFields(_ context.Context, id string, upd domain.OrderUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("mem: %w", domain.ErrOrderNotFound)
	}
	if upd.IsPaid != nil {
		o.IsPaid = o.IsPaid || *upd.IsPaid
	}
	m.orders[id] = o
	return nil
}

func (m *memStore) DeleteByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.orders[id]
	delete(m.orders, id)
	return ok, nil
}

func (m *memStore) DeleteUnpaid(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.IsPaid {
		return false, nil
	}
	delete(m.orders, id)
	return true, nil
}

func (m *memStore) FindMany(_ context.Context, f ports.OrderFilter, s ports.SortOrder) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.PaymentType != "" && o.PaymentType != f.PaymentType {
			continue
		}
		if f.IsPaid != nil && o.IsPaid != *f.IsPaid {
			continue
		}
		if f.VisibleToSell && !(o.PaymentType == domain.PaymentCOD || o.IsPaid) {
			continue
		}
		if !f.CreatedBefore.IsZero() && !o.CreatedAt.Before(f.CreatedBefore) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if s == ports.OldestFirst {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memStore) FindProduct(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("mem: product %s: %w", id, domain.ErrProductNotFound)
	}
	return &p, nil
}

func (m *memStore) FindAddress(_ context.Context, id string) (*domain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addresses[id]
	if !ok {
		return nil, fmt.Errorf("mem: address %s: %w", id, domain.ErrAddressNotFound)
	}
	return &a, nil
}

func (m *memStore) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearCartErr != nil {
		return m.clearCartErr
	}
	m.carts[userID] = map[string]int{}
	return nil
}

func (m *memStore) setCart(userID string, cart map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[userID] = cart
}

func (m *memStore) cart(userID string) map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[userID]
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// fakeGateway stands in for the payment processor. Events are plain JSON
// of domain.PaymentEvent and the signature must equal validSignature.
type fakeGateway struct {
	mu        sync.Mutex
	created   []ports.CheckoutSessionRequest
	createErr error
	sessions  map[string]*ports.CheckoutSession // by payment intent id
	lookupErr error
	lookups   int
}

const validSignature = "t=1,v1=valid"

var _ ports.PaymentGateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*ports.CheckoutSession{}}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req ports.CheckoutSessionRequest) (*ports.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, req)
	id := fmt.Sprintf("cs_test_%d", len(g.created))
	return &ports.CheckoutSession{
		ID:  id,
		URL: "https://checkout.example.com/pay/" + id,
		Metadata: map[string]string{
			domain.MetadataOrderID: req.OrderID,
			domain.MetadataUserID:  req.UserID,
		},
	}, nil
}

func (g *fakeGateway) SessionForPaymentIntent(_ context.Context, id string) (*ports.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups++
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	return g.sessions[id], nil
}

func (g *fakeGateway) ParseEvent(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if signature != validSignature {
		return nil, fmt.Errorf("fake: %w", domain.ErrInvalidSignature)
	}
	var ev domain.PaymentEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, errors.Join(domain.ErrInvalidSignature, err)
	}
	return &ev, nil
}

func (g *fakeGateway) lastRequest() ports.CheckoutSessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.created[len(g.created)-1]
}

// memCache is a cache.Cache backed by a map.
type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = fmt.Sprint(value)
	return nil
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) GenerateKey(operation, key string) string {
	return "test:" + operation + ":" + key
}

func (c *memCache) Ping(context.Context) error { return nil }
