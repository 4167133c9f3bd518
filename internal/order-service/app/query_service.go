package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	"github.com/jcmexdev/storefront-orders/internal/order-service/ports"
)

// QueryService serves order listings with product and address details
// expanded.
type QueryService struct {
	orders    ports.OrderStore
	catalog   ports.ProductCatalog
	addresses ports.AddressBook
}

func NewQueryService(orders ports.OrderStore, catalog ports.ProductCatalog, addresses ports.AddressBook) *QueryService {
	return &QueryService{orders: orders, catalog: catalog, addresses: addresses}
}

// UserOrders returns the orders of userID, newest first.
func (s *QueryService) UserOrders(ctx context.Context, userID string) ([]domain.ExpandedOrder, error) {
	orders, err := s.orders.FindMany(ctx, ports.OrderFilter{UserID: userID}, ports.NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("list orders of user %s: %w", userID, err)
	}
	return s.expand(ctx, orders)
}

// SellerOrders returns every order that is cash on delivery or paid, newest
// first. Pending online orders stay hidden until settled.
func (s *QueryService) SellerOrders(ctx context.Context) ([]domain.ExpandedOrder, error) {
	orders, err := s.orders.FindMany(ctx, ports.OrderFilter{VisibleToSell: true}, ports.NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("list seller orders: %w", err)
	}
	return s.expand(ctx, orders)
}

// expand resolves references once per distinct id. Deleted products or
// addresses are left nil rather than failing the listing.
func (s *QueryService) expand(ctx context.Context, orders []domain.Order) ([]domain.ExpandedOrder, error) {
	products := map[string]*domain.Product{}
	addresses := map[string]*domain.Address{}

	out := make([]domain.ExpandedOrder, len(orders))
	for i, o := range orders {
		eo := domain.ExpandedOrder{Order: o, Products: make([]*domain.Product, len(o.Items))}

		for j, it := range o.Items {
			p, ok := products[it.ProductID]
			if !ok {
				found, err := s.catalog.FindProduct(ctx, it.ProductID)
				if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
					return nil, fmt.Errorf("expand order %s: %w", o.ID, err)
				}
				if err != nil {
					slog.DebugContext(ctx, "listed order references a missing product", "order_id", o.ID, "product_id", it.ProductID)
				}
				p = found
				products[it.ProductID] = p
			}
			eo.Products[j] = p
		}

		a, ok := addresses[o.AddressID]
		if !ok {
			found, err := s.addresses.FindAddress(ctx, o.AddressID)
			if err != nil && !errors.Is(err, domain.ErrAddressNotFound) {
				return nil, fmt.Errorf("expand order %s: %w", o.ID, err)
			}
			a = found
			addresses[o.AddressID] = a
		}
		eo.Address = a

		out[i] = eo
	}
	return out, nil
}
