package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	"github.com/jcmexdev/storefront-orders/internal/order-service/ports"
)

// Sweeper removes online orders that stayed unpaid past their grace period,
// e.g. an abandoned hosted checkout whose failure was never reported. The
// grace period must outlive the processor's session lifetime so a late
// success event still finds its order.
type Sweeper struct {
	orders ports.OrderStore
	grace  time.Duration
	now    func() time.Time
}

func NewSweeper(orders ports.OrderStore, grace time.Duration) *Sweeper {
	return &Sweeper{orders: orders, grace: grace, now: time.Now}
}

// Sweep deletes stale pending orders and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	unpaid := false
	cutoff := s.now().Add(-s.grace)

	stale, err := s.orders.FindMany(ctx, ports.OrderFilter{
		PaymentType:   domain.PaymentOnline,
		IsPaid:        &unpaid,
		CreatedBefore: cutoff,
	}, ports.OldestFirst)
	if err != nil {
		return 0, fmt.Errorf("find stale pending orders: %w", err)
	}

	removed := 0
	for _, o := range stale {
		ok, err := s.orders.DeleteUnpaid(ctx, o.ID)
		if err != nil {
			return removed, fmt.Errorf("remove stale order %s: %w", o.ID, err)
		}
		if ok {
			removed++
			slog.InfoContext(ctx, "stale pending order removed", "order_id", o.ID, "user_id", o.UserID, "created_at", o.CreatedAt)
		}
	}
	return removed, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "pending order sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "pending order sweep finished", "removed", n)
			}
		}
	}
}
