package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcmexdev/storefront-orders/internal/order-service/app"
	"github.com/jcmexdev/storefront-orders/internal/pkg/config"
	"github.com/jcmexdev/storefront-orders/internal/pkg/telemetry"
)

func newSweepCmd() *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove online orders that stayed unpaid past the grace period",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			telemetry.InitLogger(cfg.LogLevel)
			if grace == 0 {
				grace = cfg.PendingOrderTTL
			}

			st, err := openStores(cmd.Context(), cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			removed, err := app.NewSweeper(st.orders, grace).Sweep(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d stale pending order(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&grace, "grace", 0, "age after which an unpaid online order is removed (default PENDING_ORDER_TTL)")
	return cmd
}
