package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	"github.com/jcmexdev/storefront-orders/internal/pkg/config"
)

// seedFile is the fixture format loaded by `storefront seed`. Field names
// match the domain types case-insensitively, e.g. "offerPrice", "zipcode".
type seedFile struct {
	Products  []domain.Product          `json:"products"`
	Addresses []domain.Address          `json:"addresses"`
	Carts     map[string]map[string]int `json:"carts"`
}

func newSeedCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "seed <file.json>",
		Short: "Load catalog products, addresses and carts from a JSON fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading seed file: %w", err)
			}
			var seed seedFile
			if err := json.Unmarshal(raw, &seed); err != nil {
				return fmt.Errorf("parsing seed file: %w", err)
			}

			if dbPath == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				dbPath = cfg.DatabasePath
			}

			ctx := cmd.Context()
			st, err := openStores(ctx, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, p := range seed.Products {
				if err := st.orders.SaveProduct(ctx, p); err != nil {
					return fmt.Errorf("seed product %s: %w", p.ID, err)
				}
			}
			for _, a := range seed.Addresses {
				if err := st.orders.SaveAddress(ctx, a); err != nil {
					return fmt.Errorf("seed address %s: %w", a.ID, err)
				}
			}
			for userID, cart := range seed.Carts {
				if err := st.orders.SaveCart(ctx, userID, cart); err != nil {
					return fmt.Errorf("seed cart of %s: %w", userID, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d product(s), %d address(es), %d cart(s)\n",
				len(seed.Products), len(seed.Addresses), len(seed.Carts))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "database file (default DATABASE_PATH)")
	return cmd
}
