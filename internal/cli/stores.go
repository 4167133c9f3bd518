package cli

import (
	"context"
	"database/sql"
	"fmt"

	sagasqlite "github.com/jcmexdev/storefront-orders/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/storefront-orders/internal/order-service/adapters/sqlite"
	"github.com/jcmexdev/storefront-orders/internal/pkg/sqlitedb"
)

type stores struct {
	db      *sql.DB
	orders  *sqlite.Repository
	sagaLog *sagasqlite.Repository
}

// openStores opens the database file and migrates every table the service
// owns.
func openStores(ctx context.Context, path string) (*stores, error) {
	db, err := sqlitedb.Open(path)
	if err != nil {
		return nil, err
	}

	orders, err := sqlite.New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate order store: %w", err)
	}
	sagaLog, err := sagasqlite.New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate saga log: %w", err)
	}
	return &stores{db: db, orders: orders, sagaLog: sagaLog}, nil
}

func (s *stores) Close() error {
	return s.db.Close()
}
