// Package sqlite stores orders, and reads the catalog, address and cart
// tables, in the shared SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	"github.com/jcmexdev/storefront-orders/internal/order-service/ports"
	"github.com/jcmexdev/storefront-orders/internal/pkg/sqlitedb"
)

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ ports.OrderStore     = (*Repository)(nil)
	_ ports.ProductCatalog = (*Repository)(nil)
	_ ports.AddressBook    = (*Repository)(nil)
	_ ports.CartStore      = (*Repository)(nil)
)

// New applies the schema on db and returns the repository.
func New(ctx context.Context, db *sql.DB) (*Repository, error) {
	if err := sqlitedb.Migrate(ctx, db, Schema); err != nil {
		return nil, err
	}
	return &Repository{db: db, now: time.Now}, nil
}

type itemRow struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) (string, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := r.now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	items := make([]itemRow, len(order.Items))
	for i, it := range order.Items {
		items[i] = itemRow{Product: it.ProductID, Quantity: it.Quantity}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode items for order %q: %w", order.ID, err)
	}

	const q = `
		INSERT INTO orders
			(id, user_id, items, amount, address_id, payment_type, is_paid, created_at, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, q,
		order.ID,
		order.UserID,
		string(itemsJSON),
		order.Amount,
		order.AddressID,
		string(order.PaymentType),
		order.IsPaid,
		sqlitedb.FormatTime(order.CreatedAt),
		sqlitedb.FormatTime(order.UpdatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: create order %q: %w", order.ID, err)
	}
	return order.ID, nil
}

const orderColumns = `id, user_id, items, amount, address_id, payment_type, is_paid, created_at, updated_at`

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: order %q: %w", id, domain.ErrOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find order %q: %w", id, err)
	}
	return o, nil
}

// UpdateFields writes only the fields set in upd. The paid flag is merged
// with MAX so a stale false can never undo a recorded payment.
func (r *Repository) UpdateFields(ctx context.Context, id string, upd domain.OrderUpdate) error {
	if upd.IsPaid == nil {
		_, err := r.FindByID(ctx, id)
		return err
	}

	const q = `UPDATE orders SET is_paid = MAX(is_paid, ?), updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, *upd.IsPaid, sqlitedb.FormatTime(r.now()), id)
	if err != nil {
		return fmt.Errorf("sqlite: update order %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update order %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: order %q: %w", id, domain.ErrOrderNotFound)
	}
	return nil
}

func (r *Repository) DeleteByID(ctx context.Context, id string) (bool, error) {
	return r.delete(ctx, `DELETE FROM orders WHERE id = ?`, id)
}

func (r *Repository) DeleteUnpaid(ctx context.Context, id string) (bool, error) {
	return r.delete(ctx, `DELETE FROM orders WHERE id = ? AND is_paid = 0`, id)
}

func (r *Repository) delete(ctx context.Context, q, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("sqlite: delete order %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: delete order %q: %w", id, err)
	}
	return n > 0, nil
}

func (r *Repository) FindMany(ctx context.Context, filter ports.OrderFilter, sort ports.SortOrder) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.PaymentType != "" {
		where = append(where, "payment_type = ?")
		args = append(args, string(filter.PaymentType))
	}
	if filter.IsPaid != nil {
		where = append(where, "is_paid = ?")
		args = append(args, *filter.IsPaid)
	}
	if filter.VisibleToSell {
		where = append(where, "(payment_type = ? OR is_paid = 1)")
		args = append(args, string(domain.PaymentCOD))
	}
	if !filter.CreatedBefore.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, sqlitedb.FormatTime(filter.CreatedBefore))
	}

	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if sort == ports.OldestFirst {
		q += " ORDER BY created_at ASC, id ASC"
	} else {
		q += " ORDER BY created_at DESC, id DESC"
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: find orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o                    domain.Order
		itemsJSON            string
		paymentType          string
		createdAt, updatedAt string
	)
	if err := s.Scan(&o.ID, &o.UserID, &itemsJSON, &o.Amount, &o.AddressID,
		&paymentType, &o.IsPaid, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	o.PaymentType = domain.PaymentType(paymentType)

	var items []itemRow
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, fmt.Errorf("decode items of order %q: %w", o.ID, err)
	}
	o.Items = make([]domain.OrderItem, len(items))
	for i, it := range items {
		o.Items[i] = domain.OrderItem{ProductID: it.Product, Quantity: it.Quantity}
	}

	var err error
	if o.CreatedAt, err = sqlitedb.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = sqlitedb.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
