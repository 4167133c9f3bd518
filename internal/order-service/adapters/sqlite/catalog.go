package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
)

func (r *Repository) FindProduct(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
		SELECT id, name, description, category, price, offer_price, images, in_stock
		FROM   products
		WHERE  id = ?`

	var (
		p                   domain.Product
		description, images string
		price, offerPrice   string
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Name, &description, &p.Category, &price, &offerPrice, &images, &p.InStock,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: product %q: %w", id, domain.ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find product %q: %w", id, err)
	}

	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("sqlite: product %q price: %w", id, err)
	}
	if p.OfferPrice, err = decimal.NewFromString(offerPrice); err != nil {
		return nil, fmt.Errorf("sqlite: product %q offer price: %w", id, err)
	}
	if err := json.Unmarshal([]byte(description), &p.Description); err != nil {
		return nil, fmt.Errorf("sqlite: product %q description: %w", id, err)
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("sqlite: product %q images: %w", id, err)
	}
	return &p, nil
}

// SaveProduct inserts or replaces a catalog row. Used by seeding and tests;
// catalog management itself lives in the product module.
func (r *Repository) SaveProduct(ctx context.Context, p domain.Product) error {
	description, err := json.Marshal(nonNil(p.Description))
	if err != nil {
		return fmt.Errorf("sqlite: encode product %q: %w", p.ID, err)
	}
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return fmt.Errorf("sqlite: encode product %q: %w", p.ID, err)
	}

	const q = `
		INSERT OR REPLACE INTO products
			(id, name, description, category, price, offer_price, images, in_stock)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		p.ID, p.Name, string(description), p.Category,
		p.Price.String(), p.OfferPrice.String(), string(images), p.InStock,
	); err != nil {
		return fmt.Errorf("sqlite: save product %q: %w", p.ID, err)
	}
	return nil
}

func (r *Repository) FindAddress(ctx context.Context, id string) (*domain.Address, error) {
	const q = `
		SELECT id, user_id, first_name, last_name, email, street, city, state, zipcode, country, phone
		FROM   addresses
		WHERE  id = ?`

	var a domain.Address
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Email,
		&a.Street, &a.City, &a.State, &a.Zipcode, &a.Country, &a.Phone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: address %q: %w", id, domain.ErrAddressNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find address %q: %w", id, err)
	}
	return &a, nil
}

func (r *Repository) SaveAddress(ctx context.Context, a domain.Address) error {
	const q = `
		INSERT OR REPLACE INTO addresses
			(id, user_id, first_name, last_name, email, street, city, state, zipcode, country, phone)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		a.ID, a.UserID, a.FirstName, a.LastName, a.Email,
		a.Street, a.City, a.State, a.Zipcode, a.Country, a.Phone,
	); err != nil {
		return fmt.Errorf("sqlite: save address %q: %w", a.ID, err)
	}
	return nil
}

// ClearCart resets the user's cart to empty. An unknown user is a no-op.
func (r *Repository) ClearCart(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET cart_items = '{}' WHERE id = ?`, userID); err != nil {
		return fmt.Errorf("sqlite: clear cart of %q: %w", userID, err)
	}
	return nil
}

// SaveCart stores the cart of userID, creating the user row if needed.
func (r *Repository) SaveCart(ctx context.Context, userID string, cart map[string]int) error {
	if cart == nil {
		cart = map[string]int{}
	}
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("sqlite: encode cart of %q: %w", userID, err)
	}
	const q = `
		INSERT INTO users (id, cart_items) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET cart_items = excluded.cart_items`
	if _, err := r.db.ExecContext(ctx, q, userID, string(raw)); err != nil {
		return fmt.Errorf("sqlite: save cart of %q: %w", userID, err)
	}
	return nil
}

// Cart returns the cart of userID, empty for unknown users.
func (r *Repository) Cart(ctx context.Context, userID string) (map[string]int, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT cart_items FROM users WHERE id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: cart of %q: %w", userID, err)
	}
	cart := map[string]int{}
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, fmt.Errorf("sqlite: decode cart of %q: %w", userID, err)
	}
	return cart, nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
