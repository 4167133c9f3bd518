package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// taxRate is the flat surcharge applied to every order.
var taxRate = decimal.RequireFromString("0.02")

// ProductFinder resolves a product by id. Implementations return an error
// wrapping ErrProductNotFound when the id does not exist.
type ProductFinder interface {
	FindProduct(ctx context.Context, id string) (*Product, error)
}

// DisplayLine is one line of the breakdown shown on the hosted payment page.
// UnitAmount is in minor currency units.
type DisplayLine struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// ResolveProducts looks up every item's product concurrently. The result is
// index-aligned with items. Any failed lookup aborts the whole resolution.
func ResolveProducts(ctx context.Context, finder ProductFinder, items []OrderItem) ([]*Product, error) {
	products := make([]*Product, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, it := range items {
		g.Go(func() error {
			p, err := finder.FindProduct(gctx, it.ProductID)
			if err != nil {
				return fmt.Errorf("resolve product %s: %w", it.ProductID, err)
			}
			if p == nil {
				return fmt.Errorf("resolve product %s: %w", it.ProductID, ErrProductNotFound)
			}
			products[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}

// Subtotal is the untaxed sum of offer price times quantity.
func Subtotal(products []*Product, items []OrderItem) decimal.Decimal {
	subtotal := decimal.Zero
	for i, it := range items {
		subtotal = subtotal.Add(products[i].OfferPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return subtotal
}

// CalculateAmount returns floor(subtotal) + floor(subtotal * 0.02), the
// amount stored on the order.
func CalculateAmount(products []*Product, items []OrderItem) int64 {
	subtotal := Subtotal(products, items)
	tax := subtotal.Mul(taxRate).Floor()
	return subtotal.Floor().IntPart() + tax.IntPart()
}

// DisplayLines builds the per-line breakdown sent to the payment processor.
// Each unit price is taxed and floored on its own, then scaled to minor
// units, so the charged total can differ from CalculateAmount by a rounding
// remainder.
func DisplayLines(products []*Product, items []OrderItem) []DisplayLine {
	lines := make([]DisplayLine, len(items))
	hundred := decimal.NewFromInt(100)
	for i, it := range items {
		price := products[i].OfferPrice
		unit := price.Add(price.Mul(taxRate)).Floor().Mul(hundred)
		lines[i] = DisplayLine{
			Name:       products[i].Name,
			UnitAmount: unit.IntPart(),
			Quantity:   int64(it.Quantity),
		}
	}
	return lines
}
