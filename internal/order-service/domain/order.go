package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentCOD    PaymentType = "COD"
	PaymentOnline PaymentType = "Online"
)

type Order struct {
	ID          string
	UserID      string
	Items       []OrderItem
	Amount      int64
	AddressID   string
	PaymentType PaymentType
	IsPaid      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderItem struct {
	ProductID string
	Quantity  int
}

// OrderUpdate names the fields a caller is allowed to change after creation.
// Nil fields are left untouched.
type OrderUpdate struct {
	IsPaid *bool
}

// Product is the catalog view the pricing path reads. Catalog management
// lives outside this module.
type Product struct {
	ID          string
	Name        string
	Description []string
	Category    string
	Price       decimal.Decimal
	OfferPrice  decimal.Decimal
	Images      []string
	InStock     bool
}

type Address struct {
	ID        string
	UserID    string
	FirstName string
	LastName  string
	Email     string
	Street    string
	City      string
	State     string
	Zipcode   string
	Country   string
	Phone     string
}

// ExpandedOrder is an order with its product and address references resolved
// for listings. Products that no longer exist are left nil.
type ExpandedOrder struct {
	Order
	Products []*Product
	Address  *Address
}
