package httpx

import "time"

type PlaceOrderRequest struct {
	Items   []PlaceOrderItemDTO `json:"items"`
	Address string              `json:"address"`
}

type PlaceOrderItemDTO struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type CheckoutResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

type OrdersResponse struct {
	Success bool            `json:"success"`
	Orders  []OrderResponse `json:"orders"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}

// OrderResponse keeps the storefront's existing field names, including the
// populated product and address objects.
type OrderResponse struct {
	ID          string              `json:"_id"`
	UserID      string              `json:"userId"`
	Items       []OrderItemResponse `json:"items"`
	Amount      int64               `json:"amount"`
	Address     *AddressResponse    `json:"address"`
	PaymentType string              `json:"paymentType"`
	IsPaid      bool                `json:"isPaid"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type OrderItemResponse struct {
	Product  *ProductResponse `json:"product"`
	Quantity int              `json:"quantity"`
}

type ProductResponse struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description []string `json:"description"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	OfferPrice  float64  `json:"offerPrice"`
	Image       []string `json:"image"`
	InStock     bool     `json:"inStock"`
}

type AddressResponse struct {
	ID        string `json:"_id"`
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zipcode   string `json:"zipcode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}
