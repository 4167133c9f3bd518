package domain

import "errors"

var (
	ErrInvalidData      = errors.New("Invalid data")
	ErrProductNotFound  = errors.New("Product not found")
	ErrAddressNotFound  = errors.New("Address not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
