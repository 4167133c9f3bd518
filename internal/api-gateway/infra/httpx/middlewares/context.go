package middlewares

import "context"

// contextKey is unexported so keys cannot collide with other packages.
type contextKey string

const (
	HeaderXRequestId      = "X-Request-Id"
	HeaderXIdempotencyKey = "X-Idempotency-Key"

	ContextKeyRequestID      contextKey = "request_id"
	ContextKeyIdempotencyKey contextKey = "idempotency_key"
	ContextKeyUserID         contextKey = "user_id"
	ContextKeySellerEmail    contextKey = "seller_email"
)

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyRequestID).(string)
	return v
}

func IdempotencyKey(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyIdempotencyKey).(string)
	return v
}

// UserID returns the authenticated buyer set by Authenticator.RequireUser.
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyUserID).(string)
	return v
}

func SellerEmail(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeySellerEmail).(string)
	return v
}
