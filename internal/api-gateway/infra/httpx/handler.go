package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jcmexdev/storefront-orders/internal/api-gateway/core/ports"
	"github.com/jcmexdev/storefront-orders/internal/api-gateway/infra/httpx/middlewares"
	"github.com/jcmexdev/storefront-orders/internal/order-service/app"
	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
)

// maxWebhookBody bounds the raw notification read before verification.
const maxWebhookBody = 64 << 10

// Handler serves the order endpoints of the storefront API.
type Handler struct {
	checkout ports.CheckoutService
	webhooks ports.WebhookService
	queries  ports.OrderQueries
}

func NewHandler(checkout ports.CheckoutService, webhooks ports.WebhookService, queries ports.OrderQueries) *Handler {
	return &Handler{checkout: checkout, webhooks: webhooks, queries: queries}
}

// PlaceOrderCOD places a cash on delivery order for the authenticated user.
func (h *Handler) PlaceOrderCOD(w http.ResponseWriter, r *http.Request) {
	in, ok := decodePlaceOrder(w, r)
	if !ok {
		return
	}

	slog.InfoContext(r.Context(), "placing cod order",
		"request_id", middlewares.RequestID(r.Context()),
		"idempotency_key", middlewares.IdempotencyKey(r.Context()),
		"user_id", in.UserID)

	if _, err := h.checkout.PlaceCashOnDelivery(r.Context(), in); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Order Placed Successfully"})
}

// PlaceOrderStripe creates a pending online order and returns the hosted
// checkout URL. Redirects go back to the calling storefront's origin.
func (h *Handler) PlaceOrderStripe(w http.ResponseWriter, r *http.Request) {
	in, ok := decodePlaceOrder(w, r)
	if !ok {
		return
	}

	slog.InfoContext(r.Context(), "placing online order",
		"request_id", middlewares.RequestID(r.Context()),
		"idempotency_key", middlewares.IdempotencyKey(r.Context()),
		"user_id", in.UserID)

	url, err := h.checkout.PlaceOnline(r.Context(), in, r.Header.Get("Origin"))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResponse{Success: true, URL: url})
}

// StripeWebhook receives payment notifications. The body is read raw so the
// signature can be checked over the exact bytes.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		slog.WarnContext(r.Context(), "webhook body unreadable", "error", err)
		http.Error(w, "Webhook Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Once verified, the event is applied even if the processor hangs up.
	ctx := context.WithoutCancel(r.Context())
	out, err := h.webhooks.Submit(ctx, payload, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, domain.ErrInvalidSignature) {
		http.Error(w, "Webhook Error: "+webhookReason(err), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "webhook processing failed",
			"event_id", out.EventID, "event_type", out.Kind, "order_id", out.OrderID, "error", err)
	}
	writeJSON(w, http.StatusOK, WebhookAck{Received: true})
}

// UserOrders lists the authenticated user's orders, newest first.
func (h *Handler) UserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.UserOrders(r.Context(), middlewares.UserID(r.Context()))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrdersResponse{Success: true, Orders: mapOrders(orders)})
}

// SellerOrders lists every settled or cash on delivery order.
func (h *Handler) SellerOrders(w http.ResponseWriter, r *http.Request) {
	slog.InfoContext(r.Context(), "listing seller orders",
		"request_id", middlewares.RequestID(r.Context()),
		"seller_email", middlewares.SellerEmail(r.Context()))

	orders, err := h.queries.SellerOrders(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrdersResponse{Success: true, Orders: mapOrders(orders)})
}

func decodePlaceOrder(w http.ResponseWriter, r *http.Request) (app.PlaceOrderInput, bool) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, MessageResponse{Message: domain.ErrInvalidData.Error()})
		return app.PlaceOrderInput{}, false
	}

	items := make([]domain.OrderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = domain.OrderItem{ProductID: it.Product, Quantity: it.Quantity}
	}
	return app.PlaceOrderInput{
		UserID:    middlewares.UserID(r.Context()),
		AddressID: req.Address,
		Items:     items,
	}, true
}

// writeFailure answers business failures the way the storefront client
// expects them: HTTP 200 with success false and the innermost error message.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	msg := rootCause(err).Error()
	if isBusinessError(err) {
		slog.InfoContext(ctx, "request rejected", "request_id", middlewares.RequestID(ctx), "reason", msg)
	} else {
		slog.ErrorContext(ctx, "request failed", "request_id", middlewares.RequestID(ctx), "error", err)
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

func isBusinessError(err error) bool {
	for _, known := range []error{domain.ErrInvalidData, domain.ErrProductNotFound, domain.ErrAddressNotFound, domain.ErrOrderNotFound} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

// rootCause follows single-error wrapping down to the leaf.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// webhookReason strips the sentinel prefix so clients see the processor's
// own verification message.
func webhookReason(err error) string {
	msg := err.Error()
	prefix := domain.ErrInvalidSignature.Error() + "\n"
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

func mapOrders(orders []domain.ExpandedOrder) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrderToResponse(o)
	}
	return out
}

func mapOrderToResponse(o domain.ExpandedOrder) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{Quantity: it.Quantity}
		if i < len(o.Products) && o.Products[i] != nil {
			items[i].Product = mapProduct(o.Products[i])
		}
	}

	resp := OrderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Items:       items,
		Amount:      o.Amount,
		PaymentType: string(o.PaymentType),
		IsPaid:      o.IsPaid,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if a := o.Address; a != nil {
		resp.Address = &AddressResponse{
			ID:        a.ID,
			UserID:    a.UserID,
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Email:     a.Email,
			Street:    a.Street,
			City:      a.City,
			State:     a.State,
			Zipcode:   a.Zipcode,
			Country:   a.Country,
			Phone:     a.Phone,
		}
	}
	return resp
}

func mapProduct(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.InexactFloat64(),
		OfferPrice:  p.OfferPrice.InexactFloat64(),
		Image:       p.Images,
		InStock:     p.InStock,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
