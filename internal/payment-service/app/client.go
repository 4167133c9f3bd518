package paymentservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	"github.com/jcmexdev/storefront-orders/internal/order-service/ports"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// Client is the process-wide Stripe gateway. Build it once and share it.
type Client struct {
	api           *client.API
	webhookSecret string
	currency      string
}

var _ ports.PaymentGateway = (*Client)(nil)

// NewClient builds the gateway. A nil backends uses Stripe's defaults with
// logging routed through slog.
func NewClient(cfg Config, backends *stripe.Backends) *Client {
	if backends == nil {
		backends = NewBackends(nil)
	}
	return &Client{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
	}
}

// NewBackends returns API backends logging through slog. A non-nil url
// overrides the API endpoint, which tests point at a local server.
func NewBackends(url *string) *stripe.Backends {
	api := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               url,
		LeveledLogger:     slogLogger{},
		MaxNetworkRetries: stripe.Int64(2),
	})
	return &stripe.Backends{API: api, Connect: api, Uploads: api}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req ports.CheckoutSessionRequest) (*ports.CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, len(req.Lines))
	for i, l := range req.Lines {
		lineItems[i] = &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(c.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(l.Name),
				},
				UnitAmount: stripe.Int64(l.UnitAmount),
			},
			Quantity: stripe.Int64(l.Quantity),
		}
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(domain.MetadataOrderID, req.OrderID)
	params.AddMetadata(domain.MetadataUserID, req.UserID)

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session for order %s: %w", req.OrderID, apiMessage(ctx, err))
	}
	return toSession(s), nil
}

func (c *Client) SessionForPaymentIntent(ctx context.Context, paymentIntentID string) (*ports.CheckoutSession, error) {
	params := &stripe.CheckoutSessionListParams{PaymentIntent: stripe.String(paymentIntentID)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := c.api.CheckoutSessions.List(params)
	var found *ports.CheckoutSession
	if iter.Next() {
		found = toSession(iter.CheckoutSession())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list sessions for payment intent %s: %w", paymentIntentID, apiMessage(ctx, err))
	}
	return found, nil
}

// ParseEvent verifies the Stripe-Signature header and extracts the fields
// reconciliation needs. Event payloads pinned to a different API version
// are accepted since only ids and metadata are read.
func (c *Client) ParseEvent(payload []byte, signature string) (*domain.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
		Tolerance:                webhook.DefaultTolerance,
	})
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidSignature, err)
	}

	ev := &domain.PaymentEvent{ID: event.ID, Kind: domain.EventKind(event.Type)}
	if event.Data == nil || !ev.Kind.Handled() {
		return ev, nil
	}

	switch ev.Kind {
	case domain.EventSessionCompleted, domain.EventSessionExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("stripe: decode %s: %w", event.Type, err)
		}
		ev.SessionID = s.ID
		ev.OrderID = s.Metadata[domain.MetadataOrderID]
		ev.UserID = s.Metadata[domain.MetadataUserID]
		if s.PaymentIntent != nil {
			ev.PaymentIntentID = s.PaymentIntent.ID
		}

	case domain.EventPaymentSucceeded, domain.EventPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("stripe: decode %s: %w", event.Type, err)
		}
		ev.PaymentIntentID = pi.ID
		// Intents created by Checkout carry no order metadata of their own;
		// the processor resolves it from the session.
		ev.OrderID = pi.Metadata[domain.MetadataOrderID]
		ev.UserID = pi.Metadata[domain.MetadataUserID]
	}
	return ev, nil
}

func toSession(s *stripe.CheckoutSession) *ports.CheckoutSession {
	return &ports.CheckoutSession{ID: s.ID, URL: s.URL, Metadata: s.Metadata}
}

// apiMessage replaces a *stripe.Error, whose text is its JSON body, with the
// processor's human readable message. The full error is logged first.
func apiMessage(ctx context.Context, err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) || se.Msg == "" {
		return err
	}
	slog.WarnContext(ctx, "stripe api error",
		"type", se.Type, "code", se.Code, "status", se.HTTPStatusCode, "request_id", se.RequestID)
	return errors.New(se.Msg)
}

// slogLogger adapts stripe.LeveledLoggerInterface to the default slog logger.
type slogLogger struct{}

func (slogLogger) Debugf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (slogLogger) Infof(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (slogLogger) Warnf(format string, v ...interface{}) {
	slog.Warn(fmt.Sprintf(format, v...), "component", "stripe")
}

func (slogLogger) Errorf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...), "component", "stripe")
}
