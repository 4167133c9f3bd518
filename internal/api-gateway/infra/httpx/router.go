package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jcmexdev/storefront-orders/internal/api-gateway/infra/httpx/middlewares"
	"github.com/jcmexdev/storefront-orders/internal/pkg/health"
)

// NewRouter mounts the order API under /api. The webhook route carries no
// auth middleware: it authenticates with the processor's signature.
func NewRouter(handler *Handler, auth *middlewares.Authenticator, checks *health.Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middlewares.HeaderXIdempotencyKey},
		ExposedHeaders:   []string{middlewares.HeaderXRequestId},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("API is Working"))
	})

	r.Route("/api/order", func(r chi.Router) {
		r.Post("/stripe-webhook", handler.StripeWebhook)

		r.With(auth.RequireUser).Post("/cod", handler.PlaceOrderCOD)
		r.With(auth.RequireUser).Post("/stripe", handler.PlaceOrderStripe)
		r.With(auth.RequireUser).Get("/user", handler.UserOrders)
		r.With(auth.RequireSeller).Get("/seller", handler.SellerOrders)
	})

	if checks != nil {
		r.Get("/health", checks.Health)
		r.Get("/health/live", checks.Live)
		r.Get("/health/ready", checks.Ready)
	}
	return r
}
