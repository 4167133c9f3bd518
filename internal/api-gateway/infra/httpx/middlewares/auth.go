package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	UserCookie   = "token"
	SellerCookie = "sellerToken"
)

// Authenticator verifies the HMAC-signed session tokens issued by the
// storefront's account service.
type Authenticator struct {
	secret      []byte
	sellerEmail string
}

func NewAuthenticator(secret, sellerEmail string) *Authenticator {
	return &Authenticator{secret: []byte(secret), sellerEmail: sellerEmail}
}

// RequireUser accepts the token cookie or a Bearer header and puts the
// token's id claim in the context.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerOrCookie(r, UserCookie)
		if raw == "" {
			deny(w, http.StatusUnauthorized, "Not Authorized (no token)")
			return
		}

		claims, err := a.parse(raw)
		if err != nil {
			slog.DebugContext(r.Context(), "user token rejected", "error", err)
			deny(w, http.StatusUnauthorized, "Token verification failed")
			return
		}

		userID, _ := claims["id"].(string)
		if userID == "" {
			deny(w, http.StatusForbidden, "Invalid token payload")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSeller only admits the sellerToken cookie whose email claim is the
// configured seller account.
func (a *Authenticator) RequireSeller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SellerCookie)
		if err != nil || c.Value == "" {
			deny(w, http.StatusUnauthorized, "Not Authorized (No token)")
			return
		}

		claims, err := a.parse(c.Value)
		if err != nil {
			slog.DebugContext(r.Context(), "seller token rejected", "error", err)
			deny(w, http.StatusUnauthorized, "Token invalid or expired")
			return
		}

		email, _ := claims["email"].(string)
		if a.sellerEmail == "" || email != a.sellerEmail {
			deny(w, http.StatusForbidden, "Not Authorized (Invalid seller)")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeySellerEmail, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) parse(raw string) (jwt.MapClaims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("no signing secret configured")
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func bearerOrCookie(r *http.Request, cookie string) string {
	if c, err := r.Cookie(cookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if _, token, ok := strings.Cut(h, " "); ok {
			return token
		}
	}
	return ""
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}
