package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/server"
)

// Forwarded identity headers set by the gateway after verifying the bearer
// token. Internal services trust them; external ingress is only via the
// gateway.
const (
	HeaderUserID    = "X-User-ID"
	HeaderCompanyID = "X-Company-ID"
)

// Identity is the caller identity attached to authenticated requests.
// Handlers must read it from the context, never from request bodies —
// company isolation depends on it.
type Identity struct {
	UserID    string
	CompanyID string
	Email     string
}

type identityKey struct{}

// WithIdentity returns a context carrying the caller identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom extracts the caller identity from a context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Verifier validates access tokens. Satisfied by TokenIssuer and
// CachingVerifier.
type Verifier interface {
	VerifyAccess(token string) (*AccessClaims, error)
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Middleware authenticates requests for an internal service. Identity
// arrives either as gateway-forwarded headers or as a bearer token, which
// is verified when a verifier is configured. Requests with neither are
// rejected with UNAUTHENTICATED.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := r.Header.Get(HeaderUserID); userID != "" {
				companyID := r.Header.Get(HeaderCompanyID)
				if companyID == "" {
					server.WriteError(w, r, apperror.Unauthenticated("auth.middleware", "forwarded identity incomplete", nil))
					return
				}
				ctx := WithIdentity(r.Context(), Identity{UserID: userID, CompanyID: companyID})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				server.WriteError(w, r, apperror.Unauthenticated("auth.middleware", "missing bearer token", nil))
				return
			}
			if verifier == nil {
				server.WriteError(w, r, apperror.Unauthenticated("auth.middleware", "token verification not available", nil))
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				server.WriteError(w, r, err)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{
				UserID:    claims.UserID(),
				CompanyID: claims.CompanyID,
				Email:     claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MustIdentity returns the caller identity or an UNAUTHENTICATED error.
// Used by handlers running behind Middleware.
func MustIdentity(ctx context.Context) (Identity, error) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return Identity{}, apperror.Unauthenticated("auth.identity", "no caller identity in request context", nil)
	}
	return id, nil
}
