package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type identityKey struct{}

// AuthRequired expects jwtauth.Verifier to have run. It accepts access
// tokens only and stores the caller identity in the request context.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		identity, err := jwt.IdentityFromClaims(claims)
		if err != nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity user.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by AuthRequired. The
// zero Identity is returned for unauthenticated requests.
func IdentityFromContext(ctx context.Context) user.Identity {
	identity, _ := ctx.Value(identityKey{}).(user.Identity)
	return identity
}
