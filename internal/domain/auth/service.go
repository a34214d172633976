package auth

import (
	"context"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
)

type AuthService interface {
	// Login issues a token pair for a known employee code.
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	// RefreshToken issues a new access token, re-reading the employee so role changes apply.
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (AccessTokenResponse, error)
	Me(ctx context.Context, identity user.Identity) (ProfileResponse, error)
}
