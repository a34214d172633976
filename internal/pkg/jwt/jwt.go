package jwt

import (
	"errors"
	"time"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidClaims = errors.New("token claims are incomplete")

type Service interface {
	GenerateAccessToken(identity user.Identity) (token string, expiresAt int64, err error)
	GenerateRefreshToken(employeeID string) (token string, expiresAt int64, err error)
	// ParseRefreshToken verifies a refresh token and returns the employee it was issued to.
	ParseRefreshToken(tokenString string) (employeeID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration  time.Duration
	refreshTokenExpiration time.Duration
	tokenAuth              *jwtauth.JWTAuth
	now                    func() time.Time
}

func NewJWTService(secretKey string, accessTokenExpiration, refreshTokenExpiration time.Duration) *JWTService {
	return &JWTService{
		accessTokenExpiration:  accessTokenExpiration,
		refreshTokenExpiration: refreshTokenExpiration,
		tokenAuth:              jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                    time.Now,
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(identity user.Identity) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		"employee_id":   identity.EmployeeID,
		"employee_code": identity.EmployeeCode,
		"role":          string(identity.Role),
		"department_id": valueOrNil(identity.DepartmentID),
		"pod_id":        valueOrNil(identity.PodID),
		"type":          TokenTypeAccess,
		"exp":           expiresAt,
	}

	_, token, err = j.tokenAuth.Encode(claims)
	return token, expiresAt, err
}

func (j *JWTService) GenerateRefreshToken(employeeID string) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.refreshTokenExpiration).Unix()
	_, token, err = j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"type":        TokenTypeRefresh,
		"exp":         expiresAt,
	})
	return token, expiresAt, err
}

func (j *JWTService) ParseRefreshToken(tokenString string) (string, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeRefresh {
		return "", ErrInvalidClaims
	}

	employeeID, ok := token.Get("employee_id")
	if !ok {
		return "", ErrInvalidClaims
	}
	id, ok := employeeID.(string)
	if !ok || id == "" {
		return "", ErrInvalidClaims
	}
	return id, nil
}

// IdentityFromClaims resolves an access token's claims into a caller
// identity. The role claim is parsed once here.
func IdentityFromClaims(claims map[string]interface{}) (user.Identity, error) {
	if tokenType, _ := claims["type"].(string); tokenType != TokenTypeAccess {
		return user.Identity{}, ErrInvalidClaims
	}

	employeeID, _ := claims["employee_id"].(string)
	if employeeID == "" {
		return user.Identity{}, ErrInvalidClaims
	}

	role, _ := claims["role"].(string)
	identity := user.Identity{
		EmployeeID:   employeeID,
		EmployeeCode: stringClaim(claims, "employee_code"),
		Role:         user.ParseRole(role),
	}
	if dept := stringClaim(claims, "department_id"); dept != "" {
		identity.DepartmentID = &dept
	}
	if pod := stringClaim(claims, "pod_id"); pod != "" {
		identity.PodID = &pod
	}
	return identity, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	value, _ := claims[key].(string)
	return value
}

func valueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
