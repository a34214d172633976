package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)

	identity := user.Identity{
		EmployeeID:   "0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",
		EmployeeCode: "EMP001",
		Role:         user.RolePodLead,
		DepartmentID: strPtr("dept-1"),
		PodID:        strPtr("pod-1"),
	}

	token, expiresAt, err := svc.GenerateAccessToken(identity)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	parsed, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)
	claims, err := parsed.AsMap(context.Background())
	require.NoError(t, err)

	got, err := IdentityFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

func TestIdentityFromClaims(t *testing.T) {
	_, err := IdentityFromClaims(map[string]interface{}{"type": TokenTypeRefresh, "employee_id": "e1"})
	assert.ErrorIs(t, err, ErrInvalidClaims)

	_, err = IdentityFromClaims(map[string]interface{}{"type": TokenTypeAccess})
	assert.ErrorIs(t, err, ErrInvalidClaims)

	got, err := IdentityFromClaims(map[string]interface{}{
		"type":        TokenTypeAccess,
		"employee_id": "e1",
		"role":        "pod_lead",
		"pod_id":      nil,
	})
	require.NoError(t, err)
	assert.Equal(t, user.RolePodLead, got.Role)
	assert.Nil(t, got.PodID)
	assert.Nil(t, got.DepartmentID)

	got, err = IdentityFromClaims(map[string]interface{}{"type": TokenTypeAccess, "employee_id": "e1", "role": "intern"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleEmployee, got.Role)
}

func TestRefreshToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)

	refresh, _, err := svc.GenerateRefreshToken("e1")
	require.NoError(t, err)

	id, err := svc.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "e1", id)

	access, _, err := svc.GenerateAccessToken(user.Identity{EmployeeID: "e1", Role: user.RoleEmployee})
	require.NoError(t, err)
	_, err = svc.ParseRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidClaims)

	other := NewJWTService("other-secret", time.Minute, time.Minute)
	_, err = other.ParseRefreshToken(refresh)
	assert.Error(t, err)
}

func TestExpiredRefreshTokenRejected(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute, time.Hour)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	refresh, _, err := svc.GenerateRefreshToken("e1")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ParseRefreshToken(refresh)
	assert.Error(t, err)
}
