package auth

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/contribution-backend-go/internal/repository/memory"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

func newTestAuthService(t *testing.T) (*memory.Store, *jwt.JWTService, auth.AuthService) {
	t.Helper()
	store := memory.NewStore()
	tokens := jwt.NewJWTService(testSecret, time.Hour, 24*time.Hour)
	return store, tokens, NewAuthService(store, tokens)
}

func TestLogin_IssuesTokensForEmployeeCode(t *testing.T) {
	store, tokens, svc := newTestAuthService(t)
	dept := store.AddDepartment("Engineering")
	pod := store.AddPod("Alpha", dept.ID)
	lead := store.AddEmployee("L001", "Lina", user.RolePodLead, pod.ID)

	resp, err := svc.Login(context.Background(), auth.LoginRequest{EmployeeCode: "  l001 "})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Access)
	require.NotEmpty(t, resp.Refresh)

	token, err := jwtauth.VerifyToken(tokens.JWTAuth(), resp.Access)
	require.NoError(t, err)
	claims, err := token.AsMap(context.Background())
	require.NoError(t, err)

	identity, err := jwt.IdentityFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, identity.EmployeeID)
	assert.Equal(t, user.RolePodLead, identity.Role)
	require.NotNil(t, identity.PodID)
	assert.Equal(t, pod.ID, *identity.PodID)

	employeeID, err := tokens.ParseRefreshToken(resp.Refresh)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, employeeID)
}

func TestLogin_UnknownCode(t *testing.T) {
	_, _, svc := newTestAuthService(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{EmployeeCode: "NOPE01"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), auth.LoginRequest{EmployeeCode: ""})
	var errs validator.ValidationErrors
	assert.ErrorAs(t, err, &errs)
}

func TestRefreshToken(t *testing.T) {
	store, tokens, svc := newTestAuthService(t)
	dept := store.AddDepartment("Engineering")
	pod := store.AddPod("Alpha", dept.ID)
	emp := store.AddEmployee("E001", "Ana", user.RoleEmployee, pod.ID)

	refresh, _, err := tokens.GenerateRefreshToken(emp.ID)
	require.NoError(t, err)

	resp, err := svc.RefreshToken(context.Background(), auth.RefreshTokenRequest{Refresh: refresh})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Access)

	access, _, err := tokens.GenerateAccessToken(emp.Identity())
	require.NoError(t, err)
	_, err = svc.RefreshToken(context.Background(), auth.RefreshTokenRequest{Refresh: access})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	orphan, _, err := tokens.GenerateRefreshToken("00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	_, err = svc.RefreshToken(context.Background(), auth.RefreshTokenRequest{Refresh: orphan})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestMe(t *testing.T) {
	store, _, svc := newTestAuthService(t)
	dept := store.AddDepartment("Engineering")
	pod := store.AddPod("Alpha", dept.ID)
	emp := store.AddEmployee("E001", "Ana", user.RoleEmployee, pod.ID)

	profile, err := svc.Me(context.Background(), emp.Identity())
	require.NoError(t, err)
	assert.Equal(t, "E001", profile.EmployeeCode)
	assert.Equal(t, "Employee", profile.Role)
	require.NotNil(t, profile.DepartmentName)
	assert.Equal(t, "Engineering", *profile.DepartmentName)
	require.NotNil(t, profile.PodName)
	assert.Equal(t, "Alpha", *profile.PodName)

	_, err = svc.Me(context.Background(), user.Identity{})
	assert.ErrorIs(t, err, user.ErrIdentityRequired)
}
