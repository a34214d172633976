package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/organization"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/jwt"
)

type AuthServiceImpl struct {
	organization organization.OrganizationRepository
	jwt          jwt.Service
}

func NewAuthService(org organization.OrganizationRepository, jwtService jwt.Service) auth.AuthService {
	return &AuthServiceImpl{
		organization: org,
		jwt:          jwtService,
	}
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	employee, err := a.organization.GetEmployeeByCode(ctx, req.EmployeeCode)
	if err != nil {
		if errors.Is(err, organization.ErrEmployeeNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get employee by code: %w", err)
	}

	access, _, err := a.jwt.GenerateAccessToken(employee.Identity())
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	refresh, _, err := a.jwt.GenerateRefreshToken(employee.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	slog.Info("Employee logged in", "employee_id", employee.ID, "role", employee.Role)
	return auth.TokenResponse{Access: access, Refresh: refresh}, nil
}

// RefreshToken implements auth.AuthService.
func (a *AuthServiceImpl) RefreshToken(ctx context.Context, req auth.RefreshTokenRequest) (auth.AccessTokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.AccessTokenResponse{}, err
	}

	employeeID, err := a.jwt.ParseRefreshToken(req.Refresh)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	employee, err := a.organization.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, organization.ErrEmployeeNotFound) {
			return auth.AccessTokenResponse{}, auth.ErrInvalidToken
		}
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	access, _, err := a.jwt.GenerateAccessToken(employee.Identity())
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	return auth.AccessTokenResponse{Access: access}, nil
}

// Me implements auth.AuthService.
func (a *AuthServiceImpl) Me(ctx context.Context, identity user.Identity) (auth.ProfileResponse, error) {
	if identity.EmployeeID == "" {
		return auth.ProfileResponse{}, user.ErrIdentityRequired
	}

	employee, err := a.organization.GetEmployeeByID(ctx, identity.EmployeeID)
	if err != nil {
		return auth.ProfileResponse{}, err
	}

	profile := auth.ProfileResponse{
		EmployeeID:     employee.ID,
		EmployeeCode:   employee.Code,
		Name:           employee.Name,
		Role:           string(employee.Role),
		DepartmentName: employee.DepartmentName,
		PodName:        employee.PodName,
	}
	if employee.DepartmentID != "" {
		profile.DepartmentID = &employee.DepartmentID
	}
	if employee.PodID != "" {
		profile.PodID = &employee.PodID
	}
	return profile, nil
}
