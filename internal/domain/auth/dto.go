package auth

import (
	"strings"

	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"
)

type LoginRequest struct {
	EmployeeCode string `json:"employee_code"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	r.EmployeeCode = strings.TrimSpace(r.EmployeeCode)
	if validator.IsEmpty(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_code",
			Message: "employee_code is required",
		})
	} else if !validator.IsValidEmployeeCode(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_code",
			Message: "employee_code may only contain letters, numbers, dots, underscores, and hyphens",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RefreshTokenRequest struct {
	Refresh string `json:"refresh"`
}

func (r *RefreshTokenRequest) Validate() error {
	if validator.IsEmpty(r.Refresh) {
		return validator.ValidationErrors{{Field: "refresh", Message: "refresh is required"}}
	}
	return nil
}

type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AccessTokenResponse struct {
	Access string `json:"access"`
}

type ProfileResponse struct {
	EmployeeID     string  `json:"employee_id"`
	EmployeeCode   string  `json:"employee_code"`
	Name           string  `json:"name"`
	Role           string  `json:"role"`
	DepartmentID   *string `json:"department_id"`
	DepartmentName *string `json:"department_name"`
	PodID          *string `json:"pod_id"`
	PodName        *string `json:"pod_name"`
}
