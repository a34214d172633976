package user

import "errors"

var (
	ErrForbidden              = errors.New("insufficient permissions")
	ErrAdminPrivilegeRequired = errors.New("admin privilege required")
	ErrIdentityRequired       = errors.New("identity is required")
)
