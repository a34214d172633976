package organization

import "errors"

var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrPodNotFound        = errors.New("pod not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
)
