package organization

import (
	"time"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
)

type Department struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Pod struct {
	ID                string
	Name              string
	DepartmentID      string
	PodLeadEmployeeID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Joined fields
	DepartmentName *string
}

// HasLead reports whether a pod lead has been assigned.
func (p Pod) HasLead() bool {
	return p.PodLeadEmployeeID != nil && *p.PodLeadEmployeeID != ""
}

type Employee struct {
	ID           string
	Code         string
	Name         string
	Email        *string
	Role         user.Role
	DepartmentID string
	PodID        string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Joined fields
	DepartmentName *string
	PodName        *string
}

// Identity builds the caller identity for an authenticated employee.
func (e Employee) Identity() user.Identity {
	dept, pod := e.DepartmentID, e.PodID
	return user.Identity{
		EmployeeID:   e.ID,
		EmployeeCode: e.Code,
		Role:         e.Role,
		DepartmentID: &dept,
		PodID:        &pod,
	}
}
