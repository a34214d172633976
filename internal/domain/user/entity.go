package user

import "strings"

type Role string

const (
	RoleCEO        Role = "CEO"        // Organization-wide read access, may process allocations
	RoleHOD        Role = "HOD"        // Head of department
	RolePodLead    Role = "PodLead"    // Submits monthly allocations for their pod
	RoleEmployee   Role = "Employee"   // Own contributions only
	RoleAdmin      Role = "Admin"      // Uploads, processing, master list
	RoleAutomation Role = "Automation" // Service account with admin rights
)

// ParseRole resolves a raw role claim. Matching is case-insensitive and
// ignores separators; anything unrecognised is an Employee.
func ParseRole(raw string) Role {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)

	switch normalized {
	case "ceo":
		return RoleCEO
	case "hod":
		return RoleHOD
	case "podlead":
		return RolePodLead
	case "admin":
		return RoleAdmin
	case "automation":
		return RoleAutomation
	default:
		return RoleEmployee
	}
}

// IsAdmin reports whether the role carries admin rights. Automation
// accounts are treated as admins.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleAutomation
}

// Identity is the resolved caller passed into every service operation.
type Identity struct {
	EmployeeID   string
	EmployeeCode string
	Role         Role
	DepartmentID *string
	PodID        *string
}

// InDepartment reports whether the identity belongs to departmentID.
func (i Identity) InDepartment(departmentID string) bool {
	return i.DepartmentID != nil && *i.DepartmentID == departmentID
}

// InPod reports whether the identity belongs to podID.
func (i Identity) InPod(podID string) bool {
	return i.PodID != nil && *i.PodID == podID
}
