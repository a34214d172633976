package organization

import "github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"

// CanViewDepartment applies department scoping on top of the role's permission.
func CanViewDepartment(identity user.Identity, departmentID string) bool {
	if !user.HasPermission(identity.Role, user.PermissionDashboardDepartment) {
		return false
	}
	if user.HasUnscopedAccess(identity.Role) {
		return true
	}
	return identity.Role == user.RoleHOD && identity.InDepartment(departmentID)
}

// CanViewPod lets pod leads see their pod and heads of department the pods of their department.
func CanViewPod(identity user.Identity, pod Pod) bool {
	if !user.HasPermission(identity.Role, user.PermissionDashboardPod) {
		return false
	}
	switch {
	case user.HasUnscopedAccess(identity.Role):
		return true
	case identity.Role == user.RoleHOD:
		return identity.InDepartment(pod.DepartmentID)
	case identity.Role == user.RolePodLead:
		return identity.InPod(pod.ID)
	}
	return false
}

// CanViewEmployee lets everyone see themselves, pod leads their pod
// members and heads of department their department members.
func CanViewEmployee(identity user.Identity, employee Employee) bool {
	if !user.HasPermission(identity.Role, user.PermissionDashboardEmployee) {
		return false
	}
	switch {
	case user.HasUnscopedAccess(identity.Role):
		return true
	case identity.EmployeeID == employee.ID:
		return true
	case identity.Role == user.RoleHOD:
		return identity.InDepartment(employee.DepartmentID)
	case identity.Role == user.RolePodLead:
		return identity.InPod(employee.PodID)
	}
	return false
}

// CanManagePodAllocations reports whether the identity may act on the pod's
// allocations with the given permission. Pod leads are limited to their own pod.
func CanManagePodAllocations(identity user.Identity, podID string, permission user.Permission) bool {
	if !user.HasPermission(identity.Role, permission) {
		return false
	}
	if identity.Role == user.RolePodLead {
		return identity.InPod(podID)
	}
	return true
}
