package user

type Permission string

const (
	// Dashboards
	PermissionDashboardOrg        Permission = "dashboard.org"
	PermissionDashboardDepartment Permission = "dashboard.department"
	PermissionDashboardPod        Permission = "dashboard.pod"
	PermissionDashboardEmployee   Permission = "dashboard.employee"

	// Allocations
	PermissionAllocationView    Permission = "allocation.view"
	PermissionAllocationSubmit  Permission = "allocation.submit"
	PermissionAllocationProcess Permission = "allocation.process"

	// Admin data management
	PermissionDataImport Permission = "data.import"
	PermissionMasterList Permission = "data.master_list"
)

var adminPermissions = []Permission{
	PermissionDashboardOrg,
	PermissionDashboardDepartment,
	PermissionDashboardPod,
	PermissionDashboardEmployee,
	PermissionAllocationView,
	PermissionAllocationSubmit,
	PermissionAllocationProcess,
	PermissionDataImport,
	PermissionMasterList,
}

// RolePermissions maps roles to their permissions. Scope restrictions
// (own department, own pod, self) are applied by the services on top.
var RolePermissions = map[Role][]Permission{
	RoleAdmin:      adminPermissions,
	RoleAutomation: adminPermissions,
	RoleCEO: {
		PermissionDashboardOrg,
		PermissionDashboardDepartment,
		PermissionDashboardPod,
		PermissionDashboardEmployee,
		PermissionAllocationView,
		PermissionAllocationProcess,
	},
	RoleHOD: {
		PermissionDashboardDepartment,
		PermissionDashboardPod,
		PermissionDashboardEmployee,
	},
	RolePodLead: {
		PermissionDashboardPod,
		PermissionDashboardEmployee,
		PermissionAllocationView,
		PermissionAllocationSubmit,
	},
	RoleEmployee: {
		PermissionDashboardEmployee,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}

// HasUnscopedAccess reports whether the role sees every department and pod.
func HasUnscopedAccess(role Role) bool {
	return role == RoleCEO || role.IsAdmin()
}
