package organization

import (
	"testing"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestCanViewDepartment(t *testing.T) {
	hod := user.Identity{EmployeeID: "h1", Role: user.RoleHOD, DepartmentID: ptr("d1")}
	assert.True(t, CanViewDepartment(hod, "d1"))
	assert.False(t, CanViewDepartment(hod, "d2"))

	assert.True(t, CanViewDepartment(user.Identity{Role: user.RoleCEO}, "d2"))
	assert.True(t, CanViewDepartment(user.Identity{Role: user.RoleAutomation}, "d2"))
	assert.False(t, CanViewDepartment(user.Identity{Role: user.RolePodLead, DepartmentID: ptr("d1")}, "d1"))
	assert.False(t, CanViewDepartment(user.Identity{Role: user.RoleEmployee, DepartmentID: ptr("d1")}, "d1"))
}

func TestCanViewPod(t *testing.T) {
	pod := Pod{ID: "p1", DepartmentID: "d1"}

	cases := []struct {
		name     string
		identity user.Identity
		want     bool
	}{
		{"ceo", user.Identity{Role: user.RoleCEO}, true},
		{"admin", user.Identity{Role: user.RoleAdmin}, true},
		{"hod own department", user.Identity{Role: user.RoleHOD, DepartmentID: ptr("d1")}, true},
		{"hod other department", user.Identity{Role: user.RoleHOD, DepartmentID: ptr("d2")}, false},
		{"pod lead own pod", user.Identity{Role: user.RolePodLead, PodID: ptr("p1")}, true},
		{"pod lead other pod", user.Identity{Role: user.RolePodLead, PodID: ptr("p2")}, false},
		{"employee", user.Identity{Role: user.RoleEmployee, PodID: ptr("p1")}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, CanViewPod(c.identity, pod))
		})
	}
}

func TestCanViewEmployee(t *testing.T) {
	emp := Employee{ID: "e1", DepartmentID: "d1", PodID: "p1"}

	assert.True(t, CanViewEmployee(user.Identity{EmployeeID: "e1", Role: user.RoleEmployee}, emp))
	assert.False(t, CanViewEmployee(user.Identity{EmployeeID: "e2", Role: user.RoleEmployee, PodID: ptr("p1")}, emp))
	assert.True(t, CanViewEmployee(user.Identity{EmployeeID: "l1", Role: user.RolePodLead, PodID: ptr("p1")}, emp))
	assert.False(t, CanViewEmployee(user.Identity{EmployeeID: "l2", Role: user.RolePodLead, PodID: ptr("p9")}, emp))
	assert.True(t, CanViewEmployee(user.Identity{EmployeeID: "h1", Role: user.RoleHOD, DepartmentID: ptr("d1")}, emp))
	assert.True(t, CanViewEmployee(user.Identity{Role: user.RoleCEO}, emp))
}

func TestCanManagePodAllocations(t *testing.T) {
	lead := user.Identity{Role: user.RolePodLead, PodID: ptr("p1")}
	assert.True(t, CanManagePodAllocations(lead, "p1", user.PermissionAllocationSubmit))
	assert.False(t, CanManagePodAllocations(lead, "p2", user.PermissionAllocationSubmit))
	assert.False(t, CanManagePodAllocations(lead, "p1", user.PermissionAllocationProcess))

	ceo := user.Identity{Role: user.RoleCEO}
	assert.True(t, CanManagePodAllocations(ceo, "p2", user.PermissionAllocationView))
	assert.True(t, CanManagePodAllocations(ceo, "p2", user.PermissionAllocationProcess))
	assert.False(t, CanManagePodAllocations(ceo, "p2", user.PermissionAllocationSubmit))

	admin := user.Identity{Role: user.RoleAdmin}
	assert.True(t, CanManagePodAllocations(admin, "p2", user.PermissionAllocationSubmit))
	assert.False(t, CanManagePodAllocations(user.Identity{Role: user.RoleHOD}, "p2", user.PermissionAllocationView))
}
