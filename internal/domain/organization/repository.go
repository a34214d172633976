package organization

import "context"

// UpsertEmployeeInput is one normalised row of the employee master import.
type UpsertEmployeeInput struct {
	Code           string
	Name           string
	Email          *string
	Role           string
	DepartmentName string
	PodName        string
	IsPodLead      bool
}

// UpsertEmployeeResult reports what an upsert created along the way.
type UpsertEmployeeResult struct {
	Employee          Employee
	EmployeeCreated   bool
	DepartmentCreated bool
	PodCreated        bool
}

type OrganizationRepository interface {
	GetDepartmentByID(ctx context.Context, id string) (Department, error)
	ListDepartments(ctx context.Context) ([]Department, error)

	GetPodByID(ctx context.Context, id string) (Pod, error)
	ListPods(ctx context.Context) ([]Pod, error)

	GetEmployeeByID(ctx context.Context, id string) (Employee, error)
	GetEmployeeByCode(ctx context.Context, code string) (Employee, error)
	ListEmployeesByPod(ctx context.Context, podID string) ([]Employee, error)

	// UpsertEmployee creates departments and pods by name as needed and
	// assigns the pod lead when IsPodLead is set.
	UpsertEmployee(ctx context.Context, input UpsertEmployeeInput) (UpsertEmployeeResult, error)
}
