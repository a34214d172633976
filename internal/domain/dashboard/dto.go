package dashboard

// ========== SHARED ==========

// ProductResponse is one product's share of a scope's hours.
type ProductResponse struct {
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	Hours       float64 `json:"hours"`
	Percent     float64 `json:"percent"` // share of the scope total, 1 decimal
}

// ========== ORGANIZATION ==========

type DepartmentBreakdown struct {
	DepartmentID   string            `json:"department_id"`
	DepartmentName string            `json:"department_name"`
	TotalHours     float64           `json:"total_hours"`
	Products       []ProductResponse `json:"products"`
}

type TopDepartment struct {
	DepartmentID   string  `json:"department_id"`
	DepartmentName string  `json:"department_name"`
	Hours          float64 `json:"hours"`
}

type TopPod struct {
	PodID          string  `json:"pod_id"`
	PodName        string  `json:"pod_name"`
	Hours          float64 `json:"hours"`
	DepartmentName string  `json:"department_name,omitempty"`
}

type OrgDashboardResponse struct {
	Month               string                `json:"month"`
	TotalHours          float64               `json:"total_hours"`
	Products            []ProductResponse     `json:"products"`
	DepartmentBreakdown []DepartmentBreakdown `json:"department_breakdown"`
	TopDepartments      []TopDepartment       `json:"top_departments"`
	TopPods             []TopPod              `json:"top_pods"`
}

// ========== DEPARTMENT ==========

type PodInDepartment struct {
	PodID      string            `json:"pod_id"`
	PodName    string            `json:"pod_name"`
	TotalHours float64           `json:"total_hours"`
	Products   []ProductResponse `json:"products"`
}

type DepartmentDashboardResponse struct {
	DepartmentID        string            `json:"department_id"`
	DepartmentName      string            `json:"department_name"`
	Month               string            `json:"month"`
	TotalHours          float64           `json:"total_hours"`
	Pods                []PodInDepartment `json:"pods"`
	ProductDistribution []ProductResponse `json:"product_distribution"`
}

// ========== POD ==========

type EmployeeInPod struct {
	EmployeeID   string            `json:"employee_id"`
	EmployeeCode string            `json:"employee_code"`
	EmployeeName string            `json:"employee_name"`
	TotalHours   float64           `json:"total_hours"`
	Products     []ProductResponse `json:"products"`
}

type PodContributionsResponse struct {
	PodID      string            `json:"pod_id"`
	PodName    string            `json:"pod_name"`
	Month      string            `json:"month"`
	TotalHours float64           `json:"total_hours"`
	Products   []ProductResponse `json:"products"`
	Employees  []EmployeeInPod   `json:"employees"`
}

// ========== EMPLOYEE ==========

// FeatureContribution is the hours an employee logged against one feature or line item.
type FeatureContribution struct {
	FeatureName string  `json:"feature_name"`
	ProductName string  `json:"product_name"`
	Hours       float64 `json:"hours"`
	Percent     float64 `json:"percent"`
}

type EmployeeContributionsResponse struct {
	EmployeeID   string                `json:"employee_id"`
	EmployeeCode string                `json:"employee_code"`
	EmployeeName string                `json:"employee_name"`
	Month        string                `json:"month"`
	TotalHours   float64               `json:"total_hours"`
	Products     []ProductResponse     `json:"products"`
	Features     []FeatureContribution `json:"features"`
}
