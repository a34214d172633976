package dashboard

import (
	"sort"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/contribution"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/shopspring/decimal"
)

const (
	hoursPlaces   = 2
	percentPlaces = 1
)

var hundred = decimal.NewFromInt(100)

// Summary is the per-product total of a set of records.
type Summary struct {
	Total     decimal.Decimal
	ByProduct map[product.Product]decimal.Decimal
}

func Summarize(records []contribution.ScopedRecord) Summary {
	s := Summary{ByProduct: make(map[product.Product]decimal.Decimal, len(product.All))}
	for _, r := range records {
		s.ByProduct[r.Product] = s.ByProduct[r.Product].Add(r.Hours)
		s.Total = s.Total.Add(r.Hours)
	}
	return s
}

// Percent is part as a share of total, 0 when total is 0.
func Percent(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(total).Round(percentPlaces).InexactFloat64()
}

func Hours(h decimal.Decimal) float64 {
	return h.Round(hoursPlaces).InexactFloat64()
}

// Products lists products with hours in display order.
func (s Summary) Products() []dashboard.ProductResponse {
	products := make([]dashboard.ProductResponse, 0, len(product.All))
	for i, p := range product.All {
		hours := s.ByProduct[p]
		if !hours.IsPositive() {
			continue
		}
		products = append(products, dashboard.ProductResponse{
			ProductID:   i + 1,
			ProductName: string(p),
			Hours:       Hours(hours),
			Percent:     Percent(hours, s.Total),
		})
	}
	return products
}

// Group is one child scope of a rollup.
type Group struct {
	ID      string
	Name    string
	Parent  string // name of the enclosing scope, when the caller tracks one
	Records []contribution.ScopedRecord
	Summary Summary
}

// GroupBy splits records by key in first-seen order. Groups without hours are dropped.
func GroupBy(records []contribution.ScopedRecord, key func(contribution.ScopedRecord) (id, name, parent string)) []Group {
	var groups []Group
	position := make(map[string]int)

	for _, r := range records {
		id, name, parent := key(r)
		i, ok := position[id]
		if !ok {
			i = len(groups)
			position[id] = i
			groups = append(groups, Group{ID: id, Name: name, Parent: parent})
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	kept := groups[:0]
	for _, g := range groups {
		g.Summary = Summarize(g.Records)
		if g.Summary.Total.IsPositive() {
			kept = append(kept, g)
		}
	}
	return kept
}

// TopN returns up to n groups by total hours, largest first. Ties keep input order.
func TopN(groups []Group, n int) []Group {
	sorted := make([]Group, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Summary.Total.GreaterThan(sorted[j].Summary.Total)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func byDepartment(r contribution.ScopedRecord) (string, string, string) {
	return r.DepartmentID, r.DepartmentName, ""
}

func byPod(r contribution.ScopedRecord) (string, string, string) {
	return r.PodID, r.PodName, r.DepartmentName
}

func byEmployee(r contribution.ScopedRecord) (string, string, string) {
	return r.EmployeeID, r.EmployeeName, r.EmployeeCode
}

func byFeature(r contribution.ScopedRecord) (string, string, string) {
	return string(r.Product) + "\x00" + r.FeatureOrDescription, r.FeatureOrDescription, string(r.Product)
}

// ========== ROLLUPS ==========

func BuildOrgDashboard(month string, records []contribution.ScopedRecord, topN int) *dashboard.OrgDashboardResponse {
	total := Summarize(records)
	departments := GroupBy(records, byDepartment)
	pods := GroupBy(records, byPod)

	resp := &dashboard.OrgDashboardResponse{
		Month:               month,
		TotalHours:          Hours(total.Total),
		Products:            total.Products(),
		DepartmentBreakdown: make([]dashboard.DepartmentBreakdown, 0, len(departments)),
		TopDepartments:      []dashboard.TopDepartment{},
		TopPods:             []dashboard.TopPod{},
	}

	for _, g := range departments {
		resp.DepartmentBreakdown = append(resp.DepartmentBreakdown, dashboard.DepartmentBreakdown{
			DepartmentID:   g.ID,
			DepartmentName: g.Name,
			TotalHours:     Hours(g.Summary.Total),
			Products:       g.Summary.Products(),
		})
	}
	for _, g := range TopN(departments, topN) {
		resp.TopDepartments = append(resp.TopDepartments, dashboard.TopDepartment{
			DepartmentID:   g.ID,
			DepartmentName: g.Name,
			Hours:          Hours(g.Summary.Total),
		})
	}
	for _, g := range TopN(pods, topN) {
		resp.TopPods = append(resp.TopPods, dashboard.TopPod{
			PodID:          g.ID,
			PodName:        g.Name,
			Hours:          Hours(g.Summary.Total),
			DepartmentName: g.Parent,
		})
	}
	return resp
}

func BuildDepartmentDashboard(departmentID, departmentName, month string, records []contribution.ScopedRecord) *dashboard.DepartmentDashboardResponse {
	total := Summarize(records)
	pods := GroupBy(records, byPod)

	resp := &dashboard.DepartmentDashboardResponse{
		DepartmentID:        departmentID,
		DepartmentName:      departmentName,
		Month:               month,
		TotalHours:          Hours(total.Total),
		Pods:                make([]dashboard.PodInDepartment, 0, len(pods)),
		ProductDistribution: total.Products(),
	}
	for _, g := range pods {
		resp.Pods = append(resp.Pods, dashboard.PodInDepartment{
			PodID:      g.ID,
			PodName:    g.Name,
			TotalHours: Hours(g.Summary.Total),
			Products:   g.Summary.Products(),
		})
	}
	return resp
}

func BuildPodContributions(podID, podName, month string, records []contribution.ScopedRecord) *dashboard.PodContributionsResponse {
	total := Summarize(records)
	employees := GroupBy(records, byEmployee)

	resp := &dashboard.PodContributionsResponse{
		PodID:      podID,
		PodName:    podName,
		Month:      month,
		TotalHours: Hours(total.Total),
		Products:   total.Products(),
		Employees:  make([]dashboard.EmployeeInPod, 0, len(employees)),
	}
	for _, g := range employees {
		resp.Employees = append(resp.Employees, dashboard.EmployeeInPod{
			EmployeeID:   g.ID,
			EmployeeCode: g.Parent,
			EmployeeName: g.Name,
			TotalHours:   Hours(g.Summary.Total),
			Products:     g.Summary.Products(),
		})
	}
	return resp
}

func BuildEmployeeContributions(employeeID, employeeCode, employeeName, month string, records []contribution.ScopedRecord) *dashboard.EmployeeContributionsResponse {
	total := Summarize(records)
	features := GroupBy(records, byFeature)

	resp := &dashboard.EmployeeContributionsResponse{
		EmployeeID:   employeeID,
		EmployeeCode: employeeCode,
		EmployeeName: employeeName,
		Month:        month,
		TotalHours:   Hours(total.Total),
		Products:     total.Products(),
		Features:     make([]dashboard.FeatureContribution, 0, len(features)),
	}
	for _, g := range features {
		resp.Features = append(resp.Features, dashboard.FeatureContribution{
			FeatureName: g.Name,
			ProductName: g.Parent,
			Hours:       Hours(g.Summary.Total),
			Percent:     Percent(g.Summary.Total, total.Total),
		})
	}
	return resp
}
