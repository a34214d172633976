package http

import (
	"net/http"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/contribution-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/contribution-backend-go/internal/handler/http/response"
)

type DashboardHandler interface {
	// GetOrgDashboard returns the organization-wide rollup
	GetOrgDashboard(w http.ResponseWriter, r *http.Request)
	// GetDepartmentDashboard returns one department's pods and product split
	GetDepartmentDashboard(w http.ResponseWriter, r *http.Request)
	// GetPodContributions returns a pod's employees and product split
	GetPodContributions(w http.ResponseWriter, r *http.Request)
	// GetEmployeeContributions returns an employee's products and features
	GetEmployeeContributions(w http.ResponseWriter, r *http.Request)
}

type dashboardHandlerImpl struct {
	dashboardService dashboard.DashboardService
}

func NewDashboardHandler(dashboardService dashboard.DashboardService) DashboardHandler {
	return &dashboardHandlerImpl{dashboardService: dashboardService}
}

// GetOrgDashboard handles GET /dashboards/org?month=
func (h *dashboardHandlerImpl) GetOrgDashboard(w http.ResponseWriter, r *http.Request) {
	month, err := monthQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.dashboardService.GetOrgDashboard(r.Context(), middleware.IdentityFromContext(r.Context()), month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetDepartmentDashboard handles GET /dashboards/department/{id}?month=
func (h *dashboardHandlerImpl) GetDepartmentDashboard(w http.ResponseWriter, r *http.Request) {
	departmentID, err := idParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	month, err := monthQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.dashboardService.GetDepartmentDashboard(r.Context(), middleware.IdentityFromContext(r.Context()), departmentID, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetPodContributions handles GET /pods/{id}/contributions?month=
func (h *dashboardHandlerImpl) GetPodContributions(w http.ResponseWriter, r *http.Request) {
	podID, err := idParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	month, err := monthQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.dashboardService.GetPodContributions(r.Context(), middleware.IdentityFromContext(r.Context()), podID, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetEmployeeContributions handles GET /employees/{id}/contributions?month=
func (h *dashboardHandlerImpl) GetEmployeeContributions(w http.ResponseWriter, r *http.Request) {
	employeeID, err := idParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	month, err := monthQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.dashboardService.GetEmployeeContributions(r.Context(), middleware.IdentityFromContext(r.Context()), employeeID, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
