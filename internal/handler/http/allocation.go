package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/contribution-backend-go/internal/handler/http/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AllocationHandler interface {
	// Pod lead workflow
	GetPodAllocations(w http.ResponseWriter, r *http.Request)
	SubmitAllocations(w http.ResponseWriter, r *http.Request)
	GetAllocationSheet(w http.ResponseWriter, r *http.Request)
	DownloadAllocationSheet(w http.ResponseWriter, r *http.Request)

	// Admin
	ProcessAllocations(w http.ResponseWriter, r *http.Request)
	GenerateAllSheets(w http.ResponseWriter, r *http.Request)
}

type allocationHandlerImpl struct {
	allocationService allocation.AllocationService
}

func NewAllocationHandler(allocationService allocation.AllocationService) AllocationHandler {
	return &allocationHandlerImpl{allocationService: allocationService}
}

// GetPodAllocations handles GET /pod-leads/{id}/allocations?month=
func (h *allocationHandlerImpl) GetPodAllocations(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.allocationService.GetPodAllocations(r.Context(), middleware.IdentityFromContext(r.Context()), podID, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// SubmitAllocations handles POST /pod-leads/{id}/allocations/submit
func (h *allocationHandlerImpl) SubmitAllocations(w http.ResponseWriter, r *http.Request) {
	podID, err := idParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req allocation.SubmitAllocationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SubmitAllocations decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.PodID = podID

	result, err := h.allocationService.SubmitAllocations(r.Context(), middleware.IdentityFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.HasErrors {
		response.SuccessWithMessage(w, "Allocations submitted with errors", result)
		return
	}
	response.SuccessWithMessage(w, "Allocations submitted", result)
}

// ProcessAllocations handles POST /admin/allocations/{id}/process?month=&output_format=
func (h *allocationHandlerImpl) ProcessAllocations(w http.ResponseWriter, r *http.Request) {
	podID, err := idParam(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	req := allocation.ProcessAllocationsRequest{
		PodID:        podID,
		Month:        r.URL.Query().Get("month"),
		OutputFormat: allocation.OutputFormat(r.URL.Query().Get("output_format")),
	}

	result, err := h.allocationService.ProcessAllocations(r.Context(), middleware.IdentityFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, result.Message, result)
}

// GetAllocationSheet handles GET /pod-leads/{id}/allocation-sheet?month=
func (h *allocationHandlerImpl) GetAllocationSheet(w http.ResponseWriter, r *http.Request) {
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

	sheet, err := h.allocationService.GetAllocationSheet(r.Context(), middleware.IdentityFromContext(r.Context()), podID, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, sheet)
}

// DownloadAllocationSheet handles GET /pod-leads/{id}/allocation-sheet/download?month=
func (h *allocationHandlerImpl) DownloadAllocationSheet(w http.ResponseWriter, r *http.Request) {
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

	body, filename, err := h.allocationService.DownloadAllocationSheet(r.Context(), middleware.IdentityFromContext(r.Context()), podID, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer body.Close()

	response.Attachment(w, filename, xlsxContentType, body)
}

// GenerateAllSheets handles POST /admin/sheets/generate-all?month=
func (h *allocationHandlerImpl) GenerateAllSheets(w http.ResponseWriter, r *http.Request) {
	month, err := monthQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	sheets, err := h.allocationService.GenerateSheets(r.Context(), month, nil)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Allocation sheets generated", allocation.GenerateSheetsResponse{
		Summary: allocation.GenerateSheetsSummary{GeneratedSheets: len(sheets), Month: month},
		Sheets:  sheets,
	})
}
