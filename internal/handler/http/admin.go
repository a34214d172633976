package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/importer"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/contribution-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/contribution-backend-go/internal/handler/http/response"
)

// maxUploadSize bounds multipart uploads held in memory.
const maxUploadSize = 32 << 20

type AdminHandler interface {
	// Uploads
	ImportEmployees(w http.ResponseWriter, r *http.Request)
	UploadInitial(w http.ResponseWriter, r *http.Request)
	UploadFeatures(w http.ResponseWriter, r *http.Request)

	// Final master list
	GenerateMasterList(w http.ResponseWriter, r *http.Request)
	GetMasterList(w http.ResponseWriter, r *http.Request)
}

type adminHandlerImpl struct {
	importService importer.ImportService
	reportService report.ReportService
}

func NewAdminHandler(importService importer.ImportService, reportService report.ReportService) AdminHandler {
	return &adminHandlerImpl{
		importService: importService,
		reportService: reportService,
	}
}

// readUpload parses the multipart form. A missing file yields an empty
// Upload; the service reports it as a validation error. The returned
// func releases the file.
func readUpload(r *http.Request) (importer.Upload, func(), error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return importer.Upload{}, func() {}, err
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return importer.Upload{}, func() {}, nil
		}
		return importer.Upload{}, func() {}, err
	}
	return importer.Upload{Filename: header.Filename, File: f}, func() { f.Close() }, nil
}

// ImportEmployees handles POST /admin/employees/import
func (h *adminHandlerImpl) ImportEmployees(w http.ResponseWriter, r *http.Request) {
	upload, release, err := readUpload(r)
	if err != nil {
		slog.Error("ImportEmployees form error", "error", err)
		response.BadRequest(w, "Invalid multipart form", nil)
		return
	}
	defer release()

	result, err := h.importService.ImportEmployees(r.Context(), middleware.IdentityFromContext(r.Context()), importer.ImportEmployeesRequest{Upload: upload})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Employees imported", result)
}

// UploadInitial handles POST /automation/upload-initial-xlsx
func (h *adminHandlerImpl) UploadInitial(w http.ResponseWriter, r *http.Request) {
	upload, release, err := readUpload(r)
	if err != nil {
		slog.Error("UploadInitial form error", "error", err)
		response.BadRequest(w, "Invalid multipart form", nil)
		return
	}
	defer release()

	req := importer.InitialUploadRequest{
		Upload: upload,
		Month:  strings.TrimSpace(r.FormValue("month")),
	}

	result, err := h.importService.UploadInitial(r.Context(), middleware.IdentityFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Initial allocations uploaded", result)
}

// UploadFeatures handles POST /admin/features/upload
func (h *adminHandlerImpl) UploadFeatures(w http.ResponseWriter, r *http.Request) {
	upload, release, err := readUpload(r)
	if err != nil {
		slog.Error("UploadFeatures form error", "error", err)
		response.BadRequest(w, "Invalid multipart form", nil)
		return
	}
	defer release()

	req := importer.FeatureUploadRequest{
		Upload: upload,
		Month:  strings.TrimSpace(r.FormValue("month")),
	}

	result, err := h.importService.UploadFeatures(r.Context(), middleware.IdentityFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Feature hours uploaded", result)
}

// GenerateMasterList handles POST /admin/final-master-list/generate?month=
func (h *adminHandlerImpl) GenerateMasterList(w http.ResponseWriter, r *http.Request) {
	req := report.MasterListRequest{Month: r.URL.Query().Get("month")}

	result, err := h.reportService.GenerateMasterList(r.Context(), middleware.IdentityFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Final master list generated", result)
}

// GetMasterList handles GET /admin/final-master-list?month=
func (h *adminHandlerImpl) GetMasterList(w http.ResponseWriter, r *http.Request) {
	req := report.MasterListRequest{Month: r.URL.Query().Get("month")}

	result, err := h.reportService.GetMasterList(r.Context(), middleware.IdentityFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
