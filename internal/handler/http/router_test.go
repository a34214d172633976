package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/organization"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/contribution-backend-go/internal/repository/memory"
	allocationService "github.com/cmlabs-hris/contribution-backend-go/internal/service/allocation"
	authService "github.com/cmlabs-hris/contribution-backend-go/internal/service/auth"
	dashboardService "github.com/cmlabs-hris/contribution-backend-go/internal/service/dashboard"
	"github.com/cmlabs-hris/contribution-backend-go/internal/service/file"
	importService "github.com/cmlabs-hris/contribution-backend-go/internal/service/importer"
	productService "github.com/cmlabs-hris/contribution-backend-go/internal/service/product"
	reportService "github.com/cmlabs-hris/contribution-backend-go/internal/service/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret = "test-secret-key-for-jwt"
	testMonth         = "2024-05"
)

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Error   *response.ErrorDetail `json:"error"`
}

type testServer struct {
	t           *testing.T
	handler     http.Handler
	store       *memory.Store
	jwt         *jwt.JWTService
	allocations allocation.AllocationService

	pod   organization.Pod
	lead  organization.Employee
	emp   organization.Employee
	ceo   organization.Employee
	admin organization.Employee
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	dept := store.AddDepartment("Engineering")
	pod := store.AddPod("Platform", dept.ID)
	hq := store.AddPod("Leadership", dept.ID)

	files, err := storage.NewLocalStorage(t.TempDir(), "/files")
	require.NoError(t, err)
	fileSvc := file.NewFileService(files)
	rollups := cache.NewNop()

	jwtSvc := jwt.NewJWTService(handlerTestSecret, time.Hour, 24*time.Hour)
	allocSvc := allocationService.NewAllocationService(store, store, store, fileSvc, rollups)

	router := NewRouter(
		RouterConfig{Env: "test", AllowedOrigins: []string{"http://localhost:5173"}, FilesDir: files.BasePath()},
		jwtSvc,
		NewAuthHandler(authService.NewAuthService(store, jwtSvc)),
		NewDashboardHandler(dashboardService.NewDashboardService(store, store, rollups, 5)),
		NewAllocationHandler(allocSvc),
		NewAdminHandler(
			importService.NewImportService(store, allocSvc, store, store, rollups),
			reportService.NewReportService(store, store, fileSvc),
		),
		NewEntityHandler(productService.NewProductService(store)),
	)

	return &testServer{
		t:           t,
		handler:     router,
		store:       store,
		jwt:         jwtSvc,
		allocations: allocSvc,
		pod:         pod,
		lead:        store.AddEmployee("L001", "Lena Lead", user.RolePodLead, pod.ID),
		emp:         store.AddEmployee("E001", "Eli Engineer", user.RoleEmployee, pod.ID),
		ceo:         store.AddEmployee("C001", "Cara Chief", user.RoleCEO, hq.ID),
		admin:       store.AddEmployee("A001", "Ada Admin", user.RoleAdmin, hq.ID),
	}
}

func (s *testServer) token(e organization.Employee) string {
	token, _, err := s.jwt.GenerateAccessToken(e.Identity())
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(req *http.Request, as *organization.Employee) (*httptest.ResponseRecorder, envelope) {
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(*as))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var body envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func (s *testServer) get(path string, as *organization.Employee) (*httptest.ResponseRecorder, envelope) {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil), as)
}

func (s *testServer) postJSON(path string, payload any, as *organization.Employee) (*httptest.ResponseRecorder, envelope) {
	raw, err := json.Marshal(payload)
	require.NoError(s.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, as)
}

func (s *testServer) seed(desc string, baseline int64) {
	_, err := s.allocations.SeedPending(context.Background(), []allocation.SeedRow{{
		EmployeeID:         s.emp.ID,
		PodID:              s.pod.ID,
		Product:            "Academy",
		ProductDescription: desc,
		BaselineHours:      decimal.NewFromInt(baseline),
		Month:              testMonth,
	}})
	require.NoError(s.t, err)
}

func TestAuth_LoginAndMe(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.postJSON("/api/v1/auth/token", map[string]string{"employee_code": "l001"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &tokens))
	require.NotEmpty(t, tokens.Access)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.Access)
	rec, body = s.do(req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile struct {
		EmployeeCode string `json:"employee_code"`
		Role         string `json:"role"`
		PodName      string `json:"pod_name"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &profile))
	assert.Equal(t, "L001", profile.EmployeeCode)
	assert.Equal(t, "PodLead", profile.Role)
	assert.Equal(t, "Platform", profile.PodName)

	// A refresh token is not accepted as an access token
	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.Refresh)
	rec, _ = s.do(req, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = s.postJSON("/api/v1/auth/token/refresh", map[string]string{"refresh": tokens.Refresh}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body.Data), "access")
}

func TestAuth_Rejections(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.postJSON("/api/v1/auth/token", map[string]string{"employee_code": "NOPE1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)

	rec, body = s.postJSON("/api/v1/auth/token", map[string]string{"employee_code": ""}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body.Error.Details, "employee_code")

	rec, _ = s.get("/api/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboards_AccessAndValidation(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.get("/api/v1/dashboards/org?month="+testMonth, &s.ceo)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var org struct {
		TotalHours float64 `json:"total_hours"`
		Products   []any   `json:"products"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &org))
	assert.Zero(t, org.TotalHours)
	assert.Empty(t, org.Products)

	rec, body = s.get("/api/v1/dashboards/org?month="+testMonth, &s.emp)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", body.Error.Code)

	rec, body = s.get("/api/v1/dashboards/org?month=2024-5", &s.ceo)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "must be in YYYY-MM format", body.Error.Details["month"])

	rec, body = s.get("/api/v1/pods/not-a-uuid/contributions?month="+testMonth, &s.ceo)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body.Error.Details, "id")

	rec, _ = s.get("/api/v1/pods/123e4567-e89b-12d3-a456-426614174000/contributions?month="+testMonth, &s.ceo)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Employees see themselves only
	rec, _ = s.get("/api/v1/employees/"+s.emp.ID+"/contributions?month="+testMonth, &s.emp)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.get("/api/v1/employees/"+s.lead.ID+"/contributions?month="+testMonth, &s.emp)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAllocations_SubmitProcessAndRollup(t *testing.T) {
	s := newTestServer(t)
	s.seed("Curriculum", 100)

	base := "/api/v1/pod-leads/" + s.pod.ID
	rec, body := s.get(base+"/allocations?month="+testMonth, &s.lead)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rows []allocation.AllocationResponse
	require.NoError(t, json.Unmarshal(body.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, allocation.StatusPending, rows[0].Status)

	over := map[string]any{
		"month": testMonth,
		"allocations": []map[string]any{{
			"employee_id": s.emp.ID, "product": "Academy", "product_description": "Curriculum",
			"academy_percent": 70, "intensive_percent": 40,
		}},
	}
	rec, body = s.postJSON(base+"/allocations/submit", over, &s.lead)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body.Error.Details, "allocations[0]")

	valid := map[string]any{
		"month": testMonth,
		"allocations": []map[string]any{{
			"employee_id": s.emp.ID, "product": "Academy", "product_description": "Curriculum",
			"academy_percent": 60, "intensive_percent": "40",
		}},
	}
	rec, body = s.postJSON(base+"/allocations/submit", valid, &s.lead)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var submitted allocation.SubmitAllocationsResponse
	require.NoError(t, json.Unmarshal(body.Data, &submitted))
	assert.Equal(t, 1, submitted.Summary.UpdatedAllocations)
	assert.False(t, submitted.HasErrors)

	// Pod leads cannot process, the CEO can
	processPath := "/api/v1/admin/allocations/" + s.pod.ID + "/process?month=" + testMonth
	rec, _ = s.do(httptest.NewRequest(http.MethodPost, processPath, nil), &s.lead)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = s.do(httptest.NewRequest(http.MethodPost, processPath, nil), &s.ceo)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var processed allocation.ProcessAllocationsResponse
	require.NoError(t, json.Unmarshal(body.Data, &processed))
	assert.Equal(t, 1, processed.ProcessedCount)
	assert.Equal(t, 2, processed.CreatedRecords)

	// Processed rows are terminal
	rec, body = s.postJSON(base+"/allocations/submit", valid, &s.lead)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body.Data, &submitted))
	require.Len(t, submitted.Errors, 1)
	assert.Equal(t, allocation.ItemErrorAlreadyProcessed, submitted.Errors[0].Code)

	rec, body = s.get("/api/v1/pods/"+s.pod.ID+"/contributions?month="+testMonth, &s.lead)
	require.Equal(t, http.StatusOK, rec.Code)
	var pod struct {
		TotalHours float64 `json:"total_hours"`
		Products   []struct {
			ProductName string  `json:"product_name"`
			Hours       float64 `json:"hours"`
			Percent     float64 `json:"percent"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &pod))
	assert.Equal(t, 100.0, pod.TotalHours)
	require.Len(t, pod.Products, 2)
	assert.Equal(t, "Academy", pod.Products[0].ProductName)
	assert.Equal(t, 60.0, pod.Products[0].Percent)
}

func TestAllocations_PodLeadLimitedToOwnPod(t *testing.T) {
	s := newTestServer(t)
	other := s.store.AddPod("Growth", s.pod.DepartmentID)

	rec, _ := s.get("/api/v1/pod-leads/"+other.ID+"/allocations?month="+testMonth, &s.lead)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.get("/api/v1/pod-leads/"+s.pod.ID+"/allocations?month="+testMonth, &s.emp)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin_ImportEmployeesAndMasterList(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "employees.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("employee_code,name,department,pod,role\nN001,Nia New,Design,Brand,Employee\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())
	payload := buf.Bytes()

	upload := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/employees/import", bytes.NewReader(payload))
		req.Header.Set("Content-Type", form.FormDataContentType())
		return req
	}

	rec, _ := s.do(upload(), &s.lead)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := s.do(upload(), &s.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(body.Data), `"created_employees":1`)

	rec, body = s.do(httptest.NewRequest(http.MethodPost, "/api/v1/admin/employees/import", nil), &s.admin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body.Error.Details, "file")

	rec, body = s.get("/api/v1/admin/final-master-list?month="+testMonth, &s.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body.Data), `"exists":false`)

	s.seed("Curriculum", 100)
	rec, _ = s.do(httptest.NewRequest(http.MethodPost, "/api/v1/admin/final-master-list/generate?month="+testMonth, nil), &s.admin)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdmin_ImportEmployeesRejectsUnparseableFiles(t *testing.T) {
	s := newTestServer(t)

	files := map[string]string{
		"employees.xlsx": "not a zip archive",
		"employees.csv":  "employee_code,name,department,pod\n\"N001,Nia,Design,Brand\n",
	}
	for name, content := range files {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		part, err := form.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, form.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/employees/import", &buf)
		req.Header.Set("Content-Type", form.FormDataContentType())
		rec, body := s.do(req, &s.admin)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, name)
		require.NotNil(t, body.Error, name)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code, name)
		assert.Contains(t, body.Error.Details, "file", name)
	}
}

func TestAllocationSheets_GenerateAndDownload(t *testing.T) {
	s := newTestServer(t)
	s.seed("Curriculum", 100)

	rec, body := s.do(httptest.NewRequest(http.MethodPost, "/api/v1/admin/sheets/generate-all?month="+testMonth, nil), &s.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var generated allocation.GenerateSheetsResponse
	require.NoError(t, json.Unmarshal(body.Data, &generated))
	require.Equal(t, 1, generated.Summary.GeneratedSheets)

	rec, _ = s.get("/api/v1/pod-leads/"+s.pod.ID+"/allocation-sheet/download?month="+testMonth, &s.lead)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec, _ = s.get(generated.Sheets[0].DownloadURL, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEntities(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.get("/api/v1/products", &s.emp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Academy"},{"id":2,"name":"Intensive"},{"id":3,"name":"NIAT"}]`, string(body.Data))

	rec, body = s.get("/api/v1/features?product=mars", &s.emp)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body.Error.Details, "product")

	for _, f := range []product.Feature{
		{Name: "Assessments", Product: product.Academy},
		{Name: "Proctoring", Product: product.NIAT},
	} {
		_, err := s.store.Upsert(context.Background(), f)
		require.NoError(t, err)
	}

	rec, body = s.get("/api/v1/features?product_id=3", &s.emp)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var features []product.FeatureResponse
	require.NoError(t, json.Unmarshal(body.Data, &features))
	require.Len(t, features, 1)
	assert.Equal(t, "Proctoring", features[0].Name)
	assert.Equal(t, 3, features[0].ProductID)

	for _, bad := range []string{"0", "4", "niat"} {
		rec, body = s.get("/api/v1/features?product_id="+bad, &s.emp)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, bad)
		assert.Contains(t, body.Error.Details, "product_id", bad)
	}
}
