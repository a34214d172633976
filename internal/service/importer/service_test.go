package importer

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/contribution"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/importer"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/organization"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/contribution-backend-go/internal/repository/memory"
	allocationsvc "github.com/cmlabs-hris/contribution-backend-go/internal/service/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/service/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMonth = "2024-05"

var admin = user.Identity{EmployeeID: "admin", Role: user.RoleAdmin}

type recordingCache struct {
	cache.RollupCache
	mu         sync.Mutex
	months     []string
	flushedAll int
}

func (c *recordingCache) Invalidate(ctx context.Context, month string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.months = append(c.months, month)
	return nil
}

func (c *recordingCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushedAll++
	return nil
}

func newTestImportService(t *testing.T) (*memory.Store, *recordingCache, importer.ImportService) {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir(), "/files")
	require.NoError(t, err)

	store := memory.NewStore()
	rollups := &recordingCache{RollupCache: cache.NewNop()}
	allocations := allocationsvc.NewAllocationService(store, store, store, file.NewFileService(local), rollups)
	return store, rollups, NewImportService(store, allocations, store, store, rollups)
}

func csvUpload(name, content string) importer.Upload {
	return importer.Upload{Filename: name, File: strings.NewReader(content)}
}

func TestImportEmployees(t *testing.T) {
	ctx := context.Background()
	store, rollups, svc := newTestImportService(t)

	resp, err := svc.ImportEmployees(ctx, admin, importer.ImportEmployeesRequest{Upload: csvUpload("employees.csv",
		"Employee Code,Name,Email,Department,Pod,Role,Is Pod Lead\n"+
			"L001,Lina,lina@example.com,Engineering,Alpha,PodLead,yes\n"+
			"E001,Ana,,Engineering,Alpha,Employee,\n"+
			"E002,Budi,bad-email,Engineering,Beta,Employee,\n"+
			",Nameless,,Engineering,Alpha,Employee,\n"+
			"H001,Hana,hana@example.com,Engineering,Alpha,hod,\n",
	)})
	require.NoError(t, err)

	assert.Equal(t, importer.EmployeeImportSummary{
		TotalRows:          5,
		CreatedEmployees:   3,
		CreatedDepartments: 1,
		CreatedPods:        1,
		PodLeadsAssigned:   1,
		ErrorCount:         2,
	}, resp.Summary)
	assert.True(t, resp.HasErrors)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, importer.RowError{Row: 4, Field: "email", Message: "is not a valid email"}, resp.Errors[0])
	assert.Equal(t, importer.RowError{Row: 5, Field: "employee_code", Message: "is required"}, resp.Errors[1])
	assert.Equal(t, 1, rollups.flushedAll)

	lead, err := store.GetEmployeeByCode(ctx, "L001")
	require.NoError(t, err)
	assert.Equal(t, user.RolePodLead, lead.Role)
	pod, err := store.GetPodByID(ctx, lead.PodID)
	require.NoError(t, err)
	require.True(t, pod.HasLead())
	assert.Equal(t, lead.ID, *pod.PodLeadEmployeeID)

	hod, err := store.GetEmployeeByCode(ctx, "H001")
	require.NoError(t, err)
	assert.Equal(t, user.RoleHOD, hod.Role)

	again, err := svc.ImportEmployees(ctx, admin, importer.ImportEmployeesRequest{Upload: csvUpload("employees.csv",
		"employee_code,name,department,pod,role\n"+
			"E001,Ana Putri,Engineering,Alpha,Employee\n",
	)})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Summary.CreatedEmployees)
	assert.Equal(t, 1, again.Summary.UpdatedEmployees)
	assert.Equal(t, 0, again.Summary.CreatedPods)
	assert.Empty(t, again.Errors)
	assert.Equal(t, 2, rollups.flushedAll)

	ana, err := store.GetEmployeeByCode(ctx, "E001")
	require.NoError(t, err)
	assert.Equal(t, "Ana Putri", ana.Name)
}

func TestImportEmployees_FlaggedLeadBecomesPodLead(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newTestImportService(t)

	_, err := svc.ImportEmployees(ctx, admin, importer.ImportEmployeesRequest{Upload: csvUpload("employees.csv",
		"employee_code,name,department,pod,role,is_pod_lead\n"+
			"L002,Lukas,Design,Gamma,,true\n",
	)})
	require.NoError(t, err)

	lead, err := store.GetEmployeeByCode(ctx, "L002")
	require.NoError(t, err)
	assert.Equal(t, user.RolePodLead, lead.Role)
}

func TestImportEmployees_Rejections(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newTestImportService(t)

	_, err := svc.ImportEmployees(ctx, user.Identity{EmployeeID: "x", Role: user.RoleCEO}, importer.ImportEmployeesRequest{Upload: csvUpload("e.csv", "")})
	assert.ErrorIs(t, err, user.ErrForbidden)

	_, err = svc.ImportEmployees(ctx, admin, importer.ImportEmployeesRequest{})
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs.ToMap(), "file")

	_, err = svc.ImportEmployees(ctx, admin, importer.ImportEmployeesRequest{Upload: csvUpload("e.pdf", "x")})
	assert.ErrorIs(t, err, spreadsheet.ErrUnsupportedFormat)

	_, err = svc.ImportEmployees(ctx, admin, importer.ImportEmployeesRequest{Upload: csvUpload("e.csv", "employee_code,name\nE1,A\n")})
	assert.ErrorIs(t, err, spreadsheet.ErrMissingColumns)
}

type orgFixture struct {
	alpha organization.Pod
	beta  organization.Pod
	ana   organization.Employee
	budi  organization.Employee
}

func seedOrg(store *memory.Store) orgFixture {
	dept := store.AddDepartment("Engineering")
	alpha := store.AddPod("Alpha", dept.ID)
	beta := store.AddPod("Beta", dept.ID)
	store.AddEmployee("L001", "Lina", user.RolePodLead, alpha.ID)
	return orgFixture{
		alpha: alpha,
		beta:  beta,
		ana:   store.AddEmployee("E001", "Ana", user.RoleEmployee, alpha.ID),
		budi:  store.AddEmployee("E002", "Budi", user.RoleEmployee, beta.ID),
	}
}

const initialCSV = "employee_code,product,product_description,baseline_hours,features_text\n" +
	"E001,Academy,Curriculum,160,Assessments\n" +
	"E001,NIAT,Exams,40,\n" +
	"E002,Intensive,Bootcamp,100,\n" +
	"E404,Academy,X,10,\n" +
	"E001,Bootcamp,Y,10,\n" +
	"E001,Academy,,10,\n" +
	"E001,Academy,Z,-5,\n"

func TestUploadInitial(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newTestImportService(t)
	o := seedOrg(store)

	resp, err := svc.UploadInitial(ctx, admin, importer.InitialUploadRequest{Upload: csvUpload("initial.csv", initialCSV), Month: testMonth})
	require.NoError(t, err)

	assert.Equal(t, importer.InitialUploadSummary{
		GeneratedSheets:    1,
		CreatedAllocations: 2,
		Month:              testMonth,
		TotalEmployees:     2,
		TotalPodsInFile:    2,
		PodsWithSheets:     1,
		PodsSkipped:        1,
		TeamsProcessed:     1,
	}, resp.Summary)

	require.Len(t, resp.Teams, 1)
	team := resp.Teams[0]
	assert.Equal(t, "Engineering", team.Department)
	require.Len(t, team.Pods, 1)
	assert.Equal(t, o.alpha.ID, team.Pods[0].PodID)
	assert.Equal(t, "L001", team.Pods[0].PodLeadCode)
	assert.NotEmpty(t, team.Pods[0].DownloadURL)
	assert.Equal(t, []importer.SkippedPod{{PodName: "Beta", EmployeeCount: 1, Reason: allocation.ErrPodHasNoLead.Error()}}, team.SkippedPods)

	fields := map[int]string{}
	for _, e := range resp.Errors {
		fields[e.Row] = e.Field
	}
	assert.Equal(t, map[int]string{5: "employee_code", 6: "product", 7: "product_description", 8: "baseline_hours"}, fields)
	assert.True(t, resp.HasErrors)

	rows, err := store.ListByPodMonth(ctx, o.alpha.ID, testMonth)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, a := range rows {
		assert.Equal(t, allocation.StatusPending, a.Status)
		assert.Equal(t, o.ana.ID, a.EmployeeID)
	}
	assert.Equal(t, "Curriculum", rows[0].ProductDescription)
	assert.Equal(t, "160", rows[0].BaselineHours.String())
	require.NotNil(t, rows[0].FeaturesText)
	assert.Equal(t, "Assessments", *rows[0].FeaturesText)
	assert.Nil(t, rows[1].FeaturesText)

	skipped, err := store.ListByPodMonth(ctx, o.beta.ID, testMonth)
	require.NoError(t, err)
	assert.Empty(t, skipped)

	again, err := svc.UploadInitial(ctx, admin, importer.InitialUploadRequest{Upload: csvUpload("initial.csv", initialCSV), Month: testMonth})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Summary.CreatedAllocations)
	assert.Equal(t, 1, again.Summary.GeneratedSheets)
}

func TestUploadInitial_XLSX(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newTestImportService(t)
	o := seedOrg(store)

	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteXLSX(&buf, "Allocations",
		[]string{"Employee Code", "Product", "Product Description", "Baseline Hours"},
		[][]any{{"E001", "intensive", "Live classes", 120.5}},
	))

	resp, err := svc.UploadInitial(ctx, admin, importer.InitialUploadRequest{
		Upload: importer.Upload{Filename: "initial.xlsx", File: &buf},
		Month:  testMonth,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Summary.CreatedAllocations)
	assert.Empty(t, resp.Errors)

	rows, err := store.ListByPodMonth(ctx, o.alpha.ID, testMonth)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, product.Intensive, rows[0].Product)
	assert.Equal(t, "120.5", rows[0].BaselineHours.String())
}

func TestUploadInitial_RequiresMonth(t *testing.T) {
	_, _, svc := newTestImportService(t)

	_, err := svc.UploadInitial(context.Background(), admin, importer.InitialUploadRequest{Upload: csvUpload("initial.csv", initialCSV), Month: "May"})
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "must be in YYYY-MM format", errs.ToMap()["month"])
}

func featureRecords(store *memory.Store) []contribution.Record {
	var out []contribution.Record
	for _, r := range store.Records() {
		if r.Source == contribution.SourceFeatureUpload {
			out = append(out, r)
		}
	}
	return out
}

func TestUploadFeatures(t *testing.T) {
	ctx := context.Background()
	store, rollups, svc := newTestImportService(t)
	o := seedOrg(store)

	resp, err := svc.UploadFeatures(ctx, admin, importer.FeatureUploadRequest{Upload: csvUpload("features.csv",
		"employee_code,product,feature,hours,description\n"+
			"E001,Academy,Assessments,10.004,Quizzes\n"+
			"E001,academy,assessments,5,\n"+
			"E002,NIAT,Proctoring,7.5,\n"+
			"E001,Intensive,,3,\n",
	), Month: testMonth})
	require.NoError(t, err)

	assert.Equal(t, importer.FeatureUploadSummary{
		TotalRows:      4,
		Features:       2,
		CreatedRecords: 2,
		Month:          testMonth,
		ErrorCount:     1,
	}, resp.Summary)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, importer.RowError{Row: 5, Field: "feature", Message: "is required"}, resp.Errors[0])
	assert.Equal(t, []string{testMonth}, rollups.months)

	records := featureRecords(store)
	require.Len(t, records, 2)
	assert.Equal(t, o.ana.ID, records[0].EmployeeID)
	assert.Equal(t, "Assessments", records[0].FeatureOrDescription)
	assert.Equal(t, "15", records[0].Hours.String())
	assert.Equal(t, o.budi.ID, records[1].EmployeeID)
	assert.Equal(t, "7.5", records[1].Hours.String())

	features, err := store.List(ctx, product.FeatureFilter{})
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "Assessments", features[0].Name)
	require.NotNil(t, features[0].Description)
	assert.Equal(t, "Quizzes", *features[0].Description)

	_, err = svc.UploadFeatures(ctx, admin, importer.FeatureUploadRequest{Upload: csvUpload("features.csv",
		"employee_code,product,feature,hours\n"+
			"E001,Academy,assessments,8\n",
	), Month: testMonth})
	require.NoError(t, err)

	records = featureRecords(store)
	require.Len(t, records, 2)
	assert.Equal(t, "Assessments", records[0].FeatureOrDescription)
	assert.Equal(t, "8", records[0].Hours.String())
	assert.Equal(t, []string{testMonth, testMonth}, rollups.months)
}

func TestUploadFeatures_Forbidden(t *testing.T) {
	_, _, svc := newTestImportService(t)
	lead := user.Identity{EmployeeID: "l", Role: user.RolePodLead}

	_, err := svc.UploadFeatures(context.Background(), lead, importer.FeatureUploadRequest{Upload: csvUpload("f.csv", ""), Month: testMonth})
	assert.ErrorIs(t, err, user.ErrForbidden)

	_, err = svc.UploadInitial(context.Background(), lead, importer.InitialUploadRequest{Upload: csvUpload("f.csv", ""), Month: testMonth})
	assert.ErrorIs(t, err, user.ErrForbidden)
}
