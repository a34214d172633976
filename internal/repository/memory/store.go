// Package memory keeps every repository in process. It backs service
// tests and local runs without PostgreSQL; writes are not rolled back.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/allocation"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/contribution"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/organization"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/google/uuid"
)

type recordKey struct {
	employeeID string
	product    product.Product
	feature    string
	month      string
	source     contribution.Source
}

type allocationKey struct {
	key   allocation.Key
	month string
}

type Store struct {
	mu sync.RWMutex

	departments map[string]organization.Department
	pods        map[string]organization.Pod
	employees   map[string]organization.Employee
	features    map[string]product.Feature

	allocations   map[string]allocation.Allocation
	allocationSeq map[string]int
	allocationIdx map[allocationKey]string

	records   []contribution.Record
	recordIdx map[recordKey]int

	seq int

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	// FailAddHours makes AddHours fail, for exercising error paths.
	FailAddHours error
}

var (
	_ organization.OrganizationRepository = (*Store)(nil)
	_ allocation.AllocationRepository     = (*Store)(nil)
	_ contribution.ContributionRepository = (*Store)(nil)
	_ product.FeatureRepository           = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		departments:   make(map[string]organization.Department),
		pods:          make(map[string]organization.Pod),
		employees:     make(map[string]organization.Employee),
		features:      make(map[string]product.Feature),
		allocations:   make(map[string]allocation.Allocation),
		allocationSeq: make(map[string]int),
		allocationIdx: make(map[allocationKey]string),
		recordIdx:     make(map[recordKey]int),
		locks:         make(map[string]*sync.Mutex),
	}
}

func (s *Store) next() int {
	s.seq++
	return s.seq
}

// ========== SEEDING ==========

func (s *Store) AddDepartment(name string) organization.Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addDepartment(name)
}

func (s *Store) addDepartment(name string) organization.Department {
	now := time.Now()
	d := organization.Department{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	s.departments[d.ID] = d
	return d
}

func (s *Store) AddPod(name, departmentID string) organization.Pod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPod(name, departmentID)
}

func (s *Store) addPod(name, departmentID string) organization.Pod {
	now := time.Now()
	p := organization.Pod{ID: uuid.NewString(), Name: name, DepartmentID: departmentID, CreatedAt: now, UpdatedAt: now}
	s.pods[p.ID] = p
	return p
}

// AddEmployee places a new employee in the pod and, when role is PodLead, makes them its lead.
func (s *Store) AddEmployee(code, name string, role user.Role, podID string) organization.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()

	pod := s.pods[podID]
	now := time.Now()
	e := organization.Employee{
		ID:           uuid.NewString(),
		Code:         code,
		Name:         name,
		Role:         role,
		DepartmentID: pod.DepartmentID,
		PodID:        podID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.employees[e.ID] = e
	if role == user.RolePodLead {
		id := e.ID
		pod.PodLeadEmployeeID = &id
		s.pods[podID] = pod
	}
	return e
}

// Allocation returns a copy of the stored row.
func (s *Store) Allocation(id string) (allocation.Allocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.allocations[id]
	return a, ok
}

// Records returns a copy of every stored contribution record.
func (s *Store) Records() []contribution.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contribution.Record, len(s.records))
	copy(out, s.records)
	return out
}

// ========== ORGANIZATION ==========

func (s *Store) GetDepartmentByID(ctx context.Context, id string) (organization.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.departments[id]
	if !ok {
		return organization.Department{}, organization.ErrDepartmentNotFound
	}
	return d, nil
}

func (s *Store) ListDepartments(ctx context.Context) ([]organization.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]organization.Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) withDepartmentName(p organization.Pod) organization.Pod {
	if d, ok := s.departments[p.DepartmentID]; ok {
		name := d.Name
		p.DepartmentName = &name
	}
	return p
}

func (s *Store) GetPodByID(ctx context.Context, id string) (organization.Pod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pods[id]
	if !ok {
		return organization.Pod{}, organization.ErrPodNotFound
	}
	return s.withDepartmentName(p), nil
}

func (s *Store) ListPods(ctx context.Context) ([]organization.Pod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]organization.Pod, 0, len(s.pods))
	for _, p := range s.pods {
		out = append(out, s.withDepartmentName(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) withPlacement(e organization.Employee) organization.Employee {
	if d, ok := s.departments[e.DepartmentID]; ok {
		name := d.Name
		e.DepartmentName = &name
	}
	if p, ok := s.pods[e.PodID]; ok {
		name := p.Name
		e.PodName = &name
	}
	return e
}

func (s *Store) GetEmployeeByID(ctx context.Context, id string) (organization.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return organization.Employee{}, organization.ErrEmployeeNotFound
	}
	return s.withPlacement(e), nil
}

func (s *Store) GetEmployeeByCode(ctx context.Context, code string) (organization.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if strings.EqualFold(e.Code, code) {
			return s.withPlacement(e), nil
		}
	}
	return organization.Employee{}, organization.ErrEmployeeNotFound
}

func (s *Store) ListEmployeesByPod(ctx context.Context, podID string) ([]organization.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []organization.Employee
	for _, e := range s.employees {
		if e.PodID == podID {
			out = append(out, s.withPlacement(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpsertEmployee(ctx context.Context, input organization.UpsertEmployeeInput) (organization.UpsertEmployeeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result organization.UpsertEmployeeResult

	var department organization.Department
	found := false
	for _, d := range s.departments {
		if strings.EqualFold(d.Name, input.DepartmentName) {
			department, found = d, true
			break
		}
	}
	if !found {
		department = s.addDepartment(input.DepartmentName)
		result.DepartmentCreated = true
	}

	var pod organization.Pod
	found = false
	for _, p := range s.pods {
		if p.DepartmentID == department.ID && strings.EqualFold(p.Name, input.PodName) {
			pod, found = p, true
			break
		}
	}
	if !found {
		pod = s.addPod(input.PodName, department.ID)
		result.PodCreated = true
	}

	now := time.Now()
	var employee organization.Employee
	found = false
	for _, e := range s.employees {
		if strings.EqualFold(e.Code, input.Code) {
			employee, found = e, true
			break
		}
	}
	if !found {
		employee = organization.Employee{ID: uuid.NewString(), Code: input.Code, CreatedAt: now}
		result.EmployeeCreated = true
	}
	employee.Name = input.Name
	employee.Email = input.Email
	employee.Role = user.ParseRole(input.Role)
	employee.DepartmentID = department.ID
	employee.PodID = pod.ID
	employee.UpdatedAt = now
	s.employees[employee.ID] = employee

	if input.IsPodLead {
		id := employee.ID
		pod.PodLeadEmployeeID = &id
		pod.UpdatedAt = now
		s.pods[pod.ID] = pod
	}

	result.Employee = s.withPlacement(employee)
	return result, nil
}

// ========== ALLOCATIONS ==========

func (s *Store) WithPodMonthLock(ctx context.Context, podID, month string, fn func(ctx context.Context) error) error {
	key := podID + ":" + month

	s.lockMu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	s.lockMu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

func (s *Store) withEmployee(a allocation.Allocation) allocation.Allocation {
	if e, ok := s.employees[a.EmployeeID]; ok {
		code, name := e.Code, e.Name
		a.EmployeeCode = &code
		a.EmployeeName = &name
		a.EmployeeEmail = e.Email
	}
	return a
}

func (s *Store) ListByPodMonth(ctx context.Context, podID, month string) ([]allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []allocation.Allocation
	for _, a := range s.allocations {
		if a.PodID == podID && a.Month == month {
			out = append(out, s.withEmployee(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := deref(out[i].EmployeeName), deref(out[j].EmployeeName)
		if ni != nj {
			return ni < nj
		}
		return s.allocationSeq[out[i].ID] < s.allocationSeq[out[j].ID]
	})
	return out, nil
}

func (s *Store) ApplySubmission(ctx context.Context, id string, submission allocation.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.allocations[id]
	if !ok {
		return allocation.ErrAllocationNotFound
	}
	if a.Status == allocation.StatusProcessed {
		return allocation.ErrAllocationProcessed
	}

	now := time.Now()
	a.AcademyPercent = submission.AcademyPercent
	a.IntensivePercent = submission.IntensivePercent
	a.NIATPercent = submission.NIATPercent
	a.IsVerifiedDescription = submission.IsVerifiedDescription
	a.Status = allocation.StatusSubmitted
	a.SubmittedAt = &now
	a.UpdatedAt = now
	s.allocations[id] = a
	return nil
}

func (s *Store) MarkProcessed(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	moved := 0
	for _, id := range ids {
		a, ok := s.allocations[id]
		if !ok || a.Status != allocation.StatusSubmitted {
			continue
		}
		a.Status = allocation.StatusProcessed
		a.ProcessedAt = &now
		a.UpdatedAt = now
		s.allocations[id] = a
		moved++
	}
	return moved, nil
}

func (s *Store) CreatePending(ctx context.Context, allocations []allocation.Allocation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	for _, a := range allocations {
		key := allocationKey{key: a.Key(), month: a.Month}
		if _, exists := s.allocationIdx[key]; exists {
			continue
		}
		now := time.Now()
		a.ID = uuid.NewString()
		a.Status = allocation.StatusPending
		a.CreatedAt = now
		a.UpdatedAt = now
		s.allocations[a.ID] = a
		s.allocationSeq[a.ID] = s.next()
		s.allocationIdx[key] = a.ID
		created++
	}
	return created, nil
}

func (s *Store) ListPodIDsByMonth(ctx context.Context, month string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, a := range s.allocations {
		if a.Month == month && !seen[a.PodID] {
			seen[a.PodID] = true
			out = append(out, a.PodID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) CountUnprocessed(ctx context.Context, month string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.allocations {
		if a.Month == month && a.Status != allocation.StatusProcessed {
			n++
		}
	}
	return n, nil
}

// ========== CONTRIBUTIONS ==========

func (s *Store) upsertRecords(records []contribution.Record, accumulate bool) int {
	now := time.Now()
	for _, r := range records {
		key := recordKey{employeeID: r.EmployeeID, product: r.Product, feature: r.FeatureOrDescription, month: r.Month, source: r.Source}
		if i, ok := s.recordIdx[key]; ok {
			if accumulate {
				s.records[i].Hours = s.records[i].Hours.Add(r.Hours)
			} else {
				s.records[i].Hours = r.Hours
			}
			continue
		}
		r.ID = uuid.NewString()
		r.CreatedAt = now
		s.recordIdx[key] = len(s.records)
		s.records = append(s.records, r)
	}
	return len(records)
}

func (s *Store) AddHours(ctx context.Context, records []contribution.Record) (int, error) {
	if s.FailAddHours != nil {
		return 0, s.FailAddHours
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertRecords(records, true), nil
}

func (s *Store) ReplaceHours(ctx context.Context, records []contribution.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertRecords(records, false), nil
}

func (s *Store) ListScoped(ctx context.Context, filter contribution.Filter) ([]contribution.ScopedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []contribution.ScopedRecord
	for _, r := range s.records {
		if r.Month != filter.Month {
			continue
		}
		e, ok := s.employees[r.EmployeeID]
		if !ok {
			continue
		}
		if filter.EmployeeID != nil && e.ID != *filter.EmployeeID {
			continue
		}
		if filter.PodID != nil && e.PodID != *filter.PodID {
			continue
		}
		if filter.DepartmentID != nil && e.DepartmentID != *filter.DepartmentID {
			continue
		}
		out = append(out, contribution.ScopedRecord{
			Record:         r,
			EmployeeCode:   e.Code,
			EmployeeName:   e.Name,
			PodID:          e.PodID,
			PodName:        s.pods[e.PodID].Name,
			DepartmentID:   e.DepartmentID,
			DepartmentName: s.departments[e.DepartmentID].Name,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DepartmentName != b.DepartmentName {
			return a.DepartmentName < b.DepartmentName
		}
		if a.PodName != b.PodName {
			return a.PodName < b.PodName
		}
		return a.EmployeeName < b.EmployeeName
	})
	return out, nil
}

// ========== FEATURES ==========

func (s *Store) List(ctx context.Context, filter product.FeatureFilter) ([]product.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []product.Feature
	for _, f := range s.features {
		if filter.Product != nil && f.Product != *filter.Product {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Product != out[j].Product {
			return out[i].Product.Index() < out[j].Product.Index()
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) Upsert(ctx context.Context, feature product.Feature) (product.Feature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, f := range s.features {
		if f.Product == feature.Product && strings.EqualFold(f.Name, feature.Name) {
			if feature.Description != nil {
				f.Description = feature.Description
			}
			f.UpdatedAt = now
			s.features[id] = f
			return f, nil
		}
	}

	feature.ID = uuid.NewString()
	feature.CreatedAt = now
	feature.UpdatedAt = now
	s.features[feature.ID] = feature
	return feature, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
