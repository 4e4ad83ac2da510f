package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"Hokage/backend/go/internal/analysis"
	"Hokage/backend/go/internal/models"

	"gorm.io/datatypes"
)

// memStore is an in-memory TaskStore with the same atomicity guarantees as
// the MySQL implementation: status transitions are compare-and-set under
// one lock, and result updates merge key-by-key.
type memStore struct {
	mu    sync.Mutex
	seq   int
	tasks map[string]*models.AgentTask
	order []string

	// Jobs are tenant-scoped through their data source, so the fake tracks
	// the owning tenant alongside each row.
	jobs       map[uint]*models.BackupJob
	jobTenants map[uint]uint

	failMarkProcessing bool
	failCreate         bool
}

func newMemStore() *memStore {
	return &memStore{
		tasks:      make(map[string]*models.AgentTask),
		jobs:       make(map[uint]*models.BackupJob),
		jobTenants: make(map[uint]uint),
	}
}

func (m *memStore) addJob(rowID, tenantID uint, job *models.BackupJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[rowID] = job
	m.jobTenants[rowID] = tenantID
}

func (m *memStore) get(id string) *models.AgentTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tasks[id]
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func (m *memStore) setResult(id string, result map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, _ := json.Marshal(result)
	m.tasks[id].Result = datatypes.JSON(raw)
}

func (m *memStore) setStatus(id string, status models.TaskStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[id].Status = status
}

func (m *memStore) childrenOf(parentID string) []*models.AgentTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AgentTask
	for _, id := range m.order {
		t := m.tasks[id]
		if t.ParentTaskID != nil && *t.ParentTaskID == parentID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

func (m *memStore) CreateTask(_ context.Context, ownerID, tenantID uint, taskType models.TaskType, payload map[string]interface{}, parentID *string) (*models.AgentTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return nil, fmt.Errorf("store down")
	}
	m.seq++
	raw, _ := json.Marshal(payload)
	task := &models.AgentTask{
		ID:           fmt.Sprintf("task-%d", m.seq),
		OwnerID:      ownerID,
		TenantID:     tenantID,
		TaskType:     taskType,
		Status:       models.TaskStatusPending,
		Payload:      datatypes.JSON(raw),
		Result:       datatypes.JSON([]byte("{}")),
		ParentTaskID: parentID,
		CreatedAt:    time.Now(),
	}
	m.tasks[task.ID] = task
	m.order = append(m.order, task.ID)
	cp := *task
	return &cp, nil
}

func (m *memStore) GetOldestPending(_ context.Context, ownerID uint) (*models.AgentTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		t := m.tasks[id]
		if t.OwnerID == ownerID && t.Status == models.TaskStatusPending {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*models.AgentTask, error) {
	return m.get(id), nil
}

func (m *memStore) MarkProcessing(_ context.Context, id string) (bool, error) {
	if m.failMarkProcessing {
		return false, fmt.Errorf("store down")
	}
	return m.compareAndSet(id, models.TaskStatusPending, models.TaskStatusProcessing), nil
}

func (m *memStore) ClaimForTriage(_ context.Context, id string) (bool, error) {
	return m.compareAndSet(id, models.TaskStatusComplete, models.TaskStatusTriaging), nil
}

func (m *memStore) compareAndSet(id string, from, to models.TaskStatus) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tasks[id]
	if t == nil || t.Status != from {
		return false
	}
	t.Status = to
	return true
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status models.TaskStatus, resultDelta map[string]interface{}) (*models.AgentTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tasks[id]
	if t == nil {
		return nil, nil
	}
	current := map[string]interface{}{}
	if len(t.Result) > 0 {
		if err := json.Unmarshal(t.Result, &current); err != nil {
			return nil, err
		}
	}
	for k, v := range resultDelta {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	t.Status = status
	t.Result = datatypes.JSON(merged)
	cp := *t
	return &cp, nil
}

func (m *memStore) RecordReport(_ context.Context, id string, status models.TaskStatus, resultDelta map[string]interface{}, errorDetails string) (*models.AgentTask, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tasks[id]
	if t == nil {
		return nil, false, nil
	}
	if t.Status != models.TaskStatusProcessing {
		cp := *t
		return &cp, false, nil
	}
	if status == models.TaskStatusFailed {
		t.Status = models.TaskStatusFailed
		t.ErrorDetails = errorDetails
		cp := *t
		return &cp, true, nil
	}
	current := map[string]interface{}{}
	if len(t.Result) > 0 {
		if err := json.Unmarshal(t.Result, &current); err != nil {
			return nil, false, err
		}
	}
	for k, v := range resultDelta {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return nil, false, err
	}
	t.Status = status
	t.Result = datatypes.JSON(merged)
	cp := *t
	return &cp, true, nil
}

func (m *memStore) GetCompletedChild(_ context.Context, parentID string) (*models.AgentTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		t := m.tasks[id]
		if t.ParentTaskID != nil && *t.ParentTaskID == parentID && t.Status == models.TaskStatusComplete {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindTenantJob(_ context.Context, tenantID, jobRowID uint) (*models.BackupJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.jobs[jobRowID]
	if job == nil || m.jobTenants[jobRowID] != tenantID {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

// stubAnalyzer lets each test script the analyzer's answers.
type stubAnalyzer struct {
	mu          sync.Mutex
	triageCalls int
	deepCalls   int

	triageFn func(failureSummary string, recentEvents []string) (*analysis.TriageVerdict, error)
	deepFn   func(initialEvidence map[string]interface{}, logContents map[string]string) (*analysis.Analysis, error)
}

func (s *stubAnalyzer) Triage(_ context.Context, failureSummary string, recentEvents []string) (*analysis.TriageVerdict, error) {
	s.mu.Lock()
	s.triageCalls++
	s.mu.Unlock()
	if s.triageFn == nil {
		return &analysis.TriageVerdict{IsSufficient: false, LogsNeeded: []string{"JobManager.log"}}, nil
	}
	return s.triageFn(failureSummary, recentEvents)
}

func (s *stubAnalyzer) DeepAnalyze(_ context.Context, initialEvidence map[string]interface{}, logContents map[string]string) (*analysis.Analysis, error) {
	s.mu.Lock()
	s.deepCalls++
	s.mu.Unlock()
	if s.deepFn == nil {
		return &analysis.Analysis{ProblemSummary: "stub"}, nil
	}
	return s.deepFn(initialEvidence, logContents)
}

func (s *stubAnalyzer) calls() (triage, deep int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triageCalls, s.deepCalls
}
