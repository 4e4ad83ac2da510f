package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Hokage/backend/go/internal/analysis"
	"Hokage/backend/go/internal/models"
	"Hokage/backend/go/pkg/logger"
)

func newTestTriage(store *memStore, analyzer analysis.Analyzer) *Triage {
	d := NewDispatcher(store, NewWaiterRegistry(), time.Second, logger.New("triage_test", "", ""))
	return NewTriage(store, store, analyzer, d, logger.New("triage_test", "", ""), 10, []string{"JobManager.log"})
}

// completedRootTask seeds a GET_JOB_DETAILS task that an agent has already
// completed with evidence.
func completedRootTask(t *testing.T, store *memStore) *models.AgentTask {
	t.Helper()
	task, err := store.CreateTask(context.Background(), 1, 1, models.TaskTypeGetJobDetails,
		map[string]interface{}{models.ResultKeyJobID: 42}, nil)
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	store.setStatus(task.ID, models.TaskStatusComplete)
	store.setResult(task.ID, map[string]interface{}{
		models.ResultKeyJobID:          42,
		models.ResultKeyFailureSummary: "Backup job 42 failed during the backup phase.",
		models.ResultKeyEvents:         []string{"scan done", "backup phase error"},
	})
	return task
}

func TestCreateDiagnosisForOwnJob(t *testing.T) {
	store := newMemStore()
	store.addJob(10, 1, &models.BackupJob{JobID: 4242, DataSourceID: 7, Status: "Failed"})
	tr := newTestTriage(store, &stubAnalyzer{})

	task, err := tr.CreateDiagnosis(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("CreateDiagnosis failed: %v", err)
	}
	if task.TaskType != models.TaskTypeGetJobDetails {
		t.Fatalf("task type is %s, want GET_JOB_DETAILS", task.TaskType)
	}
	if task.Status != models.TaskStatusPending {
		t.Fatalf("task status is %s, want pending", task.Status)
	}
	if task.OwnerID != 7 {
		t.Fatalf("task owner is %d, want the job's data source 7", task.OwnerID)
	}
}

func TestCreateDiagnosisRejectsForeignJob(t *testing.T) {
	store := newMemStore()
	store.addJob(10, 1, &models.BackupJob{JobID: 4242, DataSourceID: 7})
	tr := newTestTriage(store, &stubAnalyzer{})

	// Tenant 2 must not see tenant 1's job at all.
	if _, err := tr.CreateDiagnosis(context.Background(), 2, 10); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("got %v, want ErrJobNotFound", err)
	}
}

func TestPollSufficientEvidenceFinalizes(t *testing.T) {
	store := newMemStore()
	analyzer := &stubAnalyzer{
		triageFn: func(string, []string) (*analysis.TriageVerdict, error) {
			return &analysis.TriageVerdict{
				IsSufficient: true,
				Analysis:     &analysis.Analysis{ProblemSummary: "control process lost"},
			}, nil
		},
	}
	tr := newTestTriage(store, analyzer)
	task := completedRootTask(t, store)

	updated, err := tr.PollTask(context.Background(), 1, task.ID)
	if err != nil {
		t.Fatalf("PollTask failed: %v", err)
	}
	if updated.Status != models.TaskStatusFinalized {
		t.Fatalf("status is %s, want finalized", updated.Status)
	}

	result := decodeResult(updated)
	if result[models.ResultKeyTriageComplete] != true {
		t.Fatal("triage_complete not recorded")
	}
	if _, ok := result[models.ResultKeyAIAnalysis]; !ok {
		t.Fatal("ai_analysis missing from finalized task")
	}
	// Evidence gathered by the agent survives the merge.
	if result[models.ResultKeyFailureSummary] != "Backup job 42 failed during the backup phase." {
		t.Fatal("agent-reported evidence was overwritten")
	}
	// No log-gathering child was spawned.
	if children := store.childrenOf(task.ID); len(children) != 0 {
		t.Fatalf("sufficient verdict spawned %d child tasks", len(children))
	}
}

func TestPollInsufficientEvidenceSpawnsChild(t *testing.T) {
	store := newMemStore()
	analyzer := &stubAnalyzer{
		triageFn: func(string, []string) (*analysis.TriageVerdict, error) {
			return &analysis.TriageVerdict{IsSufficient: false, LogsNeeded: []string{"clBackup.log"}}, nil
		},
	}
	tr := newTestTriage(store, analyzer)
	task := completedRootTask(t, store)

	updated, err := tr.PollTask(context.Background(), 1, task.ID)
	if err != nil {
		t.Fatalf("PollTask failed: %v", err)
	}
	if updated.Status != models.TaskStatusTriaging {
		t.Fatalf("status is %s, want triaging", updated.Status)
	}

	children := store.childrenOf(task.ID)
	if len(children) != 1 {
		t.Fatalf("got %d child tasks, want 1", len(children))
	}
	child := children[0]
	if child.TaskType != models.TaskTypeGetSpecificLogs {
		t.Fatalf("child type is %s, want GET_SPECIFIC_LOGS", child.TaskType)
	}
	if child.Status != models.TaskStatusPending {
		t.Fatalf("child status is %s, want pending", child.Status)
	}
	if child.ParentTaskID == nil || *child.ParentTaskID != task.ID {
		t.Fatal("child does not reference its parent task")
	}
}

func TestConcurrentPollsRunTriageOnce(t *testing.T) {
	store := newMemStore()
	analyzer := &stubAnalyzer{
		triageFn: func(string, []string) (*analysis.TriageVerdict, error) {
			// Give the losers time to hit the claim while the winner holds it.
			time.Sleep(10 * time.Millisecond)
			return &analysis.TriageVerdict{IsSufficient: false, LogsNeeded: []string{"clBackup.log"}}, nil
		},
	}
	tr := newTestTriage(store, analyzer)
	task := completedRootTask(t, store)

	const pollers = 8
	var wg sync.WaitGroup
	errs := make([]error, pollers)
	for i := 0; i < pollers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = tr.PollTask(context.Background(), 1, task.ID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("poller %d failed: %v", i, err)
		}
	}
	if calls, _ := analyzer.calls(); calls != 1 {
		t.Fatalf("analyzer.Triage ran %d times, want exactly 1", calls)
	}
	if children := store.childrenOf(task.ID); len(children) != 1 {
		t.Fatalf("%d child tasks spawned, want exactly 1", len(children))
	}
}

func TestTriageFailureFallsBackToLogRequest(t *testing.T) {
	store := newMemStore()
	analyzer := &stubAnalyzer{
		triageFn: func(string, []string) (*analysis.TriageVerdict, error) {
			return nil, context.DeadlineExceeded
		},
	}
	tr := newTestTriage(store, analyzer)
	task := completedRootTask(t, store)

	updated, err := tr.PollTask(context.Background(), 1, task.ID)
	if err != nil {
		t.Fatalf("PollTask must absorb analyzer failures, got: %v", err)
	}
	if updated.Status != models.TaskStatusTriaging {
		t.Fatalf("status is %s, want triaging", updated.Status)
	}

	// The fallback requests the configured default log set.
	children := store.childrenOf(task.ID)
	if len(children) != 1 {
		t.Fatalf("got %d child tasks, want 1", len(children))
	}
	decision, _ := decodeResult(updated)[models.ResultKeyTriageDecision].(map[string]interface{})
	if decision == nil || decision["degraded"] != true {
		t.Fatalf("degraded fallback not recorded in the decision: %v", decision)
	}
}

func TestPollTriagingWaitsForChild(t *testing.T) {
	store := newMemStore()
	analyzer := &stubAnalyzer{}
	tr := newTestTriage(store, analyzer)
	task := completedRootTask(t, store)

	if _, err := tr.PollTask(context.Background(), 1, task.ID); err != nil {
		t.Fatalf("first poll failed: %v", err)
	}

	// The child has not reported yet: polling is a no-op, not an error.
	updated, err := tr.PollTask(context.Background(), 1, task.ID)
	if err != nil {
		t.Fatalf("second poll failed: %v", err)
	}
	if updated.Status != models.TaskStatusTriaging {
		t.Fatalf("status is %s, want triaging while the child is out", updated.Status)
	}
	if _, deep := analyzer.calls(); deep != 0 {
		t.Fatal("deep analysis ran before the child completed")
	}
}

func TestPollRunsDeepAnalysisAfterChildCompletes(t *testing.T) {
	store := newMemStore()
	var gotLogs map[string]string
	analyzer := &stubAnalyzer{
		deepFn: func(_ map[string]interface{}, logContents map[string]string) (*analysis.Analysis, error) {
			gotLogs = logContents
			return &analysis.Analysis{
				ProblemSummary:    "control process crash",
				ProbableCause:     "cvd service restart mid-backup",
				RecommendedAction: "patch the media agent",
			}, nil
		},
	}
	tr := newTestTriage(store, analyzer)
	task := completedRootTask(t, store)

	if _, err := tr.PollTask(context.Background(), 1, task.ID); err != nil {
		t.Fatalf("triage poll failed: %v", err)
	}
	child := store.childrenOf(task.ID)[0]
	store.setStatus(child.ID, models.TaskStatusComplete)
	store.setResult(child.ID, map[string]interface{}{
		models.ResultKeyLogs: map[string]interface{}{"JobManager.log": "line one\nline two"},
	})

	updated, err := tr.PollTask(context.Background(), 1, task.ID)
	if err != nil {
		t.Fatalf("deep analysis poll failed: %v", err)
	}
	if updated.Status != models.TaskStatusFinalized {
		t.Fatalf("status is %s, want finalized", updated.Status)
	}
	if gotLogs["JobManager.log"] != "line one\nline two" {
		t.Fatalf("deep analysis received logs %v", gotLogs)
	}

	result := decodeResult(updated)
	doc, _ := result[models.ResultKeyAIAnalysis].(map[string]interface{})
	if doc == nil || doc["problem_summary"] != "control process crash" {
		t.Fatalf("final analysis not stored: %v", result[models.ResultKeyAIAnalysis])
	}
}

func TestDeepAnalysisFailureStillFinalizes(t *testing.T) {
	store := newMemStore()
	analyzer := &stubAnalyzer{
		deepFn: func(map[string]interface{}, map[string]string) (*analysis.Analysis, error) {
			return nil, errors.New("provider unavailable")
		},
	}
	tr := newTestTriage(store, analyzer)
	task := completedRootTask(t, store)

	if _, err := tr.PollTask(context.Background(), 1, task.ID); err != nil {
		t.Fatalf("triage poll failed: %v", err)
	}
	child := store.childrenOf(task.ID)[0]
	store.setStatus(child.ID, models.TaskStatusComplete)
	store.setResult(child.ID, map[string]interface{}{
		models.ResultKeyLogs: map[string]interface{}{"JobManager.log": "content"},
	})

	updated, err := tr.PollTask(context.Background(), 1, task.ID)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if updated.Status != models.TaskStatusFinalized {
		t.Fatalf("status is %s, want finalized even when analysis fails", updated.Status)
	}
	doc, _ := decodeResult(updated)[models.ResultKeyAIAnalysis].(map[string]interface{})
	if doc == nil || doc["problem_summary"] != "Automated analysis unavailable" {
		t.Fatalf("placeholder analysis not stored: %v", doc)
	}
}

func TestPollFinalizedTaskIsIdempotent(t *testing.T) {
	store := newMemStore()
	analyzer := &stubAnalyzer{
		triageFn: func(string, []string) (*analysis.TriageVerdict, error) {
			return &analysis.TriageVerdict{
				IsSufficient: true,
				Analysis:     &analysis.Analysis{ProblemSummary: "done"},
			}, nil
		},
	}
	tr := newTestTriage(store, analyzer)
	task := completedRootTask(t, store)

	first, err := tr.PollTask(context.Background(), 1, task.ID)
	if err != nil {
		t.Fatalf("first poll failed: %v", err)
	}
	second, err := tr.PollTask(context.Background(), 1, task.ID)
	if err != nil {
		t.Fatalf("second poll failed: %v", err)
	}
	if first.Status != models.TaskStatusFinalized || second.Status != models.TaskStatusFinalized {
		t.Fatalf("statuses %s / %s, want finalized", first.Status, second.Status)
	}
	if calls, _ := analyzer.calls(); calls != 1 {
		t.Fatalf("analyzer ran %d times across repeated polls, want 1", calls)
	}
	if string(first.Result) != string(second.Result) {
		t.Fatal("repeated polls changed the finalized result")
	}
}

func TestLateReportCannotReopenFinalizedTask(t *testing.T) {
	store := newMemStore()
	analyzer := &stubAnalyzer{
		triageFn: func(string, []string) (*analysis.TriageVerdict, error) {
			return &analysis.TriageVerdict{
				IsSufficient: true,
				Analysis:     &analysis.Analysis{ProblemSummary: "done"},
			}, nil
		},
	}
	tr := newTestTriage(store, analyzer)
	d := newTestDispatcher(store, time.Second)
	task := completedRootTask(t, store)

	finalized, err := tr.PollTask(context.Background(), 1, task.ID)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if finalized.Status != models.TaskStatusFinalized {
		t.Fatalf("status is %s, want finalized", finalized.Status)
	}

	// A straggling agent retry re-reports complete after triage finished.
	if _, err := d.ReportResult(context.Background(), 1, task.ID, models.TaskStatusComplete,
		map[string]interface{}{models.ResultKeyFailureSummary: "late duplicate"}, ""); !errors.Is(err, ErrReportConflict) {
		t.Fatalf("got %v, want ErrReportConflict for a late report", err)
	}
	if stored := store.get(task.ID); stored.Status != models.TaskStatusFinalized {
		t.Fatalf("late report regressed the task to %s", stored.Status)
	}

	// The next poll must not re-claim the task or re-run the analyzer.
	again, err := tr.PollTask(context.Background(), 1, task.ID)
	if err != nil {
		t.Fatalf("poll after late report failed: %v", err)
	}
	if again.Status != models.TaskStatusFinalized {
		t.Fatalf("status is %s after late report, want finalized", again.Status)
	}
	if calls, _ := analyzer.calls(); calls != 1 {
		t.Fatalf("analyzer ran %d times, want exactly 1", calls)
	}
	if string(again.Result) != string(finalized.Result) {
		t.Fatal("late report changed the finalized result")
	}
}

func TestPollTaskTenantScoping(t *testing.T) {
	store := newMemStore()
	tr := newTestTriage(store, &stubAnalyzer{})
	task := completedRootTask(t, store)

	if _, err := tr.PollTask(context.Background(), 99, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("got %v, want ErrTaskNotFound for a foreign tenant", err)
	}
	if _, err := tr.PollTask(context.Background(), 1, "no-such-task"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("got %v, want ErrTaskNotFound for an unknown id", err)
	}
}
