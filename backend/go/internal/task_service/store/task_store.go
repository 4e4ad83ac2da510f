package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"Hokage/backend/go/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskStore is the durable record of diagnostic tasks. Implementations must
// guarantee that MarkProcessing, ClaimForTriage and RecordReport are atomic
// compare-and-set operations on the task's status, and that result updates
// merge keys instead of replacing the whole document.
type TaskStore interface {
	// CreateTask persists a new task in status pending.
	CreateTask(ctx context.Context, ownerID, tenantID uint, taskType models.TaskType, payload map[string]interface{}, parentID *string) (*models.AgentTask, error)

	// GetOldestPending returns the oldest pending task for the owner, or nil
	// when none is queued.
	GetOldestPending(ctx context.Context, ownerID uint) (*models.AgentTask, error)

	// GetByID returns the task, or nil when the id is unknown.
	GetByID(ctx context.Context, id string) (*models.AgentTask, error)

	// MarkProcessing transitions pending -> processing. Returns false when
	// the task was no longer pending (someone else took it).
	MarkProcessing(ctx context.Context, id string) (bool, error)

	// ClaimForTriage transitions complete -> triaging. Returns false when
	// the task was no longer in status complete; at most one concurrent
	// caller can win this transition for a given task.
	ClaimForTriage(ctx context.Context, id string) (bool, error)

	// UpdateStatus sets the status and merges resultDelta into the task's
	// result. Existing result keys not named in the delta are preserved.
	UpdateStatus(ctx context.Context, id string, status models.TaskStatus, resultDelta map[string]interface{}) (*models.AgentTask, error)

	// RecordReport transitions processing -> complete|failed, merging the
	// result or recording the error details in the same transaction.
	// Returns false when the task was not in status processing, leaving the
	// row untouched: a duplicate or late report must never move a task that
	// has already advanced through triage.
	RecordReport(ctx context.Context, id string, status models.TaskStatus, resultDelta map[string]interface{}, errorDetails string) (*models.AgentTask, bool, error)

	// GetCompletedChild returns a completed child of the given parent task,
	// or nil when no child has completed yet.
	GetCompletedChild(ctx context.Context, parentID string) (*models.AgentTask, error)
}

// GormTaskStore is the MySQL-backed TaskStore.
type GormTaskStore struct {
	db *gorm.DB
}

// NewGormTaskStore creates a TaskStore on top of the shared gorm handle.
func NewGormTaskStore(db *gorm.DB) *GormTaskStore {
	return &GormTaskStore{db: db}
}

// CreateTask implements TaskStore.
func (s *GormTaskStore) CreateTask(ctx context.Context, ownerID, tenantID uint, taskType models.TaskType, payload map[string]interface{}, parentID *string) (*models.AgentTask, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal task payload: %w", err)
	}
	task := &models.AgentTask{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		TenantID:     tenantID,
		TaskType:     taskType,
		Status:       models.TaskStatusPending,
		Payload:      datatypes.JSON(payloadJSON),
		Result:       datatypes.JSON([]byte("{}")),
		ParentTaskID: parentID,
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// GetOldestPending implements TaskStore. Ordering by created_at (with the id
// as a tie-breaker) gives per-owner FIFO delivery.
func (s *GormTaskStore) GetOldestPending(ctx context.Context, ownerID uint) (*models.AgentTask, error) {
	var task models.AgentTask
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, models.TaskStatusPending).
		Order("created_at ASC, id ASC").
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetByID implements TaskStore.
func (s *GormTaskStore) GetByID(ctx context.Context, id string) (*models.AgentTask, error) {
	var task models.AgentTask
	err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// MarkProcessing implements TaskStore.
func (s *GormTaskStore) MarkProcessing(ctx context.Context, id string) (bool, error) {
	return s.compareAndSetStatus(ctx, id, models.TaskStatusPending, models.TaskStatusProcessing)
}

// ClaimForTriage implements TaskStore. The conditional UPDATE is the
// cross-replica mutual exclusion point: the row transitions out of complete
// exactly once no matter how many pollers race.
func (s *GormTaskStore) ClaimForTriage(ctx context.Context, id string) (bool, error) {
	return s.compareAndSetStatus(ctx, id, models.TaskStatusComplete, models.TaskStatusTriaging)
}

func (s *GormTaskStore) compareAndSetStatus(ctx context.Context, id string, from, to models.TaskStatus) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.AgentTask{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateStatus implements TaskStore. The row is locked for the duration of
// the read-merge-write so concurrent merges cannot drop each other's keys.
func (s *GormTaskStore) UpdateStatus(ctx context.Context, id string, status models.TaskStatus, resultDelta map[string]interface{}) (*models.AgentTask, error) {
	var task models.AgentTask
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, "id = ?", id).Error; err != nil {
			return err
		}

		merged, err := mergeResult(task.Result, resultDelta)
		if err != nil {
			return err
		}

		task.Status = status
		task.Result = merged
		return tx.Model(&task).
			Select("status", "result").
			Updates(map[string]interface{}{"status": status, "result": merged}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// RecordReport implements TaskStore. The row lock plus the explicit
// processing check make the transition a compare-and-set: once a task has
// moved into triage or a terminal state, a straggling agent retry finds the
// guard failed and changes nothing.
func (s *GormTaskStore) RecordReport(ctx context.Context, id string, status models.TaskStatus, resultDelta map[string]interface{}, errorDetails string) (*models.AgentTask, bool, error) {
	var task models.AgentTask
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, "id = ?", id).Error; err != nil {
			return err
		}
		if task.Status != models.TaskStatusProcessing {
			return nil
		}
		if status == models.TaskStatusFailed {
			task.Status = models.TaskStatusFailed
			task.ErrorDetails = errorDetails
			applied = true
			return tx.Model(&task).
				Select("status", "error_details").
				Updates(map[string]interface{}{
					"status":        models.TaskStatusFailed,
					"error_details": errorDetails,
				}).Error
		}
		merged, err := mergeResult(task.Result, resultDelta)
		if err != nil {
			return err
		}
		task.Status = status
		task.Result = merged
		applied = true
		return tx.Model(&task).
			Select("status", "result").
			Updates(map[string]interface{}{"status": status, "result": merged}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &task, applied, nil
}

// GetCompletedChild implements TaskStore.
func (s *GormTaskStore) GetCompletedChild(ctx context.Context, parentID string) (*models.AgentTask, error) {
	var task models.AgentTask
	err := s.db.WithContext(ctx).
		Where("parent_task_id = ? AND status = ?", parentID, models.TaskStatusComplete).
		Order("created_at ASC").
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// FindTenantJob looks up a backup job by its row id within a tenant. Used
// when a user requests a diagnosis for a failed job.
func (s *GormTaskStore) FindTenantJob(ctx context.Context, tenantID, jobRowID uint) (*models.BackupJob, error) {
	var job models.BackupJob
	err := s.db.WithContext(ctx).
		Joins("JOIN data_sources ON data_sources.id = backup_jobs.data_source_id").
		Where("backup_jobs.id = ? AND data_sources.tenant_id = ?", jobRowID, tenantID).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// mergeResult applies delta on top of the existing result document. Keys in
// the delta win; keys absent from the delta are never cleared, which is what
// keeps re-entrant polling idempotent.
func mergeResult(existing datatypes.JSON, delta map[string]interface{}) (datatypes.JSON, error) {
	if len(delta) == 0 {
		return existing, nil
	}
	current := map[string]interface{}{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &current); err != nil {
			return nil, fmt.Errorf("unmarshal existing result: %w", err)
		}
	}
	for k, v := range delta {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("marshal merged result: %w", err)
	}
	return datatypes.JSON(merged), nil
}
