package service

import (
	"context"
	"errors"

	"Hokage/backend/go/internal/models"
)

// ErrInvalidReportStatus is returned when an agent reports a status other
// than complete or failed.
var ErrInvalidReportStatus = errors.New("report status must be complete or failed")

// ErrReportConflict is returned when the task is not in status processing,
// which is the only state that accepts an agent report.
var ErrReportConflict = errors.New("task is not awaiting a report")

// ReportResult records the outcome an agent submits for a task it executed.
// complete merges the reported result into the task; failed is terminal and
// records the error details. Any other status is rejected. The transition
// only applies from processing, so a retried or late report cannot reopen a
// task that triage has already taken past complete.
func (d *Dispatcher) ReportResult(ctx context.Context, ownerID uint, taskID string, status models.TaskStatus, result map[string]interface{}, errorDetails string) (*models.AgentTask, error) {
	if status != models.TaskStatusComplete && status != models.TaskStatusFailed {
		return nil, ErrInvalidReportStatus
	}

	task, err := d.store.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil || task.OwnerID != ownerID {
		return nil, ErrTaskNotFound
	}

	updated, applied, err := d.store.RecordReport(ctx, taskID, status, result, errorDetails)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrTaskNotFound
	}
	if !applied {
		return nil, ErrReportConflict
	}
	return updated, nil
}
