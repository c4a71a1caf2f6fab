package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of an async extraction task.
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// ExtractionTask represents an async product-extraction request.
type ExtractionTask struct {
	ID          string          `json:"id"`
	URL         string          `json:"url"`
	Status      TaskStatus      `json:"status"`
	Progress    int             `json:"progress"` // 0-100
	Message     string          `json:"message"`
	Result      *ScrapedProduct `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// NewExtractionTask creates a queued task for the given product URL.
func NewExtractionTask(url string) *ExtractionTask {
	return &ExtractionTask{
		ID:        "task_" + uuid.NewString(),
		URL:       url,
		Status:    TaskStatusQueued,
		Message:   "Task queued for processing",
		CreatedAt: time.Now(),
	}
}

// Start marks the task as processing.
func (t *ExtractionTask) Start() {
	t.Status = TaskStatusProcessing
	t.Progress = 0
	t.Message = "Starting extraction..."
	now := time.Now()
	t.StartedAt = &now
}

// Complete marks the task as completed with its result.
func (t *ExtractionTask) Complete(result *ScrapedProduct) {
	t.Status = TaskStatusCompleted
	t.Progress = 100
	t.Message = "Extraction completed"
	t.Result = result
	now := time.Now()
	t.CompletedAt = &now
}

// Fail marks the task as failed.
func (t *ExtractionTask) Fail(errMsg string) {
	t.Status = TaskStatusFailed
	t.Message = "Extraction failed"
	t.Error = errMsg
	now := time.Now()
	t.CompletedAt = &now
}

// IsCompleted returns true if the task is in a final state.
func (t *ExtractionTask) IsCompleted() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// IsActive returns true if the task is still running.
func (t *ExtractionTask) IsActive() bool {
	return t.Status == TaskStatusQueued || t.Status == TaskStatusProcessing
}

// Duration returns how long the task has been (or was) running.
func (t *ExtractionTask) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	endTime := time.Now()
	if t.CompletedAt != nil {
		endTime = *t.CompletedAt
	}
	return endTime.Sub(*t.StartedAt)
}
