package entity

import "strings"

// TaskStatus represents the backend lifecycle of a video job.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

var taskStatusSet = map[TaskStatus]struct{}{
	TaskPending:    {},
	TaskProcessing: {},
	TaskCompleted:  {},
	TaskFailed:     {},
}

// ParseTaskStatus normalizes a backend status string.
func ParseTaskStatus(value string) (TaskStatus, bool) {
	normalized := TaskStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := taskStatusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether no further polling follows this status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// GenerationTask is the client's view of a server-side video job.
type GenerationTask struct {
	TaskID   string     `json:"task_id"`
	Status   TaskStatus `json:"status"`
	Progress int        `json:"progress"`
	VideoURL string     `json:"video_url,omitempty"`
	Error    string     `json:"error,omitempty"`
	// Message is the backend's optional description of the current step.
	Message string `json:"message,omitempty"`
}

// NewGenerationTask returns the initial state recorded for a freshly submitted job.
func NewGenerationTask(taskID string) GenerationTask {
	return GenerationTask{TaskID: taskID, Status: TaskPending}
}

// ClampProgress bounds a progress value to 0..100.
func ClampProgress(value int) int {
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}
