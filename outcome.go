package batchfetch

import (
	"fmt"
)

// Outcome is the result of exactly one task. It is either a success
// (Path and Size set) or a failure (Category and Detail set).
type Outcome struct {
	Task     *Task         `json:"task"`
	Success  bool          `json:"success"`
	Path     string        `json:"path,omitempty"`
	Size     int64         `json:"size,omitempty"`
	Category ErrorCategory `json:"category,omitempty"`
	Detail   string        `json:"detail,omitempty"`
}

func successOutcome(task *Task, filePath string, size int64) *Outcome {
	return &Outcome{
		Task:    task,
		Success: true,
		Path:    filePath,
		Size:    size,
	}
}

func failureOutcome(task *Task, err *FetchError) *Outcome {
	return &Outcome{
		Task:     task,
		Category: err.Category,
		Detail:   err.Detail,
	}
}

// URL returns the source URL of the outcome
func (o *Outcome) URL() string {
	return o.Task.URL
}

// SizeKB renders the size the way the console report shows it
func (o *Outcome) SizeKB() string {
	return fmt.Sprintf("%.1f KB", float64(o.Size)/1024)
}

// LogLine returns the line written to the success or failure log
func (o *Outcome) LogLine() string {
	if o.Success {
		return o.Task.URL
	}
	return fmt.Sprintf("%s | %s", o.Task.URL, o.Detail)
}
