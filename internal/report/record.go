package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
	"github.com/mysticatea/npm-run-all-sub000/internal/model"
)

// Record is the JSON run record written by --report
type Record struct {
	Command    string         `json:"command"`
	Args       []string       `json:"args"`
	StartedAt  time.Time      `json:"startedAt"`
	DurationMs int64          `json:"durationMs"`
	ExitCode   int            `json:"exitCode"`
	Error      string         `json:"error,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
	Tasks      []TaskRecord   `json:"tasks"`
}

// TaskRecord is one task's outcome
type TaskRecord struct {
	Name       string           `json:"name"`
	Code       *int             `json:"code"`
	Status     model.TaskStatus `json:"status"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
	DurationMs int64            `json:"durationMs"`
}

// NewRecord builds a record for a finished run
func NewRecord(command string, args []string, started time.Time, results []model.ScriptResult, runErr error) Record {
	rec := Record{
		Command:    command,
		Args:       args,
		StartedAt:  started,
		DurationMs: time.Since(started).Milliseconds(),
		ExitCode:   runerrors.GetExitCode(runErr),
		Tasks:      make([]TaskRecord, 0, len(results)),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}

	for _, r := range results {
		task := TaskRecord{
			Name:       r.Name,
			Code:       r.Code,
			Status:     r.Status(),
			DurationMs: r.Duration.Milliseconds(),
		}
		if !r.StartTime.IsZero() {
			start := r.StartTime
			task.StartedAt = &start
		}
		rec.Tasks = append(rec.Tasks, task)
	}
	return rec
}

// WriteJSON writes rec to path, creating parent directories as needed
func WriteJSON(path string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run record: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
