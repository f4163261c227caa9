package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// JobStatus represents the status of a delivery job in the queue
type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

// Job represents a queued delivery batch submitted through the web service
type Job struct {
	gorm.Model
	PublicID string     `json:"id" gorm:"uniqueIndex;not null"`
	Status   JobStatus  `json:"status" gorm:"default:'queued';index"`
	Payload  JobPayload `json:"payload" gorm:"type:json"`

	ProgressStep    string `json:"progress_step,omitempty"`
	ProgressCurrent int    `json:"progress_current"`
	ProgressTotal   int    `json:"progress_total"`
	ProgressMessage string `json:"progress_message,omitempty"`

	Error       string     `json:"error,omitempty"`
	ErrorDetail string     `json:"error_detail,omitempty" gorm:"type:text"`
	ErrorRaw    JSONMap    `json:"error_raw,omitempty" gorm:"type:json"`
	OutputDir   string     `json:"output_dir,omitempty"`
	Exports     StringList `json:"exports,omitempty" gorm:"type:json"`
	WorkerID    string     `json:"worker_id,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// JobPayload is the batch request a job was created with
type JobPayload struct {
	Name     string   `json:"name"`
	Inputs   []string `json:"inputs"`
	Platform Platform `json:"platform"`
	Exports  []string `json:"exports"`
	Summary  bool     `json:"summary"`
	UseCache bool     `json:"use_cache"`
}

// Value implements driver.Valuer interface for JobPayload
func (p JobPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for JobPayload
func (p *JobPayload) Scan(value interface{}) error {
	bytes, err := scanBytes(value)
	if err != nil || bytes == nil {
		return err
	}
	return json.Unmarshal(bytes, p)
}

// JSONMap stores an arbitrary JSON object column
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface for JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner interface for JSONMap
func (m *JSONMap) Scan(value interface{}) error {
	bytes, err := scanBytes(value)
	if err != nil || bytes == nil {
		return err
	}
	return json.Unmarshal(bytes, m)
}

// StringList stores a list of strings as a JSON array column
type StringList []string

// Value implements driver.Valuer interface for StringList
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for StringList
func (l *StringList) Scan(value interface{}) error {
	bytes, err := scanBytes(value)
	if err != nil || bytes == nil {
		return err
	}
	return json.Unmarshal(bytes, l)
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("type assertion to []byte failed")
	}
}

// IsTerminal returns true once the job will not change state again
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusError
}

// Progress is a snapshot of the pipeline stage a job is in
type Progress struct {
	Step    string `json:"step"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// CurrentProgress returns the job's last reported progress
func (j *Job) CurrentProgress() Progress {
	return Progress{
		Step:    j.ProgressStep,
		Current: j.ProgressCurrent,
		Total:   j.ProgressTotal,
		Message: j.ProgressMessage,
	}
}
