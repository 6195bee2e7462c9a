package models

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job 백그라운드 작업 상태 레코드 (폴링용)
type Job struct {
	ID             string          `json:"id" db:"id"`
	JobType        string          `json:"jobType" db:"job_type"`
	Status         JobStatus       `json:"status" db:"status"`
	Progress       int             `json:"progress" db:"progress"`
	TotalItems     *int            `json:"totalItems,omitempty" db:"total_items"`
	ProcessedItems int             `json:"processedItems" db:"processed_items"`
	ResultData     json.RawMessage `json:"resultData,omitempty" db:"result_data"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	StartedAt      *time.Time      `json:"startedAt,omitempty" db:"started_at"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty" db:"completed_at"`
}
