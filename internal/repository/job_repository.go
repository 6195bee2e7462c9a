package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/pkg/database"
)

const jobColumns = `id, job_type, status, progress, total_items, processed_items,
       result_data, created_at, started_at, completed_at`

type JobRepository struct {
	db *database.DB
}

func NewJobRepository(db *database.DB) *JobRepository {
	return &JobRepository{db: db}
}

func scanJob(row interface{ Scan(...interface{}) error }) (*models.Job, error) {
	job := &models.Job{}
	var resultData []byte
	err := row.Scan(
		&job.ID,
		&job.JobType,
		&job.Status,
		&job.Progress,
		&job.TotalItems,
		&job.ProcessedItems,
		&resultData,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	job.ResultData = json.RawMessage(resultData)
	return job, nil
}

// Create pending 상태 작업 레코드 생성
func (r *JobRepository) Create(jobType string) (*models.Job, error) {
	query := `
		INSERT INTO jobs (job_type, status)
		VALUES ($1, 'pending')
		RETURNING ` + jobColumns

	job, err := scanJob(r.db.QueryRow(query, jobType))
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

// FindByID ID로 작업 찾기
func (r *JobRepository) FindByID(id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}

	return job, nil
}

// SetRunning 작업을 running 상태로 전환
func (r *JobRepository) SetRunning(id string, totalItems *int) error {
	query := `
		UPDATE jobs
		SET status = 'running', total_items = $2, started_at = NOW()
		WHERE id = $1`

	if _, err := r.db.Exec(query, id, totalItems); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}
	return nil
}

// UpdateProgress 처리 건수 및 진행률 갱신
func (r *JobRepository) UpdateProgress(id string, processed, progress int) error {
	query := `
		UPDATE jobs
		SET processed_items = $2, progress = $3
		WHERE id = $1`

	if _, err := r.db.Exec(query, id, processed, progress); err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// SetCompleted 작업 완료 처리 (result는 JSON으로 직렬화되어 저장)
func (r *JobRepository) SetCompleted(id string, result interface{}) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal job result: %w", err)
	}

	query := `
		UPDATE jobs
		SET status = 'completed', progress = 100, result_data = $2, completed_at = NOW()
		WHERE id = $1`

	if _, err := r.db.Exec(query, id, data); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return nil
}

// SetFailed 작업 실패 처리. 에러 메시지는 result_data에 저장.
func (r *JobRepository) SetFailed(id string, errMsg string) error {
	data, err := json.Marshal(map[string]string{"error": errMsg})
	if err != nil {
		return fmt.Errorf("failed to marshal job error: %w", err)
	}

	query := `
		UPDATE jobs
		SET status = 'failed', result_data = $2, completed_at = NOW()
		WHERE id = $1`

	if _, err := r.db.Exec(query, id, data); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}
