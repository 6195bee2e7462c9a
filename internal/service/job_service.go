package service

import (
	"fmt"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/internal/repository"
	"github.com/club-ladder/ladder-backend/pkg/logger"
)

// JobProgress 실행 중인 작업이 진행 상황을 보고하는 핸들
type JobProgress struct {
	jobID    string
	jobRepo  *repository.JobRepository
	total    *int
	reported bool
}

// Report 처리 건수 갱신. total은 SetTotal 이후에만 백분율에 반영된다.
func (p *JobProgress) Report(done, total int) {
	if !p.reported {
		p.reported = true
		p.total = &total
		if err := p.jobRepo.SetRunning(p.jobID, p.total); err != nil {
			logger.Warn("failed to record job total", "jobId", p.jobID, "error", err)
		}
	}

	percent := 0
	if total > 0 {
		percent = done * 100 / total
	}
	if err := p.jobRepo.UpdateProgress(p.jobID, done, percent); err != nil {
		logger.Warn("failed to update job progress", "jobId", p.jobID, "error", err)
	}
}

// JobService 백그라운드 작업 디스패처
// Work runs detached: the HTTP request that started it gets the job id
// back immediately and polls for the outcome. A panic or error inside
// the work function lands on the job record and in the log, never on
// the original request.
type JobService struct {
	jobRepo *repository.JobRepository
}

// NewJobService 작업 서비스 생성
func NewJobService(jobRepo *repository.JobRepository) *JobService {
	return &JobService{jobRepo: jobRepo}
}

// Run 작업 레코드를 만들고 fn을 고루틴으로 실행
// fn's return value is serialized into result_data on success.
func (s *JobService) Run(jobType string, fn func(progress *JobProgress) (interface{}, error)) (*models.Job, error) {
	job, err := s.jobRepo.Create(jobType)
	if err != nil {
		return nil, fmt.Errorf("failed to create job record: %w", err)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("job panicked", "jobId", job.ID, "jobType", jobType, "panic", r)
				if err := s.jobRepo.SetFailed(job.ID, fmt.Sprintf("panic: %v", r)); err != nil {
					logger.Error("failed to record job panic", "jobId", job.ID, "error", err)
				}
			}
		}()

		if err := s.jobRepo.SetRunning(job.ID, nil); err != nil {
			logger.Warn("failed to mark job running", "jobId", job.ID, "error", err)
		}

		progress := &JobProgress{jobID: job.ID, jobRepo: s.jobRepo}
		result, err := fn(progress)
		if err != nil {
			logger.Error("job failed", "jobId", job.ID, "jobType", jobType, "error", err)
			if err := s.jobRepo.SetFailed(job.ID, err.Error()); err != nil {
				logger.Error("failed to record job failure", "jobId", job.ID, "error", err)
			}
			return
		}

		if err := s.jobRepo.SetCompleted(job.ID, result); err != nil {
			logger.Error("failed to record job completion", "jobId", job.ID, "error", err)
			return
		}
		logger.Info("job completed", "jobId", job.ID, "jobType", jobType)
	}()

	return job, nil
}

// Get 작업 상태 조회
func (s *JobService) Get(jobID string) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}
