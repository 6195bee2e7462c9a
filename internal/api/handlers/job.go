package handlers

import (
	"errors"
	"net/http"

	"github.com/club-ladder/ladder-backend/internal/service"
	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	jobService *service.JobService
}

func NewJobHandler(jobService *service.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// GetJob 작업 상태 폴링
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobService.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}
