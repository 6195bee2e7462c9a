package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/club-ladder/ladder-backend/internal/service"
	"github.com/gin-gonic/gin"
)

type ELOConfigHandler struct {
	configService *service.RatingConfigService
	recalcService *service.RecalcService
	jobService    *service.JobService
}

func NewELOConfigHandler(
	configService *service.RatingConfigService,
	recalcService *service.RecalcService,
	jobService *service.JobService,
) *ELOConfigHandler {
	return &ELOConfigHandler{
		configService: configService,
		recalcService: recalcService,
		jobService:    jobService,
	}
}

// ListConfigs 레이팅 설정 목록
func (h *ELOConfigHandler) ListConfigs(c *gin.Context) {
	configs, err := h.configService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get rating configurations",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"configs": configs,
		"total":   len(configs),
	})
}

// GetConfig 레이팅 설정 조회
func (h *ELOConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configService.Get(c.Param("version"))
	if err != nil {
		if errors.Is(err, service.ErrConfigNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rating configuration not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get rating configuration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// CreateConfig 레이팅 설정 생성
func (h *ELOConfigHandler) CreateConfig(c *gin.Context) {
	var input service.RatingConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.configService.Create(input)
	if err != nil {
		switch {
		case isValidationErr(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrConfigNameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "Rating configuration version already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create rating configuration"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"config": cfg})
}

// UpdateConfig 레이팅 설정 수정 (활성 설정 불가)
func (h *ELOConfigHandler) UpdateConfig(c *gin.Context) {
	var input service.RatingConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.configService.Update(c.Param("version"), input)
	if err != nil {
		switch {
		case isValidationErr(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrConfigNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Rating configuration not found"})
		case errors.Is(err, service.ErrConfigActive):
			c.JSON(http.StatusConflict, gin.H{"error": "Cannot modify the active rating configuration"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update rating configuration"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// DeleteConfig 레이팅 설정 삭제 (활성 설정 불가)
func (h *ELOConfigHandler) DeleteConfig(c *gin.Context) {
	err := h.configService.Delete(c.Param("version"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConfigNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Rating configuration not found"})
		case errors.Is(err, service.ErrConfigActive):
			c.JSON(http.StatusConflict, gin.H{"error": "Cannot delete the active rating configuration"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete rating configuration"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rating configuration deleted"})
}

// ActivateConfig 배타적 활성화
func (h *ELOConfigHandler) ActivateConfig(c *gin.Context) {
	err := h.configService.Activate(c.Param("version"))
	if err != nil {
		if errors.Is(err, service.ErrConfigNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rating configuration not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate rating configuration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rating configuration activated"})
}

// RecalculateAll 활성 설정 기준 전체 기간 재계산 디스패치
func (h *ELOConfigHandler) RecalculateAll(c *gin.Context) {
	job, err := h.jobService.Run("all_time_recalculation", func(progress *service.JobProgress) (interface{}, error) {
		return h.recalcService.RecalculateAllTime(context.Background(), progress.Report)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start recalculation"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job": job})
}
