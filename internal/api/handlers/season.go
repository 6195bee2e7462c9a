package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/club-ladder/ladder-backend/internal/service"
	"github.com/gin-gonic/gin"
)

type SeasonHandler struct {
	seasonService *service.SeasonService
	recalcService *service.RecalcService
	jobService    *service.JobService
}

func NewSeasonHandler(
	seasonService *service.SeasonService,
	recalcService *service.RecalcService,
	jobService *service.JobService,
) *SeasonHandler {
	return &SeasonHandler{
		seasonService: seasonService,
		recalcService: recalcService,
		jobService:    jobService,
	}
}

// validationErr 검증 계열 에러인지 판단 (400으로 응답)
func isValidationErr(err error) bool {
	for _, target := range []error{
		service.ErrSeasonNameEmpty,
		service.ErrStartDateRequired,
		service.ErrInvalidKFactor,
		service.ErrInvalidKBonus,
		service.ErrInvalidStartingELO,
		service.ErrIncompleteDynamicK,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// CreateSeason 시즌 생성 (검증, 배타 활성화, 재배정, 재계산까지 동기 수행)
func (h *SeasonHandler) CreateSeason(c *gin.Context) {
	var input service.CreateSeasonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	season, err := h.seasonService.CreateSeason(c.Request.Context(), input)
	if err != nil {
		switch {
		case isValidationErr(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSeasonNameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "Season name already exists"})
		case errors.Is(err, service.ErrConfigNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Rating configuration not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create season"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"season": season,
	})
}

// ListSeasons 시즌 목록
func (h *SeasonHandler) ListSeasons(c *gin.Context) {
	seasons, err := h.seasonService.ListSeasons()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get seasons",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"seasons": seasons,
		"total":   len(seasons),
	})
}

// GetActiveSeason 활성 시즌 조회
func (h *SeasonHandler) GetActiveSeason(c *gin.Context) {
	season, err := h.seasonService.GetActiveSeason()
	if err != nil {
		if errors.Is(err, service.ErrSeasonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active season"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get active season"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"season": season})
}

// GetSeason 시즌 조회
func (h *SeasonHandler) GetSeason(c *gin.Context) {
	season, err := h.seasonService.GetSeason(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSeasonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get season"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"season": season})
}

// DeleteSeason 시즌 삭제 (이벤트는 직전 시즌으로 이동)
func (h *SeasonHandler) DeleteSeason(c *gin.Context) {
	err := h.seasonService.DeleteSeason(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSeasonNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
		case errors.Is(err, service.ErrSeasonHasStrandedGames):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Season has games and no preceding season to absorb them",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete season"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Season deleted"})
}

// ActivateSeason 배타적 활성화
func (h *SeasonHandler) ActivateSeason(c *gin.Context) {
	err := h.seasonService.ActivateSeason(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSeasonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate season"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Season activated"})
}

// SetELOVersion 시즌의 설정 참조 변경 후 재계산
func (h *SeasonHandler) SetELOVersion(c *gin.Context) {
	var req struct {
		ELOVersion *string `json:"eloVersion"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.seasonService.SetSeasonELOVersion(c.Request.Context(), c.Param("id"), req.ELOVersion)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSeasonNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
		case errors.Is(err, service.ErrConfigNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Rating configuration not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update season"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Season rating configuration updated"})
}

// RecalculateSeason 백그라운드 시즌 재계산 디스패치
// Responds immediately with a job id the caller polls.
func (h *SeasonHandler) RecalculateSeason(c *gin.Context) {
	seasonID := c.Param("id")

	// Fail fast on unknown seasons before dispatching.
	if _, err := h.seasonService.GetSeason(seasonID); err != nil {
		if errors.Is(err, service.ErrSeasonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get season"})
		return
	}

	// The job outlives this request, so it gets its own context.
	job, err := h.jobService.Run("season_recalculation", func(progress *service.JobProgress) (interface{}, error) {
		return h.recalcService.RecalculateSeason(context.Background(), seasonID, progress.Report)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start recalculation"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

// ReassignEvents 전체 이벤트 수동 재배정
func (h *SeasonHandler) ReassignEvents(c *gin.Context) {
	if err := h.seasonService.ReassignEvents(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reassign events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Events reassigned"})
}

// ListSeasonPlayers 시즌 참가자 목록
func (h *SeasonHandler) ListSeasonPlayers(c *gin.Context) {
	players, err := h.seasonService.ListSeasonPlayers(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSeasonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get season players"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"players": players,
		"total":   len(players),
	})
}

// AddSeasonPlayer 시즌 멤버십 추가
func (h *SeasonHandler) AddSeasonPlayer(c *gin.Context) {
	err := h.seasonService.AddPlayer(c.Param("id"), c.Param("playerId"))
	if err != nil {
		h.respondMembershipErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Player added to season"})
}

// RemoveSeasonPlayer 시즌 멤버십 제외
func (h *SeasonHandler) RemoveSeasonPlayer(c *gin.Context) {
	err := h.seasonService.RemovePlayer(c.Param("id"), c.Param("playerId"))
	if err != nil {
		h.respondMembershipErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Player removed from season"})
}

func (h *SeasonHandler) respondMembershipErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSeasonNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
	case errors.Is(err, service.ErrPlayerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update membership"})
	}
}

// GetLeaderboard 시즌 리더보드
func (h *SeasonHandler) GetLeaderboard(c *gin.Context) {
	entries, err := h.seasonService.Leaderboard(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSeasonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": entries,
		"total":       len(entries),
	})
}
