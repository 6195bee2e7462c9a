package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/club-ladder/ladder-backend/internal/service"
	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	matchService *service.MatchService
}

func NewMatchHandler(matchService *service.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
	}
}

// RecordMatch 매치 기록
func (h *MatchHandler) RecordMatch(c *gin.Context) {
	var input service.RecordMatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	match, err := h.matchService.RecordMatch(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSamePlayer),
			errors.Is(err, service.ErrNoGames),
			errors.Is(err, service.ErrInvalidWinner),
			errors.Is(err, service.ErrTimestampInFuture):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrPlayerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
		case errors.Is(err, service.ErrNoSeasonForTimestamp):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "No season covers the match timestamp",
			})
		case errors.Is(err, service.ErrPlayerNotInSeason):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Player is not a member of the season",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record match"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"match": match,
	})
}

// ListMatches 매치 목록 (페이지네이션)
func (h *MatchHandler) ListMatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if page < 1 {
		page = 1
	}

	matches, total, err := h.matchService.ListMatches(pageSize, (page-1)*pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get matches",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches":  matches,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// GetMatch 매치 상세 (게임별 레이팅 변동 포함)
func (h *MatchHandler) GetMatch(c *gin.Context) {
	detail, err := h.matchService.GetMatch(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get match"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"match": detail.Match,
		"games": detail.Games,
	})
}

// DeleteMatch 매치 삭제 후 시즌 재계산
func (h *MatchHandler) DeleteMatch(c *gin.Context) {
	err := h.matchService.DeleteMatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete match"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Match deleted"})
}
