package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/club-ladder/ladder-backend/internal/service"
	"github.com/gin-gonic/gin"
)

type PlayerHandler struct {
	playerService *service.PlayerService
}

func NewPlayerHandler(playerService *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: playerService}
}

// ListPlayers 플레이어 목록 (전체 레이팅 내림차순)
func (h *PlayerHandler) ListPlayers(c *gin.Context) {
	players, err := h.playerService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get players",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"players": players,
		"total":   len(players),
	})
}

// GetPlayer 플레이어 조회
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	player, err := h.playerService.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get player"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"player": player})
}

// GetRatingHistory 플레이어 레이팅 히스토리 (차트용, 시즌 필터 선택)
func (h *PlayerHandler) GetRatingHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var seasonID *string
	if s := c.Query("seasonId"); s != "" {
		seasonID = &s
	}

	page, err := h.playerService.RatingHistory(c.Param("id"), seasonID, limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get rating history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": page.Entries,
		"total":   page.Total,
		"limit":   limit,
		"offset":  offset,
	})
}
