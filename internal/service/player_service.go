package service

import (
	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/internal/repository"
)

// RatingHistoryPage 플레이어 레이팅 히스토리 페이지 (차트용)
type RatingHistoryPage struct {
	Entries []*models.ELOHistory `json:"entries"`
	Total   int64                `json:"total"`
}

// PlayerService 플레이어 조회 및 레이팅 히스토리 서비스
type PlayerService struct {
	playerRepo  *repository.PlayerRepository
	historyRepo *repository.ELOHistoryRepository
}

// NewPlayerService 플레이어 서비스 생성
func NewPlayerService(playerRepo *repository.PlayerRepository, historyRepo *repository.ELOHistoryRepository) *PlayerService {
	return &PlayerService{playerRepo: playerRepo, historyRepo: historyRepo}
}

// Get 플레이어 조회
func (s *PlayerService) Get(playerID string) (*models.Player, error) {
	player, err := s.playerRepo.FindByID(playerID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}

// List 플레이어 목록 (전체 레이팅 내림차순)
func (s *PlayerService) List() ([]*models.Player, error) {
	return s.playerRepo.List()
}

// RatingHistory 플레이어 레이팅 히스토리 (시즌 필터 선택, 페이지네이션)
func (s *PlayerService) RatingHistory(playerID string, seasonID *string, limit, offset int) (*RatingHistoryPage, error) {
	player, err := s.playerRepo.FindByID(playerID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.historyRepo.ListByPlayer(playerID, seasonID, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := s.historyRepo.CountByPlayer(playerID, seasonID)
	if err != nil {
		return nil, err
	}

	return &RatingHistoryPage{Entries: entries, Total: total}, nil
}
