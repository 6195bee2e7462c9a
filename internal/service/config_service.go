package service

import (
	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/internal/repository"
	"github.com/club-ladder/ladder-backend/pkg/logger"
)

// RatingConfigInput 레이팅 설정 생성/수정 파라미터
type RatingConfigInput struct {
	VersionName          string   `json:"versionName"`
	KFactor              float64  `json:"kFactor"`
	StartingELO          float64  `json:"startingElo"`
	BaseKFactor          *float64 `json:"baseKFactor"`
	NewPlayerKBonus      *float64 `json:"newPlayerKBonus"`
	NewPlayerBonusPeriod *int     `json:"newPlayerBonusPeriod"`
	Description          *string  `json:"description"`
}

// RatingConfigService 이름 있는 레이팅 설정 관리
// Configurations share one parameter shape with seasons and go through
// the same validation; the active one is the default for all-time
// recalculation and cannot be edited in place.
type RatingConfigService struct {
	configRepo *repository.RatingConfigRepository
}

// NewRatingConfigService 설정 서비스 생성
func NewRatingConfigService(configRepo *repository.RatingConfigRepository) *RatingConfigService {
	return &RatingConfigService{configRepo: configRepo}
}

func validateConfigInput(input RatingConfigInput) error {
	if input.VersionName == "" || len(input.VersionName) > seasonNameMaxLen {
		return ErrSeasonNameEmpty
	}
	if input.KFactor < minKFactor || input.KFactor > maxKFactor {
		return ErrInvalidKFactor
	}
	if input.StartingELO < minStartingELO || input.StartingELO > maxStartingELO {
		return ErrInvalidStartingELO
	}

	hasBase := input.BaseKFactor != nil
	hasBonus := input.NewPlayerKBonus != nil
	hasPeriod := input.NewPlayerBonusPeriod != nil
	if hasBase != hasBonus || hasBonus != hasPeriod {
		return ErrIncompleteDynamicK
	}
	if hasBase {
		if *input.BaseKFactor < minKFactor || *input.BaseKFactor > maxKFactor {
			return ErrInvalidKFactor
		}
		if *input.NewPlayerKBonus < minKBonus || *input.NewPlayerKBonus > maxKBonus {
			return ErrInvalidKBonus
		}
		if *input.NewPlayerBonusPeriod <= 0 {
			return ErrIncompleteDynamicK
		}
	}
	return nil
}

// Create 설정 생성
func (s *RatingConfigService) Create(input RatingConfigInput) (*models.RatingConfig, error) {
	if err := validateConfigInput(input); err != nil {
		return nil, err
	}

	existing, err := s.configRepo.FindByVersion(input.VersionName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConfigNameTaken
	}

	cfg, err := s.configRepo.Create(&models.RatingConfig{
		VersionName:          input.VersionName,
		KFactor:              input.KFactor,
		StartingELO:          input.StartingELO,
		BaseKFactor:          input.BaseKFactor,
		NewPlayerKBonus:      input.NewPlayerKBonus,
		NewPlayerBonusPeriod: input.NewPlayerBonusPeriod,
		Description:          input.Description,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("rating configuration created", "version", cfg.VersionName)
	return cfg, nil
}

// Update 설정 수정 (활성 설정은 불변)
func (s *RatingConfigService) Update(version string, input RatingConfigInput) (*models.RatingConfig, error) {
	input.VersionName = version
	if err := validateConfigInput(input); err != nil {
		return nil, err
	}

	existing, err := s.configRepo.FindByVersion(version)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrConfigNotFound
	}
	if existing.IsActive {
		return nil, ErrConfigActive
	}

	return s.configRepo.Update(version, &models.RatingConfig{
		KFactor:              input.KFactor,
		StartingELO:          input.StartingELO,
		BaseKFactor:          input.BaseKFactor,
		NewPlayerKBonus:      input.NewPlayerKBonus,
		NewPlayerBonusPeriod: input.NewPlayerBonusPeriod,
		Description:          input.Description,
	})
}

// Delete 설정 삭제 (활성 설정은 불가)
func (s *RatingConfigService) Delete(version string) error {
	existing, err := s.configRepo.FindByVersion(version)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrConfigNotFound
	}
	if existing.IsActive {
		return ErrConfigActive
	}

	if _, err := s.configRepo.Delete(version); err != nil {
		return err
	}
	logger.Info("rating configuration deleted", "version", version)
	return nil
}

// Activate 배타적 활성화
func (s *RatingConfigService) Activate(version string) error {
	existing, err := s.configRepo.FindByVersion(version)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrConfigNotFound
	}

	if err := s.configRepo.Activate(version); err != nil {
		return err
	}
	logger.Info("rating configuration activated", "version", version)
	return nil
}

// Get 설정 조회
func (s *RatingConfigService) Get(version string) (*models.RatingConfig, error) {
	cfg, err := s.configRepo.FindByVersion(version)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrConfigNotFound
	}
	return cfg, nil
}

// List 설정 목록
func (s *RatingConfigService) List() ([]*models.RatingConfig, error) {
	return s.configRepo.List()
}
