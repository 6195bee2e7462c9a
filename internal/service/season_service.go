package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/internal/repository"
	"github.com/club-ladder/ladder-backend/pkg/logger"
)

// Season parameter bounds, enforced before any write.
const (
	seasonNameMaxLen = 100
	minKFactor       = 1
	maxKFactor       = 100
	minStartingELO   = 100
	maxStartingELO   = 3000
	minKBonus        = 0
	maxKBonus        = 100
)

// createState 시즌 생성 상태 머신의 단계
// Creation spans several independent transactions, so failures after the
// season row exists are unwound with explicit compensating deletes
// instead of a database rollback.
type createState string

const (
	stateValidating    createState = "validating"
	stateCreating      createState = "creating"
	stateInitializing  createState = "initializing"
	stateReassigning   createState = "reassigning"
	stateRecalculating createState = "recalculating"
	stateCommitted     createState = "committed"
	stateRolledBack    createState = "rolled_back"
)

// CreateSeasonInput 시즌 생성 요청 파라미터
type CreateSeasonInput struct {
	Name                 string    `json:"name"`
	Description          *string   `json:"description"`
	StartDate            time.Time `json:"startDate"`
	StartingELO          float64   `json:"startingElo"`
	KFactor              float64   `json:"kFactor"`
	BaseKFactor          *float64  `json:"baseKFactor"`
	NewPlayerKBonus      *float64  `json:"newPlayerKBonus"`
	NewPlayerBonusPeriod *int      `json:"newPlayerBonusPeriod"`
	ELOVersion           *string   `json:"eloVersion"`
	PlayerIDs            []string  `json:"playerIds"`
}

// SeasonService 시즌 수명주기 오케스트레이터
type SeasonService struct {
	db               txRunner
	seasonRepo       seasonStore
	matchRepo        matchStore
	playerRepo       playerStore
	playerSeasonRepo participationStore
	historyRepo      historyStore
	configRepo       configStore
	recalcService    seasonRecalculator
}

// NewSeasonService 시즌 서비스 생성
func NewSeasonService(
	db txRunner,
	seasonRepo seasonStore,
	matchRepo matchStore,
	playerRepo playerStore,
	playerSeasonRepo participationStore,
	historyRepo historyStore,
	configRepo configStore,
	recalcService seasonRecalculator,
) *SeasonService {
	return &SeasonService{
		db:               db,
		seasonRepo:       seasonRepo,
		matchRepo:        matchRepo,
		playerRepo:       playerRepo,
		playerSeasonRepo: playerSeasonRepo,
		historyRepo:      historyRepo,
		configRepo:       configRepo,
		recalcService:    recalcService,
	}
}

// validateCreateInput 시즌 생성 파라미터 검증 (순수 함수, 쓰기 전 호출)
func validateCreateInput(input CreateSeasonInput) error {
	if input.Name == "" || len(input.Name) > seasonNameMaxLen {
		return ErrSeasonNameEmpty
	}
	if input.StartDate.IsZero() {
		return ErrStartDateRequired
	}
	if input.KFactor < minKFactor || input.KFactor > maxKFactor {
		return ErrInvalidKFactor
	}
	if input.StartingELO < minStartingELO || input.StartingELO > maxStartingELO {
		return ErrInvalidStartingELO
	}

	// Dynamic K parameters are all-or-nothing.
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

// CreateSeason 시즌 생성: 검증 → 삽입+배타 활성화 → 참가 초기화 → 전체 재배정 → 재계산
// Every step after the insert runs in its own transaction; any failure
// from initialization onward deletes the participations and the season
// row that were created, then restores event assignments.
func (s *SeasonService) CreateSeason(ctx context.Context, input CreateSeasonInput) (*models.Season, error) {
	state := stateValidating

	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.seasonRepo.FindByName(input.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSeasonNameTaken
	}

	if input.ELOVersion != nil {
		cfg, err := s.configRepo.FindByVersion(*input.ELOVersion)
		if err != nil {
			return nil, err
		}
		if cfg == nil {
			return nil, ErrConfigNotFound
		}
	}

	// The exclusive activation below deactivates this season; a rollback
	// has to put it back.
	prevActive, err := s.seasonRepo.FindActive()
	if err != nil {
		return nil, err
	}

	// creating: season row + exclusive activation in one transaction
	state = stateCreating
	var season *models.Season
	err = s.db.WithTx(func(tx *sql.Tx) error {
		created, err := s.seasonRepo.CreateActiveTx(tx, &models.Season{
			Name:                 input.Name,
			Description:          input.Description,
			StartDate:            input.StartDate,
			StartingELO:          input.StartingELO,
			KFactor:              input.KFactor,
			BaseKFactor:          input.BaseKFactor,
			NewPlayerKBonus:      input.NewPlayerKBonus,
			NewPlayerBonusPeriod: input.NewPlayerBonusPeriod,
			ELOVersion:           input.ELOVersion,
		})
		if err != nil {
			return err
		}
		season = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create season: %w", err)
	}
	logger.Info("season created", "seasonId", season.ID, "name", season.Name, "state", state)

	runStep := func(next createState, fn func() error) error {
		state = next
		if err := fn(); err != nil {
			s.rollbackCreate(season, prevActive, state)
			state = stateRolledBack
			return fmt.Errorf("season creation failed at %s: %w", next, err)
		}
		return nil
	}

	// initializing: participations for the given players, or all active ones
	err = runStep(stateInitializing, func() error {
		playerIDs := input.PlayerIDs
		if len(playerIDs) == 0 {
			ids, err := s.playerRepo.ListActiveIDs()
			if err != nil {
				return err
			}
			playerIDs = ids
		}
		created, err := s.playerSeasonRepo.BulkCreate(season.ID, playerIDs, season.StartingELO)
		if err != nil {
			return err
		}
		logger.Info("season participations initialized", "seasonId", season.ID, "players", created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// reassigning: a backdated season can reclaim events from later ones,
	// so assignment runs globally.
	err = runStep(stateReassigning, func() error {
		return s.reassignEvents()
	})
	if err != nil {
		return nil, err
	}

	// recalculating: this season and every later one, ascending
	err = runStep(stateRecalculating, func() error {
		_, err := s.recalcService.RecalculateSeasonsFrom(ctx, season.ID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	state = stateCommitted
	logger.Info("season creation committed", "seasonId", season.ID, "state", state)
	return season, nil
}

// rollbackCreate 생성 실패 시 보상 삭제
// Intermediate states stay visible to concurrent readers until this
// completes; cleanup failures are logged, not returned.
func (s *SeasonService) rollbackCreate(season, prevActive *models.Season, failedAt createState) {
	logger.Warn("rolling back season creation", "seasonId", season.ID, "failedAt", string(failedAt))

	if err := s.playerSeasonRepo.DeleteBySeason(season.ID); err != nil {
		logger.Error("rollback: failed to delete participations", "seasonId", season.ID, "error", err)
	}
	if err := s.seasonRepo.Delete(season.ID); err != nil {
		logger.Error("rollback: failed to delete season", "seasonId", season.ID, "error", err)
	}
	// The exclusive activation deactivated the previously active season;
	// restore it so the system is not left without an active season.
	if prevActive != nil {
		if err := s.seasonRepo.Activate(prevActive.ID); err != nil {
			logger.Error("rollback: failed to restore active season", "seasonId", prevActive.ID, "error", err)
		}
	}
	// Events the new season had claimed go back to their previous owners.
	if err := s.reassignEvents(); err != nil {
		logger.Error("rollback: failed to restore event assignments", "seasonId", season.ID, "error", err)
	}
}

// reassignEvents 전체 이벤트를 시작일 기준으로 시즌에 재배정
// Events older than every season end up unassigned; that is logged as a
// warning and never treated as an error.
func (s *SeasonService) reassignEvents() error {
	affected, err := s.matchRepo.ReassignAll()
	if err != nil {
		return fmt.Errorf("failed to reassign events: %w", err)
	}

	orphans, err := s.matchRepo.CountOrphanGames()
	if err != nil {
		return err
	}
	if orphans > 0 {
		logger.Warn("games predate every season and stay unassigned", "count", orphans)
	}

	logger.Info("event reassignment complete", "updated", affected, "orphans", orphans)
	return nil
}

// ReassignEvents 관리자용 수동 재배정
func (s *SeasonService) ReassignEvents() error {
	return s.reassignEvents()
}

// DeleteSeason 시즌 삭제
// The season's events move to the chronologically nearest preceding
// season; without a predecessor, a season that still owns events cannot
// be deleted. The move and all deletes commit atomically; affected
// seasons are recalculated afterwards.
func (s *SeasonService) DeleteSeason(ctx context.Context, seasonID string) error {
	season, err := s.seasonRepo.FindByID(seasonID)
	if err != nil {
		return err
	}
	if season == nil {
		return ErrSeasonNotFound
	}

	predecessor, err := s.seasonRepo.FindPreceding(season.StartDate)
	if err != nil {
		return err
	}

	if predecessor == nil {
		gameCount, err := s.matchRepo.CountSeasonGames(seasonID)
		if err != nil {
			return err
		}
		if gameCount > 0 {
			return ErrSeasonHasStrandedGames
		}
	}

	err = s.db.WithTx(func(tx *sql.Tx) error {
		if predecessor != nil {
			if err := s.matchRepo.MoveSeasonGamesTx(tx, seasonID, predecessor.ID); err != nil {
				return err
			}
		}
		if err := s.historyRepo.DeleteBySeasonTx(tx, seasonID); err != nil {
			return err
		}
		if err := s.playerSeasonRepo.DeleteBySeasonTx(tx, seasonID); err != nil {
			return err
		}
		return s.seasonRepo.DeleteTx(tx, seasonID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete season: %w", err)
	}

	logger.Info("season deleted", "seasonId", seasonID, "name", season.Name)

	if predecessor != nil {
		if _, err := s.recalcService.RecalculateSeasonsFrom(ctx, predecessor.ID, nil); err != nil {
			return fmt.Errorf("season deleted but recalculation failed: %w", err)
		}
	}

	return nil
}

// ActivateSeason 배타적 활성화 스왑
func (s *SeasonService) ActivateSeason(seasonID string) error {
	season, err := s.seasonRepo.FindByID(seasonID)
	if err != nil {
		return err
	}
	if season == nil {
		return ErrSeasonNotFound
	}
	return s.seasonRepo.Activate(seasonID)
}

// GetSeason 시즌 조회
func (s *SeasonService) GetSeason(seasonID string) (*models.Season, error) {
	season, err := s.seasonRepo.FindByID(seasonID)
	if err != nil {
		return nil, err
	}
	if season == nil {
		return nil, ErrSeasonNotFound
	}
	return season, nil
}

// GetActiveSeason 활성 시즌 조회
func (s *SeasonService) GetActiveSeason() (*models.Season, error) {
	season, err := s.seasonRepo.FindActive()
	if err != nil {
		return nil, err
	}
	if season == nil {
		return nil, ErrSeasonNotFound
	}
	return season, nil
}

// ListSeasons 전체 시즌 목록
func (s *SeasonService) ListSeasons() ([]*models.Season, error) {
	return s.seasonRepo.List()
}

// SetSeasonELOVersion 시즌의 설정 참조 변경 후 해당 시즌부터 재계산
func (s *SeasonService) SetSeasonELOVersion(ctx context.Context, seasonID string, version *string) error {
	season, err := s.seasonRepo.FindByID(seasonID)
	if err != nil {
		return err
	}
	if season == nil {
		return ErrSeasonNotFound
	}

	if version != nil {
		cfg, err := s.configRepo.FindByVersion(*version)
		if err != nil {
			return err
		}
		if cfg == nil {
			return ErrConfigNotFound
		}
	}

	if err := s.seasonRepo.UpdateELOVersion(seasonID, version); err != nil {
		return err
	}

	_, err = s.recalcService.RecalculateSeason(ctx, seasonID, nil)
	return err
}

// AddPlayer 시즌 멤버십 추가 (is_included=true)
func (s *SeasonService) AddPlayer(seasonID, playerID string) error {
	return s.setMembership(seasonID, playerID, true)
}

// RemovePlayer 시즌 멤버십 제외 (행은 남기고 is_included=false)
func (s *SeasonService) RemovePlayer(seasonID, playerID string) error {
	return s.setMembership(seasonID, playerID, false)
}

func (s *SeasonService) setMembership(seasonID, playerID string, included bool) error {
	season, err := s.seasonRepo.FindByID(seasonID)
	if err != nil {
		return err
	}
	if season == nil {
		return ErrSeasonNotFound
	}

	player, err := s.playerRepo.FindByID(playerID)
	if err != nil {
		return err
	}
	if player == nil {
		return ErrPlayerNotFound
	}

	if err := s.playerSeasonRepo.SetIncluded(playerID, seasonID, included, season.StartingELO); err != nil {
		return err
	}

	logger.Info("season membership updated",
		"seasonId", seasonID, "playerId", playerID, "included", included)
	return nil
}

// ListSeasonPlayers 시즌 참가자 목록
func (s *SeasonService) ListSeasonPlayers(seasonID string) ([]repository.SeasonPlayer, error) {
	season, err := s.seasonRepo.FindByID(seasonID)
	if err != nil {
		return nil, err
	}
	if season == nil {
		return nil, ErrSeasonNotFound
	}
	return s.playerSeasonRepo.ListSeasonPlayers(seasonID)
}

// Leaderboard 시즌 리더보드 (레이팅 내림차순, is_included=true만)
func (s *SeasonService) Leaderboard(seasonID string) ([]repository.LeaderboardEntry, error) {
	season, err := s.seasonRepo.FindByID(seasonID)
	if err != nil {
		return nil, err
	}
	if season == nil {
		return nil, ErrSeasonNotFound
	}
	return s.playerSeasonRepo.Leaderboard(seasonID)
}
