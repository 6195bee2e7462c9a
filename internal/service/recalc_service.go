package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/pkg/distributed"
	"github.com/club-ladder/ladder-backend/pkg/logger"
)

// RecalcSummary 한 시즌 재계산 결과 요약 (작업 result_data로 직렬화)
type RecalcSummary struct {
	SeasonID     string `json:"seasonId"`
	SeasonName   string `json:"seasonName"`
	Version      string `json:"version"`
	Players      int    `json:"players"`
	GamesPlayed  int    `json:"gamesPlayed"`
	GamesSkipped int    `json:"gamesSkipped"`
	LedgerRows   int    `json:"ledgerRows"`
}

// RecalcService 시즌 레이팅 재계산 서비스
// Derived state (participation stats, rating ledger) is thrown away and
// rebuilt from the season's games; source records are never touched.
type RecalcService struct {
	db               txRunner
	elo              *ELOService
	seasonRepo       seasonStore
	matchRepo        matchStore
	playerRepo       playerStore
	playerSeasonRepo participationStore
	historyRepo      historyStore
	configRepo       configStore
	lockMgr          *distributed.RecalcLockManager // nil when Redis is not configured
}

// NewRecalcService 재계산 서비스 생성. lockMgr may be nil.
func NewRecalcService(
	db txRunner,
	elo *ELOService,
	seasonRepo seasonStore,
	matchRepo matchStore,
	playerRepo playerStore,
	playerSeasonRepo participationStore,
	historyRepo historyStore,
	configRepo configStore,
	lockMgr *distributed.RecalcLockManager,
) *RecalcService {
	return &RecalcService{
		db:               db,
		elo:              elo,
		seasonRepo:       seasonRepo,
		matchRepo:        matchRepo,
		playerRepo:       playerRepo,
		playerSeasonRepo: playerSeasonRepo,
		historyRepo:      historyRepo,
		configRepo:       configRepo,
		lockMgr:          lockMgr,
	}
}

// resolveParams determines the effective rating parameters for a season.
// A season referencing a named configuration uses that configuration's
// parameters and version tag; a dangling reference logs a warning and
// falls back to the season's own embedded parameters.
func (s *RecalcService) resolveParams(season *models.Season) (models.RatingParams, error) {
	if season.ELOVersion == nil {
		return season.RatingParams(), nil
	}

	cfg, err := s.configRepo.FindByVersion(*season.ELOVersion)
	if err != nil {
		return models.RatingParams{}, fmt.Errorf("failed to resolve rating configuration: %w", err)
	}
	if cfg == nil {
		logger.Warn("season references a missing rating configuration, using season parameters",
			"seasonId", season.ID,
			"eloVersion", *season.ELOVersion,
		)
		return season.RatingParams(), nil
	}

	return cfg.RatingParams(), nil
}

// RecalculateSeason 시즌 하나를 처음부터 다시 계산
// Holds the season-scoped advisory lock (when configured) for the whole
// run, replays every game in order, then swaps the ledger and stats in a
// single transaction. onProgress, if non-nil, receives (done, total).
func (s *RecalcService) RecalculateSeason(ctx context.Context, seasonID string, onProgress func(done, total int)) (*RecalcSummary, error) {
	if s.lockMgr != nil {
		lock, err := s.lockMgr.AcquireSeasonLock(ctx, seasonID)
		if err != nil {
			if errors.Is(err, distributed.ErrLockNotAcquired) {
				return nil, ErrRecalcInProgress
			}
			return nil, fmt.Errorf("failed to acquire recalculation lock: %w", err)
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				logger.Warn("failed to release recalculation lock", "seasonId", seasonID, "error", err)
			}
		}()
	}

	return s.recalculateSeasonLocked(seasonID, onProgress)
}

// recalculateSeasonLocked 락을 이미 보유한 상태에서의 재계산 본체
func (s *RecalcService) recalculateSeasonLocked(seasonID string, onProgress func(done, total int)) (*RecalcSummary, error) {
	season, err := s.seasonRepo.FindByID(seasonID)
	if err != nil {
		return nil, err
	}
	if season == nil {
		return nil, ErrSeasonNotFound
	}

	params, err := s.resolveParams(season)
	if err != nil {
		return nil, err
	}

	memberIDs, err := s.playerSeasonRepo.ListPlayerIDs(seasonID)
	if err != nil {
		return nil, err
	}

	games, err := s.matchRepo.ListSeasonGames(seasonID)
	if err != nil {
		return nil, err
	}

	logger.Info("recalculating season",
		"seasonId", seasonID,
		"seasonName", season.Name,
		"version", params.VersionTag,
		"players", len(memberIDs),
		"games", len(games),
	)

	total := len(games)
	result := replayGames(s.elo, games, memberIDs, params, &season.ID, func(done int) {
		if onProgress != nil {
			onProgress(done, total)
		}
	})

	ledger := make([]models.ELOHistory, len(result.Ledger))
	for i, row := range result.Ledger {
		ledger[i] = *row
	}

	err = s.db.WithTx(func(tx *sql.Tx) error {
		if err := s.historyRepo.DeleteBySeasonTx(tx, seasonID); err != nil {
			return err
		}
		if err := s.historyRepo.BulkInsertTx(tx, ledger); err != nil {
			return err
		}
		for playerID, standing := range result.Standings {
			if err := s.playerSeasonRepo.UpdateStatsTx(tx, playerID, seasonID,
				standing.ELO, standing.GamesPlayed, standing.Wins, standing.Losses); err != nil {
				return err
			}
			// The active season's standings are also the players'
			// global ratings.
			if season.IsActive {
				if err := s.playerRepo.UpdateRatingTx(tx, playerID, standing.ELO); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist recalculation: %w", err)
	}

	summary := &RecalcSummary{
		SeasonID:     seasonID,
		SeasonName:   season.Name,
		Version:      params.VersionTag,
		Players:      len(memberIDs),
		GamesPlayed:  result.GamesPlayed,
		GamesSkipped: result.GamesSkipped,
		LedgerRows:   len(ledger),
	}

	logger.Info("season recalculation complete",
		"seasonId", seasonID,
		"gamesPlayed", summary.GamesPlayed,
		"gamesSkipped", summary.GamesSkipped,
	)

	return summary, nil
}

// RecalculateSeasonsFrom 주어진 시즌부터 시작일 오름차순으로 이후 시즌 전부 재계산
// Season boundaries moved by a creation or deletion can shift games
// between this season and every later one, so they all get rebuilt.
func (s *RecalcService) RecalculateSeasonsFrom(ctx context.Context, seasonID string, onProgress func(done, total int)) ([]*RecalcSummary, error) {
	start, err := s.seasonRepo.FindByID(seasonID)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, ErrSeasonNotFound
	}

	seasons, err := s.seasonRepo.ListFrom(start.StartDate)
	if err != nil {
		return nil, err
	}

	summaries := make([]*RecalcSummary, 0, len(seasons))
	for i, season := range seasons {
		summary, err := s.RecalculateSeason(ctx, season.ID, nil)
		if err != nil {
			return summaries, fmt.Errorf("failed to recalculate season %s: %w", season.Name, err)
		}
		summaries = append(summaries, summary)
		if onProgress != nil {
			onProgress(i+1, len(seasons))
		}
	}

	return summaries, nil
}

// RecalculateAllTime 시즌과 무관한 전체 기간 레이팅 재계산
// Replays every recorded game under the active rating configuration and
// rewrites players.current_elo plus that configuration's ledger rows.
// Season standings are untouched.
func (s *RecalcService) RecalculateAllTime(ctx context.Context, onProgress func(done, total int)) (*RecalcSummary, error) {
	if s.lockMgr != nil {
		lock, err := s.lockMgr.AcquireGlobalLock(ctx)
		if err != nil {
			if errors.Is(err, distributed.ErrLockNotAcquired) {
				return nil, ErrRecalcInProgress
			}
			return nil, fmt.Errorf("failed to acquire recalculation lock: %w", err)
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				logger.Warn("failed to release global recalculation lock", "error", err)
			}
		}()
	}

	cfg, err := s.configRepo.FindActive()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrConfigNotFound
	}
	params := cfg.RatingParams()

	playerIDs, err := s.playerRepo.ListActiveIDs()
	if err != nil {
		return nil, err
	}

	games, err := s.matchRepo.ListAllGames()
	if err != nil {
		return nil, err
	}

	logger.Info("recalculating all-time ratings",
		"version", params.VersionTag,
		"players", len(playerIDs),
		"games", len(games),
	)

	total := len(games)
	result := replayGames(s.elo, games, playerIDs, params, nil, func(done int) {
		if onProgress != nil {
			onProgress(done, total)
		}
	})

	ledger := make([]models.ELOHistory, len(result.Ledger))
	for i, row := range result.Ledger {
		ledger[i] = *row
	}

	err = s.db.WithTx(func(tx *sql.Tx) error {
		if err := s.historyRepo.DeleteByVersionTx(tx, params.VersionTag); err != nil {
			return err
		}
		if err := s.historyRepo.BulkInsertTx(tx, ledger); err != nil {
			return err
		}
		for playerID, standing := range result.Standings {
			if err := s.playerRepo.UpdateRatingTx(tx, playerID, standing.ELO); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist recalculation: %w", err)
	}

	return &RecalcSummary{
		Version:      params.VersionTag,
		Players:      len(playerIDs),
		GamesPlayed:  result.GamesPlayed,
		GamesSkipped: result.GamesSkipped,
		LedgerRows:   len(ledger),
	}, nil
}
