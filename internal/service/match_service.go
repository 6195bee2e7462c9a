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

// gameTimestampStep 멀티게임 매치에서 게임 간 간격
// The last game lands on submitted_at; earlier games step backwards.
const gameTimestampStep = 5 * time.Minute

// futureSlack 시계 오차 허용치
const futureSlack = time.Minute

// RecordMatchInput 매치 기록 요청
// Winners is the ordered per-game result; SubmittedAt defaults to now.
type RecordMatchInput struct {
	Player1ID   string              `json:"player1Id"`
	Player2ID   string              `json:"player2Id"`
	Winners     []models.GameWinner `json:"winners"`
	SubmittedAt *time.Time          `json:"submittedAt"`
}

// MatchDetail 매치와 게임별 레이팅 변동
type MatchDetail struct {
	Match *models.Match         `json:"match"`
	Games []repository.GamePair `json:"games"`
}

// MatchService 매치 기록/조회/삭제 서비스
type MatchService struct {
	db               txRunner
	elo              *ELOService
	seasonRepo       seasonStore
	matchRepo        matchStore
	playerRepo       playerStore
	playerSeasonRepo participationStore
	historyRepo      historyStore
	recalcService    seasonRecalculator
}

// NewMatchService 매치 서비스 생성
func NewMatchService(
	db txRunner,
	elo *ELOService,
	seasonRepo seasonStore,
	matchRepo matchStore,
	playerRepo playerStore,
	playerSeasonRepo participationStore,
	historyRepo historyStore,
	recalcService seasonRecalculator,
) *MatchService {
	return &MatchService{
		db:               db,
		elo:              elo,
		seasonRepo:       seasonRepo,
		matchRepo:        matchRepo,
		playerRepo:       playerRepo,
		playerSeasonRepo: playerSeasonRepo,
		historyRepo:      historyRepo,
		recalcService:    recalcService,
	}
}

// RecordMatch 매치 기록
// The owning season is derived from submitted_at, never chosen by the
// caller. A match landing at the head of the active season is applied
// incrementally under row locks; a backdated match is inserted and its
// season is recalculated from scratch.
func (s *MatchService) RecordMatch(ctx context.Context, input RecordMatchInput) (*models.Match, error) {
	if input.Player1ID == input.Player2ID {
		return nil, ErrSamePlayer
	}
	if len(input.Winners) == 0 {
		return nil, ErrNoGames
	}
	for _, w := range input.Winners {
		if !w.Valid() {
			return nil, ErrInvalidWinner
		}
	}

	for _, id := range []string{input.Player1ID, input.Player2ID} {
		player, err := s.playerRepo.FindByID(id)
		if err != nil {
			return nil, err
		}
		if player == nil {
			return nil, ErrPlayerNotFound
		}
	}

	submittedAt := time.Now().UTC()
	if input.SubmittedAt != nil {
		submittedAt = input.SubmittedAt.UTC()
	}
	if submittedAt.After(time.Now().Add(futureSlack)) {
		return nil, ErrTimestampInFuture
	}

	season, err := s.seasonRepo.FindSeasonFor(submittedAt)
	if err != nil {
		return nil, err
	}
	if season == nil {
		return nil, ErrNoSeasonForTimestamp
	}

	for _, id := range []string{input.Player1ID, input.Player2ID} {
		membership, err := s.playerSeasonRepo.Find(id, season.ID)
		if err != nil {
			return nil, err
		}
		if membership == nil {
			return nil, ErrPlayerNotInSeason
		}
	}

	if season.IsActive {
		latest, err := s.matchRepo.LatestGameTime(season.ID)
		if err != nil {
			return nil, err
		}
		// A match stamped before the season's newest game cannot be
		// appended incrementally without breaking ledger ordering; it
		// goes through the rebuild path like any other backdated match.
		firstGameAt := gamePlayedAt(submittedAt, 0, len(input.Winners))
		if latest == nil || !firstGameAt.Before(*latest) {
			return s.recordLive(input, season, submittedAt)
		}
	}
	return s.recordBackdated(ctx, input, season, submittedAt)
}

// gamePlayedAt 게임 i의 타임스탬프 (마지막 게임이 submitted_at)
func gamePlayedAt(submittedAt time.Time, index, total int) time.Time {
	return submittedAt.Add(-time.Duration(total-1-index) * gameTimestampStep)
}

// recordLive 활성 시즌 매치의 증분 기록
// Both participation rows are locked FOR UPDATE for the whole
// transaction, so two concurrent matches touching the same player
// serialize instead of losing updates. K-factors are resolved once from
// the locked games_played values and shared by every game in the match.
func (s *MatchService) recordLive(input RecordMatchInput, season *models.Season, submittedAt time.Time) (*models.Match, error) {
	params, err := s.recalcService.resolveParams(season)
	if err != nil {
		return nil, err
	}

	var match *models.Match
	err = s.db.WithTx(func(tx *sql.Tx) error {
		ps1, err := s.playerSeasonRepo.FindForUpdateTx(tx, input.Player1ID, season.ID)
		if err != nil {
			return err
		}
		ps2, err := s.playerSeasonRepo.FindForUpdateTx(tx, input.Player2ID, season.ID)
		if err != nil {
			return err
		}
		if ps1 == nil || ps2 == nil {
			return ErrPlayerNotInSeason
		}

		created, err := s.matchRepo.CreateTx(tx, input.Player1ID, input.Player2ID, &season.ID, submittedAt)
		if err != nil {
			return err
		}
		match = created

		k1 := s.elo.ResolveKFactor(params, ps1.GamesPlayed)
		k2 := s.elo.ResolveKFactor(params, ps2.GamesPlayed)

		elo1, elo2 := ps1.CurrentELO, ps2.CurrentELO
		var wins1, wins2 int

		for i, winner := range input.Winners {
			winnerID, loserID := input.Player1ID, input.Player2ID
			winnerELO, loserELO := elo1, elo2
			winnerK, loserK := k1, k2
			if winner == models.GameWinnerPlayer2 {
				winnerID, loserID = input.Player2ID, input.Player1ID
				winnerELO, loserELO = elo2, elo1
				winnerK, loserK = k2, k1
			}

			playedAt := gamePlayedAt(submittedAt, i, len(input.Winners))
			gameID, err := s.matchRepo.CreateGameTx(tx, match.ID, winnerID, loserID, &season.ID, playedAt)
			if err != nil {
				return err
			}

			winnerDelta, loserDelta := s.elo.CalculateGameDeltas(winnerELO, loserELO, winnerK, loserK)

			for _, entry := range []models.ELOHistory{
				{PlayerID: winnerID, GameID: gameID, ELOBefore: winnerELO,
					ELOAfter: winnerELO + winnerDelta, ELOVersion: params.VersionTag,
					SeasonID: &season.ID, CreatedAt: playedAt},
				{PlayerID: loserID, GameID: gameID, ELOBefore: loserELO,
					ELOAfter: loserELO + loserDelta, ELOVersion: params.VersionTag,
					SeasonID: &season.ID, CreatedAt: playedAt},
			} {
				if err := s.historyRepo.InsertTx(tx, &entry); err != nil {
					return err
				}
			}

			if winner == models.GameWinnerPlayer1 {
				elo1 += winnerDelta
				elo2 += loserDelta
				wins1++
			} else {
				elo2 += winnerDelta
				elo1 += loserDelta
				wins2++
			}
		}

		total := len(input.Winners)
		if err := s.playerSeasonRepo.ApplyResultTx(tx, input.Player1ID, season.ID,
			elo1, total, wins1, total-wins1); err != nil {
			return err
		}
		if err := s.playerSeasonRepo.ApplyResultTx(tx, input.Player2ID, season.ID,
			elo2, total, wins2, total-wins2); err != nil {
			return err
		}

		if err := s.playerRepo.UpdateRatingTx(tx, input.Player1ID, elo1); err != nil {
			return err
		}
		return s.playerRepo.UpdateRatingTx(tx, input.Player2ID, elo2)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record match: %w", err)
	}

	logger.Info("match recorded",
		"matchId", match.ID,
		"seasonId", season.ID,
		"games", len(input.Winners),
	)
	return match, nil
}

// recordBackdated 과거 시즌에 속하는 매치의 기록
// The rows are inserted without touching aggregates; the owning season
// is then rebuilt so the backdated games land in their chronological
// place instead of being appended.
func (s *MatchService) recordBackdated(ctx context.Context, input RecordMatchInput, season *models.Season, submittedAt time.Time) (*models.Match, error) {
	var match *models.Match
	err := s.db.WithTx(func(tx *sql.Tx) error {
		created, err := s.matchRepo.CreateTx(tx, input.Player1ID, input.Player2ID, &season.ID, submittedAt)
		if err != nil {
			return err
		}
		match = created

		for i, winner := range input.Winners {
			winnerID, loserID := input.Player1ID, input.Player2ID
			if winner == models.GameWinnerPlayer2 {
				winnerID, loserID = input.Player2ID, input.Player1ID
			}
			if _, err := s.matchRepo.CreateGameTx(tx, match.ID, winnerID, loserID,
				&season.ID, gamePlayedAt(submittedAt, i, len(input.Winners))); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record match: %w", err)
	}

	logger.Info("backdated match recorded, rebuilding season",
		"matchId", match.ID,
		"seasonId", season.ID,
	)

	if _, err := s.recalcService.RecalculateSeason(ctx, season.ID, nil); err != nil {
		return nil, fmt.Errorf("match recorded but recalculation failed: %w", err)
	}

	return match, nil
}

// DeleteMatch 매치 삭제 후 해당 시즌 동기 재계산
func (s *MatchService) DeleteMatch(ctx context.Context, matchID string) error {
	match, err := s.matchRepo.FindByID(matchID)
	if err != nil {
		return err
	}
	if match == nil {
		return ErrMatchNotFound
	}

	if err := s.matchRepo.Delete(matchID); err != nil {
		return err
	}
	logger.Info("match deleted", "matchId", matchID)

	if match.SeasonID != nil {
		if _, err := s.recalcService.RecalculateSeason(ctx, *match.SeasonID, nil); err != nil {
			return fmt.Errorf("match deleted but recalculation failed: %w", err)
		}
	}

	return nil
}

// GetMatch 매치 상세 (게임별 양측 레이팅 변동 포함)
func (s *MatchService) GetMatch(matchID string) (*MatchDetail, error) {
	match, err := s.matchRepo.FindByID(matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	pairs, err := s.historyRepo.ListMatchGamePairs(matchID, match.Player1ID, match.Player2ID)
	if err != nil {
		return nil, err
	}

	return &MatchDetail{Match: match, Games: pairs}, nil
}

// ListMatches 매치 목록 (페이지네이션)
func (s *MatchService) ListMatches(limit, offset int) ([]*models.Match, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	matches, err := s.matchRepo.List(limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.matchRepo.Count()
	if err != nil {
		return nil, 0, err
	}

	return matches, total, nil
}
