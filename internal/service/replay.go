package service

import (
	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/internal/repository"
	"github.com/club-ladder/ladder-backend/pkg/logger"
)

// PlayerStanding 리플레이가 산출한 플레이어별 최종 성적
type PlayerStanding struct {
	ELO         float64
	GamesPlayed int
	Wins        int
	Losses      int
}

// ReplayResult 한 시즌 리플레이의 전체 산출물
type ReplayResult struct {
	Standings    map[string]*PlayerStanding
	Ledger       []*models.ELOHistory
	GamesPlayed  int
	GamesSkipped int
}

// replayGames recomputes a season's standings and rating ledger from
// scratch by walking the games in chronological order.
//
// Every member starts at params.StartingELO with zero stats. Games whose
// winner or loser is not a member are skipped with a warning and produce
// no ledger rows. All games sharing a match id use the K-factors resolved
// when that match is first encountered, so a multi-game match applies one
// K to all of its games even when another match's games land between them
// chronologically. Games without a match id resolve K individually.
//
// The result is deterministic for a given input ordering. onProgress, if
// non-nil, is invoked every progressInterval processed games and once at
// the end.
func replayGames(
	elo *ELOService,
	games []repository.SeasonGame,
	memberIDs []string,
	params models.RatingParams,
	seasonID *string,
	onProgress func(done int),
) *ReplayResult {
	const progressInterval = 100

	standings := make(map[string]*PlayerStanding, len(memberIDs))
	for _, id := range memberIDs {
		standings[id] = &PlayerStanding{ELO: params.StartingELO}
	}

	result := &ReplayResult{
		Standings: standings,
		Ledger:    make([]*models.ELOHistory, 0, len(games)*2),
	}

	// K snapshots taken the first time each match is seen
	kByMatch := make(map[string]map[string]float64)

	for i, game := range games {
		winner, winnerOK := standings[game.WinnerID]
		loser, loserOK := standings[game.LoserID]
		if !winnerOK || !loserOK {
			logger.Warn("skipping game with non-member participant",
				"gameId", game.GameID,
				"winnerId", game.WinnerID,
				"loserId", game.LoserID,
			)
			result.GamesSkipped++
			continue
		}

		winnerK := elo.ResolveKFactor(params, winner.GamesPlayed)
		loserK := elo.ResolveKFactor(params, loser.GamesPlayed)
		if game.MatchID != nil {
			snapshot, ok := kByMatch[*game.MatchID]
			if !ok {
				snapshot = map[string]float64{
					game.WinnerID: winnerK,
					game.LoserID:  loserK,
				}
				kByMatch[*game.MatchID] = snapshot
			}
			winnerK = snapshot[game.WinnerID]
			loserK = snapshot[game.LoserID]
		}

		winnerDelta, loserDelta := elo.CalculateGameDeltas(
			winner.ELO, loser.ELO,
			winnerK, loserK,
		)

		result.Ledger = append(result.Ledger,
			&models.ELOHistory{
				PlayerID:   game.WinnerID,
				GameID:     game.GameID,
				ELOBefore:  winner.ELO,
				ELOAfter:   winner.ELO + winnerDelta,
				ELOVersion: params.VersionTag,
				SeasonID:   seasonID,
				CreatedAt:  game.PlayedAt,
			},
			&models.ELOHistory{
				PlayerID:   game.LoserID,
				GameID:     game.GameID,
				ELOBefore:  loser.ELO,
				ELOAfter:   loser.ELO + loserDelta,
				ELOVersion: params.VersionTag,
				SeasonID:   seasonID,
				CreatedAt:  game.PlayedAt,
			},
		)

		winner.ELO += winnerDelta
		winner.GamesPlayed++
		winner.Wins++

		loser.ELO += loserDelta
		loser.GamesPlayed++
		loser.Losses++

		result.GamesPlayed++

		if onProgress != nil && (i+1)%progressInterval == 0 {
			onProgress(i + 1)
		}
	}

	if onProgress != nil {
		onProgress(len(games))
	}

	return result
}
