package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/internal/repository"
)

// Narrow views of what the orchestrating services need from the
// repository layer. The concrete repositories satisfy these; tests
// substitute in-memory fakes.

// txRunner 트랜잭션 실행기 (*database.DB가 구현)
type txRunner interface {
	WithTx(fn func(tx *sql.Tx) error) error
}

type seasonStore interface {
	FindByID(id string) (*models.Season, error)
	FindByName(name string) (*models.Season, error)
	FindActive() (*models.Season, error)
	FindSeasonFor(ts time.Time) (*models.Season, error)
	FindPreceding(startDate time.Time) (*models.Season, error)
	List() ([]*models.Season, error)
	ListFrom(startDate time.Time) ([]*models.Season, error)
	CreateActiveTx(tx *sql.Tx, season *models.Season) (*models.Season, error)
	Activate(seasonID string) error
	Delete(seasonID string) error
	DeleteTx(tx *sql.Tx, seasonID string) error
	UpdateELOVersion(seasonID string, version *string) error
}

type matchStore interface {
	CreateTx(tx *sql.Tx, player1ID, player2ID string, seasonID *string, submittedAt time.Time) (*models.Match, error)
	CreateGameTx(tx *sql.Tx, matchID, winnerID, loserID string, seasonID *string, playedAt time.Time) (string, error)
	FindByID(id string) (*models.Match, error)
	List(limit, offset int) ([]*models.Match, error)
	Count() (int64, error)
	ListSeasonGames(seasonID string) ([]repository.SeasonGame, error)
	ListAllGames() ([]repository.SeasonGame, error)
	LatestGameTime(seasonID string) (*time.Time, error)
	CountSeasonGames(seasonID string) (int64, error)
	ReassignAll() (int64, error)
	CountOrphanGames() (int64, error)
	MoveSeasonGamesTx(tx *sql.Tx, fromSeasonID, toSeasonID string) error
	Delete(matchID string) error
}

type playerStore interface {
	FindByID(id string) (*models.Player, error)
	ListActiveIDs() ([]string, error)
	UpdateRatingTx(tx *sql.Tx, playerID string, rating float64) error
}

type participationStore interface {
	Find(playerID, seasonID string) (*models.PlayerSeason, error)
	FindForUpdateTx(tx *sql.Tx, playerID, seasonID string) (*models.PlayerSeason, error)
	BulkCreate(seasonID string, playerIDs []string, startingELO float64) (int64, error)
	ListPlayerIDs(seasonID string) ([]string, error)
	SetIncluded(playerID, seasonID string, included bool, startingELO float64) error
	UpdateStatsTx(tx *sql.Tx, playerID, seasonID string, elo float64, games, wins, losses int) error
	ApplyResultTx(tx *sql.Tx, playerID, seasonID string, elo float64, games, wins, losses int) error
	DeleteBySeason(seasonID string) error
	DeleteBySeasonTx(tx *sql.Tx, seasonID string) error
	Leaderboard(seasonID string) ([]repository.LeaderboardEntry, error)
	ListSeasonPlayers(seasonID string) ([]repository.SeasonPlayer, error)
}

type historyStore interface {
	InsertTx(tx *sql.Tx, entry *models.ELOHistory) error
	BulkInsertTx(tx *sql.Tx, entries []models.ELOHistory) error
	DeleteBySeasonTx(tx *sql.Tx, seasonID string) error
	DeleteByVersionTx(tx *sql.Tx, version string) error
	ListMatchGamePairs(matchID, player1ID, player2ID string) ([]repository.GamePair, error)
}

type configStore interface {
	FindByVersion(version string) (*models.RatingConfig, error)
	FindActive() (*models.RatingConfig, error)
}

// seasonRecalculator RecalcService가 구현하는 재계산 진입점
type seasonRecalculator interface {
	resolveParams(season *models.Season) (models.RatingParams, error)
	RecalculateSeason(ctx context.Context, seasonID string, onProgress func(done, total int)) (*RecalcSummary, error)
	RecalculateSeasonsFrom(ctx context.Context, seasonID string, onProgress func(done, total int)) ([]*RecalcSummary, error)
}
