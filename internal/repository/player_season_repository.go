package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/pkg/database"
)

type PlayerSeasonRepository struct {
	db *database.DB
}

func NewPlayerSeasonRepository(db *database.DB) *PlayerSeasonRepository {
	return &PlayerSeasonRepository{db: db}
}

// Find 플레이어 × 시즌 성적 조회
func (r *PlayerSeasonRepository) Find(playerID, seasonID string) (*models.PlayerSeason, error) {
	query := `
		SELECT id, player_id, season_id, current_elo, games_played, wins, losses,
		       is_included, created_at, updated_at
		FROM player_seasons
		WHERE player_id = $1 AND season_id = $2
	`

	ps := &models.PlayerSeason{}
	err := r.db.QueryRow(query, playerID, seasonID).Scan(
		&ps.ID,
		&ps.PlayerID,
		&ps.SeasonID,
		&ps.CurrentELO,
		&ps.GamesPlayed,
		&ps.Wins,
		&ps.Losses,
		&ps.IsIncluded,
		&ps.CreatedAt,
		&ps.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find player season: %w", err)
	}

	return ps, nil
}

// FindForUpdateTx 행 잠금과 함께 조회 (동시 제출 경쟁 방지)
// Both participants get locked before any delta is computed.
func (r *PlayerSeasonRepository) FindForUpdateTx(tx *sql.Tx, playerID, seasonID string) (*models.PlayerSeason, error) {
	query := `
		SELECT id, player_id, season_id, current_elo, games_played, wins, losses,
		       is_included, created_at, updated_at
		FROM player_seasons
		WHERE player_id = $1 AND season_id = $2
		FOR UPDATE
	`

	ps := &models.PlayerSeason{}
	err := tx.QueryRow(query, playerID, seasonID).Scan(
		&ps.ID,
		&ps.PlayerID,
		&ps.SeasonID,
		&ps.CurrentELO,
		&ps.GamesPlayed,
		&ps.Wins,
		&ps.Losses,
		&ps.IsIncluded,
		&ps.CreatedAt,
		&ps.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to lock player season: %w", err)
	}

	return ps, nil
}

// BulkCreate 시즌 참가 행 일괄 생성 (이미 있으면 건너뜀)
func (r *PlayerSeasonRepository) BulkCreate(seasonID string, playerIDs []string, startingELO float64) (int64, error) {
	if len(playerIDs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO player_seasons (player_id, season_id, current_elo, games_played, wins, losses, is_included)
		SELECT pid, $2, $3, 0, 0, 0, true
		FROM unnest($1::uuid[]) AS pid
		ON CONFLICT (player_id, season_id) DO NOTHING
	`

	result, err := r.db.Exec(query, pq.Array(playerIDs), seasonID, startingELO)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk create player seasons: %w", err)
	}

	created, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read created count: %w", err)
	}

	return created, nil
}

// ListPlayerIDs 시즌 구성원 전체 ID
func (r *PlayerSeasonRepository) ListPlayerIDs(seasonID string) ([]string, error) {
	rows, err := r.db.Query(`SELECT player_id FROM player_seasons WHERE season_id = $1`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query season members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// SetIncluded 포함 플래그 갱신 (행이 없으면 생성)
func (r *PlayerSeasonRepository) SetIncluded(playerID, seasonID string, included bool, startingELO float64) error {
	query := `
		INSERT INTO player_seasons (player_id, season_id, current_elo, games_played, wins, losses, is_included)
		VALUES ($1, $2, $3, 0, 0, 0, $4)
		ON CONFLICT (player_id, season_id)
		DO UPDATE SET is_included = $4, updated_at = NOW()
	`

	if _, err := r.db.Exec(query, playerID, seasonID, startingELO, included); err != nil {
		return fmt.Errorf("failed to set inclusion: %w", err)
	}

	return nil
}

// UpdateStatsTx 리플레이 결과로 성적 전체 덮어쓰기
func (r *PlayerSeasonRepository) UpdateStatsTx(tx *sql.Tx, playerID, seasonID string, elo float64, games, wins, losses int) error {
	query := `
		UPDATE player_seasons
		SET current_elo = $1, games_played = $2, wins = $3, losses = $4, updated_at = NOW()
		WHERE player_id = $5 AND season_id = $6
	`

	if _, err := tx.Exec(query, elo, games, wins, losses, playerID, seasonID); err != nil {
		return fmt.Errorf("failed to update season stats: %w", err)
	}

	return nil
}

// ApplyResultTx 라이브 기록 경로의 증분 갱신
func (r *PlayerSeasonRepository) ApplyResultTx(tx *sql.Tx, playerID, seasonID string, elo float64, games, wins, losses int) error {
	query := `
		UPDATE player_seasons
		SET current_elo = $1,
		    games_played = games_played + $2,
		    wins = wins + $3,
		    losses = losses + $4,
		    updated_at = NOW()
		WHERE player_id = $5 AND season_id = $6
	`

	if _, err := tx.Exec(query, elo, games, wins, losses, playerID, seasonID); err != nil {
		return fmt.Errorf("failed to apply match result: %w", err)
	}

	return nil
}

// DeleteBySeason 시즌의 참가 행 전체 삭제 (rollback 경로에서도 사용)
func (r *PlayerSeasonRepository) DeleteBySeason(seasonID string) error {
	if _, err := r.db.Exec(`DELETE FROM player_seasons WHERE season_id = $1`, seasonID); err != nil {
		return fmt.Errorf("failed to delete player seasons: %w", err)
	}
	return nil
}

// DeleteBySeasonTx 시즌의 참가 행 전체 삭제 (트랜잭션 내)
func (r *PlayerSeasonRepository) DeleteBySeasonTx(tx *sql.Tx, seasonID string) error {
	if _, err := tx.Exec(`DELETE FROM player_seasons WHERE season_id = $1`, seasonID); err != nil {
		return fmt.Errorf("failed to delete player seasons: %w", err)
	}
	return nil
}

// LeaderboardEntry 시즌 리더보드 행
type LeaderboardEntry struct {
	PlayerID    string  `json:"playerId"`
	PlayerName  string  `json:"playerName"`
	CurrentELO  float64 `json:"currentElo"`
	GamesPlayed int     `json:"gamesPlayed"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	IsActive    bool    `json:"isActive"`
}

// Leaderboard 시즌 리더보드 (포함된 플레이어만, 레이팅 내림차순)
func (r *PlayerSeasonRepository) Leaderboard(seasonID string) ([]LeaderboardEntry, error) {
	query := `
		SELECT p.id, p.first_name, p.last_name, ps.current_elo,
		       ps.games_played, ps.wins, ps.losses, p.is_active
		FROM player_seasons ps
		JOIN players p ON ps.player_id = p.id
		WHERE ps.season_id = $1 AND ps.is_included = true
		ORDER BY ps.current_elo DESC
	`

	rows, err := r.db.Query(query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		var firstName, lastName string
		if err := rows.Scan(&e.PlayerID, &firstName, &lastName, &e.CurrentELO,
			&e.GamesPlayed, &e.Wins, &e.Losses, &e.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		p := models.Player{FirstName: firstName, LastName: lastName}
		e.PlayerName = p.DisplayName()
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// SeasonPlayer 시즌 구성원 행 (포함 여부 포함)
type SeasonPlayer struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	IsIncluded bool   `json:"isIncluded"`
	IsActive   bool   `json:"isActive"`
}

// ListSeasonPlayers 시즌 구성원 목록
func (r *PlayerSeasonRepository) ListSeasonPlayers(seasonID string) ([]SeasonPlayer, error) {
	query := `
		SELECT p.id, p.first_name, p.last_name, ps.is_included, p.is_active
		FROM player_seasons ps
		JOIN players p ON ps.player_id = p.id
		WHERE ps.season_id = $1
		ORDER BY p.first_name, p.last_name
	`

	rows, err := r.db.Query(query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query season players: %w", err)
	}
	defer rows.Close()

	var players []SeasonPlayer
	for rows.Next() {
		var sp SeasonPlayer
		var firstName, lastName string
		if err := rows.Scan(&sp.PlayerID, &firstName, &lastName, &sp.IsIncluded, &sp.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan season player: %w", err)
		}
		p := models.Player{FirstName: firstName, LastName: lastName}
		sp.PlayerName = p.DisplayName()
		players = append(players, sp)
	}

	return players, rows.Err()
}
