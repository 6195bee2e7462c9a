package repository

import (
	"database/sql"
	"fmt"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/pkg/database"
)

type ELOHistoryRepository struct {
	db *database.DB
}

func NewELOHistoryRepository(db *database.DB) *ELOHistoryRepository {
	return &ELOHistoryRepository{db: db}
}

// InsertTx 원장 행 추가 (트랜잭션 내)
func (r *ELOHistoryRepository) InsertTx(tx *sql.Tx, entry *models.ELOHistory) error {
	query := `
		INSERT INTO elo_history (player_id, game_id, elo_before, elo_after, elo_version, season_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(query,
		entry.PlayerID,
		entry.GameID,
		entry.ELOBefore,
		entry.ELOAfter,
		entry.ELOVersion,
		entry.SeasonID,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert elo history: %w", err)
	}

	return nil
}

// BulkInsertTx 리플레이 결과 원장 일괄 삽입
func (r *ELOHistoryRepository) BulkInsertTx(tx *sql.Tx, entries []models.ELOHistory) error {
	stmt, err := tx.Prepare(`
		INSERT INTO elo_history (player_id, game_id, elo_before, elo_after, elo_version, season_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		if _, err := stmt.Exec(e.PlayerID, e.GameID, e.ELOBefore, e.ELOAfter, e.ELOVersion, e.SeasonID, e.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert history row: %w", err)
		}
	}

	return nil
}

// DeleteBySeasonTx 시즌 원장 전체 삭제 (리플레이 전 wholesale 초기화)
func (r *ELOHistoryRepository) DeleteBySeasonTx(tx *sql.Tx, seasonID string) error {
	if _, err := tx.Exec(`DELETE FROM elo_history WHERE season_id = $1`, seasonID); err != nil {
		return fmt.Errorf("failed to delete season history: %w", err)
	}
	return nil
}

// DeleteByVersionTx 버전 태그 기준 원장 삭제 (legacy 전체 재계산용)
func (r *ELOHistoryRepository) DeleteByVersionTx(tx *sql.Tx, version string) error {
	if _, err := tx.Exec(`DELETE FROM elo_history WHERE elo_version = $1`, version); err != nil {
		return fmt.Errorf("failed to delete history for version: %w", err)
	}
	return nil
}

// ListByPlayer 플레이어의 레이팅 이력 (페이지네이션, 최신 먼저)
func (r *ELOHistoryRepository) ListByPlayer(playerID string, seasonID *string, limit, offset int) ([]*models.ELOHistory, error) {
	query := `
		SELECT id, player_id, game_id, elo_before, elo_after, elo_version, season_id, created_at
		FROM elo_history
		WHERE player_id = $1 AND ($2::uuid IS NULL OR season_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(query, playerID, seasonID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query player history: %w", err)
	}
	defer rows.Close()

	var entries []*models.ELOHistory
	for rows.Next() {
		e := &models.ELOHistory{}
		err := rows.Scan(
			&e.ID,
			&e.PlayerID,
			&e.GameID,
			&e.ELOBefore,
			&e.ELOAfter,
			&e.ELOVersion,
			&e.SeasonID,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// CountByPlayer 플레이어 이력 행 수
func (r *ELOHistoryRepository) CountByPlayer(playerID string, seasonID *string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM elo_history WHERE player_id = $1 AND ($2::uuid IS NULL OR season_id = $2)`
	if err := r.db.QueryRow(query, playerID, seasonID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count player history: %w", err)
	}
	return count, nil
}

// GamePair 게임 하나에 대한 두 참가자의 원장 행 (매치 상세 조회용)
type GamePair struct {
	GameID           string  `json:"gameId"`
	WinnerID         string  `json:"winnerId"`
	Player1ELOBefore float64 `json:"player1EloBefore"`
	Player1ELOAfter  float64 `json:"player1EloAfter"`
	Player2ELOBefore float64 `json:"player2EloBefore"`
	Player2ELOAfter  float64 `json:"player2EloAfter"`
}

// ListMatchGamePairs 매치의 게임별 양측 before/after 조회
func (r *ELOHistoryRepository) ListMatchGamePairs(matchID, player1ID, player2ID string) ([]GamePair, error) {
	query := `
		SELECT g.id, g.winner_id,
		       eh1.elo_before, eh1.elo_after,
		       eh2.elo_before, eh2.elo_after
		FROM games g
		JOIN elo_history eh1 ON eh1.game_id = g.id AND eh1.player_id = $2
		JOIN elo_history eh2 ON eh2.game_id = g.id AND eh2.player_id = $3
		WHERE g.match_id = $1
		ORDER BY g.played_at ASC, g.id ASC
	`

	rows, err := r.db.Query(query, matchID, player1ID, player2ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match game pairs: %w", err)
	}
	defer rows.Close()

	var pairs []GamePair
	for rows.Next() {
		var p GamePair
		if err := rows.Scan(&p.GameID, &p.WinnerID,
			&p.Player1ELOBefore, &p.Player1ELOAfter,
			&p.Player2ELOBefore, &p.Player2ELOAfter); err != nil {
			return nil, fmt.Errorf("failed to scan game pair: %w", err)
		}
		pairs = append(pairs, p)
	}

	return pairs, rows.Err()
}
