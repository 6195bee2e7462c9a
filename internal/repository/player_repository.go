package repository

import (
	"database/sql"
	"fmt"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/pkg/database"
)

type PlayerRepository struct {
	db *database.DB
}

func NewPlayerRepository(db *database.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// FindByID ID로 플레이어 찾기
func (r *PlayerRepository) FindByID(id string) (*models.Player, error) {
	query := `
		SELECT id, first_name, last_name, current_elo, is_active, created_at
		FROM players
		WHERE id = $1
	`

	player := &models.Player{}
	err := r.db.QueryRow(query, id).Scan(
		&player.ID,
		&player.FirstName,
		&player.LastName,
		&player.CurrentELO,
		&player.IsActive,
		&player.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find player: %w", err)
	}

	return player, nil
}

// List 전체 플레이어 목록 (레이팅 내림차순)
func (r *PlayerRepository) List() ([]*models.Player, error) {
	query := `
		SELECT id, first_name, last_name, current_elo, is_active, created_at
		FROM players
		ORDER BY current_elo DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		player := &models.Player{}
		err := rows.Scan(
			&player.ID,
			&player.FirstName,
			&player.LastName,
			&player.CurrentELO,
			&player.IsActive,
			&player.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}

	return players, nil
}

// ListActiveIDs 활성 플레이어 ID 목록
func (r *PlayerRepository) ListActiveIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT id FROM players WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active players: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan player id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// UpdateRatingTx 전역 현재 레이팅 갱신 (트랜잭션 내)
func (r *PlayerRepository) UpdateRatingTx(tx *sql.Tx, playerID string, rating float64) error {
	_, err := tx.Exec(`UPDATE players SET current_elo = $1 WHERE id = $2`, rating, playerID)
	if err != nil {
		return fmt.Errorf("failed to update player rating: %w", err)
	}
	return nil
}
