package repository

import (
	"database/sql"
	"fmt"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/pkg/database"
)

const ratingConfigColumns = `id, version_name, k_factor, starting_elo, base_k_factor,
       new_player_k_bonus, new_player_bonus_period, description, is_active, created_at`

type RatingConfigRepository struct {
	db *database.DB
}

func NewRatingConfigRepository(db *database.DB) *RatingConfigRepository {
	return &RatingConfigRepository{db: db}
}

func scanRatingConfig(row interface{ Scan(...interface{}) error }) (*models.RatingConfig, error) {
	cfg := &models.RatingConfig{}
	err := row.Scan(
		&cfg.ID,
		&cfg.VersionName,
		&cfg.KFactor,
		&cfg.StartingELO,
		&cfg.BaseKFactor,
		&cfg.NewPlayerKBonus,
		&cfg.NewPlayerBonusPeriod,
		&cfg.Description,
		&cfg.IsActive,
		&cfg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindByVersion 버전 이름으로 설정 찾기
func (r *RatingConfigRepository) FindByVersion(version string) (*models.RatingConfig, error) {
	query := `SELECT ` + ratingConfigColumns + ` FROM elo_configurations WHERE version_name = $1`

	cfg, err := scanRatingConfig(r.db.QueryRow(query, version))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find rating config: %w", err)
	}

	return cfg, nil
}

// FindActive 활성 설정 찾기
func (r *RatingConfigRepository) FindActive() (*models.RatingConfig, error) {
	query := `SELECT ` + ratingConfigColumns + ` FROM elo_configurations WHERE is_active = true LIMIT 1`

	cfg, err := scanRatingConfig(r.db.QueryRow(query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active rating config: %w", err)
	}

	return cfg, nil
}

// List 전체 설정 목록 (최신 먼저)
func (r *RatingConfigRepository) List() ([]*models.RatingConfig, error) {
	query := `SELECT ` + ratingConfigColumns + ` FROM elo_configurations ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating configs: %w", err)
	}
	defer rows.Close()

	var configs []*models.RatingConfig
	for rows.Next() {
		cfg, err := scanRatingConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating config: %w", err)
		}
		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

// Create 설정 생성
func (r *RatingConfigRepository) Create(cfg *models.RatingConfig) (*models.RatingConfig, error) {
	query := `
		INSERT INTO elo_configurations
			(version_name, k_factor, starting_elo, base_k_factor,
			 new_player_k_bonus, new_player_bonus_period, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + ratingConfigColumns

	created, err := scanRatingConfig(r.db.QueryRow(query,
		cfg.VersionName,
		cfg.KFactor,
		cfg.StartingELO,
		cfg.BaseKFactor,
		cfg.NewPlayerKBonus,
		cfg.NewPlayerBonusPeriod,
		cfg.Description,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create rating config: %w", err)
	}

	return created, nil
}

// Update 설정 갱신 (비활성 설정만)
func (r *RatingConfigRepository) Update(version string, cfg *models.RatingConfig) (*models.RatingConfig, error) {
	query := `
		UPDATE elo_configurations
		SET k_factor = $2, starting_elo = $3, base_k_factor = $4,
		    new_player_k_bonus = $5, new_player_bonus_period = $6, description = $7
		WHERE version_name = $1
		RETURNING ` + ratingConfigColumns

	updated, err := scanRatingConfig(r.db.QueryRow(query,
		version,
		cfg.KFactor,
		cfg.StartingELO,
		cfg.BaseKFactor,
		cfg.NewPlayerKBonus,
		cfg.NewPlayerBonusPeriod,
		cfg.Description,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update rating config: %w", err)
	}

	return updated, nil
}

// Activate 배타적 활성화 (전체 비활성화 + 대상 활성화)
func (r *RatingConfigRepository) Activate(version string) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE elo_configurations SET is_active = false WHERE is_active = true`); err != nil {
			return fmt.Errorf("failed to deactivate configs: %w", err)
		}
		if _, err := tx.Exec(`UPDATE elo_configurations SET is_active = true WHERE version_name = $1`, version); err != nil {
			return fmt.Errorf("failed to activate config: %w", err)
		}
		return nil
	})
}

// Delete 설정 삭제. 삭제된 행 수 반환.
func (r *RatingConfigRepository) Delete(version string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM elo_configurations WHERE version_name = $1`, version)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rating config: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted count: %w", err)
	}

	return affected, nil
}
