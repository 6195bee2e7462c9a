package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/pkg/database"
)

const seasonColumns = `id, name, description, start_date, starting_elo, k_factor,
       base_k_factor, new_player_k_bonus, new_player_bonus_period,
       elo_version, is_active, created_at`

type SeasonRepository struct {
	db *database.DB
}

func NewSeasonRepository(db *database.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func scanSeason(row interface{ Scan(...interface{}) error }) (*models.Season, error) {
	season := &models.Season{}
	err := row.Scan(
		&season.ID,
		&season.Name,
		&season.Description,
		&season.StartDate,
		&season.StartingELO,
		&season.KFactor,
		&season.BaseKFactor,
		&season.NewPlayerKBonus,
		&season.NewPlayerBonusPeriod,
		&season.ELOVersion,
		&season.IsActive,
		&season.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return season, nil
}

// FindByID ID로 시즌 찾기
func (r *SeasonRepository) FindByID(id string) (*models.Season, error) {
	query := `SELECT ` + seasonColumns + ` FROM seasons WHERE id = $1`

	season, err := scanSeason(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find season: %w", err)
	}

	return season, nil
}

// FindByName 이름으로 시즌 찾기
func (r *SeasonRepository) FindByName(name string) (*models.Season, error) {
	query := `SELECT ` + seasonColumns + ` FROM seasons WHERE name = $1`

	season, err := scanSeason(r.db.QueryRow(query, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find season by name: %w", err)
	}

	return season, nil
}

// FindActive 활성 시즌 찾기 (최대 1개)
func (r *SeasonRepository) FindActive() (*models.Season, error) {
	query := `SELECT ` + seasonColumns + ` FROM seasons WHERE is_active = true LIMIT 1`

	season, err := scanSeason(r.db.QueryRow(query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active season: %w", err)
	}

	return season, nil
}

// FindSeasonFor 타임스탬프가 속하는 시즌 찾기
// start_date <= ts 중 가장 늦은 시즌. 없으면 nil (orphan 구간).
func (r *SeasonRepository) FindSeasonFor(ts time.Time) (*models.Season, error) {
	query := `
		SELECT ` + seasonColumns + `
		FROM seasons
		WHERE start_date <= $1
		ORDER BY start_date DESC
		LIMIT 1
	`

	season, err := scanSeason(r.db.QueryRow(query, ts))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find season for timestamp: %w", err)
	}

	return season, nil
}

// FindPreceding 주어진 시작일 직전의 시즌 찾기
func (r *SeasonRepository) FindPreceding(startDate time.Time) (*models.Season, error) {
	query := `
		SELECT ` + seasonColumns + `
		FROM seasons
		WHERE start_date < $1
		ORDER BY start_date DESC
		LIMIT 1
	`

	season, err := scanSeason(r.db.QueryRow(query, startDate))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find preceding season: %w", err)
	}

	return season, nil
}

// List 전체 시즌 목록 (최신 시즌 먼저)
func (r *SeasonRepository) List() ([]*models.Season, error) {
	query := `SELECT ` + seasonColumns + ` FROM seasons ORDER BY start_date DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	defer rows.Close()

	return collectSeasons(rows)
}

// ListFrom 특정 시작일 이후 시즌 목록 (시작일 오름차순)
// Recalculation order after reassignment depends on this ordering.
func (r *SeasonRepository) ListFrom(startDate time.Time) ([]*models.Season, error) {
	query := `
		SELECT ` + seasonColumns + `
		FROM seasons
		WHERE start_date >= $1
		ORDER BY start_date ASC
	`

	rows, err := r.db.Query(query, startDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons from date: %w", err)
	}
	defer rows.Close()

	return collectSeasons(rows)
}

func collectSeasons(rows *sql.Rows) ([]*models.Season, error) {
	var seasons []*models.Season
	for rows.Next() {
		season, err := scanSeason(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

// CreateActiveTx 새 시즌 생성 + 배타적 활성화 (같은 트랜잭션)
func (r *SeasonRepository) CreateActiveTx(tx *sql.Tx, season *models.Season) (*models.Season, error) {
	// 기존 시즌 전부 비활성화
	if _, err := tx.Exec(`UPDATE seasons SET is_active = false WHERE is_active = true`); err != nil {
		return nil, fmt.Errorf("failed to deactivate seasons: %w", err)
	}

	query := `
		INSERT INTO seasons
			(name, description, start_date, starting_elo, k_factor,
			 base_k_factor, new_player_k_bonus, new_player_bonus_period, elo_version, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)
		RETURNING ` + seasonColumns

	created, err := scanSeason(tx.QueryRow(query,
		season.Name,
		season.Description,
		season.StartDate,
		season.StartingELO,
		season.KFactor,
		season.BaseKFactor,
		season.NewPlayerKBonus,
		season.NewPlayerBonusPeriod,
		season.ELOVersion,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create season: %w", err)
	}

	return created, nil
}

// Activate 배타적 활성화 스왑 (전체 비활성화 + 대상 활성화, 한 트랜잭션)
func (r *SeasonRepository) Activate(seasonID string) error {
	return r.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE seasons SET is_active = false WHERE is_active = true`); err != nil {
			return fmt.Errorf("failed to deactivate seasons: %w", err)
		}
		if _, err := tx.Exec(`UPDATE seasons SET is_active = true WHERE id = $1`, seasonID); err != nil {
			return fmt.Errorf("failed to activate season: %w", err)
		}
		return nil
	})
}

// Delete 시즌 행 삭제 (rollback 경로에서도 사용)
func (r *SeasonRepository) Delete(seasonID string) error {
	if _, err := r.db.Exec(`DELETE FROM seasons WHERE id = $1`, seasonID); err != nil {
		return fmt.Errorf("failed to delete season: %w", err)
	}
	return nil
}

// DeleteTx 시즌 행 삭제 (트랜잭션 내)
func (r *SeasonRepository) DeleteTx(tx *sql.Tx, seasonID string) error {
	if _, err := tx.Exec(`DELETE FROM seasons WHERE id = $1`, seasonID); err != nil {
		return fmt.Errorf("failed to delete season: %w", err)
	}
	return nil
}

// UpdateELOVersion 시즌이 참조하는 설정 버전 변경
func (r *SeasonRepository) UpdateELOVersion(seasonID string, version *string) error {
	if _, err := r.db.Exec(`UPDATE seasons SET elo_version = $1 WHERE id = $2`, version, seasonID); err != nil {
		return fmt.Errorf("failed to update season elo version: %w", err)
	}
	return nil
}
