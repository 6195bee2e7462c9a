package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/pkg/database"
)

type MatchRepository struct {
	db *database.DB
}

func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// SeasonGame replay 입력용 게임 행.
// Ordered fetch keyed by (played_at, id) keeps ties deterministic.
type SeasonGame struct {
	GameID   string
	MatchID  *string
	WinnerID string
	LoserID  string
	PlayedAt time.Time
}

// CreateTx 매치 생성 (시즌은 타임스탬프에서 유도된 값)
func (r *MatchRepository) CreateTx(tx *sql.Tx, player1ID, player2ID string, seasonID *string, submittedAt time.Time) (*models.Match, error) {
	query := `
		INSERT INTO matches (player1_id, player2_id, season_id, submitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, player1_id, player2_id, season_id, submitted_at, created_at
	`

	match := &models.Match{}
	err := tx.QueryRow(query, player1ID, player2ID, seasonID, submittedAt).Scan(
		&match.ID,
		&match.Player1ID,
		&match.Player2ID,
		&match.SeasonID,
		&match.SubmittedAt,
		&match.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	return match, nil
}

// CreateGameTx 게임 생성
func (r *MatchRepository) CreateGameTx(tx *sql.Tx, matchID, winnerID, loserID string, seasonID *string, playedAt time.Time) (string, error) {
	query := `
		INSERT INTO games (match_id, winner_id, loser_id, season_id, played_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id string
	if err := tx.QueryRow(query, matchID, winnerID, loserID, seasonID, playedAt).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return id, nil
}

// FindByID ID로 매치 찾기
func (r *MatchRepository) FindByID(id string) (*models.Match, error) {
	query := `
		SELECT id, player1_id, player2_id, season_id, submitted_at, created_at
		FROM matches
		WHERE id = $1
	`

	match := &models.Match{}
	err := r.db.QueryRow(query, id).Scan(
		&match.ID,
		&match.Player1ID,
		&match.Player2ID,
		&match.SeasonID,
		&match.SubmittedAt,
		&match.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find match: %w", err)
	}

	return match, nil
}

// List 매치 목록 (최신 제출 먼저, 페이지네이션)
func (r *MatchRepository) List(limit, offset int) ([]*models.Match, error) {
	query := `
		SELECT id, player1_id, player2_id, season_id, submitted_at, created_at
		FROM matches
		ORDER BY submitted_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		match := &models.Match{}
		err := rows.Scan(
			&match.ID,
			&match.Player1ID,
			&match.Player2ID,
			&match.SeasonID,
			&match.SubmittedAt,
			&match.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, rows.Err()
}

// Count 전체 매치 수
func (r *MatchRepository) Count() (int64, error) {
	var count int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

// ListMatchGames 매치의 게임 목록 (시간순)
func (r *MatchRepository) ListMatchGames(matchID string) ([]*models.Game, error) {
	query := `
		SELECT id, match_id, winner_id, loser_id, season_id, played_at
		FROM games
		WHERE match_id = $1
		ORDER BY played_at ASC, id ASC
	`

	rows, err := r.db.Query(query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game := &models.Game{}
		err := rows.Scan(
			&game.ID,
			&game.MatchID,
			&game.WinnerID,
			&game.LoserID,
			&game.SeasonID,
			&game.PlayedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}

	return games, rows.Err()
}

// ListSeasonGames 시즌의 전체 게임을 리플레이 순서로 조회
func (r *MatchRepository) ListSeasonGames(seasonID string) ([]SeasonGame, error) {
	query := `
		SELECT id, match_id, winner_id, loser_id, played_at
		FROM games
		WHERE season_id = $1
		ORDER BY played_at ASC, id ASC
	`

	rows, err := r.db.Query(query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query season games: %w", err)
	}
	defer rows.Close()

	return collectSeasonGames(rows)
}

// ListAllGames 전 기간 게임을 리플레이 순서로 조회 (legacy 전체 재계산용)
func (r *MatchRepository) ListAllGames() ([]SeasonGame, error) {
	query := `
		SELECT id, match_id, winner_id, loser_id, played_at
		FROM games
		ORDER BY played_at ASC, id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	return collectSeasonGames(rows)
}

func collectSeasonGames(rows *sql.Rows) ([]SeasonGame, error) {
	var games []SeasonGame
	for rows.Next() {
		var g SeasonGame
		if err := rows.Scan(&g.GameID, &g.MatchID, &g.WinnerID, &g.LoserID, &g.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// CountSeasonGames 시즌이 소유한 게임 수
func (r *MatchRepository) CountSeasonGames(seasonID string) (int64, error) {
	var count int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM games WHERE season_id = $1`, seasonID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count season games: %w", err)
	}
	return count, nil
}

// LatestGameTime 시즌에서 가장 최근에 기록된 게임의 played_at.
// Returns nil when the season has no games yet.
func (r *MatchRepository) LatestGameTime(seasonID string) (*time.Time, error) {
	var latest sql.NullTime
	if err := r.db.QueryRow(`SELECT MAX(played_at) FROM games WHERE season_id = $1`, seasonID).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to query latest game time: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// ReassignAll 전 게임/매치를 타임스탬프 기준으로 올바른 시즌에 재배정.
// Set-based: one statement per table, idempotent via IS DISTINCT FROM.
// Events older than every season start end up with NULL season (orphans).
func (r *MatchRepository) ReassignAll() (int64, error) {
	gameQuery := `
		UPDATE games
		SET season_id = (
			SELECT s.id
			FROM seasons s
			WHERE s.start_date <= games.played_at
			ORDER BY s.start_date DESC
			LIMIT 1
		)
		WHERE season_id IS DISTINCT FROM (
			SELECT s.id
			FROM seasons s
			WHERE s.start_date <= games.played_at
			ORDER BY s.start_date DESC
			LIMIT 1
		)
	`

	result, err := r.db.Exec(gameQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign games: %w", err)
	}

	reassigned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read reassigned count: %w", err)
	}

	matchQuery := `
		UPDATE matches
		SET season_id = (
			SELECT s.id
			FROM seasons s
			WHERE s.start_date <= matches.submitted_at
			ORDER BY s.start_date DESC
			LIMIT 1
		)
		WHERE season_id IS DISTINCT FROM (
			SELECT s.id
			FROM seasons s
			WHERE s.start_date <= matches.submitted_at
			ORDER BY s.start_date DESC
			LIMIT 1
		)
	`

	if _, err := r.db.Exec(matchQuery); err != nil {
		return 0, fmt.Errorf("failed to reassign matches: %w", err)
	}

	return reassigned, nil
}

// CountOrphanGames 어느 시즌에도 속하지 않는 게임 수
func (r *MatchRepository) CountOrphanGames() (int64, error) {
	var count int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM games WHERE season_id IS NULL`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orphan games: %w", err)
	}
	return count, nil
}

// MoveSeasonGamesTx 시즌의 게임/매치를 다른 시즌으로 이관 (시즌 삭제용)
func (r *MatchRepository) MoveSeasonGamesTx(tx *sql.Tx, fromSeasonID, toSeasonID string) error {
	if _, err := tx.Exec(`UPDATE games SET season_id = $1 WHERE season_id = $2`, toSeasonID, fromSeasonID); err != nil {
		return fmt.Errorf("failed to move games: %w", err)
	}
	if _, err := tx.Exec(`UPDATE matches SET season_id = $1 WHERE season_id = $2`, toSeasonID, fromSeasonID); err != nil {
		return fmt.Errorf("failed to move matches: %w", err)
	}
	return nil
}

// Delete 매치 삭제 (게임은 ON DELETE CASCADE)
func (r *MatchRepository) Delete(matchID string) error {
	if _, err := r.db.Exec(`DELETE FROM matches WHERE id = $1`, matchID); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return nil
}
