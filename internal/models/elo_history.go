package models

import "time"

// ELOHistory 레이팅 원장 한 행: 게임 × 플레이어당 before/after.
// Written only by replay or live recording; rewritten wholesale per season,
// never edited in place.
type ELOHistory struct {
	ID         string    `json:"id" db:"id"`
	PlayerID   string    `json:"playerId" db:"player_id"`
	GameID     string    `json:"gameId" db:"game_id"`
	ELOBefore  float64   `json:"eloBefore" db:"elo_before"`
	ELOAfter   float64   `json:"eloAfter" db:"elo_after"`
	ELOVersion string    `json:"eloVersion" db:"elo_version"`
	SeasonID   *string   `json:"seasonId,omitempty" db:"season_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
