package models

import "time"

type Season struct {
	ID                   string    `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	Description          *string   `json:"description,omitempty" db:"description"`
	StartDate            time.Time `json:"startDate" db:"start_date"`
	StartingELO          float64   `json:"startingElo" db:"starting_elo"`
	KFactor              float64   `json:"kFactor" db:"k_factor"`
	BaseKFactor          *float64  `json:"baseKFactor,omitempty" db:"base_k_factor"`
	NewPlayerKBonus      *float64  `json:"newPlayerKBonus,omitempty" db:"new_player_k_bonus"`
	NewPlayerBonusPeriod *int      `json:"newPlayerBonusPeriod,omitempty" db:"new_player_bonus_period"`
	ELOVersion           *string   `json:"eloVersion,omitempty" db:"elo_version"`
	IsActive             bool      `json:"isActive" db:"is_active"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
}

// RatingParams the effective rating parameters a replay runs with.
// VersionTag ends up on every ledger row the replay writes.
type RatingParams struct {
	VersionTag           string
	StartingELO          float64
	KFactor              float64
	BaseKFactor          *float64
	NewPlayerKBonus      *float64
	NewPlayerBonusPeriod *int
}

// RatingParams 시즌 자체 파라미터를 RatingParams로 변환
func (s *Season) RatingParams() RatingParams {
	return RatingParams{
		VersionTag:           s.Name,
		StartingELO:          s.StartingELO,
		KFactor:              s.KFactor,
		BaseKFactor:          s.BaseKFactor,
		NewPlayerKBonus:      s.NewPlayerKBonus,
		NewPlayerBonusPeriod: s.NewPlayerBonusPeriod,
	}
}

// PlayerSeason (participation) 시즌별 플레이어 성적
type PlayerSeason struct {
	ID          string    `json:"id" db:"id"`
	PlayerID    string    `json:"playerId" db:"player_id"`
	SeasonID    string    `json:"seasonId" db:"season_id"`
	CurrentELO  float64   `json:"currentElo" db:"current_elo"`
	GamesPlayed int       `json:"gamesPlayed" db:"games_played"`
	Wins        int       `json:"wins" db:"wins"`
	Losses      int       `json:"losses" db:"losses"`
	IsIncluded  bool      `json:"isIncluded" db:"is_included"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
