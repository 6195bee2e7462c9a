package models

import "time"

// RatingConfig 이름 있는 공유 레이팅 설정 (ELO version)
// Seasons may reference one by VersionName instead of embedding parameters.
type RatingConfig struct {
	ID                   string    `json:"id" db:"id"`
	VersionName          string    `json:"versionName" db:"version_name"`
	KFactor              float64   `json:"kFactor" db:"k_factor"`
	StartingELO          float64   `json:"startingElo" db:"starting_elo"`
	BaseKFactor          *float64  `json:"baseKFactor,omitempty" db:"base_k_factor"`
	NewPlayerKBonus      *float64  `json:"newPlayerKBonus,omitempty" db:"new_player_k_bonus"`
	NewPlayerBonusPeriod *int      `json:"newPlayerBonusPeriod,omitempty" db:"new_player_bonus_period"`
	Description          *string   `json:"description,omitempty" db:"description"`
	IsActive             bool      `json:"isActive" db:"is_active"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
}

// RatingParams 설정을 RatingParams로 변환
func (c *RatingConfig) RatingParams() RatingParams {
	return RatingParams{
		VersionTag:           c.VersionName,
		StartingELO:          c.StartingELO,
		KFactor:              c.KFactor,
		BaseKFactor:          c.BaseKFactor,
		NewPlayerKBonus:      c.NewPlayerKBonus,
		NewPlayerBonusPeriod: c.NewPlayerBonusPeriod,
	}
}
