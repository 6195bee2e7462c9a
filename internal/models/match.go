package models

import "time"

// GameWinner 게임별 승자 ("player1" 또는 "player2")
type GameWinner string

const (
	GameWinnerPlayer1 GameWinner = "player1"
	GameWinnerPlayer2 GameWinner = "player2"
)

func (w GameWinner) Valid() bool {
	return w == GameWinnerPlayer1 || w == GameWinnerPlayer2
}

// Match 두 플레이어 간 한 번의 제출 단위 (게임 1개 이상)
// SeasonID is derived from SubmittedAt, never set by the caller.
type Match struct {
	ID          string    `json:"id" db:"id"`
	Player1ID   string    `json:"player1Id" db:"player1_id"`
	Player2ID   string    `json:"player2Id" db:"player2_id"`
	SeasonID    *string   `json:"seasonId,omitempty" db:"season_id"`
	SubmittedAt time.Time `json:"submittedAt" db:"submitted_at"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Game 개별 게임. 승자/패자는 행 자체에 기록되어 무승부는 표현 불가.
// SeasonID가 NULL이면 어떤 시즌 시작일보다 이른 orphan 게임이다.
type Game struct {
	ID       string    `json:"id" db:"id"`
	MatchID  *string   `json:"matchId,omitempty" db:"match_id"`
	WinnerID string    `json:"winnerId" db:"winner_id"`
	LoserID  string    `json:"loserId" db:"loser_id"`
	SeasonID *string   `json:"seasonId,omitempty" db:"season_id"`
	PlayedAt time.Time `json:"playedAt" db:"played_at"`
}
