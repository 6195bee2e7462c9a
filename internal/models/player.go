package models

import (
	"strings"
	"time"
)

type Player struct {
	ID         string    `json:"id" db:"id"`
	FirstName  string    `json:"firstName" db:"first_name"`
	LastName   string    `json:"lastName" db:"last_name"`
	CurrentELO float64   `json:"currentElo" db:"current_elo"`
	IsActive   bool      `json:"isActive" db:"is_active"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// DisplayName 표시용 이름 (빈 값 처리 포함)
func (p *Player) DisplayName() string {
	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)

	switch {
	case first == "" && last == "":
		return "Unknown Player"
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
