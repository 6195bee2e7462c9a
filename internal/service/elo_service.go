package service

import (
	"math"

	"github.com/club-ladder/ladder-backend/internal/models"
)

// ELOService ELO 레이팅 계산 서비스
// All arithmetic is float64; rounding happens only at the presentation layer.
type ELOService struct{}

// NewELOService ELO 서비스 생성
func NewELOService() *ELOService {
	return &ELOService{}
}

// ExpectedScore ELO에 기반한 기대 승률 계산
func (s *ELOService) ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

// ResolveKFactor returns the effective K-factor for a player who has
// completed gamesPlayed games under the given parameters.
//
// When base, bonus and period are ALL present the K decays exponentially
// from base+bonus toward base as the player accumulates games:
//
//	k = base + bonus * e^(-gamesPlayed/period)
//
// If any of the three is missing the flat KFactor applies. Partial
// configuration never mixes flat and dynamic values.
func (s *ELOService) ResolveKFactor(params models.RatingParams, gamesPlayed int) float64 {
	if params.BaseKFactor == nil || params.NewPlayerKBonus == nil || params.NewPlayerBonusPeriod == nil {
		return params.KFactor
	}
	period := *params.NewPlayerBonusPeriod
	if period <= 0 {
		return params.KFactor
	}
	decay := math.Exp(-float64(gamesPlayed) / float64(period))
	return *params.BaseKFactor + *params.NewPlayerKBonus*decay
}

// CalculateGameDeltas 승자/패자 각각의 레이팅 변동 계산
// Each side uses its own K-factor. With equal K the deltas are exact
// opposites; with differing K (new player bonus) they are not, and the
// rating pool is allowed to drift.
func (s *ELOService) CalculateGameDeltas(winnerELO, loserELO, winnerK, loserK float64) (winnerDelta, loserDelta float64) {
	expectedWinner := s.ExpectedScore(winnerELO, loserELO)
	expectedLoser := 1.0 - expectedWinner

	winnerDelta = winnerK * (1.0 - expectedWinner)
	loserDelta = loserK * (0.0 - expectedLoser)
	return
}
