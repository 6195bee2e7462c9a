package service

import (
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/internal/repository"
	"github.com/club-ladder/ladder-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

func strPtr(s string) *string { return &s }

func flatParams(startingELO, k float64) models.RatingParams {
	return models.RatingParams{
		VersionTag:  "test-season",
		StartingELO: startingELO,
		KFactor:     k,
	}
}

// makeGames builds n standalone games alternating winners between a and b.
func makeGames(a, b string, n int) []repository.SeasonGame {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	games := make([]repository.SeasonGame, 0, n)
	for i := 0; i < n; i++ {
		winner, loser := a, b
		if i%2 == 1 {
			winner, loser = b, a
		}
		games = append(games, repository.SeasonGame{
			GameID:   fmt.Sprintf("game-%d", i),
			WinnerID: winner,
			LoserID:  loser,
			PlayedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return games
}

func TestReplayGames_SingleGame(t *testing.T) {
	elo := NewELOService()
	games := makeGames("alice", "bob", 1)

	result := replayGames(elo, games, []string{"alice", "bob"}, flatParams(1000, 32), strPtr("season-1"), nil)

	if result.GamesPlayed != 1 || result.GamesSkipped != 0 {
		t.Fatalf("played=%d skipped=%d, want 1/0", result.GamesPlayed, result.GamesSkipped)
	}
	if got := result.Standings["alice"].ELO; math.Abs(got-1016) > 1e-9 {
		t.Errorf("alice ELO = %v, want 1016", got)
	}
	if got := result.Standings["bob"].ELO; math.Abs(got-984) > 1e-9 {
		t.Errorf("bob ELO = %v, want 984", got)
	}
	if len(result.Ledger) != 2 {
		t.Fatalf("ledger rows = %d, want 2", len(result.Ledger))
	}
}

func TestReplayGames_Deterministic(t *testing.T) {
	elo := NewELOService()
	games := makeGames("alice", "bob", 25)
	members := []string{"alice", "bob"}
	params := flatParams(1000, 24)

	first := replayGames(elo, games, members, params, nil, nil)
	second := replayGames(elo, games, members, params, nil, nil)

	for id, s := range first.Standings {
		if s.ELO != second.Standings[id].ELO {
			t.Errorf("player %s: run1 ELO %v != run2 ELO %v", id, s.ELO, second.Standings[id].ELO)
		}
	}
	if len(first.Ledger) != len(second.Ledger) {
		t.Fatalf("ledger lengths differ: %d vs %d", len(first.Ledger), len(second.Ledger))
	}
	for i := range first.Ledger {
		if first.Ledger[i].ELOAfter != second.Ledger[i].ELOAfter {
			t.Errorf("ledger row %d differs between runs", i)
		}
	}
}

func TestReplayGames_LedgerContinuity(t *testing.T) {
	elo := NewELOService()
	games := makeGames("alice", "bob", 40)

	result := replayGames(elo, games, []string{"alice", "bob"}, flatParams(1000, 32), nil, nil)

	// Each player's elo_before must equal their previous elo_after,
	// and the first row must start at the season's starting ELO.
	lastAfter := map[string]float64{}
	for i, row := range result.Ledger {
		prev, seen := lastAfter[row.PlayerID]
		if !seen {
			prev = 1000
		}
		if math.Abs(row.ELOBefore-prev) > 1e-9 {
			t.Fatalf("row %d (player %s): elo_before %v, want %v", i, row.PlayerID, row.ELOBefore, prev)
		}
		lastAfter[row.PlayerID] = row.ELOAfter
	}

	// Final ledger state matches the standings.
	for id, s := range result.Standings {
		if math.Abs(lastAfter[id]-s.ELO) > 1e-9 {
			t.Errorf("player %s: last ledger after %v != standing %v", id, lastAfter[id], s.ELO)
		}
	}
}

func TestReplayGames_StatsAddUp(t *testing.T) {
	elo := NewELOService()
	games := makeGames("alice", "bob", 15)

	result := replayGames(elo, games, []string{"alice", "bob"}, flatParams(1000, 32), nil, nil)

	for id, s := range result.Standings {
		if s.GamesPlayed != s.Wins+s.Losses {
			t.Errorf("player %s: games %d != wins %d + losses %d", id, s.GamesPlayed, s.Wins, s.Losses)
		}
		if s.GamesPlayed != 15 {
			t.Errorf("player %s: games %d, want 15", id, s.GamesPlayed)
		}
	}
}

func TestReplayGames_SkipsNonMembers(t *testing.T) {
	elo := NewELOService()
	games := makeGames("alice", "bob", 4)
	games = append(games, repository.SeasonGame{
		GameID:   "stray",
		WinnerID: "mallory",
		LoserID:  "alice",
		PlayedAt: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})

	result := replayGames(elo, games, []string{"alice", "bob"}, flatParams(1000, 32), nil, nil)

	if result.GamesSkipped != 1 {
		t.Errorf("skipped = %d, want 1", result.GamesSkipped)
	}
	if result.GamesPlayed != 4 {
		t.Errorf("played = %d, want 4", result.GamesPlayed)
	}
	for _, row := range result.Ledger {
		if row.GameID == "stray" {
			t.Error("skipped game must not produce ledger rows")
		}
	}
	if _, ok := result.Standings["mallory"]; ok {
		t.Error("non-member must not appear in standings")
	}
}

func TestReplayGames_KSnapshotPerMatch(t *testing.T) {
	elo := NewELOService()
	params := models.RatingParams{
		VersionTag:           "test-season",
		StartingELO:          1000,
		KFactor:              32,
		BaseKFactor:          floatPtr(16),
		NewPlayerKBonus:      floatPtr(16),
		NewPlayerBonusPeriod: intPtr(10),
	}

	// Three games in one match: K must stay at the match-start value
	// (32 at zero games) for all of them, even as games_played grows.
	matchID := strPtr("match-1")
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	games := []repository.SeasonGame{
		{GameID: "g1", MatchID: matchID, WinnerID: "alice", LoserID: "bob", PlayedAt: base},
		{GameID: "g2", MatchID: matchID, WinnerID: "alice", LoserID: "bob", PlayedAt: base.Add(time.Minute)},
		{GameID: "g3", MatchID: matchID, WinnerID: "bob", LoserID: "alice", PlayedAt: base.Add(2 * time.Minute)},
	}

	got := replayGames(elo, games, []string{"alice", "bob"}, params, nil, nil)

	// Reference: same games replayed manually with K fixed at 32.
	aliceELO, bobELO := 1000.0, 1000.0
	step := func(winELO, loseELO float64) (float64, float64) {
		wd, ld := elo.CalculateGameDeltas(winELO, loseELO, 32, 32)
		return winELO + wd, loseELO + ld
	}
	aliceELO, bobELO = step(aliceELO, bobELO)
	aliceELO, bobELO = step(aliceELO, bobELO)
	bobELO, aliceELO = step(bobELO, aliceELO)

	if math.Abs(got.Standings["alice"].ELO-aliceELO) > 1e-9 {
		t.Errorf("alice ELO = %v, want %v (fixed-K reference)", got.Standings["alice"].ELO, aliceELO)
	}
	if math.Abs(got.Standings["bob"].ELO-bobELO) > 1e-9 {
		t.Errorf("bob ELO = %v, want %v (fixed-K reference)", got.Standings["bob"].ELO, bobELO)
	}
}

func TestReplayGames_KSnapshotHeldAcrossInterleavedMatches(t *testing.T) {
	elo := NewELOService()
	params := models.RatingParams{
		VersionTag:           "test-season",
		StartingELO:          1000,
		KFactor:              32,
		BaseKFactor:          floatPtr(16),
		NewPlayerKBonus:      floatPtr(16),
		NewPlayerBonusPeriod: intPtr(1),
	}

	// Backdated timestamps can land another match's game between two
	// games of the same match. The resumed match must keep the K it
	// snapshotted at its first game, not re-resolve from the grown
	// games_played count.
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	games := []repository.SeasonGame{
		{GameID: "g1", MatchID: strPtr("m1"), WinnerID: "alice", LoserID: "bob", PlayedAt: base},
		{GameID: "g2", MatchID: strPtr("m2"), WinnerID: "alice", LoserID: "bob", PlayedAt: base.Add(time.Minute)},
		{GameID: "g3", MatchID: strPtr("m1"), WinnerID: "alice", LoserID: "bob", PlayedAt: base.Add(2 * time.Minute)},
	}

	got := replayGames(elo, games, []string{"alice", "bob"}, params, nil, nil)

	// Reference: walk the same games holding each match's K at the
	// value resolved when the match was first seen.
	aliceELO, bobELO := 1000.0, 1000.0
	m1K := elo.ResolveKFactor(params, 0) // both at zero games
	wd, ld := elo.CalculateGameDeltas(aliceELO, bobELO, m1K, m1K)
	aliceELO += wd
	bobELO += ld

	m2K := elo.ResolveKFactor(params, 1) // both at one game
	wd, ld = elo.CalculateGameDeltas(aliceELO, bobELO, m2K, m2K)
	aliceELO += wd
	bobELO += ld

	wd, ld = elo.CalculateGameDeltas(aliceELO, bobELO, m1K, m1K) // m1 resumed
	aliceELO += wd
	bobELO += ld

	if math.Abs(got.Standings["alice"].ELO-aliceELO) > 1e-9 {
		t.Errorf("alice ELO = %v, want %v (m1's K held across the interleaved game)", got.Standings["alice"].ELO, aliceELO)
	}
	if math.Abs(got.Standings["bob"].ELO-bobELO) > 1e-9 {
		t.Errorf("bob ELO = %v, want %v (m1's K held across the interleaved game)", got.Standings["bob"].ELO, bobELO)
	}
}

func TestReplayGames_KResnapshotsBetweenMatches(t *testing.T) {
	elo := NewELOService()
	params := models.RatingParams{
		VersionTag:           "test-season",
		StartingELO:          1000,
		KFactor:              32,
		BaseKFactor:          floatPtr(16),
		NewPlayerKBonus:      floatPtr(16),
		NewPlayerBonusPeriod: intPtr(1),
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	games := []repository.SeasonGame{
		{GameID: "g1", MatchID: strPtr("m1"), WinnerID: "alice", LoserID: "bob", PlayedAt: base},
		{GameID: "g2", MatchID: strPtr("m2"), WinnerID: "alice", LoserID: "bob", PlayedAt: base.Add(time.Hour)},
	}

	result := replayGames(elo, games, []string{"alice", "bob"}, params, nil, nil)

	// First game: K=32 on both sides, equal ratings, winner gains 16.
	// Second match snapshots a decayed K (16 + 16e^-1) for both players,
	// so alice's second gain must be strictly smaller.
	firstGain := result.Ledger[0].ELOAfter - result.Ledger[0].ELOBefore
	secondGain := result.Ledger[2].ELOAfter - result.Ledger[2].ELOBefore
	if math.Abs(firstGain-16) > 1e-9 {
		t.Errorf("first gain = %v, want 16", firstGain)
	}
	if secondGain >= firstGain {
		t.Errorf("second-match gain %v should be below first-match gain %v", secondGain, firstGain)
	}
}

func TestReplayGames_ProgressCallback(t *testing.T) {
	elo := NewELOService()
	games := makeGames("alice", "bob", 250)

	var calls []int
	replayGames(elo, games, []string{"alice", "bob"}, flatParams(1000, 32), nil, func(done int) {
		calls = append(calls, done)
	})

	// Every 100 games plus a final call.
	want := []int{100, 200, 250}
	if len(calls) != len(want) {
		t.Fatalf("progress calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("progress call %d = %d, want %d", i, calls[i], want[i])
		}
	}
}

func TestReplayGames_NoGames(t *testing.T) {
	elo := NewELOService()

	result := replayGames(elo, nil, []string{"alice", "bob"}, flatParams(1200, 32), nil, nil)

	if result.GamesPlayed != 0 || len(result.Ledger) != 0 {
		t.Fatalf("empty replay produced games=%d ledger=%d", result.GamesPlayed, len(result.Ledger))
	}
	for id, s := range result.Standings {
		if s.ELO != 1200 || s.GamesPlayed != 0 {
			t.Errorf("player %s standing = %+v, want starting ELO with zero stats", id, s)
		}
	}
}
