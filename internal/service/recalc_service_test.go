package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/internal/repository"
)

func recalcFixture(active bool) (*RecalcService, *fakePlayerStore, *fakeParticipationStore) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	season := &models.Season{
		ID:          "season-1",
		Name:        "2025 Spring",
		StartDate:   start,
		StartingELO: 1000,
		KFactor:     32,
		IsActive:    active,
	}
	seasons := newFakeSeasonStore(season)

	matches := newFakeMatchStore()
	matches.gamesBySeason["season-1"] = []repository.SeasonGame{
		{GameID: "g1", WinnerID: "alice", LoserID: "bob", PlayedAt: start.Add(time.Hour)},
	}

	players := newFakePlayerStore("alice", "bob")
	parts := newFakeParticipationStore()
	parts.addMember("season-1", "alice", 1000, 0)
	parts.addMember("season-1", "bob", 1000, 0)

	svc := NewRecalcService(fakeTxRunner{}, NewELOService(), seasons, matches, players, parts,
		&fakeHistoryStore{}, &fakeConfigStore{}, nil)
	return svc, players, parts
}

func TestRecalculateSeason_WritesGlobalRatingsForActiveSeason(t *testing.T) {
	svc, players, parts := recalcFixture(true)

	summary, err := svc.RecalculateSeason(context.Background(), "season-1", nil)
	if err != nil {
		t.Fatalf("RecalculateSeason() error = %v", err)
	}
	if summary.GamesPlayed != 1 || summary.LedgerRows != 2 {
		t.Errorf("summary = %+v, want 1 game and 2 ledger rows", summary)
	}

	// Participation stats carry the rebuilt standings.
	if got := parts.stats["season-1/alice"]; math.Abs(got-1016) > 1e-9 {
		t.Errorf("alice participation ELO = %v, want 1016", got)
	}

	// The active season's standings are also the players' global
	// ratings, rewritten in the same persist.
	if got, ok := players.ratings["alice"]; !ok || math.Abs(got-1016) > 1e-9 {
		t.Errorf("alice current_elo = %v (written=%v), want 1016", got, ok)
	}
	if got, ok := players.ratings["bob"]; !ok || math.Abs(got-984) > 1e-9 {
		t.Errorf("bob current_elo = %v (written=%v), want 984", got, ok)
	}
}

func TestRecalculateSeason_LeavesGlobalRatingsForPastSeason(t *testing.T) {
	svc, players, parts := recalcFixture(false)

	if _, err := svc.RecalculateSeason(context.Background(), "season-1", nil); err != nil {
		t.Fatalf("RecalculateSeason() error = %v", err)
	}

	if got := parts.stats["season-1/bob"]; math.Abs(got-984) > 1e-9 {
		t.Errorf("bob participation ELO = %v, want 984", got)
	}
	// Rebuilding a past season must not clobber current ratings.
	if len(players.ratings) != 0 {
		t.Errorf("global ratings written for a past season: %v", players.ratings)
	}
}
