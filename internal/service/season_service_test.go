package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/internal/repository"
)

func validInput() CreateSeasonInput {
	return CreateSeasonInput{
		Name:        "2025 Spring",
		StartDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		StartingELO: 1000,
		KFactor:     32,
	}
}

func TestValidateCreateInput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateSeasonInput)
		wantErr error
	}{
		{
			name:    "valid flat-K season",
			mutate:  func(in *CreateSeasonInput) {},
			wantErr: nil,
		},
		{
			name: "valid dynamic-K season",
			mutate: func(in *CreateSeasonInput) {
				in.BaseKFactor = floatPtr(16)
				in.NewPlayerKBonus = floatPtr(16)
				in.NewPlayerBonusPeriod = intPtr(10)
			},
			wantErr: nil,
		},
		{
			name:    "empty name",
			mutate:  func(in *CreateSeasonInput) { in.Name = "" },
			wantErr: ErrSeasonNameEmpty,
		},
		{
			name:    "name over 100 characters",
			mutate:  func(in *CreateSeasonInput) { in.Name = strings.Repeat("x", 101) },
			wantErr: ErrSeasonNameEmpty,
		},
		{
			name:    "name at exactly 100 characters",
			mutate:  func(in *CreateSeasonInput) { in.Name = strings.Repeat("x", 100) },
			wantErr: nil,
		},
		{
			name:    "missing start date",
			mutate:  func(in *CreateSeasonInput) { in.StartDate = time.Time{} },
			wantErr: ErrStartDateRequired,
		},
		{
			name:    "k-factor below range",
			mutate:  func(in *CreateSeasonInput) { in.KFactor = 0 },
			wantErr: ErrInvalidKFactor,
		},
		{
			name:    "k-factor above range",
			mutate:  func(in *CreateSeasonInput) { in.KFactor = 101 },
			wantErr: ErrInvalidKFactor,
		},
		{
			name:    "starting elo below range",
			mutate:  func(in *CreateSeasonInput) { in.StartingELO = 99 },
			wantErr: ErrInvalidStartingELO,
		},
		{
			name:    "starting elo above range",
			mutate:  func(in *CreateSeasonInput) { in.StartingELO = 3001 },
			wantErr: ErrInvalidStartingELO,
		},
		{
			name: "base without bonus and period",
			mutate: func(in *CreateSeasonInput) {
				in.BaseKFactor = floatPtr(16)
			},
			wantErr: ErrIncompleteDynamicK,
		},
		{
			name: "bonus and period without base",
			mutate: func(in *CreateSeasonInput) {
				in.NewPlayerKBonus = floatPtr(16)
				in.NewPlayerBonusPeriod = intPtr(10)
			},
			wantErr: ErrIncompleteDynamicK,
		},
		{
			name: "zero bonus period",
			mutate: func(in *CreateSeasonInput) {
				in.BaseKFactor = floatPtr(16)
				in.NewPlayerKBonus = floatPtr(16)
				in.NewPlayerBonusPeriod = intPtr(0)
			},
			wantErr: ErrIncompleteDynamicK,
		},
		{
			name: "base k-factor out of range",
			mutate: func(in *CreateSeasonInput) {
				in.BaseKFactor = floatPtr(0.5)
				in.NewPlayerKBonus = floatPtr(16)
				in.NewPlayerBonusPeriod = intPtr(10)
			},
			wantErr: ErrInvalidKFactor,
		},
		{
			name: "bonus out of range",
			mutate: func(in *CreateSeasonInput) {
				in.BaseKFactor = floatPtr(16)
				in.NewPlayerKBonus = floatPtr(101)
				in.NewPlayerBonusPeriod = intPtr(10)
			},
			wantErr: ErrInvalidKBonus,
		},
		{
			name: "zero bonus is allowed",
			mutate: func(in *CreateSeasonInput) {
				in.BaseKFactor = floatPtr(16)
				in.NewPlayerKBonus = floatPtr(0)
				in.NewPlayerBonusPeriod = intPtr(10)
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)
			err := validateCreateInput(input)
			if err != tt.wantErr {
				t.Errorf("validateCreateInput() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func newSeasonServiceWithFakes(seasons *fakeSeasonStore, matches *fakeMatchStore, players *fakePlayerStore, parts *fakeParticipationStore, recalc *fakeRecalculator) *SeasonService {
	return NewSeasonService(fakeTxRunner{}, seasons, matches, players, parts, &fakeHistoryStore{}, &fakeConfigStore{}, recalc)
}

func TestCreateSeason_Commits(t *testing.T) {
	prev := &models.Season{
		ID:        "season-old",
		Name:      "2024 Winter",
		StartDate: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	seasons := newFakeSeasonStore(prev)
	matches := newFakeMatchStore()
	players := newFakePlayerStore("alice", "bob")
	parts := newFakeParticipationStore()
	recalc := &fakeRecalculator{}
	svc := newSeasonServiceWithFakes(seasons, matches, players, parts, recalc)

	season, err := svc.CreateSeason(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateSeason() error = %v", err)
	}
	if !season.IsActive {
		t.Error("new season must be active")
	}
	if prev.IsActive {
		t.Error("previous season must have been deactivated")
	}
	if len(parts.members[season.ID]) != 2 {
		t.Errorf("participations = %d, want 2", len(parts.members[season.ID]))
	}
	if matches.reassigns != 1 {
		t.Errorf("reassign runs = %d, want 1", matches.reassigns)
	}
	if len(recalc.fromCalls) != 1 || recalc.fromCalls[0] != season.ID {
		t.Errorf("recalculation from = %v, want [%s]", recalc.fromCalls, season.ID)
	}
}

func TestCreateSeason_RollbackOnStepFailure(t *testing.T) {
	prev := &models.Season{
		ID:        "season-old",
		Name:      "2024 Winter",
		StartDate: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	seasons := newFakeSeasonStore(prev)
	matches := newFakeMatchStore()
	players := newFakePlayerStore("alice", "bob")
	parts := newFakeParticipationStore()
	parts.bulkCreateErr = errors.New("insert failed")
	recalc := &fakeRecalculator{}
	svc := newSeasonServiceWithFakes(seasons, matches, players, parts, recalc)

	_, err := svc.CreateSeason(context.Background(), validInput())
	if err == nil {
		t.Fatal("CreateSeason() should fail when participation init fails")
	}
	if !strings.Contains(err.Error(), string(stateInitializing)) {
		t.Errorf("error %q should name the failed step", err)
	}

	// The half-created season and its participations are gone.
	if got, _ := seasons.FindByName("2025 Spring"); got != nil {
		t.Error("season row must be deleted during rollback")
	}
	if len(seasons.deleted) != 1 {
		t.Errorf("season deletes = %v, want exactly one", seasons.deleted)
	}

	// The previously active season is active again, so the system is
	// not left without one.
	active, _ := seasons.FindActive()
	if active == nil || active.ID != "season-old" {
		t.Errorf("active season after rollback = %+v, want season-old restored", active)
	}

	// Event assignments were restored, and no recalculation ran.
	if matches.reassigns == 0 {
		t.Error("rollback must restore event assignments")
	}
	if len(recalc.fromCalls) != 0 {
		t.Errorf("recalculation ran after rollback: %v", recalc.fromCalls)
	}
}

func TestDeleteSeason_StrandedGamesConflict(t *testing.T) {
	season := &models.Season{
		ID:        "season-1",
		Name:      "2025 Spring",
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	seasons := newFakeSeasonStore(season)
	matches := newFakeMatchStore()
	matches.gamesBySeason["season-1"] = []repository.SeasonGame{
		{GameID: "g1", WinnerID: "alice", LoserID: "bob"},
	}
	recalc := &fakeRecalculator{}
	svc := newSeasonServiceWithFakes(seasons, matches, newFakePlayerStore(), newFakeParticipationStore(), recalc)

	// The earliest season still owns games; nothing can absorb them.
	err := svc.DeleteSeason(context.Background(), "season-1")
	if !errors.Is(err, ErrSeasonHasStrandedGames) {
		t.Fatalf("DeleteSeason() error = %v, want ErrSeasonHasStrandedGames", err)
	}
	if len(seasons.deleted) != 0 {
		t.Error("the season must survive a refused delete")
	}
	if len(recalc.fromCalls) != 0 {
		t.Error("no recalculation should run after a refused delete")
	}
}

func TestDeleteSeason_MovesGamesToPredecessor(t *testing.T) {
	older := &models.Season{
		ID:        "season-0",
		Name:      "2024 Winter",
		StartDate: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	doomed := &models.Season{
		ID:        "season-1",
		Name:      "2025 Spring",
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	seasons := newFakeSeasonStore(older, doomed)
	matches := newFakeMatchStore()
	matches.gamesBySeason["season-1"] = []repository.SeasonGame{
		{GameID: "g1", WinnerID: "alice", LoserID: "bob"},
	}
	recalc := &fakeRecalculator{}
	svc := newSeasonServiceWithFakes(seasons, matches, newFakePlayerStore(), newFakeParticipationStore(), recalc)

	if err := svc.DeleteSeason(context.Background(), "season-1"); err != nil {
		t.Fatalf("DeleteSeason() error = %v", err)
	}
	if len(matches.moved) != 1 || matches.moved[0] != [2]string{"season-1", "season-0"} {
		t.Errorf("moved = %v, want games moved from season-1 to season-0", matches.moved)
	}
	if len(seasons.deleted) != 1 || seasons.deleted[0] != "season-1" {
		t.Errorf("deleted = %v, want [season-1]", seasons.deleted)
	}
	if len(recalc.fromCalls) != 1 || recalc.fromCalls[0] != "season-0" {
		t.Errorf("recalculation from = %v, want [season-0]", recalc.fromCalls)
	}
}
