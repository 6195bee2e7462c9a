package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/club-ladder/ladder-backend/internal/models"
	"github.com/club-ladder/ladder-backend/internal/repository"
)

// In-memory fakes for the store interfaces. Error fields inject a
// failure into one method; everything else succeeds.

// fakeTxRunner runs the closure without a real transaction; the fakes
// ignore their tx argument.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(fn func(tx *sql.Tx) error) error { return fn(nil) }

type fakeSeasonStore struct {
	seasons   map[string]*models.Season
	deleted   []string
	activated []string
}

func newFakeSeasonStore(seasons ...*models.Season) *fakeSeasonStore {
	m := make(map[string]*models.Season, len(seasons))
	for _, s := range seasons {
		m[s.ID] = s
	}
	return &fakeSeasonStore{seasons: m}
}

func (f *fakeSeasonStore) FindByID(id string) (*models.Season, error) { return f.seasons[id], nil }

func (f *fakeSeasonStore) FindByName(name string) (*models.Season, error) {
	for _, s := range f.seasons {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSeasonStore) FindActive() (*models.Season, error) {
	for _, s := range f.seasons {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSeasonStore) FindSeasonFor(ts time.Time) (*models.Season, error) {
	var best *models.Season
	for _, s := range f.seasons {
		if !s.StartDate.After(ts) && (best == nil || s.StartDate.After(best.StartDate)) {
			best = s
		}
	}
	return best, nil
}

func (f *fakeSeasonStore) FindPreceding(startDate time.Time) (*models.Season, error) {
	var best *models.Season
	for _, s := range f.seasons {
		if s.StartDate.Before(startDate) && (best == nil || s.StartDate.After(best.StartDate)) {
			best = s
		}
	}
	return best, nil
}

func (f *fakeSeasonStore) List() ([]*models.Season, error) {
	out := make([]*models.Season, 0, len(f.seasons))
	for _, s := range f.seasons {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSeasonStore) ListFrom(startDate time.Time) ([]*models.Season, error) {
	var out []*models.Season
	for _, s := range f.seasons {
		if !s.StartDate.Before(startDate) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSeasonStore) CreateActiveTx(_ *sql.Tx, season *models.Season) (*models.Season, error) {
	for _, s := range f.seasons {
		s.IsActive = false
	}
	created := *season
	created.ID = "season-" + created.Name
	created.IsActive = true
	f.seasons[created.ID] = &created
	return &created, nil
}

func (f *fakeSeasonStore) Activate(seasonID string) error {
	for _, s := range f.seasons {
		s.IsActive = s.ID == seasonID
	}
	f.activated = append(f.activated, seasonID)
	return nil
}

func (f *fakeSeasonStore) Delete(seasonID string) error {
	delete(f.seasons, seasonID)
	f.deleted = append(f.deleted, seasonID)
	return nil
}

func (f *fakeSeasonStore) DeleteTx(_ *sql.Tx, seasonID string) error { return f.Delete(seasonID) }

func (f *fakeSeasonStore) UpdateELOVersion(seasonID string, version *string) error {
	if s := f.seasons[seasonID]; s != nil {
		s.ELOVersion = version
	}
	return nil
}

type fakeMatchStore struct {
	gamesBySeason map[string][]repository.SeasonGame
	latest        map[string]time.Time
	created       []*models.Match
	createdGames  int
	reassigns     int
	moved         [][2]string
	deleted       []string
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{
		gamesBySeason: make(map[string][]repository.SeasonGame),
		latest:        make(map[string]time.Time),
	}
}

func (f *fakeMatchStore) CreateTx(_ *sql.Tx, player1ID, player2ID string, seasonID *string, submittedAt time.Time) (*models.Match, error) {
	m := &models.Match{
		ID:          fmt.Sprintf("match-%d", len(f.created)+1),
		Player1ID:   player1ID,
		Player2ID:   player2ID,
		SeasonID:    seasonID,
		SubmittedAt: submittedAt,
	}
	f.created = append(f.created, m)
	return m, nil
}

func (f *fakeMatchStore) CreateGameTx(_ *sql.Tx, matchID, winnerID, loserID string, seasonID *string, playedAt time.Time) (string, error) {
	f.createdGames++
	return fmt.Sprintf("game-%d", f.createdGames), nil
}

func (f *fakeMatchStore) FindByID(id string) (*models.Match, error) {
	for _, m := range f.created {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMatchStore) List(limit, offset int) ([]*models.Match, error) { return f.created, nil }

func (f *fakeMatchStore) Count() (int64, error) { return int64(len(f.created)), nil }

func (f *fakeMatchStore) ListSeasonGames(seasonID string) ([]repository.SeasonGame, error) {
	return f.gamesBySeason[seasonID], nil
}

func (f *fakeMatchStore) ListAllGames() ([]repository.SeasonGame, error) {
	var out []repository.SeasonGame
	for _, games := range f.gamesBySeason {
		out = append(out, games...)
	}
	return out, nil
}

func (f *fakeMatchStore) LatestGameTime(seasonID string) (*time.Time, error) {
	if ts, ok := f.latest[seasonID]; ok {
		return &ts, nil
	}
	return nil, nil
}

func (f *fakeMatchStore) CountSeasonGames(seasonID string) (int64, error) {
	return int64(len(f.gamesBySeason[seasonID])), nil
}

func (f *fakeMatchStore) ReassignAll() (int64, error) {
	f.reassigns++
	return 0, nil
}

func (f *fakeMatchStore) CountOrphanGames() (int64, error) { return 0, nil }

func (f *fakeMatchStore) MoveSeasonGamesTx(_ *sql.Tx, fromSeasonID, toSeasonID string) error {
	f.moved = append(f.moved, [2]string{fromSeasonID, toSeasonID})
	return nil
}

func (f *fakeMatchStore) Delete(matchID string) error {
	f.deleted = append(f.deleted, matchID)
	return nil
}

type fakePlayerStore struct {
	players map[string]*models.Player
	ratings map[string]float64
}

func newFakePlayerStore(ids ...string) *fakePlayerStore {
	players := make(map[string]*models.Player, len(ids))
	for _, id := range ids {
		players[id] = &models.Player{ID: id, IsActive: true}
	}
	return &fakePlayerStore{players: players, ratings: make(map[string]float64)}
}

func (f *fakePlayerStore) FindByID(id string) (*models.Player, error) { return f.players[id], nil }

func (f *fakePlayerStore) ListActiveIDs() ([]string, error) {
	var out []string
	for id, p := range f.players {
		if p.IsActive {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakePlayerStore) UpdateRatingTx(_ *sql.Tx, playerID string, rating float64) error {
	f.ratings[playerID] = rating
	return nil
}

type fakeParticipationStore struct {
	members        map[string]map[string]*models.PlayerSeason // seasonID -> playerID
	bulkCreateErr  error
	deletedSeasons []string
	stats          map[string]float64 // "seasonID/playerID" -> elo
}

func newFakeParticipationStore() *fakeParticipationStore {
	return &fakeParticipationStore{
		members: make(map[string]map[string]*models.PlayerSeason),
		stats:   make(map[string]float64),
	}
}

func (f *fakeParticipationStore) addMember(seasonID, playerID string, elo float64, gamesPlayed int) {
	if f.members[seasonID] == nil {
		f.members[seasonID] = make(map[string]*models.PlayerSeason)
	}
	f.members[seasonID][playerID] = &models.PlayerSeason{
		PlayerID:    playerID,
		SeasonID:    seasonID,
		CurrentELO:  elo,
		GamesPlayed: gamesPlayed,
		IsIncluded:  true,
	}
}

func (f *fakeParticipationStore) Find(playerID, seasonID string) (*models.PlayerSeason, error) {
	return f.members[seasonID][playerID], nil
}

func (f *fakeParticipationStore) FindForUpdateTx(_ *sql.Tx, playerID, seasonID string) (*models.PlayerSeason, error) {
	return f.members[seasonID][playerID], nil
}

func (f *fakeParticipationStore) BulkCreate(seasonID string, playerIDs []string, startingELO float64) (int64, error) {
	if f.bulkCreateErr != nil {
		return 0, f.bulkCreateErr
	}
	for _, id := range playerIDs {
		f.addMember(seasonID, id, startingELO, 0)
	}
	return int64(len(playerIDs)), nil
}

func (f *fakeParticipationStore) ListPlayerIDs(seasonID string) ([]string, error) {
	var out []string
	for id := range f.members[seasonID] {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeParticipationStore) SetIncluded(playerID, seasonID string, included bool, startingELO float64) error {
	if f.members[seasonID][playerID] == nil {
		f.addMember(seasonID, playerID, startingELO, 0)
	}
	f.members[seasonID][playerID].IsIncluded = included
	return nil
}

func (f *fakeParticipationStore) UpdateStatsTx(_ *sql.Tx, playerID, seasonID string, elo float64, games, wins, losses int) error {
	f.stats[seasonID+"/"+playerID] = elo
	return nil
}

func (f *fakeParticipationStore) ApplyResultTx(_ *sql.Tx, playerID, seasonID string, elo float64, games, wins, losses int) error {
	f.stats[seasonID+"/"+playerID] = elo
	return nil
}

func (f *fakeParticipationStore) DeleteBySeason(seasonID string) error {
	delete(f.members, seasonID)
	f.deletedSeasons = append(f.deletedSeasons, seasonID)
	return nil
}

func (f *fakeParticipationStore) DeleteBySeasonTx(_ *sql.Tx, seasonID string) error {
	return f.DeleteBySeason(seasonID)
}

func (f *fakeParticipationStore) Leaderboard(seasonID string) ([]repository.LeaderboardEntry, error) {
	return nil, nil
}

func (f *fakeParticipationStore) ListSeasonPlayers(seasonID string) ([]repository.SeasonPlayer, error) {
	return nil, nil
}

type fakeHistoryStore struct {
	inserted        []models.ELOHistory
	deletedSeasons  []string
	deletedVersions []string
}

func (f *fakeHistoryStore) InsertTx(_ *sql.Tx, entry *models.ELOHistory) error {
	f.inserted = append(f.inserted, *entry)
	return nil
}

func (f *fakeHistoryStore) BulkInsertTx(_ *sql.Tx, entries []models.ELOHistory) error {
	f.inserted = append(f.inserted, entries...)
	return nil
}

func (f *fakeHistoryStore) DeleteBySeasonTx(_ *sql.Tx, seasonID string) error {
	f.deletedSeasons = append(f.deletedSeasons, seasonID)
	return nil
}

func (f *fakeHistoryStore) DeleteByVersionTx(_ *sql.Tx, version string) error {
	f.deletedVersions = append(f.deletedVersions, version)
	return nil
}

func (f *fakeHistoryStore) ListMatchGamePairs(matchID, player1ID, player2ID string) ([]repository.GamePair, error) {
	return nil, nil
}

type fakeConfigStore struct {
	configs map[string]*models.RatingConfig
}

func (f *fakeConfigStore) FindByVersion(version string) (*models.RatingConfig, error) {
	return f.configs[version], nil
}

func (f *fakeConfigStore) FindActive() (*models.RatingConfig, error) {
	for _, c := range f.configs {
		if c.IsActive {
			return c, nil
		}
	}
	return nil, nil
}

type fakeRecalculator struct {
	recalced  []string
	fromCalls []string
	err       error
}

func (f *fakeRecalculator) resolveParams(season *models.Season) (models.RatingParams, error) {
	return season.RatingParams(), nil
}

func (f *fakeRecalculator) RecalculateSeason(_ context.Context, seasonID string, _ func(done, total int)) (*RecalcSummary, error) {
	f.recalced = append(f.recalced, seasonID)
	return &RecalcSummary{SeasonID: seasonID}, f.err
}

func (f *fakeRecalculator) RecalculateSeasonsFrom(_ context.Context, seasonID string, _ func(done, total int)) ([]*RecalcSummary, error) {
	f.fromCalls = append(f.fromCalls, seasonID)
	return nil, f.err
}
