package service

import "errors"

// Common service errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
)

// Season service specific errors
var (
	ErrSeasonNotFound         = errors.New("season not found")
	ErrSeasonNameTaken        = errors.New("season name already exists")
	ErrSeasonNameEmpty        = errors.New("season name must not be empty")
	ErrStartDateRequired      = errors.New("season start date is required")
	ErrInvalidKFactor         = errors.New("k-factor must be between 1 and 100")
	ErrInvalidKBonus          = errors.New("new player k-bonus must be between 0 and 100")
	ErrInvalidStartingELO     = errors.New("starting elo must be between 100 and 3000")
	ErrIncompleteDynamicK     = errors.New("dynamic k-factor requires base, bonus and a positive period together")
	ErrSeasonHasStrandedGames = errors.New("season still has games no other season can absorb")
)

// Rating config service specific errors
var (
	ErrConfigNotFound  = errors.New("rating configuration not found")
	ErrConfigNameTaken = errors.New("rating configuration version already exists")
	ErrConfigActive    = errors.New("cannot modify or delete the active rating configuration")
)

// Match service specific errors
var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrSamePlayer           = errors.New("a match requires two distinct players")
	ErrNoGames              = errors.New("a match must contain at least one game")
	ErrInvalidWinner        = errors.New("game winner must be player1 or player2")
	ErrTimestampInFuture    = errors.New("match timestamp is in the future")
	ErrNoSeasonForTimestamp = errors.New("no season covers the match timestamp")
	ErrPlayerNotInSeason    = errors.New("player is not a member of the season")
)

// Job service specific errors
var (
	ErrJobNotFound = errors.New("job not found")
)

// Recalculation errors
var (
	ErrRecalcInProgress = errors.New("a recalculation for this season is already running")
)
