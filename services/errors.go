package services

import (
	"errors"
	"fmt"

	"github.com/haithamlamki/sssppprt-sub000/brackets"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
)

// Error kinds surfaced by every service. Each returned error wraps exactly one
// of them, so callers can use errors.Is without knowing the concrete cause.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrIncompleteResult = errors.New("incomplete result")
)

// Concrete causes used together with the kinds above.
var (
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrTournamentInvalidType  = errors.New("invalid tournament type")
	ErrTournamentInvalidDates = errors.New("tournament end date must not be before start date")
	ErrInvalidPointValues     = errors.New("point values must satisfy win > draw >= 0 and loss = 0")
	ErrGroupConfigMissing     = errors.New("tournament is missing group stage configuration")
	ErrWrongTournamentType    = errors.New("operation not available for this tournament type")
	ErrGroupStageIncomplete   = errors.New("group stage is not complete")
	ErrGroupsNotAssigned      = errors.New("teams have not been assigned to groups")
	ErrTeamNameRequired       = errors.New("team name is required")
	ErrInvalidGroupNumber     = errors.New("group number out of range")
	ErrInvalidScheduleConfig  = errors.New("invalid schedule configuration")
	ErrInvalidMatchRow        = errors.New("invalid match row")
	ErrEmptyUpdate            = errors.New("update has no fields")
)

var errorKinds = []error{ErrNotFound, ErrValidationFailed, ErrConflict, ErrIncompleteResult}

// classify returns the kind err belongs to, or nil for unexpected errors.
func classify(err error) error {
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrTeamNotFound),
		errors.Is(err, repositories.ErrMatchNotFound):
		return ErrNotFound
	case errors.Is(err, repositories.ErrDuplicate),
		errors.Is(err, brackets.ErrVenueOverlap):
		return ErrConflict
	case errors.Is(err, brackets.ErrPenaltyWinnerRequired),
		errors.Is(err, brackets.ErrWinnerUnresolved),
		errors.Is(err, brackets.ErrScoresRequired):
		return ErrIncompleteResult
	case errors.Is(err, repositories.ErrInvalidReference),
		errors.Is(err, brackets.ErrNotEnoughTeams),
		errors.Is(err, brackets.ErrInvalidTransition),
		errors.Is(err, brackets.ErrInvalidScore),
		errors.Is(err, brackets.ErrByeLocked):
		return ErrValidationFailed
	}
	return nil
}

// wrapError adds op context to err and tags it with its kind. Errors that
// already carry a kind are only given context.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := classify(err)
	if kind == nil || isKind(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", kind, op, err)
}

func isKind(err error) bool {
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

func validationError(cause error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w: %s", ErrValidationFailed, cause, fmt.Sprintf(format, args...))
}
