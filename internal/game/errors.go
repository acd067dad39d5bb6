// internal/game/errors.go
package game

import "errors"

// Validation errors are rejected synchronously with zero state mutation. They
// are returned to the acting client only and never broadcast.
var (
	ErrPlayerNotFound         = errors.New("player not found in this game")
	ErrNotYourTurn            = errors.New("not your turn")
	ErrCardNotOwned           = errors.New("you do not have this card")
	ErrIllegalWildDrawFour    = errors.New("wild draw four cannot be played while holding a card of the matching color")
	ErrMustDrawFirst          = errors.New("you must draw the pending cards first")
	ErrCardNotPlayable        = errors.New("card cannot be played on the current discard")
	ErrColorSelectionRequired = errors.New("a color must be selected for a wild card")
	ErrCannotCallUno          = errors.New("uno can only be called with exactly one card left")
	ErrNoUnoFailure           = errors.New("player has not failed to call uno")
	ErrChallengeDisabled      = errors.New("challenges are disabled by house rules")
	ErrNoChallengeable        = errors.New("no wild draw four to challenge")
	ErrGameFinished           = errors.New("game is finished")
)

// Structural errors: no live session exists for the requested game, or the
// transport delivered an action kind the engine does not know.
var (
	ErrGameNotFound  = errors.New("game not found")
	ErrUnknownAction = errors.New("unknown action type")
)

// Creation errors.
var (
	ErrTooFewPlayers  = errors.New("a game needs at least two players")
	ErrTooManyPlayers = errors.New("too many players for one deck")
)

// IsValidationError reports whether err belongs to the rule-violation
// taxonomy, as opposed to a structural failure like ErrGameNotFound.
func IsValidationError(err error) bool {
	for _, e := range []error{
		ErrPlayerNotFound, ErrNotYourTurn, ErrCardNotOwned,
		ErrIllegalWildDrawFour, ErrMustDrawFirst, ErrCardNotPlayable,
		ErrColorSelectionRequired, ErrCannotCallUno, ErrNoUnoFailure,
		ErrChallengeDisabled, ErrNoChallengeable, ErrGameFinished,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
