package oracle

import "errors"

var (
	// ErrGameNotFound signals a request against an unknown game id.
	ErrGameNotFound = errors.New("game not found")

	// ErrWrongPhase signals an operation attempted outside the game
	// phase that permits it. The game itself is unaffected.
	ErrWrongPhase = errors.New("operation not valid in current game " +
		"phase")

	// ErrNotAuthorized signals a player acting on a game it is not a
	// party to.
	ErrNotAuthorized = errors.New("player is not a party to this game")

	// ErrSelfPlay signals an attempt to join one's own game.
	ErrSelfPlay = errors.New("player cannot join its own game")

	// ErrStakeMismatch signals an invoice whose amount differs from the
	// game's stake.
	ErrStakeMismatch = errors.New("invoice amount does not match game " +
		"stake")

	// ErrDuplicateSubmission signals a player re-submitting a value the
	// oracle already holds for it in this phase.
	ErrDuplicateSubmission = errors.New("value already submitted for " +
		"this game")

	// ErrNotReady signals a query for shared state the counterparty has
	// not yet provided. Callers poll until it clears.
	ErrNotReady = errors.New("requested game data not yet available")

	// ErrCommitMismatch signals a reveal that does not open the stored
	// commitment.
	ErrCommitMismatch = errors.New("reveal does not match stored " +
		"commitment")

	// ErrCommitWitnessMismatch signals a reveal quoting a commitment
	// pair different from the one the oracle holds.
	ErrCommitWitnessMismatch = errors.New("quoted commitments do not " +
		"match oracle state")

	// ErrInvalidAction signals an action outside the game's action
	// space.
	ErrInvalidAction = errors.New("action outside game action space")

	// ErrResultPending signals that no verdict has been determined yet.
	ErrResultPending = errors.New("game result is still pending")
)
