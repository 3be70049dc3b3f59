package player

import "errors"

var (
	// ErrGameNotFound signals an operation against a game this engine
	// does not track.
	ErrGameNotFound = errors.New("game not tracked by this player")

	// ErrWrongPhase signals an operation attempted out of order for the
	// game's local phase. The game itself is unaffected.
	ErrWrongPhase = errors.New("operation not valid in current game " +
		"phase")

	// ErrStakeMismatch signals an opponent invoice whose amount differs
	// from the agreed stake. The player refuses to pay it.
	ErrStakeMismatch = errors.New("opponent invoice amount differs " +
		"from stake")

	// ErrCommitTampered signals that the commitment pair quoted by the
	// oracle is inconsistent with the commitment this player submitted.
	// Revealing against a swapped pair would let a malicious hub rebind
	// the reveal, so the player refuses.
	ErrCommitTampered = errors.New("oracle commitment pair does not " +
		"contain our commitment")

	// ErrOracleSigInvalid signals a verdict that fails signature
	// verification. Fatal to the game.
	ErrOracleSigInvalid = errors.New("oracle verdict signature is " +
		"invalid")

	// ErrOracleCommitMismatch signals a revealed oracle secret that does
	// not hash to the commitment announced at game creation. Fatal to
	// the game.
	ErrOracleCommitMismatch = errors.New("revealed oracle secret does " +
		"not match announced commitment")

	// ErrOracleFraud signals a verdict whose signature verifies but
	// which contradicts re-judging the published game data. The signed
	// message is retained as evidence. Fatal to the game.
	ErrOracleFraud = errors.New("oracle signed a verdict contradicting " +
		"the game data")

	// ErrPreimageMismatch signals that the counterparty's encrypted
	// preimage did not decrypt to the preimage behind its payment hash.
	// No settlement is attempted. Fatal to the game.
	ErrPreimageMismatch = errors.New("decrypted preimage does not " +
		"match opponent payment hash")

	// ErrNoSecrets signals a secret store lookup for a game it has no
	// record of.
	ErrNoSecrets = errors.New("no stored secrets for game")

	// ErrNoFraudProof signals a fraud proof lookup for a game without
	// one.
	ErrNoFraudProof = errors.New("no fraud proof recorded for game")
)
