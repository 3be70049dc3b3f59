package player

import (
	"time"

	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/judge"
	"github.com/wagernet/wagerd/wagerwire"
)

// GameSecrets is the per-game material only this player knows: the
// settlement preimage, the commitment salt, and, once chosen, the committed
// action. It is written to the secret store before any of it leaves the
// engine, so a restarted player can resume a game by re-polling the oracle.
// This material must never appear in logs or wire messages.
type GameSecrets struct {
	Preimage gamecrypt.Preimage
	Salt     gamecrypt.Salt

	// Action is only meaningful once HasAction is set.
	Action    judge.Action
	HasAction bool
}

// FraudReason classifies what a retained fraud proof demonstrates.
type FraudReason uint8

const (
	// FraudBadJudgment: the signature verifies but the verdict
	// contradicts re-judging the published game data.
	FraudBadJudgment FraudReason = iota

	// FraudBadOracleCommitment: the revealed oracle secret does not
	// hash to the commitment announced at creation.
	FraudBadOracleCommitment

	// FraudBadGameData: the published game data disagrees with what
	// this player actually revealed.
	FraudBadGameData

	// FraudBadPreimage: the counterparty's encrypted preimage did not
	// decrypt to the preimage behind its payment hash.
	FraudBadPreimage
)

// String returns a short name for the fraud reason.
func (r FraudReason) String() string {
	switch r {
	case FraudBadJudgment:
		return "BadJudgment"
	case FraudBadOracleCommitment:
		return "BadOracleCommitment"
	case FraudBadGameData:
		return "BadGameData"
	case FraudBadPreimage:
		return "BadPreimage"
	default:
		return "Unknown"
	}
}

// FraudProof is the structured evidence record retained when cryptographic
// verification fails on a game: the signed message exactly as published,
// its signature, and what honest re-computation expected. It is kept for
// out-of-band publication.
type FraudProof struct {
	GameID wagerwire.GameID
	Reason FraudReason

	// RawMsg and Signature are the oracle's published verdict exactly
	// as received.
	RawMsg    []byte
	Signature [gamecrypt.SignatureSize]byte

	// ClaimedVerdict is what the message asserts, ExpectedVerdict what
	// re-judging produced. ExpectedVerdict is only meaningful for
	// FraudBadJudgment.
	ClaimedVerdict  judge.Verdict
	ExpectedVerdict judge.Verdict

	ObservedAt time.Time
}

// SecretStore persists the player's per-game secrets and fraud evidence.
// Implementations must keep secrets local to the player; the reference
// implementation lives in the wagerdb package.
type SecretStore interface {
	// StoreGameSecrets writes (or overwrites) the secrets for a game.
	StoreGameSecrets(id wagerwire.GameID, secrets *GameSecrets) error

	// FetchGameSecrets returns the stored secrets for a game, or
	// ErrNoSecrets.
	FetchGameSecrets(id wagerwire.GameID) (*GameSecrets, error)

	// StoreFraudProof retains an evidence record.
	StoreFraudProof(proof *FraudProof) error

	// FetchFraudProof returns the evidence record for a game, or
	// ErrNoFraudProof.
	FetchFraudProof(id wagerwire.GameID) (*FraudProof, error)
}
