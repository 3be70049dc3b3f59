package oracle

import (
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/holdinvoice"
	"github.com/wagernet/wagerd/judge"
	"github.com/wagernet/wagerd/wagerwire"
)

// GamePhase tracks a session through the protocol. Phases only ever advance;
// a session never re-enters a phase once its successor is reached.
type GamePhase uint8

const (
	// PhaseWaitingForOpponent means the game sits in the lobby.
	PhaseWaitingForOpponent GamePhase = iota

	// PhaseInvoicesPending means both seats are taken and the oracle is
	// collecting the two hold invoice descriptors.
	PhaseInvoicesPending

	// PhaseEncPreimagesPending means both invoices are recorded and the
	// encrypted preimages are being collected.
	PhaseEncPreimagesPending

	// PhaseCommitPending means both encrypted preimages are recorded and
	// the action commitments are being collected.
	PhaseCommitPending

	// PhaseRevealPending means both commitments are recorded and the
	// reveal deadline is running.
	PhaseRevealPending

	// PhaseComplete means a verdict has been signed. The session is
	// immutable from here on.
	PhaseComplete

	// PhaseAbandoned means the creator withdrew the game from the lobby
	// before an opponent arrived.
	PhaseAbandoned
)

// String returns a human readable phase name.
func (p GamePhase) String() string {
	switch p {
	case PhaseWaitingForOpponent:
		return "WaitingForOpponent"
	case PhaseInvoicesPending:
		return "InvoicesPending"
	case PhaseEncPreimagesPending:
		return "EncryptedPreimagesPending"
	case PhaseCommitPending:
		return "CommitPending"
	case PhaseRevealPending:
		return "RevealPending"
	case PhaseComplete:
		return "Complete"
	case PhaseAbandoned:
		return "Abandoned"
	default:
		return fmt.Sprintf("UnknownPhase(%d)", uint8(p))
	}
}

// oracleSecret is the committed secret of a game kind that is judged against
// one. The value and nonce stay private to the oracle until the verdict
// publishes them.
type oracleSecret struct {
	value      judge.Action
	nonce      [32]byte
	commitment gamecrypt.Commitment
}

// invoiceRecord is the oracle's copy of one player's invoice descriptor.
type invoiceRecord struct {
	paymentHash chainhash.Hash
	amount      holdinvoice.Amount
}

// revealRecord is one player's opened commitment.
type revealRecord struct {
	action judge.Action
	salt   gamecrypt.Salt
}

// gameSession is the oracle's full view of a single game. Every mutation
// happens under the session mutex so independent games progress in parallel
// while each session's transitions stay atomic. The session holds no channel
// state and no preimages; it only mediates the players' exchanges and signs
// a single verdict.
type gameSession struct {
	mtx sync.Mutex

	id         wagerwire.GameID
	kind       judge.Kind
	guessRange uint8
	stake      holdinvoice.Amount
	createdAt  time.Time

	// nonce is the per-game signing nonce. It is consumed by the one
	// verdict signature and nilled out immediately after.
	nonce *gamecrypt.GameNonce

	// commitPoint is R = k*G for the session nonce, fixed at creation.
	commitPoint *btcec.PublicKey

	// secret is non-nil exactly when the kind requires an oracle secret.
	secret *oracleSecret

	playerA wagerwire.PlayerID
	playerB wagerwire.PlayerID
	hasB    bool

	phase GamePhase

	// setupDeadline bounds the funding/commit handshake once both seats
	// are taken; revealDeadline bounds the reveal phase. revealTimeout
	// is this session's configured reveal window.
	setupDeadline  time.Time
	revealDeadline time.Time
	revealTimeout  time.Duration

	// Per-role state, indexed by wagerwire.RoleA/RoleB.
	invoices     [2]*invoiceRecord
	encPreimages [2]*gamecrypt.EncryptedPreimage
	commits      [2]*gamecrypt.Commitment
	reveals      [2]*revealRecord

	// result is set exactly once, when the verdict is signed.
	result *SignedResult
}

// roleOf maps a player id onto its role within the session, or fails if the
// player is not a party to the game.
func (s *gameSession) roleOf(player wagerwire.PlayerID) (wagerwire.PlayerRole,
	error) {

	switch {
	case player == s.playerA:
		return wagerwire.RoleA, nil
	case s.hasB && player == s.playerB:
		return wagerwire.RoleB, nil
	default:
		return 0, ErrNotAuthorized
	}
}

// info snapshots the public parameters of the session. Callers must hold the
// session mutex.
func (s *gameSession) info(oraclePub *btcec.PublicKey) *GameInfo {
	info := &GameInfo{
		ID:          s.id,
		Kind:        s.kind,
		GuessRange:  s.guessRange,
		Stake:       s.stake,
		CreatedAt:   s.createdAt,
		OraclePub:   oraclePub,
		CommitPoint: s.commitPoint,
	}
	if s.secret != nil {
		c := s.secret.commitment
		info.OracleCommitment = &c
	}
	return info
}

// GameInfo is the public announcement of a game session: everything a player
// needs to derive signature points and verify the eventual verdict.
type GameInfo struct {
	ID         wagerwire.GameID
	Kind       judge.Kind
	GuessRange uint8
	Stake      holdinvoice.Amount
	CreatedAt  time.Time

	// OraclePub is the oracle's long-term key O.
	OraclePub *btcec.PublicKey

	// CommitPoint is the per-game nonce commitment R.
	CommitPoint *btcec.PublicKey

	// OracleCommitment hides the oracle secret for kinds that use one.
	OracleCommitment *gamecrypt.Commitment
}

// SignedResult is a signed verdict: the canonical message bytes, their
// parsed form, and the oracle's signature.
type SignedResult struct {
	Msg *wagerwire.VerdictMsg
	Raw []byte
	Sig *gamecrypt.Signature
}
