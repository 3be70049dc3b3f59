package wagerwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/holdinvoice"
	"github.com/wagernet/wagerd/judge"
)

// CreateGame asks the oracle to open a new game session with the sender as
// player A.
type CreateGame struct {
	// PlayerA identifies the game creator.
	PlayerA PlayerID

	// Kind selects the ruleset.
	Kind judge.Kind

	// GuessRange is the exclusive upper bound on GuessNumber actions.
	// Zero selects the default range. Ignored for kinds without a
	// numeric action space.
	GuessRange uint8

	// Stake is the amount each player wagers.
	Stake holdinvoice.Amount

	// RevealTimeoutSecs overrides the oracle's default reveal timeout
	// for this game when non-zero.
	RevealTimeoutSecs uint32
}

var _ Message = (*CreateGame)(nil)

// Decode is part of the Message interface.
func (m *CreateGame) Decode(r io.Reader) error {
	return readElements(r,
		&m.PlayerA, &m.Kind, &m.GuessRange, &m.Stake,
		&m.RevealTimeoutSecs,
	)
}

// Encode is part of the Message interface.
func (m *CreateGame) Encode(w io.Writer) error {
	return writeElements(w,
		m.PlayerA, m.Kind, m.GuessRange, m.Stake, m.RevealTimeoutSecs,
	)
}

// MsgType is part of the Message interface.
func (m *CreateGame) MsgType() MessageType { return MsgCreateGame }

// GameCreated announces a freshly created game session: its id, the oracle
// key material the session is bound to, and the oracle's secret commitment
// for kinds that are judged against one.
type GameCreated struct {
	ID GameID

	// OraclePub is the oracle's long-term public key O.
	OraclePub *btcec.PublicKey

	// CommitPoint is the per-game nonce commitment R. Together with
	// OraclePub and the game id it fixes every verdict's signature point.
	CommitPoint *btcec.PublicKey

	// HasOracleCommitment is true when the game kind requires an oracle
	// secret, in which case OracleCommitment hides it.
	HasOracleCommitment bool
	OracleCommitment    gamecrypt.Commitment

	// GuessRange echoes the action bound recorded in the session.
	GuessRange uint8
}

var _ Message = (*GameCreated)(nil)

// Decode is part of the Message interface.
func (m *GameCreated) Decode(r io.Reader) error {
	return readElements(r,
		&m.ID, &m.OraclePub, &m.CommitPoint, &m.HasOracleCommitment,
		&m.OracleCommitment, &m.GuessRange,
	)
}

// Encode is part of the Message interface.
func (m *GameCreated) Encode(w io.Writer) error {
	return writeElements(w,
		m.ID, m.OraclePub, m.CommitPoint, m.HasOracleCommitment,
		m.OracleCommitment, m.GuessRange,
	)
}

// MsgType is part of the Message interface.
func (m *GameCreated) MsgType() MessageType { return MsgGameCreated }

// JoinGame asks the oracle to seat the sender as player B of a lobby game.
type JoinGame struct {
	ID      GameID
	PlayerB PlayerID
}

var _ Message = (*JoinGame)(nil)

// Decode is part of the Message interface.
func (m *JoinGame) Decode(r io.Reader) error {
	return readElements(r, &m.ID, &m.PlayerB)
}

// Encode is part of the Message interface.
func (m *JoinGame) Encode(w io.Writer) error {
	return writeElements(w, m.ID, m.PlayerB)
}

// MsgType is part of the Message interface.
func (m *JoinGame) MsgType() MessageType { return MsgJoinGame }

// GameJoined mirrors GameCreated toward the joining player.
type GameJoined struct {
	ID GameID

	OraclePub   *btcec.PublicKey
	CommitPoint *btcec.PublicKey

	HasOracleCommitment bool
	OracleCommitment    gamecrypt.Commitment

	Kind       judge.Kind
	GuessRange uint8
	Stake      holdinvoice.Amount
}

var _ Message = (*GameJoined)(nil)

// Decode is part of the Message interface.
func (m *GameJoined) Decode(r io.Reader) error {
	return readElements(r,
		&m.ID, &m.OraclePub, &m.CommitPoint, &m.HasOracleCommitment,
		&m.OracleCommitment, &m.Kind, &m.GuessRange, &m.Stake,
	)
}

// Encode is part of the Message interface.
func (m *GameJoined) Encode(w io.Writer) error {
	return writeElements(w,
		m.ID, m.OraclePub, m.CommitPoint, m.HasOracleCommitment,
		m.OracleCommitment, m.Kind, m.GuessRange, m.Stake,
	)
}

// MsgType is part of the Message interface.
func (m *GameJoined) MsgType() MessageType { return MsgGameJoined }
