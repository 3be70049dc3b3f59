package wagerwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/wagernet/wagerd/holdinvoice"
	"github.com/wagernet/wagerd/judge"
)

// GetPubKey requests the oracle's long-term public key.
type GetPubKey struct{}

var _ Message = (*GetPubKey)(nil)

// Decode is part of the Message interface.
func (m *GetPubKey) Decode(io.Reader) error { return nil }

// Encode is part of the Message interface.
func (m *GetPubKey) Encode(io.Writer) error { return nil }

// MsgType is part of the Message interface.
func (m *GetPubKey) MsgType() MessageType { return MsgGetPubKey }

// PubKey carries the oracle's long-term public key.
type PubKey struct {
	Key *btcec.PublicKey
}

var _ Message = (*PubKey)(nil)

// Decode is part of the Message interface.
func (m *PubKey) Decode(r io.Reader) error {
	return readElements(r, &m.Key)
}

// Encode is part of the Message interface.
func (m *PubKey) Encode(w io.Writer) error {
	return writeElements(w, m.Key)
}

// MsgType is part of the Message interface.
func (m *PubKey) MsgType() MessageType { return MsgPubKey }

// ListGames requests the lobby of games waiting for an opponent, optionally
// filtered down to a single game kind.
type ListGames struct {
	// Filtered is true if Kind restricts the listing.
	Filtered bool

	// Kind is the game kind to filter for when Filtered is set.
	Kind judge.Kind
}

var _ Message = (*ListGames)(nil)

// Decode is part of the Message interface.
func (m *ListGames) Decode(r io.Reader) error {
	return readElements(r, &m.Filtered, &m.Kind)
}

// Encode is part of the Message interface.
func (m *ListGames) Encode(w io.Writer) error {
	return writeElements(w, m.Filtered, m.Kind)
}

// MsgType is part of the Message interface.
func (m *ListGames) MsgType() MessageType { return MsgListGames }

// GameSummary is a lobby entry for a single joinable game.
type GameSummary struct {
	ID        GameID
	Kind      judge.Kind
	Stake     holdinvoice.Amount
	CreatedAt uint64
}

// GameList carries the lobby listing.
type GameList struct {
	Games []GameSummary
}

var _ Message = (*GameList)(nil)

// Decode is part of the Message interface.
func (m *GameList) Decode(r io.Reader) error {
	var count uint16
	if err := readElement(r, &count); err != nil {
		return err
	}

	m.Games = make([]GameSummary, count)
	for i := range m.Games {
		err := readElements(r,
			&m.Games[i].ID,
			&m.Games[i].Kind,
			&m.Games[i].Stake,
			&m.Games[i].CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// Encode is part of the Message interface.
func (m *GameList) Encode(w io.Writer) error {
	if err := writeElement(w, uint16(len(m.Games))); err != nil {
		return err
	}

	for i := range m.Games {
		err := writeElements(w,
			m.Games[i].ID,
			m.Games[i].Kind,
			m.Games[i].Stake,
			m.Games[i].CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// MsgType is part of the Message interface.
func (m *GameList) MsgType() MessageType { return MsgGameList }

// Ack is the empty success response to a submission.
type Ack struct{}

var _ Message = (*Ack)(nil)

// Decode is part of the Message interface.
func (m *Ack) Decode(io.Reader) error { return nil }

// Encode is part of the Message interface.
func (m *Ack) Encode(io.Writer) error { return nil }

// MsgType is part of the Message interface.
func (m *Ack) MsgType() MessageType { return MsgAck }

// Error reports a request failure back to a player.
type Error struct {
	Data []byte
}

var _ Message = (*Error)(nil)

// Decode is part of the Message interface.
func (m *Error) Decode(r io.Reader) error {
	return readElements(r, &m.Data)
}

// Encode is part of the Message interface.
func (m *Error) Encode(w io.Writer) error {
	return writeElements(w, m.Data)
}

// MsgType is part of the Message interface.
func (m *Error) MsgType() MessageType { return MsgError }

// Error returns the payload as the error string.
func (m *Error) Error() string {
	return string(m.Data)
}
