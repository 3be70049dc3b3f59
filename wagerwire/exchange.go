package wagerwire

import (
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/holdinvoice"
	"github.com/wagernet/wagerd/judge"
)

// SubmitInvoice records a player's hold invoice descriptor with the oracle.
type SubmitInvoice struct {
	ID          GameID
	Player      PlayerID
	PaymentHash chainhash.Hash
	Amount      holdinvoice.Amount
}

var _ Message = (*SubmitInvoice)(nil)

// Decode is part of the Message interface.
func (m *SubmitInvoice) Decode(r io.Reader) error {
	return readElements(r, &m.ID, &m.Player, &m.PaymentHash, &m.Amount)
}

// Encode is part of the Message interface.
func (m *SubmitInvoice) Encode(w io.Writer) error {
	return writeElements(w, m.ID, m.Player, m.PaymentHash, m.Amount)
}

// MsgType is part of the Message interface.
func (m *SubmitInvoice) MsgType() MessageType { return MsgSubmitInvoice }

// GetInvoice requests the opponent's invoice descriptor. The sender
// identifies itself; the oracle answers with the other player's invoice once
// both have been submitted.
type GetInvoice struct {
	ID     GameID
	Player PlayerID
}

var _ Message = (*GetInvoice)(nil)

// Decode is part of the Message interface.
func (m *GetInvoice) Decode(r io.Reader) error {
	return readElements(r, &m.ID, &m.Player)
}

// Encode is part of the Message interface.
func (m *GetInvoice) Encode(w io.Writer) error {
	return writeElements(w, m.ID, m.Player)
}

// MsgType is part of the Message interface.
func (m *GetInvoice) MsgType() MessageType { return MsgGetInvoice }

// InvoiceInfo describes the opponent's hold invoice.
type InvoiceInfo struct {
	ID          GameID
	PaymentHash chainhash.Hash
	Amount      holdinvoice.Amount
}

var _ Message = (*InvoiceInfo)(nil)

// Decode is part of the Message interface.
func (m *InvoiceInfo) Decode(r io.Reader) error {
	return readElements(r, &m.ID, &m.PaymentHash, &m.Amount)
}

// Encode is part of the Message interface.
func (m *InvoiceInfo) Encode(w io.Writer) error {
	return writeElements(w, m.ID, m.PaymentHash, m.Amount)
}

// MsgType is part of the Message interface.
func (m *InvoiceInfo) MsgType() MessageType { return MsgInvoiceInfo }

// SubmitEncPreimage records a player's encrypted preimage.
type SubmitEncPreimage struct {
	ID     GameID
	Player PlayerID
	Enc    gamecrypt.EncryptedPreimage
}

var _ Message = (*SubmitEncPreimage)(nil)

// Decode is part of the Message interface.
func (m *SubmitEncPreimage) Decode(r io.Reader) error {
	return readElements(r, &m.ID, &m.Player, &m.Enc)
}

// Encode is part of the Message interface.
func (m *SubmitEncPreimage) Encode(w io.Writer) error {
	return writeElements(w, m.ID, m.Player, m.Enc)
}

// MsgType is part of the Message interface.
func (m *SubmitEncPreimage) MsgType() MessageType { return MsgSubmitEncPreimage }

// GetEncPreimage requests the opponent's encrypted preimage.
type GetEncPreimage struct {
	ID     GameID
	Player PlayerID
}

var _ Message = (*GetEncPreimage)(nil)

// Decode is part of the Message interface.
func (m *GetEncPreimage) Decode(r io.Reader) error {
	return readElements(r, &m.ID, &m.Player)
}

// Encode is part of the Message interface.
func (m *GetEncPreimage) Encode(w io.Writer) error {
	return writeElements(w, m.ID, m.Player)
}

// MsgType is part of the Message interface.
func (m *GetEncPreimage) MsgType() MessageType { return MsgGetEncPreimage }

// EncPreimageInfo carries the opponent's encrypted preimage.
type EncPreimageInfo struct {
	ID  GameID
	Enc gamecrypt.EncryptedPreimage
}

var _ Message = (*EncPreimageInfo)(nil)

// Decode is part of the Message interface.
func (m *EncPreimageInfo) Decode(r io.Reader) error {
	return readElements(r, &m.ID, &m.Enc)
}

// Encode is part of the Message interface.
func (m *EncPreimageInfo) Encode(w io.Writer) error {
	return writeElements(w, m.ID, m.Enc)
}

// MsgType is part of the Message interface.
func (m *EncPreimageInfo) MsgType() MessageType { return MsgEncPreimageInfo }

// SubmitCommit records a player's action commitment.
type SubmitCommit struct {
	ID     GameID
	Player PlayerID
	Commit gamecrypt.Commitment
}

var _ Message = (*SubmitCommit)(nil)

// Decode is part of the Message interface.
func (m *SubmitCommit) Decode(r io.Reader) error {
	return readElements(r, &m.ID, &m.Player, &m.Commit)
}

// Encode is part of the Message interface.
func (m *SubmitCommit) Encode(w io.Writer) error {
	return writeElements(w, m.ID, m.Player, m.Commit)
}

// MsgType is part of the Message interface.
func (m *SubmitCommit) MsgType() MessageType { return MsgSubmitCommit }

// GetCommits requests both stored commitments once the commit phase is
// complete, so the revealing player can pin the pair it is answering for.
type GetCommits struct {
	ID     GameID
	Player PlayerID
}

var _ Message = (*GetCommits)(nil)

// Decode is part of the Message interface.
func (m *GetCommits) Decode(r io.Reader) error {
	return readElements(r, &m.ID, &m.Player)
}

// Encode is part of the Message interface.
func (m *GetCommits) Encode(w io.Writer) error {
	return writeElements(w, m.ID, m.Player)
}

// MsgType is part of the Message interface.
func (m *GetCommits) MsgType() MessageType { return MsgGetCommits }

// CommitsInfo carries both players' commitments.
type CommitsInfo struct {
	ID      GameID
	CommitA gamecrypt.Commitment
	CommitB gamecrypt.Commitment
}

var _ Message = (*CommitsInfo)(nil)

// Decode is part of the Message interface.
func (m *CommitsInfo) Decode(r io.Reader) error {
	return readElements(r, &m.ID, &m.CommitA, &m.CommitB)
}

// Encode is part of the Message interface.
func (m *CommitsInfo) Encode(w io.Writer) error {
	return writeElements(w, m.ID, m.CommitA, m.CommitB)
}

// MsgType is part of the Message interface.
func (m *CommitsInfo) MsgType() MessageType { return MsgCommitsInfo }

// SubmitReveal opens a player's commitment. The reveal quotes both
// commitments as the player saw them; the oracle rejects the reveal if the
// quoted pair differs from what it holds, so a hub cannot swap commitments
// mid-game without detection.
type SubmitReveal struct {
	ID      GameID
	Player  PlayerID
	Action  judge.Action
	Salt    gamecrypt.Salt
	CommitA gamecrypt.Commitment
	CommitB gamecrypt.Commitment
}

var _ Message = (*SubmitReveal)(nil)

// Decode is part of the Message interface.
func (m *SubmitReveal) Decode(r io.Reader) error {
	return readElements(r,
		&m.ID, &m.Player, &m.Action, &m.Salt, &m.CommitA, &m.CommitB,
	)
}

// Encode is part of the Message interface.
func (m *SubmitReveal) Encode(w io.Writer) error {
	return writeElements(w,
		m.ID, m.Player, m.Action, m.Salt, m.CommitA, m.CommitB,
	)
}

// MsgType is part of the Message interface.
func (m *SubmitReveal) MsgType() MessageType { return MsgSubmitReveal }

// GetResult requests the signed verdict for a game.
type GetResult struct {
	ID GameID
}

var _ Message = (*GetResult)(nil)

// Decode is part of the Message interface.
func (m *GetResult) Decode(r io.Reader) error {
	return readElements(r, &m.ID)
}

// Encode is part of the Message interface.
func (m *GetResult) Encode(w io.Writer) error {
	return writeElements(w, m.ID)
}

// MsgType is part of the Message interface.
func (m *GetResult) MsgType() MessageType { return MsgGetResult }

// GameResult carries either a pending marker or the signed canonical verdict
// message.
type GameResult struct {
	ID GameID

	// Pending is true while the oracle has not yet determined a verdict.
	// All remaining fields are empty in that case.
	Pending bool

	// RawMsg is the canonical verdict message that was signed.
	RawMsg []byte

	// Signature is the oracle's verdict signature over RawMsg's game id
	// and verdict tag.
	Signature *gamecrypt.Signature
}

var _ Message = (*GameResult)(nil)

// Decode is part of the Message interface.
func (m *GameResult) Decode(r io.Reader) error {
	if err := readElements(r, &m.ID, &m.Pending); err != nil {
		return err
	}
	if m.Pending {
		return nil
	}
	return readElements(r, &m.RawMsg, &m.Signature)
}

// Encode is part of the Message interface.
func (m *GameResult) Encode(w io.Writer) error {
	if err := writeElements(w, m.ID, m.Pending); err != nil {
		return err
	}
	if m.Pending {
		return nil
	}
	return writeElements(w, m.RawMsg, m.Signature)
}

// MsgType is part of the Message interface.
func (m *GameResult) MsgType() MessageType { return MsgGameResult }
