package wagerwire

// codec derived from the lnwire message framing: a 2-byte big-endian type
// followed by the message payload.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxMessagePayload is the maximum bytes a single message may occupy on the
// wire regardless of type. The protocol has no message anywhere near this
// size. WriteMessage rejects larger payloads; ReadMessage does not check
// the limit, so decoding relies on each field's own length bound.
const MaxMessagePayload = 65535

// MessageType is the unique 2-byte big-endian integer prefixed to every
// message on the wire.
type MessageType uint16

// The message types of the player/oracle protocol. Lobby queries, the game
// setup handshake, the per-phase submissions, and result retrieval each get
// their own range.
const (
	MsgGetPubKey MessageType = 16
	MsgPubKey                = 17
	MsgListGames             = 18
	MsgGameList              = 19

	MsgCreateGame  = 32
	MsgGameCreated = 33
	MsgJoinGame    = 34
	MsgGameJoined  = 35

	MsgSubmitInvoice     = 48
	MsgGetInvoice        = 49
	MsgInvoiceInfo       = 50
	MsgSubmitEncPreimage = 51
	MsgGetEncPreimage    = 52
	MsgEncPreimageInfo   = 53
	MsgSubmitCommit      = 54
	MsgGetCommits        = 55
	MsgCommitsInfo       = 56
	MsgSubmitReveal      = 57

	MsgGetResult  = 64
	MsgGameResult = 65
	MsgAck        = 66
	MsgError      = 67
)

// Message is a single frame of the player/oracle protocol. Concrete types
// own their payload representation entirely; the framing layer only knows
// about the type header.
type Message interface {
	Decode(io.Reader) error
	Encode(io.Writer) error
	MsgType() MessageType
}

// makeEmptyMessage creates a new empty message of the proper concrete type
// for the passed message type.
func makeEmptyMessage(msgType MessageType) (Message, error) {
	var msg Message

	switch msgType {
	case MsgGetPubKey:
		msg = &GetPubKey{}
	case MsgPubKey:
		msg = &PubKey{}
	case MsgListGames:
		msg = &ListGames{}
	case MsgGameList:
		msg = &GameList{}
	case MsgCreateGame:
		msg = &CreateGame{}
	case MsgGameCreated:
		msg = &GameCreated{}
	case MsgJoinGame:
		msg = &JoinGame{}
	case MsgGameJoined:
		msg = &GameJoined{}
	case MsgSubmitInvoice:
		msg = &SubmitInvoice{}
	case MsgGetInvoice:
		msg = &GetInvoice{}
	case MsgInvoiceInfo:
		msg = &InvoiceInfo{}
	case MsgSubmitEncPreimage:
		msg = &SubmitEncPreimage{}
	case MsgGetEncPreimage:
		msg = &GetEncPreimage{}
	case MsgEncPreimageInfo:
		msg = &EncPreimageInfo{}
	case MsgSubmitCommit:
		msg = &SubmitCommit{}
	case MsgGetCommits:
		msg = &GetCommits{}
	case MsgCommitsInfo:
		msg = &CommitsInfo{}
	case MsgSubmitReveal:
		msg = &SubmitReveal{}
	case MsgGetResult:
		msg = &GetResult{}
	case MsgGameResult:
		msg = &GameResult{}
	case MsgAck:
		msg = &Ack{}
	case MsgError:
		msg = &Error{}
	default:
		return nil, fmt.Errorf("unknown message type [%d]", msgType)
	}

	return msg, nil
}

// WriteMessage writes a message to w including the type header and returns
// the number of bytes written.
func WriteMessage(w io.Writer, msg Message) (int, error) {
	totalBytes := 0

	// Encode the payload into a temporary buffer so the length limit can
	// be enforced before anything hits the wire.
	var bw bytes.Buffer
	if err := msg.Encode(&bw); err != nil {
		return totalBytes, err
	}
	payload := bw.Bytes()

	if len(payload) > MaxMessagePayload {
		return totalBytes, fmt.Errorf("message payload is too large - "+
			"encoded %d bytes, but maximum message payload is %d "+
			"bytes", len(payload), MaxMessagePayload)
	}

	var mType [2]byte
	binary.BigEndian.PutUint16(mType[:], uint16(msg.MsgType()))
	n, err := w.Write(mType[:])
	totalBytes += n
	if err != nil {
		return totalBytes, err
	}

	n, err = w.Write(payload)
	totalBytes += n

	return totalBytes, err
}

// ReadMessage reads, validates, and parses the next message from r.
func ReadMessage(r io.Reader) (Message, error) {
	var mType [2]byte
	if _, err := io.ReadFull(r, mType[:]); err != nil {
		return nil, err
	}

	msgType := MessageType(binary.BigEndian.Uint16(mType[:]))

	msg, err := makeEmptyMessage(msgType)
	if err != nil {
		return nil, err
	}
	if err := msg.Decode(r); err != nil {
		return nil, err
	}

	return msg, nil
}
