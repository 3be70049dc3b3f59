package wagerwire

import (
	"bytes"
	"fmt"

	"github.com/wagernet/wagerd/judge"
)

// timeoutMarker replaces the game data of a verdict forced by a missed
// deadline, behind a 0x00 prefix byte. A judged guess verdict's game data
// can start with the same bytes (secret 0 and a nonce beginning with the
// marker); the two stay unambiguous because only the timeout form is
// followed directly by a verdict tag.
var timeoutMarker = []byte("timeout")

// VerdictMsg is the parsed form of the canonical verdict message the oracle
// signs:
//
//	game_id (16) || kind_tag (1) || game_data || verdict_tag
//
// game_data is action_a || action_b for RPS,
// secret || oracle_nonce || action_a || action_b for GuessNumber, and
// 0x00 || "timeout" for a deadline-forced draw.
type VerdictMsg struct {
	GameID  GameID
	Kind    judge.Kind
	Verdict judge.Verdict

	// Timeout is true for a deadline-forced draw, in which case no
	// actions or secret are present.
	Timeout bool

	// Secret and SecretNonce are only present for kinds that commit to
	// an oracle secret.
	Secret      judge.Action
	SecretNonce [32]byte

	ActionA judge.Action
	ActionB judge.Action
}

// Serialize returns the canonical byte encoding of the verdict message.
// These exact bytes are what the oracle publishes and what fraud proofs
// quote.
func (m *VerdictMsg) Serialize() []byte {
	var buf bytes.Buffer
	buf.Write(m.GameID[:])
	buf.WriteByte(byte(m.Kind))

	switch {
	case m.Timeout:
		buf.WriteByte(0x00)
		buf.Write(timeoutMarker)

	case m.Kind == judge.KindGuessNumber:
		buf.WriteByte(byte(m.Secret))
		buf.Write(m.SecretNonce[:])
		buf.WriteByte(byte(m.ActionA))
		buf.WriteByte(byte(m.ActionB))

	default:
		buf.WriteByte(byte(m.ActionA))
		buf.WriteByte(byte(m.ActionB))
	}

	buf.Write(m.Verdict.Tag())
	return buf.Bytes()
}

// ParseVerdictMsg decodes a canonical verdict message.
func ParseVerdictMsg(b []byte) (*VerdictMsg, error) {
	if len(b) < GameIDSize+1 {
		return nil, fmt.Errorf("verdict message too short: %d bytes",
			len(b))
	}

	msg := &VerdictMsg{}
	copy(msg.GameID[:], b[:GameIDSize])
	msg.Kind = judge.Kind(b[GameIDSize])
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("verdict message has unknown kind "+
			"tag %d", b[GameIDSize])
	}

	rest := b[GameIDSize+1:]

	// Timeout form first: 0x00 || "timeout" || tag. If the trailing
	// bytes do not parse as a verdict tag this was a judged verdict
	// whose game data merely resembles the marker, so fall through.
	if len(rest) > 1+len(timeoutMarker) && rest[0] == 0x00 &&
		bytes.Equal(rest[1:1+len(timeoutMarker)], timeoutMarker) {

		tag := rest[1+len(timeoutMarker):]
		if v, err := judge.VerdictFromTag(tag); err == nil {
			msg.Timeout = true
			msg.Verdict = v
			return msg, nil
		}
	}

	var dataLen int
	switch msg.Kind {
	case judge.KindGuessNumber:
		dataLen = 1 + 32 + 2
	default:
		dataLen = 2
	}
	if len(rest) <= dataLen {
		return nil, fmt.Errorf("verdict message truncated: %d byte "+
			"payload for kind %v", len(rest), msg.Kind)
	}

	data, tag := rest[:dataLen], rest[dataLen:]
	v, err := judge.VerdictFromTag(tag)
	if err != nil {
		return nil, err
	}
	msg.Verdict = v

	if msg.Kind == judge.KindGuessNumber {
		msg.Secret = judge.Action(data[0])
		copy(msg.SecretNonce[:], data[1:33])
		msg.ActionA = judge.Action(data[33])
		msg.ActionB = judge.Action(data[34])
	} else {
		msg.ActionA = judge.Action(data[0])
		msg.ActionB = judge.Action(data[1])
	}

	return msg, nil
}
