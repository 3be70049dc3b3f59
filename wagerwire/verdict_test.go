package wagerwire

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wagernet/wagerd/judge"
)

// TestVerdictMsgRPS pins the canonical layout of an RPS verdict message and
// its round trip.
func TestVerdictMsgRPS(t *testing.T) {
	t.Parallel()

	id := NewGameID()
	msg := &VerdictMsg{
		GameID:  id,
		Kind:    judge.KindRPS,
		Verdict: judge.VerdictAWins,
		ActionA: judge.Rock,
		ActionB: judge.Scissors,
	}

	raw := msg.Serialize()

	// game_id || kind || a || b || "A wins"
	require.Len(t, raw, 16+1+2+6)
	require.Equal(t, id[:], raw[:16])
	require.EqualValues(t, 0x01, raw[16])
	require.EqualValues(t, judge.Rock, raw[17])
	require.EqualValues(t, judge.Scissors, raw[18])
	require.Equal(t, []byte("A wins"), raw[19:])

	parsed, err := ParseVerdictMsg(raw)
	require.NoError(t, err)
	require.Equal(t, msg, parsed)
}

// TestVerdictMsgGuess pins the guess-number layout, which additionally
// carries the revealed oracle secret and its commitment nonce.
func TestVerdictMsgGuess(t *testing.T) {
	t.Parallel()

	id := NewGameID()
	msg := &VerdictMsg{
		GameID:  id,
		Kind:    judge.KindGuessNumber,
		Verdict: judge.VerdictBWins,
		Secret:  50,
		ActionA: 42,
		ActionB: 55,
	}

	raw := msg.Serialize()

	// game_id || kind || secret || nonce || a || b || "B wins"
	require.Len(t, raw, 16+1+1+32+2+6)
	require.EqualValues(t, 0x02, raw[16])
	require.EqualValues(t, 50, raw[17])
	require.Equal(t, make([]byte, 32), raw[18:50])
	require.EqualValues(t, 42, raw[50])
	require.EqualValues(t, 55, raw[51])
	require.Equal(t, []byte("B wins"), raw[52:])

	parsed, err := ParseVerdictMsg(raw)
	require.NoError(t, err)
	require.Equal(t, msg, parsed)
}

// TestVerdictMsgTimeout asserts a timeout draw serializes with the timeout
// marker in lieu of game data and stays distinguishable from judged draws.
func TestVerdictMsgTimeout(t *testing.T) {
	t.Parallel()

	id := NewGameID()
	msg := &VerdictMsg{
		GameID:  id,
		Kind:    judge.KindRPS,
		Verdict: judge.VerdictDraw,
		Timeout: true,
	}

	raw := msg.Serialize()
	require.Len(t, raw, 16+1+1+7+4)
	require.EqualValues(t, 0x00, raw[17])
	require.Equal(t, []byte("timeout"), raw[18:25])

	parsed, err := ParseVerdictMsg(raw)
	require.NoError(t, err)
	require.True(t, parsed.Timeout)
	require.Equal(t, judge.VerdictDraw, parsed.Verdict)

	judged := &VerdictMsg{
		GameID:  id,
		Kind:    judge.KindRPS,
		Verdict: judge.VerdictDraw,
		ActionA: judge.Paper,
		ActionB: judge.Paper,
	}
	parsedJudged, err := ParseVerdictMsg(judged.Serialize())
	require.NoError(t, err)
	require.False(t, parsedJudged.Timeout)
}

// TestVerdictMsgGuessNonceResemblingTimeout asserts a judged guess verdict
// whose secret/nonce bytes happen to spell the timeout marker still parses
// as a judged verdict.
func TestVerdictMsgGuessNonceResemblingTimeout(t *testing.T) {
	t.Parallel()

	var nonce [32]byte
	copy(nonce[:], "timeout")

	msg := &VerdictMsg{
		GameID:      NewGameID(),
		Kind:        judge.KindGuessNumber,
		Verdict:     judge.VerdictDraw,
		Secret:      0,
		SecretNonce: nonce,
		ActionA:     48,
		ActionB:     52,
	}

	parsed, err := ParseVerdictMsg(msg.Serialize())
	require.NoError(t, err)
	require.False(t, parsed.Timeout)
	require.Equal(t, msg, parsed)
}

// TestVerdictMsgRejects covers malformed inputs.
func TestVerdictMsgRejects(t *testing.T) {
	t.Parallel()

	_, err := ParseVerdictMsg(nil)
	require.Error(t, err)

	_, err = ParseVerdictMsg(make([]byte, 10))
	require.Error(t, err)

	// Unknown kind tag.
	raw := make([]byte, 25)
	raw[16] = 0x7f
	_, err = ParseVerdictMsg(raw)
	require.Error(t, err)

	// Valid kind, garbage tag.
	msg := &VerdictMsg{
		GameID:  NewGameID(),
		Kind:    judge.KindRPS,
		Verdict: judge.VerdictDraw,
	}
	raw = msg.Serialize()
	raw[len(raw)-1] ^= 0xff
	_, err = ParseVerdictMsg(raw)
	require.Error(t, err)
}
