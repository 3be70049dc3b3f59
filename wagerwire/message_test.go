package wagerwire

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/judge"
)

// TestMessageFraming round trips a representative message of each exchange
// through WriteMessage/ReadMessage.
func TestMessageFraming(t *testing.T) {
	t.Parallel()

	oracleKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	nonce, err := gamecrypt.DeriveGameNonce(oracleKey, [16]byte{1})
	require.NoError(t, err)

	sig, err := gamecrypt.SignVerdict(oracleKey, nonce, [16]byte{1},
		judge.VerdictDraw.Tag())
	require.NoError(t, err)

	id := NewGameID()
	var playerA PlayerID
	playerA[0] = 0xaa

	var commit gamecrypt.Commitment
	commit[5] = 0x42

	msgs := []Message{
		&GetPubKey{},
		&PubKey{Key: oracleKey.PubKey()},
		&ListGames{Filtered: true, Kind: judge.KindRPS},
		&GameList{Games: []GameSummary{
			{ID: id, Kind: judge.KindRPS, Stake: 1000,
				CreatedAt: 1700000000},
		}},
		&CreateGame{
			PlayerA: playerA,
			Kind:    judge.KindGuessNumber,
			Stake:   2500,
		},
		&GameCreated{
			ID:          id,
			OraclePub:   oracleKey.PubKey(),
			CommitPoint: nonce.Point(),
		},
		&JoinGame{ID: id, PlayerB: playerA},
		&SubmitInvoice{ID: id, Player: playerA, Amount: 1000},
		&SubmitCommit{ID: id, Player: playerA, Commit: commit},
		&SubmitReveal{
			ID:      id,
			Player:  playerA,
			Action:  judge.Scissors,
			CommitA: commit,
			CommitB: commit,
		},
		&GetResult{ID: id},
		&GameResult{ID: id, Pending: true},
		&GameResult{
			ID:        id,
			RawMsg:    []byte{0x01, 0x02, 0x03},
			Signature: sig,
		},
		&Error{Data: []byte("wrong phase")},
	}

	for _, msg := range msgs {
		var buf bytes.Buffer
		_, err := WriteMessage(&buf, msg)
		require.NoError(t, err, "encode %T", msg)

		decoded, err := ReadMessage(&buf)
		require.NoError(t, err, "decode %T", msg)
		require.Equal(t, msg.MsgType(), decoded.MsgType())

		// Re-encoding the decoded message must reproduce the exact
		// original bytes.
		var reEncoded bytes.Buffer
		_, err = WriteMessage(&reEncoded, decoded)
		require.NoError(t, err)

		var original bytes.Buffer
		_, err = WriteMessage(&original, msg)
		require.NoError(t, err)
		require.Equal(t, original.Bytes(), reEncoded.Bytes(),
			"round trip %T", msg)
	}
}

// TestReadMessageUnknownType asserts unknown type headers are rejected.
func TestReadMessageUnknownType(t *testing.T) {
	t.Parallel()

	_, err := ReadMessage(bytes.NewReader([]byte{0xff, 0xff}))
	require.Error(t, err)
}
