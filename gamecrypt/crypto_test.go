package gamecrypt

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

var (
	testGameID = [16]byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
	}

	tagAWins = []byte("A wins")
	tagBWins = []byte("B wins")
	tagDraw  = []byte("Draw")
)

// TestPreimageRoundTrip asserts that payment hashes are 32 bytes, bind their
// preimage, and reject any other preimage.
func TestPreimageRoundTrip(t *testing.T) {
	t.Parallel()

	p, err := NewPreimage(nil)
	require.NoError(t, err)

	hash := p.Hash()
	require.Len(t, hash[:], 32)
	require.True(t, p.Matches(hash))

	other, err := NewPreimage(nil)
	require.NoError(t, err)
	require.NotEqual(t, p, other)
	require.False(t, other.Matches(hash))
}

// TestCommitRoundTrip asserts that a commitment verifies against the exact
// action and salt it was built from and nothing else.
func TestCommitRoundTrip(t *testing.T) {
	t.Parallel()

	salt, err := NewSalt(nil)
	require.NoError(t, err)

	action := []byte{0x02}
	c := Commit(action, salt)

	require.True(t, VerifyCommit(action, salt, c))
	require.False(t, VerifyCommit([]byte{0x01}, salt, c))

	var otherSalt Salt
	copy(otherSalt[:], salt[:])
	otherSalt[0] ^= 0xff
	require.False(t, VerifyCommit(action, otherSalt, c))

	var otherCommit Commitment
	copy(otherCommit[:], c[:])
	otherCommit[31] ^= 0x01
	require.False(t, VerifyCommit(action, salt, otherCommit))
}

// TestSignaturePointConsistency asserts the core adaptor property: the
// scalar revealed by a verdict signature is the discrete log of the verdict
// signature point that players computed from public data alone.
func TestSignaturePointConsistency(t *testing.T) {
	t.Parallel()

	oracleKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	nonce, err := DeriveGameNonce(oracleKey, testGameID)
	require.NoError(t, err)

	for _, tag := range [][]byte{tagAWins, tagBWins, tagDraw} {
		sig, err := SignVerdict(oracleKey, nonce, testGameID, tag)
		require.NoError(t, err)

		require.True(t, VerifyVerdict(oracleKey.PubKey(), testGameID,
			tag, sig))

		expected, err := SignaturePoint(nonce.Point(),
			oracleKey.PubKey(), testGameID, tag)
		require.NoError(t, err)

		require.Equal(t,
			expected.SerializeCompressed(),
			RevealPoint(sig).SerializeCompressed(),
		)
	}
}

// TestVerdictSignatureRejectsOtherTags asserts a signature for one verdict
// never verifies for another.
func TestVerdictSignatureRejectsOtherTags(t *testing.T) {
	t.Parallel()

	oracleKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	nonce, err := DeriveGameNonce(oracleKey, testGameID)
	require.NoError(t, err)

	sig, err := SignVerdict(oracleKey, nonce, testGameID, tagAWins)
	require.NoError(t, err)

	require.True(t, VerifyVerdict(oracleKey.PubKey(), testGameID,
		tagAWins, sig))
	require.False(t, VerifyVerdict(oracleKey.PubKey(), testGameID,
		tagBWins, sig))
	require.False(t, VerifyVerdict(oracleKey.PubKey(), testGameID,
		tagDraw, sig))

	// A different game id must not verify either.
	var otherID [16]byte
	copy(otherID[:], testGameID[:])
	otherID[0] ^= 0xff
	require.False(t, VerifyVerdict(oracleKey.PubKey(), otherID, tagAWins,
		sig))
}

// TestSignatureSerialization asserts the 64-byte encoding round trips.
func TestSignatureSerialization(t *testing.T) {
	t.Parallel()

	oracleKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	nonce, err := DeriveGameNonce(oracleKey, testGameID)
	require.NoError(t, err)

	sig, err := SignVerdict(oracleKey, nonce, testGameID, tagDraw)
	require.NoError(t, err)

	raw := sig.Serialize()
	parsed, err := ParseSignature(raw[:])
	require.NoError(t, err)

	require.Equal(t,
		sig.R().SerializeCompressed(),
		parsed.R().SerializeCompressed(),
	)
	require.True(t, VerifyVerdict(oracleKey.PubKey(), testGameID, tagDraw,
		parsed))

	_, err = ParseSignature(raw[:63])
	require.Error(t, err)
}

// TestEncryptedPreimageRecovery asserts decrypt(encrypt(p, P), P) == p and
// that a wrong point yields a preimage that fails the payment hash check.
func TestEncryptedPreimageRecovery(t *testing.T) {
	t.Parallel()

	oracleKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	nonce, err := DeriveGameNonce(oracleKey, testGameID)
	require.NoError(t, err)

	point, err := SignaturePoint(nonce.Point(), oracleKey.PubKey(),
		testGameID, tagAWins)
	require.NoError(t, err)

	p, err := NewPreimage(nil)
	require.NoError(t, err)

	enc := EncryptPreimage(p, point)
	require.NotEqual(t, p[:], enc[:])

	recovered := DecryptPreimage(enc, point)
	require.Equal(t, p, recovered)
	require.True(t, recovered.Matches(p.Hash()))

	wrongPoint, err := SignaturePoint(nonce.Point(), oracleKey.PubKey(),
		testGameID, tagBWins)
	require.NoError(t, err)

	garbled := DecryptPreimage(enc, wrongPoint)
	require.False(t, garbled.Matches(p.Hash()))
}

// TestDeriveGameNonce asserts nonce derivation is deterministic per game,
// distinct across games, and always lands on an even-Y commitment point.
func TestDeriveGameNonce(t *testing.T) {
	t.Parallel()

	oracleKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	n1, err := DeriveGameNonce(oracleKey, testGameID)
	require.NoError(t, err)
	n2, err := DeriveGameNonce(oracleKey, testGameID)
	require.NoError(t, err)

	require.Equal(t,
		n1.Point().SerializeCompressed(),
		n2.Point().SerializeCompressed(),
	)

	var otherID [16]byte
	copy(otherID[:], testGameID[:])
	otherID[15] ^= 0x01

	n3, err := DeriveGameNonce(oracleKey, otherID)
	require.NoError(t, err)
	require.NotEqual(t,
		n1.Point().SerializeCompressed(),
		n3.Point().SerializeCompressed(),
	)

	for _, n := range []*GameNonce{n1, n2, n3} {
		require.EqualValues(t, 0x02,
			n.Point().SerializeCompressed()[0])
	}
}

// TestNonceSingleUse asserts a consumed nonce refuses to sign again.
func TestNonceSingleUse(t *testing.T) {
	t.Parallel()

	oracleKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	nonce, err := DeriveGameNonce(oracleKey, testGameID)
	require.NoError(t, err)

	_, err = SignVerdict(oracleKey, nonce, testGameID, tagAWins)
	require.NoError(t, err)

	nonce.Zero()
	_, err = SignVerdict(oracleKey, nonce, testGameID, tagBWins)
	require.Error(t, err)
}

// TestSignaturePointDistinct asserts every (game, verdict) pair lands on its
// own point.
func TestSignaturePointDistinct(t *testing.T) {
	t.Parallel()

	oracleKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	nonce, err := DeriveGameNonce(oracleKey, testGameID)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, tag := range [][]byte{tagAWins, tagBWins, tagDraw} {
		point, err := SignaturePoint(nonce.Point(),
			oracleKey.PubKey(), testGameID, tag)
		require.NoError(t, err)

		key := string(point.SerializeCompressed())
		_, ok := seen[key]
		require.False(t, ok, "duplicate point for tag %s", tag)
		seen[key] = struct{}{}
	}
}

// TestPreimageFromReader asserts deterministic preimage generation from an
// injected reader.
func TestPreimageFromReader(t *testing.T) {
	t.Parallel()

	src := bytes.Repeat([]byte{0xab}, 64)
	p, err := NewPreimage(bytes.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{0xab}, 32), p[:])
}
