package gamecrypt

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/hkdf"
)

// SignatureSize is the size of a serialized verdict signature: the 32-byte X
// coordinate of the commitment point followed by the 32-byte s scalar.
const SignatureSize = 64

// gameNonceTag is the HKDF salt under which per-game session nonces are
// derived from the oracle's long-term key.
var gameNonceTag = []byte("wagerd/verdict-nonce/v0")

// GameNonce is the oracle's per-game signing nonce. The scalar is derived
// deterministically from the oracle key and the game id, and is adjusted so
// that the commitment point R always has an even Y coordinate, matching the
// 32-byte X-only serialization of the signature. A nonce signs at most one
// verdict; reusing it across two distinct verdicts hands out the oracle's
// private key.
type GameNonce struct {
	k btcec.ModNScalar
	r *btcec.PublicKey
}

// Point returns the public commitment point R = k*G for the nonce.
func (n *GameNonce) Point() *btcec.PublicKey {
	return n.r
}

// Zero wipes the secret scalar. The nonce is unusable afterwards.
func (n *GameNonce) Zero() {
	n.k.Zero()
}

// DeriveGameNonce derives the per-game session nonce from the oracle's
// private key and the game id via HKDF-SHA256. Binding the nonce to the game
// id removes the catastrophic failure mode of the same nonce being sampled
// for two different games.
func DeriveGameNonce(priv *btcec.PrivateKey, gameID [16]byte) (*GameNonce, error) {
	kdf := hkdf.New(sha256.New, priv.Serialize(), gameNonceTag, gameID[:])

	var kBytes [32]byte
	var k btcec.ModNScalar
	for {
		if _, err := io.ReadFull(kdf, kBytes[:]); err != nil {
			return nil, err
		}
		if overflow := k.SetBytes(&kBytes); overflow != 0 {
			continue
		}
		if !k.IsZero() {
			break
		}
	}

	var rj btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&k, &rj)
	rj.ToAffine()

	// Negate the scalar if R lands on an odd Y so the X-only signature
	// serialization round trips.
	if rj.Y.IsOdd() {
		k.Negate()
		btcec.ScalarBaseMultNonConst(&k, &rj)
		rj.ToAffine()
	}

	return &GameNonce{
		k: k,
		r: btcec.NewPublicKey(&rj.X, &rj.Y),
	}, nil
}

// Signature is a Schnorr signature over a (game, verdict) pair whose s
// scalar is the discrete log of the verdict's signature point.
type Signature struct {
	r *btcec.PublicKey
	s btcec.ModNScalar
}

// NewSignature constructs a signature from its commitment point and scalar.
func NewSignature(r *btcec.PublicKey, s *btcec.ModNScalar) *Signature {
	sig := &Signature{r: r}
	sig.s.Set(s)
	return sig
}

// R returns the signature's public nonce point.
func (sig *Signature) R() *btcec.PublicKey {
	return sig.r
}

// S returns a copy of the revealed s scalar.
func (sig *Signature) S() btcec.ModNScalar {
	var s btcec.ModNScalar
	s.Set(&sig.s)
	return s
}

// Serialize returns the 64-byte wire encoding of the signature:
// R.x (32) || s (32).
func (sig *Signature) Serialize() [SignatureSize]byte {
	var out [SignatureSize]byte
	copy(out[:32], sig.r.SerializeCompressed()[1:33])

	sBytes := sig.s.Bytes()
	copy(out[32:], sBytes[:])
	return out
}

// ParseSignature decodes a 64-byte verdict signature. The commitment point
// is lifted from its X coordinate using the even-Y convention.
func ParseSignature(b []byte) (*Signature, error) {
	if len(b) != SignatureSize {
		return nil, fmt.Errorf("malformed signature: %d bytes, want %d",
			len(b), SignatureSize)
	}

	compressed := make([]byte, 33)
	compressed[0] = 0x02
	copy(compressed[1:], b[:32])
	r, err := btcec.ParsePubKey(compressed)
	if err != nil {
		return nil, fmt.Errorf("malformed signature R: %v", err)
	}

	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(b[32:]); overflow {
		return nil, fmt.Errorf("malformed signature: s >= group order")
	}

	return &Signature{r: r, s: s}, nil
}

// SignVerdict produces the oracle's Schnorr signature for a verdict,
// committing to the session nonce so that the published s scalar satisfies
// s*G == SignaturePoint(R, O, gameID, verdictTag):
//
//	s = k + e*d, e = SHA256(ser33(R) || ser33(O) || game_id || tag)
func SignVerdict(priv *btcec.PrivateKey, nonce *GameNonce, gameID [16]byte,
	verdictTag []byte) (*Signature, error) {

	if nonce.k.IsZero() {
		return nil, fmt.Errorf("session nonce already consumed")
	}

	e := challenge(nonce.r, priv.PubKey(), gameID, verdictTag)

	var s btcec.ModNScalar
	s.Mul2(&e, &priv.Key).Add(&nonce.k)
	if s.IsZero() {
		return nil, fmt.Errorf("degenerate verdict signature for "+
			"game %x", gameID)
	}

	return NewSignature(nonce.r, &s), nil
}

// VerifyVerdict reports whether sig is a valid verdict signature by the
// oracle key for the given game id and verdict tag, i.e. whether
// s*G == R + e*O.
func VerifyVerdict(oraclePub *btcec.PublicKey, gameID [16]byte,
	verdictTag []byte, sig *Signature) bool {

	expected, err := SignaturePoint(sig.r, oraclePub, gameID, verdictTag)
	if err != nil {
		return false
	}

	return bytes.Equal(
		RevealPoint(sig).SerializeCompressed(),
		expected.SerializeCompressed(),
	)
}

// RevealPoint computes s*G for a signature: the point whose discrete log the
// signature made public. A winning player checks this against the losing
// verdict's signature point before using it to unmask the counterparty's
// preimage.
func RevealPoint(sig *Signature) *btcec.PublicKey {
	var sg btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&sig.s, &sg)
	sg.ToAffine()

	return btcec.NewPublicKey(&sg.X, &sg.Y)
}
