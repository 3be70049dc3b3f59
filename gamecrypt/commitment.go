package gamecrypt

import (
	"crypto/sha256"
	"crypto/subtle"
)

// CommitmentSize is the size in bytes of an action commitment.
const CommitmentSize = 32

// Commitment is a hiding commitment to a player's action:
// SHA256(action_bytes || salt). The salt keeps the small action space from
// being brute forced before reveal.
type Commitment [CommitmentSize]byte

// Commit computes the commitment to the passed canonical action encoding
// under the given salt.
func Commit(actionBytes []byte, salt Salt) Commitment {
	h := sha256.New()
	h.Write(actionBytes)
	h.Write(salt[:])

	var c Commitment
	copy(c[:], h.Sum(nil))
	return c
}

// VerifyCommit recomputes the commitment for the revealed action and salt and
// compares it against the stored commitment in constant time.
func VerifyCommit(actionBytes []byte, salt Salt, c Commitment) bool {
	expected := Commit(actionBytes, salt)
	return subtle.ConstantTimeCompare(expected[:], c[:]) == 1
}
