package gamecrypt

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// PreimageSize is the size in bytes of a settlement preimage.
	PreimageSize = 32

	// SaltSize is the size in bytes of a commitment salt.
	SaltSize = 32
)

// Preimage is the 32-byte claim key for a hold invoice. A player generates
// one preimage per game and keeps it secret until the verdict makes it
// recoverable by the counterparty. Preimages must never be logged or
// serialized outside the player's local secret store.
type Preimage [PreimageSize]byte

// NewPreimage samples a fresh uniformly random preimage from r. If r is nil,
// the system CSPRNG is used.
func NewPreimage(r io.Reader) (Preimage, error) {
	var p Preimage
	if r == nil {
		r = rand.Reader
	}
	if _, err := io.ReadFull(r, p[:]); err != nil {
		return Preimage{}, err
	}

	return p, nil
}

// Hash returns the payment hash of the preimage, which is simply the SHA-256
// digest of its bytes.
func (p *Preimage) Hash() chainhash.Hash {
	return chainhash.Hash(sha256.Sum256(p[:]))
}

// Matches returns true if the passed payment hash commits to this preimage.
func (p *Preimage) Matches(h chainhash.Hash) bool {
	return p.Hash() == h
}

// Salt is the 32-byte blinding value mixed into an action commitment so the
// commitment hides the committed action until reveal.
type Salt [SaltSize]byte

// NewSalt samples a fresh random commitment salt from r, falling back to the
// system CSPRNG when r is nil.
func NewSalt(r io.Reader) (Salt, error) {
	var s Salt
	if r == nil {
		r = rand.Reader
	}
	if _, err := io.ReadFull(r, s[:]); err != nil {
		return Salt{}, err
	}

	return s, nil
}
