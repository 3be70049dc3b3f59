package gamecrypt

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

// challenge computes the Schnorr challenge scalar for a (game, verdict) pair:
//
//	e = SHA256(ser33(R) || ser33(O) || game_id || verdict_tag) mod N
//
// All points are hashed in their 33-byte compressed form. The challenge
// deliberately covers only the game id and the verdict tag so that the point
// a future signature lands on is computable before the oracle has decided
// anything.
func challenge(commitPoint, oraclePub *btcec.PublicKey, gameID [16]byte,
	verdictTag []byte) btcec.ModNScalar {

	h := sha256.New()
	h.Write(commitPoint.SerializeCompressed())
	h.Write(oraclePub.SerializeCompressed())
	h.Write(gameID[:])
	h.Write(verdictTag)

	var e btcec.ModNScalar
	e.SetByteSlice(h.Sum(nil))
	return e
}

// SignaturePoint computes the curve point that the oracle's verdict signature
// for this game will reveal the discrete log of, if and only if the oracle
// signs the verdict identified by verdictTag with the session nonce behind
// commitPoint:
//
//	P = R + e*O, e = SHA256(ser33(R) || ser33(O) || game_id || tag)
//
// Both players derive these points from public data alone and use them to
// encrypt their settlement preimages toward the outcome in which they lose.
func SignaturePoint(commitPoint, oraclePub *btcec.PublicKey, gameID [16]byte,
	verdictTag []byte) (*btcec.PublicKey, error) {

	e := challenge(commitPoint, oraclePub, gameID, verdictTag)

	var oj, rj, eO, p btcec.JacobianPoint
	oraclePub.AsJacobian(&oj)
	commitPoint.AsJacobian(&rj)

	btcec.ScalarMultNonConst(&e, &oj, &eO)
	btcec.AddNonConst(&rj, &eO, &p)

	if (p.X.IsZero() && p.Y.IsZero()) || p.Z.IsZero() {
		return nil, fmt.Errorf("signature point for game %x tag %q is "+
			"the point at infinity", gameID, verdictTag)
	}
	p.ToAffine()

	return btcec.NewPublicKey(&p.X, &p.Y), nil
}

// EncryptedPreimageSize is the size in bytes of an encrypted preimage.
const EncryptedPreimageSize = 32

// EncryptedPreimage is a preimage masked toward a verdict signature point.
type EncryptedPreimage [EncryptedPreimageSize]byte

// maskFor derives the XOR mask for a signature point as the SHA-256 digest of
// its 33-byte compressed serialization.
func maskFor(point *btcec.PublicKey) [32]byte {
	return sha256.Sum256(point.SerializeCompressed())
}

// EncryptPreimage masks the preimage under the passed verdict signature
// point. The mask becomes derivable by the counterparty once the oracle
// publishes the signature whose scalar lands on that point.
func EncryptPreimage(p Preimage, point *btcec.PublicKey) EncryptedPreimage {
	mask := maskFor(point)

	var enc EncryptedPreimage
	for i := range enc {
		enc[i] = p[i] ^ mask[i]
	}
	return enc
}

// DecryptPreimage removes the signature point mask from an encrypted
// preimage. The caller MUST independently verify that the result hashes to
// the expected payment hash; a mismatch means the counterparty submitted an
// ill-formed encrypted preimage.
func DecryptPreimage(enc EncryptedPreimage, point *btcec.PublicKey) Preimage {
	mask := maskFor(point)

	var p Preimage
	for i := range p {
		p[i] = enc[i] ^ mask[i]
	}
	return p
}
