package wagerwire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/holdinvoice"
	"github.com/wagernet/wagerd/judge"
)

// writeElement serializes the passed element into the writer using its wire
// encoding: fixed-width big-endian integers, raw fixed-size arrays,
// compressed curve points, and uint16 length prefixed byte slices.
func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case uint8:
		var b [1]byte
		b[0] = e
		_, err := w.Write(b[:])
		return err

	case bool:
		var b [1]byte
		if e {
			b[0] = 1
		}
		_, err := w.Write(b[:])
		return err

	case uint16:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], e)
		_, err := w.Write(b[:])
		return err

	case uint32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], e)
		_, err := w.Write(b[:])
		return err

	case uint64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], e)
		_, err := w.Write(b[:])
		return err

	case holdinvoice.Amount:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(e))
		_, err := w.Write(b[:])
		return err

	case judge.Kind:
		return writeElement(w, uint8(e))

	case judge.Verdict:
		return writeElement(w, uint8(e))

	case judge.Action:
		return writeElement(w, uint8(e))

	case PlayerRole:
		return writeElement(w, uint8(e))

	case GameID:
		_, err := w.Write(e[:])
		return err

	case PlayerID:
		_, err := w.Write(e[:])
		return err

	case chainhash.Hash:
		_, err := w.Write(e[:])
		return err

	case gamecrypt.Commitment:
		_, err := w.Write(e[:])
		return err

	case gamecrypt.Salt:
		_, err := w.Write(e[:])
		return err

	case gamecrypt.EncryptedPreimage:
		_, err := w.Write(e[:])
		return err

	case [32]byte:
		_, err := w.Write(e[:])
		return err

	case *btcec.PublicKey:
		if e == nil {
			return fmt.Errorf("cannot write nil pubkey")
		}
		_, err := w.Write(e.SerializeCompressed())
		return err

	case *gamecrypt.Signature:
		if e == nil {
			return fmt.Errorf("cannot write nil signature")
		}
		sig := e.Serialize()
		_, err := w.Write(sig[:])
		return err

	case []byte:
		if len(e) > maxVarBytes {
			return fmt.Errorf("byte slice of %d bytes exceeds "+
				"wire limit", len(e))
		}
		if err := writeElement(w, uint16(len(e))); err != nil {
			return err
		}
		_, err := w.Write(e)
		return err

	default:
		return fmt.Errorf("unknown type in writeElement: %T", e)
	}
}

// writeElements serializes each element in order.
func writeElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		if err := writeElement(w, element); err != nil {
			return err
		}
	}
	return nil
}

// maxVarBytes bounds variable length byte fields on the wire.
const maxVarBytes = 65000

// readElement deserializes a single element from the reader into the passed
// pointer.
func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *uint8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0]

	case *bool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0] != 0

	case *uint16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint16(b[:])

	case *uint32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint32(b[:])

	case *uint64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint64(b[:])

	case *holdinvoice.Amount:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = holdinvoice.Amount(binary.BigEndian.Uint64(b[:]))

	case *judge.Kind:
		var v uint8
		if err := readElement(r, &v); err != nil {
			return err
		}
		*e = judge.Kind(v)

	case *judge.Verdict:
		var v uint8
		if err := readElement(r, &v); err != nil {
			return err
		}
		*e = judge.Verdict(v)

	case *judge.Action:
		var v uint8
		if err := readElement(r, &v); err != nil {
			return err
		}
		*e = judge.Action(v)

	case *PlayerRole:
		var v uint8
		if err := readElement(r, &v); err != nil {
			return err
		}
		*e = PlayerRole(v)

	case *GameID:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return err
		}

	case *PlayerID:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return err
		}

	case *chainhash.Hash:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return err
		}

	case *gamecrypt.Commitment:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return err
		}

	case *gamecrypt.Salt:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return err
		}

	case *gamecrypt.EncryptedPreimage:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return err
		}

	case *[32]byte:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return err
		}

	case **btcec.PublicKey:
		var b [33]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		key, err := btcec.ParsePubKey(b[:])
		if err != nil {
			return err
		}
		*e = key

	case **gamecrypt.Signature:
		var b [gamecrypt.SignatureSize]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		sig, err := gamecrypt.ParseSignature(b[:])
		if err != nil {
			return err
		}
		*e = sig

	case *[]byte:
		var length uint16
		if err := readElement(r, &length); err != nil {
			return err
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		*e = buf

	default:
		return fmt.Errorf("unknown type in readElement: %T", e)
	}

	return nil
}

// readElements deserializes into each pointer in order.
func readElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		if err := readElement(r, element); err != nil {
			return err
		}
	}
	return nil
}
