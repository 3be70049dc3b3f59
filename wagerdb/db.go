package wagerdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wagernet/wagerd/judge"
	"github.com/wagernet/wagerd/player"
	"github.com/wagernet/wagerd/wagerwire"
	bolt "go.etcd.io/bbolt"
)

const (
	dbName           = "wager.db"
	dbFilePermission = 0600

	// dbVersion is the schema version this code writes and reads.
	dbVersion = 1
)

var (
	// metaBucket stores database-level metadata, currently only the
	// schema version under versionKey.
	metaBucket = []byte("meta")
	versionKey = []byte("version")

	// secretsBucket maps game ids onto serialized game secrets. This
	// bucket is the only place a player's preimage and salt ever touch
	// disk.
	secretsBucket = []byte("game-secrets")

	// fraudBucket maps game ids onto retained fraud proofs.
	fraudBucket = []byte("fraud-proofs")

	// Big endian is the byte order of every integer field the store
	// writes: the schema version, timestamps, and length prefixes.
	byteOrder = binary.BigEndian
)

// DB is the player's local datastore: per-game secrets that must survive a
// restart, and fraud evidence retained for out-of-band publication. It is
// strictly local to one player; nothing in it is ever shared.
type DB struct {
	*bolt.DB
	dbPath string
}

// A compile time check that DB satisfies the player's secret store contract.
var _ player.SecretStore = (*DB)(nil)

// Open opens an existing wager db, creating it first if needed.
func Open(dbPath string) (*DB, error) {
	path := filepath.Join(dbPath, dbName)

	if !fileExists(path) {
		if err := createDB(dbPath); err != nil {
			return nil, err
		}
	}

	bdb, err := bolt.Open(path, dbFilePermission, nil)
	if err != nil {
		return nil, err
	}

	db := &DB{
		DB:     bdb,
		dbPath: dbPath,
	}
	if err := db.checkVersion(); err != nil {
		bdb.Close()
		return nil, err
	}

	return db, nil
}

// Wipe deletes all stored state.
func (d *DB) Wipe() error {
	return d.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{secretsBucket, fraudBucket} {
			err := tx.DeleteBucket(bucket)
			if err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}

// createDB initializes the database file with the top level buckets and the
// current schema version.
func createDB(dbPath string) error {
	if !fileExists(dbPath) {
		if err := os.MkdirAll(dbPath, 0700); err != nil {
			return err
		}
	}

	path := filepath.Join(dbPath, dbName)
	bdb, err := bolt.Open(path, dbFilePermission, nil)
	if err != nil {
		return err
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucket(secretsBucket); err != nil {
			return err
		}
		if _, err := tx.CreateBucket(fraudBucket); err != nil {
			return err
		}

		meta, err := tx.CreateBucket(metaBucket)
		if err != nil {
			return err
		}

		var version [4]byte
		byteOrder.PutUint32(version[:], dbVersion)
		return meta.Put(versionKey, version[:])
	})
	if err != nil {
		return fmt.Errorf("unable to create new wager db: %v", err)
	}

	return bdb.Close()
}

// checkVersion rejects databases written by a newer schema.
func (d *DB) checkVersion() error {
	return d.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return fmt.Errorf("wager db has no meta bucket")
		}

		raw := meta.Get(versionKey)
		if len(raw) != 4 {
			return fmt.Errorf("wager db has malformed version")
		}

		if version := byteOrder.Uint32(raw); version > dbVersion {
			return fmt.Errorf("wager db version %d is newer than "+
				"supported version %d", version, dbVersion)
		}
		return nil
	})
}

// StoreGameSecrets writes (or overwrites) a game's secrets.
//
// This is part of the player.SecretStore interface.
func (d *DB) StoreGameSecrets(id wagerwire.GameID,
	secrets *player.GameSecrets) error {

	var buf bytes.Buffer
	if err := serializeGameSecrets(&buf, secrets); err != nil {
		return err
	}

	return d.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(secretsBucket).Put(id[:], buf.Bytes())
	})
}

// FetchGameSecrets reads a game's secrets.
//
// This is part of the player.SecretStore interface.
func (d *DB) FetchGameSecrets(id wagerwire.GameID) (*player.GameSecrets,
	error) {

	var secrets *player.GameSecrets
	err := d.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(secretsBucket).Get(id[:])
		if raw == nil {
			return player.ErrNoSecrets
		}

		var err error
		secrets, err = deserializeGameSecrets(bytes.NewReader(raw))
		return err
	})
	if err != nil {
		return nil, err
	}

	return secrets, nil
}

// StoreFraudProof retains an evidence record under its game id.
//
// This is part of the player.SecretStore interface.
func (d *DB) StoreFraudProof(proof *player.FraudProof) error {
	var buf bytes.Buffer
	if err := serializeFraudProof(&buf, proof); err != nil {
		return err
	}

	return d.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(fraudBucket).Put(proof.GameID[:], buf.Bytes())
	})
}

// FetchFraudProof reads the evidence record for a game.
//
// This is part of the player.SecretStore interface.
func (d *DB) FetchFraudProof(id wagerwire.GameID) (*player.FraudProof,
	error) {

	var proof *player.FraudProof
	err := d.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(fraudBucket).Get(id[:])
		if raw == nil {
			return player.ErrNoFraudProof
		}

		var err error
		proof, err = deserializeFraudProof(bytes.NewReader(raw), id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return proof, nil
}

// FraudProofs returns every retained evidence record.
func (d *DB) FraudProofs() ([]*player.FraudProof, error) {
	var proofs []*player.FraudProof
	err := d.View(func(tx *bolt.Tx) error {
		return tx.Bucket(fraudBucket).ForEach(func(k, v []byte) error {
			var id wagerwire.GameID
			copy(id[:], k)

			proof, err := deserializeFraudProof(
				bytes.NewReader(v), id,
			)
			if err != nil {
				return err
			}

			proofs = append(proofs, proof)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return proofs, nil
}

func serializeGameSecrets(w *bytes.Buffer, secrets *player.GameSecrets) error {
	w.Write(secrets.Preimage[:])
	w.Write(secrets.Salt[:])

	if secrets.HasAction {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
	w.WriteByte(byte(secrets.Action))

	return nil
}

func deserializeGameSecrets(r *bytes.Reader) (*player.GameSecrets, error) {
	secrets := &player.GameSecrets{}

	if _, err := r.Read(secrets.Preimage[:]); err != nil {
		return nil, err
	}
	if _, err := r.Read(secrets.Salt[:]); err != nil {
		return nil, err
	}

	hasAction, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	secrets.HasAction = hasAction != 0

	action, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	secrets.Action = judge.Action(action)

	return secrets, nil
}

func serializeFraudProof(w *bytes.Buffer, proof *player.FraudProof) error {
	w.WriteByte(byte(proof.Reason))
	w.WriteByte(byte(proof.ClaimedVerdict))
	w.WriteByte(byte(proof.ExpectedVerdict))

	var ts [8]byte
	byteOrder.PutUint64(ts[:], uint64(proof.ObservedAt.Unix()))
	w.Write(ts[:])

	w.Write(proof.Signature[:])

	var msgLen [2]byte
	byteOrder.PutUint16(msgLen[:], uint16(len(proof.RawMsg)))
	w.Write(msgLen[:])
	w.Write(proof.RawMsg)

	return nil
}

func deserializeFraudProof(r *bytes.Reader,
	id wagerwire.GameID) (*player.FraudProof, error) {

	proof := &player.FraudProof{GameID: id}

	reason, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	proof.Reason = player.FraudReason(reason)

	claimed, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	proof.ClaimedVerdict = judge.Verdict(claimed)

	expected, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	proof.ExpectedVerdict = judge.Verdict(expected)

	var ts [8]byte
	if _, err := r.Read(ts[:]); err != nil {
		return nil, err
	}
	proof.ObservedAt = time.Unix(int64(byteOrder.Uint64(ts[:])), 0)

	if _, err := r.Read(proof.Signature[:]); err != nil {
		return nil, err
	}

	var msgLen [2]byte
	if _, err := r.Read(msgLen[:]); err != nil {
		return nil, err
	}
	proof.RawMsg = make([]byte, byteOrder.Uint16(msgLen[:]))
	if _, err := r.Read(proof.RawMsg); err != nil {
		return nil, err
	}

	return proof, nil
}

func fileExists(path string) bool {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}

	return true
}
