package wagerdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/judge"
	"github.com/wagernet/wagerd/player"
	"github.com/wagernet/wagerd/wagerwire"
)

func openTestDB(t *testing.T) *DB {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

// TestGameSecretsRoundTrip asserts secrets survive a store/fetch cycle and
// overwrites.
func TestGameSecretsRoundTrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	id := wagerwire.NewGameID()

	_, err := db.FetchGameSecrets(id)
	require.ErrorIs(t, err, player.ErrNoSecrets)

	preimage, err := gamecrypt.NewPreimage(nil)
	require.NoError(t, err)
	salt, err := gamecrypt.NewSalt(nil)
	require.NoError(t, err)

	secrets := &player.GameSecrets{
		Preimage: preimage,
		Salt:     salt,
	}
	require.NoError(t, db.StoreGameSecrets(id, secrets))

	fetched, err := db.FetchGameSecrets(id)
	require.NoError(t, err)
	require.Equal(t, secrets, fetched)

	// Committing an action later overwrites the record in place.
	secrets.Action = judge.Scissors
	secrets.HasAction = true
	require.NoError(t, db.StoreGameSecrets(id, secrets))

	fetched, err = db.FetchGameSecrets(id)
	require.NoError(t, err)
	require.Equal(t, secrets, fetched)
}

// TestFraudProofRoundTrip asserts evidence records survive persistence and
// enumeration.
func TestFraudProofRoundTrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	id := wagerwire.NewGameID()

	_, err := db.FetchFraudProof(id)
	require.ErrorIs(t, err, player.ErrNoFraudProof)

	proof := &player.FraudProof{
		GameID:          id,
		Reason:          player.FraudBadJudgment,
		RawMsg:          []byte{0x01, 0x02, 0x03, 0x04},
		ClaimedVerdict:  judge.VerdictBWins,
		ExpectedVerdict: judge.VerdictAWins,
		ObservedAt:      time.Unix(1_700_000_123, 0),
	}
	proof.Signature[0] = 0x42

	require.NoError(t, db.StoreFraudProof(proof))

	fetched, err := db.FetchFraudProof(id)
	require.NoError(t, err)
	require.Equal(t, proof, fetched)

	proofs, err := db.FraudProofs()
	require.NoError(t, err)
	require.Len(t, proofs, 1)
	require.Equal(t, proof, proofs[0])
}

// TestReopen asserts a database written by this version opens cleanly
// again and keeps its contents.
func TestReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	db, err := Open(dir)
	require.NoError(t, err)

	id := wagerwire.NewGameID()
	preimage, err := gamecrypt.NewPreimage(nil)
	require.NoError(t, err)

	require.NoError(t, db.StoreGameSecrets(id, &player.GameSecrets{
		Preimage: preimage,
	}))
	require.NoError(t, db.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()

	fetched, err := db.FetchGameSecrets(id)
	require.NoError(t, err)
	require.Equal(t, preimage, fetched.Preimage)
}

// TestWipe asserts Wipe clears both buckets.
func TestWipe(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	id := wagerwire.NewGameID()

	require.NoError(t, db.StoreGameSecrets(id, &player.GameSecrets{}))
	require.NoError(t, db.StoreFraudProof(&player.FraudProof{GameID: id}))

	require.NoError(t, db.Wipe())

	_, err := db.FetchGameSecrets(id)
	require.ErrorIs(t, err, player.ErrNoSecrets)
	_, err = db.FetchFraudProof(id)
	require.ErrorIs(t, err, player.ErrNoFraudProof)
}
