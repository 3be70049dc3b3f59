package oracle_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/holdinvoice"
	"github.com/wagernet/wagerd/judge"
	"github.com/wagernet/wagerd/oracle"
	"github.com/wagernet/wagerd/wagerwire"
)

var (
	playerA = wagerwire.PlayerID{0xaa}
	playerB = wagerwire.PlayerID{0xbb}
	playerC = wagerwire.PlayerID{0xcc}

	testStake = holdinvoice.Amount(1_000)
)

// testCtx bundles an oracle engine with the collaborators the tests drive
// it through.
type testCtx struct {
	t      *testing.T
	oracle *oracle.Oracle
	key    *btcec.PrivateKey
	clock  *clock.TestClock
}

func newTestCtx(t *testing.T) *testCtx {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	testClock := clock.NewTestClock(time.Unix(1_700_000_000, 0))

	o, err := oracle.New(oracle.Config{
		Signer: key,
		Clock:  testClock,
	})
	require.NoError(t, err)

	return &testCtx{
		t:      t,
		oracle: o,
		key:    key,
		clock:  testClock,
	}
}

// playerSide holds one side's secrets during a driven handshake.
type playerSide struct {
	id       wagerwire.PlayerID
	preimage gamecrypt.Preimage
	salt     gamecrypt.Salt
	action   judge.Action
	commit   gamecrypt.Commitment
}

func newPlayerSide(t *testing.T, id wagerwire.PlayerID,
	action judge.Action) *playerSide {

	preimage, err := gamecrypt.NewPreimage(nil)
	require.NoError(t, err)
	salt, err := gamecrypt.NewSalt(nil)
	require.NoError(t, err)

	return &playerSide{
		id:       id,
		preimage: preimage,
		salt:     salt,
		action:   action,
		commit:   gamecrypt.Commit(action.Encode(), salt),
	}
}

// advanceToReveal drives a game from creation to the reveal phase.
func (c *testCtx) advanceToReveal(a, b *playerSide,
	kind judge.Kind) *oracle.GameInfo {

	info, err := c.oracle.CreateGame(a.id, kind, 0, testStake, 0)
	require.NoError(c.t, err)

	_, err = c.oracle.JoinGame(info.ID, b.id)
	require.NoError(c.t, err)

	for _, side := range []*playerSide{a, b} {
		err = c.oracle.SubmitInvoice(info.ID, side.id,
			side.preimage.Hash(), testStake)
		require.NoError(c.t, err)
	}

	for _, side := range []*playerSide{a, b} {
		point, err := gamecrypt.SignaturePoint(info.CommitPoint,
			info.OraclePub, [16]byte(info.ID),
			judge.VerdictDraw.Tag())
		require.NoError(c.t, err)

		enc := gamecrypt.EncryptPreimage(side.preimage, point)
		err = c.oracle.SubmitEncPreimage(info.ID, side.id, enc)
		require.NoError(c.t, err)
	}

	for _, side := range []*playerSide{a, b} {
		err = c.oracle.SubmitCommit(info.ID, side.id, side.commit)
		require.NoError(c.t, err)
	}

	return info
}

func (c *testCtx) reveal(id wagerwire.GameID, side *playerSide) error {
	commitA, commitB, err := c.oracle.Commitments(id, side.id)
	require.NoError(c.t, err)

	return c.oracle.SubmitReveal(id, side.id, side.action, side.salt,
		commitA, commitB)
}

// TestOracleHappyPath drives a full RPS game through the engine and checks
// the signed verdict.
func TestOracleHappyPath(t *testing.T) {
	t.Parallel()

	c := newTestCtx(t)
	a := newPlayerSide(t, playerA, judge.Rock)
	b := newPlayerSide(t, playerB, judge.Scissors)

	info := c.advanceToReveal(a, b, judge.KindRPS)
	require.NoError(t, c.reveal(info.ID, a))

	// One reveal is not enough for a verdict.
	_, err := c.oracle.Result(info.ID)
	require.ErrorIs(t, err, oracle.ErrResultPending)

	require.NoError(t, c.reveal(info.ID, b))

	res, err := c.oracle.Result(info.ID)
	require.NoError(t, err)
	require.Equal(t, judge.VerdictAWins, res.Msg.Verdict)
	require.False(t, res.Msg.Timeout)
	require.Equal(t, judge.Rock, res.Msg.ActionA)
	require.Equal(t, judge.Scissors, res.Msg.ActionB)

	// The signature must verify and must reuse the announced commit
	// point.
	require.True(t, gamecrypt.VerifyVerdict(c.key.PubKey(),
		[16]byte(info.ID), res.Msg.Verdict.Tag(), res.Sig))
	require.Equal(t, info.CommitPoint.SerializeCompressed(),
		res.Sig.R().SerializeCompressed())

	// The raw message parses back to the same verdict.
	parsed, err := wagerwire.ParseVerdictMsg(res.Raw)
	require.NoError(t, err)
	require.Equal(t, res.Msg, parsed)

	// Post-completion submissions bounce.
	require.ErrorIs(t, c.reveal(info.ID, a), oracle.ErrWrongPhase)
}

// TestOracleGuessGame drives a guess game and checks the committed secret is
// revealed consistently.
func TestOracleGuessGame(t *testing.T) {
	t.Parallel()

	// secret = 50 % 100, nonce all zero.
	secretSrc := bytes.NewReader(append([]byte{50}, make([]byte, 32)...))

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	o, err := oracle.New(oracle.Config{
		Signer: key,
		Clock:  clock.NewTestClock(time.Unix(1_700_000_000, 0)),
		Rand:   secretSrc,
	})
	require.NoError(t, err)

	c := &testCtx{t: t, oracle: o, key: key}
	a := newPlayerSide(t, playerA, 42)
	b := newPlayerSide(t, playerB, 55)

	info := c.advanceToReveal(a, b, judge.KindGuessNumber)
	require.NotNil(t, info.OracleCommitment)

	require.NoError(t, c.reveal(info.ID, a))
	require.NoError(t, c.reveal(info.ID, b))

	res, err := o.Result(info.ID)
	require.NoError(t, err)
	require.Equal(t, judge.VerdictBWins, res.Msg.Verdict)
	require.EqualValues(t, 50, res.Msg.Secret)
	require.Equal(t, [32]byte{}, res.Msg.SecretNonce)

	// The revealed secret opens the announced commitment.
	require.True(t, gamecrypt.VerifyCommit(res.Msg.Secret.Encode(),
		gamecrypt.Salt(res.Msg.SecretNonce), *info.OracleCommitment))
}

// TestOraclePhaseGating asserts out-of-order submissions are rejected
// without poisoning the game.
func TestOraclePhaseGating(t *testing.T) {
	t.Parallel()

	c := newTestCtx(t)
	a := newPlayerSide(t, playerA, judge.Rock)
	b := newPlayerSide(t, playerB, judge.Paper)

	info, err := c.oracle.CreateGame(a.id, judge.KindRPS, 0, testStake, 0)
	require.NoError(t, err)

	// No reveals, commits, or encrypted preimages before their phase.
	err = c.oracle.SubmitCommit(info.ID, a.id, a.commit)
	require.ErrorIs(t, err, oracle.ErrWrongPhase)
	err = c.oracle.SubmitEncPreimage(info.ID, a.id,
		gamecrypt.EncryptedPreimage{})
	require.ErrorIs(t, err, oracle.ErrWrongPhase)
	err = c.oracle.SubmitReveal(info.ID, a.id, a.action, a.salt,
		a.commit, b.commit)
	require.ErrorIs(t, err, oracle.ErrWrongPhase)

	// Joining twice, or joining one's own game, is rejected.
	_, err = c.oracle.JoinGame(info.ID, a.id)
	require.ErrorIs(t, err, oracle.ErrSelfPlay)
	_, err = c.oracle.JoinGame(info.ID, b.id)
	require.NoError(t, err)
	_, err = c.oracle.JoinGame(info.ID, playerC)
	require.ErrorIs(t, err, oracle.ErrWrongPhase)

	// Strangers are rejected outright.
	err = c.oracle.SubmitInvoice(info.ID, playerC, a.preimage.Hash(),
		testStake)
	require.ErrorIs(t, err, oracle.ErrNotAuthorized)

	// Unequal stakes and duplicate submissions are rejected.
	err = c.oracle.SubmitInvoice(info.ID, a.id, a.preimage.Hash(),
		testStake+1)
	require.ErrorIs(t, err, oracle.ErrStakeMismatch)
	err = c.oracle.SubmitInvoice(info.ID, a.id, a.preimage.Hash(),
		testStake)
	require.NoError(t, err)
	err = c.oracle.SubmitInvoice(info.ID, a.id, a.preimage.Hash(),
		testStake)
	require.ErrorIs(t, err, oracle.ErrDuplicateSubmission)

	// The opponent invoice is unavailable until both are in.
	_, _, err = c.oracle.OpponentInvoice(info.ID, a.id)
	require.ErrorIs(t, err, oracle.ErrNotReady)

	err = c.oracle.SubmitInvoice(info.ID, b.id, b.preimage.Hash(),
		testStake)
	require.NoError(t, err)

	hash, amount, err := c.oracle.OpponentInvoice(info.ID, a.id)
	require.NoError(t, err)
	require.Equal(t, b.preimage.Hash(), hash)
	require.Equal(t, testStake, amount)
}

// TestOracleRevealChecks asserts reveal validation: witness pinning, commit
// opening, and action space.
func TestOracleRevealChecks(t *testing.T) {
	t.Parallel()

	c := newTestCtx(t)
	a := newPlayerSide(t, playerA, judge.Rock)
	b := newPlayerSide(t, playerB, judge.Paper)

	info := c.advanceToReveal(a, b, judge.KindRPS)

	// Witnesses must match the oracle's stored pair exactly.
	var bogus gamecrypt.Commitment
	bogus[0] = 0x99
	err := c.oracle.SubmitReveal(info.ID, a.id, a.action, a.salt, bogus,
		b.commit)
	require.ErrorIs(t, err, oracle.ErrCommitWitnessMismatch)

	// A reveal that does not open the stored commitment is rejected,
	// but does not poison the game.
	wrongSalt, err := gamecrypt.NewSalt(nil)
	require.NoError(t, err)
	err = c.oracle.SubmitReveal(info.ID, a.id, a.action, wrongSalt,
		a.commit, b.commit)
	require.ErrorIs(t, err, oracle.ErrCommitMismatch)

	// The honest reveal still goes through afterwards.
	require.NoError(t, c.reveal(info.ID, a))
	err = c.reveal(info.ID, a)
	require.ErrorIs(t, err, oracle.ErrDuplicateSubmission)
}

// TestOracleRevealTimeout asserts a game with a missing reveal finalizes as
// a timeout draw once the deadline lapses.
func TestOracleRevealTimeout(t *testing.T) {
	t.Parallel()

	c := newTestCtx(t)
	a := newPlayerSide(t, playerA, judge.Rock)
	b := newPlayerSide(t, playerB, judge.Scissors)

	info := c.advanceToReveal(a, b, judge.KindRPS)
	require.NoError(t, c.reveal(info.ID, a))

	_, err := c.oracle.Result(info.ID)
	require.ErrorIs(t, err, oracle.ErrResultPending)

	c.clock.SetTime(c.clock.Now().Add(oracle.DefaultRevealTimeout +
		time.Second))

	res, err := c.oracle.Result(info.ID)
	require.NoError(t, err)
	require.True(t, res.Msg.Timeout)
	require.Equal(t, judge.VerdictDraw, res.Msg.Verdict)
	require.True(t, gamecrypt.VerifyVerdict(c.key.PubKey(),
		[16]byte(info.ID), res.Msg.Verdict.Tag(), res.Sig))

	// A reveal landing after expiry bounces.
	require.ErrorIs(t, c.reveal(info.ID, b), oracle.ErrWrongPhase)
}

// TestOracleSetupTimeout asserts a joined game that stalls before the
// reveal phase also finalizes as a timeout draw.
func TestOracleSetupTimeout(t *testing.T) {
	t.Parallel()

	c := newTestCtx(t)
	a := newPlayerSide(t, playerA, judge.Rock)
	b := newPlayerSide(t, playerB, judge.Paper)

	info, err := c.oracle.CreateGame(a.id, judge.KindRPS, 0, testStake, 0)
	require.NoError(t, err)
	_, err = c.oracle.JoinGame(info.ID, b.id)
	require.NoError(t, err)

	err = c.oracle.SubmitInvoice(info.ID, a.id, a.preimage.Hash(),
		testStake)
	require.NoError(t, err)

	c.clock.SetTime(c.clock.Now().Add(oracle.DefaultCommitTimeout +
		time.Second))

	res, err := c.oracle.Result(info.ID)
	require.NoError(t, err)
	require.True(t, res.Msg.Timeout)
	require.Equal(t, judge.VerdictDraw, res.Msg.Verdict)
}

// TestOracleLobby covers listing, filtering, and creator cancellation.
func TestOracleLobby(t *testing.T) {
	t.Parallel()

	c := newTestCtx(t)

	rps, err := c.oracle.CreateGame(playerA, judge.KindRPS, 0, testStake,
		0)
	require.NoError(t, err)
	c.clock.SetTime(c.clock.Now().Add(time.Second))
	guess, err := c.oracle.CreateGame(playerB, judge.KindGuessNumber, 10,
		testStake, 0)
	require.NoError(t, err)

	all := c.oracle.ListAvailable(nil)
	require.Len(t, all, 2)
	require.Equal(t, rps.ID, all[0].ID)
	require.Equal(t, guess.ID, all[1].ID)

	kind := judge.KindGuessNumber
	filtered := c.oracle.ListAvailable(&kind)
	require.Len(t, filtered, 1)
	require.Equal(t, guess.ID, filtered[0].ID)
	require.EqualValues(t, 10, filtered[0].GuessRange)

	// Only the creator may cancel, and only while in the lobby.
	require.ErrorIs(t, c.oracle.CancelGame(rps.ID, playerB),
		oracle.ErrNotAuthorized)
	require.NoError(t, c.oracle.CancelGame(rps.ID, playerA))
	require.Len(t, c.oracle.ListAvailable(nil), 1)

	_, err = c.oracle.JoinGame(rps.ID, playerB)
	require.ErrorIs(t, err, oracle.ErrWrongPhase)
}

// TestOracleDispatch drives a slice of the surface through the wire message
// handler.
func TestOracleDispatch(t *testing.T) {
	t.Parallel()

	c := newTestCtx(t)

	resp := c.oracle.HandleMessage(&wagerwire.GetPubKey{})
	pubKey, ok := resp.(*wagerwire.PubKey)
	require.True(t, ok)
	require.Equal(t, c.key.PubKey().SerializeCompressed(),
		pubKey.Key.SerializeCompressed())

	resp = c.oracle.HandleMessage(&wagerwire.CreateGame{
		PlayerA: playerA,
		Kind:    judge.KindRPS,
		Stake:   testStake,
	})
	created, ok := resp.(*wagerwire.GameCreated)
	require.True(t, ok)
	require.False(t, created.HasOracleCommitment)

	resp = c.oracle.HandleMessage(&wagerwire.GetResult{ID: created.ID})
	result, ok := resp.(*wagerwire.GameResult)
	require.True(t, ok)
	require.True(t, result.Pending)

	resp = c.oracle.HandleMessage(&wagerwire.JoinGame{
		ID:      created.ID,
		PlayerB: playerA,
	})
	_, ok = resp.(*wagerwire.Error)
	require.True(t, ok)
}
