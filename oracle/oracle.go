package oracle

import (
	"crypto/rand"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"
	"github.com/go-errors/errors"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/holdinvoice"
	"github.com/wagernet/wagerd/judge"
	"github.com/wagernet/wagerd/wagerwire"
)

const (
	// DefaultCommitTimeout bounds the funding and commit handshake once
	// both seats of a game are taken.
	DefaultCommitTimeout = 2 * time.Minute

	// DefaultRevealTimeout bounds the reveal phase.
	DefaultRevealTimeout = 5 * time.Minute

	// DefaultSweepInterval is how often the oracle scans for games whose
	// deadline has lapsed.
	DefaultSweepInterval = 30 * time.Second

	// DefaultMinStake is the smallest accepted stake.
	DefaultMinStake holdinvoice.Amount = 1
)

// Config is the set of collaborators and limits the oracle engine runs with.
type Config struct {
	// Signer is the oracle's long-term Schnorr key. Its public half is
	// published to every player.
	Signer *btcec.PrivateKey

	// Clock provides the engine's notion of time.
	Clock clock.Clock

	// SweepTicker paces the background scan for expired games.
	SweepTicker ticker.Ticker

	// CommitTimeout bounds the funding/commit handshake; RevealTimeout
	// bounds the reveal phase. Zero values select the defaults.
	CommitTimeout time.Duration
	RevealTimeout time.Duration

	// MinStake is the smallest stake a game may be created with.
	MinStake holdinvoice.Amount

	// Rand is the entropy source for oracle secrets. Nil selects the
	// system CSPRNG; tests inject a deterministic reader.
	Rand io.Reader
}

// Oracle is the hub of the wager protocol: it runs the lobby, mediates every
// exchange between the two players of a game, and signs exactly one verdict
// per game. It holds no preimages and no channel state, so it can never
// move funds; the worst a dishonest oracle can do is sign a wrong verdict,
// which players detect and keep as a fraud proof.
type Oracle struct {
	started  int32
	shutdown int32
	wg       sync.WaitGroup
	quit     chan struct{}

	cfg *Config

	// games maps ids onto sessions. The registry mutex only guards the
	// map itself; each session carries its own lock.
	mtx   sync.RWMutex
	games map[wagerwire.GameID]*gameSession
}

// New creates an oracle engine from the passed config.
func New(cfg Config) (*Oracle, error) {
	if cfg.Signer == nil {
		return nil, fmt.Errorf("oracle requires a signing key")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	if cfg.SweepTicker == nil {
		cfg.SweepTicker = ticker.New(DefaultSweepInterval)
	}
	if cfg.CommitTimeout == 0 {
		cfg.CommitTimeout = DefaultCommitTimeout
	}
	if cfg.RevealTimeout == 0 {
		cfg.RevealTimeout = DefaultRevealTimeout
	}
	if cfg.MinStake == 0 {
		cfg.MinStake = DefaultMinStake
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}

	return &Oracle{
		cfg:   &cfg,
		games: make(map[wagerwire.GameID]*gameSession),
		quit:  make(chan struct{}),
	}, nil
}

// Start launches the deadline sweeper.
func (o *Oracle) Start() error {
	if !atomic.CompareAndSwapInt32(&o.started, 0, 1) {
		log.Warn("Oracle already started")
		return nil
	}

	log.Infof("Starting wager oracle, pubkey=%x",
		o.cfg.Signer.PubKey().SerializeCompressed())

	o.cfg.SweepTicker.Resume()

	o.wg.Add(1)
	go o.sweeper()

	return nil
}

// Stop shuts the sweeper down and waits for it to exit.
func (o *Oracle) Stop() {
	if !atomic.CompareAndSwapInt32(&o.shutdown, 0, 1) {
		log.Warn("Oracle already stopped")
		return
	}

	log.Infof("Stopping wager oracle")

	close(o.quit)
	o.wg.Wait()
	o.cfg.SweepTicker.Stop()
}

// PubKey returns the oracle's long-term public key O.
func (o *Oracle) PubKey() *btcec.PublicKey {
	return o.cfg.Signer.PubKey()
}

// CreateGame opens a new session with the caller seated as player A. The
// session's nonce commitment and, for secret-requiring kinds, the oracle
// secret commitment are fixed here and never change. A zero revealTimeout
// selects the oracle's default.
func (o *Oracle) CreateGame(playerA wagerwire.PlayerID, kind judge.Kind,
	guessRange uint8, stake holdinvoice.Amount,
	revealTimeout time.Duration) (*GameInfo, error) {

	if !kind.Valid() {
		return nil, fmt.Errorf("unknown game kind %d", kind)
	}
	if stake < o.cfg.MinStake {
		return nil, fmt.Errorf("stake %v below minimum %v", stake,
			o.cfg.MinStake)
	}
	if kind == judge.KindGuessNumber && guessRange == 1 {
		return nil, fmt.Errorf("guess range of 1 leaves no choice")
	}
	if revealTimeout == 0 {
		revealTimeout = o.cfg.RevealTimeout
	}

	id := wagerwire.NewGameID()

	nonce, err := gamecrypt.DeriveGameNonce(o.cfg.Signer, id)
	if err != nil {
		return nil, err
	}

	sess := &gameSession{
		id:            id,
		kind:          kind,
		guessRange:    guessRange,
		stake:         stake,
		createdAt:     o.cfg.Clock.Now(),
		nonce:         nonce,
		commitPoint:   nonce.Point(),
		playerA:       playerA,
		phase:         PhaseWaitingForOpponent,
		revealTimeout: revealTimeout,
	}

	if kind.RequiresOracleSecret() {
		secret, err := o.sampleSecret(kind, guessRange)
		if err != nil {
			return nil, err
		}
		sess.secret = secret
	}

	o.mtx.Lock()
	o.games[id] = sess
	o.mtx.Unlock()

	log.Infof("Game %v created: kind=%v stake=%v player_a=%x", id, kind,
		stake, playerA[:8])

	return sess.info(o.PubKey()), nil
}

// sampleSecret draws a fresh oracle secret and commitment nonce for a
// secret-requiring game kind.
func (o *Oracle) sampleSecret(kind judge.Kind,
	guessRange uint8) (*oracleSecret, error) {

	bound := guessRange
	if bound == 0 {
		bound = judge.DefaultGuessRange
	}

	var b [1]byte
	if _, err := io.ReadFull(o.cfg.Rand, b[:]); err != nil {
		return nil, err
	}
	value := judge.Action(b[0] % bound)

	var nonce [32]byte
	if _, err := io.ReadFull(o.cfg.Rand, nonce[:]); err != nil {
		return nil, err
	}

	return &oracleSecret{
		value:      value,
		nonce:      nonce,
		commitment: gamecrypt.Commit(value.Encode(),
			gamecrypt.Salt(nonce)),
	}, nil
}

// fetchSession resolves a game id onto its session.
func (o *Oracle) fetchSession(id wagerwire.GameID) (*gameSession, error) {
	o.mtx.RLock()
	sess, ok := o.games[id]
	o.mtx.RUnlock()

	if !ok {
		return nil, ErrGameNotFound
	}
	return sess, nil
}

// ListAvailable returns the lobby: games still waiting for an opponent,
// oldest first, optionally restricted to one kind.
func (o *Oracle) ListAvailable(filter *judge.Kind) []*GameInfo {
	o.mtx.RLock()
	sessions := make([]*gameSession, 0, len(o.games))
	for _, sess := range o.games {
		sessions = append(sessions, sess)
	}
	o.mtx.RUnlock()

	var infos []*GameInfo
	for _, sess := range sessions {
		sess.mtx.Lock()
		if sess.phase == PhaseWaitingForOpponent &&
			(filter == nil || sess.kind == *filter) {

			infos = append(infos, sess.info(o.PubKey()))
		}
		sess.mtx.Unlock()
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// JoinGame seats playerB in a lobby game and starts the funding handshake.
func (o *Oracle) JoinGame(id wagerwire.GameID,
	playerB wagerwire.PlayerID) (*GameInfo, error) {

	sess, err := o.fetchSession(id)
	if err != nil {
		return nil, err
	}

	sess.mtx.Lock()
	defer sess.mtx.Unlock()

	if sess.phase != PhaseWaitingForOpponent {
		return nil, ErrWrongPhase
	}
	if playerB == sess.playerA {
		return nil, ErrSelfPlay
	}

	sess.playerB = playerB
	sess.hasB = true
	sess.phase = PhaseInvoicesPending
	sess.setupDeadline = o.cfg.Clock.Now().Add(o.cfg.CommitTimeout)

	log.Infof("Game %v joined by player_b=%x, now %v", id, playerB[:8],
		sess.phase)

	return sess.info(o.PubKey()), nil
}

// CancelGame lets the creator withdraw a game that is still in the lobby.
// Once an opponent has joined, the only way out is a signed verdict.
func (o *Oracle) CancelGame(id wagerwire.GameID,
	player wagerwire.PlayerID) error {

	sess, err := o.fetchSession(id)
	if err != nil {
		return err
	}

	sess.mtx.Lock()
	defer sess.mtx.Unlock()

	if player != sess.playerA {
		return ErrNotAuthorized
	}
	if sess.phase != PhaseWaitingForOpponent {
		return ErrWrongPhase
	}

	sess.phase = PhaseAbandoned
	log.Infof("Game %v abandoned by creator", id)

	return nil
}

// SubmitInvoice records a player's hold invoice descriptor. The creator may
// submit while still waiting for an opponent; once both descriptors are in,
// the session advances to the encrypted preimage exchange.
func (o *Oracle) SubmitInvoice(id wagerwire.GameID,
	player wagerwire.PlayerID, hash chainhash.Hash,
	amount holdinvoice.Amount) error {

	sess, err := o.fetchSession(id)
	if err != nil {
		return err
	}

	sess.mtx.Lock()
	defer sess.mtx.Unlock()

	if sess.phase > PhaseInvoicesPending {
		return ErrWrongPhase
	}

	role, err := sess.roleOf(player)
	if err != nil {
		return err
	}
	if sess.invoices[role] != nil {
		return ErrDuplicateSubmission
	}
	if amount != sess.stake {
		return ErrStakeMismatch
	}

	sess.invoices[role] = &invoiceRecord{
		paymentHash: hash,
		amount:      amount,
	}

	log.Debugf("Game %v: invoice recorded for player %v, hash=%v", id,
		role, hash)

	if sess.invoices[wagerwire.RoleA] != nil &&
		sess.invoices[wagerwire.RoleB] != nil {

		sess.phase = PhaseEncPreimagesPending
		log.Debugf("Game %v advanced to %v", id, sess.phase)
	}

	return nil
}

// OpponentInvoice returns the counterparty's invoice descriptor, available
// only once both players have submitted theirs.
func (o *Oracle) OpponentInvoice(id wagerwire.GameID,
	player wagerwire.PlayerID) (chainhash.Hash, holdinvoice.Amount, error) {

	sess, err := o.fetchSession(id)
	if err != nil {
		return chainhash.Hash{}, 0, err
	}

	sess.mtx.Lock()
	defer sess.mtx.Unlock()

	role, err := sess.roleOf(player)
	if err != nil {
		return chainhash.Hash{}, 0, err
	}
	opp := sess.invoices[role.Opponent()]
	if sess.invoices[role] == nil || opp == nil {
		return chainhash.Hash{}, 0, ErrNotReady
	}

	return opp.paymentHash, opp.amount, nil
}

// SubmitEncPreimage records a player's encrypted preimage. Once both are in,
// the session advances to the commit exchange.
func (o *Oracle) SubmitEncPreimage(id wagerwire.GameID,
	player wagerwire.PlayerID, enc gamecrypt.EncryptedPreimage) error {

	sess, err := o.fetchSession(id)
	if err != nil {
		return err
	}

	sess.mtx.Lock()
	defer sess.mtx.Unlock()

	if sess.phase != PhaseEncPreimagesPending {
		return ErrWrongPhase
	}

	role, err := sess.roleOf(player)
	if err != nil {
		return err
	}
	if sess.encPreimages[role] != nil {
		return ErrDuplicateSubmission
	}

	encCopy := enc
	sess.encPreimages[role] = &encCopy

	if sess.encPreimages[wagerwire.RoleA] != nil &&
		sess.encPreimages[wagerwire.RoleB] != nil {

		sess.phase = PhaseCommitPending
		log.Debugf("Game %v advanced to %v", id, sess.phase)
	}

	return nil
}

// OpponentEncPreimage returns the counterparty's encrypted preimage once
// both have been submitted.
func (o *Oracle) OpponentEncPreimage(id wagerwire.GameID,
	player wagerwire.PlayerID) (gamecrypt.EncryptedPreimage, error) {

	sess, err := o.fetchSession(id)
	if err != nil {
		return gamecrypt.EncryptedPreimage{}, err
	}

	sess.mtx.Lock()
	defer sess.mtx.Unlock()

	role, err := sess.roleOf(player)
	if err != nil {
		return gamecrypt.EncryptedPreimage{}, err
	}
	opp := sess.encPreimages[role.Opponent()]
	if sess.encPreimages[role] == nil || opp == nil {
		return gamecrypt.EncryptedPreimage{}, ErrNotReady
	}

	return *opp, nil
}

// SubmitCommit records a player's action commitment. Once both are in, the
// reveal deadline starts running.
func (o *Oracle) SubmitCommit(id wagerwire.GameID,
	player wagerwire.PlayerID, commit gamecrypt.Commitment) error {

	sess, err := o.fetchSession(id)
	if err != nil {
		return err
	}

	sess.mtx.Lock()
	defer sess.mtx.Unlock()

	if sess.phase != PhaseCommitPending {
		return ErrWrongPhase
	}

	role, err := sess.roleOf(player)
	if err != nil {
		return err
	}
	if sess.commits[role] != nil {
		return ErrDuplicateSubmission
	}

	commitCopy := commit
	sess.commits[role] = &commitCopy

	if sess.commits[wagerwire.RoleA] != nil &&
		sess.commits[wagerwire.RoleB] != nil {

		sess.phase = PhaseRevealPending
		sess.revealDeadline = o.cfg.Clock.Now().Add(sess.revealTimeout)

		log.Debugf("Game %v advanced to %v, reveal deadline %v", id,
			sess.phase, sess.revealDeadline)
	}

	return nil
}

// Commitments returns both stored commitments once the commit phase is
// complete, so a revealing player can pin the pair it answers for.
func (o *Oracle) Commitments(id wagerwire.GameID,
	player wagerwire.PlayerID) (gamecrypt.Commitment, gamecrypt.Commitment,
	error) {

	sess, err := o.fetchSession(id)
	if err != nil {
		return gamecrypt.Commitment{}, gamecrypt.Commitment{}, err
	}

	sess.mtx.Lock()
	defer sess.mtx.Unlock()

	if _, err := sess.roleOf(player); err != nil {
		return gamecrypt.Commitment{}, gamecrypt.Commitment{}, err
	}

	commitA := sess.commits[wagerwire.RoleA]
	commitB := sess.commits[wagerwire.RoleB]
	if commitA == nil || commitB == nil {
		return gamecrypt.Commitment{}, gamecrypt.Commitment{},
			ErrNotReady
	}

	return *commitA, *commitB, nil
}

// SubmitReveal opens a player's commitment. The reveal must quote the
// commitment pair exactly as the oracle holds it and must open the player's
// own commitment; once both reveals are in the verdict is determined and
// signed immediately.
func (o *Oracle) SubmitReveal(id wagerwire.GameID,
	player wagerwire.PlayerID, action judge.Action, salt gamecrypt.Salt,
	commitA, commitB gamecrypt.Commitment) error {

	sess, err := o.fetchSession(id)
	if err != nil {
		return err
	}

	sess.mtx.Lock()
	defer sess.mtx.Unlock()

	if sess.phase != PhaseRevealPending {
		return ErrWrongPhase
	}

	role, err := sess.roleOf(player)
	if err != nil {
		return err
	}
	if sess.reveals[role] != nil {
		return ErrDuplicateSubmission
	}

	if commitA != *sess.commits[wagerwire.RoleA] ||
		commitB != *sess.commits[wagerwire.RoleB] {

		return ErrCommitWitnessMismatch
	}

	err = judge.ValidateAction(sess.kind, action, sess.guessRange)
	if err != nil {
		return ErrInvalidAction
	}

	if !gamecrypt.VerifyCommit(action.Encode(), salt,
		*sess.commits[role]) {

		log.Warnf("Game %v: player %v reveal does not open its "+
			"commitment", id, role)
		return ErrCommitMismatch
	}

	sess.reveals[role] = &revealRecord{action: action, salt: salt}
	log.Debugf("Game %v: reveal recorded for player %v", id, role)

	if sess.reveals[wagerwire.RoleA] != nil &&
		sess.reveals[wagerwire.RoleB] != nil {

		return o.finalize(sess)
	}

	return nil
}

// Result returns the signed verdict, finalizing a lapsed deadline on the
// way, or ErrResultPending while the game is still live.
func (o *Oracle) Result(id wagerwire.GameID) (*SignedResult, error) {
	sess, err := o.fetchSession(id)
	if err != nil {
		return nil, err
	}

	sess.mtx.Lock()
	defer sess.mtx.Unlock()

	if err := o.maybeExpire(sess, o.cfg.Clock.Now()); err != nil {
		return nil, err
	}

	if sess.result == nil {
		return nil, ErrResultPending
	}
	return sess.result, nil
}

// finalize determines and signs the verdict from two valid reveals. Called
// with the session mutex held.
func (o *Oracle) finalize(sess *gameSession) error {
	if sess.result != nil {
		return errors.Errorf("game %v already finalized", sess.id)
	}

	var secret *judge.Action
	if sess.secret != nil {
		secret = &sess.secret.value
	}

	actionA := sess.reveals[wagerwire.RoleA].action
	actionB := sess.reveals[wagerwire.RoleB].action

	verdict, err := judge.Judge(sess.kind, actionA, actionB, secret)
	if err != nil {
		return errors.Errorf("game %v judging failed: %v", sess.id,
			err)
	}

	msg := &wagerwire.VerdictMsg{
		GameID:  sess.id,
		Kind:    sess.kind,
		Verdict: verdict,
		ActionA: actionA,
		ActionB: actionB,
	}
	if sess.secret != nil {
		msg.Secret = sess.secret.value
		msg.SecretNonce = sess.secret.nonce
	}

	return o.signResult(sess, msg)
}

// finalizeTimeout signs the deadline-forced draw. Called with the session
// mutex held.
func (o *Oracle) finalizeTimeout(sess *gameSession) error {
	if sess.result != nil {
		return errors.Errorf("game %v already finalized", sess.id)
	}

	log.Infof("Game %v expired in phase %v, signing timeout draw",
		sess.id, sess.phase)

	msg := &wagerwire.VerdictMsg{
		GameID:  sess.id,
		Kind:    sess.kind,
		Verdict: judge.VerdictDraw,
		Timeout: true,
	}

	return o.signResult(sess, msg)
}

// signResult signs the verdict message with the session nonce, consuming it,
// and archives the session. Called with the session mutex held.
func (o *Oracle) signResult(sess *gameSession, msg *wagerwire.VerdictMsg) error {
	if sess.nonce == nil {
		return errors.Errorf("game %v session nonce already consumed",
			sess.id)
	}

	sig, err := gamecrypt.SignVerdict(o.cfg.Signer, sess.nonce, sess.id,
		msg.Verdict.Tag())
	if err != nil {
		return errors.Errorf("game %v verdict signing failed: %v",
			sess.id, err)
	}

	// The nonce signs exactly one verdict. Wipe it so no code path can
	// ever produce a second signature, which would leak the oracle key.
	sess.nonce.Zero()
	sess.nonce = nil

	sess.result = &SignedResult{
		Msg: msg,
		Raw: msg.Serialize(),
		Sig: sig,
	}
	sess.phase = PhaseComplete

	log.Infof("Game %v complete: verdict=%v timeout=%v", sess.id,
		msg.Verdict, msg.Timeout)
	log.Tracef("Game %v verdict message: %v", sess.id,
		newLogClosure(func() string {
			return spew.Sdump(msg)
		}))

	return nil
}

// maybeExpire finalizes a session whose active deadline has lapsed. Called
// with the session mutex held.
func (o *Oracle) maybeExpire(sess *gameSession, now time.Time) error {
	var deadline time.Time
	switch sess.phase {
	case PhaseInvoicesPending, PhaseEncPreimagesPending,
		PhaseCommitPending:

		deadline = sess.setupDeadline

	case PhaseRevealPending:
		deadline = sess.revealDeadline

	default:
		// Lobby games don't expire on their own and complete games
		// are already immutable.
		return nil
	}

	if now.After(deadline) {
		return o.finalizeTimeout(sess)
	}
	return nil
}

// sweeper periodically expires games whose deadline lapsed without a result
// query forcing the issue, so an absent winner still unblocks the loser's
// refund.
func (o *Oracle) sweeper() {
	defer o.wg.Done()

	for {
		select {
		case <-o.cfg.SweepTicker.Ticks():
			o.sweepExpired()

		case <-o.quit:
			return
		}
	}
}

// sweepExpired walks every live session and finalizes the expired ones.
func (o *Oracle) sweepExpired() {
	now := o.cfg.Clock.Now()

	o.mtx.RLock()
	sessions := make([]*gameSession, 0, len(o.games))
	for _, sess := range o.games {
		sessions = append(sessions, sess)
	}
	o.mtx.RUnlock()

	for _, sess := range sessions {
		sess.mtx.Lock()
		if err := o.maybeExpire(sess, now); err != nil {
			log.Errorf("Unable to expire game %v: %v", sess.id,
				err)
		}
		sess.mtx.Unlock()
	}
}
