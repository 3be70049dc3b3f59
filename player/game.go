package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/holdinvoice"
	"github.com/wagernet/wagerd/judge"
	"github.com/wagernet/wagerd/oracle"
	"github.com/wagernet/wagerd/wagerwire"
)

// GamePhase is the player's local view of a game's progress.
type GamePhase uint8

const (
	// PhaseInvoiceSubmitted: the game exists and our hold invoice is
	// registered with the oracle. No funds are locked yet.
	PhaseInvoiceSubmitted GamePhase = iota

	// PhaseFunded: we paid the opponent's invoice; our stake is locked.
	PhaseFunded

	// PhaseEncPreimageSent: our encrypted preimage is with the oracle.
	PhaseEncPreimageSent

	// PhaseCommitted: our action commitment is with the oracle.
	PhaseCommitted

	// PhaseRevealed: our reveal is with the oracle.
	PhaseRevealed

	// PhaseResolved: the verdict arrived and verified.
	PhaseResolved

	// PhaseSettled: settlement ran (or, for a loss, is the
	// counterparty's to run).
	PhaseSettled

	// PhaseCancelled: our own invoice was cancelled after a draw.
	PhaseCancelled

	// PhaseFraud: verification failed; evidence is retained and the
	// game is dead.
	PhaseFraud
)

// String returns a human readable phase name.
func (p GamePhase) String() string {
	switch p {
	case PhaseInvoiceSubmitted:
		return "InvoiceSubmitted"
	case PhaseFunded:
		return "Funded"
	case PhaseEncPreimageSent:
		return "EncPreimageSent"
	case PhaseCommitted:
		return "Committed"
	case PhaseRevealed:
		return "Revealed"
	case PhaseResolved:
		return "Resolved"
	case PhaseSettled:
		return "Settled"
	case PhaseCancelled:
		return "Cancelled"
	case PhaseFraud:
		return "Fraud"
	default:
		return fmt.Sprintf("UnknownPhase(%d)", uint8(p))
	}
}

// Outcome is this player's side of a verdict.
type Outcome uint8

const (
	// OutcomeWon: the counterparty's stake is ours to collect.
	OutcomeWon Outcome = iota

	// OutcomeLost: the counterparty collects ours.
	OutcomeLost

	// OutcomeDraw: both sides cancel their own invoices. Deadline draws
	// land here too.
	OutcomeDraw
)

// String returns a human readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "Won"
	case OutcomeLost:
		return "Lost"
	default:
		return "Draw"
	}
}

// GameOutcome is the verified result of a game from this player's
// perspective.
type GameOutcome struct {
	Outcome Outcome

	// Timeout is true if the draw was forced by a missed deadline.
	Timeout bool

	// Result is the verified signed verdict.
	Result *oracle.SignedResult
}

// gameState is the player's full local view of one game. All mutation
// happens under the state mutex; the only awaits inside it are the oracle
// and hold-invoice calls the protocol requires at that step.
type gameState struct {
	mtx sync.Mutex

	id         wagerwire.GameID
	kind       judge.Kind
	guessRange uint8
	stake      holdinvoice.Amount
	role       wagerwire.PlayerRole

	oraclePub        *btcec.PublicKey
	commitPoint      *btcec.PublicKey
	oracleCommitment *gamecrypt.Commitment

	preimage    gamecrypt.Preimage
	salt        gamecrypt.Salt
	paymentHash chainhash.Hash

	action    judge.Action
	hasAction bool

	oppHash       chainhash.Hash
	hasOppInvoice bool
	oppEnc        *gamecrypt.EncryptedPreimage

	phase   GamePhase
	outcome *GameOutcome
}

// losingTag returns the verdict tag under which this player loses: the point
// its own preimage is encrypted toward.
func (g *gameState) losingTag() []byte {
	if g.role == wagerwire.RoleA {
		return judge.VerdictBWins.Tag()
	}
	return judge.VerdictAWins.Tag()
}

// PaymentHash returns the payment hash of this player's own invoice for a
// tracked game, or a zero hash for games this engine never saw.
func (p *Player) PaymentHash(id wagerwire.GameID) chainhash.Hash {
	g, err := p.fetchGame(id)
	if err != nil {
		return chainhash.Hash{}
	}

	g.mtx.Lock()
	defer g.mtx.Unlock()
	return g.paymentHash
}

// Phase returns the local phase of a tracked game.
func (p *Player) Phase(id wagerwire.GameID) (GamePhase, error) {
	g, err := p.fetchGame(id)
	if err != nil {
		return 0, err
	}

	g.mtx.Lock()
	defer g.mtx.Unlock()
	return g.phase, nil
}

// CreateGame opens a new game as player A: it generates the preimage and
// salt, persists them, registers the game and our hold invoice with the
// oracle, and starts tracking the session.
func (p *Player) CreateGame(kind judge.Kind, guessRange uint8,
	stake holdinvoice.Amount) (wagerwire.GameID, error) {

	info, err := p.cfg.Oracle.CreateGame(p.cfg.ID, kind, guessRange,
		stake, 0)
	if err != nil {
		return wagerwire.GameID{}, err
	}

	if err := p.setupGame(info, wagerwire.RoleA); err != nil {
		return wagerwire.GameID{}, err
	}
	return info.ID, nil
}

// JoinGame seats this player as B in an existing lobby game and mirrors the
// creator's setup steps.
func (p *Player) JoinGame(id wagerwire.GameID) error {
	info, err := p.cfg.Oracle.JoinGame(id, p.cfg.ID)
	if err != nil {
		return err
	}

	return p.setupGame(info, wagerwire.RoleB)
}

// setupGame runs the common half of create/join: fresh secrets, persistence,
// invoice creation, and invoice submission.
func (p *Player) setupGame(info *oracle.GameInfo,
	role wagerwire.PlayerRole) error {

	preimage, err := gamecrypt.NewPreimage(p.cfg.Rand)
	if err != nil {
		return err
	}
	salt, err := gamecrypt.NewSalt(p.cfg.Rand)
	if err != nil {
		return err
	}

	// Secrets hit the store before anything derived from them leaves
	// the engine, so a crash mid-handshake loses no funds.
	err = p.cfg.Store.StoreGameSecrets(info.ID, &GameSecrets{
		Preimage: preimage,
		Salt:     salt,
	})
	if err != nil {
		return err
	}

	paymentHash := preimage.Hash()
	invoice, err := p.cfg.Invoices.CreateHoldInvoice(paymentHash,
		info.Stake, p.cfg.InvoiceExpiry)
	if err != nil {
		return err
	}

	err = p.cfg.Oracle.SubmitInvoice(info.ID, p.cfg.ID,
		invoice.PaymentHash, invoice.Amount)
	if err != nil {
		return err
	}

	g := &gameState{
		id:               info.ID,
		kind:             info.Kind,
		guessRange:       info.GuessRange,
		stake:            info.Stake,
		role:             role,
		oraclePub:        info.OraclePub,
		commitPoint:      info.CommitPoint,
		oracleCommitment: info.OracleCommitment,
		preimage:         preimage,
		salt:             salt,
		paymentHash:      paymentHash,
		phase:            PhaseInvoiceSubmitted,
	}

	p.mtx.Lock()
	p.games[info.ID] = g
	p.mtx.Unlock()

	log.Infof("Game %v: tracking as player %v, stake=%v", info.ID, role,
		info.Stake)
	p.notify(info.ID, PhaseInvoiceSubmitted)

	return nil
}

// PayOpponentInvoice polls the oracle for the opponent's invoice and pays
// it, locking this player's stake. This is the step at which funds commit;
// the player refuses if the opponent's invoice amount differs from the
// agreed stake.
func (p *Player) PayOpponentInvoice(ctx context.Context,
	id wagerwire.GameID) error {

	g, err := p.fetchGame(id)
	if err != nil {
		return err
	}

	g.mtx.Lock()
	defer g.mtx.Unlock()

	if g.phase != PhaseInvoiceSubmitted {
		return ErrWrongPhase
	}

	var (
		oppHash   chainhash.Hash
		oppAmount holdinvoice.Amount
	)
	for {
		oppHash, oppAmount, err = p.cfg.Oracle.OpponentInvoice(id,
			p.cfg.ID)
		if err == nil {
			break
		}
		if err != oracle.ErrNotReady {
			return err
		}

		select {
		case <-p.cfg.Clock.TickAfter(p.cfg.PollInterval):
		case <-ctx.Done():
			return ctx.Err()
		case <-p.quit:
			return fmt.Errorf("player shutting down")
		}
	}

	if oppAmount != g.stake {
		return ErrStakeMismatch
	}

	_, err = p.cfg.Invoices.PayHoldInvoice(&holdinvoice.Invoice{
		PaymentHash: oppHash,
		Amount:      oppAmount,
	})
	if err != nil {
		return err
	}

	g.oppHash = oppHash
	g.hasOppInvoice = true
	g.phase = PhaseFunded

	log.Infof("Game %v: paid opponent invoice %v, stake locked", id,
		oppHash)
	p.notify(id, PhaseFunded)

	return nil
}

// SendEncryptedPreimage encrypts this player's preimage toward the signature
// point of the verdict in which it loses and submits it. No point exists for
// a draw: on a draw each side cancels its own invoice instead.
func (p *Player) SendEncryptedPreimage(id wagerwire.GameID) error {
	g, err := p.fetchGame(id)
	if err != nil {
		return err
	}

	g.mtx.Lock()
	defer g.mtx.Unlock()

	if g.phase != PhaseFunded {
		return ErrWrongPhase
	}

	point, err := gamecrypt.SignaturePoint(g.commitPoint, g.oraclePub,
		[16]byte(g.id), g.losingTag())
	if err != nil {
		return err
	}

	enc := gamecrypt.EncryptPreimage(g.preimage, point)
	if err := p.cfg.Oracle.SubmitEncPreimage(id, p.cfg.ID, enc); err != nil {
		return err
	}

	g.phase = PhaseEncPreimageSent
	log.Debugf("Game %v: encrypted preimage submitted", id)
	p.notify(id, PhaseEncPreimageSent)

	return nil
}

// Commit chooses this player's action and submits its salted commitment.
// The action is persisted alongside the other secrets before the commitment
// leaves the engine.
func (p *Player) Commit(id wagerwire.GameID, action judge.Action) error {
	g, err := p.fetchGame(id)
	if err != nil {
		return err
	}

	g.mtx.Lock()
	defer g.mtx.Unlock()

	if g.phase != PhaseEncPreimageSent {
		return ErrWrongPhase
	}

	err = judge.ValidateAction(g.kind, action, g.guessRange)
	if err != nil {
		return err
	}

	err = p.cfg.Store.StoreGameSecrets(id, &GameSecrets{
		Preimage:  g.preimage,
		Salt:      g.salt,
		Action:    action,
		HasAction: true,
	})
	if err != nil {
		return err
	}

	commit := gamecrypt.Commit(action.Encode(), g.salt)
	if err := p.cfg.Oracle.SubmitCommit(id, p.cfg.ID, commit); err != nil {
		return err
	}

	g.action = action
	g.hasAction = true
	g.phase = PhaseCommitted

	log.Debugf("Game %v: action committed", id)
	p.notify(id, PhaseCommitted)

	return nil
}

// Reveal opens this player's commitment toward the oracle, quoting the
// commitment pair as witness. If the pair the oracle quotes back does not
// contain our own commitment, the hub has tampered and the reveal is
// withheld.
func (p *Player) Reveal(id wagerwire.GameID) error {
	g, err := p.fetchGame(id)
	if err != nil {
		return err
	}

	g.mtx.Lock()
	defer g.mtx.Unlock()

	if g.phase != PhaseCommitted {
		return ErrWrongPhase
	}

	commitA, commitB, err := p.cfg.Oracle.Commitments(id, p.cfg.ID)
	if err != nil {
		return err
	}

	own := commitA
	if g.role == wagerwire.RoleB {
		own = commitB
	}
	if own != gamecrypt.Commit(g.action.Encode(), g.salt) {
		log.Errorf("Game %v: oracle quotes a foreign commitment for "+
			"our seat", id)
		return ErrCommitTampered
	}

	err = p.cfg.Oracle.SubmitReveal(id, p.cfg.ID, g.action, g.salt,
		commitA, commitB)
	if err != nil {
		return err
	}

	g.phase = PhaseRevealed
	log.Debugf("Game %v: revealed action", id)
	p.notify(id, PhaseRevealed)

	return nil
}
