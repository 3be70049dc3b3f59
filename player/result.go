package player

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/judge"
	"github.com/wagernet/wagerd/oracle"
	"github.com/wagernet/wagerd/wagerwire"
)

// PollResult performs a single result query against the oracle. While the
// game is live it returns oracle.ErrResultPending. Once a verdict arrives it
// is fully verified: signature against the announced key material, the
// oracle secret against its commitment, and the verdict against an
// independent re-judging of the published game data. Verification failures
// are fatal to the game; the signed message is retained as evidence where it
// proves misbehavior.
func (p *Player) PollResult(id wagerwire.GameID) (*GameOutcome, error) {
	g, err := p.fetchGame(id)
	if err != nil {
		return nil, err
	}

	g.mtx.Lock()
	defer g.mtx.Unlock()

	if g.outcome != nil {
		return g.outcome, nil
	}
	if g.phase > PhaseRevealed {
		return nil, ErrWrongPhase
	}

	res, err := p.cfg.Oracle.Result(id)
	if err != nil {
		return nil, err
	}

	outcome, proof, err := p.verifyResult(g, res)
	if err != nil {
		p.failGame(g, proof, err)
		return nil, err
	}

	g.outcome = outcome
	g.phase = PhaseResolved

	log.Infof("Game %v resolved: %v (timeout=%v)", id, outcome.Outcome,
		outcome.Timeout)
	p.notify(id, PhaseResolved)

	return outcome, nil
}

// AwaitResult polls the oracle at the configured interval until a verdict
// arrives, the context is cancelled, or the player shuts down.
func (p *Player) AwaitResult(ctx context.Context,
	id wagerwire.GameID) (*GameOutcome, error) {

	for {
		outcome, err := p.PollResult(id)
		if err != oracle.ErrResultPending {
			return outcome, err
		}

		select {
		case <-p.cfg.Clock.TickAfter(p.cfg.PollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.quit:
			return nil, fmt.Errorf("player shutting down")
		}
	}
}

// verifyResult checks a signed result against everything this player knows.
// It returns the outcome on success; on failure it returns the protocol
// error and, when the signed message itself proves misbehavior, the fraud
// proof to retain. Called with the game mutex held.
func (p *Player) verifyResult(g *gameState,
	res *oracle.SignedResult) (*GameOutcome, *FraudProof, error) {

	// The player trusts nothing but the raw bytes: parse them
	// independently instead of taking the oracle's word for their
	// meaning.
	msg, err := wagerwire.ParseVerdictMsg(res.Raw)
	if err != nil {
		return nil, nil, ErrOracleSigInvalid
	}
	if msg.GameID != g.id || msg.Kind != g.kind {
		return nil, nil, ErrOracleSigInvalid
	}

	// The signature must reuse the session nonce announced at creation,
	// otherwise the revealed scalar cannot land on any signature point
	// the players derived.
	if !bytes.Equal(res.Sig.R().SerializeCompressed(),
		g.commitPoint.SerializeCompressed()) {

		return nil, nil, ErrOracleSigInvalid
	}

	if !gamecrypt.VerifyVerdict(g.oraclePub, [16]byte(g.id),
		msg.Verdict.Tag(), res.Sig) {

		return nil, nil, ErrOracleSigInvalid
	}

	// The signature verifies from here on, so any inconsistency below
	// is provable misbehavior worth retaining.
	proofFor := func(reason FraudReason) *FraudProof {
		return &FraudProof{
			GameID:         g.id,
			Reason:         reason,
			RawMsg:         res.Raw,
			Signature:      res.Sig.Serialize(),
			ClaimedVerdict: msg.Verdict,
			ObservedAt:     p.cfg.Clock.Now(),
		}
	}

	if !msg.Timeout {
		var secret *judge.Action
		if g.kind.RequiresOracleSecret() {
			if g.oracleCommitment == nil {
				return nil, nil, ErrOracleCommitMismatch
			}

			ok := gamecrypt.VerifyCommit(msg.Secret.Encode(),
				gamecrypt.Salt(msg.SecretNonce),
				*g.oracleCommitment)
			if !ok {
				proof := proofFor(FraudBadOracleCommitment)
				return nil, proof, ErrOracleCommitMismatch
			}
			secret = &msg.Secret
		}

		// The action published for our seat must be the one we
		// revealed.
		if g.hasAction {
			published := msg.ActionA
			if g.role == wagerwire.RoleB {
				published = msg.ActionB
			}
			if published != g.action {
				proof := proofFor(FraudBadGameData)
				return nil, proof, ErrOracleFraud
			}
		}

		expected, err := judge.Judge(g.kind, msg.ActionA, msg.ActionB,
			secret)
		if err != nil {
			return nil, nil, ErrOracleSigInvalid
		}
		if expected != msg.Verdict {
			proof := proofFor(FraudBadJudgment)
			proof.ExpectedVerdict = expected
			return nil, proof, ErrOracleFraud
		}
	}

	outcome := &GameOutcome{
		Timeout: msg.Timeout,
		Result:  res,
	}
	switch {
	case msg.Verdict == judge.VerdictDraw:
		outcome.Outcome = OutcomeDraw

	case msg.Verdict == judge.VerdictAWins && g.role == wagerwire.RoleA,
		msg.Verdict == judge.VerdictBWins && g.role == wagerwire.RoleB:

		outcome.Outcome = OutcomeWon

	default:
		outcome.Outcome = OutcomeLost
	}

	return outcome, nil, nil
}

// failGame marks a game dead after a verification failure: the evidence (if
// any) is persisted, our own invoice is cancelled on a best-effort basis to
// unwind the opponent's locked stake, and the game enters the Fraud phase.
// Called with the game mutex held.
func (p *Player) failGame(g *gameState, proof *FraudProof, cause error) {
	log.Errorf("Game %v failed verification: %v", g.id, cause)

	if proof != nil {
		if err := p.cfg.Store.StoreFraudProof(proof); err != nil {
			log.Errorf("Game %v: unable to retain fraud proof: %v",
				g.id, err)
		} else {
			log.Warnf("Game %v: fraud proof retained (%v)", g.id,
				proof.Reason)
		}
	}

	if err := p.cfg.Invoices.CancelInvoice(g.paymentHash); err != nil {
		log.Warnf("Game %v: unable to cancel own invoice: %v", g.id,
			err)
	}

	g.phase = PhaseFraud
	p.notify(g.id, PhaseFraud)
}

// Settle runs this player's side of settlement for a resolved game.
//
// A winner first recovers its own locked stake: it decrypts the opponent's
// preimage with the scalar the verdict signature revealed, checks it against
// the opponent's payment hash, and settles the opponent's invoice (the one
// this player paid). It then claims the opponent's stake by settling its own
// invoice with its own preimage. A loser does nothing; the counterparty
// performs the mirror image. On a draw each side cancels its own invoice,
// which sends the stake held in it back to the opponent that paid it.
func (p *Player) Settle(id wagerwire.GameID) error {
	g, err := p.fetchGame(id)
	if err != nil {
		return err
	}

	g.mtx.Lock()
	defer g.mtx.Unlock()

	if g.phase != PhaseResolved || g.outcome == nil {
		return ErrWrongPhase
	}

	switch g.outcome.Outcome {
	case OutcomeWon:
		return p.settleWin(g)

	case OutcomeLost:
		// Nothing to do: the winner settles, and the channel layer
		// moves our invoice to Settled underneath us.
		g.phase = PhaseSettled
		p.notify(id, PhaseSettled)
		return nil

	default:
		if err := p.cfg.Invoices.CancelInvoice(g.paymentHash); err != nil {
			return err
		}

		g.phase = PhaseCancelled
		log.Infof("Game %v: draw, own invoice cancelled", id)
		p.notify(id, PhaseCancelled)
		return nil
	}
}

// settleWin collects both sides of a won game. Called with the game mutex
// held.
func (p *Player) settleWin(g *gameState) error {
	if !g.hasOppInvoice {
		return ErrWrongPhase
	}

	if g.oppEnc == nil {
		enc, err := p.cfg.Oracle.OpponentEncPreimage(g.id, p.cfg.ID)
		if err != nil {
			return err
		}
		g.oppEnc = &enc
	}

	// The verdict signature made the discrete log of the winning
	// signature point public; that point is the mask the loser encrypted
	// its preimage under.
	revealPoint := gamecrypt.RevealPoint(g.outcome.Result.Sig)
	oppPreimage := gamecrypt.DecryptPreimage(*g.oppEnc, revealPoint)

	if !oppPreimage.Matches(g.oppHash) {
		proof := &FraudProof{
			GameID:         g.id,
			Reason:         FraudBadPreimage,
			RawMsg:         g.outcome.Result.Raw,
			Signature:      g.outcome.Result.Sig.Serialize(),
			ClaimedVerdict: g.outcome.Result.Msg.Verdict,
			ObservedAt:     p.cfg.Clock.Now(),
		}
		p.failGame(g, proof, ErrPreimageMismatch)
		return ErrPreimageMismatch
	}

	// Recover our own stake from the opponent's invoice, then claim the
	// opponent's stake from ours.
	err := p.cfg.Invoices.SettleInvoice(g.oppHash, oppPreimage)
	if err != nil {
		return err
	}

	err = p.cfg.Invoices.SettleInvoice(g.paymentHash, g.preimage)
	if err != nil {
		return err
	}

	g.phase = PhaseSettled
	log.Infof("Game %v: won, both invoices settled", g.id)
	p.notify(g.id, PhaseSettled)

	return nil
}
