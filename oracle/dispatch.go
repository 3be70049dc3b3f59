package oracle

import (
	"fmt"
	"time"

	"github.com/wagernet/wagerd/judge"
	"github.com/wagernet/wagerd/wagerwire"
)

// HandleMessage drives the oracle's operation surface from decoded wire
// messages, so any transport adapter (HTTP, websockets, a test harness) can
// sit in front of the engine without knowing its method set. CancelGame has
// no wire message and is only reachable as a method. Failures come back as a
// wire Error message; the engine itself is never exposed to the transport.
func (o *Oracle) HandleMessage(msg wagerwire.Message) wagerwire.Message {
	switch req := msg.(type) {
	case *wagerwire.GetPubKey:
		return &wagerwire.PubKey{Key: o.PubKey()}

	case *wagerwire.ListGames:
		var filter *judge.Kind
		if req.Filtered {
			kind := req.Kind
			filter = &kind
		}

		infos := o.ListAvailable(filter)
		resp := &wagerwire.GameList{
			Games: make([]wagerwire.GameSummary, 0, len(infos)),
		}
		for _, info := range infos {
			resp.Games = append(resp.Games, wagerwire.GameSummary{
				ID:        info.ID,
				Kind:      info.Kind,
				Stake:     info.Stake,
				CreatedAt: uint64(info.CreatedAt.Unix()),
			})
		}
		return resp

	case *wagerwire.CreateGame:
		timeout := time.Duration(req.RevealTimeoutSecs) * time.Second
		info, err := o.CreateGame(
			req.PlayerA, req.Kind, req.GuessRange, req.Stake,
			timeout,
		)
		if err != nil {
			return errResp(err)
		}

		resp := &wagerwire.GameCreated{
			ID:          info.ID,
			OraclePub:   info.OraclePub,
			CommitPoint: info.CommitPoint,
			GuessRange:  info.GuessRange,
		}
		if info.OracleCommitment != nil {
			resp.HasOracleCommitment = true
			resp.OracleCommitment = *info.OracleCommitment
		}
		return resp

	case *wagerwire.JoinGame:
		info, err := o.JoinGame(req.ID, req.PlayerB)
		if err != nil {
			return errResp(err)
		}

		resp := &wagerwire.GameJoined{
			ID:          info.ID,
			OraclePub:   info.OraclePub,
			CommitPoint: info.CommitPoint,
			Kind:        info.Kind,
			GuessRange:  info.GuessRange,
			Stake:       info.Stake,
		}
		if info.OracleCommitment != nil {
			resp.HasOracleCommitment = true
			resp.OracleCommitment = *info.OracleCommitment
		}
		return resp

	case *wagerwire.SubmitInvoice:
		err := o.SubmitInvoice(req.ID, req.Player, req.PaymentHash,
			req.Amount)
		if err != nil {
			return errResp(err)
		}
		return &wagerwire.Ack{}

	case *wagerwire.GetInvoice:
		hash, amount, err := o.OpponentInvoice(req.ID, req.Player)
		if err != nil {
			return errResp(err)
		}
		return &wagerwire.InvoiceInfo{
			ID:          req.ID,
			PaymentHash: hash,
			Amount:      amount,
		}

	case *wagerwire.SubmitEncPreimage:
		if err := o.SubmitEncPreimage(req.ID, req.Player,
			req.Enc); err != nil {

			return errResp(err)
		}
		return &wagerwire.Ack{}

	case *wagerwire.GetEncPreimage:
		enc, err := o.OpponentEncPreimage(req.ID, req.Player)
		if err != nil {
			return errResp(err)
		}
		return &wagerwire.EncPreimageInfo{ID: req.ID, Enc: enc}

	case *wagerwire.SubmitCommit:
		if err := o.SubmitCommit(req.ID, req.Player,
			req.Commit); err != nil {

			return errResp(err)
		}
		return &wagerwire.Ack{}

	case *wagerwire.GetCommits:
		commitA, commitB, err := o.Commitments(req.ID, req.Player)
		if err != nil {
			return errResp(err)
		}
		return &wagerwire.CommitsInfo{
			ID:      req.ID,
			CommitA: commitA,
			CommitB: commitB,
		}

	case *wagerwire.SubmitReveal:
		err := o.SubmitReveal(req.ID, req.Player, req.Action,
			req.Salt, req.CommitA, req.CommitB)
		if err != nil {
			return errResp(err)
		}
		return &wagerwire.Ack{}

	case *wagerwire.GetResult:
		res, err := o.Result(req.ID)
		switch {
		case err == ErrResultPending:
			return &wagerwire.GameResult{ID: req.ID, Pending: true}

		case err != nil:
			return errResp(err)
		}

		return &wagerwire.GameResult{
			ID:        req.ID,
			RawMsg:    res.Raw,
			Signature: res.Sig,
		}

	default:
		return errResp(fmt.Errorf("unhandled message type %d",
			msg.MsgType()))
	}
}

func errResp(err error) *wagerwire.Error {
	return &wagerwire.Error{Data: []byte(err.Error())}
}
