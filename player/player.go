package player

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/queue"
	"github.com/wagernet/wagerd/gamecrypt"
	"github.com/wagernet/wagerd/holdinvoice"
	"github.com/wagernet/wagerd/judge"
	"github.com/wagernet/wagerd/oracle"
	"github.com/wagernet/wagerd/wagerwire"
)

const (
	// DefaultPollInterval paces polling of the oracle for state the
	// counterparty has not yet provided.
	DefaultPollInterval = 5 * time.Second

	// DefaultInvoiceExpiry is the hold invoice expiry requested when the
	// config does not set one.
	DefaultInvoiceExpiry = time.Hour

	// DefaultSettlementSlack is the margin the invoice expiry must leave
	// beyond the protocol deadlines for settlement to complete.
	DefaultSettlementSlack = 10 * time.Minute
)

// Oracle is the player's view of the hub. Players never address each other;
// every exchange flows through this surface. The oracle engine in this
// module satisfies it directly, and a transport client wrapping wire
// messages satisfies it remotely.
type Oracle interface {
	PubKey() *btcec.PublicKey

	CreateGame(playerA wagerwire.PlayerID, kind judge.Kind,
		guessRange uint8, stake holdinvoice.Amount,
		revealTimeout time.Duration) (*oracle.GameInfo, error)

	ListAvailable(filter *judge.Kind) []*oracle.GameInfo

	JoinGame(id wagerwire.GameID,
		playerB wagerwire.PlayerID) (*oracle.GameInfo, error)

	CancelGame(id wagerwire.GameID, player wagerwire.PlayerID) error

	SubmitInvoice(id wagerwire.GameID, player wagerwire.PlayerID,
		hash chainhash.Hash, amount holdinvoice.Amount) error

	OpponentInvoice(id wagerwire.GameID,
		player wagerwire.PlayerID) (chainhash.Hash,
		holdinvoice.Amount, error)

	SubmitEncPreimage(id wagerwire.GameID, player wagerwire.PlayerID,
		enc gamecrypt.EncryptedPreimage) error

	OpponentEncPreimage(id wagerwire.GameID,
		player wagerwire.PlayerID) (gamecrypt.EncryptedPreimage, error)

	SubmitCommit(id wagerwire.GameID, player wagerwire.PlayerID,
		commit gamecrypt.Commitment) error

	Commitments(id wagerwire.GameID,
		player wagerwire.PlayerID) (gamecrypt.Commitment,
		gamecrypt.Commitment, error)

	SubmitReveal(id wagerwire.GameID, player wagerwire.PlayerID,
		action judge.Action, salt gamecrypt.Salt,
		commitA, commitB gamecrypt.Commitment) error

	Result(id wagerwire.GameID) (*oracle.SignedResult, error)
}

// Config is the set of collaborators and limits a player engine runs with.
type Config struct {
	// ID identifies this player toward the oracle.
	ID wagerwire.PlayerID

	// Oracle is the hub every exchange flows through.
	Oracle Oracle

	// Invoices is the hold-invoice capability settlement runs against.
	Invoices holdinvoice.Client

	// Store persists per-game secrets and fraud evidence.
	Store SecretStore

	// Clock provides the engine's notion of time.
	Clock clock.Clock

	// Rand is the entropy source for preimages and salts. Nil selects
	// the system CSPRNG.
	Rand io.Reader

	// PollInterval paces oracle polling loops.
	PollInterval time.Duration

	// InvoiceExpiry is the expiry requested on own hold invoices. It
	// must exceed CommitTimeout + RevealTimeout + SettlementSlack so a
	// verdict can always be settled before funds unlock.
	InvoiceExpiry time.Duration

	// CommitTimeout and RevealTimeout mirror the oracle's configured
	// deadlines and only feed the expiry validation above.
	CommitTimeout time.Duration
	RevealTimeout time.Duration

	// SettlementSlack is the margin reserved for settlement itself.
	SettlementSlack time.Duration
}

// validate applies defaults and rejects configurations whose invoice expiry
// cannot outlive the protocol deadlines.
func (cfg *Config) validate() error {
	if cfg.Oracle == nil {
		return fmt.Errorf("player requires an oracle")
	}
	if cfg.Invoices == nil {
		return fmt.Errorf("player requires a hold-invoice client")
	}
	if cfg.Store == nil {
		return fmt.Errorf("player requires a secret store")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.InvoiceExpiry == 0 {
		cfg.InvoiceExpiry = DefaultInvoiceExpiry
	}
	if cfg.CommitTimeout == 0 {
		cfg.CommitTimeout = oracle.DefaultCommitTimeout
	}
	if cfg.RevealTimeout == 0 {
		cfg.RevealTimeout = oracle.DefaultRevealTimeout
	}
	if cfg.SettlementSlack == 0 {
		cfg.SettlementSlack = DefaultSettlementSlack
	}

	minExpiry := cfg.CommitTimeout + cfg.RevealTimeout +
		cfg.SettlementSlack
	if cfg.InvoiceExpiry <= minExpiry {
		return fmt.Errorf("invoice expiry %v must exceed commit + "+
			"reveal timeouts + settlement slack (%v)",
			cfg.InvoiceExpiry, minExpiry)
	}

	return nil
}

// GameUpdate is pushed onto the notification stream at every local phase
// transition.
type GameUpdate struct {
	ID    wagerwire.GameID
	Phase GamePhase
}

// Player drives one participant through the seven phases of the wager
// protocol: setup and funding, the encrypted preimage and commit/reveal
// exchanges via the oracle, verdict verification, and settlement or
// cancellation against the hold-invoice client. It owns the game's preimage,
// salt, and action until the protocol requires them to move.
type Player struct {
	started  int32
	shutdown int32
	wg       sync.WaitGroup
	quit     chan struct{}

	cfg *Config

	mtx   sync.Mutex
	games map[wagerwire.GameID]*gameState

	ntfns *queue.ConcurrentQueue
}

// New creates a player engine from the passed config.
func New(cfg Config) (*Player, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Player{
		cfg:   &cfg,
		games: make(map[wagerwire.GameID]*gameState),
		ntfns: queue.NewConcurrentQueue(16),
		quit:  make(chan struct{}),
	}, nil
}

// Start launches the notification stream.
func (p *Player) Start() error {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		log.Warn("Player already started")
		return nil
	}

	log.Infof("Starting player %x", p.cfg.ID[:8])
	p.ntfns.Start()

	return nil
}

// Stop tears the engine down. In-flight polling loops abort at their next
// suspension point.
func (p *Player) Stop() {
	if !atomic.CompareAndSwapInt32(&p.shutdown, 0, 1) {
		log.Warn("Player already stopped")
		return
	}

	log.Infof("Stopping player %x", p.cfg.ID[:8])

	close(p.quit)
	p.wg.Wait()
	p.ntfns.Stop()
}

// Notifications returns the stream of game updates. Elements are *GameUpdate.
func (p *Player) Notifications() <-chan interface{} {
	return p.ntfns.ChanOut()
}

// notify pushes a phase transition onto the notification stream.
func (p *Player) notify(id wagerwire.GameID, phase GamePhase) {
	select {
	case p.ntfns.ChanIn() <- &GameUpdate{ID: id, Phase: phase}:
	case <-p.quit:
	}
}

// fetchGame resolves a tracked game.
func (p *Player) fetchGame(id wagerwire.GameID) (*gameState, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	g, ok := p.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}
