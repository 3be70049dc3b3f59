package holdinvoice

import (
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/wagernet/wagerd/gamecrypt"
)

var (
	// ErrInvoiceExists signals an invoice already exists for the payment
	// hash.
	ErrInvoiceExists = errors.New("invoice with payment hash already " +
		"exists")

	// ErrInvoiceNotFound signals we know of no invoice for the payment
	// hash.
	ErrInvoiceNotFound = errors.New("unable to locate invoice")

	// ErrAlreadyPaid signals the invoice has already been paid and its
	// funds are held.
	ErrAlreadyPaid = errors.New("invoice is already paid")

	// ErrInsufficientBalance signals the payer cannot cover the invoice
	// amount.
	ErrInsufficientBalance = errors.New("insufficient balance to pay " +
		"invoice")

	// ErrInvalidPreimage signals a settle attempt whose preimage does
	// not hash to the invoice's payment hash.
	ErrInvalidPreimage = errors.New("preimage does not match payment " +
		"hash")

	// ErrWrongState signals an operation attempted against an invoice
	// that is not in a state permitting it.
	ErrWrongState = errors.New("invoice is in wrong state for operation")
)

// Amount is an invoice amount in the channel's smallest unit.
type Amount int64

// Status is the externally observable state of a hold invoice.
type Status uint8

const (
	// StatusPending means the invoice exists but no payment has locked
	// funds against it yet.
	StatusPending Status = iota

	// StatusHeld means a payment is locked in, claimable by preimage.
	StatusHeld

	// StatusSettled means the preimage was presented and funds moved to
	// the settling client.
	StatusSettled

	// StatusCancelled means the invoice was cancelled and any held funds
	// returned to the payer.
	StatusCancelled
)

// String returns a human readable status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusHeld:
		return "Held"
	case StatusSettled:
		return "Settled"
	case StatusCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("UnknownStatus(%d)", uint8(s))
	}
}

// Invoice is a hold invoice descriptor. InvoiceString is whatever opaque
// encoding the backing channel implementation hands out; the engine never
// interprets it.
type Invoice struct {
	InvoiceString string
	PaymentHash   chainhash.Hash
	Amount        Amount
	Expiry        time.Duration
}

// PaymentID identifies an outgoing payment at the channel layer.
type PaymentID uint64

// Client is the single channel capability the protocol engine consumes. The
// state machine observed through it is
//
//	Pending -> Held (on pay) -> Settled (on settle)
//
// with cancellation legal from either Pending or Held. SettleInvoice is
// idempotent only for the preimage previously accepted; every other failure
// mode surfaces as one of the typed errors above.
type Client interface {
	// CreateHoldInvoice registers a new hold invoice for the payment
	// hash and returns its descriptor.
	CreateHoldInvoice(hash chainhash.Hash, amount Amount,
		expiry time.Duration) (*Invoice, error)

	// PayHoldInvoice locks the invoice amount out of the caller's
	// balance, moving the invoice to Held.
	PayHoldInvoice(invoice *Invoice) (PaymentID, error)

	// SettleInvoice claims a held payment by presenting its preimage,
	// crediting the caller.
	SettleInvoice(hash chainhash.Hash, preimage gamecrypt.Preimage) error

	// CancelInvoice cancels a pending or held invoice, returning any
	// held funds to the payer.
	CancelInvoice(hash chainhash.Hash) error

	// PaymentStatus reports the invoice's current state.
	PaymentStatus(hash chainhash.Hash) (Status, error)
}
