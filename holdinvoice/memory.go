package holdinvoice

import (
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/wagernet/wagerd/gamecrypt"
)

// memoryInvoice is the bank's view of a single hold invoice.
type memoryInvoice struct {
	invoice   Invoice
	status    Status
	recipient string

	// payer is set once the invoice transitions to Held.
	payer string

	// preimage is recorded on settle so repeated settles with the same
	// preimage stay idempotent.
	preimage gamecrypt.Preimage
}

// MemoryBank is an in-memory hold-invoice backend tracking a balance per
// client. It exists for tests and local simulation: paying an invoice debits
// the payer, settling releases the held amount to whichever client presents
// the preimage, and cancelling flows it back to the payer. The invoice's
// recipient is never credited on cancel. A single mutex guards all state.
type MemoryBank struct {
	mtx sync.Mutex

	invoices map[chainhash.Hash]*memoryInvoice
	balances map[string]Amount

	nextPaymentID PaymentID
}

// NewMemoryBank creates an empty bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{
		invoices: make(map[chainhash.Hash]*memoryInvoice),
		balances: make(map[string]Amount),
	}
}

// NewClient registers a named client with an opening balance and returns its
// Client handle.
func (b *MemoryBank) NewClient(name string, balance Amount) Client {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	b.balances[name] = balance
	return &memoryClient{bank: b, name: name}
}

// Balance returns the client's current balance.
func (b *MemoryBank) Balance(name string) Amount {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return b.balances[name]
}

// memoryClient is a per-client handle into the shared bank.
type memoryClient struct {
	bank *MemoryBank
	name string
}

var _ Client = (*memoryClient)(nil)

// CreateHoldInvoice registers a new invoice with this client as recipient.
func (c *memoryClient) CreateHoldInvoice(hash chainhash.Hash, amount Amount,
	expiry time.Duration) (*Invoice, error) {

	b := c.bank
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if _, ok := b.invoices[hash]; ok {
		return nil, ErrInvoiceExists
	}

	inv := Invoice{
		InvoiceString: fmt.Sprintf("memhold1:%s:%v:%d", c.name, hash,
			amount),
		PaymentHash: hash,
		Amount:      amount,
		Expiry:      expiry,
	}
	b.invoices[hash] = &memoryInvoice{
		invoice:   inv,
		status:    StatusPending,
		recipient: c.name,
	}

	log.Debugf("Client %v created hold invoice %v for %v", c.name, hash,
		amount)

	return &inv, nil
}

// PayHoldInvoice locks the invoice amount out of this client's balance.
func (c *memoryClient) PayHoldInvoice(invoice *Invoice) (PaymentID, error) {
	b := c.bank
	b.mtx.Lock()
	defer b.mtx.Unlock()

	inv, ok := b.invoices[invoice.PaymentHash]
	if !ok {
		return 0, ErrInvoiceNotFound
	}

	switch inv.status {
	case StatusPending:

	case StatusHeld, StatusSettled:
		return 0, ErrAlreadyPaid

	default:
		return 0, ErrWrongState
	}

	if b.balances[c.name] < inv.invoice.Amount {
		return 0, ErrInsufficientBalance
	}

	b.balances[c.name] -= inv.invoice.Amount
	inv.status = StatusHeld
	inv.payer = c.name

	b.nextPaymentID++
	log.Debugf("Client %v paid hold invoice %v, %v now held", c.name,
		invoice.PaymentHash, inv.invoice.Amount)

	return b.nextPaymentID, nil
}

// SettleInvoice claims a held payment with its preimage, crediting the
// settling client.
func (c *memoryClient) SettleInvoice(hash chainhash.Hash,
	preimage gamecrypt.Preimage) error {

	b := c.bank
	b.mtx.Lock()
	defer b.mtx.Unlock()

	inv, ok := b.invoices[hash]
	if !ok {
		return ErrInvoiceNotFound
	}

	if !preimage.Matches(hash) {
		return ErrInvalidPreimage
	}

	switch inv.status {
	case StatusHeld:

	case StatusSettled:
		// Settle is idempotent for the accepted preimage only. The
		// held amount moved on the first call and does not move
		// again.
		if inv.preimage == preimage {
			return nil
		}
		return ErrWrongState

	default:
		return ErrWrongState
	}

	inv.status = StatusSettled
	inv.preimage = preimage
	b.balances[c.name] += inv.invoice.Amount

	log.Debugf("Invoice %v settled, %v credited to %v", hash,
		inv.invoice.Amount, c.name)

	return nil
}

// CancelInvoice cancels a pending or held invoice, refunding any held funds
// to the payer.
func (c *memoryClient) CancelInvoice(hash chainhash.Hash) error {
	b := c.bank
	b.mtx.Lock()
	defer b.mtx.Unlock()

	inv, ok := b.invoices[hash]
	if !ok {
		return ErrInvoiceNotFound
	}

	switch inv.status {
	case StatusPending:
		inv.status = StatusCancelled

	case StatusHeld:
		b.balances[inv.payer] += inv.invoice.Amount
		inv.status = StatusCancelled

		log.Debugf("Invoice %v cancelled, %v refunded to %v", hash,
			inv.invoice.Amount, inv.payer)

	default:
		return ErrWrongState
	}

	return nil
}

// PaymentStatus reports the invoice's current state.
func (c *memoryClient) PaymentStatus(hash chainhash.Hash) (Status, error) {
	b := c.bank
	b.mtx.Lock()
	defer b.mtx.Unlock()

	inv, ok := b.invoices[hash]
	if !ok {
		return 0, ErrInvoiceNotFound
	}

	return inv.status, nil
}
