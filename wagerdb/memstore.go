package wagerdb

import (
	"sync"

	"github.com/wagernet/wagerd/player"
	"github.com/wagernet/wagerd/wagerwire"
)

// MemStore is a map-backed secret store for tests and throwaway players.
// Contents die with the process.
type MemStore struct {
	mtx sync.Mutex

	secrets map[wagerwire.GameID]player.GameSecrets
	proofs  map[wagerwire.GameID]player.FraudProof
}

var _ player.SecretStore = (*MemStore)(nil)

// NewMemStore creates an empty in-memory secret store.
func NewMemStore() *MemStore {
	return &MemStore{
		secrets: make(map[wagerwire.GameID]player.GameSecrets),
		proofs:  make(map[wagerwire.GameID]player.FraudProof),
	}
}

// StoreGameSecrets writes (or overwrites) a game's secrets.
//
// This is part of the player.SecretStore interface.
func (m *MemStore) StoreGameSecrets(id wagerwire.GameID,
	secrets *player.GameSecrets) error {

	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.secrets[id] = *secrets
	return nil
}

// FetchGameSecrets reads a game's secrets.
//
// This is part of the player.SecretStore interface.
func (m *MemStore) FetchGameSecrets(id wagerwire.GameID) (*player.GameSecrets,
	error) {

	m.mtx.Lock()
	defer m.mtx.Unlock()

	secrets, ok := m.secrets[id]
	if !ok {
		return nil, player.ErrNoSecrets
	}
	return &secrets, nil
}

// StoreFraudProof retains an evidence record.
//
// This is part of the player.SecretStore interface.
func (m *MemStore) StoreFraudProof(proof *player.FraudProof) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.proofs[proof.GameID] = *proof
	return nil
}

// FetchFraudProof reads the evidence record for a game.
//
// This is part of the player.SecretStore interface.
func (m *MemStore) FetchFraudProof(id wagerwire.GameID) (*player.FraudProof,
	error) {

	m.mtx.Lock()
	defer m.mtx.Unlock()

	proof, ok := m.proofs[id]
	if !ok {
		return nil, player.ErrNoFraudProof
	}
	return &proof, nil
}
