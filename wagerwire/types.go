package wagerwire

import (
	"github.com/google/uuid"
)

// GameIDSize is the size in bytes of a game identifier.
const GameIDSize = 16

// GameID is the 16-byte identifier of a game session, generated as a UUIDv4
// by the oracle at game creation.
type GameID [GameIDSize]byte

// NewGameID generates a fresh random game id.
func NewGameID() GameID {
	return GameID(uuid.New())
}

// String returns the canonical UUID text form of the game id.
func (g GameID) String() string {
	return uuid.UUID(g).String()
}

// PlayerIDSize is the size in bytes of a player identifier.
const PlayerIDSize = 33

// PlayerID identifies a player toward the oracle. The engine treats it as an
// opaque 33-byte value; deployments typically use a compressed public key.
type PlayerID [PlayerIDSize]byte

// PlayerRole distinguishes the game creator (A) from the joiner (B).
type PlayerRole uint8

const (
	// RoleA is the player that created the game.
	RoleA PlayerRole = 0

	// RoleB is the player that joined it.
	RoleB PlayerRole = 1
)

// Opponent returns the other role.
func (r PlayerRole) Opponent() PlayerRole {
	if r == RoleA {
		return RoleB
	}
	return RoleA
}

// String returns "A" or "B".
func (r PlayerRole) String() string {
	if r == RoleA {
		return "A"
	}
	return "B"
}
