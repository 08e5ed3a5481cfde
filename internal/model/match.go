package model

import "time"

// MatchID uniquely identifies an active match.
type MatchID string

// Match pairs two sessions for the duration of one game. It holds session
// IDs rather than pointers; participants are resolved through the registry,
// and a failed lookup is treated as a stale-operation no-op.
type Match struct {
	ID        MatchID
	PlayerA   SessionID
	PlayerB   SessionID
	Seed      int32 // Shared by both clients for deterministic content generation
	Ended     bool  // Set exactly once; no mutation is allowed afterwards
	CreatedAt time.Time
}

// Opponent returns the other participant's session ID, and false if the
// given session is not part of this match.
func (m *Match) Opponent(id SessionID) (SessionID, bool) {
	switch id {
	case m.PlayerA:
		return m.PlayerB, true
	case m.PlayerB:
		return m.PlayerA, true
	default:
		return 0, false
	}
}
