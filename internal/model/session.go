package model

import "time"

// SessionID uniquely identifies a live connection for the lifetime of the
// process. IDs are monotonically increasing and never reused.
type SessionID int64

// SessionState is the single tagged state a session is in relative to the
// lobby and matches. A session is exactly one of these at any time.
type SessionState string

const (
	StateIdle    SessionState = "idle"     // Connected, not in lobby, not in a match
	StateInLobby SessionState = "in_lobby" // Visible and challengeable
	StateInMatch SessionState = "in_match" // Playing; absent from the lobby
)

// Sender delivers one outbound message to a connected client. Delivery is
// best-effort: implementations must never block and must swallow failures.
type Sender interface {
	Send(v any)
}

// Session represents one live connection and its player-visible attributes.
type Session struct {
	ID             SessionID
	ClientPlayerID string // Opaque, client-supplied; correlates reconnects, not identity proof
	DisplayName    string
	Rating         int
	State          SessionState
	MatchID        MatchID // Zero value unless State is StateInMatch
	Score          int     // Running best score, reset on match entry
	Sender         Sender
	ConnectedAt    time.Time
}

// DefaultRating is assigned to sessions that never reported a rating.
const DefaultRating = 1000

// MinRating is the floor applied to every rating update.
const MinRating = 100

// InLobby reports whether the session is currently lobby-resident.
func (s *Session) InLobby() bool {
	return s.State == StateInLobby
}

// InMatch reports whether the session currently has an active match.
func (s *Session) InMatch() bool {
	return s.State == StateInMatch
}
