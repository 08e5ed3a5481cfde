package core

import (
	"log/slog"

	"github.com/laserchess/relay/internal/model"
	"github.com/laserchess/relay/internal/protocol"
)

// Register creates a session for a new connection and sends it a welcome.
// The session starts idle; it is not lobby-resident until it joins.
func (c *Core) Register(sender model.Sender) *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	session := &model.Session{
		ID:          c.nextID,
		DisplayName: c.uniqueNameLocked(),
		Rating:      model.DefaultRating,
		State:       model.StateIdle,
		Sender:      sender,
		ConnectedAt: c.clock.Now(),
	}
	c.sessions[session.ID] = session
	c.metrics.SessionsOnline.Set(float64(len(c.sessions)))

	c.logger.Info("session registered",
		slog.Int64("session_id", int64(session.ID)),
		slog.String("name", session.DisplayName),
		slog.Int("online", len(c.sessions)),
	)

	send(session, protocol.Welcome{
		Type: protocol.TypeWelcome,
		ID:   int64(session.ID),
		Name: session.DisplayName,
	})

	return session
}

// uniqueNameLocked generates a display name not used by any online session,
// appending a random numeric suffix until the collision clears.
func (c *Core) uniqueNameLocked() string {
	online := make(map[string]bool, len(c.sessions))
	for _, s := range c.sessions {
		online[s.DisplayName] = true
	}

	name := c.names.Generate()
	for online[name] {
		name = c.names.WithSuffix()
	}
	return name
}

// updateProfileLocked applies client-supplied overrides. An empty name is
// ignored, matching join payloads that omit a chosen name.
func (c *Core) updateProfileLocked(session *model.Session, name *string, rating *int, playerID *string) {
	changed := false
	if name != nil && *name != "" && *name != session.DisplayName {
		session.DisplayName = *name
		changed = true
	}
	if rating != nil && *rating != session.Rating {
		session.Rating = *rating
		changed = true
	}
	if playerID != nil {
		session.ClientPlayerID = *playerID
	}

	if changed && session.InLobby() {
		c.broadcastLobbyLocked()
	}
}

// enterLobbyLocked moves an idle session into the lobby. Sessions in a
// match stay out of the lobby until the match resolves.
func (c *Core) enterLobbyLocked(session *model.Session) {
	if session.State != model.StateIdle {
		return
	}
	session.State = model.StateInLobby

	c.logger.Info("joined lobby",
		slog.Int64("session_id", int64(session.ID)),
		slog.String("name", session.DisplayName),
		slog.Int("rating", session.Rating),
	)

	c.broadcastLobbyLocked()
}

// leaveLobbyLocked moves a lobby-resident session back to idle.
func (c *Core) leaveLobbyLocked(session *model.Session) {
	if session.State != model.StateInLobby {
		return
	}
	session.State = model.StateIdle
	c.broadcastLobbyLocked()
}

// rejoinLobbyLocked drops the session's own match reference, resets its
// score and re-enters the lobby. If the opponent still holds the match it
// survives, and their later match_end or disconnect resolves it exactly
// once; if this was the last reference, the match is released.
func (c *Core) rejoinLobbyLocked(session *model.Session) {
	match := c.liveMatchLocked(session)

	session.MatchID = ""
	session.Score = 0
	session.State = model.StateInLobby

	if match != nil {
		c.releaseIfAbandonedLocked(match)
	}

	c.logger.Info("rejoined lobby",
		slog.Int64("session_id", int64(session.ID)),
		slog.String("name", session.DisplayName),
		slog.Int("rating", session.Rating),
	)

	c.broadcastLobbyLocked()
}

// removeLocked resolves any live match as a forfeit, then deletes the
// session from the registry.
func (c *Core) removeLocked(session *model.Session) {
	if _, ok := c.sessions[session.ID]; !ok {
		return
	}

	if session.InMatch() {
		c.forfeitLocked(session)
	}

	wasResident := session.InLobby()
	delete(c.sessions, session.ID)
	c.metrics.SessionsOnline.Set(float64(len(c.sessions)))

	c.logger.Info("session disconnected",
		slog.Int64("session_id", int64(session.ID)),
		slog.String("name", session.DisplayName),
		slog.Int("online", len(c.sessions)),
	)

	if wasResident {
		c.broadcastLobbyLocked()
	}
}
