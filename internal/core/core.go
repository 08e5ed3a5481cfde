// Package core implements the session/match state machine: session
// registration and lobby membership, challenge arbitration, score relay,
// exactly-once match resolution and rating updates.
//
// All shared state lives behind a single mutex. Every operation acquires it
// for the whole mutation, so no other connection's handler can observe a
// half-applied challenge or resolution. Outbound sends go through Sender
// implementations that never block, so holding the mutex across them is safe.
package core

import (
	"log/slog"
	"sync"

	"github.com/laserchess/relay/internal/dependencies/clock"
	"github.com/laserchess/relay/internal/dependencies/random"
	"github.com/laserchess/relay/internal/metrics"
	"github.com/laserchess/relay/internal/model"
	"github.com/laserchess/relay/internal/protocol"
	"github.com/laserchess/relay/internal/services/names"
)

// Core owns every PlayerSession and Match in the process.
type Core struct {
	mu       sync.Mutex
	sessions map[model.SessionID]*model.Session
	matches  map[model.MatchID]*model.Match
	nextID   model.SessionID

	names   *names.Generator
	random  random.Random
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Core with no sessions.
func New(nameGen *names.Generator, rnd random.Random, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *Core {
	return &Core{
		sessions: make(map[model.SessionID]*model.Session),
		matches:  make(map[model.MatchID]*model.Match),
		names:    nameGen,
		random:   rnd,
		clock:    clk,
		metrics:  m,
		logger:   logger.With(slog.String("component", "core")),
	}
}

// HandleMessage routes one decoded client payload. Malformed payloads are
// dropped without a reply and without touching any state.
func (c *Core) HandleMessage(session *model.Session, raw []byte) {
	msg, ok := protocol.Decode(raw)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The session may have been removed between the read and the dispatch.
	if _, ok := c.sessions[session.ID]; !ok {
		return
	}

	switch msg.Type {
	case protocol.TypeJoinLobby:
		c.updateProfileLocked(session, msg.Name, msg.Rating, msg.PlayerID)
		c.enterLobbyLocked(session)
	case protocol.TypeLeaveLobby:
		c.leaveLobbyLocked(session)
	case protocol.TypeChallenge:
		// A missing target is an unknown target: ids start at 1, so the
		// zero id never resolves and the requester gets the usual failure.
		var targetID model.SessionID
		if msg.TargetID != nil {
			targetID = model.SessionID(*msg.TargetID)
		}
		c.challengeLocked(session, targetID)
	case protocol.TypeScoreUpdate:
		var score int
		if msg.BestScore != nil {
			score = *msg.BestScore
		}
		c.reportScoreLocked(session, score)
	case protocol.TypeMatchEnd:
		c.endMatchLocked(session, msg.BestScore)
	case protocol.TypeRejoinLobby:
		c.updateProfileLocked(session, msg.Name, msg.Rating, nil)
		c.rejoinLobbyLocked(session)
	case protocol.TypeUpdateInfo:
		c.updateProfileLocked(session, msg.Name, msg.Rating, nil)
	}
}

// Disconnect handles the transport reporting an abrupt close. Any live
// match is resolved as a forfeit before the session is removed.
func (c *Core) Disconnect(session *model.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(session)
}

// OnlineCount returns the number of registered sessions.
func (c *Core) OnlineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// send marshals and enqueues one outbound message; errors never propagate.
func send(s *model.Session, v any) {
	if s.Sender != nil {
		s.Sender.Send(v)
	}
}
