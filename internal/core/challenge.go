package core

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/laserchess/relay/internal/model"
	"github.com/laserchess/relay/internal/protocol"
)

// challengeLocked validates a challenge and, on success, transitions both
// sessions into a new match as one atomic block. Validation fails fast and
// reports the first violated rule to the requester.
func (c *Core) challengeLocked(requester *model.Session, targetID model.SessionID) {
	target, ok := c.sessions[targetID]
	if !ok || !target.InLobby() {
		c.rejectChallenge(requester, model.ErrTargetUnavailable)
		return
	}
	if target.ID == requester.ID {
		c.rejectChallenge(requester, model.ErrSelfChallenge)
		return
	}
	if !requester.InLobby() {
		c.rejectChallenge(requester, model.ErrNotInLobby)
		return
	}

	match := &model.Match{
		ID:        model.MatchID(uuid.NewString()),
		PlayerA:   requester.ID,
		PlayerB:   target.ID,
		Seed:      c.random.Int31(),
		CreatedAt: c.clock.Now(),
	}
	c.matches[match.ID] = match

	for _, s := range []*model.Session{requester, target} {
		s.State = model.StateInMatch
		s.MatchID = match.ID
		s.Score = 0
	}

	c.metrics.MatchesStarted.Inc()
	c.metrics.MatchesActive.Set(float64(len(c.matches)))

	c.logger.Info("match started",
		slog.String("match_id", string(match.ID)),
		slog.String("challenger", requester.DisplayName),
		slog.Int("challenger_rating", requester.Rating),
		slog.String("target", target.DisplayName),
		slog.Int("target_rating", target.Rating),
		slog.Int("seed", int(match.Seed)),
	)

	send(requester, matchStartFor(match, target))
	send(target, matchStartFor(match, requester))

	// Both participants just left the lobby.
	c.broadcastLobbyLocked()
}

func (c *Core) rejectChallenge(requester *model.Session, reason error) {
	c.logger.Debug("challenge rejected",
		slog.Int64("session_id", int64(requester.ID)),
		slog.String("reason", reason.Error()),
	)
	send(requester, protocol.ChallengeFailed{
		Type: protocol.TypeChallengeFailed,
		Msg:  reason.Error(),
	})
}

func matchStartFor(match *model.Match, opponent *model.Session) protocol.MatchStart {
	return protocol.MatchStart{
		Type:             protocol.TypeMatchStart,
		Seed:             match.Seed,
		Opponent:         opponent.DisplayName,
		OpponentRating:   opponent.Rating,
		OpponentPlayerID: opponent.ClientPlayerID,
	}
}
