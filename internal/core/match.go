package core

import (
	"log/slog"

	"github.com/laserchess/relay/internal/metrics"
	"github.com/laserchess/relay/internal/model"
	"github.com/laserchess/relay/internal/protocol"
	"github.com/laserchess/relay/internal/services/rating"
)

// reportScoreLocked records a running score and relays it to the opponent.
// It never ends the match.
func (c *Core) reportScoreLocked(session *model.Session, score int) {
	match := c.liveMatchLocked(session)
	if match == nil {
		return
	}

	session.Score = score

	oppID, ok := match.Opponent(session.ID)
	if !ok {
		return
	}
	if opp, ok := c.sessions[oppID]; ok {
		send(opp, protocol.OpponentScore{
			Type:      protocol.TypeOpponentScore,
			BestScore: score,
		})
	}
}

// endMatchLocked resolves a match on an explicit match_end. The ended flag
// is set before anything else so a forfeit racing in on the opponent's
// disconnect becomes a no-op, and vice versa.
func (c *Core) endMatchLocked(session *model.Session, finalScore *int) {
	match := c.liveMatchLocked(session)
	if match == nil {
		return
	}

	if finalScore != nil {
		session.Score = *finalScore
	}
	match.Ended = true
	delete(c.matches, match.ID)
	c.resolveMetrics(metrics.ReasonEnded)

	oppID, _ := match.Opponent(session.ID)
	opp, ok := c.sessions[oppID]
	if !ok {
		// Opponent already gone without a forfeit firing (it rejoined the
		// lobby and then disconnected). Nothing to score against; just
		// release the reporter.
		c.detachLocked(session, match)
		return
	}

	// Deltas are computed from both pre-update ratings before either side
	// is touched.
	outcome := rating.OutcomeFromScores(session.Score, opp.Score)
	oppOutcome := rating.OutcomeFromScores(opp.Score, session.Score)
	delta := rating.Delta(session.Rating, opp.Rating, outcome)
	oppDelta := rating.Delta(opp.Rating, session.Rating, oppOutcome)

	session.Rating = rating.Apply(session.Rating, delta, model.MinRating)
	opp.Rating = rating.Apply(opp.Rating, oppDelta, model.MinRating)

	c.detachLocked(session, match)
	c.detachLocked(opp, match)

	c.logger.Info("match ended",
		slog.String("match_id", string(match.ID)),
		slog.Duration("duration", c.clock.Now().Sub(match.CreatedAt)),
		slog.String("player", session.DisplayName),
		slog.Int("player_score", session.Score),
		slog.Int("player_rating", session.Rating),
		slog.String("opponent", opp.DisplayName),
		slog.Int("opponent_score", opp.Score),
		slog.Int("opponent_rating", opp.Rating),
	)

	send(session, matchResultFor(session, opp, outcome, delta))
	send(opp, matchResultFor(opp, session, oppOutcome, oppDelta))

	// A participant that already rejoined the lobby keeps its residency;
	// its rating just changed, so peers need a fresh snapshot.
	if session.InLobby() || opp.InLobby() {
		c.broadcastLobbyLocked()
	}
}

// forfeitLocked resolves a match when one participant's connection drops.
// The survivor is credited a win at current ratings; the leaver gets no
// message and is removed by the registry afterwards.
func (c *Core) forfeitLocked(leaver *model.Session) {
	match := c.liveMatchLocked(leaver)
	if match == nil {
		return
	}

	match.Ended = true
	delete(c.matches, match.ID)
	c.resolveMetrics(metrics.ReasonForfeit)
	c.detachLocked(leaver, match)

	oppID, _ := match.Opponent(leaver.ID)
	opp, ok := c.sessions[oppID]
	if !ok {
		return
	}

	delta := rating.Delta(opp.Rating, leaver.Rating, rating.Win)
	opp.Rating = rating.Apply(opp.Rating, delta, model.MinRating)
	c.detachLocked(opp, match)

	c.logger.Info("match forfeited",
		slog.String("match_id", string(match.ID)),
		slog.Duration("duration", c.clock.Now().Sub(match.CreatedAt)),
		slog.String("leaver", leaver.DisplayName),
		slog.String("winner", opp.DisplayName),
		slog.Int("winner_delta", delta),
	)

	send(opp, protocol.OpponentDisconnected{
		Type:             protocol.TypeOpponentDisconnected,
		EloChange:        delta,
		MyScore:          opp.Score,
		OppScore:         leaver.Score,
		OpponentName:     leaver.DisplayName,
		OpponentRating:   leaver.Rating,
		OpponentPlayerID: leaver.ClientPlayerID,
	})

	if opp.InLobby() {
		c.broadcastLobbyLocked()
	}
}

// releaseIfAbandonedLocked drops a match no participant references anymore.
// A rejoin clears only the rejoiner's own reference; once the other side has
// let go too, no resolution path can reach the match and it would stay in
// the map for the process lifetime.
func (c *Core) releaseIfAbandonedLocked(match *model.Match) {
	for _, id := range []model.SessionID{match.PlayerA, match.PlayerB} {
		if s, ok := c.sessions[id]; ok && s.MatchID == match.ID {
			return
		}
	}

	match.Ended = true
	delete(c.matches, match.ID)
	c.resolveMetrics(metrics.ReasonAbandoned)

	c.logger.Info("match abandoned",
		slog.String("match_id", string(match.ID)),
		slog.Duration("duration", c.clock.Now().Sub(match.CreatedAt)),
	)
}

// liveMatchLocked returns the session's match if it exists and has not
// ended. Anything else is the stale-operation case and returns nil.
func (c *Core) liveMatchLocked(session *model.Session) *model.Match {
	if session.MatchID == "" {
		return nil
	}
	match, ok := c.matches[session.MatchID]
	if !ok || match.Ended {
		return nil
	}
	return match
}

// detachLocked releases a participant back to idle. The match reference is
// cleared only if it still points at the match being resolved, so a session
// that rejoined the lobby or entered a new match is left alone.
func (c *Core) detachLocked(session *model.Session, match *model.Match) {
	if session.MatchID != match.ID {
		return
	}
	session.MatchID = ""
	session.State = model.StateIdle
}

func (c *Core) resolveMetrics(reason string) {
	c.metrics.MatchesResolved.WithLabelValues(reason).Inc()
	c.metrics.MatchesActive.Set(float64(len(c.matches)))
}

func matchResultFor(recipient, opp *model.Session, outcome rating.Outcome, delta int) protocol.MatchResult {
	return protocol.MatchResult{
		Type:             protocol.TypeMatchResult,
		Result:           outcome.String(),
		MyScore:          recipient.Score,
		OppScore:         opp.Score,
		EloChange:        delta,
		OpponentName:     opp.DisplayName,
		OpponentRating:   opp.Rating,
		OpponentPlayerID: opp.ClientPlayerID,
	}
}
