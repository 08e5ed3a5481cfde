package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/laserchess/relay/internal/dependencies/mocks"
	"github.com/laserchess/relay/internal/metrics"
	"github.com/laserchess/relay/internal/model"
	"github.com/laserchess/relay/internal/protocol"
	"github.com/laserchess/relay/internal/services/names"
	"github.com/laserchess/relay/internal/testutil"
)

// recorder captures outbound messages for one fake connection.
type recorder struct {
	msgs []any
}

func (r *recorder) Send(v any) {
	r.msgs = append(r.msgs, v)
}

func (r *recorder) clear() {
	r.msgs = nil
}

func lastOf[T any](r *recorder) (T, bool) {
	var zero T
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if v, ok := r.msgs[i].(T); ok {
			return v, true
		}
	}
	return zero, false
}

func countOf[T any](r *recorder) int {
	n := 0
	for _, m := range r.msgs {
		if _, ok := m.(T); ok {
			n++
		}
	}
	return n
}

type CoreSuite struct {
	suite.Suite
	random  *mocks.MockRandom
	clock   *mocks.MockClock
	metrics *metrics.Metrics
	core    *Core
}

func TestCoreSuite(t *testing.T) {
	suite.Run(t, new(CoreSuite))
}

func (s *CoreSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.core = New(names.NewGenerator(s.random), s.random, s.clock, s.metrics, testutil.NopLogger())
}

// connect registers a session whose generated name is adj+piece.
func (s *CoreSuite) connect(adj, piece string) (*model.Session, *recorder) {
	s.random.QueuePick(adj, piece)
	rec := &recorder{}
	session := s.core.Register(rec)
	return session, rec
}

func (s *CoreSuite) handle(session *model.Session, format string, args ...any) {
	s.core.HandleMessage(session, []byte(fmt.Sprintf(format, args...)))
}

func (s *CoreSuite) join(session *model.Session, name string, elo int) {
	s.handle(session, `{"type":"join_lobby","name":%q,"elo":%d,"player_id":"client-%d"}`, name, elo, session.ID)
}

// assertConsistent verifies the lobby/match mutual exclusion for every
// registered session.
func (s *CoreSuite) assertConsistent() {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	for _, sess := range s.core.sessions {
		switch sess.State {
		case model.StateInMatch:
			s.NotEmpty(sess.MatchID, "in-match session %d must reference a match", sess.ID)
		case model.StateIdle, model.StateInLobby:
			s.Empty(sess.MatchID, "session %d in state %s must not reference a match", sess.ID, sess.State)
		default:
			s.Failf("invalid state", "session %d has state %q", sess.ID, sess.State)
		}
	}
}

// Registration

func (s *CoreSuite) TestRegisterSendsWelcome() {
	session, rec := s.connect("Swift", "Pawn")

	s.Equal(model.SessionID(1), session.ID)
	s.Equal("SwiftPawn", session.DisplayName)
	s.Equal(model.DefaultRating, session.Rating)
	s.Equal(model.StateIdle, session.State)

	welcome, ok := lastOf[protocol.Welcome](rec)
	s.Require().True(ok)
	s.Equal(int64(1), welcome.ID)
	s.Equal("SwiftPawn", welcome.Name)
}

func (s *CoreSuite) TestSessionIDsAreMonotonic() {
	a, _ := s.connect("Swift", "Pawn")
	b, _ := s.connect("Bold", "Rook")
	c, _ := s.connect("Sly", "Bishop")

	s.Equal(model.SessionID(1), a.ID)
	s.Equal(model.SessionID(2), b.ID)
	s.Equal(model.SessionID(3), c.ID)

	s.core.Disconnect(c)
	d, _ := s.connect("Grim", "Queen")
	s.Equal(model.SessionID(4), d.ID, "ids are never reused")
}

func (s *CoreSuite) TestRegisterResolvesNameCollision() {
	_, _ = s.connect("Swift", "Pawn")

	// Second session generates the same name, then regenerates with a
	// numeric suffix.
	s.random.QueuePick("Swift", "Pawn", "Swift", "Pawn")
	s.random.QueueIntn(32)
	rec := &recorder{}
	session := s.core.Register(rec)

	s.Equal("SwiftPawn42", session.DisplayName)
}

// Lobby membership and broadcasting

func (s *CoreSuite) TestJoinLobbyBroadcastsSnapshot() {
	a, recA := s.connect("Swift", "Pawn")
	b, recB := s.connect("Bold", "Rook")
	_, recC := s.connect("Sly", "Bishop") // stays idle

	s.join(a, "Alice", 1200)
	s.join(b, "Bob", 900)

	list, ok := lastOf[protocol.LobbyList](recA)
	s.Require().True(ok)
	s.Equal(3, list.TotalOnline, "total counts every registered session")
	s.Require().Len(list.Players, 2)
	s.Equal("Alice", list.Players[0].Name)
	s.Equal(1200, list.Players[0].Rating)
	s.Equal("Bob", list.Players[1].Name)

	listB, ok := lastOf[protocol.LobbyList](recB)
	s.Require().True(ok)
	s.Equal(list, listB, "every resident gets the same snapshot")

	s.Equal(0, countOf[protocol.LobbyList](recC), "idle sessions get no lobby traffic")

	snap := s.core.LobbySnapshot()
	s.Equal(list.Players, snap.Players)
	s.Equal(list.TotalOnline, snap.TotalOnline)
	s.assertConsistent()
}

func (s *CoreSuite) TestLeaveLobbyShrinksSnapshot() {
	a, recA := s.connect("Swift", "Pawn")
	b, _ := s.connect("Bold", "Rook")
	s.join(a, "Alice", 1000)
	s.join(b, "Bob", 1000)
	recA.clear()

	s.handle(b, `{"type":"leave_lobby"}`)

	list, ok := lastOf[protocol.LobbyList](recA)
	s.Require().True(ok)
	s.Len(list.Players, 1)
	s.Equal(2, list.TotalOnline)
	s.Equal(model.StateIdle, b.State)
	s.assertConsistent()
}

func (s *CoreSuite) TestUpdateInfoRebroadcastsForResidents() {
	a, _ := s.connect("Swift", "Pawn")
	b, recB := s.connect("Bold", "Rook")
	s.join(a, "Alice", 1000)
	s.join(b, "Bob", 1000)
	recB.clear()

	s.handle(a, `{"type":"update_info","name":"Alicia","elo":1100}`)

	list, ok := lastOf[protocol.LobbyList](recB)
	s.Require().True(ok)
	s.Equal("Alicia", list.Players[0].Name)
	s.Equal(1100, list.Players[0].Rating)
}

func (s *CoreSuite) TestUpdateInfoWhileIdleIsSilent() {
	a, _ := s.connect("Swift", "Pawn")
	b, recB := s.connect("Bold", "Rook")
	s.join(b, "Bob", 1000)
	recB.clear()

	s.handle(a, `{"type":"update_info","name":"Alicia"}`)

	s.Equal("Alicia", a.DisplayName)
	s.Empty(recB.msgs, "idle profile updates do not touch the lobby")
}

func (s *CoreSuite) TestEmptyNameIsIgnored() {
	a, _ := s.connect("Swift", "Pawn")
	s.handle(a, `{"type":"update_info","name":""}`)
	s.Equal("SwiftPawn", a.DisplayName)
}

// Challenge arbitration

func (s *CoreSuite) lobbyPair() (*model.Session, *recorder, *model.Session, *recorder) {
	a, recA := s.connect("Swift", "Pawn")
	b, recB := s.connect("Bold", "Rook")
	s.join(a, "Alice", 1000)
	s.join(b, "Bob", 1000)
	recA.clear()
	recB.clear()
	return a, recA, b, recB
}

func (s *CoreSuite) TestChallengeUnknownTargetFails() {
	a, recA, b, _ := s.lobbyPair()

	s.handle(a, `{"type":"challenge","target_id":99}`)

	failed, ok := lastOf[protocol.ChallengeFailed](recA)
	s.Require().True(ok)
	s.Equal("Player is no longer available", failed.Msg)
	s.Equal(model.StateInLobby, a.State)
	s.Equal(model.StateInLobby, b.State)
	s.assertConsistent()
}

func (s *CoreSuite) TestChallengeIdleTargetFails() {
	a, recA, b, _ := s.lobbyPair()
	s.handle(b, `{"type":"leave_lobby"}`)
	recA.clear()

	s.handle(a, `{"type":"challenge","target_id":%d}`, b.ID)

	failed, ok := lastOf[protocol.ChallengeFailed](recA)
	s.Require().True(ok)
	s.Equal("Player is no longer available", failed.Msg)
}

func (s *CoreSuite) TestChallengeSelfFails() {
	a, recA, _, _ := s.lobbyPair()

	s.handle(a, `{"type":"challenge","target_id":%d}`, a.ID)

	failed, ok := lastOf[protocol.ChallengeFailed](recA)
	s.Require().True(ok)
	s.Equal("Cannot challenge yourself", failed.Msg)
}

func (s *CoreSuite) TestChallengeByNonResidentFails() {
	a, recA, b, _ := s.lobbyPair()
	s.handle(a, `{"type":"leave_lobby"}`)
	recA.clear()

	s.handle(a, `{"type":"challenge","target_id":%d}`, b.ID)

	failed, ok := lastOf[protocol.ChallengeFailed](recA)
	s.Require().True(ok)
	s.Equal("You are not in the lobby", failed.Msg)
	s.Equal(model.StateInLobby, b.State)
}

func (s *CoreSuite) TestChallengeWithoutTargetFails() {
	a, recA, b, _ := s.lobbyPair()

	s.handle(a, `{"type":"challenge"}`)

	failed, ok := lastOf[protocol.ChallengeFailed](recA)
	s.Require().True(ok)
	s.Equal("Player is no longer available", failed.Msg)
	s.Equal(model.StateInLobby, a.State)
	s.Equal(model.StateInLobby, b.State)
}

func (s *CoreSuite) TestChallengeStartsMatch() {
	a, recA, b, recB := s.lobbyPair()
	s.random.QueueInt31(424242)

	s.handle(a, `{"type":"challenge","target_id":%d}`, b.ID)

	startA, ok := lastOf[protocol.MatchStart](recA)
	s.Require().True(ok)
	startB, ok := lastOf[protocol.MatchStart](recB)
	s.Require().True(ok)

	s.Equal(int32(424242), startA.Seed)
	s.Equal(startA.Seed, startB.Seed, "both clients must generate identical content")
	s.Equal("Bob", startA.Opponent)
	s.Equal("Alice", startB.Opponent)
	s.Equal(fmt.Sprintf("client-%d", b.ID), startA.OpponentPlayerID)

	s.Equal(model.StateInMatch, a.State)
	s.Equal(model.StateInMatch, b.State)
	s.Equal(a.MatchID, b.MatchID)
	s.Equal(0, a.Score)
	s.Equal(0, b.Score)
	s.assertConsistent()
}

func (s *CoreSuite) TestChallengeAgainstMatchedTargetFails() {
	a, _, b, _ := s.lobbyPair()
	c, recC := s.connect("Sly", "Bishop")
	s.join(c, "Cara", 1000)
	s.handle(a, `{"type":"challenge","target_id":%d}`, b.ID)
	firstMatch := a.MatchID
	recC.clear()

	s.handle(c, `{"type":"challenge","target_id":%d}`, b.ID)

	failed, ok := lastOf[protocol.ChallengeFailed](recC)
	s.Require().True(ok)
	s.Equal("Player is no longer available", failed.Msg)
	s.Equal(firstMatch, b.MatchID, "the first match must survive untouched")
	s.Equal(model.StateInLobby, c.State)
	s.assertConsistent()
}

// Score relay

func (s *CoreSuite) matchedPair() (*model.Session, *recorder, *model.Session, *recorder) {
	a, recA, b, recB := s.lobbyPair()
	s.handle(a, `{"type":"challenge","target_id":%d}`, b.ID)
	recA.clear()
	recB.clear()
	return a, recA, b, recB
}

func (s *CoreSuite) TestScoreRelaysToOpponentOnly() {
	a, recA, b, recB := s.matchedPair()

	s.handle(a, `{"type":"score_update","best_score":10}`)

	relayed, ok := lastOf[protocol.OpponentScore](recB)
	s.Require().True(ok)
	s.Equal(10, relayed.BestScore)
	s.Equal(10, a.Score)
	s.Equal(0, countOf[protocol.OpponentScore](recA), "the reporter hears nothing back")
	s.Equal(model.StateInMatch, b.State, "score relay never ends the match")
}

func (s *CoreSuite) TestScoreWithoutValueDefaultsToZero() {
	a, _, b, recB := s.matchedPair()
	s.handle(a, `{"type":"score_update","best_score":10}`)

	s.handle(a, `{"type":"score_update"}`)

	relayed, ok := lastOf[protocol.OpponentScore](recB)
	s.Require().True(ok)
	s.Equal(0, relayed.BestScore)
	s.Equal(0, a.Score)
	s.Equal(model.StateInMatch, b.State)
}

func (s *CoreSuite) TestScoreWithoutMatchIsIgnored() {
	a, _ := s.connect("Swift", "Pawn")
	b, recB := s.connect("Bold", "Rook")
	s.join(b, "Bob", 1000)
	recB.clear()

	s.handle(a, `{"type":"score_update","best_score":10}`)

	s.Empty(recB.msgs)
	s.Equal(0, a.Score)
}

// Match resolution

func (s *CoreSuite) TestMatchEndResolvesRatings() {
	a, recA, b, recB := s.matchedPair()

	s.handle(a, `{"type":"score_update","best_score":10}`)
	s.handle(b, `{"type":"score_update","best_score":5}`)
	s.handle(a, `{"type":"match_end","best_score":10}`)

	resultA, ok := lastOf[protocol.MatchResult](recA)
	s.Require().True(ok)
	s.Equal("win", resultA.Result)
	s.Equal(10, resultA.MyScore)
	s.Equal(5, resultA.OppScore)
	s.Equal(16, resultA.EloChange)
	s.Equal(984, resultA.OpponentRating, "opponent rating is post-update")

	resultB, ok := lastOf[protocol.MatchResult](recB)
	s.Require().True(ok)
	s.Equal("lose", resultB.Result)
	s.Equal(5, resultB.MyScore)
	s.Equal(10, resultB.OppScore)
	s.Equal(-16, resultB.EloChange)
	s.Equal(1016, resultB.OpponentRating)

	s.Equal(1016, a.Rating)
	s.Equal(984, b.Rating)
	s.Equal(model.StateIdle, a.State)
	s.Equal(model.StateIdle, b.State)
	s.assertConsistent()
}

func (s *CoreSuite) TestMatchEndFallsBackToRunningScore() {
	a, recA, b, _ := s.matchedPair()

	s.handle(a, `{"type":"score_update","best_score":7}`)
	s.handle(b, `{"type":"score_update","best_score":7}`)
	s.handle(b, `{"type":"match_end"}`)

	resultA, ok := lastOf[protocol.MatchResult](recA)
	s.Require().True(ok)
	s.Equal("draw", resultA.Result)
	s.Equal(0, resultA.EloChange)
	s.Equal(1000, a.Rating)
	s.Equal(1000, b.Rating)
}

func (s *CoreSuite) TestMatchEndIsIdempotent() {
	a, recA, b, recB := s.matchedPair()

	s.handle(a, `{"type":"score_update","best_score":10}`)
	s.handle(a, `{"type":"match_end","best_score":10}`)
	recA.clear()
	recB.clear()

	s.handle(b, `{"type":"match_end","best_score":99}`)

	s.Empty(recA.msgs, "a second end produces no further messages")
	s.Empty(recB.msgs)
	s.Equal(1016, a.Rating, "ratings are applied exactly once")
	s.Equal(984, b.Rating)
}

func (s *CoreSuite) TestStaleScoreAfterEndIsIgnored() {
	a, _, b, recB := s.matchedPair()

	s.handle(a, `{"type":"match_end","best_score":3}`)
	recB.clear()

	s.handle(a, `{"type":"score_update","best_score":50}`)

	s.Empty(recB.msgs)
	s.Equal(model.StateIdle, b.State)
}

// Forfeiture

func (s *CoreSuite) TestDisconnectForfeitsMatch() {
	a, recA, b, recB := s.matchedPair()
	s.handle(a, `{"type":"score_update","best_score":4}`)
	s.handle(b, `{"type":"score_update","best_score":9}`)
	recA.clear()
	recB.clear()

	s.core.Disconnect(b)

	dc, ok := lastOf[protocol.OpponentDisconnected](recA)
	s.Require().True(ok)
	s.Equal(16, dc.EloChange, "guaranteed win at equal ratings")
	s.Equal(4, dc.MyScore)
	s.Equal(9, dc.OppScore, "the leaver's score is still reported for display")
	s.Equal("Bob", dc.OpponentName)

	s.Equal(1016, a.Rating)
	s.Equal(model.StateIdle, a.State)
	s.Empty(recB.msgs, "the leaver gets no message")
	s.Equal(1, s.core.OnlineCount())
	s.assertConsistent()
}

func (s *CoreSuite) TestDisconnectAfterEndDoesNotDoubleResolve() {
	a, recA, b, _ := s.matchedPair()
	s.handle(a, `{"type":"match_end","best_score":10}`)
	ratingAfterEnd := a.Rating
	recA.clear()

	s.core.Disconnect(b)

	s.Equal(0, countOf[protocol.OpponentDisconnected](recA))
	s.Equal(ratingAfterEnd, a.Rating)
}

func (s *CoreSuite) TestDisconnectOfIdleSessionJustLeaves() {
	a, recA, b, _ := s.lobbyPair()

	s.core.Disconnect(b)

	list, ok := lastOf[protocol.LobbyList](recA)
	s.Require().True(ok)
	s.Len(list.Players, 1)
	s.Equal(1, list.TotalOnline)
	s.Equal(model.StateInLobby, a.State)
}

func (s *CoreSuite) TestRatingFloorOnForfeit() {
	a, recA, b, _ := s.lobbyPair()
	s.handle(a, `{"type":"update_info","elo":110}`)
	s.handle(b, `{"type":"update_info","elo":2000}`)
	s.handle(b, `{"type":"challenge","target_id":%d}`, a.ID)
	recA.clear()

	s.core.Disconnect(b)

	dc, ok := lastOf[protocol.OpponentDisconnected](recA)
	s.Require().True(ok)
	s.Positive(dc.EloChange)
	s.GreaterOrEqual(a.Rating, model.MinRating)
}

// Rejoin

func (s *CoreSuite) TestRejoinAfterResultReentersLobby() {
	a, recA, b, _ := s.matchedPair()
	s.handle(a, `{"type":"score_update","best_score":10}`)
	s.handle(a, `{"type":"match_end","best_score":10}`)
	recA.clear()

	s.handle(a, `{"type":"rejoin_lobby","name":"Alice","elo":1016}`)

	s.Equal(model.StateInLobby, a.State)
	s.Equal(0, a.Score)
	list, ok := lastOf[protocol.LobbyList](recA)
	s.Require().True(ok)
	s.Len(list.Players, 1)
	s.Equal(1016, list.Players[0].Rating)
	s.Equal(model.StateIdle, b.State)
	s.assertConsistent()
}

func (s *CoreSuite) TestRejoinDuringMatchLeavesMatchResolvableOnce() {
	a, recA, b, recB := s.matchedPair()
	s.handle(a, `{"type":"score_update","best_score":10}`)

	// A walks away from the match without resolving it.
	s.handle(a, `{"type":"rejoin_lobby"}`)
	s.Equal(model.StateInLobby, a.State)
	recA.clear()
	recB.clear()

	// B still holds the match and ends it; it resolves exactly once, with
	// A's score reset by the rejoin.
	s.handle(b, `{"type":"score_update","best_score":5}`)
	s.handle(b, `{"type":"match_end","best_score":5}`)

	resultB, ok := lastOf[protocol.MatchResult](recB)
	s.Require().True(ok)
	s.Equal("win", resultB.Result)
	s.Equal(model.StateInLobby, a.State, "the rejoined player keeps lobby residency")
	s.Equal(984, a.Rating, "the rejoined player still pays for the loss")
	s.Equal(1016, b.Rating)

	// The resident's rating changed, so residents got a fresh snapshot.
	list, ok := lastOf[protocol.LobbyList](recA)
	s.Require().True(ok)
	s.Equal(984, list.Players[0].Rating)
	s.assertConsistent()
}

func (s *CoreSuite) TestBothRejoinReleasesAbandonedMatch() {
	a, recA, b, recB := s.matchedPair()

	// Both participants walk away; the second rejoin drops the last
	// reference and the match must not linger.
	s.handle(a, `{"type":"rejoin_lobby"}`)
	s.handle(b, `{"type":"rejoin_lobby"}`)

	s.core.mu.Lock()
	remaining := len(s.core.matches)
	s.core.mu.Unlock()
	s.Equal(0, remaining)
	s.Equal(float64(0), promtestutil.ToFloat64(s.metrics.MatchesActive))

	// Nobody is scored and nobody gets a resolution message.
	s.Equal(1000, a.Rating)
	s.Equal(1000, b.Rating)
	s.Equal(0, countOf[protocol.MatchResult](recA))
	s.Equal(0, countOf[protocol.MatchResult](recB))
	s.Equal(model.StateInLobby, a.State)
	s.Equal(model.StateInLobby, b.State)
	s.assertConsistent()

	// Later disconnects find nothing left to resolve.
	s.core.Disconnect(a)
	s.core.Disconnect(b)
	s.Equal(0, countOf[protocol.OpponentDisconnected](recB))
	s.Equal(float64(0), promtestutil.ToFloat64(s.metrics.MatchesActive))
}

// Malformed input

func (s *CoreSuite) TestMalformedPayloadsAreDropped() {
	a, recA, b, recB := s.lobbyPair()

	payloads := []string{
		`not json at all`,
		`{"no_type":"here"}`,
		`{"type":42}`,
		`[]`,
	}
	for _, p := range payloads {
		s.core.HandleMessage(a, []byte(p))
	}

	s.Empty(recA.msgs)
	s.Empty(recB.msgs)
	s.Equal(model.StateInLobby, a.State)
	s.Equal(model.StateInLobby, b.State)
}
