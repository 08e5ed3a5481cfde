package protocol

// Outbound message types.
const (
	TypeWelcome              = "welcome"
	TypeLobbyList            = "lobby_list"
	TypeChallengeFailed      = "challenge_failed"
	TypeMatchStart           = "match_start"
	TypeOpponentScore        = "opponent_score"
	TypeMatchResult          = "match_result"
	TypeOpponentDisconnected = "opponent_disconnected"
)

// Welcome is sent once, immediately after a connection is registered.
type Welcome struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LobbyPlayer is one entry in a lobby snapshot.
type LobbyPlayer struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Rating int    `json:"elo"`
}

// LobbyList is the full lobby snapshot pushed to every lobby-resident
// session. TotalOnline counts all registered sessions, resident or not.
type LobbyList struct {
	Type        string        `json:"type"`
	Players     []LobbyPlayer `json:"players"`
	TotalOnline int           `json:"total_online"`
}

// ChallengeFailed reports a rejected challenge to the requester.
type ChallengeFailed struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// MatchStart tells one participant their match has begun. Both participants
// receive the same seed so they generate identical game content.
type MatchStart struct {
	Type             string `json:"type"`
	Seed             int32  `json:"seed"`
	Opponent         string `json:"opponent"`
	OpponentRating   int    `json:"opponent_elo"`
	OpponentPlayerID string `json:"opponent_player_id"`
}

// OpponentScore relays the opponent's updated running score.
type OpponentScore struct {
	Type      string `json:"type"`
	BestScore int    `json:"best_score"`
}

// MatchResult reports the final outcome to one participant. Result is
// "win", "lose" or "draw"; OpponentRating is the opponent's post-update
// rating.
type MatchResult struct {
	Type             string `json:"type"`
	Result           string `json:"result"`
	MyScore          int    `json:"my_score"`
	OppScore         int    `json:"opp_score"`
	EloChange        int    `json:"elo_change"`
	OpponentName     string `json:"opponent_name"`
	OpponentRating   int    `json:"opponent_elo"`
	OpponentPlayerID string `json:"opponent_player_id"`
}

// OpponentDisconnected tells the surviving participant the match resolved
// as a forfeit in their favour.
type OpponentDisconnected struct {
	Type             string `json:"type"`
	EloChange        int    `json:"elo_change"`
	MyScore          int    `json:"my_score"`
	OppScore         int    `json:"opp_score"`
	OpponentName     string `json:"opponent_name"`
	OpponentRating   int    `json:"opponent_elo"`
	OpponentPlayerID string `json:"opponent_player_id"`
}
