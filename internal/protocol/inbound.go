package protocol

import "encoding/json"

// Inbound message types. The wire format is a JSON object with a "type"
// discriminator; unknown or malformed messages are dropped without a reply.
const (
	TypeJoinLobby   = "join_lobby"
	TypeLeaveLobby  = "leave_lobby"
	TypeChallenge   = "challenge"
	TypeScoreUpdate = "score_update"
	TypeMatchEnd    = "match_end"
	TypeRejoinLobby = "rejoin_lobby"
	TypeUpdateInfo  = "update_info"
)

// Inbound is the decoded form of a single client message. Optional fields
// are pointers so that an absent field is distinguishable from a zero value:
// match_end with no best_score falls back to the running score, while
// match_end with best_score 0 reports a zero.
type Inbound struct {
	Type      string  `json:"type"`
	Name      *string `json:"name,omitempty"`
	Rating    *int    `json:"elo,omitempty"`
	PlayerID  *string `json:"player_id,omitempty"`
	TargetID  *int64  `json:"target_id,omitempty"`
	BestScore *int    `json:"best_score,omitempty"`
}

// Decode parses a raw payload into an Inbound message. It returns false for
// anything that is not a JSON object with a string "type" field.
func Decode(raw []byte) (Inbound, bool) {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Inbound{}, false
	}
	if msg.Type == "" {
		return Inbound{}, false
	}
	return msg, true
}
