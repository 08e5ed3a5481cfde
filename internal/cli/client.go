package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/laserchess/relay/internal/protocol"
)

// Client is a websocket connection to a relay server.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to the server's websocket endpoint. http(s) URLs are
// rewritten to ws(s), and a bare host URL gets the /ws path appended.
func Dial(ctx context.Context, serverURL string) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection. A blocked Events read unblocks
// with an error, so callers can use Close for cancellation.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send writes one message to the server.
func (c *Client) Send(v any) error {
	return c.conn.WriteJSON(v)
}

// JoinLobby enters the lobby with the configured profile. Zero-valued
// fields are omitted so the server keeps its generated defaults.
func (c *Client) JoinLobby() error {
	msg := map[string]any{"type": protocol.TypeJoinLobby}
	if cfg.Name != "" {
		msg["name"] = cfg.Name
	}
	if cfg.Rating != 0 {
		msg["elo"] = cfg.Rating
	}
	if cfg.PlayerID != "" {
		msg["player_id"] = cfg.PlayerID
	}
	return c.Send(msg)
}

// Challenge challenges the lobby player with the given server-assigned id.
func (c *Client) Challenge(targetID int64) error {
	return c.Send(map[string]any{
		"type":      protocol.TypeChallenge,
		"target_id": targetID,
	})
}

// ReportScore relays an updated running score to the opponent.
func (c *Client) ReportScore(score int) error {
	return c.Send(map[string]any{
		"type":       protocol.TypeScoreUpdate,
		"best_score": score,
	})
}

// EndMatch reports the final score and asks the server to resolve the match.
func (c *Client) EndMatch(score int) error {
	return c.Send(map[string]any{
		"type":       protocol.TypeMatchEnd,
		"best_score": score,
	})
}

// ServerEvent is one raw server message with its decoded type discriminator.
type ServerEvent struct {
	Type string
	Raw  []byte
}

// Events reads server messages until the connection drops or the context is
// cancelled, then closes the returned channel. Messages without a type are
// skipped.
func (c *Client) Events(ctx context.Context) <-chan ServerEvent {
	ch := make(chan ServerEvent)
	go func() {
		defer close(ch)
		for {
			_, raw, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			var envelope struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Type == "" {
				continue
			}
			select {
			case ch <- ServerEvent{Type: envelope.Type, Raw: raw}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// decodeEvent maps a raw server message onto its typed form.
func decodeEvent(ev ServerEvent) (any, error) {
	var target any
	switch ev.Type {
	case protocol.TypeWelcome:
		target = &protocol.Welcome{}
	case protocol.TypeLobbyList:
		target = &protocol.LobbyList{}
	case protocol.TypeChallengeFailed:
		target = &protocol.ChallengeFailed{}
	case protocol.TypeMatchStart:
		target = &protocol.MatchStart{}
	case protocol.TypeOpponentScore:
		target = &protocol.OpponentScore{}
	case protocol.TypeMatchResult:
		target = &protocol.MatchResult{}
	case protocol.TypeOpponentDisconnected:
		target = &protocol.OpponentDisconnected{}
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if err := json.Unmarshal(ev.Raw, target); err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", ev.Type, err)
	}
	return target, nil
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
