package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/laserchess/relay/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case *protocol.Welcome:
		fmt.Printf("Connected as %s (id %d)\n", v.Name, v.ID)
	case *protocol.LobbyList:
		o.printLobbyList(v)
	case *protocol.ChallengeFailed:
		fmt.Printf("Challenge failed: %s\n", v.Msg)
	case *protocol.MatchStart:
		fmt.Printf("Match started vs %s (%d elo)\n", v.Opponent, v.OpponentRating)
		fmt.Printf("Seed: %d\n", v.Seed)
	case *protocol.OpponentScore:
		fmt.Printf("Opponent score: %d\n", v.BestScore)
	case *protocol.MatchResult:
		fmt.Printf("Result: %s\n", v.Result)
		fmt.Printf("Score: %d - %d\n", v.MyScore, v.OppScore)
		fmt.Printf("Elo change: %+d\n", v.EloChange)
		fmt.Printf("Opponent: %s (%d elo)\n", v.OpponentName, v.OpponentRating)
	case *protocol.OpponentDisconnected:
		fmt.Printf("Opponent %s disconnected, match resolved as a win\n", v.OpponentName)
		fmt.Printf("Score: %d - %d\n", v.MyScore, v.OppScore)
		fmt.Printf("Elo change: %+d\n", v.EloChange)
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printLobbyList(l *protocol.LobbyList) {
	fmt.Printf("Lobby (%d online, %d in lobby):\n", l.TotalOnline, len(l.Players))
	if len(l.Players) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, p := range l.Players {
		fmt.Printf("  - [%d] %s (%d elo)\n", p.ID, p.Name, p.Rating)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}
