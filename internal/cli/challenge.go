package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/laserchess/relay/internal/protocol"
)

func newChallengeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "challenge <id>",
		Short: "Challenge a lobby player by their server-assigned id",
		Long: `Join the lobby and immediately challenge the given player. The ids are
the bracketed numbers in connect's lobby listing.

Exits once the match starts or the challenge is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid player id %q", args[0])
			}
			return runChallenge(targetID)
		},
	}
}

func runChallenge(targetID int64) error {
	ctx, cancel := signalContext()
	defer cancel()

	client, err := Dial(ctx, cfg.ServerURL)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()

	out := NewOutput(cfg.Output)

	for ev := range client.Events(ctx) {
		msg, err := decodeEvent(ev)
		if err != nil {
			continue
		}
		switch m := msg.(type) {
		case *protocol.Welcome:
			out.Print(m)
			// The server processes messages in order, so the join is
			// applied before the challenge.
			if err := client.JoinLobby(); err != nil {
				return err
			}
			if err := client.Challenge(targetID); err != nil {
				return err
			}
		case *protocol.ChallengeFailed:
			return fmt.Errorf("challenge failed: %s", m.Msg)
		case *protocol.MatchStart:
			out.Print(m)
			return nil
		case *protocol.LobbyList:
			if cfg.Verbose {
				out.Print(m)
			}
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("connection closed by server")
}
