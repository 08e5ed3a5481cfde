package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/laserchess/relay/internal/protocol"
)

func newPlayCmd() *cobra.Command {
	var targetID int64
	var score int

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one scripted match",
		Long: `Join the lobby, start or await a match, report a final score and print
the result.

With --target the client challenges that player immediately; without it the
client waits in the lobby until someone challenges it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(targetID, score)
		},
	}

	cmd.Flags().Int64Var(&targetID, "target", 0, "Lobby id to challenge (default: wait to be challenged)")
	cmd.Flags().IntVar(&score, "score", 0, "Final score to report")

	return cmd
}

func runPlay(targetID int64, score int) error {
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
			if err := client.JoinLobby(); err != nil {
				return err
			}
			if targetID != 0 {
				if err := client.Challenge(targetID); err != nil {
					return err
				}
			}
		case *protocol.ChallengeFailed:
			return fmt.Errorf("challenge failed: %s", m.Msg)
		case *protocol.MatchStart:
			out.Print(m)
			if err := client.ReportScore(score); err != nil {
				return err
			}
			if err := client.EndMatch(score); err != nil {
				return err
			}
		case *protocol.OpponentScore:
			out.Print(m)
		case *protocol.MatchResult:
			out.Print(m)
			return nil
		case *protocol.OpponentDisconnected:
			out.Print(m)
			return nil
		case *protocol.LobbyList:
			if cfg.Verbose {
				out.Print(m)
			}
		}
	}

	if ctx.Err() != nil {
		out.PrintMessage("Disconnected")
		return nil
	}
	return fmt.Errorf("connection closed by server")
}
