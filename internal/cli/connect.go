package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/laserchess/relay/internal/protocol"
)

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Join the lobby and stream server events",
		Long: `Connect to the server, join the lobby and print every event as it
arrives: lobby snapshots, match starts, score relays, results.

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect()
		},
	}
}

func runConnect() error {
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
			if cfg.Verbose {
				out.PrintError(err)
			}
			continue
		}
		out.Print(msg)

		if _, ok := msg.(*protocol.Welcome); ok {
			if err := client.JoinLobby(); err != nil {
				return err
			}
		}
	}

	if ctx.Err() != nil {
		out.PrintMessage("Disconnected")
		return nil
	}
	return fmt.Errorf("connection closed by server")
}
