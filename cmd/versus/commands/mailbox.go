package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"versus/internal/app"
	"versus/internal/domain"
)

// mailbox: play through the HTTP relay.
func mailboxCmd() *cobra.Command {
	var (
		relayURL string
		name     string
		peer     string
	)
	cmd := &cobra.Command{
		Use:   "mailbox",
		Short: "Start a session through an HTTP mailbox relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("relay") {
				cfg.Network.RelayURL = strings.TrimRight(relayURL, "/")
			}
			if cmd.Flags().Changed("name") {
				cfg.Network.Name = domain.Username(name)
			}
			if cmd.Flags().Changed("peer") {
				cfg.Network.Peer = domain.Username(peer)
			}
			if cfg.Network.Name == "" || cfg.Network.Peer == "" {
				return fmt.Errorf("mailbox needs --name and --peer (or network.name/peer in config)")
			}
			return play(cmd, app.ModeMailbox)
		},
	}
	cmd.Flags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	cmd.Flags().StringVar(&name, "name", "", "your mailbox name")
	cmd.Flags().StringVar(&peer, "peer", "", "opponent's mailbox name")
	return cmd
}
