package commands

import (
	"github.com/spf13/cobra"

	"versus/internal/app"
)

// host: wait for one opponent on a TCP address.
func hostCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Listen for an opponent and start a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				cfg.Network.Listen = listen
			}
			return play(cmd, app.ModeHost)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":7700", "address to listen on")
	return cmd
}
