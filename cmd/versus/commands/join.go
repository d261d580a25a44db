package commands

import (
	"github.com/spf13/cobra"

	"versus/internal/app"
)

// join <addr>: connect to a hosting opponent.
func joinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join [addr]",
		Short: "Connect to a hosting opponent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Network.Connect = args[0]
			}
			return play(cmd, app.ModeJoin)
		},
	}
}
