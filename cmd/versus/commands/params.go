package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"versus/internal/protocol/modp"
)

// params: print the group parameters both peers must share.
func paramsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the key-exchange group parameters in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := cfg.Session.Params
			if err := p.Validate(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "base:  %#x\n", p.Base)
			fmt.Fprintf(out, "prime: %#x\n", p.Prime)
			if p == modp.Default() {
				fmt.Fprintln(out, "(built-in defaults)")
			}
			return nil
		},
	}
}
