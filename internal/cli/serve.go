package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/biblion/internal/entrypoint"
)

// NewServeCommand starts the HTTP server. It is also the default action.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func runServe(opts *RootOptions) error {
	entrypoint.Run(opts.Config(), opts.Version)
	return nil
}
