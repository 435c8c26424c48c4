package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/biblion/internal/config"
	"github.com/mrlokans/biblion/internal/database"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DatabasePath string
	Version      string
	Commit       string

	config *config.Config
}

// Config returns the environment configuration with flag overrides applied.
func (o *RootOptions) Config() *config.Config {
	if o.config == nil {
		o.config = config.NewConfig()
	}
	if o.DatabasePath != "" {
		o.config.Database.Path = o.DatabasePath
	}
	return o.config
}

// openDatabase opens the configured database without SQL statement logging.
func (o *RootOptions) openDatabase() (*database.Database, error) {
	path := o.Config().Database.Path
	db, err := database.NewQuietDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return db, nil
}

// NewRootCommand creates the root command. Running it without a subcommand
// starts the HTTP server.
func NewRootCommand(version, commit string) *cobra.Command {
	opts := &RootOptions{Version: version, Commit: commit}

	cmd := &cobra.Command{
		Use:           "biblion",
		Short:         "Biblion - home library manager",
		Long:          "A self-hosted catalogue for a household book collection: reading status, loans, categories, shelves and backups.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DatabasePath, "db", "", "database path (overrides DATABASE_PATH)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewCreateAdminCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// NewVersionCommand prints build information.
func NewVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "biblion %s (%s)\n", opts.Version, opts.Commit)
		},
	}
}
