package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/backup"
	auditrepo "github.com/mrlokans/biblion/internal/database/audit"
	"github.com/mrlokans/biblion/internal/scheduler"
	"github.com/mrlokans/biblion/internal/settingsstore"
)

// fixedPath overrides the stored backup folder for one run.
type fixedPath string

func (p fixedPath) GetBackupPath() string { return string(p) }

// NewBackupCommand writes a manual backup of the database file.
func NewBackupCommand(opts *RootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the database into the backup folder",
		Long: `Copy the database file into the backup folder as backup-<timestamp>.db.

The folder comes from --path, or else from the stored settings
(database, then BACKUP_PATH).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			store := settingsstore.New(db.DB)
			var paths backup.PathSource = store
			if path != "" {
				paths = fixedPath(path)
			}
			auditService := audit.NewService(auditrepo.NewRepository(db.DB))
			defer auditService.Wait()

			runner := scheduler.NewBackupScheduler(backup.NewService(db.Path, paths), store, auditService)
			result, err := runner.Run(context.Background(), backup.KindManual, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s (%d bytes)\n", result.Path, result.Size)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "backup folder for this run")
	return cmd
}
