package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/database/books"
	"github.com/mrlokans/biblion/internal/database/users"
	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/exporters"
	"github.com/mrlokans/biblion/internal/importers"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

func checkFormat(format string) error {
	if format != formatJSON && format != formatCSV {
		return fmt.Errorf("invalid format %q: must be json or csv", format)
	}
	return nil
}

func userByEmail(db *database.Database, email string) (*entities.User, error) {
	if email == "" {
		return nil, fmt.Errorf("--user is required")
	}
	user, err := users.NewRepository(db.DB).GetUserByEmail(email)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("user %s not found", email)
		}
		return nil, err
	}
	return user, nil
}

// NewExportCommand writes the library as a JSON backup or CSV file.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var format, email, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the library as JSON or CSV",
		Long: `Export every book as a JSON backup or a CSV file.

Reading statuses in a CSV export are those of --user. Without --output
the file is named after the export date and written to the current
directory; "-" writes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			db, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := userByEmail(db, email)
			if err != nil {
				return err
			}
			list, err := books.NewRepository(db.DB).ForExport()
			if err != nil {
				return fmt.Errorf("load books: %w", err)
			}

			now := time.Now()
			if output == "" {
				output = exporters.JSONFilename(now)
				if format == formatCSV {
					output = exporters.CSVFilename(now)
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if format == formatCSV {
				err = exporters.WriteCSV(w, list, user.ID)
			} else {
				err = exporters.WriteJSON(w, exporters.NewBackup(list, user.Email, now))
			}
			if err != nil {
				return fmt.Errorf("write %s export: %w", format, err)
			}
			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d books to %s\n", len(list), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatJSON, "output format (json|csv)")
	cmd.Flags().StringVar(&email, "user", "", "email of the exporting user")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	return cmd
}

// NewImportCommand loads a JSON backup or CSV file into the library.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	var format, email string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON backup or CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			db, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := userByEmail(db, email)
			if err != nil {
				return err
			}

			var conv importers.Converter = importers.NewJSONConverter(data)
			if format == formatCSV {
				conv = importers.NewCSVConverter(data)
			}
			stats, err := importers.NewPipeline(db.DB).Import(context.Background(), conv, user.ID)
			if err != nil {
				return fmt.Errorf("invalid %s file: %w", strings.ToUpper(format), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total: %d, created: %d, updated: %d, skipped: %d, failed: %d\n",
				stats.Total, stats.Created, stats.Updated, stats.Skipped, stats.Failed)
			for _, msg := range stats.Errors {
				fmt.Fprintf(out, "  %s\n", msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatJSON, "input format (json|csv)")
	cmd.Flags().StringVar(&email, "user", "", "email of the importing user")
	return cmd
}
