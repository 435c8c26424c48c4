package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/biblion/internal/auth"
	"github.com/mrlokans/biblion/internal/entities"
)

// NewCreateAdminCommand adds an administrator account. On an empty database
// it performs the first-run setup, which also seeds the default categories.
func NewCreateAdminCommand(opts *RootOptions) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			service := auth.NewService(db, opts.Config().Auth)
			hasUsers, err := service.HasUsers()
			if err != nil {
				return err
			}

			var user *entities.User
			if hasUsers {
				user, err = service.CreateUser(name, email, password, entities.UserRoleAdmin)
			} else {
				user, err = service.Setup(name, email, password)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created administrator %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 6 characters")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
