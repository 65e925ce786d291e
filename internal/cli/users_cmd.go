package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli/formatter"
	"github.com/matiasbeltran/feria/internal/domain"
)

// roleFlag is a pflag.Value restricted to the closed role set.
type roleFlag struct {
	role domain.Role
}

func (f *roleFlag) String() string { return string(f.role) }
func (f *roleFlag) Type() string   { return "role" }

func (f *roleFlag) Set(s string) error {
	switch domain.Role(s) {
	case domain.RoleArtisan, domain.RoleOrganizer, domain.RoleAdmin:
		f.role = domain.Role(s)
		return nil
	}
	return fmt.Errorf("must be one of artisan, organizer, admin")
}

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts (admin)",
	}

	cmd.AddCommand(
		newUsersListCmd(app),
		newUsersUpdateCmd(app),
		newUsersDeleteCmd(app),
	)
	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every account",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireSession(app)
			if err != nil {
				return err
			}
			if !domain.Can(user.Role, domain.CapManageUsers) {
				return fmt.Errorf("your role cannot manage users")
			}

			users, err := app.API.ListUsers(commandContext())
			if err != nil {
				return fmt.Errorf("loading users: %s", api.UserMessage(err))
			}

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{
					strconv.Itoa(u.ID),
					formatter.Truncate(u.Name, 24),
					formatter.Truncate(u.Email, 28),
					u.Phone,
					formatter.RoleLabel(u.Role),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(),
				formatter.RenderTable([]string{"ID", "Name", "Email", "Phone", "Role"}, rows))
			return nil
		},
	}
}

func newUsersUpdateCmd(app *App) *cobra.Command {
	var in api.UserInput
	role := &roleFlag{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireSession(app)
			if err != nil {
				return err
			}
			if !domain.Can(user.Role, domain.CapManageUsers) {
				return fmt.Errorf("your role cannot manage users")
			}
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			if cmd.Flags().Changed("role") {
				in.RoleID = domain.RoleID(role.role)
			}
			if err := app.API.UpdateUser(commandContext(), id, in); err != nil {
				return fmt.Errorf("updating user: %s", api.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %d updated.\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "contact phone")
	cmd.Flags().Var(role, "role", "account role (artisan, organizer, admin)")
	return cmd
}

func newUsersDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireSession(app)
			if err != nil {
				return err
			}
			if !domain.Can(user.Role, domain.CapManageUsers) {
				return fmt.Errorf("your role cannot manage users")
			}
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			if err := app.API.DeleteUser(commandContext(), id); err != nil {
				return fmt.Errorf("deleting user: %s", api.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %d deleted.\n", id)
			return nil
		},
	}
}
