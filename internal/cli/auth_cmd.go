package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli/formatter"
	"github.com/matiasbeltran/feria/internal/store"
)

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and cache the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("both --email and --password are required")
			}

			session, err := app.API.Login(commandContext(), api.LoginInput{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("login failed: %s", api.UserMessage(err))
			}

			err = app.Creds.Save(&store.Credential{
				Token:    session.Token,
				UserID:   session.User.ID,
				UserName: session.User.Name,
				Role:     session.User.Role,
			})
			if err != nil {
				return fmt.Errorf("saving credential: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n",
				formatter.Bold(session.User.Name), formatter.RoleLabel(session.User.Role))
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the session and drop the cached credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Server-side logout is best effort; the credential goes either way.
			_ = app.API.Logout(commandContext())
			if err := app.Creds.Clear(); err != nil {
				return fmt.Errorf("clearing credential: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newRegisterCmd(app *App) *cobra.Command {
	var in api.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new artisan account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Name == "" || in.Email == "" || in.Password == "" || in.Document == "" {
				return fmt.Errorf("--name, --email, --password and --document are required")
			}
			if err := app.API.Register(commandContext(), in); err != nil {
				return fmt.Errorf("registration failed: %s", api.UserMessage(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created. Run 'feria login' to sign in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password")
	cmd.Flags().StringVar(&in.Document, "document", "", "national document (DNI)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "contact phone")
	return cmd
}

func newWhoamiCmd(app *App) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the cached session",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireSession(app)
			if err != nil {
				return err
			}

			if verify {
				fresh, err := app.API.CheckAuth(commandContext())
				if err != nil {
					return fmt.Errorf("session check failed: %s", api.UserMessage(err))
				}
				user = fresh
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n",
				formatter.Bold(user.Name), formatter.RoleLabel(user.Role))
			if user.Email != "" {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim(user.Email))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "validate the token against the server")
	return cmd
}
