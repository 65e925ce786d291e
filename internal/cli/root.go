package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/domain"
	"github.com/matiasbeltran/feria/internal/reservation"
	"github.com/matiasbeltran/feria/internal/store"
)

// App holds the wired dependencies used by both the cobra commands and the
// TUI views.
type App struct {
	API     *api.Client
	Creds   *store.CredentialRepo
	Returns *store.ReturnRepo
	Config  api.Config

	// IsInteractive reports whether stdin is a terminal; a bare "feria"
	// only launches the TUI when it is.
	IsInteractive func() bool
}

// NewWorkflow creates a fresh reservation workflow over the wired backend.
func (a *App) NewWorkflow() *reservation.Workflow {
	return reservation.New(a.API, a.Returns, a.Config.CheckoutBase)
}

// storedUser rebuilds the account from the cached credential, without a
// network round-trip. Commands that need a validated session call
// CheckAuth instead.
func (a *App) storedUser() (*domain.User, error) {
	cred, err := a.Creds.Load()
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.Token == "" {
		return nil, fmt.Errorf("not logged in (run 'feria login')")
	}
	return &domain.User{ID: cred.UserID, Name: cred.UserName, Role: cred.Role}, nil
}

// NewRootCmd creates the top-level "feria" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "feria",
		Short: "Stall allocation client for artisans and fair organizers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && app.IsInteractive() {
				return RunTUI(app)
			}
			return cmd.Help()
		},
	}

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newRegisterCmd(app),
		newWhoamiCmd(app),
		newMapCmd(app),
		newPayCmd(app),
		newRequestsCmd(app),
		newUsersCmd(app),
	)

	return root
}

// requireSession loads the cached credential and fails fast when absent.
// Shared by every subcommand that talks to an authenticated endpoint.
func requireSession(app *App) (*domain.User, error) {
	return app.storedUser()
}

// commandContext returns the context used by non-interactive commands.
func commandContext() context.Context {
	return context.Background()
}
