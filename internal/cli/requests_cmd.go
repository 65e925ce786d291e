package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli/formatter"
	"github.com/matiasbeltran/feria/internal/domain"
)

func newRequestsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"req"},
		Short:   "Manage stall requests",
	}

	cmd.AddCommand(
		newRequestsListCmd(app),
		newRequestsCreateCmd(app),
		newRequestsUpdateCmd(app),
		newRequestsStatusCmd(app, domain.RequestApproved),
		newRequestsStatusCmd(app, domain.RequestRejected),
		newRequestsDeleteCmd(app),
	)
	return cmd
}

func newRequestsListCmd(app *App) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stall requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireSession(app)
			if err != nil {
				return err
			}

			requests, err := app.API.ListRequests(commandContext())
			if err != nil {
				return fmt.Errorf("loading requests: %s", api.UserMessage(err))
			}

			needle := strings.ToLower(filter)
			manage := domain.Can(user.Role, domain.CapManageRequests)

			headers := []string{"ID", "Title", "Area", "Plots", "Status"}
			if manage {
				headers = append(headers, "User")
			}

			var rows [][]string
			for _, r := range requests {
				if needle != "" &&
					!strings.Contains(strings.ToLower(r.Title), needle) &&
					!strings.Contains(strings.ToLower(string(r.Status)), needle) {
					continue
				}
				row := []string{
					strconv.Itoa(r.ID),
					formatter.Truncate(r.Title, 32),
					fmt.Sprintf("%.1f m²", r.AreaM2),
					strconv.Itoa(r.RequiredPlots()),
					formatter.RequestBadge(r.Status),
				}
				if manage {
					row = append(row, strconv.Itoa(r.UserID))
				}
				rows = append(rows, row)
			}

			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No requests."))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "substring match on title or status")
	return cmd
}

func newRequestsCreateCmd(app *App) *cobra.Command {
	var in api.RequestInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a new stall request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(app); err != nil {
				return err
			}
			if in.Title == "" {
				return fmt.Errorf("--title is required")
			}
			if in.AreaM2 <= 0 {
				return fmt.Errorf("--area must be a positive number of square meters")
			}

			created, err := app.API.CreateRequest(commandContext(), in)
			if err != nil {
				return fmt.Errorf("creating request: %s", api.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %d submitted (%d plot(s)).\n",
				created.ID, created.RequiredPlots())
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "what you sell")
	cmd.Flags().StringVar(&in.Description, "description", "", "free-form detail")
	cmd.Flags().Float64Var(&in.AreaM2, "area", 0, "stall area in square meters")
	return cmd
}

func newRequestsUpdateCmd(app *App) *cobra.Command {
	var in api.RequestInput

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit an existing request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(app); err != nil {
				return err
			}
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid request id %q", args[0])
			}

			// Unset flags keep their current values.
			current, err := app.API.GetRequest(commandContext(), id)
			if err != nil {
				return fmt.Errorf("loading request: %s", api.UserMessage(err))
			}
			if !cmd.Flags().Changed("title") {
				in.Title = current.Title
			}
			if !cmd.Flags().Changed("description") {
				in.Description = current.Description
			}
			if !cmd.Flags().Changed("area") {
				in.AreaM2 = current.AreaM2
			}

			if err := app.API.UpdateRequest(commandContext(), id, in); err != nil {
				return fmt.Errorf("updating request: %s", api.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %d updated.\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "what you sell")
	cmd.Flags().StringVar(&in.Description, "description", "", "free-form detail")
	cmd.Flags().Float64Var(&in.AreaM2, "area", 0, "stall area in square meters")
	return cmd
}

// newRequestsStatusCmd builds "requests approve" / "requests reject".
func newRequestsStatusCmd(app *App, status domain.RequestStatus) *cobra.Command {
	use, short := "reject", "Reject a request"
	if status == domain.RequestApproved {
		use, short = "approve", "Approve a request"
	}

	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireSession(app)
			if err != nil {
				return err
			}
			if !domain.Can(user.Role, domain.CapManageRequests) {
				return fmt.Errorf("your role cannot manage requests")
			}
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid request id %q", args[0])
			}

			if err := app.API.SetRequestStatus(commandContext(), id, status); err != nil {
				return fmt.Errorf("updating request: %s", api.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %d marked %s.\n", id, status)
			return nil
		},
	}
}

func newRequestsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(app); err != nil {
				return err
			}
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid request id %q", args[0])
			}

			if err := app.API.DeleteRequest(commandContext(), id); err != nil {
				return fmt.Errorf("deleting request: %s", api.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %d deleted.\n", id)
			return nil
		},
	}
}
