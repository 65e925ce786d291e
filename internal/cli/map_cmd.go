package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli/formatter"
	"github.com/matiasbeltran/feria/internal/domain"
	"github.com/matiasbeltran/feria/internal/grid"
)

func newMapCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Print the fair map",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireSession(app)
			if err != nil {
				return err
			}

			snapshot, err := app.API.FetchGrid(commandContext(), user.Role)
			if err != nil {
				return fmt.Errorf("loading map: %s", api.UserMessage(err))
			}

			out := cmd.OutOrStdout()
			for row := 0; row < snapshot.Rows; row++ {
				var line strings.Builder
				for col := 0; col < snapshot.Cols; col++ {
					state := grid.Classify(snapshot.At(row, col), user.Role, nil)
					line.WriteString(formatter.RenderCell(state, false))
				}
				fmt.Fprintln(out, line.String())
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, formatter.GridLegend(false))
			fmt.Fprintln(out, formatter.Dim(fmt.Sprintf("%d of %d plots occupied",
				snapshot.OccupiedCount(), len(snapshot.Plots))))
			return nil
		},
	}

	cmd.AddCommand(
		newMapAvailabilityCmd(app, true),
		newMapAvailabilityCmd(app, false),
	)
	return cmd
}

// newMapAvailabilityCmd builds "map enable" / "map disable", the organizer
// bulk availability operations.
func newMapAvailabilityCmd(app *App, enable bool) *cobra.Command {
	use, short := "disable", "Disable plots by id"
	if enable {
		use, short = "enable", "Enable plots by id"
	}

	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireSession(app)
			if err != nil {
				return err
			}
			if !domain.Can(user.Role, domain.CapBulkAvailability) {
				return fmt.Errorf("your role cannot change plot availability")
			}

			ids := make([]int, 0, len(args))
			for _, a := range args {
				id, err := strconv.Atoi(a)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid plot id %q", a)
				}
				ids = append(ids, id)
			}

			if err := app.API.SetBulkAvailability(commandContext(), ids, enable); err != nil {
				return fmt.Errorf("updating availability: %s", api.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d plot(s) updated.\n", len(ids))
			return nil
		},
	}
}
