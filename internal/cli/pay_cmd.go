package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli/formatter"
	"github.com/matiasbeltran/feria/internal/domain"
)

func newPayCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Payment status and settlement",
	}

	cmd.AddCommand(
		newPayStatusCmd(app),
		newPayReturnCmd(app),
		newPayCashCmd(app),
		newPayReceiptCmd(app),
	)
	return cmd
}

func newPayStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current payment state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(app); err != nil {
				return err
			}
			state, err := app.API.PaymentStatus(commandContext())
			if err != nil {
				return fmt.Errorf("reading payment status: %s", api.UserMessage(err))
			}
			printPaymentState(cmd, state)
			return nil
		},
	}
}

func newPayReturnCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "return <url>",
		Short: "Submit the provider return URL and check settlement",
		Long: "Submits the URL the payment provider redirected to after checkout.\n" +
			"The server is checked immediately and, if still pending, once more\n" +
			"after a short delay. Beyond that the payment settles asynchronously.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(app); err != nil {
				return err
			}

			wf := app.NewWorkflow()
			if err := wf.SubmitReturnURL(args[0]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			outcome, err := wf.CheckSettlementOnce(commandContext())
			if err != nil {
				return fmt.Errorf("checking settlement: %s", api.UserMessage(err))
			}

			if !outcome.Settled && outcome.RecheckAfter > 0 {
				fmt.Fprintln(out, formatter.Dim(fmt.Sprintf(
					"Still pending, checking once more in %s...", outcome.RecheckAfter)))
				time.Sleep(outcome.RecheckAfter)

				outcome, err = wf.CheckSettlementOnce(commandContext())
				if err != nil {
					return fmt.Errorf("checking settlement: %s", api.UserMessage(err))
				}
			}

			printPaymentState(cmd, outcome.State)
			if !outcome.Settled {
				fmt.Fprintln(out, formatter.Dim(
					"The payment will be reflected once the provider settles it."))
			}
			return nil
		},
	}
}

func newPayCashCmd(app *App) *cobra.Command {
	var reference string

	cmd := &cobra.Command{
		Use:   "cash",
		Short: "Settle a pending in-person cash payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(app); err != nil {
				return err
			}

			wf := app.NewWorkflow()
			if reference != "" {
				if err := app.Returns.SavePendingReturn(reference); err != nil {
					return fmt.Errorf("saving payment reference: %w", err)
				}
			}

			outcome, err := wf.ForceSettleCash(commandContext())
			if err != nil {
				return fmt.Errorf("settling payment: %s", api.UserMessage(err))
			}
			printPaymentState(cmd, outcome.State)
			return nil
		},
	}

	cmd.Flags().StringVar(&reference, "reference", "", "payment reference (defaults to the pending one)")
	return cmd
}

func newPayReceiptCmd(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "receipt",
		Short: "Download the receipt of the approved payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(app); err != nil {
				return err
			}

			state, err := app.API.PaymentStatus(commandContext())
			if err != nil {
				return fmt.Errorf("reading payment status: %s", api.UserMessage(err))
			}
			if state.Status != domain.PaymentApproved || state.PaymentID <= 0 {
				return fmt.Errorf("no approved payment to download a receipt for")
			}

			data, name, err := app.API.DownloadReceipt(commandContext(), state.PaymentID)
			if err != nil {
				return fmt.Errorf("downloading receipt: %s", api.UserMessage(err))
			}

			path := output
			if path == "" {
				path = name
			}
			if path == "" {
				path = fmt.Sprintf("comprobante-%d.pdf", state.PaymentID)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("writing receipt: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Receipt saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to the server-suggested name)")
	return cmd
}

func printPaymentState(cmd *cobra.Command, state *api.PaymentState) {
	out := cmd.OutOrStdout()
	if state == nil {
		fmt.Fprintln(out, formatter.PaymentBadge(domain.PaymentNone))
		return
	}
	fmt.Fprintln(out, formatter.PaymentBadge(state.Status))
	if state.Reference != "" {
		fmt.Fprintln(out, formatter.Dim("reference: "+state.Reference))
	}
	if state.AssignedPlots > 0 {
		fmt.Fprintln(out, formatter.Dim(fmt.Sprintf("%d plot(s) assigned", state.AssignedPlots)))
	}
}
