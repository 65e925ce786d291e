package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli/formatter"
	"github.com/matiasbeltran/feria/internal/domain"
	"github.com/matiasbeltran/feria/internal/reservation"
)

// paymentLoadedMsg carries the payment state read on entry.
type paymentLoadedMsg struct {
	state *api.PaymentState
	err   error
}

// settlementMsg carries the outcome of one settlement check.
type settlementMsg struct {
	outcome *reservation.SettlementOutcome
	err     error
}

// recheckTickMsg fires the single delayed follow-up settlement check.
type recheckTickMsg struct{}

// receiptMsg reports where the downloaded receipt was written.
type receiptMsg struct {
	path string
	err  error
}

// paymentView shows the payment side of the reservation: the checkout URL
// to open, the paste-back field for the provider return URL, and the
// settlement result. After a return is submitted the server is checked
// immediately and once more after a fixed delay, then polling stops.
type paymentView struct {
	state    *SharedState
	input    textinput.Model
	payment  *api.PaymentState
	err      string
	notice   string
	checking bool
}

func newPaymentView(state *SharedState) *paymentView {
	in := textinput.New()
	in.Placeholder = "paste the return URL from the browser here"
	in.CharLimit = 2048
	in.Width = 72
	in.Focus()

	return &paymentView{state: state, input: in}
}

func (v *paymentView) ID() ViewID    { return ViewPayment }
func (v *paymentView) Title() string { return "Payment" }

func (v *paymentView) ShortHelp() []key.Binding {
	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit return URL")),
		key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "settle cash")),
	}
	if v.payment != nil && v.payment.Status == domain.PaymentApproved && v.payment.PaymentID > 0 {
		bindings = append(bindings,
			key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "receipt")))
	}
	bindings = append(bindings,
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")))
	return bindings
}

func (v *paymentView) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, v.loadStatus()}

	// A reference persisted before a restart resumes the check here. It is
	// consumed on read, so a second launch will not re-trigger it. Awaiting
	// stays untouched: in that phase the confirm of this session persisted
	// the reference and the check budget belongs to the return event, which
	// has not happened yet.
	if wf := v.state.Workflow; wf != nil {
		switch wf.Phase() {
		case reservation.PhaseIdle, reservation.PhaseEligible, reservation.PhaseIneligible:
			if resumed, err := wf.ResumeReturn(); err != nil {
				v.err = err.Error()
			} else if resumed {
				v.checking = true
				v.notice = "Found a pending payment return, checking..."
				cmds = append(cmds, v.checkSettlement())
			}
		case reservation.PhasePolling:
			v.checking = true
			cmds = append(cmds, v.checkSettlement())
		}
	}

	return tea.Batch(cmds...)
}

func (v *paymentView) loadStatus() tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		state, err := app.API.PaymentStatus(context.Background())
		if err != nil && api.IsAuthExpired(err) {
			return authExpiredMsg{}
		}
		return paymentLoadedMsg{state: state, err: err}
	}
}

func (v *paymentView) checkSettlement() tea.Cmd {
	wf := v.state.Workflow
	return func() tea.Msg {
		outcome, err := wf.CheckSettlementOnce(context.Background())
		if err != nil && api.IsAuthExpired(err) {
			return authExpiredMsg{}
		}
		return settlementMsg{outcome: outcome, err: err}
	}
}

func (v *paymentView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case paymentLoadedMsg:
		if msg.err != nil {
			v.err = api.UserMessage(msg.err)
			return v, nil
		}
		v.err = ""
		v.payment = msg.state
		return v, nil

	case settlementMsg:
		return v.applySettlement(msg)

	case recheckTickMsg:
		if wf := v.state.Workflow; wf != nil && wf.Phase() == reservation.PhasePolling {
			v.checking = true
			return v, v.checkSettlement()
		}
		return v, nil

	case receiptMsg:
		if msg.err != nil {
			v.err = api.UserMessage(msg.err)
			return v, nil
		}
		v.notice = "Receipt saved to " + msg.path
		return v, nil

	case refreshViewMsg:
		return v, v.loadStatus()

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *paymentView) applySettlement(msg settlementMsg) (tea.Model, tea.Cmd) {
	v.checking = false
	if msg.err != nil {
		v.err = api.UserMessage(msg.err)
		return v, nil
	}
	v.err = ""
	if msg.outcome == nil {
		return v, nil
	}
	if msg.outcome.State != nil {
		v.payment = msg.outcome.State
	}

	switch {
	case msg.outcome.Settled:
		switch v.payment.Status {
		case domain.PaymentApproved:
			v.notice = "Payment approved. Your plots are assigned."
		default:
			v.notice = "Payment closed as " + string(v.payment.Status) + "."
		}
		// One stack-wide refresh so the map picks up the new assignments.
		return v, refreshAll()

	case msg.outcome.RecheckAfter > 0:
		v.notice = fmt.Sprintf("Still pending, checking once more in %s...",
			msg.outcome.RecheckAfter)
		return v, tea.Tick(msg.outcome.RecheckAfter, func(time.Time) tea.Msg {
			return recheckTickMsg{}
		})

	default:
		v.notice = "Still pending. The payment will be reflected once the provider settles it."
		return v, nil
	}
}

func (v *paymentView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return v, popView()
	case tea.KeyEnter:
		return v, v.submitReturn()
	case tea.KeyCtrlE:
		return v, v.forceCash()
	case tea.KeyCtrlD:
		return v, v.downloadReceipt()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *paymentView) submitReturn() tea.Cmd {
	wf := v.state.Workflow
	raw := strings.TrimSpace(v.input.Value())
	if wf == nil || raw == "" {
		return nil
	}
	if err := wf.SubmitReturnURL(raw); err != nil {
		v.err = err.Error()
		return nil
	}
	v.input.SetValue("")
	v.err = ""
	v.notice = "Checking payment..."
	v.checking = true
	return v.checkSettlement()
}

func (v *paymentView) forceCash() tea.Cmd {
	wf := v.state.Workflow
	if wf == nil {
		return nil
	}
	v.checking = true
	v.notice = "Settling cash payment..."
	return func() tea.Msg {
		outcome, err := wf.ForceSettleCash(context.Background())
		if err != nil && api.IsAuthExpired(err) {
			return authExpiredMsg{}
		}
		return settlementMsg{outcome: outcome, err: err}
	}
}

func (v *paymentView) downloadReceipt() tea.Cmd {
	if v.payment == nil || v.payment.Status != domain.PaymentApproved || v.payment.PaymentID <= 0 {
		v.notice = "No approved payment to download a receipt for."
		return nil
	}
	app := v.state.App
	paymentID := v.payment.PaymentID
	return func() tea.Msg {
		data, name, err := app.API.DownloadReceipt(context.Background(), paymentID)
		if err != nil {
			if api.IsAuthExpired(err) {
				return authExpiredMsg{}
			}
			return receiptMsg{err: err}
		}
		if name == "" {
			name = fmt.Sprintf("comprobante-%d.pdf", paymentID)
		}
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return receiptMsg{err: err}
		}
		return receiptMsg{path: name}
	}
}

func (v *paymentView) View() string {
	var b strings.Builder
	b.WriteString("\n  " + formatter.Header("Payment") + "\n")

	if v.payment != nil {
		b.WriteString("  " + formatter.PaymentBadge(v.payment.Status))
		if v.payment.AssignedPlots > 0 {
			b.WriteString(formatter.Dim(fmt.Sprintf("   %d plot(s) assigned", v.payment.AssignedPlots)))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("  " + formatter.Dim("Loading payment status...") + "\n")
	}

	if wf := v.state.Workflow; wf != nil && wf.CheckoutURL() != "" && wf.Phase() != reservation.PhaseSettled {
		b.WriteString("\n  " + formatter.Bold("Open this URL in your browser to pay:") + "\n")
		b.WriteString("  " + formatter.StyleBlue.Render(wf.CheckoutURL()) + "\n")
	}

	b.WriteString("\n  " + formatter.Dim("After paying, paste the URL the provider redirected you to:") + "\n")
	b.WriteString("  " + v.input.View() + "\n")

	if v.checking {
		b.WriteString("\n  " + formatter.Dim("Checking with the payment provider...") + "\n")
	}
	if v.notice != "" {
		b.WriteString("\n  " + formatter.StyleYellow.Render(v.notice) + "\n")
	}
	if v.err != "" {
		b.WriteString("\n  " + formatter.StyleRed.Render(v.err) + "\n")
	}

	b.WriteString("\n  " + formatter.Dim("ctrl+e settles an in-person cash payment.") + "\n")
	if v.payment != nil && v.payment.Status == domain.PaymentApproved && v.payment.PaymentID > 0 {
		b.WriteString("  " + formatter.Dim("ctrl+d downloads your receipt.") + "\n")
	}

	return b.String()
}
