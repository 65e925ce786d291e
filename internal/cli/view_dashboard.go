package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli/formatter"
	"github.com/matiasbeltran/feria/internal/domain"
	"github.com/matiasbeltran/feria/internal/reservation"
)

// statusRefreshInterval is how often the dashboard re-reads eligibility and
// payment state while idle.
const statusRefreshInterval = 60 * time.Second

// dashboardLoadedMsg carries the result of the eligibility read.
type dashboardLoadedMsg struct {
	elig    *reservation.Eligibility
	payment *api.PaymentState
	err     error
}

// dashboardTickMsg triggers the periodic status refresh.
type dashboardTickMsg struct{}

// logoutDoneMsg reports that the session was torn down.
type logoutDoneMsg struct{}

// dashboardView is the home screen after login: account summary, payment
// state, eligibility verdict, and shortcuts into the other views.
type dashboardView struct {
	state   *SharedState
	loading bool
	err     string

	elig    *reservation.Eligibility
	payment *api.PaymentState
}

func newDashboardView(state *SharedState) *dashboardView {
	return &dashboardView{state: state, loading: true}
}

func (v *dashboardView) ID() ViewID    { return ViewDashboard }
func (v *dashboardView) Title() string { return "Home" }

func (v *dashboardView) ShortHelp() []key.Binding {
	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "map")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "requests")),
		key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "payment")),
	}
	if v.state.Can(domain.CapManageUsers) {
		bindings = append(bindings, key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "users")))
	}
	bindings = append(bindings, key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "log out")))
	return bindings
}

func (v *dashboardView) Init() tea.Cmd {
	return tea.Batch(v.load(), dashboardTick())
}

func dashboardTick() tea.Cmd {
	return tea.Tick(statusRefreshInterval, func(time.Time) tea.Msg {
		return dashboardTickMsg{}
	})
}

// load runs the eligibility check through the workflow. The check also
// refreshes the cached payment state as a side effect.
func (v *dashboardView) load() tea.Cmd {
	wf := v.state.Workflow
	user := v.state.User
	if wf == nil || user == nil {
		return nil
	}
	return func() tea.Msg {
		elig, err := wf.CheckEligibility(context.Background(), user.ID)
		if err != nil {
			if api.IsAuthExpired(err) {
				return authExpiredMsg{}
			}
			return dashboardLoadedMsg{elig: elig, err: err}
		}
		return dashboardLoadedMsg{elig: elig, payment: wf.Payment()}
	}
}

func (v *dashboardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case dashboardLoadedMsg:
		v.loading = false
		v.elig = msg.elig
		v.payment = msg.payment
		if msg.err != nil {
			v.err = api.UserMessage(msg.err)
		} else {
			v.err = ""
		}
		return v, nil

	case dashboardTickMsg:
		// Periodic refresh keeps the verdict honest while the user idles on
		// the home screen, e.g. after an organizer approves their request.
		if v.loading {
			return v, dashboardTick()
		}
		v.loading = true
		return v, tea.Batch(v.load(), dashboardTick())

	case refreshViewMsg:
		v.loading = true
		return v, v.load()

	case logoutDoneMsg:
		login := newLoginView(v.state)
		return v, replaceView(login)

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v, nil
}

func (v *dashboardView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "m":
		return v, pushView(newGridView(v.state))
	case "r":
		return v, pushView(newRequestsView(v.state))
	case "p":
		return v, pushView(newPaymentView(v.state))
	case "u":
		if v.state.Can(domain.CapManageUsers) {
			return v, pushView(newUsersView(v.state))
		}
	case "x":
		return v, v.logout()
	case "enter":
		if !v.loading && v.elig != nil && v.elig.Eligible {
			return v, pushView(newGridView(v.state))
		}
	}
	return v, nil
}

func (v *dashboardView) logout() tea.Cmd {
	app := v.state.App
	v.state.ClearSession()
	return func() tea.Msg {
		// Best effort: the local credential is gone either way.
		_ = app.API.Logout(context.Background())
		_ = app.Creds.Clear()
		return logoutDoneMsg{}
	}
}

func (v *dashboardView) View() string {
	var b strings.Builder

	user := v.state.User
	if user != nil {
		b.WriteString("\n  " + formatter.Bold("Welcome, "+user.Name) + "\n\n")
	}

	b.WriteString("  " + formatter.Header("Payment") + "\n")
	if v.payment != nil {
		b.WriteString("  " + formatter.PaymentBadge(v.payment.Status))
		if v.payment.AssignedPlots > 0 {
			b.WriteString(formatter.Dim(fmt.Sprintf("   %d plot(s) assigned", v.payment.AssignedPlots)))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("  " + formatter.PaymentBadge(domain.PaymentNone) + "\n")
	}

	b.WriteString("\n  " + formatter.Header("Reservation") + "\n")
	switch {
	case v.loading:
		b.WriteString("  " + formatter.Dim("Checking your status...") + "\n")
	case v.err != "":
		b.WriteString("  " + formatter.StyleRed.Render(v.err) + "\n")
	case v.elig != nil && v.elig.Eligible:
		b.WriteString("  " + formatter.StyleGreen.Render(
			fmt.Sprintf("You may select %d plot(s).", v.elig.Remaining)) + "\n")
		b.WriteString("  " + formatter.Dim("Press enter or m to open the map.") + "\n")
	case v.elig != nil:
		b.WriteString("  " + formatter.StyleYellow.Render(v.elig.Reason) + "\n")
	default:
		b.WriteString("  " + formatter.Dim("No status yet.") + "\n")
	}

	b.WriteString("\n  " + formatter.Header("Go to") + "\n")
	b.WriteString("  " + formatter.Bold("m") + formatter.Dim("  plot map") + "\n")
	b.WriteString("  " + formatter.Bold("r") + formatter.Dim("  my requests") + "\n")
	b.WriteString("  " + formatter.Bold("p") + formatter.Dim("  payment") + "\n")
	if v.state.Can(domain.CapManageUsers) {
		b.WriteString("  " + formatter.Bold("u") + formatter.Dim("  users") + "\n")
	}

	return b.String()
}
