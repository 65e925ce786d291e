package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli/formatter"
	"github.com/matiasbeltran/feria/internal/domain"
)

// requestsLoadedMsg carries the fetched request list.
type requestsLoadedMsg struct {
	requests []*domain.Request
	err      error
}

// requestMutatedMsg reports the outcome of a create, update, status change,
// or delete. A reload follows regardless so the list reflects the server.
type requestMutatedMsg struct {
	notice string
	err    error
}

// requestsView lists stall requests. Artisans see their own; roles with the
// manage capability see everyone's and can approve or reject. Filtering is
// a client-side substring match over title and status.
type requestsView struct {
	state   *SharedState
	loading bool
	err     string
	notice  string

	requests []*domain.Request
	cursor   int

	filter    textinput.Model
	filtering bool
}

func newRequestsView(state *SharedState) *requestsView {
	filter := textinput.New()
	filter.Placeholder = "filter"
	filter.CharLimit = 64
	filter.Width = 32

	return &requestsView{state: state, loading: true, filter: filter}
}

func (v *requestsView) ID() ViewID    { return ViewRequests }
func (v *requestsView) Title() string { return "Requests" }

func (v *requestsView) capturesInput() bool { return v.filtering }

func (v *requestsView) ShortHelp() []key.Binding {
	if v.filtering {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		}
	}
	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑↓", "move")),
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	}
	if v.state.Can(domain.CapManageRequests) {
		bindings = append(bindings,
			key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "approve")),
			key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "reject")),
		)
	}
	return bindings
}

func (v *requestsView) Init() tea.Cmd {
	return v.load()
}

func (v *requestsView) load() tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		requests, err := app.API.ListRequests(context.Background())
		if err != nil && api.IsAuthExpired(err) {
			return authExpiredMsg{}
		}
		return requestsLoadedMsg{requests: requests, err: err}
	}
}

// visible applies the substring filter to the fetched list.
func (v *requestsView) visible() []*domain.Request {
	needle := strings.ToLower(strings.TrimSpace(v.filter.Value()))
	if needle == "" {
		return v.requests
	}
	var out []*domain.Request
	for _, r := range v.requests {
		if strings.Contains(strings.ToLower(r.Title), needle) ||
			strings.Contains(strings.ToLower(string(r.Status)), needle) {
			out = append(out, r)
		}
	}
	return out
}

// selected returns the request under the cursor, or nil.
func (v *requestsView) selected() *domain.Request {
	list := v.visible()
	if v.cursor < 0 || v.cursor >= len(list) {
		return nil
	}
	return list[v.cursor]
}

func (v *requestsView) clampCursor() {
	n := len(v.visible())
	if n == 0 {
		v.cursor = 0
		return
	}
	if v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

func (v *requestsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case requestsLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = api.UserMessage(msg.err)
			return v, nil
		}
		v.err = ""
		v.requests = msg.requests
		v.clampCursor()
		return v, nil

	case requestMutatedMsg:
		if msg.err != nil {
			v.notice = api.UserMessage(msg.err)
		} else {
			v.notice = msg.notice
		}
		v.loading = true
		return v, v.load()

	case refreshViewMsg:
		v.loading = true
		return v, v.load()

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v, nil
}

func (v *requestsView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.filtering {
		switch msg.Type {
		case tea.KeyEnter:
			v.filtering = false
			v.filter.Blur()
			v.clampCursor()
			return v, nil
		case tea.KeyEsc:
			v.filtering = false
			v.filter.Blur()
			v.filter.SetValue("")
			v.clampCursor()
			return v, nil
		}
		var cmd tea.Cmd
		v.filter, cmd = v.filter.Update(msg)
		v.clampCursor()
		return v, cmd
	}

	switch msg.String() {
	case "up", "k":
		v.cursor--
		v.clampCursor()
	case "down", "j":
		v.cursor++
		v.clampCursor()
	case "/":
		v.filtering = true
		return v, v.filter.Focus()
	case "n":
		return v, pushView(v.editWizard(nil))
	case "e":
		if r := v.selected(); r != nil && v.canEdit(r) {
			return v, pushView(v.editWizard(r))
		}
	case "x":
		if r := v.selected(); r != nil && v.canEdit(r) {
			return v, pushView(v.deleteWizard(r))
		}
	case "a":
		return v, v.setStatus(domain.RequestApproved)
	case "d":
		return v, v.setStatus(domain.RequestRejected)
	}
	return v, nil
}

// canEdit reports whether the current user may edit or delete the request.
func (v *requestsView) canEdit(r *domain.Request) bool {
	if v.state.Can(domain.CapManageRequests) {
		return true
	}
	return v.state.User != nil && v.state.User.ID == r.UserID
}

func (v *requestsView) setStatus(status domain.RequestStatus) tea.Cmd {
	if !v.state.Can(domain.CapManageRequests) {
		return nil
	}
	r := v.selected()
	if r == nil {
		return nil
	}
	app := v.state.App
	id := r.ID
	return func() tea.Msg {
		err := app.API.SetRequestStatus(context.Background(), id, status)
		if err != nil && api.IsAuthExpired(err) {
			return authExpiredMsg{}
		}
		return requestMutatedMsg{notice: fmt.Sprintf("Request %d marked %s.", id, status), err: err}
	}
}

// editWizard builds the create/edit form. A nil request means create.
func (v *requestsView) editWizard(r *domain.Request) View {
	title := "New request"
	var in api.RequestInput
	var area string
	if r != nil {
		title = fmt.Sprintf("Edit request %d", r.ID)
		in = api.RequestInput{Title: r.Title, Description: r.Description}
		area = strconv.FormatFloat(r.AreaM2, 'f', -1, 64)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&in.Title).
				Validate(validateRequired("title")),
			huh.NewText().
				Title("Description").
				Value(&in.Description),
			huh.NewInput().
				Title("Area (m²)").
				Description(fmt.Sprintf("Each plot covers %.0f m².", domain.UnitPlotArea)).
				Value(&area).
				Validate(validatePositiveFloat),
		),
	).WithTheme(feriaHuhTheme()).WithShowHelp(false)

	app := v.state.App
	return newWizardView(v.state, title, form, func() tea.Cmd {
		in.AreaM2 = parseFloat(area, domain.UnitPlotArea)
		return func() tea.Msg {
			var err error
			notice := "Request submitted."
			if r == nil {
				_, err = app.API.CreateRequest(context.Background(), in)
			} else {
				notice = "Request updated."
				err = app.API.UpdateRequest(context.Background(), r.ID, in)
			}
			if err != nil && api.IsAuthExpired(err) {
				return authExpiredMsg{}
			}
			return requestMutatedMsg{notice: notice, err: err}
		}
	})
}

// deleteWizard asks for confirmation before deleting.
func (v *requestsView) deleteWizard(r *domain.Request) View {
	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete request %d (%s)?", r.ID, formatter.Truncate(r.Title, 32))).
				Affirmative("Delete").
				Negative("Keep").
				Value(&confirmed),
		),
	).WithTheme(feriaHuhTheme()).WithShowHelp(false)

	app := v.state.App
	id := r.ID
	return newWizardView(v.state, "Delete request", form, func() tea.Cmd {
		if !confirmed {
			return nil
		}
		return func() tea.Msg {
			err := app.API.DeleteRequest(context.Background(), id)
			if err != nil && api.IsAuthExpired(err) {
				return authExpiredMsg{}
			}
			return requestMutatedMsg{notice: fmt.Sprintf("Request %d deleted.", id), err: err}
		}
	})
}

func (v *requestsView) View() string {
	if v.loading {
		return "\n  " + formatter.Dim("Loading requests...")
	}
	if v.err != "" {
		return "\n  " + formatter.StyleRed.Render(v.err)
	}

	var b strings.Builder
	b.WriteString("\n")

	if v.filtering || v.filter.Value() != "" {
		b.WriteString("  " + formatter.Dim("filter:") + " " + v.filter.View() + "\n\n")
	}

	list := v.visible()
	if len(list) == 0 {
		b.WriteString("  " + formatter.Dim("No requests. Press n to submit one.") + "\n")
	} else {
		manage := v.state.Can(domain.CapManageRequests)
		headers := []string{"", "ID", "Title", "Area", "Plots", "Status"}
		if manage {
			headers = append(headers, "User")
		}

		rows := make([][]string, 0, len(list))
		for i, r := range list {
			marker := " "
			if i == v.cursor {
				marker = formatter.Bold("▸")
			}
			row := []string{
				marker,
				strconv.Itoa(r.ID),
				formatter.Truncate(r.Title, 28),
				fmt.Sprintf("%.1f m²", r.AreaM2),
				strconv.Itoa(r.RequiredPlots()),
				formatter.RequestBadge(r.Status),
			}
			if manage {
				row = append(row, strconv.Itoa(r.UserID))
			}
			rows = append(rows, row)
		}
		b.WriteString(indent(formatter.RenderTable(headers, rows), "  "))
	}

	if r := v.selected(); r != nil && r.Description != "" {
		b.WriteString("\n  " + formatter.Dim(formatter.Truncate(r.Description, 76)) + "\n")
	}

	if v.notice != "" {
		b.WriteString("\n  " + formatter.StyleYellow.Render(v.notice) + "\n")
	}

	return b.String()
}

// indent prefixes every non-empty line of s.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
