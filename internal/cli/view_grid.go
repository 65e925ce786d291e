package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli/formatter"
	"github.com/matiasbeltran/feria/internal/domain"
	"github.com/matiasbeltran/feria/internal/grid"
	"github.com/matiasbeltran/feria/internal/reservation"
)

// gridLoadedMsg carries a grid snapshot tagged with the request sequence
// that produced it.
type gridLoadedMsg struct {
	seq  int
	grid *domain.Grid
	err  error
}

// confirmDoneMsg reports the outcome of confirming the selection.
type confirmDoneMsg struct {
	checkoutURL string
	err         error
}

// bulkDoneMsg reports the outcome of a bulk enable/disable call.
type bulkDoneMsg struct {
	err error
}

// gridView renders the fair map and drives plot selection. Reservation
// selection (artisan) and bulk availability marking (organizer) share the
// cursor but use separate selection sets.
type gridView struct {
	state   *SharedState
	loading bool
	err     string
	notice  string

	grid *domain.Grid
	row  int
	col  int

	// seq tags load requests; a response with a lower tag than the latest
	// request is stale and gets dropped instead of overwriting the snapshot.
	seq int

	// bulkSel is non-nil while the organizer bulk mode is active.
	bulkSel *grid.Selection

	confirming bool
}

func newGridView(state *SharedState) *gridView {
	return &gridView{state: state, loading: true}
}

func (v *gridView) ID() ViewID    { return ViewGrid }
func (v *gridView) Title() string { return "Map" }

func (v *gridView) ShortHelp() []key.Binding {
	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("up", "down", "left", "right"), key.WithHelp("↑↓←→", "move")),
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	}
	if v.bulkSel != nil {
		bindings = append(bindings,
			key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "enable")),
			key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disable")),
			key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "exit bulk")),
		)
	} else {
		if v.selection() != nil {
			bindings = append(bindings,
				key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")))
		}
		if v.state.Can(domain.CapBulkAvailability) {
			bindings = append(bindings,
				key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bulk mode")))
		}
	}
	bindings = append(bindings,
		key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "reload")))
	return bindings
}

func (v *gridView) Init() tea.Cmd {
	// Entering the map while eligible starts the selection session.
	if wf := v.state.Workflow; wf != nil && wf.Phase() == reservation.PhaseEligible {
		if _, err := wf.BeginSelection(); err != nil {
			v.notice = err.Error()
		}
	}
	return v.load()
}

// selection returns the live reservation selection, or nil outside the
// selecting phase.
func (v *gridView) selection() *grid.Selection {
	if wf := v.state.Workflow; wf != nil && wf.Phase() == reservation.PhaseSelecting {
		return wf.Selection()
	}
	return nil
}

// activeSelection is whichever selection set the cursor toggles into.
func (v *gridView) activeSelection() *grid.Selection {
	if v.bulkSel != nil {
		return v.bulkSel
	}
	return v.selection()
}

// load fetches a fresh snapshot, tagging the response with the sequence
// number of this request so stale responses can be discarded.
func (v *gridView) load() tea.Cmd {
	v.seq++
	seq := v.seq
	app := v.state.App
	role := v.state.Role()
	return func() tea.Msg {
		g, err := app.API.FetchGrid(context.Background(), role)
		if err != nil && api.IsAuthExpired(err) {
			return authExpiredMsg{}
		}
		return gridLoadedMsg{seq: seq, grid: g, err: err}
	}
}

func (v *gridView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case gridLoadedMsg:
		if msg.seq < v.seq {
			return v, nil
		}
		v.loading = false
		if msg.err != nil {
			v.err = api.UserMessage(msg.err)
			return v, nil
		}
		v.err = ""
		v.grid = msg.grid
		v.clampCursor()
		return v, nil

	case confirmDoneMsg:
		v.confirming = false
		if msg.err != nil {
			v.notice = api.UserMessage(msg.err)
			return v, nil
		}
		return v, pushView(newPaymentView(v.state))

	case bulkDoneMsg:
		if msg.err != nil {
			v.notice = api.UserMessage(msg.err)
			return v, nil
		}
		v.notice = "Availability updated."
		v.bulkSel.Clear()
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

func (v *gridView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.confirming {
		return v, nil
	}

	switch msg.String() {
	case "up", "k":
		v.row--
	case "down", "j":
		v.row++
	case "left", "h":
		v.col--
	case "right", "l":
		v.col++
	case " ":
		v.toggle()
	case "g":
		v.loading = true
		return v, v.load()
	case "b":
		if v.state.Can(domain.CapBulkAvailability) {
			if v.bulkSel != nil {
				v.bulkSel = nil
				v.notice = ""
			} else {
				v.bulkSel = grid.NewBulkSelection()
				v.notice = "Bulk mode: mark plots, then e to enable or d to disable."
			}
		}
	case "e":
		return v, v.applyBulk(true)
	case "d":
		return v, v.applyBulk(false)
	case "enter", "c":
		return v, v.confirm()
	}

	v.clampCursor()
	return v, nil
}

func (v *gridView) clampCursor() {
	if v.grid == nil {
		v.row, v.col = 0, 0
		return
	}
	if v.row < 0 {
		v.row = 0
	}
	if v.row >= v.grid.Rows {
		v.row = v.grid.Rows - 1
	}
	if v.col < 0 {
		v.col = 0
	}
	if v.col >= v.grid.Cols {
		v.col = v.grid.Cols - 1
	}
}

func (v *gridView) toggle() {
	sel := v.activeSelection()
	if sel == nil || v.grid == nil {
		return
	}
	plot := v.grid.At(v.row, v.col)
	if err := sel.Toggle(plot); err != nil {
		v.notice = err.Error()
		return
	}
	v.notice = ""
}

func (v *gridView) confirm() tea.Cmd {
	wf := v.state.Workflow
	sel := v.selection()
	if wf == nil || sel == nil {
		return nil
	}
	if !sel.Full() {
		v.notice = fmt.Sprintf("Select %d plot(s) before confirming.", sel.Limit())
		return nil
	}
	v.confirming = true
	v.notice = ""
	return func() tea.Msg {
		url, err := wf.Confirm(context.Background())
		if err != nil && api.IsAuthExpired(err) {
			return authExpiredMsg{}
		}
		return confirmDoneMsg{checkoutURL: url, err: err}
	}
}

func (v *gridView) applyBulk(enable bool) tea.Cmd {
	if v.bulkSel == nil || v.bulkSel.Len() == 0 {
		return nil
	}
	app := v.state.App
	ids := v.bulkSel.IDs()
	return func() tea.Msg {
		err := app.API.SetBulkAvailability(context.Background(), ids, enable)
		if err != nil && api.IsAuthExpired(err) {
			return authExpiredMsg{}
		}
		return bulkDoneMsg{err: err}
	}
}

func (v *gridView) View() string {
	if v.loading {
		return "\n  " + formatter.Dim("Loading map...")
	}
	if v.err != "" {
		return "\n  " + formatter.StyleRed.Render(v.err) +
			"\n  " + formatter.Dim("Press g to retry.")
	}
	if v.grid == nil || v.grid.Rows == 0 {
		return "\n  " + formatter.Dim("The map is empty.")
	}

	var b strings.Builder
	b.WriteString("\n")

	sel := v.activeSelection()
	role := v.state.Role()
	for row := 0; row < v.grid.Rows; row++ {
		b.WriteString("  ")
		for col := 0; col < v.grid.Cols; col++ {
			plot := v.grid.At(row, col)
			state := grid.Classify(plot, role, sel)
			b.WriteString(formatter.RenderCell(state, row == v.row && col == v.col))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n  " + formatter.GridLegend(v.bulkSel != nil) + "\n")
	b.WriteString("\n  " + v.renderCursorDetail() + "\n")

	if resSel := v.selection(); resSel != nil && v.bulkSel == nil {
		b.WriteString("  " + formatter.Dim(fmt.Sprintf("Selected %d of %d plot(s).",
			resSel.Len(), resSel.Limit())))
		if resSel.Full() {
			b.WriteString(" " + formatter.StyleGreen.Render("Press enter to confirm."))
		}
		b.WriteString("\n")
	}
	if v.bulkSel != nil {
		b.WriteString("  " + formatter.Dim(fmt.Sprintf("Marked %d plot(s).", v.bulkSel.Len())) + "\n")
	}

	if v.confirming {
		b.WriteString("  " + formatter.Dim("Confirming selection...") + "\n")
	}
	if v.notice != "" {
		b.WriteString("  " + formatter.StyleYellow.Render(v.notice) + "\n")
	}

	return b.String()
}

// renderCursorDetail describes the plot under the cursor. Occupant detail is
// present only in the administrative snapshot.
func (v *gridView) renderCursorDetail() string {
	plot := v.grid.At(v.row, v.col)
	if !plot.Valid() {
		return formatter.Dim(fmt.Sprintf("(%d,%d) no plot", v.row, v.col))
	}

	detail := fmt.Sprintf("Plot %d", plot.ID)
	if plot.Sector != "" {
		detail += " · sector " + plot.Sector
	}
	switch {
	case !plot.Enabled:
		detail += " · " + formatter.Dim("disabled")
	case plot.Occupied:
		detail += " · " + formatter.StyleRed.Render("occupied")
		if plot.Occupant != nil {
			detail += formatter.Dim(fmt.Sprintf(" by %s (DNI %s, %s)",
				plot.Occupant.Name, plot.Occupant.Document, plot.Occupant.Phone))
		}
	default:
		detail += " · " + formatter.StyleGreen.Render("free")
	}
	return detail
}
