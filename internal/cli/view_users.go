package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli/formatter"
	"github.com/matiasbeltran/feria/internal/domain"
)

type usersLoadedMsg struct {
	users []*domain.User
	err   error
}

type userMutatedMsg struct {
	notice string
	err    error
}

// usersView is the admin account listing with edit and delete.
type usersView struct {
	state   *SharedState
	loading bool
	err     string
	notice  string

	users  []*domain.User
	cursor int
}

func newUsersView(state *SharedState) *usersView {
	return &usersView{state: state, loading: true}
}

func (v *usersView) ID() ViewID    { return ViewUsers }
func (v *usersView) Title() string { return "Users" }

func (v *usersView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑↓", "move")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
	}
}

func (v *usersView) Init() tea.Cmd {
	return v.load()
}

func (v *usersView) load() tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		users, err := app.API.ListUsers(context.Background())
		if err != nil && api.IsAuthExpired(err) {
			return authExpiredMsg{}
		}
		return usersLoadedMsg{users: users, err: err}
	}
}

func (v *usersView) selected() *domain.User {
	if v.cursor < 0 || v.cursor >= len(v.users) {
		return nil
	}
	return v.users[v.cursor]
}

func (v *usersView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case usersLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = api.UserMessage(msg.err)
			return v, nil
		}
		v.err = ""
		v.users = msg.users
		if v.cursor >= len(v.users) {
			v.cursor = len(v.users) - 1
		}
		if v.cursor < 0 {
			v.cursor = 0
		}
		return v, nil

	case userMutatedMsg:
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
		switch msg.String() {
		case "up", "k":
			if v.cursor > 0 {
				v.cursor--
			}
		case "down", "j":
			if v.cursor < len(v.users)-1 {
				v.cursor++
			}
		case "e":
			if u := v.selected(); u != nil {
				return v, pushView(v.editWizard(u))
			}
		case "x":
			if u := v.selected(); u != nil {
				return v, pushView(v.deleteWizard(u))
			}
		}
	}

	return v, nil
}

func (v *usersView) editWizard(u *domain.User) View {
	in := api.UserInput{Name: u.Name, Email: u.Email, Phone: u.Phone}
	role := u.Role

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&in.Name).
				Validate(validateRequired("name")),
			huh.NewInput().
				Title("Email").
				Value(&in.Email).
				Validate(validateRequired("email")),
			huh.NewInput().
				Title("Phone").
				Value(&in.Phone),
			huh.NewSelect[domain.Role]().
				Title("Role").
				Options(
					huh.NewOption("artisan", domain.RoleArtisan),
					huh.NewOption("organizer", domain.RoleOrganizer),
					huh.NewOption("admin", domain.RoleAdmin),
				).
				Value(&role),
		),
	).WithTheme(feriaHuhTheme()).WithShowHelp(false)

	app := v.state.App
	id := u.ID
	return newWizardView(v.state, fmt.Sprintf("Edit user %d", id), form, func() tea.Cmd {
		in.RoleID = domain.RoleID(role)
		return func() tea.Msg {
			err := app.API.UpdateUser(context.Background(), id, in)
			if err != nil && api.IsAuthExpired(err) {
				return authExpiredMsg{}
			}
			return userMutatedMsg{notice: "User updated.", err: err}
		}
	})
}

func (v *usersView) deleteWizard(u *domain.User) View {
	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete user %s?", u.Name)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&confirmed),
		),
	).WithTheme(feriaHuhTheme()).WithShowHelp(false)

	app := v.state.App
	id := u.ID
	return newWizardView(v.state, "Delete user", form, func() tea.Cmd {
		if !confirmed {
			return nil
		}
		return func() tea.Msg {
			err := app.API.DeleteUser(context.Background(), id)
			if err != nil && api.IsAuthExpired(err) {
				return authExpiredMsg{}
			}
			return userMutatedMsg{notice: "User deleted.", err: err}
		}
	})
}

func (v *usersView) View() string {
	if v.loading {
		return "\n  " + formatter.Dim("Loading users...")
	}
	if v.err != "" {
		return "\n  " + formatter.StyleRed.Render(v.err)
	}
	if len(v.users) == 0 {
		return "\n  " + formatter.Dim("No users.")
	}

	var b strings.Builder
	b.WriteString("\n")

	rows := make([][]string, 0, len(v.users))
	for i, u := range v.users {
		marker := " "
		if i == v.cursor {
			marker = formatter.Bold("▸")
		}
		rows = append(rows, []string{
			marker,
			strconv.Itoa(u.ID),
			formatter.Truncate(u.Name, 24),
			formatter.Truncate(u.Email, 28),
			formatter.RoleLabel(u.Role),
		})
	}
	b.WriteString(indent(formatter.RenderTable([]string{"", "ID", "Name", "Email", "Role"}, rows), "  "))

	if v.notice != "" {
		b.WriteString("\n  " + formatter.StyleYellow.Render(v.notice) + "\n")
	}

	return b.String()
}
