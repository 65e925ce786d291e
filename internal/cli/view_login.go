package cli

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/cli/formatter"
	"github.com/matiasbeltran/feria/internal/domain"
	"github.com/matiasbeltran/feria/internal/store"
)

// loginDoneMsg reports the outcome of a login or register attempt.
type loginDoneMsg struct {
	user *domain.User
	err  error
}

// loginView is the entry view when no credential is cached. It offers both
// login and registration in a single form; register-only fields stay hidden
// until that mode is chosen.
type loginView struct {
	state *SharedState
	form  *huh.Form
	busy  bool
	err   string

	mode     string
	name     string
	email    string
	password string
	document string
	phone    string
}

func newLoginView(state *SharedState) *loginView {
	v := &loginView{state: state, mode: "login"}
	v.form = v.buildForm()
	return v
}

func (v *loginView) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Welcome").
				Options(
					huh.NewOption("Log in", "login"),
					huh.NewOption("Register as artisan", "register"),
				).
				Value(&v.mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&v.name).
				Validate(validateRequired("name")),
			huh.NewInput().
				Title("Document (DNI)").
				Value(&v.document).
				Validate(validateRequired("document")),
			huh.NewInput().
				Title("Phone").
				Value(&v.phone),
		).WithHideFunc(func() bool { return v.mode != "register" }),
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&v.email).
				Validate(validateRequired("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&v.password).
				Validate(validateRequired("password")),
		),
	).WithTheme(feriaHuhTheme()).WithShowHelp(false)
}

func (v *loginView) ID() ViewID    { return ViewLogin }
func (v *loginView) Title() string { return "Sign in" }

func (v *loginView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next")),
		key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (v *loginView) Init() tea.Cmd {
	return v.form.Init()
}

func (v *loginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		v.busy = false
		if msg.err != nil {
			v.err = api.UserMessage(msg.err)
			v.password = ""
			v.form = v.buildForm()
			return v, v.form.Init()
		}
		v.state.User = msg.user
		v.state.Workflow = v.state.App.NewWorkflow()
		return v, replaceView(newDashboardView(v.state))
	}

	if v.busy {
		return v, nil
	}

	form, cmd := v.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.form = f
	}

	if v.form.State == huh.StateCompleted {
		v.busy = true
		v.err = ""
		return v, v.submit()
	}

	return v, cmd
}

func (v *loginView) submit() tea.Cmd {
	app := v.state.App
	mode := v.mode
	login := api.LoginInput{Email: v.email, Password: v.password}
	register := api.RegisterInput{
		Name:     v.name,
		Email:    v.email,
		Password: v.password,
		Document: v.document,
		Phone:    v.phone,
	}

	return func() tea.Msg {
		ctx := context.Background()

		if mode == "register" {
			if err := app.API.Register(ctx, register); err != nil {
				return loginDoneMsg{err: err}
			}
		}

		session, err := app.API.Login(ctx, login)
		if err != nil {
			return loginDoneMsg{err: err}
		}

		err = app.Creds.Save(&store.Credential{
			Token:    session.Token,
			UserID:   session.User.ID,
			UserName: session.User.Name,
			Role:     session.User.Role,
		})
		if err != nil {
			return loginDoneMsg{err: err}
		}

		user := session.User
		return loginDoneMsg{user: &user}
	}
}

func (v *loginView) View() string {
	if v.busy {
		return "\n  " + formatter.Dim("Signing in...")
	}

	out := "\n" + v.form.View()
	if v.err != "" {
		out += "\n  " + formatter.StyleRed.Render(v.err)
	}
	return out
}
