package cli

import tea "github.com/charmbracelet/bubbletea"

// Navigation messages used by views to request view transitions.
// The appModel handles these in its Update method.

// pushViewMsg pushes a new view onto the navigation stack.
type pushViewMsg struct {
	view View
}

// popViewMsg pops the current view off the navigation stack,
// returning to the previous view.
type popViewMsg struct{}

// replaceViewMsg replaces the current top view with a new one.
type replaceViewMsg struct {
	view View
}

// refreshViewMsg asks every view on the stack to reload its data. Sent
// after mutations and after a settlement so underlying views catch up.
type refreshViewMsg struct{}

// authExpiredMsg is broadcast when any call returns 401: the credential is
// already cleared, the stack resets to the login view.
type authExpiredMsg struct{}

// wizardDoneMsg is sent when a wizard form completes or is cancelled.
// The appModel pops the wizard view, runs nextCmd, then refreshes the stack.
type wizardDoneMsg struct {
	nextCmd tea.Cmd
}

// pushView returns a tea.Cmd that pushes a view onto the stack.
func pushView(v View) tea.Cmd {
	return func() tea.Msg { return pushViewMsg{view: v} }
}

// popView returns a tea.Cmd that pops the current view.
func popView() tea.Cmd {
	return func() tea.Msg { return popViewMsg{} }
}

// replaceView returns a tea.Cmd that replaces the top view.
func replaceView(v View) tea.Cmd {
	return func() tea.Msg { return replaceViewMsg{view: v} }
}

// refreshAll returns a tea.Cmd that broadcasts a refresh to the stack.
func refreshAll() tea.Cmd {
	return func() tea.Msg { return refreshViewMsg{} }
}
