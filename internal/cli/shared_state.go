package cli

import (
	"github.com/matiasbeltran/feria/internal/domain"
	"github.com/matiasbeltran/feria/internal/reservation"
)

// SharedState holds context shared across all views via pointer.
type SharedState struct {
	App *App

	// Authenticated account, nil before login.
	User *domain.User

	// Live reservation workflow. Created on login, reset on logout and
	// whenever the user navigates away from the reservation flow.
	Workflow *reservation.Workflow

	// Terminal dimensions
	Width  int
	Height int
}

// Role returns the current role, defaulting to artisan before login.
func (s *SharedState) Role() domain.Role {
	if s.User == nil {
		return domain.RoleArtisan
	}
	return s.User.Role
}

// Can reports whether the current user holds the capability.
func (s *SharedState) Can(cap domain.Capability) bool {
	if s.User == nil {
		return false
	}
	return domain.Can(s.User.Role, cap)
}

// ClearSession drops the authenticated user and workflow state.
func (s *SharedState) ClearSession() {
	s.User = nil
	s.Workflow = nil
}

// ResetWorkflow abandons any in-flight reservation attempt and starts a
// fresh workflow. Navigation away is implicit cancellation.
func (s *SharedState) ResetWorkflow() {
	s.Workflow = s.App.NewWorkflow()
}

// ContentHeight returns the available height for view content,
// accounting for the header (2 lines) and the status bar (2 lines).
func (s *SharedState) ContentHeight() int {
	h := s.Height - 4
	if h < 1 {
		return 1
	}
	return h
}
