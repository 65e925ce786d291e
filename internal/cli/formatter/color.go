package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matiasbeltran/feria/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// PaymentBadge returns a colored indicator for a payment status.
func PaymentBadge(status domain.PaymentStatus) string {
	switch status {
	case domain.PaymentApproved:
		return StyleGreen.Render("● APPROVED")
	case domain.PaymentPending:
		return StyleYellow.Render("● PENDING")
	case domain.PaymentRejected:
		return StyleRed.Render("● REJECTED")
	case domain.PaymentCancelled:
		return StyleDim.Render("● CANCELLED")
	}
	return StyleDim.Render("● NO PAYMENT")
}

// RequestBadge returns a colored indicator for a request status.
func RequestBadge(status domain.RequestStatus) string {
	switch status {
	case domain.RequestApproved:
		return StyleGreen.Render("approved")
	case domain.RequestPending:
		return StyleYellow.Render("pending")
	case domain.RequestRejected:
		return StyleRed.Render("rejected")
	case domain.RequestCancelled:
		return StyleDim.Render("cancelled")
	}
	return StyleDim.Render(string(status))
}

// RoleLabel renders a role name in its accent color.
func RoleLabel(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return StyleRed.Render("admin")
	case domain.RoleOrganizer:
		return StylePurple.Render("organizer")
	}
	return StyleBlue.Render("artisan")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
