package formatter

import (
	"strings"

	"github.com/matiasbeltran/feria/internal/grid"
)

// Cell glyphs. Two characters wide so the map keeps its aspect ratio in a
// terminal font.
const (
	glyphAvailable   = "··"
	glyphDisabled    = "▒▒"
	glyphOccupied    = "██"
	glyphSelected    = "[]"
	glyphUnavailable = "  "
)

// RenderCell returns the styled glyph for a cell state, highlighted when
// the cursor sits on it.
func RenderCell(state grid.CellState, cursor bool) string {
	var out string
	switch state {
	case grid.CellAvailable:
		out = StyleGreen.Render(glyphAvailable)
	case grid.CellDisabled:
		out = StyleDim.Render(glyphDisabled)
	case grid.CellOccupied:
		out = StyleRed.Render(glyphOccupied)
	case grid.CellSelected:
		out = StyleYellow.Render(glyphSelected)
	case grid.CellSelectedAdmin:
		out = StylePurple.Render(glyphSelected)
	default:
		out = glyphUnavailable
	}
	if cursor {
		return StyleBold.Render("▸") + out
	}
	return " " + out
}

// GridLegend returns the one-line legend shown under the map.
func GridLegend(bulk bool) string {
	parts := []string{
		StyleGreen.Render(glyphAvailable) + Dim(" free"),
		StyleRed.Render(glyphOccupied) + Dim(" occupied"),
		StyleDim.Render(glyphDisabled) + Dim(" disabled"),
	}
	if bulk {
		parts = append(parts, StylePurple.Render(glyphSelected)+Dim(" marked"))
	} else {
		parts = append(parts, StyleYellow.Render(glyphSelected)+Dim(" selected"))
	}
	return strings.Join(parts, "  ")
}
