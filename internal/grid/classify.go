// Package grid holds the client-side view-model for the fair map: pure
// classification of plot cells and the bounded local selection set. It does
// no I/O; the snapshot it works over is fetched and replaced by the caller.
package grid

import "github.com/matiasbeltran/feria/internal/domain"

// CellState is the visual classification of a plot cell.
type CellState string

const (
	// CellUnavailable marks a cell with no usable plot behind it.
	CellUnavailable CellState = "unavailable"
	CellDisabled    CellState = "disabled"
	CellOccupied    CellState = "occupied"
	CellAvailable   CellState = "available"
	CellSelected    CellState = "selected"
	// CellSelectedAdmin marks membership in the organizer bulk set.
	CellSelectedAdmin CellState = "selected-admin"
)

// Classify maps a plot plus the viewer's role and selection membership to a
// cell state. Local selection wins over disabled, disabled over occupied,
// occupied over available. A nil plot or one without an id is always
// unavailable regardless of its other fields.
func Classify(p *domain.Plot, role domain.Role, sel *Selection) CellState {
	if !p.Valid() {
		return CellUnavailable
	}
	if sel != nil && sel.Contains(p.ID) {
		if sel.Bulk() && domain.Can(role, domain.CapBulkAvailability) {
			return CellSelectedAdmin
		}
		return CellSelected
	}
	if !p.Enabled {
		return CellDisabled
	}
	if p.Occupied {
		return CellOccupied
	}
	return CellAvailable
}
