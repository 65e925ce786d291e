package grid

import (
	"fmt"

	"github.com/matiasbeltran/feria/internal/domain"
)

// Selection is the ordered set of plots chosen in the current session.
// Reservation selections are bounded by the approved request's required
// count; bulk (organizer) selections are unbounded and independent.
// It lives only in client memory and is cleared on confirm, cancel, or
// navigation away.
type Selection struct {
	limit int
	bulk  bool
	ids   []int
}

// NewSelection creates a reservation selection bounded to limit plots.
func NewSelection(limit int) *Selection {
	return &Selection{limit: limit}
}

// NewBulkSelection creates an unbounded organizer selection for bulk
// enable/disable operations.
func NewBulkSelection() *Selection {
	return &Selection{bulk: true}
}

// Bulk reports whether this is an organizer bulk selection.
func (s *Selection) Bulk() bool { return s.bulk }

// Limit returns the maximum size, or 0 for unbounded selections.
func (s *Selection) Limit() int { return s.limit }

// Len returns the current selection size.
func (s *Selection) Len() int { return len(s.ids) }

// IDs returns the selected plot ids in insertion order.
func (s *Selection) IDs() []int {
	out := make([]int, len(s.ids))
	copy(out, s.ids)
	return out
}

// Contains reports membership by plot id.
func (s *Selection) Contains(id int) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Full reports whether a bounded selection has reached its limit.
func (s *Selection) Full() bool {
	return !s.bulk && s.limit > 0 && len(s.ids) >= s.limit
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = s.ids[:0]
}

// Toggle adds or removes the plot. Adding fails with a reason when the plot
// is not selectable or the selection is full; removing always succeeds.
// Bulk selections skip the limit check but still refuse invalid plots.
func (s *Selection) Toggle(p *domain.Plot) error {
	if !p.Valid() {
		return fmt.Errorf("that cell has no plot")
	}

	// Removal first: a selected plot can always be deselected.
	for i, v := range s.ids {
		if v == p.ID {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return nil
		}
	}

	if !s.bulk {
		if !p.Enabled {
			return fmt.Errorf("plot %d is disabled", p.ID)
		}
		if p.Occupied {
			return fmt.Errorf("plot %d is already occupied", p.ID)
		}
		if s.Full() {
			return fmt.Errorf("max selection reached (%d plot(s) allowed)", s.limit)
		}
	}

	s.ids = append(s.ids, p.ID)
	return nil
}
