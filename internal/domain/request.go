package domain

import "time"

// UnitPlotArea is the area of a single plot in square meters. The required
// plot count of an approved request derives from its covered area.
const UnitPlotArea = 4.0

// Request is an artisan's application for stall space.
type Request struct {
	ID          int
	UserID      int
	Title       string
	Description string
	AreaM2      float64
	Status      RequestStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RequiredPlots returns how many plots the request entitles its owner to,
// rounding partial plots up. A request with no area still covers one plot.
func (r *Request) RequiredPlots() int {
	if r.AreaM2 <= UnitPlotArea {
		return 1
	}
	n := int(r.AreaM2 / UnitPlotArea)
	if r.AreaM2 > float64(n)*UnitPlotArea {
		n++
	}
	return n
}

// Approved reports whether the request has been approved by an organizer.
func (r *Request) Approved() bool {
	return r.Status == RequestApproved
}

// User is the authenticated account as reported by the server.
type User struct {
	ID       int
	Name     string
	Email    string
	Document string
	Phone    string
	Role     Role
}
