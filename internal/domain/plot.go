package domain

// Occupant is the holder information attached to an occupied plot.
// Present only on the administrative grid variant.
type Occupant struct {
	Name     string
	Document string
	Phone    string
}

// Plot is a single allocable cell in the fair's grid map.
type Plot struct {
	ID       int
	Row      int
	Col      int
	Enabled  bool
	Occupied bool
	Sector   string
	Occupant *Occupant
}

// Valid reports whether the plot carries a usable identity. Plots without
// an id are rendered but never interactable.
func (p *Plot) Valid() bool {
	return p != nil && p.ID > 0
}

// Selectable reports whether an artisan may add this plot to a selection.
func (p *Plot) Selectable() bool {
	return p.Valid() && p.Enabled && !p.Occupied
}

// Grid is an immutable snapshot of the fair map. The client never patches
// it in place; a stale snapshot is replaced wholesale by a refetch.
type Grid struct {
	Rows  int
	Cols  int
	Plots []Plot
}

// At returns the plot at the given position, or nil when the cell is
// unconfigured (not every coordinate has a seeded plot).
func (g *Grid) At(row, col int) *Plot {
	for i := range g.Plots {
		if g.Plots[i].Row == row && g.Plots[i].Col == col {
			return &g.Plots[i]
		}
	}
	return nil
}

// ByID returns the plot with the given id, or nil.
func (g *Grid) ByID(id int) *Plot {
	for i := range g.Plots {
		if g.Plots[i].ID == id {
			return &g.Plots[i]
		}
	}
	return nil
}

// OccupiedCount returns the number of occupied plots in the snapshot.
func (g *Grid) OccupiedCount() int {
	n := 0
	for i := range g.Plots {
		if g.Plots[i].Occupied {
			n++
		}
	}
	return n
}
