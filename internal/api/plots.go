package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/matiasbeltran/feria/internal/domain"
)

type wirePlot struct {
	ID       int    `json:"id"`
	Row      int    `json:"fila"`
	Col      int    `json:"columna"`
	Enabled  bool   `json:"habilitada"`
	Occupied bool   `json:"ocupada"`
	Sector   string `json:"sector"`

	// Occupant fields, present only on the admin variant.
	OccupantName     string `json:"ocupante_nombre,omitempty"`
	OccupantDocument string `json:"ocupante_dni,omitempty"`
	OccupantPhone    string `json:"ocupante_telefono,omitempty"`
}

type wireGrid struct {
	Rows  int        `json:"filas"`
	Cols  int        `json:"columnas"`
	Plots []wirePlot `json:"parcelas"`
}

func (g wireGrid) toDomain() *domain.Grid {
	grid := &domain.Grid{Rows: g.Rows, Cols: g.Cols}
	for _, p := range g.Plots {
		plot := domain.Plot{
			ID:       p.ID,
			Row:      p.Row,
			Col:      p.Col,
			Enabled:  p.Enabled,
			Occupied: p.Occupied,
			Sector:   p.Sector,
		}
		if p.Occupied && p.OccupantName != "" {
			plot.Occupant = &domain.Occupant{
				Name:     p.OccupantName,
				Document: p.OccupantDocument,
				Phone:    p.OccupantPhone,
			}
		}
		grid.Plots = append(grid.Plots, plot)
	}
	return grid
}

// FetchGrid loads the full grid snapshot. Roles with the admin-grid
// capability get the administrative variant, which includes occupant detail.
func (c *Client) FetchGrid(ctx context.Context, role domain.Role) (*domain.Grid, error) {
	path := "/api/v1/mapa/parcelas"
	if domain.Can(role, domain.CapViewAdminGrid) {
		path = "/api/v1/admin/parcelas"
	}
	var resp wireGrid
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// SelectPlot claims a plot for the caller's approved request.
func (c *Client) SelectPlot(ctx context.Context, plotID int) error {
	path := fmt.Sprintf("/api/v1/parcelas/%d/seleccionar", plotID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// SetBulkAvailability enables or disables the given plots. Organizer-only.
func (c *Client) SetBulkAvailability(ctx context.Context, plotIDs []int, enable bool) error {
	action := "deshabilitar"
	if enable {
		action = "habilitar"
	}
	body := struct {
		IDs []int `json:"ids"`
	}{IDs: plotIDs}
	return c.do(ctx, http.MethodPost, "/api/v1/admin/parcelas/"+action, body, nil)
}
