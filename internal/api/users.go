package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/matiasbeltran/feria/internal/domain"
)

// ListUsers returns every registered account. Admin-only server-side.
func (c *Client) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var resp []wireUser
	if err := c.do(ctx, http.MethodGet, "/api/usuarios", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(resp))
	for _, u := range resp {
		du := u.toDomain()
		out = append(out, &du)
	}
	return out, nil
}

// UserInput carries the editable fields of an account.
type UserInput struct {
	Name   string `json:"nombre"`
	Email  string `json:"email"`
	Phone  string `json:"telefono"`
	RoleID int    `json:"rol_id,omitempty"`
}

// UpdateUser edits an account's profile fields.
func (c *Client) UpdateUser(ctx context.Context, id int, in UserInput) error {
	return c.do(ctx, http.MethodPut, "/api/usuarios/"+strconv.Itoa(id), in, nil)
}

// DeleteUser removes an account. Admin-only server-side.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/usuarios/"+strconv.Itoa(id), nil, nil)
}
