package api

import (
	"context"
	"net/http"

	"github.com/matiasbeltran/feria/internal/domain"
)

// LoginInput carries the credentials for POST /auth/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput carries the fields for POST /auth/register.
type RegisterInput struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Document string `json:"dni"`
	Phone    string `json:"telefono"`
}

// Session is the result of a successful login or auth check: the bearer
// token plus the account it belongs to.
type Session struct {
	Token string
	User  domain.User
}

type wireUser struct {
	ID       int    `json:"id"`
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Document string `json:"dni"`
	Phone    string `json:"telefono"`
	RoleID   int    `json:"rol_id"`
}

func (u wireUser) toDomain() domain.User {
	return domain.User{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Document: u.Document,
		Phone:    u.Phone,
		Role:     domain.RoleFromID(u.RoleID),
	}
}

type loginResponse struct {
	Token string   `json:"token"`
	User  wireUser `json:"usuario"`
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, in LoginInput) (*Session, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &resp); err != nil {
		return nil, err
	}
	return &Session{Token: resp.Token, User: resp.User.toDomain()}, nil
}

// Register creates a new artisan account.
func (c *Client) Register(ctx context.Context, in RegisterInput) error {
	return c.do(ctx, http.MethodPost, "/auth/register", in, nil)
}

// Logout invalidates the server-side session. Local credential cleanup is
// the caller's responsibility regardless of the outcome here.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// CheckAuth validates the stored token and returns the current account.
func (c *Client) CheckAuth(ctx context.Context) (*domain.User, error) {
	var resp struct {
		User wireUser `json:"usuario"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/check-auth", nil, &resp); err != nil {
		return nil, err
	}
	u := resp.User.toDomain()
	return &u, nil
}
