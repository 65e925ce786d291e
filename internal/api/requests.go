package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/matiasbeltran/feria/internal/domain"
)

type wireRequest struct {
	ID          int     `json:"id"`
	UserID      int     `json:"usuario_id"`
	Title       string  `json:"titulo"`
	Description string  `json:"descripcion"`
	AreaM2      float64 `json:"superficie_m2"`
	Status      string  `json:"estado"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func (r wireRequest) toDomain() *domain.Request {
	req := &domain.Request{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		AreaM2:      r.AreaM2,
		Status:      domain.RequestStatus(r.Status),
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		req.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, r.UpdatedAt); err == nil {
		req.UpdatedAt = t
	}
	return req
}

// RequestInput carries the editable fields of a stall request.
type RequestInput struct {
	Title       string  `json:"titulo"`
	Description string  `json:"descripcion"`
	AreaM2      float64 `json:"superficie_m2"`
}

// ListRequests returns the caller's requests, or every request for roles
// with the manage-requests capability (the server decides from the token).
func (c *Client) ListRequests(ctx context.Context) ([]*domain.Request, error) {
	var resp []wireRequest
	if err := c.do(ctx, http.MethodGet, "/solicitudes", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*domain.Request, 0, len(resp))
	for _, r := range resp {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// GetRequest returns a single request by id.
func (c *Client) GetRequest(ctx context.Context, id int) (*domain.Request, error) {
	var resp wireRequest
	if err := c.do(ctx, http.MethodGet, "/solicitudes/"+strconv.Itoa(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// CreateRequest submits a new stall request.
func (c *Client) CreateRequest(ctx context.Context, in RequestInput) (*domain.Request, error) {
	var resp wireRequest
	if err := c.do(ctx, http.MethodPost, "/solicitudes", in, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// UpdateRequest replaces the editable fields of an existing request.
func (c *Client) UpdateRequest(ctx context.Context, id int, in RequestInput) error {
	return c.do(ctx, http.MethodPut, "/solicitudes/"+strconv.Itoa(id), in, nil)
}

// SetRequestStatus transitions a request's lifecycle state. Approval and
// rejection require the manage-requests capability server-side.
func (c *Client) SetRequestStatus(ctx context.Context, id int, status domain.RequestStatus) error {
	body := struct {
		Status string `json:"estado"`
	}{Status: string(status)}
	return c.do(ctx, http.MethodPatch, "/solicitudes/"+strconv.Itoa(id), body, nil)
}

// DeleteRequest removes a request.
func (c *Client) DeleteRequest(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/solicitudes/"+strconv.Itoa(id), nil, nil)
}
