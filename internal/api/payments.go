package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/matiasbeltran/feria/internal/domain"
)

// Preference is the server's answer to a create-payment-intent call.
// Either InitPoint (a full checkout URL) or PreferenceID (an opaque
// reference) may be present; the reservation workflow derives the final
// redirect from whichever exists.
type Preference struct {
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
	Sandbox      bool   `json:"sandbox"`
}

// CreatePreference submits the selected plot ids and creates the external
// payment intent for the caller's approved request.
func (c *Client) CreatePreference(ctx context.Context, plotIDs []int) (*Preference, error) {
	body := struct {
		PlotIDs []int `json:"parcela_ids"`
	}{PlotIDs: plotIDs}

	var resp Preference
	if err := c.do(ctx, http.MethodPost, "/api/v1/pago/crear-preferencia", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PaymentState is the cached read of the server-side payment record.
type PaymentState struct {
	Status        domain.PaymentStatus
	PaymentID     int
	Reference     string
	AssignedPlots int
}

type wirePayment struct {
	Status        string `json:"status"`
	PaymentID     int    `json:"pago_id"`
	Reference     string `json:"referencia"`
	AssignedPlots int    `json:"parcelas_asignadas"`
}

func (p wirePayment) toState() *PaymentState {
	return &PaymentState{
		Status:        domain.ParsePaymentStatus(p.Status),
		PaymentID:     p.PaymentID,
		Reference:     p.Reference,
		AssignedPlots: p.AssignedPlots,
	}
}

// PaymentStatus returns the caller's current payment state.
func (c *Client) PaymentStatus(ctx context.Context) (*PaymentState, error) {
	var resp wirePayment
	if err := c.do(ctx, http.MethodGet, "/api/v1/pago/estado", nil, &resp); err != nil {
		return nil, err
	}
	return resp.toState(), nil
}

// CheckSettlement asks the server to check the external reference with the
// provider and auto-approve when settled. Called on return from checkout.
func (c *Client) CheckSettlement(ctx context.Context, reference string) (*PaymentState, error) {
	var resp wirePayment
	path := "/api/v1/pago/check-and-auto-approve/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toState(), nil
}

// ForceSettleCash marks a pending cash-equivalent payment as settled,
// bypassing the polling flow. The server validates the claim.
func (c *Client) ForceSettleCash(ctx context.Context, reference string) (*PaymentState, error) {
	var resp wirePayment
	path := "/api/v1/pago/auto-aprobar-pago-facil/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toState(), nil
}

// DownloadReceipt fetches the payment receipt as raw bytes plus the
// server-suggested filename. Only meaningful once the payment is approved.
func (c *Client) DownloadReceipt(ctx context.Context, paymentID int) ([]byte, string, error) {
	path := "/api/v1/pago/descargar-comprobante/" + strconv.Itoa(paymentID)
	return c.getBinary(ctx, path)
}
