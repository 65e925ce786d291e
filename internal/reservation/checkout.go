// Package reservation drives the plot reservation and payment workflow:
// eligibility, selection confirmation, checkout redirection, and bounded
// settlement polling. All state here is client-side and advisory; the
// server remains authoritative.
package reservation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/matiasbeltran/feria/internal/api"
)

// checkoutRedirectPath is the provider's hosted checkout path used when the
// server hands back only a preference id instead of a full URL.
const checkoutRedirectPath = "/checkout/v1/redirect"

// BuildCheckoutURL derives the final checkout URL from a payment
// preference. A full init_point is normalized; a bare preference id is
// expanded against the configured checkout base.
func BuildCheckoutURL(pref *api.Preference, checkoutBase string) (string, error) {
	if pref == nil {
		return "", fmt.Errorf("empty payment preference")
	}
	if pref.InitPoint != "" {
		return NormalizeCheckoutURL(pref.InitPoint, pref.Sandbox), nil
	}
	if pref.PreferenceID != "" {
		return strings.TrimSuffix(checkoutBase, "/") + checkoutRedirectPath +
			"?pref_id=" + url.QueryEscape(pref.PreferenceID), nil
	}
	return "", fmt.Errorf("payment preference carries neither init_point nor preference_id")
}

// NormalizeCheckoutURL corrects two known defects in server-provided
// checkout URLs before they are handed to the user:
//
//   - sandbox preferences whose init_point still carries the production
//     "www." host are rewritten to the sandbox host;
//   - doubled sandbox markers ("sandbox.sandbox.") are collapsed.
//
// This masks a backend defect and is kept for compatibility with it.
func NormalizeCheckoutURL(raw string, sandbox bool) string {
	out := raw
	for strings.Contains(out, "sandbox.sandbox.") {
		out = strings.Replace(out, "sandbox.sandbox.", "sandbox.", 1)
	}
	if sandbox && strings.Contains(out, "://www.mercadopago") {
		out = strings.Replace(out, "://www.mercadopago", "://sandbox.mercadopago", 1)
	}
	return out
}

// returnRefParams are the query parameters, in priority order, that may
// carry the external reference on the provider's return URL.
var returnRefParams = []string{"external_reference", "preference_id", "pref_id", "payment_id"}

// ParseReturnReference extracts the opaque reference id from a provider
// return URL. Returns an error when the URL is unparseable or carries no
// known reference parameter.
func ParseReturnReference(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parsing return URL: %w", err)
	}
	q := u.Query()
	for _, key := range returnRefParams {
		if v := q.Get(key); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("return URL carries no payment reference")
}
