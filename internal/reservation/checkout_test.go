package reservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasbeltran/feria/internal/api"
)

const checkoutBase = "https://sandbox.mercadopago.com.ar"

func TestBuildCheckoutURL_FromInitPoint(t *testing.T) {
	got, err := BuildCheckoutURL(&api.Preference{
		InitPoint: "https://sandbox.mercadopago.com.ar/checkout/v1/redirect?pref_id=p1",
		Sandbox:   true,
	}, checkoutBase)
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.mercadopago.com.ar/checkout/v1/redirect?pref_id=p1", got)
}

func TestBuildCheckoutURL_SandboxRewritesProductionHost(t *testing.T) {
	// The server sometimes hands back a production init_point for a sandbox
	// preference; the client corrects the host before showing it.
	got, err := BuildCheckoutURL(&api.Preference{
		InitPoint: "https://www.mercadopago.com.ar/x",
		Sandbox:   true,
	}, checkoutBase)
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.mercadopago.com.ar/x", got)
}

func TestBuildCheckoutURL_ProductionHostKeptWhenNotSandbox(t *testing.T) {
	got, err := BuildCheckoutURL(&api.Preference{
		InitPoint: "https://www.mercadopago.com.ar/x",
		Sandbox:   false,
	}, checkoutBase)
	require.NoError(t, err)
	assert.Equal(t, "https://www.mercadopago.com.ar/x", got)
}

func TestBuildCheckoutURL_FromPreferenceID(t *testing.T) {
	got, err := BuildCheckoutURL(&api.Preference{PreferenceID: "abc123"}, checkoutBase)
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.mercadopago.com.ar/checkout/v1/redirect?pref_id=abc123", got)
}

func TestBuildCheckoutURL_EmptyPreference(t *testing.T) {
	_, err := BuildCheckoutURL(&api.Preference{}, checkoutBase)
	assert.Error(t, err)

	_, err = BuildCheckoutURL(nil, checkoutBase)
	assert.Error(t, err)
}

func TestNormalizeCheckoutURL_CollapsesDoubledSandbox(t *testing.T) {
	got := NormalizeCheckoutURL("https://sandbox.sandbox.mercadopago.com.ar/x", true)
	assert.Equal(t, "https://sandbox.mercadopago.com.ar/x", got)

	// Repeated doubling collapses fully.
	got = NormalizeCheckoutURL("https://sandbox.sandbox.sandbox.mercadopago.com.ar/x", true)
	assert.Equal(t, "https://sandbox.mercadopago.com.ar/x", got)
}

func TestParseReturnReference_Priority(t *testing.T) {
	// external_reference wins over the other parameters when several appear.
	ref, err := ParseReturnReference(
		"https://app.example.com/pago-exitoso?payment_id=9&external_reference=ext-1&pref_id=p2")
	require.NoError(t, err)
	assert.Equal(t, "ext-1", ref)

	ref, err = ParseReturnReference("https://app.example.com/back?pref_id=p2&payment_id=9")
	require.NoError(t, err)
	assert.Equal(t, "p2", ref)

	ref, err = ParseReturnReference("https://app.example.com/back?payment_id=9")
	require.NoError(t, err)
	assert.Equal(t, "9", ref)
}

func TestParseReturnReference_NoReference(t *testing.T) {
	_, err := ParseReturnReference("https://app.example.com/back?status=approved")
	assert.Error(t, err)
}

func TestParseReturnReference_TrimsWhitespace(t *testing.T) {
	ref, err := ParseReturnReference("  https://x.test/?external_reference=r1 \n")
	require.NoError(t, err)
	assert.Equal(t, "r1", ref)
}
