package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePaymentStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want PaymentStatus
	}{
		{"approved", PaymentApproved},
		{"auto_approved", PaymentApproved},
		{"pending", PaymentPending},
		{"in_process", PaymentPending},
		{"rejected", PaymentRejected},
		{"cancelled", PaymentCancelled},
		{"", PaymentNone},
		{"none", PaymentNone},
		{"something_new", PaymentPending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePaymentStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestPaymentStatusTerminal(t *testing.T) {
	assert.True(t, PaymentApproved.Terminal())
	assert.True(t, PaymentRejected.Terminal())
	assert.True(t, PaymentCancelled.Terminal())
	assert.False(t, PaymentPending.Terminal())
	assert.False(t, PaymentNone.Terminal())
}

func TestRoleIDRoundTrip(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleOrganizer, RoleArtisan} {
		assert.Equal(t, role, RoleFromID(RoleID(role)))
	}

	// Unknown ids map to the least privileged role.
	assert.Equal(t, RoleArtisan, RoleFromID(0))
	assert.Equal(t, RoleArtisan, RoleFromID(99))
}

func TestCan(t *testing.T) {
	// Artisans reserve and pay; they never see occupants or manage anything.
	assert.True(t, Can(RoleArtisan, CapReservePlots))
	assert.True(t, Can(RoleArtisan, CapDownloadReceipt))
	assert.False(t, Can(RoleArtisan, CapViewOccupants))
	assert.False(t, Can(RoleArtisan, CapManageRequests))
	assert.False(t, Can(RoleArtisan, CapManageUsers))

	// Organizers run the fair but do not administer accounts.
	assert.True(t, Can(RoleOrganizer, CapBulkAvailability))
	assert.True(t, Can(RoleOrganizer, CapManageRequests))
	assert.True(t, Can(RoleOrganizer, CapViewAdminGrid))
	assert.False(t, Can(RoleOrganizer, CapManageUsers))
	assert.False(t, Can(RoleOrganizer, CapReservePlots))

	// Admins additionally manage accounts.
	assert.True(t, Can(RoleAdmin, CapManageUsers))
	assert.True(t, Can(RoleAdmin, CapViewAdminGrid))

	// Unknown roles hold nothing.
	assert.False(t, Can(Role("ghost"), CapReservePlots))
}
