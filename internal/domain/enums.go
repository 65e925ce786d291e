package domain

// Role is the closed set of user roles reported by the server.
type Role string

const (
	RoleArtisan   Role = "artisan"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// roleIDs maps the numeric role ids used on the wire to named roles.
var roleIDs = map[int]Role{
	1: RoleAdmin,
	2: RoleOrganizer,
	3: RoleArtisan,
}

// RoleFromID converts a wire role id to a Role. Unknown ids map to
// RoleArtisan, the least privileged role.
func RoleFromID(id int) Role {
	if r, ok := roleIDs[id]; ok {
		return r
	}
	return RoleArtisan
}

// RoleID converts a Role back to its wire id.
func RoleID(role Role) int {
	for id, r := range roleIDs {
		if r == role {
			return id
		}
	}
	return 3
}

// Capability names an action a role may or may not perform.
type Capability string

const (
	CapViewOccupants    Capability = "view_occupants"
	CapBulkAvailability Capability = "bulk_availability"
	CapManageRequests   Capability = "manage_requests"
	CapManageUsers      Capability = "manage_users"
	CapReservePlots     Capability = "reserve_plots"
	CapDownloadReceipt  Capability = "download_receipt"
	CapViewAdminGrid    Capability = "view_admin_grid"
	CapForceSettleCash  Capability = "force_settle_cash"
)

// capabilities is the single place role checks live. Views ask Can()
// instead of comparing role values themselves.
var capabilities = map[Role]map[Capability]bool{
	RoleArtisan: {
		CapReservePlots:    true,
		CapDownloadReceipt: true,
		CapForceSettleCash: true,
	},
	RoleOrganizer: {
		CapViewOccupants:    true,
		CapBulkAvailability: true,
		CapManageRequests:   true,
		CapViewAdminGrid:    true,
	},
	RoleAdmin: {
		CapViewOccupants:    true,
		CapBulkAvailability: true,
		CapManageRequests:   true,
		CapManageUsers:      true,
		CapViewAdminGrid:    true,
	},
}

// Can reports whether the given role holds the capability.
func Can(role Role, cap Capability) bool {
	return capabilities[role][cap]
}

// PaymentStatus is the settlement state of a reservation payment.
// The authoritative copy lives server-side; the client holds a cached read.
type PaymentStatus string

const (
	PaymentNone      PaymentStatus = "none"
	PaymentPending   PaymentStatus = "pending"
	PaymentApproved  PaymentStatus = "approved"
	PaymentRejected  PaymentStatus = "rejected"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Terminal reports whether the status is a settlement outcome the client
// should stop polling for.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentApproved, PaymentRejected, PaymentCancelled:
		return true
	}
	return false
}

// ParsePaymentStatus normalizes the status strings the server emits.
// "auto_approved" is the server's wording for an approval confirmed during
// a check-and-auto-approve call.
func ParsePaymentStatus(raw string) PaymentStatus {
	switch raw {
	case "approved", "auto_approved":
		return PaymentApproved
	case "pending", "in_process":
		return PaymentPending
	case "rejected":
		return PaymentRejected
	case "cancelled":
		return PaymentCancelled
	case "", "none":
		return PaymentNone
	}
	return PaymentPending
}

// RequestStatus is the lifecycle state of a stall request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)
