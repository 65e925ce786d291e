package reservation

import (
	"context"
	"fmt"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/domain"
)

// ReasonPaymentApproved is the backend's user-facing wording for an account
// whose reservation fee is already settled. Kept verbatim so the client and
// the server tell the user the same thing.
const ReasonPaymentApproved = "Ya tienes un pago aprobado para esta feria."

// Eligibility is the outcome of the pre-selection check. A refusal always
// carries a human-readable reason; it is never silent.
type Eligibility struct {
	Eligible bool
	Reason   string

	// Request is the approved request backing the reservation, set only
	// when eligible.
	Request *domain.Request

	// Remaining is how many plots the user may still select: required
	// count minus plots already assigned.
	Remaining int
}

// CheckEligibility runs the three reads that gate the reservation flow:
// the user's request record, the current payment state, and the current
// plot-assignment count. Any fetch failure is returned as an error after
// being folded into the reason, so a refusal is always explained.
func (w *Workflow) CheckEligibility(ctx context.Context, userID int) (*Eligibility, error) {
	requests, err := w.backend.ListRequests(ctx)
	if err != nil {
		return w.refuse("Could not load your request: " + api.UserMessage(err)), err
	}

	var approved *domain.Request
	for _, r := range requests {
		if r.UserID == userID && r.Approved() {
			approved = r
			break
		}
	}
	if approved == nil {
		return w.refuse("You have no approved request. Submit a request and wait for approval before picking plots."), nil
	}

	payment, err := w.backend.PaymentStatus(ctx)
	if err != nil {
		return w.refuse("Could not check your payment status: " + api.UserMessage(err)), err
	}

	switch payment.Status {
	case domain.PaymentApproved:
		return w.refuse(ReasonPaymentApproved), nil
	case domain.PaymentPending:
		return w.refuse("You already have a payment in progress. Finish or cancel it before selecting again."), nil
	}

	required := approved.RequiredPlots()
	if payment.AssignedPlots >= required {
		return w.refuse(fmt.Sprintf("All %d plot(s) of your request are already assigned.", required)), nil
	}

	w.payment = payment
	elig := &Eligibility{
		Eligible:  true,
		Request:   approved,
		Remaining: required - payment.AssignedPlots,
	}
	w.accept(elig)
	return elig, nil
}

func (w *Workflow) refuse(reason string) *Eligibility {
	w.phase = PhaseIneligible
	w.reason = reason
	w.request = nil
	w.selection = nil
	return &Eligibility{Eligible: false, Reason: reason}
}

func (w *Workflow) accept(e *Eligibility) {
	w.phase = PhaseEligible
	w.reason = ""
	w.request = e.Request
	w.remaining = e.Remaining
}
