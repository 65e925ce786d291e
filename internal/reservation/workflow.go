package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/domain"
	"github.com/matiasbeltran/feria/internal/grid"
)

// Phase is the workflow's position in the reservation state machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseEligible   Phase = "eligible"
	PhaseIneligible Phase = "ineligible"
	PhaseSelecting  Phase = "selecting"
	PhaseConfirming Phase = "confirming"
	PhaseAwaiting   Phase = "awaiting_payment"
	PhasePolling    Phase = "polling_settlement"
	PhaseSettled    Phase = "settled"
)

// RecheckDelay is the fixed wait before the single follow-up settlement
// check. After that second check the workflow stops polling regardless of
// outcome.
const RecheckDelay = 10 * time.Second

// maxSettlementChecks bounds status checks per return event: the immediate
// one plus one delayed recheck.
const maxSettlementChecks = 2

// Backend is the slice of the API client the workflow depends on.
type Backend interface {
	ListRequests(ctx context.Context) ([]*domain.Request, error)
	PaymentStatus(ctx context.Context) (*api.PaymentState, error)
	SelectPlot(ctx context.Context, plotID int) error
	CreatePreference(ctx context.Context, plotIDs []int) (*api.Preference, error)
	CheckSettlement(ctx context.Context, reference string) (*api.PaymentState, error)
	ForceSettleCash(ctx context.Context, reference string) (*api.PaymentState, error)
}

// ReturnStore persists the pending payment-return reference so it survives
// a client restart yet is consumed exactly once.
type ReturnStore interface {
	SavePendingReturn(reference string) error
	// ConsumePendingReturn returns the stored reference and clears it.
	// Returns "" when none is pending.
	ConsumePendingReturn() (string, error)
}

// Workflow drives one reservation attempt from eligibility to settlement.
// It is single-goroutine by design: the TUI event loop owns it.
type Workflow struct {
	backend      Backend
	returns      ReturnStore
	checkoutBase string

	phase     Phase
	reason    string
	request   *domain.Request
	remaining int
	selection *grid.Selection
	payment   *api.PaymentState

	checkoutURL string
	reference   string
	checks      int
}

// New creates a Workflow in the Idle phase.
func New(backend Backend, returns ReturnStore, checkoutBase string) *Workflow {
	return &Workflow{
		backend:      backend,
		returns:      returns,
		checkoutBase: checkoutBase,
		phase:        PhaseIdle,
	}
}

// Phase returns the current phase.
func (w *Workflow) Phase() Phase { return w.phase }

// Reason returns the ineligibility reason, if any.
func (w *Workflow) Reason() string { return w.reason }

// Request returns the approved request backing the attempt, if eligible.
func (w *Workflow) Request() *domain.Request { return w.request }

// Payment returns the latest cached payment state.
func (w *Workflow) Payment() *api.PaymentState { return w.payment }

// CheckoutURL returns the derived checkout URL once confirmed.
func (w *Workflow) CheckoutURL() string { return w.checkoutURL }

// Selection returns the live selection set, or nil outside Selecting.
func (w *Workflow) Selection() *grid.Selection { return w.selection }

// BeginSelection transitions Eligible → Selecting and returns the bounded
// selection set for the remaining plot count.
func (w *Workflow) BeginSelection() (*grid.Selection, error) {
	if w.phase != PhaseEligible {
		return nil, fmt.Errorf("cannot select plots while %s", w.phase)
	}
	w.selection = grid.NewSelection(w.remaining)
	w.phase = PhaseSelecting
	return w.selection, nil
}

// Abandon drops all in-memory workflow state. Navigating away is implicit
// cancellation; no cleanup call is made to the server.
func (w *Workflow) Abandon() {
	w.phase = PhaseIdle
	w.reason = ""
	w.request = nil
	w.selection = nil
	w.checkoutURL = ""
	w.reference = ""
	w.checks = 0
}

// Confirm claims the selected plots and creates the external payment
// intent. On success the workflow holds the checkout URL and waits for the
// user to complete payment in a separate browsing context.
func (w *Workflow) Confirm(ctx context.Context) (string, error) {
	if w.phase != PhaseSelecting {
		return "", fmt.Errorf("nothing to confirm while %s", w.phase)
	}
	if w.selection == nil || !w.selection.Full() {
		return "", fmt.Errorf("select %d plot(s) before confirming", w.remaining)
	}

	w.phase = PhaseConfirming
	ids := w.selection.IDs()

	for _, id := range ids {
		if err := w.backend.SelectPlot(ctx, id); err != nil {
			w.phase = PhaseSelecting
			return "", fmt.Errorf("claiming plot %d: %w", id, err)
		}
	}

	pref, err := w.backend.CreatePreference(ctx, ids)
	if err != nil {
		w.phase = PhaseSelecting
		return "", err
	}

	checkoutURL, err := BuildCheckoutURL(pref, w.checkoutBase)
	if err != nil {
		w.phase = PhaseSelecting
		return "", err
	}

	if pref.PreferenceID != "" {
		if err := w.returns.SavePendingReturn(pref.PreferenceID); err != nil {
			return "", fmt.Errorf("saving payment reference: %w", err)
		}
	}

	w.checkoutURL = checkoutURL
	w.phase = PhaseAwaiting
	return checkoutURL, nil
}

// SubmitReturnURL records the provider return URL after the external
// payment step. The embedded reference becomes the one the settlement
// checks use, superseding any reference held from an earlier confirm or
// resume; the persisted copy exists for restart recovery and is consumed
// at check time. Each return event gets a fresh check budget.
func (w *Workflow) SubmitReturnURL(rawURL string) error {
	ref, err := ParseReturnReference(rawURL)
	if err != nil {
		return err
	}
	if err := w.returns.SavePendingReturn(ref); err != nil {
		return fmt.Errorf("saving payment reference: %w", err)
	}
	w.reference = ref
	w.phase = PhasePolling
	w.checks = 0
	return nil
}

// ResumeReturn picks up a pending return reference persisted earlier (for
// example before a client restart). The reference is consumed on read: a
// rerun cannot trigger settlement twice. Returns false when none is
// pending.
func (w *Workflow) ResumeReturn() (bool, error) {
	ref, err := w.returns.ConsumePendingReturn()
	if err != nil {
		return false, fmt.Errorf("reading payment reference: %w", err)
	}
	if ref == "" {
		return false, nil
	}
	w.reference = ref
	w.phase = PhasePolling
	w.checks = 0
	return true, nil
}

// SettlementOutcome reports the result of one settlement check.
type SettlementOutcome struct {
	State *api.PaymentState

	// Settled is true when the payment reached a terminal status. The
	// caller must refetch the grid snapshot once on approval.
	Settled bool

	// RecheckAfter is non-zero when exactly one more check should be
	// scheduled after the given delay.
	RecheckAfter time.Duration
}

// takeReference resolves the reference to check. The persisted copy is
// consumed on every call, so it is read at most once even when the live
// reference was already set by SubmitReturnURL; a freshly stored
// reference wins over one held from an earlier confirm or resume.
func (w *Workflow) takeReference() (string, error) {
	stored, err := w.returns.ConsumePendingReturn()
	if err != nil {
		return "", fmt.Errorf("reading payment reference: %w", err)
	}
	if stored != "" {
		return stored, nil
	}
	return w.reference, nil
}

// CheckSettlementOnce performs one settlement check against the server.
// Per return event at most two checks run: the immediate one, and one
// recheck after RecheckDelay. Beyond that the workflow stops regardless of
// outcome and leaves the payment in its cached pending state.
func (w *Workflow) CheckSettlementOnce(ctx context.Context) (*SettlementOutcome, error) {
	if w.phase != PhasePolling {
		return nil, fmt.Errorf("no settlement check pending while %s", w.phase)
	}
	if w.checks >= maxSettlementChecks {
		w.phase = PhaseAwaiting
		return &SettlementOutcome{State: w.payment}, nil
	}

	ref, err := w.takeReference()
	if err != nil {
		return nil, err
	}
	if ref == "" {
		return nil, fmt.Errorf("no payment reference to check")
	}
	w.reference = ref

	w.checks++
	state, err := w.backend.CheckSettlement(ctx, ref)
	if err != nil {
		return nil, err
	}
	return w.applySettlement(state), nil
}

// ForceSettleCash settles a pending cash-equivalent payment via the manual
// override endpoint, bypassing the polling budget.
func (w *Workflow) ForceSettleCash(ctx context.Context) (*SettlementOutcome, error) {
	ref, err := w.takeReference()
	if err != nil {
		return nil, err
	}
	if ref == "" {
		return nil, fmt.Errorf("no payment reference to settle")
	}
	w.reference = ref

	state, err := w.backend.ForceSettleCash(ctx, ref)
	if err != nil {
		return nil, err
	}
	return w.applySettlement(state), nil
}

func (w *Workflow) applySettlement(state *api.PaymentState) *SettlementOutcome {
	w.payment = state

	if state.Status.Terminal() {
		w.phase = PhaseSettled
		if w.selection != nil {
			w.selection.Clear()
		}
		w.reference = ""
		return &SettlementOutcome{State: state, Settled: true}
	}

	if w.checks < maxSettlementChecks {
		return &SettlementOutcome{State: state, RecheckAfter: RecheckDelay}
	}

	// Budget exhausted: stop polling, keep the cached pending state.
	w.phase = PhaseAwaiting
	return &SettlementOutcome{State: state}
}
