package reservation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/domain"
)

// fakeBackend scripts the server side of the workflow.
type fakeBackend struct {
	requests []*domain.Request
	payment  *api.PaymentState
	pref     *api.Preference

	// settlements is consumed in order, one element per CheckSettlement
	// call. ForceSettleCash always returns an approved state.
	settlements []*api.PaymentState

	selectErr    error
	selectedIDs  []int
	checkedRefs  []string
	settlesCalls int
}

func (f *fakeBackend) ListRequests(context.Context) ([]*domain.Request, error) {
	return f.requests, nil
}

func (f *fakeBackend) PaymentStatus(context.Context) (*api.PaymentState, error) {
	if f.payment == nil {
		return &api.PaymentState{Status: domain.PaymentNone}, nil
	}
	return f.payment, nil
}

func (f *fakeBackend) SelectPlot(_ context.Context, plotID int) error {
	if f.selectErr != nil {
		return f.selectErr
	}
	f.selectedIDs = append(f.selectedIDs, plotID)
	return nil
}

func (f *fakeBackend) CreatePreference(context.Context, []int) (*api.Preference, error) {
	if f.pref == nil {
		return nil, fmt.Errorf("no preference scripted")
	}
	return f.pref, nil
}

func (f *fakeBackend) CheckSettlement(_ context.Context, ref string) (*api.PaymentState, error) {
	f.checkedRefs = append(f.checkedRefs, ref)
	if len(f.settlements) == 0 {
		return &api.PaymentState{Status: domain.PaymentPending}, nil
	}
	state := f.settlements[0]
	f.settlements = f.settlements[1:]
	return state, nil
}

func (f *fakeBackend) ForceSettleCash(_ context.Context, ref string) (*api.PaymentState, error) {
	f.settlesCalls++
	return &api.PaymentState{Status: domain.PaymentApproved, Reference: ref}, nil
}

// memReturns is an in-memory consume-once return store.
type memReturns struct {
	ref string
}

func (m *memReturns) SavePendingReturn(reference string) error {
	m.ref = reference
	return nil
}

func (m *memReturns) ConsumePendingReturn() (string, error) {
	ref := m.ref
	m.ref = ""
	return ref, nil
}

func approvedRequest(userID int, area float64) *domain.Request {
	return &domain.Request{ID: 1, UserID: userID, Title: "Ceramics", AreaM2: area,
		Status: domain.RequestApproved}
}

func eligibleWorkflow(t *testing.T, backend *fakeBackend) *Workflow {
	t.Helper()
	wf := New(backend, &memReturns{}, "https://sandbox.mercadopago.com.ar")
	elig, err := wf.CheckEligibility(context.Background(), 10)
	require.NoError(t, err)
	require.True(t, elig.Eligible)
	return wf
}

func TestCheckEligibility_NoApprovedRequest(t *testing.T) {
	backend := &fakeBackend{
		requests: []*domain.Request{
			{ID: 1, UserID: 10, Status: domain.RequestPending},
			{ID: 2, UserID: 99, Status: domain.RequestApproved},
		},
	}
	wf := New(backend, &memReturns{}, "")

	elig, err := wf.CheckEligibility(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, elig.Eligible)
	assert.Contains(t, elig.Reason, "no approved request")
	assert.Equal(t, PhaseIneligible, wf.Phase())
}

func TestCheckEligibility_ApprovedPaymentRefuses(t *testing.T) {
	backend := &fakeBackend{
		requests: []*domain.Request{approvedRequest(10, 4)},
		payment:  &api.PaymentState{Status: domain.PaymentApproved},
	}
	wf := New(backend, &memReturns{}, "")

	elig, err := wf.CheckEligibility(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, elig.Eligible)
	assert.Equal(t, ReasonPaymentApproved, elig.Reason)
}

func TestCheckEligibility_PendingPaymentRefuses(t *testing.T) {
	backend := &fakeBackend{
		requests: []*domain.Request{approvedRequest(10, 4)},
		payment:  &api.PaymentState{Status: domain.PaymentPending},
	}
	wf := New(backend, &memReturns{}, "")

	elig, err := wf.CheckEligibility(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, elig.Eligible)
	assert.Contains(t, elig.Reason, "payment in progress")
}

func TestCheckEligibility_AllPlotsAssignedRefuses(t *testing.T) {
	backend := &fakeBackend{
		requests: []*domain.Request{approvedRequest(10, 8)},
		payment:  &api.PaymentState{Status: domain.PaymentNone, AssignedPlots: 2},
	}
	wf := New(backend, &memReturns{}, "")

	elig, err := wf.CheckEligibility(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, elig.Eligible)
	assert.Contains(t, elig.Reason, "already assigned")
}

func TestCheckEligibility_RemainingAccountsForAssigned(t *testing.T) {
	backend := &fakeBackend{
		requests: []*domain.Request{approvedRequest(10, 12)},
		payment:  &api.PaymentState{Status: domain.PaymentNone, AssignedPlots: 1},
	}
	wf := New(backend, &memReturns{}, "")

	elig, err := wf.CheckEligibility(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, elig.Eligible)
	assert.Equal(t, 2, elig.Remaining)
	assert.Equal(t, PhaseEligible, wf.Phase())
}

func TestConfirm_ClaimsPlotsAndBuildsCheckoutURL(t *testing.T) {
	backend := &fakeBackend{
		requests: []*domain.Request{approvedRequest(10, 8)},
		pref:     &api.Preference{PreferenceID: "pref-1"},
	}
	wf := eligibleWorkflow(t, backend)

	sel, err := wf.BeginSelection()
	require.NoError(t, err)
	require.NoError(t, sel.Toggle(&domain.Plot{ID: 4, Enabled: true}))
	require.NoError(t, sel.Toggle(&domain.Plot{ID: 5, Enabled: true}))

	url, err := wf.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.mercadopago.com.ar/checkout/v1/redirect?pref_id=pref-1", url)
	assert.Equal(t, []int{4, 5}, backend.selectedIDs)
	assert.Equal(t, PhaseAwaiting, wf.Phase())
}

func TestConfirm_RequiresFullSelection(t *testing.T) {
	backend := &fakeBackend{requests: []*domain.Request{approvedRequest(10, 8)}}
	wf := eligibleWorkflow(t, backend)

	sel, err := wf.BeginSelection()
	require.NoError(t, err)
	require.NoError(t, sel.Toggle(&domain.Plot{ID: 4, Enabled: true}))

	_, err = wf.Confirm(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseSelecting, wf.Phase())
}

func TestConfirm_SelectPlotFailureReturnsToSelecting(t *testing.T) {
	backend := &fakeBackend{
		requests:  []*domain.Request{approvedRequest(10, 4)},
		selectErr: fmt.Errorf("plot taken"),
	}
	wf := eligibleWorkflow(t, backend)

	sel, err := wf.BeginSelection()
	require.NoError(t, err)
	require.NoError(t, sel.Toggle(&domain.Plot{ID: 4, Enabled: true}))

	_, err = wf.Confirm(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseSelecting, wf.Phase())
}

func TestSettlement_AtMostTwoChecksPerReturn(t *testing.T) {
	backend := &fakeBackend{
		requests: []*domain.Request{approvedRequest(10, 4)},
		settlements: []*api.PaymentState{
			{Status: domain.PaymentPending},
			{Status: domain.PaymentPending},
		},
	}
	wf := New(backend, &memReturns{}, "")
	require.NoError(t, wf.SubmitReturnURL("https://x.test/?external_reference=r1"))

	// First check: pending, one recheck scheduled.
	outcome, err := wf.CheckSettlementOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Settled)
	assert.Equal(t, RecheckDelay, outcome.RecheckAfter)

	// Second check: still pending, budget exhausted, no further recheck.
	outcome, err = wf.CheckSettlementOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Settled)
	assert.Zero(t, outcome.RecheckAfter)
	assert.Equal(t, PhaseAwaiting, wf.Phase())

	// A third attempt must not reach the server.
	_, err = wf.CheckSettlementOnce(context.Background())
	require.Error(t, err)
	assert.Len(t, backend.checkedRefs, 2)
}

func TestSettlement_AutoApprovedSettles(t *testing.T) {
	backend := &fakeBackend{
		settlements: []*api.PaymentState{
			{Status: domain.PaymentApproved, AssignedPlots: 2},
		},
	}
	wf := New(backend, &memReturns{}, "")
	require.NoError(t, wf.SubmitReturnURL("https://x.test/?external_reference=r1"))

	outcome, err := wf.CheckSettlementOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Settled)
	assert.Equal(t, domain.PaymentApproved, outcome.State.Status)
	assert.Equal(t, PhaseSettled, wf.Phase())

	// The reference is consumed: a second submit-free check has nothing.
	_, err = wf.CheckSettlementOnce(context.Background())
	assert.Error(t, err)
}

func TestSettlement_TerminalRejectionStopsPolling(t *testing.T) {
	backend := &fakeBackend{
		settlements: []*api.PaymentState{{Status: domain.PaymentRejected}},
	}
	wf := New(backend, &memReturns{}, "")
	require.NoError(t, wf.SubmitReturnURL("https://x.test/?pref_id=p9"))

	outcome, err := wf.CheckSettlementOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Settled)
	assert.Zero(t, outcome.RecheckAfter)
	assert.Equal(t, PhaseSettled, wf.Phase())
}

func TestSubmitReturnURL_SupersedesEarlierReference(t *testing.T) {
	backend := &fakeBackend{
		requests: []*domain.Request{approvedRequest(10, 4)},
		pref:     &api.Preference{PreferenceID: "PREF-1"},
		settlements: []*api.PaymentState{
			{Status: domain.PaymentPending},
			{Status: domain.PaymentPending},
			{Status: domain.PaymentApproved, AssignedPlots: 1},
		},
	}
	returns := &memReturns{}
	wf := New(backend, returns, "https://sandbox.mercadopago.com.ar")

	elig, err := wf.CheckEligibility(context.Background(), 10)
	require.NoError(t, err)
	require.True(t, elig.Eligible)

	sel, err := wf.BeginSelection()
	require.NoError(t, err)
	require.NoError(t, sel.Toggle(&domain.Plot{ID: 4, Enabled: true}))
	_, err = wf.Confirm(context.Background())
	require.NoError(t, err)

	// The preference id persisted at confirm drives the first return event,
	// which runs out its two checks still pending.
	resumed, err := wf.ResumeReturn()
	require.NoError(t, err)
	require.True(t, resumed)
	for i := 0; i < 2; i++ {
		_, err = wf.CheckSettlementOnce(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, PhaseAwaiting, wf.Phase())

	// Pasting the provider return URL must make later checks use the
	// reference it carries, not the stale preference id.
	require.NoError(t, wf.SubmitReturnURL("https://x.test/?external_reference=EXT-9"))
	outcome, err := wf.CheckSettlementOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Settled)
	assert.Equal(t, []string{"PREF-1", "PREF-1", "EXT-9"}, backend.checkedRefs)

	// The persisted copy was consumed by the check; nothing lingers to
	// re-trigger settlement on a later launch.
	ref, err := returns.ConsumePendingReturn()
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestResumeReturn_ConsumesExactlyOnce(t *testing.T) {
	returns := &memReturns{}
	require.NoError(t, returns.SavePendingReturn("r-restart"))

	backend := &fakeBackend{
		settlements: []*api.PaymentState{{Status: domain.PaymentApproved}},
	}
	wf := New(backend, returns, "")

	resumed, err := wf.ResumeReturn()
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, PhasePolling, wf.Phase())

	_, err = wf.CheckSettlementOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"r-restart"}, backend.checkedRefs)

	// A fresh workflow over the same store finds nothing pending.
	wf2 := New(backend, returns, "")
	resumed, err = wf2.ResumeReturn()
	require.NoError(t, err)
	assert.False(t, resumed)
}

func TestForceSettleCash(t *testing.T) {
	returns := &memReturns{}
	require.NoError(t, returns.SavePendingReturn("cash-ref"))

	backend := &fakeBackend{}
	wf := New(backend, returns, "")

	outcome, err := wf.ForceSettleCash(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Settled)
	assert.Equal(t, domain.PaymentApproved, outcome.State.Status)
	assert.Equal(t, 1, backend.settlesCalls)
}

func TestForceSettleCash_NoReference(t *testing.T) {
	wf := New(&fakeBackend{}, &memReturns{}, "")
	_, err := wf.ForceSettleCash(context.Background())
	assert.Error(t, err)
}

func TestAbandon_DropsSelectionState(t *testing.T) {
	backend := &fakeBackend{requests: []*domain.Request{approvedRequest(10, 8)}}
	wf := eligibleWorkflow(t, backend)

	sel, err := wf.BeginSelection()
	require.NoError(t, err)
	require.NoError(t, sel.Toggle(&domain.Plot{ID: 4, Enabled: true}))

	wf.Abandon()
	assert.Equal(t, PhaseIdle, wf.Phase())
	assert.Nil(t, wf.Selection())
	assert.Empty(t, wf.CheckoutURL())
}

func TestBeginSelection_OnlyWhenEligible(t *testing.T) {
	wf := New(&fakeBackend{}, &memReturns{}, "")
	_, err := wf.BeginSelection()
	assert.Error(t, err)
}
